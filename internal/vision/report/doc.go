// Package report renders analysis results for people: terminal tables,
// an HTML chart page, and a static form-score plot.
package report
