package pipeline

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var entry atomic.Pointer[logrus.Entry]

func init() {
	SetLogger(logrus.StandardLogger())
}

// SetLogger routes the pipeline's three log streams through l, tagged with
// component=pipeline. Pass nil to disable logging.
//
// ops   → Warn  (actionable problems: dropped streams, detector failures)
// diag  → Info  (per-job summaries)
// trace → Trace (per-frame telemetry)
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = logrus.New()
		l.SetOutput(io.Discard)
		l.SetLevel(logrus.PanicLevel)
	}
	entry.Store(l.WithField("component", "pipeline"))
}

func logger() *logrus.Entry {
	return entry.Load()
}

// opsf logs to the ops stream (actionable warnings, errors, data loss).
func opsf(format string, args ...interface{}) {
	logger().Warnf(format, args...)
}

// diagf logs to the diag stream (day-to-day diagnostics, tuning context).
func diagf(format string, args ...interface{}) {
	logger().Infof(format, args...)
}

// tracef logs to the trace stream (high-frequency frame telemetry).
func tracef(format string, args ...interface{}) {
	logger().Tracef(format, args...)
}
