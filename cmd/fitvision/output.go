package main

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision/pipeline"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/report"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	formatAuto  = "auto"
	formatTable = "table"
	formatJSON  = "json"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// wantJSON resolves --format. auto picks tables for a terminal and JSON
// for pipes and files.
func (c *commandContext) wantJSON(cmd *cobra.Command) (bool, error) {
	switch c.format {
	case formatJSON:
		return true, nil
	case formatTable:
		return false, nil
	case formatAuto, "":
		return !isTerminal(cmd.OutOrStdout()), nil
	default:
		return false, fmt.Errorf("unknown --format %q (want table, json or auto)", c.format)
	}
}

func writeChartFile(path string, res pipeline.JobResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return report.WriteChart(f, res.Result)
}
