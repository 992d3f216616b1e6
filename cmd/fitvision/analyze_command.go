package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdulrehhhhman/fitness-ai/internal/config"
	"github.com/abdulrehhhhman/fitness-ai/internal/metrics"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l1source"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/pipeline"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/report"
)

const capturePrefix = "capture:"

type analyzeOptions struct {
	exercise    string
	fps         float64
	chartPath   string
	plotPath    string
	frames      bool
	metricsPath string
	feedback    int
}

func (o *analyzeOptions) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.exercise, "exercise", "e", "", "Exercise type: squats, pushups, lunges or planks")
	flags.Float64Var(&o.fps, "fps", 0, "Frame rate for inputs without timestamps (default from config)")
	flags.BoolVar(&o.frames, "frames", false, "Include per-frame records in the result")
	flags.StringVar(&o.metricsPath, "metrics-file", "", "Write Prometheus metrics to this file when done")
	_ = cmd.MarkFlagRequired("exercise")
}

// apply folds the command flags into a private copy of the tuning config.
func (o *analyzeOptions) apply(t *config.TuningConfig) {
	if o.fps > 0 {
		fps := o.fps
		t.DefaultFPS = &fps
	}
	if o.frames || o.chartPath != "" || o.plotPath != "" {
		record := true
		t.RecordFrames = &record
	}
}

// resolveSource maps an input argument to a frame source. Inputs are
// either a JSON-lines file or capture:<id> for a stored capture.
func (c *commandContext) resolveSource(input string, fps float64) (l1source.FrameSource, error) {
	if id, ok := strings.CutPrefix(input, capturePrefix); ok {
		store, err := c.openStore()
		if err != nil {
			return nil, err
		}
		return store.Source(id), nil
	}
	switch strings.ToLower(filepath.Ext(input)) {
	case ".jsonl", ".ndjson":
		return l1source.NewJSONLFile(input, fps), nil
	default:
		return nil, fmt.Errorf("unsupported input %q: want a .jsonl file or %s<id>", input, capturePrefix)
	}
}

func (c *commandContext) newRunner(t *config.TuningConfig) (*pipeline.Runner, error) {
	pool, err := c.detectorPool(t)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(t, pool, c.metrics), nil
}

func newAnalyzeCommand(cc *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <input>",
		Short: "Analyse one recording",
		Long:  "Analyse one recording for the given exercise. <input> is a .jsonl keypoint file or capture:<id>.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cc.wantJSON(cmd)
			if err != nil {
				return err
			}
			t := cc.tuning()
			opts.apply(t)

			src, err := cc.resolveSource(args[0], t.GetDefaultFPS())
			if err != nil {
				return err
			}
			runner, err := cc.newRunner(t)
			if err != nil {
				return err
			}

			res := runner.RunOne(cmd.Context(), pipeline.Job{Name: args[0], Exercise: opts.exercise, Source: src})
			if merr := cc.writeMetrics(opts.metricsPath); merr != nil {
				return merr
			}
			if res.Result == nil {
				return res.Err
			}

			if opts.chartPath != "" {
				if err := writeChartFile(opts.chartPath, res); err != nil {
					return err
				}
			}
			if opts.plotPath != "" {
				if _, err := report.WritePlot(opts.plotPath, res.Result); err != nil {
					return err
				}
			}

			if asJSON {
				if err := writeJSON(cmd, res); err != nil {
					return err
				}
			} else {
				report.WriteResult(cmd.OutOrStdout(), res.Result, opts.feedback)
			}
			return res.Err
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.chartPath, "chart", "", "Write an HTML chart page to this path")
	cmd.Flags().StringVar(&opts.plotPath, "plot", "", "Write a form-score plot image (png, svg or pdf) to this path")
	cmd.Flags().IntVar(&opts.feedback, "feedback-limit", report.DefaultFeedbackLimit, "Feedback rows shown in table output (0 for all)")
	return cmd
}

func newBatchCommand(cc *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "batch <input>...",
		Short: "Analyse several recordings concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cc.wantJSON(cmd)
			if err != nil {
				return err
			}
			t := cc.tuning()
			opts.apply(t)

			jobs := make([]pipeline.Job, 0, len(args))
			for _, input := range args {
				src, err := cc.resolveSource(input, t.GetDefaultFPS())
				if err != nil {
					return err
				}
				jobs = append(jobs, pipeline.Job{Name: input, Exercise: opts.exercise, Source: src})
			}
			runner, err := cc.newRunner(t)
			if err != nil {
				return err
			}

			results := runner.Run(cmd.Context(), jobs)
			if err := cc.writeMetrics(opts.metricsPath); err != nil {
				return err
			}

			failed := 0
			rows := make([]report.JobRow, len(results))
			for i, r := range results {
				if r.Err != nil {
					failed++
				}
				rows[i] = report.JobRow{
					Name:     r.Name,
					Exercise: r.Exercise,
					Status:   r.Status(),
					Result:   r.Result,
					Error:    r.Error,
					Elapsed:  r.Elapsed.Seconds(),
				}
			}

			if asJSON {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				report.WriteJobs(cmd.OutOrStdout(), rows)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d jobs did not complete (%s)", failed, len(results), summarizeStatuses(results))
			}
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

func summarizeStatuses(results []pipeline.JobResult) string {
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Status()]++
	}
	var parts []string
	for _, s := range []string{metrics.StatusOK, metrics.StatusAborted, metrics.StatusRejected, metrics.StatusFailed} {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", s, counts[s]))
		}
	}
	return strings.Join(parts, " ")
}
