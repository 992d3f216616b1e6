package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/storage/sqlite"
)

// DefaultFeedbackLimit caps the feedback table in text reports.
const DefaultFeedbackLimit = 20

func newTable(w io.Writer, header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)
	if header != nil {
		tw.AppendHeader(header)
	}
	return tw
}

func fmtOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}

func fmtSeconds(v float64) string {
	return fmt.Sprintf("%.2fs", v)
}

// WriteSummary renders the headline numbers of res as a two-column table.
func WriteSummary(w io.Writer, res *vision.AnalysisResult) {
	tw := newTable(w, nil)
	tw.SetTitle(fmt.Sprintf("Analysis: %s", res.Exercise))
	tw.AppendRow(table.Row{"Frames", res.TotalFrames})
	tw.AppendRow(table.Row{"Frames with pose", res.FramesWithPose})
	if res.TotalReps != nil {
		tw.AppendRow(table.Row{"Repetitions", *res.TotalReps})
		tw.AppendRow(table.Row{"Consistency", fmtOptional(res.ConsistencyScore)})
		tw.AppendRow(table.Row{"Best rep quality", fmtOptional(res.BestRepQuality)})
	}
	if res.HoldDuration != nil {
		tw.AppendRow(table.Row{"Hold duration", fmtSeconds(*res.HoldDuration)})
		tw.AppendRow(table.Row{"Hold sessions", len(res.HoldSessions)})
	}
	tw.AppendRow(table.Row{"Average form score", fmt.Sprintf("%.3f", res.AverageFormScore)})
	if res.Partial {
		tw.AppendRow(table.Row{"Partial", "yes"})
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"Feedback", strings.Join(res.OverallFeedback, "\n")})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	tw.Render()
}

// WriteReps renders one row per completed repetition.
func WriteReps(w io.Writer, reps []vision.RepEvent) {
	if len(reps) == 0 {
		return
	}
	tw := newTable(w, table.Row{"Rep", "Time", "Quality", "Feedback"})
	for _, r := range reps {
		tw.AppendRow(table.Row{r.RepNumber, fmtSeconds(r.Timestamp), fmt.Sprintf("%.2f", r.FormQuality), strings.Join(r.Feedback, "; ")})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	tw.Render()
}

// WriteHolds renders one row per hold session.
func WriteHolds(w io.Writer, sessions []vision.HoldSession) {
	if len(sessions) == 0 {
		return
	}
	tw := newTable(w, table.Row{"#", "Start", "End", "Duration", "Quality", "Feedback"})
	for i, s := range sessions {
		end := "open"
		if s.EndTime != nil {
			end = fmtSeconds(*s.EndTime)
		}
		tw.AppendRow(table.Row{i + 1, fmtSeconds(s.StartTime), end, fmtSeconds(s.Duration), fmt.Sprintf("%.2f", s.FormQuality), strings.Join(s.Feedback, "; ")})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	tw.Render()
}

// WriteFeedback renders at most limit feedback events; limit <= 0 renders
// all of them.
func WriteFeedback(w io.Writer, events []vision.FormFeedback, limit int) {
	if len(events) == 0 {
		return
	}
	shown := events
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	tw := newTable(w, table.Row{"Frame", "Time", "Severity", "Message"})
	for _, e := range shown {
		sev := string(e.Severity)
		if e.Severity == vision.SeverityWarning {
			sev = text.FgYellow.Sprint(sev)
		}
		tw.AppendRow(table.Row{e.FrameNumber, fmtSeconds(e.Timestamp), sev, e.Message})
	}
	if len(shown) < len(events) {
		tw.AppendFooter(table.Row{"", "", "", fmt.Sprintf("... %d more", len(events)-len(shown))})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
	})
	tw.Render()
}

// WriteResult renders the full text report for one analysis.
func WriteResult(w io.Writer, res *vision.AnalysisResult, feedbackLimit int) {
	WriteSummary(w, res)
	WriteReps(w, res.Repetitions)
	WriteHolds(w, res.HoldSessions)
	WriteFeedback(w, res.FormFeedback, feedbackLimit)
}

// JobRow is the subset of a batch job outcome shown in the jobs table.
type JobRow struct {
	Name     string
	Exercise string
	Status   string
	Result   *vision.AnalysisResult
	Error    string
	Elapsed  float64 // seconds
}

// WriteJobs renders one row per batch job.
func WriteJobs(w io.Writer, rows []JobRow) {
	tw := newTable(w, table.Row{"Input", "Exercise", "Status", "Reps", "Hold", "Avg score", "Elapsed", "Error"})
	for _, r := range rows {
		reps, hold, avg := "-", "-", "-"
		if r.Result != nil {
			if r.Result.TotalReps != nil {
				reps = fmt.Sprint(*r.Result.TotalReps)
			}
			if r.Result.HoldDuration != nil {
				hold = fmtSeconds(*r.Result.HoldDuration)
			}
			avg = fmt.Sprintf("%.3f", r.Result.AverageFormScore)
		}
		tw.AppendRow(table.Row{r.Name, r.Exercise, r.Status, reps, hold, avg, fmtSeconds(r.Elapsed), r.Error})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	tw.Render()
}

// WriteCaptures renders stored captures.
func WriteCaptures(w io.Writer, captures []sqlite.Capture) {
	tw := newTable(w, table.Row{"ID", "Name", "Exercise", "FPS", "Frames", "With pose", "Created"})
	for _, c := range captures {
		tw.AppendRow(table.Row{c.ID, c.Name, c.Exercise, fmt.Sprintf("%.1f", c.FPS), c.FrameCount, c.PoseFrames, c.CreatedAt.UTC().Format("2006-01-02 15:04:05")})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	tw.Render()
}

// WriteExercises renders the supported exercise table.
func WriteExercises(w io.Writer) {
	tw := newTable(w, table.Row{"Exercise", "Kind", "Label", "Angles"})
	for _, e := range vision.Exercises() {
		cfg, _ := vision.Lookup(e)
		names := make([]string, len(cfg.Angles))
		for i, a := range cfg.Angles {
			names[i] = a.Name
		}
		tw.AppendRow(table.Row{e, cfg.Kind, cfg.Label, strings.Join(names, ", ")})
	}
	tw.Render()
}
