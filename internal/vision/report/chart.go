package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
)

// ErrNoFrames is returned by the chart writers when the result carries no
// per-frame record. Enable frame recording to plot a run.
var ErrNoFrames = errors.New("result has no recorded frames")

// missing marks a gap in an echarts series.
const missing = "-"

func timeAxis(frames []vision.FrameAnalysis) []string {
	x := make([]string, len(frames))
	for i, f := range frames {
		x[i] = fmt.Sprintf("%.2f", f.Timestamp)
	}
	return x
}

func scoreSeries(frames []vision.FrameAnalysis) []opts.LineData {
	data := make([]opts.LineData, len(frames))
	for i, f := range frames {
		if !f.PoseDetected {
			data[i] = opts.LineData{Value: missing}
			continue
		}
		data[i] = opts.LineData{Value: f.FormScore}
	}
	return data
}

func angleSeries(frames []vision.FrameAnalysis, name string) []opts.LineData {
	data := make([]opts.LineData, len(frames))
	for i, f := range frames {
		v, ok := f.Angles[name]
		if !ok {
			data[i] = opts.LineData{Value: missing}
			continue
		}
		data[i] = opts.LineData{Value: v}
	}
	return data
}

func lineChart(title, subtitle, yName string, yMax float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, Min: 0, Max: yMax}),
	)
	return line
}

// WriteChart renders an HTML page with the per-frame form score, the joint
// angles and, for rep exercises, the quality of each repetition.
func WriteChart(w io.Writer, res *vision.AnalysisResult) error {
	if len(res.Frames) == 0 {
		return ErrNoFrames
	}
	cfg, err := res.Exercise.Config()
	if err != nil {
		return err
	}
	x := timeAxis(res.Frames)
	subtitle := fmt.Sprintf("%d frames, %d with pose", res.TotalFrames, res.FramesWithPose)

	score := lineChart("Form score", subtitle, "score", 1)
	score.SetXAxis(x).AddSeries("form score", scoreSeries(res.Frames),
		charts.WithLineChartOpts(opts.LineChart{Step: opts.Bool(true)}))

	angles := lineChart("Joint angles", cfg.Label, "degrees", 180)
	angles.SetXAxis(x)
	for _, spec := range cfg.Angles {
		angles.AddSeries(spec.Name, angleSeries(res.Frames, spec.Name),
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	}

	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("%s analysis", cfg.Label))
	page.AddCharts(score, angles)

	if len(res.Repetitions) > 0 {
		labels := make([]string, len(res.Repetitions))
		quality := make([]opts.BarData, len(res.Repetitions))
		for i, r := range res.Repetitions {
			labels[i] = fmt.Sprintf("#%d @ %.1fs", r.RepNumber, r.Timestamp)
			quality[i] = opts.BarData{Value: r.FormQuality}
		}
		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
			charts.WithTitleOpts(opts.Title{Title: "Repetition quality"}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
		)
		bar.SetXAxis(labels).AddSeries("quality", quality,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
		page.AddCharts(bar)
	}

	return page.Render(w)
}
