package report

import (
	"fmt"
	"io"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
)

var (
	plotWidth  = 14 * vg.Inch
	plotHeight = 6 * vg.Inch

	scoreColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	repColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	holdColor  = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// buildPlot draws the form score over time with completed repetitions as
// markers and hold sessions as flat segments at their quality.
func buildPlot(res *vision.AnalysisResult) (*plot.Plot, error) {
	if len(res.Frames) == 0 {
		return nil, ErrNoFrames
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - form score (%d frames)", res.Exercise, res.TotalFrames)
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "score"
	p.Y.Min = 0
	p.Y.Max = 1.05
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(res.Frames))
	for _, f := range res.Frames {
		if !f.PoseDetected {
			continue
		}
		pts = append(pts, plotter.XY{X: f.Timestamp, Y: f.FormScore})
	}
	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("score line: %w", err)
		}
		line.Color = scoreColor
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("form score", line)
	}

	if len(res.Repetitions) > 0 {
		reps := make(plotter.XYs, len(res.Repetitions))
		for i, r := range res.Repetitions {
			reps[i] = plotter.XY{X: r.Timestamp, Y: r.FormQuality}
		}
		sc, err := plotter.NewScatter(reps)
		if err != nil {
			return nil, fmt.Errorf("rep markers: %w", err)
		}
		sc.GlyphStyle.Color = repColor
		sc.GlyphStyle.Shape = draw.TriangleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add("repetition", sc)
	}

	for i, s := range res.HoldSessions {
		end := s.StartTime + s.Duration
		seg, err := plotter.NewLine(plotter.XYs{{X: s.StartTime, Y: s.FormQuality}, {X: end, Y: s.FormQuality}})
		if err != nil {
			return nil, fmt.Errorf("hold segment: %w", err)
		}
		seg.Color = holdColor
		seg.Width = vg.Points(3)
		p.Add(seg)
		if i == 0 {
			p.Legend.Add("hold session", seg)
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePlot saves the form-score plot to path. The image format follows the
// file extension (png, svg or pdf); a path without one gets ".png".
func WritePlot(path string, res *vision.AnalysisResult) (string, error) {
	p, err := buildPlot(res)
	if err != nil {
		return "", err
	}
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create plot dir: %w", err)
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return "", fmt.Errorf("save plot: %w", err)
	}
	return path, nil
}

// WritePlotTo encodes the plot in format ("png", "svg", ...) to w.
func WritePlotTo(w io.Writer, format string, res *vision.AnalysisResult) error {
	p, err := buildPlot(res)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, strings.ToLower(format))
	if err != nil {
		return fmt.Errorf("plot writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
