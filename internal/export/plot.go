// Package export renders tank-level trajectories as image files.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

const (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

var (
	levelColor       = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	equilibriumColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

var ErrEmpty = errors.New("export: trajectory has no samples")

// Series is one labelled trajectory of a comparison plot.
type Series struct {
	Label string
	Traj  *dynamo.Trajectory
}

func levelPoints(tr *dynamo.Trajectory) (plotter.XYs, error) {
	if tr == nil || tr.Len() == 0 {
		return nil, ErrEmpty
	}
	pts := make(plotter.XYs, tr.Len())
	for i, t := range tr.Times {
		pts[i].X = t
		pts[i].Y = tr.States[i][0]
	}
	return pts, nil
}

func newLevelPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "level h"
	p.Y.Min = 0
	p.Add(plotter.NewGrid())
	return p
}

// LevelPlot draws h(t) with a dashed line at hEq. hEq <= 0 omits the line.
func LevelPlot(tr *dynamo.Trajectory, title string, hEq float64) (*plot.Plot, error) {
	pts, err := levelPoints(tr)
	if err != nil {
		return nil, err
	}

	p := newLevelPlot(title)
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = levelColor
	p.Add(line)
	p.Legend.Add("h(t)", line)

	if hEq > 0 {
		eq := plotter.NewFunction(func(float64) float64 { return hEq })
		eq.LineStyle.Color = equilibriumColor
		eq.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(eq)
		p.Legend.Add(fmt.Sprintf("h_eq = %.3f", hEq), eq)
		if p.Y.Max < hEq*1.05 {
			p.Y.Max = hEq * 1.05
		}
	}
	p.Legend.Top = false
	return p, nil
}

// ComparePlot overlays several trajectories.
func ComparePlot(title string, series ...Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, ErrEmpty
	}
	p := newLevelPlot(title)
	for i, s := range series {
		pts, err := levelPoints(s.Traj)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Label, err)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}
	p.Legend.Top = false
	return p, nil
}

// Save writes p to path in the format named by its extension
// (png, svg, pdf, eps, jpg, tif).
func Save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return p.Save(Width, Height, path)
}

// Write renders p to w in the given format.
func Write(w io.Writer, p *plot.Plot, format string) error {
	wt, err := p.WriterTo(Width, Height, strings.ToLower(format))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
