// Package render draws the trajectories of a group, either as a static PNG
// (gonum/plot) or as an interactive HTML page (go-echarts).
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
	"github.com/intelligent-soft-robots/balltraj/internal/units"
)

// ErrNothingToDraw is returned when no series has a point to draw.
var ErrNothingToDraw = errors.New("render: no points to draw")

// Series is one trajectory to draw.
type Series struct {
	Name       string
	Trajectory trajectory.Stamped
}

// Projection maps a point onto the 2-D plane of a chart.
type Projection struct {
	Name   string
	XLabel string
	YLabel string
	xy     func(t float64, p []float32) (float64, float64)
}

// Projections available to the plot command.
var (
	TopView = Projection{Name: "top", XLabel: "x (m)", YLabel: "y (m)",
		xy: func(_ float64, p []float32) (float64, float64) { return float64(p[0]), float64(p[1]) }}
	SideView = Projection{Name: "side", XLabel: "y (m)", YLabel: "z (m)",
		xy: func(_ float64, p []float32) (float64, float64) { return float64(p[1]), float64(p[2]) }}
	HeightView = Projection{Name: "height", XLabel: "time (s)", YLabel: "z (m)",
		xy: func(t float64, p []float32) (float64, float64) { return t, float64(p[2]) }}
)

// ProjectionByName looks a projection up by its Name.
func ProjectionByName(name string) (Projection, error) {
	for _, p := range []Projection{TopView, SideView, HeightView} {
		if p.Name == name {
			return p, nil
		}
	}
	return Projection{}, fmt.Errorf("render: unknown view %q (top, side, height)", name)
}

func (pr Projection) points(s trajectory.Stamped) plotter.XYs {
	pts := make(plotter.XYs, 0, s.Len())
	for i, p := range s.Positions {
		if len(p) < 3 {
			continue
		}
		x, y := pr.xy(units.MicrosToSeconds(s.TimeStamps[i]), p)
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts
}

// PNG draws series projected by pr and writes a width x height PNG to w.
func PNG(w io.Writer, title string, series []Series, pr Projection, width, height vg.Length) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = pr.XLabel
	p.Y.Label.Text = pr.YLabel

	colors := generateColors(len(series))
	drawn := 0
	for i, s := range series {
		pts := pr.points(s.Trajectory)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %s: %w", s.Name, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.Name, line)
		drawn++
	}
	if drawn == 0 {
		return ErrNothingToDraw
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// HTML writes a page holding one scatter chart per projection.
func HTML(w io.Writer, title string, series []Series, projections ...Projection) error {
	if len(projections) == 0 {
		projections = []Projection{TopView, SideView, HeightView}
	}
	page := components.NewPage()
	drawn := 0
	for _, pr := range projections {
		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "600px"}),
			charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("view=%s trajectories=%d", pr.Name, len(series))}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: pr.XLabel, NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Name: pr.YLabel, NameLocation: "middle", NameGap: 30}),
		)
		for _, s := range series {
			pts := pr.points(s.Trajectory)
			data := make([]opts.ScatterData, 0, len(pts))
			for _, pt := range pts {
				data = append(data, opts.ScatterData{Value: []interface{}{pt.X, pt.Y}})
			}
			drawn += len(data)
			scatter.AddSeries(s.Name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
		}
		page.AddCharts(scatter)
	}
	if drawn == 0 {
		return ErrNothingToDraw
	}
	return page.Render(w)
}

// generateColors spreads n hues evenly around the colour wheel.
func generateColors(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255), uint8(hueToRGB(p, q, h) * 255), uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
