/*
Package render draws tracker output: PNG charts and a terminal KPI table.

CHART STYLE:
  prior year     gray, dotted
  current year   green, solid; masked buckets are gaps, not zeros
  required avg   red, dotted; only over the future keys

  The value axis uses whole numbers with thousands separators. Day charts
  only label the first of each month.

SEE ALSO:
  - generic/series.go: ChartSpec
*/
package render

import (
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/warp/quota-tracker/generic"
)

var (
	colorPrior    = drawing.ColorFromHex("808080")
	colorCurrent  = drawing.ColorFromHex("2E8B57")
	colorRequired = drawing.ColorFromHex("D62728")
	dotted        = []float64{4, 4}
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 400
)

// PNG writes the chart as a PNG image. It returns generic.ErrNoData when no
// series has a single point to draw.
func PNG(w io.Writer, c generic.ChartSpec, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	var series []chart.Series
	if c.HasPrior {
		series = append(series, runs(fmt.Sprint(c.PriorYear), ints(c.Prior), chart.Style{
			StrokeColor:     colorPrior,
			StrokeWidth:     1.5,
			StrokeDashArray: dotted,
		})...)
	}
	if c.HasCurrent {
		series = append(series, runs(fmt.Sprint(c.CurrentYear), ints(c.Current), chart.Style{
			StrokeColor: colorCurrent,
			StrokeWidth: 2.5,
		})...)
		series = append(series, runs("Required Avg", c.RequiredSeries(), chart.Style{
			StrokeColor:     colorRequired,
			StrokeWidth:     1.5,
			StrokeDashArray: dotted,
		})...)
	}
	if len(series) == 0 {
		return fmt.Errorf("%w: %s", generic.ErrNoData, c.Title)
	}

	ch := chart.Chart{
		Title:  c.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(float64(len(c.Labels)-1), 1)},
			Ticks: ticks(c),
		},
		YAxis: chart.YAxis{
			Name:  c.YAxisTitle,
			Range: &chart.ContinuousRange{Min: 0, Max: yMax(c)},
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return humanize.Comma(int64(math.Round(f)))
				}
				return fmt.Sprint(v)
			},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

// runs splits a gapped series into contiguous segments; go-chart has no gaps.
// Only the first segment carries the name so the legend lists it once.
func runs(name string, values []*float64, style chart.Style) []chart.Series {
	var (
		out    []chart.Series
		xs, ys []float64
	)
	flush := func() {
		if len(xs) == 0 {
			return
		}
		s := chart.ContinuousSeries{Style: style, XValues: xs, YValues: ys}
		if len(out) == 0 {
			s.Name = name
		}
		if len(xs) == 1 {
			s.Style.DotWidth = 3
			s.Style.DotColor = style.StrokeColor
		}
		out = append(out, s)
		xs, ys = nil, nil
	}
	for i, v := range values {
		if v == nil {
			flush()
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, *v)
	}
	flush()
	return out
}

func ints(values []*int) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if v != nil {
			f := float64(*v)
			out[i] = &f
		}
	}
	return out
}

func ticks(c generic.ChartSpec) []chart.Tick {
	show := make(map[string]bool, len(c.TickLabels))
	for _, l := range c.TickLabels {
		show[l] = true
	}
	var out []chart.Tick
	for i, l := range c.Labels {
		if show[l] {
			out = append(out, chart.Tick{Value: float64(i), Label: l})
		}
	}
	return out
}

func yMax(c generic.ChartSpec) float64 {
	max := 0.0
	for _, s := range [][]*float64{ints(c.Prior), ints(c.Current), c.RequiredSeries()} {
		for _, v := range s {
			if v != nil && *v > max {
				max = *v
			}
		}
	}
	if max <= 0 {
		return 1
	}
	return math.Ceil(max * 1.1)
}
