package render

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"fondo/internal/engine"
)

// ErrNoData is returned when a view has nothing to plot. Callers show a
// "no data" placeholder instead of an image.
var ErrNoData = errors.New("no data to plot")

const (
	chartWidth    = 720
	chartHeight   = 420
	maxLabelRunes = 24
)

var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("7f7f7f"),
	drawing.ColorFromHex("bcbd22"),
	drawing.ColorFromHex("17becf"),
}

func colorAt(i int) drawing.Color {
	return palette[i%len(palette)]
}

// Plottable reports whether r has at least one positive value. Chart
// returns ErrNoData exactly when it does not.
func Plottable(r engine.Result) bool {
	for _, g := range r {
		if g.Value.IsPositive() {
			return true
		}
	}
	return false
}

// Chart writes vr as a PNG using the chart kind it declares.
func Chart(w io.Writer, vr engine.ViewResult) error {
	if !Plottable(vr.Groups) {
		return ErrNoData
	}
	values, max := plotValues(vr.Groups)

	switch vr.Chart {
	case engine.ChartPie:
		return pie(w, vr.Title, values)
	case engine.ChartLine:
		// go-chart cannot draw a line through a single point.
		if len(values) < 2 {
			return bar(w, vr.Title, values, max)
		}
		return line(w, vr.Title, vr.Groups, max)
	default:
		return bar(w, vr.Title, values, max)
	}
}

func plotValues(groups engine.Result) ([]chart.Value, float64) {
	values := make([]chart.Value, 0, len(groups))
	var max float64
	for i, g := range groups {
		v := g.Value.InexactFloat64()
		if v > max {
			max = v
		}
		values = append(values, chart.Value{
			Label: Truncate(g.Key, maxLabelRunes),
			Value: v,
			Style: chart.Style{FillColor: colorAt(i), StrokeColor: colorAt(i)},
		})
	}
	return values, max
}

func pie(w io.Writer, title string, values []chart.Value) error {
	// Zero slices break the pie layout.
	kept := make([]chart.Value, 0, len(values))
	for _, v := range values {
		if v.Value > 0 {
			kept = append(kept, v)
		}
	}
	pc := chart.PieChart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Values: kept,
	}
	if err := pc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

func bar(w io.Writer, title string, values []chart.Value, max float64) error {
	width, spacing := barLayout(len(values))
	bc := chart.BarChart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   width,
		BarSpacing: spacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 90}},
		XAxis:      chart.Style{TextRotationDegrees: 45.0},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: max * 1.1},
			ValueFormatter: axisEuro,
		},
		Bars: values,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

// barLayout splits the plot width evenly between n bars so that the largest
// top-N still fits on the canvas.
func barLayout(n int) (width, spacing int) {
	slot := (chartWidth - 120) / n
	width = slot * 3 / 5
	if width > 60 {
		width = 60
	}
	if width < 4 {
		width = 4
	}
	spacing = slot - width
	if spacing < 2 {
		spacing = 2
	}
	return width, spacing
}

// line plots an ascending-key series of at least two groups, typically
// years. Non-numeric keys are plotted at their position.
func line(w io.Writer, title string, groups engine.Result, max float64) error {
	xs := make([]float64, len(groups))
	ys := make([]float64, len(groups))
	ticks := make([]chart.Tick, len(groups))
	for i, g := range groups {
		x := float64(i)
		if n, err := strconv.Atoi(g.Key); err == nil {
			x = float64(n)
		}
		xs[i] = x
		ys[i] = g.Value.InexactFloat64()
		ticks[i] = chart.Tick{Value: x, Label: g.Key}
	}

	graph := chart.Chart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 16}},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: xs[0] - 0.5, Max: xs[len(xs)-1] + 0.5},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: max * 1.1},
			ValueFormatter: axisEuro,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    title,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: colorAt(0),
					StrokeWidth: 3,
					DotColor:    colorAt(0),
					DotWidth:    5,
				},
			},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render line chart: %w", err)
	}
	return nil
}

func axisEuro(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	switch {
	case f >= 1_000_000:
		return printer().Sprintf("€%.1fM", f/1_000_000)
	case f >= 1_000:
		return printer().Sprintf("€%.0fk", f/1_000)
	default:
		return printer().Sprintf("€%.0f", f)
	}
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 2 {
		return s
	}
	return string(r[:n-1]) + "…"
}
