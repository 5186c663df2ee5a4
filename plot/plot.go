// Package plot draws a metric of the ranked colleges as a PNG line chart.
package plot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"sync"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/nonsonwune/collegerank/models"
)

// Default canvas size in pixels.
const (
	DefaultWidth  = 1000
	DefaultHeight = 600
)

var (
	ErrUnsupportedGraphType = errors.New("unsupported graph type")
	ErrEmptyInput           = errors.New("no rows to plot")
	ErrUnknownColumn        = errors.New("unknown column")
	ErrNoNumericValues      = errors.New("no numeric values to plot")
)

// Options describes one chart. XField is the numeric metric, YField holds
// the category labels.
type Options struct {
	XField string
	YField string
	Title  string
	XLabel string
	YLabel string
	Kind   Kind
	Width  int
	Height int
}

// TitleFor builds the chart title shown for a metric and state.
func TitleFor(metric, state string) string {
	return fmt.Sprintf("%s of Top Colleges in %s", metric, state)
}

var bufferPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

func acquireBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func releaseBuffer(buf *bytes.Buffer) {
	buf.Reset()
	bufferPool.Put(buf)
}

// Render draws the chart and returns PNG bytes. The table is not modified.
func Render(table *models.Table, opts Options) ([]byte, error) {
	if opts.Kind != KindLine {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGraphType, string(opts.Kind))
	}
	if table.Len() == 0 {
		return nil, ErrEmptyInput
	}
	if missing := table.MissingColumns(opts.XField, opts.YField); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownColumn, missing)
	}

	graph, err := lineChart(table, opts)
	if err != nil {
		return nil, err
	}

	buf := acquireBuffer()
	defer releaseBuffer(buf)

	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("rendering %s chart: %w", opts.Kind, err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// RenderBase64 renders the chart and returns it as base64 text for embedding.
func RenderBase64(table *models.Table, opts Options) (string, error) {
	img, err := Render(table, opts)
	if err != nil {
		return "", err
	}
	return Encode(img), nil
}

// Encode returns the standard base64 form of an image.
func Encode(img []byte) string {
	return base64.StdEncoding.EncodeToString(img)
}

func lineChart(table *models.Table, opts Options) (chart.Chart, error) {
	xs := table.Numeric(opts.XField)
	labels := table.Values(opts.YField)

	segments := splitSegments(xs)
	if len(segments) == 0 {
		return chart.Chart{}, fmt.Errorf("%w: %s", ErrNoNumericValues, opts.XField)
	}

	style := lineStyle(chart.ColorBlue)
	series := make([]chart.Series, 0, len(segments))
	for _, seg := range segments {
		series = append(series, chart.ContinuousSeries{
			Name:    opts.XField,
			Style:   style,
			XValues: seg.xs,
			YValues: seg.ys,
		})
	}

	ticks := make([]chart.Tick, len(labels))
	for i, l := range labels {
		ticks[i] = chart.Tick{Value: float64(i), Label: l}
	}

	minX, maxX := valueBounds(xs)
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	return chart.Chart{
		Title:      opts.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 24, Right: 24, Bottom: 24}},
		XAxis: chart.XAxis{
			Name:  opts.XLabel,
			Range: &chart.ContinuousRange{Min: minX, Max: maxX},
		},
		YAxis: chart.YAxis{
			Name:  opts.YLabel,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(labels)) - 0.5},
			Ticks: ticks,
		},
		Series: series,
	}, nil
}

// lineStyle draws connected points with a marker on each.
func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 2,
		StrokeColor: col,
		DotWidth:    4,
		DotColor:    col,
	}
}

type segment struct {
	xs, ys []float64
}

// splitSegments groups consecutive numeric values; a missing value ends a
// segment so the line shows a gap there. Y is the row position.
func splitSegments(xs []float64) []segment {
	var segments []segment
	var cur segment
	for i, x := range xs {
		if math.IsNaN(x) {
			if len(cur.xs) > 0 {
				segments = append(segments, cur)
				cur = segment{}
			}
			continue
		}
		cur.xs = append(cur.xs, x)
		cur.ys = append(cur.ys, float64(i))
	}
	if len(cur.xs) > 0 {
		segments = append(segments, cur)
	}
	return segments
}

// valueBounds returns a non-empty range covering every numeric value.
func valueBounds(xs []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if hi > lo {
		pad := (hi - lo) * 0.05
		return lo - pad, hi + pad
	}
	pad := math.Abs(lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}
