package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/elonfeng/sentiboard/pkg/dataset"
)

const (
	chartWidth  = 720
	chartHeight = 280
	chartPad    = 40
	maxXLabels  = 6
)

var seriesColors = map[string]string{
	dataset.Positive: "#2e7d32",
	dataset.Neutral:  "#757575",
	dataset.Negative: "#c62828",
}

// Chart is the timeline line chart laid out as SVG polylines.
type Chart struct {
	Width   int
	Height  int
	Series  []Series
	XLabels []Label
	YLabels []Label
}

// Series is one polyline of the chart.
type Series struct {
	Name   string
	Color  string
	Points string
}

// Label is an axis tick label.
type Label struct {
	X    float64
	Y    float64
	Text string
}

// Empty reports whether there is nothing to plot.
func (c Chart) Empty() bool { return len(c.Series) == 0 }

// BuildChart lays out one series per sentiment label keyed by timeline
// date, in the timeline's own order.
func BuildChart(points []dataset.TimelinePoint) Chart {
	c := Chart{Width: chartWidth, Height: chartHeight}
	if len(points) == 0 {
		return c
	}

	maxVal := 0.0
	for _, p := range points {
		for _, label := range dataset.Labels() {
			maxVal = max(maxVal, p.Value(label))
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	plotW := float64(chartWidth - 2*chartPad)
	plotH := float64(chartHeight - 2*chartPad)
	x := func(i int) float64 {
		if len(points) == 1 {
			return chartPad + plotW/2
		}
		return chartPad + float64(i)*plotW/float64(len(points)-1)
	}
	y := func(v float64) float64 {
		return chartPad + plotH - v/maxVal*plotH
	}

	for _, label := range dataset.Labels() {
		coords := make([]string, len(points))
		for i, p := range points {
			coords[i] = fmt.Sprintf("%.1f,%.1f", x(i), y(p.Value(label)))
		}
		c.Series = append(c.Series, Series{
			Name:   label,
			Color:  seriesColors[label],
			Points: strings.Join(coords, " "),
		})
	}

	step := max(1, (len(points)+maxXLabels-1)/maxXLabels)
	for i := 0; i < len(points); i += step {
		c.XLabels = append(c.XLabels, Label{
			X:    x(i),
			Y:    float64(chartHeight - chartPad/2),
			Text: dateLabel(points[i]),
		})
	}

	for _, frac := range []float64{0, 0.5, 1} {
		c.YLabels = append(c.YLabels, Label{
			X:    chartPad - 6,
			Y:    y(frac * maxVal),
			Text: strconv.FormatFloat(frac*maxVal, 'g', 4, 64),
		})
	}
	return c
}

func dateLabel(p dataset.TimelinePoint) string {
	if p.Day.IsZero() {
		return p.Date
	}
	return p.Day.Format(dataset.DateLayout)
}
