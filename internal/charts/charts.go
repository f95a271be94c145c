// Package charts renders aggregate statistics as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"tracker/internal/core"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to chart")

// MaxMonths bounds how many months a chart shows; older months are dropped.
const MaxMonths = 12

// Generator renders charts with a fixed canvas size.
type Generator struct {
	Width  int
	Height int
}

func NewGenerator() *Generator {
	return &Generator{Width: 1200, Height: 600}
}

// MonthlyChart draws an income and an expense bar for each month, oldest
// first. stats is expected in the order returned by monthly statistics
// (most recent month first).
func (g *Generator) MonthlyChart(stats []core.MonthlyStats) ([]byte, error) {
	if len(stats) == 0 {
		return nil, ErrNoData
	}
	if len(stats) > MaxMonths {
		stats = stats[:MaxMonths]
	}

	bars := make([]chart.Value, 0, 2*len(stats))
	maxValue := 0.0
	for i := len(stats) - 1; i >= 0; i-- {
		s := stats[i]
		income, expenses := s.TotalIncome.Float(), s.TotalExpenses.Float()
		maxValue = max(maxValue, income, expenses)

		bars = append(bars,
			chart.Value{
				Label: s.Month + " in",
				Value: income,
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					FillColor:   chart.ColorGreen,
				},
			},
			chart.Value{
				Label: s.Month + " out",
				Value: expenses,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					FillColor:   chart.ColorRed,
				},
			},
		)
	}
	if maxValue == 0 {
		maxValue = 1
	}

	graph := chart.BarChart{
		Title: "Monthly income and expenses",
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:    g.Width,
		Height:   g.Height,
		BarWidth: barWidth(g.Width, len(bars)),
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.Style{
			FontSize:  10,
			FontColor: chart.ColorBlack,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.2f", v.(float64))
			},
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render monthly chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// BalanceTrendChart draws the net balance of each month as a line, oldest
// first, with the same month window as MonthlyChart.
func (g *Generator) BalanceTrendChart(stats []core.MonthlyStats) ([]byte, error) {
	if len(stats) == 0 {
		return nil, ErrNoData
	}
	if len(stats) > MaxMonths {
		stats = stats[:MaxMonths]
	}

	n := len(stats)
	xValues := make([]float64, n)
	yValues := make([]float64, n)
	ticks := make([]chart.Tick, n)
	for i := range stats {
		s := stats[n-1-i]
		xValues[i] = float64(i)
		yValues[i] = s.NetBalance().Float()
		ticks[i] = chart.Tick{Value: float64(i), Label: s.Month}
	}
	lo, hi := balanceRange(yValues)

	graph := chart.Chart{
		Title: "Net balance trend",
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:  g.Width,
		Height: g.Height,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			// A single month still needs a non-empty x range.
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
			Ticks: ticks,
			Style: chart.Style{
				FontSize:  10,
				FontColor: chart.ColorBlack,
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.2f", v.(float64))
			},
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Net balance",
				XValues: xValues,
				YValues: yValues,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 3,
					DotColor:    chart.ColorBlue,
					DotWidth:    4,
				},
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render balance trend chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// balanceRange returns y bounds that include zero and every value, padded
// by a tenth of the span.
func balanceRange(values []float64) (lo, hi float64) {
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi == lo {
		return 0, 1
	}
	pad := (hi - lo) * 0.1
	return lo - pad, hi + pad
}

func barWidth(width, bars int) int {
	w := (width - 100) / (bars * 2)
	return min(max(w, 8), 60)
}
