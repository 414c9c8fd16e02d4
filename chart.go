package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// latencySeries is the latency of one contender per operation, in the order
// given by ops.
type latencySeries struct {
	label string
	ns    []float64
}

func latencyTable(results []BenchResult) ([]string, []latencySeries) {
	ops := operations(results)
	var series []latencySeries
	pos := make(map[string]int)
	for _, r := range results {
		i, ok := pos[r.Label()]
		if !ok {
			i = len(series)
			pos[r.Label()] = i
			series = append(series, latencySeries{label: r.Label(), ns: make([]float64, len(ops))})
		}
		for j, op := range ops {
			if op == r.Operation {
				series[i].ns[j] = float64(r.LatencyNs)
			}
		}
	}
	return ops, series
}

// SaveLatencyPNG draws one group of bars per operation, one bar per
// contender.
func SaveLatencyPNG(results []BenchResult, filename string) error {
	ops, series := latencyTable(results)
	if len(series) == 0 {
		return errors.New("no benchmark results to chart")
	}

	p := plot.New()
	p.Title.Text = "Index Latency per Operation"
	p.Y.Label.Text = "Latency (ns/op)"

	width := vg.Points(60) / vg.Length(len(series))
	for i, s := range series {
		bars, err := plotter.NewBarChart(plotter.Values(s.ns), width)
		if err != nil {
			return errors.Wrapf(err, "bars for %s", s.label)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = vg.Length(i-len(series)/2) * width
		p.Add(bars)
		p.Legend.Add(s.label, bars)
	}
	p.Legend.Top = true
	p.NominalX(ops...)
	p.Add(plotter.NewGrid())

	if err := p.Save(12*vg.Inch, 6*vg.Inch, filename); err != nil {
		return errors.Wrapf(err, "save %s", filename)
	}
	logger.Info("wrote chart", "file", filename)
	return nil
}

// SaveLatencyHTML renders the same data as an interactive bar chart.
func SaveLatencyHTML(results []BenchResult, filename string) error {
	ops, series := latencyTable(results)
	if len(series) == 0 {
		return errors.New("no benchmark results to chart")
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Index Latency per Operation",
			Subtitle: "ns/op, lower is better",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(ops)
	for _, s := range series {
		data := make([]opts.BarData, len(s.ns))
		for i, v := range s.ns {
			data[i] = opts.BarData{Value: v}
		}
		bar.AddSeries(s.label, data)
	}

	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}
	defer f.Close()

	page := components.NewPage()
	page.AddCharts(bar)
	if err := page.Render(f); err != nil {
		return errors.Wrapf(err, "render %s", filename)
	}
	logger.Info("wrote chart", "file", filename)
	return nil
}
