package charts

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"tsdash/internal/axis"
	"tsdash/internal/engine"
	"tsdash/internal/models"
)

// ChartSnippet represents an embeddable go-echarts chart fragment.
// Div holds the chart container, Script the block that initializes it, and
// HTML both of them for template substitution.
type ChartSnippet struct {
	ID     string
	Title  string
	Div    string
	Script string
	HTML   string
}

// missing is how ECharts marks an absent value; lines break there
const missing = "-"

var scriptBlock = regexp.MustCompile(`(?s)<script[^>]*>.*?</script>`)

type renderable interface {
	Render(w io.Writer) error
}

// currentValuer is implemented by single-value kinds
type currentValuer interface {
	Current(c *models.Chart) (float64, bool)
}

// Snippet builds the interactive ECharts rendition of a widget
func (cg *ChartGenerator) Snippet(src Source) (ChartSnippet, error) {
	id := "chart-" + src.ID()
	title := src.Title()
	if title == "" {
		title = src.ID()
	}

	eng := src.Engine()
	dims := eng.Dimensions()
	init := opts.Initialization{
		ChartID: id,
		Theme:   types.ThemeWesteros,
		Width:   fmt.Sprintf("%dpx", int(dims.Width)),
		Height:  fmt.Sprintf("%dpx", int(dims.Height)),
	}

	var r renderable
	switch kind := eng.Kind().(type) {
	case *engine.Pie:
		r = pieChart(init, eng)
	case *engine.Histogram:
		r = barChart(init, eng)
	case currentValuer:
		r = gaugeChart(init, eng, kind)
	default:
		r = lineChart(init, eng)
	}

	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return ChartSnippet{}, fmt.Errorf("failed to render snippet for %s: %w", src.ID(), err)
	}
	return extractSnippet(id, title, buf.String())
}

// extractSnippet cuts the chart container and its init script out of a
// rendered go-echarts page
func extractSnippet(id, title, page string) (ChartSnippet, error) {
	start := strings.Index(page, `id="`+id+`"`)
	if start < 0 {
		return ChartSnippet{}, fmt.Errorf("chart container %s not found", id)
	}
	open := strings.LastIndex(page[:start], "<div")
	end := strings.Index(page[start:], "</div>")
	if open < 0 || end < 0 {
		return ChartSnippet{}, fmt.Errorf("chart container %s is malformed", id)
	}
	div := page[open : start+end+len("</div>")]

	var script string
	for _, block := range scriptBlock.FindAllString(page, -1) {
		if strings.Contains(block, "echarts.init") {
			script = block
			break
		}
	}
	if script == "" {
		return ChartSnippet{}, fmt.Errorf("init script for %s not found", id)
	}

	html := fmt.Sprintf(`<div class="chart-container">
	<h3>%s</h3>
	%s
</div>
%s`, title, div, script)

	return ChartSnippet{ID: id, Title: title, Div: div, Script: script, HTML: html}, nil
}

// domainValues is the sorted union of sample positions over all series
func domainValues(c *models.Chart) []float64 {
	seen := make(map[float64]bool)
	var xs []float64
	for _, s := range c.Series() {
		for _, sm := range s.Samples {
			if !seen[sm.X] {
				seen[sm.X] = true
				xs = append(xs, sm.X)
			}
		}
	}
	sort.Float64s(xs)
	return xs
}

func categoryLabels(eng *engine.Engine, xs []float64) []string {
	o := eng.Options()
	format := axis.FormatNumber
	if o.TimeAxis && len(xs) > 0 {
		format = axis.TimeFormatter(o.BucketSize, xs[len(xs)-1]-xs[0], o.Location)
	}
	labels := make([]string, len(xs))
	for i, x := range xs {
		labels[i] = format(x)
	}
	return labels
}

func globalOptions(init opts.Initialization, eng *engine.Engine, axes bool) []charts.GlobalOpts {
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(init),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true, Bottom: "0"}),
	}
	if axes {
		global = append(global, charts.WithYAxisOpts(opts.YAxis{Name: eng.Options().Unit}))
	} else {
		global[1] = charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "item"})
	}
	return global
}

func lineChart(init opts.Initialization, eng *engine.Engine) *charts.Line {
	c := eng.Chart()
	xs := domainValues(c)

	line := charts.NewLine()
	line.SetGlobalOptions(globalOptions(init, eng, true)...)
	line.SetXAxis(categoryLabels(eng, xs))
	for _, s := range c.Series() {
		data := make([]opts.LineData, len(xs))
		for i, x := range xs {
			data[i] = opts.LineData{Value: missing}
			if v, ok := s.ValueAt(x); ok {
				data[i] = opts.LineData{Value: v}
			}
		}
		line.AddSeries(s.DisplayTitle(), data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}

	smooth := eng.Options().LineMode == engine.Smooth
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: smooth}))
	return line
}

func barChart(init opts.Initialization, eng *engine.Engine) *charts.Bar {
	c := eng.Chart()
	xs := domainValues(c)

	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions(init, eng, true)...)
	bar.SetXAxis(categoryLabels(eng, xs))
	for _, s := range c.Series() {
		data := make([]opts.BarData, len(xs))
		for i, x := range xs {
			data[i] = opts.BarData{Value: missing}
			if v, ok := s.ValueAt(x); ok {
				data[i] = opts.BarData{Value: v}
			}
		}
		bar.AddSeries(s.DisplayTitle(), data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}
	return bar
}

func pieChart(init opts.Initialization, eng *engine.Engine) *charts.Pie {
	var data []opts.PieData
	for _, s := range eng.Chart().Series() {
		if v, ok := s.LastValue(); ok && v > 0 {
			data = append(data, opts.PieData{Name: s.DisplayTitle(), Value: v, ItemStyle: &opts.ItemStyle{Color: s.Color}})
		}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOptions(init, eng, false)...)
	pie.AddSeries(eng.Chart().Name, data, charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}))
	return pie
}

func gaugeChart(init opts.Initialization, eng *engine.Engine, kind currentValuer) *charts.Gauge {
	name := eng.Chart().Name
	var data []opts.GaugeData
	if v, ok := kind.Current(eng.Chart()); ok {
		data = append(data, opts.GaugeData{Name: eng.FormatValue(v), Value: v})
	} else {
		data = append(data, opts.GaugeData{Name: eng.Options().DefaultDisplayValue, Value: 0})
	}

	gauge := charts.NewGauge()
	gauge.SetGlobalOptions(globalOptions(init, eng, false)...)
	gauge.AddSeries(name, data)
	return gauge
}
