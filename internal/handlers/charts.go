package handlers

import (
	"encoding/json"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"aat-go/internal/models"
	"aat-go/internal/summary"
)

var imageTypes = []models.Category{models.CategorySpider, models.CategoryNeutral}

// approachBoxPlot draws one box per image type from the five-number summary.
func approachBoxPlot(stats []summary.GroupStats) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Approach Distance",
			Subtitle: "turning point distance from center",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	labels := make([]string, 0, len(stats))
	items := make([]opts.BoxPlotData, 0, len(stats))
	for _, s := range stats {
		labels = append(labels, string(s.ImageType))
		items = append(items, opts.BoxPlotData{
			Name:  string(s.ImageType),
			Value: []float64{s.Min, s.Q25, s.Median, s.Q75, s.Max},
		})
	}
	box.SetXAxis(labels).AddSeries("Distance", items)
	return box
}

// speedBar draws the mean speed for each direction, one series per image type.
func speedBar(stats []summary.GroupStats) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Mean Speed",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Name: "position / time",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	directions := []models.Direction{models.DirectionLeft, models.DirectionRight}
	means := make(map[models.Direction]map[models.Category]float64)
	for _, s := range stats {
		if means[s.Direction] == nil {
			means[s.Direction] = make(map[models.Category]float64)
		}
		means[s.Direction][s.ImageType] = s.Mean
	}

	labels := make([]string, len(directions))
	for i, d := range directions {
		labels[i] = string(d)
	}
	bar.SetXAxis(labels)
	for _, category := range imageTypes {
		items := make([]opts.BarData, 0, len(directions))
		for _, d := range directions {
			items = append(items, opts.BarData{Value: means[d][category]})
		}
		bar.AddSeries(string(category), items)
	}
	return bar
}

// chartOptions serializes a chart's echarts options for the page script.
func chartOptions(chart interface{ JSON() map[string]interface{} }) string {
	out, err := json.Marshal(chart.JSON())
	if err != nil {
		return "{}"
	}
	return string(out)
}
