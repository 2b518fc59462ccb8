package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aat-go/internal/models"
	"aat-go/internal/summary"
)

func TestSpeedBarSeries(t *testing.T) {
	stats := summary.DescribeSpeed([]models.SpeedObservation{
		{Speed: 1, Direction: models.DirectionLeft, ImageType: models.CategorySpider},
		{Speed: 3, Direction: models.DirectionRight, ImageType: models.CategoryNeutral},
	})

	var options map[string]any
	require.NoError(t, json.Unmarshal([]byte(chartOptions(speedBar(stats))), &options))

	series, ok := options["series"].([]any)
	require.True(t, ok)
	assert.Len(t, series, len(imageTypes))
}

func TestApproachBoxPlotHasOneBoxPerGroup(t *testing.T) {
	stats := summary.DescribeApproach([]models.ApproachObservation{
		{ImageType: models.CategorySpider, Distance: 0.2},
		{ImageType: models.CategoryNeutral, Distance: 0.4},
		{ImageType: models.CategoryNeutral, Distance: 0.6},
	})

	var options map[string]any
	require.NoError(t, json.Unmarshal([]byte(chartOptions(approachBoxPlot(stats))), &options))

	series, ok := options["series"].([]any)
	require.True(t, ok)
	require.Len(t, series, 1)
	data, ok := series[0].(map[string]any)["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)
}
