package chart

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/insight/pkg/errors"
	"github.com/YuminosukeSato/insight/stats"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func buckets() []stats.Bucket {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]stats.Bucket, 5)
	for i := range out {
		d := start.AddDate(0, 0, i)
		out[i] = stats.Bucket{Label: d.Format("2006-01-02"), Start: d, Value: float64(100 + 10*i), Count: 1}
	}
	return out
}

func TestTimeSeries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TimeSeries(&buf, buckets(), Options{Title: "revenue"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	require.NoError(t, TimeSeries(&buf, buckets(), Options{Format: "SVG"}))
	assert.Contains(t, buf.String(), "<svg")
}

func TestGroups(t *testing.T) {
	aggs := []stats.GroupAggregate{
		{Key: "Books", Value: 300, Count: 3},
		{Key: "Food", Value: 120, Count: 2},
	}
	var buf bytes.Buffer
	require.NoError(t, Groups(&buf, aggs, Options{Format: FormatSVG, YLabel: "revenue"}))
	assert.Contains(t, buf.String(), "Books")
	assert.Contains(t, buf.String(), "Food")
}

func TestClusters(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 10, 10, 10, 11})
	centroids := mat.NewDense(2, 2, []float64{0, 0.5, 10, 10.5})

	var buf bytes.Buffer
	require.NoError(t, Clusters(&buf, X, []int{0, 0, 1, 1}, centroids, Options{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	require.NoError(t, Clusters(&buf, X, []int{0, 0, 1, 1}, nil, Options{Format: FormatSVG}))
	assert.Contains(t, buf.String(), "cluster 1")
}

func TestChartErrors(t *testing.T) {
	var buf bytes.Buffer
	var ie *errors.InsufficientDataError
	assert.True(t, errors.As(TimeSeries(&buf, nil, Options{}), &ie))
	assert.True(t, errors.As(Groups(&buf, nil, Options{}), &ie))

	var pe *errors.InvalidParameterError
	assert.True(t, errors.As(TimeSeries(&buf, buckets(), Options{Format: "gif"}), &pe))

	var de *errors.DimensionError
	oneCol := mat.NewDense(2, 1, []float64{1, 2})
	assert.True(t, errors.As(Clusters(&buf, oneCol, []int{0, 0}, nil, Options{}), &de))
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	assert.True(t, errors.As(Clusters(&buf, X, []int{0}, nil, Options{}), &de))
	assert.True(t, errors.As(Clusters(&buf, X, []int{0, -1}, nil, Options{}), &pe))
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("out/revenue.PNG")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)

	f, err = FormatFromPath("chart.svg")
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, f)

	_, err = FormatFromPath("chart.pdf")
	assert.Error(t, err)
}
