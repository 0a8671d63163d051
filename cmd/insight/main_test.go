package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/insight/stats"
)

// run executes the CLI in an isolated working directory and home so no
// stray insight.yaml is picked up.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	t.Setenv("HOME", dir)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

func TestSummary(t *testing.T) {
	out, err := run(t, "summary", "--sample", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "Summary of 50 records (sample)")
	assert.Contains(t, out, "revenue")
	assert.Contains(t, out, "marketShare")
}

func TestGroupJSON(t *testing.T) {
	out, err := run(t, "group", "category", "--json", "--sample", "100")
	require.NoError(t, err)
	var aggs []stats.GroupAggregate
	require.NoError(t, json.Unmarshal([]byte(out), &aggs))
	assert.Len(t, aggs, 5)
	total := 0
	for i, a := range aggs {
		total += a.Count
		if i > 0 {
			assert.GreaterOrEqual(t, aggs[i-1].Value, a.Value)
		}
	}
	assert.Equal(t, 100, total)
}

func TestCorrelateJSON(t *testing.T) {
	out, err := run(t, "correlate", "--json", "--top", "2")
	require.NoError(t, err)
	var res struct {
		Pairs []stats.Pair `json:"pairs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Pairs, 2)
}

func TestOutliersFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	csv := "id,value\n1,10\n2,11\n3,12\n4,13\n5,14\n6,15\n7,16\n8,100\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	out, err := run(t, "outliers", "value", "--dataset", path, "--json")
	require.NoError(t, err)
	var res struct {
		Rows []int `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []int{7}, res.Rows)

	out, err = run(t, "outliers", "value", "--dataset", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Outliers of value")
	assert.Contains(t, out, "100.00")
}

func TestQualityJSON(t *testing.T) {
	out, err := run(t, "quality", "--json")
	require.NoError(t, err)
	var rep stats.QualityReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 100.0, rep.Score)
	assert.Equal(t, 200, rep.Rows)
}

func TestTimeSeriesMonthly(t *testing.T) {
	out, err := run(t, "timeseries", "--bucket", "month", "--sample", "60", "--json")
	require.NoError(t, err)
	var buckets []stats.Bucket
	require.NoError(t, json.Unmarshal([]byte(out), &buckets))
	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-01", buckets[0].Label)
	assert.Equal(t, 31, buckets[0].Count)
	assert.Equal(t, 29, buckets[1].Count)
}

func TestTrainLinearJSON(t *testing.T) {
	out, err := run(t, "train", "linear", "--sample", "120", "--json")
	require.NoError(t, err)
	var res struct {
		RunID   string `json:"runId"`
		Kind    string `json:"kind"`
		Metrics struct {
			R2 float64 `json:"r2"`
		} `json:"metrics"`
		CV struct {
			Scores []float64 `json:"scores"`
		} `json:"cv"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "linear", res.Kind)
	assert.Greater(t, res.Metrics.R2, 0.9)
	assert.Len(t, res.CV.Scores, 5)
}

func TestTrainText(t *testing.T) {
	out, err := run(t, "train", "kmeans", "--sample", "90")
	require.NoError(t, err)
	assert.Contains(t, out, "3 clusters")

	out, err = run(t, "train", "tree", "--features", "customers", "--sample", "90")
	require.NoError(t, err)
	assert.Contains(t, out, "Permutation importance")
	assert.Contains(t, out, "leaves")

	_, err = run(t, "train", "forest")
	assert.Error(t, err)
}

func TestOverview(t *testing.T) {
	out, err := run(t, "overview", "--sample", "80")
	require.NoError(t, err)
	assert.Contains(t, out, "Insights")
	assert.Contains(t, out, "Strongest correlation")
}

func TestChart(t *testing.T) {
	dir := t.TempDir()

	svg := filepath.Join(dir, "groups.svg")
	_, err := run(t, "chart", "groups", "-o", svg, "--sample", "60")
	require.NoError(t, err)
	b, err := os.ReadFile(svg)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<svg")

	png := filepath.Join(dir, "clusters.png")
	_, err = run(t, "chart", "clusters", "-o", png, "--sample", "60")
	require.NoError(t, err)
	b, err = os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))

	ts := filepath.Join(dir, "ts.png")
	_, err = run(t, "chart", "timeseries", "-o", ts, "--bucket", "week", "--sample", "60")
	require.NoError(t, err)
	assert.FileExists(t, ts)

	_, err = run(t, "chart", "groups", "-o", filepath.Join(dir, "x.gif"))
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insight.yaml")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = run(t, "config", "init", path)
	assert.Error(t, err)
	_, err = run(t, "config", "init", path, "--force")
	require.NoError(t, err)

	out, err = run(t, "--config", path, "config", "show", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "log_level: info")
	assert.Contains(t, out, "seed: 7")
	assert.True(t, strings.Contains(out, "iqr_multiplier: 1.5"))
}

func TestInvalidSettings(t *testing.T) {
	_, err := run(t, "summary", "--log-level", "loud")
	assert.Error(t, err)

	_, err = run(t, "summary", "--dataset", "missing.csv")
	assert.Error(t, err)

	_, err = run(t, "group", "category", "--reducer", "median")
	assert.Error(t, err)
}
