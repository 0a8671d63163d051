package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/insight/pkg/errors"
	"github.com/YuminosukeSato/insight/stats"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	c, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.NoError(t, c.Validate())
	assert.Equal(t, 1.5, c.Outliers.IQRMultiplier)
	assert.Equal(t, 5, c.Tree.MaxDepth)
	assert.Equal(t, 3, c.KMeans.K)
	assert.Equal(t, "revenue", c.Target)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
sample_size: 50
kmeans:
  k: 4
tree:
  max_depth: 3
cv:
  folds: 4
  shuffle: true
`), 0o644))

	t.Setenv("INSIGHT_TREE_MAX_DEPTH", "7")
	t.Setenv("INSIGHT_SAMPLE_SIZE", "80")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("sample", 0, "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--sample", "120"}))

	c, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel, "file value kept when flag not set")
	assert.Equal(t, 120, c.SampleSize, "flag beats env and file")
	assert.Equal(t, 7, c.Tree.MaxDepth, "env beats file")
	assert.Equal(t, 4, c.KMeans.K)
	assert.Equal(t, 4, c.CV.Folds)
	assert.True(t, c.CV.Shuffle)
	assert.Equal(t, 100, c.KMeans.MaxIter, "default for unset key")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "insight.yaml")
	want := Default()
	want.Features = []string{"customers"}
	want.KMeans.K = 6
	require.NoError(t, Save(want, path))

	got, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		param  string
	}{
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"sample size", func(c *Config) { c.SampleSize = 0 }, "sample_size"},
		{"no features", func(c *Config) { c.Features = nil }, "features"},
		{"target in features", func(c *Config) { c.Target = "customers" }, "target"},
		{"bucket", func(c *Config) { c.TimeBucket = "hour" }, "granularity"},
		{"missing weight", func(c *Config) { c.Quality.MissingWeight = -1 }, "quality.missing_weight"},
		{"iqr", func(c *Config) { c.Outliers.IQRMultiplier = -0.1 }, "outliers.iqr_multiplier"},
		{"folds", func(c *Config) { c.CV.Folds = 1 }, "cv.folds"},
		{"tree split", func(c *Config) { c.Tree.MinSamplesSplit = 1 }, "tree.min_samples_split"},
		{"kmeans k", func(c *Config) { c.KMeans.K = 0 }, "kmeans.k"},
		{"alpha", func(c *Config) { c.Linear.Alpha = -2 }, "linear.alpha"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			var pe *errors.InvalidParameterError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.param, pe.ParamName)
		})
	}

	c := Default()
	c.LogLevel = "loud"
	assert.Error(t, c.Validate())
}

func TestConversions(t *testing.T) {
	c := Default()
	c.Seed = 9
	c.TimeBucket = "month"
	p := c.Params()
	assert.Equal(t, uint64(9), p.Seed)
	assert.Equal(t, c.KMeans.Init, p.Init)
	assert.Equal(t, stats.Month, c.Granularity())
	assert.Equal(t, 0.5, c.QualityOptions().DuplicateWeight)
}

func TestDashboardSettings(t *testing.T) {
	c := Default()
	c.CV.Folds = 3
	c.Outliers.IQRMultiplier = 3
	s := c.Dashboard()
	assert.Equal(t, c.Features, s.Features)
	assert.Equal(t, "revenue", s.ValueField)
	assert.Equal(t, 3, s.Folds)
	assert.Equal(t, 3.0, s.IQRMultiplier)
	assert.Equal(t, c.Params(), s.Params)
	assert.Equal(t, stats.Day, s.Granularity)
}
