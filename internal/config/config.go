// Package config loads the insight CLI and dashboard settings.
package config

import (
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/insight/cluster"
	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/dashboard"
	"github.com/YuminosukeSato/insight/dataset"
	"github.com/YuminosukeSato/insight/estimators"
	"github.com/YuminosukeSato/insight/pkg/errors"
	"github.com/YuminosukeSato/insight/pkg/log"
	"github.com/YuminosukeSato/insight/stats"
	"github.com/YuminosukeSato/insight/tree"
)

// EnvPrefix is prepended to every environment override, e.g.
// INSIGHT_KMEANS_K=4.
const EnvPrefix = "INSIGHT"

// DefaultFile is the config file name searched in the working directory and
// in ~/.insight when no explicit path is given.
const DefaultFile = "insight.yaml"

// Config is the full settings tree.
type Config struct {
	LogLevel   string   `mapstructure:"log_level" yaml:"log_level"`
	LogFormat  string   `mapstructure:"log_format" yaml:"log_format"`
	Dataset    string   `mapstructure:"dataset" yaml:"dataset"`
	SampleSize int      `mapstructure:"sample_size" yaml:"sample_size"`
	Seed       uint64   `mapstructure:"seed" yaml:"seed"`
	Features   []string `mapstructure:"features" yaml:"features"`
	Target     string   `mapstructure:"target" yaml:"target"`
	GroupBy    []string `mapstructure:"group_by" yaml:"group_by"`
	DateField  string   `mapstructure:"date_field" yaml:"date_field"`
	TimeBucket string   `mapstructure:"time_bucket" yaml:"time_bucket"`

	Quality  Quality  `mapstructure:"quality" yaml:"quality"`
	Outliers Outliers `mapstructure:"outliers" yaml:"outliers"`
	Linear   Linear   `mapstructure:"linear" yaml:"linear"`
	Tree     Tree     `mapstructure:"tree" yaml:"tree"`
	KMeans   KMeans   `mapstructure:"kmeans" yaml:"kmeans"`
	CV       CV       `mapstructure:"cv" yaml:"cv"`
}

type Quality struct {
	MissingWeight   float64 `mapstructure:"missing_weight" yaml:"missing_weight"`
	DuplicateWeight float64 `mapstructure:"duplicate_weight" yaml:"duplicate_weight"`
}

type Outliers struct {
	IQRMultiplier float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`
}

type Linear struct {
	Alpha float64 `mapstructure:"alpha" yaml:"alpha"`
}

type Tree struct {
	MaxDepth        int `mapstructure:"max_depth" yaml:"max_depth"`
	MinSamplesSplit int `mapstructure:"min_samples_split" yaml:"min_samples_split"`
}

type KMeans struct {
	K       int    `mapstructure:"k" yaml:"k"`
	MaxIter int    `mapstructure:"max_iter" yaml:"max_iter"`
	NInit   int    `mapstructure:"n_init" yaml:"n_init"`
	Init    string `mapstructure:"init" yaml:"init"`
}

type CV struct {
	Folds   int  `mapstructure:"folds" yaml:"folds"`
	Shuffle bool `mapstructure:"shuffle" yaml:"shuffle"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		LogFormat:  "console",
		SampleSize: 200,
		Seed:       cluster.DefaultSeed,
		Features:   []string{dataset.FieldCustomers, dataset.FieldSatisfaction, dataset.FieldMarketShare},
		Target:     dataset.FieldRevenue,
		GroupBy:    []string{dataset.FieldCategory, dataset.FieldRegion},
		DateField:  dataset.FieldDate,
		TimeBucket: stats.Day.String(),
		Quality: Quality{
			MissingWeight:   stats.DefaultMissingWeight,
			DuplicateWeight: stats.DefaultDuplicateWeight,
		},
		Outliers: Outliers{IQRMultiplier: stats.DefaultIQRMultiplier},
		Tree: Tree{
			MaxDepth:        tree.DefaultMaxDepth,
			MinSamplesSplit: tree.DefaultMinSamplesSplit,
		},
		KMeans: KMeans{
			K:       cluster.DefaultK,
			MaxIter: cluster.DefaultMaxIter,
			NInit:   cluster.DefaultNInit,
			Init:    cluster.InitKMeansPlusPlus,
		},
		CV: CV{Folds: 5},
	}
}

// FlagKeys maps CLI flag names to config keys. Load binds every flag in this
// table that exists on the flag set it is given.
var FlagKeys = map[string]string{
	"log-level":  "log_level",
	"log-format": "log_format",
	"dataset":    "dataset",
	"sample":     "sample_size",
	"seed":       "seed",
}

// Load loads configuration from flags, env, file and defaults.
// Precedence: flags > env > config file > defaults. An explicit cfgFile must
// exist; otherwise insight.yaml is looked up in the working directory and in
// ~/.insight and silently skipped when absent.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfgFile)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, filepath.Ext(DefaultFile)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".insight"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &c, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("dataset", d.Dataset)
	v.SetDefault("sample_size", d.SampleSize)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("features", d.Features)
	v.SetDefault("target", d.Target)
	v.SetDefault("group_by", d.GroupBy)
	v.SetDefault("date_field", d.DateField)
	v.SetDefault("time_bucket", d.TimeBucket)
	v.SetDefault("quality.missing_weight", d.Quality.MissingWeight)
	v.SetDefault("quality.duplicate_weight", d.Quality.DuplicateWeight)
	v.SetDefault("outliers.iqr_multiplier", d.Outliers.IQRMultiplier)
	v.SetDefault("linear.alpha", d.Linear.Alpha)
	v.SetDefault("tree.max_depth", d.Tree.MaxDepth)
	v.SetDefault("tree.min_samples_split", d.Tree.MinSamplesSplit)
	v.SetDefault("kmeans.k", d.KMeans.K)
	v.SetDefault("kmeans.max_iter", d.KMeans.MaxIter)
	v.SetDefault("kmeans.n_init", d.KMeans.NInit)
	v.SetDefault("kmeans.init", d.KMeans.Init)
	v.SetDefault("cv.folds", d.CV.Folds)
	v.SetDefault("cv.shuffle", d.CV.Shuffle)
}

// Save writes the configuration as YAML, creating the parent directory.
func Save(c *Config, path string) error {
	if path == "" {
		path = DefaultFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "mkdir config dir")
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}

// Validate reports the first unacceptable setting as an InvalidParameterError.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return errors.NewInvalidParameterError("log_format", "must be 'console' or 'json'", c.LogFormat)
	}
	if c.Dataset == "" && c.SampleSize < 1 {
		return errors.NewInvalidParameterError("sample_size", "must be >= 1", c.SampleSize)
	}
	if len(c.Features) == 0 {
		return errors.NewInvalidParameterError("features", "must not be empty", c.Features)
	}
	if c.Target == "" {
		return errors.NewInvalidParameterError("target", "must not be empty", c.Target)
	}
	if slices.Contains(c.Features, c.Target) {
		return errors.NewInvalidParameterError("target", "must not be one of the features", c.Target)
	}
	if _, err := stats.ParseGranularity(c.TimeBucket); err != nil {
		return err
	}
	if c.Quality.MissingWeight < 0 {
		return errors.NewInvalidParameterError("quality.missing_weight", "must be >= 0", c.Quality.MissingWeight)
	}
	if c.Quality.DuplicateWeight < 0 {
		return errors.NewInvalidParameterError("quality.duplicate_weight", "must be >= 0", c.Quality.DuplicateWeight)
	}
	if k := c.Outliers.IQRMultiplier; k < 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return errors.NewInvalidParameterError("outliers.iqr_multiplier", "must be a finite value >= 0", k)
	}
	if c.CV.Folds < 2 {
		return errors.NewInvalidParameterError("cv.folds", "must be >= 2", c.CV.Folds)
	}
	p := c.Params()
	for _, kind := range model.Kinds() {
		if err := p.Validate(kind); err != nil {
			var pe *errors.InvalidParameterError
			if errors.As(err, &pe) {
				return errors.NewInvalidParameterError(kind.String()+"."+pe.ParamName, pe.Reason, pe.Value)
			}
			return err
		}
	}
	return nil
}

// Params converts the model sections to estimator parameters.
func (c *Config) Params() estimators.Params {
	return estimators.Params{
		Alpha:           c.Linear.Alpha,
		MaxDepth:        c.Tree.MaxDepth,
		MinSamplesSplit: c.Tree.MinSamplesSplit,
		K:               c.KMeans.K,
		MaxIter:         c.KMeans.MaxIter,
		NInit:           c.KMeans.NInit,
		Init:            c.KMeans.Init,
		Seed:            c.Seed,
	}
}

// QualityOptions converts the quality section.
func (c *Config) QualityOptions() stats.QualityOptions {
	return stats.QualityOptions{
		MissingWeight:   c.Quality.MissingWeight,
		DuplicateWeight: c.Quality.DuplicateWeight,
	}
}

// Granularity returns the parsed time bucket, defaulting to days.
func (c *Config) Granularity() stats.Granularity {
	g, err := stats.ParseGranularity(c.TimeBucket)
	if err != nil {
		return stats.Day
	}
	return g
}

// Dashboard converts the settings the dashboard service needs.
func (c *Config) Dashboard() dashboard.Settings {
	s := dashboard.DefaultSettings()
	s.Features = slices.Clone(c.Features)
	s.Target = c.Target
	s.GroupBy = slices.Clone(c.GroupBy)
	s.ValueField = c.Target
	s.DateField = c.DateField
	s.Granularity = c.Granularity()
	s.Quality = c.QualityOptions()
	s.IQRMultiplier = c.Outliers.IQRMultiplier
	s.Params = c.Params()
	s.Folds = c.CV.Folds
	s.Shuffle = c.CV.Shuffle
	s.Seed = c.Seed
	return s
}
