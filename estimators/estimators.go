// Package estimators builds fresh predictors from a model.Kind and a flat
// parameter set, so callers such as the dashboard can choose a model by name.
package estimators

import (
	"github.com/YuminosukeSato/insight/cluster"
	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/linear"
	"github.com/YuminosukeSato/insight/pkg/errors"
	"github.com/YuminosukeSato/insight/tree"
)

// Params holds the hyperparameters of every supported model. Fields that do
// not apply to the requested kind are ignored.
type Params struct {
	// linear
	Alpha float64 `json:"alpha" yaml:"alpha" mapstructure:"alpha"`

	// tree
	MaxDepth        int `json:"maxDepth" yaml:"max_depth" mapstructure:"max_depth"`
	MinSamplesSplit int `json:"minSamplesSplit" yaml:"min_samples_split" mapstructure:"min_samples_split"`

	// kmeans
	K       int    `json:"k" yaml:"k" mapstructure:"k"`
	MaxIter int    `json:"maxIter" yaml:"max_iter" mapstructure:"max_iter"`
	NInit   int    `json:"nInit" yaml:"n_init" mapstructure:"n_init"`
	Init    string `json:"init" yaml:"init" mapstructure:"init"`
	Seed    uint64 `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// DefaultParams returns the package defaults of each model.
func DefaultParams() Params {
	return Params{
		MaxDepth:        tree.DefaultMaxDepth,
		MinSamplesSplit: tree.DefaultMinSamplesSplit,
		K:               cluster.DefaultK,
		MaxIter:         cluster.DefaultMaxIter,
		NInit:           cluster.DefaultNInit,
		Init:            cluster.InitKMeansPlusPlus,
		Seed:            cluster.DefaultSeed,
	}
}

// Validate checks the parameters that apply to kind.
func (p Params) Validate(kind model.Kind) error {
	switch kind {
	case model.KindLinearRegression:
		if p.Alpha < 0 {
			return errors.NewInvalidParameterError("alpha", "must be >= 0", p.Alpha)
		}
	case model.KindDecisionTree:
		if p.MaxDepth < 0 {
			return errors.NewInvalidParameterError("max_depth", "must be >= 0", p.MaxDepth)
		}
		if p.MinSamplesSplit < 2 {
			return errors.NewInvalidParameterError("min_samples_split", "must be >= 2", p.MinSamplesSplit)
		}
	case model.KindKMeans:
		if p.K < 1 {
			return errors.NewInvalidParameterError("k", "must be >= 1", p.K)
		}
		if p.MaxIter < 1 {
			return errors.NewInvalidParameterError("max_iter", "must be >= 1", p.MaxIter)
		}
		if p.NInit < 1 {
			return errors.NewInvalidParameterError("n_init", "must be >= 1", p.NInit)
		}
		if p.Init != cluster.InitKMeansPlusPlus && p.Init != cluster.InitRandom {
			return errors.NewInvalidParameterError("init", "must be 'k-means++' or 'random'", p.Init)
		}
	default:
		return errors.NewInvalidParameterError("kind", "unsupported model kind", kind.String())
	}
	return nil
}

// New returns an untrained model of the given kind.
func New(kind model.Kind, p Params) (model.Model, error) {
	if err := p.Validate(kind); err != nil {
		return nil, err
	}
	switch kind {
	case model.KindLinearRegression:
		return linear.NewLinearRegression(linear.WithAlpha(p.Alpha)), nil
	case model.KindDecisionTree:
		return tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(p.MaxDepth),
			tree.WithMinSamplesSplit(p.MinSamplesSplit),
		), nil
	default:
		return cluster.NewKMeans(
			cluster.WithK(p.K),
			cluster.WithMaxIter(p.MaxIter),
			cluster.WithNInit(p.NInit),
			cluster.WithInit(p.Init),
			cluster.WithSeed(p.Seed),
		), nil
	}
}

// Factory validates once and returns a constructor producing a new model on
// every call, as cross-validation needs.
func Factory(kind model.Kind, p Params) (func() model.Model, error) {
	if err := p.Validate(kind); err != nil {
		return nil, err
	}
	return func() model.Model {
		m, _ := New(kind, p)
		return m
	}, nil
}
