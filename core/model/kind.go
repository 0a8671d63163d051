package model

import (
	"strings"

	"github.com/YuminosukeSato/insight/pkg/errors"
)

// Kind enumerates the predictors the dashboard can train.
type Kind int

const (
	KindLinearRegression Kind = iota + 1
	KindDecisionTree
	KindKMeans
)

var kindNames = map[Kind]string{
	KindLinearRegression: "linear",
	KindDecisionTree:     "tree",
	KindKMeans:           "kmeans",
}

// Kinds returns every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindLinearRegression, KindDecisionTree, KindKMeans}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Supervised reports whether the kind needs a target column.
func (k Kind) Supervised() bool {
	return k == KindLinearRegression || k == KindDecisionTree
}

// ParseKind accepts the short names ("linear", "tree", "kmeans") and a few
// common spellings.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear", "linear_regression", "linearregression", "regression":
		return KindLinearRegression, nil
	case "tree", "decision_tree", "decisiontree":
		return KindDecisionTree, nil
	case "kmeans", "k-means", "cluster", "clustering":
		return KindKMeans, nil
	default:
		return 0, errors.NewInvalidParameterError("kind", "unsupported model kind", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
