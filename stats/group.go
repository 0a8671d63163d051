package stats

import (
	"cmp"
	"slices"
	"strings"

	"github.com/YuminosukeSato/insight/dataset"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

// Reducer aggregates the values of one group.
type Reducer int

const (
	Sum Reducer = iota + 1
	Mean
	Count
)

func (r Reducer) String() string {
	switch r {
	case Sum:
		return "sum"
	case Mean:
		return "mean"
	case Count:
		return "count"
	default:
		return "unknown"
	}
}

// ParseReducer maps "sum", "mean"/"avg"/"average" and "count" to a Reducer.
func ParseReducer(name string) (Reducer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sum":
		return Sum, nil
	case "mean", "avg", "average":
		return Mean, nil
	case "count":
		return Count, nil
	default:
		return 0, errors.NewInvalidParameterError("reducer", "unsupported reducer", name)
	}
}

func (r Reducer) validate() error {
	if r < Sum || r > Count {
		return errors.NewInvalidParameterError("reducer", "unsupported reducer", int(r))
	}
	return nil
}

// GroupAggregate is the reduced value of one group.
type GroupAggregate struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	// Count is the number of records in the group.
	Count int `json:"count"`
	// Valid is the number of those records with a numeric value field.
	Valid int `json:"valid"`
}

// accumulator is shared by GroupBy and the time-series buckets.
type accumulator struct {
	count int
	valid int
	sum   float64
}

func (a *accumulator) add(r dataset.Record, valueField string) {
	a.count++
	if valueField == "" {
		return
	}
	if v, ok := r.Float(valueField); ok {
		a.valid++
		a.sum += v
	}
}

func (a *accumulator) reduce(r Reducer) float64 {
	switch r {
	case Sum:
		return a.sum
	case Mean:
		if a.valid == 0 {
			return 0
		}
		return a.sum / float64(a.valid)
	default:
		return float64(a.count)
	}
}

// GroupBy partitions records by groupField and reduces valueField within
// each partition. Records whose group key is missing belong to no group;
// QualityReport.MissingByField exposes how many were left out. Sum and Mean
// only see numeric values of valueField, Count counts records. The result is
// sorted by Value descending, then Key ascending.
func GroupBy(records []dataset.Record, groupField, valueField string, reducer Reducer) ([]GroupAggregate, error) {
	if err := reducer.validate(); err != nil {
		return nil, err
	}
	if groupField == "" {
		return nil, errors.NewInvalidParameterError("groupField", "must not be empty", groupField)
	}
	if valueField == "" && reducer != Count {
		return nil, errors.NewInvalidParameterError("valueField", "required for "+reducer.String(), valueField)
	}

	groups := make(map[string]*accumulator)
	for _, r := range records {
		key := r.Get(groupField)
		if key.IsMissing() {
			continue
		}
		acc, ok := groups[key.String()]
		if !ok {
			acc = &accumulator{}
			groups[key.String()] = acc
		}
		acc.add(r, valueField)
	}

	out := make([]GroupAggregate, 0, len(groups))
	for key, acc := range groups {
		out = append(out, GroupAggregate{
			Key:   key,
			Value: acc.reduce(reducer),
			Count: acc.count,
			Valid: acc.valid,
		})
	}
	slices.SortFunc(out, func(a, b GroupAggregate) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out, nil
}
