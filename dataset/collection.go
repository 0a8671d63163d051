// Package dataset holds the record model the analysis packages read:
// immutable records of numeric, categorical and temporal values, the
// projection of records onto numeric feature matrices, loaders for CSV and
// JSON files, and the generator for the dashboard's sample data.
package dataset

import (
	"maps"
	"slices"
)

// Collection is an ordered sequence of records. Order is insertion order.
type Collection []Record

// Field describes one field of a collection.
type Field struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Fields returns the union of field names across records, sorted.
func Fields(records []Record) []string {
	set := make(map[string]struct{})
	for _, r := range records {
		for name := range r.fields {
			set[name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

// InferKind returns the majority kind among the defined values of field.
// Numeric wins a tie with categorical, categorical wins a tie with time.
// A field with no defined values is KindMissing.
func InferKind(records []Record, field string) Kind {
	var counts [4]int
	for _, r := range records {
		counts[r.Get(field).Kind()]++
	}
	best, bestCount := KindMissing, 0
	for _, k := range []Kind{KindNumeric, KindCategorical, KindTime} {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

// Fields returns the union of field names across the collection.
func (c Collection) Fields() []string { return Fields(c) }

// InferKind infers the kind of field over the collection.
func (c Collection) InferKind(field string) Kind { return InferKind(c, field) }

// Schema returns every field with its inferred kind, sorted by name.
func (c Collection) Schema() []Field {
	names := c.Fields()
	out := make([]Field, len(names))
	for i, name := range names {
		out[i] = Field{Name: name, Kind: c.InferKind(name)}
	}
	return out
}

// FieldsOfKind returns the sorted names of fields whose inferred kind is k.
func (c Collection) FieldsOfKind(k Kind) []string {
	var out []string
	for _, f := range c.Schema() {
		if f.Kind == k {
			out = append(out, f.Name)
		}
	}
	return out
}

// NumericFields is FieldsOfKind(KindNumeric).
func (c Collection) NumericFields() []string { return c.FieldsOfKind(KindNumeric) }

// CategoricalFields is FieldsOfKind(KindCategorical).
func (c Collection) CategoricalFields() []string { return c.FieldsOfKind(KindCategorical) }
