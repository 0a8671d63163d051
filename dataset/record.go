package dataset

import (
	"encoding/json"
	"maps"
	"slices"
)

// Record is one immutable observation. A field that is absent reads as
// missing.
type Record struct {
	fields map[string]Value
}

// NewRecord builds a Record from a copy of fields.
func NewRecord(fields map[string]Value) Record {
	return Record{fields: maps.Clone(fields)}
}

// Get returns the value of field, or Missing when absent.
func (r Record) Get(field string) Value {
	return r.fields[field]
}

// Float is shorthand for r.Get(field).Float().
func (r Record) Float(field string) (float64, bool) {
	return r.fields[field].Float()
}

// Has reports whether field is present, even if its value is missing.
func (r Record) Has(field string) bool {
	_, ok := r.fields[field]
	return ok
}

// Fields returns the record's field names in sorted order.
func (r Record) Fields() []string {
	return slices.Sorted(maps.Keys(r.fields))
}

// Len returns the number of fields present in the record.
func (r Record) Len() int { return len(r.fields) }

// With returns a copy of r with field set to v.
func (r Record) With(field string, v Value) Record {
	fields := maps.Clone(r.fields)
	if fields == nil {
		fields = make(map[string]Value, 1)
	}
	fields[field] = v
	return Record{fields: fields}
}

// MarshalJSON encodes the record as a flat JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.fields)
}
