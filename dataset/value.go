package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Kind is the inferred kind of a field or a single value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumeric
	KindCategorical
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindTime:
		return "time"
	default:
		return "missing"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DateLayout is the layout used for day-resolution dates on input and output.
const DateLayout = "2006-01-02"

// Value is one cell of a Record. The zero Value is missing.
type Value struct {
	kind Kind
	num  float64
	str  string
	t    time.Time
}

// Number returns a numeric value. NaN and ±Inf are stored as missing.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumeric, num: f}
}

// Category returns a categorical value.
func Category(s string) Value {
	return Value{kind: KindCategorical, str: s}
}

// Time returns a temporal value.
func Time(t time.Time) Value {
	return Value{kind: KindTime, t: t}
}

// Missing returns the missing value.
func Missing() Value {
	return Value{}
}

// Kind reports the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v carries no value.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric payload; ok is false for every non-numeric kind.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumeric {
		return 0, false
	}
	return v.num, true
}

// Text returns the categorical payload.
func (v Value) Text() (string, bool) {
	if v.kind != KindCategorical {
		return "", false
	}
	return v.str, true
}

// Time returns the temporal payload.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumeric:
		return v.num == o.num
	case KindCategorical:
		return v.str == o.str
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// String renders v for display and group keys. Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindNumeric:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindCategorical:
		return v.str
	case KindTime:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format(DateLayout)
		}
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// MarshalJSON encodes numbers as JSON numbers, missing as null and the rest
// as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumeric:
		return json.Marshal(v.num)
	case KindMissing:
		return []byte("null"), nil
	default:
		return json.Marshal(v.String())
	}
}
