package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/YuminosukeSato/insight/pkg/errors"
)

// ReadCSV reads a header row followed by data rows. Each cell is parsed by
// ParseCell; short rows leave the trailing fields missing.
func ReadCSV(r io.Reader) (Collection, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Collection{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var out Collection
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read csv line %d", line)
		}
		fields := make(map[string]Value, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(row) {
				fields[name] = ParseCell(row[i])
			} else {
				fields[name] = Missing()
			}
		}
		out = append(out, Record{fields: fields})
	}
	return out, nil
}

// ReadJSON reads an array of flat objects. null becomes missing, numbers
// become numeric and strings are parsed as dates or kept categorical.
func ReadJSON(r io.Reader) (Collection, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode json records")
	}
	out := make(Collection, 0, len(raw))
	for i, obj := range raw {
		fields := make(map[string]Value, len(obj))
		for name, v := range obj {
			val, err := jsonValue(v)
			if err != nil {
				return nil, errors.Wrapf(err, "record %d field %q", i, name)
			}
			fields[name] = val
		}
		out = append(out, Record{fields: fields})
	}
	return out, nil
}

// Load reads a dataset file, choosing the format by extension (.csv, .json).
func Load(path string) (Collection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read dataset %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(bytes.NewReader(b))
	case ".json":
		return ReadJSON(bytes.NewReader(b))
	default:
		return nil, errors.NewInvalidParameterError("dataset", "unsupported file extension, want .csv or .json", path)
	}
}

// ParseCell converts one text cell: blanks, NA/null/NaN markers and
// infinities are missing, numbers are numeric, ISO dates are temporal, anything else is
// categorical.
func ParseCell(s string) Value {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "n/a", "null", "nan", "none":
		return Missing()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	if t, ok := ParseDate(s); ok {
		return Time(t)
	}
	return Category(s)
}

// ParseDate accepts YYYY-MM-DD, RFC 3339 and the other layouts spf13/cast
// understands. Only strings that start with a digit are tried.
func ParseDate(s string) (time.Time, bool) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	t, err := cast.ToTimeInDefaultLocationE(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func jsonValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Missing(), nil
	case json.Number:
		f, err := cast.ToFloat64E(x.String())
		if err != nil {
			return Missing(), errors.Wrap(err, "parse number")
		}
		return Number(f), nil
	case string:
		if t, ok := ParseDate(x); ok {
			return Time(t), nil
		}
		return Category(x), nil
	case bool:
		return Category(strconv.FormatBool(x)), nil
	default:
		return Missing(), errors.NewInvalidParameterError("value", "nested values are not supported", v)
	}
}
