package stats

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/YuminosukeSato/insight/dataset"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

// Granularity is the width of a time-series bucket.
type Granularity int

const (
	Day Granularity = iota + 1
	Week
	Month
)

func (g Granularity) String() string {
	switch g {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	default:
		return "unknown"
	}
}

// ParseGranularity accepts day, week and month (with or without a "ly" suffix).
func ParseGranularity(name string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "day", "daily", "":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	default:
		return 0, errors.NewInvalidParameterError("granularity", "unsupported bucket granularity", name)
	}
}

// start truncates t to the first instant of its bucket. Weeks start on Monday.
func (g Granularity) start(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	switch g {
	case Week:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	default:
		return day
	}
}

func (g Granularity) label(start time.Time) string {
	switch g {
	case Week:
		y, w := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case Month:
		return start.Format("2006-01")
	default:
		return start.Format(dataset.DateLayout)
	}
}

// BucketOptions selects the fields and reduction of a time series.
type BucketOptions struct {
	DateField  string
	ValueField string
	Reducer    Reducer
	// Granularity defaults to Day.
	Granularity Granularity
	// Location is the zone whose calendar bounds the buckets. nil means UTC.
	Location *time.Location
}

// Bucket is one point of a time series.
type Bucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	Value float64   `json:"value"`
	Count int       `json:"count"`
}

// Series is a lazy time-series view over records. Ranging over All
// recomputes the buckets from the records each time.
type Series struct {
	records []dataset.Record
	opts    BucketOptions
}

// BucketTimeSeries validates opts and returns the series view. Records whose
// date is missing or unparseable are skipped.
func BucketTimeSeries(records []dataset.Record, opts BucketOptions) (Series, error) {
	if opts.Granularity == 0 {
		opts.Granularity = Day
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Granularity < Day || opts.Granularity > Month {
		return Series{}, errors.NewInvalidParameterError("granularity", "unsupported bucket granularity", int(opts.Granularity))
	}
	if err := opts.Reducer.validate(); err != nil {
		return Series{}, err
	}
	if opts.DateField == "" {
		return Series{}, errors.NewInvalidParameterError("dateField", "must not be empty", opts.DateField)
	}
	if opts.ValueField == "" && opts.Reducer != Count {
		return Series{}, errors.NewInvalidParameterError("valueField", "required for "+opts.Reducer.String(), opts.ValueField)
	}
	return Series{records: records, opts: opts}, nil
}

// Options returns the options the series was built with.
func (s Series) Options() BucketOptions { return s.opts }

// All yields buckets in chronological order.
func (s Series) All() iter.Seq[Bucket] {
	return func(yield func(Bucket) bool) {
		buckets := make(map[time.Time]*accumulator)
		for _, r := range s.records {
			t, ok := recordTime(r.Get(s.opts.DateField))
			if !ok {
				continue
			}
			start := s.opts.Granularity.start(t.In(s.opts.Location))
			acc, ok := buckets[start]
			if !ok {
				acc = &accumulator{}
				buckets[start] = acc
			}
			acc.add(r, s.opts.ValueField)
		}

		starts := slices.SortedFunc(maps.Keys(buckets), func(a, b time.Time) int { return a.Compare(b) })
		for _, start := range starts {
			acc := buckets[start]
			b := Bucket{
				Label: s.opts.Granularity.label(start),
				Start: start,
				Value: acc.reduce(s.opts.Reducer),
				Count: acc.count,
			}
			if !yield(b) {
				return
			}
		}
	}
}

// Collect materialises the series.
func (s Series) Collect() []Bucket {
	return slices.Collect(s.All())
}

func recordTime(v dataset.Value) (time.Time, bool) {
	if t, ok := v.Time(); ok {
		return t, true
	}
	if s, ok := v.Text(); ok {
		return dataset.ParseDate(s)
	}
	return time.Time{}, false
}
