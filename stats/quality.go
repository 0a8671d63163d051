package stats

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/YuminosukeSato/insight/dataset"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

// Default quality penalty weights: a missing cell costs a full point per
// percent, a duplicate row half a point.
const (
	DefaultMissingWeight   = 1.0
	DefaultDuplicateWeight = 0.5
)

// QualityOptions controls DataQualityWith.
type QualityOptions struct {
	// Fields are the tracked fields; empty tracks the union of all record fields.
	Fields          []string
	MissingWeight   float64
	DuplicateWeight float64
}

// DefaultQualityOptions tracks every field with the default weights.
func DefaultQualityOptions() QualityOptions {
	return QualityOptions{
		MissingWeight:   DefaultMissingWeight,
		DuplicateWeight: DefaultDuplicateWeight,
	}
}

// QualityReport summarises missing values and duplicate rows.
type QualityReport struct {
	Rows                int            `json:"rows"`
	Fields              []string       `json:"fields"`
	MissingCells        int            `json:"missingCells"`
	MissingPercentage   float64        `json:"missingPercentage"`
	Duplicates          int            `json:"duplicates"`
	DuplicatePercentage float64        `json:"duplicatePercentage"`
	Score               float64        `json:"qualityScore"`
	MissingByField      map[string]int `json:"missingByField"`
}

// DataQuality scores records over every field with the default weights:
// score = clamp(100 − missing% − 0.5·duplicate%, 0, 100).
func DataQuality(records []dataset.Record) QualityReport {
	r, _ := DataQualityWith(records, DefaultQualityOptions())
	return r
}

// DataQualityWith scores records with explicit tracked fields and weights.
//
// A cell is missing when the field is absent, null or NaN. A record is a
// duplicate when it equals an earlier record on every tracked field.
func DataQualityWith(records []dataset.Record, opts QualityOptions) (QualityReport, error) {
	if opts.MissingWeight < 0 || opts.DuplicateWeight < 0 {
		return QualityReport{}, errors.NewInvalidParameterError("weights", "quality weights must be non-negative",
			[2]float64{opts.MissingWeight, opts.DuplicateWeight})
	}
	fields := opts.Fields
	if len(fields) == 0 {
		fields = dataset.Fields(records)
	}

	rep := QualityReport{
		Rows:           len(records),
		Fields:         append([]string(nil), fields...),
		MissingByField: make(map[string]int, len(fields)),
		Score:          100,
	}
	if len(records) == 0 {
		return rep, nil
	}

	for _, f := range fields {
		rep.MissingByField[f] = 0
	}
	for _, r := range records {
		for _, f := range fields {
			if r.Get(f).IsMissing() {
				rep.MissingCells++
				rep.MissingByField[f]++
			}
		}
	}
	rep.Duplicates = countDuplicates(records, fields)

	if cells := len(records) * len(fields); cells > 0 {
		rep.MissingPercentage = float64(rep.MissingCells) / float64(cells) * 100
	}
	rep.DuplicatePercentage = float64(rep.Duplicates) / float64(len(records)) * 100
	score := 100 - rep.MissingPercentage*opts.MissingWeight - rep.DuplicatePercentage*opts.DuplicateWeight
	rep.Score = errors.ClipValue(score, 0, 100)
	return rep, nil
}

// countDuplicates buckets rows by an xxhash fingerprint and confirms each
// candidate by full comparison, so hash collisions never count.
func countDuplicates(records []dataset.Record, fields []string) int {
	seen := make(map[uint64][]int, len(records))
	dups := 0
	for i, r := range records {
		h := fingerprint(r, fields)
		dup := false
		for _, j := range seen[h] {
			if equalOn(records[j], r, fields) {
				dup = true
				break
			}
		}
		if dup {
			dups++
			continue
		}
		seen[h] = append(seen[h], i)
	}
	return dups
}

func fingerprint(r dataset.Record, fields []string) uint64 {
	d := xxhash.New()
	var buf [9]byte
	for _, f := range fields {
		v := r.Get(f)
		buf[0] = byte(v.Kind())
		switch v.Kind() {
		case dataset.KindNumeric:
			x, _ := v.Float()
			if x == 0 {
				x = 0 // fold -0 into +0
			}
			binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(x))
			_, _ = d.Write(buf[:])
		case dataset.KindTime:
			t, _ := v.Time()
			binary.LittleEndian.PutUint64(buf[1:], uint64(t.UnixNano()))
			_, _ = d.Write(buf[:])
		case dataset.KindCategorical:
			_, _ = d.Write(buf[:1])
			_, _ = d.WriteString(v.String())
			_, _ = d.Write([]byte{0})
		default:
			_, _ = d.Write(buf[:1])
		}
	}
	return d.Sum64()
}

func equalOn(a, b dataset.Record, fields []string) bool {
	for _, f := range fields {
		if !a.Get(f).Equal(b.Get(f)) {
			return false
		}
	}
	return true
}
