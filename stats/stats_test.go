package stats

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/insight/dataset"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

func rec(fields map[string]dataset.Value) dataset.Record { return dataset.NewRecord(fields) }

func num(f float64) dataset.Value { return dataset.Number(f) }

func cat(s string) dataset.Value { return dataset.Category(s) }

func day(s string) dataset.Value {
	t, err := time.Parse(dataset.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return dataset.Time(t)
}

// exampleRecords is the worked example: one revenue cell out of six is missing.
func exampleRecords() []dataset.Record {
	return []dataset.Record{
		rec(map[string]dataset.Value{"revenue": num(100), "customers": num(10)}),
		rec(map[string]dataset.Value{"revenue": num(200), "customers": num(20)}),
		rec(map[string]dataset.Value{"revenue": dataset.Missing(), "customers": num(30)}),
	}
}

func TestSummarizeExample(t *testing.T) {
	s := Summarize(exampleRecords(), "revenue")
	assert.True(t, s.Defined)
	assert.Equal(t, 2, s.Count)
	assert.InDelta(t, 300, s.Sum, 1e-12)
	assert.InDelta(t, 150, s.Mean, 1e-12)
	assert.InDelta(t, 150, s.Median, 1e-12)
	assert.Equal(t, 100.0, s.Min)
	assert.Equal(t, 200.0, s.Max)
	// population std of {100, 200}
	assert.InDelta(t, 50, s.StdDev, 1e-12)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(exampleRecords(), "absent")
	assert.False(t, s.Defined)
	assert.Equal(t, Summary{Field: "absent"}, s)
	assert.Empty(t, SummarizeAll(nil, nil))
}

func TestSummaryOrderingProperty(t *testing.T) {
	records := dataset.Sample(200, 3)
	for _, f := range dataset.Collection(records).NumericFields() {
		s := Summarize(records, f)
		require.True(t, s.Defined, f)
		assert.LessOrEqual(t, s.Min, s.Median, f)
		assert.LessOrEqual(t, s.Median, s.Max, f)
		assert.GreaterOrEqual(t, s.StdDev, 0.0, f)
	}
}

func TestMedianOddEven(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{1, 2, 9}))
	assert.Equal(t, 2.5, median([]float64{1, 2, 3, 4}))
}

func groupRecords() []dataset.Record {
	return []dataset.Record{
		rec(map[string]dataset.Value{"category": cat("A"), "revenue": num(10)}),
		rec(map[string]dataset.Value{"category": cat("B"), "revenue": num(30)}),
		rec(map[string]dataset.Value{"category": cat("A"), "revenue": num(20)}),
		rec(map[string]dataset.Value{"category": cat("C"), "revenue": dataset.Missing()}),
		rec(map[string]dataset.Value{"category": dataset.Missing(), "revenue": num(1000)}),
		rec(map[string]dataset.Value{"revenue": num(7)}),
	}
}

func TestGroupBy(t *testing.T) {
	records := groupRecords()

	sum, err := GroupBy(records, "category", "revenue", Sum)
	require.NoError(t, err)
	assert.Equal(t, []GroupAggregate{
		{Key: "A", Value: 30, Count: 2, Valid: 2},
		{Key: "B", Value: 30, Count: 1, Valid: 1},
		{Key: "C", Value: 0, Count: 1, Valid: 0},
	}, sum)

	mean, err := GroupBy(records, "category", "revenue", Mean)
	require.NoError(t, err)
	assert.Equal(t, "B", mean[0].Key)
	assert.InDelta(t, 15, mean[1].Value, 1e-12)

	count, err := GroupBy(records, "category", "", Count)
	require.NoError(t, err)
	total := 0
	for _, g := range count {
		total += g.Count
		assert.Equal(t, float64(g.Count), g.Value)
	}
	// two records have no category
	assert.Equal(t, len(records)-2, total)
}

func TestGroupBySumMatchesSummary(t *testing.T) {
	records := dataset.Sample(120, 11)
	groups, err := GroupBy(records, dataset.FieldRegion, dataset.FieldRevenue, Sum)
	require.NoError(t, err)
	var total float64
	for _, g := range groups {
		total += g.Value
	}
	assert.InDelta(t, Summarize(records, dataset.FieldRevenue).Sum, total, 1e-6)
}

func TestGroupByErrors(t *testing.T) {
	var pe *errors.InvalidParameterError

	_, err := GroupBy(groupRecords(), "category", "revenue", Reducer(42))
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "unsupported reducer", pe.Reason)

	_, err = ParseReducer("median")
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "unsupported reducer", pe.Reason)

	_, err = GroupBy(groupRecords(), "category", "", Sum)
	assert.True(t, errors.As(err, &pe))

	r, err := ParseReducer("AVG")
	require.NoError(t, err)
	assert.Equal(t, Mean, r)
}

func TestCorrelation(t *testing.T) {
	records := []dataset.Record{
		rec(map[string]dataset.Value{"a": num(1), "b": num(2), "c": num(5), "k": num(1)}),
		rec(map[string]dataset.Value{"a": num(2), "b": num(4), "c": num(3), "k": num(1)}),
		rec(map[string]dataset.Value{"a": num(3), "b": num(6), "c": num(4), "k": num(1)}),
		rec(map[string]dataset.Value{"a": num(4), "b": dataset.Missing(), "c": num(1), "k": num(1)}),
	}

	r, ok := Correlation(records, "a", "b")
	require.True(t, ok)
	assert.InDelta(t, 1, r, 1e-12)

	r, ok = Correlation(records, "a", "a")
	require.True(t, ok)
	assert.Equal(t, 1.0, r)

	_, ok = Correlation(records, "a", "k")
	assert.False(t, ok, "zero variance")

	_, ok = Correlation(records[:1], "a", "c")
	assert.False(t, ok, "fewer than two rows")

	ac, ok1 := Correlation(records, "a", "c")
	ca, ok2 := Correlation(records, "c", "a")
	require.True(t, ok1 && ok2)
	assert.Equal(t, ac, ca)
	assert.Less(t, ac, 0.0)
}

func TestNonFiniteCellsAreMissing(t *testing.T) {
	records, err := dataset.ReadCSV(strings.NewReader("a,b\n1,2\nInf,3\n5,9\n"))
	require.NoError(t, err)

	s := Summarize(records, "a")
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 2.0, s.StdDev)

	r, ok := Correlation(records, "a", "b")
	require.True(t, ok)
	assert.InDelta(t, 1, r, 1e-12)
}

func TestCorrelationLargeMagnitudes(t *testing.T) {
	var records []dataset.Record
	for i := 1; i <= 5; i++ {
		x := 1e200 * float64(i)
		records = append(records, rec(map[string]dataset.Value{"x": num(x), "y": num(-x), "z": num(float64(i))}))
	}

	r, ok := Correlation(records, "x", "y")
	require.True(t, ok)
	assert.InDelta(t, -1, r, 1e-12)

	r, ok = Correlation(records, "x", "z")
	require.True(t, ok)
	assert.InDelta(t, 1, r, 1e-12)
}

func TestCorrelationMatrixProperties(t *testing.T) {
	records := dataset.Sample(150, 5)
	fields := dataset.Collection(records).NumericFields()
	m := Correlations(records, fields)

	for i, a := range fields {
		assert.Equal(t, 1.0, m.Values[i][i])
		for j, b := range fields {
			assert.Equal(t, m.Values[i][j], m.Values[j][i], "%s/%s", a, b)
			assert.LessOrEqual(t, math.Abs(m.Values[i][j]), 1.0)
		}
	}

	pairs := m.Pairs(2)
	require.Len(t, pairs, 2)
	assert.GreaterOrEqual(t, math.Abs(pairs[0].R), math.Abs(pairs[1].R))
	// revenue is generated from customers, so that pair dominates
	assert.ElementsMatch(t, []string{dataset.FieldCustomers, dataset.FieldRevenue}, []string{pairs[0].A, pairs[0].B})

	r, ok := m.At(dataset.FieldRevenue, dataset.FieldCustomers)
	require.True(t, ok)
	assert.Equal(t, pairs[0].R, r)
	_, ok = m.At("nope", dataset.FieldRevenue)
	assert.False(t, ok)
}

func TestDetectOutliers(t *testing.T) {
	var records []dataset.Record
	for _, v := range []float64{10, 11, 12, 13, 14, 15, 16, 100} {
		records = append(records, rec(map[string]dataset.Value{"x": num(v)}))
	}
	records = append(records, rec(map[string]dataset.Value{"x": dataset.Missing()}))

	out := DetectOutliers(records, "x")
	require.Len(t, out, 1)
	v, _ := out[0].Float("x")
	assert.Equal(t, 100.0, v)

	b, ok := OutlierBounds(records, "x")
	require.True(t, ok)
	assert.LessOrEqual(t, b.Q1, b.Q3)
	assert.InDelta(t, b.Q3-b.Q1, b.IQR, 1e-12)
	assert.True(t, b.Contains(16))
	assert.False(t, b.Contains(100))

	idx, err := OutlierIndices(records, "x", 1000)
	require.NoError(t, err)
	assert.Empty(t, idx)

	_, err = DetectOutliersWith(records, "x", -1)
	var pe *errors.InvalidParameterError
	assert.True(t, errors.As(err, &pe))
}

func TestDetectOutliersZeroVariance(t *testing.T) {
	var records []dataset.Record
	for range 10 {
		records = append(records, rec(map[string]dataset.Value{"x": num(5)}))
	}
	assert.Empty(t, DetectOutliers(records, "x"))
	assert.Empty(t, DetectOutliers(records, "absent"))
}

func TestDataQualityExample(t *testing.T) {
	q := DataQuality(exampleRecords())
	assert.Equal(t, 3, q.Rows)
	assert.Equal(t, 1, q.MissingCells)
	assert.InDelta(t, 100.0/6, q.MissingPercentage, 1e-9)
	assert.Equal(t, 0, q.Duplicates)
	assert.InDelta(t, 100-100.0/6, q.Score, 1e-9)
	assert.Equal(t, map[string]int{"revenue": 1, "customers": 0}, q.MissingByField)
}

func TestDataQualityClean(t *testing.T) {
	q := DataQuality(dataset.Sample(40, 1))
	assert.Equal(t, 0.0, q.MissingPercentage)
	assert.Equal(t, 0.0, q.DuplicatePercentage)
	assert.Equal(t, 100.0, q.Score)
}

func TestDataQualityDuplicates(t *testing.T) {
	a := rec(map[string]dataset.Value{"x": num(1), "y": cat("u")})
	b := rec(map[string]dataset.Value{"x": num(2), "y": cat("u")})
	negZero := rec(map[string]dataset.Value{"x": num(math.Copysign(0, -1)), "y": cat("u")})
	zero := rec(map[string]dataset.Value{"x": num(0), "y": cat("u")})
	records := []dataset.Record{a, b, a, a, negZero, zero}

	q := DataQuality(records)
	assert.Equal(t, 3, q.Duplicates)
	assert.InDelta(t, 50, q.DuplicatePercentage, 1e-9)
	assert.InDelta(t, 75, q.Score, 1e-9)

	only, err := DataQualityWith(records, QualityOptions{Fields: []string{"y"}, MissingWeight: 1, DuplicateWeight: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 5, only.Duplicates)
}

func TestDataQualityEmptyFieldList(t *testing.T) {
	records := []dataset.Record{
		rec(map[string]dataset.Value{"x": num(1)}),
		rec(map[string]dataset.Value{"x": num(2)}),
		rec(map[string]dataset.Value{"x": num(3)}),
	}
	q, err := DataQualityWith(records, QualityOptions{Fields: []string{}, MissingWeight: 1, DuplicateWeight: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, q.Fields)
	assert.Equal(t, 0, q.Duplicates)
	assert.Equal(t, 100.0, q.Score)
}

func TestDataQualityEdges(t *testing.T) {
	q := DataQuality(nil)
	assert.Equal(t, 0, q.Rows)
	assert.Equal(t, 100.0, q.Score)

	var records []dataset.Record
	for range 4 {
		records = append(records, rec(map[string]dataset.Value{"x": dataset.Missing(), "y": dataset.Missing()}))
	}
	q, err := DataQualityWith(records, QualityOptions{MissingWeight: 1, DuplicateWeight: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, q.Score, "clamped at zero")

	_, err = DataQualityWith(records, QualityOptions{MissingWeight: -1})
	var pe *errors.InvalidParameterError
	assert.True(t, errors.As(err, &pe))
}

func TestBucketTimeSeriesDaily(t *testing.T) {
	records := []dataset.Record{
		rec(map[string]dataset.Value{"date": day("2024-01-03"), "revenue": num(5)}),
		rec(map[string]dataset.Value{"date": day("2024-01-01"), "revenue": num(1)}),
		rec(map[string]dataset.Value{"date": cat("2024-01-01"), "revenue": num(2)}),
		rec(map[string]dataset.Value{"date": dataset.Missing(), "revenue": num(99)}),
		rec(map[string]dataset.Value{"date": cat("not a date"), "revenue": num(99)}),
	}
	s, err := BucketTimeSeries(records, BucketOptions{DateField: "date", ValueField: "revenue", Reducer: Sum})
	require.NoError(t, err)

	got := s.Collect()
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-01", got[0].Label)
	assert.Equal(t, 3.0, got[0].Value)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "2024-01-03", got[1].Label)

	// restartable and non-mutating
	assert.Equal(t, got, s.Collect())
	d, _ := records[0].Get("date").Time()
	assert.Equal(t, "2024-01-03", d.Format(dataset.DateLayout))

	// early stop
	n := 0
	for range s.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestBucketTimeSeriesMixedOffsets(t *testing.T) {
	at := func(s string) dataset.Value {
		ts, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return dataset.Time(ts)
	}
	records := []dataset.Record{
		rec(map[string]dataset.Value{"date": at("2024-01-01T10:00:00Z"), "revenue": num(2)}),
		rec(map[string]dataset.Value{"date": at("2024-01-01T20:00:00Z"), "revenue": num(3)}),
		rec(map[string]dataset.Value{"date": at("2024-01-01T12:00:00+09:00"), "revenue": num(2)}),
	}

	s, err := BucketTimeSeries(records, BucketOptions{DateField: "date", ValueField: "revenue", Reducer: Sum})
	require.NoError(t, err)
	got := s.Collect()
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-01", got[0].Label)
	assert.Equal(t, 7.0, got[0].Value)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, time.UTC, got[0].Start.Location())

	jst := time.FixedZone("JST", 9*60*60)
	s, err = BucketTimeSeries(records, BucketOptions{DateField: "date", ValueField: "revenue", Reducer: Sum, Location: jst})
	require.NoError(t, err)
	got = s.Collect()
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-01", got[0].Label)
	assert.Equal(t, 4.0, got[0].Value)
	assert.Equal(t, "2024-01-02", got[1].Label)
	assert.Equal(t, 3.0, got[1].Value)
}

func TestBucketTimeSeriesGranularity(t *testing.T) {
	records := dataset.Sample(60, 2)

	weeks, err := BucketTimeSeries(records, BucketOptions{
		DateField: dataset.FieldDate, ValueField: dataset.FieldRevenue, Reducer: Count, Granularity: Week,
	})
	require.NoError(t, err)
	w := weeks.Collect()
	require.NotEmpty(t, w)
	// 2024-01-01 is a Monday
	assert.Equal(t, "2024-W01", w[0].Label)
	assert.Equal(t, 7.0, w[0].Value)

	months, err := BucketTimeSeries(records, BucketOptions{
		DateField: dataset.FieldDate, ValueField: dataset.FieldRevenue, Reducer: Mean, Granularity: Month,
	})
	require.NoError(t, err)
	m := months.Collect()
	require.Len(t, m, 2)
	assert.Equal(t, "2024-01", m[0].Label)
	assert.Equal(t, 31, m[0].Count)
	assert.Equal(t, 29, m[1].Count)
	for i := 1; i < len(m); i++ {
		assert.True(t, m[i-1].Start.Before(m[i].Start))
	}
}

func TestBucketTimeSeriesErrors(t *testing.T) {
	var pe *errors.InvalidParameterError
	_, err := BucketTimeSeries(nil, BucketOptions{DateField: "date", Reducer: Sum})
	assert.True(t, errors.As(err, &pe))
	_, err = BucketTimeSeries(nil, BucketOptions{ValueField: "x", Reducer: Sum})
	assert.True(t, errors.As(err, &pe))
	_, err = BucketTimeSeries(nil, BucketOptions{DateField: "d", ValueField: "x", Reducer: Sum, Granularity: 9})
	assert.True(t, errors.As(err, &pe))
	_, err = ParseGranularity("hourly")
	assert.True(t, errors.As(err, &pe))
	g, err := ParseGranularity("Monthly")
	require.NoError(t, err)
	assert.Equal(t, Month, g)
}
