// Package dashboard wires the statistics engine and the model toolkit into
// the flow a dashboard needs: a memoized overview of the loaded records, an
// explicit train action and short narrative insights.
//
// The dashboard is the only library package that logs. It is safe for
// concurrent use; the overview memo is guarded by a mutex and Train never
// mutates shared state.
package dashboard

import (
	"sync"
	"time"

	"github.com/YuminosukeSato/insight/dataset"
	"github.com/YuminosukeSato/insight/estimators"
	"github.com/YuminosukeSato/insight/pkg/log"
	"github.com/YuminosukeSato/insight/stats"
)

// Settings controls what Overview computes and how Train builds models.
type Settings struct {
	// Features and Target are the defaults for TrainRequest.
	Features []string
	Target   string
	// GroupBy lists categorical fields aggregated against ValueField.
	GroupBy    []string
	ValueField string
	Reducer    stats.Reducer
	// DateField and Granularity drive the time series.
	DateField   string
	Granularity stats.Granularity

	Quality       stats.QualityOptions
	IQRMultiplier float64
	// TopPairs caps Overview.TopPairs.
	TopPairs int

	Params  estimators.Params
	Folds   int
	Shuffle bool
	Seed    uint64
}

// DefaultSettings matches the generated sample dataset.
func DefaultSettings() Settings {
	return Settings{
		Features:      []string{dataset.FieldCustomers, dataset.FieldSatisfaction, dataset.FieldMarketShare},
		Target:        dataset.FieldRevenue,
		GroupBy:       []string{dataset.FieldCategory, dataset.FieldRegion},
		ValueField:    dataset.FieldRevenue,
		Reducer:       stats.Sum,
		DateField:     dataset.FieldDate,
		Granularity:   stats.Day,
		Quality:       stats.DefaultQualityOptions(),
		IQRMultiplier: stats.DefaultIQRMultiplier,
		TopPairs:      5,
		Params:        estimators.DefaultParams(),
		Folds:         5,
		Seed:          estimators.DefaultParams().Seed,
	}
}

// Dashboard holds one loaded collection.
type Dashboard struct {
	settings Settings
	logger   log.Logger

	mu       sync.Mutex
	records  dataset.Collection
	overview *Overview
}

// New creates a dashboard over records. A nil logger discards output.
func New(records dataset.Collection, settings Settings, logger log.Logger) *Dashboard {
	if logger == nil {
		logger = log.Nop()
	}
	return &Dashboard{
		settings: settings,
		logger:   logger.With(log.ComponentKey, "dashboard"),
		records:  records,
	}
}

// Records returns the current collection.
func (d *Dashboard) Records() dataset.Collection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.records
}

// Settings returns the settings the dashboard was created with.
func (d *Dashboard) Settings() Settings { return d.settings }

// SetRecords replaces the collection and drops the memoized overview.
func (d *Dashboard) SetRecords(records dataset.Collection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = records
	d.overview = nil
}

// Invalidate drops the memoized overview so the next call recomputes it.
func (d *Dashboard) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overview = nil
}

// GroupSection is one GroupBy result of the overview.
type GroupSection struct {
	Field      string                 `json:"field"`
	Aggregates []stats.GroupAggregate `json:"aggregates"`
}

// OutlierSection reports the IQR fences of one numeric field.
type OutlierSection struct {
	Field   string       `json:"field"`
	Defined bool         `json:"defined"`
	Bounds  stats.Bounds `json:"bounds"`
	// Rows are indices into the dashboard records.
	Rows []int `json:"rows"`
}

// Overview is everything the dashboard shows without training a model.
type Overview struct {
	Rows        int                     `json:"rows"`
	Schema      []dataset.Field         `json:"schema"`
	Summaries   []stats.Summary         `json:"summaries"`
	Groups      []GroupSection          `json:"groups"`
	Correlation stats.CorrelationMatrix `json:"correlation"`
	TopPairs    []stats.Pair            `json:"topPairs"`
	Outliers    []OutlierSection        `json:"outliers"`
	Quality     stats.QualityReport     `json:"quality"`
	TimeSeries  []stats.Bucket          `json:"timeSeries"`
	ComputedAt  time.Time               `json:"computedAt"`
}

// Overview returns the memoized overview, computing it on first use or after
// Invalidate. Sections whose fields are absent from the records are empty.
func (d *Dashboard) Overview() (*Overview, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.overview != nil {
		return d.overview, nil
	}

	start := time.Now()
	o, err := d.computeOverview()
	if err != nil {
		d.logger.Error("Overview failed", err,
			log.OperationKey, log.OperationOverview,
			log.ErrorCodeKey, log.ErrorCode(err),
		)
		return nil, err
	}
	d.logger.Info("Overview computed",
		log.OperationKey, log.OperationOverview,
		log.PhaseKey, log.PhaseAnalysis,
		log.SamplesKey, o.Rows,
		log.QualityScoreKey, o.Quality.Score,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	d.overview = o
	return o, nil
}

func (d *Dashboard) computeOverview() (*Overview, error) {
	s := d.settings
	records := d.records
	numeric := records.NumericFields()

	o := &Overview{
		Rows:        len(records),
		Schema:      records.Schema(),
		Summaries:   stats.SummarizeAll(records, numeric),
		Correlation: stats.Correlations(records, numeric),
		ComputedAt:  time.Now(),
	}
	o.TopPairs = o.Correlation.Pairs(s.TopPairs)

	present := make(map[string]bool)
	for _, f := range records.Fields() {
		present[f] = true
	}

	for _, field := range s.GroupBy {
		if !present[field] {
			continue
		}
		aggs, err := stats.GroupBy(records, field, s.ValueField, s.Reducer)
		if err != nil {
			return nil, err
		}
		o.Groups = append(o.Groups, GroupSection{Field: field, Aggregates: aggs})
	}

	for _, field := range numeric {
		rows, err := stats.OutlierIndices(records, field, s.IQRMultiplier)
		if err != nil {
			return nil, err
		}
		b, ok := stats.OutlierBoundsWith(records, field, s.IQRMultiplier)
		o.Outliers = append(o.Outliers, OutlierSection{Field: field, Defined: ok, Bounds: b, Rows: rows})
	}

	q, err := stats.DataQualityWith(records, s.Quality)
	if err != nil {
		return nil, err
	}
	o.Quality = q

	if s.DateField != "" && present[s.DateField] {
		series, err := stats.BucketTimeSeries(records, stats.BucketOptions{
			DateField:   s.DateField,
			ValueField:  s.ValueField,
			Reducer:     s.Reducer,
			Granularity: s.Granularity,
		})
		if err != nil {
			return nil, err
		}
		o.TimeSeries = series.Collect()
	}
	return o, nil
}
