package dataset

import (
	"math"
	"math/rand/v2"
	"time"
)

// Sample field names.
const (
	FieldRevenue      = "revenue"
	FieldCustomers    = "customers"
	FieldSatisfaction = "satisfaction"
	FieldMarketShare  = "marketShare"
	FieldCategory     = "category"
	FieldRegion       = "region"
	FieldDate         = "date"
)

var (
	sampleCategories = []string{"Electronics", "Clothing", "Food", "Books", "Home"}
	sampleRegions    = []string{"North", "South", "East", "West"}
	sampleStart      = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Sample generates n dashboard records, one per day from 2024-01-01.
// Revenue is a linear function of customers, satisfaction and market share
// plus Gaussian noise, so the regression models have signal to find. The
// output depends only on n and seed.
func Sample(n int, seed uint64) Collection {
	if n <= 0 {
		return Collection{}
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make(Collection, n)
	for i := range n {
		customers := float64(50 + rng.IntN(451))
		satisfaction := round(3+2*rng.Float64(), 1)
		share := round(5+20*rng.Float64(), 2)
		category := sampleCategories[rng.IntN(len(sampleCategories))]
		region := sampleRegions[rng.IntN(len(sampleRegions))]
		revenue := 1000 + 40*customers + 800*satisfaction + 150*share + 500*rng.NormFloat64()

		out[i] = Record{fields: map[string]Value{
			FieldRevenue:      Number(round(revenue, 2)),
			FieldCustomers:    Number(customers),
			FieldSatisfaction: Number(satisfaction),
			FieldMarketShare:  Number(share),
			FieldCategory:     Category(category),
			FieldRegion:       Category(region),
			FieldDate:         Time(sampleStart.AddDate(0, 0, i)),
		}}
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
