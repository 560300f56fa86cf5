package analytics

import (
	"sort"

	"github.com/matias-olea/inmobrain/internal/models"
)

// TrendPoint is the averaged snapshot state of one calendar month.
type TrendPoint struct {
	Month           string  `json:"month"` // YYYY-MM
	AvgPriceUF      float64 `json:"avg_price_uf"`
	AvgStock        float64 `json:"avg_stock"`
	AvgSalesMonthly float64 `json:"avg_sales_monthly"`
	Snapshots       int     `json:"snapshots"`
}

// Trend is a month-bucketed series plus first-vs-last change indicators.
// Change percentages are nil when there are fewer than two months or the
// first month has no base value.
type Trend struct {
	Points         []TrendPoint `json:"points"`
	PriceChangePct *float64     `json:"price_change_pct"`
	StockChangePct *float64     `json:"stock_change_pct"`
}

// MonthlyTrend buckets snapshots by calendar month, ascending. Null metric
// values are excluded from that month's average, not counted as zero.
func MonthlyTrend(snapshots []models.MetricsSnapshot) Trend {
	type acc struct {
		priceSum float64
		priceN   int
		stockSum float64
		stockN   int
		salesSum float64
		salesN   int
		total    int
	}

	buckets := map[string]*acc{}
	for i := range snapshots {
		s := &snapshots[i]
		month := s.RecordedAt.Format("2006-01")

		b, ok := buckets[month]
		if !ok {
			b = &acc{}
			buckets[month] = b
		}
		b.total++

		if s.PriceAvgUF != nil {
			b.priceSum += *s.PriceAvgUF
			b.priceN++
		}
		if s.Stock != nil {
			b.stockSum += float64(*s.Stock)
			b.stockN++
		}
		if s.SalesMonthly != nil {
			b.salesSum += *s.SalesMonthly
			b.salesN++
		}
	}

	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)

	t := Trend{}
	for _, m := range months {
		b := buckets[m]
		p := TrendPoint{Month: m, Snapshots: b.total}
		if b.priceN > 0 {
			p.AvgPriceUF = b.priceSum / float64(b.priceN)
		}
		if b.stockN > 0 {
			p.AvgStock = b.stockSum / float64(b.stockN)
		}
		if b.salesN > 0 {
			p.AvgSalesMonthly = b.salesSum / float64(b.salesN)
		}
		t.Points = append(t.Points, p)
	}

	if len(t.Points) >= 2 {
		first, last := t.Points[0], t.Points[len(t.Points)-1]
		t.PriceChangePct = pctChange(first.AvgPriceUF, last.AvgPriceUF)
		t.StockChangePct = pctChange(first.AvgStock, last.AvgStock)
	}
	return t
}

func pctChange(first, last float64) *float64 {
	if first == 0 {
		return nil
	}
	pct := (last - first) / first * 100
	return &pct
}
