package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/matias-olea/inmobrain/internal/models"
)

// StatusUnknown groups projects whose status column is empty.
const StatusUnknown = "Sin Información"

// Stats is the aggregate market snapshot for a set of projects. Unit totals
// treat missing values as zero; price and velocity averages only consider
// rows that actually carry a value.
type Stats struct {
	TotalProjects  int     `json:"total_projects"`
	TotalUnits     int     `json:"total_units"`
	SoldUnits      int     `json:"sold_units"`
	AvailableUnits int     `json:"available_units"`
	SellThroughPct float64 `json:"sell_through_pct"`

	AvgPriceUF   float64 `json:"avg_price_uf"`
	AvgPriceM2UF float64 `json:"avg_price_m2_uf"`

	AvgSalesSpeed float64 `json:"avg_sales_speed"`

	// nil when average sales speed is zero: the stock never sells out.
	MonthsToSellOut *float64 `json:"months_to_sell_out"`

	StatusDistribution map[string]int `json:"status_distribution"`
}

// MarketStats aggregates the given projects. An empty input yields zeroed
// stats, never an error.
func MarketStats(projects []models.Project) Stats {
	s := Stats{
		TotalProjects:      len(projects),
		StatusDistribution: map[string]int{},
	}

	var (
		priceSum, priceM2Sum, speedSum float64
		priceN, priceM2N, speedN       int
	)

	for i := range projects {
		p := &projects[i]

		s.TotalUnits += intVal(p.TotalUnits)
		s.SoldUnits += intVal(p.SoldUnits)
		s.AvailableUnits += intVal(p.AvailableUnits)

		// null and zero prices both mean "no price information" in the
		// source data; neither may drag the average down.
		if p.AvgPriceUF != nil && *p.AvgPriceUF != 0 {
			priceSum += *p.AvgPriceUF
			priceN++
		}
		if p.AvgPriceM2UF != nil && *p.AvgPriceM2UF != 0 {
			priceM2Sum += *p.AvgPriceM2UF
			priceM2N++
		}
		if p.SalesSpeedMonthly != nil {
			speedSum += *p.SalesSpeedMonthly
			speedN++
		}

		s.StatusDistribution[normalizeStatus(p.ProjectStatus)]++
	}

	if priceN > 0 {
		s.AvgPriceUF = priceSum / float64(priceN)
	}
	if priceM2N > 0 {
		s.AvgPriceM2UF = priceM2Sum / float64(priceM2N)
	}
	if speedN > 0 {
		s.AvgSalesSpeed = speedSum / float64(speedN)
	}
	if s.TotalUnits > 0 {
		s.SellThroughPct = float64(s.SoldUnits) / float64(s.TotalUnits) * 100
	}
	if s.AvgSalesSpeed > 0 {
		mao := float64(s.AvailableUnits) / s.AvgSalesSpeed
		s.MonthsToSellOut = &mao
	}
	return s
}

func normalizeStatus(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return StatusUnknown
	}
	return strings.ToUpper(status)
}

// PriceBand is one bucket of the fixed UF price distribution. The interval is
// half-open: [Min, Max).
type PriceBand struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
	Pct   int     `json:"pct,omitempty"`
}

var priceBandEdges = []PriceBand{
	{Label: "< 1.000 UF", Min: 0, Max: 1000},
	{Label: "1.000 - 2.000 UF", Min: 1000, Max: 2000},
	{Label: "2.000 - 3.000 UF", Min: 2000, Max: 3000},
	{Label: "3.000 - 5.000 UF", Min: 3000, Max: 5000},
	{Label: "5.000 - 10.000 UF", Min: 5000, Max: 10000},
	{Label: "> 10.000 UF", Min: 10000, Max: math.Inf(1)},
}

// PriceBandCounts buckets every project with a price into exactly one band.
// All bands are returned, including empty ones (participation charts need the
// full axis).
func PriceBandCounts(projects []models.Project) []PriceBand {
	bands := make([]PriceBand, len(priceBandEdges))
	copy(bands, priceBandEdges)

	for i := range projects {
		price := projects[i].AvgPriceUF
		if price == nil {
			continue
		}
		for b := range bands {
			if *price >= bands[b].Min && *price < bands[b].Max {
				bands[b].Count++
				break
			}
		}
	}
	return bands
}

// PriceBandShares returns only the non-empty bands with their rounded share
// of the priced projects.
func PriceBandShares(projects []models.Project) []PriceBand {
	counts := PriceBandCounts(projects)

	total := 0
	for _, b := range counts {
		total += b.Count
	}

	var out []PriceBand
	for _, b := range counts {
		if b.Count == 0 {
			continue
		}
		b.Pct = int(math.Round(float64(b.Count) / float64(total) * 100))
		out = append(out, b)
	}
	return out
}

// TopBySalesSpeed ranks projects by monthly sales velocity, descending.
// Projects without a recorded velocity are excluded from the ranking.
func TopBySalesSpeed(projects []models.Project, n int) []models.Project {
	var ranked []models.Project
	for i := range projects {
		if projects[i].SalesSpeedMonthly != nil {
			ranked = append(ranked, projects[i])
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].SalesSpeedMonthly > *ranked[j].SalesSpeedMonthly
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// DeveloperStock is available stock grouped by developer.
type DeveloperStock struct {
	Developer string `json:"developer"`
	Stock     int    `json:"stock"`
}

func StockByDeveloper(projects []models.Project, n int) []DeveloperStock {
	byDev := map[string]int{}
	var order []string
	for i := range projects {
		dev := strings.TrimSpace(projects[i].Developer)
		if dev == "" {
			dev = StatusUnknown
		}
		if _, ok := byDev[dev]; !ok {
			order = append(order, dev)
		}
		byDev[dev] += intVal(projects[i].AvailableUnits)
	}

	out := make([]DeveloperStock, 0, len(order))
	for _, dev := range order {
		out = append(out, DeveloperStock{Developer: dev, Stock: byDev[dev]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock > out[j].Stock })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func intVal(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
