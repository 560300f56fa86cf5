package analytics

import (
	"fmt"
	"sort"

	"github.com/matias-olea/inmobrain/internal/models"
)

// TypologyStats is the competition aggregate for one typology code across
// every project in scope.
type TypologyStats struct {
	Code      string `json:"code"`
	Bedrooms  int    `json:"bedrooms"`
	Bathrooms int    `json:"bathrooms"`

	InitialStock   int `json:"initial_stock"`
	AvailableStock int `json:"available_stock"`
	SoldUnits      int `json:"sold_units"`

	// Share of each project's monthly sales attributed to this typology,
	// pro-rated by its share of the project's total units.
	MonthlySales float64 `json:"monthly_sales"`

	AvgPriceUF   float64 `json:"avg_price_uf"`
	AvgPriceM2UF float64 `json:"avg_price_m2_uf"`
}

type typologyAcc struct {
	TypologyStats
	priceSum, priceW float64
	m2Sum, m2W       float64
}

// TypologyCode returns the explicit source code when present, a
// bedrooms+bathrooms derived label otherwise.
func TypologyCode(t *models.Typology) string {
	if t.Code != "" {
		return t.Code
	}
	return fmt.Sprintf("%dD%dB", intVal(t.Bedrooms), intVal(t.Bathrooms))
}

// TypologyCompetition aggregates typologies by code. Only the topN codes by
// initial stock are kept; ties preserve input order. topN <= 0 keeps all.
func TypologyCompetition(projects []models.Project, typologies []models.Typology, topN int) []TypologyStats {
	byID := make(map[string]*models.Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}

	accs := map[string]*typologyAcc{}
	var order []string

	for i := range typologies {
		t := &typologies[i]
		code := TypologyCode(t)

		acc, ok := accs[code]
		if !ok {
			acc = &typologyAcc{}
			acc.Code = code
			acc.Bedrooms = intVal(t.Bedrooms)
			acc.Bathrooms = intVal(t.Bathrooms)
			accs[code] = acc
			order = append(order, code)
		}

		initial := intVal(t.TotalUnits)
		available := intVal(t.Stock)
		sold := initial - available
		if sold < 0 {
			// malformed source rows (restocked or corrected units) must
			// never produce negative sales
			sold = 0
		}

		acc.InitialStock += initial
		acc.AvailableStock += available
		acc.SoldUnits += sold

		if p, ok := byID[t.ProjectID]; ok {
			if p.SalesSpeedMonthly != nil && p.TotalUnits != nil && *p.TotalUnits > 0 {
				acc.MonthlySales += *p.SalesSpeedMonthly * float64(initial) / float64(*p.TotalUnits)
			}
		}

		// unit-weighted prices; floor the weight at one unit so priced
		// typologies without stock data still count
		w := float64(initial)
		if w < 1 {
			w = 1
		}
		if t.CurrentPriceUF != nil && *t.CurrentPriceUF != 0 {
			acc.priceSum += *t.CurrentPriceUF * w
			acc.priceW += w
		}
		if t.PricePerM2UF != nil && *t.PricePerM2UF != 0 {
			acc.m2Sum += *t.PricePerM2UF * w
			acc.m2W += w
		}
	}

	out := make([]TypologyStats, 0, len(order))
	for _, code := range order {
		acc := accs[code]
		if acc.priceW > 0 {
			acc.AvgPriceUF = acc.priceSum / acc.priceW
		}
		if acc.m2W > 0 {
			acc.AvgPriceM2UF = acc.m2Sum / acc.m2W
		}
		out = append(out, acc.TypologyStats)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].InitialStock > out[j].InitialStock })
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// BedroomGroup is the stock/price/velocity breakdown for one bedroom count,
// used by the typology-analysis tool.
type BedroomGroup struct {
	Bedrooms     int     `json:"bedrooms"`
	Stock        int     `json:"stock"`
	StockPct     int     `json:"stock_pct"`
	AvgPriceUF   float64 `json:"avg_price_uf"`
	MonthlySales float64 `json:"monthly_sales"`
}

// GroupByBedrooms buckets typologies by bedroom count with each group's share
// of the total available stock.
func GroupByBedrooms(projects []models.Project, typologies []models.Typology) []BedroomGroup {
	byID := make(map[string]*models.Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}

	type acc struct {
		BedroomGroup
		priceSum, priceW float64
	}
	groups := map[int]*acc{}
	var order []int
	total := 0

	for i := range typologies {
		t := &typologies[i]
		bd := intVal(t.Bedrooms)

		g, ok := groups[bd]
		if !ok {
			g = &acc{}
			g.Bedrooms = bd
			groups[bd] = g
			order = append(order, bd)
		}

		stock := intVal(t.Stock)
		g.Stock += stock
		total += stock

		if t.CurrentPriceUF != nil && *t.CurrentPriceUF != 0 {
			w := float64(intVal(t.TotalUnits))
			if w < 1 {
				w = 1
			}
			g.priceSum += *t.CurrentPriceUF * w
			g.priceW += w
		}
		if p, ok := byID[t.ProjectID]; ok {
			if p.SalesSpeedMonthly != nil && p.TotalUnits != nil && *p.TotalUnits > 0 {
				g.MonthlySales += *p.SalesSpeedMonthly * float64(intVal(t.TotalUnits)) / float64(*p.TotalUnits)
			}
		}
	}

	sort.Ints(order)
	out := make([]BedroomGroup, 0, len(order))
	for _, bd := range order {
		g := groups[bd]
		if g.priceW > 0 {
			g.AvgPriceUF = g.priceSum / g.priceW
		}
		if total > 0 {
			g.StockPct = int(float64(g.Stock)/float64(total)*100 + 0.5)
		}
		out = append(out, g.BedroomGroup)
	}
	return out
}
