package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/matias-olea/inmobrain/internal/analytics"
	"github.com/matias-olea/inmobrain/internal/models"
	pgrepo "github.com/matias-olea/inmobrain/internal/repositories/postgres"
)

// MarketStatsResult flattens the aggregate stats plus the scope they were
// computed for. Sales speed goes out pre-formatted with one decimal.
type MarketStatsResult struct {
	Scope              string         `json:"scope"`
	TotalProjects      int            `json:"total_projects"`
	TotalUnits         int            `json:"total_units"`
	SoldUnits          int            `json:"sold_units"`
	AvailableUnits     int            `json:"available_units"`
	SellThroughPct     float64        `json:"sell_through_pct"`
	AveragePriceUF     float64        `json:"average_price_uf"`
	AveragePriceM2UF   float64        `json:"average_price_m2_uf"`
	AvgSalesSpeed      string         `json:"avg_sales_speed"`
	MonthsToSellOut    *float64       `json:"months_to_sell_out"`
	StatusDistribution map[string]int `json:"status_distribution"`
	Message            string         `json:"message,omitempty"`
}

type marketStatsArgs struct {
	Comuna       string `json:"comuna"`
	Region       string `json:"region"`
	PropertyType string `json:"property_type"`
}

func (t *Tools) getMarketStats(ctx context.Context, raw json.RawMessage) (any, error) {
	var args marketStatsArgs
	if err := decodeArgs("get_market_stats", raw, &args); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("stats:%s:%s:%s",
		strings.ToUpper(strings.TrimSpace(args.Comuna)),
		strings.ToUpper(strings.TrimSpace(args.Region)),
		strings.ToUpper(strings.TrimSpace(args.PropertyType)))
	var cached MarketStatsResult
	if hit, err := t.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	rows, err := t.projects.List(ctx, pgrepo.ProjectFilter{
		Commune:      args.Comuna,
		Region:       args.Region,
		PropertyType: args.PropertyType,
	})
	if err != nil {
		return nil, fmt.Errorf("no fue posible consultar la base de proyectos: %v", err)
	}

	result := statsResult(scopeLabel(args.Comuna, args.Region, args.PropertyType), rows)
	if len(rows) == 0 {
		result.Message = "No se encontraron proyectos para los filtros indicados."
	}
	if err := t.cache.SetJSON(ctx, key, result, statsCacheTTL); err != nil {
		t.log.WithError(err).Warn("stats cache write failed")
	}
	return result, nil
}

// ProjectSummary is the per-project view returned by search and ranking
// tools. Nullable metrics stay null in the JSON rather than showing as 0.
type ProjectSummary struct {
	Name              string   `json:"name"`
	Developer         string   `json:"developer"`
	Commune           string   `json:"commune"`
	Region            string   `json:"region"`
	Address           string   `json:"address,omitempty"`
	ProjectStatus     string   `json:"project_status"`
	TotalUnits        *int     `json:"total_units"`
	SoldUnits         *int     `json:"sold_units"`
	AvailableUnits    *int     `json:"available_units"`
	AvgPriceUF        *float64 `json:"avg_price_uf"`
	AvgPriceM2UF      *float64 `json:"avg_price_m2_uf"`
	SalesSpeedMonthly *float64 `json:"sales_speed_monthly"`
}

type SearchProjectsResult struct {
	Total    int              `json:"total"`
	Projects []ProjectSummary `json:"projects"`
	Message  string           `json:"message,omitempty"`
}

type searchProjectsArgs struct {
	Comuna       string   `json:"comuna"`
	Region       string   `json:"region"`
	MinPrice     *float64 `json:"min_price"`
	MaxPrice     *float64 `json:"max_price"`
	PropertyType string   `json:"property_type"`
	MinUnits     *int     `json:"min_units"`
	Limit        int      `json:"limit"`
}

func (t *Tools) searchProjects(ctx context.Context, raw json.RawMessage) (any, error) {
	var args searchProjectsArgs
	if err := decodeArgs("search_projects", raw, &args); err != nil {
		return nil, err
	}
	limit := args.Limit
	if limit <= 0 {
		limit = 5
	}

	rows, err := t.projects.List(ctx, pgrepo.ProjectFilter{
		Commune:      args.Comuna,
		Region:       args.Region,
		PropertyType: args.PropertyType,
		MinPrice:     args.MinPrice,
		MaxPrice:     args.MaxPrice,
		MinUnits:     args.MinUnits,
		Limit:        limit,
	})
	if err != nil {
		return nil, fmt.Errorf("no fue posible consultar la base de proyectos: %v", err)
	}

	result := SearchProjectsResult{Total: len(rows), Projects: summarize(rows)}
	if len(rows) == 0 {
		result.Message = "No se encontraron proyectos con los filtros especificados."
	}
	return result, nil
}

// CompareEntry is one region or commune in a comparison. NoData marks
// scopes with no projects so they still appear in the output.
type CompareEntry struct {
	Region          string   `json:"region,omitempty"`
	Commune         string   `json:"commune,omitempty"`
	NoData          bool     `json:"no_data,omitempty"`
	TotalProjects   int      `json:"total_projects"`
	TotalUnits      int      `json:"total_units"`
	SoldUnits       int      `json:"sold_units"`
	AvailableUnits  int      `json:"available_units"`
	SellThroughPct  float64  `json:"sell_through_pct"`
	AvgPriceUF      float64  `json:"avg_price_uf"`
	AvgPriceM2UF    float64  `json:"avg_price_m2_uf"`
	MonthsToSellOut *float64 `json:"months_to_sell_out,omitempty"`
}

type CompareResult struct {
	Entries []CompareEntry `json:"entries"`
}

type compareRegionsArgs struct {
	Regions []string `json:"regions"`
}

func (t *Tools) compareRegions(ctx context.Context, raw json.RawMessage) (any, error) {
	var args compareRegionsArgs
	if err := decodeArgs("compare_regions", raw, &args); err != nil {
		return nil, err
	}
	if len(args.Regions) == 0 {
		return nil, fmt.Errorf(`parámetro requerido "regions" ausente o vacío`)
	}

	key := cacheKeyList("compare", args.Regions)
	var cached CompareResult
	if hit, err := t.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	result := CompareResult{Entries: make([]CompareEntry, 0, len(args.Regions))}
	for _, region := range args.Regions {
		rows, err := t.projects.List(ctx, pgrepo.ProjectFilter{Region: region})
		if err != nil {
			return nil, fmt.Errorf("no fue posible consultar la región %s: %v", region, err)
		}
		entry := compareEntry(rows)
		entry.Region = region
		entry.MonthsToSellOut = nil
		result.Entries = append(result.Entries, entry)
	}
	if err := t.cache.SetJSON(ctx, key, result, statsCacheTTL); err != nil {
		t.log.WithError(err).Warn("compare cache write failed")
	}
	return result, nil
}

type compareCommunesArgs struct {
	Communes []string `json:"communes"`
}

func (t *Tools) compareCommunes(ctx context.Context, raw json.RawMessage) (any, error) {
	var args compareCommunesArgs
	if err := decodeArgs("compare_communes", raw, &args); err != nil {
		return nil, err
	}
	if len(args.Communes) == 0 {
		return nil, fmt.Errorf(`parámetro requerido "communes" ausente o vacío`)
	}

	key := cacheKeyList("compare_communes", args.Communes)
	var cached CompareResult
	if hit, err := t.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	result := CompareResult{Entries: make([]CompareEntry, 0, len(args.Communes))}
	for _, commune := range args.Communes {
		rows, err := t.projects.List(ctx, pgrepo.ProjectFilter{Communes: []string{commune}})
		if err != nil {
			return nil, fmt.Errorf("no fue posible consultar la comuna %s: %v", commune, err)
		}
		entry := compareEntry(rows)
		entry.Commune = commune
		result.Entries = append(result.Entries, entry)
	}
	if err := t.cache.SetJSON(ctx, key, result, statsCacheTTL); err != nil {
		t.log.WithError(err).Warn("compare cache write failed")
	}
	return result, nil
}

type TopSalesEntry struct {
	Name              string   `json:"name"`
	Developer         string   `json:"developer"`
	Commune           string   `json:"commune"`
	Region            string   `json:"region"`
	SalesSpeedMonthly float64  `json:"sales_speed_monthly"`
	SellThroughPct    float64  `json:"sell_through_pct"`
	AvgPriceUF        *float64 `json:"avg_price_uf"`
	SoldUnits         int      `json:"sold_units"`
	TotalUnits        int      `json:"total_units"`
}

type TopSalesResult struct {
	Projects []TopSalesEntry `json:"projects"`
	Message  string          `json:"message,omitempty"`
}

type topSalesArgs struct {
	Limit int `json:"limit"`
}

func (t *Tools) getTopSalesProjects(ctx context.Context, raw json.RawMessage) (any, error) {
	var args topSalesArgs
	if err := decodeArgs("get_top_sales_projects", raw, &args); err != nil {
		return nil, err
	}
	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("top_sales_projects:%d", limit)
	var cached TopSalesResult
	if hit, err := t.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	rows, err := t.projects.List(ctx, pgrepo.ProjectFilter{})
	if err != nil {
		return nil, fmt.Errorf("no fue posible consultar la base de proyectos: %v", err)
	}

	top := analytics.TopBySalesSpeed(rows, limit)
	result := TopSalesResult{Projects: make([]TopSalesEntry, 0, len(top))}
	for i := range top {
		p := &top[i]
		total := intOrZero(p.TotalUnits)
		sold := intOrZero(p.SoldUnits)
		sellThrough := 0.0
		if total > 0 {
			sellThrough = round1(float64(sold) / float64(total) * 100)
		}
		result.Projects = append(result.Projects, TopSalesEntry{
			Name:              p.Name,
			Developer:         p.Developer,
			Commune:           p.Commune,
			Region:            p.Region,
			SalesSpeedMonthly: *p.SalesSpeedMonthly,
			SellThroughPct:    sellThrough,
			AvgPriceUF:        p.AvgPriceUF,
			SoldUnits:         sold,
			TotalUnits:        total,
		})
	}
	if len(result.Projects) == 0 {
		result.Message = "No hay datos de velocidad de venta disponibles."
	}
	if err := t.cache.SetJSON(ctx, key, result, projectsCacheTTL); err != nil {
		t.log.WithError(err).Warn("top sales cache write failed")
	}
	return result, nil
}

type RegionShare struct {
	Region   string `json:"region"`
	Projects int    `json:"projects"`
	Units    int    `json:"units"`
}

type MarketSummaryResult struct {
	TotalProjects  int           `json:"total_projects"`
	TotalUnits     int           `json:"total_units"`
	SoldUnits      int           `json:"sold_units"`
	AvailableUnits int           `json:"available_units"`
	SellThroughPct float64       `json:"sell_through_pct"`
	AvgPriceUF     float64       `json:"avg_price_uf"`
	TopRegions     []RegionShare `json:"top_regions"`
	Message        string        `json:"message,omitempty"`
}

func (t *Tools) getMarketSummary(ctx context.Context, raw json.RawMessage) (any, error) {
	const key = "market_summary_full"
	var cached MarketSummaryResult
	if hit, err := t.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	rows, err := t.projects.List(ctx, pgrepo.ProjectFilter{})
	if err != nil {
		return nil, fmt.Errorf("no fue posible consultar la base de proyectos: %v", err)
	}
	if len(rows) == 0 {
		return MarketSummaryResult{Message: "No hay datos disponibles en el sistema."}, nil
	}

	stats := analytics.MarketStats(rows)
	result := MarketSummaryResult{
		TotalProjects:  stats.TotalProjects,
		TotalUnits:     stats.TotalUnits,
		SoldUnits:      stats.SoldUnits,
		AvailableUnits: stats.AvailableUnits,
		SellThroughPct: stats.SellThroughPct,
		AvgPriceUF:     stats.AvgPriceUF,
		TopRegions:     topRegions(rows, 5),
	}
	if err := t.cache.SetJSON(ctx, key, result, statsCacheTTL); err != nil {
		t.log.WithError(err).Warn("summary cache write failed")
	}
	return result, nil
}

type HistoricalTrendsResult struct {
	Commune        string                 `json:"commune"`
	Months         int                    `json:"months"`
	Series         []analytics.TrendPoint `json:"series"`
	PriceChangePct *float64               `json:"price_change_pct"`
	StockChangePct *float64               `json:"stock_change_pct"`
	Message        string                 `json:"message,omitempty"`
}

type historicalTrendsArgs struct {
	Commune string `json:"commune"`
	Months  int    `json:"months"`
}

func (t *Tools) getHistoricalTrends(ctx context.Context, raw json.RawMessage) (any, error) {
	var args historicalTrendsArgs
	if err := decodeArgs("get_historical_trends", raw, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Commune) == "" {
		return nil, fmt.Errorf(`parámetro requerido "commune" ausente o vacío`)
	}
	months := args.Months
	if months <= 0 {
		months = 6
	}
	if months > 12 {
		months = 12
	}

	rows, err := t.projects.List(ctx, pgrepo.ProjectFilter{Commune: args.Commune})
	if err != nil {
		return nil, fmt.Errorf("no fue posible consultar la comuna %s: %v", args.Commune, err)
	}
	snapshots, err := t.projects.ListMetricHistory(ctx, projectIDs(rows),
		time.Now().AddDate(0, -months, 0), time.Now())
	if err != nil {
		return nil, fmt.Errorf("no fue posible consultar el histórico de %s: %v", args.Commune, err)
	}
	if len(snapshots) == 0 {
		return HistoricalTrendsResult{
			Commune: args.Commune,
			Months:  months,
			Series:  []analytics.TrendPoint{},
			Message: "No hay datos históricos para el período consultado.",
		}, nil
	}

	trend := analytics.MonthlyTrend(snapshots)
	return HistoricalTrendsResult{
		Commune:        args.Commune,
		Months:         months,
		Series:         trend.Points,
		PriceChangePct: trend.PriceChangePct,
		StockChangePct: trend.StockChangePct,
	}, nil
}

type TypologyAnalysisResult struct {
	Commune string                   `json:"commune"`
	Groups  []analytics.BedroomGroup `json:"groups"`
	Message string                   `json:"message,omitempty"`
}

type typologyAnalysisArgs struct {
	Commune string `json:"commune"`
}

func (t *Tools) getTypologyAnalysis(ctx context.Context, raw json.RawMessage) (any, error) {
	var args typologyAnalysisArgs
	if err := decodeArgs("get_typology_analysis", raw, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Commune) == "" {
		return nil, fmt.Errorf(`parámetro requerido "commune" ausente o vacío`)
	}

	rows, err := t.projects.List(ctx, pgrepo.ProjectFilter{Commune: args.Commune})
	if err != nil {
		return nil, fmt.Errorf("no fue posible consultar la comuna %s: %v", args.Commune, err)
	}
	typologies, err := t.projects.ListTypologies(ctx, projectIDs(rows))
	if err != nil {
		return nil, fmt.Errorf("no fue posible consultar las tipologías de %s: %v", args.Commune, err)
	}

	groups := analytics.GroupByBedrooms(rows, typologies)
	result := TypologyAnalysisResult{Commune: args.Commune, Groups: groups}
	if len(groups) == 0 {
		result.Message = "No hay información de tipologías para la comuna consultada."
	}
	return result, nil
}

func statsResult(scope string, rows []models.Project) MarketStatsResult {
	stats := analytics.MarketStats(rows)
	return MarketStatsResult{
		Scope:              scope,
		TotalProjects:      stats.TotalProjects,
		TotalUnits:         stats.TotalUnits,
		SoldUnits:          stats.SoldUnits,
		AvailableUnits:     stats.AvailableUnits,
		SellThroughPct:     stats.SellThroughPct,
		AveragePriceUF:     stats.AvgPriceUF,
		AveragePriceM2UF:   stats.AvgPriceM2UF,
		AvgSalesSpeed:      fmt.Sprintf("%.1f", stats.AvgSalesSpeed),
		MonthsToSellOut:    stats.MonthsToSellOut,
		StatusDistribution: stats.StatusDistribution,
	}
}

func compareEntry(rows []models.Project) CompareEntry {
	if len(rows) == 0 {
		return CompareEntry{NoData: true}
	}
	stats := analytics.MarketStats(rows)
	return CompareEntry{
		TotalProjects:   stats.TotalProjects,
		TotalUnits:      stats.TotalUnits,
		SoldUnits:       stats.SoldUnits,
		AvailableUnits:  stats.AvailableUnits,
		SellThroughPct:  stats.SellThroughPct,
		AvgPriceUF:      stats.AvgPriceUF,
		AvgPriceM2UF:    stats.AvgPriceM2UF,
		MonthsToSellOut: stats.MonthsToSellOut,
	}
}

func summarize(rows []models.Project) []ProjectSummary {
	out := make([]ProjectSummary, 0, len(rows))
	for i := range rows {
		p := &rows[i]
		out = append(out, ProjectSummary{
			Name:              p.Name,
			Developer:         p.Developer,
			Commune:           p.Commune,
			Region:            p.Region,
			Address:           p.Address,
			ProjectStatus:     p.ProjectStatus,
			TotalUnits:        p.TotalUnits,
			SoldUnits:         p.SoldUnits,
			AvailableUnits:    p.AvailableUnits,
			AvgPriceUF:        p.AvgPriceUF,
			AvgPriceM2UF:      p.AvgPriceM2UF,
			SalesSpeedMonthly: p.SalesSpeedMonthly,
		})
	}
	return out
}

func topRegions(rows []models.Project, n int) []RegionShare {
	order := []string{}
	byRegion := map[string]*RegionShare{}
	for i := range rows {
		p := &rows[i]
		region := p.Region
		if region == "" {
			region = "Sin Información"
		}
		entry, ok := byRegion[region]
		if !ok {
			entry = &RegionShare{Region: region}
			byRegion[region] = entry
			order = append(order, region)
		}
		entry.Projects++
		entry.Units += intOrZero(p.TotalUnits)
	}

	out := make([]RegionShare, 0, len(order))
	for _, region := range order {
		out = append(out, *byRegion[region])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Units > out[j].Units })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func scopeLabel(comuna, region, propertyType string) string {
	parts := []string{}
	if c := strings.TrimSpace(comuna); c != "" {
		parts = append(parts, "Comuna: "+c)
	}
	if r := strings.TrimSpace(region); r != "" {
		parts = append(parts, "Región: "+r)
	}
	if p := strings.TrimSpace(propertyType); p != "" {
		parts = append(parts, "Tipo: "+p)
	}
	if len(parts) == 0 {
		return "Todo el mercado"
	}
	return strings.Join(parts, ", ")
}

func projectIDs(rows []models.Project) []string {
	ids := make([]string, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}
	return ids
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
