package brain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matias-olea/inmobrain/internal/models"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func newTestTools(repo *mockProjectRepo) (*Tools, *Registry, *mockCache) {
	c := &mockCache{}
	tools := NewTools(repo, c, quietLogger())
	return tools, tools.Registry(), c
}

func TestDispatchUnknownTool(t *testing.T) {
	_, registry, _ := newTestTools(&mockProjectRepo{})

	out := registry.Dispatch(context.Background(), "get_weather", `{}`)

	assert.Equal(t, "herramienta no encontrada: get_weather", out)
}

func TestDispatchInvalidArguments(t *testing.T) {
	_, registry, _ := newTestTools(&mockProjectRepo{})

	out := registry.Dispatch(context.Background(), "get_market_stats", `{"comuna": 42}`)

	assert.Contains(t, out, "argumentos inválidos")
	assert.Contains(t, out, "get_market_stats")
}

func TestDispatchEmptyArgumentsDefaultsToEmptyObject(t *testing.T) {
	_, registry, _ := newTestTools(&mockProjectRepo{})

	out := registry.Dispatch(context.Background(), "get_market_summary", "")

	var res MarketSummaryResult
	assert.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "No hay datos disponibles en el sistema.", res.Message)
}

func TestGetMarketStats(t *testing.T) {
	repo := &mockProjectRepo{Projects: []models.Project{
		{Commune: "ÑUÑOA", AvgPriceUF: fp(2000), SalesSpeedMonthly: fp(5)},
		{Commune: "ÑUÑOA", AvgPriceUF: nil, SalesSpeedMonthly: fp(3)},
		{Commune: "ÑUÑOA", AvgPriceUF: fp(4000), SalesSpeedMonthly: nil},
	}}
	_, registry, cache := newTestTools(repo)

	out := registry.Dispatch(context.Background(), "get_market_stats", `{"comuna":"Ñuñoa"}`)

	var res MarketStatsResult
	assert.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.TotalProjects)
	assert.Equal(t, 3000.0, res.AveragePriceUF)
	assert.Equal(t, "4.0", res.AvgSalesSpeed)
	assert.Equal(t, "Comuna: Ñuñoa", res.Scope)
	assert.Equal(t, "Ñuñoa", repo.LastFilter.Commune)
	assert.NotEmpty(t, cache.Stored)
}

func TestGetMarketStatsRepoError(t *testing.T) {
	repo := &mockProjectRepo{ListErr: errors.New("connection refused")}
	_, registry, _ := newTestTools(repo)

	out := registry.Dispatch(context.Background(), "get_market_stats", `{"comuna":"Ñuñoa"}`)

	assert.Contains(t, out, "error al ejecutar get_market_stats")
	assert.Contains(t, out, "connection refused")
}

func TestSearchProjectsNoMatches(t *testing.T) {
	_, registry, _ := newTestTools(&mockProjectRepo{})

	out := registry.Dispatch(context.Background(), "search_projects", `{"comuna":"Quilicura","min_price":3000}`)

	var res SearchProjectsResult
	assert.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Zero(t, res.Total)
	assert.Equal(t, "No se encontraron proyectos con los filtros especificados.", res.Message)
}

func TestSearchProjectsKeepsNullMetricsNull(t *testing.T) {
	repo := &mockProjectRepo{Projects: []models.Project{
		{Name: "Vista Norte", Commune: "LAMPA", AvgPriceUF: nil, TotalUnits: ip(120)},
	}}
	_, registry, _ := newTestTools(repo)

	out := registry.Dispatch(context.Background(), "search_projects", `{"comuna":"Lampa"}`)

	assert.Contains(t, out, `"avg_price_uf":null`)
	assert.Contains(t, out, `"total_units":120`)
}

func TestSearchProjectsDefaultLimit(t *testing.T) {
	repo := &mockProjectRepo{}
	_, registry, _ := newTestTools(repo)

	registry.Dispatch(context.Background(), "search_projects", `{"comuna":"Lampa"}`)
	assert.Equal(t, 5, repo.LastFilter.Limit)

	registry.Dispatch(context.Background(), "search_projects", `{"comuna":"Lampa","limit":25}`)
	assert.Equal(t, 25, repo.LastFilter.Limit)
}

func TestCompareCacheKeyFollowsInputOrder(t *testing.T) {
	_, registry, cache := newTestTools(&mockProjectRepo{})

	registry.Dispatch(context.Background(), "compare_regions", `{"regions":["RM","Valparaíso"]}`)
	registry.Dispatch(context.Background(), "compare_regions", `{"regions":["Valparaíso","RM"]}`)

	assert.Contains(t, cache.Stored, "compare:RM,VALPARAÍSO")
	assert.Contains(t, cache.Stored, "compare:VALPARAÍSO,RM")
}

func TestCompareCommunesRequiresList(t *testing.T) {
	_, registry, _ := newTestTools(&mockProjectRepo{})

	out := registry.Dispatch(context.Background(), "compare_communes", `{"communes":[]}`)

	assert.Contains(t, out, `parámetro requerido "communes"`)
}

func TestCompareCommunesFlagsNoData(t *testing.T) {
	// repo returns rows for every call; emptiness is simulated by zero rows
	repo := &mockProjectRepo{}
	_, registry, _ := newTestTools(repo)

	out := registry.Dispatch(context.Background(), "compare_communes", `{"communes":["Ñuñoa","Lampa"]}`)

	var res CompareResult
	assert.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Entries, 2)
	assert.Equal(t, "Ñuñoa", res.Entries[0].Commune)
	assert.True(t, res.Entries[0].NoData)
	assert.True(t, res.Entries[1].NoData)
}

func TestCompareRegionsPreservesInputOrder(t *testing.T) {
	repo := &mockProjectRepo{Projects: []models.Project{
		{Region: "RM", TotalUnits: ip(10), SoldUnits: ip(5)},
	}}
	_, registry, _ := newTestTools(repo)

	out := registry.Dispatch(context.Background(), "compare_regions", `{"regions":["V","RM"]}`)

	var res CompareResult
	assert.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Entries, 2)
	assert.Equal(t, "V", res.Entries[0].Region)
	assert.Equal(t, "RM", res.Entries[1].Region)
}

func TestGetTopSalesProjects(t *testing.T) {
	repo := &mockProjectRepo{Projects: []models.Project{
		{Name: "Lento", SalesSpeedMonthly: fp(1), TotalUnits: ip(100), SoldUnits: ip(10)},
		{Name: "Rápido", SalesSpeedMonthly: fp(8), TotalUnits: ip(100), SoldUnits: ip(80)},
		{Name: "SinDato", SalesSpeedMonthly: nil},
	}}
	_, registry, _ := newTestTools(repo)

	out := registry.Dispatch(context.Background(), "get_top_sales_projects", `{"limit":2}`)

	var res TopSalesResult
	assert.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Projects, 2)
	assert.Equal(t, "Rápido", res.Projects[0].Name)
	assert.Equal(t, 80.0, res.Projects[0].SellThroughPct)
}

func TestGetTopSalesProjectsNoVelocityData(t *testing.T) {
	repo := &mockProjectRepo{Projects: []models.Project{{Name: "X", SalesSpeedMonthly: nil}}}
	_, registry, _ := newTestTools(repo)

	out := registry.Dispatch(context.Background(), "get_top_sales_projects", `{}`)

	var res TopSalesResult
	assert.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Empty(t, res.Projects)
	assert.Equal(t, "No hay datos de velocidad de venta disponibles.", res.Message)
}

func TestGetHistoricalTrendsNoData(t *testing.T) {
	repo := &mockProjectRepo{Projects: []models.Project{{ID: "p1", Commune: "MAIPÚ"}}}
	_, registry, _ := newTestTools(repo)

	out := registry.Dispatch(context.Background(), "get_historical_trends", `{"commune":"Maipú","months":6}`)

	var res HistoricalTrendsResult
	assert.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "No hay datos históricos para el período consultado.", res.Message)
	assert.NotNil(t, res.Series)
	assert.Empty(t, res.Series)
}

func TestGetHistoricalTrendsClampsMonths(t *testing.T) {
	repo := &mockProjectRepo{}
	_, registry, _ := newTestTools(repo)

	out := registry.Dispatch(context.Background(), "get_historical_trends", `{"commune":"Maipú","months":48}`)

	var res HistoricalTrendsResult
	assert.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 12, res.Months)
}

func TestGetHistoricalTrendsRequiresCommune(t *testing.T) {
	_, registry, _ := newTestTools(&mockProjectRepo{})

	out := registry.Dispatch(context.Background(), "get_historical_trends", `{"months":6}`)

	assert.Contains(t, out, `parámetro requerido "commune"`)
}

func TestGetTypologyAnalysis(t *testing.T) {
	repo := &mockProjectRepo{
		Projects: []models.Project{{ID: "p1", Commune: "ÑUÑOA", TotalUnits: ip(100), SalesSpeedMonthly: fp(4)}},
		Typologies: []models.Typology{
			{ProjectID: "p1", Bedrooms: ip(1), Stock: ip(20), TotalUnits: ip(40), CurrentPriceUF: fp(2500)},
			{ProjectID: "p1", Bedrooms: ip(2), Stock: ip(60), TotalUnits: ip(60), CurrentPriceUF: fp(3600)},
		},
	}
	_, registry, _ := newTestTools(repo)

	out := registry.Dispatch(context.Background(), "get_typology_analysis", `{"commune":"Ñuñoa"}`)

	var res TypologyAnalysisResult
	assert.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Groups, 2)
	assert.Equal(t, 1, res.Groups[0].Bedrooms)
	assert.Equal(t, 25, res.Groups[0].StockPct)
}

func TestRegistryDefinitionsDeterministic(t *testing.T) {
	_, registry, _ := newTestTools(&mockProjectRepo{})

	defs := registry.Definitions()

	assert.Len(t, defs, 8)
	assert.Equal(t, "get_market_stats", defs[0].Name)
	assert.Equal(t, "get_typology_analysis", defs[7].Name)
}
