package reports

import (
	"sort"

	"github.com/matias-olea/inmobrain/internal/analytics"
	"github.com/matias-olea/inmobrain/internal/brain"
	"github.com/matias-olea/inmobrain/internal/models"
)

const (
	SectionKPIGrid           = "kpi_grid"
	SectionComparisonTable   = "comparison_table"
	SectionTrendChart        = "trend_chart"
	SectionTypologyBreakdown = "typology_breakdown"
	SectionChartBar          = "chart_bar"
	SectionProjectTable      = "project_table"
	SectionAnalysisText      = "analysis_text"
)

const maxProjectTableRows = 20

// Section is one renderable block of a report.
type Section struct {
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	Data  any    `json:"data"`
}

// Content is the persisted report body.
type Content struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// ProjectRow is a project_table line.
type ProjectRow struct {
	Name              string   `json:"name"`
	Developer         string   `json:"developer"`
	Commune           string   `json:"commune"`
	TotalUnits        *int     `json:"total_units"`
	AvailableUnits    *int     `json:"available_units"`
	SoldUnits         *int     `json:"sold_units"`
	AvgPriceUF        *float64 `json:"avg_price_uf"`
	SalesSpeedMonthly *float64 `json:"sales_speed_monthly"`
	ProjectStatus     string   `json:"project_status"`
}

// CommuneRow is one commune of a comparison_table. NoData marks communes
// that returned no projects, which is distinct from all-zero aggregates.
type CommuneRow struct {
	Commune string `json:"commune"`
	NoData  bool   `json:"no_data,omitempty"`
	analytics.Stats
}

// marketDataset is everything the builders derive from one project set.
type marketDataset struct {
	projects   []models.Project
	stats      analytics.Stats
	bands      []analytics.PriceBand
	typologies []analytics.TypologyStats
	trend      *analytics.Trend
	developers []analytics.DeveloperStock
	top        []models.Project
}

func newDataset(projects []models.Project, typologies []models.Typology, snapshots []models.MetricsSnapshot) marketDataset {
	ds := marketDataset{
		projects:   projects,
		stats:      analytics.MarketStats(projects),
		bands:      analytics.PriceBandShares(projects),
		typologies: analytics.TypologyCompetition(projects, typologies, 10),
		developers: analytics.StockByDeveloper(projects, 10),
		top:        analytics.TopBySalesSpeed(projects, 5),
	}
	if len(snapshots) > 0 {
		trend := analytics.MonthlyTrend(snapshots)
		ds.trend = &trend
	}
	return ds
}

// marketContent lays out the single-scope report shared by commune,
// benchmark and area reports.
func marketContent(title string, narrative *brain.Narrative, ds marketDataset) *Content {
	sections := []Section{
		{Type: SectionAnalysisText, Title: "Visión Estratégica", Data: narrative.ExecutiveSummary},
		{Type: SectionKPIGrid, Data: ds.stats},
		{Type: SectionChartBar, Title: "Distribución por Rango de Precio (UF)", Data: ds.bands},
		{Type: SectionTypologyBreakdown, Title: "Competencia por Tipología", Data: ds.typologies},
	}
	if ds.trend != nil {
		sections = append(sections, Section{Type: SectionTrendChart, Title: "Evolución del Mercado", Data: *ds.trend})
	}
	sections = append(sections,
		Section{Type: SectionAnalysisText, Title: "Análisis de Competencia", Data: narrative.CompetitorAnalysis},
		Section{Type: SectionChartBar, Title: "Participación de Mercado (Stock por Inmobiliaria)", Data: ds.developers},
		Section{Type: SectionProjectTable, Title: "Detalle de Mercado (Benchmark)", Data: projectTable(ds.projects)},
	)
	return &Content{Title: title, Sections: sections}
}

func comparisonContent(title string, narrative *brain.Narrative, rows []CommuneRow, combined marketDataset) *Content {
	return &Content{
		Title: title,
		Sections: []Section{
			{Type: SectionAnalysisText, Title: "Visión Estratégica", Data: narrative.ExecutiveSummary},
			{Type: SectionKPIGrid, Data: combined.stats},
			{Type: SectionChartBar, Title: "Distribución por Rango de Precio (UF)", Data: combined.bands},
			{Type: SectionComparisonTable, Title: "Comparativa por Comuna", Data: rows},
			{Type: SectionAnalysisText, Title: "Análisis de Competencia", Data: narrative.CompetitorAnalysis},
			{Type: SectionChartBar, Title: "Participación de Mercado (Stock por Inmobiliaria)", Data: combined.developers},
			{Type: SectionProjectTable, Title: "Detalle de Mercado (Benchmark)", Data: projectTable(combined.projects)},
		},
	}
}

func noResultsContent(title, scope string) *Content {
	return &Content{
		Title: title,
		Sections: []Section{{
			Type:  SectionAnalysisText,
			Title: "Sin Resultados",
			Data:  "No se encontraron proyectos para " + scope + ". Ajusta los filtros e intenta nuevamente.",
		}},
	}
}

// projectTable caps the detail table at the projects holding the most
// available stock. Rows with null stock sort last.
func projectTable(projects []models.Project) []ProjectRow {
	sorted := make([]models.Project, len(projects))
	copy(sorted, projects)
	sort.SliceStable(sorted, func(i, j int) bool {
		return availOrMin(&sorted[i]) > availOrMin(&sorted[j])
	})
	if len(sorted) > maxProjectTableRows {
		sorted = sorted[:maxProjectTableRows]
	}

	rows := make([]ProjectRow, 0, len(sorted))
	for i := range sorted {
		p := &sorted[i]
		rows = append(rows, ProjectRow{
			Name:              p.Name,
			Developer:         p.Developer,
			Commune:           p.Commune,
			TotalUnits:        p.TotalUnits,
			AvailableUnits:    p.AvailableUnits,
			SoldUnits:         p.SoldUnits,
			AvgPriceUF:        p.AvgPriceUF,
			SalesSpeedMonthly: p.SalesSpeedMonthly,
			ProjectStatus:     p.ProjectStatus,
		})
	}
	return rows
}

func availOrMin(p *models.Project) int {
	if p.AvailableUnits == nil {
		return -1
	}
	return *p.AvailableUnits
}
