package reports

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/matias-olea/inmobrain/internal/analytics"
	"github.com/matias-olea/inmobrain/internal/brain"
	"github.com/matias-olea/inmobrain/internal/models"
)

func testNarrative() *brain.Narrative {
	return &brain.Narrative{
		ExecutiveSummary:   "resumen",
		CompetitorAnalysis: "competencia",
	}
}

func sectionTypes(c *Content) []string {
	out := make([]string, 0, len(c.Sections))
	for _, s := range c.Sections {
		out = append(out, s.Type)
	}
	return out
}

func TestMarketContentSectionOrder(t *testing.T) {
	ds := newDataset([]models.Project{{ID: "p1", Name: "Uno"}}, nil, nil)

	c := marketContent("Mercado Ñuñoa", testNarrative(), ds)

	assert.Equal(t, "Mercado Ñuñoa", c.Title)
	assert.Equal(t, []string{
		SectionAnalysisText,
		SectionKPIGrid,
		SectionChartBar,
		SectionTypologyBreakdown,
		SectionAnalysisText,
		SectionChartBar,
		SectionProjectTable,
	}, sectionTypes(c))
	assert.Equal(t, "Visión Estratégica", c.Sections[0].Title)
	assert.Equal(t, "resumen", c.Sections[0].Data)
	assert.Equal(t, "Distribución por Rango de Precio (UF)", c.Sections[2].Title)
	assert.Equal(t, "Análisis de Competencia", c.Sections[4].Title)
}

func TestMarketContentPriceBands(t *testing.T) {
	ds := newDataset([]models.Project{
		{ID: "p1", AvgPriceUF: fp(1500)},
		{ID: "p2", AvgPriceUF: fp(2500)},
		{ID: "p3", AvgPriceUF: fp(2600)},
	}, nil, nil)

	c := marketContent("t", testNarrative(), ds)

	bands := c.Sections[2].Data.([]analytics.PriceBand)
	if assert.Len(t, bands, 2) {
		assert.Equal(t, "1.000 - 2.000 UF", bands[0].Label)
		assert.Equal(t, 33, bands[0].Pct)
		assert.Equal(t, 2, bands[1].Count)
		assert.Equal(t, 67, bands[1].Pct)
	}
}

func TestMarketContentIncludesTrendWhenHistoryExists(t *testing.T) {
	snapshots := []models.MetricsSnapshot{
		{ProjectID: "p1", RecordedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), PriceAvgUF: fp(3000)},
		{ProjectID: "p1", RecordedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), PriceAvgUF: fp(3100)},
	}
	ds := newDataset([]models.Project{{ID: "p1"}}, nil, snapshots)

	c := marketContent("t", testNarrative(), ds)

	types := sectionTypes(c)
	assert.Contains(t, types, SectionTrendChart)
	// trend sits between the typology breakdown and the competitor analysis
	assert.Equal(t, SectionTrendChart, types[4])
	assert.Equal(t, "Evolución del Mercado", c.Sections[4].Title)
}

func TestComparisonContentHasCommuneTable(t *testing.T) {
	rows := []CommuneRow{
		{Commune: "Ñuñoa"},
		{Commune: "Macul", NoData: true},
	}
	ds := newDataset([]models.Project{{ID: "p1"}}, nil, nil)

	c := comparisonContent("Comparativa", testNarrative(), rows, ds)

	types := sectionTypes(c)
	assert.Equal(t, SectionComparisonTable, types[3])
	assert.Equal(t, "Comparativa por Comuna", c.Sections[3].Title)
	got := c.Sections[3].Data.([]CommuneRow)
	assert.False(t, got[0].NoData)
	assert.True(t, got[1].NoData)
}

func TestNoResultsContent(t *testing.T) {
	c := noResultsContent("Mercado Quilicura", "la comuna Quilicura")

	if assert.Len(t, c.Sections, 1) {
		assert.Equal(t, SectionAnalysisText, c.Sections[0].Type)
		assert.Equal(t, "Sin Resultados", c.Sections[0].Title)
		assert.Equal(t, "No se encontraron proyectos para la comuna Quilicura. Ajusta los filtros e intenta nuevamente.", c.Sections[0].Data)
	}
}

func TestProjectTableSortsByAvailableStock(t *testing.T) {
	rows := projectTable([]models.Project{
		{Name: "Chico", AvailableUnits: ip(5)},
		{Name: "Sin stock"},
		{Name: "Grande", AvailableUnits: ip(120)},
	})

	assert.Equal(t, "Grande", rows[0].Name)
	assert.Equal(t, "Chico", rows[1].Name)
	assert.Equal(t, "Sin stock", rows[2].Name)
	assert.Nil(t, rows[2].AvailableUnits)
}

func TestProjectTableCapsRows(t *testing.T) {
	projects := make([]models.Project, 0, 30)
	for i := 0; i < 30; i++ {
		projects = append(projects, models.Project{
			Name:           fmt.Sprintf("P%02d", i),
			AvailableUnits: ip(i),
		})
	}

	rows := projectTable(projects)

	assert.Len(t, rows, maxProjectTableRows)
	assert.Equal(t, "P29", rows[0].Name)
	assert.Equal(t, "P10", rows[len(rows)-1].Name)
}

func TestProjectTableStableForTies(t *testing.T) {
	rows := projectTable([]models.Project{
		{Name: "Primero", AvailableUnits: ip(10)},
		{Name: "Segundo", AvailableUnits: ip(10)},
	})

	assert.Equal(t, "Primero", rows[0].Name)
	assert.Equal(t, "Segundo", rows[1].Name)
}
