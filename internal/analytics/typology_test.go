package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matias-olea/inmobrain/internal/models"
)

func TestTypologyCode(t *testing.T) {
	assert.Equal(t, "2D2B", TypologyCode(&models.Typology{Code: "2D2B"}))
	assert.Equal(t, "3D2B", TypologyCode(&models.Typology{Bedrooms: ip(3), Bathrooms: ip(2)}))
	assert.Equal(t, "0D0B", TypologyCode(&models.Typology{}))
}

func TestTypologyCompetitionSoldNeverNegative(t *testing.T) {
	typologies := []models.Typology{
		// available exceeds initial: malformed row
		{ProjectID: "p1", Code: "1D1B", TotalUnits: ip(10), Stock: ip(15)},
	}

	out := TypologyCompetition(nil, typologies, 0)

	assert.Len(t, out, 1)
	assert.Equal(t, 0, out[0].SoldUnits)
	assert.Equal(t, 10, out[0].InitialStock)
	assert.Equal(t, 15, out[0].AvailableStock)
}

func TestTypologyCompetitionAggregatesAcrossProjects(t *testing.T) {
	projects := []models.Project{
		{ID: "p1", TotalUnits: ip(100), SalesSpeedMonthly: fp(10)},
		{ID: "p2", TotalUnits: ip(50), SalesSpeedMonthly: fp(5)},
	}
	typologies := []models.Typology{
		{ProjectID: "p1", Code: "2D2B", TotalUnits: ip(40), Stock: ip(10), CurrentPriceUF: fp(3000)},
		{ProjectID: "p2", Code: "2D2B", TotalUnits: ip(25), Stock: ip(5), CurrentPriceUF: fp(4000)},
	}

	out := TypologyCompetition(projects, typologies, 0)

	assert.Len(t, out, 1)
	ts := out[0]
	assert.Equal(t, 65, ts.InitialStock)
	assert.Equal(t, 15, ts.AvailableStock)
	assert.Equal(t, 50, ts.SoldUnits)
	// pro-rated: 10*40/100 + 5*25/50
	assert.InDelta(t, 6.5, ts.MonthlySales, 1e-9)
	// unit weighted: (3000*40 + 4000*25) / 65
	assert.InDelta(t, 3384.615, ts.AvgPriceUF, 0.001)
}

func TestTypologyCompetitionTopNByInitialStock(t *testing.T) {
	typologies := []models.Typology{
		{ProjectID: "p", Code: "1D1B", TotalUnits: ip(10), Stock: ip(5)},
		{ProjectID: "p", Code: "2D1B", TotalUnits: ip(50), Stock: ip(20)},
		{ProjectID: "p", Code: "3D2B", TotalUnits: ip(30), Stock: ip(10)},
	}

	out := TypologyCompetition(nil, typologies, 2)

	assert.Len(t, out, 2)
	assert.Equal(t, "2D1B", out[0].Code)
	assert.Equal(t, "3D2B", out[1].Code)
}

func TestTypologyCompetitionStableTies(t *testing.T) {
	typologies := []models.Typology{
		{ProjectID: "p", Code: "B-first", TotalUnits: ip(20), Stock: ip(1)},
		{ProjectID: "p", Code: "A-second", TotalUnits: ip(20), Stock: ip(1)},
	}

	out := TypologyCompetition(nil, typologies, 0)

	assert.Equal(t, "B-first", out[0].Code)
	assert.Equal(t, "A-second", out[1].Code)
}

func TestTypologyCompetitionZeroPriceExcluded(t *testing.T) {
	typologies := []models.Typology{
		{ProjectID: "p", Code: "1D1B", TotalUnits: ip(10), Stock: ip(2), CurrentPriceUF: fp(0)},
		{ProjectID: "p", Code: "1D1B", TotalUnits: ip(10), Stock: ip(2), CurrentPriceUF: fp(2000)},
	}

	out := TypologyCompetition(nil, typologies, 0)

	assert.Equal(t, 2000.0, out[0].AvgPriceUF)
}

func TestGroupByBedrooms(t *testing.T) {
	projects := []models.Project{
		{ID: "p1", TotalUnits: ip(100), SalesSpeedMonthly: fp(8)},
	}
	typologies := []models.Typology{
		{ProjectID: "p1", Bedrooms: ip(2), TotalUnits: ip(50), Stock: ip(30), CurrentPriceUF: fp(2500)},
		{ProjectID: "p1", Bedrooms: ip(1), TotalUnits: ip(50), Stock: ip(10), CurrentPriceUF: fp(1800)},
	}

	out := GroupByBedrooms(projects, typologies)

	assert.Len(t, out, 2)
	// ascending bedroom order
	assert.Equal(t, 1, out[0].Bedrooms)
	assert.Equal(t, 2, out[1].Bedrooms)
	assert.Equal(t, 10, out[0].Stock)
	assert.Equal(t, 30, out[1].Stock)
	assert.Equal(t, 25, out[0].StockPct)
	assert.Equal(t, 75, out[1].StockPct)
	assert.InDelta(t, 4.0, out[0].MonthlySales, 1e-9)
}

func TestGroupByBedroomsEmpty(t *testing.T) {
	out := GroupByBedrooms(nil, nil)
	assert.Empty(t, out)
}
