package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matias-olea/inmobrain/internal/models"
)

// Rough box around central Santiago.
var santiagoBox = []Point{
	{Lat: -33.40, Lng: -70.70},
	{Lat: -33.40, Lng: -70.55},
	{Lat: -33.50, Lng: -70.55},
	{Lat: -33.50, Lng: -70.70},
}

func TestPointInPolygon(t *testing.T) {
	assert.True(t, PointInPolygon(Point{Lat: -33.45, Lng: -70.65}, santiagoBox))
	assert.False(t, PointInPolygon(Point{Lat: -33.02, Lng: -71.55}, santiagoBox))
}

func TestPointInPolygonTriangle(t *testing.T) {
	tri := []Point{{Lat: 0, Lng: 0}, {Lat: 10, Lng: 0}, {Lat: 0, Lng: 10}}

	assert.True(t, PointInPolygon(Point{Lat: 2, Lng: 2}, tri))
	assert.False(t, PointInPolygon(Point{Lat: 8, Lng: 8}, tri))
}

func TestPointInPolygonDegenerate(t *testing.T) {
	assert.False(t, PointInPolygon(Point{Lat: 1, Lng: 1}, nil))
	assert.False(t, PointInPolygon(Point{Lat: 1, Lng: 1}, []Point{{Lat: 0, Lng: 0}, {Lat: 5, Lng: 5}}))
}

func TestFilterByPolygon(t *testing.T) {
	projects := []models.Project{
		{Name: "Dentro", Latitude: fp(-33.45), Longitude: fp(-70.65)},
		{Name: "Fuera", Latitude: fp(-33.02), Longitude: fp(-71.55)},
		{Name: "Sin coordenadas"},
	}

	got := FilterByPolygon(projects, santiagoBox)

	if assert.Len(t, got, 1) {
		assert.Equal(t, "Dentro", got[0].Name)
	}
}

func TestFilterByPolygonPartialCoordinates(t *testing.T) {
	projects := []models.Project{
		{Name: "Solo latitud", Latitude: fp(-33.45)},
		{Name: "Solo longitud", Longitude: fp(-70.65)},
	}

	assert.Empty(t, FilterByPolygon(projects, santiagoBox))
}
