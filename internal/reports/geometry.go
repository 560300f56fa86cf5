package reports

import "github.com/matias-olea/inmobrain/internal/models"

// Point is a polygon vertex in WGS84 degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PointInPolygon runs a ray cast over the polygon edges. Vertices are taken
// in order; the closing edge back to the first vertex is implicit.
func PointInPolygon(p Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		a, b := polygon[i], polygon[j]
		crosses := (a.Lat > p.Lat) != (b.Lat > p.Lat)
		if crosses {
			x := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// FilterByPolygon keeps projects whose coordinates fall inside the polygon.
// Projects without coordinates can never match an area report.
func FilterByPolygon(projects []models.Project, polygon []Point) []models.Project {
	out := make([]models.Project, 0)
	for i := range projects {
		p := &projects[i]
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}
		if PointInPolygon(Point{Lat: *p.Latitude, Lng: *p.Longitude}, polygon) {
			out = append(out, *p)
		}
	}
	return out
}
