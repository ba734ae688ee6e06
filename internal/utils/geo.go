package utils

import (
	"fmt"
	"math"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Polygon []Point

func (p Point) ToCoordinates() []float64 {
	return []float64{p.Lng, p.Lat}
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

func NewPointFromCoordinates(coordinates []float64) Point {
	if len(coordinates) >= 2 {
		return Point{Lat: coordinates[1], Lng: coordinates[0]}
	}
	return Point{}
}

func IsValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func (p Point) IsValid() bool {
	return IsValidCoordinates(p.Lat, p.Lng)
}

// PointInPolygon runs a standard ray cast to the east. Points exactly on an
// edge or vertex count as inside.
func PointInPolygon(p Point, polygon Polygon) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	if pointOnBoundary(p, polygon) {
		return true
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Lat > p.Lat) != (pj.Lat > p.Lat) {
			intersectLng := (pj.Lng-pi.Lng)*(p.Lat-pi.Lat)/(pj.Lat-pi.Lat) + pi.Lng
			if p.Lng < intersectLng {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

func pointOnBoundary(p Point, polygon Polygon) bool {
	const eps = 1e-9
	n := len(polygon)
	j := n - 1
	for i := 0; i < n; i++ {
		a, b := polygon[j], polygon[i]
		cross := (b.Lng-a.Lng)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lng-a.Lng)
		if math.Abs(cross) < eps {
			if p.Lat >= math.Min(a.Lat, b.Lat)-eps && p.Lat <= math.Max(a.Lat, b.Lat)+eps &&
				p.Lng >= math.Min(a.Lng, b.Lng)-eps && p.Lng <= math.Max(a.Lng, b.Lng)+eps {
				return true
			}
		}
		j = i
	}
	return false
}

func CalculateCenter(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var totalLat, totalLng float64
	for _, point := range points {
		totalLat += point.Lat
		totalLng += point.Lng
	}

	return Point{
		Lat: totalLat / float64(len(points)),
		Lng: totalLng / float64(len(points)),
	}
}
