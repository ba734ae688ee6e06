package utils

import (
	"math"
	"testing"
)

func TestPointInPolygon(t *testing.T) {
	square := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.001},
		{Lat: 0.001, Lng: 0.001},
		{Lat: 0.001, Lng: 0},
	}

	tests := []struct {
		name  string
		point Point
		want  bool
	}{
		{"center", Point{Lat: 0.0005, Lng: 0.0005}, true},
		{"outside east", Point{Lat: 0.0005, Lng: 0.002}, false},
		{"outside north", Point{Lat: 0.002, Lng: 0.0005}, false},
		{"on edge", Point{Lat: 0, Lng: 0.0005}, true},
		{"on vertex", Point{Lat: 0, Lng: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.point, square); got != tt.want {
				t.Errorf("PointInPolygon(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

func TestPointInPolygonDegenerate(t *testing.T) {
	line := Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}
	if PointInPolygon(Point{Lat: 0.5, Lng: 0.5}, line) {
		t.Error("two-vertex polygon should contain nothing")
	}
	if PointInPolygon(Point{}, nil) {
		t.Error("empty polygon should contain nothing")
	}
}

func TestPointInPolygonConcave(t *testing.T) {
	// L shape: the notch at the top right is outside.
	l := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 2},
		{Lat: 1, Lng: 2},
		{Lat: 1, Lng: 1},
		{Lat: 2, Lng: 1},
		{Lat: 2, Lng: 0},
	}
	if !PointInPolygon(Point{Lat: 0.5, Lng: 1.5}, l) {
		t.Error("point in the wide arm should be inside")
	}
	if PointInPolygon(Point{Lat: 1.5, Lng: 1.5}, l) {
		t.Error("point in the notch should be outside")
	}
}

func TestIsValidCoordinates(t *testing.T) {
	tests := []struct {
		lat, lng float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{91, 0, false},
		{0, 181, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}

	for _, tt := range tests {
		if got := IsValidCoordinates(tt.lat, tt.lng); got != tt.want {
			t.Errorf("IsValidCoordinates(%v, %v) = %v, want %v", tt.lat, tt.lng, got, tt.want)
		}
	}
}

func TestNewPointFromCoordinates(t *testing.T) {
	// Stored order is [lng, lat].
	p := NewPointFromCoordinates([]float64{-122.4194, 37.7749})
	if p.Lat != 37.7749 || p.Lng != -122.4194 {
		t.Errorf("got %+v, want lat 37.7749 lng -122.4194", p)
	}

	if got := NewPointFromCoordinates([]float64{1}); got != (Point{}) {
		t.Errorf("short slice should yield zero point, got %+v", got)
	}
}
