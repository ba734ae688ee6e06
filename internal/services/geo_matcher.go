package services

import (
	"loyalty/internal/models"
	"loyalty/internal/utils"
	"loyalty/pkg/logger"
)

// GeoMatcher answers point-in-region queries against stored geofences. It is
// pure and safe for unbounded concurrency. Malformed geometry fails closed:
// the geofence matches nothing.
type GeoMatcher struct {
	logger *logger.Logger
}

func NewGeoMatcher(log *logger.Logger) *GeoMatcher {
	return &GeoMatcher{logger: log}
}

// IsWithin is boundary inclusive for both circle and polygon geofences.
// Circle distance is great-circle (haversine).
func (m *GeoMatcher) IsWithin(point utils.Point, geofence *models.Geofence) bool {
	if geofence == nil || !geofence.IsActive {
		return false
	}
	if !point.IsValid() {
		m.logger.WithField("geofence_id", geofence.ID.Hex()).Warn("geofence evaluation skipped: invalid point")
		return false
	}

	switch geofence.Type {
	case models.GeofenceTypeCircle:
		return m.withinCircle(point, geofence)
	case models.GeofenceTypePolygon:
		return m.withinPolygon(point, geofence)
	default:
		m.logger.WithFields(map[string]interface{}{
			"geofence_id": geofence.ID.Hex(),
			"type":        string(geofence.Type),
		}).Warn("geofence evaluation failed: unknown geometry type")
		return false
	}
}

func (m *GeoMatcher) withinCircle(point utils.Point, geofence *models.Geofence) bool {
	if len(geofence.Center) < 2 || geofence.RadiusMeters <= 0 {
		m.logger.WithField("geofence_id", geofence.ID.Hex()).Warn("geofence evaluation failed: degenerate circle")
		return false
	}

	center := utils.NewPointFromCoordinates(geofence.Center)
	if !center.IsValid() {
		m.logger.WithField("geofence_id", geofence.ID.Hex()).Warn("geofence evaluation failed: invalid circle center")
		return false
	}

	return utils.IsWithinRadiusMeters(center.Lat, center.Lng, point.Lat, point.Lng, geofence.RadiusMeters)
}

func (m *GeoMatcher) withinPolygon(point utils.Point, geofence *models.Geofence) bool {
	if len(geofence.Vertices) < 3 {
		m.logger.WithField("geofence_id", geofence.ID.Hex()).Warn("geofence evaluation failed: degenerate polygon")
		return false
	}

	polygon := make(utils.Polygon, 0, len(geofence.Vertices))
	for _, v := range geofence.Vertices {
		p := utils.NewPointFromCoordinates(v)
		if !p.IsValid() {
			m.logger.WithField("geofence_id", geofence.ID.Hex()).Warn("geofence evaluation failed: invalid polygon vertex")
			return false
		}
		polygon = append(polygon, p)
	}

	return utils.PointInPolygon(point, polygon)
}
