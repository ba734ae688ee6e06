package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GeofenceType string

const (
	GeofenceTypeCircle  GeofenceType = "circle"
	GeofenceTypePolygon GeofenceType = "polygon"
)

type Geofence struct {
	ID           primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	TenantID     primitive.ObjectID     `json:"tenant_id" bson:"tenant_id" validate:"required"`
	Name         string                 `json:"name" bson:"name" validate:"required"`
	Type         GeofenceType           `json:"type" bson:"type" validate:"required"`
	Center       []float64              `json:"center" bson:"center"`           // [lng, lat] for circle type
	RadiusMeters float64                `json:"radius_meters" bson:"radius_meters"` // for circle type
	Vertices     [][]float64            `json:"vertices" bson:"vertices"`       // [[lng, lat], ...] for polygon type
	Address      string                 `json:"address" bson:"address"`
	City         string                 `json:"city" bson:"city"`
	Country      string                 `json:"country" bson:"country"`
	IsActive     bool                   `json:"is_active" bson:"is_active" default:"true"`
	Properties   map[string]interface{} `json:"properties" bson:"properties"`
	CreatedAt    time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at" bson:"updated_at"`
}
