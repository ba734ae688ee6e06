package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckIn is an audit row recorded when a location event lands inside a
// geofence.
type CheckIn struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID   primitive.ObjectID `json:"tenant_id" bson:"tenant_id" validate:"required"`
	CustomerID primitive.ObjectID `json:"customer_id" bson:"customer_id" validate:"required"`
	GeofenceID primitive.ObjectID `json:"geofence_id" bson:"geofence_id" validate:"required"`
	Location   EventLocation      `json:"location" bson:"location"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}
