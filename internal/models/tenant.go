package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Tenant struct {
	ID        primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Name      string                 `json:"name" bson:"name" validate:"required"`
	Slug      string                 `json:"slug" bson:"slug" validate:"required"`
	Industry  string                 `json:"industry" bson:"industry"`
	IsActive  bool                   `json:"is_active" bson:"is_active" default:"true"`
	Settings  map[string]interface{} `json:"settings" bson:"settings"`
	CreatedAt time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" bson:"updated_at"`
}
