package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoyaltyAccount is the mutable per-customer snapshot. PointsBalance and
// LifetimePoints are authoritative only as the sum of committed transactions;
// the stored values are a cache of that replay.
type LoyaltyAccount struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID       primitive.ObjectID `json:"tenant_id" bson:"tenant_id" validate:"required"`
	ProgramID      primitive.ObjectID `json:"program_id" bson:"program_id" validate:"required"`
	CustomerID     primitive.ObjectID `json:"customer_id" bson:"customer_id" validate:"required"`
	PointsBalance  int64              `json:"points_balance" bson:"points_balance"`
	LifetimePoints int64              `json:"lifetime_points" bson:"lifetime_points"`
	CurrentTier    string             `json:"current_tier" bson:"current_tier"`
	Version        int64              `json:"version" bson:"version"`
	LastActivityAt time.Time          `json:"last_activity_at" bson:"last_activity_at"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}
