package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MatchPolicy string
type StackingOrder string

const (
	MatchPolicyFirst MatchPolicy = "first_match"
	MatchPolicyAll   MatchPolicy = "all_match"

	StackingOrderPriority StackingOrder = "priority"
)

type LoyaltyProgram struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID       primitive.ObjectID `json:"tenant_id" bson:"tenant_id" validate:"required"`
	Name           string             `json:"name" bson:"name" validate:"required"`
	Description    string             `json:"description" bson:"description"`
	Tiers          []Tier             `json:"tiers" bson:"tiers"`
	MatchPolicy    MatchPolicy        `json:"match_policy" bson:"match_policy" default:"all_match"`
	StackingOrder  StackingOrder      `json:"stacking_order" bson:"stacking_order" default:"priority"`
	TierSticky     bool               `json:"tier_sticky" bson:"tier_sticky" default:"false"`
	ReservationTTL time.Duration      `json:"reservation_ttl" bson:"reservation_ttl"`
	IsActive       bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// Tiers are stored ordered by threshold; thresholds must be strictly increasing.
type Tier struct {
	Name            string   `json:"name" bson:"name" validate:"required"`
	PointsThreshold int64    `json:"points_threshold" bson:"points_threshold"`
	Benefits        []string `json:"benefits" bson:"benefits"`
	BonusMultiplier float64  `json:"bonus_multiplier" bson:"bonus_multiplier" default:"1"`
}
