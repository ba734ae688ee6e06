package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string
type OutboundEventType string

const (
	EventTypePurchase EventType = "purchase"
	EventTypeCheckin  EventType = "checkin"
	EventTypeManual   EventType = "manual"
	EventTypeReferral EventType = "referral"

	OutboundTierChange          OutboundEventType = "tier_change"
	OutboundLowInventory        OutboundEventType = "low_inventory"
	OutboundInsufficientBalance OutboundEventType = "insufficient_balance"
)

type EventLocation struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Event is an inbound engine event as submitted by collaborators.
type Event struct {
	TenantID       primitive.ObjectID `json:"tenant_id" bson:"tenant_id" validate:"required"`
	CustomerID     primitive.ObjectID `json:"customer_id" bson:"customer_id" validate:"required"`
	ProgramID      primitive.ObjectID `json:"program_id" bson:"program_id" validate:"required"`
	Type           EventType          `json:"type" bson:"type" validate:"required"`
	Amount         float64            `json:"amount,omitempty" bson:"amount,omitempty"`
	Points         int64              `json:"points,omitempty" bson:"points,omitempty"` // manual adjustments only
	Location       *EventLocation     `json:"location,omitempty" bson:"location,omitempty"`
	Timestamp      time.Time          `json:"timestamp" bson:"timestamp"`
	IdempotencyKey string             `json:"idempotency_key" bson:"idempotency_key" validate:"required"`
	Description    string             `json:"description,omitempty" bson:"description,omitempty"`
}

type AppliedRule struct {
	RuleID   primitive.ObjectID `json:"rule_id"`
	RuleName string             `json:"rule_name"`
	Points   int64              `json:"points"`
}

type EngineResult struct {
	AppliedRules   []AppliedRule  `json:"applied_rules"`
	TransactionIDs []string       `json:"transaction_ids"`
	BalanceAfter   int64          `json:"balance_after"`
	LifetimePoints int64          `json:"lifetime_points"`
	TierAfter      string         `json:"tier_after"`
	TierChanged    bool           `json:"tier_changed"`
	Suggestions    []RankedOffer  `json:"suggestions,omitempty"`
}

// RankedOffer is a recommendation decorating an engine result. Produced by the
// scoring collaborator; never load-bearing.
type RankedOffer struct {
	RewardID primitive.ObjectID `json:"reward_id"`
	Name     string             `json:"name"`
	Score    float64            `json:"score"`
}

// OutboundEvent is a structured side-effect event for the notification and
// analytics collaborators. The engine only publishes; it never delivers.
type OutboundEvent struct {
	ID         string                 `json:"id"`
	TenantID   primitive.ObjectID     `json:"tenant_id"`
	Type       OutboundEventType      `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}
