package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RedemptionStatus string

const (
	RedemptionStatusReserved  RedemptionStatus = "reserved"
	RedemptionStatusFulfilled RedemptionStatus = "fulfilled"
	RedemptionStatusCancelled RedemptionStatus = "cancelled"
	RedemptionStatusExpired   RedemptionStatus = "expired"
)

type Reward struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID          primitive.ObjectID `json:"tenant_id" bson:"tenant_id" validate:"required"`
	ProgramID         primitive.ObjectID `json:"program_id" bson:"program_id" validate:"required"`
	Name              string             `json:"name" bson:"name" validate:"required"`
	Description       string             `json:"description" bson:"description"`
	PointCost         int64              `json:"point_cost" bson:"point_cost" validate:"required"`
	QuantityAvailable int64              `json:"quantity_available" bson:"quantity_available"`
	LowStockThreshold int64              `json:"low_stock_threshold" bson:"low_stock_threshold" default:"5"`
	ValidFrom         time.Time          `json:"valid_from" bson:"valid_from"`
	ValidUntil        time.Time          `json:"valid_until" bson:"valid_until"`
	IsActive          bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

// AvailableAt reports whether the reward can be reserved at ts. Zero window
// bounds mean unbounded on that side.
func (r *Reward) AvailableAt(ts time.Time) bool {
	if !r.IsActive {
		return false
	}
	if !r.ValidFrom.IsZero() && ts.Before(r.ValidFrom) {
		return false
	}
	if !r.ValidUntil.IsZero() && !ts.Before(r.ValidUntil) {
		return false
	}
	return true
}

// Redemption holds reward inventory from reservation until commit or release.
type Redemption struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ReservationID string              `json:"reservation_id" bson:"reservation_id" validate:"required"`
	TenantID      primitive.ObjectID  `json:"tenant_id" bson:"tenant_id" validate:"required"`
	ProgramID     primitive.ObjectID  `json:"program_id" bson:"program_id" validate:"required"`
	AccountID     primitive.ObjectID  `json:"account_id" bson:"account_id" validate:"required"`
	CustomerID    primitive.ObjectID  `json:"customer_id" bson:"customer_id" validate:"required"`
	RewardID      primitive.ObjectID  `json:"reward_id" bson:"reward_id" validate:"required"`
	PointsUsed    int64               `json:"points_used" bson:"points_used"`
	Status        RedemptionStatus    `json:"status" bson:"status" default:"reserved"`
	TransactionID *primitive.ObjectID `json:"transaction_id" bson:"transaction_id"`
	ReservedAt    time.Time           `json:"reserved_at" bson:"reserved_at"`
	Deadline      time.Time           `json:"deadline" bson:"deadline"`
	ResolvedAt    *time.Time          `json:"resolved_at" bson:"resolved_at"`
}
