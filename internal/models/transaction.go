package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionType string
type TransactionStatus string

const (
	TransactionTypeEarn   TransactionType = "earn"
	TransactionTypeRedeem TransactionType = "redeem"
	TransactionTypeExpire TransactionType = "expire"
	TransactionTypeAdjust TransactionType = "adjust"

	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCommitted TransactionStatus = "committed"
	TransactionStatusVoided    TransactionStatus = "voided"
)

// Transaction is an immutable ledger entry. Committed rows are never updated
// in place; corrections are additional rows with the opposite sign.
type Transaction struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	TenantID       primitive.ObjectID  `json:"tenant_id" bson:"tenant_id" validate:"required"`
	AccountID      primitive.ObjectID  `json:"account_id" bson:"account_id" validate:"required"`
	Points         int64               `json:"points" bson:"points" validate:"required"`
	Type           TransactionType     `json:"type" bson:"type" validate:"required"`
	Status         TransactionStatus   `json:"status" bson:"status" default:"pending"`
	RuleID         *primitive.ObjectID `json:"rule_id" bson:"rule_id"`
	IdempotencyKey string              `json:"idempotency_key" bson:"idempotency_key" validate:"required"`
	Description    string              `json:"description" bson:"description"`
	GeofenceID     *primitive.ObjectID `json:"geofence_id" bson:"geofence_id"`
	BalanceBefore  int64               `json:"balance_before" bson:"balance_before"`
	BalanceAfter   int64               `json:"balance_after" bson:"balance_after"`
	Timestamp      time.Time           `json:"timestamp" bson:"timestamp"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
}
