package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RuleType string
type ConditionType string
type ActionType string

const (
	RuleTypePurchase RuleType = "purchase"
	RuleTypeCheckin  RuleType = "checkin"
	RuleTypeManual   RuleType = "manual"
	RuleTypeReferral RuleType = "referral"

	ConditionAmountAtLeast  ConditionType = "amount_at_least"
	ConditionAmountBelow    ConditionType = "amount_below"
	ConditionWithinGeofence ConditionType = "within_geofence"
	ConditionFrequencyCap   ConditionType = "frequency_cap"
	ConditionTimeOfDay      ConditionType = "time_of_day"

	ActionFixedPoints     ActionType = "fixed_points"
	ActionPercentOfAmount ActionType = "percent_of_amount"
	ActionMultiplier      ActionType = "multiplier"
)

type Rule struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID    primitive.ObjectID `json:"tenant_id" bson:"tenant_id" validate:"required"`
	ProgramID   primitive.ObjectID `json:"program_id" bson:"program_id" validate:"required"`
	Name        string             `json:"name" bson:"name" validate:"required"`
	Description string             `json:"description" bson:"description"`
	Type        RuleType           `json:"type" bson:"type" validate:"required"`
	Conditions  []RuleCondition    `json:"conditions" bson:"conditions"`
	Action      RuleAction         `json:"action" bson:"action"`
	Priority    int                `json:"priority" bson:"priority"`
	StartAt     time.Time          `json:"start_at" bson:"start_at"`
	EndAt       time.Time          `json:"end_at" bson:"end_at"`
	Enabled     bool               `json:"enabled" bson:"enabled" default:"true"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// RuleCondition is a tagged variant; only the fields for its Type are read.
type RuleCondition struct {
	Type       ConditionType       `json:"type" bson:"type" validate:"required"`
	MinAmount  float64             `json:"min_amount,omitempty" bson:"min_amount,omitempty"`
	MaxAmount  float64             `json:"max_amount,omitempty" bson:"max_amount,omitempty"`
	GeofenceID *primitive.ObjectID `json:"geofence_id,omitempty" bson:"geofence_id,omitempty"`
	Limit      int64               `json:"limit,omitempty" bson:"limit,omitempty"`
	Window     time.Duration       `json:"window,omitempty" bson:"window,omitempty"`
	StartTime  string              `json:"start_time,omitempty" bson:"start_time,omitempty"` // "15:04"
	EndTime    string              `json:"end_time,omitempty" bson:"end_time,omitempty"`
	Weekdays   []time.Weekday      `json:"weekdays,omitempty" bson:"weekdays,omitempty"`
}

type RuleAction struct {
	Type       ActionType `json:"type" bson:"type" validate:"required"`
	Points     int64      `json:"points,omitempty" bson:"points,omitempty"`
	Percent    float64    `json:"percent,omitempty" bson:"percent,omitempty"`
	Multiplier float64    `json:"multiplier,omitempty" bson:"multiplier,omitempty"`
}

// ActiveAt reports whether the rule can match an event at ts. The window is
// half-open: [StartAt, EndAt). A zero EndAt means no expiry.
func (r *Rule) ActiveAt(ts time.Time) bool {
	if !r.Enabled {
		return false
	}
	if ts.Before(r.StartAt) {
		return false
	}
	if !r.EndAt.IsZero() && !ts.Before(r.EndAt) {
		return false
	}
	return true
}
