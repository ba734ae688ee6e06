package mongodb

import (
	"testing"
	"time"

	"loyalty/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidateRuleConfig(t *testing.T) {
	geofenceID := primitive.NewObjectID()

	valid := &models.Rule{
		Type: models.RuleTypePurchase,
		Conditions: []models.RuleCondition{
			{Type: models.ConditionAmountAtLeast, MinAmount: 10},
			{Type: models.ConditionWithinGeofence, GeofenceID: &geofenceID},
			{Type: models.ConditionFrequencyCap, Limit: 3, Window: 24 * time.Hour},
			{Type: models.ConditionTimeOfDay, StartTime: "09:00", EndTime: "17:00"},
		},
		Action: models.RuleAction{Type: models.ActionFixedPoints, Points: 10},
	}
	if err := validateRuleConfig(valid); err != nil {
		t.Errorf("valid rule rejected: %v", err)
	}

	tests := []struct {
		name string
		rule *models.Rule
	}{
		{
			"unknown rule type",
			&models.Rule{Type: "streak", Action: models.RuleAction{Type: models.ActionFixedPoints, Points: 1}},
		},
		{
			"unknown condition type",
			&models.Rule{
				Type:       models.RuleTypePurchase,
				Conditions: []models.RuleCondition{{Type: "moon_phase"}},
				Action:     models.RuleAction{Type: models.ActionFixedPoints, Points: 1},
			},
		},
		{
			"geofence condition without id",
			&models.Rule{
				Type:       models.RuleTypePurchase,
				Conditions: []models.RuleCondition{{Type: models.ConditionWithinGeofence}},
				Action:     models.RuleAction{Type: models.ActionFixedPoints, Points: 1},
			},
		},
		{
			"frequency cap without window",
			&models.Rule{
				Type:       models.RuleTypePurchase,
				Conditions: []models.RuleCondition{{Type: models.ConditionFrequencyCap, Limit: 3}},
				Action:     models.RuleAction{Type: models.ActionFixedPoints, Points: 1},
			},
		},
		{
			"malformed time of day",
			&models.Rule{
				Type:       models.RuleTypePurchase,
				Conditions: []models.RuleCondition{{Type: models.ConditionTimeOfDay, StartTime: "9am", EndTime: "17:00"}},
				Action:     models.RuleAction{Type: models.ActionFixedPoints, Points: 1},
			},
		},
		{
			"unknown action type",
			&models.Rule{Type: models.RuleTypePurchase, Action: models.RuleAction{Type: "double_or_nothing"}},
		},
		{
			"fixed points without points",
			&models.Rule{Type: models.RuleTypePurchase, Action: models.RuleAction{Type: models.ActionFixedPoints}},
		},
		{
			"percent without percent",
			&models.Rule{Type: models.RuleTypePurchase, Action: models.RuleAction{Type: models.ActionPercentOfAmount}},
		},
		{
			"multiplier without base points",
			&models.Rule{Type: models.RuleTypePurchase, Action: models.RuleAction{Type: models.ActionMultiplier, Multiplier: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateRuleConfig(tt.rule); !models.IsValidation(err) {
				t.Errorf("err=%v, want validation error", err)
			}
		})
	}
}

func TestValidateTiers(t *testing.T) {
	increasing := []models.Tier{
		{Name: "Bronze", PointsThreshold: 0},
		{Name: "Silver", PointsThreshold: 100},
		{Name: "Gold", PointsThreshold: 500},
	}
	if err := validateTiers(increasing); err != nil {
		t.Errorf("increasing thresholds rejected: %v", err)
	}

	if err := validateTiers(nil); err != nil {
		t.Errorf("empty tiers rejected: %v", err)
	}

	duplicate := []models.Tier{
		{Name: "Bronze", PointsThreshold: 0},
		{Name: "Silver", PointsThreshold: 0},
	}
	if err := validateTiers(duplicate); !models.IsValidation(err) {
		t.Errorf("duplicate thresholds: err=%v, want validation error", err)
	}

	decreasing := []models.Tier{
		{Name: "Gold", PointsThreshold: 500},
		{Name: "Silver", PointsThreshold: 100},
	}
	if err := validateTiers(decreasing); !models.IsValidation(err) {
		t.Errorf("decreasing thresholds: err=%v, want validation error", err)
	}
}
