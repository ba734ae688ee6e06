package mongodb

import (
	"context"
	"fmt"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/repositories/interfaces"
	"loyalty/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ruleRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewRuleRepository(db *mongo.Database, cache CacheService) interfaces.RuleRepository {
	return &ruleRepository{
		collection: db.Collection("loyalty_rules"),
		cache:      cache,
	}
}

func (r *ruleRepository) Create(ctx context.Context, rule *models.Rule) error {
	if err := validateRuleConfig(rule); err != nil {
		return err
	}

	rule.ID = primitive.NewObjectID()
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, rule)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	r.invalidateProgramRules(ctx, rule.ProgramID)

	return nil
}

func (r *ruleRepository) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Rule, error) {
	var rule models.Rule
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rule)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	if rule.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}

	return &rule, nil
}

func (r *ruleRepository) Update(ctx context.Context, tenantID, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "tenant_id": tenantID},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *ruleRepository) Delete(ctx context.Context, tenantID, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": tenantID})
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *ruleRepository) ListActive(ctx context.Context, tenantID, programID primitive.ObjectID, ruleType models.RuleType, at time.Time) ([]*models.Rule, error) {
	filter := bson.M{
		"tenant_id":  tenantID,
		"program_id": programID,
		"type":       ruleType,
		"enabled":    true,
		"start_at":   bson.M{"$lte": at},
		"$or": []bson.M{
			{"end_at": bson.M{"$gt": at}},
			{"end_at": time.Time{}},
		},
	}

	// Priority ascending, creation order breaks ties.
	opts := options.Find().SetSort(bson.D{
		{Key: "priority", Value: 1},
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []*models.Rule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}

	return rules, nil
}

func (r *ruleRepository) invalidateProgramRules(ctx context.Context, programID primitive.ObjectID) {
	if r.cache != nil {
		r.cache.Delete(ctx, fmt.Sprintf(utils.CacheKeyRules, programID.Hex()))
	}
}

// validateRuleConfig rejects malformed predicate/action variants at
// configuration time so evaluation never sees an opaque blob.
func validateRuleConfig(rule *models.Rule) error {
	switch rule.Type {
	case models.RuleTypePurchase, models.RuleTypeCheckin, models.RuleTypeManual, models.RuleTypeReferral:
	default:
		return models.NewValidationError("type", fmt.Sprintf("unknown rule type %q", rule.Type))
	}

	for i, cond := range rule.Conditions {
		switch cond.Type {
		case models.ConditionAmountAtLeast:
			if cond.MinAmount < 0 {
				return models.NewValidationError(fmt.Sprintf("conditions[%d]", i), "min_amount must be non-negative")
			}
		case models.ConditionAmountBelow:
			if cond.MaxAmount <= 0 {
				return models.NewValidationError(fmt.Sprintf("conditions[%d]", i), "max_amount must be positive")
			}
		case models.ConditionWithinGeofence:
			if cond.GeofenceID == nil || cond.GeofenceID.IsZero() {
				return models.NewValidationError(fmt.Sprintf("conditions[%d]", i), "geofence_id is required")
			}
		case models.ConditionFrequencyCap:
			if cond.Limit <= 0 || cond.Window <= 0 {
				return models.NewValidationError(fmt.Sprintf("conditions[%d]", i), "frequency cap requires positive limit and window")
			}
		case models.ConditionTimeOfDay:
			if _, err := time.Parse("15:04", cond.StartTime); err != nil {
				return models.NewValidationError(fmt.Sprintf("conditions[%d]", i), "start_time must be HH:MM")
			}
			if _, err := time.Parse("15:04", cond.EndTime); err != nil {
				return models.NewValidationError(fmt.Sprintf("conditions[%d]", i), "end_time must be HH:MM")
			}
		default:
			return models.NewValidationError(fmt.Sprintf("conditions[%d]", i), fmt.Sprintf("unknown condition type %q", cond.Type))
		}
	}

	switch rule.Action.Type {
	case models.ActionFixedPoints:
		if rule.Action.Points == 0 {
			return models.NewValidationError("action", "fixed_points requires points")
		}
	case models.ActionPercentOfAmount:
		if rule.Action.Percent <= 0 {
			return models.NewValidationError("action", "percent_of_amount requires a positive percent")
		}
	case models.ActionMultiplier:
		if rule.Action.Multiplier <= 0 || rule.Action.Points == 0 {
			return models.NewValidationError("action", "multiplier requires base points and a positive multiplier")
		}
	default:
		return models.NewValidationError("action", fmt.Sprintf("unknown action type %q", rule.Action.Type))
	}

	return nil
}
