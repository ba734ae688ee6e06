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

type rewardRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewRewardRepository(db *mongo.Database, cache CacheService) interfaces.RewardRepository {
	return &rewardRepository{
		collection: db.Collection("rewards"),
		cache:      cache,
	}
}

func (r *rewardRepository) Create(ctx context.Context, reward *models.Reward) error {
	if reward.PointCost <= 0 {
		return models.NewValidationError("point_cost", "point cost must be positive")
	}
	if reward.QuantityAvailable < 0 {
		return models.NewValidationError("quantity_available", "quantity must be non-negative")
	}

	reward.ID = primitive.NewObjectID()
	reward.CreatedAt = time.Now()
	reward.UpdatedAt = time.Now()
	if reward.LowStockThreshold <= 0 {
		reward.LowStockThreshold = utils.DefaultLowStockThreshold
	}

	_, err := r.collection.InsertOne(ctx, reward)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}

	return nil
}

func (r *rewardRepository) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Reward, error) {
	var reward models.Reward
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reward)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}

	if reward.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}

	return &reward, nil
}

func (r *rewardRepository) ListByProgram(ctx context.Context, tenantID, programID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Reward, int64, error) {
	filter := bson.M{"tenant_id": tenantID, "program_id": programID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rewards: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer cursor.Close(ctx)

	var rewards []*models.Reward
	if err := cursor.All(ctx, &rewards); err != nil {
		return nil, 0, fmt.Errorf("failed to decode rewards: %w", err)
	}

	return rewards, total, nil
}

// AdjustQuantity decrements or restores stock with a guarded update; the
// filter refuses a decrement that would drive quantity negative.
func (r *rewardRepository) AdjustQuantity(ctx context.Context, tenantID, id primitive.ObjectID, delta int64) (int64, error) {
	filter := bson.M{"_id": id, "tenant_id": tenantID}
	if delta < 0 {
		filter["quantity_available"] = bson.M{"$gte": -delta}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var reward models.Reward
	err := r.collection.FindOneAndUpdate(ctx, filter,
		bson.M{
			"$inc": bson.M{"quantity_available": delta},
			"$set": bson.M{"updated_at": time.Now()},
		}, opts).Decode(&reward)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, models.ErrRewardUnavailable
		}
		return 0, fmt.Errorf("failed to adjust reward quantity: %w", err)
	}

	return reward.QuantityAvailable, nil
}

type redemptionRepository struct {
	collection *mongo.Collection
}

func NewRedemptionRepository(db *mongo.Database) interfaces.RedemptionRepository {
	return &redemptionRepository{
		collection: db.Collection("redemptions"),
	}
}

func (r *redemptionRepository) Create(ctx context.Context, redemption *models.Redemption) error {
	redemption.ID = primitive.NewObjectID()
	redemption.ReservedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, redemption)
	if err != nil {
		return fmt.Errorf("failed to create redemption: %w", err)
	}

	return nil
}

func (r *redemptionRepository) GetByReservationID(ctx context.Context, tenantID primitive.ObjectID, reservationID string) (*models.Redemption, error) {
	var redemption models.Redemption
	err := r.collection.FindOne(ctx, bson.M{"reservation_id": reservationID}).Decode(&redemption)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}

	if redemption.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}

	return &redemption, nil
}

func (r *redemptionRepository) Transition(ctx context.Context, tenantID primitive.ObjectID, reservationID string, from, to models.RedemptionStatus, txnID *primitive.ObjectID) (bool, error) {
	now := time.Now()
	update := bson.M{"status": to, "resolved_at": now}
	if txnID != nil {
		update["transaction_id"] = txnID
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"reservation_id": reservationID, "tenant_id": tenantID, "status": from},
		bson.M{"$set": update},
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition redemption: %w", err)
	}

	return result.ModifiedCount > 0, nil
}

func (r *redemptionRepository) ListExpired(ctx context.Context, cutoff time.Time, limit int64) ([]*models.Redemption, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "deadline", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{
		"status":   models.RedemptionStatusReserved,
		"deadline": bson.M{"$lt": cutoff},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired redemptions: %w", err)
	}
	defer cursor.Close(ctx)

	var redemptions []*models.Redemption
	if err := cursor.All(ctx, &redemptions); err != nil {
		return nil, fmt.Errorf("failed to decode redemptions: %w", err)
	}

	return redemptions, nil
}
