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
)

type programRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewProgramRepository(db *mongo.Database, cache CacheService) interfaces.ProgramRepository {
	return &programRepository{
		collection: db.Collection("loyalty_programs"),
		cache:      cache,
	}
}

func (r *programRepository) Create(ctx context.Context, program *models.LoyaltyProgram) error {
	if err := validateTiers(program.Tiers); err != nil {
		return err
	}

	program.ID = primitive.NewObjectID()
	program.CreatedAt = time.Now()
	program.UpdatedAt = time.Now()
	if program.ReservationTTL <= 0 {
		program.ReservationTTL = utils.DefaultReservationTTL
	}

	_, err := r.collection.InsertOne(ctx, program)
	if err != nil {
		return fmt.Errorf("failed to create program: %w", err)
	}

	return nil
}

func (r *programRepository) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.LoyaltyProgram, error) {
	cacheKey := fmt.Sprintf(utils.CacheKeyProgram, id.Hex())
	if r.cache != nil {
		var program models.LoyaltyProgram
		if err := r.cache.Get(ctx, cacheKey, &program); err == nil {
			if program.TenantID != tenantID {
				return nil, models.ErrTenantIsolation
			}
			return &program, nil
		}
	}

	var program models.LoyaltyProgram
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&program)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}

	if program.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}

	if r.cache != nil && program.IsActive {
		r.cache.Set(ctx, cacheKey, program, utils.CacheTTLConfig)
	}

	return &program, nil
}

func (r *programRepository) Update(ctx context.Context, tenantID, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "tenant_id": tenantID},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update program: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}

	if r.cache != nil {
		r.cache.Delete(ctx, fmt.Sprintf(utils.CacheKeyProgram, id.Hex()))
	}

	return nil
}

func (r *programRepository) ListByTenant(ctx context.Context, tenantID primitive.ObjectID, params *utils.PaginationParams) ([]*models.LoyaltyProgram, int64, error) {
	filter := bson.M{"tenant_id": tenantID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count programs: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list programs: %w", err)
	}
	defer cursor.Close(ctx)

	var programs []*models.LoyaltyProgram
	if err := cursor.All(ctx, &programs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode programs: %w", err)
	}

	return programs, total, nil
}

// validateTiers enforces strictly increasing thresholds.
func validateTiers(tiers []models.Tier) error {
	for i := 1; i < len(tiers); i++ {
		if tiers[i].PointsThreshold <= tiers[i-1].PointsThreshold {
			return models.NewValidationError("tiers", "tier thresholds must be strictly increasing")
		}
	}
	return nil
}
