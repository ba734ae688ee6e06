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

type geofenceRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewGeofenceRepository(db *mongo.Database, cache CacheService) interfaces.GeofenceRepository {
	return &geofenceRepository{
		collection: db.Collection("geofences"),
		cache:      cache,
	}
}

func (r *geofenceRepository) Create(ctx context.Context, geofence *models.Geofence) error {
	geofence.ID = primitive.NewObjectID()
	geofence.CreatedAt = time.Now()
	geofence.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, geofence)
	if err != nil {
		return fmt.Errorf("failed to create geofence: %w", err)
	}

	return nil
}

func (r *geofenceRepository) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Geofence, error) {
	cacheKey := fmt.Sprintf(utils.CacheKeyGeofence, id.Hex())
	if r.cache != nil {
		var geofence models.Geofence
		if err := r.cache.Get(ctx, cacheKey, &geofence); err == nil {
			if geofence.TenantID != tenantID {
				return nil, models.ErrTenantIsolation
			}
			return &geofence, nil
		}
	}

	var geofence models.Geofence
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&geofence)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get geofence: %w", err)
	}

	if geofence.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}

	if r.cache != nil && geofence.IsActive {
		r.cache.Set(ctx, cacheKey, geofence, utils.CacheTTLConfig)
	}

	return &geofence, nil
}

func (r *geofenceRepository) ListActiveByTenant(ctx context.Context, tenantID primitive.ObjectID) ([]*models.Geofence, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"tenant_id": tenantID, "is_active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list geofences: %w", err)
	}
	defer cursor.Close(ctx)

	var geofences []*models.Geofence
	if err := cursor.All(ctx, &geofences); err != nil {
		return nil, fmt.Errorf("failed to decode geofences: %w", err)
	}

	return geofences, nil
}
