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

type checkInRepository struct {
	collection *mongo.Collection
}

func NewCheckInRepository(db *mongo.Database) interfaces.CheckInRepository {
	return &checkInRepository{
		collection: db.Collection("checkins"),
	}
}

func (r *checkInRepository) Create(ctx context.Context, checkIn *models.CheckIn) error {
	checkIn.ID = primitive.NewObjectID()
	checkIn.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, checkIn)
	if err != nil {
		return fmt.Errorf("failed to create checkin: %w", err)
	}

	return nil
}

func (r *checkInRepository) ListByCustomer(ctx context.Context, tenantID, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CheckIn, int64, error) {
	filter := bson.M{"tenant_id": tenantID, "customer_id": customerID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count checkins: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list checkins: %w", err)
	}
	defer cursor.Close(ctx)

	var checkIns []*models.CheckIn
	if err := cursor.All(ctx, &checkIns); err != nil {
		return nil, 0, fmt.Errorf("failed to decode checkins: %w", err)
	}

	return checkIns, total, nil
}
