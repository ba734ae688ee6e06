package mongodb

import (
	"context"
	"fmt"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type accountRepository struct {
	collection *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) interfaces.AccountRepository {
	return &accountRepository{
		collection: db.Collection("loyalty_accounts"),
	}
}

func (r *accountRepository) Create(ctx context.Context, account *models.LoyaltyAccount) error {
	account.ID = primitive.NewObjectID()
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if account.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}

	return &account, nil
}

func (r *accountRepository) GetByCustomer(ctx context.Context, tenantID, programID, customerID primitive.ObjectID) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	err := r.collection.FindOne(ctx, bson.M{
		"tenant_id":   tenantID,
		"program_id":  programID,
		"customer_id": customerID,
	}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by customer: %w", err)
	}

	return &account, nil
}

func (r *accountRepository) GetOrCreate(ctx context.Context, tenantID, programID, customerID primitive.ObjectID) (*models.LoyaltyAccount, error) {
	now := time.Now()
	filter := bson.M{
		"tenant_id":   tenantID,
		"program_id":  programID,
		"customer_id": customerID,
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":              primitive.NewObjectID(),
			"tenant_id":        tenantID,
			"program_id":       programID,
			"customer_id":      customerID,
			"points_balance":   int64(0),
			"lifetime_points":  int64(0),
			"current_tier":     "",
			"version":          int64(0),
			"last_activity_at": now,
			"created_at":       now,
			"updated_at":       now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var account models.LoyaltyAccount
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&account)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create account: %w", err)
	}

	return &account, nil
}
