package mongodb

import (
	"context"
	"fmt"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/repositories/interfaces"
	"loyalty/internal/utils"
	"loyalty/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type transactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) interfaces.TransactionRepository {
	return &transactionRepository{
		collection: db.Collection("loyalty_transactions"),
	}
}

func (r *transactionRepository) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&txn)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if txn.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}

	return &txn, nil
}

func (r *transactionRepository) GetByIdempotencyKey(ctx context.Context, accountID primitive.ObjectID, key string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.collection.FindOne(ctx, bson.M{
		"account_id":      accountID,
		"idempotency_key": key,
		"status":          models.TransactionStatusCommitted,
	}).Decode(&txn)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}

	return &txn, nil
}

func (r *transactionRepository) CountByRuleSince(ctx context.Context, accountID, ruleID primitive.ObjectID, since time.Time) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"account_id": accountID,
		"rule_id":    ruleID,
		"status":     models.TransactionStatusCommitted,
		"timestamp":  bson.M{"$gte": since},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions by rule: %w", err)
	}

	return count, nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, tenantID, accountID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	filter := bson.M{"tenant_id": tenantID, "account_id": accountID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.FindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*models.Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, 0, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return txns, total, nil
}

func (r *transactionRepository) SumCommitted(ctx context.Context, accountID primitive.ObjectID) (int64, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"account_id": accountID,
			"status":     models.TransactionStatusCommitted,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"balance": bson.M{"$sum": "$points"},
			"lifetime": bson.M{"$sum": bson.M{
				"$cond": []interface{}{bson.M{"$gt": []interface{}{"$points", 0}}, "$points", 0},
			}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Balance  int64 `bson:"balance"`
		Lifetime int64 `bson:"lifetime"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, 0, fmt.Errorf("failed to decode transaction sum: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, nil
	}

	return results[0].Balance, results[0].Lifetime, nil
}

type ledgerRepository struct {
	db           *database.MongoDB
	transactions *mongo.Collection
	accounts     *mongo.Collection
}

func NewLedgerRepository(db *database.MongoDB) interfaces.LedgerRepository {
	return &ledgerRepository{
		db:           db,
		transactions: db.Collection("loyalty_transactions"),
		accounts:     db.Collection("loyalty_accounts"),
	}
}

// Commit writes the ledger row and the account snapshot inside one session
// transaction, guarded by the account version so a lost-update aborts.
func (r *ledgerRepository) Commit(ctx context.Context, txn *models.Transaction, account *models.LoyaltyAccount) error {
	_, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.transactions.InsertOne(sessCtx, txn); err != nil {
			return nil, fmt.Errorf("failed to insert transaction: %w", err)
		}

		result, err := r.accounts.UpdateOne(sessCtx,
			bson.M{"_id": account.ID, "version": account.Version - 1},
			bson.M{"$set": bson.M{
				"points_balance":   account.PointsBalance,
				"lifetime_points":  account.LifetimePoints,
				"current_tier":     account.CurrentTier,
				"version":          account.Version,
				"last_activity_at": account.LastActivityAt,
				"updated_at":       account.UpdatedAt,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update account snapshot: %w", err)
		}
		if result.MatchedCount == 0 {
			return nil, fmt.Errorf("account snapshot version conflict")
		}

		return nil, nil
	})

	return err
}

func (r *ledgerRepository) UpdateSnapshot(ctx context.Context, account *models.LoyaltyAccount) error {
	result, err := r.accounts.UpdateOne(ctx,
		bson.M{"_id": account.ID, "version": account.Version - 1},
		bson.M{"$set": bson.M{
			"points_balance":  account.PointsBalance,
			"lifetime_points": account.LifetimePoints,
			"current_tier":    account.CurrentTier,
			"version":         account.Version,
			"updated_at":      account.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update account snapshot: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("account snapshot version conflict")
	}

	return nil
}
