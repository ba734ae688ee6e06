package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes correctness depends on. The unique
// transaction index backstops ledger idempotency at the storage layer; the
// redemption indexes serve the status CAS and the expiry sweep.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"loyalty_transactions": {
			{
				Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "rule_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		"loyalty_accounts": {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "program_id", Value: 1}, {Key: "customer_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"redemptions": {
			{
				Keys:    bson.D{{Key: "reservation_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "deadline", Value: 1}}},
		},
		"loyalty_rules": {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "program_id", Value: 1}, {Key: "type", Value: 1}}},
		},
	}

	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}

	return nil
}
