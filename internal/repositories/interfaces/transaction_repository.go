package interfaces

import (
	"context"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionRepository interface {
	GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Transaction, error)

	// GetByIdempotencyKey returns the committed transaction for (account, key),
	// or models.ErrNotFound.
	GetByIdempotencyKey(ctx context.Context, accountID primitive.ObjectID, key string) (*models.Transaction, error)

	// CountByRuleSince counts committed transactions credited by a rule to an
	// account since the given instant. Drives sliding-window frequency caps.
	CountByRuleSince(ctx context.Context, accountID, ruleID primitive.ObjectID, since time.Time) (int64, error)

	ListByAccount(ctx context.Context, tenantID, accountID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error)

	// SumCommitted replays every committed row for an account and returns
	// (balance, lifetimePoints).
	SumCommitted(ctx context.Context, accountID primitive.ObjectID) (int64, int64, error)
}

// LedgerRepository persists a ledger entry and the refreshed account snapshot
// as one atomic write.
type LedgerRepository interface {
	Commit(ctx context.Context, txn *models.Transaction, account *models.LoyaltyAccount) error

	// UpdateSnapshot stores a snapshot recomputed from the log without
	// appending a ledger row. Used only by replay/rebuild.
	UpdateSnapshot(ctx context.Context, account *models.LoyaltyAccount) error
}
