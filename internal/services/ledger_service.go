package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/repositories/interfaces"
	"loyalty/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplyRequest describes one point mutation. EvaluateTier, when set, computes
// the tier to store in the same snapshot write as the balance change.
type ApplyRequest struct {
	TenantID       primitive.ObjectID
	AccountID      primitive.ObjectID
	Points         int64
	Type           models.TransactionType
	IdempotencyKey string
	RuleID         *primitive.ObjectID
	GeofenceID     *primitive.ObjectID
	Description    string
	Timestamp      time.Time
	EvaluateTier   func(lifetimePoints int64, currentTier string) string
}

// LedgerService owns the append-only transaction log and the derived account
// snapshots. All mutations for one account serialize behind a per-account
// mutex; accounts never contend with each other. The stored snapshot is a
// cache of the log and can always be rebuilt from it.
type LedgerService struct {
	txnRepo      interfaces.TransactionRepository
	ledgerRepo   interfaces.LedgerRepository
	accountRepo  interfaces.AccountRepository
	locks        keyedMutex
	applyTimeout time.Duration
	logger       *logger.Logger
}

func NewLedgerService(
	txnRepo interfaces.TransactionRepository,
	ledgerRepo interfaces.LedgerRepository,
	accountRepo interfaces.AccountRepository,
	applyTimeout time.Duration,
	log *logger.Logger,
) *LedgerService {
	if applyTimeout <= 0 {
		applyTimeout = 10 * time.Second
	}
	return &LedgerService{
		txnRepo:      txnRepo,
		ledgerRepo:   ledgerRepo,
		accountRepo:  accountRepo,
		applyTimeout: applyTimeout,
		logger:       log,
	}
}

// Apply commits one signed point delta. At-most-once per idempotency key:
// a repeated key with the same delta and type returns the prior committed
// transaction; a repeated key with a different payload is an
// ErrIdempotencyConflict. A delta that would drive the balance negative is an
// ErrInsufficientBalance and commits nothing.
func (s *LedgerService) Apply(ctx context.Context, req *ApplyRequest) (*models.Transaction, *models.LoyaltyAccount, error) {
	if err := validateApply(req); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.applyTimeout)
	defer cancel()

	unlock := s.locks.Lock(req.AccountID.Hex())
	defer unlock()

	prior, err := s.txnRepo.GetByIdempotencyKey(ctx, req.AccountID, req.IdempotencyKey)
	if err == nil {
		if prior.Points != req.Points || prior.Type != req.Type {
			return nil, nil, models.ErrIdempotencyConflict
		}
		account, err := s.accountRepo.GetByID(ctx, req.TenantID, req.AccountID)
		if err != nil {
			return nil, nil, err
		}
		return prior, account, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	account, err := s.accountRepo.GetByID(ctx, req.TenantID, req.AccountID)
	if err != nil {
		return nil, nil, err
	}

	newBalance := account.PointsBalance + req.Points
	if newBalance < 0 {
		return nil, nil, models.ErrInsufficientBalance
	}

	now := time.Now()
	ts := req.Timestamp
	if ts.IsZero() {
		ts = now
	}

	balanceBefore := account.PointsBalance
	account.PointsBalance = newBalance
	if req.Points > 0 {
		account.LifetimePoints += req.Points
	}
	account.Version++
	account.LastActivityAt = ts
	account.UpdatedAt = now

	if req.EvaluateTier != nil {
		account.CurrentTier = req.EvaluateTier(account.LifetimePoints, account.CurrentTier)
	}

	txn := &models.Transaction{
		ID:             primitive.NewObjectID(),
		TenantID:       req.TenantID,
		AccountID:      account.ID,
		Points:         req.Points,
		Type:           req.Type,
		Status:         models.TransactionStatusCommitted,
		RuleID:         req.RuleID,
		GeofenceID:     req.GeofenceID,
		IdempotencyKey: req.IdempotencyKey,
		Description:    req.Description,
		BalanceBefore:  balanceBefore,
		BalanceAfter:   newBalance,
		Timestamp:      ts,
		CreatedAt:      now,
	}

	if err := s.ledgerRepo.Commit(ctx, txn, account); err != nil {
		return nil, nil, fmt.Errorf("failed to commit ledger entry: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"account_id":     account.ID.Hex(),
		"transaction_id": txn.ID.Hex(),
		"points":         req.Points,
		"type":           string(req.Type),
		"balance_after":  newBalance,
	}).Info("ledger entry committed")

	return txn, account, nil
}

// Rebuild recomputes an account snapshot by replaying its committed
// transactions. Returns the fresh snapshot and whether the stored one had
// drifted.
func (s *LedgerService) Rebuild(ctx context.Context, tenantID, accountID primitive.ObjectID) (*models.LoyaltyAccount, bool, error) {
	unlock := s.locks.Lock(accountID.Hex())
	defer unlock()

	account, err := s.accountRepo.GetByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, false, err
	}

	balance, lifetime, err := s.txnRepo.SumCommitted(ctx, accountID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to replay ledger: %w", err)
	}

	drifted := account.PointsBalance != balance || account.LifetimePoints != lifetime
	if !drifted {
		return account, false, nil
	}

	s.logger.WithFields(map[string]interface{}{
		"account_id":       accountID.Hex(),
		"stored_balance":   account.PointsBalance,
		"replayed_balance": balance,
	}).Warn("account snapshot drifted from ledger; rebuilding")

	account.PointsBalance = balance
	account.LifetimePoints = lifetime
	account.Version++
	account.UpdatedAt = time.Now()

	if err := s.ledgerRepo.UpdateSnapshot(ctx, account); err != nil {
		return nil, true, fmt.Errorf("failed to store rebuilt snapshot: %w", err)
	}

	return account, true, nil
}

func validateApply(req *ApplyRequest) error {
	if req.IdempotencyKey == "" {
		return models.NewValidationError("idempotency_key", "idempotency key is required")
	}
	if req.AccountID.IsZero() {
		return models.NewValidationError("account_id", "account id is required")
	}
	if req.TenantID.IsZero() {
		return models.NewValidationError("tenant_id", "tenant id is required")
	}
	switch req.Type {
	case models.TransactionTypeEarn, models.TransactionTypeRedeem, models.TransactionTypeExpire, models.TransactionTypeAdjust:
	default:
		return models.NewValidationError("type", fmt.Sprintf("unknown transaction type %q", req.Type))
	}
	if req.Points == 0 {
		return models.NewValidationError("points", "point delta must be non-zero")
	}
	return nil
}
