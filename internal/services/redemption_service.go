package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/repositories/interfaces"
	"loyalty/internal/utils"
	"loyalty/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReservationCache mirrors reservation deadlines into Redis TTL keys so the
// external sweeper can scan cheaply. Best effort; the mongo deadline is
// authoritative.
type ReservationCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedemptionService reserves and commits reward inventory against point
// spend. Inventory movement for one reward serializes behind a per-reward
// mutex; the point debit itself goes through the Ledger like any other
// mutation, keyed by the reservation ID so a retried commit has one effect.
type RedemptionService struct {
	rewardRepo     interfaces.RewardRepository
	redemptionRepo interfaces.RedemptionRepository
	accountRepo    interfaces.AccountRepository
	programRepo    interfaces.ProgramRepository
	txnRepo        interfaces.TransactionRepository
	ledger         *LedgerService
	tierEval       *TierEvaluator
	publisher      EventPublisher
	cache          ReservationCache
	locks          keyedMutex
	logger         *logger.Logger
}

func NewRedemptionService(
	rewardRepo interfaces.RewardRepository,
	redemptionRepo interfaces.RedemptionRepository,
	accountRepo interfaces.AccountRepository,
	programRepo interfaces.ProgramRepository,
	txnRepo interfaces.TransactionRepository,
	ledger *LedgerService,
	tierEval *TierEvaluator,
	publisher EventPublisher,
	cache ReservationCache,
	log *logger.Logger,
) *RedemptionService {
	return &RedemptionService{
		rewardRepo:     rewardRepo,
		redemptionRepo: redemptionRepo,
		accountRepo:    accountRepo,
		programRepo:    programRepo,
		txnRepo:        txnRepo,
		ledger:         ledger,
		tierEval:       tierEval,
		publisher:      publisher,
		cache:          cache,
		logger:         log,
	}
}

// Reserve holds one unit of reward inventory for the customer. The guarded
// quantity decrement means N concurrent callers for a reward with one unit
// left produce exactly one reservation.
func (s *RedemptionService) Reserve(ctx context.Context, tenantID, customerID, rewardID primitive.ObjectID) (*models.Redemption, error) {
	reward, err := s.rewardRepo.GetByID(ctx, tenantID, rewardID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !reward.AvailableAt(now) {
		return nil, models.ErrRewardUnavailable
	}

	program, err := s.programRepo.GetByID(ctx, tenantID, reward.ProgramID)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByCustomer(ctx, tenantID, reward.ProgramID, customerID)
	if err != nil {
		return nil, err
	}

	ttl := program.ReservationTTL
	if ttl <= 0 {
		ttl = utils.DefaultReservationTTL
	}

	unlock := s.locks.Lock(rewardID.Hex())
	defer unlock()

	remaining, err := s.rewardRepo.AdjustQuantity(ctx, tenantID, rewardID, -1)
	if err != nil {
		return nil, err
	}

	redemption := &models.Redemption{
		ReservationID: uuid.NewString(),
		TenantID:      tenantID,
		ProgramID:     reward.ProgramID,
		AccountID:     account.ID,
		CustomerID:    customerID,
		RewardID:      rewardID,
		PointsUsed:    reward.PointCost,
		Status:        models.RedemptionStatusReserved,
		Deadline:      now.Add(ttl),
	}

	if err := s.redemptionRepo.Create(ctx, redemption); err != nil {
		// Give the held unit back; the reservation never existed.
		if _, restoreErr := s.rewardRepo.AdjustQuantity(ctx, tenantID, rewardID, 1); restoreErr != nil {
			s.logger.WithError(restoreErr).WithField("reward_id", rewardID.Hex()).Error("failed to restore inventory after create failure")
		}
		return nil, err
	}

	s.mirrorDeadline(ctx, redemption, ttl)

	if remaining <= reward.LowStockThreshold {
		s.publisher.Publish(ctx, tenantID, models.OutboundLowInventory, map[string]interface{}{
			"reward_id": rewardID.Hex(),
			"remaining": remaining,
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"reservation_id": redemption.ReservationID,
		"reward_id":      rewardID.Hex(),
		"remaining":      remaining,
	}).Info("reward reserved")

	return redemption, nil
}

// Commit debits the reserved points and fulfills the redemption. Committing
// an already-fulfilled reservation returns the prior transaction. If the
// balance dropped below the point cost since reservation (a concurrent expiry,
// say) the reservation is released, inventory restored, and
// ErrInsufficientBalance propagates. A caller from another tenant gets
// ErrTenantIsolation and the reservation is untouched.
func (s *RedemptionService) Commit(ctx context.Context, tenantID primitive.ObjectID, reservationID string) (*models.Transaction, error) {
	redemption, err := s.redemptionRepo.GetByReservationID(ctx, tenantID, reservationID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(redemption.RewardID.Hex())
	defer unlock()

	// Re-read under the lock; a concurrent release may have won.
	redemption, err = s.redemptionRepo.GetByReservationID(ctx, tenantID, reservationID)
	if err != nil {
		return nil, err
	}

	switch redemption.Status {
	case models.RedemptionStatusFulfilled:
		return s.txnRepo.GetByIdempotencyKey(ctx, redemption.AccountID, reservationID)
	case models.RedemptionStatusCancelled, models.RedemptionStatusExpired:
		return nil, models.ErrReservationClosed
	}

	program, err := s.programRepo.GetByID(ctx, redemption.TenantID, redemption.ProgramID)
	if err != nil {
		return nil, err
	}

	txn, _, err := s.ledger.Apply(ctx, &ApplyRequest{
		TenantID:       redemption.TenantID,
		AccountID:      redemption.AccountID,
		Points:         -redemption.PointsUsed,
		Type:           models.TransactionTypeRedeem,
		IdempotencyKey: reservationID,
		Description:    fmt.Sprintf("redemption %s", reservationID),
		EvaluateTier: func(lifetime int64, current string) string {
			return s.tierEval.NextTier(program, lifetime, current)
		},
	})
	if err != nil {
		if errors.Is(err, models.ErrInsufficientBalance) {
			s.releaseLocked(ctx, redemption, models.RedemptionStatusCancelled)
			s.publisher.Publish(ctx, redemption.TenantID, models.OutboundInsufficientBalance, map[string]interface{}{
				"reservation_id": reservationID,
				"account_id":     redemption.AccountID.Hex(),
				"points_needed":  redemption.PointsUsed,
			})
		}
		return nil, err
	}

	ok, err := s.redemptionRepo.Transition(ctx, tenantID, reservationID, models.RedemptionStatusReserved, models.RedemptionStatusFulfilled, &txn.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrReservationClosed
	}

	s.dropDeadline(ctx, redemption)

	s.logger.WithFields(map[string]interface{}{
		"reservation_id": reservationID,
		"transaction_id": txn.ID.Hex(),
		"points_used":    redemption.PointsUsed,
	}).Info("redemption committed")

	return txn, nil
}

// Release returns a reservation's inventory. Idempotent: releasing an
// already-released or already-committed reservation is a no-op. Foreign-tenant
// callers get ErrTenantIsolation.
func (s *RedemptionService) Release(ctx context.Context, tenantID primitive.ObjectID, reservationID string) error {
	redemption, err := s.redemptionRepo.GetByReservationID(ctx, tenantID, reservationID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return err
	}

	unlock := s.locks.Lock(redemption.RewardID.Hex())
	defer unlock()

	s.releaseLocked(ctx, redemption, models.RedemptionStatusCancelled)
	return nil
}

// ReleaseExpired releases reservations whose deadline has passed. Called by
// the external sweeper collaborator. Returns the number released.
func (s *RedemptionService) ReleaseExpired(ctx context.Context, limit int64) (int, error) {
	expired, err := s.redemptionRepo.ListExpired(ctx, time.Now(), limit)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, redemption := range expired {
		unlock := s.locks.Lock(redemption.RewardID.Hex())
		if s.releaseLocked(ctx, redemption, models.RedemptionStatusExpired) {
			released++
		}
		unlock()
	}

	return released, nil
}

// releaseLocked transitions out of reserved and restores inventory exactly
// once. The status CAS is the restore guard: only the winner increments.
func (s *RedemptionService) releaseLocked(ctx context.Context, redemption *models.Redemption, to models.RedemptionStatus) bool {
	ok, err := s.redemptionRepo.Transition(ctx, redemption.TenantID, redemption.ReservationID, models.RedemptionStatusReserved, to, nil)
	if err != nil {
		s.logger.WithError(err).WithField("reservation_id", redemption.ReservationID).Error("failed to release reservation")
		return false
	}
	if !ok {
		return false
	}

	if _, err := s.rewardRepo.AdjustQuantity(ctx, redemption.TenantID, redemption.RewardID, 1); err != nil {
		s.logger.WithError(err).WithField("reservation_id", redemption.ReservationID).Error("failed to restore inventory on release")
	}

	s.dropDeadline(ctx, redemption)

	s.logger.WithFields(map[string]interface{}{
		"reservation_id": redemption.ReservationID,
		"status":         string(to),
	}).Info("reservation released")

	return true
}

func (s *RedemptionService) mirrorDeadline(ctx context.Context, redemption *models.Redemption, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	key := fmt.Sprintf(utils.CacheKeyReservation, redemption.ReservationID)
	if err := s.cache.Set(ctx, key, redemption.RewardID.Hex(), ttl); err != nil {
		s.logger.WithError(err).WithField("reservation_id", redemption.ReservationID).Warn("failed to mirror reservation deadline")
	}
}

func (s *RedemptionService) dropDeadline(ctx context.Context, redemption *models.Redemption) {
	if s.cache == nil {
		return
	}
	key := fmt.Sprintf(utils.CacheKeyReservation, redemption.ReservationID)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("reservation_id", redemption.ReservationID).Warn("failed to drop reservation deadline key")
	}
}
