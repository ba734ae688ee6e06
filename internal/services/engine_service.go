package services

import (
	"context"
	"fmt"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/repositories/interfaces"
	"loyalty/internal/utils"
	"loyalty/internal/validators"
	"loyalty/pkg/logger"
)

// EngineService is the facade every inbound event passes through. It wires
// rule matching, the ledger, tier evaluation, and outbound events together;
// collaborators never touch those components directly.
type EngineService struct {
	programRepo  interfaces.ProgramRepository
	accountRepo  interfaces.AccountRepository
	checkinRepo  interfaces.CheckInRepository
	geofenceRepo interfaces.GeofenceRepository
	matcher      *RuleMatcher
	ledger       *LedgerService
	tierEval     *TierEvaluator
	geoMatcher   *GeoMatcher
	publisher    EventPublisher
	recommender  Recommender
	logger       *logger.Logger
}

func NewEngineService(
	programRepo interfaces.ProgramRepository,
	accountRepo interfaces.AccountRepository,
	checkinRepo interfaces.CheckInRepository,
	geofenceRepo interfaces.GeofenceRepository,
	matcher *RuleMatcher,
	ledger *LedgerService,
	tierEval *TierEvaluator,
	geoMatcher *GeoMatcher,
	publisher EventPublisher,
	recommender Recommender,
	log *logger.Logger,
) *EngineService {
	return &EngineService{
		programRepo:  programRepo,
		accountRepo:  accountRepo,
		checkinRepo:  checkinRepo,
		geofenceRepo: geofenceRepo,
		matcher:      matcher,
		ledger:       ledger,
		tierEval:     tierEval,
		geoMatcher:   geoMatcher,
		publisher:    publisher,
		recommender:  recommender,
		logger:       log,
	}
}

// ProcessEvent runs one inbound event through the engine. All-or-nothing per
// rule application; a validation failure rejects the event before any state
// change.
func (s *EngineService) ProcessEvent(ctx context.Context, event *models.Event) (*models.EngineResult, error) {
	if err := validators.ValidateEvent(event); err != nil {
		return nil, err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	program, err := s.programRepo.GetByID(ctx, event.TenantID, event.ProgramID)
	if err != nil {
		return nil, err
	}
	if !program.IsActive {
		return nil, models.NewValidationError("program_id", "program is not active")
	}

	account, err := s.accountRepo.GetOrCreate(ctx, event.TenantID, program.ID, event.CustomerID)
	if err != nil {
		return nil, err
	}

	previousTier := account.CurrentTier

	if event.Type == models.EventTypeCheckin && event.Location != nil {
		s.recordCheckIn(ctx, event)
	}

	var result *models.EngineResult
	if event.Type == models.EventTypeManual {
		result, err = s.applyManual(ctx, program, account, event)
	} else {
		result, err = s.applyRules(ctx, program, account, event)
	}
	if err != nil {
		return nil, err
	}

	if result.TierAfter != previousTier {
		result.TierChanged = true
		s.publisher.Publish(ctx, event.TenantID, models.OutboundTierChange, map[string]interface{}{
			"account_id":  account.ID.Hex(),
			"customer_id": event.CustomerID.Hex(),
			"from_tier":   previousTier,
			"to_tier":     result.TierAfter,
		})
	}

	s.decorate(ctx, program, account, result)

	return result, nil
}

func (s *EngineService) applyManual(ctx context.Context, program *models.LoyaltyProgram, account *models.LoyaltyAccount, event *models.Event) (*models.EngineResult, error) {
	txn, updated, err := s.ledger.Apply(ctx, &ApplyRequest{
		TenantID:       event.TenantID,
		AccountID:      account.ID,
		Points:         event.Points,
		Type:           models.TransactionTypeAdjust,
		IdempotencyKey: event.IdempotencyKey,
		Description:    event.Description,
		Timestamp:      event.Timestamp,
		EvaluateTier: func(lifetime int64, current string) string {
			return s.tierEval.NextTier(program, lifetime, current)
		},
	})
	if err != nil {
		return nil, err
	}

	return &models.EngineResult{
		AppliedRules:   []models.AppliedRule{},
		TransactionIDs: []string{txn.ID.Hex()},
		BalanceAfter:   updated.PointsBalance,
		LifetimePoints: updated.LifetimePoints,
		TierAfter:      updated.CurrentTier,
	}, nil
}

// applyRules commits each matched rule as its own ledger row. A failure
// mid-stack leaves the earlier rows committed and errors the event; because
// every rule gets its own derived idempotency key, retrying the same event
// replays the committed rows and applies only the remainder, so the stack
// converges without double-crediting.
func (s *EngineService) applyRules(ctx context.Context, program *models.LoyaltyProgram, account *models.LoyaltyAccount, event *models.Event) (*models.EngineResult, error) {
	matches, err := s.matcher.Match(ctx, program, account, event)
	if err != nil {
		return nil, err
	}

	result := &models.EngineResult{
		AppliedRules:   []models.AppliedRule{},
		TransactionIDs: []string{},
		BalanceAfter:   account.PointsBalance,
		LifetimePoints: account.LifetimePoints,
		TierAfter:      account.CurrentTier,
	}

	for _, match := range matches {
		if match.Points == 0 {
			continue
		}

		ruleID := match.Rule.ID
		// Key derivation keeps each stacked rule at-most-once for a retried
		// event.
		key := fmt.Sprintf("%s:%s", event.IdempotencyKey, ruleID.Hex())

		txn, updated, err := s.ledger.Apply(ctx, &ApplyRequest{
			TenantID:       event.TenantID,
			AccountID:      account.ID,
			Points:         match.Points,
			Type:           models.TransactionTypeEarn,
			IdempotencyKey: key,
			RuleID:         &ruleID,
			Description:    match.Rule.Name,
			Timestamp:      event.Timestamp,
			EvaluateTier: func(lifetime int64, current string) string {
				return s.tierEval.NextTier(program, lifetime, current)
			},
		})
		if err != nil {
			return nil, err
		}

		result.AppliedRules = append(result.AppliedRules, models.AppliedRule{
			RuleID:   ruleID,
			RuleName: match.Rule.Name,
			Points:   match.Points,
		})
		result.TransactionIDs = append(result.TransactionIDs, txn.ID.Hex())
		result.BalanceAfter = updated.PointsBalance
		result.LifetimePoints = updated.LifetimePoints
		result.TierAfter = updated.CurrentTier
	}

	return result, nil
}

// recordCheckIn writes an audit row for the first active geofence containing
// the event location. Failure here never blocks accrual.
func (s *EngineService) recordCheckIn(ctx context.Context, event *models.Event) {
	geofences, err := s.geofenceRepo.ListActiveByTenant(ctx, event.TenantID)
	if err != nil {
		s.logger.WithError(err).WithTenantID(event.TenantID).Warn("checkin audit skipped: failed to list geofences")
		return
	}

	point := utils.Point{Lat: event.Location.Lat, Lng: event.Location.Lng}
	for _, geofence := range geofences {
		if !s.geoMatcher.IsWithin(point, geofence) {
			continue
		}
		checkIn := &models.CheckIn{
			TenantID:   event.TenantID,
			CustomerID: event.CustomerID,
			GeofenceID: geofence.ID,
			Location:   *event.Location,
			Timestamp:  event.Timestamp,
		}
		if err := s.checkinRepo.Create(ctx, checkIn); err != nil {
			s.logger.WithError(err).WithTenantID(event.TenantID).Warn("failed to record checkin")
		}
		return
	}
}

func (s *EngineService) decorate(ctx context.Context, program *models.LoyaltyProgram, account *models.LoyaltyAccount, result *models.EngineResult) {
	if s.recommender == nil {
		return
	}
	offers, err := s.recommender.Suggest(ctx, program, account)
	if err != nil {
		s.logger.WithError(err).Debug("recommendation scoring unavailable")
		return
	}
	result.Suggestions = offers
}
