package services

import (
	"context"
	"sync"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes backing the service tests. They hold the same
// contracts as the mongo implementations, including tenant isolation and the
// guarded inventory decrement.

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[primitive.ObjectID]*models.LoyaltyAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[primitive.ObjectID]*models.LoyaltyAccount)}
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *models.LoyaltyAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.LoyaltyAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if account.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}
	copied := *account
	return &copied, nil
}

func (r *fakeAccountRepo) GetByCustomer(ctx context.Context, tenantID, programID, customerID primitive.ObjectID) (*models.LoyaltyAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.TenantID == tenantID && account.ProgramID == programID && account.CustomerID == customerID {
			copied := *account
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeAccountRepo) GetOrCreate(ctx context.Context, tenantID, programID, customerID primitive.ObjectID) (*models.LoyaltyAccount, error) {
	if account, err := r.GetByCustomer(ctx, tenantID, programID, customerID); err == nil {
		return account, nil
	}
	account := &models.LoyaltyAccount{
		ID:         primitive.NewObjectID(),
		TenantID:   tenantID,
		ProgramID:  programID,
		CustomerID: customerID,
		CreatedAt:  time.Now(),
	}
	if err := r.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// store replaces the held snapshot. Test setup helper.
func (r *fakeAccountRepo) store(account *models.LoyaltyAccount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *account
	r.accounts[account.ID] = &copied
}

type fakeTxnRepo struct {
	mu   sync.Mutex
	rows []*models.Transaction
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{}
}

func (r *fakeTxnRepo) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			if row.TenantID != tenantID {
				return nil, models.ErrTenantIsolation
			}
			copied := *row
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeTxnRepo) GetByIdempotencyKey(ctx context.Context, accountID primitive.ObjectID, key string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.AccountID == accountID && row.IdempotencyKey == key {
			copied := *row
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeTxnRepo) CountByRuleSince(ctx context.Context, accountID, ruleID primitive.ObjectID, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, row := range r.rows {
		if row.AccountID == accountID && row.RuleID != nil && *row.RuleID == ruleID &&
			row.Status == models.TransactionStatusCommitted && !row.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTxnRepo) ListByAccount(ctx context.Context, tenantID, accountID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Transaction
	for _, row := range r.rows {
		if row.TenantID == tenantID && row.AccountID == accountID {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeTxnRepo) SumCommitted(ctx context.Context, accountID primitive.ObjectID) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var balance, lifetime int64
	for _, row := range r.rows {
		if row.AccountID == accountID && row.Status == models.TransactionStatusCommitted {
			balance += row.Points
			if row.Points > 0 {
				lifetime += row.Points
			}
		}
	}
	return balance, lifetime, nil
}

func (r *fakeTxnRepo) insert(txn *models.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *txn
	r.rows = append(r.rows, &copied)
}

// fakeLedgerRepo commits the ledger row and the snapshot together, the way
// the mongo implementation does inside a session.
type fakeLedgerRepo struct {
	txns     *fakeTxnRepo
	accounts *fakeAccountRepo
}

func newFakeLedgerRepo(txns *fakeTxnRepo, accounts *fakeAccountRepo) *fakeLedgerRepo {
	return &fakeLedgerRepo{txns: txns, accounts: accounts}
}

func (r *fakeLedgerRepo) Commit(ctx context.Context, txn *models.Transaction, account *models.LoyaltyAccount) error {
	r.txns.insert(txn)
	r.accounts.store(account)
	return nil
}

func (r *fakeLedgerRepo) UpdateSnapshot(ctx context.Context, account *models.LoyaltyAccount) error {
	r.accounts.store(account)
	return nil
}

type fakeRuleRepo struct {
	mu    sync.Mutex
	rules []*models.Rule
}

func newFakeRuleRepo(rules ...*models.Rule) *fakeRuleRepo {
	return &fakeRuleRepo{rules: rules}
}

func (r *fakeRuleRepo) Create(ctx context.Context, rule *models.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID.IsZero() {
		rule.ID = primitive.NewObjectID()
	}
	r.rules = append(r.rules, rule)
	return nil
}

func (r *fakeRuleRepo) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range r.rules {
		if rule.ID == id {
			if rule.TenantID != tenantID {
				return nil, models.ErrTenantIsolation
			}
			return rule, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeRuleRepo) Update(ctx context.Context, tenantID, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *fakeRuleRepo) Delete(ctx context.Context, tenantID, id primitive.ObjectID) error {
	return nil
}

func (r *fakeRuleRepo) ListActive(ctx context.Context, tenantID, programID primitive.ObjectID, ruleType models.RuleType, at time.Time) ([]*models.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Rule
	for _, rule := range r.rules {
		if rule.TenantID == tenantID && rule.ProgramID == programID && rule.Type == ruleType && rule.ActiveAt(at) {
			out = append(out, rule)
		}
	}
	return out, nil
}

type fakeGeofenceRepo struct {
	mu        sync.Mutex
	geofences map[primitive.ObjectID]*models.Geofence
}

func newFakeGeofenceRepo(geofences ...*models.Geofence) *fakeGeofenceRepo {
	repo := &fakeGeofenceRepo{geofences: make(map[primitive.ObjectID]*models.Geofence)}
	for _, g := range geofences {
		repo.geofences[g.ID] = g
	}
	return repo
}

func (r *fakeGeofenceRepo) Create(ctx context.Context, geofence *models.Geofence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if geofence.ID.IsZero() {
		geofence.ID = primitive.NewObjectID()
	}
	r.geofences[geofence.ID] = geofence
	return nil
}

func (r *fakeGeofenceRepo) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Geofence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	geofence, ok := r.geofences[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if geofence.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}
	return geofence, nil
}

func (r *fakeGeofenceRepo) ListActiveByTenant(ctx context.Context, tenantID primitive.ObjectID) ([]*models.Geofence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Geofence
	for _, g := range r.geofences {
		if g.TenantID == tenantID && g.IsActive {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeProgramRepo struct {
	mu       sync.Mutex
	programs map[primitive.ObjectID]*models.LoyaltyProgram
}

func newFakeProgramRepo(programs ...*models.LoyaltyProgram) *fakeProgramRepo {
	repo := &fakeProgramRepo{programs: make(map[primitive.ObjectID]*models.LoyaltyProgram)}
	for _, p := range programs {
		repo.programs[p.ID] = p
	}
	return repo
}

func (r *fakeProgramRepo) Create(ctx context.Context, program *models.LoyaltyProgram) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if program.ID.IsZero() {
		program.ID = primitive.NewObjectID()
	}
	r.programs[program.ID] = program
	return nil
}

func (r *fakeProgramRepo) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.LoyaltyProgram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	program, ok := r.programs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if program.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}
	return program, nil
}

func (r *fakeProgramRepo) Update(ctx context.Context, tenantID, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *fakeProgramRepo) ListByTenant(ctx context.Context, tenantID primitive.ObjectID, params *utils.PaginationParams) ([]*models.LoyaltyProgram, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.LoyaltyProgram
	for _, p := range r.programs {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

type fakeRewardRepo struct {
	mu      sync.Mutex
	rewards map[primitive.ObjectID]*models.Reward
}

func newFakeRewardRepo(rewards ...*models.Reward) *fakeRewardRepo {
	repo := &fakeRewardRepo{rewards: make(map[primitive.ObjectID]*models.Reward)}
	for _, rw := range rewards {
		repo.rewards[rw.ID] = rw
	}
	return repo
}

func (r *fakeRewardRepo) Create(ctx context.Context, reward *models.Reward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reward.ID.IsZero() {
		reward.ID = primitive.NewObjectID()
	}
	r.rewards[reward.ID] = reward
	return nil
}

func (r *fakeRewardRepo) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reward, ok := r.rewards[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if reward.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}
	copied := *reward
	return &copied, nil
}

func (r *fakeRewardRepo) ListByProgram(ctx context.Context, tenantID, programID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Reward, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Reward
	for _, rw := range r.rewards {
		if rw.TenantID == tenantID && rw.ProgramID == programID {
			copied := *rw
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRewardRepo) AdjustQuantity(ctx context.Context, tenantID, id primitive.ObjectID, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reward, ok := r.rewards[id]
	if !ok || reward.TenantID != tenantID {
		return 0, models.ErrRewardUnavailable
	}
	if delta < 0 && reward.QuantityAvailable < -delta {
		return 0, models.ErrRewardUnavailable
	}
	reward.QuantityAvailable += delta
	return reward.QuantityAvailable, nil
}

func (r *fakeRewardRepo) quantity(id primitive.ObjectID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rewards[id].QuantityAvailable
}

type fakeRedemptionRepo struct {
	mu          sync.Mutex
	redemptions map[string]*models.Redemption
}

func newFakeRedemptionRepo() *fakeRedemptionRepo {
	return &fakeRedemptionRepo{redemptions: make(map[string]*models.Redemption)}
}

func (r *fakeRedemptionRepo) Create(ctx context.Context, redemption *models.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	redemption.ID = primitive.NewObjectID()
	redemption.ReservedAt = time.Now()
	copied := *redemption
	r.redemptions[redemption.ReservationID] = &copied
	return nil
}

func (r *fakeRedemptionRepo) GetByReservationID(ctx context.Context, tenantID primitive.ObjectID, reservationID string) (*models.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	redemption, ok := r.redemptions[reservationID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if redemption.TenantID != tenantID {
		return nil, models.ErrTenantIsolation
	}
	copied := *redemption
	return &copied, nil
}

func (r *fakeRedemptionRepo) Transition(ctx context.Context, tenantID primitive.ObjectID, reservationID string, from, to models.RedemptionStatus, txnID *primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	redemption, ok := r.redemptions[reservationID]
	if !ok || redemption.TenantID != tenantID || redemption.Status != from {
		return false, nil
	}
	now := time.Now()
	redemption.Status = to
	redemption.ResolvedAt = &now
	if txnID != nil {
		redemption.TransactionID = txnID
	}
	return true, nil
}

func (r *fakeRedemptionRepo) setDeadline(reservationID string, deadline time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if redemption, ok := r.redemptions[reservationID]; ok {
		redemption.Deadline = deadline
	}
}

func (r *fakeRedemptionRepo) ListExpired(ctx context.Context, cutoff time.Time, limit int64) ([]*models.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Redemption
	for _, redemption := range r.redemptions {
		if redemption.Status == models.RedemptionStatusReserved && redemption.Deadline.Before(cutoff) {
			copied := *redemption
			out = append(out, &copied)
			if int64(len(out)) >= limit {
				break
			}
		}
	}
	return out, nil
}

type fakeCheckInRepo struct {
	mu       sync.Mutex
	checkIns []*models.CheckIn
}

func newFakeCheckInRepo() *fakeCheckInRepo {
	return &fakeCheckInRepo{}
}

func (r *fakeCheckInRepo) Create(ctx context.Context, checkIn *models.CheckIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	checkIn.ID = primitive.NewObjectID()
	r.checkIns = append(r.checkIns, checkIn)
	return nil
}

func (r *fakeCheckInRepo) ListByCustomer(ctx context.Context, tenantID, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CheckIn, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CheckIn
	for _, c := range r.checkIns {
		if c.TenantID == tenantID && c.CustomerID == customerID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

type publishedEvent struct {
	tenantID  primitive.ObjectID
	eventType models.OutboundEventType
	data      map[string]interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, tenantID primitive.ObjectID, eventType models.OutboundEventType, data map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{tenantID: tenantID, eventType: eventType, data: data})
}

func (p *fakePublisher) byType(eventType models.OutboundEventType) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
