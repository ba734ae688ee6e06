package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"loyalty/internal/models"
	"loyalty/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type redemptionHarness struct {
	svc         *RedemptionService
	rewards     *fakeRewardRepo
	redemptions *fakeRedemptionRepo
	accounts    *fakeAccountRepo
	txns        *fakeTxnRepo
	publisher   *fakePublisher
	tenantID    primitive.ObjectID
	program     *models.LoyaltyProgram
	reward      *models.Reward
	account     *models.LoyaltyAccount
}

func newRedemptionHarness(t *testing.T, quantity, pointCost, balance int64) *redemptionHarness {
	t.Helper()

	tenantID := primitive.NewObjectID()
	program := &models.LoyaltyProgram{
		ID:       primitive.NewObjectID(),
		TenantID: tenantID,
		IsActive: true,
	}
	reward := &models.Reward{
		ID:                primitive.NewObjectID(),
		TenantID:          tenantID,
		ProgramID:         program.ID,
		Name:              "free coffee",
		PointCost:         pointCost,
		QuantityAvailable: quantity,
		LowStockThreshold: 1,
		IsActive:          true,
	}
	account := &models.LoyaltyAccount{
		ID:             primitive.NewObjectID(),
		TenantID:       tenantID,
		ProgramID:      program.ID,
		CustomerID:     primitive.NewObjectID(),
		PointsBalance:  balance,
		LifetimePoints: balance,
	}

	accounts := newFakeAccountRepo()
	accounts.store(account)
	txns := newFakeTxnRepo()
	rewards := newFakeRewardRepo(reward)
	redemptions := newFakeRedemptionRepo()
	publisher := &fakePublisher{}

	ledger := NewLedgerService(txns, newFakeLedgerRepo(txns, accounts), accounts, 5*time.Second, logger.NewNop())
	svc := NewRedemptionService(
		rewards, redemptions, accounts, newFakeProgramRepo(program), txns,
		ledger, NewTierEvaluator(), publisher, nil, logger.NewNop(),
	)

	return &redemptionHarness{
		svc:         svc,
		rewards:     rewards,
		redemptions: redemptions,
		accounts:    accounts,
		txns:        txns,
		publisher:   publisher,
		tenantID:    tenantID,
		program:     program,
		reward:      reward,
		account:     account,
	}
}

func TestReserveHoldsInventory(t *testing.T) {
	h := newRedemptionHarness(t, 5, 100, 500)

	redemption, err := h.svc.Reserve(context.Background(), h.tenantID, h.account.CustomerID, h.reward.ID)
	if err != nil {
		t.Fatal(err)
	}

	if redemption.ReservationID == "" {
		t.Error("reservation ID not assigned")
	}
	if redemption.Status != models.RedemptionStatusReserved {
		t.Errorf("status=%s, want reserved", redemption.Status)
	}
	if redemption.PointsUsed != 100 {
		t.Errorf("points used=%d, want the reward cost 100", redemption.PointsUsed)
	}
	if redemption.Deadline.Before(time.Now()) {
		t.Error("deadline should be in the future")
	}
	if got := h.rewards.quantity(h.reward.ID); got != 4 {
		t.Errorf("inventory=%d after reserve, want 4", got)
	}

	// The reservation holds inventory but no points yet.
	account, _ := h.accounts.GetByID(context.Background(), h.tenantID, h.account.ID)
	if account.PointsBalance != 500 {
		t.Errorf("reserve debited points early: balance=%d", account.PointsBalance)
	}
}

func TestReserveUnavailableReward(t *testing.T) {
	h := newRedemptionHarness(t, 0, 100, 500)

	_, err := h.svc.Reserve(context.Background(), h.tenantID, h.account.CustomerID, h.reward.ID)
	if !errors.Is(err, models.ErrRewardUnavailable) {
		t.Errorf("sold-out reward: err=%v, want ErrRewardUnavailable", err)
	}

	h2 := newRedemptionHarness(t, 5, 100, 500)
	h2.reward.IsActive = false

	_, err = h2.svc.Reserve(context.Background(), h2.tenantID, h2.account.CustomerID, h2.reward.ID)
	if !errors.Is(err, models.ErrRewardUnavailable) {
		t.Errorf("inactive reward: err=%v, want ErrRewardUnavailable", err)
	}
	if got := h2.rewards.quantity(h2.reward.ID); got != 5 {
		t.Errorf("failed reserve touched inventory: %d", got)
	}
}

func TestReserveConcurrentLastUnit(t *testing.T) {
	h := newRedemptionHarness(t, 1, 100, 500)

	const callers = 10
	var wg sync.WaitGroup
	wg.Add(callers)

	var mu sync.Mutex
	var won, lost int
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, err := h.svc.Reserve(context.Background(), h.tenantID, h.account.CustomerID, h.reward.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, models.ErrRewardUnavailable):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if won != 1 || lost != callers-1 {
		t.Errorf("won=%d lost=%d, want exactly one winner", won, lost)
	}
	if got := h.rewards.quantity(h.reward.ID); got != 0 {
		t.Errorf("inventory=%d, want 0", got)
	}
}

func TestCommitDebitsPointsOnce(t *testing.T) {
	h := newRedemptionHarness(t, 5, 100, 500)

	redemption, err := h.svc.Reserve(context.Background(), h.tenantID, h.account.CustomerID, h.reward.ID)
	if err != nil {
		t.Fatal(err)
	}

	txn, err := h.svc.Commit(context.Background(), h.tenantID, redemption.ReservationID)
	if err != nil {
		t.Fatal(err)
	}
	if txn.Points != -100 || txn.Type != models.TransactionTypeRedeem {
		t.Errorf("txn points=%d type=%s, want -100 redeem", txn.Points, txn.Type)
	}

	account, _ := h.accounts.GetByID(context.Background(), h.tenantID, h.account.ID)
	if account.PointsBalance != 400 {
		t.Errorf("balance=%d after commit, want 400", account.PointsBalance)
	}
	if account.LifetimePoints != 500 {
		t.Errorf("redeem changed lifetime points to %d", account.LifetimePoints)
	}

	// A retried commit returns the same transaction and debits nothing more.
	again, err := h.svc.Commit(context.Background(), h.tenantID, redemption.ReservationID)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != txn.ID {
		t.Errorf("retried commit produced a new transaction %s", again.ID.Hex())
	}
	account, _ = h.accounts.GetByID(context.Background(), h.tenantID, h.account.ID)
	if account.PointsBalance != 400 {
		t.Errorf("balance=%d after retried commit, want 400", account.PointsBalance)
	}
}

func TestCommitInsufficientBalanceReleases(t *testing.T) {
	h := newRedemptionHarness(t, 5, 100, 50)

	redemption, err := h.svc.Reserve(context.Background(), h.tenantID, h.account.CustomerID, h.reward.ID)
	if err != nil {
		t.Fatal(err)
	}

	_, err = h.svc.Commit(context.Background(), h.tenantID, redemption.ReservationID)
	if !errors.Is(err, models.ErrInsufficientBalance) {
		t.Fatalf("err=%v, want ErrInsufficientBalance", err)
	}

	// The reservation cancels and the held unit returns.
	if got := h.rewards.quantity(h.reward.ID); got != 5 {
		t.Errorf("inventory=%d, want restored to 5", got)
	}
	if events := h.publisher.byType(models.OutboundInsufficientBalance); len(events) != 1 {
		t.Errorf("got %d insufficient_balance events, want 1", len(events))
	}

	// The closed reservation refuses later commits.
	_, err = h.svc.Commit(context.Background(), h.tenantID, redemption.ReservationID)
	if !errors.Is(err, models.ErrReservationClosed) {
		t.Errorf("commit after forced release: err=%v, want ErrReservationClosed", err)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	h := newRedemptionHarness(t, 5, 100, 500)

	redemption, err := h.svc.Reserve(context.Background(), h.tenantID, h.account.CustomerID, h.reward.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := h.svc.Release(context.Background(), h.tenantID, redemption.ReservationID); err != nil {
		t.Fatal(err)
	}
	if got := h.rewards.quantity(h.reward.ID); got != 5 {
		t.Errorf("inventory=%d after release, want 5", got)
	}

	// Releasing again restores nothing more.
	if err := h.svc.Release(context.Background(), h.tenantID, redemption.ReservationID); err != nil {
		t.Fatal(err)
	}
	if got := h.rewards.quantity(h.reward.ID); got != 5 {
		t.Errorf("inventory=%d after double release, want 5", got)
	}

	// Unknown reservations are a no-op.
	if err := h.svc.Release(context.Background(), h.tenantID, "missing"); err != nil {
		t.Errorf("release of unknown reservation: %v", err)
	}
}

func TestReleaseAfterCommitIsNoOp(t *testing.T) {
	h := newRedemptionHarness(t, 5, 100, 500)

	redemption, err := h.svc.Reserve(context.Background(), h.tenantID, h.account.CustomerID, h.reward.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.Commit(context.Background(), h.tenantID, redemption.ReservationID); err != nil {
		t.Fatal(err)
	}

	if err := h.svc.Release(context.Background(), h.tenantID, redemption.ReservationID); err != nil {
		t.Fatal(err)
	}

	// The fulfilled redemption keeps its unit consumed.
	if got := h.rewards.quantity(h.reward.ID); got != 4 {
		t.Errorf("inventory=%d, want 4", got)
	}
}

func TestReleaseExpired(t *testing.T) {
	h := newRedemptionHarness(t, 5, 100, 500)

	redemption, err := h.svc.Reserve(context.Background(), h.tenantID, h.account.CustomerID, h.reward.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got := h.rewards.quantity(h.reward.ID); got != 4 {
		t.Fatalf("inventory=%d after reserve, want 4", got)
	}

	h.redemptions.setDeadline(redemption.ReservationID, time.Now().Add(-time.Minute))

	released, err := h.svc.ReleaseExpired(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	if released != 1 {
		t.Errorf("released=%d, want 1", released)
	}

	after, err := h.redemptions.GetByReservationID(context.Background(), h.tenantID, redemption.ReservationID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != models.RedemptionStatusExpired {
		t.Errorf("status=%s, want expired", after.Status)
	}
	if got := h.rewards.quantity(h.reward.ID); got != 5 {
		t.Errorf("inventory=%d after sweep, want 5", got)
	}

	// A second sweep finds nothing.
	released, err = h.svc.ReleaseExpired(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	if released != 0 {
		t.Errorf("second sweep released %d, want 0", released)
	}
}

func TestCommitReleaseForeignTenantRejected(t *testing.T) {
	h := newRedemptionHarness(t, 5, 100, 500)

	redemption, err := h.svc.Reserve(context.Background(), h.tenantID, h.account.CustomerID, h.reward.ID)
	if err != nil {
		t.Fatal(err)
	}

	intruder := primitive.NewObjectID()

	if _, err := h.svc.Commit(context.Background(), intruder, redemption.ReservationID); !errors.Is(err, models.ErrTenantIsolation) {
		t.Errorf("foreign-tenant commit: err=%v, want ErrTenantIsolation", err)
	}
	if err := h.svc.Release(context.Background(), intruder, redemption.ReservationID); !errors.Is(err, models.ErrTenantIsolation) {
		t.Errorf("foreign-tenant release: err=%v, want ErrTenantIsolation", err)
	}

	// The reservation survives untouched for its owner.
	after, err := h.redemptions.GetByReservationID(context.Background(), h.tenantID, redemption.ReservationID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != models.RedemptionStatusReserved {
		t.Errorf("status=%s after foreign-tenant calls, want reserved", after.Status)
	}
	if got := h.rewards.quantity(h.reward.ID); got != 4 {
		t.Errorf("inventory=%d, want the held unit still out", got)
	}

	if _, err := h.svc.Commit(context.Background(), h.tenantID, redemption.ReservationID); err != nil {
		t.Errorf("owner commit after rejected intruder: %v", err)
	}
}

func TestReserveLowInventoryEvent(t *testing.T) {
	h := newRedemptionHarness(t, 2, 100, 500)

	if _, err := h.svc.Reserve(context.Background(), h.tenantID, h.account.CustomerID, h.reward.ID); err != nil {
		t.Fatal(err)
	}
	// Remaining 1 == threshold: alert fires.
	if events := h.publisher.byType(models.OutboundLowInventory); len(events) != 1 {
		t.Errorf("got %d low_inventory events, want 1", len(events))
	}
}
