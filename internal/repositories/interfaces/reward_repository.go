package interfaces

import (
	"context"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RewardRepository interface {
	Create(ctx context.Context, reward *models.Reward) error
	GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Reward, error)
	ListByProgram(ctx context.Context, tenantID, programID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Reward, int64, error)

	// AdjustQuantity applies delta to quantity_available, refusing to go
	// negative. Returns the remaining quantity.
	AdjustQuantity(ctx context.Context, tenantID, id primitive.ObjectID, delta int64) (int64, error)
}

type RedemptionRepository interface {
	Create(ctx context.Context, redemption *models.Redemption) error

	// GetByReservationID returns ErrTenantIsolation when the reservation
	// belongs to another tenant.
	GetByReservationID(ctx context.Context, tenantID primitive.ObjectID, reservationID string) (*models.Redemption, error)

	// Transition moves a redemption from one status to another; returns false
	// if the redemption was not in the expected status. Compare-and-set so
	// release and commit cannot both win. The filter is tenant-scoped.
	Transition(ctx context.Context, tenantID primitive.ObjectID, reservationID string, from, to models.RedemptionStatus, txnID *primitive.ObjectID) (bool, error)

	// ListExpired returns reservations whose deadline passed before the cutoff.
	ListExpired(ctx context.Context, cutoff time.Time, limit int64) ([]*models.Redemption, error)
}
