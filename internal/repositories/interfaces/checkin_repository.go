package interfaces

import (
	"context"

	"loyalty/internal/models"
	"loyalty/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CheckInRepository interface {
	Create(ctx context.Context, checkIn *models.CheckIn) error
	ListByCustomer(ctx context.Context, tenantID, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CheckIn, int64, error)
}
