package interfaces

import (
	"context"

	"loyalty/internal/models"
	"loyalty/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProgramRepository interface {
	Create(ctx context.Context, program *models.LoyaltyProgram) error
	GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.LoyaltyProgram, error)
	Update(ctx context.Context, tenantID, id primitive.ObjectID, updates map[string]interface{}) error
	ListByTenant(ctx context.Context, tenantID primitive.ObjectID, params *utils.PaginationParams) ([]*models.LoyaltyProgram, int64, error)
}
