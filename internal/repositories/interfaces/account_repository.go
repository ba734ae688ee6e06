package interfaces

import (
	"context"

	"loyalty/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AccountRepository interface {
	Create(ctx context.Context, account *models.LoyaltyAccount) error
	GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.LoyaltyAccount, error)
	GetByCustomer(ctx context.Context, tenantID, programID, customerID primitive.ObjectID) (*models.LoyaltyAccount, error)

	// GetOrCreate provisions the account on a customer's first event.
	GetOrCreate(ctx context.Context, tenantID, programID, customerID primitive.ObjectID) (*models.LoyaltyAccount, error)
}
