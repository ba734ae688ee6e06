package interfaces

import (
	"context"

	"loyalty/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GeofenceRepository interface {
	Create(ctx context.Context, geofence *models.Geofence) error
	GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Geofence, error)
	ListActiveByTenant(ctx context.Context, tenantID primitive.ObjectID) ([]*models.Geofence, error)
}
