package interfaces

import (
	"context"
	"time"

	"loyalty/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RuleRepository interface {
	Create(ctx context.Context, rule *models.Rule) error
	GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Rule, error)
	Update(ctx context.Context, tenantID, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, tenantID, id primitive.ObjectID) error

	// ListActive returns enabled rules of the given type whose active window
	// contains at, ordered by priority ascending then creation order.
	ListActive(ctx context.Context, tenantID, programID primitive.ObjectID, ruleType models.RuleType, at time.Time) ([]*models.Rule, error)
}
