package services

import (
	"context"
	"fmt"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/utils"
	"loyalty/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PubSub is the slice of the Redis client the publisher needs.
type PubSub interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// EventPublisher hands structured engine events to the notification and
// analytics collaborators. Delivery is their problem; a publish failure is
// logged and never fails the operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, tenantID primitive.ObjectID, eventType models.OutboundEventType, data map[string]interface{})
}

type redisEventPublisher struct {
	pubsub PubSub
	logger *logger.Logger
}

func NewEventPublisher(pubsub PubSub, log *logger.Logger) EventPublisher {
	return &redisEventPublisher{
		pubsub: pubsub,
		logger: log,
	}
}

func (p *redisEventPublisher) Publish(ctx context.Context, tenantID primitive.ObjectID, eventType models.OutboundEventType, data map[string]interface{}) {
	event := &models.OutboundEvent{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Type:       eventType,
		OccurredAt: time.Now(),
		Data:       data,
	}

	channel := fmt.Sprintf(utils.EventChannelFormat, tenantID.Hex())
	if err := p.pubsub.Publish(ctx, channel, event); err != nil {
		p.logger.WithError(err).WithFields(map[string]interface{}{
			"tenant_id":  tenantID.Hex(),
			"event_type": string(eventType),
		}).Error("failed to publish outbound event")
	}
}

// NopPublisher drops every event. Used in tests and when Redis is not
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, primitive.ObjectID, models.OutboundEventType, map[string]interface{}) {
}
