package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"sweetshop/internal/models"
	"sweetshop/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWriter is satisfied by *Producer
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing storefront events
type EventPublisher struct {
	writer EventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(writer EventWriter) *EventPublisher {
	return &EventPublisher{writer: writer}
}

// PublishCartCheckedOut publishes CartCheckedOut event
func (ep *EventPublisher) PublishCartCheckedOut(ctx context.Context, event *models.CartCheckedOutEvent) error {
	return ep.writer.PublishEvent(ctx, sessionKey(event.SessionID), event)
}

// PublishUserEvent publishes login, logout and registration events
func (ep *EventPublisher) PublishUserEvent(ctx context.Context, event *models.UserEvent) error {
	return ep.writer.PublishEvent(ctx, sessionKey(event.SessionID), event)
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session-%s", sessionID)
}

// NopPublisher drops every event; used when Kafka is disabled
type NopPublisher struct{}

func (NopPublisher) PublishCartCheckedOut(ctx context.Context, event *models.CartCheckedOutEvent) error {
	return nil
}

func (NopPublisher) PublishUserEvent(ctx context.Context, event *models.UserEvent) error {
	return nil
}

// EventHandler handles incoming events
type EventHandler struct {
	onCartCheckedOut func(context.Context, *models.CartCheckedOutEvent) error
	logger           *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnCartCheckedOut registers a handler for CartCheckedOut events
func (eh *EventHandler) OnCartCheckedOut(handler func(context.Context, *models.CartCheckedOutEvent) error) {
	eh.onCartCheckedOut = handler
}

// HandleMessage routes messages to appropriate handlers.
// Event types without a handler are skipped.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeCartCheckedOut:
		if eh.onCartCheckedOut != nil {
			var event models.CartCheckedOutEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CartCheckedOut event: %w", err)
			}
			return eh.onCartCheckedOut(ctx, &event)
		}

	case models.EventTypeUserLoggedIn, models.EventTypeUserLoggedOut, models.EventTypeUserRegistered:
		// audit only

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
