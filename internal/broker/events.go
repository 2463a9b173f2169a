package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"ppob-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing transaction lifecycle events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishTransactionCreated publishes TransactionCreated event
func (ep *EventPublisher) PublishTransactionCreated(ctx context.Context, event *models.TransactionCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.TransactionID), event)
}

// PublishTransactionPaid publishes TransactionPaid event
func (ep *EventPublisher) PublishTransactionPaid(ctx context.Context, event *models.TransactionPaidEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.TransactionID), event)
}

// PublishTransactionFailed publishes TransactionFailed event
func (ep *EventPublisher) PublishTransactionFailed(ctx context.Context, event *models.TransactionFailedEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.TransactionID), event)
}

// PublishFulfillmentSuccess publishes FulfillmentSuccess event
func (ep *EventPublisher) PublishFulfillmentSuccess(ctx context.Context, event *models.FulfillmentSuccessEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.TransactionID), event)
}

// PublishFulfillmentFlagged publishes FulfillmentFlagged event
func (ep *EventPublisher) PublishFulfillmentFlagged(ctx context.Context, event *models.FulfillmentFlaggedEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.TransactionID), event)
}

func eventKey(transactionID string) string {
	return fmt.Sprintf("transaction-%s", transactionID)
}

// EventHandler routes consumed lifecycle events
type EventHandler struct {
	onFulfillmentFlagged func(context.Context, *models.FulfillmentFlaggedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnFulfillmentFlagged registers a handler for FulfillmentFlagged events
func (eh *EventHandler) OnFulfillmentFlagged(handler func(context.Context, *models.FulfillmentFlaggedEvent) error) {
	eh.onFulfillmentFlagged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeFulfillmentFlagged:
		if eh.onFulfillmentFlagged != nil {
			var event models.FulfillmentFlaggedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal FulfillmentFlagged event: %w", err)
			}
			return eh.onFulfillmentFlagged(ctx, &event)
		}

	default:
		// Created/paid/failed events feed external consumers; nothing to
		// do in-process.
		log.Printf("Skipping event type: %s", baseEvent.EventType)
	}

	return nil
}
