package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"pricewatch/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishItemIngested publishes ItemIngested event
func (ep *EventPublisher) PublishItemIngested(ctx context.Context, event *models.ItemIngestedEvent) error {
	key := fmt.Sprintf("product-%d", event.RetailerProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPriceChanged publishes PriceChanged event
func (ep *EventPublisher) PublishPriceChanged(ctx context.Context, event *models.PriceChangedEvent) error {
	key := fmt.Sprintf("product-%d", event.RetailerProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onItemScraped  func(context.Context, *models.ItemScrapedEvent) error
	onPriceChanged func(context.Context, *models.PriceChangedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnItemScraped registers a handler for ItemScraped events
func (eh *EventHandler) OnItemScraped(handler func(context.Context, *models.ItemScrapedEvent) error) {
	eh.onItemScraped = handler
}

// OnPriceChanged registers a handler for PriceChanged events
func (eh *EventHandler) OnPriceChanged(handler func(context.Context, *models.PriceChangedEvent) error) {
	eh.onPriceChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeItemScraped:
		if eh.onItemScraped != nil {
			var event models.ItemScrapedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ItemScraped event: %w", err)
			}
			return eh.onItemScraped(ctx, &event)
		}

	case models.EventTypePriceChanged:
		if eh.onPriceChanged != nil {
			var event models.PriceChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PriceChanged event: %w", err)
			}
			return eh.onPriceChanged(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
