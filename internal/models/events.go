package models

import "time"

// Event types
const (
	EventTypeItemScraped  = "ITEM_SCRAPED"
	EventTypeItemIngested = "ITEM_INGESTED"
	EventTypePriceChanged = "PRICE_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ItemScrapedEvent is what site adapters publish on the intake topic,
// one per scraped page
type ItemScrapedEvent struct {
	BaseEvent
	Retailer string `json:"retailer"`
	Item     *Item  `json:"item"`
}

// ItemIngestedEvent published after an item is persisted
type ItemIngestedEvent struct {
	BaseEvent
	RetailerID        int64  `json:"retailer_id"`
	RetailerProductID int64  `json:"retailer_product_id"`
	URL               string `json:"url"`
	Success           bool   `json:"success"`
}

// PriceChangedEvent published when an upsert moves a product's price past
// the configured threshold
type PriceChangedEvent struct {
	BaseEvent
	RetailerID        int64   `json:"retailer_id"`
	RetailerProductID int64   `json:"retailer_product_id"`
	URL               string  `json:"url"`
	Name              string  `json:"name"`
	OldPrice          float64 `json:"old_price"`
	NewPrice          float64 `json:"new_price"`
	ChangePercent     float64 `json:"change_percent"`
	Currency          *string `json:"currency,omitempty"`
}
