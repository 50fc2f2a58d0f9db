package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Retailer types
const (
	RetailerTypeDirect   = "DIRECT_RETAILER"
	RetailerTypeComparer = "PRICE_COMPARER"
)

// Delivery methods for stock availability entries
const (
	DeliveryMethodHome        = "HOME_DELIVERY"
	DeliveryMethodStorePickup = "STORE_PICKUP"
	DeliveryMethodParcelPoint = "PARCEL_POINT"
	DeliveryMethodUnknown     = "UNKNOWN"
)

// Retailer represents a tracked seller or price-comparison site.
// Rows come from seed data; the pipeline never creates retailers.
type Retailer struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	Country   string    `db:"country" json:"country"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Category is a node in the hierarchical category tree. Path is the
// materialized dot-separated chain of ancestor ids ending in the node's
// own id; root nodes have path equal to their own id.
type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ParentID  *int64    `db:"parent_id" json:"parent_id,omitempty"`
	Path      *string   `db:"path" json:"path,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// Depth returns the number of levels from the root, starting at 1.
func (c *Category) Depth() int {
	if c.Path == nil || *c.Path == "" {
		return 0
	}
	depth := 1
	for _, r := range *c.Path {
		if r == '.' {
			depth++
		}
	}
	return depth
}

// Product is the retailer-independent product identity, matched by
// name+brand across retailers.
type Product struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Brand      *string   `db:"brand" json:"brand,omitempty"`
	CategoryID *int64    `db:"category_id" json:"category_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// RetailerProduct is the current snapshot of one product as seen at one
// retailer URL. Unique on (retailer_id, url); re-scrapes upsert this row.
type RetailerProduct struct {
	ID                     int64          `db:"id" json:"id"`
	RetailerID             int64          `db:"retailer_id" json:"retailer_id"`
	URL                    string         `db:"url" json:"url"`
	RetailerSKU            *string        `db:"retailer_sku" json:"retailer_sku,omitempty"`
	Name                   string         `db:"name" json:"name"`
	Brand                  *string        `db:"brand" json:"brand,omitempty"`
	Description            *string        `db:"description" json:"description,omitempty"`
	CategoryPath           *string        `db:"category_path" json:"category_path,omitempty"`
	CategoryID             *int64         `db:"category_id" json:"category_id,omitempty"`
	ProductID              *int64         `db:"product_id" json:"product_id,omitempty"`
	CurrentPrice           *float64       `db:"current_price" json:"current_price,omitempty"`
	Currency               *string        `db:"currency" json:"currency,omitempty"`
	StockInfo              StockInfoList  `db:"stock_info" json:"stock_info"`
	Specifications         SpecMap        `db:"specifications" json:"specifications"`
	Images                 pq.StringArray `db:"images" json:"images"`
	Variants               VariantList    `db:"variants" json:"variants"`
	RetailerMetadata       Metadata       `db:"retailer_metadata" json:"retailer_metadata"`
	IsActive               bool           `db:"is_active" json:"is_active"`
	LastScrapedAt          *time.Time     `db:"last_scraped_at" json:"last_scraped_at,omitempty"`
	LastSuccessfulScrapeAt *time.Time     `db:"last_successful_scrape_at" json:"last_successful_scrape_at,omitempty"`
	ScrapeErrorCount       int            `db:"scrape_error_count" json:"scrape_error_count"`
	LastError              Metadata       `db:"last_error" json:"last_error,omitempty"`
	CreatedAt              time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at" json:"updated_at"`
}

// PricePoint is one immutable time-stamped price/stock observation in the
// price_history table. Never updated after insert.
type PricePoint struct {
	ID                int64         `db:"id" json:"id"`
	RetailerProductID int64         `db:"retailer_product_id" json:"retailer_product_id"`
	Price             *float64      `db:"price" json:"price,omitempty"`
	Currency          *string       `db:"currency" json:"currency,omitempty"`
	StockInfo         StockInfoList `db:"stock_info" json:"stock_info"`
	Offers            OfferList     `db:"offers" json:"offers"`
	ScrapedAt         time.Time     `db:"scraped_at" json:"scraped_at"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
}

// AvailabilityKeyword tracks a retailer's free-text stock-status phrase
// until a human classifies it as in-stock or out-of-stock.
type AvailabilityKeyword struct {
	ID               int64     `db:"id" json:"id"`
	RetailerID       int64     `db:"retailer_id" json:"retailer_id"`
	Keyword          string    `db:"keyword" json:"keyword"`
	Language         *string   `db:"language" json:"language,omitempty"`
	IndicatesInStock *bool     `db:"indicates_in_stock" json:"indicates_in_stock,omitempty"`
	FirstSeenAt      time.Time `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt       time.Time `db:"last_seen_at" json:"last_seen_at"`
	OccurrenceCount  int       `db:"occurrence_count" json:"occurrence_count"`
	IsConfigured     bool      `db:"is_configured" json:"is_configured"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// StockInfoList is a JSONB column holding ordered stock availability
// entries, one per delivery method observed on the page.
type StockInfoList []StockAvailability

func (s StockInfoList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *StockInfoList) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// SpecMap is a JSONB column holding the cleaned specification key/value map.
type SpecMap map[string]string

func (m SpecMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *SpecMap) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// VariantList is a JSONB column holding product variants.
type VariantList []Variant

func (v VariantList) Value() (driver.Value, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

func (v *VariantList) Scan(src interface{}) error {
	return scanJSON(src, v)
}

// OfferList is a JSONB column holding aggregator offers.
type OfferList []Offer

func (o OfferList) Value() (driver.Value, error) {
	if o == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

func (o *OfferList) Scan(src interface{}) error {
	return scanJSON(src, o)
}

// Metadata is a free-form JSONB column (ratings, review counts, error
// payloads and similar retailer-specific extras).
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	return scanJSON(src, m)
}

func scanJSON(src, dst interface{}) error {
	if src == nil {
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, dst)
	case string:
		return json.Unmarshal([]byte(data), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
