package models

import "time"

// TimestampLayout is the wire format for item timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// StockAvailability is one stock/delivery observation from a product page.
// Embedded in items and in the stock_info JSONB columns.
type StockAvailability struct {
	Status               string   `json:"status,omitempty"`
	DeliveryMethod       string   `json:"delivery_method,omitempty"`
	DeliveryTime         string   `json:"delivery_time,omitempty"`
	DeliveryCost         *float64 `json:"delivery_cost,omitempty"`
	DeliveryCostCurrency string   `json:"delivery_cost_currency,omitempty"`
	StoreCount           *int     `json:"store_count,omitempty"`
	AdditionalInfo       string   `json:"additional_info,omitempty"`

	// Raw extracted text, parsed into the typed fields by the cleaning
	// stage and not persisted.
	RawDeliveryCost string `json:"raw_delivery_cost,omitempty"`
	RawStoreCount   string `json:"raw_store_count,omitempty"`
}

// Offer is a single seller offer on an aggregator site.
type Offer struct {
	SellerName    string   `json:"seller_name,omitempty"`
	SellerURL     string   `json:"seller_url,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	RawPrice      string   `json:"raw_price,omitempty"`
	StockStatus   string   `json:"stock_status,omitempty"`
	DeliveryPrice *float64 `json:"delivery_price,omitempty"`
	TotalPrice    *float64 `json:"total_price,omitempty"`
}

// Variant is a product variant (color, storage, ...) with its offer.
type Variant struct {
	VariantID string `json:"variant_id,omitempty"`
	SKU       string `json:"sku,omitempty"`
	Color     string `json:"color,omitempty"`
	ColorHex  string `json:"color_hex,omitempty"`
	Storage   string `json:"storage,omitempty"`
	Offer     *Offer `json:"offer,omitempty"`
}

// AggregatorData carries the fields only price-comparison sites produce.
// Composed into Item rather than subclassed so plain retailer items never
// grow phantom fields.
type AggregatorData struct {
	Offers          []Offer   `json:"offers,omitempty"`
	Variants        []Variant `json:"variants,omitempty"`
	SelectedVariant *Variant  `json:"selected_variant,omitempty"`
	Category        string    `json:"category,omitempty"`
	Brand           string    `json:"brand,omitempty"`
	Rating          *float64  `json:"rating,omitempty"`
	ReviewCount     *int      `json:"review_count,omitempty"`
}

// Item is the output of one scrape attempt, success or failure. Site
// adapters produce it; the pipeline validates, cleans and persists it.
type Item struct {
	URL         string              `json:"url"`
	Website     string              `json:"website"`
	ProductName string              `json:"product_name"`
	RawPrice    string              `json:"raw_price,omitempty"`
	Price       *float64            `json:"price,omitempty"`
	Currency    string              `json:"currency,omitempty"`
	StockStatus string              `json:"stock_status,omitempty"`
	StockInfo   []StockAvailability `json:"stock_info,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Success     bool                `json:"success"`

	ProductID string                 `json:"product_id,omitempty"`
	Specs     map[string]string      `json:"specs,omitempty"`
	Images    []string               `json:"images,omitempty"`
	ErrorInfo map[string]interface{} `json:"error_info,omitempty"`

	Aggregator *AggregatorData `json:"aggregator,omitempty"`
}

// NewItem creates an empty item for a URL, marked as failed until the
// producer explicitly marks it successful.
func NewItem(url, website string) *Item {
	return &Item{
		URL:       url,
		Website:   website,
		Timestamp: time.Now().Format(TimestampLayout),
		Success:   false,
	}
}

// MarkSuccess flags the item as successfully scraped.
func (i *Item) MarkSuccess() *Item {
	i.Success = true
	return i
}

// MarkFailure flags the item as failed.
func (i *Item) MarkFailure() *Item {
	i.Success = false
	return i
}

// AddStockInfo appends one stock availability observation.
func (i *Item) AddStockInfo(info StockAvailability) *Item {
	i.StockInfo = append(i.StockInfo, info)
	return i
}

// SelectVariant records the selected variant and propagates its offer
// price, raw price and stock status into the top-level item fields, so
// downstream stages see one canonical price regardless of source shape.
func (i *Item) SelectVariant(v Variant) *Item {
	if i.Aggregator == nil {
		i.Aggregator = &AggregatorData{}
	}
	i.Aggregator.SelectedVariant = &v
	if v.Offer != nil {
		i.Price = v.Offer.Price
		i.RawPrice = v.Offer.RawPrice
		if v.Offer.StockStatus != "" {
			i.StockStatus = v.Offer.StockStatus
		}
	}
	return i
}

// GetBrand returns the item brand, falling back to the specs map.
func (i *Item) GetBrand() string {
	if i.Aggregator != nil && i.Aggregator.Brand != "" {
		return i.Aggregator.Brand
	}
	return i.Specs["brand"]
}

// CategoryPath returns the raw category breadcrumb, if any.
func (i *Item) CategoryPath() string {
	if i.Aggregator != nil {
		return i.Aggregator.Category
	}
	return ""
}

// ScrapedAt parses the item timestamp, falling back to now.
func (i *Item) ScrapedAt() time.Time {
	if i.Timestamp == "" {
		return time.Now()
	}
	if ts, err := time.Parse(TimestampLayout, i.Timestamp); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, i.Timestamp); err == nil {
		return ts
	}
	return time.Now()
}

// HasPriceData reports whether the item carries anything worth a history
// point.
func (i *Item) HasPriceData() bool {
	return i.Price != nil || len(i.StockInfo) > 0
}

// NewRetailerProduct builds the current-snapshot record from a validated
// item. Scrape bookkeeping fields are stamped here so the upsert carries
// them in one write.
func NewRetailerProduct(item *Item, retailerID int64) *RetailerProduct {
	now := time.Now()

	rp := &RetailerProduct{
		RetailerID:     retailerID,
		URL:            item.URL,
		Name:           item.ProductName,
		CurrentPrice:   item.Price,
		StockInfo:      StockInfoList(item.StockInfo),
		Specifications: SpecMap(item.Specs),
		Images:         item.Images,
		IsActive:       true,
		LastScrapedAt:  &now,
	}
	if item.ProductID != "" {
		rp.RetailerSKU = &item.ProductID
	}
	if item.Currency != "" {
		rp.Currency = &item.Currency
	}
	if brand := item.GetBrand(); brand != "" {
		rp.Brand = &brand
	}
	if desc := item.Specs["description"]; desc != "" {
		rp.Description = &desc
	}
	if path := item.CategoryPath(); path != "" {
		rp.CategoryPath = &path
	}
	if item.Success {
		rp.LastSuccessfulScrapeAt = &now
	} else {
		rp.ScrapeErrorCount = 1
		if item.ErrorInfo != nil {
			rp.LastError = Metadata(item.ErrorInfo)
		}
	}
	if item.Aggregator != nil {
		rp.Variants = VariantList(item.Aggregator.Variants)
		meta := Metadata{}
		if item.Aggregator.Rating != nil {
			meta["rating"] = *item.Aggregator.Rating
		}
		if item.Aggregator.ReviewCount != nil {
			meta["review_count"] = *item.Aggregator.ReviewCount
		}
		if len(item.Aggregator.Offers) > 0 {
			meta["offers"] = item.Aggregator.Offers
		}
		rp.RetailerMetadata = meta
	}
	return rp
}

// NewPricePoint builds the history record for one scrape event.
func NewPricePoint(item *Item, retailerProductID int64) *PricePoint {
	pp := &PricePoint{
		RetailerProductID: retailerProductID,
		Price:             item.Price,
		StockInfo:         StockInfoList(item.StockInfo),
		ScrapedAt:         item.ScrapedAt(),
	}
	if item.Currency != "" {
		pp.Currency = &item.Currency
	}
	if item.Aggregator != nil {
		pp.Offers = OfferList(item.Aggregator.Offers)
	}
	return pp
}
