package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 {
	return &v
}

func TestNewItemStartsFailed(t *testing.T) {
	item := NewItem("https://x/p/1", "datart")

	assert.False(t, item.Success)
	assert.NotEmpty(t, item.Timestamp)

	item.MarkSuccess()
	assert.True(t, item.Success)
}

func TestSelectVariantPropagatesOffer(t *testing.T) {
	item := NewItem("https://zbozi.cz/p/1", "zbozi")

	item.SelectVariant(Variant{
		SKU: "SKU-1",
		Offer: &Offer{
			Price:       price(1299.50),
			RawPrice:    "1 299,50 Kč",
			StockStatus: "IN_STOCK",
		},
	})

	require.NotNil(t, item.Price)
	assert.Equal(t, 1299.50, *item.Price)
	assert.Equal(t, "1 299,50 Kč", item.RawPrice)
	assert.Equal(t, "IN_STOCK", item.StockStatus)
	require.NotNil(t, item.Aggregator)
	require.NotNil(t, item.Aggregator.SelectedVariant)
	assert.Equal(t, "SKU-1", item.Aggregator.SelectedVariant.SKU)
}

func TestGetBrandFallsBackToSpecs(t *testing.T) {
	item := NewItem("https://x/p/1", "datart")
	assert.Empty(t, item.GetBrand())

	item.Specs = map[string]string{"brand": "Samsung"}
	assert.Equal(t, "Samsung", item.GetBrand())

	item.Aggregator = &AggregatorData{Brand: "Sony"}
	assert.Equal(t, "Sony", item.GetBrand())
}

func TestScrapedAtParsesKnownLayouts(t *testing.T) {
	item := &Item{Timestamp: "2026-08-15 09:30:00"}
	assert.Equal(t, time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC), item.ScrapedAt())

	item = &Item{Timestamp: "2026-08-15T09:30:00Z"}
	assert.Equal(t, time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC), item.ScrapedAt())

	item = &Item{Timestamp: "garbage"}
	assert.WithinDuration(t, time.Now(), item.ScrapedAt(), time.Minute)
}

func TestHasPriceData(t *testing.T) {
	item := NewItem("https://x/p/1", "datart")
	assert.False(t, item.HasPriceData())

	item.AddStockInfo(StockAvailability{Status: "Skladem"})
	assert.True(t, item.HasPriceData())

	item = NewItem("https://x/p/2", "datart")
	item.Price = price(100)
	assert.True(t, item.HasPriceData())
}

func TestNewRetailerProductFromSuccessfulItem(t *testing.T) {
	item := NewItem("https://x/p/1", "datart").MarkSuccess()
	item.ProductName = "Samsung Galaxy S24"
	item.ProductID = "SGS24-128"
	item.Price = price(24990)
	item.Currency = "CZK"
	item.Specs = map[string]string{"brand": "Samsung", "description": "Flagship phone"}
	item.Aggregator = &AggregatorData{
		Category:    "Electronics > Phones",
		Rating:      price(4.5),
		ReviewCount: intPtr(321),
	}

	rp := NewRetailerProduct(item, 7)

	assert.Equal(t, int64(7), rp.RetailerID)
	assert.Equal(t, "https://x/p/1", rp.URL)
	assert.Equal(t, "Samsung Galaxy S24", rp.Name)
	require.NotNil(t, rp.CurrentPrice)
	assert.Equal(t, 24990.0, *rp.CurrentPrice)
	require.NotNil(t, rp.RetailerSKU)
	assert.Equal(t, "SGS24-128", *rp.RetailerSKU)
	require.NotNil(t, rp.Brand)
	assert.Equal(t, "Samsung", *rp.Brand)
	require.NotNil(t, rp.Description)
	assert.Equal(t, "Flagship phone", *rp.Description)
	require.NotNil(t, rp.CategoryPath)
	assert.Equal(t, "Electronics > Phones", *rp.CategoryPath)
	assert.True(t, rp.IsActive)
	assert.NotNil(t, rp.LastScrapedAt)
	assert.NotNil(t, rp.LastSuccessfulScrapeAt)
	assert.Equal(t, 0, rp.ScrapeErrorCount)
	assert.Equal(t, 4.5, rp.RetailerMetadata["rating"])
	assert.Equal(t, 321, rp.RetailerMetadata["review_count"])
}

func TestNewRetailerProductFromFailedItem(t *testing.T) {
	item := NewItem("https://x/p/1", "datart")
	item.ProductName = "TV"
	item.ErrorInfo = map[string]interface{}{"error": "timeout"}

	rp := NewRetailerProduct(item, 7)

	assert.Nil(t, rp.LastSuccessfulScrapeAt)
	assert.NotNil(t, rp.LastScrapedAt)
	assert.Equal(t, 1, rp.ScrapeErrorCount)
	assert.Equal(t, "timeout", rp.LastError["error"])
}

func TestNewPricePoint(t *testing.T) {
	item := NewItem("https://x/p/1", "datart").MarkSuccess()
	item.Price = price(24990)
	item.Currency = "CZK"
	item.Timestamp = "2026-08-15 09:30:00"
	item.AddStockInfo(StockAvailability{Status: "Skladem"})

	pp := NewPricePoint(item, 42)

	assert.Equal(t, int64(42), pp.RetailerProductID)
	require.NotNil(t, pp.Price)
	assert.Equal(t, 24990.0, *pp.Price)
	require.NotNil(t, pp.Currency)
	assert.Equal(t, "CZK", *pp.Currency)
	assert.Equal(t, time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC), pp.ScrapedAt)
	assert.Len(t, pp.StockInfo, 1)
}

func intPtr(v int) *int {
	return &v
}
