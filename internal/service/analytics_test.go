package service

import (
	"testing"
	"time"

	"pricewatch/internal/models"
	"pricewatch/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pricePoints(prices ...*float64) []models.PricePoint {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, 0, len(prices))
	for i, p := range prices {
		points = append(points, models.PricePoint{
			Price:     p,
			ScrapedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		})
	}
	return points
}

func price(v float64) *float64 {
	return &v
}

func TestDetectPriceChanges(t *testing.T) {
	points := pricePoints(price(100), price(100), price(106), price(106), price(90))

	changes := DetectPriceChanges(points, 5.0)

	require.Len(t, changes, 2)
	assert.Equal(t, 100.0, changes[0].OldPrice)
	assert.Equal(t, 106.0, changes[0].NewPrice)
	assert.Equal(t, 106.0, changes[1].OldPrice)
	assert.Equal(t, 90.0, changes[1].NewPrice)
}

func TestDetectPriceChangesSkipsNilPrices(t *testing.T) {
	points := pricePoints(price(100), nil, nil, price(110))

	changes := DetectPriceChanges(points, 5.0)

	require.Len(t, changes, 1)
	assert.Equal(t, 100.0, changes[0].OldPrice)
	assert.Equal(t, 110.0, changes[0].NewPrice)
}

func TestDetectPriceChangesBelowThreshold(t *testing.T) {
	points := pricePoints(price(100), price(104), price(100))

	changes := DetectPriceChanges(points, 5.0)
	assert.Empty(t, changes)
}

func TestDetectPriceChangesDefaultThreshold(t *testing.T) {
	points := pricePoints(price(100), price(106))

	changes := DetectPriceChanges(points, 0)
	assert.Len(t, changes, 1)
}

func TestDetectPriceChangesIgnoresZeroBase(t *testing.T) {
	points := pricePoints(price(0), price(50))

	changes := DetectPriceChanges(points, 5.0)
	assert.Empty(t, changes)
}

func TestGroupLatestByRetailer(t *testing.T) {
	now := time.Now()
	// Newest first, as the store returns them
	points := []store.CompetitorPricePoint{
		{RetailerID: 1, Price: price(100), ScrapedAt: now},
		{RetailerID: 2, Price: nil, ScrapedAt: now.Add(-time.Hour)},
		{RetailerID: 1, Price: price(95), ScrapedAt: now.Add(-2 * time.Hour)},
		{RetailerID: 2, Price: price(110), ScrapedAt: now.Add(-3 * time.Hour)},
	}

	latest := GroupLatestByRetailer(points)

	require.Len(t, latest, 2)
	assert.Equal(t, int64(1), latest[0].RetailerID)
	assert.Equal(t, 100.0, latest[0].Price)
	assert.Equal(t, int64(2), latest[1].RetailerID)
	assert.Equal(t, 110.0, latest[1].Price)
}

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, 0.0, SuccessRate(0, 0))
	assert.Equal(t, 1.0, SuccessRate(10, 0))
	assert.Equal(t, 0.8, SuccessRate(10, 2))
	assert.Equal(t, 0.0, SuccessRate(5, 5))
}
