package pipeline

import (
	"testing"

	"pricewatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessRejectsMissingRequiredFields(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name  string
		item  *models.Item
		field string
	}{
		{"missing url", &models.Item{Website: "datart", ProductName: "TV"}, "url"},
		{"missing website", &models.Item{URL: "https://x/p/1", ProductName: "TV"}, "website"},
		{"missing name", &models.Item{URL: "https://x/p/1", Website: "datart"}, "product_name"},
		{"whitespace name", &models.Item{URL: "https://x/p/1", Website: "datart", ProductName: "   "}, "product_name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Process(tc.item)
			require.Error(t, err)

			var dropErr *DropError
			require.ErrorAs(t, err, &dropErr)
			assert.Equal(t, tc.field, dropErr.Field)
		})
	}

	processed, dropped := v.Stats()
	assert.Equal(t, int64(0), processed)
	assert.Equal(t, int64(4), dropped)
}

func TestProcessToleratesGarbageOptionalFields(t *testing.T) {
	v := NewValidator()

	item := &models.Item{
		URL:         "https://x/p/1",
		Website:     "datart",
		ProductName: "  Samsung   Galaxy  S24  ",
		RawPrice:    "not a price at all",
		Images:      []string{"", "  https://x/img.jpg ", "javascript:void(0)"},
		Specs:       map[string]string{" brand ": " Samsung ", "empty": "   "},
	}

	err := v.Process(item)
	require.NoError(t, err)

	assert.Equal(t, "Samsung Galaxy S24", item.ProductName)
	assert.Nil(t, item.Price)
	assert.Equal(t, []string{"https://x/img.jpg"}, item.Images)
	assert.Equal(t, map[string]string{"brand": "Samsung"}, item.Specs)
	assert.NotEmpty(t, item.Timestamp)
}

func TestProcessParsesPriceFromRawText(t *testing.T) {
	v := NewValidator()

	item := &models.Item{
		URL:         "https://x/p/1",
		Website:     "datart",
		ProductName: "TV",
		RawPrice:    "24 990 Kč",
	}

	require.NoError(t, v.Process(item))
	require.NotNil(t, item.Price)
	assert.Equal(t, 24990.0, *item.Price)
}

func TestProcessPropagatesSelectedVariantPrice(t *testing.T) {
	v := NewValidator()

	item := &models.Item{
		URL:         "https://zbozi.cz/p/1",
		Website:     "zbozi",
		ProductName: "Phone",
		Aggregator: &models.AggregatorData{
			SelectedVariant: &models.Variant{
				SKU: "SKU-1",
				Offer: &models.Offer{
					RawPrice:    "1 299,50 Kč",
					StockStatus: "in stock",
				},
			},
		},
	}

	require.NoError(t, v.Process(item))
	require.NotNil(t, item.Price)
	assert.Equal(t, 1299.50, *item.Price)
	assert.Equal(t, "IN STOCK", item.StockStatus)
}

func TestProcessSkipsVariantsWithoutIdentifier(t *testing.T) {
	v := NewValidator()

	item := &models.Item{
		URL:         "https://zbozi.cz/p/1",
		Website:     "zbozi",
		ProductName: "Phone",
		Aggregator: &models.AggregatorData{
			Variants: []models.Variant{
				{Color: "black"},
				{SKU: "SKU-2", Color: " blue "},
			},
		},
	}

	require.NoError(t, v.Process(item))
	require.Len(t, item.Aggregator.Variants, 1)
	assert.Equal(t, "SKU-2", item.Aggregator.Variants[0].SKU)
	assert.Equal(t, "blue", item.Aggregator.Variants[0].Color)
}

func TestProcessCleansStockInfo(t *testing.T) {
	v := NewValidator()

	item := &models.Item{
		URL:         "https://x/p/1",
		Website:     "datart",
		ProductName: "TV",
		StockInfo: []models.StockAvailability{
			{
				Status:          "  Skladem  ",
				RawDeliveryCost: "99 Kč",
				RawStoreCount:   " 12 ",
			},
		},
	}

	require.NoError(t, v.Process(item))
	require.Len(t, item.StockInfo, 1)

	info := item.StockInfo[0]
	assert.Equal(t, "Skladem", info.Status)
	assert.Equal(t, models.DeliveryMethodUnknown, info.DeliveryMethod)
	require.NotNil(t, info.DeliveryCost)
	assert.Equal(t, 99.0, *info.DeliveryCost)
	require.NotNil(t, info.StoreCount)
	assert.Equal(t, 12, *info.StoreCount)
	assert.Empty(t, info.RawDeliveryCost)
	assert.Empty(t, info.RawStoreCount)
}

func TestExtractPrice(t *testing.T) {
	cases := []struct {
		raw  string
		want *float64
	}{
		{"24 990 Kč", f(24990)},
		{"123.456,78 Kč", f(123456.78)},
		{"1 299,50", f(1299.50)},
		{"899.99", f(899.99)},
		{"€1,99", f(1.99)},
		{"zdarma", nil},
		{"abc", nil},
		{"", nil},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got := ExtractPrice(tc.raw)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func TestParseStoreCount(t *testing.T) {
	got := ParseStoreCount(" 7 ")
	require.NotNil(t, got)
	assert.Equal(t, 7, *got)

	assert.Nil(t, ParseStoreCount("many"))
	assert.Nil(t, ParseStoreCount(""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", CleanText("  a \t b\n c "))
	assert.Equal(t, "", CleanText("   "))
}

func f(v float64) *float64 {
	return &v
}
