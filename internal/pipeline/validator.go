package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"pricewatch/internal/models"
	"pricewatch/internal/util"

	"go.uber.org/zap"
)

var priceCharsRe = regexp.MustCompile(`[^\d,.]`)

// DropError rejects an item before it reaches the store. Field names the
// missing required field.
type DropError struct {
	Field string
}

func (e *DropError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// Validator is the stateless validation and cleaning stage. Every item
// passes through Process before ingestion; sub-field failures are logged
// and skipped, only the required-field check is fatal.
type Validator struct {
	logger *zap.Logger

	itemsProcessed atomic.Int64
	itemsDropped   atomic.Int64
}

// NewValidator creates the validation stage
func NewValidator() *Validator {
	return &Validator{logger: util.GetLogger()}
}

// Process validates and cleans an item in place. A *DropError means the
// item must not be persisted; any other state is cleaned best-effort.
func (v *Validator) Process(item *models.Item) error {
	if err := v.checkRequired(item); err != nil {
		v.itemsDropped.Add(1)
		util.ItemsDroppedTotal.WithLabelValues(err.Field).Inc()
		return err
	}

	item.ProductName = CleanText(item.ProductName)

	if item.Price == nil && item.RawPrice != "" {
		item.Price = ExtractPrice(item.RawPrice)
	}

	if item.Aggregator != nil {
		v.processAggregator(item)
	}

	for i := range item.StockInfo {
		item.StockInfo[i] = v.cleanStockInfo(item.StockInfo[i])
	}

	item.Images = ValidImageURLs(item.Images)
	item.Specs = CleanSpecs(item.Specs)
	item.StockStatus = CleanText(item.StockStatus)

	if item.Timestamp == "" {
		item.Timestamp = time.Now().Format(models.TimestampLayout)
	}

	v.itemsProcessed.Add(1)
	util.ItemsProcessedTotal.Inc()
	return nil
}

// Stats returns the running accepted/rejected totals.
func (v *Validator) Stats() (processed, dropped int64) {
	return v.itemsProcessed.Load(), v.itemsDropped.Load()
}

// Close logs the stage totals at shutdown.
func (v *Validator) Close() {
	processed, dropped := v.Stats()
	v.logger.Info("Validation stage finished",
		zap.Int64("items_processed", processed),
		zap.Int64("items_dropped", dropped))
}

func (v *Validator) checkRequired(item *models.Item) *DropError {
	switch {
	case item.URL == "":
		return &DropError{Field: "url"}
	case item.Website == "":
		return &DropError{Field: "website"}
	case strings.TrimSpace(item.ProductName) == "":
		return &DropError{Field: "product_name"}
	}
	return nil
}

func (v *Validator) processAggregator(item *models.Item) {
	agg := item.Aggregator

	cleaned := make([]models.Variant, 0, len(agg.Variants))
	for _, variant := range agg.Variants {
		cv, err := v.cleanVariant(variant)
		if err != nil {
			v.logger.Warn("Skipping broken variant",
				zap.String("url", item.URL),
				zap.Error(err))
			continue
		}
		cleaned = append(cleaned, cv)
	}
	agg.Variants = cleaned

	for i := range agg.Offers {
		agg.Offers[i] = cleanOffer(agg.Offers[i])
	}

	if agg.SelectedVariant != nil {
		sv, err := v.cleanVariant(*agg.SelectedVariant)
		if err == nil {
			agg.SelectedVariant = &sv
			// Selected variant's offer is the canonical price
			if sv.Offer != nil {
				item.Price = sv.Offer.Price
				item.RawPrice = sv.Offer.RawPrice
				if sv.Offer.StockStatus != "" {
					item.StockStatus = sv.Offer.StockStatus
				}
			}
		} else {
			v.logger.Warn("Skipping broken selected variant",
				zap.String("url", item.URL),
				zap.Error(err))
		}
	}

	agg.Category = CleanText(agg.Category)
	agg.Brand = CleanText(agg.Brand)
}

func (v *Validator) cleanVariant(variant models.Variant) (models.Variant, error) {
	variant.VariantID = CleanText(variant.VariantID)
	variant.SKU = CleanText(variant.SKU)
	variant.Color = CleanText(variant.Color)
	variant.ColorHex = CleanText(variant.ColorHex)
	variant.Storage = CleanText(variant.Storage)

	if variant.VariantID == "" && variant.SKU == "" {
		return variant, fmt.Errorf("variant has neither id nor sku")
	}

	if variant.Offer != nil {
		offer := cleanOffer(*variant.Offer)
		variant.Offer = &offer
	}
	return variant, nil
}

func cleanOffer(offer models.Offer) models.Offer {
	offer.SellerName = CleanText(offer.SellerName)
	offer.SellerURL = CleanText(offer.SellerURL)
	offer.RawPrice = CleanText(offer.RawPrice)
	offer.StockStatus = strings.ToUpper(CleanText(offer.StockStatus))
	if offer.Price == nil && offer.RawPrice != "" {
		offer.Price = ExtractPrice(offer.RawPrice)
	}
	return offer
}

func (v *Validator) cleanStockInfo(info models.StockAvailability) models.StockAvailability {
	info.Status = CleanText(info.Status)
	info.DeliveryMethod = CleanText(info.DeliveryMethod)
	info.DeliveryTime = CleanText(info.DeliveryTime)
	info.AdditionalInfo = CleanText(info.AdditionalInfo)
	if info.DeliveryMethod == "" {
		info.DeliveryMethod = models.DeliveryMethodUnknown
	}
	if info.DeliveryCost == nil && info.RawDeliveryCost != "" {
		info.DeliveryCost = ExtractPrice(info.RawDeliveryCost)
	}
	if info.StoreCount == nil && info.RawStoreCount != "" {
		info.StoreCount = ParseStoreCount(info.RawStoreCount)
	}
	info.RawDeliveryCost = ""
	info.RawStoreCount = ""
	return info
}

// CleanText collapses internal whitespace runs to single spaces and trims.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ExtractPrice parses a numeric price out of free text. A decimal comma
// marks the Central-European format where dots separate thousands:
// "123.456,78 Kč" parses to 123456.78. Unparsable text yields nil.
func ExtractPrice(raw string) *float64 {
	if raw == "" {
		return nil
	}

	s := strings.ReplaceAll(raw, " ", "")
	s = priceCharsRe.ReplaceAllString(s, "")
	if s == "" {
		return nil
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &price
}

// ParseStoreCount coerces a store-count string to an integer; nil when it
// isn't one.
func ParseStoreCount(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &n
}

// ValidImageURLs keeps only non-empty http(s) URLs, trimmed, in order.
func ValidImageURLs(urls []string) []string {
	if len(urls) == 0 {
		return urls
	}
	valid := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
			valid = append(valid, u)
		}
	}
	return valid
}

// CleanSpecs cleans every key/value pair, dropping pairs where either
// side ends up empty.
func CleanSpecs(specs map[string]string) map[string]string {
	if len(specs) == 0 {
		return specs
	}
	cleaned := make(map[string]string, len(specs))
	for k, v := range specs {
		ck := CleanText(k)
		cv := CleanText(v)
		if ck != "" && cv != "" {
			cleaned[ck] = cv
		}
	}
	return cleaned
}
