package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"pricewatch/internal/broker"
	"pricewatch/internal/models"
	"pricewatch/internal/store"
	"pricewatch/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestService orchestrates persisting one validated item: keyword
// tracking, product identity, category linking, snapshot upsert and the
// history append.
type IngestService struct {
	store            *store.Store
	categoryResolver *CategoryResolver
	eventPublisher   *broker.EventPublisher
	logger           *zap.Logger

	priceChangeThreshold float64
}

// NewIngestService creates the ingestion service
func NewIngestService(
	st *store.Store,
	categoryResolver *CategoryResolver,
	eventPublisher *broker.EventPublisher,
	priceChangeThreshold float64,
) *IngestService {
	return &IngestService{
		store:                st,
		categoryResolver:     categoryResolver,
		eventPublisher:       eventPublisher,
		logger:               util.GetLogger(),
		priceChangeThreshold: priceChangeThreshold,
	}
}

// ProcessItem runs the fixed ingestion sequence for one validated item.
// Keyword tracking, identity resolution and category linking are
// best-effort; a failure persisting the snapshot or the price point marks
// this single item failed and never propagates past it.
func (is *IngestService) ProcessItem(ctx context.Context, item *models.Item, retailerID int64) (*models.RetailerProduct, error) {
	ctx, span := util.StartSpan(ctx, "IngestService.ProcessItem")
	defer span.End()

	start := time.Now()
	defer func() {
		util.IngestLatency.Observe(time.Since(start).Seconds())
	}()

	rp := models.NewRetailerProduct(item, retailerID)

	if item.StockStatus != "" {
		is.trackKeyword(ctx, retailerID, item.StockStatus)
	}

	if product := is.resolveIdentity(ctx, item); product != nil {
		rp.ProductID = &product.ID

		if path := item.CategoryPath(); path != "" {
			if category := is.resolveCategory(ctx, path); category != nil {
				rp.CategoryID = &category.ID
				if err := is.store.UpdateProductCategory(ctx, product.ID, &category.ID); err != nil {
					is.logger.Warn("Failed to link product to category",
						zap.Int64("product_id", product.ID),
						zap.Int64("category_id", category.ID),
						zap.Error(err))
				}
			}
		}
	} else if path := item.CategoryPath(); path != "" {
		if category := is.resolveCategory(ctx, path); category != nil {
			rp.CategoryID = &category.ID
		}
	}

	previous, err := is.store.GetRetailerProductByURL(ctx, retailerID, item.URL)
	if err != nil {
		is.logger.Warn("Failed to read previous snapshot",
			zap.String("url", item.URL),
			zap.Error(err))
		previous = nil
	}

	saved, err := is.store.UpsertRetailerProduct(ctx, rp)
	if err != nil {
		util.IngestFailedTotal.WithLabelValues("upsert").Inc()
		is.logger.Error("Failed to persist retailer product",
			zap.Int64("retailer_id", retailerID),
			zap.String("url", item.URL),
			zap.Error(err))
		return nil, fmt.Errorf("failed to persist item %s: %w", item.URL, err)
	}

	if item.HasPriceData() {
		pp := models.NewPricePoint(item, saved.ID)
		if err := is.store.CreatePricePoint(ctx, pp); err != nil {
			util.IngestFailedTotal.WithLabelValues("price_point").Inc()
			is.logger.Error("Failed to append price point",
				zap.Int64("retailer_product_id", saved.ID),
				zap.String("url", item.URL),
				zap.Error(err))
			return saved, fmt.Errorf("failed to append price point for %s: %w", item.URL, err)
		}
		util.PricePointsCreatedTotal.Inc()
	}

	util.ItemsIngestedTotal.Inc()
	is.publishPriceChange(ctx, previous, saved)

	return saved, nil
}

// trackKeyword records a sighting of a free-text stock status. Failures
// are logged and swallowed; keyword tracking must never abort ingestion.
func (is *IngestService) trackKeyword(ctx context.Context, retailerID int64, status string) {
	if _, err := is.store.RecordKeywordSighting(ctx, retailerID, status, nil); err != nil {
		util.IngestFailedTotal.WithLabelValues("keyword").Inc()
		is.logger.Warn("Failed to record availability keyword",
			zap.Int64("retailer_id", retailerID),
			zap.String("keyword", status),
			zap.Error(err))
		return
	}
	util.KeywordSightingsTotal.Inc()
}

// resolveIdentity finds or creates the retailer-independent product
// matched by name+brand. Best-effort: nil on any failure.
func (is *IngestService) resolveIdentity(ctx context.Context, item *models.Item) *models.Product {
	var brand *string
	if b := item.GetBrand(); b != "" {
		brand = &b
	}

	product, err := is.store.GetProductByNameAndBrand(ctx, item.ProductName, brand)
	if err != nil {
		util.IngestFailedTotal.WithLabelValues("identity").Inc()
		is.logger.Warn("Failed to look up product identity",
			zap.String("name", item.ProductName),
			zap.Error(err))
		return nil
	}
	if product != nil {
		return product
	}

	product = &models.Product{Name: item.ProductName, Brand: brand}
	if err := is.store.CreateProduct(ctx, product); err != nil {
		util.IngestFailedTotal.WithLabelValues("identity").Inc()
		is.logger.Warn("Failed to create product identity",
			zap.String("name", item.ProductName),
			zap.Error(err))
		return nil
	}
	return product
}

// resolveCategory resolves a raw breadcrumb best-effort: nil on failure.
func (is *IngestService) resolveCategory(ctx context.Context, rawPath string) *models.Category {
	category, err := is.categoryResolver.ResolveOrCreate(ctx, rawPath)
	if err != nil {
		util.IngestFailedTotal.WithLabelValues("category").Inc()
		is.logger.Warn("Failed to resolve category path",
			zap.String("category_path", rawPath),
			zap.Error(err))
		return nil
	}
	return category
}

// publishPriceChange emits a PriceChanged event when the upsert moved the
// price past the threshold. Publishing is best-effort.
func (is *IngestService) publishPriceChange(ctx context.Context, previous, saved *models.RetailerProduct) {
	if is.eventPublisher == nil || previous == nil || saved == nil {
		return
	}
	if previous.CurrentPrice == nil || saved.CurrentPrice == nil || *previous.CurrentPrice == 0 {
		return
	}

	oldPrice := *previous.CurrentPrice
	newPrice := *saved.CurrentPrice
	changePercent := math.Abs(newPrice-oldPrice) / oldPrice * 100
	if changePercent < is.priceChangeThreshold {
		return
	}

	event := &models.PriceChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePriceChanged,
			Timestamp: time.Now(),
		},
		RetailerID:        saved.RetailerID,
		RetailerProductID: saved.ID,
		URL:               saved.URL,
		Name:              saved.Name,
		OldPrice:          oldPrice,
		NewPrice:          newPrice,
		ChangePercent:     changePercent,
		Currency:          saved.Currency,
	}

	if err := is.eventPublisher.PublishPriceChanged(ctx, event); err != nil {
		is.logger.Error("Failed to publish PriceChanged event",
			zap.Int64("retailer_product_id", saved.ID),
			zap.Error(err))
		return
	}
	util.PriceChangesDetectedTotal.Inc()
}
