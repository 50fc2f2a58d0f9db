package service

import (
	"context"
	"math"
	"time"

	"pricewatch/internal/models"
	"pricewatch/internal/store"
	"pricewatch/internal/util"

	"go.uber.org/zap"
)

// DefaultPriceChangeThreshold is the percent move considered significant.
const DefaultPriceChangeThreshold = 5.0

// PriceChange is one significant move in a product's price series.
type PriceChange struct {
	Timestamp time.Time `json:"timestamp"`
	OldPrice  float64   `json:"old_price"`
	NewPrice  float64   `json:"new_price"`
}

// CompetitorPrice is the latest observed price at one retailer.
type CompetitorPrice struct {
	RetailerID int64     `json:"retailer_id"`
	Price      float64   `json:"price"`
	Currency   *string   `json:"currency,omitempty"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// ScrapeFailure describes one recent failed scrape.
type ScrapeFailure struct {
	URL       string          `json:"url"`
	Error     models.Metadata `json:"error,omitempty"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
}

// RetailerPerformance summarizes scraping health over a trailing window.
type RetailerPerformance struct {
	RetailerID     int64           `json:"retailer_id"`
	WindowDays     int             `json:"window_days"`
	TotalScrapes   int             `json:"total_scrapes"`
	FailedScrapes  int             `json:"failed_scrapes"`
	SuccessRate    float64         `json:"success_rate"`
	RecentFailures []ScrapeFailure `json:"recent_failures"`
}

// PriceAnalytics is the aggregate read model for one retailer product.
type PriceAnalytics struct {
	CurrentPrice     *float64            `json:"current_price,omitempty"`
	MinPrice         *float64            `json:"min_price,omitempty"`
	MaxPrice         *float64            `json:"max_price,omitempty"`
	AvgPrice         *float64            `json:"avg_price,omitempty"`
	History          []models.PricePoint `json:"price_history"`
	SignificantMoves []PriceChange       `json:"significant_changes"`
}

// AnalyticsService exposes the read-only derived operations over the
// persisted price data.
type AnalyticsService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewAnalyticsService creates the analytics service
func NewAnalyticsService(st *store.Store) *AnalyticsService {
	return &AnalyticsService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// GetPriceHistory returns observations with a price within the trailing
// window, oldest first.
func (as *AnalyticsService) GetPriceHistory(ctx context.Context, retailerProductID int64, days int) ([]models.PricePoint, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.GetPriceHistory")
	defer span.End()

	points, err := as.store.GetPriceHistory(ctx, retailerProductID, days)
	if err != nil {
		return nil, err
	}

	priced := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Price != nil {
			priced = append(priced, p)
		}
	}
	return priced, nil
}

// GetPriceChanges returns significant moves in the trailing window.
func (as *AnalyticsService) GetPriceChanges(ctx context.Context, retailerProductID int64, days int, thresholdPercent float64) ([]PriceChange, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.GetPriceChanges")
	defer span.End()

	points, err := as.store.GetPriceHistory(ctx, retailerProductID, days)
	if err != nil {
		return nil, err
	}
	return DetectPriceChanges(points, thresholdPercent), nil
}

// DetectPriceChanges walks a chronological price series pairwise and
// emits every move of at least thresholdPercent. Nil prices are skipped,
// never treated as zero.
func DetectPriceChanges(points []models.PricePoint, thresholdPercent float64) []PriceChange {
	if thresholdPercent <= 0 {
		thresholdPercent = DefaultPriceChangeThreshold
	}

	changes := []PriceChange{}
	var lastPrice *float64

	for _, p := range points {
		if p.Price == nil {
			continue
		}
		if lastPrice != nil && *lastPrice != 0 {
			changePercent := math.Abs(*p.Price-*lastPrice) / *lastPrice * 100
			if changePercent >= thresholdPercent {
				changes = append(changes, PriceChange{
					Timestamp: p.ScrapedAt,
					OldPrice:  *lastPrice,
					NewPrice:  *p.Price,
				})
			}
		}
		lastPrice = p.Price
	}
	return changes
}

// GetCompetitorPrices returns the most recent price per retailer for one
// product identity.
func (as *AnalyticsService) GetCompetitorPrices(ctx context.Context, productID int64, days int) ([]CompetitorPrice, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.GetCompetitorPrices")
	defer span.End()

	points, err := as.store.GetCompetitorPricePoints(ctx, productID, days)
	if err != nil {
		return nil, err
	}
	return GroupLatestByRetailer(points), nil
}

// GroupLatestByRetailer keeps the first priced observation per retailer
// from a newest-first series.
func GroupLatestByRetailer(points []store.CompetitorPricePoint) []CompetitorPrice {
	seen := make(map[int64]bool)
	latest := []CompetitorPrice{}

	for _, p := range points {
		if p.Price == nil || seen[p.RetailerID] {
			continue
		}
		seen[p.RetailerID] = true
		latest = append(latest, CompetitorPrice{
			RetailerID: p.RetailerID,
			Price:      *p.Price,
			Currency:   p.Currency,
			ScrapedAt:  p.ScrapedAt,
		})
	}
	return latest
}

// GetRetailerPerformance computes the scrape success rate over a trailing
// window plus the most recent failures.
func (as *AnalyticsService) GetRetailerPerformance(ctx context.Context, retailerID int64, days int) (*RetailerPerformance, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.GetRetailerPerformance")
	defer span.End()

	total, err := as.store.CountScrapedRetailerProducts(ctx, retailerID, days)
	if err != nil {
		return nil, err
	}

	failed, err := as.store.GetFailedRetailerProducts(ctx, retailerID, days)
	if err != nil {
		return nil, err
	}

	recent := failed
	if len(recent) > 5 {
		recent = recent[:5]
	}
	failures := make([]ScrapeFailure, 0, len(recent))
	for _, rp := range recent {
		failures = append(failures, ScrapeFailure{
			URL:       rp.URL,
			Error:     rp.LastError,
			Timestamp: rp.LastScrapedAt,
		})
	}

	return &RetailerPerformance{
		RetailerID:     retailerID,
		WindowDays:     days,
		TotalScrapes:   total,
		FailedScrapes:  len(failed),
		SuccessRate:    SuccessRate(total, len(failed)),
		RecentFailures: failures,
	}, nil
}

// SuccessRate computes (total-failed)/total, 0 for an empty window.
func SuccessRate(total, failed int) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-failed) / float64(total)
}

// GetPriceAnalytics assembles the aggregate read model for one retailer
// product.
func (as *AnalyticsService) GetPriceAnalytics(ctx context.Context, retailerProductID int64, days int, thresholdPercent float64) (*PriceAnalytics, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.GetPriceAnalytics")
	defer span.End()

	history, err := as.GetPriceHistory(ctx, retailerProductID, days)
	if err != nil {
		return nil, err
	}

	analytics := &PriceAnalytics{
		History:          history,
		SignificantMoves: DetectPriceChanges(history, thresholdPercent),
	}

	if len(history) > 0 {
		minPrice := *history[0].Price
		maxPrice := minPrice
		sum := 0.0
		for _, p := range history {
			price := *p.Price
			sum += price
			if price < minPrice {
				minPrice = price
			}
			if price > maxPrice {
				maxPrice = price
			}
		}
		current := *history[len(history)-1].Price
		avg := sum / float64(len(history))
		analytics.CurrentPrice = &current
		analytics.MinPrice = &minPrice
		analytics.MaxPrice = &maxPrice
		analytics.AvgPrice = &avg
	}

	return analytics, nil
}
