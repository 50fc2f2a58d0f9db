package store

import (
	"context"
	"database/sql"
	"time"

	"pricewatch/internal/models"
)

// CreatePricePoint appends one observation to the price history. Rows are
// never updated afterwards.
func (s *Store) CreatePricePoint(ctx context.Context, pp *models.PricePoint) error {
	query := `
		INSERT INTO price_history (
			retailer_product_id, price, currency, stock_info, offers, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, pp, query,
		pp.RetailerProductID, pp.Price, pp.Currency, pp.StockInfo, pp.Offers, pp.ScrapedAt)
}

// GetPricePointByID retrieves a price point by ID
func (s *Store) GetPricePointByID(ctx context.Context, id int64) (*models.PricePoint, error) {
	var pp models.PricePoint
	err := s.db.GetContext(ctx, &pp, "SELECT * FROM price_history WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pp, nil
}

// ListPricePoints retrieves price points for a retailer product, most
// recent first, bounded by limit
func (s *Store) ListPricePoints(ctx context.Context, retailerProductID int64, limit int) ([]models.PricePoint, error) {
	var points []models.PricePoint
	err := s.db.SelectContext(ctx, &points, `
		SELECT * FROM price_history
		WHERE retailer_product_id = $1
		ORDER BY scraped_at DESC
		LIMIT $2`, retailerProductID, limit)
	return points, err
}

// GetLatestPricePoint retrieves the most recent observation for a
// retailer product
func (s *Store) GetLatestPricePoint(ctx context.Context, retailerProductID int64) (*models.PricePoint, error) {
	var pp models.PricePoint
	err := s.db.GetContext(ctx, &pp, `
		SELECT * FROM price_history
		WHERE retailer_product_id = $1
		ORDER BY scraped_at DESC
		LIMIT 1`, retailerProductID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pp, nil
}

// GetPriceHistory retrieves observations within the trailing window,
// oldest first, for history reconstruction
func (s *Store) GetPriceHistory(ctx context.Context, retailerProductID int64, days int) ([]models.PricePoint, error) {
	var points []models.PricePoint
	err := s.db.SelectContext(ctx, &points, `
		SELECT * FROM price_history
		WHERE retailer_product_id = $1
		  AND scraped_at >= NOW() - $2 * INTERVAL '1 day'
		ORDER BY scraped_at ASC`, retailerProductID, days)
	return points, err
}

// GetCompetitorPricePoints retrieves recent observations across every
// retailer snapshot linked to one product identity, newest first. The
// retailer id rides along for grouping.
func (s *Store) GetCompetitorPricePoints(ctx context.Context, productID int64, days int) ([]CompetitorPricePoint, error) {
	var points []CompetitorPricePoint
	err := s.db.SelectContext(ctx, &points, `
		SELECT ph.id, ph.retailer_product_id, ph.price, ph.currency,
		       ph.scraped_at, rp.retailer_id
		FROM price_history ph
		JOIN retailer_products rp ON rp.id = ph.retailer_product_id
		WHERE rp.product_id = $1
		  AND ph.scraped_at >= NOW() - $2 * INTERVAL '1 day'
		ORDER BY ph.scraped_at DESC`, productID, days)
	return points, err
}

// CompetitorPricePoint is a price observation joined with its retailer
type CompetitorPricePoint struct {
	ID                int64     `db:"id" json:"id"`
	RetailerProductID int64     `db:"retailer_product_id" json:"retailer_product_id"`
	Price             *float64  `db:"price" json:"price,omitempty"`
	Currency          *string   `db:"currency" json:"currency,omitempty"`
	ScrapedAt         time.Time `db:"scraped_at" json:"scraped_at"`
	RetailerID        int64     `db:"retailer_id" json:"retailer_id"`
}
