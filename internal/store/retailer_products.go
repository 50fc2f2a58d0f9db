package store

import (
	"context"
	"database/sql"
	"fmt"

	"pricewatch/internal/models"
)

// CreateRetailerProduct inserts a retailer product snapshot
func (s *Store) CreateRetailerProduct(ctx context.Context, rp *models.RetailerProduct) error {
	query := `
		INSERT INTO retailer_products (
			retailer_id, url, retailer_sku, name, brand, description,
			category_path, category_id, product_id, current_price, currency,
			stock_info, specifications, images, variants, retailer_metadata,
			is_active, last_scraped_at, last_successful_scrape_at,
			scrape_error_count, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, rp, query,
		rp.RetailerID, rp.URL, rp.RetailerSKU, rp.Name, rp.Brand, rp.Description,
		rp.CategoryPath, rp.CategoryID, rp.ProductID, rp.CurrentPrice, rp.Currency,
		rp.StockInfo, rp.Specifications, rp.Images, rp.Variants, rp.RetailerMetadata,
		rp.IsActive, rp.LastScrapedAt, rp.LastSuccessfulScrapeAt,
		rp.ScrapeErrorCount, rp.LastError)
}

// UpsertRetailerProduct inserts or replaces the snapshot keyed on
// (retailer_id, url), updating every column except created_at. Error
// bookkeeping accumulates across failed scrapes and resets on success;
// the successful-scrape timestamp never moves backwards.
func (s *Store) UpsertRetailerProduct(ctx context.Context, rp *models.RetailerProduct) (*models.RetailerProduct, error) {
	query := `
		INSERT INTO retailer_products (
			retailer_id, url, retailer_sku, name, brand, description,
			category_path, category_id, product_id, current_price, currency,
			stock_info, specifications, images, variants, retailer_metadata,
			is_active, last_scraped_at, last_successful_scrape_at,
			scrape_error_count, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (retailer_id, url) DO UPDATE SET
			retailer_sku = EXCLUDED.retailer_sku,
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			description = EXCLUDED.description,
			category_path = EXCLUDED.category_path,
			category_id = COALESCE(EXCLUDED.category_id, retailer_products.category_id),
			product_id = COALESCE(EXCLUDED.product_id, retailer_products.product_id),
			current_price = EXCLUDED.current_price,
			currency = EXCLUDED.currency,
			stock_info = EXCLUDED.stock_info,
			specifications = EXCLUDED.specifications,
			images = EXCLUDED.images,
			variants = EXCLUDED.variants,
			retailer_metadata = EXCLUDED.retailer_metadata,
			is_active = EXCLUDED.is_active,
			last_scraped_at = EXCLUDED.last_scraped_at,
			last_successful_scrape_at = COALESCE(EXCLUDED.last_successful_scrape_at, retailer_products.last_successful_scrape_at),
			scrape_error_count = CASE
				WHEN EXCLUDED.last_successful_scrape_at IS NOT NULL THEN 0
				ELSE retailer_products.scrape_error_count + EXCLUDED.scrape_error_count
			END,
			last_error = CASE
				WHEN EXCLUDED.last_successful_scrape_at IS NOT NULL THEN '{}'::jsonb
				ELSE EXCLUDED.last_error
			END,
			updated_at = NOW()
		RETURNING *`

	var saved models.RetailerProduct
	err := s.db.GetContext(ctx, &saved, query,
		rp.RetailerID, rp.URL, rp.RetailerSKU, rp.Name, rp.Brand, rp.Description,
		rp.CategoryPath, rp.CategoryID, rp.ProductID, rp.CurrentPrice, rp.Currency,
		rp.StockInfo, rp.Specifications, rp.Images, rp.Variants, rp.RetailerMetadata,
		rp.IsActive, rp.LastScrapedAt, rp.LastSuccessfulScrapeAt,
		rp.ScrapeErrorCount, rp.LastError)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert retailer product: %w", err)
	}
	return &saved, nil
}

// GetRetailerProductByID retrieves a retailer product by ID
func (s *Store) GetRetailerProductByID(ctx context.Context, id int64) (*models.RetailerProduct, error) {
	var rp models.RetailerProduct
	err := s.db.GetContext(ctx, &rp, "SELECT * FROM retailer_products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rp, nil
}

// GetRetailerProductByURL retrieves the snapshot for a retailer+URL pair
func (s *Store) GetRetailerProductByURL(ctx context.Context, retailerID int64, url string) (*models.RetailerProduct, error) {
	var rp models.RetailerProduct
	err := s.db.GetContext(ctx, &rp,
		"SELECT * FROM retailer_products WHERE retailer_id = $1 AND url = $2", retailerID, url)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rp, nil
}

// GetRetailerProducts retrieves products for a retailer, optionally only
// active ones
func (s *Store) GetRetailerProducts(ctx context.Context, retailerID int64, activeOnly bool) ([]models.RetailerProduct, error) {
	var rps []models.RetailerProduct
	query := "SELECT * FROM retailer_products WHERE retailer_id = $1"
	if activeOnly {
		query += " AND is_active = true"
	}
	err := s.db.SelectContext(ctx, &rps, query+" ORDER BY id", retailerID)
	return rps, err
}

// SearchRetailerProducts searches snapshots by name, optionally scoped to
// one retailer
func (s *Store) SearchRetailerProducts(ctx context.Context, term string, retailerID *int64) ([]models.RetailerProduct, error) {
	pattern := "%" + term + "%"
	var rps []models.RetailerProduct
	var err error
	if retailerID == nil {
		err = s.db.SelectContext(ctx, &rps,
			"SELECT * FROM retailer_products WHERE name ILIKE $1 ORDER BY id", pattern)
	} else {
		err = s.db.SelectContext(ctx, &rps,
			"SELECT * FROM retailer_products WHERE name ILIKE $1 AND retailer_id = $2 ORDER BY id",
			pattern, *retailerID)
	}
	return rps, err
}

// GetFailedRetailerProducts retrieves snapshots whose most recent scrape
// in the trailing window failed, newest failures first.
func (s *Store) GetFailedRetailerProducts(ctx context.Context, retailerID int64, days int) ([]models.RetailerProduct, error) {
	var rps []models.RetailerProduct
	err := s.db.SelectContext(ctx, &rps, `
		SELECT * FROM retailer_products
		WHERE retailer_id = $1
		  AND last_scraped_at >= NOW() - $2 * INTERVAL '1 day'
		  AND (last_successful_scrape_at IS NULL OR last_successful_scrape_at < last_scraped_at)
		ORDER BY last_scraped_at DESC`, retailerID, days)
	return rps, err
}

// CountScrapedRetailerProducts counts snapshots scraped within the
// trailing window for a retailer
func (s *Store) CountScrapedRetailerProducts(ctx context.Context, retailerID int64, days int) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM retailer_products
		WHERE retailer_id = $1
		  AND last_scraped_at >= NOW() - $2 * INTERVAL '1 day'`, retailerID, days)
	return count, err
}

// FindRetailerProductsBy retrieves snapshots matching the equality filters
func (s *Store) FindRetailerProductsBy(ctx context.Context, filters map[string]interface{}) ([]models.RetailerProduct, error) {
	var rps []models.RetailerProduct
	err := s.selectWhere(ctx, &rps, "retailer_products", filters)
	return rps, err
}

// UpdateRetailerProduct updates a snapshot by ID
func (s *Store) UpdateRetailerProduct(ctx context.Context, rp *models.RetailerProduct) (*models.RetailerProduct, error) {
	if rp.ID == 0 {
		return nil, ErrMissingID
	}

	var updated models.RetailerProduct
	err := s.db.GetContext(ctx, &updated, `
		UPDATE retailer_products SET
			name = $1, brand = $2, description = $3, category_path = $4,
			category_id = $5, product_id = $6, current_price = $7,
			currency = $8, stock_info = $9, specifications = $10,
			images = $11, variants = $12, retailer_metadata = $13,
			is_active = $14, updated_at = NOW()
		WHERE id = $15
		RETURNING *`,
		rp.Name, rp.Brand, rp.Description, rp.CategoryPath,
		rp.CategoryID, rp.ProductID, rp.CurrentPrice,
		rp.Currency, rp.StockInfo, rp.Specifications,
		rp.Images, rp.Variants, rp.RetailerMetadata,
		rp.IsActive, rp.ID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("retailer product %d: %w", rp.ID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteRetailerProduct deletes a snapshot by ID
func (s *Store) DeleteRetailerProduct(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM retailer_products WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}
