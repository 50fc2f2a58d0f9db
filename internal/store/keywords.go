package store

import (
	"context"
	"database/sql"
	"fmt"

	"pricewatch/internal/models"
)

// RecordKeywordSighting inserts an availability keyword or, when the
// (retailer_id, keyword) pair already exists, bumps occurrence_count and
// last_seen_at. The conflict clause is the concurrency primitive: two
// concurrent sightings never produce two rows.
func (s *Store) RecordKeywordSighting(ctx context.Context, retailerID int64, keyword string, language *string) (*models.AvailabilityKeyword, error) {
	query := `
		INSERT INTO availability_keywords (retailer_id, keyword, language)
		VALUES ($1, $2, $3)
		ON CONFLICT (retailer_id, keyword) DO UPDATE SET
			occurrence_count = availability_keywords.occurrence_count + 1,
			last_seen_at = NOW(),
			updated_at = NOW()
		RETURNING *`

	var kw models.AvailabilityKeyword
	err := s.db.GetContext(ctx, &kw, query, retailerID, keyword, language)
	if err != nil {
		return nil, fmt.Errorf("failed to record keyword sighting: %w", err)
	}
	return &kw, nil
}

// GetKeywordByID retrieves an availability keyword by ID
func (s *Store) GetKeywordByID(ctx context.Context, id int64) (*models.AvailabilityKeyword, error) {
	var kw models.AvailabilityKeyword
	err := s.db.GetContext(ctx, &kw, "SELECT * FROM availability_keywords WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &kw, nil
}

// GetKeyword retrieves the entry for a (retailer, keyword) pair
func (s *Store) GetKeyword(ctx context.Context, retailerID int64, keyword string) (*models.AvailabilityKeyword, error) {
	var kw models.AvailabilityKeyword
	err := s.db.GetContext(ctx, &kw,
		"SELECT * FROM availability_keywords WHERE retailer_id = $1 AND keyword = $2",
		retailerID, keyword)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &kw, nil
}

// GetKeywordsByRetailer retrieves all keywords seen at a retailer
func (s *Store) GetKeywordsByRetailer(ctx context.Context, retailerID int64) ([]models.AvailabilityKeyword, error) {
	var keywords []models.AvailabilityKeyword
	err := s.db.SelectContext(ctx, &keywords,
		"SELECT * FROM availability_keywords WHERE retailer_id = $1 ORDER BY occurrence_count DESC",
		retailerID)
	return keywords, err
}

// GetUnconfiguredKeywords retrieves keywords awaiting manual
// classification
func (s *Store) GetUnconfiguredKeywords(ctx context.Context) ([]models.AvailabilityKeyword, error) {
	var keywords []models.AvailabilityKeyword
	err := s.db.SelectContext(ctx, &keywords,
		"SELECT * FROM availability_keywords WHERE is_configured = false ORDER BY occurrence_count DESC")
	return keywords, err
}

// ConfigureKeyword records the manual in-stock/out-of-stock classification
func (s *Store) ConfigureKeyword(ctx context.Context, id int64, indicatesInStock bool) (*models.AvailabilityKeyword, error) {
	var kw models.AvailabilityKeyword
	err := s.db.GetContext(ctx, &kw, `
		UPDATE availability_keywords
		SET indicates_in_stock = $1, is_configured = true, updated_at = NOW()
		WHERE id = $2
		RETURNING *`, indicatesInStock, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("availability keyword %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &kw, nil
}
