package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pricewatch/internal/models"
)

// seedRetailers is the fixed set of tracked retailers. The pipeline never
// creates retailers at runtime.
var seedRetailers = []models.Retailer{
	{Name: "Datart", Type: models.RetailerTypeDirect, Country: "CZ"},
	{Name: "Euronics", Type: models.RetailerTypeDirect, Country: "CZ"},
	{Name: "MediaMarkt", Type: models.RetailerTypeDirect, Country: "HU"},
	{Name: "Pilulka", Type: models.RetailerTypeDirect, Country: "CZ"},
	{Name: "Planeo", Type: models.RetailerTypeDirect, Country: "CZ"},
	{Name: "Telekom", Type: models.RetailerTypeDirect, Country: "CZ"},
	{Name: "Zbozi", Type: models.RetailerTypeComparer, Country: "CZ"},
	{Name: "Alza", Type: models.RetailerTypeDirect, Country: "CZ"},
}

// SeedRetailers applies the fixed retailer seed data, updating type and
// country on existing rows.
func (s *Store) SeedRetailers(ctx context.Context) error {
	query := `
		INSERT INTO retailers (name, type, country)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET type = EXCLUDED.type,
		    country = EXCLUDED.country,
		    updated_at = NOW()`

	for _, r := range seedRetailers {
		if _, err := s.db.ExecContext(ctx, query, r.Name, r.Type, r.Country); err != nil {
			return fmt.Errorf("failed to seed retailer %s: %w", r.Name, err)
		}
	}
	return nil
}

// GetRetailerByID retrieves a retailer by ID
func (s *Store) GetRetailerByID(ctx context.Context, id int64) (*models.Retailer, error) {
	var retailer models.Retailer
	err := s.db.GetContext(ctx, &retailer, "SELECT * FROM retailers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &retailer, nil
}

// GetRetailerByName retrieves a retailer by name, case-insensitive exact match
func (s *Store) GetRetailerByName(ctx context.Context, name string) (*models.Retailer, error) {
	var retailer models.Retailer
	err := s.db.GetContext(ctx, &retailer,
		"SELECT * FROM retailers WHERE LOWER(name) = LOWER($1)", name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &retailer, nil
}

// GetRetailersByType retrieves retailers by type
func (s *Store) GetRetailersByType(ctx context.Context, retailerType string) ([]models.Retailer, error) {
	var retailers []models.Retailer
	err := s.db.SelectContext(ctx, &retailers,
		"SELECT * FROM retailers WHERE type = $1 ORDER BY id", retailerType)
	return retailers, err
}

// GetRetailersByCountry retrieves retailers by ISO-2 country code
func (s *Store) GetRetailersByCountry(ctx context.Context, country string) ([]models.Retailer, error) {
	var retailers []models.Retailer
	err := s.db.SelectContext(ctx, &retailers,
		"SELECT * FROM retailers WHERE country = $1 ORDER BY id", strings.ToUpper(country))
	return retailers, err
}

// GetRetailers retrieves all retailers
func (s *Store) GetRetailers(ctx context.Context) ([]models.Retailer, error) {
	var retailers []models.Retailer
	err := s.db.SelectContext(ctx, &retailers, "SELECT * FROM retailers ORDER BY id")
	return retailers, err
}
