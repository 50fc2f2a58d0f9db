package store

import (
	"context"
	"database/sql"
	"fmt"

	"pricewatch/internal/models"
)

// CreateProduct inserts a product identity record
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (name, brand, category_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, product, query,
		product.Name, product.Brand, product.CategoryID)
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductByNameAndBrand retrieves the product identity matching a
// name and optional brand
func (s *Store) GetProductByNameAndBrand(ctx context.Context, name string, brand *string) (*models.Product, error) {
	var product models.Product
	var err error
	if brand == nil {
		err = s.db.GetContext(ctx, &product,
			"SELECT * FROM products WHERE name = $1 LIMIT 1", name)
	} else {
		err = s.db.GetContext(ctx, &product,
			"SELECT * FROM products WHERE name = $1 AND brand = $2 LIMIT 1", name, *brand)
	}
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByCategory retrieves all products in a category
func (s *Store) GetProductsByCategory(ctx context.Context, categoryID int64) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE category_id = $1 ORDER BY id", categoryID)
	return products, err
}

// GetProductsWithoutCategory retrieves products with no category assigned
func (s *Store) GetProductsWithoutCategory(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE category_id IS NULL ORDER BY id")
	return products, err
}

// SearchProducts searches products by name or brand
func (s *Store) SearchProducts(ctx context.Context, term string) ([]models.Product, error) {
	pattern := "%" + term + "%"
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE name ILIKE $1 OR brand ILIKE $1 ORDER BY id", pattern)
	return products, err
}

// UpdateProduct updates a product identity record
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == 0 {
		return nil, ErrMissingID
	}

	var updated models.Product
	err := s.db.GetContext(ctx, &updated, `
		UPDATE products SET name = $1, brand = $2, category_id = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING *`, product.Name, product.Brand, product.CategoryID, product.ID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", product.ID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateProductCategory sets the category link on a product
func (s *Store) UpdateProductCategory(ctx context.Context, productID int64, categoryID *int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE products SET category_id = $1, updated_at = NOW() WHERE id = $2",
		categoryID, productID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	return nil
}

// ReassignProductCategory moves every product from one category to
// another in a single statement
func (s *Store) ReassignProductCategory(ctx context.Context, fromCategoryID, toCategoryID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE products SET category_id = $1, updated_at = NOW() WHERE category_id = $2",
		toCategoryID, fromCategoryID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListProducts retrieves all product identity records
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY id")
	return products, err
}

// FindProductsBy retrieves products matching the equality filters
func (s *Store) FindProductsBy(ctx context.Context, filters map[string]interface{}) ([]models.Product, error) {
	var products []models.Product
	err := s.selectWhere(ctx, &products, "products", filters)
	return products, err
}

// DeleteProduct deletes a product identity record
func (s *Store) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}
