package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"pricewatch/internal/models"
)

// CreateCategory inserts a category under the given parent and assigns its
// materialized path from the real row id, in one transaction. A unique
// violation on (name, parent_id) is returned as-is so callers can re-read
// the winning row.
func (s *Store) CreateCategory(ctx context.Context, name string, parentID *int64) (*models.Category, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var parentPath string
	if parentID != nil {
		var parent models.Category
		err = tx.GetContext(ctx, &parent, "SELECT * FROM categories WHERE id = $1", *parentID)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("parent category %d: %w", *parentID, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		if parent.Path != nil {
			parentPath = *parent.Path
		}
	}

	var category models.Category
	err = tx.GetContext(ctx, &category, `
		INSERT INTO categories (name, parent_id)
		VALUES ($1, $2)
		RETURNING *`, name, parentID)
	if err != nil {
		return nil, err
	}

	path := strconv.FormatInt(category.ID, 10)
	if parentPath != "" {
		path = parentPath + "." + path
	}

	err = tx.GetContext(ctx, &category, `
		UPDATE categories SET path = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING *`, path, category.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryByID retrieves a category by ID
func (s *Store) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryByPath retrieves a category by its exact materialized path
func (s *Store) GetCategoryByPath(ctx context.Context, path string) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE path = $1", path)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryChild retrieves the child with the given name under a parent
// (nil parent means root level). This is the resolver's sibling-set lookup.
func (s *Store) GetCategoryChild(ctx context.Context, parentID *int64, name string) (*models.Category, error) {
	var category models.Category
	var err error
	if parentID == nil {
		err = s.db.GetContext(ctx, &category,
			"SELECT * FROM categories WHERE parent_id IS NULL AND name = $1", name)
	} else {
		err = s.db.GetContext(ctx, &category,
			"SELECT * FROM categories WHERE parent_id = $1 AND name = $2", *parentID, name)
	}
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryChildren retrieves the direct children of a category
func (s *Store) GetCategoryChildren(ctx context.Context, parentID int64) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories,
		"SELECT * FROM categories WHERE parent_id = $1 ORDER BY id", parentID)
	return categories, err
}

// GetCategoryDescendants retrieves every category under the given path,
// excluding the category itself.
func (s *Store) GetCategoryDescendants(ctx context.Context, path string) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories,
		"SELECT * FROM categories WHERE path LIKE $1 || '.%' ORDER BY path", path)
	return categories, err
}

// GetCategoryAncestors retrieves every category whose path is a proper
// prefix of the given path, ordered root first.
func (s *Store) GetCategoryAncestors(ctx context.Context, path string) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories,
		"SELECT * FROM categories WHERE $1 LIKE path || '.%' ORDER BY path", path)
	return categories, err
}

// GetCategorySiblings retrieves categories sharing the parent, excluding
// the category itself
func (s *Store) GetCategorySiblings(ctx context.Context, categoryID int64) ([]models.Category, error) {
	category, err := s.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return []models.Category{}, nil
	}

	var categories []models.Category
	if category.ParentID == nil {
		err = s.db.SelectContext(ctx, &categories,
			"SELECT * FROM categories WHERE parent_id IS NULL AND id != $1 ORDER BY id", categoryID)
	} else {
		err = s.db.SelectContext(ctx, &categories,
			"SELECT * FROM categories WHERE parent_id = $1 AND id != $2 ORDER BY id",
			*category.ParentID, categoryID)
	}
	return categories, err
}

// GetRootCategories retrieves all root-level categories
func (s *Store) GetRootCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories,
		"SELECT * FROM categories WHERE parent_id IS NULL ORDER BY id")
	return categories, err
}

// ListCategories retrieves all categories
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories, "SELECT * FROM categories ORDER BY id")
	return categories, err
}

// FindCategoriesBy retrieves categories matching the equality filters
func (s *Store) FindCategoriesBy(ctx context.Context, filters map[string]interface{}) ([]models.Category, error) {
	var categories []models.Category
	err := s.selectWhere(ctx, &categories, "categories", filters)
	return categories, err
}

// UpdateCategory updates a category's mutable fields (name, parent left to
// UpdateCategoryParent which maintains paths).
func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if category.ID == 0 {
		return nil, ErrMissingID
	}

	var updated models.Category
	err := s.db.GetContext(ctx, &updated, `
		UPDATE categories SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING *`, category.Name, category.ID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %d: %w", category.ID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateCategoryParent moves a category under a new parent, recomputing
// its path and rewriting every descendant path by prefix replacement. The
// whole rewrite runs in one transaction so the tree is never observable
// half-moved.
func (s *Store) UpdateCategoryParent(ctx context.Context, categoryID int64, newParentID *int64) (*models.Category, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var current models.Category
	err = tx.GetContext(ctx, &current, "SELECT * FROM categories WHERE id = $1", categoryID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	newPath := strconv.FormatInt(categoryID, 10)
	if newParentID != nil {
		var parent models.Category
		err = tx.GetContext(ctx, &parent, "SELECT * FROM categories WHERE id = $1", *newParentID)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("parent category %d: %w", *newParentID, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		if parent.Path != nil {
			newPath = *parent.Path + "." + newPath
		}
	}

	var updated models.Category
	err = tx.GetContext(ctx, &updated, `
		UPDATE categories SET parent_id = $1, path = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING *`, newParentID, newPath, categoryID)
	if err != nil {
		return nil, err
	}

	if current.Path != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE categories
			SET path = $1 || substring(path FROM char_length($2) + 1),
			    updated_at = NOW()
			WHERE path LIKE $2 || '.%'`, newPath, *current.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to rewrite descendant paths: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCategory deletes a category by ID
func (s *Store) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}
