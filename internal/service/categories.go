package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pricewatch/internal/models"
	"pricewatch/internal/store"
	"pricewatch/internal/util"

	"go.uber.org/zap"
)

// PathSeparator splits raw category breadcrumbs ("Electronics > Phones").
const PathSeparator = ">"

// CategoryResolver maintains the path-addressed category tree, creating
// nodes lazily as unseen breadcrumb labels arrive.
type CategoryResolver struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCategoryResolver creates a category resolver
func NewCategoryResolver(st *store.Store) *CategoryResolver {
	return &CategoryResolver{
		store:  st,
		logger: util.GetLogger(),
	}
}

// SplitPath turns a raw breadcrumb into its ordered labels, skipping
// empties.
func SplitPath(rawPath string) []string {
	parts := strings.Split(rawPath, PathSeparator)
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if label := strings.TrimSpace(p); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// ResolveOrCreate walks a raw breadcrumb left to right, looking up or
// creating one node per label, and returns the deepest category reached.
// A failure at any level aborts the rest of the path; levels committed
// before the failure remain.
func (cr *CategoryResolver) ResolveOrCreate(ctx context.Context, rawPath string) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CategoryResolver.ResolveOrCreate")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CategoryResolveLatency.Observe(time.Since(start).Seconds())
	}()

	labels := SplitPath(rawPath)
	if len(labels) == 0 {
		return nil, fmt.Errorf("category path is empty: %q", rawPath)
	}

	var parentID *int64
	var current *models.Category

	for _, label := range labels {
		category, err := cr.resolveLevel(ctx, parentID, label)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category level %q: %w", label, err)
		}
		current = category
		parentID = &category.ID
	}

	return current, nil
}

// resolveLevel finds or creates one node of the tree. Two concurrent
// resolutions of the same new label race on the (name, parent_id) unique
// constraint; the loser re-reads the winner's row.
func (cr *CategoryResolver) resolveLevel(ctx context.Context, parentID *int64, name string) (*models.Category, error) {
	existing, err := cr.store.GetCategoryChild(ctx, parentID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	created, err := cr.store.CreateCategory(ctx, name, parentID)
	if err != nil {
		if store.IsUniqueViolation(err, "") {
			winner, readErr := cr.store.GetCategoryChild(ctx, parentID, name)
			if readErr != nil {
				return nil, readErr
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, err
	}

	util.CategoriesCreatedTotal.Inc()
	cr.logger.Debug("Category created",
		zap.Int64("category_id", created.ID),
		zap.String("name", created.Name))
	return created, nil
}

// UpdateParent moves a category under a new parent. The store rewrites
// every descendant path in the same transaction.
func (cr *CategoryResolver) UpdateParent(ctx context.Context, categoryID int64, newParentID *int64) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CategoryResolver.UpdateParent")
	defer span.End()

	updated, err := cr.store.UpdateCategoryParent(ctx, categoryID, newParentID)
	if err != nil {
		return nil, fmt.Errorf("failed to move category %d: %w", categoryID, err)
	}

	cr.logger.Info("Category moved",
		zap.Int64("category_id", categoryID),
		zap.Any("new_parent_id", newParentID))
	return updated, nil
}

// RewritePathPrefix computes a descendant's new path after its ancestor
// moved from oldPrefix to newPrefix.
func RewritePathPrefix(path, oldPrefix, newPrefix string) string {
	if path == oldPrefix {
		return newPrefix
	}
	if strings.HasPrefix(path, oldPrefix+".") {
		return newPrefix + path[len(oldPrefix):]
	}
	return path
}
