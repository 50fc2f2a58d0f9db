package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pricewatch/internal/models"
	"pricewatch/internal/redisclient"
	"pricewatch/internal/store"
	"pricewatch/internal/util"

	"go.uber.org/zap"
)

// RetailerDirectory is the single source of retailer name→id mapping,
// loaded from the retailers table at startup. Site adapters tag items
// with a retailer name; nothing hard-codes ids.
type RetailerDirectory struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger

	mu     sync.RWMutex
	byName map[string]int64
}

// NewRetailerDirectory creates the directory
func NewRetailerDirectory(st *store.Store, redis *redisclient.Client) *RetailerDirectory {
	return &RetailerDirectory{
		store:  st,
		redis:  redis,
		logger: util.GetLogger(),
		byName: make(map[string]int64),
	}
}

// Load reads every retailer from the store and warms the caches.
func (rd *RetailerDirectory) Load(ctx context.Context) error {
	retailers, err := rd.store.GetRetailers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load retailers: %w", err)
	}

	mapping := make(map[string]int64, len(retailers))
	for _, r := range retailers {
		mapping[strings.ToLower(r.Name)] = r.ID
	}

	rd.mu.Lock()
	rd.byName = mapping
	rd.mu.Unlock()

	if rd.redis != nil {
		for name, id := range mapping {
			if err := rd.redis.SetRetailerID(ctx, name, id); err != nil {
				rd.logger.Warn("Failed to cache retailer id in redis",
					zap.String("retailer", name),
					zap.Error(err))
			}
		}
	}

	rd.logger.Info("Retailer directory loaded", zap.Int("count", len(mapping)))
	return nil
}

// ResolveID returns the retailer id for a name, case-insensitive. Misses
// in the in-memory map fall through to redis and then to the store, so a
// retailer seeded after startup is still found.
func (rd *RetailerDirectory) ResolveID(ctx context.Context, name string) (int64, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return 0, fmt.Errorf("retailer name is empty")
	}

	rd.mu.RLock()
	id, ok := rd.byName[key]
	rd.mu.RUnlock()
	if ok {
		return id, nil
	}

	if rd.redis != nil {
		if id, err := rd.redis.GetRetailerID(ctx, key); err == nil && id > 0 {
			rd.remember(key, id)
			return id, nil
		}
	}

	retailer, err := rd.store.GetRetailerByName(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to look up retailer %q: %w", name, err)
	}
	if retailer == nil {
		return 0, fmt.Errorf("unknown retailer: %q", name)
	}

	rd.remember(key, retailer.ID)
	if rd.redis != nil {
		if err := rd.redis.SetRetailerID(ctx, key, retailer.ID); err != nil {
			rd.logger.Warn("Failed to cache retailer id in redis",
				zap.String("retailer", key),
				zap.Error(err))
		}
	}
	return retailer.ID, nil
}

// Get returns the full retailer record by id.
func (rd *RetailerDirectory) Get(ctx context.Context, id int64) (*models.Retailer, error) {
	return rd.store.GetRetailerByID(ctx, id)
}

func (rd *RetailerDirectory) remember(name string, id int64) {
	rd.mu.Lock()
	rd.byName[name] = id
	rd.mu.Unlock()
}
