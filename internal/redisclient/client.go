package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// LatestPrice is the cached most-recent price for a retailer product,
// maintained by the price-alert worker.
type LatestPrice struct {
	Price     float64   `json:"price"`
	Currency  string    `json:"currency,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetRetailerID caches a retailer name→id mapping
func (c *Client) SetRetailerID(ctx context.Context, name string, id int64) error {
	return c.rdb.Set(ctx, fmt.Sprintf("retailer:%s", name), id, 0).Err()
}

// GetRetailerID retrieves a cached retailer id, 0 when absent
func (c *Client) GetRetailerID(ctx context.Context, name string) (int64, error) {
	id, err := c.rdb.Get(ctx, fmt.Sprintf("retailer:%s", name)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return id, err
}

// SetLatestPrice caches the most recent price for a retailer product
func (c *Client) SetLatestPrice(ctx context.Context, retailerProductID int64, price LatestPrice) error {
	data, err := json.Marshal(price)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf("latest_price:%d", retailerProductID), data, 0).Err()
}

// GetLatestPrice retrieves the cached latest price, nil when absent
func (c *Client) GetLatestPrice(ctx context.Context, retailerProductID int64) (*LatestPrice, error) {
	data, err := c.rdb.Get(ctx, fmt.Sprintf("latest_price:%d", retailerProductID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var price LatestPrice
	if err := json.Unmarshal(data, &price); err != nil {
		return nil, err
	}
	return &price, nil
}
