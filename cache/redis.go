package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrNotFound = errors.New("cache: key not found")

type Client struct {
	rdb *redis.Client
}

// Default is set by cmd/api at startup.
var Default *Client

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

func (c *Client) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *Client) getJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	return json.Unmarshal(val, dest)
}

// Intake sessions

func (c *Client) SetIntakeSession(ctx context.Context, sessionID string, data interface{}, ttl time.Duration) error {
	return c.setJSON(ctx, "intake:"+sessionID, data, ttl)
}

func (c *Client) GetIntakeSession(ctx context.Context, sessionID string, dest interface{}) error {
	return c.getJSON(ctx, "intake:"+sessionID, dest)
}

func (c *Client) DeleteIntakeSession(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, "intake:"+sessionID).Err()
}

// Payment callback locks

// AcquirePaymentLock returns false when another request already holds the
// lock for this gateway payment id.
func (c *Client) AcquirePaymentLock(ctx context.Context, paymentID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, "payment_lock:"+paymentID, time.Now().Unix(), ttl).Result()
}

func (c *Client) ReleasePaymentLock(ctx context.Context, paymentID string) error {
	return c.rdb.Del(ctx, "payment_lock:"+paymentID).Err()
}

// Token revocation

func (c *Client) RevokeToken(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, "revoked_token:"+tokenID, 1, ttl).Err()
}

func (c *Client) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, "revoked_token:"+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
