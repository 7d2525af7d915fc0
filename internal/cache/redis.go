package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/mate-recommendation-service/internal/domain"
)

const (
	defaultTTL = 10 * time.Minute
	keyPrefix  = "rec:themes:"
	dayLayout  = "2006-01-02"
)

// Cache stores built theme pages per UTC day. A cached page is only ever served on
// the day it was built, and never outlives that day.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func buildKey(now time.Time, page int) string {
	return fmt.Sprintf("%s%s:page:%d", keyPrefix, now.UTC().Format(dayLayout), page)
}

// ttlFor caps the configured TTL at the next UTC midnight.
func (c *Cache) ttlFor(now time.Time) time.Duration {
	utc := now.UTC()
	midnight := time.Date(utc.Year(), utc.Month(), utc.Day()+1, 0, 0, 0, 0, time.UTC)
	return min(c.ttl, midnight.Sub(utc))
}

// Get returns the page built earlier on now's UTC day. found is false on a miss.
func (c *Cache) Get(ctx context.Context, now time.Time, page int) (*domain.ThemesPage, bool, error) {
	key := buildKey(now, page)
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get themes page %s: %w", key, err)
	}

	var themes domain.ThemesPage
	if err := json.Unmarshal(val, &themes); err != nil {
		return nil, false, fmt.Errorf("unmarshal themes page %s: %w", key, err)
	}
	return &themes, true, nil
}

func (c *Cache) Set(ctx context.Context, now time.Time, page int, themes *domain.ThemesPage) error {
	key := buildKey(now, page)
	val, err := json.Marshal(themes)
	if err != nil {
		return fmt.Errorf("marshal themes page: %w", err)
	}

	if err := c.client.Set(ctx, key, val, c.ttlFor(now)).Err(); err != nil {
		return fmt.Errorf("set themes page %s: %w", key, err)
	}
	return nil
}

// Clear drops every cached page. Used after the underlying data is reseeded.
func (c *Cache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Ping connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
