package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "courses:all:version"

// CourseCache stores rendered /course/all pages. A nil *CourseCache is a
// valid, always-missing cache.
type CourseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func Open(ctx context.Context, url string, ttl time.Duration) (*CourseCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return New(client, ttl), nil
}

func New(client *redis.Client, ttl time.Duration) *CourseCache {
	return &CourseCache{client: client, ttl: ttl}
}

func (c *CourseCache) enabled() bool {
	return c != nil && c.client != nil
}

func pageKey(version int64, page, size int) string {
	return fmt.Sprintf("courses:all:v%d:p%d:s%d", version, page, size)
}

func (c *CourseCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// GetPage decodes a cached page into dst and reports whether it was found.
// The returned version must be passed to SetPage so a page read before an
// Invalidate is never stored under the newer version.
func (c *CourseCache) GetPage(ctx context.Context, page, size int, dst any) (int64, bool, error) {
	if !c.enabled() {
		return 0, false, nil
	}

	v, err := c.version(ctx)
	if err != nil {
		return 0, false, err
	}

	data, err := c.client.Get(ctx, pageKey(v, page, size)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return v, false, err
	}
	return v, true, nil
}

// SetPage stores value under the version GetPage returned.
func (c *CourseCache) SetPage(ctx context.Context, version int64, page, size int, value any) error {
	if !c.enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, pageKey(version, page, size), data, c.ttl).Err()
}

// Invalidate bumps the listing version; old pages expire on their own.
func (c *CourseCache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, versionKey).Err()
}

func (c *CourseCache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}
