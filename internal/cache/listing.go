// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// listing.go provides a Valkey-backed cache for the public accepted-themes
// listing. The serialized JSON page is stored per (limit, offset) pair so
// repeated gallery fetches skip the database entirely. Any mutation of the
// themes table invalidates the whole listing.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// listingKeyPrefix is the Valkey key prefix for cached listing pages.
	listingKeyPrefix = "themes:list:"

	// DefaultListingTTL is how long a cached listing page stays valid.
	DefaultListingTTL = 1 * time.Minute
)

// ListingCache manages cached accepted-themes listing pages in Valkey.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates a listing cache backed by the given Valkey client.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl == 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{client: client, ttl: ttl}
}

// pageKey builds the Valkey key for one listing page.
func pageKey(limit, offset int) string {
	return fmt.Sprintf("%s%d:%d", listingKeyPrefix, limit, offset)
}

// Get retrieves the cached JSON for a listing page. Returns false on miss.
func (lc *ListingCache) Get(ctx context.Context, limit, offset int) ([]byte, bool) {
	val, err := lc.client.Get(ctx, pageKey(limit, offset)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("listing cache get error", "limit", limit, "offset", offset, "error", err)
		return nil, false
	}
	slog.Debug("listing cache hit", "limit", limit, "offset", offset)
	return val, true
}

// Set stores the serialized listing page with the configured TTL.
func (lc *ListingCache) Set(ctx context.Context, limit, offset int, body []byte) {
	if err := lc.client.Set(ctx, pageKey(limit, offset), body, lc.ttl).Err(); err != nil {
		slog.Warn("listing cache set error", "limit", limit, "offset", offset, "error", err)
	}
}

// Invalidate removes every cached listing page. Called after any create,
// update, or delete, since pagination shifts across the whole listing.
func (lc *ListingCache) Invalidate(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := lc.client.Scan(ctx, cursor, listingKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("listing cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := lc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("listing cache delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("listing cache invalidated", "deleted", deleted)
	}
}
