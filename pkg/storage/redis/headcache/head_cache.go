/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package headcache is a read-through Redis cache for resolved status list
// head versions. Entries honour the list's ttl hint and are invalidated on
// every successful chain append.
package headcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/credstatus/csl-service/pkg/resource"
	"github.com/credstatus/csl-service/pkg/storage/redis"
)

const (
	keyPrefix = "csl:head:"

	defaultTTL = 30 * time.Second
)

// Entry is one cached head version.
type Entry struct {
	Metadata *resource.Metadata `json:"metadata"`
	Payload  []byte             `json:"payload"`
}

// Cache caches resolved heads in Redis.
type Cache struct {
	client *redis.Client
}

// New returns a new head cache.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached head for the list, or nil on a miss.
func (c *Cache) Get(ctx context.Context, issuerDID, name string) (*Entry, error) {
	data, err := c.client.API().Get(ctx, key(issuerDID, name)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("head cache get failed: %w", err)
	}

	var entry Entry

	if err = json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("head cache decode failed: %w", err)
	}

	return &entry, nil
}

// Put caches the head for the list. ttlSeconds comes from the list's ttl
// hint; zero falls back to a short default so the cache never outlives a
// hint-less list for long.
func (c *Cache) Put(ctx context.Context, issuerDID, name string, entry *Entry, ttlSeconds int64) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("head cache encode failed: %w", err)
	}

	ttl := defaultTTL
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}

	if err = c.client.API().Set(ctx, key(issuerDID, name), data, ttl).Err(); err != nil {
		return fmt.Errorf("head cache set failed: %w", err)
	}

	return nil
}

// Invalidate drops the cached head for the list.
func (c *Cache) Invalidate(ctx context.Context, issuerDID, name string) error {
	if err := c.client.API().Del(ctx, key(issuerDID, name)).Err(); err != nil {
		return fmt.Errorf("head cache invalidate failed: %w", err)
	}

	return nil
}

func key(issuerDID, name string) string {
	return keyPrefix + issuerDID + ":" + name
}
