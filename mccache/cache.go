// Package mccache is a cache for device values, backed by Redis/Valkey,
// so a caller that checks Get first can skip a round trip to the PLC for
// a slow-changing device. The cache never reads the PLC itself: values
// enter only through Set, and a Get miss reports false.
package mccache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"melsec/mc"
)

// Config describes the Redis/Valkey connection and the cache's TTL.
type Config struct {
	Address  string
	Password string
	Database int
	UseTLS   bool
	TTL      time.Duration // 0 means the server's default (no expiry)
}

// Cache is a TTL-bounded cache of the last value read for each device.
type Cache struct {
	config Config
	client *redis.Client
}

// New creates a Cache. Call Connect before Get/Set.
func New(cfg Config) *Cache {
	return &Cache{config: cfg}
}

// Connect opens the Redis connection and verifies it with a PING.
func (c *Cache) Connect(ctx context.Context) error {
	opts := &redis.Options{
		Addr:         c.config.Address,
		Password:     c.config.Password,
		DB:           c.config.Database,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
	if c.config.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("mccache: connect to %s: %w", c.config.Address, err)
	}
	c.client = client
	return nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// cachedEntry is the JSON shape stored per device. Words are the wire-level
// 16-bit words rather than the decoded Go value, so a round trip through
// DecodeValue recreates the exact DeviceValue that was cached.
type cachedEntry struct {
	Type      int       `json:"type"`
	Parameter int       `json:"parameter"`
	Words     []uint16  `json:"words"`
	CachedAt  time.Time `json:"cached_at"`
}

func cacheKey(addr mc.DeviceAddress) string {
	return "mc:" + addr.String()
}

// Set stores value (encoded under format) for addr, expiring after the
// configured TTL.
func (c *Cache) Set(ctx context.Context, addr mc.DeviceAddress, format mc.ValueFormat, value mc.DeviceValue) error {
	words, err := mc.EncodeValue(value, format)
	if err != nil {
		return err
	}
	entry := cachedEntry{
		Type:      int(format.Type),
		Parameter: format.Parameter,
		Words:     words,
		CachedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(addr), payload, c.config.TTL).Err()
}

// Get returns the cached value for addr. The second return value is false
// on a cache miss (no error in that case).
func (c *Cache) Get(ctx context.Context, addr mc.DeviceAddress) (mc.DeviceValue, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(addr)).Bytes()
	if err == redis.Nil {
		return mc.DeviceValue{}, false, nil
	}
	if err != nil {
		return mc.DeviceValue{}, false, err
	}
	var entry cachedEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return mc.DeviceValue{}, false, err
	}
	format := mc.ValueFormat{Type: mc.ValueType(entry.Type), Parameter: entry.Parameter}
	value, err := mc.DecodeValue(entry.Words, format)
	if err != nil {
		return mc.DeviceValue{}, false, err
	}
	return value, true, nil
}

// Invalidate removes any cached value for addr.
func (c *Cache) Invalidate(ctx context.Context, addr mc.DeviceAddress) error {
	return c.client.Del(ctx, cacheKey(addr)).Err()
}
