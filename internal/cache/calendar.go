// Package cache keeps computed month calendars in Redis.
//
// Keys carry a global epoch and a per-venue version. Invalidation bumps a
// counter instead of deleting keys, and stale entries age out through their
// TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"venueslots/internal/availability"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 10 * time.Minute

type CalendarCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewCalendarCache(rdb *redis.Client, ttl time.Duration, prefix string) *CalendarCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "venueslots"
	}
	return &CalendarCache{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *CalendarCache) epochKey() string {
	return c.prefix + ":cal:epoch"
}

func (c *CalendarCache) versionKey(venueID int64) string {
	return fmt.Sprintf("%s:cal:ver:%d", c.prefix, venueID)
}

func (c *CalendarCache) monthKey(gen string, year int, month time.Month) string {
	return fmt.Sprintf("%s:cal:%s:%04d-%02d", c.prefix, gen, year, int(month))
}

// generation reads the epoch and the venue version in one round trip and
// returns them as "epoch:venue:version". Missing counters read as "0".
func (c *CalendarCache) generation(ctx context.Context, venueID int64) (string, error) {
	vals, err := c.rdb.MGet(ctx, c.epochKey(), c.versionKey(venueID)).Result()
	if err != nil {
		return "", err
	}
	out := [2]string{"0", "0"}
	for i, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			out[i] = s
		}
	}
	return fmt.Sprintf("%s:%d:%s", out[0], venueID, out[1]), nil
}

func (c *CalendarCache) GetMonth(ctx context.Context, venueID int64, year int, month time.Month) (availability.Calendar, string, bool, error) {
	gen, err := c.generation(ctx, venueID)
	if err != nil {
		return nil, "", false, err
	}
	raw, err := c.rdb.Get(ctx, c.monthKey(gen, year, month)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, "", false, err
	}

	var cal availability.Calendar
	if err := json.Unmarshal(raw, &cal); err != nil {
		return nil, gen, false, fmt.Errorf("decode cached calendar: %w", err)
	}
	return cal, gen, true, nil
}

// SetMonth writes under gen, the generation GetMonth saw before the
// calendar was computed. A version bump in between orphans the entry.
func (c *CalendarCache) SetMonth(ctx context.Context, venueID int64, year int, month time.Month, gen string, cal availability.Calendar) error {
	if gen == "" {
		return errors.New("calendar cache: empty generation")
	}
	raw, err := json.Marshal(cal)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.monthKey(gen, year, month), raw, c.ttl).Err()
}

func (c *CalendarCache) Invalidate(ctx context.Context, venueID int64) error {
	return c.rdb.Incr(ctx, c.versionKey(venueID)).Err()
}

func (c *CalendarCache) InvalidateAll(ctx context.Context) error {
	return c.rdb.Incr(ctx, c.epochKey()).Err()
}

// Ping checks the connection, for startup.
func (c *CalendarCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ParseDB reads a Redis logical database number, defaulting to 0.
func ParseDB(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid redis db %q", s)
	}
	return n, nil
}

var _ availability.CalendarCache = (*CalendarCache)(nil)
