package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/namecdn/internal/entry"
)

// RedisCacheRecords wraps entry.Records with a Redis read-through cache.
// Entries are immutable, so only deletion needs to invalidate.
type RedisCacheRecords struct {
	records entry.Records
	client  *redis.Client
	prefix  string
	ttl     time.Duration
}

// NewRedisCacheRecords creates a new Redis-cached records decorator.
func NewRedisCacheRecords(records entry.Records, client *redis.Client, ttl time.Duration) *RedisCacheRecords {
	return &RedisCacheRecords{
		records: records,
		client:  client,
		prefix:  "entry:",
		ttl:     ttl,
	}
}

// Get checks the cache first and populates it on a miss.
func (r *RedisCacheRecords) Get(ctx context.Context, name string) (*entry.Entry, error) {
	if e, err := r.getFromCache(ctx, name); err == nil {
		return e, nil
	}

	e, err := r.records.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	r.cacheEntry(ctx, e)

	return e, nil
}

func (r *RedisCacheRecords) Exists(ctx context.Context, name string) (bool, error) {
	if n, err := r.client.Exists(ctx, r.prefix+name).Result(); err == nil && n > 0 {
		return true, nil
	}

	return r.records.Exists(ctx, name)
}

// Insert writes through to the cache after a successful insert.
func (r *RedisCacheRecords) Insert(ctx context.Context, e *entry.Entry) error {
	if err := r.records.Insert(ctx, e); err != nil {
		return err
	}

	r.cacheEntry(ctx, e)

	return nil
}

// DeleteRecord drops the cached copy before and after the backend delete so a
// concurrent Get cannot resurrect it from a stale read.
func (r *RedisCacheRecords) DeleteRecord(ctx context.Context, name string) (bool, error) {
	_ = r.client.Del(ctx, r.prefix+name).Err()

	deleted, err := r.records.DeleteRecord(ctx, name)
	if err != nil {
		return false, err
	}

	_ = r.client.Del(ctx, r.prefix+name).Err()

	return deleted, nil
}

func (r *RedisCacheRecords) getFromCache(ctx context.Context, name string) (*entry.Entry, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+name).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, entry.ErrNotFound
	}

	code, err := strconv.ParseInt(result["kind"], 10, 64)
	if err != nil {
		return nil, err
	}

	kind, err := entry.KindFromCode(code)
	if err != nil {
		return nil, err
	}

	var created time.Time

	if ts, ok := result["created"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			created = time.Unix(0, nanos)
		}
	}

	e := &entry.Entry{
		Name:    result["name"],
		Kind:    kind,
		URL:     result["url"],
		Ext:     result["ext"],
		Created: created,
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	return e, nil
}

func (r *RedisCacheRecords) cacheEntry(ctx context.Context, e *entry.Entry) {
	pipe := r.client.Pipeline()
	key := r.prefix + e.Name

	pipe.HSet(ctx, key, map[string]interface{}{
		"name":    e.Name,
		"kind":    e.Kind.Code(),
		"url":     e.URL,
		"ext":     e.Ext,
		"created": e.Created.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

var _ entry.Records = (*RedisCacheRecords)(nil)
