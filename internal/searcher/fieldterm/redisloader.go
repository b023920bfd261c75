package fieldterm

import (
	"context"
	"fmt"
	"strings"

	pkgredis "github.com/bestmax/bestmax/pkg/redis"
)

const (
	termKeyPrefix  = "fieldterms:terms:"
	cachedFieldKey = "fieldterms:cached"
)

// RedisLoader loads field-term snapshots from Redis. Terms live in one set
// per field under "fieldterms:terms:<field>"; fields opted into filtering
// are members of the "fieldterms:cached" set.
type RedisLoader struct {
	client *pkgredis.Client
}

// NewRedisLoader creates a Redis-backed Loader.
func NewRedisLoader(client *pkgredis.Client) *RedisLoader {
	return &RedisLoader{client: client}
}

// LoadAll reads the complete field-term snapshot.
func (l *RedisLoader) LoadAll(ctx context.Context) (map[string]Entry, error) {
	cachedFields, err := l.client.SMembers(ctx, cachedFieldKey)
	if err != nil && !pkgredis.IsNilError(err) {
		return nil, fmt.Errorf("reading cached field set: %w", err)
	}
	cached := make(map[string]struct{}, len(cachedFields))
	for _, f := range cachedFields {
		cached[f] = struct{}{}
	}

	keys, err := l.client.Keys(ctx, termKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scanning field-term keys: %w", err)
	}

	entries := make(map[string]Entry, len(keys))
	for _, key := range keys {
		field := strings.TrimPrefix(key, termKeyPrefix)
		terms, err := l.client.SMembers(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("reading terms for field %s: %w", field, err)
		}
		_, shouldCache := cached[field]
		entries[field] = NewEntry(shouldCache, terms)
	}
	for field := range cached {
		if _, ok := entries[field]; !ok {
			entries[field] = NewEntry(true, nil)
		}
	}
	return entries, nil
}
