package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"codesync/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix     = "user:%d"
	UsernameKeyPrefix = "user:username:%s"
	SnippetKeyPrefix  = "snippet:%d"
	ExploreKey        = "explore:page:data"
)

const (
	UserTTL    = 5 * time.Minute
	SnippetTTL = 30 * time.Minute
	ExploreTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func UsernameKey(username string) string {
	return fmt.Sprintf(UsernameKeyPrefix, username)
}

func SnippetKey(snippetID uint) string {
	return fmt.Sprintf(SnippetKeyPrefix, snippetID)
}

// keyClass reduces a concrete key to its metric label ("user", "snippet", ...).
func keyClass(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// Aside implements the cache-aside pattern: unmarshal the cached value into
// dest if present, otherwise call fetch (which must fill dest) and store the
// result under key. With the cache disabled or failing, fetch runs directly.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}

	raw, err := client.Get(ctx, key).Result()
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(raw), dest); jsonErr == nil {
			observability.RecordCacheHit(keyClass(key))
			return nil
		}
		// Corrupt entry: drop it and fall through to fetch.
		client.Del(ctx, key)
	} else if err != redis.Nil {
		// Redis unavailable mid-flight; serve from the source.
		return fetch()
	}

	observability.RecordCacheMiss(keyClass(key))

	if err := fetch(); err != nil {
		return err
	}

	if data, jsonErr := json.Marshal(dest); jsonErr == nil {
		client.Set(ctx, key, data, ttl)
	}
	return nil
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateUsername(ctx context.Context, username string) {
	Invalidate(ctx, UsernameKey(username))
}

func InvalidateSnippet(ctx context.Context, snippetID uint) {
	Invalidate(ctx, SnippetKey(snippetID))
}

func InvalidateExplore(ctx context.Context) {
	Invalidate(ctx, ExploreKey)
}
