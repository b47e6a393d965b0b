// Package cache keeps short-lived publish state in Redis.
//
// The publish guard remembers titles this bot created recently. The wiki's
// existence index can lag behind a fresh edit, so the guard is OR-ed into it:
// a title the guard has seen is treated as existing even when the wiki
// still says missing. The guard can only add "exists" answers, never remove
// them, and when Redis is down the wiki answer is used alone.
package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/maccabipedia/basketbot/internal/game"
	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

const keyPrefix = "basketbot:published:"

// KV is the part of the Redis client the guard uses.
type KV interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// PublishGuard records recently published titles.
type PublishGuard struct {
	kv     KV
	ttl    time.Duration
	logger *logging.Logger
}

// NewPublishGuard builds a guard whose marks expire after ttl.
func NewPublishGuard(kv KV, ttl time.Duration, logger *logging.Logger) *PublishGuard {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &PublishGuard{kv: kv, ttl: ttl, logger: logger.Component("publish-guard")}
}

// Key is the Redis key of a title.
func Key(title string) string {
	return keyPrefix + title
}

// Seen reports which of titles were marked.
func (g *PublishGuard) Seen(ctx context.Context, titles []string) (map[string]bool, error) {
	seen := make(map[string]bool, len(titles))
	if len(titles) == 0 {
		return seen, nil
	}

	keys := make([]string, len(titles))
	for i, t := range titles {
		keys[i] = Key(t)
	}

	values, err := g.kv.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read publish marks")
	}
	for i, v := range values {
		if v != nil && i < len(titles) {
			seen[titles[i]] = true
		}
	}
	return seen, nil
}

// Mark remembers title as published.
func (g *PublishGuard) Mark(ctx context.Context, title string) error {
	if err := g.kv.Set(ctx, Key(title), time.Now().UTC().Format(time.RFC3339), g.ttl).Err(); err != nil {
		return errors.Wrapf(err, "mark %s", title)
	}
	return nil
}

// Published implements pipeline.Observer.
func (g *PublishGuard) Published(ctx context.Context, p pipeline.Publication) {
	if err := g.Mark(ctx, p.Title); err != nil {
		g.logger.Warn("failed to mark published title", "title", p.Title, "error", err)
	}
}

// Wrap returns an index provider that also treats guarded titles as existing.
func (g *PublishGuard) Wrap(inner pipeline.IndexProvider) pipeline.IndexProvider {
	return &guardedIndex{inner: inner, guard: g}
}

type guardedIndex struct {
	inner pipeline.IndexProvider
	guard *PublishGuard
}

func (gi *guardedIndex) CheckExistence(ctx context.Context, titles []string) (game.ExistenceIndex, error) {
	index, err := gi.inner.CheckExistence(ctx, titles)
	if err != nil || index == nil {
		return index, err
	}

	seen, err := gi.guard.Seen(ctx, titles)
	if err != nil {
		gi.guard.logger.Warn("publish guard unavailable, using wiki index only", "error", err)
		return index, nil
	}
	if len(seen) == 0 {
		return index, nil
	}

	return func(title string) bool {
		return index(title) || seen[title]
	}, nil
}
