package chat

import (
	"context"
	"time"

	"github.com/Martingim-10/retirex/internal/cache"
	"go.uber.org/zap"
)

// CachedLookup consults a cache before the wrapped lookup and stores hits.
// Misses are not cached so that new sheet rows show up immediately.
type CachedLookup struct {
	next   KeywordLookup
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedLookup decorates next with c.
func NewCachedLookup(next KeywordLookup, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLookup{next: next, cache: c, ttl: ttl, logger: logger}
}

// Lookup implements KeywordLookup. Cache failures degrade to the wrapped lookup.
func (l *CachedLookup) Lookup(ctx context.Context, keyword string) (string, bool, error) {
	if answer, ok, err := l.cache.Get(ctx, keyword); err != nil {
		l.logger.Warn("keyword cache read failed",
			zap.String("op", "chat.CachedLookup"),
			zap.Error(err),
		)
	} else if ok {
		return answer, true, nil
	}

	answer, ok, err := l.next.Lookup(ctx, keyword)
	if err != nil || !ok {
		return answer, ok, err
	}

	if err := l.cache.Set(ctx, keyword, answer, l.ttl); err != nil {
		l.logger.Warn("keyword cache write failed",
			zap.String("op", "chat.CachedLookup"),
			zap.Error(err),
		)
	}
	return answer, true, nil
}
