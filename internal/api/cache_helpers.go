package api

import (
	"context"
	"log/slog"

	"offshoreCV/internal/cache"
	"offshoreCV/internal/store"
)

// cacheInvalidator 在所有者写操作后清除其公开 CV 缓存。失败只记录日志，缓存会按 TTL 过期。
type cacheInvalidator struct {
	store *store.Store
	cache *cache.PublicCV
}

func (i cacheInvalidator) invalidate(ctx context.Context, logger *slog.Logger, profileID string) {
	if i.cache == nil {
		return
	}
	owner, err := i.store.FindProfile(ctx, profileID)
	if err != nil {
		logger.Warn("load profile for cache invalidation failed", slog.String("profile_id", profileID), slog.Any("error", err))
		return
	}
	if err := i.cache.Invalidate(ctx, owner.Username); err != nil {
		logger.Warn("invalidate public cv cache failed", slog.String("profile_id", profileID), slog.Any("error", err))
	}
}
