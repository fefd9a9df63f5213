package memory

import (
	"context"
	"time"

	"gym-membership-be/internal/repository/unitofwork"

	"github.com/patrickmn/go-cache"
)

// SettingsCache keeps admin settings in process for a short TTL so every
// lifecycle run does not hit admin_settings.
type SettingsCache struct {
	cache      *cache.Cache
	uowFactory unitofwork.RepositoryFactory
}

type cachedSetting struct {
	value string
	found bool
}

func NewSettingsCache(uowFactory unitofwork.RepositoryFactory, ttl time.Duration) *SettingsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SettingsCache{
		cache:      cache.New(ttl, 2*ttl),
		uowFactory: uowFactory,
	}
}

// Get returns the setting value. Misses are cached too; errors are not.
func (c *SettingsCache) Get(ctx context.Context, key string) (string, bool, error) {
	if x, ok := c.cache.Get(key); ok {
		hit := x.(cachedSetting)
		return hit.value, hit.found, nil
	}

	value, found, err := c.uowFactory.NewUnitOfWork(ctx).SettingsRepository().Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	c.cache.Set(key, cachedSetting{value: value, found: found}, cache.DefaultExpiration)
	return value, found, nil
}

func (c *SettingsCache) Invalidate(key string) {
	c.cache.Delete(key)
}
