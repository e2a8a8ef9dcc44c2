package common

import (
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// CacheService is the in-process cache, used when Redis is disabled.
type CacheService struct {
	cache *cache.Cache
	loads singleflight.Group
}

var _ CacheInterface = (*CacheService)(nil)

func NewCacheService(defaultExpiration, cleanUpInterval time.Duration) *CacheService {
	return &CacheService{cache: cache.New(defaultExpiration, cleanUpInterval)}
}

func (cs *CacheService) Set(key string, value interface{}, duration time.Duration) {
	cs.cache.Set(key, value, duration)
}

func (cs *CacheService) Get(key string) (interface{}, bool) {
	return cs.cache.Get(key)
}

func (cs *CacheService) Delete(key string) {
	cs.cache.Delete(key)
}

// GetOrSet runs loader at most once per key at a time; concurrent callers
// for the same key share its result. Errors are not cached.
func (cs *CacheService) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := cs.cache.Get(key); found {
		return val, nil
	}
	val, err, _ := cs.loads.Do(key, func() (interface{}, error) {
		val, err := loader()
		if err != nil {
			return nil, err
		}
		cs.cache.Set(key, val, duration)
		return val, nil
	})
	return val, err
}

// ItemCount is the number of live entries, for the health check.
func (cs *CacheService) ItemCount() int {
	return cs.cache.ItemCount()
}

func (cs *CacheService) Close() error {
	cs.cache.Flush()
	return nil
}
