package cache

import (
	"strings"
	"sync"
	"time"

	c "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/util"
)

// Cache is a process-wide read-through cache. Expiry is checked lazily on
// access; a single sweep worker removes expired entries periodically
// instead of arming a timer per entry.
type Cache struct {
	cache         *c.Cache
	defaultExpiry time.Duration
	sweeper       *util.TickWorker
	stop          chan struct{}
	wg            sync.WaitGroup
}

func New(defaultExpiry time.Duration, sweepSeconds int) *Cache {
	ch := &Cache{
		cache:         c.New(defaultExpiry, 0),
		defaultExpiry: defaultExpiry,
		stop:          make(chan struct{}),
	}
	if sweepSeconds > 0 {
		ch.sweeper = util.NewTickWorker("cache-sweep", sweepSeconds, ch.stop, ch.cache.DeleteExpired, &ch.wg)
		ch.sweeper.Start()
	}
	return ch
}

func (ch *Cache) Stop() {
	if ch.sweeper != nil {
		ch.sweeper.Stop()
		ch.wg.Wait()
	}
}

// Key joins cache key segments. Prefix invalidation relies on this
// composition, so all callers build keys through it.
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}

// ReadThrough returns the cached value for key, computing and storing it
// on a miss. A nil computed value is returned but not cached.
func (ch *Cache) ReadThrough(key string, expiry time.Duration, compute func() (any, error)) (any, error) {
	if cached, found := ch.cache.Get(key); found {
		logger.Debug("cache hit", zap.String("key", key))
		return cached, nil
	}
	logger.Debug("cache miss", zap.String("key", key))
	value, err := compute()
	if err != nil {
		return nil, err
	}
	if value != nil {
		if expiry <= 0 {
			expiry = ch.defaultExpiry
		}
		ch.cache.Set(key, value, expiry)
	}
	return value, nil
}

func (ch *Cache) Invalidate(key string) {
	ch.cache.Delete(key)
}

func (ch *Cache) InvalidatePrefix(prefix string) {
	for key := range ch.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			ch.cache.Delete(key)
		}
	}
}
