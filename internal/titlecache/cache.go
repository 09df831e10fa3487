package titlecache

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fetcher loads the full title list from its source of truth.
type Fetcher func(ctx context.Context) ([]string, error)

// Store is an optional shared copy of the title list, consulted before the Fetcher.
type Store interface {
	Get(ctx context.Context) ([]string, bool, error)
	Put(ctx context.Context, titles []string) error
}

// Cache holds the title list for one controller. It is filled at most once; a failed load
// leaves it empty so a later Load can try again. Once filled it is never invalidated.
type Cache struct {
	mu     sync.Mutex
	loaded bool
	titles []string

	fetch  Fetcher
	store  Store
	logger *logrus.Logger
}

func New(fetch Fetcher, store Store, logger *logrus.Logger) *Cache {
	if logger == nil {
		logger = logrus.New()
	}
	return &Cache{fetch: fetch, store: store, logger: logger}
}

// Load fills the cache unless it is already filled.
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}

	if c.store != nil {
		titles, ok, err := c.store.Get(ctx)
		switch {
		case err != nil:
			c.logger.WithError(err).Warn("Shared title cache unavailable, fetching from backend")
		case ok:
			c.set(titles)
			return nil
		}
	}

	titles, err := c.fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load anime titles: %w", err)
	}
	c.set(titles)

	if c.store != nil {
		if err := c.store.Put(ctx, titles); err != nil {
			c.logger.WithError(err).Warn("Failed to share title list")
		}
	}

	c.logger.WithField("titles", len(titles)).Debug("Title cache loaded")
	return nil
}

func (c *Cache) set(titles []string) {
	c.titles = append([]string(nil), titles...)
	c.loaded = true
}

// Titles returns the cached titles, empty before a successful Load. Callers must not modify
// the returned slice.
func (c *Cache) Titles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.titles
}

func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}
