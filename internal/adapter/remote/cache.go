package remote

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Source implements pipeline.DatasetExtractor over one or more URLs, merging the
// downloaded tables. Each download is cached for a TTL in an LRU cache.
type Source struct {
	urls    []string
	fetcher Fetcher
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewSource creates a cached source. The cache holds at most maxEntries datasets.
func NewSource(urls []string, fetcher Fetcher, maxEntries int, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Source {
	return &Source{
		urls:    urls,
		fetcher: fetcher,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
	}
}

// WithClock replaces the clock used for expiry.
func (s *Source) WithClock(c clockwork.Clock) *Source {
	s.clock = c
	return s
}

// Extract returns the merged dataset of every URL, in URL order. Cached datasets are
// shared; callers must clone before mutating.
func (s *Source) Extract(ctx context.Context) (domain.Dataset, error) {
	parts := make([]domain.Dataset, len(s.urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, u := range s.urls {
		g.Go(func() error {
			ds, err := s.get(gctx, u)
			if err != nil {
				return err
			}
			parts[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Dataset{}, err
	}
	return merge(parts), nil
}

func (s *Source) get(ctx context.Context, url string) (domain.Dataset, error) {
	now := s.clock.Now()
	if ds, ok := s.cache.get(url, now); ok {
		s.metrics.SourceCache.WithLabelValues("hit").Inc()
		return ds, nil
	}
	s.metrics.SourceCache.WithLabelValues("miss").Inc()

	ds, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return domain.Dataset{}, err
	}
	s.cache.put(url, ds, now.Add(s.ttl))
	return ds, nil
}

func merge(parts []domain.Dataset) domain.Dataset {
	if len(parts) == 1 {
		return parts[0]
	}
	out := domain.Dataset{Columns: domain.NewColumnSet()}
	for _, p := range parts {
		for c := range p.Columns {
			out.Columns.Add(c)
		}
		out.Observations = append(out.Observations, p.Observations...)
	}
	return out
}

// lruCache is a simple thread-safe LRU cache of datasets with per-entry expiry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   domain.Dataset
	expires time.Time
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// get returns a live entry. Expired entries are dropped.
func (c *lruCache) get(key string, now time.Time) (domain.Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Dataset{}, false
	}
	if !now.Before(e.expires) {
		delete(c.entries, key)
		c.remove(e)
		return domain.Dataset{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Dataset, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
