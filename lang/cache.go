package lang

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Cache loads templates by path.
//
// In production mode each path is compiled at most once: concurrent cold
// loads of one path share a single read and parse, and later loads reuse
// the result. Failed loads are never stored, so the next load retries with
// fresh source. In development mode every load recompiles and nothing is
// stored.
type Cache struct {
	entries  sync.Map // canonical path -> *Template
	flight   singleflight.Group
	opts     options
	compiles atomic.Int64
	hits     atomic.Int64
}

// CacheStats reports cache activity since creation.
type CacheStats struct {
	Compiles int64
	Hits     int64
	Entries  int
}

// NewCache returns an empty Cache. Options are applied to every template it
// compiles.
func NewCache(opts ...Option) *Cache {
	return &Cache{opts: makeOptions(opts...)}
}

// Development reports whether c recompiles on every load.
func (c *Cache) Development() bool { return c.opts.dev }

// Load returns the compiled template at path.
func (c *Cache) Load(ctx context.Context, path string) (*Template, error) {
	key, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}

	if c.opts.dev {
		return c.compile(ctx, key)
	}

	if t, ok := c.entries.Load(key); ok {
		c.hits.Add(1)
		c.opts.logger.TraceContext(ctx, "cache hit", slog.String("path", key))

		return t.(*Template), nil
	}

	var ran bool

	v, err, shared := c.flight.Do(key, func() (any, error) {
		ran = true

		// A flight that finished between the lookup above and Do has
		// already stored the template.
		if t, ok := c.entries.Load(key); ok {
			c.hits.Add(1)

			return t, nil
		}

		t, err := c.compile(ctx, key)
		if err != nil {
			return nil, err
		}

		c.entries.Store(key, t)

		return t, nil
	})
	if err != nil {
		return nil, err
	}

	// Every caller of a shared flight sees shared; only the one that ran
	// it paid for the compile.
	if shared && !ran {
		c.hits.Add(1)
		c.opts.logger.TraceContext(ctx, "cache load shared", slog.String("path", key))
	}

	return v.(*Template), nil
}

func (c *Cache) compile(ctx context.Context, path string) (*Template, error) {
	c.compiles.Add(1)

	return load(ctx, path, c.opts)
}

// Render loads the template at path and renders it against vars.
func (c *Cache) Render(ctx context.Context, path string, vars Context) (string, error) {
	t, err := c.Load(ctx, path)
	if err != nil {
		return "", err
	}

	return t.Render(ctx, vars)
}

// Forget drops the compiled template for path, if any.
func (c *Cache) Forget(path string) {
	if key, err := canonicalPath(path); err == nil {
		c.entries.Delete(key)
	}
}

// Reset drops every compiled template.
func (c *Cache) Reset() { c.entries.Clear() }

// Len returns the number of compiled templates held.
func (c *Cache) Len() int {
	n := 0

	c.entries.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// Stats returns a snapshot of cache activity.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Compiles: c.compiles.Load(),
		Hits:     c.hits.Load(),
		Entries:  c.Len(),
	}
}
