// Package pager drives a server-held list one fixed-size page at a time.
package pager

import (
	"context"
	"log/slog"
	"sync"

	"vibewall/internal/models"
	"vibewall/internal/observability"
)

// DefaultPageSize is used when no size is configured.
const DefaultPageSize = 5

// Fetcher returns page number page of size items.
type Fetcher[T any] func(ctx context.Context, page, size int) (models.Page[T], error)

// State is a point-in-time copy of a Controller.
type State[T any] struct {
	Items     []T
	PageIndex int
	HasMore   bool
	Loading   bool
}

// HasPrevious reports whether a previous page exists.
func (s State[T]) HasPrevious() bool {
	return s.PageIndex > 0
}

// Controller holds the current window of a paginated list. Only the most
// recently started fetch may change its state.
type Controller[T any] struct {
	fetch  Fetcher[T]
	size   int
	name   string
	logger *slog.Logger

	mu      sync.Mutex
	items   []T
	page    int
	hasMore bool
	loading bool
	gen     uint64
	cancel  context.CancelFunc
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	size   int
	name   string
	logger *slog.Logger
}

// WithPageSize sets the number of items per page.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.size = n
		}
	}
}

// WithName labels the list in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New returns an empty controller. Call Reset to load the first page.
func New[T any](fetch Fetcher[T], opts ...Option) *Controller[T] {
	o := options{size: DefaultPageSize, name: "list", logger: observability.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[T]{
		fetch:  fetch,
		size:   o.size,
		name:   o.name,
		logger: o.logger.With(slog.String("list", o.name)),
	}
}

// PageSize returns the configured page size.
func (c *Controller[T]) PageSize() int {
	return c.size
}

// Reset empties the window and loads page 0. The cleared window is
// visible to Snapshot before the fetch resolves.
func (c *Controller[T]) Reset(ctx context.Context) error {
	return c.load(ctx, 0, true)
}

// LoadPage replaces the window with page n. On failure the window is left
// as it was. A fetch overtaken by a newer one returns models.ErrStale.
func (c *Controller[T]) LoadPage(ctx context.Context, n int) error {
	return c.load(ctx, n, false)
}

func (c *Controller[T]) load(ctx context.Context, n int, reset bool) error {
	if n < 0 {
		n = 0
	}

	c.mu.Lock()
	if reset {
		c.items = nil
		c.page = 0
		c.hasMore = false
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.gen == gen {
			c.loading = false
			c.cancel = nil
		}
		c.mu.Unlock()
		cancel()
	}()

	page, err := c.fetch(fetchCtx, n, c.size)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		observability.StaleResponses.WithLabelValues(c.name).Inc()
		c.logger.DebugContext(ctx, "discarding stale page", slog.Int("page", n))
		return models.ErrStale
	}
	if err != nil {
		c.logger.WarnContext(ctx, "page load failed",
			slog.Int("page", n),
			slog.String("error", err.Error()),
		)
		return err
	}

	c.items = append([]T(nil), page.Content...)
	c.page = n
	c.hasMore = !page.Last
	return nil
}

// NextPage loads the following page. It does nothing on the last page.
func (c *Controller[T]) NextPage(ctx context.Context) error {
	c.mu.Lock()
	next, ok := c.page+1, c.hasMore
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.LoadPage(ctx, next)
}

// PreviousPage loads the preceding page. It does nothing on page 0.
func (c *Controller[T]) PreviousPage(ctx context.Context) error {
	c.mu.Lock()
	prev := c.page - 1
	c.mu.Unlock()
	if prev < 0 {
		return nil
	}
	return c.LoadPage(ctx, prev)
}

// Refresh reloads the current page.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	n := c.page
	c.mu.Unlock()
	return c.LoadPage(ctx, n)
}

// Remove drops every item in the window for which match returns true and
// reports how many were dropped.
func (c *Controller[T]) Remove(match func(T) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0:0]
	for _, it := range c.items {
		if !match(it) {
			kept = append(kept, it)
		}
	}
	removed := len(c.items) - len(kept)
	c.items = kept
	return removed
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State[T]{
		Items:     append([]T(nil), c.items...),
		PageIndex: c.page,
		HasMore:   c.hasMore,
		Loading:   c.loading,
	}
}

// Close cancels any fetch still in flight.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.loading = false
}
