package pager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"vibewall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceFetcher serves pages out of items and counts calls.
func sliceFetcher(items []int, calls *atomic.Int32) Fetcher[int] {
	return func(_ context.Context, page, size int) (models.Page[int], error) {
		calls.Add(1)
		start := page * size
		if start > len(items) {
			start = len(items)
		}
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		return models.Page[int]{
			Content: append([]int(nil), items[start:end]...),
			Number:  page,
			Last:    end >= len(items),
		}, nil
	}
}

func seven() []int {
	return []int{1, 2, 3, 4, 5, 6, 7}
}

func TestController_WalksPages(t *testing.T) {
	var calls atomic.Int32
	c := New(sliceFetcher(seven(), &calls))
	ctx := context.Background()

	require.NoError(t, c.Reset(ctx))
	s := c.Snapshot()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.Items)
	assert.Equal(t, 0, s.PageIndex)
	assert.True(t, s.HasMore)
	assert.False(t, s.HasPrevious())
	assert.False(t, s.Loading)

	require.NoError(t, c.NextPage(ctx))
	s = c.Snapshot()
	assert.Equal(t, []int{6, 7}, s.Items)
	assert.Equal(t, 1, s.PageIndex)
	assert.False(t, s.HasMore)

	before := calls.Load()
	require.NoError(t, c.NextPage(ctx))
	assert.Equal(t, before, calls.Load(), "next on last page must not fetch")
	assert.Equal(t, 1, c.Snapshot().PageIndex)

	require.NoError(t, c.PreviousPage(ctx))
	s = c.Snapshot()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.Items)
	assert.Equal(t, 0, s.PageIndex)

	before = calls.Load()
	require.NoError(t, c.PreviousPage(ctx))
	assert.Equal(t, before, calls.Load(), "previous on page 0 must not fetch")
}

func TestController_ItemsNeverExceedPageSize(t *testing.T) {
	var calls atomic.Int32
	c := New(sliceFetcher(seven(), &calls), WithPageSize(3))
	ctx := context.Background()

	require.NoError(t, c.Reset(ctx))
	for c.Snapshot().HasMore {
		require.NoError(t, c.NextPage(ctx))
		assert.LessOrEqual(t, len(c.Snapshot().Items), 3)
	}
	assert.Equal(t, []int{7}, c.Snapshot().Items)
	assert.Equal(t, 3, c.PageSize())
}

func TestController_LoadPageIsIdempotent(t *testing.T) {
	var calls atomic.Int32
	c := New(sliceFetcher(seven(), &calls))
	ctx := context.Background()

	require.NoError(t, c.LoadPage(ctx, 1))
	first := c.Snapshot()
	require.NoError(t, c.LoadPage(ctx, 1))
	assert.Equal(t, first, c.Snapshot())
}

func TestController_FailureKeepsItems(t *testing.T) {
	var fail atomic.Bool
	var calls atomic.Int32
	inner := sliceFetcher(seven(), &calls)
	boom := errors.New("backend down")
	c := New(func(ctx context.Context, page, size int) (models.Page[int], error) {
		if fail.Load() {
			return models.Page[int]{}, boom
		}
		return inner(ctx, page, size)
	})
	ctx := context.Background()

	require.NoError(t, c.Reset(ctx))
	fail.Store(true)

	err := c.NextPage(ctx)
	assert.ErrorIs(t, err, boom)
	s := c.Snapshot()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.Items)
	assert.Equal(t, 0, s.PageIndex)
	assert.False(t, s.Loading)
}

func TestController_ResetDiscardsOlderResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var calls atomic.Int32
	inner := sliceFetcher(seven(), &calls)

	c := New(func(ctx context.Context, page, size int) (models.Page[int], error) {
		if page == 1 {
			once.Do(func() { close(started) })
			<-release
		}
		return inner(ctx, page, size)
	}, WithName("test"))
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() { errc <- c.LoadPage(ctx, 1) }()
	<-started
	assert.True(t, c.Snapshot().Loading)

	require.NoError(t, c.Reset(ctx))
	close(release)

	assert.ErrorIs(t, <-errc, models.ErrStale)
	s := c.Snapshot()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.Items)
	assert.Equal(t, 0, s.PageIndex)
	assert.False(t, s.Loading)
}

func TestController_ResetClearsWindowBeforeFetchResolves(t *testing.T) {
	var calls atomic.Int32
	var block atomic.Bool
	started := make(chan struct{})
	release := make(chan struct{})
	inner := sliceFetcher(seven(), &calls)

	c := New(func(ctx context.Context, page, size int) (models.Page[int], error) {
		if block.Load() {
			close(started)
			<-release
		}
		return inner(ctx, page, size)
	})
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))
	require.NoError(t, c.NextPage(ctx))
	require.Equal(t, 1, c.Snapshot().PageIndex)

	block.Store(true)
	errc := make(chan error, 1)
	go func() { errc <- c.Reset(ctx) }()
	<-started

	mid := c.Snapshot()
	assert.Equal(t, 0, mid.PageIndex)
	assert.Empty(t, mid.Items)
	assert.False(t, mid.HasMore)
	assert.True(t, mid.Loading)

	close(release)
	require.NoError(t, <-errc)
	s := c.Snapshot()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.Items)
	assert.True(t, s.HasMore)
	assert.False(t, s.Loading)
}

func TestController_NewFetchCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	var calls atomic.Int32
	inner := sliceFetcher(seven(), &calls)

	c := New(func(ctx context.Context, page, size int) (models.Page[int], error) {
		if page == 1 {
			once.Do(func() { close(started) })
			<-ctx.Done()
			return models.Page[int]{}, ctx.Err()
		}
		return inner(ctx, page, size)
	})
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() { errc <- c.LoadPage(ctx, 1) }()
	<-started

	require.NoError(t, c.LoadPage(ctx, 0))
	assert.ErrorIs(t, <-errc, models.ErrStale)
	assert.Equal(t, 0, c.Snapshot().PageIndex)
}

func TestController_RemoveDropsOnlyMatches(t *testing.T) {
	var calls atomic.Int32
	c := New(sliceFetcher(seven(), &calls))
	require.NoError(t, c.Reset(context.Background()))

	n := c.Remove(func(v int) bool { return v == 3 })
	assert.Equal(t, 1, n)
	assert.Equal(t, []int{1, 2, 4, 5}, c.Snapshot().Items)

	assert.Zero(t, c.Remove(func(v int) bool { return v == 99 }))
}

func TestController_RefreshReloadsCurrentPage(t *testing.T) {
	items := seven()
	var calls atomic.Int32
	var mu sync.Mutex
	c := New(func(ctx context.Context, page, size int) (models.Page[int], error) {
		mu.Lock()
		defer mu.Unlock()
		return sliceFetcher(items, &calls)(ctx, page, size)
	})
	ctx := context.Background()

	require.NoError(t, c.Reset(ctx))
	require.NoError(t, c.NextPage(ctx))

	mu.Lock()
	items = append(items, 8)
	mu.Unlock()

	require.NoError(t, c.Refresh(ctx))
	s := c.Snapshot()
	assert.Equal(t, 1, s.PageIndex)
	assert.Equal(t, []int{6, 7, 8}, s.Items)
}

func TestController_SnapshotIsACopy(t *testing.T) {
	var calls atomic.Int32
	c := New(sliceFetcher(seven(), &calls))
	require.NoError(t, c.Reset(context.Background()))

	s := c.Snapshot()
	s.Items[0] = 100
	assert.Equal(t, 1, c.Snapshot().Items[0])
}
