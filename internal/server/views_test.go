package server

import (
	"testing"
	"time"

	"vibewall/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewRegistrySweepsIdleSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newViewRegistry()
	r.now = func() time.Time { return now }

	api := gateway.New("http://backend.invalid")
	create := func() *viewState { return newViewState(api, 1, 5) }

	a := r.Get("a", create)
	r.Get("b", create)
	require.Equal(t, 2, r.Len())
	assert.Same(t, a, r.Get("a", create))

	// a is refreshed, b goes idle.
	now = now.Add(20 * time.Minute)
	a.touch(now)
	now = now.Add(20 * time.Minute)

	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	assert.Equal(t, 1, r.Len())
	assert.Same(t, a, r.Get("a", create))

	r.Drop("a")
	assert.Equal(t, 0, r.Len())
}

func TestViewStateSwitchesWalls(t *testing.T) {
	vs := newViewState(gateway.New("http://backend.invalid"), 1, 5)

	w, fresh := vs.Wall(2)
	assert.True(t, fresh)
	again, fresh := vs.Wall(2)
	assert.False(t, fresh)
	assert.Same(t, w, again)

	other, fresh := vs.Wall(3)
	assert.True(t, fresh)
	assert.NotSame(t, w, other)
	assert.Same(t, other, vs.MountedWall())
}

func TestViewStateFlashIsTakenOnce(t *testing.T) {
	vs := newViewState(gateway.New("http://backend.invalid"), 1, 5)
	vs.SetFlash("Could not delete the post")
	assert.Equal(t, "Could not delete the post", vs.TakeFlash())
	assert.Empty(t, vs.TakeFlash())
}
