package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vibewall/internal/friendship"
	"vibewall/internal/gateway"
	"vibewall/internal/models"
	"vibewall/internal/observability"
	"vibewall/internal/pager"
)

// wallView is one user's wall as seen by the viewer.
type wallView struct {
	userID  uint
	posts   *pager.Controller[models.Post]
	related *friendship.Controller

	mu      sync.Mutex
	profile models.UserProfile
	friends []models.UserProfile
}

func (w *wallView) setProfile(p models.UserProfile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.profile = p
}

func (w *wallView) Profile() models.UserProfile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.profile
}

func (w *wallView) setFriends(f []models.UserProfile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.friends = f
}

func (w *wallView) Friends() []models.UserProfile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.UserProfile(nil), w.friends...)
}

// commentsView is the thread under one post.
type commentsView struct {
	postID   uint
	comments *pager.Controller[models.Comment]
}

// viewState holds every mounted view of one browser session. Each
// controller guards its own state; mu only protects which controllers
// are mounted.
type viewState struct {
	api      *gateway.Client
	userID   uint
	pageSize int

	mu       sync.Mutex
	lastSeen time.Time
	flash    string
	feed     *pager.Controller[models.Post]
	requests *friendship.RequestList
	wall     *wallView
	thread   *commentsView
}

func newViewState(api *gateway.Client, userID uint, pageSize int) *viewState {
	return &viewState{api: api, userID: userID, pageSize: pageSize, lastSeen: time.Now()}
}

// Feed returns the feed controller, creating it on first use.
func (v *viewState) Feed() *pager.Controller[models.Post] {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.feed == nil {
		v.feed = pager.New(v.api.ListPosts, pager.WithPageSize(v.pageSize), pager.WithName("feed"))
	}
	return v.feed
}

// Requests returns the incoming friend request list.
func (v *viewState) Requests() *friendship.RequestList {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.requests == nil {
		v.requests = friendship.NewRequestList(v.api, v.userID)
	}
	return v.requests
}

// Wall returns the wall for userID. Switching to another user discards
// the previous wall and starts from page 0.
func (v *viewState) Wall(userID uint) (w *wallView, fresh bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.wall != nil && v.wall.userID == userID {
		return v.wall, false
	}
	if v.wall != nil {
		v.wall.posts.Close()
	}

	w = &wallView{userID: userID, related: friendship.New(v.api, v.userID, userID)}
	w.posts = pager.New(func(ctx context.Context, page, size int) (models.Page[models.Post], error) {
		wall, err := v.api.GetWall(ctx, userID, page, size)
		if err != nil {
			return models.Page[models.Post]{}, err
		}
		w.setProfile(wall.User)
		return wall.Posts, nil
	}, pager.WithPageSize(v.pageSize), pager.WithName("wall"))
	v.wall = w
	return w, true
}

// MountedWall returns the wall currently mounted, or nil.
func (v *viewState) MountedWall() *wallView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.wall
}

// Comments returns the thread for postID, replacing any other thread.
func (v *viewState) Comments(postID uint) (t *commentsView, fresh bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.thread != nil && v.thread.postID == postID {
		return v.thread, false
	}
	if v.thread != nil {
		v.thread.comments.Close()
	}
	t = &commentsView{
		postID: postID,
		comments: pager.New(func(ctx context.Context, page, size int) (models.Page[models.Comment], error) {
			return v.api.ListComments(ctx, postID, page, size)
		}, pager.WithPageSize(v.pageSize), pager.WithName("comments")),
	}
	v.thread = t
	return t, true
}

// SetFlash stores a message for the next rendered page.
func (v *viewState) SetFlash(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flash = msg
}

// TakeFlash returns and clears the pending message.
func (v *viewState) TakeFlash() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	msg := v.flash
	v.flash = ""
	return msg
}

func (v *viewState) touch(now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastSeen = now
}

func (v *viewState) idleSince(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.lastSeen)
}

// close cancels every in-flight fetch.
func (v *viewState) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.feed != nil {
		v.feed.Close()
	}
	if v.wall != nil {
		v.wall.posts.Close()
	}
	if v.thread != nil {
		v.thread.comments.Close()
	}
}

// viewRegistry maps session ids to their view state.
type viewRegistry struct {
	mu    sync.Mutex
	views map[string]*viewState
	now   func() time.Time
}

func newViewRegistry() *viewRegistry {
	return &viewRegistry{views: make(map[string]*viewState), now: time.Now}
}

// Get returns the views for sessionID, creating them with create if absent.
func (r *viewRegistry) Get(sessionID string, create func() *viewState) *viewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[sessionID]
	if !ok {
		v = create()
		r.views[sessionID] = v
		observability.ActiveViews.Inc()
	}
	v.touch(r.now())
	return v
}

// Drop discards the views for sessionID.
func (r *viewRegistry) Drop(sessionID string) {
	r.mu.Lock()
	v, ok := r.views[sessionID]
	delete(r.views, sessionID)
	r.mu.Unlock()
	if ok {
		v.close()
		observability.ActiveViews.Dec()
	}
}

// Sweep drops views idle for longer than ttl and returns how many it dropped.
func (r *viewRegistry) Sweep(ttl time.Duration) int {
	now := r.now()
	var idle []string
	r.mu.Lock()
	for id, v := range r.views {
		if v.idleSince(now) > ttl {
			idle = append(idle, id)
		}
	}
	r.mu.Unlock()
	for _, id := range idle {
		r.Drop(id)
	}
	return len(idle)
}

// Len returns the number of live sessions.
func (r *viewRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// runSweeper sweeps every interval until ctx is done.
func (r *viewRegistry) runSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(ttl); n > 0 {
				observability.Logger.DebugContext(ctx, "dropped idle views", slog.Int("count", n))
			}
		}
	}
}
