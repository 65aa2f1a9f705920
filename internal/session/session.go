// Package session holds the authenticated identity of a browser and the
// token its requests are sent with.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vibewall/internal/gateway"
	"vibewall/internal/models"
	"vibewall/internal/observability"

	"github.com/google/uuid"
)

// Session is one logged-in browser.
type Session struct {
	ID        string              `json:"id"`
	Token     string              `json:"token"`
	UserID    uint                `json:"userId"`
	User      *models.UserProfile `json:"user,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// CurrentToken returns the bearer token, or "" for a nil session.
func (s *Session) CurrentToken() string {
	if s == nil {
		return ""
	}
	return s.Token
}

// CurrentUserID returns the authenticated user id, or 0 for a nil session.
func (s *Session) CurrentUserID() uint {
	if s == nil {
		return 0
	}
	return s.UserID
}

// Name returns the user's display name when known.
func (s *Session) Name() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Name()
}

// Listener is notified when a session begins or ends.
type Listener func(ctx context.Context, sessionID string)

// Manager creates, resolves and destroys sessions.
type Manager struct {
	api    *gateway.Client
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	onLogin  []Listener
	onLogout []Listener
}

// NewManager returns a Manager that authenticates against api and keeps
// sessions in store for ttl.
func NewManager(api *gateway.Client, store Store, ttl time.Duration) *Manager {
	return &Manager{
		api:    api,
		store:  store,
		ttl:    ttl,
		logger: observability.Logger.With(slog.String("component", "session")),
		now:    time.Now,
	}
}

// OnLogin registers fn to run after a session is created.
func (m *Manager) OnLogin(fn Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogin = append(m.onLogin, fn)
}

// OnLogout registers fn to run after a session is destroyed.
func (m *Manager) OnLogout(fn Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = append(m.onLogout, fn)
}

func (m *Manager) notify(ctx context.Context, login bool, id string) {
	m.mu.RLock()
	list := m.onLogout
	if login {
		list = m.onLogin
	}
	list = append([]Listener(nil), list...)
	m.mu.RUnlock()
	for _, fn := range list {
		fn(ctx, id)
	}
}

// Register creates an account. It does not log the user in.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	return m.api.Register(ctx, username, email, password)
}

// Login authenticates with the backend and stores a new session.
// The user id comes from the login response, the token claims or
// GET /users/me, whichever yields one first.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	resp, err := m.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Token:     resp.Token,
		UserID:    resp.UserID,
		User:      resp.User,
		CreatedAt: m.now(),
	}
	if sess.UserID == 0 && sess.User != nil {
		sess.UserID = sess.User.ID
	}
	if sess.UserID == 0 {
		if id, _, err := identityFromToken(resp.Token); err == nil {
			sess.UserID = id
		} else {
			m.logger.DebugContext(ctx, "token has no usable identity", slog.String("error", err.Error()))
		}
	}
	if sess.User == nil {
		me, err := m.api.WithToken(resp.Token).GetMe(ctx)
		switch {
		case err == nil:
			sess.User = me
			if sess.UserID == 0 {
				sess.UserID = me.ID
			}
		case errors.Is(err, context.Canceled):
			return nil, err
		default:
			m.logger.WarnContext(ctx, "could not load own profile", slog.String("error", err.Error()))
		}
	}
	if sess.UserID == 0 {
		return nil, models.NewAuthError("login", fmt.Errorf("could not determine user identity"))
	}
	if sess.User == nil {
		sess.User = &models.UserProfile{ID: sess.UserID, Username: username}
	}

	if err := m.store.Save(ctx, sess, m.ttl); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	ctx = observability.WithUserID(ctx, sess.UserID)
	m.logger.InfoContext(ctx, "user logged in", slog.String("session_id", sess.ID))
	m.notify(ctx, true, sess.ID)
	return sess, nil
}

// Get resolves a session id and extends its lifetime.
// It returns models.ErrNoSession when the id is unknown or expired.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, models.ErrNoSession
	}
	return m.store.Load(ctx, id, m.ttl)
}

// Update rewrites a session after its cached profile changed.
func (m *Manager) Update(ctx context.Context, sess *Session) error {
	return m.store.Save(ctx, sess, m.ttl)
}

// Logout destroys the session. It never fails from the caller's view.
func (m *Manager) Logout(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.WarnContext(ctx, "session delete failed",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
	}
	m.logger.InfoContext(ctx, "user logged out", slog.String("session_id", id))
	m.notify(ctx, false, id)
}

// Gateway returns the API client authenticated as sess.
func (m *Manager) Gateway(sess *Session) *gateway.Client {
	return m.api.WithToken(sess.CurrentToken())
}
