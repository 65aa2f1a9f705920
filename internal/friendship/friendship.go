// Package friendship tracks the relationship between the viewer and the
// owner of a profile, and the viewer's incoming friend requests.
//
// State only moves after the backend confirms an action. The gating
// here mirrors what the backend enforces so that illegal actions are
// refused without a round trip; it is not a security boundary.
package friendship

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"vibewall/internal/models"
	"vibewall/internal/observability"
)

// StatusLoading is shown while the relationship is being fetched.
const StatusLoading models.FriendshipStatus = "LOADING"

// API is the part of the backend the controller needs.
type API interface {
	FriendshipStatus(ctx context.Context, profileUserID uint) (*models.FriendshipStatusResponse, error)
	SendFriendRequest(ctx context.Context, requesterID, receiverID uint) (*models.Friendship, error)
	AcceptFriendRequest(ctx context.Context, friendshipID, userID uint) (*models.Friendship, error)
	RejectFriendRequest(ctx context.Context, friendshipID, userID uint) (*models.Friendship, error)
}

// State is a copy of the controller's relationship data.
type State struct {
	Status       models.FriendshipStatus
	FriendshipID uint
	RequesterID  uint
	ReceiverID   uint
}

// Actions lists which friendship affordances a view should render.
type Actions struct {
	CanSend     bool
	CanAccept   bool
	CanReject   bool
	RequestSent bool
	Friends     bool
	Loading     bool
}

// Any reports whether anything at all should be rendered.
func (a Actions) Any() bool {
	return a.CanSend || a.CanAccept || a.CanReject || a.RequestSent || a.Friends || a.Loading
}

// Controller is the relationship between currentUser and profileUser.
type Controller struct {
	api         API
	currentUser uint
	profileUser uint
	logger      *slog.Logger

	mu    sync.Mutex
	state State
	gen   uint64
	busy  bool
}

// New returns a controller in the LOADING state. Call Load to settle it.
func New(api API, currentUserID, profileUserID uint) *Controller {
	return &Controller{
		api:         api,
		currentUser: currentUserID,
		profileUser: profileUserID,
		logger: observability.Logger.With(
			slog.String("component", "friendship"),
			slog.Uint64("profile_user_id", uint64(profileUserID)),
		),
		state: State{Status: StatusLoading},
	}
}

// IsSelf reports whether the profile belongs to the viewer.
func (c *Controller) IsSelf() bool {
	return c.currentUser != 0 && c.currentUser == c.profileUser
}

// Load fetches the current relationship. Any failure settles to NONE.
func (c *Controller) Load(ctx context.Context) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = State{Status: StatusLoading}
	c.mu.Unlock()

	var next State
	if c.IsSelf() {
		next = State{Status: models.FriendshipStatusNone}
	} else {
		resp, err := c.api.FriendshipStatus(ctx, c.profileUser)
		if err != nil {
			c.logger.WarnContext(ctx, "friendship status unavailable", slog.String("error", err.Error()))
			next = State{Status: models.FriendshipStatusNone}
		} else {
			next = State{
				Status:       models.ParseFriendshipStatus(resp.Status),
				FriendshipID: resp.FriendshipID,
				RequesterID:  resp.RequesterID,
				ReceiverID:   resp.ReceiverID,
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.state = next
}

// State returns the current relationship.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Actions derives the affordances for the current state.
func (c *Controller) Actions() Actions {
	if c.IsSelf() {
		return Actions{}
	}
	s := c.State()
	switch s.Status {
	case StatusLoading:
		return Actions{Loading: true}
	case models.FriendshipStatusNone, models.FriendshipStatusRejected:
		return Actions{CanSend: true}
	case models.FriendshipStatusPending:
		if s.ReceiverID == c.currentUser {
			return Actions{CanAccept: true, CanReject: true}
		}
		return Actions{RequestSent: true}
	case models.FriendshipStatusAccepted:
		return Actions{Friends: true}
	}
	return Actions{}
}

// begin checks the current state under the lock and marks an action in
// flight. The returned state is the one the check passed against.
func (c *Controller) begin(check func(State) error) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return c.state, fmt.Errorf("another friendship action is in flight: %w", models.ErrTransition)
	}
	if err := check(c.state); err != nil {
		return c.state, err
	}
	c.busy = true
	return c.state, nil
}

func (c *Controller) finish(next *State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if next != nil {
		c.gen++
		c.state = *next
	}
}

// SendRequest asks the profile owner to become friends. It is legal from
// NONE and REJECTED.
func (c *Controller) SendRequest(ctx context.Context) error {
	_, err := c.begin(func(s State) error {
		if c.IsSelf() || c.currentUser == 0 {
			return models.ErrNotPermitted
		}
		if s.Status != models.FriendshipStatusNone && s.Status != models.FriendshipStatusRejected {
			return fmt.Errorf("send request from %s: %w", s.Status, models.ErrTransition)
		}
		return nil
	})
	if err != nil {
		return err
	}

	f, err := c.api.SendFriendRequest(ctx, c.currentUser, c.profileUser)
	if err != nil {
		c.finish(nil)
		return fmt.Errorf("sending friend request: %w", err)
	}
	c.finish(&State{
		Status:       models.FriendshipStatusPending,
		FriendshipID: f.ID,
		RequesterID:  c.currentUser,
		ReceiverID:   c.profileUser,
	})
	c.logger.InfoContext(ctx, "friend request sent", slog.Uint64("friendship_id", uint64(f.ID)))
	return nil
}

// Accept accepts a pending request addressed to the current user.
func (c *Controller) Accept(ctx context.Context) error {
	return c.answer(ctx, models.FriendshipStatusAccepted)
}

// Reject rejects a pending request addressed to the current user.
func (c *Controller) Reject(ctx context.Context) error {
	return c.answer(ctx, models.FriendshipStatusRejected)
}

func (c *Controller) answer(ctx context.Context, to models.FriendshipStatus) error {
	s, err := c.begin(func(s State) error { return checkAnswer(s, c.currentUser) })
	if err != nil {
		return err
	}

	if to == models.FriendshipStatusAccepted {
		_, err = c.api.AcceptFriendRequest(ctx, s.FriendshipID, c.currentUser)
	} else {
		_, err = c.api.RejectFriendRequest(ctx, s.FriendshipID, c.currentUser)
	}
	if err != nil {
		c.finish(nil)
		return fmt.Errorf("answering friend request: %w", err)
	}

	s.Status = to
	c.finish(&s)
	c.logger.InfoContext(ctx, "friend request answered",
		slog.Uint64("friendship_id", uint64(s.FriendshipID)),
		slog.String("status", string(to)),
	)
	return nil
}

func checkAnswer(s State, currentUser uint) error {
	if s.Status != models.FriendshipStatusPending {
		return fmt.Errorf("answer request from %s: %w", s.Status, models.ErrTransition)
	}
	if s.ReceiverID != currentUser || currentUser == 0 {
		return models.ErrNotPermitted
	}
	return nil
}
