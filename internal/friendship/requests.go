package friendship

import (
	"context"
	"fmt"
	"sync"

	"vibewall/internal/models"
)

// RequestsAPI is the part of the backend the request list needs.
type RequestsAPI interface {
	ListFriendRequests(ctx context.Context, userID uint) ([]models.Friendship, error)
	AcceptFriendRequest(ctx context.Context, friendshipID, userID uint) (*models.Friendship, error)
	RejectFriendRequest(ctx context.Context, friendshipID, userID uint) (*models.Friendship, error)
}

// RequestList is the viewer's incoming friend requests.
type RequestList struct {
	api    RequestsAPI
	userID uint

	mu    sync.Mutex
	items []models.Friendship
	gen   uint64
}

// NewRequestList returns an empty list for userID.
func NewRequestList(api RequestsAPI, userID uint) *RequestList {
	return &RequestList{api: api, userID: userID}
}

// Load replaces the list with the backend's. On failure the list is unchanged.
func (l *RequestList) Load(ctx context.Context) error {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	all, err := l.api.ListFriendRequests(ctx, l.userID)
	if err != nil {
		return fmt.Errorf("loading friend requests: %w", err)
	}

	incoming := make([]models.Friendship, 0, len(all))
	for _, f := range all {
		if f.ReceiverID != 0 && f.ReceiverID != l.userID {
			continue
		}
		if f.Status != "" && models.ParseFriendshipStatus(string(f.Status)) != models.FriendshipStatusPending {
			continue
		}
		incoming = append(incoming, f)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		return models.ErrStale
	}
	l.items = incoming
	return nil
}

// Items returns a copy of the list.
func (l *RequestList) Items() []models.Friendship {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Friendship(nil), l.items...)
}

// Accept accepts the request and drops it from the list.
func (l *RequestList) Accept(ctx context.Context, friendshipID uint) error {
	return l.answer(ctx, friendshipID, l.api.AcceptFriendRequest)
}

// Reject rejects the request and drops it from the list.
func (l *RequestList) Reject(ctx context.Context, friendshipID uint) error {
	return l.answer(ctx, friendshipID, l.api.RejectFriendRequest)
}

// Has reports whether the list holds friendshipID.
func (l *RequestList) Has(friendshipID uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range l.items {
		if f.ID == friendshipID {
			return true
		}
	}
	return false
}

func (l *RequestList) answer(ctx context.Context, friendshipID uint,
	call func(ctx context.Context, friendshipID, userID uint) (*models.Friendship, error)) error {
	if !l.Has(friendshipID) {
		return fmt.Errorf("friend request %d: %w", friendshipID, models.ErrNotPermitted)
	}
	if _, err := call(ctx, friendshipID, l.userID); err != nil {
		return fmt.Errorf("answering friend request: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.items[:0:0]
	for _, f := range l.items {
		if f.ID != friendshipID {
			kept = append(kept, f)
		}
	}
	l.items = kept
	return nil
}
