package models

import "strings"

// FriendshipStatus is the directional relationship state between two users.
type FriendshipStatus string

const (
	// FriendshipStatusNone means no relationship exists.
	FriendshipStatusNone FriendshipStatus = "NONE"
	// FriendshipStatusPending indicates a pending friendship request.
	FriendshipStatusPending FriendshipStatus = "PENDING"
	// FriendshipStatusAccepted indicates an accepted friendship request.
	FriendshipStatusAccepted FriendshipStatus = "ACCEPTED"
	// FriendshipStatusRejected indicates a rejected friendship request.
	FriendshipStatusRejected FriendshipStatus = "REJECTED"
)

// ParseFriendshipStatus normalizes a backend status string.
// Unknown values map to NONE.
func ParseFriendshipStatus(raw string) FriendshipStatus {
	switch s := FriendshipStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case FriendshipStatusPending, FriendshipStatusAccepted, FriendshipStatusRejected:
		return s
	default:
		return FriendshipStatusNone
	}
}

// Friendship represents a friendship relationship between two users.
type Friendship struct {
	ID                uint             `json:"id"`
	RequesterID       uint             `json:"requesterId"`
	ReceiverID        uint             `json:"receiverId"`
	Status            FriendshipStatus `json:"status"`
	RequesterUsername string           `json:"requesterUsername,omitempty"`
	ReceiverUsername  string           `json:"receiverUsername,omitempty"`
}

// FriendshipStatusResponse is the body of GET /friendships/status.
type FriendshipStatusResponse struct {
	Status       string `json:"status"`
	FriendshipID uint   `json:"friendshipId,omitempty"`
	RequesterID  uint   `json:"requesterId,omitempty"`
	ReceiverID   uint   `json:"receiverId,omitempty"`
}

// FriendRequest is the body of POST /friendships.
type FriendRequest struct {
	RequesterID uint `json:"requesterId"`
	ReceiverID  uint `json:"receiverId"`
}
