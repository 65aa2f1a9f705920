package gateway

import (
	"context"
	"fmt"
	"net/http"

	"vibewall/internal/models"
)

// ListFriendRequests returns the pending requests addressed to userID.
func (c *Client) ListFriendRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var out []models.Friendship
	path := fmt.Sprintf("/friendships/users/%d/requests", userID)
	if err := c.doJSON(ctx, "list_friend_requests", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFriends returns the accepted friends of userID.
func (c *Client) ListFriends(ctx context.Context, userID uint) ([]models.UserProfile, error) {
	var out []models.UserProfile
	path := fmt.Sprintf("/friendships/users/%d/friends", userID)
	if err := c.doJSON(ctx, "list_friends", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FriendshipStatus returns the caller's relationship to profileUserID.
func (c *Client) FriendshipStatus(ctx context.Context, profileUserID uint) (*models.FriendshipStatusResponse, error) {
	var out models.FriendshipStatusResponse
	err := c.doJSON(ctx, "friendship_status", http.MethodGet, "/friendships/status", userQuery(profileUserID), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SendFriendRequest creates a pending friendship from requester to receiver.
func (c *Client) SendFriendRequest(ctx context.Context, requesterID, receiverID uint) (*models.Friendship, error) {
	var out models.Friendship
	body := models.FriendRequest{RequesterID: requesterID, ReceiverID: receiverID}
	if err := c.doJSON(ctx, "send_friend_request", http.MethodPost, "/friendships", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptFriendRequest accepts friendshipID on behalf of userID.
func (c *Client) AcceptFriendRequest(ctx context.Context, friendshipID, userID uint) (*models.Friendship, error) {
	return c.answerFriendRequest(ctx, "accept_friend_request", friendshipID, userID, "accept")
}

// RejectFriendRequest rejects friendshipID on behalf of userID.
func (c *Client) RejectFriendRequest(ctx context.Context, friendshipID, userID uint) (*models.Friendship, error) {
	return c.answerFriendRequest(ctx, "reject_friend_request", friendshipID, userID, "reject")
}

func (c *Client) answerFriendRequest(ctx context.Context, op string, friendshipID, userID uint, verb string) (*models.Friendship, error) {
	var out models.Friendship
	path := fmt.Sprintf("/friendships/%d/%s", friendshipID, verb)
	if err := c.doJSON(ctx, op, http.MethodPut, path, userQuery(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
