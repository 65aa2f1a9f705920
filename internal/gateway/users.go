package gateway

import (
	"context"
	"fmt"
	"net/http"

	"vibewall/internal/models"
)

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Register creates an account. Success is strictly a 2xx status; the body is ignored.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	err := c.doJSON(ctx, "register", http.MethodPost, "/users/register", nil,
		credentials{Username: username, Email: email, Password: password}, nil)
	if err != nil {
		return models.NewAuthError("register", err)
	}
	return nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.doJSON(ctx, "login", http.MethodPost, "/users/login", nil,
		credentials{Username: username, Password: password}, &out)
	if err != nil {
		return nil, models.NewAuthError("login", err)
	}
	if out.Token == "" {
		return nil, models.NewAuthError("login", fmt.Errorf("response carried no token"))
	}
	return &out, nil
}

// GetMe returns the caller's own profile.
func (c *Client) GetMe(ctx context.Context) (*models.UserProfile, error) {
	var out models.UserProfile
	if err := c.doJSON(ctx, "get_me", http.MethodGet, "/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe changes the caller's display name and bio.
func (c *Client) UpdateMe(ctx context.Context, update models.ProfileUpdate) (*models.UserProfile, error) {
	var out models.UserProfile
	if err := c.doJSON(ctx, "update_me", http.MethodPut, "/users/me", nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWall returns a user's profile and one page of their posts.
func (c *Client) GetWall(ctx context.Context, userID uint, page, size int) (*models.WallPage, error) {
	var out models.WallPage
	path := fmt.Sprintf("/users/%d/with-posts", userID)
	if err := c.doJSON(ctx, "get_wall", http.MethodGet, path, pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
