package gateway

import (
	"context"
	"fmt"
	"net/http"

	"vibewall/internal/models"
)

type postBody struct {
	Text string `json:"text"`
}

// ListPosts returns one page of the feed.
func (c *Client) ListPosts(ctx context.Context, page, size int) (models.Page[models.Post], error) {
	var out models.Page[models.Post]
	err := c.doJSON(ctx, "list_posts", http.MethodGet, "/posts", pageQuery(page, size), nil, &out)
	return out, err
}

// CreatePost publishes text on userID's wall.
func (c *Client) CreatePost(ctx context.Context, userID uint, text string) (*models.Post, error) {
	var out models.Post
	path := fmt.Sprintf("/users/%d/posts", userID)
	if err := c.doJSON(ctx, "create_post", http.MethodPost, path, nil, postBody{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditPost replaces a post's text.
func (c *Client) EditPost(ctx context.Context, postID uint, text string) (*models.Post, error) {
	var out models.Post
	path := fmt.Sprintf("/posts/%d", postID)
	if err := c.doJSON(ctx, "edit_post", http.MethodPut, path, nil, postBody{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, postID uint) error {
	return c.doJSON(ctx, "delete_post", http.MethodDelete, fmt.Sprintf("/posts/%d", postID), nil, nil, nil)
}
