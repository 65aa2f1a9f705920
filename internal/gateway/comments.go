package gateway

import (
	"context"
	"fmt"
	"net/http"

	"vibewall/internal/models"
)

type commentBody struct {
	Content string `json:"content"`
}

// ListComments returns one page of a post's comments.
func (c *Client) ListComments(ctx context.Context, postID uint, page, size int) (models.Page[models.Comment], error) {
	var out models.Page[models.Comment]
	path := fmt.Sprintf("/comments/post/%d", postID)
	err := c.doJSON(ctx, "list_comments", http.MethodGet, path, pageQuery(page, size), nil, &out)
	return out, err
}

// CreateComment adds a comment to a post.
func (c *Client) CreateComment(ctx context.Context, in models.NewComment) (*models.Comment, error) {
	var out models.Comment
	if err := c.doJSON(ctx, "create_comment", http.MethodPost, "/comments", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditComment replaces a comment's content.
func (c *Client) EditComment(ctx context.Context, commentID uint, content string) error {
	path := fmt.Sprintf("/comments/%d", commentID)
	return c.doJSON(ctx, "edit_comment", http.MethodPut, path, nil, commentBody{Content: content}, nil)
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, commentID uint) error {
	return c.doJSON(ctx, "delete_comment", http.MethodDelete, fmt.Sprintf("/comments/%d", commentID), nil, nil, nil)
}

// LikeComment toggles the caller's like on a comment.
func (c *Client) LikeComment(ctx context.Context, commentID uint) error {
	return c.doJSON(ctx, "like_comment", http.MethodPost, fmt.Sprintf("/comments/%d/like", commentID), nil, nil, nil)
}
