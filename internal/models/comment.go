package models

import "time"

// Comment is a reply on a post. ParentCommentID is accepted but threads are flat.
type Comment struct {
	ID              uint      `json:"id"`
	PostID          uint      `json:"postId"`
	ParentCommentID *uint     `json:"parentCommentId,omitempty"`
	UserID          uint      `json:"userId"`
	DisplayName     string    `json:"displayName"`
	Content         string    `json:"content"`
	LikeCount       int       `json:"likeCount"`
	LikedByMe       bool      `json:"likedByMe"`
	CreatedAt       time.Time `json:"createdAt"`
}

// OwnedBy reports whether userID authored the comment. Presentation only.
func (c Comment) OwnedBy(userID uint) bool {
	return userID != 0 && c.UserID == userID
}

// NewComment is the body of POST /comments.
type NewComment struct {
	PostID          uint   `json:"postId"`
	Content         string `json:"content"`
	ParentCommentID *uint  `json:"parentCommentId"`
}
