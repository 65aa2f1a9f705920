package models

import "time"

// Post is a short text published on a user's wall.
type Post struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// OwnedBy reports whether userID authored the post. Presentation only.
func (p Post) OwnedBy(userID uint) bool {
	return userID != 0 && p.UserID == userID
}
