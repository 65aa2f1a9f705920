package models

// UserProfile is the public profile of a user.
type UserProfile struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Name returns the display name, falling back to the username.
func (u UserProfile) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// WallPage is a profile together with one page of its posts.
type WallPage struct {
	User  UserProfile `json:"user"`
	Posts Page[Post]  `json:"posts"`
}

// LoginResponse is what the backend returns on a successful login.
// Only Token is guaranteed; the identity may have to be read from the token.
type LoginResponse struct {
	Token  string       `json:"token"`
	UserID uint         `json:"userId,omitempty"`
	User   *UserProfile `json:"user,omitempty"`
}

// ProfileUpdate carries the editable fields of the caller's own profile.
type ProfileUpdate struct {
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}
