package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"vibewall/internal/featureflags"
	"vibewall/internal/friendship"
	"vibewall/internal/imaging"
	"vibewall/internal/models"
	"vibewall/internal/pager"
	"vibewall/internal/security"

	"github.com/gofiber/fiber/v2"
)

type wallBody struct {
	Path    string
	Profile models.UserProfile
	Posts   pager.State[models.Post]
	IsOwner bool
	Actions friendship.Actions
	Friends []models.UserProfile
}

func wallPath(userID uint) string {
	return fmt.Sprintf("/wall/%d", userID)
}

// OwnWall shows the signed-in user's wall.
func (s *Server) OwnWall(c *fiber.Ctx) error {
	return s.showWall(c, currentSession(c).UserID)
}

// Wall shows another user's wall.
func (s *Server) Wall(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	return s.showWall(c, userID)
}

func (s *Server) showWall(c *fiber.Ctx, userID uint) error {
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	ctx, cancel := s.viewContext(c)
	defer cancel()

	w, fresh := vs.Wall(userID)
	nav := c.Query("nav")
	err := navigate(ctx, w.posts, nav, fresh)
	if models.IsUnauthorized(err) {
		return s.endSession(c, sess)
	}
	if err != nil && models.StatusOf(err) == fiber.StatusNotFound && w.Profile().ID == 0 {
		return fiber.NewError(fiber.StatusNotFound, "User not found")
	}

	if fresh || nav == "" {
		w.related.Load(ctx)
	}
	// A friendship change redirects here with nav=refresh.
	if fresh || nav == "" || nav == "refresh" {
		friends, ferr := vs.api.ListFriends(ctx, userID)
		if ferr != nil {
			s.logger.WarnContext(ctx, "friends list unavailable", slog.String("error", ferr.Error()))
		} else {
			w.setFriends(friends)
		}
	}

	profile := w.Profile()
	if profile.ID == 0 {
		profile.ID = userID
	}
	body := wallBody{
		Path:    wallPath(userID),
		Profile: profile,
		Posts:   w.posts.Snapshot(),
		IsOwner: userID == sess.UserID,
		Actions: w.related.Actions(),
		Friends: w.Friends(),
	}
	data := s.page(sess, vs, profile.Name(), body)
	data.Error = loadFailed(err, "this wall")
	return s.render(c, fiber.StatusOK, "wall", data)
}

// CreatePost publishes a post on the signed-in user's wall. Blank text is ignored.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	back := safeBack(c.FormValue("back"), wallPath(sess.UserID))

	raw := c.FormValue("text")
	if security.IsBlank(raw) {
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	text := security.CleanText(raw)

	ctx, cancel := s.viewContext(c)
	defer cancel()
	if _, err := vs.api.CreatePost(ctx, sess.UserID, text); err != nil {
		return s.mutationFailed(c, sess, vs, err, "Could not publish the post", back)
	}
	return c.Redirect(refreshURL(back), fiber.StatusSeeOther)
}

// EditPost replaces the text of one of the user's posts.
func (s *Server) EditPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return err
	}
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	back := safeBack(c.FormValue("back"), wallPath(sess.UserID))

	text := security.CleanText(c.FormValue("text"))
	if text == "" {
		return c.Redirect(back, fiber.StatusSeeOther)
	}

	ctx, cancel := s.viewContext(c)
	defer cancel()
	if _, err := vs.api.EditPost(ctx, postID, text); err != nil {
		return s.mutationFailed(c, sess, vs, err, "Could not edit the post", back)
	}
	return c.Redirect(refreshURL(back), fiber.StatusSeeOther)
}

type confirmBody struct {
	Message string
	Action  string
	Back    string
}

// DeletePost deletes one of the user's posts once confirmed.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return err
	}
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	back := safeBack(c.FormValue("back"), wallPath(sess.UserID))

	if c.FormValue("confirm") != "yes" {
		return s.render(c, fiber.StatusOK, "confirm", s.page(sess, vs, "Delete post", confirmBody{
			Message: "Delete this post? This cannot be undone.",
			Action:  fmt.Sprintf("/posts/%d/delete", postID),
			Back:    back,
		}))
	}

	ctx, cancel := s.viewContext(c)
	defer cancel()
	if err := vs.api.DeletePost(ctx, postID); err != nil {
		return s.mutationFailed(c, sess, vs, err, "Could not delete the post", back)
	}

	byID := func(p models.Post) bool { return p.ID == postID }
	vs.Feed().Remove(byID)
	if w := vs.MountedWall(); w != nil {
		w.posts.Remove(byID)
	}
	return c.Redirect(refreshURL(back), fiber.StatusSeeOther)
}

// UpdateProfile changes the signed-in user's display name and bio.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	back := wallPath(sess.UserID)

	update := models.ProfileUpdate{
		DisplayName: security.CleanText(c.FormValue("displayName")),
		Bio:         security.CleanText(c.FormValue("bio")),
	}

	ctx, cancel := s.viewContext(c)
	defer cancel()
	profile, err := vs.api.UpdateMe(ctx, update)
	if err != nil {
		return s.mutationFailed(c, sess, vs, err, "Could not update your profile", back)
	}

	if profile.ID == 0 {
		profile.ID = sess.UserID
	}
	sess.User = profile
	if err := s.sessions.Update(ctx, sess); err != nil {
		s.logger.WarnContext(ctx, "session update failed", slog.String("error", err.Error()))
	}
	if w := vs.MountedWall(); w != nil && w.userID == sess.UserID {
		w.setProfile(*profile)
	}
	return c.Redirect(refreshURL(back), fiber.StatusSeeOther)
}

// UploadAvatar normalizes an uploaded image and stores it as the user's avatar.
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !s.featureFlags.Enabled(featureflags.ProfileImages, sess.UserID) {
		return fiber.ErrNotFound
	}
	vs := s.viewsFor(sess)
	back := wallPath(sess.UserID)
	limit := int64(s.config.AvatarMaxUploadMB) << 20

	fh, err := c.FormFile("avatar")
	if err != nil {
		vs.SetFlash("Choose an image to upload")
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	if !security.ValidateFileSize(fh.Size, limit) {
		vs.SetFlash(fmt.Sprintf("Image must be at most %dMB", s.config.AvatarMaxUploadMB))
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	contentType := fh.Header.Get(fiber.HeaderContentType)
	if !security.ValidateImageType(contentType) {
		vs.SetFlash("Only JPEG, PNG, GIF or WebP images can be used")
		return c.Redirect(back, fiber.StatusSeeOther)
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}

	avatar, err := imaging.Normalize(raw, contentType, limit, s.config.AvatarMaxSize)
	if err != nil {
		msg := "That file could not be used as an avatar"
		if errors.Is(err, imaging.ErrTooLarge) {
			msg = fmt.Sprintf("Image must be at most %dMB", s.config.AvatarMaxUploadMB)
		}
		vs.SetFlash(msg)
		return c.Redirect(back, fiber.StatusSeeOther)
	}

	ctx, cancel := s.viewContext(c)
	defer cancel()
	if err := vs.api.UploadProfileImage(ctx, "avatar.jpg", avatar.ContentType, avatar.Data); err != nil {
		return s.mutationFailed(c, sess, vs, err, "Could not upload the avatar", back)
	}
	return c.Redirect(refreshURL(back), fiber.StatusSeeOther)
}

// SendFriendRequest asks the wall owner to become friends.
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	return s.friendAction(c, "Could not send the friend request", (*friendship.Controller).SendRequest)
}

// AcceptFriendRequest accepts the wall owner's pending request.
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	return s.friendAction(c, "Could not accept the friend request", (*friendship.Controller).Accept)
}

// RejectFriendRequest rejects the wall owner's pending request.
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	return s.friendAction(c, "Could not reject the friend request", (*friendship.Controller).Reject)
}

func (s *Server) friendAction(c *fiber.Ctx, failMsg string,
	act func(*friendship.Controller, context.Context) error) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	back := wallPath(userID)
	ctx, cancel := s.viewContext(c)
	defer cancel()

	w, fresh := vs.Wall(userID)
	if fresh || w.related.State().Status == friendship.StatusLoading {
		w.related.Load(ctx)
	}
	if err := act(w.related, ctx); err != nil {
		return s.mutationFailed(c, sess, vs, err, failMsg, back)
	}
	return c.Redirect(refreshURL(back), fiber.StatusSeeOther)
}
