package server

import (
	"fmt"
	"strconv"

	"vibewall/internal/featureflags"
	"vibewall/internal/models"
	"vibewall/internal/pager"
	"vibewall/internal/security"

	"github.com/gofiber/fiber/v2"
)

type commentsBody struct {
	PostID   uint
	Path     string
	Comments pager.State[models.Comment]
}

func commentsPath(postID uint) string {
	return fmt.Sprintf("/posts/%d/comments", postID)
}

// Comments shows the comment thread of a post.
func (s *Server) Comments(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return err
	}
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	ctx, cancel := s.viewContext(c)
	defer cancel()

	thread, fresh := vs.Comments(postID)
	err = navigate(ctx, thread.comments, c.Query("nav"), fresh)
	if models.IsUnauthorized(err) {
		return s.endSession(c, sess)
	}

	data := s.page(sess, vs, "Comments", commentsBody{
		PostID:   postID,
		Path:     commentsPath(postID),
		Comments: thread.comments.Snapshot(),
	})
	data.Error = loadFailed(err, "the comments")
	return s.render(c, fiber.StatusOK, "comments", data)
}

// CreateComment adds a comment to a post. Blank text is ignored.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return err
	}
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	back := commentsPath(postID)

	raw := c.FormValue("content")
	if security.IsBlank(raw) {
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	content := security.CleanText(raw)

	ctx, cancel := s.viewContext(c)
	defer cancel()
	if _, err := vs.api.CreateComment(ctx, models.NewComment{PostID: postID, Content: content}); err != nil {
		return s.mutationFailed(c, sess, vs, err, "Could not add the comment", back)
	}
	return c.Redirect(refreshURL(back), fiber.StatusSeeOther)
}

// threadFor returns the mounted thread containing commentID and the comment.
func threadFor(vs *viewState, postID, commentID uint) (*commentsView, *models.Comment) {
	thread, fresh := vs.Comments(postID)
	if fresh {
		return thread, nil
	}
	for _, cm := range thread.comments.Snapshot().Items {
		if cm.ID == commentID {
			return thread, &cm
		}
	}
	return thread, nil
}

// commentPostID reads the post a comment belongs to from the form, or from
// the query string on confirmation pages.
func commentPostID(c *fiber.Ctx) (uint, error) {
	raw := c.FormValue("postId")
	if raw == "" {
		raw = c.Query("postId")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid post ID")
	}
	return uint(id), nil
}

// EditComment changes the text of one of the user's comments. Blank or
// unchanged text is ignored.
func (s *Server) EditComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return err
	}
	postID, err := commentPostID(c)
	if err != nil {
		return err
	}
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	back := commentsPath(postID)

	content := security.CleanText(c.FormValue("content"))
	if content == "" {
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	if _, current := threadFor(vs, postID, commentID); current != nil && current.Content == content {
		return c.Redirect(back, fiber.StatusSeeOther)
	}

	ctx, cancel := s.viewContext(c)
	defer cancel()
	if err := vs.api.EditComment(ctx, commentID, content); err != nil {
		return s.mutationFailed(c, sess, vs, err, "Could not edit the comment", back)
	}
	return c.Redirect(refreshURL(back), fiber.StatusSeeOther)
}

// DeleteComment deletes one of the user's comments once confirmed.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return err
	}
	postID, err := commentPostID(c)
	if err != nil {
		return err
	}
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	back := commentsPath(postID)

	if c.FormValue("confirm") != "yes" {
		return s.render(c, fiber.StatusOK, "confirm", s.page(sess, vs, "Delete comment", confirmBody{
			Message: "Delete this comment? This cannot be undone.",
			Action:  fmt.Sprintf("/comments/%d/delete?postId=%d", commentID, postID),
			Back:    back,
		}))
	}

	ctx, cancel := s.viewContext(c)
	defer cancel()
	if err := vs.api.DeleteComment(ctx, commentID); err != nil {
		return s.mutationFailed(c, sess, vs, err, "Could not delete the comment", back)
	}
	thread, _ := threadFor(vs, postID, commentID)
	thread.comments.Remove(func(cm models.Comment) bool { return cm.ID == commentID })
	return c.Redirect(refreshURL(back), fiber.StatusSeeOther)
}

// LikeComment toggles the user's like on a comment.
func (s *Server) LikeComment(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !s.featureFlags.Enabled(featureflags.CommentLikes, sess.UserID) {
		return fiber.ErrNotFound
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return err
	}
	postID, err := commentPostID(c)
	if err != nil {
		return err
	}
	vs := s.viewsFor(sess)
	back := commentsPath(postID)

	ctx, cancel := s.viewContext(c)
	defer cancel()
	if err := vs.api.LikeComment(ctx, commentID); err != nil {
		return s.mutationFailed(c, sess, vs, err, "Could not like the comment", back)
	}
	return c.Redirect(refreshURL(back), fiber.StatusSeeOther)
}
