package server

import (
	"errors"

	"vibewall/internal/models"
	"vibewall/internal/pager"

	"github.com/gofiber/fiber/v2"
)

type feedBody struct {
	Posts    pager.State[models.Post]
	Requests []models.Friendship
}

// Feed shows the paginated feed and the incoming friend requests.
func (s *Server) Feed(c *fiber.Ctx) error {
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	ctx, cancel := s.viewContext(c)
	defer cancel()

	feed := vs.Feed()
	nav := c.Query("nav")
	err := navigate(ctx, feed, nav, false)
	if models.IsUnauthorized(err) {
		return s.endSession(c, sess)
	}

	requests := vs.Requests()
	// Requests are reloaded on every visit except page turns.
	if nav == "" || nav == "refresh" {
		if rerr := requests.Load(ctx); models.IsUnauthorized(rerr) {
			return s.endSession(c, sess)
		} else if rerr != nil && !errors.Is(rerr, models.ErrStale) && err == nil {
			err = rerr
		}
	}

	data := s.page(sess, vs, "Feed", feedBody{Posts: feed.Snapshot(), Requests: requests.Items()})
	data.Error = loadFailed(err, "the feed")
	return s.render(c, fiber.StatusOK, "feed", data)
}

// AcceptFriendRequestFromFeed accepts an incoming request listed on the feed.
func (s *Server) AcceptFriendRequestFromFeed(c *fiber.Ctx) error {
	return s.answerFromFeed(c, true)
}

// RejectFriendRequestFromFeed rejects an incoming request listed on the feed.
func (s *Server) RejectFriendRequestFromFeed(c *fiber.Ctx) error {
	return s.answerFromFeed(c, false)
}

func (s *Server) answerFromFeed(c *fiber.Ctx, accept bool) error {
	id, err := parseID(c, "friendshipId")
	if err != nil {
		return err
	}
	sess := currentSession(c)
	vs := s.viewsFor(sess)
	ctx, cancel := s.viewContext(c)
	defer cancel()

	// The list may predate the request being answered.
	requests := vs.Requests()
	if !requests.Has(id) {
		if err := requests.Load(ctx); err != nil && !errors.Is(err, models.ErrStale) {
			return s.mutationFailed(c, sess, vs, err, "Could not answer the friend request", "/feed")
		}
	}

	if accept {
		err = requests.Accept(ctx, id)
	} else {
		err = requests.Reject(ctx, id)
	}
	if err != nil {
		return s.mutationFailed(c, sess, vs, err, "Could not answer the friend request", "/feed")
	}
	return c.Redirect(refreshURL("/feed"), fiber.StatusSeeOther)
}
