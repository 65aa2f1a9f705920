package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"vibewall/internal/middleware"
	"vibewall/internal/models"
	"vibewall/internal/observability"
	"vibewall/internal/pager"
	"vibewall/internal/session"

	"github.com/gofiber/fiber/v2"
)

const (
	sessionCookie = "vibewall_session"
	localSession  = "session"
)

// SessionRequired resolves the session cookie. Requests without a live
// session are sent to the login page.
func (s *Server) SessionRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.sessions.Get(c.UserContext(), c.Cookies(sessionCookie))
		if err != nil {
			if !errors.Is(err, models.ErrNoSession) {
				s.logger.WarnContext(c.UserContext(), "session lookup failed", slog.String("error", err.Error()))
			}
			s.clearSessionCookie(c)
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		c.Locals(localSession, sess)
		c.Locals(middleware.LocalUserID, sess.UserID)
		c.SetUserContext(observability.WithUserID(c.UserContext(), sess.UserID))
		return c.Next()
	}
}

func currentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(localSession).(*session.Session)
	return sess
}

func (s *Server) setSessionCookie(c *fiber.Ctx, sess *session.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.config.SessionTTL / time.Second),
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// viewsFor returns the view state of the session, creating it on first use.
func (s *Server) viewsFor(sess *session.Session) *viewState {
	return s.views.Get(sess.ID, func() *viewState {
		return newViewState(s.sessions.Gateway(sess), sess.UserID, s.config.PageSize)
	})
}

// viewContext bounds a view's backend calls by VIEW_TIMEOUT.
func (s *Server) viewContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if s.config.ViewTimeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), s.config.ViewTimeout)
}

// page fills the fields every authenticated page shares.
func (s *Server) page(sess *session.Session, vs *viewState, title string, body any) pageData {
	return pageData{
		Title:  title,
		User:   sess.User,
		UserID: sess.UserID,
		Flash:  vs.TakeFlash(),
		Body:   body,
	}
}

// endSession logs the user out after the backend rejected their token.
func (s *Server) endSession(c *fiber.Ctx, sess *session.Session) error {
	s.logger.InfoContext(c.UserContext(), "backend rejected token, ending session")
	s.sessions.Logout(c.UserContext(), sess.ID)
	s.clearSessionCookie(c)
	return c.Redirect("/login?expired=1", fiber.StatusSeeOther)
}

// mutationFailed reports a failed action to the user and returns them to back.
func (s *Server) mutationFailed(c *fiber.Ctx, sess *session.Session, vs *viewState, err error, msg, back string) error {
	if models.IsUnauthorized(err) {
		return s.endSession(c, sess)
	}
	switch {
	case errors.Is(err, models.ErrNotPermitted):
		msg += ": not allowed"
	case errors.Is(err, models.ErrTransition):
		msg += ": no longer possible"
	}
	s.logger.WarnContext(c.UserContext(), "action failed", slog.String("error", err.Error()))
	vs.SetFlash(msg)
	return c.Redirect(refreshURL(back), fiber.StatusSeeOther)
}

// navigate applies the nav query parameter to p. A plain visit or a newly
// mounted controller starts from page 0.
func navigate[T any](ctx context.Context, p *pager.Controller[T], nav string, fresh bool) error {
	var err error
	switch {
	case fresh:
		err = p.Reset(ctx)
	case nav == "next":
		err = p.NextPage(ctx)
	case nav == "prev":
		err = p.PreviousPage(ctx)
	case nav == "refresh":
		err = p.Refresh(ctx)
	default:
		err = p.Reset(ctx)
	}
	if errors.Is(err, models.ErrStale) {
		return nil
	}
	return err
}

// loadFailed returns the message shown above the last good state after a
// failed load, or "" when err is nil.
func loadFailed(err error, what string) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Could not load %s, showing the last known state", what)
}

// safeBack returns raw if it is a local path, otherwise fallback.
func safeBack(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	return raw
}

// refreshURL points at path with the current page reloaded.
func refreshURL(path string) string {
	base, _, _ := strings.Cut(path, "?")
	return base + "?nav=refresh"
}

// parseID extracts a route parameter by name as a positive uint.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+humanizeParam(param))
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "userId" -> "user ID", "friendshipId" -> "friendship ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}
