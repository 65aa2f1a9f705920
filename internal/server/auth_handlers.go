package server

import (
	"errors"
	"log/slog"
	"strings"

	"vibewall/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	msgLoginFailed    = "Login failed: wrong username or password"
	msgRegisterFailed = "Registration failed"
	msgRegistered     = "Account created, please log in"
	msgSessionExpired = "Your session has expired, please log in again"
)

type loginBody struct {
	Notice   string
	Username string
}

// LoginPage renders the login and registration forms. Visitors with a
// live session go straight to the feed.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if _, err := s.sessions.Get(c.UserContext(), c.Cookies(sessionCookie)); err == nil {
		return c.Redirect("/feed", fiber.StatusSeeOther)
	}

	body := loginBody{}
	switch {
	case c.Query("registered") != "":
		body.Notice = msgRegistered
	case c.Query("expired") != "":
		body.Notice = msgSessionExpired
	}
	return s.render(c, fiber.StatusOK, "login", pageData{Title: "Log in", Body: body})
}

// Login authenticates and starts a session.
func (s *Server) Login(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if username == "" || password == "" {
		return s.render(c, fiber.StatusBadRequest, "login", pageData{
			Title: "Log in",
			Error: msgLoginFailed,
			Body:  loginBody{Username: username},
		})
	}

	ctx, cancel := s.viewContext(c)
	defer cancel()

	sess, err := s.sessions.Login(ctx, username, password)
	if err != nil {
		status := fiber.StatusUnauthorized
		var authErr *models.AuthError
		if !errors.As(err, &authErr) {
			status = fiber.StatusBadGateway
			s.logger.WarnContext(ctx, "login failed", slog.String("error", err.Error()))
		}
		return s.render(c, status, "login", pageData{
			Title: "Log in",
			Error: msgLoginFailed,
			Body:  loginBody{Username: username},
		})
	}

	s.setSessionCookie(c, sess)
	return c.Redirect("/feed", fiber.StatusSeeOther)
}

// Register creates an account and sends the user back to log in.
func (s *Server) Register(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	if username == "" || password == "" {
		return s.render(c, fiber.StatusBadRequest, "login", pageData{Title: "Log in", Error: msgRegisterFailed})
	}

	ctx, cancel := s.viewContext(c)
	defer cancel()

	if err := s.sessions.Register(ctx, username, email, password); err != nil {
		s.logger.InfoContext(ctx, "registration rejected", slog.String("error", err.Error()))
		return s.render(c, fiber.StatusBadRequest, "login", pageData{
			Title: "Log in",
			Error: msgRegisterFailed,
			Body:  loginBody{Username: username},
		})
	}
	return c.Redirect("/login?registered=1", fiber.StatusSeeOther)
}

// Logout ends the session. It always succeeds.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.sessions.Logout(c.UserContext(), c.Cookies(sessionCookie))
	s.clearSessionCookie(c)
	return c.Redirect("/login", fiber.StatusSeeOther)
}
