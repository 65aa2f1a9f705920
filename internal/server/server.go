// Package server renders the social-network views over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vibewall/internal/cache"
	"vibewall/internal/config"
	"vibewall/internal/featureflags"
	"vibewall/internal/gateway"
	"vibewall/internal/middleware"
	"vibewall/internal/observability"
	"vibewall/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

var (
	promOnce sync.Once
	promMW   *fiberprometheus.FiberPrometheus
)

// httpMetrics returns the process-wide request metrics middleware. It
// registers with the default Prometheus registry, so it is built once.
func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMW = fiberprometheus.New("vibewall")
	})
	return promMW
}

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	redis          *redis.Client
	api            *gateway.Client
	sessions       *session.Manager
	views          *viewRegistry
	featureFlags   *featureflags.Set
	pages          *renderer
	promMiddleware *fiberprometheus.FiberPrometheus
	logger         *slog.Logger

	shutdownCtx context.Context
	shutdownFn  context.CancelFunc
}

// NewServer connects to Redis and builds the backend client from cfg.
// Without Redis, sessions are kept in memory.
func NewServer(cfg *config.Config) (*Server, error) {
	rdb, err := cache.Connect(context.Background(), cfg.RedisURL)
	if err != nil {
		observability.Logger.Warn("redis unavailable, keeping sessions in memory", slog.String("error", err.Error()))
		rdb = nil
	}
	return NewServerWithDeps(cfg, rdb, gateway.New(cfg.APIBaseURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// rdb may be nil.
func NewServerWithDeps(cfg *config.Config, rdb *redis.Client, api *gateway.Client) (*Server, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	var store session.Store = session.NewMemoryStore()
	if rdb != nil {
		store = session.NewRedisStore(rdb)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:         cfg,
		redis:          rdb,
		api:            api,
		sessions:       session.NewManager(api, store, cfg.SessionTTL),
		views:          newViewRegistry(),
		featureFlags:   featureflags.Parse(cfg.FeatureFlags),
		pages:          pages,
		promMiddleware: httpMetrics(),
		logger:         observability.Logger.With(slog.String("component", "server")),
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
	}

	// A fresh login starts every view from page 0; logout forgets them.
	s.sessions.OnLogin(func(_ context.Context, id string) { s.views.Drop(id) })
	s.sessions.OnLogout(func(_ context.Context, id string) { s.views.Drop(id) })

	if cfg.ViewIdleTTL > 0 {
		go s.views.runSweeper(ctx, sweepInterval(cfg.ViewIdleTTL), cfg.ViewIdleTTL)
	}
	return s, nil
}

func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, time.Second)
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return isInfraPath(c.Path())
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
}

func isInfraPath(path string) bool {
	switch path {
	case "/health/live", "/health/ready", "/metrics", "/static/style.css":
		return true
	}
	return false
}

// loginLimiter throttles credential submission per client IP.
func (s *Server) loginLimiter() fiber.Handler {
	limit := s.config.LoginRateLimit
	if limit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if s.redis != nil {
		return middleware.RateLimit(s.redis, "login", limit, time.Minute)
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "login:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many attempts, please wait a minute and try again")
		},
	})
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/static/style.css", s.Stylesheet)

	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/feed") })

	app.Get("/login", s.LoginPage)
	app.Post("/login", s.loginLimiter(), s.Login)
	app.Post("/register", s.loginLimiter(), s.Register)
	app.Post("/logout", s.Logout)

	authed := app.Group("", s.SessionRequired())

	if !s.config.IsProduction() {
		authed.Get("/debug/monitor", monitor.New(monitor.Config{Title: "vibewall"}))
	}

	authed.Get("/feed", s.Feed)
	authed.Post("/friend-requests/:friendshipId/accept", s.AcceptFriendRequestFromFeed)
	authed.Post("/friend-requests/:friendshipId/reject", s.RejectFriendRequestFromFeed)

	// Specific /wall routes before the generic /wall/:userId.
	authed.Get("/wall", s.OwnWall)
	authed.Post("/wall/posts", s.CreatePost)
	authed.Post("/wall/profile", s.UpdateProfile)
	authed.Post("/wall/avatar", s.UploadAvatar)
	authed.Get("/wall/:userId", s.Wall)
	authed.Post("/wall/:userId/friend", s.SendFriendRequest)
	authed.Post("/wall/:userId/friend/accept", s.AcceptFriendRequest)
	authed.Post("/wall/:userId/friend/reject", s.RejectFriendRequest)

	authed.Post("/posts/:postId/edit", s.EditPost)
	authed.Post("/posts/:postId/delete", s.DeletePost)
	authed.Get("/posts/:postId/comments", s.Comments)
	authed.Post("/posts/:postId/comments", s.CreateComment)

	authed.Post("/comments/:commentId/edit", s.EditComment)
	authed.Post("/comments/:commentId/delete", s.DeleteComment)
	authed.Post("/comments/:commentId/like", s.LikeComment)

	authed.Get("/avatar/:userId", s.Avatar)
}

// ErrorHandler renders errors that reach Fiber as an error page.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong"
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.ErrorContext(c.UserContext(), "request error", slog.String("error", err.Error()))
	}
	return s.render(c, code, "error", pageData{Title: "Error", Error: msg})
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only reports it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "healthy",
		"checks": fiber.Map{
			"redis": redisStatus,
		},
		"views": s.views.Len(),
		"time":  time.Now(),
	})
}

// Shutdown stops the sweeper and releases Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return fmt.Errorf("closing redis: %w", err)
		}
	}
	s.logger.InfoContext(ctx, "server resources released")
	return nil
}
