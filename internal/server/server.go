// Package server wires the HTTP layer: routing, middleware, handlers.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"

	"github.com/craftpulse/craftpulse/internal/config"
	"github.com/craftpulse/craftpulse/internal/domain"
	"github.com/craftpulse/craftpulse/internal/relay"
)

const (
	sessionName      = "craftpulse-session"
	sessionKeyUserID = "user_id"
	sessionMaxAge    = 7 * 24 * time.Hour
)

// Repositories bundles the data access layer handed to the server.
type Repositories struct {
	Users    domain.UserRepository
	Servers  domain.ServerRepository
	Checks   domain.CheckRepository
	Comments domain.CommentRepository
	Saved    domain.SavedServerRepository
	Tokens   domain.TokenRepository
	Votes    domain.VoteRepository
	Admin    domain.AdminRepository
}

// postgresHealthChecker is a minimal interface for database health checks.
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

// redisHealthChecker is a minimal interface for Redis health checks.
type redisHealthChecker interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	repos        Repositories
	verifier     domain.Verifier
	hub          *relay.Hub
	clock        clockwork.Clock
	sessionStore *sessions.CookieStore
	oauthClient  oauthClient
	startTime    time.Time

	postgresHealth postgresHealthChecker
	redisHealth    redisHealthChecker
}

func NewServer(
	cfg *config.Config,
	repos Repositories,
	verifier domain.Verifier,
	hub *relay.Hub,
	clock clockwork.Clock,
	postgres postgresHealthChecker,
	redisClient redisHealthChecker,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:           e,
		config:         cfg,
		repos:          repos,
		verifier:       verifier,
		hub:            hub,
		clock:          clock,
		sessionStore:   sessionStore,
		oauthClient:    newDiscordOAuthClient(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordRedirectURI),
		startTime:      clock.Now(),
		postgresHealth: postgres,
		redisHealth:    redisClient,
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) getBaseURL(c echo.Context) string {
	scheme := "http"
	if c.Request().TLS != nil {
		scheme = "https"
	}
	if fwdProto := c.Request().Header.Get("X-Forwarded-Proto"); fwdProto != "" {
		scheme = fwdProto
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request().Host)
}
