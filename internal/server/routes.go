package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/craftpulse/craftpulse/internal/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(errors.Middleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	csrf := s.setupCSRFMiddleware()
	voteLimiter := newRateLimiter(1, 5)

	// Observability (no auth)
	s.echo.GET("/healthz/live", s.handleLiveness)
	s.echo.GET("/healthz/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Crawlers
	s.echo.GET("/robots.txt", s.handleRobots)
	s.echo.GET("/sitemap.xml", s.handleSitemap)

	s.echo.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/servers")
	})

	// Auth (logout requires CSRF, others don't)
	s.echo.GET("/auth/login", s.handleLogin)
	s.echo.GET("/auth/callback", s.handleOAuthCallback)
	s.echo.POST("/auth/logout", s.handleLogout, s.requireSession, csrf)

	// Public listing
	s.echo.GET("/servers", s.handleServerList)
	s.echo.GET("/servers/:page", s.handleServerListPage)

	// Public API
	s.echo.GET("/api/server", s.handleServerLookup)
	s.echo.GET("/api/complete", s.handleAutocomplete)
	s.echo.POST("/api/vote", s.handleVoteSubmit, voteLimiter)
	s.echo.GET("/api/vote-stream", s.handleVoteStream, csrf)
	s.echo.GET("/api/token/usage", s.handleTokenUsage)

	// Browser API (CSRF protected, some session gated)
	s.echo.POST("/api/comments", s.handleCommentList, csrf)
	s.echo.POST("/api/comments/create", s.handleCommentCreate, s.requireSession, csrf)
	s.echo.GET("/api/servers/verified", s.handleVerifiedServers, s.requireSession, csrf)
	s.echo.GET("/api/servers/saved", s.handleSavedServers, s.requireSession, csrf)
	s.echo.POST("/api/servers/saved", s.handleSaveServer, s.requireSession, csrf)
	s.echo.DELETE("/api/servers/saved", s.handleUnsaveServer, s.requireSession, csrf)
	s.echo.POST("/api/verify/start", s.handleVerifyStart, s.requireSession, csrf)

	// Bot API (shared-secret header)
	s.echo.PUT("/api/servers", s.handleBulkReplace, s.requireBotSecret)
	s.echo.POST("/api/checks", s.handleCheckRecord, s.requireBotSecret)
	s.echo.POST("/api/verify/confirm", s.handleVerifyConfirm, s.requireBotSecret)

	// Admin
	s.echo.POST("/api/token", s.handleTokenCreate, s.requireAdminToken)
	s.echo.GET("/admin/dashboard", s.handleDashboard, s.requireSession, s.requireAdmin, csrf)
	s.echo.GET("/admin/usage-stream", s.handleUsageStream, s.requireSession, s.requireAdmin, csrf)
	s.echo.POST("/admin/migrate/reset", s.handleMigrationReset, s.requireAdminToken)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}

func (s *Server) setupCSRFMiddleware() echo.MiddlewareFunc {
	secure := s.config.AppEnv == "production"

	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:csrf_token,header:X-CSRF-Token",
		CookieName:     "csrf_token",
		CookiePath:     "/",
		CookieMaxAge:   int(sessionMaxAge.Seconds()),
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteStrictMode,
	})
}
