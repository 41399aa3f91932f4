package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/craftpulse/craftpulse/internal/errors"
)

func (s *Server) handleDashboard(c echo.Context) error {
	stats, err := s.repos.Admin.DashboardStats(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to load dashboard stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

// handleMigrationReset wipes every entity. Destructive and deliberate: only
// reachable with the admin shared secret.
func (s *Server) handleMigrationReset(c echo.Context) error {
	if err := s.repos.Admin.MigrationReset(c.Request().Context()); err != nil {
		slog.Error("Migration reset failed", "error", err)
		return apperrors.InternalError("migration reset failed", err)
	}

	slog.Warn("Migration reset completed, all entities wiped")
	return c.JSON(http.StatusOK, envelope{Success: true, Message: "reset complete"})
}
