package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/craftpulse/craftpulse/internal/domain"
	apperrors "github.com/craftpulse/craftpulse/internal/errors"
	"github.com/craftpulse/craftpulse/internal/logging"
	"github.com/craftpulse/craftpulse/internal/validate"
)

// serverLookupResponse is the detail payload for a single server page.
type serverLookupResponse struct {
	Server     *domain.Server   `json:"server"`
	VotesTotal int64            `json:"votesTotal"`
	Comments   []domain.Comment `json:"comments"`
}

// handleServerLookup resolves a server by address. The vote count and
// comments are best-effort enrichment: their failures degrade to empty
// values rather than failing the lookup.
func (s *Server) handleServerLookup(c echo.Context) error {
	address := c.QueryParam("address")
	if err := validate.Validate(address); err != nil {
		return apperrors.ValidationError(err.Error())
	}
	bedrock := c.QueryParam("bedrock") == "true"

	ctx := c.Request().Context()

	srv, err := s.repos.Servers.GetByAddress(ctx, address, bedrock)
	if errors.Is(err, domain.ErrServerNotFound) {
		return apperrors.NotFoundError("server not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to load server", err)
	}

	resp := serverLookupResponse{Server: srv}

	if votes, err := s.repos.Votes.CountByServer(ctx, srv.ID); err != nil {
		logging.WithServer(srv.ID).Error("Failed to count votes", "error", err)
	} else {
		resp.VotesTotal = votes
	}

	if comments, err := s.repos.Comments.ListByServer(ctx, srv.ID); err != nil {
		logging.WithServer(srv.ID).Error("Failed to list comments", "error", err)
	} else {
		resp.Comments = comments
	}

	return c.JSON(http.StatusOK, resp)
}

// handleTokenCreate mints a fresh API token for an integration.
func (s *Server) handleTokenCreate(c echo.Context) error {
	token, err := s.repos.Tokens.Create(c.Request().Context(), nil)
	if err != nil {
		return apperrors.InternalError("failed to create token", err)
	}

	slog.Info("API token created", "token_id", token.ID)
	return c.JSON(http.StatusOK, map[string]any{"success": true, "token": token.Token})
}
