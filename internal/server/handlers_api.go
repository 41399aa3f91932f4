package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/craftpulse/craftpulse/internal/domain"
	apperrors "github.com/craftpulse/craftpulse/internal/errors"
	"github.com/craftpulse/craftpulse/internal/metrics"
	"github.com/craftpulse/craftpulse/internal/relay"
	"github.com/craftpulse/craftpulse/internal/validate"
)

const maxNickLength = 16

// envelope is the uniform {success, message} action response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func fail(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, envelope{Success: false, Message: message})
}

// handleVoteSubmit records a vote submitted by the in-game vote plugin.
// The contract is always HTTP 200 with a {success, message} envelope:
// storage failures are converted, never thrown to the transport layer.
func (s *Server) handleVoteSubmit(c echo.Context) error {
	token := c.FormValue("token")
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		return fail(c, "please provide a vote token")
	}

	nick := c.FormValue("nick")
	if nick == "" {
		return fail(c, "please provide a nickname")
	}
	if len(nick) > maxNickLength {
		return fail(c, "nickname is too long")
	}

	ctx := c.Request().Context()

	serverID, err := s.repos.Votes.ServerIDForVoteToken(ctx, token)
	if errors.Is(err, domain.ErrVoteTokenNotFound) {
		return fail(c, "invalid vote token")
	}
	if err != nil {
		slog.Error("Failed to resolve vote token", "error", err)
		return fail(c, "something went wrong, please try again later")
	}

	vote := &domain.Vote{ServerID: serverID, Nick: nick}
	if err := s.repos.Votes.Create(ctx, vote); err != nil {
		slog.Error("Failed to record vote", "server_id", serverID, "error", err)
		return fail(c, "something went wrong, please try again later")
	}

	metrics.VotesSubmittedTotal.Inc()
	s.hub.Publish(relay.VoteChannel(serverID), relay.Event{
		Name: "new-vote",
		Data: domain.VoteEvent{ServerID: serverID, Nick: nick, VotedAt: vote.CreatedAt},
	})

	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: fmt.Sprintf("Vote recorded. Thanks %s!", nick),
	})
}

// tokenUsageResponse reports API token validity and the number of checks
// attributed to it. Count degrades to null when the count query fails.
type tokenUsageResponse struct {
	Valid   bool   `json:"valid"`
	Count   *int64 `json:"count"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleTokenUsage(c echo.Context) error {
	// Legacy contract: a bad admin secret answers 405, not 401.
	if !secureCompare(bearerToken(c), s.config.AdminToken) {
		return c.JSON(http.StatusMethodNotAllowed, envelope{Success: false, Message: "unauthorized"})
	}

	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusOK, tokenUsageResponse{Valid: false, Message: "please add token"})
	}

	ctx := c.Request().Context()

	apiToken, err := s.repos.Tokens.GetByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrTokenNotFound) {
			slog.Error("Failed to look up token", "error", err)
		}
		return c.JSON(http.StatusOK, tokenUsageResponse{Valid: false})
	}

	count, err := s.repos.Checks.CountByToken(ctx, apiToken.ID)
	if err != nil {
		// best-effort: a failing count never fails the request
		slog.Error("Failed to count checks for token", "token_id", apiToken.ID, "error", err)
		return c.JSON(http.StatusOK, tokenUsageResponse{Valid: true})
	}

	return c.JSON(http.StatusOK, tokenUsageResponse{Valid: true, Count: &count})
}

// handleBulkReplace swaps the entire server list for the batch supplied by
// the bot. All-or-nothing: a failing insert leaves the old rows in place.
func (s *Server) handleBulkReplace(c echo.Context) error {
	var batch []domain.ServerReplacement
	if err := c.Bind(&batch); err != nil {
		return fail(c, "invalid request body")
	}

	for _, srv := range batch {
		if err := validate.Validate(srv.Address); err != nil {
			return fail(c, fmt.Sprintf("invalid address %q: %v", srv.Address, err))
		}
	}

	if err := s.repos.Servers.BulkReplace(c.Request().Context(), batch); err != nil {
		slog.Error("Bulk replace failed", "batch_size", len(batch), "error", err)
		return fail(c, "bulk replace failed")
	}

	slog.Info("Bulk replace completed", "batch_size", len(batch))
	return c.JSON(http.StatusOK, envelope{Success: true, Message: "yes"})
}

// handleAutocomplete suggests servers for a partial address.
func (s *Server) handleAutocomplete(c echo.Context) error {
	q := c.QueryParam("address")
	if q == "" {
		return apperrors.ValidationError("missing address parameter")
	}

	servers, err := s.repos.Servers.Autocomplete(c.Request().Context(), q)
	if err != nil {
		return apperrors.InternalError("failed to autocomplete", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"servers": servers})
}

// checkRequest is a probe result reported by the bot.
type checkRequest struct {
	ServerID int64  `json:"serverId" form:"serverId"`
	Online   bool   `json:"online" form:"online"`
	Players  int    `json:"players" form:"players"`
	Source   string `json:"source" form:"source"`
	Token    string `json:"token" form:"token"`
	Favicon  string `json:"favicon" form:"favicon"`
}

func (s *Server) handleCheckRecord(c echo.Context) error {
	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, "invalid request body")
	}
	if req.ServerID == 0 {
		return fail(c, "missing serverId")
	}
	if req.Source == "" {
		req.Source = "bot"
	}

	ctx := c.Request().Context()

	check := &domain.Check{
		ServerID: req.ServerID,
		Online:   req.Online,
		Players:  req.Players,
		Source:   req.Source,
	}

	if req.Token != "" {
		apiToken, err := s.repos.Tokens.GetByToken(ctx, req.Token)
		switch {
		case errors.Is(err, domain.ErrTokenNotFound):
			return fail(c, "invalid token")
		case err != nil:
			// attribution is best-effort, the check still counts
			slog.Error("Failed to look up token for check", "error", err)
		default:
			check.TokenID = &apiToken.ID
		}
	}

	if err := s.repos.Checks.Insert(ctx, check); err != nil {
		slog.Error("Failed to record check", "server_id", req.ServerID, "error", err)
		return fail(c, "failed to record check")
	}

	metrics.ChecksRecordedTotal.Inc()

	// the bot reports the favicon it saw, refresh ours best-effort
	if req.Favicon != "" {
		if err := s.repos.Servers.UpdateFavicon(ctx, req.ServerID, req.Favicon); err != nil {
			slog.Error("Failed to update favicon", "server_id", req.ServerID, "error", err)
		}
	}

	return c.JSON(http.StatusOK, envelope{Success: true, Message: "check recorded"})
}

// handleVerifyStart begins the ownership claim for a server: the logged-in
// user receives a short-lived code to place in the server MOTD.
func (s *Server) handleVerifyStart(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	serverID, err := strconv.ParseInt(c.FormValue("serverId"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("missing or invalid serverId")
	}

	ctx := c.Request().Context()

	if _, err := s.repos.Servers.GetByID(ctx, serverID); err != nil {
		if errors.Is(err, domain.ErrServerNotFound) {
			return apperrors.NotFoundError("server not found")
		}
		return apperrors.InternalError("failed to load server", err)
	}

	code, err := s.verifier.Start(ctx, serverID, user.ID)
	if err != nil {
		return apperrors.InternalError("failed to start verification", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "code": code})
}

// handleVerifyConfirm completes the claim: the bot reports the code it
// observed in the server MOTD.
func (s *Server) handleVerifyConfirm(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.FormValue("serverId"), 10, 64)
	if err != nil {
		return fail(c, "missing or invalid serverId")
	}
	code := c.FormValue("code")
	if code == "" {
		return fail(c, "missing code")
	}

	ctx := c.Request().Context()

	userID, err := s.verifier.Confirm(ctx, serverID, code)
	if errors.Is(err, domain.ErrCodeMismatch) {
		return fail(c, "verification code mismatch")
	}
	if err != nil {
		slog.Error("Verification confirm failed", "server_id", serverID, "error", err)
		return fail(c, "something went wrong, please try again later")
	}

	if err := s.repos.Servers.SetOwner(ctx, serverID, userID); err != nil {
		slog.Error("Failed to set server owner", "server_id", serverID, "error", err)
		return fail(c, "failed to assign owner")
	}

	slog.Info("Server ownership verified", "server_id", serverID, "user_id", userID.String())
	return c.JSON(http.StatusOK, envelope{Success: true, Message: "ownership verified"})
}
