package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	apperrors "github.com/craftpulse/craftpulse/internal/errors"
	"github.com/craftpulse/craftpulse/internal/logging"
)

const (
	discordAuthorizeURL = "https://discord.com/oauth2/authorize"
	sessionKeyState     = "oauth_state"
)

// handleLogin redirects the browser into the Discord authorization flow with
// a per-session state nonce.
func (s *Server) handleLogin(c echo.Context) error {
	state, err := generateState()
	if err != nil {
		return apperrors.InternalError("failed to generate state", err)
	}

	session, _ := s.sessionStore.Get(c.Request(), sessionName)
	session.Values[sessionKeyState] = state
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	q := url.Values{}
	q.Set("client_id", s.config.DiscordClientID)
	q.Set("redirect_uri", s.config.DiscordRedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "identify")
	q.Set("state", state)

	return c.Redirect(http.StatusFound, discordAuthorizeURL+"?"+q.Encode())
}

// handleOAuthCallback completes the flow: state check, code exchange, user
// upsert, session write.
func (s *Server) handleOAuthCallback(c echo.Context) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return apperrors.UnauthorizedError("invalid session")
	}

	wantState, ok := session.Values[sessionKeyState].(string)
	if !ok || wantState == "" || c.QueryParam("state") != wantState {
		return apperrors.UnauthorizedError("state mismatch")
	}
	delete(session.Values, sessionKeyState)

	code := c.QueryParam("code")
	if code == "" {
		return apperrors.ValidationError("missing code parameter")
	}

	ctx := c.Request().Context()

	identity, err := s.oauthClient.ExchangeCode(ctx, code)
	if err != nil {
		return apperrors.UnauthorizedError("authentication failed").WithField("cause", err.Error())
	}

	user, err := s.repos.Users.UpsertBySnowflake(ctx, identity.Snowflake, identity.Nick, identity.Photo)
	if err != nil {
		return apperrors.InternalError("failed to upsert user", err)
	}

	if user.Photo != identity.Photo {
		if err := s.repos.Users.UpdatePhoto(ctx, user.ID, identity.Photo); err != nil {
			logging.WithUser(user.ID.String()).Warn("Failed to refresh user photo", "error", err)
		}
	}

	session.Values[sessionKeyUserID] = user.ID.String()
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	logging.WithUser(user.ID.String()).Info("User logged in", "nick", user.Nick)
	return c.Redirect(http.StatusFound, "/servers")
}

func (s *Server) handleLogout(c echo.Context) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err == nil {
		session.Options.MaxAge = -1
		_ = session.Save(c.Request(), c.Response())
	}
	return c.Redirect(http.StatusFound, "/servers")
}

func generateState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
