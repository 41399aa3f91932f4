package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/craftpulse/craftpulse/internal/retry"
)

const (
	discordTokenURL = "https://discord.com/api/oauth2/token"
	discordMeURL    = "https://discord.com/api/users/@me"
	discordCDN      = "https://cdn.discordapp.com"
	httpCallTimeout = 10 * time.Second
)

// oauthClient handles the Discord OAuth code exchange and identity fetch.
type oauthClient interface {
	ExchangeCode(ctx context.Context, code string) (*discordIdentity, error)
}

// discordIdentity is the result of a code exchange plus identity fetch.
type discordIdentity struct {
	Snowflake string
	Nick      string
	Photo     string
}

// discordOAuthHTTPClient is the production implementation using Discord HTTP APIs.
type discordOAuthHTTPClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
}

func newDiscordOAuthClient(clientID, clientSecret, redirectURI string) *discordOAuthHTTPClient {
	return &discordOAuthHTTPClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

// statusError carries the HTTP status of a failed Discord call so the retry
// classifier can tell rate limits and outages from hard rejections.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.url, e.code)
}

func classifyDiscordError(err error) retry.Action {
	var se *statusError
	if !errors.As(err, &se) {
		// network-level failure, worth another try
		return retry.Retry
	}
	switch {
	case se.code == http.StatusTooManyRequests:
		return retry.After
	case se.code >= 500:
		return retry.Retry
	default:
		return retry.Stop
	}
}

var discordRetryPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   200 * time.Millisecond,
	RateLimitBackoff: 2 * time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Retrying Discord call", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

func (c *discordOAuthHTTPClient) ExchangeCode(ctx context.Context, code string) (*discordIdentity, error) {
	accessToken, err := retry.Do(ctx, discordRetryPolicy, classifyDiscordError, func() (string, error) {
		return c.exchangeCode(ctx, code)
	})
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	identity, err := retry.Do(ctx, discordRetryPolicy, classifyDiscordError, func() (*discordIdentity, error) {
		return c.fetchIdentity(ctx, accessToken)
	})
	if err != nil {
		return nil, fmt.Errorf("identity fetch failed: %w", err)
	}
	return identity, nil
}

func (c *discordOAuthHTTPClient) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, discordTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: httpCallTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, url: discordTokenURL}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("no access token returned")
	}
	return tokenResp.AccessToken, nil
}

func (c *discordOAuthHTTPClient) fetchIdentity(ctx context.Context, accessToken string) (*discordIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discordMeURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: httpCallTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, url: discordMeURL}
	}

	var userResp struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userResp); err != nil {
		return nil, err
	}
	if userResp.ID == "" {
		return nil, fmt.Errorf("no user data returned")
	}

	photo := ""
	if userResp.Avatar != "" {
		photo = fmt.Sprintf("%s/avatars/%s/%s.png", discordCDN, userResp.ID, userResp.Avatar)
	}

	return &discordIdentity{
		Snowflake: userResp.ID,
		Nick:      userResp.Username,
		Photo:     photo,
	}, nil
}
