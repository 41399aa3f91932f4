package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	apperrors "github.com/craftpulse/craftpulse/internal/errors"
	"github.com/craftpulse/craftpulse/internal/domain"
)

const contextKeyUser = "user"

// requireSession resolves the signed session cookie to a user and threads it
// into the request context. The user is looked up once here; handlers read
// it with currentUser instead of re-resolving ambient state.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return apperrors.UnauthorizedError("not logged in")
		}

		raw, ok := session.Values[sessionKeyUserID].(string)
		if !ok {
			return apperrors.UnauthorizedError("not logged in")
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.UnauthorizedError("not logged in")
		}

		user, err := s.repos.Users.GetByID(c.Request().Context(), userID)
		if err != nil {
			return apperrors.UnauthorizedError("not logged in")
		}

		c.Set(contextKeyUser, user)
		return next(c)
	}
}

// requireAdmin must run after requireSession.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(contextKeyUser).(*domain.User)
		if !ok || !user.IsAdmin() {
			return apperrors.UnauthorizedError("unauthorized")
		}
		return next(c)
	}
}

// currentUser returns the session user placed by requireSession.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(contextKeyUser).(*domain.User)
	if !ok {
		return nil, apperrors.InternalError("missing user in context", nil)
	}
	return user, nil
}

// requireBotSecret gates machine-to-machine bot routes with the shared
// secret header. The response never hints how close the credential was.
func (s *Server) requireBotSecret(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !secureCompare(bearerToken(c), s.config.BotSecret) {
			return apperrors.UnauthorizedError("unauthorized")
		}
		return next(c)
	}
}

// requireAdminToken gates admin machine routes with the admin shared secret.
func (s *Server) requireAdminToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !secureCompare(bearerToken(c), s.config.AdminToken) {
			return apperrors.UnauthorizedError("unauthorized")
		}
		return next(c)
	}
}

// bearerToken extracts the Authorization header value, with or without the
// Bearer prefix.
func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	return strings.TrimPrefix(auth, "Bearer ")
}

func secureCompare(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

const rateLimiterExpiry = 5 * time.Minute

func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded",
			})
		},
	})
}
