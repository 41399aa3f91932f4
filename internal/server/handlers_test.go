package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/craftpulse/craftpulse/internal/config"
	"github.com/craftpulse/craftpulse/internal/domain"
	apperrors "github.com/craftpulse/craftpulse/internal/errors"
	"github.com/craftpulse/craftpulse/internal/relay"
)

// --- Mock implementations ---

type mockUserRepo struct {
	getByIDFn           func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	upsertBySnowflakeFn func(ctx context.Context, snowflake, nick, photo string) (*domain.User, error)
	updatePhotoFn       func(ctx context.Context, userID uuid.UUID, photo string) error
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) UpsertBySnowflake(ctx context.Context, snowflake, nick, photo string) (*domain.User, error) {
	if m.upsertBySnowflakeFn != nil {
		return m.upsertBySnowflakeFn(ctx, snowflake, nick, photo)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockUserRepo) UpdatePhoto(ctx context.Context, userID uuid.UUID, photo string) error {
	if m.updatePhotoFn != nil {
		return m.updatePhotoFn(ctx, userID, photo)
	}
	return nil
}

type mockServerRepo struct {
	getByIDFn       func(ctx context.Context, id int64) (*domain.Server, error)
	getByAddressFn  func(ctx context.Context, address string, bedrock bool) (*domain.Server, error)
	autocompleteFn  func(ctx context.Context, q string) ([]domain.Server, error)
	listFn          func(ctx context.Context, page int) ([]domain.Server, error)
	countFn         func(ctx context.Context) (int64, error)
	listByOwnerFn   func(ctx context.Context, ownerID uuid.UUID) ([]domain.Server, error)
	setOwnerFn      func(ctx context.Context, serverID int64, ownerID uuid.UUID) error
	updateFaviconFn func(ctx context.Context, serverID int64, favicon string) error
	bulkReplaceFn   func(ctx context.Context, batch []domain.ServerReplacement) error
}

func (m *mockServerRepo) GetByID(ctx context.Context, id int64) (*domain.Server, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.Server{ID: id, Address: "mc.example.com"}, nil
}

func (m *mockServerRepo) GetByAddress(ctx context.Context, address string, bedrock bool) (*domain.Server, error) {
	if m.getByAddressFn != nil {
		return m.getByAddressFn(ctx, address, bedrock)
	}
	return nil, domain.ErrServerNotFound
}

func (m *mockServerRepo) Autocomplete(ctx context.Context, q string) ([]domain.Server, error) {
	if m.autocompleteFn != nil {
		return m.autocompleteFn(ctx, q)
	}
	return nil, nil
}

func (m *mockServerRepo) List(ctx context.Context, page int) ([]domain.Server, error) {
	if m.listFn != nil {
		return m.listFn(ctx, page)
	}
	return nil, nil
}

func (m *mockServerRepo) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockServerRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Server, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockServerRepo) SetOwner(ctx context.Context, serverID int64, ownerID uuid.UUID) error {
	if m.setOwnerFn != nil {
		return m.setOwnerFn(ctx, serverID, ownerID)
	}
	return nil
}

func (m *mockServerRepo) UpdateFavicon(ctx context.Context, serverID int64, favicon string) error {
	if m.updateFaviconFn != nil {
		return m.updateFaviconFn(ctx, serverID, favicon)
	}
	return nil
}

func (m *mockServerRepo) BulkReplace(ctx context.Context, batch []domain.ServerReplacement) error {
	if m.bulkReplaceFn != nil {
		return m.bulkReplaceFn(ctx, batch)
	}
	return nil
}

type mockCheckRepo struct {
	insertFn       func(ctx context.Context, check *domain.Check) error
	countByTokenFn func(ctx context.Context, tokenID int64) (int64, error)
}

func (m *mockCheckRepo) Insert(ctx context.Context, check *domain.Check) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, check)
	}
	return nil
}

func (m *mockCheckRepo) CountByToken(ctx context.Context, tokenID int64) (int64, error) {
	if m.countByTokenFn != nil {
		return m.countByTokenFn(ctx, tokenID)
	}
	return 0, nil
}

type mockCommentRepo struct {
	createFn       func(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	listByServerFn func(ctx context.Context, serverID int64) ([]domain.Comment, error)
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, comment)
	}
	return comment, nil
}

func (m *mockCommentRepo) ListByServer(ctx context.Context, serverID int64) ([]domain.Comment, error) {
	if m.listByServerFn != nil {
		return m.listByServerFn(ctx, serverID)
	}
	return nil, nil
}

type mockSavedRepo struct {
	saveFn       func(ctx context.Context, userID uuid.UUID, serverID int64) error
	removeFn     func(ctx context.Context, userID uuid.UUID, serverID int64) error
	listByUserFn func(ctx context.Context, userID uuid.UUID) ([]domain.SavedServer, error)
}

func (m *mockSavedRepo) Save(ctx context.Context, userID uuid.UUID, serverID int64) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, userID, serverID)
	}
	return nil
}

func (m *mockSavedRepo) Remove(ctx context.Context, userID uuid.UUID, serverID int64) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, userID, serverID)
	}
	return nil
}

func (m *mockSavedRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SavedServer, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

type mockTokenRepo struct {
	getByTokenFn func(ctx context.Context, token string) (*domain.Token, error)
	createFn     func(ctx context.Context, ownerID *uuid.UUID) (*domain.Token, error)
}

func (m *mockTokenRepo) GetByToken(ctx context.Context, token string) (*domain.Token, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, domain.ErrTokenNotFound
}

func (m *mockTokenRepo) Create(ctx context.Context, ownerID *uuid.UUID) (*domain.Token, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockVoteRepo struct {
	createFn               func(ctx context.Context, vote *domain.Vote) error
	serverIDForVoteTokenFn func(ctx context.Context, token string) (int64, error)
	countByServerFn        func(ctx context.Context, serverID int64) (int64, error)
}

func (m *mockVoteRepo) Create(ctx context.Context, vote *domain.Vote) error {
	if m.createFn != nil {
		return m.createFn(ctx, vote)
	}
	return nil
}

func (m *mockVoteRepo) ServerIDForVoteToken(ctx context.Context, token string) (int64, error) {
	if m.serverIDForVoteTokenFn != nil {
		return m.serverIDForVoteTokenFn(ctx, token)
	}
	return 0, domain.ErrVoteTokenNotFound
}

func (m *mockVoteRepo) CountByServer(ctx context.Context, serverID int64) (int64, error) {
	if m.countByServerFn != nil {
		return m.countByServerFn(ctx, serverID)
	}
	return 0, nil
}

type mockAdminRepo struct {
	dashboardStatsFn func(ctx context.Context) (*domain.DashboardStats, error)
	migrationResetFn func(ctx context.Context) error
}

func (m *mockAdminRepo) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	if m.dashboardStatsFn != nil {
		return m.dashboardStatsFn(ctx)
	}
	return &domain.DashboardStats{}, nil
}

func (m *mockAdminRepo) MigrationReset(ctx context.Context) error {
	if m.migrationResetFn != nil {
		return m.migrationResetFn(ctx)
	}
	return nil
}

type mockVerifier struct {
	startFn   func(ctx context.Context, serverID int64, userID uuid.UUID) (string, error)
	confirmFn func(ctx context.Context, serverID int64, code string) (uuid.UUID, error)
}

func (m *mockVerifier) Start(ctx context.Context, serverID int64, userID uuid.UUID) (string, error) {
	if m.startFn != nil {
		return m.startFn(ctx, serverID, userID)
	}
	return "ABC234", nil
}

func (m *mockVerifier) Confirm(ctx context.Context, serverID int64, code string) (uuid.UUID, error) {
	if m.confirmFn != nil {
		return m.confirmFn(ctx, serverID, code)
	}
	return uuid.Nil, domain.ErrCodeMismatch
}

type mockOAuthClient struct {
	identity *discordIdentity
	err      error
}

func (m *mockOAuthClient) ExchangeCode(_ context.Context, _ string) (*discordIdentity, error) {
	return m.identity, m.err
}

// --- Test helpers ---

func newTestServer(t *testing.T, repos Repositories, opts ...func(*Server)) *Server {
	t.Helper()

	if repos.Users == nil {
		repos.Users = &mockUserRepo{}
	}
	if repos.Servers == nil {
		repos.Servers = &mockServerRepo{}
	}
	if repos.Checks == nil {
		repos.Checks = &mockCheckRepo{}
	}
	if repos.Comments == nil {
		repos.Comments = &mockCommentRepo{}
	}
	if repos.Saved == nil {
		repos.Saved = &mockSavedRepo{}
	}
	if repos.Tokens == nil {
		repos.Tokens = &mockTokenRepo{}
	}
	if repos.Votes == nil {
		repos.Votes = &mockVoteRepo{}
	}
	if repos.Admin == nil {
		repos.Admin = &mockAdminRepo{}
	}

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	e := echo.New()
	// Install error middleware for tests to match production behavior
	e.Use(apperrors.Middleware())

	clock := clockwork.NewFakeClock()
	hub := relay.NewHub()
	t.Cleanup(hub.Stop)

	srv := &Server{
		echo: e,
		config: &config.Config{
			AppEnv:     "test",
			BotSecret:  "test-bot-secret",
			AdminToken: "test-admin-token",
		},
		repos:        repos,
		verifier:     &mockVerifier{},
		hub:          hub,
		clock:        clock,
		sessionStore: store,
		startTime:    clock.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

func withVerifier(v domain.Verifier) func(*Server) {
	return func(s *Server) {
		s.verifier = v
	}
}

func withOAuthClient(oauth oauthClient) func(*Server) {
	return func(s *Server) {
		s.oauthClient = oauth
	}
}

func withClock(clock clockwork.Clock) func(*Server) {
	return func(s *Server) {
		s.clock = clock
		s.startTime = clock.Now()
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return apperrors.Middleware()(handler)(c)
}

func setContextUser(c echo.Context, user *domain.User) {
	c.Set(contextKeyUser, user)
}

func setSessionUserID(t *testing.T, srv *Server, req *http.Request, rec *httptest.ResponseRecorder, userID uuid.UUID) {
	t.Helper()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyUserID] = userID.String()
	require.NoError(t, session.Save(req, rec))
}
