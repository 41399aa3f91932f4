package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftpulse/craftpulse/internal/domain"
)

// --- Pagination tests ---

func TestHandleServerListPage_PageOneRedirects(t *testing.T) {
	srv := newTestServer(t, Repositories{})

	req := httptest.NewRequest(http.MethodGet, "/servers/1", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("page")
	c.SetParamValues("1")

	_ = callHandler(srv.handleServerListPage, c)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/servers", rec.Header().Get("Location"))
}

func TestHandleServerListPage_BeyondLastRedirectsToLast(t *testing.T) {
	srv := newTestServer(t, Repositories{
		Servers: &mockServerRepo{
			countFn: func(_ context.Context) (int64, error) { return 25, nil },
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/servers/99", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("page")
	c.SetParamValues("99")

	_ = callHandler(srv.handleServerListPage, c)

	// 25 servers at 10 per page means page 3 is the last
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/servers/3", rec.Header().Get("Location"))
}

func TestHandleServerListPage_GarbageRedirects(t *testing.T) {
	srv := newTestServer(t, Repositories{})

	req := httptest.NewRequest(http.MethodGet, "/servers/banana", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("page")
	c.SetParamValues("banana")

	_ = callHandler(srv.handleServerListPage, c)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/servers", rec.Header().Get("Location"))
}

func TestHandleServerListPage_ValidPageRenders(t *testing.T) {
	srv := newTestServer(t, Repositories{
		Servers: &mockServerRepo{
			countFn: func(_ context.Context) (int64, error) { return 25, nil },
			listFn: func(_ context.Context, page int) ([]domain.Server, error) {
				assert.Equal(t, 2, page)
				return []domain.Server{{ID: 11, Address: "mc.example.com"}}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/servers/2", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("page")
	c.SetParamValues("2")

	_ = callHandler(srv.handleServerListPage, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mc.example.com")
	assert.Contains(t, rec.Body.String(), `"lastPage":3`)
}

func TestHandleServerList_EmptyListingIsPageOne(t *testing.T) {
	srv := newTestServer(t, Repositories{})

	req := httptest.NewRequest(http.MethodGet, "/servers", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	_ = callHandler(srv.handleServerList, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"page":1`)
	assert.Contains(t, rec.Body.String(), `"lastPage":1`)
}

// --- Comment tests ---

func TestHandleCommentList_MissingServerID(t *testing.T) {
	srv := newTestServer(t, Repositories{})

	req := newFormRequest(http.MethodPost, "/api/comments", url.Values{})
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	_ = callHandler(srv.handleCommentList, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCommentList_ReturnsComments(t *testing.T) {
	srv := newTestServer(t, Repositories{
		Comments: &mockCommentRepo{
			listByServerFn: func(_ context.Context, serverID int64) ([]domain.Comment, error) {
				assert.Equal(t, int64(42), serverID)
				return []domain.Comment{{ID: 1, ServerID: 42, Content: "great server", Nick: "Alex"}}, nil
			},
		},
	})

	req := newFormRequest(http.MethodPost, "/api/comments", url.Values{"serverId": {"42"}})
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	_ = callHandler(srv.handleCommentList, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "great server")
	assert.Contains(t, rec.Body.String(), "Alex")
}

func TestHandleCommentCreate_Success(t *testing.T) {
	userID := uuid.New()
	var created *domain.Comment
	srv := newTestServer(t, Repositories{
		Comments: &mockCommentRepo{
			createFn: func(_ context.Context, comment *domain.Comment) (*domain.Comment, error) {
				comment.ID = 5
				created = comment
				return comment, nil
			},
		},
	})

	req := newFormRequest(http.MethodPost, "/api/comments/create", url.Values{
		"serverId": {"42"},
		"content":  {"  lovely spawn  "},
	})
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	setContextUser(c, &domain.User{ID: userID, Nick: "Alex", Role: domain.RoleUser})

	_ = callHandler(srv.handleCommentCreate, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, created)
	assert.Equal(t, "lovely spawn", created.Content)
	assert.Equal(t, userID, created.UserID)
	assert.Contains(t, rec.Body.String(), "Alex")
}

func TestHandleCommentCreate_EmptyContent(t *testing.T) {
	srv := newTestServer(t, Repositories{})

	req := newFormRequest(http.MethodPost, "/api/comments/create", url.Values{
		"serverId": {"42"},
		"content":  {"   "},
	})
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	setContextUser(c, &domain.User{ID: uuid.New()})

	_ = callHandler(srv.handleCommentCreate, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCommentCreate_TooLong(t *testing.T) {
	srv := newTestServer(t, Repositories{})

	req := newFormRequest(http.MethodPost, "/api/comments/create", url.Values{
		"serverId": {"42"},
		"content":  {strings.Repeat("x", maxCommentLength+1)},
	})
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	setContextUser(c, &domain.User{ID: uuid.New()})

	_ = callHandler(srv.handleCommentCreate, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCommentCreate_UnknownServer(t *testing.T) {
	srv := newTestServer(t, Repositories{
		Servers: &mockServerRepo{
			getByIDFn: func(_ context.Context, _ int64) (*domain.Server, error) {
				return nil, domain.ErrServerNotFound
			},
		},
	})

	req := newFormRequest(http.MethodPost, "/api/comments/create", url.Values{
		"serverId": {"999"},
		"content":  {"hello"},
	})
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	setContextUser(c, &domain.User{ID: uuid.New()})

	_ = callHandler(srv.handleCommentCreate, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Saved server tests ---

func TestHandleSaveServer_Success(t *testing.T) {
	userID := uuid.New()
	var saved bool
	srv := newTestServer(t, Repositories{
		Saved: &mockSavedRepo{
			saveFn: func(_ context.Context, owner uuid.UUID, serverID int64) error {
				saved = true
				assert.Equal(t, userID, owner)
				assert.Equal(t, int64(42), serverID)
				return nil
			},
		},
	})

	req := newFormRequest(http.MethodPost, "/api/servers/saved", url.Values{"serverId": {"42"}})
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	setContextUser(c, &domain.User{ID: userID})

	_ = callHandler(srv.handleSaveServer, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, saved)
}

func TestHandleSavedServers_ListsForUser(t *testing.T) {
	userID := uuid.New()
	srv := newTestServer(t, Repositories{
		Saved: &mockSavedRepo{
			listByUserFn: func(_ context.Context, owner uuid.UUID) ([]domain.SavedServer, error) {
				assert.Equal(t, userID, owner)
				return []domain.SavedServer{{ID: 1, UserID: owner, ServerID: 42,
					Server: &domain.Server{ID: 42, Address: "mc.example.com"}}}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/servers/saved", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	setContextUser(c, &domain.User{ID: userID})

	_ = callHandler(srv.handleSavedServers, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mc.example.com")
}

func TestHandleVerifiedServers_ListsOwned(t *testing.T) {
	userID := uuid.New()
	srv := newTestServer(t, Repositories{
		Servers: &mockServerRepo{
			listByOwnerFn: func(_ context.Context, ownerID uuid.UUID) ([]domain.Server, error) {
				assert.Equal(t, userID, ownerID)
				return []domain.Server{{ID: 42, Address: "mine.example.org"}}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/servers/verified", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	setContextUser(c, &domain.User{ID: userID})

	_ = callHandler(srv.handleVerifiedServers, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mine.example.org")
}
