package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type mockPostgresHealth struct {
	err error
}

func (m *mockPostgresHealth) Ping(_ context.Context) error { return m.err }

type mockRedisHealth struct {
	err error
}

func (m *mockRedisHealth) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
	}
	return cmd
}

func withHealthCheckers(pg postgresHealthChecker, rd redisHealthChecker) func(*Server) {
	return func(s *Server) {
		s.postgresHealth = pg
		s.redisHealth = rd
	}
}

func TestHandleLiveness(t *testing.T) {
	srv := newTestServer(t, Repositories{})

	req := httptest.NewRequest(http.MethodGet, "/healthz/live", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	_ = callHandler(srv.handleLiveness, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleReadiness_AllHealthy(t *testing.T) {
	srv := newTestServer(t, Repositories{},
		withHealthCheckers(&mockPostgresHealth{}, &mockRedisHealth{}))

	req := httptest.NewRequest(http.MethodGet, "/healthz/ready", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	_ = callHandler(srv.handleReadiness, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy":true`)
}

func TestHandleReadiness_PostgresDown(t *testing.T) {
	srv := newTestServer(t, Repositories{},
		withHealthCheckers(&mockPostgresHealth{err: fmt.Errorf("connection refused")}, &mockRedisHealth{}))

	req := httptest.NewRequest(http.MethodGet, "/healthz/ready", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	_ = callHandler(srv.handleReadiness, c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy":false`)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestHandleReadiness_RedisDown(t *testing.T) {
	srv := newTestServer(t, Repositories{},
		withHealthCheckers(&mockPostgresHealth{}, &mockRedisHealth{err: fmt.Errorf("redis unavailable")}))

	req := httptest.NewRequest(http.MethodGet, "/healthz/ready", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	_ = callHandler(srv.handleReadiness, c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
