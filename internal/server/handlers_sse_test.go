package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftpulse/craftpulse/internal/domain"
	"github.com/craftpulse/craftpulse/internal/relay"
)

// syncRecorder wraps httptest.ResponseRecorder so the test can read the body
// while the streaming handler is still writing.
type syncRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func newSyncRecorder() *syncRecorder {
	return &syncRecorder{rec: httptest.NewRecorder()}
}

func (r *syncRecorder) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Header()
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Write(p)
}

func (r *syncRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.WriteHeader(code)
}

func (r *syncRecorder) Flush() {}

func (r *syncRecorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Body.String()
}

func (r *syncRecorder) ContentType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Header().Get("Content-Type")
}

func TestHandleVoteStream_MissingID(t *testing.T) {
	srv := newTestServer(t, Repositories{})

	req := httptest.NewRequest(http.MethodGet, "/api/vote-stream", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	_ = callHandler(srv.handleVoteStream, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVoteStream_DeliversFrames(t *testing.T) {
	srv := newTestServer(t, Repositories{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/vote-stream?id=42", nil).WithContext(ctx)
	rec := newSyncRecorder()
	c := srv.echo.NewContext(req, rec)

	handlerDone := make(chan struct{})
	go func() {
		defer close(handlerDone)
		_ = srv.handleVoteStream(c)
	}()

	require.Eventually(t, func() bool {
		return srv.hub.SubscriberCount(relay.VoteChannel(42)) == 1
	}, time.Second, 5*time.Millisecond)

	srv.hub.Publish(relay.VoteChannel(42), relay.Event{
		Name: "new-vote",
		Data: domain.VoteEvent{ServerID: 42, Nick: "Steve"},
	})

	require.Eventually(t, func() bool {
		return strings.Contains(rec.Body(), "event: new-vote")
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-handlerDone

	assert.Contains(t, rec.Body(), `"nick":"Steve"`)
	assert.Equal(t, "text/event-stream", rec.ContentType())
}

func TestHandleVoteStream_UnsubscribesOnDisconnect(t *testing.T) {
	srv := newTestServer(t, Repositories{})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/vote-stream?id=7", nil).WithContext(ctx)
	c := srv.echo.NewContext(req, newSyncRecorder())

	handlerDone := make(chan struct{})
	go func() {
		defer close(handlerDone)
		_ = srv.handleVoteStream(c)
	}()

	require.Eventually(t, func() bool {
		return srv.hub.SubscriberCount(relay.VoteChannel(7)) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-handlerDone

	require.Eventually(t, func() bool {
		return srv.hub.SubscriberCount(relay.VoteChannel(7)) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHandleUsageStream_SamplesOnTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	srv := newTestServer(t, Repositories{}, withClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/admin/usage-stream", nil).WithContext(ctx)
	rec := newSyncRecorder()
	c := srv.echo.NewContext(req, rec)

	handlerDone := make(chan struct{})
	go func() {
		defer close(handlerDone)
		_ = srv.handleUsageStream(c)
	}()

	// wait for the ticker to be registered before advancing
	clock.BlockUntil(1)
	clock.Advance(usageSampleInterval)

	// one immediate sample plus at least one tick
	require.Eventually(t, func() bool {
		return strings.Count(rec.Body(), "event: usage") >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-handlerDone

	body := rec.Body()
	assert.Contains(t, body, `"goroutines"`)
	assert.Contains(t, body, `"heapAllocBytes"`)
}
