package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/craftpulse/craftpulse/internal/errors"
	"github.com/craftpulse/craftpulse/internal/relay"
)

const usageSampleInterval = time.Second

// UsageSnapshot is one frame of the admin usage stream.
type UsageSnapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	UptimeSeconds  float64   `json:"uptimeSeconds"`
	Goroutines     int       `json:"goroutines"`
	HeapAllocBytes uint64    `json:"heapAllocBytes"`
	HeapSysBytes   uint64    `json:"heapSysBytes"`
	NumGC          uint32    `json:"numGC"`
}

func writeSSEHeaders(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set(echo.HeaderCacheControl, "no-cache")
	h.Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
}

func writeSSE(c echo.Context, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

// handleVoteStream streams vote events for one server as SSE frames until
// the client disconnects.
func (s *Server) handleVoteStream(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("missing or invalid id parameter")
	}

	sub := s.hub.Subscribe(relay.VoteChannel(serverID))
	defer sub.Close()

	writeSSEHeaders(c)

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := writeSSE(c, event.Name, event.Data); err != nil {
				return nil
			}
		}
	}
}

// handleUsageStream streams process usage snapshots to the admin dashboard,
// sampled once per second.
func (s *Server) handleUsageStream(c echo.Context) error {
	sub := s.hub.Subscribe(relay.UsageChannel)
	defer sub.Close()

	writeSSEHeaders(c)

	if err := writeSSE(c, "usage", s.sampleUsage()); err != nil {
		return nil
	}

	ticker := s.clock.NewTicker(usageSampleInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := writeSSE(c, event.Name, event.Data); err != nil {
				return nil
			}
		case <-ticker.Chan():
			if err := writeSSE(c, "usage", s.sampleUsage()); err != nil {
				return nil
			}
		}
	}
}

func (s *Server) sampleUsage() UsageSnapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := s.clock.Now()
	return UsageSnapshot{
		Timestamp:      now,
		UptimeSeconds:  now.Sub(s.startTime).Seconds(),
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		HeapSysBytes:   mem.HeapSys,
		NumGC:          mem.NumGC,
	}
}
