// Package relay bridges single publish points (vote submissions, usage
// sampling) to many concurrent long-lived subscribers keyed by channel name.
//
// Delivery is at-most-once: events published to a channel with no
// subscribers are dropped, and a subscriber whose buffer is full misses the
// event rather than blocking the publisher.
package relay

import (
	"fmt"
	"strings"

	"github.com/craftpulse/craftpulse/internal/metrics"
)

const (
	// UsageChannel carries the admin usage snapshots.
	UsageChannel = "usage"

	subscriberBuffer = 16
	cmdBuffer        = 256
)

// VoteChannel names the per-server vote channel.
func VoteChannel(serverID int64) string {
	return fmt.Sprintf("vote-%d", serverID)
}

// Event is a named payload serialized into an SSE frame by the HTTP layer.
type Event struct {
	Name string
	Data any
}

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdSubscribe struct {
	sub     *Subscription
	replyCh chan struct{}
}

func (cmdSubscribe) hubCmd() {}

type cmdUnsubscribe struct {
	sub *Subscription
}

func (cmdUnsubscribe) hubCmd() {}

type cmdPublish struct {
	channel string
	event   Event
}

func (cmdPublish) hubCmd() {}

type cmdCount struct {
	channel string
	replyCh chan int
}

func (cmdCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// Subscription is one registered listener. Close deregisters it; after Close
// returns no further events are delivered and C is eventually closed.
type Subscription struct {
	hub     *Hub
	channel string
	ch      chan Event
	closed  bool
}

// C returns the event stream for this subscription.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close deregisters the subscription. Safe to call more than once, and
// after the hub has stopped.
func (s *Subscription) Close() {
	select {
	case s.hub.cmdCh <- cmdUnsubscribe{sub: s}:
	case <-s.hub.done:
	}
}

// Hub is an explicit, constructed pub/sub registry. A single goroutine owns
// the channel map, so subscriber addition and removal interleave safely with
// emission.
type Hub struct {
	cmdCh       chan hubCmd
	subscribers map[string]map[*Subscription]struct{}
	done        chan struct{}
}

func NewHub() *Hub {
	h := &Hub{
		cmdCh:       make(chan hubCmd, cmdBuffer),
		subscribers: make(map[string]map[*Subscription]struct{}),
		done:        make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdSubscribe:
			h.handleSubscribe(c)
		case cmdUnsubscribe:
			h.handleUnsubscribe(c.sub)
		case cmdPublish:
			h.handlePublish(c)
		case cmdCount:
			c.replyCh <- len(h.subscribers[c.channel])
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleSubscribe(c cmdSubscribe) {
	subs, exists := h.subscribers[c.sub.channel]
	if !exists {
		subs = make(map[*Subscription]struct{})
		h.subscribers[c.sub.channel] = subs
	}
	subs[c.sub] = struct{}{}
	metrics.RelaySubscribers.WithLabelValues(channelKind(c.sub.channel)).Inc()
	c.replyCh <- struct{}{}
}

func (h *Hub) handleUnsubscribe(sub *Subscription) {
	if sub.closed {
		return
	}
	subs, exists := h.subscribers[sub.channel]
	if !exists {
		return
	}
	if _, exists := subs[sub]; !exists {
		return
	}

	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subscribers, sub.channel)
	}
	sub.closed = true
	close(sub.ch)
	metrics.RelaySubscribers.WithLabelValues(channelKind(sub.channel)).Dec()
}

func (h *Hub) handlePublish(c cmdPublish) {
	for sub := range h.subscribers[c.channel] {
		select {
		case sub.ch <- c.event:
		default:
			// subscriber buffer full: drop, never block the publisher
			metrics.RelayEventsDroppedTotal.Inc()
		}
	}
}

func (h *Hub) handleStop() {
	for _, subs := range h.subscribers {
		for sub := range subs {
			sub.closed = true
			close(sub.ch)
		}
	}
	h.subscribers = make(map[string]map[*Subscription]struct{})
}

// --- Public API ---

// Subscribe registers a listener on a channel. Blocks until the hub has
// recorded the subscription, so a Publish issued afterwards is seen. On a
// stopped hub it returns a subscription whose stream is already closed.
func (h *Hub) Subscribe(channel string) *Subscription {
	sub := &Subscription{
		hub:     h,
		channel: channel,
		ch:      make(chan Event, subscriberBuffer),
	}
	replyCh := make(chan struct{}, 1)
	select {
	case h.cmdCh <- cmdSubscribe{sub: sub, replyCh: replyCh}:
	case <-h.done:
		sub.closed = true
		close(sub.ch)
		return sub
	}
	select {
	case <-replyCh:
	case <-h.done:
		// The hub stopped before handling the command. If it was handled,
		// handleStop already closed the stream before done was closed.
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
	}
	return sub
}

// Publish emits an event to every current subscriber of a channel.
// Non-blocking; with no subscribers, or on a stopped hub, the event is
// simply dropped.
func (h *Hub) Publish(channel string, event Event) {
	select {
	case h.cmdCh <- cmdPublish{channel: channel, event: event}:
	case <-h.done:
	}
}

// SubscriberCount returns the number of open subscriptions on a channel.
// A stopped hub reports zero.
func (h *Hub) SubscriberCount(channel string) int {
	replyCh := make(chan int, 1)
	select {
	case h.cmdCh <- cmdCount{channel: channel, replyCh: replyCh}:
	case <-h.done:
		return 0
	}
	select {
	case n := <-replyCh:
		return n
	case <-h.done:
		return 0
	}
}

// Stop closes every subscription and shuts the hub down. Safe to call more
// than once.
func (h *Hub) Stop() {
	select {
	case h.cmdCh <- cmdStop{}:
	case <-h.done:
	}
	<-h.done
}

func channelKind(channel string) string {
	if kind, _, found := strings.Cut(channel, "-"); found {
		return kind
	}
	return channel
}
