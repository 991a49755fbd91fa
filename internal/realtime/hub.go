// Package realtime is the in-process change feed. Stores publish a Change
// after every mutation and subscribers are told "something changed" so they
// can re-fetch. Payloads are never inspected by subscribers.
package realtime

import (
	"log/slog"
	"sync"
)

const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const (
	TableAccounts      = "accounts"
	TableFamilies      = "families"
	TablePosts         = "posts"
	TablePostLikes     = "post_likes"
	TableComments      = "comments"
	TableMedia         = "media"
	TableNotifications = "notifications"
	TableQuizAttempts  = "quiz_attempts"
)

// Change describes one row-level mutation.
type Change struct {
	Table    string
	Action   string
	FamilyID string
	RowID    string
}

// Topic selects changes on one table. Empty FamilyID or RowID match any value.
type Topic struct {
	Table    string
	FamilyID string
	RowID    string
}

func (t Topic) matches(c Change) bool {
	if t.Table != c.Table {
		return false
	}
	if t.FamilyID != "" && t.FamilyID != c.FamilyID {
		return false
	}
	if t.RowID != "" && t.RowID != c.RowID {
		return false
	}
	return true
}

// Hub maintains the set of active subscriptions and fans changes out to them.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	logger *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers fn to run whenever a change matching any topic is
// published. fn runs on the subscription's own goroutine, so invocations for
// one subscription never overlap. Changes that arrive while fn is running
// coalesce into a single follow-up invocation.
func (h *Hub) Subscribe(topics []Topic, fn func()) *Subscription {
	s := &Subscription{
		hub:    h,
		topics: topics,
		fn:     fn,
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go s.run()
	return s
}

// Publish signals every subscription with a topic matching c. It never blocks.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for s := range h.subs {
		if s.wants(c) {
			s.Trigger()
			n++
		}
	}
	if h.logger != nil {
		h.logger.Debug("change published", "table", c.Table, "action", c.Action, "family_id", c.FamilyID, "subscribers", n)
	}
}

// SubscriptionCount returns the number of live subscriptions.
func (h *Hub) SubscriptionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// Subscription is a live registration on a Hub.
type Subscription struct {
	hub    *Hub
	topics []Topic
	fn     func()

	signal chan struct{}
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *Subscription) wants(c Change) bool {
	for _, t := range s.topics {
		if t.matches(c) {
			return true
		}
	}
	return false
}

// Trigger schedules one invocation of the subscription's callback, as if a
// matching change had been published.
func (s *Subscription) Trigger() {
	select {
	case s.signal <- struct{}{}:
	default:
		// already pending
	}
}

func (s *Subscription) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-s.signal:
			// Close may have raced the signal; stop wins.
			select {
			case <-s.stop:
				return
			default:
			}
			s.fn()
		}
	}
}

// Close removes the subscription from its hub and waits for an in-flight
// callback to finish. After Close returns the callback is never invoked
// again. Close is idempotent and must not be called from inside the
// subscription's own callback.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.stop)
	})
	<-s.done
}
