// Package live fans out refresh notices to connected moderator
// dashboards.
//
// The engine stays pull-based: a notice only tells watchers that the
// leaderboard for an event changed and a refetch is worthwhile. Watchers
// that cannot keep up lose notices, never their connection, and the
// writer never blocks on a slow reader.
package live

import (
	"sync"
	"time"

	"github.com/okian/verdict/pkg/metrics"
)

// Notice reasons.
const (
	ReasonScoreSubmitted = "score-submitted"
	ReasonTeamStatus     = "team-status"
	ReasonPhase          = "phase"
)

// Notice is a hint that derived views of an event are stale.
type Notice struct {
	EventID string    `json:"event_id"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

// Hub tracks watchers per event and broadcasts notices to them.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[chan Notice]struct{} // eventID -> subscriber channels
	buffer   int
	count    int
}

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithBufferSize sets the per-watcher notice buffer.
func WithBufferSize(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.buffer = size
		}
	}
}

// NewHub creates a hub with default configuration.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		watchers: make(map[string]map[chan Notice]struct{}),
		buffer:   16,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Watch subscribes to an event's refresh notices. The returned cancel
// function must be called when the watcher disconnects; after cancel the
// channel is closed.
func (h *Hub) Watch(eventID string) (<-chan Notice, func()) {
	ch := make(chan Notice, h.buffer)

	h.mu.Lock()
	if h.watchers[eventID] == nil {
		h.watchers[eventID] = make(map[chan Notice]struct{})
	}
	h.watchers[eventID][ch] = struct{}{}
	h.count++
	metrics.UpdateWatcherCount(h.count)
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.watchers[eventID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.watchers, eventID)
				}
				h.count--
				metrics.UpdateWatcherCount(h.count)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Broadcast delivers a notice to every watcher of the event. Sends are
// non-blocking; a full watcher buffer drops the notice for that watcher.
func (h *Hub) Broadcast(n Notice) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.watchers[n.EventID] {
		select {
		case ch <- n:
			metrics.RecordNoticeDelivered()
		default:
			metrics.RecordNoticeDropped()
		}
	}
}

// WatcherCount returns the number of connected watchers across events.
func (h *Hub) WatcherCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
