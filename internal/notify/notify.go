// Package notify delivers transient user-facing notifications to subscribers.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/librarydesk/librarydesk/internal/id"
	"github.com/librarydesk/librarydesk/internal/logger"
)

// Level classifies a notification.
type Level string

const (
	// LevelSuccess marks a completed mutation.
	LevelSuccess Level = "success"
	// LevelError marks a failed call or a blocked submission.
	LevelError Level = "error"
	// LevelInfo marks an informational notice.
	LevelInfo Level = "info"
)

// Notification is one transient message shown to the user.
type Notification struct {
	At      time.Time `json:"at"`
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Screen  string    `json:"screen"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

// Subscriber receives notifications on C until it is unsubscribed or the hub closes.
type Subscriber struct {
	C      <-chan Notification
	ch     chan Notification
	ID     string
	Screen string // empty receives every screen
}

// Hub fans notifications out to subscribers.
type Hub struct {
	subs   map[string]*Subscriber
	logger *logger.Logger
	buffer int
	mu     sync.RWMutex
	closed bool
}

// NewHub creates a hub whose subscribers buffer up to buffer notifications each.
func NewHub(log *logger.Logger, buffer int) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[string]*Subscriber),
		logger: log,
		buffer: buffer,
	}
}

// Subscribe registers a subscriber for screen. An empty screen receives all
// notifications. Subscribing to a closed hub returns an already closed channel.
func (h *Hub) Subscribe(screen string) *Subscriber {
	ch := make(chan Notification, h.buffer)
	sub := &Subscriber{
		C:      ch,
		ch:     ch,
		ID:     id.MustGenerate(id.PrefixSub),
		Screen: screen,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub.ID] = sub

	h.logger.Debug("notification subscriber added",
		slog.String("subscriber_id", sub.ID),
		slog.String("screen", screen),
		slog.Int("total_subscribers", len(h.subs)))
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.ID]; !ok {
		return
	}
	delete(h.subs, sub.ID)
	close(sub.ch)
}

// Emit delivers n to every matching subscriber. Delivery never blocks: a
// subscriber with a full buffer misses the notification.
func (h *Hub) Emit(n Notification) Notification {
	if n.ID == "" {
		n.ID = id.MustGenerate(id.PrefixNotice)
	}
	if n.At.IsZero() {
		n.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return n
	}

	var delivered, dropped int
	for _, sub := range h.subs {
		if sub.Screen != "" && n.Screen != "" && sub.Screen != n.Screen {
			continue
		}
		select {
		case sub.ch <- n:
			delivered++
		default:
			dropped++
			h.logger.Warn("dropped notification for slow subscriber",
				slog.String("subscriber_id", sub.ID),
				slog.String("screen", n.Screen))
		}
	}

	h.logger.Debug("notification emitted",
		slog.String("level", string(n.Level)),
		slog.String("screen", n.Screen),
		slog.String("message", n.Message),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped)))
	return n
}

// Success emits a success notification.
func (h *Hub) Success(screen, message string) Notification {
	return h.Emit(Notification{Level: LevelSuccess, Screen: screen, Message: message})
}

// Failure emits an error notification carrying err as detail.
func (h *Hub) Failure(screen, message string, err error) Notification {
	n := Notification{Level: LevelError, Screen: screen, Message: message}
	if err != nil {
		n.Detail = err.Error()
	}
	return h.Emit(n)
}

// Info emits an informational notification.
func (h *Hub) Info(screen, message string) Notification {
	return h.Emit(Notification{Level: LevelInfo, Screen: screen, Message: message})
}

// Close closes every subscriber channel. Later emits are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, sub := range h.subs {
		close(sub.ch)
	}
	h.subs = make(map[string]*Subscriber)
}
