package driver

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultLiveBuffer is the per-subscription notification buffer size.
const DefaultLiveBuffer = 128

// Actions a live notification can carry.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionKilled = "KILLED"
)

// Notification is one event from a live query.
type Notification struct {
	ID     uuid.UUID
	Action string
	Result any
}

// parseNotification pulls a notification out of a decoded frame body.
func parseNotification(v any) (Notification, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Notification{}, false
	}
	rawID, _ := m["id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return Notification{}, false
	}
	action, _ := m["action"].(string)
	if action == "" {
		return Notification{}, false
	}
	return Notification{ID: id, Action: action, Result: m["result"]}, true
}

// Subscription delivers the notifications of one live query. A slow
// consumer never blocks the connection: when the buffer is full the
// oldest event is discarded and counted.
type Subscription struct {
	id      uuid.UUID
	ch      chan Notification
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.Mutex
	closed bool
}

func newSubscription(id uuid.UUID, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultLiveBuffer
	}
	return &Subscription{
		id:   id,
		ch:   make(chan Notification, buffer),
		done: make(chan struct{}),
	}
}

// ID returns the server-assigned live query id.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Notifications returns the event channel. It is closed when the
// subscription ends.
func (s *Subscription) Notifications() <-chan Notification { return s.ch }

// Done is closed when the subscription ends, whether by Kill, context
// cancellation, a server-side KILLED event, or disconnect.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Dropped reports how many notifications were discarded because the
// consumer fell behind.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// deliver enqueues an event, discarding the oldest one when the buffer
// is full. Only the demultiplexer goroutine calls it.
func (s *Subscription) deliver(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- n:
		return
	default:
	}
	select {
	case <-s.ch:
		s.dropped.Add(1)
	default:
	}
	select {
	case s.ch <- n:
	default:
		s.dropped.Add(1)
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
	close(s.ch)
}

// liveRouter fans inbound notifications out to their subscriptions.
type liveRouter struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]*Subscription
	buffer int
	log    *slog.Logger
}

func newLiveRouter(buffer int, log *slog.Logger) *liveRouter {
	return &liveRouter{
		subs:   make(map[uuid.UUID]*Subscription),
		buffer: buffer,
		log:    log,
	}
}

// add registers a subscription for the given live query id.
func (r *liveRouter) add(id uuid.UUID) *Subscription {
	sub := newSubscription(id, r.buffer)
	r.mu.Lock()
	old := r.subs[id]
	r.subs[id] = sub
	r.mu.Unlock()
	if old != nil {
		old.close()
	}
	return sub
}

// remove unregisters and closes a subscription. It reports whether one
// was registered.
func (r *liveRouter) remove(id uuid.UUID) bool {
	r.mu.Lock()
	sub, ok := r.subs[id]
	delete(r.subs, id)
	r.mu.Unlock()
	if ok {
		sub.close()
	}
	return ok
}

// dispatch routes a notification to its subscription. Events for ids
// nobody subscribed to are dropped with a warning. A KILLED event is
// delivered and then ends the subscription.
func (r *liveRouter) dispatch(n Notification) {
	r.mu.Lock()
	sub, ok := r.subs[n.ID]
	if ok && n.Action == ActionKilled {
		delete(r.subs, n.ID)
	}
	r.mu.Unlock()
	if !ok {
		r.log.Warn("dropping notification for unknown live query", "id", n.ID.String(), "action", n.Action)
		return
	}
	sub.deliver(n)
	if n.Action == ActionKilled {
		sub.close()
	}
}

// closeAll ends every subscription, as on disconnect or reset.
func (r *liveRouter) closeAll() {
	r.mu.Lock()
	subs := r.subs
	r.subs = make(map[uuid.UUID]*Subscription)
	r.mu.Unlock()
	for _, sub := range subs {
		sub.close()
	}
}

func (r *liveRouter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
