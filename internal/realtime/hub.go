package realtime

import (
	"context"
	"errors"
	"log"
	"sync"
)

var ErrHubClosed = errors.New("realtime hub is closed")

const subscriptionBuffer = 64

// Hub fans row changes out to subscribers. Delivery never blocks the publisher:
// a subscriber whose buffer is full misses the change.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: map[uint64]*Subscription{}}
}

type Subscription struct {
	id     uint64
	filter Filter
	hub    *Hub
	ch     chan Change
	once   sync.Once
}

// C delivers matching changes. It is closed when the subscription is released.
func (s *Subscription) C() <-chan Change { return s.ch }

func (s *Subscription) Filter() Filter { return s.filter }

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

func (h *Hub) Subscribe(f Filter) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	h.nextID++
	s := &Subscription{id: h.nextID, filter: f, hub: h, ch: make(chan Change, subscriptionBuffer)}
	h.subs[s.id] = s
	return s, nil
}

// Publish delivers c to every matching subscriber.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		if !s.filter.Match(c) {
			continue
		}
		select {
		case s.ch <- c:
		default:
			log.Printf("[realtime] subscriber %d (%s) is slow, dropping change", s.id, s.filter)
		}
	}
}

// Len reports the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close releases every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

// Watch subscribes, calls fn for each change until ctx ends or fn returns an error,
// and always releases the subscription before returning.
func (h *Hub) Watch(ctx context.Context, f Filter, fn func(Change) error) error {
	sub, err := h.Subscribe(f)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-sub.C():
			if !ok {
				return ErrHubClosed
			}
			if err := fn(c); err != nil {
				return err
			}
		}
	}
}
