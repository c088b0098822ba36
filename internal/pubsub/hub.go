// Package pubsub is a small typed fan-out used for backend events and
// controller updates. Handlers run on the publisher's goroutine in
// subscription order and must not block for long.
package pubsub

import "sync"

// Token identifies a subscription.
type Token uint64

type entry[T any] struct {
	tok Token
	fn  func(T)
}

type Hub[T any] struct {
	mu   sync.RWMutex
	next Token
	subs []entry[T]
}

func NewHub[T any]() *Hub[T] { return &Hub[T]{} }

func (h *Hub[T]) Subscribe(fn func(T)) Token {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.subs = append(h.subs, entry[T]{tok: h.next, fn: fn})
	return h.next
}

// Unsubscribe removes the handler. It reports false for unknown tokens.
func (h *Hub[T]) Unsubscribe(tok Token) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, e := range h.subs {
		if e.tok == tok {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers v to every current subscriber. The handler list is
// copied first so handlers may subscribe or unsubscribe.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	subs := make([]entry[T], len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()
	for _, e := range subs {
		e.fn(v)
	}
}

func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
