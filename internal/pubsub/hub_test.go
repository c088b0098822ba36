package pubsub

import "testing"

func TestHubDeliversInOrder(t *testing.T) {
	h := NewHub[int]()
	var got []string
	h.Subscribe(func(v int) { got = append(got, "a") })
	h.Subscribe(func(v int) { got = append(got, "b") })
	h.Publish(1)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub[string]()
	calls := 0
	tok := h.Subscribe(func(string) { calls++ })
	h.Publish("x")
	if !h.Unsubscribe(tok) {
		t.Fatalf("unsubscribe reported unknown token")
	}
	if h.Unsubscribe(tok) {
		t.Fatalf("second unsubscribe should report false")
	}
	h.Publish("y")
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if h.Len() != 0 {
		t.Fatalf("len = %d", h.Len())
	}
}

func TestHubHandlerMayUnsubscribeItself(t *testing.T) {
	h := NewHub[int]()
	var tok Token
	calls := 0
	tok = h.Subscribe(func(int) {
		calls++
		h.Unsubscribe(tok)
	})
	h.Publish(1)
	h.Publish(2)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
