package api

import (
	"testing"
	"time"
)

// No Redis server is required here: go-redis subscribes lazily, so the
// subscriber lifecycle can be exercised against an unreachable address.
func TestRedisBrokerUnsubscribeClosesSubscriber(t *testing.T) {
	b, err := NewRedisBroker("redis://127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewRedisBroker: %v", err)
	}

	ch := b.Subscribe("j_1")
	b.Unsubscribe("j_1", ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel, got event")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("subscriber channel not closed after unsubscribe")
	}

	// repeated unsubscribe of a removed channel is a no-op
	b.Unsubscribe("j_1", ch)
}

func TestRedisBrokerRejectsBadURL(t *testing.T) {
	if _, err := NewRedisBroker("not-a-url"); err == nil {
		t.Fatalf("expected parse error")
	}
}
