package events

import (
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	if b.Count() != 0 {
		t.Errorf("Count = %d, want 0", b.Count())
	}

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	if b.Count() != 2 {
		t.Errorf("Count = %d, want 2", b.Count())
	}

	b.Unsubscribe(ch1)
	if b.Count() != 1 {
		t.Errorf("Count = %d, want 1", b.Count())
	}
	if _, open := <-ch1; open {
		t.Error("unsubscribed channel not closed")
	}

	b.Unsubscribe(ch2)
}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)

	b.OnRangeChanged(3, 7)

	for _, ch := range []chan RangeChange{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Start != 3 || ev.Count != 7 {
				t.Errorf("event = %+v, want start 3 count 7", ev)
			}
			if ev.Timestamp == 0 {
				t.Error("timestamp not stamped")
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := NewBroadcaster()
	// Must not block or panic.
	b.OnRangeChanged(0, 1)
}

func TestSlowConsumerDoesNotBlockPublisher(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Well past the subscriber buffer; nobody is reading.
		for i := 0; i < 200; i++ {
			b.Publish(RangeChange{Start: i, Count: 1})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow consumer")
	}

	// The buffered prefix arrived; the overflow was dropped.
	if n := len(ch); n == 0 || n > 64 {
		t.Errorf("buffered events = %d, want 1..64", n)
	}
}
