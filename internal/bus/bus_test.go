package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(NamespaceSync, 10)
	defer unsub()

	b.Publish(Event{Kind: SyncCompleted, Timestamp: time.Now(), Payload: "done"})

	select {
	case evt := <-ch:
		if evt.Kind != SyncCompleted {
			t.Errorf("got kind %q, want %s", evt.Kind, SyncCompleted)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(NamespacePoll, 10)
	defer unsub()

	b.Publish(Event{Kind: StateModeChanged})
	b.Publish(Event{Kind: PollAppended})

	select {
	case evt := <-ch:
		if evt.Kind != PollAppended {
			t.Errorf("got kind %q, want %s", evt.Kind, PollAppended)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Ensure the state event was not delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmptyNamespaceReceivesAll(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("", 10)
	defer unsub()

	for _, kind := range []string{SyncStarted, PollAppended, StateModeChanged} {
		b.Publish(Event{Kind: kind})
	}
	if got := len(ch); got != 3 {
		t.Errorf("buffered = %d, want 3", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(NamespaceSync, 10)
	unsub()
	unsub()

	b.Publish(Event{Kind: SyncReset})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(NamespaceSync, 1)
	defer unsub()

	b.Publish(Event{Kind: SyncStarted})
	// This should be dropped (non-blocking).
	b.Publish(Event{Kind: SyncProgress})

	evt := <-ch
	if evt.Kind != SyncStarted {
		t.Errorf("got %q, want %s", evt.Kind, SyncStarted)
	}
	if b.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", b.Dropped())
	}
}
