package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("push.", 10)
	defer unsub()

	b.Publish(NewEvent("push.connected", nil))

	select {
	case evt := <-ch:
		if evt.Kind != "push.connected" {
			t.Errorf("got kind %q, want push.connected", evt.Kind)
		}
		if evt.ID == "" {
			t.Error("event ID should be set by NewEvent")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("conversation.", 10)
	defer unsub()

	b.Publish(NewEvent("push.error", nil))
	b.Publish(NewEvent("conversation.updated", nil))

	select {
	case evt := <-ch:
		if evt.Kind != "conversation.updated" {
			t.Errorf("got kind %q, want conversation.updated", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Ensure push event was not delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected: no more events.
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("conversation.", 10)
	unsub()

	b.Publish(NewEvent("conversation.updated", nil))

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected.
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("test.", 1)
	defer unsub()

	// Fill buffer.
	b.Publish(NewEvent("test.one", nil))
	// This should be dropped (non-blocking).
	b.Publish(NewEvent("test.two", nil))

	evt := <-ch
	if evt.Kind != "test.one" {
		t.Errorf("got %q, want test.one", evt.Kind)
	}
}
