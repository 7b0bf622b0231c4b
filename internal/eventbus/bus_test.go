package eventbus

import (
	"testing"
	"time"
)

func TestPublishDelivers(t *testing.T) {
	bus := New()
	defer bus.Close()

	ch := make(chan Event, 1)
	bus.Subscribe(TypeListingsAdd, ch)

	bus.Publish(Event{Type: TypeListingsAdd, WorldID: 73, ItemID: 5})

	select {
	case evt := <-ch:
		if evt.WorldID != 73 || evt.ItemID != 5 {
			t.Fatalf("event = %+v", evt)
		}
		if evt.Timestamp.IsZero() {
			t.Error("publish must stamp a timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := New()
	defer bus.Close()

	full := make(chan Event) // unbuffered, nobody reading
	bus.Subscribe(TypeSalesAdd, full)

	done := make(chan struct{})
	go func() {
		bus.Publish(Event{Type: TypeSalesAdd})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestCloseReleasesSubscribers(t *testing.T) {
	bus := New()

	// One channel on two event types, as the websocket bridge does.
	ch := make(chan Event, 4)
	bus.Subscribe(TypeListingsAdd, ch)
	bus.Subscribe(TypeSalesAdd, ch)

	bus.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel, got an event")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed")
	}

	// Idempotent, and publishes after close are dropped.
	bus.Close()
	bus.Publish(Event{Type: TypeListingsAdd})
}
