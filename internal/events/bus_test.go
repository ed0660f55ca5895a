package events

import (
	"errors"
	"testing"
	"time"
)

// recvEvent waits for one delivery; subscribers run on their own goroutines.
func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
		return Event{}
	}
}

func TestBusDeliversToTypeSubscribers(t *testing.T) {
	bus := NewEventBus()
	first := make(chan Event, 1)
	second := make(chan Event, 1)
	bus.Subscribe(EventSignalGenerated, func(e Event) { first <- e })
	bus.Subscribe(EventSignalGenerated, func(e Event) { second <- e })

	bus.PublishSignal("NVDA", "strong_buy", "all gates passed", 875.30)

	for _, ch := range []chan Event{first, second} {
		e := recvEvent(t, ch)
		if e.Type != EventSignalGenerated {
			t.Errorf("expected %s, got %s", EventSignalGenerated, e.Type)
		}
		if e.Data["ticker"] != "NVDA" {
			t.Errorf("expected ticker NVDA, got %v", e.Data["ticker"])
		}
		if e.Data["price"] != 875.30 {
			t.Errorf("expected price 875.30, got %v", e.Data["price"])
		}
	}
}

func TestBusFiltersOtherEventTypes(t *testing.T) {
	bus := NewEventBus()
	got := make(chan Event, 2)
	bus.Subscribe(EventAlertSent, func(e Event) { got <- e })

	bus.PublishAlertSuppressed("NVDA", "strong_buy", 30*time.Minute)
	bus.PublishAlertSent("NVDA", "strong_buy", 875.30)

	if e := recvEvent(t, got); e.Type != EventAlertSent {
		t.Fatalf("subscriber for %s received %s", EventAlertSent, e.Type)
	}
	select {
	case e := <-got:
		t.Errorf("unexpected extra delivery: %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusSubscribeAllSeesEveryType(t *testing.T) {
	bus := NewEventBus()
	got := make(chan Event, 3)
	bus.SubscribeAll(func(e Event) { got <- e })

	bus.PublishScanStarted("run-1", 7)
	bus.PublishScanCompleted("run-1", true, 2, 1, 0, 1200*time.Millisecond)
	bus.PublishError("scanner", "feed unavailable", errors.New("timeout"))

	seen := map[EventType]bool{}
	for i := 0; i < 3; i++ {
		seen[recvEvent(t, got).Type] = true
	}
	for _, want := range []EventType{EventScanStarted, EventScanCompleted, EventError} {
		if !seen[want] {
			t.Errorf("all-event subscriber missed %s", want)
		}
	}
}

func TestBusStampsPublishTime(t *testing.T) {
	bus := NewEventBus()
	got := make(chan Event, 1)
	bus.Subscribe(EventScanStarted, func(e Event) { got <- e })

	bus.Publish(Event{Type: EventScanStarted})

	if e := recvEvent(t, got); e.Timestamp.IsZero() {
		t.Error("publish should stamp a zero timestamp")
	}
}

func TestBusKeepsExplicitTimestamp(t *testing.T) {
	bus := NewEventBus()
	got := make(chan Event, 1)
	bus.Subscribe(EventScanStarted, func(e Event) { got <- e })
	stamp := time.Date(2024, 6, 3, 21, 0, 0, 0, time.UTC)

	bus.Publish(Event{Type: EventScanStarted, Timestamp: stamp})

	if e := recvEvent(t, got); !e.Timestamp.Equal(stamp) {
		t.Errorf("expected timestamp %v, got %v", stamp, e.Timestamp)
	}
}

func TestBusScanCompletedPayload(t *testing.T) {
	bus := NewEventBus()
	got := make(chan Event, 1)
	bus.Subscribe(EventScanCompleted, func(e Event) { got <- e })

	bus.PublishScanCompleted("run-9", false, 0, 0, 2, 3500*time.Millisecond)

	e := recvEvent(t, got)
	if e.Data["run_id"] != "run-9" {
		t.Errorf("expected run_id run-9, got %v", e.Data["run_id"])
	}
	if e.Data["macro_passed"] != false {
		t.Errorf("expected macro_passed false, got %v", e.Data["macro_passed"])
	}
	if e.Data["errors"] != 2 {
		t.Errorf("expected errors 2, got %v", e.Data["errors"])
	}
	if e.Data["elapsed_ms"] != int64(3500) {
		t.Errorf("expected elapsed_ms 3500, got %v", e.Data["elapsed_ms"])
	}
}

func TestBusErrorPayloadOmitsNilError(t *testing.T) {
	bus := NewEventBus()
	got := make(chan Event, 1)
	bus.Subscribe(EventError, func(e Event) { got <- e })

	bus.PublishError("feeds", "retry attempts exhausted", nil)

	e := recvEvent(t, got)
	if e.Data["source"] != "feeds" {
		t.Errorf("expected source feeds, got %v", e.Data["source"])
	}
	if _, ok := e.Data["error"]; ok {
		t.Error("nil error should not produce an error field")
	}
}
