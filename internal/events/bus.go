package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventScanStarted     EventType = "SCAN_STARTED"
	EventScanCompleted   EventType = "SCAN_COMPLETED"
	EventSignalGenerated EventType = "SIGNAL_GENERATED"
	EventAlertSent       EventType = "ALERT_SENT"
	EventAlertSuppressed EventType = "ALERT_SUPPRESSED"
	EventScannerStarted  EventType = "SCANNER_STARTED"
	EventScannerStopped  EventType = "SCANNER_STOPPED"
	EventError           EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	// Set timestamp if not provided
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Notify specific subscribers
	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	// Notify all-event subscribers
	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishScanStarted publishes a scan started event
func (eb *EventBus) PublishScanStarted(runID string, tickers int) {
	eb.Publish(Event{
		Type: EventScanStarted,
		Data: map[string]interface{}{
			"run_id":  runID,
			"tickers": tickers,
		},
	})
}

// PublishScanCompleted publishes a scan completed event
func (eb *EventBus) PublishScanCompleted(runID string, macroPassed bool, strongBuys, watches, errors int, elapsed time.Duration) {
	eb.Publish(Event{
		Type: EventScanCompleted,
		Data: map[string]interface{}{
			"run_id":       runID,
			"macro_passed": macroPassed,
			"strong_buys":  strongBuys,
			"watches":      watches,
			"errors":       errors,
			"elapsed_ms":   elapsed.Milliseconds(),
		},
	})
}

// PublishSignal publishes a signal generated event
func (eb *EventBus) PublishSignal(ticker, classification, reason string, price float64) {
	eb.Publish(Event{
		Type: EventSignalGenerated,
		Data: map[string]interface{}{
			"ticker":         ticker,
			"classification": classification,
			"reason":         reason,
			"price":          price,
		},
	})
}

// PublishAlertSent publishes an alert sent event
func (eb *EventBus) PublishAlertSent(ticker, classification string, price float64) {
	eb.Publish(Event{
		Type: EventAlertSent,
		Data: map[string]interface{}{
			"ticker":         ticker,
			"classification": classification,
			"price":          price,
		},
	})
}

// PublishAlertSuppressed publishes an alert suppressed event
func (eb *EventBus) PublishAlertSuppressed(ticker, classification string, cooldownRemaining time.Duration) {
	eb.Publish(Event{
		Type: EventAlertSuppressed,
		Data: map[string]interface{}{
			"ticker":             ticker,
			"classification":     classification,
			"cooldown_remaining": cooldownRemaining.Seconds(),
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
