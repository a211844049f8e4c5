package events

import (
	"sync/atomic"

	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
	dropped    atomic.Uint64
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(BayChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case BayChangedEvent:
		event.Publish(b.dispatcher, e)
	case BayActivityEvent:
		event.Publish(b.dispatcher, e)
	case DeviceEvent:
		event.Publish(b.dispatcher, e)
	case UpdateStatusEvent:
		event.Publish(b.dispatcher, e)
	case BrightnessChangedEvent:
		event.Publish(b.dispatcher, e)
	case ActivitySummaryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e BayChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(BayChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BayActivityEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(UpdateStatusEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BrightnessChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ActivitySummaryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
