// Package collectors feeds Prometheus metrics from daemon events.
package collectors

import (
	"log/slog"
	"sync"

	"github.com/smazurov/baylight/internal/events"
	"github.com/smazurov/baylight/internal/logging"
	"github.com/smazurov/baylight/internal/metrics"
	"github.com/smazurov/baylight/internal/updates"
)

// EventCollector records bay, hot-plug and update events as metrics.
type EventCollector struct {
	bus    *events.Bus
	logger *slog.Logger

	mu     sync.Mutex
	unsubs []func()

	seenMu sync.Mutex
	seen   map[int]struct{}
}

// NewEventCollector creates a collector for the given bus.
func NewEventCollector(bus *events.Bus) *EventCollector {
	return &EventCollector{
		bus:    bus,
		logger: logging.GetLogger("metrics"),
		seen:   make(map[int]struct{}),
	}
}

// Start subscribes to the bus. Calling Start twice has no effect.
func (c *EventCollector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubs != nil {
		return
	}

	c.unsubs = []func(){
		c.bus.Subscribe(c.onBayChanged),
		c.bus.Subscribe(c.onBayActivity),
		c.bus.Subscribe(c.onDeviceEvent),
		c.bus.Subscribe(c.onUpdateStatus),
	}
	c.logger.Debug("Metrics collector subscribed")
}

// Stop unsubscribes from the bus and removes the per-bay series this
// collector created, so a stopped daemon does not export stale bays.
func (c *EventCollector) Stop() {
	c.mu.Lock()
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
	c.mu.Unlock()

	c.seenMu.Lock()
	defer c.seenMu.Unlock()
	for index := range c.seen {
		metrics.DeleteBayMetrics(index)
	}
	clear(c.seen)
}

func (c *EventCollector) track(index int) {
	c.seenMu.Lock()
	c.seen[index] = struct{}{}
	c.seenMu.Unlock()
}

func (c *EventCollector) onBayChanged(e events.BayChangedEvent) {
	c.track(e.Index)
	metrics.SetBayPresent(e.Index, e.Present)
}

func (c *EventCollector) onBayActivity(e events.BayActivityEvent) {
	c.track(e.Index)
	metrics.SetBayInFlight(e.Index, e.InFlight)
}

func (c *EventCollector) onDeviceEvent(e events.DeviceEvent) {
	metrics.IncDeviceEvent(e.Action, e.Accepted)
}

func (c *EventCollector) onUpdateStatus(e events.UpdateStatusEvent) {
	metrics.SetUpdateState(updates.State(e.State).Level())
	metrics.SetPendingUpdates(e.Updates, e.Security)
}
