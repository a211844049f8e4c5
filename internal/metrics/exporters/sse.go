package exporters

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/smazurov/baylight/internal/events"
	"github.com/smazurov/baylight/internal/metrics"
)

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// SSEExporter periodically publishes the bay activity gauges as one
// summary event, so stream clients are not flooded by per-poll samples.
type SSEExporter struct {
	eventBus EventPublisher
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSSEExporter creates a new SSE exporter.
func NewSSEExporter(eventBus EventPublisher) *SSEExporter {
	return &SSEExporter{
		eventBus: eventBus,
		interval: 1 * time.Second,
	}
}

// Start begins the export loop.
func (s *SSEExporter) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
}

// Stop stops the exporter and waits for the goroutine to finish.
func (s *SSEExporter) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *SSEExporter) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.publishSummary()
		}
	}
}

func (s *SSEExporter) publishSummary() {
	all := metrics.GetAllBayInFlight()
	if len(all) == 0 {
		return
	}

	loads := make([]events.BayLoad, 0, len(all))
	for idx, n := range all {
		loads = append(loads, events.BayLoad{Index: idx, InFlight: n})
	}
	slices.SortFunc(loads, func(a, b events.BayLoad) int { return a.Index - b.Index })

	s.eventBus.Publish(events.ActivitySummaryEvent{
		Bays:      loads,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// GetEventTypes returns event types for SSE endpoint registration.
func GetEventTypes() map[string]any {
	return map[string]any{
		"bay-activity": events.ActivitySummaryEvent{},
	}
}

// GetEventTypesForEndpoint returns event types for a specific SSE endpoint.
func GetEventTypesForEndpoint(endpoint string) map[string]any {
	if endpoint == "events" {
		return GetEventTypes()
	}
	return map[string]any{}
}

// GetEventRoutes returns the routing configuration for events.
func GetEventRoutes() map[string]string {
	return map[string]string{
		"bay-activity": "events",
	}
}
