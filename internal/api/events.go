package api

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/baylight/internal/events"
	"github.com/smazurov/baylight/internal/metrics/exporters"
)

// ConnectedEvent is the first message of every event stream.
type ConnectedEvent struct {
	Message   string `json:"message" example:"connected" doc:"Connection status"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Connection time"`
}

func (s *Server) registerSSERoutes() {
	eventTypes := map[string]any{
		"connected":          ConnectedEvent{},
		"bay-changed":        events.BayChangedEvent{},
		"device-event":       events.DeviceEvent{},
		"update-status":      events.UpdateStatusEvent{},
		"brightness-changed": events.BrightnessChangedEvent{},
	}
	maps.Copy(eventTypes, exporters.GetEventTypesForEndpoint("events"))

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of bay changes, hot-plug events, update status and activity summaries",
		Tags:        []string{"events"},
	}, eventTypes, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 16)

		bus := s.options.Bus
		unsubscribers := []func(){
			events.Forward[events.BayChangedEvent](bus, eventCh),
			events.Forward[events.DeviceEvent](bus, eventCh),
			events.Forward[events.UpdateStatusEvent](bus, eventCh),
			events.Forward[events.BrightnessChangedEvent](bus, eventCh),
			events.Forward[events.ActivitySummaryEvent](bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(ConnectedEvent{
			Message:   "connected",
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-eventCh:
				if err := send.Data(ev); err != nil {
					return
				}
			}
		}
	})
}
