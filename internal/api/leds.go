package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/baylight/internal/events"
)

func (s *Server) registerLEDRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-leds",
		Method:      http.MethodGet,
		Path:        "/api/leds",
		Summary:     "Get LED State",
		Description: "Get the active LED driver, its brightness and the activity mode",
		Tags:        []string{"leds"},
	}, func(_ context.Context, _ *struct{}) (*LEDResponse, error) {
		return s.ledResponse(), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-brightness",
		Method:      http.MethodPut,
		Path:        "/api/leds/brightness",
		Summary:     "Set Brightness",
		Description: "Set the global LED brightness. Boards without dimming ignore it.",
		Tags:        []string{"leds"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(_ context.Context, input *BrightnessRequest) (*LEDResponse, error) {
		if err := s.options.LEDs.SetBrightness(input.Body.Level); err != nil {
			return nil, huma.Error500InternalServerError("Failed to set brightness", err)
		}
		s.logger.Info("Brightness changed", "level", input.Body.Level, "source", "api")
		if s.options.Bus != nil {
			s.options.Bus.Publish(events.BrightnessChangedEvent{
				Level:     input.Body.Level,
				Source:    "api",
				Timestamp: time.Now().Format(time.RFC3339),
			})
		}
		return s.ledResponse(), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-activity",
		Method:      http.MethodPut,
		Path:        "/api/leds/activity",
		Summary:     "Set Activity Mode",
		Description: "Switch disk activity indication on the red bay LEDs on or off",
		Tags:        []string{"leds"},
		Security:    withAuth(),
		Errors:      []int{400, 401},
	}, func(_ context.Context, input *ActivityRequest) (*LEDResponse, error) {
		s.options.Bays.SetActivity(input.Body.Enabled)
		return s.ledResponse(), nil
	})
}

func (s *Server) ledResponse() *LEDResponse {
	return &LEDResponse{Body: LEDData{
		Driver:     s.options.LEDs.Desc(),
		Bays:       s.options.LEDs.Bays(),
		Brightness: s.options.LEDs.Brightness(),
		Activity:   s.options.Bays.Activity(),
	}}
}
