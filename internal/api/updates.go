package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/baylight/internal/updates"
)

func (s *Server) registerUpdateRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-updates",
		Method:      http.MethodGet,
		Path:        "/api/updates",
		Summary:     "Update Status",
		Description: "Get the result of the last operating system update check",
		Tags:        []string{"system"},
		Errors:      []int{503},
	}, func(_ context.Context, _ *struct{}) (*UpdatesResponse, error) {
		if s.options.Updates == nil {
			return nil, huma.Error503ServiceUnavailable("update monitor is disabled")
		}
		last := s.options.Updates.Last()
		if last == nil {
			return &UpdatesResponse{Body: updates.Status{State: updates.StateUnknown}}, nil
		}
		return &UpdatesResponse{Body: *last}, nil
	})
}
