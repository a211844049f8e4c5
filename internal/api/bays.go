package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/baylight/internal/bay"
	"github.com/smazurov/baylight/internal/metrics"
)

func (s *Server) registerBayRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-bays",
		Method:      http.MethodGet,
		Path:        "/api/bays",
		Summary:     "List Bays",
		Description: "List the drive bays discovered so far and whether they hold a disk",
		Tags:        []string{"bays"},
	}, func(_ context.Context, _ *struct{}) (*BaysResponse, error) {
		bays := s.options.Bays.Bays()
		out := make([]BayStatus, 0, len(bays))
		for _, b := range bays {
			out = append(out, toBayStatus(b))
		}
		return &BaysResponse{Body: BaysData{
			Bays:     out,
			Count:    len(out),
			Activity: s.options.Bays.Activity(),
		}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-bay",
		Method:      http.MethodGet,
		Path:        "/api/bays/{index}",
		Summary:     "Get Bay",
		Description: "Get one drive bay by index",
		Tags:        []string{"bays"},
		Errors:      []int{404},
	}, func(_ context.Context, input *BayIndexInput) (*BayResponse, error) {
		for _, b := range s.options.Bays.Bays() {
			if b.Index == input.Index {
				return &BayResponse{Body: toBayStatus(b)}, nil
			}
		}
		return nil, huma.Error404NotFound(fmt.Sprintf("bay %d not found", input.Index))
	})
}

func toBayStatus(b bay.Bay) BayStatus {
	st := BayStatus{
		Index:     b.Index,
		Present:   b.Enabled,
		StatsPath: b.StatsPath,
		Syspath:   b.Syspath,
	}
	if b.Enabled {
		st.InFlight, _ = metrics.GetBayInFlight(b.Index)
	}
	return st
}
