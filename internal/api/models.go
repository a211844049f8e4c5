package api

import (
	"github.com/smazurov/baylight/internal/updates"
	"github.com/smazurov/baylight/internal/version"
)

// HealthResponse reports liveness and the active LED driver.
type HealthResponse struct {
	Body struct {
		Status string `json:"status" example:"ok" doc:"Health status"`
		Driver string `json:"driver" example:"HP MediaSmart Server 48X" doc:"Active LED driver"`
	}
}

// VersionResponse carries build metadata.
type VersionResponse struct {
	Body version.Info
}

// BayStatus is one bay as reported by the API.
type BayStatus struct {
	Index     int    `json:"index" example:"0" doc:"Bay index"`
	Present   bool   `json:"present" doc:"Whether a disk occupies the bay"`
	InFlight  uint64 `json:"in_flight" example:"0" doc:"Last sampled I/O requests in flight"`
	StatsPath string `json:"stats_path" example:"/sys/block/sda/stat" doc:"Block statistics file"`
	Syspath   string `json:"syspath" doc:"Device path the bay was discovered from"`
}

// BaysData lists all known bays.
type BaysData struct {
	Bays     []BayStatus `json:"bays" doc:"Known bays in discovery order"`
	Count    int         `json:"count" example:"4" doc:"Number of known bays"`
	Activity bool        `json:"activity" doc:"Whether activity sampling is on"`
}

// BaysResponse is the response of GET /api/bays.
type BaysResponse struct {
	Body BaysData
}

// BayResponse is the response of GET /api/bays/{index}.
type BayResponse struct {
	Body BayStatus
}

// BayIndexInput selects one bay.
type BayIndexInput struct {
	Index int `path:"index" minimum:"0" example:"0" doc:"Bay index"`
}

// LEDData describes the LED driver state.
type LEDData struct {
	Driver     string `json:"driver" example:"Acer Aspire easyStore H341" doc:"Active LED driver"`
	Bays       int    `json:"bays" example:"4" doc:"Number of bays with LEDs"`
	Brightness int    `json:"brightness" example:"6" doc:"Current brightness 0-9, -1 if never set"`
	Activity   bool   `json:"activity" doc:"Whether activity sampling is on"`
}

// LEDResponse is the response of the LED endpoints.
type LEDResponse struct {
	Body LEDData
}

// BrightnessRequest sets the LED brightness.
type BrightnessRequest struct {
	Body struct {
		Level int `json:"level" minimum:"0" maximum:"9" example:"6" doc:"Brightness 0 (dark) to 9"`
	}
}

// ActivityRequest toggles activity sampling.
type ActivityRequest struct {
	Body struct {
		Enabled bool `json:"enabled" doc:"Whether disk activity drives the red LEDs"`
	}
}

// UpdatesResponse is the response of GET /api/updates.
type UpdatesResponse struct {
	Body updates.Status
}
