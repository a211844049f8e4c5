package events

// Event type constants for kelindar/event.
const (
	TypeBayChanged uint32 = iota + 1
	TypeBayActivity
	TypeDeviceEvent
	TypeUpdateStatus
	TypeBrightnessChanged
	TypeActivitySummary
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// BayChangedEvent is published when a disk appears in or leaves a bay.
type BayChangedEvent struct {
	Index     int    `json:"index" example:"0" doc:"Bay index"`
	Syspath   string `json:"syspath" doc:"Kernel device path that triggered the change"`
	Present   bool   `json:"present" doc:"Whether a disk occupies the bay"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for BayChangedEvent.
func (e BayChangedEvent) Type() uint32 { return TypeBayChanged }

// BayActivityEvent carries one activity sample of an occupied bay.
type BayActivityEvent struct {
	Index     int    `json:"index" example:"0" doc:"Bay index"`
	InFlight  uint64 `json:"in_flight" example:"3" doc:"I/O requests currently in flight"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Sample timestamp"`
}

// Type returns the event type identifier for BayActivityEvent.
func (e BayActivityEvent) Type() uint32 { return TypeBayActivity }

// DeviceEvent records a hot-plug notification and whether it passed the
// host adapter filter.
type DeviceEvent struct {
	Action    string `json:"action" example:"add" doc:"Kernel action"`
	Syspath   string `json:"syspath" doc:"Kernel device path"`
	Accepted  bool   `json:"accepted" doc:"Whether the device sits behind a PCI SCSI host"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceEvent.
func (e DeviceEvent) Type() uint32 { return TypeDeviceEvent }

// UpdateStatusEvent reports the operating system update state.
type UpdateStatusEvent struct {
	Updates        int    `json:"updates" example:"12" doc:"Pending package updates"`
	Security       int    `json:"security" example:"2" doc:"Pending security updates"`
	RebootRequired bool   `json:"reboot_required" doc:"Whether a reboot is pending"`
	State          string `json:"state" example:"security" enum:"current,updates,security,reboot" doc:"Summarised state"`
	Timestamp      string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Check timestamp"`
}

// Type returns the event type identifier for UpdateStatusEvent.
func (e UpdateStatusEvent) Type() uint32 { return TypeUpdateStatus }

// BrightnessChangedEvent is published when the LED brightness is changed at runtime.
type BrightnessChangedEvent struct {
	Level     int    `json:"level" example:"5" doc:"Brightness level 0-9"`
	Source    string `json:"source" example:"api" enum:"api,config" doc:"What changed the brightness"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for BrightnessChangedEvent.
func (e BrightnessChangedEvent) Type() uint32 { return TypeBrightnessChanged }

// BayLoad is the queue depth of one bay.
type BayLoad struct {
	Index    int    `json:"index" example:"0" doc:"Bay index"`
	InFlight uint64 `json:"in_flight" example:"3" doc:"I/O requests in flight"`
}

// ActivitySummaryEvent is a throttled snapshot of all bay activity.
type ActivitySummaryEvent struct {
	Bays      []BayLoad `json:"bays" doc:"Activity per bay, ordered by index"`
	Timestamp string    `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Snapshot timestamp"`
}

// Type returns the event type identifier for ActivitySummaryEvent.
func (e ActivitySummaryEvent) Type() uint32 { return TypeActivitySummary }
