// Package updates watches the operating system package manager and reflects
// pending updates on the system LED.
package updates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/smazurov/baylight/internal/events"
	"github.com/smazurov/baylight/internal/led"
	"github.com/smazurov/baylight/internal/logging"
)

// Defaults for Config.
const (
	DefaultCommand    = "/usr/lib/update-notifier/apt-check"
	DefaultRebootFile = "/var/run/reboot-required"
	DefaultInterval   = 15 * time.Minute
)

// ErrStatusUnavailable is returned when the update checker produced no
// usable answer.
var ErrStatusUnavailable = errors.New("update status unavailable")

// State summarises a Status for display.
type State string

// Update states, in increasing order of urgency.
const (
	StateUnknown  State = "unknown"
	StateCurrent  State = "current"
	StateUpdates  State = "updates"
	StateSecurity State = "security"
	StateReboot   State = "reboot"
)

// Level returns a numeric rank of the state, 0 for unknown.
func (s State) Level() int {
	switch s {
	case StateCurrent:
		return 1
	case StateUpdates:
		return 2
	case StateSecurity:
		return 3
	case StateReboot:
		return 4
	default:
		return 0
	}
}

// Status is one reading of the package manager.
type Status struct {
	Updates        int       `json:"updates" example:"12" doc:"Pending package updates"`
	Security       int       `json:"security" example:"2" doc:"Pending security updates"`
	RebootRequired bool      `json:"reboot_required" doc:"Whether a reboot is pending"`
	State          State     `json:"state" enum:"unknown,current,updates,security,reboot" doc:"Summarised state"`
	CheckedAt      time.Time `json:"checked_at" doc:"Time of the check"`
}

// Config controls the update monitor.
type Config struct {
	Command    string
	RebootFile string
	Interval   time.Duration
}

// Monitor periodically checks for updates and drives the system LED.
type Monitor struct {
	cfg    Config
	leds   led.Driver
	bus    *events.Bus
	logger *slog.Logger
	last   atomic.Pointer[Status]

	// check is replaced in tests.
	check func(ctx context.Context) (Status, error)
}

// NewMonitor creates an update monitor. bus may be nil.
func NewMonitor(cfg Config, leds led.Driver, bus *events.Bus) *Monitor {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.RebootFile == "" {
		cfg.RebootFile = DefaultRebootFile
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	m := &Monitor{
		cfg:    cfg,
		leds:   leds,
		bus:    bus,
		logger: logging.GetLogger("updates"),
	}
	m.check = m.ReadStatus
	return m
}

// Run checks for updates every interval until ctx is cancelled or the
// status can no longer be read. The system LED is turned off on return.
func (m *Monitor) Run(ctx context.Context) error {
	defer func() {
		if err := m.leds.SetSystemLed(led.Both, led.Off); err != nil {
			m.logger.Warn("Failed to reset system LED", "error", err)
		}
	}()

	m.logger.Info("Update monitor started", "command", m.cfg.Command, "interval", m.cfg.Interval)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		status, err := m.check(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.logger.Warn("Stopping update monitor", "error", err)
			return err
		}

		m.apply(status)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Last returns the most recent status, or nil before the first check.
func (m *Monitor) Last() *Status {
	return m.last.Load()
}

// ReadStatus runs the update checker once.
func (m *Monitor) ReadStatus(ctx context.Context) (Status, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", m.cfg.Command+" 2>&1")
	out, err := cmd.Output()
	if err != nil && len(out) == 0 {
		return Status{}, fmt.Errorf("%w: %s: %w", ErrStatusUnavailable, m.cfg.Command, err)
	}

	status, err := ParseStatus(out)
	if err != nil {
		return Status{}, err
	}

	_, statErr := os.Stat(m.cfg.RebootFile)
	status.RebootRequired = statErr == nil
	status.State = Summarise(status)
	status.CheckedAt = time.Now()
	return status, nil
}

// ParseStatus parses the "<updates>;<security>" line printed by the
// update checker. Only the first line is considered.
func ParseStatus(out []byte) (Status, error) {
	line, _, _ := bytes.Cut(out, []byte("\n"))
	s := strings.TrimSpace(string(line))
	if len(s) < 3 {
		return Status{}, fmt.Errorf("%w: short output %q", ErrStatusUnavailable, s)
	}

	upd, sec, ok := strings.Cut(s, ";")
	if !ok {
		return Status{}, fmt.Errorf("%w: malformed output %q", ErrStatusUnavailable, s)
	}

	updates, err := strconv.Atoi(upd)
	if err != nil {
		return Status{}, fmt.Errorf("%w: bad update count %q", ErrStatusUnavailable, upd)
	}
	// apt-check may print trailing text after the counts.
	sec = leadingDigits(sec)
	security, err := strconv.Atoi(sec)
	if err != nil {
		return Status{}, fmt.Errorf("%w: bad security count %q", ErrStatusUnavailable, sec)
	}

	return Status{Updates: updates, Security: security}, nil
}

// Summarise derives the display state of a status.
func Summarise(s Status) State {
	switch {
	case s.RebootRequired:
		return StateReboot
	case s.Security > 0:
		return StateSecurity
	case s.Updates > 0:
		return StateUpdates
	default:
		return StateCurrent
	}
}

func (m *Monitor) apply(status Status) {
	if status.State == "" {
		status.State = Summarise(status)
	}

	var err error
	switch status.State {
	case StateReboot:
		err = m.leds.SetSystemLed(led.Red, led.On)
	case StateSecurity:
		err = m.leds.SetSystemLed(led.Both, led.On)
	case StateUpdates:
		err = m.leds.SetSystemLed(led.Blue, led.On)
	default:
		err = m.leds.SetSystemLed(led.Both, led.Off)
	}
	if err != nil {
		m.logger.Warn("Failed to set system LED", "state", status.State, "error", err)
	}

	prev := m.last.Swap(&status)
	if prev == nil || prev.State != status.State {
		m.logger.Info("Update state changed",
			"state", status.State,
			"updates", status.Updates,
			"security", status.Security)
	} else {
		m.logger.Debug("Update state unchanged", "state", status.State)
	}

	if m.bus != nil {
		m.bus.Publish(events.UpdateStatusEvent{
			Updates:        status.Updates,
			Security:       status.Security,
			RebootRequired: status.RebootRequired,
			State:          string(status.State),
			Timestamp:      status.CheckedAt.Format(time.RFC3339),
		})
	}
}

func leadingDigits(s string) string {
	if i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		return s[:i]
	}
	return s
}
