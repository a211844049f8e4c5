package bay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/smazurov/baylight/internal/device"
	"github.com/smazurov/baylight/internal/events"
	"github.com/smazurov/baylight/internal/led"
	"github.com/smazurov/baylight/internal/logging"
)

// Wait timeouts of the event loop.
const (
	DefaultActivityInterval = 100 * time.Millisecond
	DefaultIdleInterval     = 999 * time.Second
)

// Config controls bay discovery and the event loop.
type Config struct {
	SysfsRoot        string
	Capacity         int
	Activity         bool
	ActivityInterval time.Duration
	IdleInterval     time.Duration
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		SysfsRoot:        device.DefaultSysfsRoot,
		Capacity:         DefaultCapacity,
		ActivityInterval: DefaultActivityInterval,
		IdleInterval:     DefaultIdleInterval,
	}
}

// Monitor owns the bay table. Enumeration, Run and ClearAll must be called
// from the same goroutine; Bays and SetActivity are safe from any goroutine.
type Monitor struct {
	cfg      Config
	source   device.Source
	leds     led.Driver
	resolver *Resolver
	table    *Table
	bus      *events.Bus
	logger   *slog.Logger

	activity atomic.Bool
	wake     chan struct{}
	snapshot atomic.Pointer[[]Bay]
}

// NewMonitor creates a monitor. bus may be nil.
func NewMonitor(cfg Config, source device.Source, leds led.Driver, bus *events.Bus) *Monitor {
	def := DefaultConfig()
	if cfg.SysfsRoot == "" {
		cfg.SysfsRoot = def.SysfsRoot
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.ActivityInterval <= 0 {
		cfg.ActivityInterval = def.ActivityInterval
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = def.IdleInterval
	}

	m := &Monitor{
		cfg:      cfg,
		source:   source,
		leds:     leds,
		resolver: NewResolver(cfg.SysfsRoot),
		table:    NewTable(cfg.Capacity),
		bus:      bus,
		logger:   logging.GetLogger("bays"),
		wake:     make(chan struct{}, 1),
	}
	m.activity.Store(cfg.Activity)
	m.publishSnapshot()
	return m
}

// EnumerateAndBuild discovers the disks present now and fills the bay
// table. Devices that cannot be mapped to a bay are logged and skipped.
func (m *Monitor) EnumerateAndBuild() error {
	devices, err := m.source.Enumerate("DEVTYPE", "disk")
	if err != nil {
		return fmt.Errorf("failed to enumerate disks: %w", err)
	}

	for _, dev := range devices {
		if !Accept(dev) {
			m.logger.Debug("Skipping disk not behind a PCI SCSI host", "syspath", dev.Syspath())
			continue
		}

		index, err := m.resolver.ResolveBayIndex(dev)
		if err != nil {
			m.logger.Warn("Failed to resolve bay", "syspath", dev.Syspath(), "error", err)
			continue
		}

		statsPath := filepath.Join(dev.Syspath(), "stat")
		if err := probeStats(statsPath); err != nil {
			m.logger.Warn("Failed to open disk statistics", "syspath", dev.Syspath(), "error", err)
			continue
		}

		if err := m.table.Add(Bay{Index: index, StatsPath: statsPath, Syspath: dev.Syspath()}); err != nil {
			if errors.Is(err, ErrTableFull) {
				m.logger.Warn("Bay table full, ignoring disk", "syspath", dev.Syspath(), "bay", index)
			} else {
				m.logger.Warn("Disk resolved to an already known bay", "syspath", dev.Syspath(), "bay", index)
			}
			continue
		}

		m.logger.Info("Found disk", "bay", index, "syspath", dev.Syspath())
		m.OnDeviceChanged(dev, true)
	}

	m.logger.Info("Bay enumeration complete", "bays", m.table.Len(), "capacity", m.table.Cap())
	return nil
}

// OnDeviceChanged applies a presence change for dev: the bay is marked
// (un)occupied when known and its blue LED follows.
func (m *Monitor) OnDeviceChanged(dev device.Device, added bool) {
	if !Accept(dev) {
		return
	}
	m.changed(dev, added)
}

func (m *Monitor) changed(dev device.Device, added bool) {
	index, err := m.resolver.ResolveBayIndex(dev)
	if err != nil {
		m.logger.Debug("Ignoring device without bay", "syspath", dev.Syspath(), "error", err)
		return
	}

	if m.table.SetEnabled(index, added) {
		m.publishSnapshot()
		m.publish(events.BayChangedEvent{
			Index:     index,
			Syspath:   dev.Syspath(),
			Present:   added,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	} else {
		m.logger.Debug("Device resolved to a bay unknown at startup", "bay", index, "syspath", dev.Syspath())
	}

	if err := m.leds.Set(led.Blue, index, added); err != nil {
		m.logger.Warn("Failed to set bay LED", "bay", index, "error", err)
	}
}

// Run processes hot-plug events until ctx is cancelled. In activity mode
// it also samples every bay's queue depth between events.
//
// Cancellation returns nil. A failure of the device source is returned.
func (m *Monitor) Run(ctx context.Context) error {
	devices, errs, err := m.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to device events: %w", err)
	}

	timer := time.NewTimer(m.waitTimeout())
	defer timer.Stop()

	m.logger.Info("Monitoring bays", "activity", m.activity.Load())

	for {
		timer.Reset(m.waitTimeout())

		select {
		case <-ctx.Done():
			return nil

		case dev, ok := <-devices:
			if ctx.Err() != nil {
				return nil
			}
			if !ok {
				return m.sourceClosed(ctx, errs)
			}
			m.handleEvent(dev)

		case err, ok := <-errs:
			if ctx.Err() != nil {
				return nil
			}
			if !ok {
				errs = nil
				continue
			}
			return fmt.Errorf("device source failed: %w", err)

		case <-m.wake:

		case <-timer.C:
			if ctx.Err() != nil {
				return nil
			}
			if m.activity.Load() {
				m.poll()
			}
		}
	}
}

func (m *Monitor) sourceClosed(ctx context.Context, errs <-chan error) error {
	if errs != nil {
		select {
		case err, ok := <-errs:
			if ok && err != nil {
				return fmt.Errorf("device source failed: %w", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
	return errors.New("device source closed unexpectedly")
}

func (m *Monitor) handleEvent(dev device.Device) {
	action := dev.Action()
	accepted := Accept(dev)

	m.publish(events.DeviceEvent{
		Action:    action,
		Syspath:   dev.Syspath(),
		Accepted:  accepted,
		Timestamp: time.Now().Format(time.RFC3339),
	})

	if !accepted {
		m.logger.Debug("Ignoring device not behind a PCI SCSI host", "action", action, "syspath", dev.Syspath())
		return
	}

	switch {
	case strings.EqualFold(action, "add"):
		m.logger.Info("Device added", "syspath", dev.Syspath(), "subsystem", dev.Subsystem())
		m.changed(dev, true)
	case strings.EqualFold(action, "remove"):
		m.logger.Info("Device removed", "syspath", dev.Syspath(), "subsystem", dev.Subsystem())
		m.changed(dev, false)
	default:
		m.logger.Debug("Ignoring device action", "action", action, "syspath", dev.Syspath(), "subsystem", dev.Subsystem())
	}
}

// poll samples the queue depth of every bay. Occupied bays light blue and
// show red while I/O is in flight; empty bays are left alone.
func (m *Monitor) poll() {
	now := time.Now().Format(time.RFC3339)
	for _, b := range m.table.bays {
		inFlight, err := ReadInFlight(b.StatsPath)
		if err != nil {
			m.logger.Debug("Failed to read disk statistics", "bay", b.Index, "error", err)
			continue
		}
		if !b.Enabled {
			continue
		}

		if err := m.leds.Set(led.Blue, b.Index, true); err != nil {
			m.logger.Warn("Failed to set bay LED", "bay", b.Index, "error", err)
		}
		if err := m.leds.Set(led.Red, b.Index, inFlight > 0); err != nil {
			m.logger.Warn("Failed to set bay LED", "bay", b.Index, "error", err)
		}

		m.publish(events.BayActivityEvent{Index: b.Index, InFlight: inFlight, Timestamp: now})
	}
}

// ClearAll turns off both LEDs of every known bay.
func (m *Monitor) ClearAll() {
	for _, b := range m.table.bays {
		if err := m.leds.Set(led.Both, b.Index, false); err != nil {
			m.logger.Warn("Failed to clear bay LED", "bay", b.Index, "error", err)
		}
	}
}

// SetActivity switches activity sampling on or off while running.
func (m *Monitor) SetActivity(on bool) {
	if m.activity.Swap(on) == on {
		return
	}
	m.logger.Info("Activity mode changed", "activity", on)
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Activity reports whether activity sampling is on.
func (m *Monitor) Activity() bool {
	return m.activity.Load()
}

// Bays returns a copy of the bay table as last updated by the event loop.
func (m *Monitor) Bays() []Bay {
	bays := *m.snapshot.Load()
	out := make([]Bay, len(bays))
	copy(out, bays)
	return out
}

func (m *Monitor) waitTimeout() time.Duration {
	if m.activity.Load() {
		return m.cfg.ActivityInterval
	}
	return m.cfg.IdleInterval
}

func (m *Monitor) publishSnapshot() {
	bays := m.table.All()
	m.snapshot.Store(&bays)
}

func (m *Monitor) publish(ev events.Event) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}
