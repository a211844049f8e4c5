//go:build linux

package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/smazurov/baylight/internal/logging"
	"github.com/smazurov/baylight/pkg/hotplug"
)

// netlinkSource enumerates through sysfs and listens to uevents with a pure
// Go netlink socket.
type netlinkSource struct {
	root    string
	monitor *hotplug.Monitor
	logger  *slog.Logger
}

func newNetlinkSource(root string, udevGroup bool) (Source, error) {
	group := hotplug.GroupKernel
	if udevGroup {
		group = hotplug.GroupUdev
	}

	monitor, err := hotplug.NewMonitor(group)
	if err != nil {
		return nil, fmt.Errorf("failed to open uevent socket: %w", err)
	}
	monitor.AddSubsystemDevtypeFilter(hotplug.SubsystemSCSI, "scsi_device")

	return &netlinkSource{
		root:    filepath.Clean(root),
		monitor: monitor,
		logger:  logging.GetLogger("hotplug"),
	}, nil
}

func (s *netlinkSource) Enumerate(property, value string) ([]Device, error) {
	return enumerateBlock(s.root, property, value)
}

func (s *netlinkSource) Subscribe(ctx context.Context) (<-chan Device, <-chan error, error) {
	raw := make(chan hotplug.Event, 16)
	devices := make(chan Device)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		if err := s.monitor.Run(ctx, raw); err != nil && !errors.Is(err, context.Canceled) {
			errs <- fmt.Errorf("uevent monitor: %w", err)
		}
	}()

	go func() {
		defer close(devices)
		for ev := range raw {
			s.logger.Debug("uevent received",
				"action", ev.Action,
				"devpath", ev.KObj,
				"subsystem", ev.Subsystem,
				"devtype", ev.DevType,
				"seqnum", ev.Seqnum)

			dev := newEventDevice(s.root, filepath.Join(s.root, ev.KObj), ev.Action, ev.Subsystem, ev.DevType)
			select {
			case devices <- dev:
			case <-ctx.Done():
				// Drain so Run can observe cancellation and close raw.
				for range raw {
				}
				return
			}
		}
	}()

	return devices, errs, nil
}

func (s *netlinkSource) Close() error {
	return s.monitor.Close()
}
