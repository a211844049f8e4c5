//go:build linux && cgo

package device

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"
)

// libudevSource delegates to the system libudev.
type libudevSource struct {
	u   udev.Udev
	mon *udev.Monitor
}

func newLibudevSource() (Source, error) {
	s := &libudevSource{}
	s.mon = s.u.NewMonitorFromNetlink("udev")
	if s.mon == nil {
		return nil, fmt.Errorf("failed to create udev monitor")
	}
	if err := s.mon.FilterAddMatchSubsystemDevtype("scsi", "scsi_device"); err != nil {
		return nil, fmt.Errorf("failed to add udev filter: %w", err)
	}
	return s, nil
}

func (s *libudevSource) Enumerate(property, value string) ([]Device, error) {
	e := s.u.NewEnumerate()
	if err := e.AddMatchSubsystem("block"); err != nil {
		return nil, fmt.Errorf("failed to add udev subsystem match: %w", err)
	}
	if err := e.AddMatchProperty(property, value); err != nil {
		return nil, fmt.Errorf("failed to add udev property match: %w", err)
	}
	found, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("udev enumeration failed: %w", err)
	}

	devices := make([]Device, 0, len(found))
	for _, d := range found {
		devices = append(devices, wrapUdev(d))
	}
	return devices, nil
}

func (s *libudevSource) Subscribe(ctx context.Context) (<-chan Device, <-chan error, error) {
	deviceCh, errCh, err := s.mon.DeviceChan(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get udev device channel: %w", err)
	}

	devices := forward(ctx, deviceCh, wrapUdev)

	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		for err := range errCh {
			if ctx.Err() != nil {
				continue
			}
			select {
			case errs <- fmt.Errorf("udev monitor: %w", err):
			default:
			}
		}
	}()

	return devices, errs, nil
}

func (s *libudevSource) Close() error { return nil }

type udevDevice struct {
	d *udev.Device
}

// wrapUdev keeps a nil *udev.Device from becoming a non-nil Device.
func wrapUdev(d *udev.Device) Device {
	if d == nil {
		return nil
	}
	return &udevDevice{d: d}
}

func (u *udevDevice) Syspath() string   { return u.d.Syspath() }
func (u *udevDevice) Subsystem() string { return u.d.Subsystem() }
func (u *udevDevice) Devtype() string   { return u.d.Devtype() }
func (u *udevDevice) Sysnum() string    { return u.d.Sysnum() }
func (u *udevDevice) Action() string    { return u.d.Action() }
func (u *udevDevice) Parent() Device    { return wrapUdev(u.d.Parent()) }

func (u *udevDevice) ParentWithSubsystemDevtype(subsystem, devtype string) Device {
	return wrapUdev(u.d.ParentWithSubsystemDevtype(subsystem, devtype))
}

func (u *udevDevice) SysattrValue(name string) string {
	return u.d.SysattrValue(name)
}
