package bay

import (
	"context"
	"sync"
	"testing"

	"github.com/smazurov/baylight/internal/device"
	"github.com/smazurov/baylight/internal/device/sysfstest"
	"github.com/smazurov/baylight/internal/led"
)

const idleStat = "0 0 0 0 0 0 0 0 0 0 0"

type ledCall struct {
	color led.Color
	bay   int
	on    bool
}

// recordingLEDs records every Set call.
type recordingLEDs struct {
	mu    sync.Mutex
	calls []ledCall
}

func (r *recordingLEDs) Set(color led.Color, bay int, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, ledCall{color, bay, on})
	return nil
}

func (r *recordingLEDs) SetSystemLed(led.Color, led.State) error { return nil }
func (r *recordingLEDs) SetBrightness(int) error                 { return nil }
func (r *recordingLEDs) MountUsb(bool) error                     { return nil }
func (r *recordingLEDs) Desc() string                            { return "recording" }
func (r *recordingLEDs) Bays() int                               { return 4 }

func (r *recordingLEDs) Calls() []ledCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ledCall, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recordingLEDs) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// fakeSource serves a fixed enumeration and hands out test-controlled
// event channels.
type fakeSource struct {
	devices []device.Device
	enumErr error
	events  chan device.Device
	errs    chan error
}

func newFakeSource(devices ...device.Device) *fakeSource {
	return &fakeSource{
		devices: devices,
		events:  make(chan device.Device),
		errs:    make(chan error, 1),
	}
}

func (f *fakeSource) Enumerate(property, value string) ([]device.Device, error) {
	if f.enumErr != nil {
		return nil, f.enumErr
	}
	var out []device.Device
	for _, d := range f.devices {
		if property == "DEVTYPE" && d.Devtype() != value {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeSource) Subscribe(context.Context) (<-chan device.Device, <-chan error, error) {
	return f.events, f.errs, nil
}

func (f *fakeSource) Close() error { return nil }

// hotplugDevice attaches a uevent action to a sysfs device.
type hotplugDevice struct {
	device.Device
	action string
}

func (h hotplugDevice) Action() string { return h.action }

// enclosure is a four bay box: one PCI controller with host0..host3 whose
// unique_ids are 1..4, a disk on each host.
type enclosure struct {
	tree  *sysfstest.Tree
	pci   string
	hosts []string
	disks []string
}

func newEnclosure(t *testing.T, stats ...string) *enclosure {
	t.Helper()

	tree := sysfstest.New(t)
	e := &enclosure{tree: tree, pci: tree.PCI("pci0000:00/0000:00:1f.2")}
	for i := range 4 {
		e.hosts = append(e.hosts, tree.Host(e.pci, i, i+1))
	}
	for i, stat := range stats {
		e.disks = append(e.disks, tree.Disk(e.hosts[i], i, "sd"+string(rune('a'+i)), stat))
	}
	return e
}

func (e *enclosure) device(path string) device.Device {
	return device.NewSysfsDevice(e.tree.Root, path)
}

func (e *enclosure) diskDevices() []device.Device {
	out := make([]device.Device, len(e.disks))
	for i, d := range e.disks {
		out[i] = e.device(d)
	}
	return out
}

func (e *enclosure) event(action, disk string) device.Device {
	return hotplugDevice{Device: e.device(sysfstest.SCSIDevice(disk)), action: action}
}

func newTestMonitor(e *enclosure, src device.Source, leds led.Driver, cfg Config) *Monitor {
	cfg.SysfsRoot = e.tree.Root
	return NewMonitor(cfg, src, leds, nil)
}
