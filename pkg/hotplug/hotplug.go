//go:build linux

// Package hotplug provides pure Go device hotplug monitoring using netlink.
//
// It listens to NETLINK_KOBJECT_UEVENT messages, either straight from the
// kernel or as rebroadcast by udevd once its rules have run, without cgo.
package hotplug

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Action constants for device events.
const (
	ActionAdd     = "add"
	ActionRemove  = "remove"
	ActionChange  = "change"
	ActionMove    = "move"
	ActionBind    = "bind"
	ActionUnbind  = "unbind"
	ActionOnline  = "online"
	ActionOffline = "offline"
)

// Common subsystem names.
const (
	SubsystemSCSI  = "scsi"
	SubsystemBlock = "block"
	SubsystemUSB   = "usb"
	SubsystemPCI   = "pci"
)

// Group selects which multicast group the monitor joins.
type Group uint32

const (
	// GroupKernel receives raw kernel uevents.
	GroupKernel Group = 1
	// GroupUdev receives events rebroadcast by udevd after rule processing.
	GroupUdev Group = 2
)

// Event represents a kernel device event.
type Event struct {
	Action    string            // "add", "remove", "change", etc.
	KObj      string            // Kernel object path: /devices/pci0000:00/...
	Subsystem string            // "scsi", "block", "usb", etc.
	DevType   string            // Device type if available
	DevName   string            // Device name (e.g., "sda")
	Seqnum    string            // Kernel sequence number
	Env       map[string]string // All properties carried by the event
}

type filter struct {
	subsystem string
	devtype   string
}

// Monitor listens for device events via netlink.
type Monitor struct {
	fd           int
	pollInterval time.Duration
	filters      []filter
	filtersMu    sync.RWMutex
}

// netlinkKobjectUEvent is the netlink protocol for kernel object events.
const netlinkKobjectUEvent = 15

// receiveBufferSize keeps bursts (e.g. a whole controller probing) from
// overflowing the socket while the consumer is busy.
const receiveBufferSize = 1 << 20

// DefaultPollInterval bounds how long Run waits before rechecking its context.
const DefaultPollInterval = time.Second

// NewMonitor creates a device event monitor bound to the given group.
// The socket starts queueing events immediately, before Run is called.
func NewMonitor(group Group) (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, netlinkKobjectUEvent)
	if err != nil {
		return nil, err
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: uint32(group),
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// Best effort, the kernel clamps to rmem_max.
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, receiveBufferSize)

	return &Monitor{
		fd:           fd,
		pollInterval: DefaultPollInterval,
	}, nil
}

// SetPollInterval changes how often Run rechecks its context while idle.
func (m *Monitor) SetPollInterval(d time.Duration) {
	if d > 0 {
		m.pollInterval = d
	}
}

// AddSubsystemFilter adds a subsystem filter matching any devtype.
// If no filters are added, all events pass through.
// This method is safe for concurrent use.
func (m *Monitor) AddSubsystemFilter(subsystem string) {
	m.AddSubsystemDevtypeFilter(subsystem, "")
}

// AddSubsystemDevtypeFilter adds a filter on subsystem and devtype.
// An empty devtype matches any devtype.
func (m *Monitor) AddSubsystemDevtypeFilter(subsystem, devtype string) {
	m.filtersMu.Lock()
	defer m.filtersMu.Unlock()
	for _, f := range m.filters {
		if f.subsystem == subsystem && f.devtype == devtype {
			return
		}
	}
	m.filters = append(m.filters, filter{subsystem: subsystem, devtype: devtype})
}

// Matches reports whether the event passes the configured filters.
func (m *Monitor) Matches(event *Event) bool {
	m.filtersMu.RLock()
	defer m.filtersMu.RUnlock()

	if len(m.filters) == 0 {
		return true
	}
	for _, f := range m.filters {
		if f.subsystem != event.Subsystem {
			continue
		}
		if f.devtype == "" || f.devtype == event.DevType {
			return true
		}
	}
	return false
}

// Close releases the monitor resources.
func (m *Monitor) Close() error {
	return unix.Close(m.fd)
}

// Run reads events and sends matching ones to the provided channel.
// It blocks until the context is cancelled or a read fails.
// The events channel is closed when Run returns.
func (m *Monitor) Run(ctx context.Context, events chan<- Event) error {
	defer close(events)

	tv := unix.NsecToTimeval(m.pollInterval.Nanoseconds())
	if err := unix.SetsockoptTimeval(m.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return err
	}

	buf := make([]byte, 16384)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, from, err := unix.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.ENOBUFS) {
				// Overrun: events were dropped by the kernel, keep going.
				continue
			}
			return err
		}
		if n == 0 || !trustedSender(from) {
			continue
		}

		event := ParseUEvent(buf[:n])
		if event == nil || !m.Matches(event) {
			continue
		}

		select {
		case events <- *event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// trustedSender accepts messages from the kernel (pid 0) and, for the udev
// group, from udevd. Unicast messages from other processes are dropped.
func trustedSender(from unix.Sockaddr) bool {
	nl, ok := from.(*unix.SockaddrNetlink)
	if !ok {
		return false
	}
	return nl.Groups != 0 || nl.Pid == 0
}

// libudev monitor header layout (see udev_monitor_netlink_header).
const (
	libudevPrefix        = "libudev\x00"
	libudevMagic         = 0xfeedcafe
	libudevPropsOffField = 16
	libudevMinHeader     = 24
)

// ParseUEvent parses a uevent message.
//
// Kernel format: "ACTION@DEVPATH\0KEY=VALUE\0KEY=VALUE\0...".
// udevd format: a binary libudev header followed by "KEY=VALUE\0..." at
// the offset recorded in the header.
func ParseUEvent(data []byte) *Event {
	if len(data) == 0 {
		return nil
	}

	if bytes.HasPrefix(data, []byte(libudevPrefix)) {
		return parseLibudev(data)
	}

	parts := bytes.Split(data, []byte{0})
	if len(parts[0]) == 0 {
		return nil
	}

	header := string(parts[0])
	atIdx := strings.Index(header, "@")
	if atIdx < 1 {
		return nil
	}

	event := &Event{
		Action: header[:atIdx],
		KObj:   header[atIdx+1:],
		Env:    make(map[string]string),
	}
	parseProperties(event, parts[1:])
	return event
}

func parseLibudev(data []byte) *Event {
	if len(data) < libudevMinHeader {
		return nil
	}
	// The magic is stored in network byte order, the offsets in host order.
	if binary.BigEndian.Uint32(data[8:12]) != libudevMagic {
		return nil
	}
	off := binary.NativeEndian.Uint32(data[libudevPropsOffField : libudevPropsOffField+4])
	if int(off) < libudevMinHeader || int(off) >= len(data) {
		return nil
	}

	event := &Event{Env: make(map[string]string)}
	parseProperties(event, bytes.Split(data[off:], []byte{0}))
	if event.Action == "" {
		return nil
	}
	return event
}

func parseProperties(event *Event, parts [][]byte) {
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}

		kv := string(part)
		eqIdx := strings.Index(kv, "=")
		if eqIdx < 1 {
			continue
		}

		key := kv[:eqIdx]
		value := kv[eqIdx+1:]
		event.Env[key] = value

		switch key {
		case "ACTION":
			event.Action = value
		case "DEVPATH":
			event.KObj = value
		case "SUBSYSTEM":
			event.Subsystem = value
		case "DEVTYPE":
			event.DevType = value
		case "DEVNAME":
			event.DevName = value
		case "SEQNUM":
			event.Seqnum = value
		}
	}
}
