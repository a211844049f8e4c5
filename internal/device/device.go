// Package device models the slice of the kernel device tree the daemon cares
// about (disk -> SCSI host adapter -> PCI parent) and delivers hot-plug
// notifications for it.
package device

import (
	"context"
	"errors"
	"fmt"
)

// Device is a node in the kernel device tree.
//
// Accessors never fail: a value that cannot be read is returned as the
// empty string and a missing parent as nil.
type Device interface {
	Syspath() string
	Subsystem() string
	Devtype() string
	Sysnum() string
	Action() string
	Parent() Device
	ParentWithSubsystemDevtype(subsystem, devtype string) Device
	SysattrValue(name string) string
}

// Source enumerates present devices and streams hot-plug changes.
type Source interface {
	// Enumerate returns every block device whose uevent property matches
	// the given value, ordered by syspath.
	Enumerate(property, value string) ([]Device, error)

	// Subscribe starts delivering device events until ctx is cancelled.
	// Both channels are closed when delivery stops. The error channel
	// never carries context cancellation.
	Subscribe(ctx context.Context) (<-chan Device, <-chan error, error)

	Close() error
}

// Backend names accepted by NewSource.
const (
	BackendKernel  = "kernel"
	BackendUdev    = "udev"
	BackendLibudev = "libudev"
)

// ErrUnsupportedBackend is returned for a backend that is unknown or not
// compiled into this binary.
var ErrUnsupportedBackend = errors.New("unsupported device backend")

// DefaultSysfsRoot is where sysfs is mounted.
const DefaultSysfsRoot = "/sys"

// NewSource opens a device source for the named backend. The hot-plug
// socket is bound before NewSource returns, so events that happen while
// the caller enumerates are queued rather than lost.
func NewSource(backend, sysfsRoot string) (Source, error) {
	if sysfsRoot == "" {
		sysfsRoot = DefaultSysfsRoot
	}

	switch backend {
	case "", BackendKernel:
		return newNetlinkSource(sysfsRoot, false)
	case BackendUdev:
		return newNetlinkSource(sysfsRoot, true)
	case BackendLibudev:
		return newLibudevSource()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
}
