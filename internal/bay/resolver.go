package bay

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smazurov/baylight/internal/device"
)

// ErrNotResolvable is returned when a device path cannot be mapped to a bay.
var ErrNotResolvable = errors.New("bay index not resolvable")

const hostSegment = "/host"

// Resolver turns device paths into bay indices.
type Resolver struct {
	sysfsRoot string
}

// NewResolver returns a resolver reading from the sysfs tree at root.
func NewResolver(root string) *Resolver {
	if root == "" {
		root = device.DefaultSysfsRoot
	}
	return &Resolver{sysfsRoot: filepath.Clean(root)}
}

// ResolveBayIndex returns the bay index of dev, or -1 and ErrNotResolvable.
//
// The host number N is the single digit following the first "/host" in
// the syspath. The bay is unique_id-1 of scsi_host N, minus one for every
// host 0..N that is registered in class/scsi_host but is not a sibling of
// host N (for example USB hosts that came and went and pushed the
// numbering up). A result below zero is not resolvable.
func (r *Resolver) ResolveBayIndex(dev device.Device) (int, error) {
	syspath := dev.Syspath()

	// The sysfs mount point itself may contain "/host".
	start := 0
	if rel, ok := strings.CutPrefix(syspath, r.sysfsRoot); ok && strings.HasPrefix(rel, "/") {
		start = len(syspath) - len(rel)
	}
	pos := strings.Index(syspath[start:], hostSegment)
	if pos >= 0 {
		pos += start
	}
	if pos < 0 || pos+len(hostSegment) >= len(syspath) {
		return -1, fmt.Errorf("%w: no host in %s", ErrNotResolvable, syspath)
	}
	digit := syspath[pos+len(hostSegment)]
	if digit < '0' || digit > '9' {
		return -1, fmt.Errorf("%w: no host number in %s", ErrNotResolvable, syspath)
	}
	hostNum := int(digit - '0')

	classDir := filepath.Join(r.sysfsRoot, "class", "scsi_host")
	host := device.NewSysfsDevice(r.sysfsRoot, filepath.Join(classDir, hostName(hostNum)))
	uniqueID, err := strconv.Atoi(host.SysattrValue("unique_id"))
	if err != nil {
		return -1, fmt.Errorf("%w: host%d has no usable unique_id", ErrNotResolvable, hostNum)
	}
	candidate := uniqueID - 1

	siblings := syspath[:pos]
	offset := 0
	for i := hostNum; i >= 0; i-- {
		if exists(filepath.Join(classDir, hostName(i))) && !exists(filepath.Join(siblings, hostName(i))) {
			offset++
		}
	}

	index := candidate - offset
	if index < 0 {
		return -1, fmt.Errorf("%w: host%d resolves to bay %d", ErrNotResolvable, hostNum, index)
	}
	return index, nil
}

func hostName(n int) string {
	return "host" + strconv.Itoa(n)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
