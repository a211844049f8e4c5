package device

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sysfsDevice reads its attributes lazily from a sysfs tree rooted at root.
type sysfsDevice struct {
	root    string
	syspath string
	action  string

	// Set from the uevent that produced this device; removed devices no
	// longer have a sysfs directory to read them from.
	subsystem string
	devtype   string
	fromEvent bool
}

// NewSysfsDevice returns the device at syspath inside the sysfs tree mounted
// at root. The directory is not required to exist.
func NewSysfsDevice(root, syspath string) Device {
	return &sysfsDevice{
		root:    filepath.Clean(root),
		syspath: filepath.Clean(syspath),
	}
}

func newEventDevice(root, syspath, action, subsystem, devtype string) *sysfsDevice {
	return &sysfsDevice{
		root:      filepath.Clean(root),
		syspath:   filepath.Clean(syspath),
		action:    action,
		subsystem: subsystem,
		devtype:   devtype,
		fromEvent: true,
	}
}

func (d *sysfsDevice) Syspath() string { return d.syspath }

func (d *sysfsDevice) Action() string { return d.action }

func (d *sysfsDevice) Subsystem() string {
	if d.fromEvent {
		return d.subsystem
	}
	link, err := os.Readlink(filepath.Join(d.syspath, "subsystem"))
	if err != nil {
		return ""
	}
	return filepath.Base(link)
}

func (d *sysfsDevice) Devtype() string {
	if d.fromEvent {
		return d.devtype
	}
	return d.ueventProperty("DEVTYPE")
}

// Sysnum is the trailing decimal digits of the device name.
func (d *sysfsDevice) Sysnum() string {
	name := filepath.Base(d.syspath)
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	return name[i:]
}

func (d *sysfsDevice) SysattrValue(name string) string {
	data, err := os.ReadFile(filepath.Join(d.syspath, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Parent returns the nearest ancestor directory that is a device, i.e. has
// a uevent file. Ancestors that have already disappeared are skipped.
func (d *sysfsDevice) Parent() Device {
	dir := d.syspath
	for {
		dir = filepath.Dir(dir)
		if dir == d.root || !strings.HasPrefix(dir, d.root+string(filepath.Separator)) {
			return nil
		}
		if _, err := os.Stat(filepath.Join(dir, "uevent")); err == nil {
			return &sysfsDevice{root: d.root, syspath: dir}
		}
	}
}

func (d *sysfsDevice) ParentWithSubsystemDevtype(subsystem, devtype string) Device {
	for p := d.Parent(); p != nil; p = p.Parent() {
		if p.Subsystem() != subsystem {
			continue
		}
		if devtype == "" || p.Devtype() == devtype {
			return p
		}
	}
	return nil
}

func (d *sysfsDevice) ueventProperty(key string) string {
	f, err := os.Open(filepath.Join(d.syspath, "uevent"))
	if err != nil {
		return ""
	}
	defer f.Close()

	prefix := key + "="
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if value, ok := strings.CutPrefix(scanner.Text(), prefix); ok {
			return value
		}
	}
	return ""
}

// enumerateBlock walks <root>/class/block and returns the devices whose
// uevent property matches.
func enumerateBlock(root, property, value string) ([]Device, error) {
	classDir := filepath.Join(root, "class", "block")
	entries, err := os.ReadDir(classDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", classDir, err)
	}

	var found []*sysfsDevice
	for _, entry := range entries {
		syspath, err := filepath.EvalSymlinks(filepath.Join(classDir, entry.Name()))
		if err != nil {
			continue
		}
		dev := &sysfsDevice{root: filepath.Clean(root), syspath: syspath}
		if dev.ueventProperty(property) != value {
			continue
		}
		found = append(found, dev)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].syspath < found[j].syspath })

	devices := make([]Device, len(found))
	for i, dev := range found {
		devices[i] = dev
	}
	return devices, nil
}
