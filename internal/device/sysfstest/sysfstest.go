// Package sysfstest builds synthetic sysfs trees for tests.
package sysfstest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Tree is a fake sysfs mount inside a temporary directory.
type Tree struct {
	Root string
	t    testing.TB
}

// New creates an empty tree that is removed when the test ends.
func New(t testing.TB) *Tree {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolve temp dir: %v", err)
	}
	return &Tree{Root: root, t: t}
}

// NewAt creates an empty tree mounted at rel below a temporary directory,
// for roots like "mnt/hostfs/sys".
func NewAt(t testing.TB, rel string) *Tree {
	t.Helper()
	tree := New(t)
	tree.Root = filepath.Join(tree.Root, rel)
	tree.mkdir(tree.Root)
	return tree
}

// Node creates a device directory at rel (relative to <root>/devices, or
// absolute inside the tree) with a uevent file holding props and, when
// subsystem is non-empty, a subsystem link.
func (tr *Tree) Node(rel, subsystem string, props map[string]string) string {
	tr.t.Helper()

	path := rel
	if !strings.HasPrefix(rel, tr.Root) {
		path = filepath.Join(tr.Root, "devices", rel)
	}
	tr.mkdir(path)

	var uevent strings.Builder
	for k, v := range props {
		fmt.Fprintf(&uevent, "%s=%s\n", k, v)
	}
	tr.write(filepath.Join(path, "uevent"), uevent.String())

	if subsystem != "" {
		target := filepath.Join(tr.Root, "bus", subsystem)
		tr.mkdir(target)
		if err := os.Symlink(target, filepath.Join(path, "subsystem")); err != nil {
			tr.t.Fatalf("symlink subsystem: %v", err)
		}
	}
	return path
}

// PCI adds a PCI function, e.g. "pci0000:00/0000:00:1f.2".
func (tr *Tree) PCI(rel string) string {
	tr.t.Helper()
	return tr.Node(rel, "pci", map[string]string{"PCI_SLOT_NAME": filepath.Base(rel)})
}

// Host adds SCSI host adapter n below parent and registers it in
// class/scsi_host with the given unique_id.
func (tr *Tree) Host(parent string, n, uniqueID int) string {
	tr.t.Helper()

	name := fmt.Sprintf("host%d", n)
	host := tr.Node(filepath.Join(parent, name), "scsi", map[string]string{"DEVTYPE": "scsi_host"})

	classDev := filepath.Join(host, "scsi_host", name)
	tr.mkdir(classDev)
	tr.write(filepath.Join(classDev, "unique_id"), fmt.Sprintf("%d\n", uniqueID))

	classDir := filepath.Join(tr.Root, "class", "scsi_host")
	tr.mkdir(classDir)
	if err := os.Symlink(classDev, filepath.Join(classDir, name)); err != nil {
		tr.t.Fatalf("symlink scsi_host: %v", err)
	}
	return host
}

// UnregisterHost removes host n from class/scsi_host while leaving its
// device directory in place.
func (tr *Tree) UnregisterHost(n int) {
	tr.t.Helper()
	if err := os.Remove(filepath.Join(tr.Root, "class", "scsi_host", fmt.Sprintf("host%d", n))); err != nil {
		tr.t.Fatalf("unregister host%d: %v", n, err)
	}
}

// Disk adds a target, SCSI device and block disk below host and returns
// the disk syspath. stat is written to the disk's stat file unless empty.
func (tr *Tree) Disk(host string, n int, name, stat string) string {
	tr.t.Helper()

	hctl := fmt.Sprintf("%d:0:0", n)
	target := tr.Node(filepath.Join(host, "target"+hctl), "scsi", map[string]string{"DEVTYPE": "scsi_target"})
	sdev := tr.Node(filepath.Join(target, hctl+":0"), "scsi", map[string]string{"DEVTYPE": "scsi_device"})

	tr.mkdir(filepath.Join(sdev, "block"))
	disk := tr.Node(filepath.Join(sdev, "block", name), "block", map[string]string{
		"DEVTYPE": "disk",
		"DEVNAME": name,
	})
	if stat != "" {
		tr.write(filepath.Join(disk, "stat"), stat+"\n")
	}

	tr.Node(filepath.Join(disk, name+"1"), "block", map[string]string{
		"DEVTYPE": "partition",
		"DEVNAME": name + "1",
	})

	classDir := filepath.Join(tr.Root, "class", "block")
	tr.mkdir(classDir)
	for _, dev := range []string{disk, filepath.Join(disk, name+"1")} {
		if err := os.Symlink(dev, filepath.Join(classDir, filepath.Base(dev))); err != nil {
			tr.t.Fatalf("symlink block: %v", err)
		}
	}
	return disk
}

// SCSIDevice returns the scsi_device syspath that owns disk.
func SCSIDevice(disk string) string {
	return filepath.Dir(filepath.Dir(disk))
}

// WriteStat replaces the stat file of disk.
func (tr *Tree) WriteStat(disk, stat string) {
	tr.t.Helper()
	tr.write(filepath.Join(disk, "stat"), stat+"\n")
}

func (tr *Tree) mkdir(path string) {
	tr.t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		tr.t.Fatalf("mkdir %s: %v", path, err)
	}
}

func (tr *Tree) write(path, content string) {
	tr.t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tr.t.Fatalf("write %s: %v", path, err)
	}
}
