package device

import (
	"path/filepath"
	"testing"

	"github.com/smazurov/baylight/internal/device/sysfstest"
)

func TestSysfsDeviceAccessors(t *testing.T) {
	tree := sysfstest.New(t)
	pci := tree.PCI("pci0000:00/0000:00:1f.2")
	host := tree.Host(pci, 2, 3)
	disk := tree.Disk(host, 2, "sdb", "1 2 3 4 5 6 7 0 9 10 11")

	dev := NewSysfsDevice(tree.Root, disk)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"syspath", dev.Syspath(), disk},
		{"subsystem", dev.Subsystem(), "block"},
		{"devtype", dev.Devtype(), "disk"},
		{"sysnum", dev.Sysnum(), ""},
		{"action", dev.Action(), ""},
		{"missing sysattr", dev.SysattrValue("does_not_exist"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if got := NewSysfsDevice(tree.Root, host).Sysnum(); got != "2" {
		t.Errorf("host Sysnum() = %q, want %q", got, "2")
	}
	classDev := filepath.Join(host, "scsi_host", "host2")
	if got := NewSysfsDevice(tree.Root, classDev).SysattrValue("unique_id"); got != "3" {
		t.Errorf("unique_id = %q, want %q", got, "3")
	}
}

func TestSysfsDeviceParentChain(t *testing.T) {
	tree := sysfstest.New(t)
	pci := tree.PCI("pci0000:00/0000:00:1f.2")
	host := tree.Host(pci, 0, 1)
	disk := tree.Disk(host, 0, "sda", "0 0 0 0 0 0 0 0 0 0 0")

	dev := NewSysfsDevice(tree.Root, disk)

	// block/ has no uevent and must be skipped.
	parent := dev.Parent()
	if parent == nil {
		t.Fatal("Parent() = nil")
	}
	if parent.Syspath() != sysfstest.SCSIDevice(disk) {
		t.Errorf("Parent() = %q, want %q", parent.Syspath(), sysfstest.SCSIDevice(disk))
	}

	found := dev.ParentWithSubsystemDevtype("scsi", "scsi_host")
	if found == nil {
		t.Fatal("ParentWithSubsystemDevtype(scsi, scsi_host) = nil")
	}
	if found.Syspath() != host {
		t.Errorf("host = %q, want %q", found.Syspath(), host)
	}
	if p := found.Parent(); p == nil || p.Subsystem() != "pci" {
		t.Errorf("host parent = %v, want pci device", p)
	}

	if got := dev.ParentWithSubsystemDevtype("usb", ""); got != nil {
		t.Errorf("expected no usb ancestor, got %q", got.Syspath())
	}
}

func TestSysfsDeviceParentStopsAtRoot(t *testing.T) {
	tree := sysfstest.New(t)
	pci := tree.PCI("pci0000:00")

	if p := NewSysfsDevice(tree.Root, pci).Parent(); p != nil {
		t.Errorf("Parent() = %q, want nil", p.Syspath())
	}
}

func TestEventDeviceUsesEventProperties(t *testing.T) {
	tree := sysfstest.New(t)
	pci := tree.PCI("pci0000:00/0000:00:1f.2")
	host := tree.Host(pci, 1, 2)

	// The removed device no longer exists in sysfs.
	gone := filepath.Join(host, "target1:0:0", "1:0:0:0")
	dev := newEventDevice(tree.Root, gone, "remove", "scsi", "scsi_device")

	if dev.Subsystem() != "scsi" || dev.Devtype() != "scsi_device" || dev.Action() != "remove" {
		t.Errorf("unexpected event device: %+v", dev)
	}
	if got := dev.ParentWithSubsystemDevtype("scsi", "scsi_host"); got == nil || got.Syspath() != host {
		t.Errorf("expected surviving host ancestor %q, got %v", host, got)
	}
}

func TestEnumerateBlock(t *testing.T) {
	tree := sysfstest.New(t)
	pci := tree.PCI("pci0000:00/0000:00:1f.2")
	sdb := tree.Disk(tree.Host(pci, 1, 2), 1, "sdb", "")
	sda := tree.Disk(tree.Host(pci, 0, 1), 0, "sda", "")

	devices, err := enumerateBlock(tree.Root, "DEVTYPE", "disk")
	if err != nil {
		t.Fatalf("enumerateBlock() error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}
	if devices[0].Syspath() != sda || devices[1].Syspath() != sdb {
		t.Errorf("unexpected order: %q, %q", devices[0].Syspath(), devices[1].Syspath())
	}

	partitions, err := enumerateBlock(tree.Root, "DEVTYPE", "partition")
	if err != nil {
		t.Fatalf("enumerateBlock() error: %v", err)
	}
	if len(partitions) != 2 {
		t.Errorf("got %d partitions, want 2", len(partitions))
	}
}

func TestEnumerateBlockMissingClass(t *testing.T) {
	if _, err := enumerateBlock(t.TempDir(), "DEVTYPE", "disk"); err == nil {
		t.Error("expected error for tree without class/block")
	}
}

func TestNewSourceUnknownBackend(t *testing.T) {
	if _, err := NewSource("bogus", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
}
