package bay

import "github.com/smazurov/baylight/internal/device"

// Accept reports whether dev sits behind a SCSI host adapter whose parent
// is a PCI device.
func Accept(dev device.Device) bool {
	if dev == nil {
		return false
	}
	host := dev.ParentWithSubsystemDevtype("scsi", "scsi_host")
	if host == nil {
		return false
	}
	parent := host.Parent()
	return parent != nil && parent.Subsystem() == "pci"
}
