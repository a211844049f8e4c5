// Package bay maps SCSI/SATA disks to the physical drive bays of the
// enclosure and keeps the bay LEDs in step with disk presence and activity.
//
// A disk is only considered when it hangs off a SCSI host adapter that is
// itself a PCI function; USB and other bridged hosts are ignored. The bay
// index is derived from the host adapter's unique_id, corrected for host
// numbers that have been skipped since boot.
//
// Bays are discovered once, at startup. Hot-plug events afterwards can only
// toggle bays that were known at enumeration time.
package bay
