package devsim

import "pandos/internal/machine"

// Disk is a fixed-geometry backing store addressed by linear sector
// (cylinder*heads*sectors + head*sectors + sector, already folded by
// the caller into one int), used by SYS14/15 independently of any
// particular U-Proc's flash device.
type Disk struct {
	mach    machine.Machine
	device  int
	sectors [][machine.PageSize]byte
}

// NewDisk builds a Disk device with nSectors linear sectors, registered
// as device index device on the disk interrupt line.
func NewDisk(mach machine.Machine, device int, nSectors int) *Disk {
	return &Disk{mach: mach, device: device, sectors: make([][machine.PageSize]byte, nSectors)}
}

func (d *Disk) Line() int   { return machine.LineDisk }
func (d *Disk) Device() int { return d.device }

// SectorCount reports the number of linear sectors this disk was built
// with, letting SYS14/15 validate a U-Proc-supplied sector before ever
// issuing a transfer.
func (d *Disk) SectorCount() int { return len(d.sectors) }

// Transfer implements support.BackingStore: op is DiskOpRead or
// DiskOpWrite (DiskOpSeek is accepted as a no-op, since this store has
// no real seek latency to model), block is a linear sector number.
func (d *Disk) Transfer(op int, block int, buf *[machine.PageSize]byte) uint32 {
	status := uint32(machine.DevReady)
	switch {
	case op == machine.DiskOpSeek:
	case block < 0 || block >= len(d.sectors):
		status = machine.DevBusy
	case op == machine.DiskOpWrite:
		d.sectors[block] = *buf
	case op == machine.DiskOpRead:
		*buf = d.sectors[block]
	}
	d.postStatus(status)
	return status
}

func (d *Disk) postStatus(status uint32) {
	bank := d.mach.Bank(d.Line(), d.device)
	if bank == nil {
		return
	}
	bank.Write(machine.FieldStatus, status)
	d.mach.RaiseDeviceInterrupt(d.Line(), d.device)
}
