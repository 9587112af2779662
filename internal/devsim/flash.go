// Package devsim provides the concrete device backends the support
// level drives through the support.BackingStore and terminal/printer
// contracts (spec.md §4.11 "Device register geometry"): fixed-geometry
// flash and disk stores, a printer sink, and a terminal that can either
// replay a scripted transcript or drive the real keyboard/screen.
//
// Every backend also mirrors its status into the device's register
// bank and raises the corresponding interrupt line, the way a real
// device would -- even though internal/support's synchronous
// BackingStore.Transfer call never waits on that interrupt itself (see
// support's package doc comment). Keeping the bank/interrupt side
// genuine lets internal/nucleus's own interrupt-handling path observe
// the same device state a test driving it through HandleInterrupt
// would see.
package devsim

import (
	"pandos/internal/machine"
)

// Flash is a fixed-geometry, block-addressable backing store: one
// flash device per U-Proc ASID, sized to hold that U-Proc's entire
// page table (§4.8.3 "flash backing-store codec").
type Flash struct {
	mach   machine.Machine
	device int
	blocks [][machine.PageSize]byte
}

// NewFlash builds a Flash device with nBlocks blocks, registered as
// device index device on the flash interrupt line.
func NewFlash(mach machine.Machine, device int, nBlocks int) *Flash {
	return &Flash{mach: mach, device: device, blocks: make([][machine.PageSize]byte, nBlocks)}
}

func (f *Flash) Line() int   { return machine.LineFlash }
func (f *Flash) Device() int { return f.device }

// Transfer implements support.BackingStore: op is FlashOpRead or
// FlashOpWrite, block is a page-table index into this device's own
// block array.
func (f *Flash) Transfer(op int, block int, buf *[machine.PageSize]byte) uint32 {
	status := uint32(machine.DevReady)
	if block < 0 || block >= len(f.blocks) {
		status = machine.DevBusy
	} else {
		switch op {
		case machine.FlashOpWrite:
			f.blocks[block] = *buf
		case machine.FlashOpRead:
			*buf = f.blocks[block]
		}
	}
	f.postStatus(status)
	return status
}

func (f *Flash) postStatus(status uint32) {
	bank := f.mach.Bank(f.Line(), f.device)
	if bank == nil {
		return
	}
	bank.Write(machine.FieldStatus, status)
	f.mach.RaiseDeviceInterrupt(f.Line(), f.device)
}
