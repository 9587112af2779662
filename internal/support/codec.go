package support

import (
	"pandos/internal/machine"
	"pandos/internal/nucleus"
)

// BackingStore is a per-ASID flash or disk device as the pager and
// SYS14-17 see it: a block-addressable store that completes a
// read/write command against a caller-owned page buffer and reports a
// device status. devsim.Flash and devsim.Disk implement this.
//
// Real Pandos devices complete asynchronously, off an interrupt the
// nucleus's interrupt handler later services. This simulation has no
// concurrent scheduler to interleave with a blocked caller (internal/
// nucleus models one logical flow of control, per spec.md §5), so
// Transfer completes synchronously and support.doDeviceTransfer's
// WaitForIO bookkeeping is there for the semaphore/softBlockCount
// invariants (§8), not to arbitrate real asynchrony.
type BackingStore interface {
	Transfer(op int, block int, buf *[machine.PageSize]byte) (status uint32)
	Line() int
	Device() int
}

// doDeviceTransfer drives one flash or disk command per §4.8.3: acquire
// the device's mutex, issue the command with interrupts conceptually
// disabled across the command-write/WaitForIO pair, then release the
// mutex and return the device's status.
func (s *Support) doDeviceTransfer(store BackingStore, op, block int, buf *[machine.PageSize]byte) uint32 {
	k := s.Kernel
	mutexAddr := DeviceMutexAddr(machine.DeviceSemIndex(store.Line(), store.Device()))

	acquireMutex(k, mutexAddr)
	defer releaseMutex(k, mutexAddr)

	addr := nucleus.DeviceSemAddr(machine.DeviceSemIndex(store.Line(), store.Device()))
	return s.waitForDeviceIO(addr, func() uint32 {
		return store.Transfer(op, block, buf)
	})
}

// waitForDeviceIO implements SYS5's semaphore bookkeeping (P, perform
// the operation, V, deliver status) around a synchronously-completing
// device operation -- see BackingStore's doc comment for why this
// simulation can fold "block" and "wake" into one call. addr is the
// device-semaphore-array address for the specific (line, device) or
// (line, device, isWrite) triple being waited on.
func (s *Support) waitForDeviceIO(addr uint32, do func() uint32) uint32 {
	k := s.Kernel

	k.SetSemValue(addr, k.SemValue(addr)-1)
	blocked := k.SemValue(addr) < 0
	if blocked {
		k.SoftBlockCount++
	}

	status := do()

	k.SetSemValue(addr, k.SemValue(addr)+1)
	if blocked {
		k.SoftBlockCount--
	}
	return status
}
