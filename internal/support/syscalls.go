// syscalls.go implements the support-level SYSCALLs 9-18 (spec.md
// §4.9). Each is a plain method call rather than a trap handler, for
// the reason given in the package doc comment: this simulation has no
// instruction stream to trap from in the first place.
package support

import (
	"pandos/internal/machine"
	"pandos/internal/nucleus"
)

// maxStrLen is the longest buffer SYS11/12 will accept before
// terminating the U-Proc outright -- the "later/consistent" variant
// pinned by SPEC_FULL.md's Open Questions section, over silently
// truncating.
const maxStrLen = machine.MaxStrLen

// TerminateUProc implements SYS9: release whatever device mutexes this
// ASID might still hold (device index ASID-1 on each device line, the
// index cmd/pandos gives each U-Proc's devices), signal the master
// semaphore so the instantiator can join, then tear the U-Proc down via
// nucleus SYS2.
//
// The master semaphore genuinely crosses from this U-Proc's flow of
// control to the instantiator's -- the same cross-flow situation as
// SYS18's Delay -- so it is V'd through the nucleus's own SysVerhogen
// (which unblocks a waiter via the ASL) rather than through this
// package's non-blocking acquireMutex/releaseMutex bookkeeping.
func (s *Support) TerminateUProc() {
	d := s.ASID - 1
	for line := machine.LineIOBase; line <= machine.LineTerm; line++ {
		addr := DeviceMutexAddr(machine.DeviceSemIndex(line, d))
		if s.Kernel.SemValue(addr) < 1 {
			releaseMutex(s.Kernel, addr)
		}
	}
	var verhogen machine.State
	verhogen.Reg[machine.RegA1] = masterSemAddr
	s.Kernel.SysVerhogen(&verhogen)
	s.Kernel.SysTerminateProcess()
}

// GetTOD implements SYS10: return the simulated time-of-day.
func (s *Support) GetTOD() int64 {
	return s.Kernel.Mach.Now()
}

// WriteToPrinter implements SYS11: validate the buffer, then write it
// byte-by-byte to the printer device, stopping at the first non-ready
// status.
func (s *Support) WriteToPrinter(printer BackingStore, buf []byte) int {
	if len(buf) > maxStrLen {
		s.TerminateUProc()
		return 0
	}
	return s.writeBytes(printer, buf, machine.CmdTransmitChar)
}

// WriteToTerminal implements SYS12: as WriteToPrinter, against the
// terminal transmitter half.
func (s *Support) WriteToTerminal(term BackingStore, buf []byte) int {
	if len(buf) > maxStrLen {
		s.TerminateUProc()
		return 0
	}
	return s.writeBytes(term, buf, machine.CmdTransmitChar)
}

// writeBytes drives one mutex-guarded byte at a time through store,
// returning the count written (or -status on the first failure).
func (s *Support) writeBytes(store BackingStore, buf []byte, op int) int {
	mutexAddr := DeviceMutexAddr(machine.DeviceSemIndex(store.Line(), store.Device()))
	acquireMutex(s.Kernel, mutexAddr)
	defer releaseMutex(s.Kernel, mutexAddr)

	semIdx := machine.DeviceSemIndex(store.Line(), store.Device())
	if store.Line() == machine.LineTerm {
		semIdx = machine.TerminalWriteSemIndex(store.Device())
	}
	for _, b := range buf {
		var page [machine.PageSize]byte
		status := s.waitForDeviceIO(
			nucleus.DeviceSemAddr(semIdx),
			func() uint32 { return store.Transfer(op, int(b), &page) },
		)
		if status != machine.StatusCharTransmitted && status != machine.DevReady {
			return -int(status)
		}
	}
	return len(buf)
}

// ReadFromTerminal implements SYS13: read characters from the
// receiver half until end-of-line (inclusive), returning the count
// stored into buf.
func (s *Support) ReadFromTerminal(term BackingStore, buf []byte) int {
	mutexAddr := DeviceMutexAddr(machine.DeviceSemIndex(term.Line(), term.Device()))
	acquireMutex(s.Kernel, mutexAddr)
	defer releaseMutex(s.Kernel, mutexAddr)

	n := 0
	for n < len(buf) {
		var page [machine.PageSize]byte
		status := s.waitForDeviceIO(
			nucleus.DeviceSemAddr(machine.DeviceSemIndex(term.Line(), term.Device())),
			func() uint32 { return term.Transfer(machine.CmdReceiveChar, 0, &page) },
		)
		if status != machine.StatusCharReceived {
			return -int(status)
		}
		ch := page[0]
		buf[n] = ch
		n++
		if ch == '\n' {
			break
		}
	}
	return n
}

// SectorStore is a BackingStore that can also report its valid linear
// sector range, so SYS14/15 can validate the caller's sector argument
// themselves rather than let an out-of-range value masquerade as an
// ordinary device-busy status. devsim.Disk implements this.
type SectorStore interface {
	BackingStore
	SectorCount() int
}

// DiskPut implements SYS14: copy a page from the caller's DMA buffer to
// disk at the given linear sector. DiskGet is the read-direction twin.
//
// An out-of-range linear sector is a structural violation, not a device
// error (§7 category 3), so it terminates the U-Proc outright -- the
// same treatment WriteToPrinter/WriteToTerminal give an over-length
// buffer -- instead of surfacing as a negative device-busy result.
func (s *Support) DiskPut(disk SectorStore, linearSector int, page [machine.PageSize]byte) int32 {
	if linearSector < 0 || linearSector >= disk.SectorCount() {
		s.TerminateUProc()
		return 0
	}
	status := s.doDeviceTransfer(disk, machine.DiskOpWrite, linearSector, &page)
	if status != machine.DevReady {
		return -int32(status)
	}
	return int32(status)
}

// DiskGet implements SYS15.
func (s *Support) DiskGet(disk SectorStore, linearSector int) (page [machine.PageSize]byte, result int32) {
	if linearSector < 0 || linearSector >= disk.SectorCount() {
		s.TerminateUProc()
		return page, 0
	}
	status := s.doDeviceTransfer(disk, machine.DiskOpRead, linearSector, &page)
	if status != machine.DevReady {
		return page, -int32(status)
	}
	return page, int32(status)
}

// FlashPut implements SYS16: write a page to this ASID's own flash
// backing store at the given block.
func (s *Support) FlashPut(block int, page [machine.PageSize]byte) int32 {
	status := s.doDeviceTransfer(s.Flash, machine.FlashOpWrite, block, &page)
	if status != machine.DevReady {
		return -int32(status)
	}
	return int32(status)
}

// FlashGet implements SYS17.
func (s *Support) FlashGet(block int) (page [machine.PageSize]byte, result int32) {
	status := s.doDeviceTransfer(s.Flash, machine.FlashOpRead, block, &page)
	if status != machine.DevReady {
		return page, -int32(status)
	}
	return page, int32(status)
}
