// Package support implements the support level: per-U-Proc support
// structures, the pager and swap pool, the flash backing-store codec,
// support SYSCALLs 9-18, and the delay daemon (spec.md §4.7-§4.10).
//
// The support level has no instruction stream of its own to resume into
// -- this module has no instruction-fetch machinery at all (§1 "excluded
// as external collaborators") -- so where the original kernel resumes a
// U-Proc's saved state at an exception-handler label, this package
// instead exposes the handler as a plain Go method (HandlePageFault, and
// the SYSCALL methods in syscalls.go) that a driver -- cmd/pandos's run
// loop, or a test -- calls directly once nucleus.PassUpOrDie has recorded the
// pass-up. This mirrors how internal/nucleus's own tests drive Dispatch
// and HandleInterrupt directly rather than through a resumed
// instruction stream.
package support

import (
	"pandos/internal/machine"
	"pandos/internal/nucleus"
)

// Exception-class indices, matching nucleus.PassUpTLB/PassUpGeneral.
const (
	ExceptPage    = nucleus.PassUpTLB
	ExceptGeneral = nucleus.PassUpGeneral
)

// Semaphore address spaces. These are disjoint, process-independent
// ranges within the same opaque uint32 semaphore-address space the
// nucleus already uses for device semaphores (nucleus.DeviceSemBase),
// since this simulation has no flat user memory to take real pointers
// into.
const (
	swapPoolMutexAddr uint32 = 0x70000000
	adlMutexAddr      uint32 = 0x70000001
	masterSemAddr     uint32 = 0x70000002
	deviceMutexBase   uint32 = 0x71000000
)

// MasterSemAddr returns the semaphore address of the master
// synchronization semaphore the instantiator P's once per U-Proc to
// join them all, and each U-Proc's SYS9 V's exactly once.
func MasterSemAddr() uint32 { return masterSemAddr }

// DeviceMutexAddr returns the semaphore address for the mutual-exclusion
// semaphore guarding device-semaphore-array index i (one per device
// index, plus the extra terminal-transmitter indices already folded
// into that index space by machine.TerminalWriteSemIndex).
func DeviceMutexAddr(i int) uint32 { return deviceMutexBase + uint32(i) }

// Support is one U-Proc's support structure (spec.md §3 "Support
// structure"): the per-exception-class saved state and pass-up context,
// the private page table, and this ASID's backing store handle.
type Support struct {
	ASID int

	exceptState   [2]machine.State
	exceptContext [2]machine.Context

	PageTable [machine.NPages]machine.PTE

	Kernel *nucleus.Kernel
	Swap   *SwapPool
	ADL    *ADL
	Flash  BackingStore
	Disk   SectorStore

	// DMA is this U-Proc's single private DMA-sized buffer, standing in
	// for the fixed scratch frame real Pandos reserves per U-Proc for
	// disk/flash transfers and terminal/printer byte staging.
	DMA [machine.PageSize]byte

	// wakeCh is this Support's private delay semaphore (SYS18): a
	// buffered channel rather than a kernel semaphore address, since
	// waking it must cross from the delay daemon's goroutine into
	// whichever goroutine is blocked in Delay -- genuine concurrency,
	// unlike this package's other, synchronously-completing mutexes.
	wakeCh chan struct{}
}

// New builds a Support structure for the given ASID, wired to the
// owning kernel, swap pool, ADL, and per-ASID backing stores. The page
// table starts with every entry invalid; handler contexts start zeroed
// and must be set with SetContext before the structure is registered
// with the nucleus (cmd/pandos does this at U-Proc creation, mirroring
// how the instantiator builds each U-Proc's exceptContext at spawn
// time).
func New(asid int, k *nucleus.Kernel, swap *SwapPool, adl *ADL, flash BackingStore, disk SectorStore) *Support {
	s := &Support{ASID: asid, Kernel: k, Swap: swap, ADL: adl, Flash: flash, Disk: disk, wakeCh: make(chan struct{}, 1)}
	for i := range s.PageTable {
		s.PageTable[i] = machine.PTE{
			EntryHI: machine.MakeEntryHI(uint32(i), uint32(asid)),
		}
	}
	return s
}

// SetContext installs the pass-up context (handler stack, status, PC)
// for the given exception class, which PassUpContext (part of
// nucleus.SupportStruct) later returns. cmd/pandos calls this once per
// U-Proc at spawn time for
// both ExceptPage and ExceptGeneral.
func (s *Support) SetContext(index int, ctx machine.Context) {
	s.exceptContext[index] = ctx
}

// SaveException implements nucleus.SupportStruct: record the trap state
// for the given exception class.
func (s *Support) SaveException(index int, st *machine.State) {
	s.exceptState[index] = *st
}

// PassUpContext implements nucleus.SupportStruct: return the installed
// pass-up context for the given exception class.
func (s *Support) PassUpContext(index int) machine.Context {
	return s.exceptContext[index]
}

// ExceptionState returns the saved trap state for the given exception
// class, for use by HandlePageFault.
func (s *Support) ExceptionState(index int) *machine.State {
	return &s.exceptState[index]
}
