// Package nucleus implements the privileged core of the kernel: the
// scheduler, the exception dispatcher, the interrupt handler, pass-up-
// or-die, and nucleus SYSCALLs 1-8 (spec.md §4.1-§4.7). All mutable
// kernel state lives on the Kernel struct, passed by pointer into every
// handler, rather than as package-level globals (Design Notes: "static
// globals mutated from handlers").
package nucleus

import (
	"pandos/internal/asl"
	"pandos/internal/machine"
	"pandos/internal/pcb"
)

// DeviceSemBase offsets device-semaphore addresses away from the range
// sync semaphores (SYS3/4 callers) are expected to use, since both
// share one opaque uint32 address space in this simulation.
const DeviceSemBase uint32 = 0x80000000

// DeviceSemAddr returns the semaphore address for device-semaphore
// array index i (§3 "Device-semaphore array").
func DeviceSemAddr(i int) uint32 { return DeviceSemBase + uint32(i) }

// Kernel holds every nucleus global: the PCB pool, the ASL, the ready
// queue, the currently running process, and the two process/soft-block
// counters (§3 "Ready queue / soft-block count / process count").
type Kernel struct {
	Mach machine.Machine
	Pool *pcb.Pool
	ASL  *asl.ASL

	Ready          pcb.Queue
	Current        pcb.Ref
	ProcessCount   int
	SoftBlockCount int

	dispatchStart int64 // TOD at which Current was last dispatched
	semMem        map[uint32]int32

	supportByHandle map[uint32]any
	stateByHandle   map[uint32]*machine.State
	nextHandle      uint32
}

// New builds a Kernel over a fresh PCB pool and ASL sized for nProc
// processes, wired to the given machine.
func New(mach machine.Machine, nProc int) *Kernel {
	pool := pcb.NewPool(nProc)
	k := &Kernel{
		Mach:            mach,
		Pool:            pool,
		ASL:             asl.New(pool, nProc),
		semMem:          make(map[uint32]int32),
		supportByHandle: make(map[uint32]any),
		stateByHandle:   make(map[uint32]*machine.State),
	}
	k.Ready = *pool.MakeEmptyQueue()
	k.Current = pcb.None
	for i := 0; i < machine.MaxDevices; i++ {
		k.semMem[DeviceSemAddr(i)] = 0
	}
	return k
}

// SemValue returns the current algebraic value of the semaphore at
// addr (lazily initialized to 0 the first time it is touched, matching
// a fresh process-local semaphore word that has never been written).
func (k *Kernel) SemValue(addr uint32) int32 { return k.semMem[addr] }

// SetSemValue sets the semaphore at addr to v, used to initialize
// sync/mutex semaphores before any process blocks on them.
func (k *Kernel) SetSemValue(addr uint32, v int32) { k.semMem[addr] = v }
