// Package nucleus, syscalls.go: the eight nucleus SYSCALLs (spec.md
// §4.5). Each handler is called after the dispatcher has already
// advanced the saved PC past the trapping instruction. dispatchSyscall
// reads the SYSCALL number out of a0; every handler's own arguments
// come from a1..a3, so SYS1's state/support handles and SYS3/4/5's
// semaphore address and device selector all line up at the same
// registers dispatchSyscall leaves untouched. Results go into v0.
//
// a1/a2 arguments that are conceptually pointers (the initial state and
// support structure passed to SYS1) are carried as handles through
// RegisterState/RegisterSupport rather than as raw addresses, since
// this kernel does not model a flat, byte-addressable user memory
// (spec.md's excluded "simulated machine" owns that).
package nucleus

import (
	"pandos/internal/machine"
	"pandos/internal/pcb"
)

// RegisterState records s in the Kernel's handle table for use as a
// SYS1 a1 argument, returning its handle.
func (k *Kernel) RegisterState(s *machine.State) uint32 {
	k.nextHandle++
	k.stateByHandle[k.nextHandle] = s
	return k.nextHandle
}

// SysCreateProcess implements SYS1: allocate a PCB, copy the state
// named by a1's handle, link it as a child of Current, enqueue it
// ready, and bump processCount. v0 is 0 on success, -1 if the PCB pool
// is exhausted.
func (k *Kernel) SysCreateProcess(state *machine.State) {
	stateHandle := state.Reg[machine.RegA1]
	supportHandle := state.Reg[machine.RegA2]

	ref := k.Pool.Allocate()
	if ref == pcb.None {
		state.Reg[machine.RegV0] = negOne
		return
	}

	b := k.Pool.At(ref)
	if initState, ok := k.stateByHandle[stateHandle]; ok {
		b.State = *initState
	}
	b.SupportHandle = supportHandle

	if k.Current != pcb.None {
		k.Pool.InsertChild(k.Current, ref)
	}
	k.Pool.InsertTail(&k.Ready, ref)
	k.ProcessCount++

	state.Reg[machine.RegV0] = 0
}

// negOne is -1 stored in the unsigned v0 register, matching how the
// real kernel returns a negative int through an unsigned machine word.
const negOne uint32 = 0xFFFFFFFF

// SysTerminateProcess implements SYS2: post-order destroy Current's
// whole subtree, detach it from its parent, remove it from whichever
// queue it occupies, and reschedule.
func (k *Kernel) SysTerminateProcess() {
	k.ChargeCurrent()
	ref := k.Current
	k.TerminateProcess(ref)
	k.Current = pcb.None
	k.Schedule()
}

// TerminateProcess recursively destroys ref's children, then ref
// itself, per §4.5 SYS2's "post-order destroy". It does not touch
// k.Current or reschedule; callers that terminate the running process
// must do that themselves.
func (k *Kernel) TerminateProcess(ref pcb.Ref) {
	for k.Pool.HasChildren(ref) {
		first := k.Pool.RemoveFirstChild(ref)
		k.TerminateProcess(first)
	}
	k.Pool.Detach(ref)
	k.destroyOne(ref)
}

// destroyOne removes ref from whatever queue currently holds it
// (ready, or a blocked-semaphore queue), adjusts the semaphore or
// softBlockCount it was consuming, frees the PCB, and decrements
// processCount.
func (k *Kernel) destroyOne(ref pcb.Ref) {
	b := k.Pool.At(ref)
	switch {
	case b.Blocked:
		semAddr := b.SemAdd
		isDevice := semAddr >= DeviceSemBase
		k.ASL.RemoveSpecificBlocked(ref)
		if isDevice {
			k.SoftBlockCount--
		} else {
			k.semMem[semAddr]++
		}
	case ref == k.Current:
		// caller is responsible for not leaving Current dangling
	default:
		k.Pool.RemoveSpecific(&k.Ready, ref)
	}
	k.Pool.Free(ref)
	k.ProcessCount--
}

// SysPasseren implements SYS3 (P): decrement the semaphore at a1; if
// the result is negative, save Current's state and CPU time, block it
// on the ASL, and reschedule.
func (k *Kernel) SysPasseren(state *machine.State) {
	addr := state.Reg[machine.RegA1]
	k.semMem[addr]--
	if k.semMem[addr] < 0 {
		k.ChargeCurrent()
		ref := k.Current
		k.Pool.At(ref).State = *state
		k.ASL.Block(addr, ref)
		k.Current = pcb.None
		k.Schedule()
	}
}

// SysVerhogen implements SYS4 (V): increment the semaphore at a1; if
// the result is <= 0, move one waiter from its ASL queue to the ready
// queue.
func (k *Kernel) SysVerhogen(state *machine.State) {
	addr := state.Reg[machine.RegA1]
	k.semMem[addr]++
	if k.semMem[addr] <= 0 {
		if woken := k.ASL.UnblockOne(addr); woken != pcb.None {
			k.Pool.InsertTail(&k.Ready, woken)
		}
	}
}

// SysWaitForIO implements SYS5: decrement the device semaphore for
// (line, device, isTerminalRead) and block the caller if it goes
// negative, incrementing softBlockCount. The result (device status) is
// delivered into v0 later, by the interrupt handler, when this PCB is
// unblocked.
func (k *Kernel) SysWaitForIO(state *machine.State) {
	line := int(state.Reg[machine.RegA1])
	device := int(state.Reg[machine.RegA2])
	isTerminalWrite := state.Reg[machine.RegA3] == 0 // spec: isTerminalRead flag; write is the "false" case

	idx := machine.DeviceSemIndex(line, device)
	if line == machine.LineTerm && isTerminalWrite {
		idx = machine.TerminalWriteSemIndex(device)
	}
	addr := DeviceSemAddr(idx)

	k.semMem[addr]--
	if k.semMem[addr] < 0 {
		k.ChargeCurrent()
		ref := k.Current
		k.Pool.At(ref).State = *state
		k.ASL.Block(addr, ref)
		k.SoftBlockCount++
		k.Current = pcb.None
		k.Schedule()
	}
}

// SysGetCPUTime implements SYS6: return Current's accumulated CPU time
// plus time elapsed since its last dispatch.
func (k *Kernel) SysGetCPUTime(state *machine.State) {
	b := k.Pool.At(k.Current)
	elapsed := k.Mach.Now() - k.dispatchStart
	state.Reg[machine.RegV0] = uint32(b.Time + elapsed)
}

// SysWaitForClock implements SYS7: block the caller on the pseudo-clock
// semaphore (always negative before the next tick) and reschedule.
func (k *Kernel) SysWaitForClock(state *machine.State) {
	addr := DeviceSemAddr(machine.PClockIdx)
	k.semMem[addr]--
	k.ChargeCurrent()
	ref := k.Current
	k.Pool.At(ref).State = *state
	k.ASL.Block(addr, ref)
	k.SoftBlockCount++
	k.Current = pcb.None
	k.Schedule()
}

// SysGetSupportData implements SYS8: return Current's support
// structure handle in v0.
func (k *Kernel) SysGetSupportData(state *machine.State) {
	state.Reg[machine.RegV0] = k.Pool.At(k.Current).SupportHandle
}
