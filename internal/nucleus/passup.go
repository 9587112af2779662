package nucleus

import (
	"pandos/internal/machine"
	"pandos/internal/pcb"
)

// Exception classes a pass-up can target, matching support_t's two-slot
// exceptState/exceptContext arrays (§3 "Support structure").
const (
	PassUpTLB     = 0 // page fault
	PassUpGeneral = 1 // everything else
)

// SupportStruct is the nucleus's view of a U-Proc's support structure:
// just enough to pass an exception up to it. The concrete type lives in
// package support, which imports nucleus; it is registered with the
// Kernel's handle table (see RegisterSupport) and type-asserted here to
// avoid an import cycle.
type SupportStruct interface {
	SaveException(index int, s *machine.State)
	PassUpContext(index int) machine.Context
}

// RegisterSupport records sup in the Kernel's handle table and returns
// its handle, to be stored on a PCB's SupportHandle field. Handles start
// at 1; 0 means "no support structure".
func (k *Kernel) RegisterSupport(sup any) uint32 {
	k.nextHandle++
	k.supportByHandle[k.nextHandle] = sup
	return k.nextHandle
}

// SupportOf resolves a PCB's SupportHandle back to the value passed to
// RegisterSupport, or nil if it has none.
func (k *Kernel) SupportOf(ref pcb.Ref) any {
	h := k.Pool.At(ref).SupportHandle
	if h == 0 {
		return nil
	}
	return k.supportByHandle[h]
}

// PassUpOrDie implements §4.7: raise a non-nucleus exception to the
// owning U-Proc's support level if it has one, otherwise kill it.
// savedState is the trap state captured by the dispatcher before
// calling in.
func (k *Kernel) PassUpOrDie(index int, savedState *machine.State) {
	ref := k.Current
	sup, ok := k.SupportOf(ref).(SupportStruct)
	if !ok {
		k.TerminateProcess(ref)
		k.Current = pcb.None
		k.Schedule()
		return
	}

	sup.SaveException(index, savedState)
	ctx := sup.PassUpContext(index)

	resumed := machine.State{
		Status: ctx.Status,
		PC:     ctx.PC,
	}
	resumed.Reg[machine.RegSP] = ctx.StackPtr
	k.Mach.Resume(&resumed)
}
