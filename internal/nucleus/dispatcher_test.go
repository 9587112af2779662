package nucleus

import (
	"testing"

	"pandos/internal/machine"
)

func TestDispatchSyscallAdvancesPCAndRoutes(t *testing.T) {
	k := New(machine.NewSim(8), 4)
	ref := k.Pool.Allocate()
	k.Current = ref

	state := &machine.State{PC: 0x200, Cause: machine.ExcSyscall << machine.ExcCodeShift}
	state.Reg[machine.RegA0] = 6 // SYS6 GetCPUTime
	k.Dispatch(state)

	if state.PC != 0x204 {
		t.Errorf("expected PC advanced past the SYSCALL instruction, got %#x", state.PC)
	}
}

func TestDispatchRerouteNucleusSyscallFromUserMode(t *testing.T) {
	sim := machine.NewSim(8)
	k := New(sim, 4)
	ref := k.Pool.Allocate()
	k.Current = ref

	state := &machine.State{
		PC:     0x300,
		Cause:  machine.ExcSyscall << machine.ExcCodeShift,
		Status: machine.StatusKUc,
	}
	state.Reg[machine.RegA0] = 3 // SYS3 Passeren, nucleus-only

	k.Dispatch(state)

	if k.Pool.InUse(ref) {
		t.Errorf("expected the process killed by pass-up-or-die with no support structure")
	}
}

func TestDispatchRoutesTLBExceptionToPassUp(t *testing.T) {
	sim := machine.NewSim(8)
	k := New(sim, 4)
	ref := k.Pool.Allocate()
	k.Current = ref
	k.ProcessCount = 1

	state := &machine.State{Cause: machine.ExcTLBMin << machine.ExcCodeShift}
	k.Dispatch(state)

	if k.Pool.InUse(ref) {
		t.Errorf("expected process with no support structure killed on TLB exception")
	}
}
