package nucleus

import (
	"testing"

	"pandos/internal/machine"
	"pandos/internal/pcb"
)

func TestSysCreateProcessLinksChildAndEnqueues(t *testing.T) {
	k := New(machine.NewSim(8), 4)
	parent := k.Pool.Allocate()
	k.Current = parent
	k.ProcessCount = 1

	initial := &machine.State{PC: 0x1000}
	handle := k.RegisterState(initial)

	state := &machine.State{}
	state.Reg[machine.RegA1] = handle
	k.SysCreateProcess(state)

	if state.Reg[machine.RegV0] != 0 {
		t.Fatalf("expected success return 0, got %d", state.Reg[machine.RegV0])
	}
	if k.ProcessCount != 2 {
		t.Errorf("expected processCount 2, got %d", k.ProcessCount)
	}
	child := k.Pool.RemoveHead(&k.Ready)
	if k.Pool.At(child).State.PC != 0x1000 {
		t.Errorf("expected child's initial PC copied from registered state")
	}
	if k.Pool.Parent(child) != parent {
		t.Errorf("expected child linked under parent")
	}
}

func TestSysCreateProcessFailsWhenPoolExhausted(t *testing.T) {
	k := New(machine.NewSim(8), 1)
	k.Pool.Allocate() // exhaust the only PCB

	state := &machine.State{}
	k.SysCreateProcess(state)
	if state.Reg[machine.RegV0] != negOne {
		t.Errorf("expected -1 return on exhausted pool, got %d", state.Reg[machine.RegV0])
	}
}

func TestSysTerminateProcessDestroysSubtree(t *testing.T) {
	k := New(machine.NewSim(8), 8)
	root := k.Pool.Allocate()
	child := k.Pool.Allocate()
	k.Pool.InsertChild(root, child)
	k.ProcessCount = 2
	k.Current = root

	k.SysTerminateProcess()

	if k.Pool.InUse(root) || k.Pool.InUse(child) {
		t.Errorf("expected both root and child freed")
	}
	if k.ProcessCount != 0 {
		t.Errorf("expected processCount 0, got %d", k.ProcessCount)
	}
}

func TestSysPasserenBlocksOnNegative(t *testing.T) {
	k := New(machine.NewSim(8), 4)
	ref := k.Pool.Allocate()
	k.Current = ref
	k.ProcessCount = 1
	addr := uint32(0x1000)
	k.SetSemValue(addr, 0)

	state := &machine.State{}
	state.Reg[machine.RegA1] = addr
	k.SysPasseren(state)

	if k.SemValue(addr) != -1 {
		t.Errorf("expected semaphore -1, got %d", k.SemValue(addr))
	}
	if k.Current != pcb.None {
		t.Errorf("expected Current cleared after blocking")
	}
}

func TestSysPasserenDoesNotBlockWhenPositive(t *testing.T) {
	k := New(machine.NewSim(8), 4)
	ref := k.Pool.Allocate()
	k.Current = ref
	addr := uint32(0x2000)
	k.SetSemValue(addr, 1)

	state := &machine.State{}
	state.Reg[machine.RegA1] = addr
	k.SysPasseren(state)

	if k.Current != ref {
		t.Errorf("expected Current unchanged, got %d", k.Current)
	}
	if k.SemValue(addr) != 0 {
		t.Errorf("expected semaphore 0, got %d", k.SemValue(addr))
	}
}

func TestSysVerhogenWakesWaiter(t *testing.T) {
	k := New(machine.NewSim(8), 4)
	waiter := k.Pool.Allocate()
	addr := uint32(0x3000)
	k.SetSemValue(addr, -1)
	k.ASL.Block(addr, waiter)

	state := &machine.State{}
	state.Reg[machine.RegA1] = addr
	k.SysVerhogen(state)

	if k.SemValue(addr) != 0 {
		t.Errorf("expected semaphore 0 after V, got %d", k.SemValue(addr))
	}
	head := k.Pool.RemoveHead(&k.Ready)
	if head != waiter {
		t.Errorf("expected waiter moved to ready queue")
	}
}

func TestSysWaitForIOBlocksAndCountsSoft(t *testing.T) {
	k := New(machine.NewSim(8), 4)
	ref := k.Pool.Allocate()
	k.Current = ref

	state := &machine.State{}
	state.Reg[machine.RegA1] = machine.LineDisk
	state.Reg[machine.RegA2] = 0
	state.Reg[machine.RegA3] = 1
	k.SysWaitForIO(state)

	if k.SoftBlockCount != 1 {
		t.Errorf("expected softBlockCount 1, got %d", k.SoftBlockCount)
	}
	if k.Current != pcb.None {
		t.Errorf("expected Current cleared after blocking on I/O")
	}
}

func TestSysGetCPUTimeIncludesElapsed(t *testing.T) {
	sim := machine.NewSim(8)
	k := New(sim, 4)
	ref := k.Pool.Allocate()
	k.Pool.At(ref).Time = 500
	k.Current = ref
	k.dispatchStart = 0
	sim.Advance(250)

	state := &machine.State{}
	k.SysGetCPUTime(state)
	if state.Reg[machine.RegV0] != 750 {
		t.Errorf("expected 750, got %d", state.Reg[machine.RegV0])
	}
}

func TestSysGetSupportDataReturnsHandle(t *testing.T) {
	k := New(machine.NewSim(8), 4)
	ref := k.Pool.Allocate()
	k.Current = ref
	h := k.RegisterSupport(struct{}{})
	k.Pool.At(ref).SupportHandle = h

	state := &machine.State{}
	k.SysGetSupportData(state)
	if state.Reg[machine.RegV0] != h {
		t.Errorf("expected handle %d, got %d", h, state.Reg[machine.RegV0])
	}
}
