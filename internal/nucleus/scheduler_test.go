package nucleus

import (
	"testing"

	"pandos/internal/machine"
	"pandos/internal/pcb"
)

func TestScheduleDispatchesReadyHead(t *testing.T) {
	k := New(machine.NewSim(8), 4)
	a := k.Pool.Allocate()
	k.Pool.InsertTail(&k.Ready, a)
	k.ProcessCount = 1

	k.Schedule()

	if k.Current != a {
		t.Fatalf("expected Current=%d, got %d", a, k.Current)
	}
	if k.Mach.LastResumed() == nil {
		t.Errorf("expected Resume to have been called")
	}
}

func TestScheduleHaltsWhenNoProcesses(t *testing.T) {
	sim := machine.NewSim(8)
	k := New(sim, 4)
	k.Schedule()
	if !sim.Halted() {
		t.Errorf("expected machine halted with processCount=0")
	}
}

func TestScheduleIdlesOnSoftBlock(t *testing.T) {
	sim := machine.NewSim(8)
	k := New(sim, 4)
	k.ProcessCount = 1
	k.SoftBlockCount = 1
	k.Schedule()
	if sim.Halted() {
		t.Errorf("should not halt while a process is still soft-blocked")
	}
	if !sim.InterruptsEnabled() {
		t.Errorf("expected interrupts enabled while idling")
	}
}

func TestSchedulePanicsOnDeadlock(t *testing.T) {
	sim := machine.NewSim(8)
	k := New(sim, 4)
	k.ProcessCount = 1
	k.Schedule()
	if !sim.Halted() {
		t.Errorf("expected a panic to halt the machine")
	}
	if sim.PanicReason() == "" {
		t.Errorf("expected a deadlock panic reason")
	}
}

func TestChargeCurrentAccumulatesTime(t *testing.T) {
	sim := machine.NewSim(8)
	k := New(sim, 4)
	ref := k.Pool.Allocate()
	k.Current = ref
	k.dispatchStart = 0
	sim.Advance(1000)
	k.ChargeCurrent()
	if k.Pool.At(ref).Time != 1000 {
		t.Errorf("expected accumulated time 1000, got %d", k.Pool.At(ref).Time)
	}
}

func TestChargeCurrentNoopWhenIdle(t *testing.T) {
	k := New(machine.NewSim(8), 4)
	k.Current = pcb.None
	k.ChargeCurrent() // must not panic
}
