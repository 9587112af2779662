package nucleus

import (
	"pandos/internal/kutil"
	"pandos/internal/machine"
	"pandos/internal/pcb"
)

// Schedule implements the round-robin dispatch policy of §4.3: pick the
// ready queue head, or decide between idle, halt, and deadlock-panic
// when it is empty.
func (k *Kernel) Schedule() {
	if k.Ready.IsEmpty() {
		switch {
		case k.ProcessCount == 0:
			k.Mach.Halt()
			return
		case k.SoftBlockCount > 0:
			k.Mach.SetLocalTimer(0)
			k.Mach.EnableInterrupts()
			return
		default:
			k.Mach.Panic("deadlock: processCount=%d, softBlockCount=0, ready queue empty", k.ProcessCount)
			return
		}
	}

	ref := k.Pool.RemoveHead(&k.Ready)
	k.Current = ref
	k.dispatchStart = k.Mach.Now()
	k.Mach.SetLocalTimer(machine.QuantumUS)
	k.Mach.Resume(&k.Pool.At(ref).State)
}

// ChargeCurrent adds the elapsed time since the current process was
// last dispatched to its accumulated CPU time, called whenever Current
// is about to leave the CPU (suspension, quantum expiry, termination).
func (k *Kernel) ChargeCurrent() {
	if k.Current == pcb.None {
		return
	}
	elapsed := k.Mach.Now() - k.dispatchStart
	b := k.Pool.At(k.Current)
	total := b.Time + elapsed
	if kutil.CheckAdditionOverflow(b.Time, elapsed, total) {
		k.Mach.Panic("accumulated CPU time overflow for pid %d", k.Current)
		return
	}
	b.Time = total
}
