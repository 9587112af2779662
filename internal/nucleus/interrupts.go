package nucleus

import (
	"pandos/internal/machine"
	"pandos/internal/pcb"
)

// HandleInterrupt implements §4.6: find the highest-priority pending
// line (PLT, then pseudo-clock, then devices low-to-high), service it,
// and return control to whichever process was running when the
// interrupt landed -- without charging it for the time spent servicing
// a device or clock tick, since that time belongs to the interrupt, not
// to Current.
func (k *Kernel) HandleInterrupt(state *machine.State) {
	line, ok := k.Mach.PendingLine()
	if !ok {
		k.resumeAfterInterrupt(state)
		return
	}

	switch line {
	case machine.LineTimer:
		k.handlePLT(state)
		return
	case machine.LineClock:
		k.handlePseudoClock()
	default:
		k.handleDeviceLine(line)
	}

	k.resumeAfterInterrupt(state)
}

// handlePLT implements the local-timer line: Current's quantum expired.
// It goes back onto the ready queue (it was not blocked), and the
// nucleus reschedules -- it does not simply resume state, since the
// whole point of the PLT is to force a process switch.
func (k *Kernel) handlePLT(state *machine.State) {
	k.ChargeCurrent()
	ref := k.Current
	if ref != pcb.None {
		k.Pool.At(ref).State = *state
		k.Pool.InsertTail(&k.Ready, ref)
	}
	k.Current = pcb.None
	k.Schedule()
}

// handlePseudoClock implements the interval-timer line: reload the
// timer and wake every process waiting on the pseudo-clock semaphore
// (§4.6 "all waiting processes are unblocked, not just one").
func (k *Kernel) handlePseudoClock() {
	k.Mach.SetIntervalTimer(machine.IntervalTimeUS)
	addr := DeviceSemAddr(machine.PClockIdx)
	for k.SemValue(addr) < 0 {
		k.SetSemValue(addr, k.SemValue(addr)+1)
		if woken := k.ASL.UnblockOne(addr); woken != pcb.None {
			k.SoftBlockCount--
			k.Pool.InsertTail(&k.Ready, woken)
		}
	}
	k.SetSemValue(addr, 0)
}

// handleDeviceLine acknowledges the highest-priority pending device on
// line, reads its status, Vs the device semaphore, and -- if that
// unblocks a waiter -- delivers the status into the waiter's v0 and
// moves it to the ready queue. For LineTerm, PendingDevice may report a
// folded index carrying the transmitter half of a device; that case Vs
// the transmitter semaphore (machine.TerminalWriteSemIndex) rather than
// the receiver's.
func (k *Kernel) handleDeviceLine(line int) {
	device, ok := k.Mach.PendingDevice(line)
	if !ok {
		return
	}
	status := k.ackDeviceStatus(line, device)

	idx := machine.DeviceSemIndex(line, device%machine.DevicesPerLine)
	if line == machine.LineTerm && device >= machine.DevicesPerLine {
		idx = machine.TerminalWriteSemIndex(device - machine.DevicesPerLine)
	}
	addr := DeviceSemAddr(idx)
	k.SetSemValue(addr, k.SemValue(addr)+1)
	if k.SemValue(addr) > 0 {
		return
	}

	woken := k.ASL.UnblockOne(addr)
	if woken == pcb.None {
		return
	}
	k.SoftBlockCount--
	k.Pool.At(woken).State.Reg[machine.RegV0] = status
	k.Pool.InsertTail(&k.Ready, woken)
}

// ackDeviceStatus reads (line, device)'s status register and
// acknowledges the interrupt. device may be a LineTerm-folded index
// (see machine.Sim.PendingDevice); real devices at LineTerm report
// FieldRecvStatus, folded transmitter halves report FieldTransStatus.
func (k *Kernel) ackDeviceStatus(line, device int) uint32 {
	realDevice := device % machine.DevicesPerLine
	bank := k.Mach.Bank(line, realDevice)
	var status uint32
	switch {
	case line == machine.LineTerm && device >= machine.DevicesPerLine:
		status = bank.Read(machine.FieldTransStatus)
	case line == machine.LineTerm:
		status = bank.Read(machine.FieldRecvStatus)
	default:
		status = bank.Read(machine.FieldStatus)
	}
	k.Mach.AckDeviceInterrupt(line, device)
	return status
}

// ServiceDevice is ackDeviceStatus exported for callers outside the
// interrupt handler: it reads (line, device)'s status and acknowledges
// the interrupt, and returns that status. It does not V the device
// semaphore and does not move any process to the ready queue.
func (k *Kernel) ServiceDevice(line, device int) uint32 {
	return k.ackDeviceStatus(line, device)
}

// resumeAfterInterrupt returns control to whichever process was
// running before the interrupt (reloading its local timer with the
// remaining quantum is the machine's job on Resume), or falls through
// to the scheduler if none was running.
func (k *Kernel) resumeAfterInterrupt(state *machine.State) {
	if k.Current == pcb.None {
		k.Schedule()
		return
	}
	k.Mach.Resume(state)
}
