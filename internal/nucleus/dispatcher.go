package nucleus

import "pandos/internal/machine"

// ReservedInstructionCause is substituted by Dispatch when a user-mode
// process issues a nucleus-reserved SYSCALL number, rerouting it
// through the program-trap path (§4.4).
const ReservedInstructionCause = 10 // MIPS "reserved instruction" ExcCode

// Dispatch reads the exception code out of state and routes to the
// interrupt, TLB, SYSCALL, or program-trap path, per §4.4. state is the
// saved processor state the machine placed at its fixed address; the
// caller (cmd/pandos's trap entry point, or a test) owns its lifetime.
func (k *Kernel) Dispatch(state *machine.State) {
	code := state.ExceptionCode()

	switch {
	case code == machine.ExcInterrupt:
		k.HandleInterrupt(state)
	case code >= machine.ExcTLBMin && code <= machine.ExcTLBMax:
		k.PassUpOrDie(PassUpTLB, state)
	case code == machine.ExcSyscall:
		k.dispatchSyscall(state)
	default:
		k.PassUpOrDie(PassUpGeneral, state)
	}
}

// dispatchSyscall advances past the trapping instruction, rejects
// nucleus-only numbers called from user mode, and routes 1-8 to the
// nucleus SYSCALL table. Numbers 9 and up belong to the support level
// and are never handled here; a user-mode process calling one without a
// support structure falls through to pass-up-or-die like any other
// SYSCALL the nucleus doesn't own.
func (k *Kernel) dispatchSyscall(state *machine.State) {
	state.AdvancePC()
	num := int32(state.Reg[machine.RegA0])

	userMode := state.Status&machine.StatusKUc != 0
	if userMode && num >= 1 && num <= 8 {
		state.Cause = (state.Cause &^ machine.ExcCodeMask) | (ReservedInstructionCause << machine.ExcCodeShift)
		k.PassUpOrDie(PassUpGeneral, state)
		return
	}

	switch num {
	case 1:
		k.SysCreateProcess(state)
	case 2:
		k.SysTerminateProcess()
	case 3:
		k.SysPasseren(state)
	case 4:
		k.SysVerhogen(state)
	case 5:
		k.SysWaitForIO(state)
	case 6:
		k.SysGetCPUTime(state)
	case 7:
		k.SysWaitForClock(state)
	case 8:
		k.SysGetSupportData(state)
	default:
		k.PassUpOrDie(PassUpGeneral, state)
	}
}
