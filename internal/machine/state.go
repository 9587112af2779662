package machine

// StateRegs is the general-purpose register file size saved alongside
// the four control registers (the Pandos STATEREGNUM).
const StateRegs = 31

// Named offsets into State.Reg, mirroring the original s_at..s_LO macros.
const (
	RegAT = iota
	RegV0
	RegV1
	RegA0
	RegA1
	RegA2
	RegA3
	RegT0
	RegT1
	RegT2
	RegT3
	RegT4
	RegT5
	RegT6
	RegT7
	RegS0
	RegS1
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegT8
	RegT9
	RegGP
	RegSP
	RegFP
	RegRA
	RegHI
	RegLO
)

// State is the saved processor state the machine places at a fixed
// physical address when an exception is taken, and that LoadState /
// StoreState transfer to and from the running CPU.
type State struct {
	EntryHI uint32
	Cause   uint32
	Status  uint32
	PC      uint32
	Reg     [StateRegs]uint32
}

// Context is a pass-up context: the stack, status and PC the support
// level resumes into when an exception is forwarded to it.
type Context struct {
	StackPtr uint32
	Status   uint32
	PC       uint32
}

// ExceptionCode extracts the exception code from Cause[6:2].
func (s *State) ExceptionCode() uint32 {
	return (s.Cause & ExcCodeMask) >> ExcCodeShift
}

// AdvancePC moves the saved PC past the trapping instruction, done by
// every SYSCALL handler before resuming the caller so the trap is not
// re-executed.
func (s *State) AdvancePC() {
	s.PC += WordLen
}

// PassUpVectorEntry names the two pass-up targets the machine consumes
// at boot, one per exception class the nucleus forwards.
type PassUpVectorEntry struct {
	Handler   uint32
	StackPtr  uint32
}

// PassUp is the pass-up vector page layout: one entry for TLB refills,
// one for all other exceptions (§6). No code in this module installs or
// reads a PassUp value; exceptions reach the support level through
// nucleus.PassUpOrDie and direct method calls.
type PassUp struct {
	TLBRefill PassUpVectorEntry
	General   PassUpVectorEntry
}
