package machine

import "fmt"

// Machine is the contract the nucleus and support level consume from the
// simulated hardware: saved-state handoff, interrupt masking, the
// interval/local timers, time-of-day, TLB maintenance, device register
// banks, and halt. Everything else -- instruction fetch/decode/execute
// -- belongs to the excluded simulated machine (spec.md §1).
type Machine interface {
	// Resume loads a saved state and "returns" to it. In a real machine
	// this instruction never returns to its caller; Sim instead records
	// the state for inspection and returns normally, since the kernel
	// loop here is cooperative rather than a real context switch.
	Resume(s *State)
	// LastResumed reports the state most recently passed to Resume, for
	// tests and for the scheduler's "nothing to run" bookkeeping.
	LastResumed() *State

	EnableInterrupts()
	DisableInterrupts()
	InterruptsEnabled() bool

	// SetLocalTimer (re)loads the per-process quantum timer, in
	// microseconds.
	SetLocalTimer(us int64)
	// SetIntervalTimer (re)loads the system-wide pseudo-clock timer.
	SetIntervalTimer(us int64)
	LocalTimerRemaining() int64

	// Now returns the simulated time-of-day clock, in microseconds.
	Now() int64

	TLB() *TLB

	// Bank returns the register bank for (line, device). Only lines
	// LineIOBase..LineTerm are backed by real banks.
	Bank(line, device int) *RegisterBank

	// PendingLine returns the lowest-numbered line with a pending
	// interrupt and true, or (0, false) if none is pending (§4.6
	// tie-break: lines ordered lowest-number-first).
	PendingLine() (int, bool)
	// PendingDevice returns the lowest-numbered device with a pending
	// interrupt on the given line and true, or (0, false).
	PendingDevice(line int) (int, bool)
	// RaiseDeviceInterrupt marks (line, device) as having a completed,
	// unacknowledged operation. Called by devsim backends.
	RaiseDeviceInterrupt(line, device int)
	// AckDeviceInterrupt clears the pending bit and writes ACK to the
	// device's command register.
	AckDeviceInterrupt(line, device int)

	Halt()
	// Panic records a fatal kernel invariant violation and marks the
	// machine halted, without unwinding the Go call stack -- tests can
	// assert on PanicReason() rather than recovering a real panic.
	Panic(reason string, args ...any)
	Halted() bool
	PanicReason() string
}

// HaltedError is returned by callers that notice the machine already
// halted or panicked and want to unwind without another Panic call.
type HaltedError struct{ Reason string }

func (e *HaltedError) Error() string { return fmt.Sprintf("machine halted: %s", e.Reason) }
