package devsim

import (
	"io"
	"os"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"

	"pandos/internal/machine"
)

// receiver supplies the next character for a terminal's receiver half.
// scriptedReceiver and interactiveReceiver are the two implementations.
type receiver interface {
	nextChar() (ch byte, ok bool)
	close() error
}

// Terminal is one terminal device: a transmitter half that writes to w,
// and a receiver half fed by either a fixed script or the real keyboard
// (§4.11, "Terminal devices" -- receiver and transmitter share one
// device index but are addressed by distinct semaphores, per
// machine.TerminalWriteSemIndex).
type Terminal struct {
	mach   machine.Machine
	device int
	w      io.Writer
	in     receiver
}

// NewScriptedTerminal builds a Terminal whose receiver half replays
// script in order, one byte per ReadFromTerminal call -- the mode
// cmd/pandos uses for non-interactive runs and the mode this package's
// own tests use.
func NewScriptedTerminal(mach machine.Machine, device int, w io.Writer, script []byte) *Terminal {
	return &Terminal{mach: mach, device: device, w: w, in: &scriptedReceiver{data: script}}
}

// NewInteractiveTerminal builds a Terminal whose receiver half reads
// real keystrokes from the controlling console, putting stdin into raw
// mode for the duration (cmd/pandos's -interactive flag).
func NewInteractiveTerminal(mach machine.Machine, device int, w io.Writer) (*Terminal, error) {
	r, err := newInteractiveReceiver()
	if err != nil {
		return nil, err
	}
	return &Terminal{mach: mach, device: device, w: w, in: r}, nil
}

func (t *Terminal) Line() int   { return machine.LineTerm }
func (t *Terminal) Device() int { return t.device }

// Close releases any real terminal/keyboard resources the receiver
// holds. A no-op for a scripted terminal.
func (t *Terminal) Close() error { return t.in.close() }

// Transfer implements support.BackingStore for both halves: op
// distinguishes CmdTransmitChar (block carries the character to write)
// from CmdReceiveChar (buf[0] receives the character read).
func (t *Terminal) Transfer(op int, block int, buf *[machine.PageSize]byte) uint32 {
	switch op {
	case machine.CmdTransmitChar:
		status := uint32(machine.StatusCharTransmitted)
		if _, err := t.w.Write([]byte{byte(block)}); err != nil {
			status = machine.DevBusy
		}
		t.postStatus(status, machine.FieldTransStatus, true)
		return status
	case machine.CmdReceiveChar:
		ch, ok := t.in.nextChar()
		status := uint32(machine.StatusCharReceived)
		if !ok {
			status = machine.DevBusy
		} else {
			buf[0] = ch
		}
		t.postStatus(status, machine.FieldRecvStatus, false)
		return status
	default:
		return machine.DevBusy
	}
}

// postStatus writes status into field on this device's bank and raises
// its interrupt, folding the device index by DevicesPerLine for a
// transmit completion so the nucleus interrupt handler can tell the two
// halves apart (machine.TerminalWriteSemIndex's convention).
func (t *Terminal) postStatus(status uint32, field int, isTransmit bool) {
	bank := t.mach.Bank(t.Line(), t.device)
	if bank == nil {
		return
	}
	bank.Write(field, status)
	irqDevice := t.device
	if isTransmit {
		irqDevice += machine.DevicesPerLine
	}
	t.mach.RaiseDeviceInterrupt(t.Line(), irqDevice)
}

type scriptedReceiver struct {
	data []byte
	pos  int
}

func (s *scriptedReceiver) nextChar() (byte, bool) {
	if s.pos >= len(s.data) {
		return 0, false
	}
	ch := s.data[s.pos]
	s.pos++
	return ch, true
}

func (s *scriptedReceiver) close() error { return nil }

// interactiveReceiver reads one real keystroke per nextChar call,
// blocking the caller's goroutine on actual console input -- a
// genuine, not simulated, wait, same as a real terminal driver would
// impose on whichever process is reading it.
type interactiveReceiver struct {
	fd       int
	oldState *term.State
}

func newInteractiveReceiver() (*interactiveReceiver, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	if err := keyboard.Open(); err != nil {
		_ = term.Restore(fd, oldState)
		return nil, err
	}
	return &interactiveReceiver{fd: fd, oldState: oldState}, nil
}

func (r *interactiveReceiver) nextChar() (byte, bool) {
	ch, key, err := keyboard.GetSingleKey()
	if err != nil || key == keyboard.KeyCtrlC {
		return 0, false
	}
	if key == keyboard.KeyEnter {
		return '\n', true
	}
	return byte(ch), true
}

func (r *interactiveReceiver) close() error {
	keyboard.Close()
	return term.Restore(r.fd, r.oldState)
}
