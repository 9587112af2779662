package devsim

import (
	"io"

	"pandos/internal/machine"
)

// Printer is a write-only device: SYS11 drives it one character at a
// time, passing the bare character as Transfer's block argument and
// CmdTransmitChar as op.
type Printer struct {
	mach   machine.Machine
	device int
	w      io.Writer
}

// NewPrinter builds a Printer device index device, backed by w (os.Stdout
// in cmd/pandos, a bytes.Buffer in tests).
func NewPrinter(mach machine.Machine, device int, w io.Writer) *Printer {
	return &Printer{mach: mach, device: device, w: w}
}

func (p *Printer) Line() int   { return machine.LinePrint }
func (p *Printer) Device() int { return p.device }

func (p *Printer) Transfer(op int, block int, _ *[machine.PageSize]byte) uint32 {
	status := uint32(machine.StatusCharTransmitted)
	if op != machine.CmdTransmitChar {
		status = machine.DevBusy
	} else if _, err := p.w.Write([]byte{byte(block)}); err != nil {
		status = machine.DevBusy
	}
	p.postStatus(status)
	return status
}

func (p *Printer) postStatus(status uint32) {
	bank := p.mach.Bank(p.Line(), p.device)
	if bank == nil {
		return
	}
	bank.Write(machine.FieldStatus, status)
	p.mach.RaiseDeviceInterrupt(p.Line(), p.device)
}
