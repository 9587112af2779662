// Command pandos boots the kernel: it wires a machine.Sim to an
// internal/nucleus.Kernel, builds the support structures and devsim
// backends for a configurable number of U-Procs, and drives the boot
// sequence of spec.md §6 end to end (initialize the PCB pool/ASL, load
// the interval timer, create the instantiator, enter the scheduler; the
// instantiator initializes the swap pool, the ADL, the delay daemon, and
// spawns the U-Procs). No pass-up vector is installed: exceptions reach
// the support level through nucleus.PassUpOrDie and direct calls.
//
// Because internal/machine deliberately has no instruction-fetch
// machinery (spec.md's "excluded as external collaborators"), there is
// no hosted user program for a U-Proc to execute. Each U-Proc's
// "program" here is a short, fixed demo sequence of direct support-level
// calls -- the same convention internal/nucleus and internal/support's
// own test suites use -- run by this binary's dispatch loop whenever
// the scheduler hands that U-Proc the CPU.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"pandos/internal/devsim"
	"pandos/internal/machine"
	"pandos/internal/nucleus"
	"pandos/internal/pcb"
	"pandos/internal/support"
)

func main() {
	verbose := flag.Bool("v", false, "enable verbose logging")
	memoryFlag := flag.Uint64("memory", 1<<20, "backing-store memory size in bytes (max 4294967295)")
	uprocs := flag.Int("uprocs", machine.NUProc, "number of U-Procs to instantiate")
	interactive := flag.Bool("interactive", false, "read U-Proc 0's terminal from the real keyboard instead of a scripted transcript")
	flag.Parse()

	if *memoryFlag > uint64(math.MaxUint32) {
		log.Fatalf("memory size %d exceeds max uint32 %d", *memoryFlag, math.MaxUint32)
	}
	if *uprocs < 0 || *uprocs > machine.NUProc {
		log.Fatalf("-uprocs %d out of range [0, %d]", *uprocs, machine.NUProc)
	}

	printIfVerbose(*verbose, "Starting pandos...")

	blocksPerDevice := int(*memoryFlag/machine.PageSize) + 1

	mach := machine.NewSim(16)
	k := nucleus.New(mach, machine.NProc)

	printIfVerbose(*verbose, "Loading interval timer...")
	mach.SetIntervalTimer(machine.IntervalTimeUS)
	mach.EnableInterrupts()

	instRef := bootInstantiator(k)
	printIfVerbose(*verbose, "Instantiator PCB created (ref=%d), entering scheduler...", instRef)
	k.Schedule()

	d := &driver{
		k:           k,
		mach:        mach,
		instRef:     instRef,
		verbose:     *verbose,
		interactive: *interactive,
		blocks:      blocksPerDevice,
	}
	d.spawnUProcs(*uprocs)

	stop := make(chan struct{})
	tickerDone := make(chan struct{})
	go runDelayDaemonTicker(mach, d.adl, stop, tickerDone)

	for !mach.Halted() {
		d.step()
	}
	close(stop)
	<-tickerDone
	for _, e := range d.order {
		if err := e.term.Close(); err != nil {
			printIfVerbose(*verbose, "uproc %d: terminal close: %v", e.asid, err)
		}
	}

	if reason := mach.PanicReason(); reason != "" {
		log.Fatalf("kernel panicked: %s", reason)
	}
	printIfVerbose(*verbose, "Kernel halted cleanly.")
}

// printIfVerbose prints a formatted message if verbose is true.
func printIfVerbose(verbose bool, format string, v ...interface{}) {
	if verbose {
		log.Printf(format, v...)
	}
}

// bootInstantiator allocates the instantiator PCB directly (it has no
// parent, so it is never created through SYS1) and readies it, per
// spec.md §6's boot sequence.
func bootInstantiator(k *nucleus.Kernel) pcb.Ref {
	ref := k.Pool.Allocate()
	if ref == pcb.None {
		log.Fatal("could not allocate instantiator PCB: pool exhausted")
	}
	b := k.Pool.At(ref)
	b.State.Status = machine.StatusIEc | machine.StatusIEp | machine.StatusTE
	k.Pool.InsertTail(&k.Ready, ref)
	k.ProcessCount++
	return ref
}

// uprocEntry pairs a spawned U-Proc's PCB ref with its support
// structure and demo-facing devices.
type uprocEntry struct {
	ref     pcb.Ref
	sup     *support.Support
	printer support.BackingStore
	term    *devsim.Terminal
	asid    int
}

// driver holds the state cmd/pandos's dispatch loop needs across
// d.step() calls: which U-Proc owns the currently dispatched PCB, and
// how many master-semaphore joins the instantiator still owes.
type driver struct {
	k    *nucleus.Kernel
	mach *machine.Sim

	instRef     pcb.Ref
	verbose     bool
	interactive bool
	blocks      int

	swap *support.SwapPool
	adl  *support.ADL
	disk *devsim.Disk

	byRef          map[pcb.Ref]*uprocEntry
	order          []*uprocEntry
	remainingJoins int
}

// spawnUProcs runs the instantiator's own half of the boot sequence:
// build the swap pool, ADL, and shared disk, then create n U-Procs via
// the real SYS1 path, each wired to its own flash device, printer, and
// terminal.
func (d *driver) spawnUProcs(n int) {
	d.swap = support.NewSwapPool(machine.NFrames, d.k)
	d.adl = support.NewADL(machine.NUProc, d.k)
	d.disk = devsim.NewDisk(d.mach, 0, d.blocks)
	d.byRef = make(map[pcb.Ref]*uprocEntry, n)

	for i := 0; i < n; i++ {
		asid := i + 1
		flash := devsim.NewFlash(d.mach, i, machine.NPages)
		printer := devsim.NewPrinter(d.mach, i, os.Stdout)

		var term *devsim.Terminal
		if d.interactive && i == 0 {
			it, err := devsim.NewInteractiveTerminal(d.mach, i, os.Stdout)
			if err != nil {
				log.Fatalf("interactive terminal unavailable: %v", err)
			}
			term = it
		} else {
			script := []byte(fmt.Sprintf("hello from uproc %d\n", asid))
			term = devsim.NewScriptedTerminal(d.mach, i, os.Stdout, script)
		}

		sup := support.New(asid, d.k, d.swap, d.adl, flash, d.disk)
		sup.SetContext(support.ExceptPage, machine.Context{Status: machine.StatusKUc})
		sup.SetContext(support.ExceptGeneral, machine.Context{Status: machine.StatusKUc})
		handle := d.k.RegisterSupport(sup)

		var initState machine.State
		initState.Status = machine.StatusIEc | machine.StatusIEp | machine.StatusKUc | machine.StatusKUp
		stateHandle := d.k.RegisterState(&initState)

		var call machine.State
		call.Reg[machine.RegA1] = stateHandle
		call.Reg[machine.RegA2] = handle
		d.k.SysCreateProcess(&call)
		if int32(call.Reg[machine.RegV0]) < 0 {
			log.Fatalf("failed to create U-Proc %d: PCB pool exhausted", asid)
		}

		createdRef := d.k.Pool.Tail(&d.k.Ready)
		entry := &uprocEntry{ref: createdRef, sup: sup, printer: printer, term: term, asid: asid}
		d.byRef[createdRef] = entry
		d.order = append(d.order, entry)

		printIfVerbose(d.verbose, "Spawned U-Proc asid=%d ref=%d", asid, createdRef)
	}

	d.k.Pool.InsertTail(&d.k.Ready, d.instRef)
	d.k.Current = pcb.None
	d.remainingJoins = len(d.order)
}

// step runs one unit of work for whichever PCB the scheduler most
// recently dispatched into k.Current: either the instantiator's join
// logic, or the dispatched U-Proc's fixed demo program.
func (d *driver) step() {
	// Only pick a new process when nothing is currently dispatched --
	// SysTerminateProcess/SysPasseren already call Schedule themselves
	// whenever the previous step's work left Current empty, and that
	// choice of Current must be respected rather than immediately
	// overridden by another RemoveHead here.
	if d.k.Current == pcb.None {
		d.k.Schedule()
	}
	if d.mach.Halted() {
		return
	}
	ref := d.k.Current
	switch {
	case ref == d.instRef:
		d.joinOne()
	default:
		entry, ok := d.byRef[ref]
		if !ok {
			d.mach.Panic("dispatch loop: unrecognized PCB ref %d", ref)
			return
		}
		runUProcDemo(d, entry)
	}
}

// joinOne implements the instantiator's join loop: P the master
// semaphore once per outstanding U-Proc, then terminate itself once all
// have reported in.
func (d *driver) joinOne() {
	if d.remainingJoins == 0 {
		d.k.SysTerminateProcess()
		return
	}
	d.remainingJoins--
	// Seed the call from the instantiator's own saved state rather than a
	// bare zero value: if this P blocks, SysPasseren overwrites the PCB's
	// saved State with whatever was passed in, and that save must carry
	// the instantiator's real Status/PC, not a disposable stand-in.
	st := d.k.Pool.At(d.instRef).State
	st.Reg[machine.RegA1] = support.MasterSemAddr()
	d.k.SysPasseren(&st)
}

// runUProcDemo exercises one U-Proc's fixed demo sequence: report the
// time of day, round-trip a terminal write/read, force a page fault
// through the pager, round-trip a flash block, delay briefly, and
// terminate.
func runUProcDemo(d *driver, e *uprocEntry) {
	printIfVerbose(d.verbose, "uproc %d: TOD=%d", e.asid, e.sup.GetTOD())

	msg := []byte(fmt.Sprintf("hello from uproc %d\n", e.asid))
	if n := e.sup.WriteToTerminal(e.term, msg); n < 0 {
		printIfVerbose(d.verbose, "uproc %d: terminal write failed, status %d", e.asid, -n)
	}

	var in [1]byte
	if n := e.sup.ReadFromTerminal(e.term, in[:]); n > 0 {
		printIfVerbose(d.verbose, "uproc %d: read %q from terminal", e.asid, in[:n])
	}

	printMsg := []byte(fmt.Sprintf("uproc %d printing\n", e.asid))
	if n := e.sup.WriteToPrinter(e.printer, printMsg); n < 0 {
		printIfVerbose(d.verbose, "uproc %d: printer write failed, status %d", e.asid, -n)
	}

	st := e.sup.ExceptionState(support.ExceptPage)
	st.Cause = 2 << machine.ExcCodeShift // TLB-invalid, not TLB-modification
	st.EntryHI = machine.MakeEntryHI(uint32(e.asid%machine.NPages), uint32(e.asid))
	if !e.sup.HandlePageFault() {
		printIfVerbose(d.verbose, "uproc %d: page fault handling failed", e.asid)
	}

	var page [machine.PageSize]byte
	copy(page[:], []byte("swap pool round trip"))
	if res := e.sup.FlashPut(0, page); res < 0 {
		printIfVerbose(d.verbose, "uproc %d: flash put failed, status %d", e.asid, -res)
	}
	if _, res := e.sup.FlashGet(0); res < 0 {
		printIfVerbose(d.verbose, "uproc %d: flash get failed, status %d", e.asid, -res)
	}

	done := make(chan struct{})
	go func() {
		e.sup.Delay(20)
		close(done)
	}()
	<-done

	printIfVerbose(d.verbose, "uproc %d: terminating", e.asid)
	e.sup.TerminateUProc()
}

// runDelayDaemonTicker is the delay daemon's process: once per
// pseudo-clock period it advances the simulated clock and sweeps the
// ADL, waking any U-Proc whose SYS18 Delay has come due. It runs on its
// own goroutine because an in-flight Delay call blocks the goroutine
// that issued it (see internal/support's package doc comment), so
// something else must be free to advance time concurrently.
func runDelayDaemonTicker(mach *machine.Sim, adl *support.ADL, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			mach.Advance(machine.IntervalTimeUS)
			adl.RunDelayDaemon(mach.Now())
		}
	}
}
