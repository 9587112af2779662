package support

import (
	"testing"

	"pandos/internal/machine"
)

func newTestSupport(t *testing.T, asid int) (*Support, *fakeStore) {
	t.Helper()
	k := newTestKernel()
	sp := NewSwapPool(2, k)
	adl := NewADL(machine.NUProc, k)
	flash := newFakeStore(machine.LineFlash, asid)
	s := New(asid, k, sp, adl, flash, nil)
	return s, flash
}

func TestHandlePageFaultTLBModIsFatal(t *testing.T) {
	s, _ := newTestSupport(t, 1)
	st := s.ExceptionState(ExceptPage)
	st.Cause = tlbModCause << machine.ExcCodeShift
	st.EntryHI = machine.MakeEntryHI(2, 1)

	if s.HandlePageFault() {
		t.Fatal("HandlePageFault on a TLB-modification exception should return false")
	}
}

func TestHandlePageFaultLoadsPageAndInstallsValidPTE(t *testing.T) {
	s, flash := newTestSupport(t, 1)
	flash.blocks[5] = [machine.PageSize]byte{1, 2, 3}

	st := s.ExceptionState(ExceptPage)
	st.Cause = 2 << machine.ExcCodeShift // TLB-invalid, not TLB-mod
	st.EntryHI = machine.MakeEntryHI(5, 1)

	if !s.HandlePageFault() {
		t.Fatal("HandlePageFault should succeed for a TLB-invalid fault on a ready device")
	}

	pte := s.PageTable[5]
	if pte.EntryLO&machine.EntryLoValid == 0 {
		t.Fatal("page table entry should be marked valid after a successful fault")
	}
	frame := machine.Frame(pte.EntryLO)
	if s.Swap.frames[frame].data != flash.blocks[5] {
		t.Fatal("swap frame contents should match what was read from the backing store")
	}
}

func TestHandlePageFaultWritesBackDirtyVictimToPriorOwnersStore(t *testing.T) {
	k := newTestKernel()
	sp := NewSwapPool(1, k)
	adl := NewADL(machine.NUProc, k)

	victimStore := newFakeStore(machine.LineFlash, 1)
	victim := New(1, k, sp, adl, victimStore, nil)
	victimPTE := &victim.PageTable[2]
	sp.occupy(0, victim.ASID, 2, victimPTE, victimStore, [machine.PageSize]byte{9, 9, 9})
	victimPTE.EntryLO = machine.MakeEntryLO(0, true, true, false)

	faulterStore := newFakeStore(machine.LineFlash, 2)
	faulter := New(2, k, sp, adl, faulterStore, nil)
	st := faulter.ExceptionState(ExceptPage)
	st.Cause = 2 << machine.ExcCodeShift
	st.EntryHI = machine.MakeEntryHI(7, 2)

	if !faulter.HandlePageFault() {
		t.Fatal("HandlePageFault should succeed")
	}

	got, ok := victimStore.blocks[2]
	if !ok {
		t.Fatal("victim's own backing store should have received the write-back")
	}
	if got != ([machine.PageSize]byte{9, 9, 9}) {
		t.Fatalf("written-back block = %v, want the victim frame's prior contents", got[:3])
	}
	if faulterStore.transfers == 0 {
		t.Fatal("faulter's own store should have been read from to service its fault")
	}
	if victimPTE.EntryLO&machine.EntryLoValid != 0 {
		t.Fatal("evicted PTE should be marked invalid")
	}
}

func TestReconcileTLBRewritesOnHitAndLeavesMissAlone(t *testing.T) {
	s, _ := newTestSupport(t, 1)
	tlb := s.Kernel.Mach.TLB()

	hitPTE := machine.PTE{EntryHI: machine.MakeEntryHI(3, 1), EntryLO: 0}
	tlb.Write(0, hitPTE)

	updated := machine.PTE{EntryHI: hitPTE.EntryHI, EntryLO: machine.MakeEntryLO(4, true, true, false)}
	s.reconcileTLB(updated)

	got := tlb.Read(0)
	if got.EntryLO != updated.EntryLO {
		t.Fatalf("TLB entry after reconcile = %#x, want %#x (rewritten on hit)", got.EntryLO, updated.EntryLO)
	}

	missPTE := machine.PTE{EntryHI: machine.MakeEntryHI(9, 1), EntryLO: machine.MakeEntryLO(1, true, true, false)}
	s.reconcileTLB(missPTE)
	if _, ok := tlb.Probe(missPTE.EntryHI); ok {
		t.Fatal("reconcileTLB should not install an entry for a miss")
	}
}
