package support

import "pandos/internal/machine"

// tlbModCause is the TLB-modification exception code: a write to a page
// that is either invalid or not marked dirty. The pager treats it as
// fatal rather than as a fault to service (§4.8 step 2).
const tlbModCause = 1

// HandlePageFault implements §4.8's page-fault sequence. It is called
// directly -- rather than resumed into via a saved PC -- once
// nucleus.PassUpOrDie has saved the faulting state into this Support's
// ExceptPage slot; see the package doc comment for why.
//
// It returns false if the fault was fatal to the U-Proc (a TLB-
// modification exception, or a non-ready backing-store status), in
// which case the caller must terminate the U-Proc (SYS9) rather than
// resume it.
func (s *Support) HandlePageFault() bool {
	st := s.ExceptionState(ExceptPage)
	if st.ExceptionCode() == tlbModCause {
		return false
	}

	s.Swap.acquire()

	vpn := machine.VPN(st.EntryHI) % machine.NPages
	victim := s.Swap.pick()
	prev := s.Swap.frames[victim]

	if prev.asid != freeASID && prev.pte != nil {
		prev.pte.EntryLO &^= machine.EntryLoValid
		s.reconcileTLB(*prev.pte)
		if !writeBack(s, prev) {
			s.Swap.release()
			return false
		}
	}

	var page [machine.PageSize]byte
	if !s.readIn(int(vpn), &page) {
		s.Swap.release()
		return false
	}

	pte := &s.PageTable[vpn]
	s.Swap.occupy(victim, s.ASID, vpn, pte, s.Flash, page)

	pte.EntryLO = machine.MakeEntryLO(uint32(victim), true, true, false)
	s.reconcileTLB(*pte)

	s.Swap.release()
	return true
}

// reconcileTLB implements §4.8.2: probe for pte's entry-hi, and rewrite
// the hit entry's entry-lo in place. A miss is left alone -- the
// hardware refill will fetch the updated PTE on next access -- rather
// than forcing a full TLBCLR, per SPEC_FULL.md's pinned choice of the
// targeted-update variant.
func (s *Support) reconcileTLB(pte machine.PTE) {
	tlb := s.Kernel.Mach.TLB()
	if idx, ok := tlb.Probe(pte.EntryHI); ok {
		tlb.Write(idx, pte)
	}
}

// writeBack evicts a victim frame's contents back to its prior owner's
// own backing store at block prev.vpn, via the flash codec. Returns
// false (fatal) if the device did not report "ready".
func writeBack(s *Support, prev frame) bool {
	data := prev.data
	status := s.doDeviceTransfer(prev.store, machine.FlashOpWrite, int(prev.vpn), &data)
	return status == machine.DevReady
}

// readIn reads page block into buf from this Support's own backing
// store. Returns false (fatal) if the device did not report "ready".
func (s *Support) readIn(block int, buf *[machine.PageSize]byte) bool {
	status := s.doDeviceTransfer(s.Flash, machine.FlashOpRead, block, buf)
	return status == machine.DevReady
}
