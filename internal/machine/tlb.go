package machine

// PTE is a page table entry: two machine words, an entry-hi carrying the
// virtual page number and ASID, and an entry-lo carrying the physical
// frame number plus the valid/dirty/global bits (§3 "Page table entry").
type PTE struct {
	EntryHI uint32
	EntryLO uint32
}

// VPN extracts the virtual page number from an entry-hi word.
func VPN(entryHI uint32) uint32 { return entryHI >> FrameShift }

// ASID extracts the address-space id from an entry-hi word.
func ASID(entryHI uint32) uint32 { return entryHI & 0xFF }

// MakeEntryHI packs a VPN and ASID into an entry-hi word.
func MakeEntryHI(vpn, asid uint32) uint32 {
	return (vpn << FrameShift) | (asid & 0xFF)
}

// Frame extracts the physical frame number from an entry-lo word.
func Frame(entryLO uint32) uint32 { return entryLO >> FrameShift }

// MakeEntryLO packs a frame number and flag bits into an entry-lo word.
func MakeEntryLO(frame uint32, valid, dirty, global bool) uint32 {
	v := frame << FrameShift
	if valid {
		v |= EntryLoValid
	}
	if dirty {
		v |= EntryLoDirty
	}
	if global {
		v |= EntryLoGlobal
	}
	return v
}

// TLB is a small content-addressable cache of PTEs, modeling the MIPS
// TLB maintenance instructions (probe/read/write) the support-level
// pager drives through its reconcileTLB (§4.8.2). Unlike a real MIPS TLB it holds
// one page per entry -- Pandos page tables never use the even/odd
// pairing a full ISA model would need.
type TLB struct {
	entries []PTE
}

// NewTLB creates a TLB with the given number of entries.
func NewTLB(size int) *TLB {
	return &TLB{entries: make([]PTE, size)}
}

// Probe returns the index of the entry matching entryHI's (VPN, ASID),
// and whether one was found. A global entry matches any ASID.
func (t *TLB) Probe(entryHI uint32) (int, bool) {
	vpn := VPN(entryHI)
	asid := ASID(entryHI)
	for i, e := range t.entries {
		if VPN(e.EntryHI) != vpn {
			continue
		}
		if e.EntryLO&EntryLoGlobal != 0 || ASID(e.EntryHI) == asid {
			return i, true
		}
	}
	return 0, false
}

// Read returns the PTE stored at index.
func (t *TLB) Read(index int) PTE { return t.entries[index] }

// Write installs a PTE at the given index, the TLBWI-equivalent used by
// the pager once it knows which slot (if any) already held the page.
func (t *TLB) Write(index int, p PTE) { t.entries[index] = p }

// Clear resets every entry to invalid.
func (t *TLB) Clear() {
	for i := range t.entries {
		t.entries[i] = PTE{}
	}
}

// Len reports the number of TLB entries.
func (t *TLB) Len() int { return len(t.entries) }
