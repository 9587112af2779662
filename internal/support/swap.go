package support

import (
	"pandos/internal/machine"
	"pandos/internal/nucleus"
)

// freeASID marks a swap-pool frame as unoccupied (spec.md §3 "Swap
// pool": "each slot records the occupying ASID (or 'free')").
const freeASID = -1

// frame is one swap-pool slot: the occupying process and virtual page,
// plus a back-pointer to the page table entry it is realizing, so the
// pager can invalidate the previous owner's mapping on eviction.
type frame struct {
	asid  int
	vpn   uint32
	pte   *machine.PTE
	store BackingStore // the occupying U-Proc's own flash device, for write-back
	data  [machine.PageSize]byte
}

// SwapPool is the fixed array of physical frames the pager allocates
// from, guarded by a single mutex semaphore (spec.md §3, §4.8).
//
// The mutex is kept in the kernel's ordinary semaphore space rather than
// as a Go sync.Mutex: every support-level handler in this package runs
// as a single synchronous call chain on behalf of whichever U-Proc the
// nucleus currently has dispatched (this simulation never runs two
// U-Procs' support-level code concurrently), so acquireMutex/
// releaseMutex exist for bookkeeping and test assertions (spec.md §8
// scenario 5) rather than to arbitrate real contention.
type SwapPool struct {
	frames []frame
	hand   int

	kernel    *nucleus.Kernel
	mutexAddr uint32
}

// NewSwapPool builds a swap pool of nFrames frames, all initially free,
// and initializes its mutex semaphore to 1.
func NewSwapPool(nFrames int, k *nucleus.Kernel) *SwapPool {
	sp := &SwapPool{frames: make([]frame, nFrames), kernel: k, mutexAddr: swapPoolMutexAddr}
	for i := range sp.frames {
		sp.frames[i].asid = freeASID
	}
	k.SetSemValue(sp.mutexAddr, 1)
	return sp
}

func (sp *SwapPool) acquire() { acquireMutex(sp.kernel, sp.mutexAddr) }
func (sp *SwapPool) release() { releaseMutex(sp.kernel, sp.mutexAddr) }

// pick selects a victim frame index per §4.8.1: scan from the
// persistent hand for a free slot; if none is free, evict the slot at
// hand. Either way the hand moves to one past the chosen slot, modulo
// the pool size.
func (sp *SwapPool) pick() int {
	n := len(sp.frames)
	for i := 0; i < n; i++ {
		idx := (sp.hand + i) % n
		if sp.frames[idx].asid == freeASID {
			sp.hand = (idx + 1) % n
			return idx
		}
	}
	idx := sp.hand
	sp.hand = (sp.hand + 1) % n
	return idx
}

// occupy records a new owner and page contents for frame idx, returning
// the frame's prior occupant (asid == freeASID if it was unoccupied).
func (sp *SwapPool) occupy(idx, asid int, vpn uint32, pte *machine.PTE, store BackingStore, data [machine.PageSize]byte) frame {
	prev := sp.frames[idx]
	sp.frames[idx] = frame{asid: asid, vpn: vpn, pte: pte, store: store, data: data}
	return prev
}
