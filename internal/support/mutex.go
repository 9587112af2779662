package support

import "pandos/internal/nucleus"

// acquireMutex and releaseMutex implement P/V on a support-level-private
// mutex semaphore (swap pool, ADL, per-device). See SwapPool's doc
// comment for why these never actually block: this simulation drives
// one U-Proc's support-level call chain to completion before starting
// another's, so a mutex already at 1 is never contended in practice.
func acquireMutex(k *nucleus.Kernel, addr uint32) {
	k.SetSemValue(addr, k.SemValue(addr)-1)
}

func releaseMutex(k *nucleus.Kernel, addr uint32) {
	k.SetSemValue(addr, k.SemValue(addr)+1)
}
