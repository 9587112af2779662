// Package asl implements the Active Semaphore List: a sorted list of
// semaphore descriptors, each owning a blocked-process queue, kept
// between two address sentinels (spec.md §3 "Semaphore descriptor",
// §4.2). As with pcb, descriptors live in a fixed arena addressed by
// index rather than by pointer.
package asl

import "pandos/internal/pcb"

// descRef indexes a descriptor in the ASL's arena. The sentinel value,
// descNone, means "no descriptor".
type descRef int32

const descNone descRef = -1

type descriptor struct {
	semAdd uint32
	queue  pcb.Queue
	next   descRef
}

// sentinelLo and sentinelHi bound the sorted list; no real semaphore
// uses either address (spec.md's "two sentinels with addresses 0 and
// infinity").
const (
	sentinelLo uint32 = 0
	sentinelHi uint32 = 0xFFFFFFFF
)

// ASL is the Active Semaphore List: a singly-linked, address-sorted
// chain of descriptors plus a free list sized N_PROC+2 (§4.2 "Free-list
// sizing").
type ASL struct {
	pool *pcb.Pool

	descs   []descriptor
	headRef descRef // the lo sentinel, list threaded through .next
	freeTop descRef
}

// New builds an ASL with nProc+2 descriptors (two sentinels plus one
// per concurrently blockable process) over the given PCB pool.
func New(pool *pcb.Pool, nProc int) *ASL {
	n := nProc + 2
	a := &ASL{pool: pool, descs: make([]descriptor, n)}

	a.headRef = 0
	a.descs[0] = descriptor{semAdd: sentinelLo, next: 1, queue: *pool.MakeEmptyQueue()}
	a.descs[1] = descriptor{semAdd: sentinelHi, next: descNone, queue: *pool.MakeEmptyQueue()}

	a.freeTop = descNone
	for i := n - 1; i >= 2; i-- {
		a.descs[i].queue = *pool.MakeEmptyQueue()
		a.descs[i].next = a.freeTop
		a.freeTop = descRef(i)
	}
	return a
}

// find returns the descriptor exactly at semAdd (ok=true), or the
// descriptor immediately before where semAdd would be inserted
// (ok=false), since the list is kept strictly ascending.
func (a *ASL) find(semAdd uint32) (ref descRef, ok bool) {
	prev := a.headRef
	cur := a.descs[prev].next
	for a.descs[cur].semAdd < semAdd {
		prev = cur
		cur = a.descs[cur].next
	}
	if a.descs[cur].semAdd == semAdd {
		return cur, true
	}
	return prev, false
}
