// Package pcb implements the process control block pool and the
// process queues and tree built on top of it (spec.md §3 "Process
// descriptor", §4.1). PCBs live in a fixed arena addressed by index
// rather than by pointer, per the Design Notes' "pointer-based
// intrusive queues and trees" strategy: a Ref is a bounds-checked
// index, and the sentinel None means "no PCB".
package pcb

import "pandos/internal/machine"

// Ref indexes a Block in a Pool's arena. The sentinel value, None,
// means "no PCB".
type Ref int32

// None is the sentinel Ref meaning "no process".
const None Ref = -1

// Block is one process control block: the saved state, accounting,
// blocking information, and the queue/tree links that thread it
// through the ready queue, an ASL queue, and the process tree.
type Block struct {
	inUse bool

	State machine.State
	Time  int64 // accumulated CPU time, microseconds

	SemAdd   uint32 // semaphore this PCB is blocked on; valid iff Blocked
	Blocked  bool

	next, prev Ref // queue links
	parent     Ref
	child      Ref // first child
	sibNext    Ref
	sibPrev    Ref

	// SupportHandle identifies this process's support structure in the
	// owning Kernel's handle table (0 means none). A handle rather than
	// a direct pointer/interface value because a real SYS8
	// GetSupportData call returns it through the v0 register, which can
	// only carry a machine word -- mirroring the original's
	// `void *p_supportStruct` with a uint32 identity instead of a Go
	// pointer.
	SupportHandle uint32
}

// Queue is a tail-pointer to a circular doubly-linked list of PCBs.
// An empty queue is represented by tail == None.
type Queue struct {
	tail Ref
}

// Pool is the fixed-size arena of PCBs plus a free list threaded
// through the same Block.next links.
type Pool struct {
	blocks  []Block
	freeTop Ref
}

// NewPool allocates a pool of n PCBs, all initially free.
func NewPool(n int) *Pool {
	p := &Pool{blocks: make([]Block, n)}
	p.freeTop = None
	for i := n - 1; i >= 0; i-- {
		p.blocks[i].next = p.freeTop
		p.freeTop = Ref(i)
	}
	return p
}

// At returns a pointer to the Block for ref. Callers never hold onto
// this across an Allocate/Free of a different ref; Go doesn't move
// slice elements so the pointer stays valid for the PCB's lifetime.
func (p *Pool) At(ref Ref) *Block {
	if ref == None {
		return nil
	}
	return &p.blocks[ref]
}

// Allocate removes a PCB from the free list, zeroes it, and returns its
// Ref, or None if the pool is exhausted.
func (p *Pool) Allocate() Ref {
	if p.freeTop == None {
		return None
	}
	ref := p.freeTop
	b := &p.blocks[ref]
	p.freeTop = b.next
	*b = Block{}
	b.inUse = true
	b.next, b.prev = None, None
	b.parent, b.child, b.sibNext, b.sibPrev = None, None, None, None
	return ref
}

// Free returns ref to the free list. The caller must have already
// removed it from every queue and from the process tree.
func (p *Pool) Free(ref Ref) {
	b := &p.blocks[ref]
	b.inUse = false
	b.next = p.freeTop
	p.freeTop = ref
}

// InUse reports whether ref currently denotes a live PCB.
func (p *Pool) InUse(ref Ref) bool {
	return ref != None && p.blocks[ref].inUse
}
