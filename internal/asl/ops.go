package asl

import "pandos/internal/pcb"

// Block inserts the PCB at ref onto the blocked-process queue for
// semAdd, creating a new descriptor if none exists yet for that
// address. It returns full=true only when a new descriptor is needed
// but the free list is exhausted (§4.2 "block").
func (a *ASL) Block(semAdd uint32, ref pcb.Ref) (full bool) {
	found, ok := a.find(semAdd)
	var target descRef
	if ok {
		target = found // find returned the exact match in this branch
	} else {
		prev := found
		if a.freeTop == descNone {
			return true
		}
		target = a.freeTop
		a.freeTop = a.descs[target].next

		d := &a.descs[target]
		d.semAdd = semAdd
		d.queue = *a.pool.MakeEmptyQueue()

		afterPrev := a.descs[prev].next
		d.next = afterPrev
		a.descs[prev].next = target
	}

	d := &a.descs[target]
	a.pool.InsertTail(&d.queue, ref)
	a.pool.At(ref).SemAdd = semAdd
	a.pool.At(ref).Blocked = true
	return false
}

// find must return the exact descriptor ref on a hit; ops.go's Block
// relies on that, so redeclare the hit case explicitly here to avoid a
// confusing shared return value with the "insert after" case.
func (a *ASL) findExact(semAdd uint32) (descRef, bool) {
	ref, ok := a.find(semAdd)
	if ok {
		return ref, true
	}
	return descNone, false
}

// UnblockOne removes and returns the head of semAdd's blocked queue, or
// pcb.None if no descriptor exists for semAdd or its queue is empty.
// The descriptor is recycled once its queue becomes empty.
func (a *ASL) UnblockOne(semAdd uint32) pcb.Ref {
	target, ok := a.findExact(semAdd)
	if !ok {
		return pcb.None
	}
	d := &a.descs[target]
	head := a.pool.RemoveHead(&d.queue)
	if head == pcb.None {
		return pcb.None
	}
	a.pool.At(head).Blocked = false
	a.pool.At(head).SemAdd = 0
	if d.queue.IsEmpty() {
		a.recycle(target)
	}
	return head
}

// RemoveSpecificBlocked removes ref from the queue of the semaphore it
// is recorded as blocked on (PCB.SemAdd), recycling the descriptor if
// that empties its queue. Used by SYS2 to tear down blocked children.
func (a *ASL) RemoveSpecificBlocked(ref pcb.Ref) pcb.Ref {
	b := a.pool.At(ref)
	if !b.Blocked {
		return pcb.None
	}
	target, ok := a.findExact(b.SemAdd)
	if !ok {
		return pcb.None
	}
	d := &a.descs[target]
	got := a.pool.RemoveSpecific(&d.queue, ref)
	if got == pcb.None {
		return pcb.None
	}
	b.Blocked = false
	b.SemAdd = 0
	if d.queue.IsEmpty() {
		a.recycle(target)
	}
	return got
}

// PeekBlocked returns the head of semAdd's blocked queue without
// removing it, or pcb.None.
func (a *ASL) PeekBlocked(semAdd uint32) pcb.Ref {
	target, ok := a.findExact(semAdd)
	if !ok {
		return pcb.None
	}
	return a.pool.Head(&a.descs[target].queue)
}

// recycle unlinks the descriptor at ref (whose queue must be empty) and
// returns it to the free list.
func (a *ASL) recycle(ref descRef) {
	prev := a.headRef
	for a.descs[prev].next != ref {
		prev = a.descs[prev].next
	}
	a.descs[prev].next = a.descs[ref].next
	a.descs[ref].next = a.freeTop
	a.freeTop = ref
}
