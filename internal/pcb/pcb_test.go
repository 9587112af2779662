package pcb

import "testing"

func TestAllocateExhaustsPool(t *testing.T) {
	p := NewPool(3)
	var refs []Ref
	for i := 0; i < 3; i++ {
		r := p.Allocate()
		if r == None {
			t.Fatalf("allocation %d failed before pool exhausted", i)
		}
		refs = append(refs, r)
	}
	if r := p.Allocate(); r != None {
		t.Errorf("expected None after pool exhausted, got %d", r)
	}
	p.Free(refs[0])
	if r := p.Allocate(); r == None {
		t.Errorf("expected a free PCB to be reusable")
	}
}

func TestQueueFIFO(t *testing.T) {
	p := NewPool(4)
	q := p.MakeEmptyQueue()
	a, b, c := p.Allocate(), p.Allocate(), p.Allocate()
	p.InsertTail(q, a)
	p.InsertTail(q, b)
	p.InsertTail(q, c)

	if got := p.RemoveHead(q); got != a {
		t.Errorf("expected %d, got %d", a, got)
	}
	if got := p.RemoveHead(q); got != b {
		t.Errorf("expected %d, got %d", b, got)
	}
	if got := p.RemoveHead(q); got != c {
		t.Errorf("expected %d, got %d", c, got)
	}
	if !q.IsEmpty() {
		t.Errorf("expected queue empty after draining")
	}
}

func TestRemoveSpecificMiddle(t *testing.T) {
	p := NewPool(4)
	q := p.MakeEmptyQueue()
	a, b, c := p.Allocate(), p.Allocate(), p.Allocate()
	p.InsertTail(q, a)
	p.InsertTail(q, b)
	p.InsertTail(q, c)

	if got := p.RemoveSpecific(q, b); got != b {
		t.Fatalf("expected to remove %d, got %d", b, got)
	}
	if got := p.RemoveHead(q); got != a {
		t.Errorf("expected %d, got %d", a, got)
	}
	if got := p.RemoveHead(q); got != c {
		t.Errorf("expected %d, got %d", c, got)
	}
}

func TestRemoveSpecificNotPresent(t *testing.T) {
	p := NewPool(4)
	q := p.MakeEmptyQueue()
	a, b := p.Allocate(), p.Allocate()
	p.InsertTail(q, a)
	if got := p.RemoveSpecific(q, b); got != None {
		t.Errorf("expected None removing absent PCB, got %d", got)
	}
}

func TestTreeParentChildSiblings(t *testing.T) {
	p := NewPool(4)
	parent := p.Allocate()
	c1, c2 := p.Allocate(), p.Allocate()

	p.InsertChild(parent, c1)
	p.InsertChild(parent, c2)

	if !p.HasChildren(parent) {
		t.Fatalf("expected parent to have children")
	}
	if p.Parent(c1) != parent || p.Parent(c2) != parent {
		t.Errorf("child parent link broken")
	}

	var seen []Ref
	p.Children(parent, func(r Ref) { seen = append(seen, r) })
	if len(seen) != 2 {
		t.Errorf("expected 2 children, got %d", len(seen))
	}

	p.Detach(c1)
	if p.Parent(c1) != None {
		t.Errorf("expected detached child to have no parent")
	}
	if !p.HasChildren(parent) {
		t.Errorf("expected parent to still have c2")
	}

	got := p.RemoveFirstChild(parent)
	if got != c2 {
		t.Errorf("expected remaining child %d, got %d", c2, got)
	}
	if p.HasChildren(parent) {
		t.Errorf("expected parent to have no children left")
	}
}
