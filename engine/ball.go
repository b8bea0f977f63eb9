package engine

import "github.com/prolog-wam/engine/term"

// Ball is the thrown-term stub: throw/1 copies its
// argument into a region disjoint from the main heap so an unwind that
// truncates the heap cannot erase it.
type Ball struct {
	Heap *Heap
	Root term.Cell
}

func (m *Machine) makeBall(goal term.Cell) *Ball {
	h := NewHeap(32)
	root := copyTerm(m.Heap, h, goal)
	return &Ball{Heap: h, Root: root}
}

// materialize copies the ball back onto the live heap so it can be
// unified with a Catcher pattern.
func (m *Machine) materializeBall(b *Ball) term.Cell {
	return copyTerm(b.Heap, m.Heap, b.Root)
}
