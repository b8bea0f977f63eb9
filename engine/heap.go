package engine

import "github.com/prolog-wam/engine/term"

// Heap is the append-only, bump-allocated cell store.
// Deallocation happens only by truncation on backtrack.
type Heap struct {
	Cells   []term.Cell
	Numbers []term.Number       // side pool for TagNum cells
	Strings []PartialStringData // side pool for TagPartialString cells

	// Floor marks the end of the permanent region written by
	// CodeRepo.Load (compiled constant/structure templates materialized
	// once at load time — functor headers, boxed numeric literals).
	// No query's choice point ever truncates below Floor; Load bumps it
	// after each unit so later loads stay permanent too.
	Floor uint64
}

// PartialStringData backs a TagPartialString cell:
// a literal prefix plus an open tail variable, consulted by unify/
// get_list/put_list as if fully unrolled into cons cells.
type PartialStringData struct {
	Prefix string
	Tail   term.Cell // typically a TagRef
}

func NewHeap(capacityHint int) *Heap {
	return &Heap{Cells: make([]term.Cell, 0, capacityHint)}
}

// Mark snapshots the three append-only pools so a choice point can
// restore them bit-for-bit on backtrack.
type Mark struct {
	Cells, Numbers, Strings uint64
}

func (h *Heap) Mark() Mark {
	return Mark{uint64(len(h.Cells)), uint64(len(h.Numbers)), uint64(len(h.Strings))}
}

func (h *Heap) TruncateTo(m Mark) {
	h.Cells = h.Cells[:m.Cells]
	h.Numbers = h.Numbers[:m.Numbers]
	h.Strings = h.Strings[:m.Strings]
}

func (h *Heap) Top() uint64 { return uint64(len(h.Cells)) }

// Push appends a cell and returns its heap address.
func (h *Heap) Push(c term.Cell) uint64 {
	addr := uint64(len(h.Cells))
	h.Cells = append(h.Cells, c)
	return addr
}

// PushNewVar allocates a fresh unbound variable: a self-referential
// TagRef cell.
func (h *Heap) PushNewVar() term.Cell {
	addr := uint64(len(h.Cells))
	c := term.RefCell(addr)
	h.Cells = append(h.Cells, c)
	return c
}

func (h *Heap) PushNumber(n term.Number) term.Cell {
	idx := uint64(len(h.Numbers))
	h.Numbers = append(h.Numbers, n)
	return term.NumCell(idx)
}

func (h *Heap) PushPartialString(prefix string, tail term.Cell) term.Cell {
	idx := uint64(len(h.Strings))
	h.Strings = append(h.Strings, PartialStringData{Prefix: prefix, Tail: tail})
	return term.PartialStrCell(idx)
}

func (h *Heap) At(addr uint64) term.Cell { return h.Cells[addr] }

func (h *Heap) Set(addr uint64, c term.Cell) { h.Cells[addr] = c }

func (h *Heap) Number(c term.Cell) term.Number { return h.Numbers[c.A] }

func (h *Heap) PartialString(c term.Cell) PartialStringData { return h.Strings[c.A] }

// Deref follows Ref/AttrVar chains to their representative cell
//. Path compression is deliberately not performed — it
// would rewrite cells that trailing depends on seeing in their
// original, pre-compression form (amortized O(1) with standard path
// compression disallowed; it would break trailing).
func (h *Heap) Deref(c term.Cell) term.Cell {
	for c.Tag == term.TagRef || c.Tag == term.TagAttrVar {
		next := h.Cells[c.A]
		if next.Equal(c) {
			return c
		}
		c = next
	}
	return c
}

// IsUnboundRef reports whether c (already dereferenced) is an unbound
// variable cell, attributed or not.
func IsUnboundRef(c term.Cell) bool {
	return c.Tag == term.TagRef || c.Tag == term.TagAttrVar
}

// decompose returns (head, tail) for any of the three list-shaped
// representations: a proper TagLst cons cell, a TagStr './2' cell
// treated as the equivalent list, or a TagPartialString prefix view.
func (h *Heap) decompose(c term.Cell) (head, tail term.Cell, ok bool) {
	switch c.Tag {
	case term.TagLst:
		return h.At(c.A), h.At(c.A + 1), true
	case term.TagStr:
		f, ar := h.At(c.A).FunctorParts()
		if f != term.AtomDot || ar != 2 {
			return term.Cell{}, term.Cell{}, false
		}
		return h.At(c.A + 1), h.At(c.A + 2), true
	case term.TagPartialString:
		ps := h.PartialString(c)
		if ps.Prefix == "" {
			return h.decompose(h.Deref(ps.Tail))
		}
		r := []rune(ps.Prefix)
		rest := h.PushPartialString(string(r[1:]), ps.Tail)
		return term.ConChar(r[0]), rest, true
	}
	return term.Cell{}, term.Cell{}, false
}
