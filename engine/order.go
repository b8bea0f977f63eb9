package engine

import "github.com/prolog-wam/engine/term"

// typeRank implements the coarse partition of the standard order of
// terms: "Var < Num < Atom < String < Compound",
// compared as a first key before any type-specific tiebreak.
func (m *Machine) typeRank(c term.Cell) int {
	switch c.Tag {
	case term.TagRef, term.TagAttrVar:
		return 0
	case term.TagNum:
		return 1
	case term.TagCon:
		if _, ok := c.IsConAtom(); ok {
			return 2
		}
		return 1 // inline small int/char constants rank with numbers
	case term.TagPartialString:
		return 3
	case term.TagStr, term.TagLst:
		return 4
	}
	return 5
}

// Compare implements the total standard order of terms:
// numbers compare by value, atoms lexicographically, compound
// terms by (arity, name, then arguments left to right) — the
// usual Scryer/SWI convention.
func (m *Machine) Compare(x, y term.Cell) int {
	x, y = m.Heap.Deref(x), m.Heap.Deref(y)
	rx, ry := m.typeRank(x), m.typeRank(y)
	if rx != ry {
		return sign(rx - ry)
	}
	switch rx {
	case 0:
		return sign(int(int64(x.A) - int64(y.A)))
	case 1:
		return m.numberOf(x).Compare(m.numberOf(y))
	case 2:
		ax, _ := x.IsConAtom()
		ay, _ := y.IsConAtom()
		return compareStrings(m.Atoms.Name(ax), m.Atoms.Name(ay))
	case 3:
		return compareStrings(m.stringTextOf(x), m.stringTextOf(y))
	default:
		return m.compareCompound(x, y)
	}
}

func (m *Machine) numberOf(c term.Cell) term.Number {
	if i, ok := c.IsConSmallInt(); ok {
		return term.Int(i)
	}
	if r, ok := c.IsConChar(); ok {
		return term.Int(int64(r))
	}
	return m.Heap.Number(c)
}

func (m *Machine) stringTextOf(c term.Cell) string {
	var b []rune
	for {
		c = m.Heap.Deref(c)
		if c.Tag == term.TagCon {
			if a, ok := c.IsConAtom(); ok && m.Atoms.Name(a) == "[]" {
				return string(b)
			}
		}
		h, t, ok := m.Heap.decompose(c)
		if !ok {
			return string(b)
		}
		if r, ok := m.Heap.Deref(h).IsConChar(); ok {
			b = append(b, r)
		}
		c = t
	}
}

func (m *Machine) compareCompound(x, y term.Cell) int {
	fx, ax := m.functorArity(x)
	fy, ay := m.functorArity(y)
	if ax != ay {
		return sign(ax - ay)
	}
	if c := compareStrings(m.Atoms.Name(fx), m.Atoms.Name(fy)); c != 0 {
		return c
	}
	for i := 1; i <= ax; i++ {
		if c := m.Compare(m.argOf(x, i), m.argOf(y, i)); c != 0 {
			return c
		}
	}
	return 0
}

func (m *Machine) functorArity(c term.Cell) (term.AtomID, int) {
	if c.Tag == term.TagStr {
		return m.Heap.At(c.A).FunctorParts()
	}
	return term.AtomDot, 2 // TagLst / TagPartialString, treated as './2'
}

func (m *Machine) argOf(c term.Cell, i int) term.Cell {
	if c.Tag == term.TagStr {
		return m.Heap.At(c.A + uint64(i))
	}
	h, t, _ := m.Heap.decompose(c)
	if i == 1 {
		return h
	}
	return t
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
