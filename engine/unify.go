package engine

import "github.com/prolog-wam/engine/term"

// bind unifies two already-dereferenced cells where at least one is an
// unbound Ref/AttrVar. Policy: "bind the younger
// reference to the older, to preserve the WAM trailing discipline
// (younger binds to older)."
func (m *Machine) bind(a, b term.Cell) bool {
	aUnbound, bUnbound := IsUnboundRef(a), IsUnboundRef(b)
	switch {
	case aUnbound && bUnbound:
		if a.A == b.A {
			return true // same variable, nothing to do
		}
		younger, older := a, b
		if b.A > a.A {
			younger, older = b, a
		}
		return m.bindVarTo(younger, older)
	case aUnbound:
		return m.bindVarTo(a, b)
	case bUnbound:
		return m.bindVarTo(b, a)
	default:
		panic("engine: bind called with two bound cells")
	}
}

// bindVarTo binds the unbound cell v to term t, trailing the binding
// when v's heap address predates the most recent choice point (the
// conditional binding test), and running the attr_unify_hook
// protocol first if v is attributed.
func (m *Machine) bindVarTo(v, t term.Cell) bool {
	if v.Tag == term.TagAttrVar && !IsUnboundRef(t) {
		if !m.runAttrHooks(v.A, t) {
			return false
		}
	}
	if m.hb() != 0 && v.A < m.hb() {
		m.Trail.PushHeapRef(v.A)
	}
	m.Heap.Set(v.A, t)
	return true
}

// hb returns the heap mark (cell-count component) of the most recent
// choice point, or 0 if the choice-point stack is empty — the
// heap-top at the most recent choice point.
func (m *Machine) hb() uint64 {
	if m.ChoicePoints.IsEmpty() {
		return 0
	}
	return m.ChoicePoints.Peek(m.B).HB.Cells
}

type unifyPair struct{ x, y term.Cell }

// Unify runs the iterative work-stack unification algorithm.
func (m *Machine) Unify(x, y term.Cell) bool {
	stack := []unifyPair{{x, y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		a := m.Heap.Deref(p.x)
		b := m.Heap.Deref(p.y)

		aUnbound, bUnbound := IsUnboundRef(a), IsUnboundRef(b)
		switch {
		case aUnbound || bUnbound:
			if m.OccursCheck && aUnbound && !bUnbound {
				if m.occurs(a.A, b) {
					return false
				}
			}
			if m.OccursCheck && bUnbound && !aUnbound {
				if m.occurs(b.A, a) {
					return false
				}
			}
			if !m.bind(a, b) {
				return false
			}

		case a.Tag == term.TagCon && b.Tag == term.TagCon:
			if !a.Equal(b) {
				return false
			}

		case a.Tag == term.TagNum && b.Tag == term.TagNum:
			if m.Heap.Number(a).Compare(m.Heap.Number(b)) != 0 {
				return false
			}

		case a.Tag == term.TagStr && b.Tag == term.TagStr:
			fa, aa := m.Heap.At(a.A).FunctorParts()
			fb, ab := m.Heap.At(b.A).FunctorParts()
			if fa != fb || aa != ab {
				return false
			}
			for i := aa; i >= 1; i-- {
				stack = append(stack, unifyPair{m.Heap.At(a.A + uint64(i)), m.Heap.At(b.A + uint64(i))})
			}

		case isListLike(a) && isListLike(b):
			ha, ta, okA := m.Heap.decompose(a)
			hb, tb, okB := m.Heap.decompose(b)
			if !okA || !okB {
				return false
			}
			stack = append(stack, unifyPair{ta, tb}, unifyPair{ha, hb})

		default:
			return false
		}
	}
	return true
}

func isListLike(c term.Cell) bool {
	if c.Tag == term.TagLst || c.Tag == term.TagPartialString {
		return true
	}
	if c.Tag == term.TagStr {
		return true // functor checked (must be './2') in decompose
	}
	return false
}

// occurs implements the optional occurs-check: before
// binding Ref addr to term t, scan t for addr.
func (m *Machine) occurs(addr uint64, t term.Cell) bool {
	stack := []term.Cell{t}
	for len(stack) > 0 {
		c := m.Heap.Deref(stack[len(stack)-1])
		stack = stack[:len(stack)-1]
		if IsUnboundRef(c) {
			if c.A == addr {
				return true
			}
			continue
		}
		switch c.Tag {
		case term.TagStr:
			_, ar := m.Heap.At(c.A).FunctorParts()
			for i := 1; i <= ar; i++ {
				stack = append(stack, m.Heap.At(c.A+uint64(i)))
			}
		case term.TagLst:
			stack = append(stack, m.Heap.At(c.A), m.Heap.At(c.A+1))
		case term.TagPartialString:
			ps := m.Heap.PartialString(c)
			stack = append(stack, ps.Tail)
		}
	}
	return false
}
