package engine

import "github.com/prolog-wam/engine/term"

// findallBuiltin implements findall(Template, Goal, List) entirely
// inside Machine.run's one dispatch loop: the collector
// continuation copies one solution's Template instance onto a private
// side heap, then sets m.Fail so the very next loop iteration's
// ordinary backtrack() call drives Goal to its next alternative — no
// nested call back into run() is needed, enumeration to exhaustion
// falls straight out of the existing choice-point machinery. A guard
// choice point installed before Goal runs catches that exhaustion,
// restores the heap/trail/environment to their pre-Goal state (every
// binding Goal made is undone), and materializes the
// collected solutions as a fresh list on the live heap.
func findallBuiltin(m *Machine, contPC PC) {
	template := m.Regs.Get(0)
	goalArg := m.Regs.Get(1)
	listArg := m.Regs.Get(2)
	m.runFindall(template, goalArg, func(m *Machine, list term.Cell) {
		if !m.Unify(listArg, list) {
			m.Fail = true
			return
		}
		m.PC = contPC
	})
}

// runFindall drives Goal to exhaustion collecting Template instances,
// then invokes onDone with the resulting proper list already built on
// the live heap and every Goal-side binding undone. Shared by
// findallBuiltin and the bagof/setof approximation below.
func (m *Machine) runFindall(template, goalArg term.Cell, onDone func(m *Machine, list term.Cell)) {
	side := NewHeap(64)
	var solutions []term.Cell

	savedTR := m.Trail.Top()
	savedHB := m.Heap.Mark()
	savedEnvTop := m.Env.Top()

	donePC := m.addNative(func(m *Machine) {
		m.popCP()
		m.Trail.UndoTo(savedTR, m.Heap, m.Env, m.Attrs)
		m.Heap.TruncateTo(savedHB)
		m.Env.TruncateTo(savedEnvTop)
		m.Fail = false
		list := term.EmptyList()
		for i := len(solutions) - 1; i >= 0; i-- {
			elem := copyTerm(side, m.Heap, solutions[i])
			addr := m.Heap.Push(elem)
			m.Heap.Push(list)
			list = term.LstCell(addr)
		}
		onDone(m, list)
	})
	m.pushChoicePoint(donePC)

	collectPC := m.addNative(func(m *Machine) {
		solutions = append(solutions, copyTerm(m.Heap, side, template))
		m.Fail = true
	})
	m.interpretGoal(goalArg, collectPC)
}

// stripCaret strips the `Free ^ Goal` existential-quantification
// wrapper bagof/3 and setof/3 accept, returning the
// innermost goal.
func (m *Machine) stripCaret(goal term.Cell) term.Cell {
	for {
		goal = m.Heap.Deref(goal)
		if goal.Tag != term.TagStr {
			return goal
		}
		f, ar := m.Heap.At(goal.A).FunctorParts()
		if ar != 2 || m.Atoms.Name(f) != "^" {
			return goal
		}
		goal = m.Heap.At(goal.A + 2)
	}
}

// bagofBuiltin implements bagof/3 as findall restricted to failing on
// an empty result (bagof/setof fail rather than
// succeed with the empty list). Grouping solutions by the bindings of
// free variables not under a `^` quantifier — the part of bagof/3 that
// goes beyond findall/3 — is not implemented; every solution is
// collected into a single bag, which is exact when Goal has no free
// variables besides Template's, and an approximation otherwise (see
// DESIGN.md).
func bagofBuiltin(m *Machine, contPC PC) {
	template := m.Regs.Get(0)
	goalArg := m.stripCaret(m.Regs.Get(1))
	listArg := m.Regs.Get(2)
	m.runFindall(template, goalArg, func(m *Machine, list term.Cell) {
		if m.Heap.Deref(list).Tag != term.TagLst {
			m.Fail = true
			return
		}
		if !m.Unify(listArg, list) {
			m.Fail = true
			return
		}
		m.PC = contPC
	})
}

// setofBuiltin is bagofBuiltin followed by a standard-order sort with
// duplicates removed.
func setofBuiltin(m *Machine, contPC PC) {
	template := m.Regs.Get(0)
	goalArg := m.stripCaret(m.Regs.Get(1))
	listArg := m.Regs.Get(2)
	m.runFindall(template, goalArg, func(m *Machine, list term.Cell) {
		if m.Heap.Deref(list).Tag != term.TagLst {
			m.Fail = true
			return
		}
		elems := m.listToSlice(list)
		sorted := m.sortUnique(elems)
		if !m.Unify(listArg, m.sliceToList(sorted)) {
			m.Fail = true
			return
		}
		m.PC = contPC
	})
}

func (m *Machine) listToSlice(c term.Cell) []term.Cell {
	var out []term.Cell
	for {
		c = m.Heap.Deref(c)
		if c.Tag != term.TagLst {
			return out
		}
		out = append(out, m.Heap.At(c.A))
		c = m.Heap.At(c.A + 1)
	}
}

func (m *Machine) sliceToList(elems []term.Cell) term.Cell {
	list := term.EmptyList()
	for i := len(elems) - 1; i >= 0; i-- {
		addr := m.Heap.Push(elems[i])
		m.Heap.Push(list)
		list = term.LstCell(addr)
	}
	return list
}

func (m *Machine) sortUnique(elems []term.Cell) []term.Cell {
	sorted := m.mergeSortTerms(elems)
	out := sorted[:0:0]
	for i, e := range sorted {
		if i == 0 || m.Compare(out[len(out)-1], e) != 0 {
			out = append(out, e)
		}
	}
	return out
}

func (m *Machine) mergeSortTerms(elems []term.Cell) []term.Cell {
	if len(elems) <= 1 {
		return elems
	}
	mid := len(elems) / 2
	left := m.mergeSortTerms(append([]term.Cell(nil), elems[:mid]...))
	right := m.mergeSortTerms(append([]term.Cell(nil), elems[mid:]...))
	out := make([]term.Cell, 0, len(elems))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		if m.Compare(left[i], right[j]) <= 0 {
			out = append(out, left[i])
			i++
		} else {
			out = append(out, right[j])
			j++
		}
	}
	out = append(out, left[i:]...)
	out = append(out, right[j:]...)
	return out
}
