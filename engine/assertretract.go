package engine

import (
	"github.com/prolog-wam/engine/bytecode"
	"github.com/prolog-wam/engine/term"
)

// invokeDynamic tries a dynamic predicate's clause list in order
//. Each attempt unifies the current registers A0..An
// against a fresh copy of the clause's Head, undoing the trail before
// trying the next clause on mismatch, and pushes a choice point over
// the remaining clauses whenever any clause follows the one that
// matched. Reports
// false when key names no dynamic predicate at all, so invokeCall
// falls through to its other resolution paths.
func (m *Machine) invokeDynamic(key bytecode.PredicateKey, contPC PC) bool {
	dp, ok := m.Repo.dynamics[key]
	if !ok {
		return false
	}
	m.tryDynamicClauses(dp.clauses, 0, key.Arity, contPC)
	return true
}

func (m *Machine) tryDynamicClauses(clauses []*dynamicClause, idx int, arity int, contPC PC) {
	for idx < len(clauses) {
		cl := clauses[idx]
		idx++
		tr := m.Trail.Top()
		copied := copyTerm(cl.Heap, m.Heap, cl.Clause)
		headCell, bodyCell := decomposeClause(m.Heap, copied)

		matched := true
		for i := 0; i < arity; i++ {
			if !m.Unify(m.Regs.Get(i), m.argOf(headCell, i+1)) {
				matched = false
				break
			}
		}
		if !matched {
			m.Trail.UndoTo(tr, m.Heap, m.Env, m.Attrs)
			continue
		}
		if idx < len(clauses) {
			next := idx
			retryPC := m.addNative(func(m *Machine) {
				m.popCP()
				m.tryDynamicClauses(clauses, next, arity, contPC)
			})
			m.pushChoicePoint(retryPC)
		}
		m.interpretGoal(bodyCell, contPC)
		return
	}
	m.Fail = true
}

// decomposeClause reads a materialized ':-'(Head, Body) cell.
func decomposeClause(h *Heap, clause term.Cell) (head, body term.Cell) {
	return h.At(clause.A + 1), h.At(clause.A + 2)
}

// makeClauseTerm splits Clause into (Head, Body), defaulting Body to
// `true` for a bare fact, and rebuilds the uniform ':-'(Head, Body)
// shape every dynamicClause stores: Clause is either Head or
// Head:-Body.
func (m *Machine) makeClauseTerm(clause term.Cell) (head, body, packed term.Cell) {
	clause = m.Heap.Deref(clause)
	if clause.Tag == term.TagStr {
		f, ar := m.Heap.At(clause.A).FunctorParts()
		if ar == 2 && m.Atoms.Name(f) == ":-" {
			head = m.Heap.At(clause.A + 1)
			body = m.Heap.At(clause.A + 2)
			return head, body, clause
		}
	}
	head = clause
	body = m.heapAtom("true")
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern(":-"), 2))
	m.Heap.Push(head)
	m.Heap.Push(body)
	return head, body, term.StrCell(addr)
}

func (m *Machine) headKey(head term.Cell) (bytecode.PredicateKey, bool) {
	head = m.Heap.Deref(head)
	switch head.Tag {
	case term.TagCon:
		a, ok := head.IsConAtom()
		if !ok {
			return bytecode.PredicateKey{}, false
		}
		return bytecode.PredicateKey{Module: "user", Name: m.Atoms.Name(a), Arity: 0}, true
	case term.TagStr:
		f, ar := m.Heap.At(head.A).FunctorParts()
		return bytecode.PredicateKey{Module: "user", Name: m.Atoms.Name(f), Arity: ar}, true
	}
	return bytecode.PredicateKey{}, false
}

func (m *Machine) assertClause(clause term.Cell, front bool) bool {
	head, _, packed := m.makeClauseTerm(clause)
	key, ok := m.headKey(head)
	if !ok {
		m.raise(m.typeError("callable", head))
		return false
	}
	side := NewHeap(32)
	stored := copyTerm(m.Heap, side, packed)
	cl := &dynamicClause{Heap: side, Clause: stored}

	m.Repo.mu.Lock()
	defer m.Repo.mu.Unlock()
	dp, ok := m.Repo.dynamics[key]
	if !ok {
		dp = &dynamicPred{}
		m.Repo.dynamics[key] = dp
	}
	if front {
		dp.clauses = append([]*dynamicClause{cl}, dp.clauses...)
	} else {
		dp.clauses = append(append([]*dynamicClause(nil), dp.clauses...), cl)
	}
	return true
}

func assertzBuiltin(m *Machine, contPC PC) {
	if !m.assertClause(m.Regs.Get(0), false) {
		return
	}
	m.PC = contPC
}

func assertaBuiltin(m *Machine, contPC PC) {
	if !m.assertClause(m.Regs.Get(0), true) {
		return
	}
	m.PC = contPC
}

// retractBuiltin implements retract/1: removes the first clause in the
// predicate's current clause list whose (Head :- Body) unifies with
// the argument, keeping the bindings that unification made — retract/1
// only reports whether a matching clause existed, it doesn't run Body.
// Leaves a
// choice point behind when later clauses in the snapshot could still
// match, so retract/1 succeeds once per matching clause on
// backtracking, removing each in turn.
func retractBuiltin(m *Machine, contPC PC) {
	clauseArg := m.Regs.Get(0)
	head, body, _ := m.makeClauseTerm(clauseArg)
	key, ok := m.headKey(head)
	if !ok {
		m.raise(m.typeError("callable", head))
		return
	}

	m.Repo.mu.Lock()
	dp, ok := m.Repo.dynamics[key]
	if !ok {
		m.Repo.mu.Unlock()
		m.Fail = true
		return
	}
	clauses := dp.clauses
	m.Repo.mu.Unlock()

	m.tryRetractClauses(clauses, 0, key, head, body, contPC)
}

func (m *Machine) tryRetractClauses(clauses []*dynamicClause, idx int, key bytecode.PredicateKey, head, body term.Cell, contPC PC) {
	for idx < len(clauses) {
		cl := clauses[idx]
		idx++
		tr := m.Trail.Top()
		copied := copyTerm(cl.Heap, m.Heap, cl.Clause)
		h, b := decomposeClause(m.Heap, copied)
		if !m.Unify(head, h) || !m.Unify(body, b) {
			m.Trail.UndoTo(tr, m.Heap, m.Env, m.Attrs)
			continue
		}
		m.Repo.mu.Lock()
		if cur, ok := m.Repo.dynamics[key]; ok {
			cur.clauses = removeClause(cur.clauses, cl)
		}
		m.Repo.mu.Unlock()
		if idx < len(clauses) {
			next := idx
			retryPC := m.addNative(func(m *Machine) {
				m.popCP()
				m.tryRetractClauses(clauses, next, key, head, body, contPC)
			})
			m.pushChoicePoint(retryPC)
		}
		m.PC = contPC
		return
	}
	m.Fail = true
}

func removeClause(clauses []*dynamicClause, target *dynamicClause) []*dynamicClause {
	out := make([]*dynamicClause, 0, len(clauses))
	removed := false
	for _, cl := range clauses {
		if !removed && cl == target {
			removed = true
			continue
		}
		out = append(out, cl)
	}
	return out
}

// abolishBuiltin implements abolish(Name/Arity).
func abolishBuiltin(m *Machine, contPC PC) {
	ind := m.Heap.Deref(m.Regs.Get(0))
	if ind.Tag != term.TagStr {
		m.raise(m.typeError("predicate_indicator", ind))
		return
	}
	f, ar := m.Heap.At(ind.A).FunctorParts()
	if ar != 2 || m.Atoms.Name(f) != "/" {
		m.raise(m.typeError("predicate_indicator", ind))
		return
	}
	nameCell := m.Heap.Deref(m.Heap.At(ind.A + 1))
	arityCell := m.Heap.Deref(m.Heap.At(ind.A + 2))
	nameAtom, ok := nameCell.IsConAtom()
	arity, ok2 := arityCell.IsConSmallInt()
	if !ok || !ok2 {
		m.raise(m.typeError("predicate_indicator", ind))
		return
	}
	key := bytecode.PredicateKey{Module: "user", Name: m.Atoms.Name(nameAtom), Arity: int(arity)}
	m.Repo.mu.Lock()
	delete(m.Repo.dynamics, key)
	m.Repo.mu.Unlock()
	m.PC = contPC
}
