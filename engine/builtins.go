package engine

import (
	"sort"

	"github.com/prolog-wam/engine/bytecode"
	"github.com/prolog-wam/engine/term"
)

// BuiltinFunc is a built-in predicate's Go implementation. Arguments
// arrive the same way a compiled clause sees them — already loaded
// into registers A0..A(arity-1) by the caller's put_* chain — and a
// builtin must leave m.PC (jumping to contPC on success) or m.Fail
// (on failure) set before returning, exactly like a dispatch.go
// instruction handler: built-ins are callable exactly like ordinary
// predicates, dispatched by (module, name, arity).
type BuiltinFunc func(m *Machine, contPC PC)

type builtinDef struct {
	Fn BuiltinFunc
}

func registerBuiltin(repo *CodeRepo, name string, arity int, fn BuiltinFunc) {
	repo.builtins[bytecode.PredicateKey{Module: "builtin", Name: name, Arity: arity}] = &builtinDef{Fn: fn}
}

// registerBuiltins installs the fixed built-in library
// into a freshly constructed CodeRepo. Control constructs that need no
// argument registers of their own — `,`/2, `;`/2, `->`/2, `\+`/1 — are
// handled by interpretGoal's structural decomposition instead of
// living here; this table is the rest: the meta-call family, term
// inspection/construction, comparison, arithmetic comparison's sibling
// type-checks, list/sort utilities, and I/O.
func registerBuiltins(repo *CodeRepo) {
	registerBuiltin(repo, "true", 0, func(m *Machine, contPC PC) { m.PC = contPC })
	registerBuiltin(repo, "fail", 0, func(m *Machine, contPC PC) { m.Fail = true })
	registerBuiltin(repo, "false", 0, func(m *Machine, contPC PC) { m.Fail = true })
	registerBuiltin(repo, "!", 0, func(m *Machine, contPC PC) { m.cutTo(m.B0); m.PC = contPC })
	registerBuiltin(repo, "halt", 0, func(m *Machine, contPC PC) { m.PC = Halt })

	for n := 1; n <= 8; n++ {
		arity := n
		registerBuiltin(repo, "call", arity, func(m *Machine, contPC PC) {
			args := make([]term.Cell, arity)
			for i := range args {
				args[i] = m.Regs.Get(i)
			}
			m.interpretCallN(args, contPC)
		})
	}

	registerBuiltin(repo, "catch", 3, catchBuiltin)
	registerBuiltin(repo, "throw", 1, throwBuiltin)
	registerBuiltin(repo, "findall", 3, findallBuiltin)
	registerBuiltin(repo, "bagof", 3, bagofBuiltin)
	registerBuiltin(repo, "setof", 3, setofBuiltin)
	registerBuiltin(repo, "forall", 2, forallBuiltin)
	registerBuiltin(repo, "setup_call_cleanup", 3, setupCallCleanupBuiltin)
	registerBuiltin(repo, "call_with_inference_limit", 3, callWithInferenceLimitBuiltin)

	registerBuiltin(repo, "assertz", 1, assertzBuiltin)
	registerBuiltin(repo, "assert", 1, assertzBuiltin)
	registerBuiltin(repo, "asserta", 1, assertaBuiltin)
	registerBuiltin(repo, "retract", 1, retractBuiltin)
	registerBuiltin(repo, "abolish", 1, abolishBuiltin)

	registerBuiltin(repo, "=", 2, unifyBuiltin)
	registerBuiltin(repo, "\\=", 2, notUnifiableBuiltin)
	registerBuiltin(repo, "==", 2, cmpBuiltin(func(c int) bool { return c == 0 }))
	registerBuiltin(repo, "\\==", 2, cmpBuiltin(func(c int) bool { return c != 0 }))
	registerBuiltin(repo, "@<", 2, cmpBuiltin(func(c int) bool { return c < 0 }))
	registerBuiltin(repo, "@=<", 2, cmpBuiltin(func(c int) bool { return c <= 0 }))
	registerBuiltin(repo, "@>", 2, cmpBuiltin(func(c int) bool { return c > 0 }))
	registerBuiltin(repo, "@>=", 2, cmpBuiltin(func(c int) bool { return c >= 0 }))
	registerBuiltin(repo, "compare", 3, compareBuiltin)

	registerBuiltin(repo, "var", 1, typeCheckBuiltin(func(m *Machine, c term.Cell) bool { return IsUnboundRef(c) }))
	registerBuiltin(repo, "nonvar", 1, typeCheckBuiltin(func(m *Machine, c term.Cell) bool { return !IsUnboundRef(c) }))
	registerBuiltin(repo, "atom", 1, typeCheckBuiltin(func(m *Machine, c term.Cell) bool {
		_, ok := c.IsConAtom()
		return ok
	}))
	registerBuiltin(repo, "number", 1, typeCheckBuiltin(func(m *Machine, c term.Cell) bool {
		if c.Tag == term.TagNum {
			return true
		}
		_, isInt := c.IsConSmallInt()
		return isInt
	}))
	registerBuiltin(repo, "integer", 1, typeCheckBuiltin(func(m *Machine, c term.Cell) bool {
		if _, ok := c.IsConSmallInt(); ok {
			return true
		}
		return c.Tag == term.TagNum && m.Heap.Number(c).Kind == term.NumInt
	}))
	registerBuiltin(repo, "float", 1, typeCheckBuiltin(func(m *Machine, c term.Cell) bool {
		return c.Tag == term.TagNum && m.Heap.Number(c).Kind == term.NumFloat
	}))
	registerBuiltin(repo, "atomic", 1, typeCheckBuiltin(func(m *Machine, c term.Cell) bool {
		return c.Tag == term.TagCon || c.Tag == term.TagNum
	}))
	registerBuiltin(repo, "compound", 1, typeCheckBuiltin(func(m *Machine, c term.Cell) bool {
		return c.Tag == term.TagStr || c.Tag == term.TagLst || c.Tag == term.TagPartialString
	}))
	registerBuiltin(repo, "callable", 1, typeCheckBuiltin(func(m *Machine, c term.Cell) bool {
		_, isAtom := c.IsConAtom()
		return isAtom || c.Tag == term.TagStr
	}))
	registerBuiltin(repo, "is_list", 1, typeCheckBuiltin(isProperList))
	registerBuiltin(repo, "ground", 1, typeCheckBuiltin(isGround))

	registerBuiltin(repo, "functor", 3, functorBuiltin)
	registerBuiltin(repo, "arg", 3, argBuiltin)
	registerBuiltin(repo, "=..", 2, univBuiltin)
	registerBuiltin(repo, "copy_term", 2, copyTermBuiltin)

	registerBuiltin(repo, "between", 3, betweenBuiltin)
	registerBuiltin(repo, "succ", 2, succBuiltin)
	registerBuiltin(repo, "plus", 3, plusBuiltin)
	registerBuiltin(repo, "length", 2, lengthBuiltin)
	registerBuiltin(repo, "sort", 2, sortBuiltin(true))
	registerBuiltin(repo, "msort", 2, sortBuiltin(false))
	registerBuiltin(repo, "keysort", 2, keysortBuiltin)

	registerBuiltin(repo, "write", 1, writeBuiltin(false))
	registerBuiltin(repo, "print", 1, writeBuiltin(false))
	registerBuiltin(repo, "writeq", 1, writeBuiltin(true))
	registerBuiltin(repo, "nl", 0, func(m *Machine, contPC PC) {
		m.Streams.Out.Write([]byte("\n"))
		m.PC = contPC
	})
}

func unifyBuiltin(m *Machine, contPC PC) {
	if !m.Unify(m.Regs.Get(0), m.Regs.Get(1)) {
		m.Fail = true
		return
	}
	m.PC = contPC
}

// notUnifiableBuiltin implements \=/2 as the classic "unify, then
// undo regardless": it must never leave bindings
// behind, on success or failure.
func notUnifiableBuiltin(m *Machine, contPC PC) {
	tr := m.Trail.Top()
	ok := m.Unify(m.Regs.Get(0), m.Regs.Get(1))
	m.Trail.UndoTo(tr, m.Heap, m.Env, m.Attrs)
	if ok {
		m.Fail = true
		return
	}
	m.PC = contPC
}

func cmpBuiltin(pass func(int) bool) BuiltinFunc {
	return func(m *Machine, contPC PC) {
		if !pass(m.Compare(m.Regs.Get(0), m.Regs.Get(1))) {
			m.Fail = true
			return
		}
		m.PC = contPC
	}
}

func compareBuiltin(m *Machine, contPC PC) {
	c := m.Compare(m.Regs.Get(1), m.Regs.Get(2))
	var name string
	switch {
	case c < 0:
		name = "<"
	case c > 0:
		name = ">"
	default:
		name = "="
	}
	if !m.Unify(m.Regs.Get(0), m.heapAtom(name)) {
		m.Fail = true
		return
	}
	m.PC = contPC
}

func typeCheckBuiltin(pred func(m *Machine, c term.Cell) bool) BuiltinFunc {
	return func(m *Machine, contPC PC) {
		if !pred(m, m.Heap.Deref(m.Regs.Get(0))) {
			m.Fail = true
			return
		}
		m.PC = contPC
	}
}

func isProperList(m *Machine, c term.Cell) bool {
	for {
		c = m.Heap.Deref(c)
		if c.Tag == term.TagCon {
			a, ok := c.IsConAtom()
			return ok && m.Atoms.Name(a) == "[]"
		}
		if c.Tag != term.TagLst {
			return false
		}
		c = m.Heap.At(c.A + 1)
	}
}

func isGround(m *Machine, c term.Cell) bool {
	c = m.Heap.Deref(c)
	if IsUnboundRef(c) {
		return false
	}
	switch c.Tag {
	case term.TagStr:
		_, ar := m.Heap.At(c.A).FunctorParts()
		for i := 1; i <= ar; i++ {
			if !isGround(m, m.Heap.At(c.A+uint64(i))) {
				return false
			}
		}
	case term.TagLst:
		return isGround(m, m.Heap.At(c.A)) && isGround(m, m.Heap.At(c.A+1))
	}
	return true
}

func copyTermBuiltin(m *Machine, contPC PC) {
	fresh := copyTerm(m.Heap, m.Heap, m.Regs.Get(0))
	if !m.Unify(m.Regs.Get(1), fresh) {
		m.Fail = true
		return
	}
	m.PC = contPC
}

func forallBuiltin(m *Machine, contPC PC) {
	cond := m.Regs.Get(0)
	action := m.Regs.Get(1)
	neg := m.heapConjunctionNegation(cond, action)
	m.interpretNegation(neg, contPC)
}

// heapConjunctionNegation builds `\+ (Cond, \+ Action)` on the live
// heap, the standard expansion of forall/2.
func (m *Machine) heapConjunctionNegation(cond, action term.Cell) term.Cell {
	innerNegAddr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("\\+"), 1))
	m.Heap.Push(action)
	innerNeg := term.StrCell(innerNegAddr)

	commaAddr := m.Heap.Push(term.FunctorCell(term.AtomComma, 2))
	m.Heap.Push(cond)
	m.Heap.Push(innerNeg)
	return term.StrCell(commaAddr)
}

func functorBuiltin(m *Machine, contPC PC) {
	t := m.Heap.Deref(m.Regs.Get(0))
	if !IsUnboundRef(t) {
		var name term.Cell
		var arity int64
		switch t.Tag {
		case term.TagStr:
			f, ar := m.Heap.At(t.A).FunctorParts()
			name, arity = term.ConAtom(f), int64(ar)
		case term.TagLst, term.TagPartialString:
			name, arity = term.ConAtom(term.AtomDot), 2
		default:
			name, arity = t, 0
		}
		ac, _ := term.ConSmallInt(arity)
		if !m.Unify(m.Regs.Get(1), name) || !m.Unify(m.Regs.Get(2), ac) {
			m.Fail = true
			return
		}
		m.PC = contPC
		return
	}
	nameCell := m.Heap.Deref(m.Regs.Get(1))
	arityCell := m.Heap.Deref(m.Regs.Get(2))
	arity, ok := arityCell.IsConSmallInt()
	if !ok {
		m.raise(m.typeError("integer", arityCell))
		return
	}
	if arity == 0 {
		if !m.Unify(t, nameCell) {
			m.Fail = true
		} else {
			m.PC = contPC
		}
		return
	}
	atomID, ok := nameCell.IsConAtom()
	if !ok {
		m.raise(m.typeError("atom", nameCell))
		return
	}
	addr := m.Heap.Push(term.FunctorCell(atomID, int(arity)))
	for i := int64(0); i < arity; i++ {
		m.Heap.PushNewVar()
	}
	if !m.Unify(t, term.StrCell(addr)) {
		m.Fail = true
		return
	}
	m.PC = contPC
}

func argBuiltin(m *Machine, contPC PC) {
	nCell := m.Heap.Deref(m.Regs.Get(0))
	t := m.Heap.Deref(m.Regs.Get(1))
	n, ok := nCell.IsConSmallInt()
	if !ok {
		m.raise(m.typeError("integer", nCell))
		return
	}
	if t.Tag != term.TagStr {
		m.Fail = true
		return
	}
	_, ar := m.Heap.At(t.A).FunctorParts()
	if n < 1 || n > int64(ar) {
		m.Fail = true
		return
	}
	if !m.Unify(m.Regs.Get(2), m.Heap.At(t.A+uint64(n))) {
		m.Fail = true
		return
	}
	m.PC = contPC
}

func univBuiltin(m *Machine, contPC PC) {
	t := m.Heap.Deref(m.Regs.Get(0))
	if !IsUnboundRef(t) {
		var elems []term.Cell
		switch t.Tag {
		case term.TagStr:
			f, ar := m.Heap.At(t.A).FunctorParts()
			elems = append(elems, term.ConAtom(f))
			for i := 1; i <= ar; i++ {
				elems = append(elems, m.Heap.At(t.A+uint64(i)))
			}
		default:
			elems = append(elems, t)
		}
		if !m.Unify(m.Regs.Get(1), m.sliceToList(elems)) {
			m.Fail = true
			return
		}
		m.PC = contPC
		return
	}
	elems := m.listToSlice(m.Regs.Get(1))
	if len(elems) == 0 {
		m.raise(m.domainError("non_empty_list", m.Regs.Get(1)))
		return
	}
	head := m.Heap.Deref(elems[0])
	if len(elems) == 1 {
		if !m.Unify(t, head) {
			m.Fail = true
			return
		}
		m.PC = contPC
		return
	}
	atomID, ok := head.IsConAtom()
	if !ok {
		m.raise(m.typeError("atom", head))
		return
	}
	addr := m.Heap.Push(term.FunctorCell(atomID, len(elems)-1))
	for _, e := range elems[1:] {
		m.Heap.Push(e)
	}
	if !m.Unify(t, term.StrCell(addr)) {
		m.Fail = true
		return
	}
	m.PC = contPC
}

// betweenBuiltin implements between(Low, High, X):
// deterministic when X is already bound, otherwise a Go-level
// nondeterministic generator backed by a PCNative choice point
// instead of a compiled retry chain.
func betweenBuiltin(m *Machine, contPC PC) {
	lowCell := m.Heap.Deref(m.Regs.Get(0))
	highCell := m.Heap.Deref(m.Regs.Get(1))
	xArg := m.Regs.Get(2)
	low, ok := lowCell.IsConSmallInt()
	if !ok {
		m.raise(m.typeError("integer", lowCell))
		return
	}
	high, hasHigh := highCell.IsConSmallInt()
	if !hasHigh {
		if a, ok := highCell.IsConAtom(); !ok || (m.Atoms.Name(a) != "inf" && m.Atoms.Name(a) != "infinite") {
			m.raise(m.typeError("integer", highCell))
			return
		}
		high = (1 << 60) - 1
	}

	if x := m.Heap.Deref(xArg); !IsUnboundRef(x) {
		n, ok := x.IsConSmallInt()
		if !ok || n < low || n > high {
			m.Fail = true
			return
		}
		m.PC = contPC
		return
	}

	var step func(m *Machine, cur int64)
	step = func(m *Machine, cur int64) {
		c, _ := term.ConSmallInt(cur)
		if cur < high {
			next := cur + 1
			retryPC := m.addNative(func(m *Machine) {
				m.popCP()
				step(m, next)
			})
			m.pushChoicePoint(retryPC)
		}
		if !m.Unify(xArg, c) {
			m.Fail = true
			return
		}
		m.PC = contPC
	}
	step(m, low)
}

func succBuiltin(m *Machine, contPC PC) {
	a := m.Heap.Deref(m.Regs.Get(0))
	b := m.Heap.Deref(m.Regs.Get(1))
	if ai, ok := a.IsConSmallInt(); ok {
		if ai < 0 {
			m.raise(m.typeError("not_less_than_zero", a))
			return
		}
		c, _ := term.ConSmallInt(ai + 1)
		if !m.Unify(b, c) {
			m.Fail = true
			return
		}
		m.PC = contPC
		return
	}
	if bi, ok := b.IsConSmallInt(); ok {
		if bi <= 0 {
			m.Fail = true
			return
		}
		c, _ := term.ConSmallInt(bi - 1)
		if !m.Unify(a, c) {
			m.Fail = true
			return
		}
		m.PC = contPC
		return
	}
	m.raise(m.instantiationError())
}

func plusBuiltin(m *Machine, contPC PC) {
	a := m.Heap.Deref(m.Regs.Get(0))
	b := m.Heap.Deref(m.Regs.Get(1))
	c := m.Heap.Deref(m.Regs.Get(2))
	ai, aOk := a.IsConSmallInt()
	bi, bOk := b.IsConSmallInt()
	ci, cOk := c.IsConSmallInt()
	switch {
	case aOk && bOk:
		r, _ := term.ConSmallInt(ai + bi)
		if !m.Unify(c, r) {
			m.Fail = true
			return
		}
	case aOk && cOk:
		r, _ := term.ConSmallInt(ci - ai)
		if !m.Unify(b, r) {
			m.Fail = true
			return
		}
	case bOk && cOk:
		r, _ := term.ConSmallInt(ci - bi)
		if !m.Unify(a, r) {
			m.Fail = true
			return
		}
	default:
		m.raise(m.instantiationError())
		return
	}
	m.PC = contPC
}

func lengthBuiltin(m *Machine, contPC PC) {
	listArg := m.Regs.Get(0)
	lenArg := m.Heap.Deref(m.Regs.Get(1))
	if isProperList(m, listArg) {
		n := len(m.listToSlice(listArg))
		c, _ := term.ConSmallInt(int64(n))
		if !m.Unify(lenArg, c) {
			m.Fail = true
			return
		}
		m.PC = contPC
		return
	}
	n, ok := lenArg.IsConSmallInt()
	if !ok {
		m.raise(m.instantiationError())
		return
	}
	elems := make([]term.Cell, n)
	for i := range elems {
		elems[i] = m.Heap.PushNewVar()
	}
	if !m.Unify(listArg, m.sliceToList(elems)) {
		m.Fail = true
		return
	}
	m.PC = contPC
}

func sortBuiltin(dedup bool) BuiltinFunc {
	return func(m *Machine, contPC PC) {
		elems := m.listToSlice(m.Regs.Get(0))
		sorted := m.mergeSortTerms(elems)
		if dedup {
			sorted = m.sortUnique(elems)
		}
		if !m.Unify(m.Regs.Get(1), m.sliceToList(sorted)) {
			m.Fail = true
			return
		}
		m.PC = contPC
	}
}

func keysortBuiltin(m *Machine, contPC PC) {
	elems := m.listToSlice(m.Regs.Get(0))
	pairs := make([]term.Cell, len(elems))
	copy(pairs, elems)
	sort.SliceStable(pairs, func(i, j int) bool {
		return m.Compare(m.pairKey(pairs[i]), m.pairKey(pairs[j])) < 0
	})
	if !m.Unify(m.Regs.Get(1), m.sliceToList(pairs)) {
		m.Fail = true
		return
	}
	m.PC = contPC
}

func (m *Machine) pairKey(c term.Cell) term.Cell {
	c = m.Heap.Deref(c)
	if c.Tag == term.TagStr {
		if f, ar := m.Heap.At(c.A).FunctorParts(); ar == 2 && m.Atoms.Name(f) == "-" {
			return m.Heap.At(c.A + 1)
		}
	}
	return c
}

func writeBuiltin(quoted bool) BuiltinFunc {
	return func(m *Machine, contPC PC) {
		m.Streams.Out.Write([]byte(m.Writer(quoted).Write(m.Regs.Get(0))))
		m.PC = contPC
	}
}
