package engine

import (
	"github.com/prolog-wam/engine/bytecode"
	"github.com/prolog-wam/engine/term"
)

// interpretGoal executes an arbitrary runtime term as a goal without
// compiling it: there is no in-scope compiler,
// so call/N's target, and every Goal argument findall/catch/
// setup_call_cleanup receive, has to be walked structurally instead of
// jumped into as bytecode. Each control construct is decomposed into
// ordinary PCNative continuations so execution still flows through
// Machine.run's one flat loop rather than Go-level recursion —
// interpretGoal itself never calls back into Machine.run.
//
// contPC is where control resumes on success, exactly like the CP
// register a compiled `call` leaves behind.
func (m *Machine) interpretGoal(goal term.Cell, contPC PC) {
	goal = m.Heap.Deref(goal)
	switch goal.Tag {
	case term.TagRef, term.TagAttrVar:
		m.raise(m.instantiationError())
	case term.TagCon:
		atomID, ok := goal.IsConAtom()
		if !ok {
			m.raise(m.typeError("callable", goal))
			return
		}
		switch m.Atoms.Name(atomID) {
		case "true":
			m.PC = contPC
		case "fail", "false":
			m.Fail = true
		case "!":
			m.PC = contPC
		default:
			m.invokeResolvedGoal(atomID, nil, contPC)
		}
	case term.TagStr:
		f, ar := m.Heap.At(goal.A).FunctorParts()
		args := make([]term.Cell, ar)
		for k := 0; k < ar; k++ {
			args[k] = m.Heap.At(goal.A + uint64(k+1))
		}
		switch {
		case ar == 2 && f == term.AtomComma:
			m.interpretConjunction(args[0], args[1], contPC)
		case ar == 2 && f == term.AtomSemicolon:
			m.interpretDisjunction(args[0], args[1], contPC)
		case ar == 2 && f == term.AtomArrow:
			m.interpretIfThen(args[0], args[1], m.heapAtom("fail"), contPC)
		case ar == 1 && m.Atoms.Name(f) == "\\+":
			m.interpretNegation(args[0], contPC)
		case m.Atoms.Name(f) == "call":
			m.interpretCallN(args, contPC)
		case ar == 2 && m.Atoms.Name(f) == ":":
			m.interpretGoal(args[1], contPC)
		default:
			m.invokeResolvedGoal(f, args, contPC)
		}
	default:
		m.raise(m.typeError("callable", goal))
	}
}

func (m *Machine) heapAtom(name string) term.Cell {
	return term.ConAtom(m.Atoms.Intern(name))
}

func (m *Machine) interpretConjunction(left, right term.Cell, contPC PC) {
	next := m.addNative(func(m *Machine) {
		m.interpretGoal(right, contPC)
	})
	m.interpretGoal(left, next)
}

// interpretDisjunction handles both plain `;`/2 and the `Cond -> Then`
// form nested in its left argument. A `Cond *-> Then` left argument is
// not recognized and runs as an ordinary goal.
func (m *Machine) interpretDisjunction(left, right term.Cell, contPC PC) {
	left = m.Heap.Deref(left)
	if left.Tag == term.TagStr {
		f, ar := m.Heap.At(left.A).FunctorParts()
		if ar == 2 && f == term.AtomArrow {
			cond := m.Heap.At(left.A + 1)
			then := m.Heap.At(left.A + 2)
			m.interpretIfThen(cond, then, right, contPC)
			return
		}
	}
	retryPC := m.addNative(func(m *Machine) {
		m.popCP()
		m.interpretGoal(right, contPC)
	})
	m.pushChoicePoint(retryPC)
	m.interpretGoal(left, contPC)
}

// interpretIfThen runs Cond with cut-transparent commitment: the first
// solution to Cond discards any choice points Cond created (so Then
// runs deterministically w.r.t. Cond), and only if Cond has no
// solution at all does Else run.
func (m *Machine) interpretIfThen(cond, then, els term.Cell, contPC PC) {
	savedB := m.B
	elsePC := m.addNative(func(m *Machine) {
		m.popCP()
		m.interpretGoal(els, contPC)
	})
	m.pushChoicePoint(elsePC)
	thenPC := m.addNative(func(m *Machine) {
		m.cutTo(savedB)
		m.interpretGoal(then, contPC)
	})
	m.interpretGoal(cond, thenPC)
}

// interpretNegation implements \+/1: succeeds (without bindings) iff
// Goal has no solution, per the classic "commit on first success,
// otherwise fall through to true" expansion of \+ G as (G -> fail ;
// true) with the heap/trail restored to the state before G ran either
// way: \+/1 undoes all bindings Goal made, even on success.
func (m *Machine) interpretNegation(goal term.Cell, contPC PC) {
	mark := m.Heap.Mark()
	tr := m.Trail.Top()
	envTop := m.Env.Top()
	savedB := m.B
	succeedPC := m.addNative(func(m *Machine) {
		m.cutTo(savedB)
		m.Trail.UndoTo(tr, m.Heap, m.Env, m.Attrs)
		m.Heap.TruncateTo(mark)
		m.Env.TruncateTo(envTop)
		m.Fail = true
	})
	failPC := m.addNative(func(m *Machine) {
		m.popCP()
		m.PC = contPC
	})
	m.pushChoicePoint(failPC)
	m.interpretGoal(goal, succeedPC)
}

// pushChoicePoint installs a PCNative-backed alternative with no
// argument-register snapshot (runtime-interpreted control constructs
// never resume through A1..An the way a compiled clause does).
func (m *Machine) pushChoicePoint(retryPC PC) {
	cp := ChoicePoint{
		E: m.E, CP: m.CP, PrevB: m.B,
		BP: retryPC,
		HB: m.Heap.Mark(), EnvTop: m.Env.Top(), TR: m.Trail.Top(), B0: m.B0,
	}
	m.B = m.ChoicePoints.Push(cp)
}

// interpretCallN implements call/1..call/N: Goal's own
// arguments extend with N-1 extra arguments appended, after stripping
// any leading Module:Goal qualifier. call/N is opaque to cut — a `!`
// inside Closure cuts only the choice points Closure itself creates,
// never the caller's — which falls out here for free since
// interpretGoal's `!` case simply continues to contPC without
// touching m.ChoicePoints.
func (m *Machine) interpretCallN(args []term.Cell, contPC PC) {
	if len(args) == 0 {
		m.raise(m.instantiationError())
		return
	}
	closure := m.Heap.Deref(args[0])
	extra := args[1:]
	goal, ok := m.extendGoal(closure, extra)
	if !ok {
		return
	}
	m.interpretGoal(goal, contPC)
}

// extendGoal builds Closure with len(extra) extra arguments appended
//, synthesizing a fresh TagStr cell
// on the live heap.
func (m *Machine) extendGoal(closure term.Cell, extra []term.Cell) (term.Cell, bool) {
	closure = m.Heap.Deref(closure)
	if IsUnboundRef(closure) {
		m.raise(m.instantiationError())
		return term.Cell{}, false
	}
	if len(extra) == 0 {
		return closure, true
	}
	switch closure.Tag {
	case term.TagCon:
		atomID, ok := closure.IsConAtom()
		if !ok {
			m.raise(m.typeError("callable", closure))
			return term.Cell{}, false
		}
		addr := m.Heap.Push(term.FunctorCell(atomID, len(extra)))
		for _, e := range extra {
			m.Heap.Push(e)
		}
		return term.StrCell(addr), true
	case term.TagStr:
		f, ar := m.Heap.At(closure.A).FunctorParts()
		addr := m.Heap.Push(term.FunctorCell(f, ar+len(extra)))
		for k := 1; k <= ar; k++ {
			m.Heap.Push(m.Heap.At(closure.A + uint64(k)))
		}
		for _, e := range extra {
			m.Heap.Push(e)
		}
		return term.StrCell(addr), true
	}
	m.raise(m.typeError("callable", closure))
	return term.Cell{}, false
}

// invokeResolvedGoal dispatches a goal whose functor is already known
// (no further control-construct decomposition needed): loads the
// arguments into the register bank the way a compiled `put_value`
// chain would, and defers to the same invokeCall builtin/code-lookup
// path a compiled `call` instruction uses.
func (m *Machine) invokeResolvedGoal(functor term.AtomID, args []term.Cell, contPC PC) {
	for k, a := range args {
		m.Regs.Set(k, a)
	}
	m.CP = contPC
	m.invokeCall(bytecode.PredicateKey{Module: "user", Name: m.Atoms.Name(functor), Arity: len(args)})
}
