package engine

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prolog-wam/engine/term"
)

// PrologError carries a thrown ball term that
// reached the outermost driver with no catch/3 left to claim it. It
// implements the Go error interface so the caller of Solutions.Next (or
// Once) can handle an uncaught Prolog exception the same way it handles
// any other Go error.
type PrologError struct {
	Ball *Ball
	text string // rendered by Solutions.Next when the error is created
}

func (e *PrologError) Error() string {
	if e.text == "" {
		return "unhandled prolog exception"
	}
	return e.text
}

// FatalError marks an engine-invariant violation: these are fatal and
// abort the process with a diagnostic; they should never be
// reachable from well-formed compiled code. Raised via panic, never
// via the ordinary fail-flag path; its cause is built with pkg/errors,
// which records the stack at the point of the panic. Nothing in the
// engine recovers it.
type FatalError struct {
	cause error
}

func (e *FatalError) Error() string { return e.cause.Error() }
func (e *FatalError) Unwrap() error { return e.cause }

func newFatal(format string, args ...interface{}) *FatalError {
	return &FatalError{cause: errors.Errorf(format, args...)}
}

// --- error(Kind, Context) term constructors ---

func (m *Machine) errorTerm(kind term.Cell) term.Cell {
	ctx := m.Heap.PushNewVar()
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("error"), 2))
	m.Heap.Push(kind)
	m.Heap.Push(ctx)
	return term.StrCell(addr)
}

func (m *Machine) instantiationError() term.Cell {
	return m.errorTerm(term.ConAtom(m.Atoms.Intern("instantiation_error")))
}

func (m *Machine) typeError(expected string, culprit term.Cell) term.Cell {
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("type_error"), 2))
	m.Heap.Push(term.ConAtom(m.Atoms.Intern(expected)))
	m.Heap.Push(culprit)
	return m.errorTerm(term.StrCell(addr))
}

func (m *Machine) domainError(domain string, culprit term.Cell) term.Cell {
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("domain_error"), 2))
	m.Heap.Push(term.ConAtom(m.Atoms.Intern(domain)))
	m.Heap.Push(culprit)
	return m.errorTerm(term.StrCell(addr))
}

func (m *Machine) existenceError(kind string, culprit term.Cell) term.Cell {
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("existence_error"), 2))
	m.Heap.Push(term.ConAtom(m.Atoms.Intern(kind)))
	m.Heap.Push(culprit)
	return m.errorTerm(term.StrCell(addr))
}

func (m *Machine) existenceErrorProcedure(name string, arity int) term.Cell {
	indAddr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("/"), 2))
	m.Heap.Push(term.ConAtom(m.Atoms.Intern(name)))
	smallInt, ok := term.ConSmallInt(int64(arity))
	if !ok {
		panic(newFatal("arity does not fit in a small int: %d", arity))
	}
	m.Heap.Push(smallInt)
	return m.existenceError("procedure", term.StrCell(indAddr))
}

func (m *Machine) permissionError(action, objType string, culprit term.Cell) term.Cell {
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("permission_error"), 3))
	m.Heap.Push(term.ConAtom(m.Atoms.Intern(action)))
	m.Heap.Push(term.ConAtom(m.Atoms.Intern(objType)))
	m.Heap.Push(culprit)
	return m.errorTerm(term.StrCell(addr))
}

func (m *Machine) evaluationError(what string) term.Cell {
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("evaluation_error"), 1))
	m.Heap.Push(term.ConAtom(m.Atoms.Intern(what)))
	return m.errorTerm(term.StrCell(addr))
}

func (m *Machine) representationError(what string) term.Cell {
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("representation_error"), 1))
	m.Heap.Push(term.ConAtom(m.Atoms.Intern(what)))
	return m.errorTerm(term.StrCell(addr))
}

func (m *Machine) syntaxError(desc string) term.Cell {
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("syntax_error"), 1))
	m.Heap.Push(term.ConAtom(m.Atoms.Intern(desc)))
	return m.errorTerm(term.StrCell(addr))
}

func (m *Machine) resourceError(what string) term.Cell {
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("resource_error"), 1))
	m.Heap.Push(term.ConAtom(m.Atoms.Intern(what)))
	return m.errorTerm(term.StrCell(addr))
}

// --- batch load/retract error accumulation ---

// LoadResult accumulates independent failures encountered while
// loading a multi-predicate compiled unit, using go-multierror the way
// a batch operation with more than one independent failure point
// should, rather than stopping at the first error.
type LoadResult struct {
	merr *multierror.Error
}

func (r *LoadResult) addf(format string, args ...interface{}) {
	r.merr = multierror.Append(r.merr, errors.Errorf(format, args...))
}

func (r *LoadResult) ErrorOrNil() error {
	if r.merr == nil {
		return nil
	}
	return r.merr.ErrorOrNil()
}
