package engine

import "github.com/prolog-wam/engine/term"

// catchFrame is one active catch/3 scope, innermost
// last. It snapshots everything a backtrack to its creation point
// would restore, so a throw reaching it can unwind the engine exactly
// as if Goal had simply failed all the way back to catch/3's call,
// before trying to unify Catcher against the thrown ball.
type catchFrame struct {
	Catcher  term.Cell
	Recovery term.Cell
	ContPC   PC

	B      uint64
	E      uint64
	CP     PC
	HB     Mark
	EnvTop uint64
	TR     uint64
	B0     uint64
}

// raise is the sole entry point for turning a Prolog term into a
// thrown exception: every ISO error is constructed as a
// term and raised through this same path as an explicit throw/1. The
// ball is copied into its own heap first (makeBall) so that truncating
// the live heap while unwinding can't erase it out from under the
// search for a matching catch/3.
func (m *Machine) raise(ball term.Cell) {
	m.raiseBall(m.makeBall(ball))
}

// raiseBall searches catchFrames innermost-first, unwinding engine
// state to each frame's snapshot and trying to unify its Catcher
// pattern against the ball before giving up on it and continuing to
// search further out: a catch/3 whose Catcher does not
// unify with Ball re-raises Ball to the next enclosing catch. If no
// frame claims the ball, it becomes the uncaught exception the driver
// reports.
func (m *Machine) raiseBall(b *Ball) {
	for len(m.catchFrames) > 0 {
		frame := m.catchFrames[len(m.catchFrames)-1]
		m.catchFrames = m.catchFrames[:len(m.catchFrames)-1]

		m.Trail.UndoTo(frame.TR, m.Heap, m.Env, m.Attrs)
		m.Heap.TruncateTo(frame.HB)
		m.Env.TruncateTo(frame.EnvTop)
		if frame.B == NoCP {
			m.ChoicePoints.TruncateTo(0)
		} else {
			m.ChoicePoints.TruncateTo(frame.B + 1)
		}
		m.B = frame.B
		m.E = frame.E
		m.CP = frame.CP
		m.B0 = frame.B0
		m.Fail = false

		catcherCell := m.materializeBall(b)
		if m.Unify(frame.Catcher, catcherCell) {
			m.interpretGoal(frame.Recovery, frame.ContPC)
			return
		}
	}
	m.ball = b
	m.PC = Halt
}

// catchBuiltin implements catch(Goal, Catcher, Recovery). The frame is
// popped on Goal's first success, before continuing past catch/3 (a
// throw from code sequenced after catch/3 must never be caught by
// it) — a later redo into Goal that then throws propagates past this
// catch/3 rather than being caught a second time, the known deviation
// from full ISO catch/3 recorded in DESIGN.md. If Goal is exhausted
// without ever succeeding, the guard choice point installed right
// before it pops the frame and lets the failure propagate outward
// normally.
func catchBuiltin(m *Machine, contPC PC) {
	frame := catchFrame{
		Catcher:  m.Regs.Get(1),
		Recovery: m.Regs.Get(2),
		ContPC:   contPC,
		B:        m.B, E: m.E, CP: m.CP,
		HB: m.Heap.Mark(), EnvTop: m.Env.Top(), TR: m.Trail.Top(), B0: m.B0,
	}
	m.catchFrames = append(m.catchFrames, frame)
	frameIdx := len(m.catchFrames) - 1

	guardPC := m.addNative(func(m *Machine) {
		if frameIdx < len(m.catchFrames) {
			m.catchFrames = m.catchFrames[:frameIdx]
		}
		m.popCP()
		m.Fail = true
	})
	m.pushChoicePoint(guardPC)

	goalArg := m.Regs.Get(0)
	successPC := m.addNative(func(m *Machine) {
		if frameIdx < len(m.catchFrames) {
			m.catchFrames = m.catchFrames[:frameIdx]
		}
		m.PC = contPC
	})
	m.interpretGoal(goalArg, successPC)
}

// throwBuiltin implements throw/1: an unbound ball is
// itself an instantiation_error, not a thrown variable.
func throwBuiltin(m *Machine, contPC PC) {
	ball := m.Heap.Deref(m.Regs.Get(0))
	if IsUnboundRef(ball) {
		m.raise(m.instantiationError())
		return
	}
	m.raise(ball)
}
