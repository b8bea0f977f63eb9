package engine

import "github.com/prolog-wam/engine/term"

// Solutions is the outer submit-query / get-next-solution contract,
// exposed as a Go iterator instead of a coroutine: since the engine
// has no in-scope compiler, a query is an ordinary runtime term
// interpreted the same way findall/catch interpret their Goal
// argument — Solutions is just interpretGoal wired to a cursor that
// pauses the dispatch loop on every success instead of running to
// exhaustion.
type Solutions struct {
	m        *Machine
	goal     term.Cell
	started  bool
	exhausted bool
	found    bool
	floorB   uint64
	floorHB  Mark
	floorEnv uint64
	floorTR  uint64
}

// Query prepares Goal for stepwise solving. Goal must already be built
// on the machine's live heap (e.g. by a reader/parser front end); the
// variables it references are where callers read out bindings after a
// successful Next.
func (m *Machine) Query(goal term.Cell) *Solutions {
	return &Solutions{
		m: m, goal: goal,
		floorB: m.B, floorHB: m.Heap.Mark(),
		floorEnv: m.Env.Top(), floorTR: m.Trail.Top(),
	}
}

// Next runs (or resumes) the query up to its next solution. It
// returns (true, nil) with the goal's variables bound for inspection,
// (false, nil) once every alternative is exhausted, or (false, err)
// when the query raised an exception no catch/3 inside it claimed
//.
func (s *Solutions) Next() (bool, error) {
	m := s.m
	if s.exhausted {
		return false, nil
	}
	if !s.started {
		s.started = true
		successPC := m.addNative(func(m *Machine) {
			s.found = true
			m.PC = Halt
		})
		m.interpretGoal(s.goal, successPC)
	} else {
		if s.m.B == s.floorB {
			s.exhausted = true
			return false, nil
		}
		m.Fail = true
	}
	s.found = false
	m.run()

	if m.ball != nil {
		b := m.ball
		m.ball = nil
		return false, &PrologError{Ball: b, text: m.Writer(true).Write(m.materializeBall(b))}
	}
	if s.found {
		return true, nil
	}
	s.exhausted = true
	return false, nil
}

// Close abandons any solutions not yet produced, restoring the engine
// to the state it was in before the query started (the same cut
// discipline applied to the whole query rather than one clause).
func (s *Solutions) Close() {
	m := s.m
	if s.exhausted {
		return
	}
	s.exhausted = true
	m.cutTo(s.floorB)
	m.Trail.UndoTo(s.floorTR, m.Heap, m.Env, m.Attrs)
	m.Heap.TruncateTo(s.floorHB)
	m.Env.TruncateTo(s.floorEnv)
}

// Once runs Goal for (at most) one solution, a convenience wrapper
// around Query/Next/Close for callers that never need backtracking
// into a query — the common case for a top-level directive.
func (m *Machine) Once(goal term.Cell) (bool, error) {
	sol := m.Query(goal)
	ok, err := sol.Next()
	sol.Close()
	return ok, err
}
