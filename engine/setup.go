package engine

import "github.com/prolog-wam/engine/term"

// inferenceBudget is one active call_with_inference_limit/3 scope.
// Budgets nest: an inner call_with_inference_
// limit exhausting its own, smaller budget doesn't touch an
// enclosing one's count.
type inferenceBudget struct {
	limit     uint64
	baseline  uint64 // m.InferenceCount when the budget was installed
	contFrame int     // catchFrames index the budget's guard resumes through
	result    term.Cell
	contPC    PC
	exceeded  bool
}

// checkInferenceBudgets reports whether the innermost active budget
// has just been exhausted, and if so unwinds straight to its
// call_with_inference_limit/3 caller with Result bound to
// `inference_limit_exceeded`: the goal is abandoned, not
// failed or thrown — the limit is a scheduling device, not an error.
func (m *Machine) checkInferenceBudgets() bool {
	if len(m.budgets) == 0 {
		return false
	}
	b := m.budgets[len(m.budgets)-1]
	if m.InferenceCount-b.baseline < b.limit {
		return false
	}
	m.budgets = m.budgets[:len(m.budgets)-1]
	if len(m.catchFrames) > b.contFrame {
		m.catchFrames = m.catchFrames[:b.contFrame]
	}
	if !m.Unify(b.result, m.heapAtom("inference_limit_exceeded")) {
		m.Fail = true
		return true
	}
	m.PC = b.contPC
	return true
}

// callWithInferenceLimitBuiltin implements
// call_with_inference_limit(Goal, Limit, Result):
// Result unifies with `true` if Goal completes within Limit inference
// steps (counted from this call, per invokeCall's InferenceCount++),
// or with `inference_limit_exceeded` if the budget runs out first.
func callWithInferenceLimitBuiltin(m *Machine, contPC PC) {
	goalArg := m.Regs.Get(0)
	limitArg := m.Heap.Deref(m.Regs.Get(1))
	resultArg := m.Regs.Get(2)

	limit, ok := limitArg.IsConSmallInt()
	if !ok || limit < 0 {
		m.raise(m.typeError("integer", limitArg))
		return
	}

	m.budgets = append(m.budgets, &inferenceBudget{
		limit: uint64(limit), baseline: m.InferenceCount,
		contFrame: len(m.catchFrames), result: resultArg, contPC: contPC,
	})
	budgetIdx := len(m.budgets) - 1

	successPC := m.addNative(func(m *Machine) {
		if budgetIdx < len(m.budgets) {
			m.budgets = m.budgets[:budgetIdx]
		}
		if !m.Unify(resultArg, m.heapAtom("true")) {
			m.Fail = true
			return
		}
		m.PC = contPC
	})
	m.interpretGoal(goalArg, successPC)
}

// setupCallCleanupBuiltin implements
// setup_call_cleanup(Setup, Goal, Cleanup): Setup runs
// once, deterministically committed; Cleanup runs at most once. This
// implementation triggers Cleanup on Goal's first success or on Goal's
// failure; an exception raised inside Goal unwinds past this call
// without running Cleanup. It does not delay Cleanup past a first success
// to wait for Goal's remaining choice points to be exhausted by later
// redo, a simplification from full ISO setup_call_cleanup noted in
// DESIGN.md. Cleanup itself runs through the ordinary continuation
// chain (interpretGoal sets m.PC and returns), never a nested
// synchronous drain, so a Cleanup that calls into compiled bytecode
// still flows through Machine.run's one loop.
func setupCallCleanupBuiltin(m *Machine, contPC PC) {
	setupArg := m.Regs.Get(0)
	goalArg := m.Regs.Get(1)
	cleanupArg := m.Regs.Get(2)
	cleaned := false

	runCleanupThen := func(after PC) PC {
		return m.addNative(func(m *Machine) {
			if cleaned {
				m.PC = after
				return
			}
			cleaned = true
			m.interpretGoal(cleanupArg, after)
		})
	}

	savedB := m.B
	setupDonePC := m.addNative(func(m *Machine) {
		m.cutTo(savedB)
		failAfter := m.addNative(func(m *Machine) { m.Fail = true })
		guardPC := m.addNative(func(m *Machine) {
			m.popCP()
			m.PC = runCleanupThen(failAfter)
		})
		m.pushChoicePoint(guardPC)

		goalSuccessPC := m.addNative(func(m *Machine) {
			m.PC = runCleanupThen(contPC)
		})
		m.interpretGoal(goalArg, goalSuccessPC)
	})
	m.interpretGoal(setupArg, setupDonePC)
}
