package engine

import (
	"testing"

	"github.com/prolog-wam/engine/bytecode"
	"github.com/prolog-wam/engine/term"
	"github.com/stretchr/testify/require"
)

// factPredicate builds one fact per atom (foo(a). foo(b). ...) chained
// with try_me_else on the first clause, retry_me_else on the middle
// ones and trust_me on the last — the minimal indexable shape every
// choice-point test below calls into.
func factPredicate(name string, arity int, atoms ...string) *bytecode.PredicateDef {
	pd := &bytecode.PredicateDef{Key: bytecode.PredicateKey{Module: "user", Name: name, Arity: arity}}
	for _, a := range atoms {
		pd.Consts = append(pd.Consts, bytecode.AtomConst(a))
	}
	for i := range atoms {
		isLast := i == len(atoms)-1
		if !isLast {
			op := bytecode.OpRetryMeElse
			if i == 0 {
				op = bytecode.OpTryMeElse
			}
			pd.Code = append(pd.Code, bytecode.NewInstr(op, bytecode.FlagNone, uint64(len(pd.Code)+3), uint64(arity)))
		} else {
			pd.Code = append(pd.Code, bytecode.NewInstr(bytecode.OpTrustMe, bytecode.FlagNone))
		}
		pd.Code = append(pd.Code, bytecode.NewInstr(bytecode.OpGetConstant, bytecode.FlagCon, 0, uint64(i)))
		pd.Code = append(pd.Code, bytecode.NewInstr(bytecode.OpProceed, bytecode.FlagNone))
	}
	return pd
}

func loadFacts(t *testing.T, m *Machine, name string, arity int, atoms ...string) {
	t.Helper()
	require.NoError(t, m.Load(bytecode.Unit{Predicates: []*bytecode.PredicateDef{factPredicate(name, arity, atoms...)}}))
}

func buildGoal(m *Machine, name string, args ...term.Cell) term.Cell {
	if len(args) == 0 {
		return term.ConAtom(m.Atoms.Intern(name))
	}
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern(name), len(args)))
	for _, a := range args {
		m.Heap.Push(a)
	}
	return term.StrCell(addr)
}

func atomName(t *testing.T, m *Machine, c term.Cell) string {
	t.Helper()
	c = m.Heap.Deref(c)
	id, ok := c.IsConAtom()
	require.True(t, ok, "expected atom, got %v", c)
	return m.Atoms.Name(id)
}

func TestFactsEnumerateAllSolutions(t *testing.T) {
	m := NewMachine()
	loadFacts(t, m, "foo", 1, "a", "b", "c")

	x := m.Heap.PushNewVar()
	goal := buildGoal(m, "foo", x)
	sol := m.Query(goal)
	defer sol.Close()

	var got []string
	for {
		ok, err := sol.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, atomName(t, m, x))
	}
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestQueryCloseStopsEnumeration(t *testing.T) {
	m := NewMachine()
	loadFacts(t, m, "foo", 1, "a", "b")

	x := m.Heap.PushNewVar()
	sol := m.Query(buildGoal(m, "foo", x))
	ok, err := sol.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", atomName(t, m, x))
	sol.Close()

	// a second, independent query must see a clean slate of choice points.
	y := m.Heap.PushNewVar()
	sol2 := m.Query(buildGoal(m, "foo", y))
	defer sol2.Close()
	ok, err = sol2.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", atomName(t, m, y))
}

func TestUndefinedProcedureRaisesExistenceError(t *testing.T) {
	m := NewMachine()
	goal := buildGoal(m, "nope", m.Heap.PushNewVar())
	ok, err := m.Once(goal)
	require.False(t, ok)
	require.Error(t, err)
	perr, isPrologErr := err.(*PrologError)
	require.True(t, isPrologErr)
	require.Contains(t, m.Writer(false).Write(m.materializeBall(perr.Ball)), "existence_error")
}

func TestAssertzThenQueryDynamicClause(t *testing.T) {
	m := NewMachine()

	fact := buildGoal(m, "bar", term.ConAtom(m.Atoms.Intern("z")))
	ok, err := m.Once(buildGoal(m, "assertz", fact))
	require.NoError(t, err)
	require.True(t, ok)

	x := m.Heap.PushNewVar()
	sol := m.Query(buildGoal(m, "bar", x))
	defer sol.Close()
	ok, err = sol.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "z", atomName(t, m, x))

	ok, err = sol.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRetractRemovesFirstMatchingClause(t *testing.T) {
	m := NewMachine()
	for _, a := range []string{"p", "q"} {
		fact := buildGoal(m, "bar", term.ConAtom(m.Atoms.Intern(a)))
		ok, err := m.Once(buildGoal(m, "assertz", fact))
		require.NoError(t, err)
		require.True(t, ok)
	}

	retractGoal := buildGoal(m, "retract", buildGoal(m, "bar", term.ConAtom(m.Atoms.Intern("p"))))
	ok, err := m.Once(retractGoal)
	require.NoError(t, err)
	require.True(t, ok)

	x := m.Heap.PushNewVar()
	sol := m.Query(buildGoal(m, "bar", x))
	defer sol.Close()
	ok, err = sol.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "q", atomName(t, m, x))

	ok, _ = sol.Next()
	require.False(t, ok)
}

func TestCatchRecoversThrownBall(t *testing.T) {
	m := NewMachine()
	thrown := term.ConAtom(m.Atoms.Intern("boom"))
	caught := m.Heap.PushNewVar()
	goal := buildGoal(m, "catch", buildGoal(m, "throw", thrown), caught, term.ConAtom(term.AtomTrue))

	ok, err := m.Once(goal)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "boom", atomName(t, m, caught))
}

func TestFindallCollectsAllSolutionsAndUndoesBindings(t *testing.T) {
	m := NewMachine()
	loadFacts(t, m, "foo", 1, "a", "b", "c")

	x := m.Heap.PushNewVar()
	list := m.Heap.PushNewVar()
	goal := buildGoal(m, "findall", x, buildGoal(m, "foo", x), list)

	ok, err := m.Once(goal)
	require.NoError(t, err)
	require.True(t, ok)

	got := m.listToSlice(list)
	require.Len(t, got, 3)
	for i, want := range []string{"a", "b", "c"} {
		require.Equal(t, want, atomName(t, m, got[i]))
	}
	// findall must not leave X bound to its last trial value.
	require.True(t, IsUnboundRef(m.Heap.Deref(x)))
}

func TestCutToDiscardsChoicePointsAboveLevel(t *testing.T) {
	m := NewMachine()
	push := func() uint64 {
		return m.ChoicePoints.Push(ChoicePoint{BP: Halt})
	}
	level := push()
	m.B = push()
	m.B = push()
	require.Equal(t, uint64(3), m.ChoicePoints.Top())

	m.cutTo(level)
	require.Equal(t, level, m.B)
	require.Equal(t, level+1, m.ChoicePoints.Top())
}

func TestCutToNoCPTruncatesEverything(t *testing.T) {
	m := NewMachine()
	m.B = m.ChoicePoints.Push(ChoicePoint{BP: Halt})
	m.cutTo(NoCP)
	require.Equal(t, NoCP, m.B)
	require.Equal(t, uint64(0), m.ChoicePoints.Top())
}

func TestFindOneSolutionThenCommitViaIfThen(t *testing.T) {
	m := NewMachine()
	loadFacts(t, m, "foo", 1, "a", "b")

	x := m.Heap.PushNewVar()
	y := m.Heap.PushNewVar()
	thenGoal := buildGoal(m, "=", y, x)
	ifThen := buildGoal(m, "->", buildGoal(m, "foo", x), thenGoal)

	ok, err := m.Once(ifThen)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", atomName(t, m, x))
	require.Equal(t, "a", atomName(t, m, y))
}
