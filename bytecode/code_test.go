package bytecode

import "testing"

func TestConstDefConstructorsTagKind(t *testing.T) {
	if c := AtomConst("foo"); c.Kind != ConstDefAtom || c.Atom != "foo" {
		t.Fatalf("AtomConst: got %+v", c)
	}
	if c := IntConst(42); c.Kind != ConstDefInt || c.Int != 42 {
		t.Fatalf("IntConst: got %+v", c)
	}
	if c := FloatConst(1.5); c.Kind != ConstDefFloat || c.Float != 1.5 {
		t.Fatalf("FloatConst: got %+v", c)
	}
	if c := CharConst('x'); c.Kind != ConstDefChar || c.Char != 'x' {
		t.Fatalf("CharConst: got %+v", c)
	}
	if c := EmptyListConst(); c.Kind != ConstDefEmptyList {
		t.Fatalf("EmptyListConst: got %+v", c)
	}
}

func TestPredicateDefCarriesItsOwnTables(t *testing.T) {
	pd := &PredicateDef{
		Key:      PredicateKey{Module: "user", Name: "foo", Arity: 1},
		Consts:   []ConstDef{AtomConst("a"), AtomConst("b")},
		Switches: []SwitchTable{{Entries: []SwitchEntry{{Key: IndexKey{Kind: IndexConst, Atom: "a"}, Target: 3}}, Default: 0}},
		Clauses:  []ClauseEntry{{Offset: 0, NumPermVars: 0}, {Offset: 3, NumPermVars: 0}},
	}
	if len(pd.Consts) != 2 {
		t.Fatalf("expected 2 consts, got %d", len(pd.Consts))
	}
	if pd.Switches[0].Entries[0].Key.Atom != "a" {
		t.Fatalf("switch entry key not preserved: %+v", pd.Switches[0].Entries[0])
	}
	if pd.Key.Arity != 1 {
		t.Fatalf("expected arity 1, got %d", pd.Key.Arity)
	}
}

func TestUnitAggregatesPredicatesAndOperators(t *testing.T) {
	u := Unit{
		Predicates: []*PredicateDef{{Key: PredicateKey{Module: "user", Name: "foo", Arity: 0}}},
		Operators:  []OperatorDecl{{Name: "+", Priority: 500, Type: "yfx"}},
	}
	if len(u.Predicates) != 1 || len(u.Operators) != 1 {
		t.Fatalf("Unit did not preserve its fields: %+v", u)
	}
}
