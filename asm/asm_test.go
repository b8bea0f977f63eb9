package asm

import (
	"strings"
	"testing"

	"github.com/prolog-wam/engine/bytecode"
)

const twoClauseFact = `
[predicate]
module user
name foo
arity 1
dynamic 0
multifile 0
[consts]
atom a
atom b
[end]
[switches]
table
default 0
atom a 0
atom b 3
.
[end]
[clauses]
0 0 atom a
3 0 atom b
[end]
[code]
try_me_else _ 3 1
get_constant k 0 0
proceed _
trust_me _
get_constant k 1 0
proceed _
[end]
[end]
[operators]
+ 500 yfx
[end]
`

func TestAssembleBuildsOnePredicateWithIndexingAndCode(t *testing.T) {
	unit, err := Assemble(strings.NewReader(twoClauseFact))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(unit.Predicates) != 1 {
		t.Fatalf("expected 1 predicate, got %d", len(unit.Predicates))
	}
	pd := unit.Predicates[0]
	if pd.Key != (bytecode.PredicateKey{Module: "user", Name: "foo", Arity: 1}) {
		t.Fatalf("unexpected key: %+v", pd.Key)
	}
	if len(pd.Consts) != 2 || pd.Consts[0].Atom != "a" || pd.Consts[1].Atom != "b" {
		t.Fatalf("unexpected consts: %+v", pd.Consts)
	}
	if len(pd.Switches) != 1 || len(pd.Switches[0].Entries) != 2 {
		t.Fatalf("unexpected switches: %+v", pd.Switches)
	}
	if pd.Switches[0].Entries[1].Target != 3 {
		t.Fatalf("expected second switch arm at offset 3, got %+v", pd.Switches[0].Entries[1])
	}
	if len(pd.Clauses) != 2 || pd.Clauses[1].Offset != 3 {
		t.Fatalf("unexpected clauses: %+v", pd.Clauses)
	}
	if len(pd.Code) != 6 {
		t.Fatalf("expected 6 instructions, got %d", len(pd.Code))
	}
	if pd.Code[0].Op != bytecode.OpTryMeElse || pd.Code[0].A != 3 || pd.Code[0].B != 1 {
		t.Fatalf("unexpected first instruction: %+v", pd.Code[0])
	}
	if pd.Code[3].Op != bytecode.OpTrustMe {
		t.Fatalf("unexpected fourth instruction: %+v", pd.Code[3])
	}
	if len(unit.Operators) != 1 || unit.Operators[0].Name != "+" || unit.Operators[0].Priority != 500 {
		t.Fatalf("unexpected operators: %+v", unit.Operators)
	}
}

func TestAssembleRejectsUnknownTopLevelTag(t *testing.T) {
	_, err := Assemble(strings.NewReader("[bogus]\n[end]\n"))
	if err == nil {
		t.Fatal("expected an error for an unrecognized top-level tag")
	}
}

func TestAssembleParsesBigIntAndFloatConsts(t *testing.T) {
	src := `
[predicate]
module user
name bignum
arity 0
[consts]
bigint 123456789012345678901234567890
float 3.5
empty
[end]
[code]
proceed _
[end]
[end]
`
	unit, err := Assemble(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	consts := unit.Predicates[0].Consts
	if consts[0].Kind != bytecode.ConstDefBigInt || consts[0].Big.String() != "123456789012345678901234567890" {
		t.Fatalf("unexpected bigint const: %+v", consts[0])
	}
	if consts[1].Kind != bytecode.ConstDefFloat || consts[1].Float != 3.5 {
		t.Fatalf("unexpected float const: %+v", consts[1])
	}
	if consts[2].Kind != bytecode.ConstDefEmptyList {
		t.Fatalf("unexpected empty-list const: %+v", consts[2])
	}
}
