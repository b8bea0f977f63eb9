package term

import "testing"

func TestNewAtomTablePreseedsFixedAtoms(t *testing.T) {
	tbl := NewAtomTable()
	cases := map[AtomID]string{
		AtomEmptyList: "[]",
		AtomDot:       ".",
		AtomTrue:      "true",
		AtomFail:      "fail",
		AtomComma:     ",",
		AtomSemicolon: ";",
		AtomArrow:     "->",
		AtomCut:       "!",
	}
	for id, name := range cases {
		if got := tbl.Name(id); got != name {
			t.Fatalf("Name(%v) = %q, want %q", id, got, name)
		}
		if got := tbl.Intern(name); got != id {
			t.Fatalf("Intern(%q) = %v, want the preseeded id %v", name, got, id)
		}
	}
}

func TestInternIsIdempotentForUserAtoms(t *testing.T) {
	tbl := NewAtomTable()
	a := tbl.Intern("foo")
	b := tbl.Intern("foo")
	if a != b {
		t.Fatalf("interning the same name twice produced different ids: %v vs %v", a, b)
	}
	if a < AtomFirstUser {
		t.Fatalf("a fresh user atom must not collide with the fixed range, got %v", a)
	}
}

func TestInternAssignsDistinctIdsToDistinctNames(t *testing.T) {
	tbl := NewAtomTable()
	a := tbl.Intern("alpha")
	b := tbl.Intern("beta")
	if a == b {
		t.Fatal("expected distinct names to receive distinct ids")
	}
	if tbl.Name(a) != "alpha" || tbl.Name(b) != "beta" {
		t.Fatalf("Name did not round-trip: Name(a)=%q Name(b)=%q", tbl.Name(a), tbl.Name(b))
	}
}

func TestNamePanicsOnOutOfRangeID(t *testing.T) {
	tbl := NewAtomTable()
	defer func() {
		if recover() == nil {
			t.Fatal("expected Name to panic on an unallocated id")
		}
	}()
	tbl.Name(AtomID(9999))
}
