package term

import "testing"

func TestConSmallIntRoundTripsSignedValues(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 12345, -12345, (1 << 60) - 1, -(1 << 60)} {
		c, ok := ConSmallInt(n)
		if !ok {
			t.Fatalf("ConSmallInt(%d): expected to fit, got ok=false", n)
		}
		got, ok := c.IsConSmallInt()
		if !ok {
			t.Fatalf("IsConSmallInt on cell built from %d: expected ok", n)
		}
		if got != n {
			t.Fatalf("round trip of %d produced %d", n, got)
		}
	}
}

func TestConSmallIntRejectsOutOfRange(t *testing.T) {
	if _, ok := ConSmallInt(1 << 60); ok {
		t.Fatal("expected 2^60 to overflow the inline range")
	}
	if _, ok := ConSmallInt(-(1<<60) - 1); ok {
		t.Fatal("expected -2^60-1 to overflow the inline range")
	}
}

func TestConAtomIsConAtomRoundTrip(t *testing.T) {
	c := ConAtom(AtomID(42))
	id, ok := c.IsConAtom()
	if !ok || id != 42 {
		t.Fatalf("expected atom id 42, got %v ok=%v", id, ok)
	}
	if _, ok := c.IsConSmallInt(); ok {
		t.Fatal("an atom cell must not also decode as a small int")
	}
}

func TestConCharRoundTrip(t *testing.T) {
	c := ConChar('λ')
	r, ok := c.IsConChar()
	if !ok || r != 'λ' {
		t.Fatalf("expected 'λ', got %q ok=%v", r, ok)
	}
}

func TestFunctorCellRoundTrip(t *testing.T) {
	c := FunctorCell(AtomID(7), 3)
	name, arity := c.FunctorParts()
	if name != 7 || arity != 3 {
		t.Fatalf("expected (7, 3), got (%v, %v)", name, arity)
	}
}

func TestStackRefCellRoundTrip(t *testing.T) {
	c := StackRefCell(99, 4)
	env, slot := c.StackRefParts()
	if env != 99 || slot != 4 {
		t.Fatalf("expected (99, 4), got (%v, %v)", env, slot)
	}
}

func TestEqualComparesTagAndPayload(t *testing.T) {
	a := RefCell(10)
	b := RefCell(10)
	c := RefCell(11)
	if !a.Equal(b) {
		t.Fatal("expected equal refs to compare equal")
	}
	if a.Equal(c) {
		t.Fatal("expected different addresses to compare unequal")
	}
	if a.Equal(StrCell(10)) {
		t.Fatal("same payload, different tag must not compare equal")
	}
}

func TestEmptyListIsTheFixedAtom(t *testing.T) {
	id, ok := EmptyList().IsConAtom()
	if !ok || id != AtomEmptyList {
		t.Fatalf("expected EmptyList() to decode to AtomEmptyList, got %v ok=%v", id, ok)
	}
}

func TestCutBarrierCellRoundTrip(t *testing.T) {
	c := CutBarrierCell(123)
	idx, ok := c.IsCutBarrier()
	if !ok || idx != 123 {
		t.Fatalf("expected cut barrier index 123, got %v ok=%v", idx, ok)
	}
	if _, ok := StrCell(123).IsCutBarrier(); ok {
		t.Fatal("a non-cut-barrier cell must not decode as one")
	}
}
