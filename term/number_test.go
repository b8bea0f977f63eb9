package term

import (
	"math/big"
	"testing"
)

func TestNumberCompareMixedExactAndFloat(t *testing.T) {
	cases := []struct {
		a, b Number
		want int
	}{
		{Int(3), Int(5), -1},
		{Int(5), Int(3), 1},
		{Int(5), Int(5), 0},
		{Int(2), Flt(2.0), 0},
		{Flt(1.5), Int(1), 1},
		{Rat(big.NewRat(1, 2)), Flt(0.5), 0},
	}
	for _, c := range cases {
		if got := c.a.Compare(c.b); got != c.want {
			t.Fatalf("%v.Compare(%v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestNumberIsZeroAndSign(t *testing.T) {
	if !Int(0).IsZero() {
		t.Fatal("Int(0) should be zero")
	}
	if Int(0).Sign() != 0 {
		t.Fatal("Int(0) should have sign 0")
	}
	if Int(-7).Sign() != -1 {
		t.Fatal("Int(-7) should have sign -1")
	}
	if Flt(3.5).Sign() != 1 {
		t.Fatal("Flt(3.5) should have sign 1")
	}
	if !Rat(big.NewRat(0, 1)).IsZero() {
		t.Fatal("Rat(0/1) should be zero")
	}
}

func TestNumberNormalizeCollapsesIntegralRat(t *testing.T) {
	n := Rat(big.NewRat(6, 3))
	got := n.Normalize()
	if got.Kind != NumInt {
		t.Fatalf("expected an integral rational to normalize to NumInt, got kind %v", got.Kind)
	}
	if got.Int.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("expected normalized value 2, got %v", got.Int)
	}
}

func TestNumberNormalizeLeavesNonIntegralRatAlone(t *testing.T) {
	n := Rat(big.NewRat(1, 3))
	got := n.Normalize()
	if got.Kind != NumRat {
		t.Fatalf("expected a non-integral rational to stay NumRat, got kind %v", got.Kind)
	}
}

func TestNumberStringFormatting(t *testing.T) {
	if Int(42).String() != "42" {
		t.Fatalf("Int(42).String() = %q", Int(42).String())
	}
	if Rat(big.NewRat(1, 3)).String() != "1/3" {
		t.Fatalf("Rat(1/3).String() = %q", Rat(big.NewRat(1, 3)).String())
	}
	if Flt(2.0).String() != "2.0" {
		t.Fatalf("Flt(2.0).String() = %q, want a trailing .0", Flt(2.0).String())
	}
}

func TestNumberAsFloatAgreesAcrossKinds(t *testing.T) {
	if Int(2).AsFloat() != 2.0 {
		t.Fatalf("Int(2).AsFloat() = %v", Int(2).AsFloat())
	}
	if Rat(big.NewRat(1, 2)).AsFloat() != 0.5 {
		t.Fatalf("Rat(1/2).AsFloat() = %v", Rat(big.NewRat(1, 2)).AsFloat())
	}
}
