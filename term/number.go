package term

import (
	"fmt"
	"math/big"
)

// NumKind tags the active alternative of Number.
type NumKind uint8

const (
	NumInt NumKind = iota
	NumRat
	NumFloat
)

// Number is the numeric tower of the arithmetic evaluator:
// arbitrary-precision integer, rational, or IEEE-754 double.
// math/big backs Int and Rat — see DESIGN.md for why no third-party
// library earns a place here instead.
type Number struct {
	Kind  NumKind
	Int   *big.Int
	Rat   *big.Rat
	Float float64
}

func Int(i int64) Number      { return Number{Kind: NumInt, Int: big.NewInt(i)} }
func BigInt(i *big.Int) Number { return Number{Kind: NumInt, Int: i} }
func Rat(r *big.Rat) Number   { return Number{Kind: NumRat, Rat: r} }
func Flt(f float64) Number    { return Number{Kind: NumFloat, Float: f} }

func (n Number) IsZero() bool {
	switch n.Kind {
	case NumInt:
		return n.Int.Sign() == 0
	case NumRat:
		return n.Rat.Sign() == 0
	default:
		return n.Float == 0
	}
}

func (n Number) Sign() int {
	switch n.Kind {
	case NumInt:
		return n.Int.Sign()
	case NumRat:
		return n.Rat.Sign()
	default:
		switch {
		case n.Float < 0:
			return -1
		case n.Float > 0:
			return 1
		default:
			return 0
		}
	}
}

func (n Number) AsFloat() float64 {
	switch n.Kind {
	case NumInt:
		f, _ := new(big.Float).SetInt(n.Int).Float64()
		return f
	case NumRat:
		f, _ := n.Rat.Float64()
		return f
	default:
		return n.Float
	}
}

func (n Number) AsRat() *big.Rat {
	switch n.Kind {
	case NumInt:
		return new(big.Rat).SetInt(n.Int)
	case NumRat:
		return n.Rat
	default:
		r := new(big.Rat)
		r.SetFloat64(n.Float)
		return r
	}
}

// Normalize reduces a Rat whose denominator is 1 back to an Int, the
// way the original Scryer printer treats `N rdiv 1` as the integer N.
func (n Number) Normalize() Number {
	if n.Kind == NumRat && n.Rat.IsInt() {
		return Int64Number(n.Rat.Num())
	}
	return n
}

func Int64Number(i *big.Int) Number { return Number{Kind: NumInt, Int: new(big.Int).Set(i)} }

func (n Number) String() string {
	switch n.Kind {
	case NumInt:
		return n.Int.String()
	case NumRat:
		return fmt.Sprintf("%s/%s", n.Rat.Num().String(), n.Rat.Denom().String())
	default:
		return formatFloat(n.Float)
	}
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	for _, r := range s {
		if r == '.' || r == 'e' || r == 'E' {
			return s
		}
	}
	return s + ".0"
}

// Compare implements the numeric ordering used both by arithmetic
// comparison operators and by the "within numbers, by value" clause of
// the standard order of terms: mixed types compare as
// reals unless both sides are exact (Int or Rat), in which case the
// comparison stays exact.
func (n Number) Compare(o Number) int {
	if n.Kind == NumFloat || o.Kind == NumFloat {
		a, b := n.AsFloat(), o.AsFloat()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return n.AsRat().Cmp(o.AsRat())
}
