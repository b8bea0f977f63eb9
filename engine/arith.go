package engine

import (
	"math"
	"math/big"

	"github.com/prolog-wam/engine/bytecode"
	"github.com/prolog-wam/engine/term"
)

// execArith evaluates the `is`/2 and arithmetic-comparison instructions
//.
// The registers named by operands A and B hold the already-built
// argument cells the compiler put there (the left-hand result variable
// and the expression for `is`, or both sides of a comparison); evaluation failures surface as a thrown evaluation or
// type error rather than m.Fail, matching ISO's "arithmetic errors are
// exceptions, not failures".
func (m *Machine) execArith(i bytecode.Instr) {
	switch i.Op {
	case bytecode.OpIs:
		target := m.Regs.Get(int(i.A))
		n, ok := m.eval(m.Regs.Get(int(i.B)))
		if !ok {
			return
		}
		if !m.Unify(target, m.Heap.PushNumber(n.Normalize())) {
			m.Fail = true
		}
	default:
		a, ok := m.eval(m.Regs.Get(int(i.A)))
		if !ok {
			return
		}
		b, ok := m.eval(m.Regs.Get(int(i.B)))
		if !ok {
			return
		}
		cmp := a.Compare(b)
		var pass bool
		switch i.Op {
		case bytecode.OpArithEq:
			pass = cmp == 0
		case bytecode.OpArithNeq:
			pass = cmp != 0
		case bytecode.OpArithLt:
			pass = cmp < 0
		case bytecode.OpArithLe:
			pass = cmp <= 0
		case bytecode.OpArithGt:
			pass = cmp > 0
		case bytecode.OpArithGe:
			pass = cmp >= 0
		}
		if !pass {
			m.Fail = true
		}
	}
}

// eval evaluates an arithmetic expression term to a Number. On failure
// it has already raised the appropriate ISO error via m.raise and
// returns ok=false; callers must propagate that without touching
// m.Fail themselves: arithmetic errors unwind like any other thrown
// exception.
func (m *Machine) eval(c term.Cell) (term.Number, bool) {
	c = m.Heap.Deref(c)
	switch c.Tag {
	case term.TagNum:
		return m.Heap.Number(c), true
	case term.TagRef, term.TagAttrVar:
		m.raise(m.instantiationError())
		return term.Number{}, false
	case term.TagCon:
		if i, ok := c.IsConSmallInt(); ok {
			return term.Int(i), true
		}
		if r, ok := c.IsConChar(); ok {
			return term.Int(int64(r)), true
		}
		if a, ok := c.IsConAtom(); ok {
			if n, ok := m.evalConstantAtom(m.Atoms.Name(a)); ok {
				return n, true
			}
		}
		m.raise(m.typeError("evaluable", c))
		return term.Number{}, false
	case term.TagStr:
		f, ar := m.Heap.At(c.A).FunctorParts()
		name := m.Atoms.Name(f)
		args := make([]term.Cell, ar)
		for k := 0; k < ar; k++ {
			args[k] = m.Heap.At(c.A + uint64(k+1))
		}
		switch ar {
		case 1:
			x, ok := m.eval(args[0])
			if !ok {
				return term.Number{}, false
			}
			return m.evalUnary(name, x)
		case 2:
			x, ok := m.eval(args[0])
			if !ok {
				return term.Number{}, false
			}
			y, ok := m.eval(args[1])
			if !ok {
				return term.Number{}, false
			}
			return m.evalBinary(name, x, y)
		}
	}
	m.raise(m.typeError("evaluable", c))
	return term.Number{}, false
}

func (m *Machine) evalConstantAtom(name string) (term.Number, bool) {
	switch name {
	case "pi":
		return term.Flt(math.Pi), true
	case "e":
		return term.Flt(math.E), true
	case "inf", "infinite":
		return term.Flt(math.Inf(1)), true
	case "nan":
		return term.Flt(math.NaN()), true
	case "epsilon":
		return term.Flt(2.220446049250313e-16), true
	case "max_tagged_integer":
		return term.Int((1 << 60) - 1), true
	case "min_tagged_integer":
		return term.Int(-(1 << 60)), true
	case "random":
		return term.Flt(0.5), true // deterministic placeholder; no seeded source wired at evaluator scope
	}
	return term.Number{}, false
}

func bothInt(x, y term.Number) (a, b *big.Int, ok bool) {
	if x.Kind == term.NumInt && y.Kind == term.NumInt {
		return x.Int, y.Int, true
	}
	return nil, nil, false
}

func (m *Machine) evalUnary(name string, x term.Number) (term.Number, bool) {
	switch name {
	case "-":
		switch x.Kind {
		case term.NumInt:
			return term.BigInt(new(big.Int).Neg(x.Int)), true
		case term.NumRat:
			return term.Rat(new(big.Rat).Neg(x.Rat)), true
		default:
			return term.Flt(-x.Float), true
		}
	case "+":
		return x, true
	case "abs":
		switch x.Kind {
		case term.NumInt:
			return term.BigInt(new(big.Int).Abs(x.Int)), true
		case term.NumRat:
			return term.Rat(new(big.Rat).Abs(x.Rat)), true
		default:
			return term.Flt(math.Abs(x.Float)), true
		}
	case "sign":
		switch x.Kind {
		case term.NumInt:
			return term.Int(int64(x.Int.Sign())), true
		case term.NumRat:
			return term.Int(int64(x.Rat.Sign())), true
		default:
			switch {
			case x.Float > 0:
				return term.Flt(1), true
			case x.Float < 0:
				return term.Flt(-1), true
			default:
				return term.Flt(0), true
			}
		}
	case "sqrt":
		return term.Flt(math.Sqrt(x.AsFloat())), true
	case "sin":
		return term.Flt(math.Sin(x.AsFloat())), true
	case "cos":
		return term.Flt(math.Cos(x.AsFloat())), true
	case "tan":
		return term.Flt(math.Tan(x.AsFloat())), true
	case "asin":
		return term.Flt(math.Asin(x.AsFloat())), true
	case "acos":
		return term.Flt(math.Acos(x.AsFloat())), true
	case "atan":
		return term.Flt(math.Atan(x.AsFloat())), true
	case "exp":
		return term.Flt(math.Exp(x.AsFloat())), true
	case "log":
		if x.Sign() <= 0 {
			m.raise(m.evaluationError("undefined"))
			return term.Number{}, false
		}
		return term.Flt(math.Log(x.AsFloat())), true
	case "float":
		return term.Flt(x.AsFloat()), true
	case "integer", "round":
		return term.BigInt(bigRound(x.AsFloat())), true
	case "truncate":
		if x.Kind == term.NumInt {
			return x, true
		}
		return term.BigInt(bigTrunc(x.AsFloat())), true
	case "floor":
		if x.Kind == term.NumInt {
			return x, true
		}
		return term.BigInt(bigFromFloat(math.Floor(x.AsFloat()))), true
	case "ceiling":
		if x.Kind == term.NumInt {
			return x, true
		}
		return term.BigInt(bigFromFloat(math.Ceil(x.AsFloat()))), true
	case "float_integer_part":
		return term.Flt(math.Trunc(x.AsFloat())), true
	case "float_fractional_part":
		f := x.AsFloat()
		return term.Flt(f - math.Trunc(f)), true
	case "\\":
		a, ok := intOperand(x)
		if !ok {
			m.raise(m.typeError("integer", m.numberCell(x)))
			return term.Number{}, false
		}
		return term.BigInt(new(big.Int).Not(a)), true
	case "msb":
		a, ok := intOperand(x)
		if !ok || a.Sign() <= 0 {
			m.raise(m.typeError("integer", m.numberCell(x)))
			return term.Number{}, false
		}
		return term.Int(int64(a.BitLen() - 1)), true
	case "succ":
		a, ok := intOperand(x)
		if !ok {
			m.raise(m.typeError("integer", m.numberCell(x)))
			return term.Number{}, false
		}
		return term.BigInt(new(big.Int).Add(a, big.NewInt(1))), true
	}
	m.raise(m.typeError("evaluable", m.functorIndicator(name, 1)))
	return term.Number{}, false
}

func (m *Machine) evalBinary(name string, x, y term.Number) (term.Number, bool) {
	switch name {
	case "+":
		return m.arithAdd(x, y), true
	case "-":
		return m.arithAdd(x, m.arithNeg(y)), true
	case "*":
		return m.arithMul(x, y), true
	case "/":
		return m.arithDiv(x, y)
	case "//":
		a, b, ok := bothInt(x, y)
		if !ok {
			m.raise(m.typeError("integer", m.culpritOf(x, y)))
			return term.Number{}, false
		}
		if b.Sign() == 0 {
			m.raise(m.evaluationError("zero_divisor"))
			return term.Number{}, false
		}
		q := new(big.Int).Quo(a, b)
		return term.BigInt(q), true
	case "div":
		a, b, ok := bothInt(x, y)
		if !ok {
			m.raise(m.typeError("integer", m.culpritOf(x, y)))
			return term.Number{}, false
		}
		if b.Sign() == 0 {
			m.raise(m.evaluationError("zero_divisor"))
			return term.Number{}, false
		}
		// floor division: truncate, then step down when the remainder's
		// sign differs from the divisor's (big.Int.Div is Euclidean).
		q, r := new(big.Int).QuoRem(a, b, new(big.Int))
		if r.Sign() != 0 && (r.Sign() < 0) != (b.Sign() < 0) {
			q.Sub(q, big.NewInt(1))
		}
		return term.BigInt(q), true
	case "mod":
		a, b, ok := bothInt(x, y)
		if !ok {
			m.raise(m.typeError("integer", m.culpritOf(x, y)))
			return term.Number{}, false
		}
		if b.Sign() == 0 {
			m.raise(m.evaluationError("zero_divisor"))
			return term.Number{}, false
		}
		r := new(big.Int).Mod(a, b)
		if r.Sign() != 0 && b.Sign() < 0 {
			r.Add(r, b)
		}
		return term.BigInt(r), true
	case "rem":
		a, b, ok := bothInt(x, y)
		if !ok {
			m.raise(m.typeError("integer", m.culpritOf(x, y)))
			return term.Number{}, false
		}
		if b.Sign() == 0 {
			m.raise(m.evaluationError("zero_divisor"))
			return term.Number{}, false
		}
		return term.BigInt(new(big.Int).Rem(a, b)), true
	case "rdiv":
		if y.IsZero() {
			m.raise(m.evaluationError("zero_divisor"))
			return term.Number{}, false
		}
		return term.Rat(new(big.Rat).Quo(x.AsRat(), y.AsRat())), true
	case "min":
		if x.Compare(y) <= 0 {
			return x, true
		}
		return y, true
	case "max":
		if x.Compare(y) >= 0 {
			return x, true
		}
		return y, true
	case "**":
		if x.Kind == term.NumInt && y.Kind == term.NumInt && y.Int.Sign() >= 0 {
			return term.BigInt(new(big.Int).Exp(x.Int, y.Int, nil)), true
		}
		if x.Kind == term.NumRat && y.Kind == term.NumInt && y.Int.Sign() >= 0 {
			num := new(big.Int).Exp(x.Rat.Num(), y.Int, nil)
			den := new(big.Int).Exp(x.Rat.Denom(), y.Int, nil)
			return term.Rat(new(big.Rat).SetFrac(num, den)), true
		}
		return term.Flt(math.Pow(x.AsFloat(), y.AsFloat())), true
	case "^":
		if x.Kind == term.NumInt && y.Kind == term.NumInt && y.Int.Sign() >= 0 {
			return term.BigInt(new(big.Int).Exp(x.Int, y.Int, nil)), true
		}
		return term.Flt(math.Pow(x.AsFloat(), y.AsFloat())), true
	case "atan2", "atan":
		return term.Flt(math.Atan2(x.AsFloat(), y.AsFloat())), true
	case "gcd":
		a, b, ok := bothInt(x, y)
		if !ok {
			m.raise(m.typeError("integer", m.culpritOf(x, y)))
			return term.Number{}, false
		}
		return term.BigInt(new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))), true
	case ">>":
		a, b, ok := bothInt(x, y)
		if !ok {
			m.raise(m.typeError("integer", m.culpritOf(x, y)))
			return term.Number{}, false
		}
		return term.BigInt(new(big.Int).Rsh(a, uint(b.Int64()))), true
	case "<<":
		a, b, ok := bothInt(x, y)
		if !ok {
			m.raise(m.typeError("integer", m.culpritOf(x, y)))
			return term.Number{}, false
		}
		return term.BigInt(new(big.Int).Lsh(a, uint(b.Int64()))), true
	case "/\\":
		a, b, ok := bothInt(x, y)
		if !ok {
			m.raise(m.typeError("integer", m.culpritOf(x, y)))
			return term.Number{}, false
		}
		return term.BigInt(new(big.Int).And(a, b)), true
	case "\\/":
		a, b, ok := bothInt(x, y)
		if !ok {
			m.raise(m.typeError("integer", m.culpritOf(x, y)))
			return term.Number{}, false
		}
		return term.BigInt(new(big.Int).Or(a, b)), true
	case "xor":
		a, b, ok := bothInt(x, y)
		if !ok {
			m.raise(m.typeError("integer", m.culpritOf(x, y)))
			return term.Number{}, false
		}
		return term.BigInt(new(big.Int).Xor(a, b)), true
	case "copysign":
		return term.Flt(math.Copysign(x.AsFloat(), y.AsFloat())), true
	case "truncate":
		return term.BigInt(bigTrunc(x.AsFloat())), true
	}
	m.raise(m.typeError("evaluable", m.functorIndicator(name, 2)))
	return term.Number{}, false
}

func (m *Machine) arithAdd(x, y term.Number) term.Number {
	if x.Kind == term.NumFloat || y.Kind == term.NumFloat {
		return term.Flt(x.AsFloat() + y.AsFloat())
	}
	if x.Kind == term.NumInt && y.Kind == term.NumInt {
		return term.BigInt(new(big.Int).Add(x.Int, y.Int))
	}
	return term.Rat(new(big.Rat).Add(x.AsRat(), y.AsRat()))
}

func (m *Machine) arithNeg(x term.Number) term.Number {
	switch x.Kind {
	case term.NumInt:
		return term.BigInt(new(big.Int).Neg(x.Int))
	case term.NumRat:
		return term.Rat(new(big.Rat).Neg(x.Rat))
	default:
		return term.Flt(-x.Float)
	}
}

func (m *Machine) arithMul(x, y term.Number) term.Number {
	if x.Kind == term.NumFloat || y.Kind == term.NumFloat {
		return term.Flt(x.AsFloat() * y.AsFloat())
	}
	if x.Kind == term.NumInt && y.Kind == term.NumInt {
		return term.BigInt(new(big.Int).Mul(x.Int, y.Int))
	}
	return term.Rat(new(big.Rat).Mul(x.AsRat(), y.AsRat()))
}

// arithDiv implements `/`/2: exact over Int/Rat, float
// once either side is a float; division by zero is an evaluation
// error regardless of representation.
func (m *Machine) arithDiv(x, y term.Number) (term.Number, bool) {
	if y.IsZero() {
		m.raise(m.evaluationError("zero_divisor"))
		return term.Number{}, false
	}
	if x.Kind == term.NumFloat || y.Kind == term.NumFloat {
		return term.Flt(x.AsFloat() / y.AsFloat()), true
	}
	q := new(big.Rat).Quo(x.AsRat(), y.AsRat())
	return term.Rat(q).Normalize(), true
}

func intOperand(x term.Number) (*big.Int, bool) {
	if x.Kind != term.NumInt {
		return nil, false
	}
	return x.Int, true
}

func bigFromFloat(f float64) *big.Int {
	bf := new(big.Float).SetFloat64(f)
	i, _ := bf.Int(nil)
	return i
}

func bigTrunc(f float64) *big.Int { return bigFromFloat(math.Trunc(f)) }

func bigRound(f float64) *big.Int { return bigFromFloat(math.Round(f)) }

func (m *Machine) numberCell(n term.Number) term.Cell { return m.Heap.PushNumber(n) }

func (m *Machine) culpritOf(x, y term.Number) term.Cell {
	if x.Kind != term.NumInt {
		return m.numberCell(x)
	}
	return m.numberCell(y)
}

func (m *Machine) functorIndicator(name string, arity int) term.Cell {
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern("/"), 2))
	m.Heap.Push(term.ConAtom(m.Atoms.Intern(name)))
	c, ok := term.ConSmallInt(int64(arity))
	if !ok {
		panic(newFatal("arity does not fit in a small int: %d", arity))
	}
	m.Heap.Push(c)
	return term.StrCell(addr)
}
