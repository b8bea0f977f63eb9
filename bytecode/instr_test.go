package bytecode

import "testing"

func TestNewInstrPacksOperandsByCount(t *testing.T) {
	cases := []struct {
		operands []uint64
		wantA, wantB, wantC, wantD uint64
	}{
		{nil, 0, 0, 0, 0},
		{[]uint64{1}, 1, 0, 0, 0},
		{[]uint64{1, 2}, 1, 2, 0, 0},
		{[]uint64{1, 2, 3}, 1, 2, 3, 0},
		{[]uint64{1, 2, 3, 4}, 1, 2, 3, 4},
	}
	for _, c := range cases {
		i := NewInstr(OpGetConstant, FlagCon, c.operands...)
		if i.A != c.wantA || i.B != c.wantB || i.C != c.wantC || i.D != c.wantD {
			t.Fatalf("NewInstr(%v) = %+v, want A=%d B=%d C=%d D=%d",
				c.operands, i, c.wantA, c.wantB, c.wantC, c.wantD)
		}
	}
}

func TestOpcodeStringAndNewOpcodeRoundTrip(t *testing.T) {
	for op := OpNoop; op < opcodeCount; op++ {
		name := op.String()
		if name == "opcode?" {
			t.Fatalf("opcode %d has no mnemonic", op)
		}
		if got := NewOpcode(name); got != op {
			t.Fatalf("NewOpcode(%q) = %v, want %v", name, got, op)
		}
	}
}

func TestNewOpcodePanicsOnUnknownMnemonic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected NewOpcode to panic on an unknown mnemonic")
		}
	}()
	NewOpcode("not_a_real_opcode")
}

func TestFlagStringAndNewFlagRoundTrip(t *testing.T) {
	for f := FlagNone; f <= FlagJumpBackward; f++ {
		name := f.String()
		if got := NewFlag(name); got != f {
			t.Fatalf("NewFlag(%q) = %v, want %v", name, got, f)
		}
	}
}

func TestCodeStringIncludesEveryInstruction(t *testing.T) {
	c := Code{
		NewInstr(OpTryMeElse, FlagNone, 5, 1),
		NewInstr(OpGetConstant, FlagCon, 0, 0),
		NewInstr(OpProceed, FlagNone),
	}
	s := c.String()
	for _, want := range []string{"try_me_else", "get_constant", "proceed"} {
		if !contains(s, want) {
			t.Fatalf("Code.String() = %q, missing %q", s, want)
		}
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
