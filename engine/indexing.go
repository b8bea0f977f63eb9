package engine

import (
	"strconv"

	"github.com/prolog-wam/engine/bytecode"
	"github.com/prolog-wam/engine/term"
)

// encodeIndexKey turns a compile-time bytecode.IndexKey into the
// hashable string resolvedSwitchTable.byKey is keyed by: hash into the
// constant table, or hash on (functor name, arity).
func encodeIndexKey(k bytecode.IndexKey) string {
	switch k.Kind {
	case bytecode.IndexConst:
		if k.IsInt {
			return "i" + strconv.FormatInt(k.Int, 10)
		}
		return "a" + k.Atom
	case bytecode.IndexList:
		return "l"
	case bytecode.IndexStruct:
		return "s" + k.Functor + "/" + strconv.Itoa(k.Arity)
	default:
		return "v"
	}
}

// runtimeIndexKey computes the same kind of key for a dereferenced A1
// cell at dispatch time, so switch_on_constant/switch_on_structure can
// look it up in the resolved table built at load time.
func (m *Machine) runtimeIndexKey(c term.Cell) (string, bool) {
	switch c.Tag {
	case term.TagCon:
		if a, ok := c.IsConAtom(); ok {
			return "a" + m.Atoms.Name(a), true
		}
		if i, ok := c.IsConSmallInt(); ok {
			return "i" + strconv.FormatInt(i, 10), true
		}
		if r, ok := c.IsConChar(); ok {
			return "a" + string(r), true
		}
		return "", false
	case term.TagNum:
		n := m.Heap.Number(c)
		return "i" + n.String(), true
	case term.TagLst, term.TagPartialString:
		return "l", true
	case term.TagStr:
		f, ar := m.Heap.At(c.A).FunctorParts()
		return "s" + m.Atoms.Name(f) + "/" + strconv.Itoa(ar), true
	}
	return "", false
}

// switchArm classifies a dereferenced A1 for switch_on_term:
// unbound -> Var, Con/Num -> Con, Lst/PartialString -> Lst,
// Str -> Str.
func switchArm(c term.Cell) int {
	switch {
	case IsUnboundRef(c):
		return 0
	case c.Tag == term.TagCon || c.Tag == term.TagNum:
		return 1
	case c.Tag == term.TagLst || c.Tag == term.TagPartialString:
		return 2
	default:
		return 3
	}
}
