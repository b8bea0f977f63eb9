package term

// Tag discriminates the variants of a tagged cell. Kept as
// a dense enum rather than an interface family: dispatch over cell tags
// is meant to be a single decode step, branch-predictor friendly, not
// dynamic dispatch.
type Tag uint8

const (
	// TagRef: reference to heap index H (field A). A self-referential
	// Ref (A == the cell's own heap address) is an unbound variable.
	TagRef Tag = iota
	// TagStr: structure pointer; heap[A] holds a TagFunctor header,
	// heap[A+1 .. A+arity] holds the arguments.
	TagStr
	// TagLst: list cons cell; heap[A] is the head, heap[A+1] the tail.
	TagLst
	// TagCon: inline constant — atom, small integer, or char. See
	// ConAtom/ConSmallInt/ConChar for the packing of A.
	TagCon
	// TagAttrVar: behaves as TagRef (A is the heap index of the
	// variable cell) plus an attribute chain kept in a side table
	// keyed by that same heap index.
	TagAttrVar
	// TagStackRef: pointer to slot I of environment frame E (a
	// permanent variable). A packs (E<<32 | I).
	TagStackRef
	// TagFunctor: only ever appears as heap[h] where h is the target
	// of a TagStr cell. A packs (AtomID<<32 | arity).
	TagFunctor
	// TagNum: a boxed number (big int overflowing the inline small-int
	// range, a rational, or a float) living in the owning Heap's number
	// pool at index A. See engine.Heap.Numbers.
	TagNum
	// TagPartialString: a compact cons-chain view over a Go string
	//: A indexes the owning Heap's string pool,
	// which holds the literal prefix and the open tail Ref.
	TagPartialString
	// TagCutBarrier: not a Prolog term — the value get_level Yi stores
	// in a permanent variable slot, naming a choice-point stack depth
	// for a later cut Yi to truncate back to. Kept as a
	// distinct tag rather than overloading TagCon so it can never be
	// mistaken for user data during unification.
	TagCutBarrier
)

// Cell is the uniform, fixed-size unit of storage for the heap and
// every stack: every heap slot, register, and stack slot
// holds one tagged cell.
type Cell struct {
	Tag Tag
	A   uint64
}

func RefCell(h uint64) Cell      { return Cell{Tag: TagRef, A: h} }
func StrCell(h uint64) Cell      { return Cell{Tag: TagStr, A: h} }
func LstCell(h uint64) Cell      { return Cell{Tag: TagLst, A: h} }
func AttrVarCell(h uint64) Cell  { return Cell{Tag: TagAttrVar, A: h} }
func NumCell(idx uint64) Cell    { return Cell{Tag: TagNum, A: idx} }
func PartialStrCell(idx uint64) Cell { return Cell{Tag: TagPartialString, A: idx} }

func FunctorCell(name AtomID, arity int) Cell {
	return Cell{Tag: TagFunctor, A: uint64(name)<<32 | uint64(uint32(arity))}
}

func (c Cell) FunctorParts() (AtomID, int) {
	return AtomID(c.A >> 32), int(uint32(c.A))
}

func StackRefCell(env uint64, slot uint32) Cell {
	return Cell{Tag: TagStackRef, A: env<<32 | uint64(slot)}
}

func (c Cell) StackRefParts() (env uint64, slot uint32) {
	return c.A >> 32, uint32(c.A)
}

// constKind is packed into the top two bits of a TagCon cell's payload.
type constKind uint64

const (
	constAtom constKind = iota
	constInt
	constChar
)

const constKindShift = 62
const constKindMask = uint64(0x3) << constKindShift

func ConAtom(id AtomID) Cell {
	return Cell{Tag: TagCon, A: uint64(constAtom)<<constKindShift | uint64(id)}
}

// ConSmallInt packs an int that fits in 61 bits (zigzag-encoded so
// negative values round-trip) directly into the cell, avoiding a
// number-pool allocation for the overwhelmingly common case of small
// integer constants compiled into clause heads.
func ConSmallInt(i int64) (Cell, bool) {
	if i > (1<<60)-1 || i < -(1<<60) {
		return Cell{}, false
	}
	zz := uint64((i << 1) ^ (i >> 63))
	return Cell{Tag: TagCon, A: uint64(constInt)<<constKindShift | zz}, true
}

func ConChar(r rune) Cell {
	return Cell{Tag: TagCon, A: uint64(constChar)<<constKindShift | uint64(uint32(r))}
}

func EmptyList() Cell { return ConAtom(AtomEmptyList) }

func CutBarrierCell(cpIndex uint64) Cell { return Cell{Tag: TagCutBarrier, A: cpIndex} }

func (c Cell) IsCutBarrier() (uint64, bool) {
	if c.Tag != TagCutBarrier {
		return 0, false
	}
	return c.A, true
}

// IsConAtom/IsConSmallInt/IsConChar report which inline constant a TagCon cell
// holds, and its decoded value.
func (c Cell) IsConAtom() (AtomID, bool) {
	if c.Tag != TagCon || constKind(c.A>>constKindShift) != constAtom {
		return 0, false
	}
	return AtomID(c.A &^ constKindMask), true
}

func (c Cell) IsConSmallInt() (int64, bool) {
	if c.Tag != TagCon || constKind(c.A>>constKindShift) != constInt {
		return 0, false
	}
	zz := c.A &^ constKindMask
	i := int64(zz>>1) ^ -int64(zz&1)
	return i, true
}

func (c Cell) IsConChar() (rune, bool) {
	if c.Tag != TagCon || constKind(c.A>>constKindShift) != constChar {
		return 0, false
	}
	return rune(c.A &^ constKindMask), true
}

// Equal is shallow, tag+payload equality — used for Con/Con and
// Functor/Functor comparisons during unification, never
// for deep structural equality (that's unify.go/order.go's job).
func (c Cell) Equal(o Cell) bool {
	return c.Tag == o.Tag && c.A == o.A
}
