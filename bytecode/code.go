package bytecode

import "math/big"

// PredicateKey identifies a predicate in the code repository:
// (module, name, arity) → CodeIndex.
type PredicateKey struct {
	Module string
	Name   string
	Arity  int
}

// ConstDefKind tags the raw, not-yet-interned representation of a
// compiled constant, the form the (out-of-scope) compiler hands the
// engine across the Compiler→Engine boundary.
type ConstDefKind uint8

const (
	ConstDefAtom ConstDefKind = iota
	ConstDefInt
	ConstDefBigInt
	ConstDefRat
	ConstDefFloat
	ConstDefChar
	ConstDefEmptyList
)

type ConstDef struct {
	Kind  ConstDefKind
	Atom  string
	Int   int64
	Big   *big.Int
	RatN  *big.Int
	RatD  *big.Int
	Float float64
	Char  rune
}

func AtomConst(name string) ConstDef   { return ConstDef{Kind: ConstDefAtom, Atom: name} }
func IntConst(i int64) ConstDef        { return ConstDef{Kind: ConstDefInt, Int: i} }
func FloatConst(f float64) ConstDef    { return ConstDef{Kind: ConstDefFloat, Float: f} }
func CharConst(r rune) ConstDef        { return ConstDef{Kind: ConstDefChar, Char: r} }
func EmptyListConst() ConstDef         { return ConstDef{Kind: ConstDefEmptyList} }

// StructDef names a functor/arity pair referenced by get_structure/
// put_structure via FlagStr.
type StructDef struct {
	Name  string
	Arity int
}

// IndexKey is the precomputed first-argument indexing key for one
// clause: which arm of switch_on_term it falls under,
// and — for the Con/Str arms — the hash key within that arm.
type IndexKey struct {
	Kind    IndexKeyKind
	Atom    string // for IndexConst over an atom
	Int     int64  // for IndexConst over a small int; valid iff IsInt
	IsInt   bool
	Functor string // for IndexStruct
	Arity   int    // for IndexStruct
}

type IndexKeyKind uint8

const (
	IndexVar IndexKeyKind = iota
	IndexConst
	IndexList
	IndexStruct
)

// ClauseEntry records where one compiled clause begins within its
// predicate's combined Code vector, plus the metadata the indexing and
// retract machinery need without re-disassembling bytecode.
type ClauseEntry struct {
	Offset      int
	NumPermVars int
	Key         IndexKey
	Erased      bool // logical-update-view tombstone
}

// SwitchEntry is one arm of a switch_on_constant/switch_on_structure
// jump table: Target is an offset relative to the
// owning PredicateDef's Code, resolved to an absolute engine.Code
// index at load time.
type SwitchEntry struct {
	Key    IndexKey
	Target uint64
}

// SwitchTable backs one switch_on_constant/switch_on_structure
// instruction: a hash from first-argument key to clause arm, plus a
// Default arm taken when no entry matches (the tie-break "fall through
// to the variable chain" case).
type SwitchTable struct {
	Entries []SwitchEntry
	Default uint64
}

// PredicateDef is one entry of the code repository:
// all clauses of (module, name, arity), laid out as a single Code
// vector with an indexing header followed by the try/retry/trust chain
// and the clauses themselves, plus the per-predicate constant and
// structure tables the clauses' FlagCon/FlagStr operands index into.
type PredicateDef struct {
	Key         PredicateKey
	Code        Code
	Consts      []ConstDef
	Structs     []StructDef
	Switches    []SwitchTable
	// CallRefs is the table OpCall/OpExecute operands index into (the
	// callee's (module, name, arity)), flattened to a repo-global pool
	// and relocated at load time exactly like Consts/Structs.
	CallRefs    []PredicateKey
	Clauses     []ClauseEntry
	IsDynamic   bool
	IsMultifile bool
}

// OperatorDecl is one entry of the operator table:
// (name, priority 0..1200, associativity).
type OperatorDecl struct {
	Name    string
	Priority int
	Type    string // xfx, xfy, yfx, xf, yf, fx, fy
}

// ExpansionClause is an opaque term/goal-expansion clause attached to a
// module. The core treats these as data handed
// back to the compiler on re-entry; it does not interpret
// them itself.
type ExpansionClause struct {
	Kind string // "term_expansion" | "goal_expansion"
	Head PredicateKey
}

// Unit is the compiled artifact the engine consumes from the compiler:
// one or more predicates plus the operator and
// expansion declarations of the module(s) they belong to.
type Unit struct {
	Predicates []*PredicateDef
	Operators  []OperatorDecl
	Expansions []ExpansionClause
}
