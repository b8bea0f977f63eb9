package engine

import (
	"github.com/hashicorp/go-hclog"
	"github.com/prolog-wam/engine/bytecode"
	"github.com/prolog-wam/engine/term"
)

// DoubleQuotesMode selects the representation of "..." literals
//.
type DoubleQuotesMode uint8

const (
	DoubleQuotesChars DoubleQuotesMode = iota
	DoubleQuotesAtom
	DoubleQuotesCodes
)

// Machine is the single owned engine object: it holds all stacks,
// the heap, registers, PC, and flags. It holds no random-number
// generator (arith.go's `random` evaluates to a fixed value). Modules
// and code repository live on it. No process-level globals.
type Machine struct {
	Heap         *Heap
	Trail        *Trail
	Env          *EnvStack
	ChoicePoints *ChoicePointStack
	Regs         Registers
	Attrs        *AttrStore
	Atoms        *term.AtomTable
	Repo         *CodeRepo

	Code bytecode.Code // global code vector

	PC PC
	E  uint64 // current environment index, or NoEnv
	B  uint64 // current (topmost live) choice point index, or NoCP
	B0 uint64 // choice-point depth at entry to the running clause (shallow cut)
	CP PC     // continuation-pointer register, live between allocate and call

	Fail bool // the fail flag driving backtrack() on the next loop iteration

	// unifyQueue/writeAddr/writeIdx/inUnifyWrite back the two argument
	// modes get_list/get_structure switch into and unify_*/set_*
	// consume. A raw S-register heap
	// cursor, as classic WAM texts use, can't address
	// TagPartialString's synthesized, non-contiguous cells uniformly
	// with TagLst/TagStr, so read mode instead drains a small queue of
	// already-decomposed argument cells and write mode instead bumps a
	// (heap address, offset) cursor into freshly reserved heap cells.
	unifyQueue    []term.Cell
	inUnifyWrite  bool
	writeAddr     uint64
	writeIdx      uint64

	OccursCheck  bool
	DoubleQuotes DoubleQuotesMode

	InferenceCount uint64 // predicate calls resolved by invokeCall, for call_with_inference_limit
	budgets        []*inferenceBudget

	Streams Streams
	Log     hclog.Logger

	// dispatchLog/backtrackLog/loadLog are named children of Log,
	// computed once at construction (hclog.Logger.Named is cheap but
	// there's no reason to re-derive it on every dispatch-loop
	// iteration or backtrack).
	dispatchLog  hclog.Logger
	backtrackLog hclog.Logger
	loadLog      hclog.Logger

	ball *Ball // the "ball stub" of the innermost pending throw, if any

	// natives backs PCNative: a resumption point for an in-flight
	// meta-call (findall/catch/call/N/setup_call_cleanup) is a Go
	// closure appended here, addressed by PC{Kind: PCNative, Index: i}
	// the way a real WAM gives a meta-call a synthetic return address
	//.
	natives []nativeFn

	catchFrames []catchFrame // active catch/3 scopes, innermost last

	attrHooks map[string]AttrHook // module name -> registered attr_unify_hook (see attrhooks.go)
}

// nativeFn is one PCNative resumption closure. It runs synchronously
// inside Machine.run's flat dispatch loop — never recursively re-enters
// the loop — and must leave m.PC (and m.Fail, if failing) set before
// returning.
type nativeFn func(m *Machine)

// addNative registers a one-shot resumption closure and returns the PC
// that invokes it.
func (m *Machine) addNative(fn nativeFn) PC {
	idx := len(m.natives)
	m.natives = append(m.natives, fn)
	return PC{Kind: PCNative, Index: idx}
}

// NewMachine constructs an engine through a functional-options
// builder: each Option sets one engine setting (a stream binding, the
// occurs check, the double_quotes mode, the logger, or the inference
// budget) at engine construction.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		Heap:         NewHeap(4096),
		Trail:        NewTrail(1024),
		Env:          NewEnvStack(256),
		ChoicePoints: NewChoicePointStack(256),
		Attrs:        NewAttrStore(),
		Atoms:        term.NewAtomTable(),
		Repo:         NewCodeRepo(),
		E:            NoEnv,
		B:            NoCP,
		B0:           NoCP,
		CP:           Halt,
		PC:           Halt,
		Streams:      defaultStreams(),
		Log:          hclog.NewNullLogger(),
	}
	for _, o := range opts {
		o(m)
	}
	m.dispatchLog = m.subLogger("dispatch")
	m.backtrackLog = m.subLogger("backtrack")
	m.loadLog = m.subLogger("load")
	registerBuiltins(m.Repo)
	return m
}
