package engine

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"
	"github.com/prolog-wam/engine/bytecode"
	"github.com/prolog-wam/engine/term"
)

// CodeIndex is the code-repository value: either
// Undefined (predicate declared but not yet defined) or a resolved
// entry point into Machine.Code.
type CodeIndex struct {
	Defined bool
	Entry   int
}

// compiledPred is the loaded, engine-resident form of a
// bytecode.PredicateDef: the raw def plus its entry point and a copy of
// its clause list; its constant/structure tables are resolved once into
// permanent heap cells (see Heap.Floor). A compiled predicate's clause
// list is not changed after Load: asserta/z/retract act only on the
// dynamic predicates in CodeRepo.dynamics.
type compiledPred struct {
	def     *bytecode.PredicateDef
	entry   int
	clauses []bytecode.ClauseEntry // copied from def at Load
}

// CodeRepo is the code repository: (module, name, arity) → CodeIndex,
// plus the module views (operator declarations, exports). Load does
// not store a Unit's term/goal-expansion clauses.
type CodeRepo struct {
	mu        sync.RWMutex
	preds     map[bytecode.PredicateKey]*compiledPred
	builtins  map[bytecode.PredicateKey]*builtinDef
	Operators []bytecode.OperatorDecl
	exports   map[string]map[string]bool // module -> "name/arity" set

	// switchTables is the repo-global, resolved form of every predicate's
	// bytecode.Switches: switch_on_constant/switch_on_structure
	// instructions carry an index into this slice (rewritten from the
	// predicate-local index the compiler/assembler emitted, see
	// loadPredicateLocked), resolved so dispatch.go never needs to know
	// which predicate a code address belongs to.
	switchTables []resolvedSwitchTable

	// constPool/structPool are the repo-global flattening of every
	// predicate's materialized constant/structure-header cells
	// (term.Cell, living above Heap.Floor — see materializeConst).
	// FlagCon/FlagStr instruction operands are rewritten at load time to
	// index here, the same relocation trick as switchTables.
	constPool  []term.Cell
	structPool []term.Cell
	callRefPool []bytecode.PredicateKey

	// dynamics holds predicates populated entirely through assertz/
	// asserta/retract rather than CodeRepo.Load: since
	// there is no in-scope compiler to turn an asserted runtime term
	// into bytecode, a dynamic predicate's clauses stay uncompiled
	// (Head :- Body) term pairs, tried in order by invokeDynamic
	// against the same copy-on-write discipline Load's clause vector
	// uses for the logical-update view.
	dynamics map[bytecode.PredicateKey]*dynamicPred
}

// dynamicClause is one asserted clause, kept on its own private heap
// (the same "ball stub" trick throw/1 uses) so truncating the live
// heap on backtrack never invalidates it.
type dynamicClause struct {
	Heap   *Heap
	Clause term.Cell // ':-'(Head, Body) — Body is `true` for an asserted fact
}

// dynamicPred is a dynamic predicate's copy-on-write clause list:
// assertz/asserta/retract always replace the slice wholesale rather
// than mutating in place, so a choice point enumerating clauses mid-
// retract keeps iterating the snapshot it started with.
type dynamicPred struct {
	clauses []*dynamicClause
}

// resolvedSwitchTable is bytecode.SwitchTable with every Target/Default
// offset turned into an absolute index into Machine.Code, and every Key
// turned into the hashable string encodeIndexKey produces.
type resolvedSwitchTable struct {
	byKey   map[string]PC
	deflt   PC
}

func NewCodeRepo() *CodeRepo {
	return &CodeRepo{
		preds:    make(map[bytecode.PredicateKey]*compiledPred),
		builtins: make(map[bytecode.PredicateKey]*builtinDef),
		exports:  make(map[string]map[string]bool),
		dynamics: make(map[bytecode.PredicateKey]*dynamicPred),
	}
}

// Load installs a compiled unit:
// appends each predicate's code to the global code vector, resolves
// its constant/structure tables into permanent heap cells, and records
// its code-directory entry. Independent per-predicate failures (e.g. a
// non-multifile predicate whose (module, name, arity) is already loaded
// with a non-dynamic definition) are accumulated as Go errors rather
// than aborting the whole unit.
func (m *Machine) Load(unit bytecode.Unit) error {
	m.Repo.mu.Lock()
	defer m.Repo.mu.Unlock()

	var result LoadResult
	for _, pd := range unit.Predicates {
		if err := m.loadPredicateLocked(pd); err != nil {
			m.loadLog.Warn("skipped predicate", "module", pd.Key.Module, "name", pd.Key.Name, "arity", pd.Key.Arity, "err", err)
			result.addf("loading %s:%s/%d: %v", pd.Key.Module, pd.Key.Name, pd.Key.Arity, err)
			continue
		}
		if m.loadLog.IsDebug() {
			m.loadLog.Debug("loaded predicate", "module", pd.Key.Module, "name", pd.Key.Name, "arity", pd.Key.Arity, "clauses", len(pd.Clauses))
		}
	}
	m.Repo.Operators = append(m.Repo.Operators, unit.Operators...)
	m.Heap.Floor = m.Heap.Top()
	return result.ErrorOrNil()
}

func (m *Machine) loadPredicateLocked(pd *bytecode.PredicateDef) error {
	if existing, ok := m.Repo.preds[pd.Key]; ok && !pd.IsMultifile && !existing.def.IsDynamic {
		return errors.Errorf("redefinition of non-multifile, non-dynamic predicate %s/%d", pd.Key.Name, pd.Key.Arity)
	}

	entry := len(m.Code)
	m.Code = append(m.Code, pd.Code...)

	tableBase := len(m.Repo.switchTables)
	for _, st := range pd.Switches {
		resolved := resolvedSwitchTable{
			byKey: make(map[string]PC, len(st.Entries)),
			deflt: PC{Kind: PCGlobal, Index: entry + int(st.Default)},
		}
		for _, e := range st.Entries {
			resolved.byKey[encodeIndexKey(e.Key)] = PC{Kind: PCGlobal, Index: entry + int(e.Target)}
		}
		m.Repo.switchTables = append(m.Repo.switchTables, resolved)
	}
	// Relocate every intra-predicate jump target emitted relative to the
	// predicate's own code (offset 0) to an absolute index into the
	// shared global Code vector, now that this predicate's block begins
	// at `entry` rather than 0: try/retry/trust
	// chains, switch_on_term's four arms, switch_on_constant/structure's
	// default arm.
	constBase := len(m.Repo.constPool)
	for _, cd := range pd.Consts {
		m.Repo.constPool = append(m.Repo.constPool, m.materializeConst(cd))
	}
	structBase := len(m.Repo.structPool)
	for _, sd := range pd.Structs {
		m.Repo.structPool = append(m.Repo.structPool, term.FunctorCell(m.Atoms.Intern(sd.Name), sd.Arity))
	}
	callBase := len(m.Repo.callRefPool)
	m.Repo.callRefPool = append(m.Repo.callRefPool, pd.CallRefs...)

	for i := range pd.Code {
		instr := &m.Code[entry+i]
		switch instr.Op {
		case bytecode.OpSwitchOnConstant, bytecode.OpSwitchOnStructure:
			instr.A += uint64(tableBase)
			instr.B += uint64(entry)
		case bytecode.OpSwitchOnTerm:
			instr.A += uint64(entry)
			instr.B += uint64(entry)
			instr.C += uint64(entry)
			instr.D += uint64(entry)
		case bytecode.OpTryMeElse, bytecode.OpRetryMeElse:
			instr.A += uint64(entry)
		case bytecode.OpTry, bytecode.OpRetry, bytecode.OpTrust:
			instr.A += uint64(entry)
			instr.C += uint64(entry)
		case bytecode.OpJmpBy:
			// relative to its own position, not the predicate block — left alone.
		case bytecode.OpCall, bytecode.OpExecute, bytecode.OpCallBuiltin:
			instr.A += uint64(callBase)
		case bytecode.OpGetConstant, bytecode.OpPutConstant, bytecode.OpUnifyConstant, bytecode.OpSetConstant:
			if instr.Flag == bytecode.FlagCon {
				rewriteConstOperand(instr, uint64(constBase))
			}
		}
		if instr.Op == bytecode.OpGetStructure || instr.Op == bytecode.OpPutStructure {
			if instr.Flag == bytecode.FlagStr {
				instr.B += uint64(structBase)
			}
		}
	}

	m.Repo.preds[pd.Key] = &compiledPred{
		def:     pd,
		entry:   entry,
		clauses: append([]bytecode.ClauseEntry(nil), pd.Clauses...),
	}
	return nil
}

// rewriteConstOperand relocates the FlagCon operand, which lives in
// slot B for the two-register forms (get_constant/put_constant, which
// also carry an Ai in A) and in slot A for the single-operand forms
// (unify_constant/set_constant).
func rewriteConstOperand(instr *bytecode.Instr, base uint64) {
	switch instr.Op {
	case bytecode.OpGetConstant, bytecode.OpPutConstant:
		instr.B += base
	default:
		instr.A += base
	}
}

func (m *Machine) materializeConst(cd bytecode.ConstDef) term.Cell {
	switch cd.Kind {
	case bytecode.ConstDefAtom:
		return term.ConAtom(m.Atoms.Intern(cd.Atom))
	case bytecode.ConstDefEmptyList:
		return term.EmptyList()
	case bytecode.ConstDefChar:
		return term.ConChar(cd.Char)
	case bytecode.ConstDefInt:
		if c, ok := term.ConSmallInt(cd.Int); ok {
			return c
		}
		return m.Heap.PushNumber(term.Int(cd.Int))
	case bytecode.ConstDefBigInt:
		return m.Heap.PushNumber(term.BigInt(cd.Big))
	case bytecode.ConstDefRat:
		r := new(big.Rat).SetFrac(cd.RatN, cd.RatD)
		return m.Heap.PushNumber(term.Rat(r))
	case bytecode.ConstDefFloat:
		return m.Heap.PushNumber(term.Flt(cd.Float))
	}
	panic(newFatal("unknown constant definition kind %d", cd.Kind))
}

// Lookup resolves (module, name, arity) to a code entry point, falling
// back to the "user" module; built-ins are resolved separately by
// lookupBuiltin.
func (m *Machine) Lookup(key bytecode.PredicateKey) (CodeIndex, bool) {
	m.Repo.mu.RLock()
	defer m.Repo.mu.RUnlock()
	if cp, ok := m.Repo.preds[key]; ok {
		return CodeIndex{Defined: true, Entry: cp.entry}, true
	}
	if key.Module != "user" {
		userKey := key
		userKey.Module = "user"
		if cp, ok := m.Repo.preds[userKey]; ok {
			return CodeIndex{Defined: true, Entry: cp.entry}, true
		}
	}
	return CodeIndex{}, false
}

func (m *Machine) lookupBuiltin(key bytecode.PredicateKey) (*builtinDef, bool) {
	m.Repo.mu.RLock()
	defer m.Repo.mu.RUnlock()
	bd, ok := m.Repo.builtins[key]
	return bd, ok
}

func (m *Machine) predicate(key bytecode.PredicateKey) (*compiledPred, bool) {
	m.Repo.mu.RLock()
	defer m.Repo.mu.RUnlock()
	cp, ok := m.Repo.preds[key]
	return cp, ok
}
