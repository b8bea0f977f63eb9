package engine

import (
	"github.com/prolog-wam/engine/bytecode"
	"github.com/prolog-wam/engine/term"
)

// run is the single flat decode/execute loop: fetch the instruction at
// PC, advance PC, switch on opcode. A third PC region (PCNative)
// invokes a Go closure instead of decoding bytecode — the mechanism
// every meta-call built-in that needs to suspend and resume later
// relies on.
func (m *Machine) run() {
	trace := m.dispatchLog.IsTrace()
	for {
		switch m.PC.Kind {
		case PCHalt:
			return
		case PCNative:
			if trace {
				m.dispatchLog.Trace("native", "index", m.PC.Index)
			}
			fn := m.natives[m.PC.Index]
			fn(m)
		default:
			instr := m.fetch()
			if trace {
				m.dispatchLog.Trace("exec", "pc", m.PC.Index, "op", instr.Op.String())
			}
			m.PC.Index++
			m.exec(instr)
		}
		if m.Fail {
			m.backtrack()
		}
	}
}

func (m *Machine) fetch() bytecode.Instr {
	if m.PC.Kind != PCGlobal {
		panic(newFatal("engine: fetch from non-code PC kind %v", m.PC.Kind))
	}
	return m.Code[m.PC.Index]
}

// backtrack restores engine state from the top choice point and jumps
// to its BP. It does not itself pop the choice point — the instruction
// at BP (retry_me_else/trust_me/retry/trust, or a PCNative resumption
// enumerating the alternatives it owns) decides that.
func (m *Machine) backtrack() {
	if m.B == NoCP {
		if m.backtrackLog.IsDebug() {
			m.backtrackLog.Debug("exhausted")
		}
		m.PC = Halt
		return
	}
	cp := m.ChoicePoints.Peek(m.B)
	if m.backtrackLog.IsDebug() {
		m.backtrackLog.Debug("retry", "b", m.B, "bp_kind", cp.BP.Kind, "bp_index", cp.BP.Index)
	}
	m.Trail.UndoTo(cp.TR, m.Heap, m.Env, m.Attrs)
	m.Heap.TruncateTo(cp.HB)
	m.Env.TruncateTo(cp.EnvTop)
	m.Regs.Restore(cp.Args)
	m.E, m.CP, m.B0 = cp.E, cp.CP, cp.B0
	m.PC = cp.BP
	m.Fail = false
}

// getOperand reads the Flag-addressed operand class used throughout
// the get_*/put_*/unify_*/set_* families (bytecode/flag.go): a temp
// register, or a permanent variable slot of the current environment.
func (m *Machine) getOperand(flag bytecode.Flag, idx uint64) term.Cell {
	switch flag {
	case bytecode.FlagReg:
		return m.Regs.Get(int(idx))
	case bytecode.FlagStack:
		return m.Env.GetSlot(m.E, uint32(idx))
	}
	panic(newFatal("engine: getOperand on non register/stack flag %v", flag))
}

func (m *Machine) setOperand(flag bytecode.Flag, idx uint64, c term.Cell) {
	switch flag {
	case bytecode.FlagReg:
		m.Regs.Set(int(idx), c)
	case bytecode.FlagStack:
		m.Env.SetSlot(m.E, uint32(idx), c)
	default:
		panic(newFatal("engine: setOperand on non register/stack flag %v", flag))
	}
}

// exec executes one already-fetched instruction: a single flat switch
// over the opcode set defined in bytecode/opcode.go.
func (m *Machine) exec(i bytecode.Instr) {
	switch i.Op {

	// --- fact instructions ---
	case bytecode.OpGetConstant:
		a := m.Heap.Deref(m.Regs.Get(int(i.A)))
		if !m.Unify(a, m.Repo.constPool[i.B]) {
			m.Fail = true
		}
	case bytecode.OpGetList:
		m.execGetList(i)
	case bytecode.OpGetStructure:
		m.execGetStructure(i)
	case bytecode.OpGetValue:
		a := m.Regs.Get(int(i.A))
		if !m.Unify(a, m.getOperand(i.Flag, i.B)) {
			m.Fail = true
		}
	case bytecode.OpGetVariable:
		m.setOperand(i.Flag, i.B, m.Regs.Get(int(i.A)))
	case bytecode.OpUnifyConstant:
		m.execUnifyOrSetConstant(i, true)
	case bytecode.OpUnifyValue:
		m.execUnifyOrSetValue(i, true)
	case bytecode.OpUnifyVariable:
		m.execUnifyOrSetVariable(i, true)
	case bytecode.OpUnifyVoid:
		m.execUnifyOrSetVoid(i, true)

	// --- query instructions ---
	case bytecode.OpPutConstant:
		m.Regs.Set(int(i.A), m.Repo.constPool[i.B])
	case bytecode.OpPutList:
		addr := m.Heap.Push(term.Cell{})
		m.Heap.Push(term.Cell{})
		m.Regs.Set(int(i.A), term.LstCell(addr))
		m.writeAddr, m.writeIdx = addr, 0
	case bytecode.OpPutStructure:
		fcell := m.Repo.structPool[i.B]
		_, arity := fcell.FunctorParts()
		addr := m.Heap.Push(fcell)
		for k := 0; k < arity; k++ {
			m.Heap.Push(term.Cell{})
		}
		m.Regs.Set(int(i.A), term.StrCell(addr))
		m.writeAddr, m.writeIdx = addr+1, 0
	case bytecode.OpPutValue:
		m.Regs.Set(int(i.A), m.getOperand(i.Flag, i.B))
	case bytecode.OpPutVariable:
		fresh := m.Heap.PushNewVar()
		m.Regs.Set(int(i.A), fresh)
		m.setOperand(i.Flag, i.B, fresh)
	case bytecode.OpPutUnsafeValue:
		m.execPutUnsafeValue(i)
	case bytecode.OpSetConstant:
		m.execUnifyOrSetConstant(i, false)
	case bytecode.OpSetValue:
		m.execUnifyOrSetValue(i, false)
	case bytecode.OpSetVariable:
		m.execUnifyOrSetVariable(i, false)
	case bytecode.OpSetVoid:
		m.execUnifyOrSetVoid(i, false)

	// --- control instructions ---
	case bytecode.OpAllocate:
		depth := uint64(0)
		if m.E != NoEnv {
			depth = m.Env.Frame(m.E).Depth + 1
		}
		m.E = m.Env.Allocate(m.CP, m.E, depth, int(i.A))
	case bytecode.OpDeallocate:
		f := m.Env.Frame(m.E)
		m.CP, m.E = f.CP, f.E
	case bytecode.OpCall:
		key := m.Repo.callRefPool[i.A]
		m.CP = m.PC
		m.invokeCall(key)
	case bytecode.OpExecute:
		key := m.Repo.callRefPool[i.A]
		m.invokeCall(key)
	case bytecode.OpProceed:
		m.PC = m.CP
	case bytecode.OpJmpBy:
		if i.Flag == bytecode.FlagJumpForward {
			m.PC.Index += int(i.A)
		} else {
			m.PC.Index -= int(i.A) + 1
		}

	// --- choice instructions ---
	case bytecode.OpTryMeElse, bytecode.OpTry:
		m.execTry(i)
	case bytecode.OpRetryMeElse, bytecode.OpRetry:
		m.execRetry(i)
	case bytecode.OpTrustMe, bytecode.OpTrust:
		m.execTrust(i)

	// --- indexing instructions ---
	case bytecode.OpSwitchOnTerm:
		m.execSwitchOnTerm(i)
	case bytecode.OpSwitchOnConstant, bytecode.OpSwitchOnStructure:
		m.execSwitchOnTable(i)

	// --- cut instructions ---
	case bytecode.OpNeckCut:
		m.cutTo(m.B0)
	case bytecode.OpGetLevel:
		m.setOperand(i.Flag, i.A, term.CutBarrierCell(m.B))
	case bytecode.OpCut:
		level, ok := m.getOperand(i.Flag, i.A).IsCutBarrier()
		if !ok {
			panic(newFatal("engine: cut Yi on a non-cut-barrier cell"))
		}
		m.cutTo(level)
	case bytecode.OpBlockedCut:
		// no-op in the cut sense.

	// --- arithmetic / comparison ---
	case bytecode.OpIs, bytecode.OpArithEq, bytecode.OpArithNeq,
		bytecode.OpArithLt, bytecode.OpArithLe, bytecode.OpArithGt, bytecode.OpArithGe:
		m.execArith(i)

	case bytecode.OpCallBuiltin:
		key := m.Repo.callRefPool[i.A]
		m.CP = m.PC
		m.invokeCall(key)

	case bytecode.OpFail:
		m.Fail = true

	case bytecode.OpNoop:

	default:
		panic(newFatal("engine: unknown opcode %v", i.Op))
	}
}

// invokeCall resolves (module, name, arity) — builtin
// dispatch first, then the code repository with the "user" fallback —
// and either runs the builtin synchronously or jumps PC to the
// resolved entry point. An unresolved predicate raises
// existence_error(procedure, Name/Arity) through the
// ordinary catch/throw unwind rather than failing silently.
func (m *Machine) invokeCall(key bytecode.PredicateKey) {
	m.InferenceCount++
	if m.checkInferenceBudgets() {
		return
	}
	if bd, ok := m.lookupBuiltin(bytecode.PredicateKey{Module: "builtin", Name: key.Name, Arity: key.Arity}); ok {
		bd.Fn(m, m.CP)
		return
	}
	if m.invokeDynamic(key, m.CP) {
		return
	}
	if idx, ok := m.Lookup(key); ok {
		if !idx.Defined {
			m.raise(m.existenceErrorProcedure(key.Name, key.Arity))
			return
		}
		m.B0 = m.B
		m.PC = PC{Kind: PCGlobal, Index: idx.Entry}
		return
	}
	m.raise(m.existenceErrorProcedure(key.Name, key.Arity))
}

func (m *Machine) execGetList(i bytecode.Instr) {
	a := m.Heap.Deref(m.Regs.Get(int(i.A)))
	if IsUnboundRef(a) {
		addr := m.Heap.Push(term.Cell{})
		m.Heap.Push(term.Cell{})
		if !m.bind(a, term.LstCell(addr)) {
			m.Fail = true
			return
		}
		m.inUnifyWrite = true
		m.writeAddr, m.writeIdx = addr, 0
		return
	}
	head, tail, ok := m.Heap.decompose(a)
	if !ok {
		m.Fail = true
		return
	}
	m.inUnifyWrite = false
	m.unifyQueue = append(m.unifyQueue[:0], head, tail)
}

func (m *Machine) execGetStructure(i bytecode.Instr) {
	a := m.Heap.Deref(m.Regs.Get(int(i.A)))
	fcell := m.Repo.structPool[i.B]
	name, arity := fcell.FunctorParts()
	if IsUnboundRef(a) {
		addr := m.Heap.Push(fcell)
		for k := 0; k < arity; k++ {
			m.Heap.Push(term.Cell{})
		}
		if !m.bind(a, term.StrCell(addr)) {
			m.Fail = true
			return
		}
		m.inUnifyWrite = true
		m.writeAddr, m.writeIdx = addr+1, 0
		return
	}
	if a.Tag != term.TagStr {
		m.Fail = true
		return
	}
	fn, fa := m.Heap.At(a.A).FunctorParts()
	if fn != name || fa != arity {
		m.Fail = true
		return
	}
	m.inUnifyWrite = false
	m.unifyQueue = m.unifyQueue[:0]
	for k := 1; k <= arity; k++ {
		m.unifyQueue = append(m.unifyQueue, m.Heap.At(a.A+uint64(k)))
	}
}

func (m *Machine) popUnifyQueue() term.Cell {
	c := m.unifyQueue[0]
	m.unifyQueue = m.unifyQueue[1:]
	return c
}

func (m *Machine) execUnifyOrSetConstant(i bytecode.Instr, isUnify bool) {
	c := m.Repo.constPool[i.A]
	if !isUnify || m.inUnifyWrite {
		m.Heap.Set(m.writeAddr+uint64(m.writeIdx), c)
		m.writeIdx++
		return
	}
	if !m.Unify(m.popUnifyQueue(), c) {
		m.Fail = true
	}
}

func (m *Machine) execUnifyOrSetValue(i bytecode.Instr, isUnify bool) {
	src := m.getOperand(i.Flag, i.A)
	if !isUnify || m.inUnifyWrite {
		m.Heap.Set(m.writeAddr+uint64(m.writeIdx), src)
		m.writeIdx++
		return
	}
	if !m.Unify(m.popUnifyQueue(), src) {
		m.Fail = true
	}
}

func (m *Machine) execUnifyOrSetVariable(i bytecode.Instr, isUnify bool) {
	if !isUnify || m.inUnifyWrite {
		pos := m.writeAddr + uint64(m.writeIdx)
		fresh := term.RefCell(pos)
		m.Heap.Set(pos, fresh)
		m.writeIdx++
		m.setOperand(i.Flag, i.A, fresh)
		return
	}
	m.setOperand(i.Flag, i.A, m.popUnifyQueue())
}

func (m *Machine) execUnifyOrSetVoid(i bytecode.Instr, isUnify bool) {
	n := int(i.A)
	if !isUnify || m.inUnifyWrite {
		for k := 0; k < n; k++ {
			pos := m.writeAddr + uint64(m.writeIdx)
			m.Heap.Set(pos, term.RefCell(pos))
			m.writeIdx++
		}
		return
	}
	m.unifyQueue = m.unifyQueue[n:]
}

func (m *Machine) execPutUnsafeValue(i bytecode.Instr) {
	v := m.Env.GetSlot(m.E, uint32(i.B))
	if env, slot := v.StackRefParts(); v.Tag == term.TagStackRef && env == m.E && slot == uint32(i.B) {
		fresh := m.Heap.PushNewVar()
		m.Env.SetSlot(m.E, uint32(i.B), fresh)
		v = fresh
	}
	m.Regs.Set(int(i.A), v)
}

func (m *Machine) execTry(i bytecode.Instr) {
	arity := int(i.B)
	cp := ChoicePoint{
		Args:   m.Regs.Snapshot(arity),
		E:      m.E,
		CP:     m.CP,
		PrevB:  m.B,
		BP:     PC{Kind: PCGlobal, Index: int(i.A)},
		HB:     m.Heap.Mark(),
		EnvTop: m.Env.Top(),
		TR:     m.Trail.Top(),
		B0:     m.B0,
	}
	m.B = m.ChoicePoints.Push(cp)
	if i.Op == bytecode.OpTry {
		m.PC = PC{Kind: PCGlobal, Index: int(i.C)}
	}
}

func (m *Machine) execRetry(i bytecode.Instr) {
	cp := m.ChoicePoints.Peek(m.B)
	cp.BP = PC{Kind: PCGlobal, Index: int(i.A)}
	if i.Op == bytecode.OpRetry {
		m.PC = PC{Kind: PCGlobal, Index: int(i.C)}
	}
}

func (m *Machine) execTrust(i bytecode.Instr) {
	m.popCP()
	if i.Op == bytecode.OpTrust {
		m.PC = PC{Kind: PCGlobal, Index: int(i.C)}
	}
}

// popCP discards the current topmost choice point without restoring
// any state (the state restore already happened in backtrack()
// before BP's code ran) — the common "this was the last alternative"
// tail of trust_me/trust and of every PCNative retry-point the
// runtime goal interpreter installs for `;`/2 and `\+`/1.
func (m *Machine) popCP() {
	cp := m.ChoicePoints.Peek(m.B)
	m.B = cp.PrevB
	m.ChoicePoints.TruncateTo(m.ChoicePoints.Top() - 1)
}

func (m *Machine) execSwitchOnTerm(i bytecode.Instr) {
	a := m.Heap.Deref(m.Regs.Get(0))
	targets := [4]uint64{i.A, i.B, i.C, i.D}
	m.PC = PC{Kind: PCGlobal, Index: int(targets[switchArm(a)])}
}

func (m *Machine) execSwitchOnTable(i bytecode.Instr) {
	a := m.Heap.Deref(m.Regs.Get(0))
	table := m.Repo.switchTables[i.A]
	key, ok := m.runtimeIndexKey(a)
	if ok {
		if target, found := table.byKey[key]; found {
			m.PC = target
			return
		}
	}
	m.PC = PC{Kind: PCGlobal, Index: int(i.B)}
}
