package engine

import "github.com/prolog-wam/engine/term"

// TrailEntryKind tags what an undo entry restores.
type TrailEntryKind uint8

const (
	TrailHeapRef TrailEntryKind = iota
	TrailStackRef
	TrailAttrChange
)

// TrailEntry is one undo-log record: either a heap index
// to reset to unbound, a stack-ref to reset, or an attribute-change
// record.
type TrailEntry struct {
	Kind    TrailEntryKind
	Addr    uint64      // heap index, for TrailHeapRef
	Env     uint64      // environment index, for TrailStackRef
	Slot    uint32      // slot index, for TrailStackRef
	AttrVar uint64      // heap index of the attributed variable, for TrailAttrChange
	Module  string      // for TrailAttrChange
	Prior   term.Cell   // the attribute's prior value; zero Cell means "was absent"
	HadPrior bool
}

// Trail is the LIFO undo log backing backtracking.
type Trail struct {
	entries []TrailEntry
}

func NewTrail(capacityHint int) *Trail {
	return &Trail{entries: make([]TrailEntry, 0, capacityHint)}
}

func (t *Trail) Top() uint64 { return uint64(len(t.entries)) }

func (t *Trail) PushHeapRef(addr uint64) {
	t.entries = append(t.entries, TrailEntry{Kind: TrailHeapRef, Addr: addr})
}

func (t *Trail) PushStackRef(env uint64, slot uint32) {
	t.entries = append(t.entries, TrailEntry{Kind: TrailStackRef, Env: env, Slot: slot})
}

func (t *Trail) PushAttrChange(e TrailEntry) {
	e.Kind = TrailAttrChange
	t.entries = append(t.entries, e)
}

// UndoTo pops and undoes entries above mark in LIFO order: entries
// above mark are undone in LIFO order and the stack truncated.
func (t *Trail) UndoTo(mark uint64, heap *Heap, env *EnvStack, attrs *AttrStore) {
	for uint64(len(t.entries)) > mark {
		e := t.entries[len(t.entries)-1]
		t.entries = t.entries[:len(t.entries)-1]
		switch e.Kind {
		case TrailHeapRef:
			heap.Set(e.Addr, term.RefCell(e.Addr))
		case TrailStackRef:
			env.ResetSlot(e.Env, e.Slot)
		case TrailAttrChange:
			attrs.restore(e)
		}
	}
}
