package engine

import "github.com/prolog-wam/engine/term"

// Frame is one environment: caller continuation
// pointer CP, previous-environment link E, depth, n permanent cells
// Y1..Yn.
type Frame struct {
	CP    PC
	E     uint64 // index of the previous frame; NoEnv if this is the first
	Depth uint64
	Perm  []term.Cell
}

const NoEnv = ^uint64(0)

// EnvStack is the AND-stack. Frames are appended on
// Allocate(n) and conceptually popped on Deallocate — but like the
// heap, entries are never physically removed except by the truncation
// a choice-point restore performs; a live Deallocate simply moves the
// "current" index back to E, and the next Allocate still appends past
// every existing frame (the same bump/truncate discipline as Heap).
type EnvStack struct {
	frames []Frame
}

func NewEnvStack(capacityHint int) *EnvStack {
	return &EnvStack{frames: make([]Frame, 0, capacityHint)}
}

func (s *EnvStack) Top() uint64 { return uint64(len(s.frames)) }

func (s *EnvStack) TruncateTo(top uint64) { s.frames = s.frames[:top] }

// Allocate pushes a new frame with n permanent variable slots,
// initialized unbound-unset (zero Cell; the compiler guarantees every
// slot is written by a set_variable/put_variable before it is read).
func (s *EnvStack) Allocate(cp PC, prevE uint64, depth uint64, n int) uint64 {
	idx := uint64(len(s.frames))
	s.frames = append(s.frames, Frame{CP: cp, E: prevE, Depth: depth, Perm: make([]term.Cell, n)})
	return idx
}

func (s *EnvStack) Frame(idx uint64) *Frame { return &s.frames[idx] }

func (s *EnvStack) GetSlot(env uint64, slot uint32) term.Cell {
	return s.frames[env].Perm[slot]
}

func (s *EnvStack) SetSlot(env uint64, slot uint32, c term.Cell) {
	s.frames[env].Perm[slot] = c
}

// ResetSlot restores a permanent variable to unbound on backtrack
//. Since a
// permanent variable's "unbound" representation is a self-referential
// TagStackRef pointing at its own slot, the reset target is recomputed
// rather than stored on the trail entry.
func (s *EnvStack) ResetSlot(env uint64, slot uint32) {
	s.frames[env].Perm[slot] = term.StackRefCell(env, slot)
}
