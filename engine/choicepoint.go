package engine

import "github.com/prolog-wam/engine/term"

const NoCP = ^uint64(0)

// ChoicePoint is one OR-stack frame: "argument-register
// snapshot A1..An for the clause's arity, E, CP, previous choice
// point B, next alternative pointer BP, heap top HB at creation, trail
// top TR at creation, current B0 (for shallow cut)."
type ChoicePoint struct {
	Args   []term.Cell
	E      uint64
	CP     PC
	PrevB  uint64
	BP     PC
	HB     Mark
	EnvTop uint64
	TR     uint64
	B0     uint64
}

// ChoicePointStack is the OR-stack.
type ChoicePointStack struct {
	points []ChoicePoint
}

func NewChoicePointStack(capacityHint int) *ChoicePointStack {
	return &ChoicePointStack{points: make([]ChoicePoint, 0, capacityHint)}
}

func (s *ChoicePointStack) Top() uint64 { return uint64(len(s.points)) }

func (s *ChoicePointStack) Push(cp ChoicePoint) uint64 {
	idx := uint64(len(s.points))
	s.points = append(s.points, cp)
	return idx
}

func (s *ChoicePointStack) Peek(idx uint64) *ChoicePoint { return &s.points[idx] }

func (s *ChoicePointStack) TruncateTo(n uint64) { s.points = s.points[:n] }

func (s *ChoicePointStack) IsEmpty() bool { return len(s.points) == 0 }
