package engine

import "github.com/prolog-wam/engine/term"

// MaxArity bounds the argument register bank — a fixed bank
// of argument registers Ai. 255 covers every real Prolog program;
// kept as a compile-time constant so the register file is a plain
// array, not a slice that needs bounds-growing on the hot path.
const MaxArity = 255

// Registers is the argument register bank used across call/execute
// transitions.
type Registers struct {
	A [MaxArity]term.Cell
}

func (r *Registers) Get(i int) term.Cell   { return r.A[i] }
func (r *Registers) Set(i int, c term.Cell) { r.A[i] = c }

// Snapshot copies the first n registers, for storing into a choice
// point.
func (r *Registers) Snapshot(n int) []term.Cell {
	out := make([]term.Cell, n)
	copy(out, r.A[:n])
	return out
}

func (r *Registers) Restore(args []term.Cell) {
	copy(r.A[:len(args)], args)
}
