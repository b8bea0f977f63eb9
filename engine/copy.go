package engine

import "github.com/prolog-wam/engine/term"

// copyCtx threads the var/compound memoization a structural copy needs
// to preserve sharing and reproduce cycles faithfully: a cyclic term
// copies to an equally cyclic term.
type copyCtx struct {
	from, to *Heap
	seen     map[uint64]term.Cell // from-heap addr -> already-copied to-heap cell
}

// copyTerm deep-copies root from the `from` heap into the `to` heap
// with fresh variables, preserving both sharing and cycles. Used by
// copy_term/2 (same heap, from==to) and by the ball-stub mechanism
// (throw/1 copies into a heap disjoint from the main one, see ball.go).
func copyTerm(from, to *Heap, root term.Cell) term.Cell {
	ctx := &copyCtx{from: from, to: to, seen: make(map[uint64]term.Cell)}
	return ctx.copy(root)
}

func (ctx *copyCtx) copy(c term.Cell) term.Cell {
	c = ctx.from.Deref(c)

	if IsUnboundRef(c) {
		if cp, ok := ctx.seen[c.A]; ok {
			return cp
		}
		fresh := ctx.to.PushNewVar()
		ctx.seen[c.A] = fresh
		return fresh
	}

	switch c.Tag {
	case term.TagCon, term.TagCutBarrier:
		return c
	case term.TagNum:
		return ctx.to.PushNumber(ctx.from.Number(c))
	case term.TagPartialString:
		if cp, ok := ctx.seen[c.A]; ok {
			return cp
		}
		ps := ctx.from.PartialString(c)
		fresh := ctx.to.PushPartialString(ps.Prefix, term.Cell{}) // placeholder tail, patched below
		ctx.seen[c.A] = fresh
		tail := ctx.copy(ps.Tail)
		ctx.to.Strings[fresh.A].Tail = tail
		return fresh
	case term.TagLst:
		if cp, ok := ctx.seen[c.A]; ok {
			return cp
		}
		addr := ctx.to.Push(term.Cell{}) // reserve head slot
		ctx.to.Push(term.Cell{})         // reserve tail slot
		fresh := term.LstCell(addr)
		ctx.seen[c.A] = fresh
		head := ctx.copy(ctx.from.At(c.A))
		tail := ctx.copy(ctx.from.At(c.A + 1))
		ctx.to.Set(addr, head)
		ctx.to.Set(addr+1, tail)
		return fresh
	case term.TagStr:
		if cp, ok := ctx.seen[c.A]; ok {
			return cp
		}
		name, arity := ctx.from.At(c.A).FunctorParts()
		addr := ctx.to.Push(term.FunctorCell(name, arity))
		for i := 0; i < arity; i++ {
			ctx.to.Push(term.Cell{}) // reserve argument slots first, for cycles
		}
		fresh := term.StrCell(addr)
		ctx.seen[c.A] = fresh
		for i := 1; i <= arity; i++ {
			arg := ctx.copy(ctx.from.At(c.A + uint64(i)))
			ctx.to.Set(addr+uint64(i), arg)
		}
		return fresh
	}
	panic("engine: copyTerm on unrecognized cell tag")
}
