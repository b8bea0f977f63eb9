package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prolog-wam/engine/bytecode"
	"github.com/prolog-wam/engine/term"
)

// TermWriter renders heap terms to text. Lists print in bracket
// notation and every other compound in canonical name(args) form; the
// Operators field is carried but not consulted, so operators are never
// printed infix or prefix. The engine carries no reader/parser, but the write-family built-ins
// and uncaught-error formatting need a writer. Not a full
// standards-conformant writer: quoting rules for writeq/1 are a
// pragmatic subset.
type TermWriter struct {
	Heap      *Heap
	Atoms     *term.AtomTable
	Operators []bytecode.OperatorDecl
	Quoted    bool
}

func (m *Machine) Writer(quoted bool) *TermWriter {
	return &TermWriter{Heap: m.Heap, Atoms: m.Atoms, Operators: m.Repo.Operators, Quoted: quoted}
}

func (w *TermWriter) Write(c term.Cell) string {
	var b strings.Builder
	w.write(&b, c, 1200)
	return b.String()
}

func (w *TermWriter) write(b *strings.Builder, c term.Cell, maxPrec int) {
	c = w.Heap.Deref(c)
	switch c.Tag {
	case term.TagRef, term.TagAttrVar:
		fmt.Fprintf(b, "_G%d", c.A)
	case term.TagCutBarrier:
		fmt.Fprintf(b, "<cut-barrier:%d>", c.A)
	case term.TagNum:
		b.WriteString(w.Heap.Number(c).String())
	case term.TagCon:
		w.writeCon(b, c)
	case term.TagPartialString:
		w.writeList(b, c)
	case term.TagLst:
		w.writeList(b, c)
	case term.TagStr:
		w.writeStr(b, c, maxPrec)
	default:
		b.WriteString("<?>")
	}
}

func (w *TermWriter) writeCon(b *strings.Builder, c term.Cell) {
	if id, ok := c.IsConAtom(); ok {
		w.writeAtomName(b, w.Atoms.Name(id))
		return
	}
	if i, ok := c.IsConSmallInt(); ok {
		b.WriteString(strconv.FormatInt(i, 10))
		return
	}
	if r, ok := c.IsConChar(); ok {
		if w.Quoted {
			fmt.Fprintf(b, "%q", string(r))
		} else {
			b.WriteRune(r)
		}
		return
	}
	b.WriteString("<con?>")
}

func (w *TermWriter) writeAtomName(b *strings.Builder, name string) {
	if !w.Quoted || !needsQuote(name) {
		b.WriteString(name)
		return
	}
	b.WriteByte('\'')
	b.WriteString(strings.ReplaceAll(name, "'", "\\'"))
	b.WriteByte('\'')
}

func needsQuote(name string) bool {
	if name == "" || name == "[]" || name == "!" || name == ";" {
		return name == ""
	}
	r := rune(name[0])
	if !(r >= 'a' && r <= 'z') {
		return true
	}
	for _, r := range name {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return true
		}
	}
	return false
}

func (w *TermWriter) writeList(b *strings.Builder, c term.Cell) {
	b.WriteByte('[')
	first := true
	for {
		c = w.Heap.Deref(c)
		if a, ok := c.IsConAtom(); ok && a == term.AtomEmptyList {
			break
		}
		if c.Tag != term.TagLst && c.Tag != term.TagPartialString &&
			!(c.Tag == term.TagStr && isDotPair(w.Heap, c)) {
			b.WriteByte('|')
			w.write(b, c, 999)
			break
		}
		head, tail, ok := w.Heap.decompose(c)
		if !ok {
			break
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		w.write(b, head, 999)
		c = tail
	}
	b.WriteByte(']')
}

func isDotPair(h *Heap, c term.Cell) bool {
	f, ar := h.At(c.A).FunctorParts()
	return f == term.AtomDot && ar == 2
}

func (w *TermWriter) writeStr(b *strings.Builder, c term.Cell, maxPrec int) {
	name, arity := w.Heap.At(c.A).FunctorParts()
	nameStr := w.Atoms.Name(name)
	w.writeAtomName(b, nameStr)
	b.WriteByte('(')
	for i := 1; i <= arity; i++ {
		if i > 1 {
			b.WriteByte(',')
		}
		w.write(b, w.Heap.At(c.A+uint64(i)), 999)
	}
	b.WriteByte(')')
}
