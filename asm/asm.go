// Package asm is a textual assembler for bytecode.Unit, standing in
// for the out-of-scope Prolog-to-WAM compiler so tests and the
// cmd/wamrun demo have a way to produce loadable code: a bufio.Scanner
// driven by a map of section-tag strings to closures, each closure
// consuming lines until it recognizes the next section tag and hands
// control back.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/prolog-wam/engine/bytecode"
)

// Assemble reads one textual unit (one or more "[predicate]" blocks
// plus optional "[operators]" blocks) and produces the bytecode.Unit
// the engine's Load expects.
func Assemble(r io.Reader) (bytecode.Unit, error) {
	a := &assembler{s: bufio.NewScanner(r)}
	a.s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return a.run()
}

type assembler struct {
	s    *bufio.Scanner
	line string
	unit bytecode.Unit
}

func (a *assembler) next() bool {
	if !a.s.Scan() {
		return false
	}
	a.line = strings.TrimSpace(a.s.Text())
	return true
}

func (a *assembler) run() (bytecode.Unit, error) {
	sections := map[string]func() error{
		"[predicate]": a.readPredicate,
		"[operators]": a.readOperators,
	}
	for a.next() {
		if a.line == "" || strings.HasPrefix(a.line, "#") {
			continue
		}
		f, ok := sections[a.line]
		if !ok {
			return bytecode.Unit{}, fmt.Errorf("asm: unexpected top-level tag %q", a.line)
		}
		if err := f(); err != nil {
			return bytecode.Unit{}, err
		}
	}
	if err := a.s.Err(); err != nil {
		return bytecode.Unit{}, err
	}
	return a.unit, nil
}

// readPredicate consumes one "[predicate]" ... "[end]" block: a small
// "key value" header followed by the consts/structs/callrefs/switches/
// clauses/code sections, in any order, each itself closed by its own
// "[end]".
func (a *assembler) readPredicate() error {
	pd := &bytecode.PredicateDef{}
	for a.next() && a.line != "[end]" {
		fields := strings.Fields(a.line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "module":
			pd.Key.Module = fields[1]
		case "name":
			pd.Key.Name = fields[1]
		case "arity":
			pd.Key.Arity = atoiMust(fields[1])
		case "dynamic":
			pd.IsDynamic = fields[1] == "1"
		case "multifile":
			pd.IsMultifile = fields[1] == "1"
		case "[consts]":
			if err := a.readConsts(pd); err != nil {
				return err
			}
		case "[structs]":
			if err := a.readStructs(pd); err != nil {
				return err
			}
		case "[callrefs]":
			if err := a.readCallRefs(pd); err != nil {
				return err
			}
		case "[switches]":
			if err := a.readSwitches(pd); err != nil {
				return err
			}
		case "[clauses]":
			if err := a.readClauses(pd); err != nil {
				return err
			}
		case "[code]":
			if err := a.readCode(pd); err != nil {
				return err
			}
		default:
			return fmt.Errorf("asm: unknown predicate field %q", a.line)
		}
	}
	a.unit.Predicates = append(a.unit.Predicates, pd)
	return nil
}

func (a *assembler) readConsts(pd *bytecode.PredicateDef) error {
	for a.next() && a.line != "[end]" {
		fields := strings.Fields(a.line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "atom":
			pd.Consts = append(pd.Consts, bytecode.AtomConst(strings.Join(fields[1:], " ")))
		case "int":
			n, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return err
			}
			pd.Consts = append(pd.Consts, bytecode.IntConst(n))
		case "bigint":
			big, ok := new(big.Int).SetString(fields[1], 10)
			if !ok {
				return fmt.Errorf("asm: bad bigint literal %q", fields[1])
			}
			pd.Consts = append(pd.Consts, bytecode.ConstDef{Kind: bytecode.ConstDefBigInt, Big: big})
		case "float":
			f, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return err
			}
			pd.Consts = append(pd.Consts, bytecode.FloatConst(f))
		case "char":
			r := []rune(fields[1])
			pd.Consts = append(pd.Consts, bytecode.CharConst(r[0]))
		case "empty":
			pd.Consts = append(pd.Consts, bytecode.EmptyListConst())
		default:
			return fmt.Errorf("asm: unknown const kind %q", fields[0])
		}
	}
	return nil
}

func (a *assembler) readStructs(pd *bytecode.PredicateDef) error {
	for a.next() && a.line != "[end]" {
		fields := strings.Fields(a.line)
		if len(fields) == 0 {
			continue
		}
		pd.Structs = append(pd.Structs, bytecode.StructDef{Name: fields[0], Arity: atoiMust(fields[1])})
	}
	return nil
}

func (a *assembler) readCallRefs(pd *bytecode.PredicateDef) error {
	for a.next() && a.line != "[end]" {
		fields := strings.Fields(a.line)
		if len(fields) == 0 {
			continue
		}
		pd.CallRefs = append(pd.CallRefs, bytecode.PredicateKey{
			Module: fields[0], Name: fields[1], Arity: atoiMust(fields[2]),
		})
	}
	return nil
}

// readSwitches parses switch_on_constant/switch_on_structure tables up
// to "[end]": each opens with a "table" line, holds "default <offset>"
// and "<kind> <key...> <offset>" entries (kind atom, int, list or
// struct), and is closed by a bare "." line.
func (a *assembler) readSwitches(pd *bytecode.PredicateDef) error {
	for a.next() && a.line != "[end]" {
		if a.line != "table" {
			return fmt.Errorf("asm: expected \"table\", got %q", a.line)
		}
		st := bytecode.SwitchTable{}
		for a.next() && a.line != "." {
			fields := strings.Fields(a.line)
			if len(fields) == 0 {
				continue
			}
			if fields[0] == "default" {
				st.Default = uint64(atoiMust(fields[1]))
				continue
			}
			key, offset, err := parseIndexKeyEntry(fields)
			if err != nil {
				return err
			}
			st.Entries = append(st.Entries, bytecode.SwitchEntry{Key: key, Target: offset})
		}
		pd.Switches = append(pd.Switches, st)
	}
	return nil
}

func parseIndexKeyEntry(fields []string) (bytecode.IndexKey, uint64, error) {
	if len(fields) < 2 {
		return bytecode.IndexKey{}, 0, fmt.Errorf("asm: malformed switch entry %q", strings.Join(fields, " "))
	}
	switch fields[0] {
	case "atom":
		offset := uint64(atoiMust(fields[2]))
		return bytecode.IndexKey{Kind: bytecode.IndexConst, Atom: fields[1]}, offset, nil
	case "int":
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return bytecode.IndexKey{}, 0, err
		}
		offset := uint64(atoiMust(fields[2]))
		return bytecode.IndexKey{Kind: bytecode.IndexConst, Int: n, IsInt: true}, offset, nil
	case "list":
		offset := uint64(atoiMust(fields[1]))
		return bytecode.IndexKey{Kind: bytecode.IndexList}, offset, nil
	case "struct":
		offset := uint64(atoiMust(fields[3]))
		return bytecode.IndexKey{Kind: bytecode.IndexStruct, Functor: fields[1], Arity: atoiMust(fields[2])}, offset, nil
	}
	return bytecode.IndexKey{}, 0, fmt.Errorf("asm: unknown index key kind %q", fields[0])
}

func (a *assembler) readClauses(pd *bytecode.PredicateDef) error {
	for a.next() && a.line != "[end]" {
		fields := strings.Fields(a.line)
		if len(fields) == 0 {
			continue
		}
		ce := bytecode.ClauseEntry{
			Offset:      atoiMust(fields[0]),
			NumPermVars: atoiMust(fields[1]),
		}
		if len(fields) > 2 {
			key, _, err := parseIndexKeyEntry(append(fields[2:], "0"))
			if err != nil {
				return err
			}
			ce.Key = key
		}
		pd.Clauses = append(pd.Clauses, ce)
	}
	return nil
}

// readCode parses one instruction per line: "mnemonic flag a [b [c
// [d]]]", widened from one operand to up to four.
func (a *assembler) readCode(pd *bytecode.PredicateDef) error {
	for a.next() && a.line != "[end]" {
		if a.line == "" {
			continue
		}
		parts := strings.Fields(a.line)
		op := bytecode.NewOpcode(parts[0])
		flag := bytecode.FlagNone
		var operands []uint64
		if len(parts) > 1 {
			flag = bytecode.NewFlag(parts[1])
			for _, p := range parts[2:] {
				n, err := strconv.ParseUint(p, 10, 64)
				if err != nil {
					return fmt.Errorf("asm: bad operand %q in %q: %w", p, a.line, err)
				}
				operands = append(operands, n)
			}
		}
		pd.Code = append(pd.Code, bytecode.NewInstr(op, flag, operands...))
	}
	return nil
}

func (a *assembler) readOperators() error {
	for a.next() && a.line != "[end]" {
		fields := strings.Fields(a.line)
		if len(fields) == 0 {
			continue
		}
		a.unit.Operators = append(a.unit.Operators, bytecode.OperatorDecl{
			Name:     fields[0],
			Priority: atoiMust(fields[1]),
			Type:     fields[2],
		})
	}
	return nil
}

func atoiMust(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic("asm: expected integer, got " + s)
	}
	return n
}
