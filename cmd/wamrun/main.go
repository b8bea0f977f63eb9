// Command wamrun is a minimal external driver exercising the engine's
// Load/Query boundary the way a real embedder would: load a textual
// assembly file (asm/), submit one query built from the named
// predicate applied to fresh variables, and print each solution found
// until the user stops or the query is exhausted.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/prolog-wam/engine/asm"
	"github.com/prolog-wam/engine/engine"
	"github.com/prolog-wam/engine/term"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "usage: %s <file.wam> <predicate> <arity>\n", os.Args[0])
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2], os.Args[3]); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(path, name, arityStr string) error {
	arity, err := strconv.Atoi(arityStr)
	if err != nil {
		return fmt.Errorf("arity must be an integer: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	unit, err := asm.Assemble(f)
	if err != nil {
		return fmt.Errorf("assembling %s: %w", path, err)
	}

	m := engine.NewMachine()
	if err := m.Load(unit); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	vars := make([]term.Cell, arity)
	for i := range vars {
		vars[i] = m.Heap.PushNewVar()
	}
	goal := buildGoal(m, name, vars)

	sol := m.Query(goal)
	defer sol.Close()

	good := color.New(color.FgGreen)
	info := color.New(color.FgCyan)
	reader := bufio.NewReader(os.Stdin)
	n := 0
	for {
		ok, err := sol.Next()
		if err != nil {
			return err
		}
		if !ok {
			if n == 0 {
				info.Println("false.")
			} else {
				info.Println("no more solutions.")
			}
			return nil
		}
		n++
		good.Println(formatSolution(m, name, vars))
		info.Print("more? (y/N) ")
		line, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y") {
			return nil
		}
	}
}

func buildGoal(m *engine.Machine, name string, vars []term.Cell) term.Cell {
	if len(vars) == 0 {
		return term.ConAtom(m.Atoms.Intern(name))
	}
	addr := m.Heap.Push(term.FunctorCell(m.Atoms.Intern(name), len(vars)))
	for _, v := range vars {
		m.Heap.Push(v)
	}
	return term.StrCell(addr)
}

func formatSolution(m *engine.Machine, name string, vars []term.Cell) string {
	w := m.Writer(true)
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = w.Write(v)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
