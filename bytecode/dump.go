package bytecode

import "fmt"

// formatInstr pretty-prints one instruction for disassembly dumps.
func formatInstr(pc int, i Instr) string {
	switch i.Flag {
	case FlagNone:
		return fmt.Sprintf("[%4d] %-18s", pc, i.Op)
	default:
		return fmt.Sprintf("[%4d] %-18s %s %d %d %d %d", pc, i.Op, i.Flag, i.A, i.B, i.C, i.D)
	}
}
