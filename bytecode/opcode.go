// Package bytecode defines the packed instruction encoding the engine
// dispatches and the compiled-unit shapes the engine consumes across
// the Compiler→Engine boundary: Opcode + Flag + integer operand(s)
// decoded in one step.
package bytecode

// Opcode names an instruction, grouped by concern:
// fact, query, control, choice, indexing, cut, arithmetic.
type Opcode uint8

const (
	OpNoop Opcode = iota

	// --- fact instructions (match the head against argument registers)
	OpGetConstant
	OpGetList
	OpGetStructure
	OpGetValue
	OpGetVariable
	OpUnifyConstant
	OpUnifyValue
	OpUnifyVariable
	OpUnifyVoid

	// --- query instructions (build argument registers for the next call)
	OpPutConstant
	OpPutList
	OpPutStructure
	OpPutValue
	OpPutVariable
	OpPutUnsafeValue
	OpSetConstant
	OpSetValue
	OpSetVariable
	OpSetVoid

	// --- control instructions
	OpAllocate
	OpDeallocate
	OpCall
	OpExecute
	OpProceed
	OpJmpBy

	// --- choice instructions
	OpTryMeElse
	OpRetryMeElse
	OpTrustMe
	OpTry
	OpRetry
	OpTrust

	// --- indexing instructions
	OpSwitchOnTerm
	OpSwitchOnConstant
	OpSwitchOnStructure

	// --- cut instructions
	OpNeckCut
	OpGetLevel
	OpCut
	OpBlockedCut // compiled `!` inside a `;` disjunction: a no-op for cut purposes

	// --- arithmetic / comparison
	OpIs
	OpArithEq
	OpArithNeq
	OpArithLt
	OpArithLe
	OpArithGt
	OpArithGe

	// --- built-in dispatch: a call to a predicate the code repository
	// marks as a built-in is compiled to OpCallBuiltin with the callee's
	// CallRefs index as the operand, rather than a jump into user bytecode.
	OpCallBuiltin

	// --- fail: used by the assembler/compiler to compile a goal body
	// that can never succeed (e.g. an undefined predicate reference
	// caught at compile time), and by tests.
	OpFail

	opcodeCount
)

var opcodeNames = [...]string{
	OpNoop:               "noop",
	OpGetConstant:        "get_constant",
	OpGetList:            "get_list",
	OpGetStructure:       "get_structure",
	OpGetValue:           "get_value",
	OpGetVariable:        "get_variable",
	OpUnifyConstant:      "unify_constant",
	OpUnifyValue:         "unify_value",
	OpUnifyVariable:      "unify_variable",
	OpUnifyVoid:          "unify_void",
	OpPutConstant:        "put_constant",
	OpPutList:            "put_list",
	OpPutStructure:       "put_structure",
	OpPutValue:           "put_value",
	OpPutVariable:        "put_variable",
	OpPutUnsafeValue:     "put_unsafe_value",
	OpSetConstant:        "set_constant",
	OpSetValue:           "set_value",
	OpSetVariable:        "set_variable",
	OpSetVoid:            "set_void",
	OpAllocate:           "allocate",
	OpDeallocate:         "deallocate",
	OpCall:               "call",
	OpExecute:            "execute",
	OpProceed:            "proceed",
	OpJmpBy:              "jmp_by",
	OpTryMeElse:          "try_me_else",
	OpRetryMeElse:        "retry_me_else",
	OpTrustMe:            "trust_me",
	OpTry:                "try",
	OpRetry:              "retry",
	OpTrust:              "trust",
	OpSwitchOnTerm:       "switch_on_term",
	OpSwitchOnConstant:   "switch_on_constant",
	OpSwitchOnStructure:  "switch_on_structure",
	OpNeckCut:            "neck_cut",
	OpGetLevel:           "get_level",
	OpCut:                "cut",
	OpBlockedCut:         "blocked_cut",
	OpIs:                 "is",
	OpArithEq:            "=:=",
	OpArithNeq:           "=\\=",
	OpArithLt:            "<",
	OpArithLe:            "=<",
	OpArithGt:            ">",
	OpArithGe:            ">=",
	OpCallBuiltin:        "call_builtin",
	OpFail:               "fail",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "opcode?"
}

// NewOpcode resolves a mnemonic from the textual assembler (asm/) back
// to its Opcode, the inverse of String.
func NewOpcode(mnemonic string) Opcode {
	for i, name := range opcodeNames {
		if name == mnemonic {
			return Opcode(i)
		}
	}
	panic("bytecode: unknown opcode mnemonic " + mnemonic)
}
