package engine

// PCKind discriminates the three program-counter kinds: a code-vector
// index into the global code vector, a specially-tagged PC for
// in-flight built-in calls, or halt.
type PCKind uint8

const (
	PCGlobal PCKind = iota
	// PCNative is the specially-tagged PC for in-flight built-in
	// calls: when dispatch reaches one, instead of decoding bytecode
	// it invokes the Go closure registered at Machine.natives[Index].
	// findall/3, catch/3, and setup_call_cleanup/3 all resume here once
	// the goal they handed off to ordinary WAM execution completes, the
	// way a real WAM gives a meta-call a synthetic return address.
	PCNative
	PCHalt
)

type PC struct {
	Kind  PCKind
	Index int
}

var Halt = PC{Kind: PCHalt}

func (pc PC) IsHalt() bool { return pc.Kind == PCHalt }
