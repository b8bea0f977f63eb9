package engine

import (
	"bytes"
	"io"

	"github.com/hashicorp/go-hclog"
)

// Streams holds the three logical streams: user_input,
// user_output, user_error — each may be bound to stdio, a memory
// buffer, or a null sink. A configuration builder (Option) selects
// the binding at construction time.
type Streams struct {
	In  io.ReadWriter
	Out io.ReadWriter
	Err io.ReadWriter
}

// NullStream discards everything written to it and yields EOF on read
// — the null sink binding.
type NullStream struct{}

func (NullStream) Read([]byte) (int, error)  { return 0, io.EOF }
func (NullStream) Write(p []byte) (int, error) { return len(p), nil }

func defaultStreams() Streams {
	return Streams{In: NullStream{}, Out: &bytes.Buffer{}, Err: &bytes.Buffer{}}
}

// Option configures a Machine at construction time.
type Option func(*Machine)

func WithStream(name string, rw io.ReadWriter) Option {
	return func(m *Machine) {
		switch name {
		case "user_input":
			m.Streams.In = rw
		case "user_output":
			m.Streams.Out = rw
		case "user_error":
			m.Streams.Err = rw
		}
	}
}

func WithOccursCheck(on bool) Option {
	return func(m *Machine) { m.OccursCheck = on }
}

func WithDoubleQuotes(mode DoubleQuotesMode) Option {
	return func(m *Machine) { m.DoubleQuotes = mode }
}

func WithLogger(l hclog.Logger) Option {
	return func(m *Machine) { m.Log = l }
}

// WithInferenceBudget seeds the outermost call_with_inference_limit
// budget; 0 means unbounded (the default).
func WithInferenceBudget(limit uint64) Option {
	return func(m *Machine) {
		if limit > 0 {
			m.budgets = append(m.budgets, &inferenceBudget{limit: limit})
		}
	}
}
