package engine

import "github.com/hashicorp/go-hclog"

// subLogger returns a named child logger, the way hashicorp/nomad wires
// one hclog.Logger per subsystem. Machine caches the dispatch/
// backtrack/load children at construction time rather than calling
// this on every dispatch-loop iteration.
func (m *Machine) subLogger(name string) hclog.Logger {
	return m.Log.Named(name)
}
