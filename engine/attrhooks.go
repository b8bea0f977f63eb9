package engine

import "github.com/prolog-wam/engine/term"

// AttrHook is a module's attr_unify_hook(Attr, Value) reaction to its
// attributed variable being bound. Attribute modules
// are registered as Go closures rather than interpreted Prolog clauses
// — binding happens deep inside Machine.Unify's work-stack loop, a
// context the single flat dispatch loop can't suspend out of and back
// into the way a genuine goal call can, so the hook protocol surface
// is kept at the Go level (documented simplification; see DESIGN.md).
type AttrHook func(m *Machine, attr, value term.Cell) bool

// RegisterAttrHook installs the attr_unify_hook for one attribute
// module. Called from an Option at construction time, or by a
// built-in library predicate that introduces its own attributed-
// variable domain (the way dif/2 or CLP(FD) would).
func (m *Machine) RegisterAttrHook(module string, hook AttrHook) {
	if m.attrHooks == nil {
		m.attrHooks = make(map[string]AttrHook)
	}
	m.attrHooks[module] = hook
}

// runAttrHooks fires every module's hook attached to the attributed
// variable at addr, in map iteration order, short-circuiting on the
// first one that reports failure: binding an attributed
// variable to a non-variable term runs attr_unify_hook(Attr, Value)
// for every module attached to it, and the bind fails if any hook fails.
func (m *Machine) runAttrHooks(addr uint64, value term.Cell) bool {
	for module, attr := range m.Attrs.All(addr) {
		hook, ok := m.attrHooks[module]
		if !ok {
			continue
		}
		if !hook(m, attr, value) {
			return false
		}
	}
	return true
}
