package engine

// cutTo discards every choice point younger than level:
// neck_cut uses the clause's entry-time B0 (shallow cut), cut Yi uses
// the level a prior get_level Yi captured into a permanent variable
// (deep cut, for a cut occurring after the clause has allocated an
// environment and possibly created choice points of its own since
// entry).
func (m *Machine) cutTo(level uint64) {
	if level == m.B {
		return // no choice points created since level was captured
	}
	m.B = level
	if level == NoCP {
		m.ChoicePoints.TruncateTo(0)
	} else {
		m.ChoicePoints.TruncateTo(level + 1)
	}
}
