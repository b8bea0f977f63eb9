package term

import "sync"

// AtomID is an interned atom name. The zero value is never a valid id;
// the empty-list atom `[]` and a handful of operator atoms get fixed
// low ids so the engine can compare against them without a table
// lookup on the hot path.
type AtomID uint32

const (
	AtomInvalid AtomID = iota
	AtomEmptyList
	AtomDot
	AtomTrue
	AtomFail
	AtomComma
	AtomSemicolon
	AtomArrow
	AtomCut
	AtomFirstUser
)

var fixedAtoms = []string{
	AtomInvalid:   "",
	AtomEmptyList: "[]",
	AtomDot:       ".",
	AtomTrue:      "true",
	AtomFail:      "fail",
	AtomComma:     ",",
	AtomSemicolon: ";",
	AtomArrow:     "->",
	AtomCut:       "!",
}

// AtomTable interns atom names to small integer ids so a Con cell can
// carry a fixed-size payload regardless of name length.
type AtomTable struct {
	mu      sync.RWMutex
	byName  map[string]AtomID
	byID    []string
}

func NewAtomTable() *AtomTable {
	t := &AtomTable{
		byName: make(map[string]AtomID, 256),
		byID:   make([]string, AtomFirstUser),
	}
	for id, name := range fixedAtoms {
		t.byID[id] = name
		if name != "" {
			t.byName[name] = AtomID(id)
		}
	}
	return t
}

// Intern returns the id for name, allocating a fresh one on first use.
func (t *AtomTable) Intern(name string) AtomID {
	t.mu.RLock()
	if id, ok := t.byName[name]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byName[name]; ok {
		return id
	}
	id := AtomID(len(t.byID))
	t.byID = append(t.byID, name)
	t.byName[name] = id
	return id
}

// Name returns the interned string for id. Panics on an invalid id,
// which can only happen from a malformed bytecode unit.
func (t *AtomTable) Name(id AtomID) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.byID) {
		panic("term: atom id out of range")
	}
	return t.byID[id]
}
