package engine

import "github.com/prolog-wam/engine/term"

// AttrStore holds the attribute association lists for attributed
// variables: "a parallel attribute heap" keyed by the
// same heap index as the AttrVar cell. Kept as a side map rather than
// inline on the Cell so TagAttrVar stays the same fixed size as every
// other tag.
type AttrStore struct {
	byAddr map[uint64]map[string]term.Cell
}

func NewAttrStore() *AttrStore {
	return &AttrStore{byAddr: make(map[uint64]map[string]term.Cell)}
}

func (a *AttrStore) Get(addr uint64, module string) (term.Cell, bool) {
	mods, ok := a.byAddr[addr]
	if !ok {
		return term.Cell{}, false
	}
	v, ok := mods[module]
	return v, ok
}

// All returns the (module, attribute) pairs on addr, for the
// attr_unify_hook dispatch in attrhooks.go's runAttrHooks. Callers must not mutate the
// returned map.
func (a *AttrStore) All(addr uint64) map[string]term.Cell {
	return a.byAddr[addr]
}

func (a *AttrStore) Put(addr uint64, module string, val term.Cell, trail *Trail) {
	prior, had := a.Get(addr, module)
	trail.PushAttrChange(TrailEntry{AttrVar: addr, Module: module, Prior: prior, HadPrior: had})
	mods := a.byAddr[addr]
	if mods == nil {
		mods = make(map[string]term.Cell)
		a.byAddr[addr] = mods
	}
	mods[module] = val
}

func (a *AttrStore) Remove(addr uint64, module string, trail *Trail) {
	prior, had := a.Get(addr, module)
	if !had {
		return
	}
	trail.PushAttrChange(TrailEntry{AttrVar: addr, Module: module, Prior: prior, HadPrior: true})
	delete(a.byAddr[addr], module)
}

// restore replays a TrailAttrChange entry during backtrack.
func (a *AttrStore) restore(e TrailEntry) {
	if e.HadPrior {
		mods := a.byAddr[e.AttrVar]
		if mods == nil {
			mods = make(map[string]term.Cell)
			a.byAddr[e.AttrVar] = mods
		}
		mods[e.Module] = e.Prior
		return
	}
	if mods, ok := a.byAddr[e.AttrVar]; ok {
		delete(mods, e.Module)
	}
}
