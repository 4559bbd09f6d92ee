package ivm1

import (
	"hovm.run/hovm/internal/bitset"
	"hovm.run/hovm/spec"
)

// Safety classifies a term by the known blow-up shapes of duplication.
type Safety int

const (
	// SafetySafe means no duplicated lambda was found.
	SafetySafe Safety = iota
	// SafetyWarn means a lambda is duplicated; cost may exceed the
	// source's apparent size.
	SafetyWarn
	// SafetyUnsafe means a duplicated lambda itself duplicates, the
	// shape behind exponential rewrite counts.
	SafetyUnsafe
)

func (s Safety) String() string {
	switch s {
	case SafetySafe:
		return "safe"
	case SafetyWarn:
		return "warn"
	case SafetyUnsafe:
		return "unsafe"
	}
	return "invalid"
}

// AnalyzeSafety statically walks the heap graph under t looking for
// duplications whose value contains a lambda.  The analysis is advisory;
// evaluation is correct whether or not it is consulted.  References are
// treated as leaves: only the graph already in the heap is inspected.
func (s *State) AnalyzeSafety(t Term) Safety {
	a := &safetyScan{
		h:    s.heap,
		seen: bitset.New(int(s.heap.Len()) + 1),
	}
	a.walk(t)
	return a.worst
}

type safetyScan struct {
	h     *Heap
	seen  *bitset.Set
	worst Safety
}

func (a *safetyScan) walk(t Term) {
	if a.worst == SafetyUnsafe {
		return
	}
	t = a.h.Deref(t)
	switch tag := t.Tag(); tag {
	case spec.DUP:
		loc := t.Val()
		if a.seen.Get(loc) {
			return
		}
		a.seen.Put(loc)
		v := a.h.Get(loc + 2)
		a.noteDup(v)
		a.walk(v)
		a.walk(a.h.Get(loc + 3))
	case spec.CO0, spec.CO1:
		node := t.Val()
		if a.seen.Get(node) {
			return
		}
		a.seen.Put(node)
		v := a.h.Get(node + 2)
		if !v.IsSub() {
			a.noteDup(v)
			a.walk(v)
		}
	default:
		for _, loc := range a.children(t) {
			if a.seen.Get(loc) {
				continue
			}
			a.seen.Put(loc)
			a.walk(a.h.Get(loc))
		}
	}
}

// noteDup records the severity of duplicating v: any lambda in it warns,
// a lambda that itself duplicates is unsafe.
func (a *safetyScan) noteDup(v Term) {
	lams := a.findLams(v, bitset.New(int(a.h.Len())+1))
	for _, lam := range lams {
		if a.worst < SafetyWarn {
			a.worst = SafetyWarn
		}
		body := a.h.Get(lam.Val())
		if a.duplicates(body, bitset.New(int(a.h.Len())+1)) {
			a.worst = SafetyUnsafe
			return
		}
	}
}

func (a *safetyScan) findLams(t Term, seen *bitset.Set) []Term {
	t = a.h.Deref(t)
	if t.Tag() == spec.LAM {
		return []Term{t}
	}
	var out []Term
	for _, loc := range a.children(t) {
		if seen.Get(loc) {
			continue
		}
		seen.Put(loc)
		out = append(out, a.findLams(a.h.Get(loc), seen)...)
	}
	return out
}

func (a *safetyScan) duplicates(t Term, seen *bitset.Set) bool {
	t = a.h.Deref(t)
	switch t.Tag() {
	case spec.DUP, spec.CO0, spec.CO1, spec.SUP:
		return true
	}
	for _, loc := range a.children(t) {
		if seen.Get(loc) {
			continue
		}
		seen.Put(loc)
		if a.duplicates(a.h.Get(loc), seen) {
			return true
		}
	}
	return false
}

// children lists the sub-term cells of t for the analysis walk, which
// descends through duplication bodies where evaluation would stop.
func (a *safetyScan) children(t Term) []uint32 {
	switch t.Tag() {
	case spec.DUP:
		loc := t.Val()
		return []uint32{loc + 2, loc + 3}
	case spec.CO0, spec.CO1:
		if a.h.Get(t.Val() + 2).IsSub() {
			return nil
		}
		return []uint32{t.Val() + 2}
	case spec.RED:
		return []uint32{t.Val()}
	case spec.VAR, spec.NUM, spec.ERA, spec.REF, spec.ALO, spec.TYP:
		return nil
	}
	return childCells(t)
}
