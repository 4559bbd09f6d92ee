package ivm1

import (
	"fmt"

	"hovm.run/hovm/spec"
)

// Reduce drives t to weak head normal form.  The result is either a
// value (lambda, number, superposition, erasure, constructor, type) or a
// neutral spine headed by an unsubstituted variable.
func (s *State) Reduce(t Term) (Term, error) {
	return s.reduceAt(t, len(s.stack))
}

// reduceAt reduces t using only frames pushed above base.  Frames at or
// below base belong to an enclosing computation and are left alone, so
// interactions can force sub-terms mid-rule without losing their own
// continuation.
func (s *State) reduceAt(t Term, base int) (Term, error) {
	h := s.heap
	cur := t
	for {
		if s.cfg.MaxInteractions > 0 && s.interactions.Load() >= s.cfg.MaxInteractions {
			s.stack = s.stack[:base]
			return 0, ErrInteractionLimit
		}
		cur = h.Deref(cur)
		tag := cur.Tag()

		// Enter phase: push a frame describing the pending work and
		// descend into the principal child.
		switch {
		case tag == spec.APP:
			loc := cur.Val()
			if err := s.pushFrame(New(spec.FAPP, 0, loc)); err != nil {
				return 0, err
			}
			cur = h.Get(loc)
			continue
		case tag == spec.MAT:
			loc := cur.Val()
			if err := s.pushFrame(New(spec.FMAT, cur.Ext(), loc)); err != nil {
				return 0, err
			}
			cur = h.Get(loc)
			continue
		case tag == spec.SWI:
			loc := cur.Val()
			if err := s.pushFrame(New(spec.FSWI, 0, loc)); err != nil {
				return 0, err
			}
			cur = h.Get(loc)
			continue
		case tag.IsPrim():
			op := spec.Op(cur.Ext())
			if !op.Valid() || op.Arity() != tag.PrimArity() {
				return 0, fmt.Errorf("%w: op=%d arity=%d", ErrUnknownPrimitive, cur.Ext(), tag.PrimArity())
			}
			loc := cur.Val()
			var f Term
			if op.Arity() == 1 {
				f = New(spec.FOP1, uint32(op), loc)
			} else {
				f = New(spec.FOP2, uint32(op)<<1, loc)
			}
			if err := s.pushFrame(f); err != nil {
				return 0, err
			}
			cur = h.Get(loc)
			continue
		case tag == spec.USE:
			loc := cur.Val()
			if err := s.pushFrame(New(spec.FUSE, 0, loc)); err != nil {
				return 0, err
			}
			cur = h.Get(loc)
			continue
		case tag == spec.EQL:
			loc := cur.Val()
			if err := s.pushFrame(New(spec.FEQL, 0, loc)); err != nil {
				return 0, err
			}
			cur = h.Get(loc)
			continue
		case tag == spec.CO0 || tag == spec.CO1:
			// Deref did not chase, so this projection has not fired yet.
			node := cur.Val()
			ftag := spec.FCO0
			if tag == spec.CO1 {
				ftag = spec.FCO1
			}
			if err := s.pushFrame(New(ftag, cur.Ext(), node)); err != nil {
				return 0, err
			}
			// A claimed value cell carries the sentinel; the claim is
			// resolved in applyCo.
			cur = h.Get(node + 2).ClearSub()
			continue
		case tag == spec.DUP:
			// The projections hold the node alive; evaluation continues
			// in the body.
			cur = h.Get(cur.Val() + 3)
			continue
		case tag == spec.RED:
			cur = h.Get(cur.Val())
			continue
		case tag == spec.ANN:
			// Annotations are transparent to evaluation.
			cur = h.Get(cur.Val())
			continue
		case tag == spec.REF:
			next, err := s.expandRef(cur.Ext())
			if err != nil {
				return 0, err
			}
			cur = next
			continue
		case tag == spec.ALO:
			next, err := s.expandAlo(cur.Ext())
			if err != nil {
				return 0, err
			}
			cur = next
			continue
		case tag == spec.VAR:
			// An unsubstituted binder: the spine is neutral from here out.
			return s.rebuildNeutral(cur, base)
		case tag.IsValue():
			// Apply phase below.
		default:
			return 0, fmt.Errorf("%w: %v", ErrUnknownTag, tag)
		}

		if len(s.stack) == base {
			return cur, nil
		}
		f := s.popFrame()
		next, err := s.apply(f, cur)
		if err != nil {
			s.stack = s.stack[:base]
			return 0, err
		}
		cur = next
	}
}

// rebuildNeutral writes the neutral head back under every pending frame,
// reconstituting the stuck nodes, and returns the outermost one.
func (s *State) rebuildNeutral(v Term, base int) (Term, error) {
	h := s.heap
	for len(s.stack) > base {
		f := s.popFrame()
		loc := f.Val()
		switch f.Tag() {
		case spec.FAPP:
			h.Set(loc, v)
			v = App(loc)
		case spec.FMAT:
			h.Set(loc, v)
			v = Mat(f.Ext(), loc)
		case spec.FSWI:
			h.Set(loc, v)
			v = Swi(loc)
		case spec.FOP1:
			h.Set(loc, v)
			v = Prim(spec.Op(f.Ext()), loc)
		case spec.FOP2:
			h.Set(loc+f.Ext()&1, v)
			v = Prim(spec.Op(f.Ext()>>1), loc)
		case spec.FUSE:
			h.Set(loc, v)
			v = Use(loc)
		case spec.FEQL:
			h.Set(loc+f.Ext(), v)
			v = Eql(loc)
		case spec.FCO0:
			h.Set(loc+2, v)
			v = Co0(f.Ext(), loc)
		case spec.FCO1:
			h.Set(loc+2, v)
			v = Co1(f.Ext(), loc)
		default:
			return 0, fmt.Errorf("%w: frame %v", ErrUnknownTag, f.Tag())
		}
	}
	return v, nil
}

// apply combines a popped frame with the value its principal child
// reached, performing one interaction.
func (s *State) apply(f, v Term) (Term, error) {
	switch f.Tag() {
	case spec.FAPP:
		return s.applyApp(f.Val(), v)
	case spec.FMAT:
		return s.applyMat(f.Ext(), f.Val(), v)
	case spec.FSWI:
		return s.applySwi(f.Val(), v)
	case spec.FOP1:
		return s.applyOp1(spec.Op(f.Ext()), f.Val(), v)
	case spec.FOP2:
		return s.applyOp2(spec.Op(f.Ext()>>1), f.Ext()&1, f.Val(), v)
	case spec.FUSE:
		return s.applyUse(f.Val(), v)
	case spec.FEQL:
		return s.applyEql(f.Ext(), f.Val(), v)
	case spec.FCO0:
		return s.applyCo(0, f.Ext(), f.Val(), v)
	case spec.FCO1:
		return s.applyCo(1, f.Ext(), f.Val(), v)
	}
	return 0, fmt.Errorf("%w: frame %v", ErrUnknownTag, f.Tag())
}

func (s *State) expandRef(id uint32) (Term, error) {
	def, err := s.defs.Get(id)
	if err != nil {
		return 0, err
	}
	root, err := def.Instantiate(s.heap)
	if err != nil {
		return 0, err
	}
	s.expansions.Inc()
	return root, nil
}

// expandAlo expands the definition at most once; later uses alias the
// same graph instead of copying it.
func (s *State) expandAlo(id uint32) (Term, error) {
	s.alo.mu.Lock()
	root, ok := s.alo.roots[id]
	s.alo.mu.Unlock()
	if ok {
		return root, nil
	}
	def, err := s.defs.Get(id)
	if err != nil {
		return 0, err
	}
	root, err = def.Instantiate(s.heap)
	if err != nil {
		return 0, err
	}
	s.expansions.Inc()
	s.alo.mu.Lock()
	if prev, ok := s.alo.roots[id]; ok {
		root = prev
	} else {
		s.alo.roots[id] = root
	}
	s.alo.mu.Unlock()
	return root, nil
}
