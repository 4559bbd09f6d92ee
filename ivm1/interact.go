package ivm1

import (
	"fmt"

	"hovm.run/hovm/spec"
)

// This file holds one function per interaction family.  Every function
// takes the node the frame remembered plus the weak head normal form its
// principal child reached, and returns the term the reducer should enter
// next.

// allocPair writes a 2-cell node.
func (s *State) allocPair(a, b Term) (uint32, error) {
	loc, err := s.heap.Alloc(2)
	if err != nil {
		return 0, err
	}
	s.heap.Set(loc, a)
	s.heap.Set(loc+1, b)
	return loc, nil
}

// allocDupNode writes a [left-slot, right-slot, value] duplication node.
// The result slots stay zero until the duplication fires.
func (s *State) allocDupNode(v Term) (uint32, error) {
	loc, err := s.heap.Alloc(3)
	if err != nil {
		return 0, err
	}
	s.heap.Set(loc+2, v)
	return loc, nil
}

// applyApp dispatches APP against the value its function reached.
// loc names the [fun, arg] pair.
func (s *State) applyApp(loc uint32, v Term) (Term, error) {
	h := s.heap
	switch {
	case v.Tag() == spec.LAM:
		// Beta: the binder cell stops being a body slot and becomes a
		// forward to the argument.
		s.countInteraction()
		b := v.Val()
		body := h.Get(b)
		h.SetSub(b, h.Get(loc+1))
		return body, nil
	case v.Tag() == spec.SUP:
		// app(sup{a,b}, x) = sup{app(a, x0), app(b, x1)} with x dup'd.
		s.countInteraction()
		lab, p := v.Ext(), v.Val()
		d, err := s.allocDupNode(h.Get(loc + 1))
		if err != nil {
			return 0, err
		}
		a0, err := s.allocPair(h.Get(p), Co0(lab, d))
		if err != nil {
			return 0, err
		}
		a1, err := s.allocPair(h.Get(p+1), Co1(lab, d))
		if err != nil {
			return 0, err
		}
		ps, err := s.allocPair(App(a0), App(a1))
		if err != nil {
			return 0, err
		}
		return Sup(lab, ps), nil
	case v.Tag() == spec.ERA:
		s.countInteraction()
		return Era(), nil
	}
	return 0, fmt.Errorf("%w: APP of %v", ErrMalformedHeap, v.Tag())
}

// applyMat selects a branch once the scrutinee is a constructor.
// loc names [scrutinee, branch...], n is the branch count.
func (s *State) applyMat(n, loc uint32, v Term) (Term, error) {
	h := s.heap
	switch {
	case v.Tag().IsCtr():
		s.countInteraction()
		id := v.Ext()
		if id >= n {
			return 0, fmt.Errorf("%w: MAT with %d branches on ctor %d", ErrMalformedHeap, n, id)
		}
		cur := h.Get(loc + 1 + id)
		f := v.Val()
		for i := 0; i < v.Tag().CtrArity(); i++ {
			p, err := s.allocPair(cur, h.Get(f+uint32(i)))
			if err != nil {
				return 0, err
			}
			cur = App(p)
		}
		return cur, nil
	case v.Tag() == spec.SUP:
		s.countInteraction()
		lab, p := v.Ext(), v.Val()
		m0, err := h.Alloc(1 + n)
		if err != nil {
			return 0, err
		}
		m1, err := h.Alloc(1 + n)
		if err != nil {
			return 0, err
		}
		h.Set(m0, h.Get(p))
		h.Set(m1, h.Get(p+1))
		for i := uint32(0); i < n; i++ {
			d, err := s.allocDupNode(h.Get(loc + 1 + i))
			if err != nil {
				return 0, err
			}
			h.Set(m0+1+i, Co0(lab, d))
			h.Set(m1+1+i, Co1(lab, d))
		}
		ps, err := s.allocPair(Mat(n, m0), Mat(n, m1))
		if err != nil {
			return 0, err
		}
		return Sup(lab, ps), nil
	case v.Tag() == spec.ERA:
		s.countInteraction()
		return Era(), nil
	}
	return 0, fmt.Errorf("%w: MAT of %v", ErrMalformedHeap, v.Tag())
}

// applySwi branches on a number.  loc names [scrutinee, ifZero, ifSucc].
func (s *State) applySwi(loc uint32, v Term) (Term, error) {
	h := s.heap
	switch v.Tag() {
	case spec.NUM:
		s.countInteraction()
		if v.Val() == 0 {
			return h.Get(loc + 1), nil
		}
		p, err := s.allocPair(h.Get(loc+2), Num(v.Val()-1))
		if err != nil {
			return 0, err
		}
		return App(p), nil
	case spec.SUP:
		s.countInteraction()
		lab, p := v.Ext(), v.Val()
		w0, err := h.Alloc(3)
		if err != nil {
			return 0, err
		}
		w1, err := h.Alloc(3)
		if err != nil {
			return 0, err
		}
		h.Set(w0, h.Get(p))
		h.Set(w1, h.Get(p+1))
		for i := uint32(1); i <= 2; i++ {
			d, err := s.allocDupNode(h.Get(loc + i))
			if err != nil {
				return 0, err
			}
			h.Set(w0+i, Co0(lab, d))
			h.Set(w1+i, Co1(lab, d))
		}
		ps, err := s.allocPair(Swi(w0), Swi(w1))
		if err != nil {
			return 0, err
		}
		return Sup(lab, ps), nil
	case spec.ERA:
		s.countInteraction()
		return Era(), nil
	}
	return 0, fmt.Errorf("%w: SWI of %v", ErrMalformedHeap, v.Tag())
}

// applyOp1 folds a unary primitive.
func (s *State) applyOp1(op spec.Op, loc uint32, v Term) (Term, error) {
	h := s.heap
	switch v.Tag() {
	case spec.NUM:
		s.countInteraction()
		return Num(op.Apply1(v.Val())), nil
	case spec.SUP:
		s.countInteraction()
		lab, p := v.Ext(), v.Val()
		b0, err := h.Alloc(1)
		if err != nil {
			return 0, err
		}
		b1, err := h.Alloc(1)
		if err != nil {
			return 0, err
		}
		h.Set(b0, h.Get(p))
		h.Set(b1, h.Get(p+1))
		ps, err := s.allocPair(Prim(op, b0), Prim(op, b1))
		if err != nil {
			return 0, err
		}
		return Sup(lab, ps), nil
	case spec.ERA:
		s.countInteraction()
		return Era(), nil
	}
	return 0, fmt.Errorf("%w: %v of %v", ErrMalformedHeap, op, v.Tag())
}

// applyOp2 handles a binary primitive one operand at a time.  idx is the
// operand that just reached a value.
func (s *State) applyOp2(op spec.Op, idx, loc uint32, v Term) (Term, error) {
	h := s.heap
	switch v.Tag() {
	case spec.NUM:
		if idx == 0 {
			h.Set(loc, v)
			if err := s.pushFrame(New(spec.FOP2, uint32(op)<<1|1, loc)); err != nil {
				return 0, err
			}
			return h.Get(loc + 1), nil
		}
		s.countInteraction()
		a := h.Get(loc)
		return Num(op.Apply(a.Val(), v.Val())), nil
	case spec.SUP:
		s.countInteraction()
		lab, p := v.Ext(), v.Val()
		var pa, pb uint32
		var err error
		if idx == 0 {
			// The other operand is still lazy; share it through a dup.
			d, err := s.allocDupNode(h.Get(loc + 1))
			if err != nil {
				return 0, err
			}
			if pa, err = s.allocPair(h.Get(p), Co0(lab, d)); err != nil {
				return 0, err
			}
			if pb, err = s.allocPair(h.Get(p+1), Co1(lab, d)); err != nil {
				return 0, err
			}
		} else {
			// The first operand is a number, which copies freely.
			a := h.Get(loc)
			if pa, err = s.allocPair(a, h.Get(p)); err != nil {
				return 0, err
			}
			if pb, err = s.allocPair(a, h.Get(p+1)); err != nil {
				return 0, err
			}
		}
		ps, err := s.allocPair(Prim(op, pa), Prim(op, pb))
		if err != nil {
			return 0, err
		}
		return Sup(lab, ps), nil
	case spec.ERA:
		s.countInteraction()
		return Era(), nil
	}
	return 0, fmt.Errorf("%w: %v of %v", ErrMalformedHeap, op, v.Tag())
}

// applyUse discards the forced value and yields the continuation.  A
// superposition lifts outward first so both worlds keep their own
// continuation.
func (s *State) applyUse(loc uint32, v Term) (Term, error) {
	h := s.heap
	switch v.Tag() {
	case spec.SUP:
		s.countInteraction()
		lab, p := v.Ext(), v.Val()
		d, err := s.allocDupNode(h.Get(loc + 1))
		if err != nil {
			return 0, err
		}
		u0, err := s.allocPair(h.Get(p), Co0(lab, d))
		if err != nil {
			return 0, err
		}
		u1, err := s.allocPair(h.Get(p+1), Co1(lab, d))
		if err != nil {
			return 0, err
		}
		ps, err := s.allocPair(Use(u0), Use(u1))
		if err != nil {
			return 0, err
		}
		return Sup(lab, ps), nil
	case spec.ERA:
		s.countInteraction()
		return Era(), nil
	}
	s.countInteraction()
	return h.Get(loc + 1), nil
}

// applyCo fires a duplication once its shared value is a weak head
// normal form.  The node's value cell is the claim point: whichever
// projection sets its sub bit first performs the interaction, the other
// reads the published result slots.
func (s *State) applyCo(side int, lab, node uint32, v Term) (Term, error) {
	h := s.heap
	old := h.Get(node + 2)
	if old.IsSub() {
		return s.coResult(side, node), nil
	}
	if !h.CasClaim(node+2, old, v.WithSub()) {
		return s.coResult(side, node), nil
	}
	r0, r1, err := s.dupValue(lab, v)
	if err != nil {
		return 0, err
	}
	h.SetSub(node, r0)
	h.SetSub(node+1, r1)
	if side == 0 {
		return r0, nil
	}
	return r1, nil
}

// coResult reads the published result for one side of a fired node,
// waiting out the window between the claim and the publication.
func (s *State) coResult(side int, node uint32) Term {
	for {
		c := s.heap.Get(node + uint32(side))
		if c.IsSub() {
			return c.ClearSub()
		}
	}
}

// dupValue computes both projections of a value.
func (s *State) dupValue(lab uint32, v Term) (r0, r1 Term, _ error) {
	h := s.heap
	switch t := v.Tag(); {
	case t == spec.NUM || t == spec.ERA || t.IsType():
		s.countInteraction()
		return v, v, nil
	case t == spec.SUP && v.Ext() == lab:
		// Same label: the duplication undoes the superposition.
		s.countInteraction()
		p := v.Val()
		return h.Get(p), h.Get(p + 1), nil
	case t == spec.SUP:
		// Different labels: the pair commutes, preserving sharing.
		s.countInteraction()
		s.countCommutation()
		p := v.Val()
		dl, err := s.allocDupNode(h.Get(p))
		if err != nil {
			return 0, 0, err
		}
		dr, err := s.allocDupNode(h.Get(p + 1))
		if err != nil {
			return 0, 0, err
		}
		pa, err := s.allocPair(Co0(lab, dl), Co0(lab, dr))
		if err != nil {
			return 0, 0, err
		}
		pb, err := s.allocPair(Co1(lab, dl), Co1(lab, dr))
		if err != nil {
			return 0, 0, err
		}
		return Sup(v.Ext(), pa), Sup(v.Ext(), pb), nil
	case t == spec.LAM:
		// Two fresh lambdas share the body through a new duplication;
		// the original binder becomes a superposition of the new ones.
		s.countInteraction()
		b := v.Val()
		db, err := s.allocDupNode(h.Get(b))
		if err != nil {
			return 0, 0, err
		}
		b0, err := h.Alloc(1)
		if err != nil {
			return 0, 0, err
		}
		b1, err := h.Alloc(1)
		if err != nil {
			return 0, 0, err
		}
		h.Set(b0, Co0(lab, db))
		h.Set(b1, Co1(lab, db))
		pv, err := s.allocPair(Var(b0), Var(b1))
		if err != nil {
			return 0, 0, err
		}
		h.SetSub(b, Sup(lab, pv))
		return Lam(b0), Lam(b1), nil
	case t.IsCtr():
		s.countInteraction()
		n := uint32(t.CtrArity())
		if n == 0 {
			return v, v, nil
		}
		f := v.Val()
		c0, err := h.Alloc(n)
		if err != nil {
			return 0, 0, err
		}
		c1, err := h.Alloc(n)
		if err != nil {
			return 0, 0, err
		}
		for i := uint32(0); i < n; i++ {
			d, err := s.allocDupNode(h.Get(f + i))
			if err != nil {
				return 0, 0, err
			}
			h.Set(c0+i, Co0(lab, d))
			h.Set(c1+i, Co1(lab, d))
		}
		return New(t, v.Ext(), c0), New(t, v.Ext(), c1), nil
	}
	return 0, 0, fmt.Errorf("%w: DUP of %v", ErrMalformedHeap, v.Tag())
}

// applyEql forces both operands, then compares them structurally.
// idx is the operand that just reached a value.
func (s *State) applyEql(idx, loc uint32, v Term) (Term, error) {
	h := s.heap
	switch v.Tag() {
	case spec.SUP:
		// Equality distributes over either side.
		s.countInteraction()
		lab, p := v.Ext(), v.Val()
		other := h.Get(loc + 1 - idx)
		d, err := s.allocDupNode(other)
		if err != nil {
			return 0, err
		}
		var pa, pb uint32
		if idx == 0 {
			if pa, err = s.allocPair(h.Get(p), Co0(lab, d)); err != nil {
				return 0, err
			}
			if pb, err = s.allocPair(h.Get(p+1), Co1(lab, d)); err != nil {
				return 0, err
			}
		} else {
			if pa, err = s.allocPair(Co0(lab, d), h.Get(p)); err != nil {
				return 0, err
			}
			if pb, err = s.allocPair(Co1(lab, d), h.Get(p+1)); err != nil {
				return 0, err
			}
		}
		ps, err := s.allocPair(Eql(pa), Eql(pb))
		if err != nil {
			return 0, err
		}
		return Sup(lab, ps), nil
	case spec.ERA:
		s.countInteraction()
		return Era(), nil
	}
	if idx == 0 {
		h.Set(loc, v)
		if err := s.pushFrame(New(spec.FEQL, 1, loc)); err != nil {
			return 0, err
		}
		return h.Get(loc + 1), nil
	}
	s.countInteraction()
	return s.eqlValues(h.Get(loc), v)
}

// eqlValues compares two weak head normal forms.
func (s *State) eqlValues(a, b Term) (Term, error) {
	at, bt := a.Tag(), b.Tag()
	switch {
	case at == spec.NUM && bt == spec.NUM:
		if a.Val() == b.Val() {
			return Num(1), nil
		}
		return Num(0), nil
	case at.IsCtr() && bt.IsCtr():
		if at != bt || a.Ext() != b.Ext() {
			return Num(0), nil
		}
		return s.eqlFields(a.Val(), b.Val(), uint32(at.CtrArity()))
	case at.IsType() || bt.IsType():
		if !s.cfg.CompareAnnotations {
			// Type-level terms compare by identity.
			if a == b {
				return Num(1), nil
			}
			return Num(0), nil
		}
		if at != bt || a.Ext() != b.Ext() {
			return Num(0), nil
		}
		return s.eqlFields(a.Val(), b.Val(), typeCells(at))
	}
	// Lambdas are never structurally equal, and neither are values of
	// different kinds.
	return Num(0), nil
}

// eqlFields chains pairwise equality of n fields with AND.
func (s *State) eqlFields(af, bf, n uint32) (Term, error) {
	h := s.heap
	if n == 0 {
		return Num(1), nil
	}
	var chain Term
	for i := int(n) - 1; i >= 0; i-- {
		p, err := s.allocPair(h.Get(af+uint32(i)), h.Get(bf+uint32(i)))
		if err != nil {
			return 0, err
		}
		eq := Eql(p)
		if chain == 0 {
			chain = eq
			continue
		}
		ap, err := s.allocPair(eq, chain)
		if err != nil {
			return 0, err
		}
		chain = Prim(spec.AND, ap)
	}
	return chain, nil
}

// typeCells is the node size of a type-level tag.
func typeCells(t spec.Tag) uint32 {
	switch t {
	case spec.ANN, spec.ALL, spec.SIG:
		return 2
	case spec.SLF, spec.BRI:
		return 1
	}
	return 0
}
