package ivm1

import "hovm.run/hovm/spec"

// Collapse enumerates the alternatives a term superposes, breadth-first.
// Superpositions found at the root split the term in two; superpositions
// buried in constructor fields are lifted to the root first.  The
// sequence may be infinite when the term is, e.g. a stream built from an
// aliased self-reference.
type Collapse struct {
	s     *State
	queue []Term
}

// Collapse starts an enumeration of t's alternatives.
func (s *State) Collapse(t Term) *Collapse {
	return &Collapse{s: s, queue: []Term{t}}
}

// Next advances the enumeration by one result.  ok is false once every
// alternative has been emitted.
func (c *Collapse) Next() (_ Term, ok bool, _ error) {
	for len(c.queue) > 0 {
		t := c.queue[0]
		c.queue = c.queue[1:]
		t, err := c.s.Reduce(t)
		if err != nil {
			return 0, false, err
		}
		if t.Tag() != spec.SUP {
			t, _, err = c.s.liftSup(t)
			if err != nil {
				return 0, false, err
			}
		}
		if t.Tag() == spec.SUP {
			p := t.Val()
			c.queue = append(c.queue, c.s.heap.Get(p), c.s.heap.Get(p+1))
			continue
		}
		return t, true, nil
	}
	return 0, false, nil
}

// Rest drains the enumeration, up to max results when max > 0.
func (c *Collapse) Rest(max int) ([]Term, error) {
	var out []Term
	for max <= 0 || len(out) < max {
		t, ok, err := c.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

// liftSup searches the fields of a constructor value for a superposition
// and lifts the outermost-leftmost one to the root, duplicating the
// sibling fields.  Lambdas are treated as leaves: superpositions under a
// binder stay where they are.
func (s *State) liftSup(t Term) (_ Term, lifted bool, _ error) {
	if !t.Tag().IsCtr() {
		return t, false, nil
	}
	h := s.heap
	n := uint32(t.Tag().CtrArity())
	f := t.Val()
	for i := uint32(0); i < n; i++ {
		fi, err := s.Reduce(h.Get(f + i))
		if err != nil {
			return 0, false, err
		}
		h.Set(f+i, fi)
		if fi.Tag() != spec.SUP {
			inner, ok, err := s.liftSup(fi)
			if err != nil {
				return 0, false, err
			}
			if !ok {
				continue
			}
			fi = inner
			h.Set(f+i, fi)
		}
		lab, p := fi.Ext(), fi.Val()
		c0, err := h.Alloc(n)
		if err != nil {
			return 0, false, err
		}
		c1, err := h.Alloc(n)
		if err != nil {
			return 0, false, err
		}
		for j := uint32(0); j < n; j++ {
			if j == i {
				h.Set(c0+j, h.Get(p))
				h.Set(c1+j, h.Get(p+1))
				continue
			}
			d, err := s.allocDupNode(h.Get(f + j))
			if err != nil {
				return 0, false, err
			}
			h.Set(c0+j, Co0(lab, d))
			h.Set(c1+j, Co1(lab, d))
		}
		ps, err := s.allocPair(New(t.Tag(), t.Ext(), c0), New(t.Tag(), t.Ext(), c1))
		if err != nil {
			return 0, false, err
		}
		return Sup(lab, ps), true, nil
	}
	return t, false, nil
}
