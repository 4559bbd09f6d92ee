package ivm1

import (
	"golang.org/x/exp/maps"

	"hovm.run/hovm/spec"
)

// Kernel computes one primitive over its operand words in place: the
// result lands in x[0].
type Kernel = func(x []uint32) error

// DefaultKernels returns a copy of the built-in kernel table, one entry
// per primitive.  Callers may add or replace entries without affecting
// the defaults.
func DefaultKernels() map[spec.Op]Kernel {
	return maps.Clone(defaultKernels)
}

var defaultKernels = map[spec.Op]Kernel{
	spec.ADD: func(x []uint32) error {
		x[0] = x[0] + x[1]
		return nil
	},
	spec.SUB: func(x []uint32) error {
		x[0] = x[0] - x[1]
		return nil
	},
	spec.MUL: func(x []uint32) error {
		x[0] = x[0] * x[1]
		return nil
	},
	spec.DIV: func(x []uint32) error {
		if x[1] == 0 {
			x[0] = 0
			return nil
		}
		x[0] = x[0] / x[1]
		return nil
	},
	spec.MOD: func(x []uint32) error {
		if x[1] == 0 {
			x[0] = 0
			return nil
		}
		x[0] = x[0] % x[1]
		return nil
	},
	spec.AND: func(x []uint32) error {
		x[0] = x[0] & x[1]
		return nil
	},
	spec.OR: func(x []uint32) error {
		x[0] = x[0] | x[1]
		return nil
	},
	spec.XOR: func(x []uint32) error {
		x[0] = x[0] ^ x[1]
		return nil
	},
	spec.LSH: func(x []uint32) error {
		x[0] = x[0] << (x[1] & 31)
		return nil
	},
	spec.RSH: func(x []uint32) error {
		x[0] = x[0] >> (x[1] & 31)
		return nil
	},
	spec.NOT: func(x []uint32) error {
		x[0] = ^x[0]
		return nil
	},
	spec.EQ: func(x []uint32) error {
		x[0] = u32(x[0] == x[1])
		return nil
	},
	spec.NE: func(x []uint32) error {
		x[0] = u32(x[0] != x[1])
		return nil
	},
	spec.LT: func(x []uint32) error {
		x[0] = u32(x[0] < x[1])
		return nil
	},
	spec.LE: func(x []uint32) error {
		x[0] = u32(x[0] <= x[1])
		return nil
	},
	spec.GT: func(x []uint32) error {
		x[0] = u32(x[0] > x[1])
		return nil
	},
	spec.GE: func(x []uint32) error {
		x[0] = u32(x[0] >= x[1])
		return nil
	},
}

func u32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Accelerator folds a bounded batch of redexes directly on the heap.
// Redex sites are claimed with compare-and-publish on the cell, so an
// accelerator may run while reducer workers are live.  Shapes it does
// not support are left unchanged.
type Accelerator interface {
	// Accelerate visits the cells named in redexes, rewriting up to max
	// of them (max <= 0 means all).  It reports how many it rewrote.
	Accelerate(h *Heap, redexes []uint32, max int) (int, error)
}

// NumericAccelerator folds primitive nodes whose operands are already
// numbers.  It is the host-side rendition of the compute-dispatch
// contract: heap in, redex list in, interaction count out.
type NumericAccelerator struct {
	kernels map[spec.Op]Kernel
}

// NewNumericAccelerator makes an accelerator over the given kernel
// table, or the default table when kernels is nil.
func NewNumericAccelerator(kernels map[spec.Op]Kernel) *NumericAccelerator {
	if kernels == nil {
		kernels = DefaultKernels()
	}
	return &NumericAccelerator{kernels: kernels}
}

func (a *NumericAccelerator) Accelerate(h *Heap, redexes []uint32, max int) (int, error) {
	var done int
	var buf [2]uint32
	for _, loc := range redexes {
		if max > 0 && done >= max {
			break
		}
		t := h.Get(loc)
		if t.IsSub() || !t.Tag().IsPrim() {
			continue
		}
		op := spec.Op(t.Ext())
		kern, ok := a.kernels[op]
		if !ok {
			continue
		}
		n := t.Tag().PrimArity()
		f := t.Val()
		numeric := true
		for i := 0; i < n; i++ {
			o := h.Get(f + uint32(i))
			if o.Tag() != spec.NUM {
				numeric = false
				break
			}
			buf[i] = o.Val()
		}
		if !numeric {
			continue
		}
		if err := kern(buf[:n]); err != nil {
			return done, err
		}
		if h.CasClaim(loc, t, Num(buf[0])) {
			done++
		}
	}
	return done, nil
}

// ScanNumericRedexes walks the allocated heap and collects cells holding
// primitive nodes whose operands are all numbers, up to limit sites
// (limit <= 0 means no cap).
func (s *State) ScanNumericRedexes(limit int) []uint32 {
	h := s.heap
	var out []uint32
	n := h.Len()
	for loc := uint32(1); loc < n; loc++ {
		t := h.Get(loc)
		if t.IsSub() || !t.Tag().IsPrim() {
			continue
		}
		arity := t.Tag().PrimArity()
		f := t.Val()
		numeric := true
		for i := 0; i < arity; i++ {
			if h.Get(f + uint32(i)).Tag() != spec.NUM {
				numeric = false
				break
			}
		}
		if !numeric {
			continue
		}
		out = append(out, loc)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Accelerate runs a scan-and-fold pass with the given accelerator,
// counting each fold as an interaction.
func (s *State) Accelerate(a Accelerator, max int) (int, error) {
	redexes := s.ScanNumericRedexes(max)
	done, err := a.Accelerate(s.heap, redexes, max)
	for i := 0; i < done; i++ {
		s.countInteraction()
	}
	return done, err
}
