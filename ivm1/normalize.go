package ivm1

import (
	"context"

	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hovm.run/hovm/internal/bitset"
	"hovm.run/hovm/spec"
)

// Normalize drives t to full normal form: the root is reduced to weak
// head normal form, then every child is normalized in place.  Shared
// nodes are visited once.
func (s *State) Normalize(t Term) (Term, error) {
	seen := bitset.New(1 << 12)
	return s.normalize(seen, t)
}

func (s *State) normalize(seen *bitset.Set, t Term) (Term, error) {
	t, err := s.Reduce(t)
	if err != nil {
		return 0, err
	}
	h := s.heap
	norm := func(loc uint32) error {
		if seen.Get(loc) {
			return nil
		}
		seen.Put(loc)
		old := h.Get(loc)
		if old.IsSub() {
			return nil
		}
		nt, err := s.normalize(seen, old)
		if err != nil {
			return err
		}
		// A concurrent worker may have claimed the cell; the claimant's
		// version wins.
		h.CasClaim(loc, old, nt)
		return nil
	}
	for _, loc := range childCells(t) {
		if err := norm(loc); err != nil {
			return 0, err
		}
	}
	return t, nil
}

// childCells lists the heap cells a weak head normal form still owns:
// the sub-terms a full normal form must also reduce.
func childCells(t Term) []uint32 {
	loc := t.Val()
	switch tag := t.Tag(); {
	case tag == spec.LAM:
		return []uint32{loc}
	case tag == spec.SUP:
		return []uint32{loc, loc + 1}
	case tag.IsCtr():
		n := tag.CtrArity()
		return cellRange(loc, n)
	// Neutral spines keep their operand cells live.
	case tag == spec.APP || tag == spec.EQL:
		return []uint32{loc, loc + 1}
	case tag == spec.USE:
		return []uint32{loc, loc + 1}
	case tag == spec.MAT:
		return cellRange(loc, 1+int(t.Ext()))
	case tag == spec.SWI:
		return cellRange(loc, 3)
	case tag.IsPrim():
		return cellRange(loc, tag.PrimArity())
	case tag == spec.CO0 || tag == spec.CO1:
		return []uint32{loc + 2}
	case tag == spec.ANN || tag == spec.ALL || tag == spec.SIG:
		return []uint32{loc, loc + 1}
	case tag == spec.SLF || tag == spec.BRI:
		return []uint32{loc}
	}
	return nil
}

func cellRange(loc uint32, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = loc + uint32(i)
	}
	return out
}

// ParallelNormalize reduces the root, then normalizes its child
// sub-terms on worker states over the shared heap.  Duplication nodes
// reached from more than one subtree are claimed through the
// substitution protocol, so workers never fire the same node twice.
func (s *State) ParallelNormalize(ctx context.Context, t Term) (Term, error) {
	t, err := s.Reduce(t)
	if err != nil {
		return 0, err
	}
	locs := childCells(t)
	if len(locs) < 2 {
		return s.Normalize(t)
	}
	logctx.Debug(ctx, "parallel normalize", zap.Int("subtrees", len(locs)), zap.Int("workers", s.workers()))
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers())
	for _, loc := range locs {
		loc := loc
		w := s.fork()
		eg.Go(func() error {
			nt, err := w.Normalize(w.heap.Get(loc))
			if err != nil {
				return err
			}
			w.heap.Set(loc, nt)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	return t, nil
}
