package ivm1

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"hovm.run/hovm/spec"
)

// BatchOp applies a binary primitive element-wise over raw numeric
// arrays, bypassing the reducer.  The result is bit-identical to
// reducing each operand pair as a P02 node.
func BatchOp(op spec.Op, a, b, out []uint32) error {
	if !op.Valid() || op.Arity() != 2 {
		return fmt.Errorf("%w: op=%d", ErrUnknownPrimitive, op)
	}
	if len(a) != len(b) || len(a) != len(out) {
		return fmt.Errorf("%w: batch lengths %d/%d/%d", ErrShapeMismatch, len(a), len(b), len(out))
	}
	switch op {
	case spec.ADD:
		batch2(a, b, out, func(x, y uint32) uint32 { return x + y })
	case spec.SUB:
		batch2(a, b, out, func(x, y uint32) uint32 { return x - y })
	case spec.MUL:
		batch2(a, b, out, func(x, y uint32) uint32 { return x * y })
	case spec.AND:
		batch2(a, b, out, func(x, y uint32) uint32 { return x & y })
	case spec.OR:
		batch2(a, b, out, func(x, y uint32) uint32 { return x | y })
	case spec.XOR:
		batch2(a, b, out, func(x, y uint32) uint32 { return x ^ y })
	case spec.LSH:
		batch2(a, b, out, func(x, y uint32) uint32 { return x << (y & 31) })
	case spec.RSH:
		batch2(a, b, out, func(x, y uint32) uint32 { return x >> (y & 31) })
	default:
		for i := range out {
			out[i] = op.Apply(a[i], b[i])
		}
	}
	return nil
}

// BatchOp1 is the unary counterpart of BatchOp.
func BatchOp1(op spec.Op, a, out []uint32) error {
	if !op.Valid() || op.Arity() != 1 {
		return fmt.Errorf("%w: op=%d", ErrUnknownPrimitive, op)
	}
	if len(a) != len(out) {
		return fmt.Errorf("%w: batch lengths %d/%d", ErrShapeMismatch, len(a), len(out))
	}
	i := 0
	for ; i+8 <= len(a); i += 8 {
		out[i+0] = ^a[i+0]
		out[i+1] = ^a[i+1]
		out[i+2] = ^a[i+2]
		out[i+3] = ^a[i+3]
		out[i+4] = ^a[i+4]
		out[i+5] = ^a[i+5]
		out[i+6] = ^a[i+6]
		out[i+7] = ^a[i+7]
	}
	for ; i < len(a); i++ {
		out[i] = ^a[i]
	}
	return nil
}

// batch2 runs fn over the arrays in eight-wide unrolled strides.
func batch2(a, b, out []uint32, fn func(x, y uint32) uint32) {
	i := 0
	for ; i+8 <= len(a); i += 8 {
		out[i+0] = fn(a[i+0], b[i+0])
		out[i+1] = fn(a[i+1], b[i+1])
		out[i+2] = fn(a[i+2], b[i+2])
		out[i+3] = fn(a[i+3], b[i+3])
		out[i+4] = fn(a[i+4], b[i+4])
		out[i+5] = fn(a[i+5], b[i+5])
		out[i+6] = fn(a[i+6], b[i+6])
		out[i+7] = fn(a[i+7], b[i+7])
	}
	for ; i < len(a); i++ {
		out[i] = fn(a[i], b[i])
	}
}

// ParallelBatchOp partitions the arrays statically across workers.  Each
// worker owns an independent slice, so there is no shared mutable state.
func (s *State) ParallelBatchOp(ctx context.Context, op spec.Op, a, b, out []uint32) error {
	if !op.Valid() || op.Arity() != 2 {
		return fmt.Errorf("%w: op=%d", ErrUnknownPrimitive, op)
	}
	if len(a) != len(b) || len(a) != len(out) {
		return fmt.Errorf("%w: batch lengths %d/%d/%d", ErrShapeMismatch, len(a), len(b), len(out))
	}
	nw := s.workers()
	if nw < 2 || len(a) < 2*nw {
		return BatchOp(op, a, b, out)
	}
	eg, _ := errgroup.WithContext(ctx)
	chunk := (len(a) + nw - 1) / nw
	for lo := 0; lo < len(a); lo += chunk {
		hi := min(lo+chunk, len(a))
		lo := lo
		eg.Go(func() error {
			return BatchOp(op, a[lo:hi], b[lo:hi], out[lo:hi])
		})
	}
	return eg.Wait()
}
