package ivm1

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"hovm.run/hovm/spec"
)

func TestBatchOp(t *testing.T) {
	t.Parallel()
	// length 21 exercises the unrolled body and the tail loop
	a := make([]uint32, 21)
	b := make([]uint32, 21)
	for i := range a {
		a[i] = uint32(i * 0x9e3779b9)
		b[i] = uint32(i*i + 3)
	}
	for op := spec.Op(0); op < spec.NumOps; op++ {
		if op.Arity() != 2 {
			continue
		}
		op := op
		t.Run(fmt.Sprint(op), func(t *testing.T) {
			t.Parallel()
			out := make([]uint32, len(a))
			require.NoError(t, BatchOp(op, a, b, out))
			for i := range out {
				require.Equal(t, op.Apply(a[i], b[i]), out[i], "index %d", i)
			}
		})
	}
}

func TestBatchOpErrors(t *testing.T) {
	t.Parallel()
	a := make([]uint32, 4)
	out := make([]uint32, 4)
	err := BatchOp(spec.ADD, a, a, out[:3])
	require.ErrorIs(t, err, ErrShapeMismatch)
	err = BatchOp(spec.ADD, a[:2], a, out)
	require.ErrorIs(t, err, ErrShapeMismatch)
	err = BatchOp(spec.NOT, a, a, out)
	require.ErrorIs(t, err, ErrUnknownPrimitive)
	err = BatchOp(spec.NumOps, a, a, out)
	require.ErrorIs(t, err, ErrUnknownPrimitive)
}

func TestBatchOp1(t *testing.T) {
	t.Parallel()
	a := make([]uint32, 13)
	for i := range a {
		a[i] = uint32(i) << 7
	}
	out := make([]uint32, len(a))
	require.NoError(t, BatchOp1(spec.NOT, a, out))
	for i := range out {
		require.Equal(t, spec.NOT.Apply1(a[i]), out[i])
	}

	err := BatchOp1(spec.ADD, a, out)
	require.ErrorIs(t, err, ErrUnknownPrimitive)
	err = BatchOp1(spec.NOT, a, out[:2])
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestParallelBatchOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewState(Config{HeapSize: 1 << 8, StackSize: 1 << 8, Workers: 4}, nil)

	const n = 1001
	a := make([]uint32, n)
	b := make([]uint32, n)
	for i := range a {
		a[i] = uint32(i * 7)
		b[i] = uint32(i)
	}
	want := make([]uint32, n)
	require.NoError(t, BatchOp(spec.MUL, a, b, want))

	out := make([]uint32, n)
	require.NoError(t, s.ParallelBatchOp(ctx, spec.MUL, a, b, out))
	require.Equal(t, want, out)

	// small inputs take the serial path
	out2 := make([]uint32, 3)
	require.NoError(t, s.ParallelBatchOp(ctx, spec.ADD, a[:3], b[:3], out2))
	require.Equal(t, []uint32{0, 8, 16}, out2)

	err := s.ParallelBatchOp(ctx, spec.MUL, a, b, out[:5])
	require.ErrorIs(t, err, ErrShapeMismatch)
	err = s.ParallelBatchOp(ctx, spec.NOT, a, b, out)
	require.ErrorIs(t, err, ErrUnknownPrimitive)
}
