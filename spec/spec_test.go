package spec

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpTable(t *testing.T) {
	t.Parallel()
	for o := Op(0); o < NumOps; o++ {
		require.True(t, o.Valid())
		sym := o.String()
		require.NotEmpty(t, sym)
		got, ok := OpBySymbol(sym)
		require.True(t, ok, sym)
		require.Equal(t, o, got)
		if o == NOT {
			require.Equal(t, 1, o.Arity())
		} else {
			require.Equal(t, 2, o.Arity())
		}
	}
	require.False(t, NumOps.Valid())
	_, ok := OpBySymbol("**")
	require.False(t, ok)
}

func TestOpApply(t *testing.T) {
	t.Parallel()
	type testCase struct {
		Op   Op
		A, B uint32
		Out  uint32
	}
	tcs := []testCase{
		{ADD, 2, 3, 5},
		{ADD, 0xffffffff, 1, 0},
		{SUB, 0, 1, 0xffffffff},
		{MUL, 1 << 16, 1 << 16, 0},
		{DIV, 7, 2, 3},
		{DIV, 7, 0, 0},
		{MOD, 7, 2, 1},
		{MOD, 7, 0, 0},
		{AND, 0b1100, 0b1010, 0b1000},
		{OR, 0b1100, 0b1010, 0b1110},
		{XOR, 0b1100, 0b1010, 0b0110},
		{LSH, 1, 4, 16},
		{LSH, 1, 32, 1},
		{RSH, 16, 4, 1},
		{RSH, 1, 33, 0},
		{EQ, 5, 5, 1},
		{EQ, 5, 6, 0},
		{NE, 5, 6, 1},
		{LT, 5, 6, 1},
		{LE, 6, 6, 1},
		{GT, 6, 5, 1},
		{GE, 5, 6, 0},
	}
	for _, tc := range tcs {
		t.Run(fmt.Sprintf("%v_%d_%d", tc.Op, tc.A, tc.B), func(t *testing.T) {
			require.Equal(t, tc.Out, tc.Op.Apply(tc.A, tc.B))
		})
	}
	require.Equal(t, uint32(0xfffffffe), NOT.Apply1(1))
}

func TestTag(t *testing.T) {
	t.Parallel()
	for arity := 0; arity < MaxCtrArity; arity++ {
		tag := Ctr(arity)
		require.True(t, tag.IsCtr())
		require.Equal(t, arity, tag.CtrArity())
	}
	require.Panics(t, func() { Ctr(MaxCtrArity) })

	for _, tag := range []Tag{LAM, SUP, ERA, NUM, C00, C03, ANN, TYP} {
		require.True(t, tag.IsValue(), tag)
	}
	for _, tag := range []Tag{VAR, APP, DUP, CO0, CO1, REF, ALO, RED, USE, EQL, MAT, SWI} {
		require.False(t, tag.IsValue(), tag)
	}
	for _, tag := range []Tag{FAPP, FMAT, FSWI, FOP1, FOP2, FUSE, FEQL, FCO0, FCO1} {
		require.True(t, tag.IsFrame(), tag)
		require.False(t, tag.IsValue(), tag)
	}
	require.Equal(t, "LAM", LAM.String())
	require.Equal(t, "C02", C02.String())
	require.Equal(t, "P02", P02.String())
}

func TestLayout(t *testing.T) {
	t.Parallel()
	require.Equal(t, ^uint64(0), SubMask|TagMask|ExtMask|ValMask)
	require.Zero(t, SubMask&TagMask)
	require.Zero(t, TagMask&ExtMask)
	require.Zero(t, ExtMask&ValMask)
	require.Less(t, uint32(AutoLabelBase), uint32(MaxLabel))
	require.EqualValues(t, TagShift+TagBits, SubBit)
	require.EqualValues(t, ExtShift+ExtBits, TagShift)
	require.EqualValues(t, ValBits, ExtShift)
}
