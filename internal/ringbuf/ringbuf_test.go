package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushPop(t *testing.T) {
	t.Parallel()
	rb := New[int](4)
	require.Equal(t, 4, rb.MaxLen())
	require.Equal(t, 0, rb.Len())

	rb.PushBack(1)
	rb.PushBack(2)
	rb.PushFront(0)
	require.Equal(t, 3, rb.Len())
	require.Equal(t, 0, rb.At(0))
	require.Equal(t, 1, rb.At(1))
	require.Equal(t, 2, rb.At(2))

	require.Equal(t, 0, rb.PopFront())
	require.Equal(t, 2, rb.PopBack())
	require.Equal(t, 1, rb.PopFront())
	require.Equal(t, 0, rb.Len())
}

func TestWrapAround(t *testing.T) {
	t.Parallel()
	rb := New[int](3)
	for round := 0; round < 5; round++ {
		rb.PushBack(round)
		rb.PushBack(round + 100)
		require.Equal(t, round, rb.PopFront())
		require.Equal(t, round+100, rb.PopFront())
	}
}

func TestFullPanics(t *testing.T) {
	t.Parallel()
	rb := New[int](2)
	rb.PushBack(1)
	rb.PushBack(2)
	require.Panics(t, func() { rb.PushBack(3) })
	require.Panics(t, func() { rb.PushFront(0) })
}

func TestAtBounds(t *testing.T) {
	t.Parallel()
	rb := New[int](2)
	rb.PushBack(5)
	require.Panics(t, func() { rb.At(1) })
	require.Panics(t, func() { rb.At(-1) })
}
