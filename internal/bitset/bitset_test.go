package bitset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	t.Parallel()
	s := New(100)
	require.False(t, s.Get(0))
	require.False(t, s.Get(63))

	s.Put(0)
	s.Put(63)
	s.Put(64)
	require.True(t, s.Get(0))
	require.True(t, s.Get(63))
	require.True(t, s.Get(64))
	require.False(t, s.Get(1))

	// reads past the allocated words are false, not a panic
	require.False(t, s.Get(1 << 20))
}

func TestSetGrow(t *testing.T) {
	t.Parallel()
	s := New(1)
	s.Put(1000)
	require.True(t, s.Get(1000))
	require.False(t, s.Get(999))
}

func TestSetReset(t *testing.T) {
	t.Parallel()
	s := New(128)
	s.Put(7)
	s.Put(127)
	s.Reset()
	require.False(t, s.Get(7))
	require.False(t, s.Get(127))
}
