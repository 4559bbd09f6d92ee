// Package testutil has helpers shared by the package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"hovm.run/hovm/ivm1"
)

func Context(t testing.TB) context.Context {
	ctx := context.Background()
	ctx, cf := context.WithCancel(ctx)
	t.Cleanup(cf)
	l, err := zap.NewDevelopment()
	require.NoError(t, err)
	ctx = logctx.NewContext(ctx, l)
	return ctx
}

// NewState makes a machine with a small heap, suitable for tests.
func NewState(t testing.TB) *ivm1.State {
	cfg := ivm1.DefaultConfig()
	cfg.HeapSize = 1 << 16
	cfg.StackSize = 1 << 10
	return ivm1.NewState(cfg, ivm1.NewDefs())
}
