package ivm1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafetyString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "safe", SafetySafe.String())
	require.Equal(t, "warn", SafetyWarn.String())
	require.Equal(t, "unsafe", SafetyUnsafe.String())
	require.Equal(t, "invalid", Safety(9).String())
}

func TestAnalyzeSafetySafe(t *testing.T) {
	t.Parallel()
	s := newTestState(t)

	// !&1{a,b}=#7; a
	node := alloc(t, s, Term(0), Term(0), Num(7), Term(0))
	s.heap.Set(node+3, Var(node))
	require.Equal(t, SafetySafe, s.AnalyzeSafety(Dup(1, node)))

	// an application spine with no duplication at all
	body := alloc1(t, s)
	s.heap.Set(body, Var(body))
	pair := alloc(t, s, Lam(body), Num(3))
	require.Equal(t, SafetySafe, s.AnalyzeSafety(App(pair)))
}

func TestAnalyzeSafetyWarn(t *testing.T) {
	t.Parallel()
	s := newTestState(t)

	// !&1{a,b}=\x.#1; #0 duplicates a lambda whose body does not duplicate
	lamBody := alloc1(t, s)
	s.heap.Set(lamBody, Num(1))
	node := alloc(t, s, Term(0), Term(0), Lam(lamBody), Num(0))
	require.Equal(t, SafetyWarn, s.AnalyzeSafety(Dup(1, node)))
}

func TestAnalyzeSafetyUnsafe(t *testing.T) {
	t.Parallel()
	s := newTestState(t)

	// the duplicated lambda superposes in its own body
	supPair := alloc(t, s, Num(1), Num(2))
	lamBody := alloc1(t, s)
	s.heap.Set(lamBody, Sup(2, supPair))
	node := alloc(t, s, Term(0), Term(0), Lam(lamBody), Num(0))
	require.Equal(t, SafetyUnsafe, s.AnalyzeSafety(Dup(1, node)))
}

func TestAnalyzeSafetyLamInsideCtor(t *testing.T) {
	t.Parallel()
	s := newTestState(t)

	// duplicating #Box{\x.x} still duplicates a lambda
	lamBody := alloc1(t, s)
	s.heap.Set(lamBody, Var(lamBody))
	field := alloc(t, s, Lam(lamBody))
	node := alloc(t, s, Term(0), Term(0), Ctr(1, 0, field), Num(0))
	require.Equal(t, SafetyWarn, s.AnalyzeSafety(Dup(1, node)))
}

func TestAnalyzeSafetyProjection(t *testing.T) {
	t.Parallel()
	s := newTestState(t)

	// an unclaimed projection of a lambda-valued node warns
	lamBody := alloc1(t, s)
	s.heap.Set(lamBody, Num(0))
	node := alloc(t, s, Term(0), Term(0), Lam(lamBody))
	require.Equal(t, SafetyWarn, s.AnalyzeSafety(Co0(1, node)))

	// once the node's value is claimed the projection is inert
	s.heap.Set(node+2, Num(9).WithSub())
	require.Equal(t, SafetySafe, s.AnalyzeSafety(Co1(1, node)))
}

func TestAnalyzeSafetyRefLeaf(t *testing.T) {
	t.Parallel()
	s := newTestState(t)

	// references are leaves, whatever their definition holds
	node := alloc(t, s, Term(0), Term(0), Ref(0), Num(0))
	require.Equal(t, SafetySafe, s.AnalyzeSafety(Dup(1, node)))
}
