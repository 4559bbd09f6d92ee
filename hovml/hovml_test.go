package hovml

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hovm.run/hovm/hovml/parser"
	"hovm.run/hovm/ivm1"
)

func run(t *testing.T, src string) (*ivm1.State, ivm1.Term) {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	ds := ivm1.NewDefs()
	require.NoError(t, LoadProgram(ds, prog))
	s := ivm1.NewState(ivm1.Config{HeapSize: 1 << 14, StackSize: 1 << 8}, ds)
	root, err := Main(s, prog)
	require.NoError(t, err)
	out, err := s.Normalize(root)
	require.NoError(t, err)
	return s, out
}

func TestRunExpr(t *testing.T) {
	t.Parallel()
	s, out := run(t, `(+ (* #6 #7) #0)`)
	require.Equal(t, "#42", s.Readback(out))
}

func TestRunWithDefs(t *testing.T) {
	t.Parallel()
	s, out := run(t, `
@inc = \x.(+ x #1)
(@inc (@inc #40))
`)
	require.Equal(t, "#42", s.Readback(out))
}

func TestMainDefinitionFallback(t *testing.T) {
	t.Parallel()
	s, out := run(t, `@main = (- #50 #8)`)
	require.Equal(t, "#42", s.Readback(out))
}

func TestNoMain(t *testing.T) {
	t.Parallel()
	prog, err := parser.Parse(`@one = #1`)
	require.NoError(t, err)
	ds := ivm1.NewDefs()
	require.NoError(t, LoadProgram(ds, prog))
	s := ivm1.NewState(ivm1.Config{HeapSize: 1 << 12, StackSize: 1 << 8}, ds)
	_, err = Main(s, prog)
	require.Error(t, err)
}

func TestDuplicateDefinition(t *testing.T) {
	t.Parallel()
	prog, err := parser.Parse(`
@f = #1
@f = #2
`)
	require.NoError(t, err)
	err = LoadProgram(ivm1.NewDefs(), prog)
	require.Error(t, err)
	require.Contains(t, err.Error(), "@f")
}

func TestAliasExpandsOnce(t *testing.T) {
	t.Parallel()
	// both uses of the alias resolve to the same expansion
	s, out := run(t, `
@@k = #7
(+ @@k @@k)
`)
	require.Equal(t, "#14", s.Readback(out))
	require.EqualValues(t, 1, s.Stats().Expansions)
}
