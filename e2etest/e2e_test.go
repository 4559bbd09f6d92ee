// Package e2etest runs whole programs through the parser, the loader
// and the reducer, checking their printed normal forms.
package e2etest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"hovm.run/hovm/hovmcmd"
	"hovm.run/hovm/hovml"
	"hovm.run/hovm/hovml/parser"
	"hovm.run/hovm/internal/testutil"
	"hovm.run/hovm/ivm1"
)

// eval parses src, loads it and returns the state and its printed
// normal form.
func eval(t *testing.T, src string) (*ivm1.State, string) {
	t.Helper()
	ctx := testutil.Context(t)
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	ds := ivm1.NewDefs()
	require.NoError(t, hovml.LoadProgram(ds, prog))
	s := ivm1.NewState(ivm1.Config{HeapSize: 1 << 20, StackSize: 1 << 12}, ds)
	root, err := hovml.Main(s, prog)
	require.NoError(t, err)
	out, err := s.ParallelNormalize(ctx, root)
	require.NoError(t, err)
	return s, s.Readback(out)
}

func TestExamples(t *testing.T) {
	t.Parallel()
	for name, src := range hovmcmd.Examples() {
		name, src := name, src
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			want, ok := expected(src)
			require.True(t, ok, "example %s has no expectation", name)
			_, got := eval(t, src)
			require.Equal(t, want, got)
		})
	}
}

// expected extracts the `// expect:` annotation.
func expected(src string) (string, bool) {
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "// expect:"); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

func TestRecursion(t *testing.T) {
	t.Parallel()
	_, got := eval(t, `
@sum = \n.(?n #0 \p.(+ n (@sum p)))
(@sum #10)
`)
	require.Equal(t, "#55", got)
}

func TestChurch(t *testing.T) {
	t.Parallel()
	// church numeral three applied to increment
	_, got := eval(t, `
@three = \f.\x.(f (f (f x)))
@inc = \n.(+ n #1)
((@three @inc) #0)
`)
	require.Equal(t, "#3", got)
}

func TestStructuralEquality(t *testing.T) {
	t.Parallel()
	_, got := eval(t, `(=== #Cons{#1 #Nil} #Cons{#1 #Nil})`)
	require.Equal(t, "#1", got)
	_, got = eval(t, `(=== #Cons{#1 #Nil} #Cons{#2 #Nil})`)
	require.Equal(t, "#0", got)
}

func TestSuperposedArgument(t *testing.T) {
	t.Parallel()
	// one call, two worlds
	_, got := eval(t, `
@double = \x.(* x #2)
(@double &1{#3,#4})
`)
	require.Equal(t, "&1{#6,#8}", got)
}

func TestCollapseProgram(t *testing.T) {
	t.Parallel()
	prog, err := parser.Parse(`(+ &1{#1,#2} &2{#10,#20})`)
	require.NoError(t, err)
	ds := ivm1.NewDefs()
	require.NoError(t, hovml.LoadProgram(ds, prog))
	s := ivm1.NewState(ivm1.Config{HeapSize: 1 << 16, StackSize: 1 << 10}, ds)
	root, err := hovml.Main(s, prog)
	require.NoError(t, err)

	alts, err := s.Collapse(root).Rest(0)
	require.NoError(t, err)
	var got []string
	for _, alt := range alts {
		alt, err := s.Normalize(alt)
		require.NoError(t, err)
		got = append(got, s.Readback(alt))
	}
	require.ElementsMatch(t, []string{"#11", "#21", "#12", "#22"}, got)
}

func TestListMap(t *testing.T) {
	t.Parallel()
	_, got := eval(t, `
@map = \f.\xs.~xs{\h.\t.#Cons{(f h) ((@map f) t)} #Nil}
((@map \x.(* x x)) #Cons{#1 #Cons{#2 #Cons{#3 #Nil}}})
`)
	require.Equal(t, "#Cons{#1 #Cons{#4 #Cons{#9 #Nil}}}", got)
}

func TestMatchOnSuperposition(t *testing.T) {
	t.Parallel()
	_, got := eval(t, `
~&1{#Cons{#7 #Nil},#Nil}{\h.\t.h #0}
`)
	require.Equal(t, "&1{#7,#0}", got)
}

func TestAnalyzeSafetyProgram(t *testing.T) {
	t.Parallel()
	prog, err := parser.Parse(`!&1{f,g}=\x.x;(f (g #1))`)
	require.NoError(t, err)
	ds := ivm1.NewDefs()
	require.NoError(t, hovml.LoadProgram(ds, prog))
	s := ivm1.NewState(ivm1.Config{HeapSize: 1 << 16, StackSize: 1 << 10}, ds)
	root, err := hovml.Main(s, prog)
	require.NoError(t, err)
	require.Equal(t, ivm1.SafetyWarn, s.AnalyzeSafety(root))
}
