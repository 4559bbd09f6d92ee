package hovmexpr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hovm.run/hovm/spec"
)

// testFresh mints labels from the auto space without a definition table.
func testFresh() func() (uint32, error) {
	next := uint32(spec.AutoLabelBase)
	return func() (uint32, error) {
		lab := next
		next++
		return lab, nil
	}
}

func TestAutoDupSingleUse(t *testing.T) {
	t.Parallel()
	e := Lam("x", Var("x"))
	out, err := AutoDup(e, testFresh())
	require.NoError(t, err)
	require.Equal(t, KVar, out.Args[0].Kind)
	require.Equal(t, "x", out.Args[0].Name)
}

func TestAutoDupTwoUses(t *testing.T) {
	t.Parallel()
	e := Lam("x", App(Var("x"), Var("x")))
	out, err := AutoDup(e, testFresh())
	require.NoError(t, err)

	d := out.Args[0]
	require.Equal(t, KDup, d.Kind)
	require.GreaterOrEqual(t, d.Label, uint32(spec.AutoLabelBase))
	require.Equal(t, [2]string{"x$0", "x$1"}, d.Names)
	require.Equal(t, Var("x").Name, d.Args[0].Name)

	app := d.Args[1]
	require.Equal(t, KApp, app.Kind)
	require.Equal(t, "x$0", app.Args[0].Name)
	require.Equal(t, "x$1", app.Args[1].Name)
}

func TestAutoDupThreeUses(t *testing.T) {
	t.Parallel()
	e := Lam("x", AppN(Var("x"), Var("x"), Var("x")))
	out, err := AutoDup(e, testFresh())
	require.NoError(t, err)

	// two duplications threaded linearly: the first peels x$0 and hands
	// the remainder x$c1 to the second
	d0 := out.Args[0]
	require.Equal(t, KDup, d0.Kind)
	require.Equal(t, [2]string{"x$0", "x$c1"}, d0.Names)
	require.Equal(t, "x", d0.Args[0].Name)

	d1 := d0.Args[1]
	require.Equal(t, KDup, d1.Kind)
	require.Equal(t, [2]string{"x$1", "x$2"}, d1.Names)
	require.Equal(t, "x$c1", d1.Args[0].Name)
	require.NotEqual(t, d0.Label, d1.Label)

	app := d1.Args[1]
	require.Equal(t, KApp, app.Kind)
	require.Equal(t, "x$2", app.Args[1].Name)
}

func TestAutoDupShadowing(t *testing.T) {
	t.Parallel()
	// the inner binder shadows; only its own uses thread
	e := Lam("x", Lam("x", App(Var("x"), Var("x"))))
	out, err := AutoDup(e, testFresh())
	require.NoError(t, err)

	inner := out.Args[0]
	require.Equal(t, KLam, inner.Kind)
	require.Equal(t, KDup, inner.Args[0].Kind)
}

func TestAutoDupDupBinders(t *testing.T) {
	t.Parallel()
	// both carriers of an explicit duplication get threaded
	e := Dup(3, "a", "b", Num(1), AppN(Var("a"), Var("a"), Var("b")))
	out, err := AutoDup(e, testFresh())
	require.NoError(t, err)

	body := out.Args[1]
	require.Equal(t, KDup, body.Kind)
	require.Equal(t, [2]string{"a$0", "a$1"}, body.Names)
}

func TestAutoDupNoUses(t *testing.T) {
	t.Parallel()
	e := Lam("x", Num(5))
	out, err := AutoDup(e, testFresh())
	require.NoError(t, err)
	require.Equal(t, KNum, out.Args[0].Kind)
}
