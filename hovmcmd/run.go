package hovmcmd

import (
	"bufio"
	"strings"

	"go.brendoncarroll.net/star"

	"hovm.run/hovm/hovml"
	"hovm.run/hovm/hovml/parser"
	"hovm.run/hovm/hovmexpr"
	"hovm.run/hovm/ivm1"
)

var run = star.Command{
	Metadata: star.Metadata{
		Short: "evaluate a program file and print its normal form",
	},
	Flags: append([]star.IParam{collapseParam}, machineFlags...),
	Pos:   []star.IParam{fileParam},
	F: func(c star.Context) error {
		f := fileParam.Load(c)
		defer f.Close()
		prog, err := parser.NewParser(bufio.NewReader(f)).ParseProgram()
		if err != nil {
			return err
		}
		ds := ivm1.NewDefs()
		if err := hovml.LoadProgram(ds, prog); err != nil {
			return err
		}
		s := ivm1.NewState(buildConfig(c), ds)
		root, err := hovml.Main(s, prog)
		if err != nil {
			return err
		}
		if n := collapseParam.Load(c); n > 0 {
			if err := printCollapse(c, s, root, n); err != nil {
				return err
			}
		} else {
			out, err := s.ParallelNormalize(c.Context, root)
			if err != nil {
				return err
			}
			c.Printf("%s\n", s.Readback(out))
		}
		printStats(c, s)
		return nil
	},
}

var evalCmd = star.Command{
	Metadata: star.Metadata{
		Short: "evaluate an expression and print its normal form",
	},
	Flags: append([]star.IParam{collapseParam}, machineFlags...),
	Pos:   []star.IParam{exprParam},
	F: func(c star.Context) error {
		e, err := parser.NewParser(strings.NewReader(exprParam.Load(c))).ParseExpr()
		if err != nil {
			return err
		}
		s := newMachine(c)
		root, err := hovmexpr.Load(s, e)
		if err != nil {
			return err
		}
		if n := collapseParam.Load(c); n > 0 {
			return printCollapse(c, s, root, n)
		}
		out, err := s.Normalize(root)
		if err != nil {
			return err
		}
		c.Printf("%s\n", s.Readback(out))
		return nil
	},
}

var parseCmd = star.Command{
	Metadata: star.Metadata{
		Short: "parse a program file and print its syntax tree",
	},
	Pos: []star.IParam{fileParam},
	F: func(c star.Context) error {
		f := fileParam.Load(c)
		defer f.Close()
		prog, err := parser.NewParser(bufio.NewReader(f)).ParseProgram()
		if err != nil {
			return err
		}
		for _, def := range prog.Defs {
			sigil := "@"
			if def.Alias {
				sigil = "@@"
			}
			c.Printf("%s%s = %s\n", sigil, def.Name, def.Body)
		}
		if prog.Main != nil {
			c.Printf("%s\n", prog.Main)
		}
		return nil
	},
}

// printCollapse emits up to max alternatives of root, one per line.
func printCollapse(c star.Context, s *ivm1.State, root ivm1.Term, max int) error {
	col := s.Collapse(root)
	for i := 0; i < max; i++ {
		t, ok, err := col.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		t, err = s.Normalize(t)
		if err != nil {
			return err
		}
		c.Printf("%s\n", s.Readback(t))
	}
	return nil
}

func printStats(c star.Context, s *ivm1.State) {
	st := s.Stats()
	c.Printf("interactions: %d\n", st.Interactions)
	c.Printf("commutations: %d\n", st.Commutations)
	c.Printf("expansions:   %d\n", st.Expansions)
	c.Printf("heap:         %d/%d cells\n", st.HeapUsed, st.HeapCap)
	c.Printf("labels:       %d\n", st.LabelsUsed)
}
