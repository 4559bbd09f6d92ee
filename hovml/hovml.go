// Package hovml ties the surface language to the runtime: parse a
// program, register its definitions, and build its main term.
package hovml

import (
	"fmt"

	"hovm.run/hovm/hovmexpr"
	"hovm.run/hovm/hovml/parser"
	"hovm.run/hovm/ivm1"
)

// LoadProgram registers every definition of prog in ds, in source order.
func LoadProgram(ds *ivm1.Defs, prog *parser.Program) error {
	for _, def := range prog.Defs {
		if _, err := hovmexpr.LoadDef(ds, def.Name, def.Body); err != nil {
			return fmt.Errorf("hovml: definition @%s: %w", def.Name, err)
		}
	}
	return nil
}

// Main builds prog's main term in s's heap.  A program without a main
// term evaluates its @main definition instead.
func Main(s *ivm1.State, prog *parser.Program) (ivm1.Term, error) {
	if prog.Main != nil {
		return hovmexpr.Load(s, prog.Main)
	}
	if s.Defs() != nil {
		if _, ok := s.Defs().Lookup("main"); ok {
			return hovmexpr.Load(s, hovmexpr.Ref("main"))
		}
	}
	return 0, fmt.Errorf("hovml: program has no main term")
}
