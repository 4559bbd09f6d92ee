package hovmexpr

import (
	"fmt"

	"hovm.run/hovm/ivm1"
	"hovm.run/hovm/spec"
)

// Load runs the use-count pass on e and builds it in s's heap, returning
// the root term.  References resolve against s's definition table.
func Load(s *ivm1.State, e *Expr) (ivm1.Term, error) {
	if _, err := AutoDup(e, s.FreshLabel); err != nil {
		return 0, err
	}
	l := &loader{h: s.Heap(), defs: s.Defs(), env: make(map[string]ivm1.Term)}
	return l.build(e)
}

// LoadDef runs the use-count pass on e, builds it in a scratch heap and
// registers the relocatable image under name.
func LoadDef(ds *ivm1.Defs, name string, e *Expr) (uint32, error) {
	if _, err := AutoDup(e, ds.FreshLabel); err != nil {
		return 0, err
	}
	h := ivm1.NewHeap(cellCount(e) + 1)
	l := &loader{h: h, defs: ds, env: make(map[string]ivm1.Term)}
	root, err := l.build(e)
	if err != nil {
		return 0, err
	}
	return ds.Add(ivm1.NewDefFromHeap(name, h, root))
}

type loader struct {
	h    *ivm1.Heap
	defs *ivm1.Defs
	env  map[string]ivm1.Term
}

// bind maps name to t while fn runs, restoring any shadowed binding.
func (l *loader) bind(name string, t ivm1.Term, fn func() error) error {
	prev, had := l.env[name]
	l.env[name] = t
	err := fn()
	if had {
		l.env[name] = prev
	} else {
		delete(l.env, name)
	}
	return err
}

func (l *loader) build(e *Expr) (ivm1.Term, error) {
	h := l.h
	switch e.Kind {
	case KVar:
		t, ok := l.env[e.Name]
		if !ok {
			return 0, fmt.Errorf("hovmexpr: unbound variable %q", e.Name)
		}
		return t, nil
	case KLam:
		cell, err := h.Alloc(1)
		if err != nil {
			return 0, err
		}
		err = l.bind(e.Name, ivm1.Var(cell), func() error {
			body, err := l.build(e.Args[0])
			if err != nil {
				return err
			}
			h.Set(cell, body)
			return nil
		})
		if err != nil {
			return 0, err
		}
		return ivm1.Lam(cell), nil
	case KApp:
		loc, err := l.pair(e.Args[0], e.Args[1])
		if err != nil {
			return 0, err
		}
		return ivm1.App(loc), nil
	case KSup:
		if err := checkLabel(e.Label); err != nil {
			return 0, err
		}
		loc, err := l.pair(e.Args[0], e.Args[1])
		if err != nil {
			return 0, err
		}
		return ivm1.Sup(e.Label, loc), nil
	case KDup:
		if err := checkLabel(e.Label); err != nil {
			return 0, err
		}
		loc, err := h.Alloc(4)
		if err != nil {
			return 0, err
		}
		v, err := l.build(e.Args[0])
		if err != nil {
			return 0, err
		}
		h.Set(loc+2, v)
		err = l.bind(e.Names[0], ivm1.Co0(e.Label, loc), func() error {
			return l.bind(e.Names[1], ivm1.Co1(e.Label, loc), func() error {
				body, err := l.build(e.Args[1])
				if err != nil {
					return err
				}
				h.Set(loc+3, body)
				return nil
			})
		})
		if err != nil {
			return 0, err
		}
		return ivm1.Dup(e.Label, loc), nil
	case KNum:
		return ivm1.Num(e.Num), nil
	case KEra:
		return ivm1.Era(), nil
	case KRef, KAlo:
		if l.defs == nil {
			return 0, fmt.Errorf("hovmexpr: no definition table for @%s", e.Name)
		}
		id, ok := l.defs.Lookup(e.Name)
		if !ok {
			return 0, fmt.Errorf("hovmexpr: unknown definition @%s", e.Name)
		}
		if e.Kind == KAlo {
			return ivm1.Alo(id), nil
		}
		return ivm1.Ref(id), nil
	case KPrim:
		if !e.Op.Valid() || e.Op.Arity() != len(e.Args) {
			return 0, fmt.Errorf("hovmexpr: %v takes %d operands, got %d", e.Op, e.Op.Arity(), len(e.Args))
		}
		loc, err := l.block(e.Args)
		if err != nil {
			return 0, err
		}
		return ivm1.Prim(e.Op, loc), nil
	case KSwi:
		loc, err := l.block(e.Args)
		if err != nil {
			return 0, err
		}
		return ivm1.Swi(loc), nil
	case KCtr:
		if len(e.Args) >= spec.MaxCtrArity {
			return 0, fmt.Errorf("hovmexpr: constructor %s arity %d exceeds %d", e.Name, len(e.Args), spec.MaxCtrArity-1)
		}
		if l.defs == nil {
			return 0, fmt.Errorf("hovmexpr: no definition table for #%s", e.Name)
		}
		id, err := l.defs.Ctor(e.Name, len(e.Args))
		if err != nil {
			return 0, err
		}
		var loc uint32
		if len(e.Args) > 0 {
			if loc, err = l.block(e.Args); err != nil {
				return 0, err
			}
		}
		return ivm1.Ctr(len(e.Args), id, loc), nil
	case KMat:
		loc, err := l.block(e.Args)
		if err != nil {
			return 0, err
		}
		return ivm1.Mat(uint32(len(e.Args)-1), loc), nil
	case KEql:
		loc, err := l.pair(e.Args[0], e.Args[1])
		if err != nil {
			return 0, err
		}
		return ivm1.Eql(loc), nil
	case KAnn:
		loc, err := l.pair(e.Args[0], e.Args[1])
		if err != nil {
			return 0, err
		}
		return ivm1.Ann(loc), nil
	case KUse:
		loc, err := l.pair(e.Args[0], e.Args[1])
		if err != nil {
			return 0, err
		}
		return ivm1.Use(loc), nil
	}
	return 0, fmt.Errorf("hovmexpr: kind %d", e.Kind)
}

func (l *loader) pair(a, b *Expr) (uint32, error) {
	return l.block([]*Expr{a, b})
}

func (l *loader) block(args []*Expr) (uint32, error) {
	loc, err := l.h.Alloc(uint32(len(args)))
	if err != nil {
		return 0, err
	}
	for i, a := range args {
		t, err := l.build(a)
		if err != nil {
			return 0, err
		}
		l.h.Set(loc+uint32(i), t)
	}
	return loc, nil
}

// checkLabel rejects labels that do not fit the ext field.  Keeping
// user labels out of the auto-generated space is the parser's job.
func checkLabel(lab uint32) error {
	if lab > spec.MaxLabel {
		return fmt.Errorf("hovmexpr: label %d out of range", lab)
	}
	return nil
}

// cellCount is the exact heap footprint of a loaded expression.
func cellCount(e *Expr) uint32 {
	var n uint32
	switch e.Kind {
	case KLam:
		n = 1
	case KApp, KSup, KEql, KAnn, KUse:
		n = 2
	case KDup:
		n = 4
	case KSwi:
		n = 3
	case KPrim, KCtr:
		n = uint32(len(e.Args))
	case KMat:
		n = uint32(len(e.Args))
	}
	for _, a := range e.Args {
		n += cellCount(a)
	}
	return n
}
