// package hovmexpr is the expression builder: a named-variable term tree
// that the use-count pass and the heap loader operate on.
package hovmexpr

import (
	"fmt"
	"strings"

	"hovm.run/hovm/spec"
)

// Kind is the shape of an expression node.
type Kind uint8

const (
	KVar Kind = iota
	KLam
	KApp
	KSup
	KDup
	KNum
	KEra
	KRef
	KAlo
	KPrim
	KSwi
	KCtr
	KMat
	KEql
	KAnn
	KUse
)

// Expr is one node of an expression tree.  Which fields are set depends
// on Kind; the constructors below keep the combinations straight.
type Expr struct {
	Kind Kind

	// Name is the variable for KVar, the binder for KLam, the definition
	// name for KRef and KAlo, and the constructor name for KCtr.
	Name string
	// Names are the two binders of a KDup.
	Names [2]string
	// Label is the duplication label of KSup and KDup.
	Label uint32
	// Num is the immediate of KNum.
	Num uint32
	// Op is the primitive of KPrim.
	Op spec.Op

	Args []*Expr
}

func Var(name string) *Expr { return &Expr{Kind: KVar, Name: name} }

func Lam(name string, body *Expr) *Expr {
	return &Expr{Kind: KLam, Name: name, Args: []*Expr{body}}
}

func App(fn, arg *Expr) *Expr {
	return &Expr{Kind: KApp, Args: []*Expr{fn, arg}}
}

// AppN folds a spine of applications left to right.
func AppN(fn *Expr, args ...*Expr) *Expr {
	for _, a := range args {
		fn = App(fn, a)
	}
	return fn
}

func Sup(label uint32, left, right *Expr) *Expr {
	return &Expr{Kind: KSup, Label: label, Args: []*Expr{left, right}}
}

// Dup binds x and y to the two halves of value inside body.
func Dup(label uint32, x, y string, value, body *Expr) *Expr {
	return &Expr{Kind: KDup, Label: label, Names: [2]string{x, y}, Args: []*Expr{value, body}}
}

func Num(v uint32) *Expr { return &Expr{Kind: KNum, Num: v} }
func Era() *Expr         { return &Expr{Kind: KEra} }

func Ref(name string) *Expr { return &Expr{Kind: KRef, Name: name} }
func Alo(name string) *Expr { return &Expr{Kind: KAlo, Name: name} }

func Prim(op spec.Op, args ...*Expr) *Expr {
	return &Expr{Kind: KPrim, Op: op, Args: args}
}

func Swi(scrut, ifZero, ifSucc *Expr) *Expr {
	return &Expr{Kind: KSwi, Args: []*Expr{scrut, ifZero, ifSucc}}
}

func Ctr(name string, fields ...*Expr) *Expr {
	return &Expr{Kind: KCtr, Name: name, Args: fields}
}

func Mat(scrut *Expr, branches ...*Expr) *Expr {
	return &Expr{Kind: KMat, Args: append([]*Expr{scrut}, branches...)}
}

func Eql(a, b *Expr) *Expr {
	return &Expr{Kind: KEql, Args: []*Expr{a, b}}
}

func Ann(term, typ *Expr) *Expr {
	return &Expr{Kind: KAnn, Args: []*Expr{term, typ}}
}

// Use forces expr to weak head normal form, then continues with cont.
func Use(expr, cont *Expr) *Expr {
	return &Expr{Kind: KUse, Args: []*Expr{expr, cont}}
}

func (e *Expr) String() string {
	var b strings.Builder
	e.format(&b)
	return b.String()
}

func (e *Expr) format(b *strings.Builder) {
	switch e.Kind {
	case KVar:
		b.WriteString(e.Name)
	case KLam:
		fmt.Fprintf(b, "\\%s.", e.Name)
		e.Args[0].format(b)
	case KApp:
		b.WriteString("(")
		e.Args[0].format(b)
		b.WriteString(" ")
		e.Args[1].format(b)
		b.WriteString(")")
	case KSup:
		fmt.Fprintf(b, "&%d{", e.Label)
		e.Args[0].format(b)
		b.WriteString(",")
		e.Args[1].format(b)
		b.WriteString("}")
	case KDup:
		fmt.Fprintf(b, "!&%d{%s,%s}=", e.Label, e.Names[0], e.Names[1])
		e.Args[0].format(b)
		b.WriteString(";")
		e.Args[1].format(b)
	case KNum:
		fmt.Fprintf(b, "#%d", e.Num)
	case KEra:
		b.WriteString("*")
	case KRef:
		fmt.Fprintf(b, "@%s", e.Name)
	case KAlo:
		fmt.Fprintf(b, "@@%s", e.Name)
	case KPrim:
		fmt.Fprintf(b, "(%v", e.Op)
		for _, a := range e.Args {
			b.WriteString(" ")
			a.format(b)
		}
		b.WriteString(")")
	case KSwi:
		b.WriteString("(?")
		for _, a := range e.Args {
			b.WriteString(" ")
			a.format(b)
		}
		b.WriteString(")")
	case KCtr:
		fmt.Fprintf(b, "#%s", e.Name)
		if len(e.Args) > 0 {
			b.WriteString("{")
			for i, a := range e.Args {
				if i > 0 {
					b.WriteString(" ")
				}
				a.format(b)
			}
			b.WriteString("}")
		}
	case KMat:
		b.WriteString("~")
		e.Args[0].format(b)
		b.WriteString("{")
		for i, a := range e.Args[1:] {
			if i > 0 {
				b.WriteString(" ")
			}
			a.format(b)
		}
		b.WriteString("}")
	case KEql:
		b.WriteString("(=== ")
		e.Args[0].format(b)
		b.WriteString(" ")
		e.Args[1].format(b)
		b.WriteString(")")
	case KAnn:
		b.WriteString("{")
		e.Args[0].format(b)
		b.WriteString(" : ")
		e.Args[1].format(b)
		b.WriteString("}")
	case KUse:
		b.WriteString("!")
		e.Args[0].format(b)
		b.WriteString(";")
		e.Args[1].format(b)
	}
}
