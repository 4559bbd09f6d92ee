// package ivm1 contains the interaction-calculus runtime: a bit-packed
// term heap and a stack-frame reducer driving terms to weak head normal
// form by local rewrites.
package ivm1

import (
	"fmt"

	"hovm.run/hovm/spec"
)

// Term is a 64-bit packed term: a substitution sentinel, a tag, a 24-bit
// ext field and a 32-bit val field.  This file is the only place that
// knows the bit layout.
type Term uint64

// New packs a term.
func New(tag spec.Tag, ext uint32, val uint32) Term {
	return Term(uint64(tag)<<spec.TagShift | uint64(ext&spec.MaxLabel)<<spec.ExtShift | uint64(val))
}

func (t Term) Tag() spec.Tag { return spec.Tag(uint64(t) & spec.TagMask >> spec.TagShift) }
func (t Term) Ext() uint32   { return uint32(uint64(t) & spec.ExtMask >> spec.ExtShift) }
func (t Term) Val() uint32   { return uint32(uint64(t) & spec.ValMask) }

// IsSub reports whether the substitution sentinel is set.
func (t Term) IsSub() bool { return uint64(t)&spec.SubMask != 0 }

// WithSub returns t with the substitution sentinel set.
func (t Term) WithSub() Term { return t | Term(spec.SubMask) }

// ClearSub returns t with the substitution sentinel cleared.
func (t Term) ClearSub() Term { return t &^ Term(spec.SubMask) }

func (t Term) String() string {
	s := fmt.Sprintf("%v ext=%d val=%d", t.Tag(), t.Ext(), t.Val())
	if t.IsSub() {
		return "sub:" + s
	}
	return s
}

// Constructors for each term shape.

func Var(slot uint32) Term          { return New(spec.VAR, 0, slot) }
func Lam(body uint32) Term          { return New(spec.LAM, 0, body) }
func App(loc uint32) Term           { return New(spec.APP, 0, loc) }
func Dup(lab, loc uint32) Term      { return New(spec.DUP, lab, loc) }
func Co0(lab, slot uint32) Term     { return New(spec.CO0, lab, slot) }
func Co1(lab, slot uint32) Term     { return New(spec.CO1, lab, slot) }
func Sup(lab, loc uint32) Term      { return New(spec.SUP, lab, loc) }
func Era() Term                     { return New(spec.ERA, 0, 0) }
func Num(v uint32) Term             { return New(spec.NUM, 0, v) }
func Ref(def uint32) Term           { return New(spec.REF, def, 0) }
func Alo(def uint32) Term           { return New(spec.ALO, def, 0) }
func Red(loc uint32) Term           { return New(spec.RED, 0, loc) }
func Use(loc uint32) Term           { return New(spec.USE, 0, loc) }
func Eql(loc uint32) Term           { return New(spec.EQL, 0, loc) }
func Mat(n, loc uint32) Term        { return New(spec.MAT, n, loc) }
func Swi(loc uint32) Term           { return New(spec.SWI, 0, loc) }
func Ann(loc uint32) Term           { return New(spec.ANN, 0, loc) }
func Ctr(arity int, id, loc uint32) Term {
	return New(spec.Ctr(arity), id, loc)
}
func Prim(op spec.Op, loc uint32) Term {
	return New(spec.P00+spec.Tag(op.Arity()), uint32(op), loc)
}

// co returns the projection of the given side.
func co(side int, lab, slot uint32) Term {
	if side == 0 {
		return Co0(lab, slot)
	}
	return Co1(lab, slot)
}
