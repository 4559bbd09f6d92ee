package ivm1

import (
	"fmt"
	"strings"

	"hovm.run/hovm/spec"
)

// readbackMaxDepth caps the printer's descent so cyclic graphs and
// unbounded streams still come back as text.
const readbackMaxDepth = 1 << 10

// Readback prints t in surface syntax.  Binders get fresh single-letter
// names; sub-terms past the depth cap print as "...".
func (s *State) Readback(t Term) string {
	r := &reader{s: s, names: make(map[uint32]string)}
	var b strings.Builder
	r.print(&b, t, 0)
	return b.String()
}

type reader struct {
	s     *State
	names map[uint32]string
	fresh int
}

func (r *reader) name(slot uint32) string {
	if n, ok := r.names[slot]; ok {
		return n
	}
	n := varName(r.fresh)
	r.fresh++
	r.names[slot] = n
	return n
}

// varName yields a, b, ..., z, then x26, x27, ...
func varName(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return fmt.Sprintf("x%d", i)
}

func (r *reader) print(b *strings.Builder, t Term, depth int) {
	if depth > readbackMaxDepth {
		b.WriteString("...")
		return
	}
	h := r.s.heap
	t = h.Deref(t)
	switch tag := t.Tag(); {
	case tag == spec.NUM:
		fmt.Fprintf(b, "#%d", t.Val())
	case tag == spec.ERA:
		b.WriteString("*")
	case tag == spec.VAR:
		b.WriteString(r.name(t.Val()))
	case tag == spec.LAM:
		loc := t.Val()
		fmt.Fprintf(b, "\\%s.", r.name(loc))
		r.print(b, h.Get(loc), depth+1)
	case tag == spec.APP:
		loc := t.Val()
		b.WriteString("(")
		r.print(b, h.Get(loc), depth+1)
		b.WriteString(" ")
		r.print(b, h.Get(loc+1), depth+1)
		b.WriteString(")")
	case tag == spec.SUP:
		loc := t.Val()
		fmt.Fprintf(b, "&%d{", t.Ext())
		r.print(b, h.Get(loc), depth+1)
		b.WriteString(",")
		r.print(b, h.Get(loc+1), depth+1)
		b.WriteString("}")
	case tag == spec.DUP:
		loc := t.Val()
		fmt.Fprintf(b, "!&%d{%s,%s}=", t.Ext(), r.name(loc), r.name(loc+1))
		r.print(b, h.Get(loc+2), depth+1)
		b.WriteString(";")
		r.print(b, h.Get(loc+3), depth+1)
	case tag == spec.CO0:
		b.WriteString(r.name(t.Val()))
	case tag == spec.CO1:
		b.WriteString(r.name(t.Val() + 1))
	case tag.IsCtr():
		r.printCtr(b, t, depth)
	case tag.IsPrim():
		loc := t.Val()
		fmt.Fprintf(b, "(%v", spec.Op(t.Ext()))
		for i := 0; i < tag.PrimArity(); i++ {
			b.WriteString(" ")
			r.print(b, h.Get(loc+uint32(i)), depth+1)
		}
		b.WriteString(")")
	case tag == spec.SWI:
		loc := t.Val()
		b.WriteString("(?")
		r.print(b, h.Get(loc), depth+1)
		b.WriteString(" ")
		r.print(b, h.Get(loc+1), depth+1)
		b.WriteString(" ")
		r.print(b, h.Get(loc+2), depth+1)
		b.WriteString(")")
	case tag == spec.MAT:
		loc := t.Val()
		b.WriteString("~")
		r.print(b, h.Get(loc), depth+1)
		b.WriteString("{")
		for i := uint32(0); i < t.Ext(); i++ {
			if i > 0 {
				b.WriteString(" ")
			}
			r.print(b, h.Get(loc+1+i), depth+1)
		}
		b.WriteString("}")
	case tag == spec.EQL:
		loc := t.Val()
		b.WriteString("(=== ")
		r.print(b, h.Get(loc), depth+1)
		b.WriteString(" ")
		r.print(b, h.Get(loc+1), depth+1)
		b.WriteString(")")
	case tag == spec.ANN:
		loc := t.Val()
		b.WriteString("{")
		r.print(b, h.Get(loc), depth+1)
		b.WriteString(" : ")
		r.print(b, h.Get(loc+1), depth+1)
		b.WriteString("}")
	case tag == spec.RED:
		r.print(b, h.Get(t.Val()), depth+1)
	case tag == spec.REF:
		fmt.Fprintf(b, "@%s", r.defName(t.Ext()))
	case tag == spec.ALO:
		fmt.Fprintf(b, "@@%s", r.defName(t.Ext()))
	case tag == spec.TYP:
		b.WriteString("Set")
	case tag == spec.ALL || tag == spec.SIG:
		loc := t.Val()
		kw := "all"
		if tag == spec.SIG {
			kw = "sig"
		}
		fmt.Fprintf(b, "(%s ", kw)
		r.print(b, h.Get(loc), depth+1)
		b.WriteString(" ")
		r.print(b, h.Get(loc+1), depth+1)
		b.WriteString(")")
	case tag == spec.SLF || tag == spec.BRI:
		kw := "slf"
		if tag == spec.BRI {
			kw = "bri"
		}
		fmt.Fprintf(b, "(%s ", kw)
		r.print(b, h.Get(t.Val()), depth+1)
		b.WriteString(")")
	default:
		fmt.Fprintf(b, "<%v>", tag)
	}
}

func (r *reader) printCtr(b *strings.Builder, t Term, depth int) {
	h := r.s.heap
	name := fmt.Sprintf("C%d", t.Ext())
	if r.s.defs != nil {
		if info, ok := r.s.defs.CtorInfo(t.Ext()); ok {
			name = info.Name
		}
	}
	fmt.Fprintf(b, "#%s", name)
	n := t.Tag().CtrArity()
	if n == 0 {
		return
	}
	loc := t.Val()
	b.WriteString("{")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		r.print(b, h.Get(loc+uint32(i)), depth+1)
	}
	b.WriteString("}")
}

func (r *reader) defName(id uint32) string {
	if r.s.defs != nil {
		if d, err := r.s.defs.Get(id); err == nil {
			return d.Name
		}
	}
	return fmt.Sprintf("%d", id)
}
