package spec

import "fmt"

// Tag is the kind of a term.
type Tag uint8

const (
	// Nil is not a valid term.  The zero cell decodes to it.
	Nil Tag = iota

	// VAR is an affine variable.  val is the heap index of its binder slot.
	VAR
	// LAM is a lambda.  val is the index of the body cell, which doubles
	// as the binder slot until it is substituted.
	LAM
	// APP is an application.  val is the index of a [fun, arg] pair.
	APP
	// DUP is a lazy duplication.  val is the index of a
	// [res0, res1, value, body] node.
	DUP
	// CO0 is the left projection of a duplication.  val is the base of the
	// duplication node (its first result slot; the shared value sits two
	// cells further), ext is the label.
	CO0
	// CO1 is the right projection of a duplication.
	CO1
	// SUP is a superposition.  val is the index of a [left, right] pair,
	// ext is the label.
	SUP
	// ERA is an erasure.
	ERA
	// NUM is an unboxed number.  val is the immediate 32-bit value.
	NUM
	// REF names a top-level definition, expanded per use site.  ext is the
	// definition id.
	REF
	// ALO names a top-level definition that is expanded at most once and
	// aliased thereafter.  ext is the definition id.
	ALO
	// RED is a pending reduction obligation over a [inner] cell.
	RED
	// USE forces its first cell to weak head normal form, then yields the
	// second.  val is the index of a [expr, cont] pair.
	USE
	// EQL is structural equality over a [a, b] pair.
	EQL
	// MAT is a match on constructors.  val is the index of
	// [scrutinee, branch...]; ext is the branch count.
	MAT
	// SWI is a switch on numbers.  val is the index of
	// [scrutinee, ifZero, ifSucc].
	SWI
)

// Constructors C00..C15.  Arity is Tag-C00, ext is the constructor id,
// val is the index of a contiguous block of arity field cells.
const (
	C00 Tag = 0x20 + iota
	C01
	C02
	C03
	C04
	C05
	C06
	C07
	C08
	C09
	C10
	C11
	C12
	C13
	C14
	C15
)

// Primitives P00..P15.  Arity is Tag-P00, ext is the Op id, val is the
// index of a block of arity operand cells.
const (
	P00 Tag = 0x30 + iota
	P01
	P02
	P03
	P04
	P05
	P06
	P07
	P08
	P09
	P10
	P11
	P12
	P13
	P14
	P15
)

// Stack frames.  These only ever appear on the reducer's work stack,
// never in the heap.
const (
	// FAPP resumes an application whose function reached a value.
	FAPP Tag = 0x48 + iota
	// FMAT resumes a constructor match whose scrutinee reached a value.
	FMAT
	// FSWI resumes a number switch whose scrutinee reached a value.
	FSWI
	// FOP1 resumes a unary primitive.  ext is the Op id.
	FOP1
	// FOP2 resumes a binary primitive.  ext is Op<<1 | operand index.
	FOP2
	// FUSE resumes a strict evaluation.
	FUSE
	// FEQL resumes a structural equality.  ext is the operand index.
	FEQL
	// FCO0 resumes the left projection of a duplication.  ext is the
	// label, val is the duplication node's base.
	FCO0
	// FCO1 resumes the right projection of a duplication.
	FCO1
)

// Type-level tags.  Opaque to evaluation.
const (
	ANN Tag = 0x58 + iota
	TYP
	ALL
	SIG
	SLF
	BRI
)

// IsValue reports whether a term with this tag is a weak head normal
// form on its own.
func (t Tag) IsValue() bool {
	switch t {
	case LAM, SUP, ERA, NUM:
		return true
	}
	return t.IsCtr() || t.IsType()
}

// IsCtr reports whether t is a constructor tag.
func (t Tag) IsCtr() bool { return t >= C00 && t <= C15 }

// CtrArity returns the arity of a constructor tag.
func (t Tag) CtrArity() int { return int(t - C00) }

// Ctr returns the constructor tag of the given arity.
func Ctr(arity int) Tag {
	if arity < 0 || arity >= MaxCtrArity {
		panic(fmt.Sprintf("spec: constructor arity %d out of range", arity))
	}
	return C00 + Tag(arity)
}

// IsPrim reports whether t is a primitive tag.
func (t Tag) IsPrim() bool { return t >= P00 && t <= P15 }

// PrimArity returns the arity of a primitive tag.
func (t Tag) PrimArity() int { return int(t - P00) }

// IsFrame reports whether t is a work-stack frame tag.
func (t Tag) IsFrame() bool { return t >= FAPP && t <= FCO1 }

// IsType reports whether t is a type-level tag.
func (t Tag) IsType() bool { return t >= ANN && t <= BRI }

var tagNames = map[Tag]string{
	Nil: "NIL",
	VAR: "VAR", LAM: "LAM", APP: "APP",
	DUP: "DUP", CO0: "CO0", CO1: "CO1", SUP: "SUP",
	ERA: "ERA", NUM: "NUM",
	REF: "REF", ALO: "ALO", RED: "RED",
	USE: "USE", EQL: "EQL", MAT: "MAT", SWI: "SWI",
	FAPP: "F_APP", FMAT: "F_MAT", FSWI: "F_SWI",
	FOP1: "F_OP1", FOP2: "F_OP2", FUSE: "F_USE", FEQL: "F_EQL",
	FCO0: "F_CO0", FCO1: "F_CO1",
	ANN: "ANN", TYP: "TYP", ALL: "ALL", SIG: "SIG", SLF: "SLF", BRI: "BRI",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	if t.IsCtr() {
		return fmt.Sprintf("C%02d", t.CtrArity())
	}
	if t.IsPrim() {
		return fmt.Sprintf("P%02d", t.PrimArity())
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}
