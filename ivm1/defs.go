package ivm1

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/atomic"

	"hovm.run/hovm"
	"hovm.run/hovm/spec"
)

// Def is a top-level definition stored as a relocatable cell image.
// Location fields inside Cells and Root are offsets from the start of
// the image; Instantiate rebases them onto the heap.
type Def struct {
	Name  string
	Root  Term
	Cells []Term
}

// Fingerprint hashes the definition body.  Two defs with the same cell
// image get the same fingerprint regardless of their names.
func (d *Def) Fingerprint() hovm.Fingerprint {
	buf := make([]byte, 8*(len(d.Cells)+1))
	binary.LittleEndian.PutUint64(buf, uint64(d.Root))
	for i, c := range d.Cells {
		binary.LittleEndian.PutUint64(buf[8*(i+1):], uint64(c))
	}
	return hovm.Sum(nil, buf)
}

// Instantiate copies the definition body onto the heap and returns its
// rebased root.
func (d *Def) Instantiate(h *Heap) (Term, error) {
	if len(d.Cells) == 0 {
		return d.Root, nil
	}
	base, err := h.Alloc(uint32(len(d.Cells)))
	if err != nil {
		return 0, err
	}
	for i, c := range d.Cells {
		h.Set(base+uint32(i), rebase(c, base))
	}
	return rebase(d.Root, base), nil
}

func rebase(t Term, base uint32) Term {
	if hasLoc(t.Tag()) {
		return New(t.Tag(), t.Ext(), t.Val()+base)
	}
	return t
}

// hasLoc reports whether the val field of a term with this tag is a heap
// location.
func hasLoc(t spec.Tag) bool {
	switch t {
	case spec.VAR, spec.LAM, spec.APP, spec.DUP, spec.CO0, spec.CO1, spec.SUP,
		spec.RED, spec.USE, spec.EQL, spec.MAT, spec.SWI,
		spec.ANN, spec.TYP, spec.ALL, spec.SIG, spec.SLF, spec.BRI:
		return true
	}
	if t.IsCtr() {
		return t.CtrArity() > 0
	}
	if t.IsPrim() {
		return t.PrimArity() > 0
	}
	return false
}

// NewDefFromHeap snapshots a heap holding only the definition body into
// a relocatable image.  Cell 1 of the heap becomes image index 0, so
// every location field shifts down by one.
func NewDefFromHeap(name string, h *Heap, root Term) *Def {
	n := h.Len()
	cells := make([]Term, 0, n-1)
	for i := uint32(1); i < n; i++ {
		cells = append(cells, unbase(h.Get(i)))
	}
	return &Def{Name: name, Root: unbase(root), Cells: cells}
}

func unbase(t Term) Term {
	if hasLoc(t.Tag()) {
		return New(t.Tag(), t.Ext(), t.Val()-1)
	}
	return t
}

// CtorInfo names a constructor.
type CtorInfo struct {
	Name  string
	Arity int
}

// defFPCacheSize bounds the fingerprint dedupe cache.  Bodies evicted
// from it get a fresh id on re-registration, which costs memory, not
// correctness.
const defFPCacheSize = 1024

// Defs is the definition table shared by every State of a machine.
type Defs struct {
	mu     sync.RWMutex
	defs   []*Def
	byName map[string]uint32
	byFP   *simplelru.LRU[hovm.Fingerprint, uint32]

	ctors      []CtorInfo
	ctorByName map[string]uint32

	nextLabel *atomic.Uint32
}

func NewDefs() *Defs {
	byFP, err := simplelru.NewLRU[hovm.Fingerprint, uint32](defFPCacheSize, nil)
	if err != nil {
		panic(err)
	}
	return &Defs{
		byName:     make(map[string]uint32),
		byFP:       byFP,
		ctorByName: make(map[string]uint32),
		nextLabel:  atomic.NewUint32(spec.AutoLabelBase),
	}
}

// FreshLabel mints an auto-generated duplication label.  The counter is
// shared by the loader and every State over this table, so labels from
// the two never collide.
func (ds *Defs) FreshLabel() (uint32, error) {
	lab := ds.nextLabel.Inc() - 1
	if lab > spec.MaxLabel {
		return 0, ErrLabelExhausted
	}
	return lab, nil
}

// Add registers a definition and returns its id.  A body already present
// under another name is shared; the new name becomes an alias for the
// existing id.
func (ds *Defs) Add(d *Def) (uint32, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if _, exists := ds.byName[d.Name]; exists {
		return 0, fmt.Errorf("ivm1: duplicate definition %q", d.Name)
	}
	fp := d.Fingerprint()
	if id, exists := ds.byFP.Get(fp); exists {
		ds.byName[d.Name] = id
		return id, nil
	}
	id := uint32(len(ds.defs))
	if uint64(id) > uint64(spec.MaxLabel) {
		return 0, fmt.Errorf("ivm1: definition table full")
	}
	ds.defs = append(ds.defs, d)
	ds.byName[d.Name] = id
	ds.byFP.Add(fp, id)
	return id, nil
}

// Get returns the definition with the given id.
func (ds *Defs) Get(id uint32) (*Def, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if int(id) >= len(ds.defs) {
		return nil, fmt.Errorf("%w: id=%d", ErrNoDef, id)
	}
	return ds.defs[id], nil
}

// Lookup resolves a name to a definition id.
func (ds *Defs) Lookup(name string) (uint32, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	id, ok := ds.byName[name]
	return id, ok
}

// Len returns the number of distinct definitions.
func (ds *Defs) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.defs)
}

// Ctor resolves a constructor name to its id, registering it on first
// use.  Reusing a name with a different arity is an error.
func (ds *Defs) Ctor(name string, arity int) (uint32, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if id, ok := ds.ctorByName[name]; ok {
		if ds.ctors[id].Arity != arity {
			return 0, fmt.Errorf("ivm1: constructor %q used with arity %d and %d", name, ds.ctors[id].Arity, arity)
		}
		return id, nil
	}
	id := uint32(len(ds.ctors))
	ds.ctors = append(ds.ctors, CtorInfo{Name: name, Arity: arity})
	ds.ctorByName[name] = id
	return id, nil
}

// CtorInfo returns the registered info for a constructor id.
func (ds *Defs) CtorInfo(id uint32) (CtorInfo, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if int(id) >= len(ds.ctors) {
		return CtorInfo{}, false
	}
	return ds.ctors[id], true
}
