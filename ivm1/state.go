package ivm1

import (
	"runtime"
	"sync"

	"go.uber.org/atomic"

	"hovm.run/hovm/spec"
)

// Config carries the tunable limits of a machine.
type Config struct {
	// HeapSize is the heap capacity in cells.
	HeapSize uint32 `yaml:"heap_size"`
	// StackSize bounds the reducer's frame stack.
	StackSize int `yaml:"stack_size"`
	// MaxInteractions bounds the number of interactions the state performs
	// in total, counted since NewState or the last Reset.  0 means no limit.
	MaxInteractions uint64 `yaml:"max_interactions"`
	// CommutationLimit is an advisory threshold.  When the commutation
	// counter passes it, State.CommutationLimitHit reports true.  0 means
	// no threshold.
	CommutationLimit uint64 `yaml:"commutation_limit"`
	// CompareAnnotations makes structural equality descend into
	// annotations and other type-level terms instead of comparing them by
	// heap identity.
	CompareAnnotations bool `yaml:"compare_annotations"`
	// Workers is the goroutine count for the parallel entry points.
	// 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		HeapSize:  1 << 26,
		StackSize: 1 << 16,
	}
}

// State is a single evaluation context: a heap, a frame stack and the
// counters of work done.  A State is not safe for concurrent use; the
// parallel entry points make one State per worker over a shared heap.
type State struct {
	cfg  Config
	heap *Heap
	defs *Defs

	stack []Term

	nextLabel    *atomic.Uint32
	interactions *atomic.Uint64
	commutations *atomic.Uint64
	expansions   *atomic.Uint64
	commLimitHit *atomic.Bool

	alo *aloTable
}

// aloTable records the one expansion an ALO reference is allowed.  It is
// shared between a State and its worker forks.
type aloTable struct {
	mu    sync.Mutex
	roots map[uint32]Term
}

// NewState makes a State with its own heap and counters.
func NewState(cfg Config, defs *Defs) *State {
	if cfg.HeapSize == 0 {
		cfg = DefaultConfig()
	}
	s := &State{
		cfg:  cfg,
		heap: NewHeap(cfg.HeapSize),
		defs: defs,

		nextLabel:    atomic.NewUint32(spec.AutoLabelBase),
		interactions: atomic.NewUint64(0),
		commutations: atomic.NewUint64(0),
		expansions:   atomic.NewUint64(0),
		commLimitHit: atomic.NewBool(false),

		alo: &aloTable{roots: make(map[uint32]Term)},
	}
	return s
}

// fork makes a worker State over the same heap, defs and counters.
func (s *State) fork() *State {
	return &State{
		cfg:  s.cfg,
		heap: s.heap,
		defs: s.defs,

		nextLabel:    s.nextLabel,
		interactions: s.interactions,
		commutations: s.commutations,
		expansions:   s.expansions,
		commLimitHit: s.commLimitHit,

		alo: s.alo,
	}
}

func (s *State) workers() int {
	if s.cfg.Workers > 0 {
		return s.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Heap returns the state's heap.
func (s *State) Heap() *Heap { return s.heap }

// Config returns the state's configuration.
func (s *State) Config() Config { return s.cfg }

// Defs returns the definition table, which may be nil.
func (s *State) Defs() *Defs { return s.defs }

// FreshLabel returns an unused duplication label, drawn from the
// definition table's counter when one is attached.
func (s *State) FreshLabel() (uint32, error) {
	if s.defs != nil {
		return s.defs.FreshLabel()
	}
	lab := s.nextLabel.Inc() - 1
	if lab > spec.MaxLabel {
		return 0, ErrLabelExhausted
	}
	return lab, nil
}

// Reset rewinds the heap and zeroes the counters.
func (s *State) Reset() {
	s.heap.Reset()
	s.stack = s.stack[:0]
	s.nextLabel.Store(spec.AutoLabelBase)
	s.interactions.Store(0)
	s.commutations.Store(0)
	s.expansions.Store(0)
	s.commLimitHit.Store(false)
	s.alo.mu.Lock()
	clear(s.alo.roots)
	s.alo.mu.Unlock()
}

// Interactions returns the interactions performed so far.
func (s *State) Interactions() uint64 { return s.interactions.Load() }

// Commutations returns the commutations performed so far.
func (s *State) Commutations() uint64 { return s.commutations.Load() }

// CommutationLimitHit reports whether the advisory commutation threshold
// has been passed.
func (s *State) CommutationLimitHit() bool { return s.commLimitHit.Load() }

func (s *State) countInteraction() {
	s.interactions.Inc()
}

func (s *State) countCommutation() {
	n := s.commutations.Inc()
	if s.cfg.CommutationLimit > 0 && n > s.cfg.CommutationLimit {
		s.commLimitHit.Store(true)
	}
}

// Stats is a snapshot of a state's counters.
type Stats struct {
	Interactions uint64
	Commutations uint64
	Expansions   uint64
	HeapUsed     uint32
	HeapCap      uint32
	LabelsUsed   uint32
}

// Stats snapshots the counters.
func (s *State) Stats() Stats {
	labels := s.nextLabel.Load()
	if s.defs != nil {
		labels = s.defs.nextLabel.Load()
	}
	return Stats{
		Interactions: s.interactions.Load(),
		Commutations: s.commutations.Load(),
		Expansions:   s.expansions.Load(),
		HeapUsed:     s.heap.Len(),
		HeapCap:      s.heap.Cap(),
		LabelsUsed:   labels - spec.AutoLabelBase,
	}
}

func (s *State) pushFrame(f Term) error {
	if len(s.stack) >= s.cfg.StackSize {
		return ErrStackOverflow
	}
	s.stack = append(s.stack, f)
	return nil
}

func (s *State) popFrame() Term {
	i := len(s.stack) - 1
	f := s.stack[i]
	s.stack = s.stack[:i]
	return f
}
