package store

import (
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-store/layering"
	"github.com/goliatone/go-store/paths"
	"github.com/goliatone/go-store/pkg/activity"
)

// Store is a reducer-based state container. It holds a plain mapping as its
// single state tree, routes dispatched actions through registered reducers,
// and tracks per-action async loading flags backed by integer counters.
//
// Reducers and thunks always run outside the store lock; only commits are
// serialized. Published snapshots are never mutated, so callers may hold on
// to a Handle and read it without coordination.
type Store struct {
	cfg storeConfig

	reducers map[string]Reducer
	pristine State

	mu         sync.RWMutex
	state      State
	counts     map[string]int
	loading    Loading
	generation uint64
	handle     *Handle

	dispatcher *Dispatcher
	emitter    *activity.Emitter

	defaultEval     Evaluator
	defaultEvalOnce sync.Once
}

// Handle bundles everything a consumer needs to read and drive the store. A
// fresh handle is published whenever state or loading changes, so handle
// identity doubles as a change signal. Dispatch and Operations stay stable
// for the store's lifetime; SnapshotID is unique per publication.
type Handle struct {
	State      State
	Loading    Loading
	Dispatch   *Dispatcher
	Operations Operations
	SnapshotID string
}

// New builds a store from a reducer map and an initial state mapping.
// Construction never fails: nil inputs degrade to empty ones, reducers with
// empty names or nil functions are skipped. Defaults supplied through
// WithDefaults are deep-merged underneath initial before the pristine
// baseline is captured; WithInitializer then derives the live state from a
// clone of that baseline.
func New(reducers map[string]Reducer, initial State, opts ...Option) *Store {
	cfg := applyOptions(opts)

	captured := make(map[string]Reducer, len(reducers))
	for name, reducer := range reducers {
		if name == "" || reducer == nil {
			continue
		}
		captured[name] = reducer
	}

	baseline := initial
	if len(cfg.defaults) > 0 {
		layers := append([]State{baseline}, cfg.defaults...)
		baseline = layering.MergeLayers(layers...)
	}

	s := &Store{
		cfg:      cfg,
		reducers: captured,
		pristine: layering.Clone(baseline),
		counts:   make(map[string]int, len(captured)),
		loading:  newLoading(captured),
	}
	s.state = s.baselineState()
	s.dispatcher = newDispatcher(s)
	s.emitter = activity.NewEmitter(cfg.activityHooks, activity.Config{
		Enabled: len(cfg.activityHooks) > 0,
	})
	s.handle = s.newHandle()
	s.emitStoreCreated()
	return s
}

// WithInitializer derives the live state from a clone of the pristine
// baseline, at construction and again on every argument-less Reset. A nil
// return from fn keeps the clone.
func WithInitializer(fn Initializer) Option {
	return func(cfg *storeConfig) {
		if fn != nil {
			cfg.initializer = fn
		}
	}
}

// WithDefaults layers baseline mappings underneath the initial state before
// the pristine snapshot is captured. Earlier layers win over later ones; the
// initial state wins over all of them.
func WithDefaults(layers ...State) Option {
	return func(cfg *storeConfig) {
		for _, layer := range layers {
			if layer != nil {
				cfg.defaults = append(cfg.defaults, layer)
			}
		}
	}
}

// WithEvaluator selects the selector engine used by Select and SelectWith.
func WithEvaluator(evaluator Evaluator) Option {
	return func(cfg *storeConfig) {
		if evaluator != nil {
			cfg.evaluator = evaluator
		}
	}
}

// baselineState rebuilds the live state from the pristine snapshot.
func (s *Store) baselineState() State {
	base := layering.Clone(s.pristine)
	if base == nil {
		base = State{}
	}
	if s.cfg.initializer != nil {
		if next := s.cfg.initializer(base); next != nil {
			return next
		}
	}
	return base
}

// Dispatch routes an action through the store. See Dispatcher.Dispatch for
// the accepted calling conventions.
func (s *Store) Dispatch(action any, args ...any) (any, error) {
	return s.dispatcher.Dispatch(action, args...)
}

// Dispatcher returns the dispatch surface attached to this store.
func (s *Store) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Operations returns the operations facade bound to this store.
func (s *Store) Operations() Operations {
	return s.operations()
}

// Handle returns the current published handle.
func (s *Store) Handle() *Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle
}

// Snapshot returns the current state root. Snapshots are replaced wholesale
// on commit and must be treated as read-only.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LoadingSnapshot returns the current per-action pending flags.
func (s *Store) LoadingSnapshot() Loading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LoadingCount returns the in-flight counter behind an action's pending flag.
func (s *Store) LoadingCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[name]
}

func (s *Store) operations() Operations {
	return Operations{store: s}
}

func (s *Store) newHandle() *Handle {
	return &Handle{
		State:      s.state,
		Loading:    s.loading,
		Dispatch:   s.dispatcher,
		Operations: s.operations(),
		SnapshotID: uuid.NewString(),
	}
}

func (s *Store) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// commitState applies the store reducer under the lock and publishes a fresh
// handle when the root map changed. Reset and clear bump the generation,
// fencing off merges from async work dispatched before them.
func (s *Store) commitState(action Action) bool {
	s.mu.Lock()
	next, changed := storeReducer(s.state, action)
	if changed {
		s.state = next
		if action.Type == actionReset || action.Type == actionClear {
			s.generation++
		}
		s.handle = s.newHandle()
	}
	s.mu.Unlock()
	return changed
}

// commitMergeFenced applies an async merge only while the generation still
// matches the value captured at dispatch. Merges from work that straddled a
// reset or clear are dropped.
func (s *Store) commitMergeFenced(payload any, generation uint64) bool {
	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return false
	}
	next, changed := storeReducer(s.state, Action{Type: actionMerge, Payload: payload})
	if changed {
		s.state = next
		s.handle = s.newHandle()
	}
	s.mu.Unlock()
	return changed
}

// loadingDelta adjusts the in-flight counter for name and publishes the
// derived flag. Counters never go below zero.
func (s *Store) loadingDelta(name string, delta int) (int, bool) {
	s.mu.Lock()
	count := s.counts[name] + delta
	if count < 0 {
		count = 0
	}
	s.counts[name] = count
	s.loading = loadingReducer(s.loading, name, count)
	s.handle = s.newHandle()
	s.mu.Unlock()
	return count, count > 0
}

func (s *Store) mergePayload(payload any, source string) bool {
	changed := s.commitState(Action{Type: actionMerge, Payload: payload})
	if changed {
		s.emitStateMerged(payload, source)
	}
	return changed
}

func (s *Store) mergeFenced(payload any, generation uint64, source string) bool {
	changed := s.commitMergeFenced(payload, generation)
	if changed {
		s.emitStateMerged(payload, source)
	}
	return changed
}

func (s *Store) resetState(payload ...State) {
	var next State
	if len(payload) > 0 && payload[0] != nil {
		next = payload[0]
	} else {
		next = s.baselineState()
	}
	if s.commitState(Action{Type: actionReset, Payload: next}) {
		s.emitStateReset(next)
	}
}

func (s *Store) clearState() {
	if s.commitState(Action{Type: actionClear}) {
		s.emitStateCleared()
	}
}

// patchState writes value at path on a copy of the current state and
// publishes the copy wholesale, bypassing reducers. The root must remain a
// mapping; writes that would replace it with anything else are dropped.
func (s *Store) patchState(path any, value any) bool {
	s.mu.Lock()
	next, ok := paths.Set(s.state, path, value).(State)
	if !ok || sameState(next, s.state) {
		s.mu.Unlock()
		return false
	}
	s.state = next
	s.handle = s.newHandle()
	s.mu.Unlock()
	s.emitStatePatched(path, value)
	return true
}

// sameState reports whether two roots are the same map value, which is how
// paths.Set signals an unusable path.
func sameState(a, b State) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func (s *Store) adjustLoading(name string, delta int) {
	count, pending := s.loadingDelta(name, delta)
	s.emitLoadingChanged(name, count, pending)
}
