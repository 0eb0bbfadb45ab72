package store

import "github.com/goliatone/go-store/paths"

// Commit sources recorded on activity events.
const (
	sourceOperations = "operations"
	sourceAction     = "action"
	sourcePatch      = "patch"
)

// Operations is the facade handed to reducers and published on handles. Its
// six operations are the only sanctioned ways to touch state from inside a
// reducer; each one commits through the store reducer, so published
// snapshots stay stable.
type Operations struct {
	store *Store
}

// Toolkit is what a reducer receives alongside state and action: the
// operations facade plus the loading snapshot current at invocation.
type Toolkit struct {
	Operations
	Loading Loading
}

// Merge shallow-merges payload into state. Payloads that are not plain
// mappings are silent no-ops; an empty mapping still publishes a fresh root.
func (o Operations) Merge(payload any) {
	o.store.mergePayload(payload, sourceOperations)
}

// Reset replaces state with payload when given one, or recomputes the
// pristine baseline, defaults merged and initializer applied, when called
// without arguments.
func (o Operations) Reset(payload ...State) {
	o.store.resetState(payload...)
}

// Clear resets state to an empty mapping.
func (o Operations) Clear() {
	o.store.clearState()
}

// Set merges target when it is a mapping. Otherwise target is treated as a
// path: value is written at it on a copy of the current state and the copy
// is merged back, preserving sibling keys at every level.
func (o Operations) Set(target any, value ...any) {
	if payload, ok := asState(target); ok {
		o.store.mergePayload(payload, sourceOperations)
		return
	}
	snapshot := o.store.Snapshot()
	next, ok := paths.Set(snapshot, target, firstArg(value)).(State)
	if !ok || sameState(next, snapshot) {
		return
	}
	o.store.mergePayload(next, sourceOperations)
}

// Get reads path from the current snapshot, returning def when the path does
// not resolve. An empty path returns the whole snapshot.
func (o Operations) Get(path any, def ...any) any {
	return paths.Get(o.store.Snapshot(), path, def...)
}

// Call re-enters dispatch with another action. Dispatch is reentrant, so
// reducers may call it freely; each nested call observes the snapshot
// current at its own start.
func (o Operations) Call(action any, args ...any) (any, error) {
	return o.store.dispatcher.Dispatch(action, args...)
}
