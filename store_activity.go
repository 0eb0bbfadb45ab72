package store

import (
	"context"
	"fmt"

	"github.com/goliatone/go-store/pkg/activity"
)

// WithActivityHooks attaches activity hooks to the store. Hooks are cloned
// and nil entries dropped to preserve immutability. Every state and loading
// commit then emits a lifecycle event; see pkg/activity for the verbs.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *storeConfig) {
		cfg.activityHooks = normalized
	}
}

// ActivityHooks returns a cloned slice of the hooks configured on the store.
// The returned slice can be safely mutated by the caller.
func (s *Store) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return cloneActivityHooks(s.cfg.activityHooks)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}

func (s *Store) emitStoreCreated() {
	if !s.emitter.Enabled() {
		return
	}
	s.emit(activity.BuildStoreCreatedEvent(activity.StoreEventInput{
		SnapshotID: s.Handle().SnapshotID,
		Metadata:   map[string]any{"reducers": len(s.reducers)},
		OccurredAt: s.now(),
	}))
}

func (s *Store) emitActionDispatched(action Action, invocationID string) {
	if !s.emitter.Enabled() {
		return
	}
	s.emit(activity.BuildActionDispatchedEvent(activity.StoreEventInput{
		ActionType:   action.Type,
		InvocationID: invocationID,
		OccurredAt:   s.now(),
	}))
}

func (s *Store) emitActionSettled(action Action, invocationID string, err error) {
	if !s.emitter.Enabled() {
		return
	}
	status := "fulfilled"
	metadata := map[string]any{}
	if err != nil {
		status = "rejected"
		metadata["error"] = err.Error()
	}
	metadata["status"] = status
	s.emit(activity.BuildActionSettledEvent(activity.StoreEventInput{
		ActionType:   action.Type,
		InvocationID: invocationID,
		Metadata:     metadata,
		OccurredAt:   s.now(),
	}))
}

func (s *Store) emitStateMerged(payload any, source string) {
	if !s.emitter.Enabled() {
		return
	}
	s.emit(activity.BuildStateMergedEvent(activity.StoreEventInput{
		SnapshotID: s.Handle().SnapshotID,
		NewValue:   payload,
		Metadata:   map[string]any{"source": source},
		OccurredAt: s.now(),
	}))
}

func (s *Store) emitStateReset(next State) {
	if !s.emitter.Enabled() {
		return
	}
	s.emit(activity.BuildStateResetEvent(activity.StoreEventInput{
		SnapshotID: s.Handle().SnapshotID,
		Metadata:   map[string]any{"keys": len(next)},
		OccurredAt: s.now(),
	}))
}

func (s *Store) emitStateCleared() {
	if !s.emitter.Enabled() {
		return
	}
	s.emit(activity.BuildStateClearedEvent(activity.StoreEventInput{
		SnapshotID: s.Handle().SnapshotID,
		OccurredAt: s.now(),
	}))
}

func (s *Store) emitStatePatched(path any, value any) {
	if !s.emitter.Enabled() {
		return
	}
	s.emit(activity.BuildStatePatchedEvent(activity.StoreEventInput{
		SnapshotID: s.Handle().SnapshotID,
		Path:       pathLabel(path),
		NewValue:   value,
		OccurredAt: s.now(),
	}))
}

func (s *Store) emitLoadingChanged(name string, count int, pending bool) {
	if !s.emitter.Enabled() {
		return
	}
	s.emit(activity.BuildLoadingChangedEvent(activity.StoreEventInput{
		ActionType: name,
		Metadata:   map[string]any{"count": count, "pending": pending},
		OccurredAt: s.now(),
	}))
}

// emit fans the event out to hooks. Hook errors are dropped; emission never
// disturbs a commit.
func (s *Store) emit(event activity.Event) {
	_ = s.emitter.Emit(context.Background(), event)
}

func pathLabel(path any) string {
	if label, ok := path.(string); ok {
		return label
	}
	return fmt.Sprintf("%v", path)
}
