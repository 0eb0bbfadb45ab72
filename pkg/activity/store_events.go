package activity

import (
	"strings"
	"time"
)

// StoreEventInput describes the common fields for store lifecycle events.
type StoreEventInput struct {
	ActorID      string
	UserID       string
	TenantID     string
	ObjectID     string
	Channel      string
	Metadata     map[string]any
	ActionType   string
	InvocationID string
	SnapshotID   string
	Path         string
	OldValue     any
	NewValue     any
	OccurredAt   time.Time
}

// BuildStoreCreatedEvent constructs a normalized activity event for store
// construction.
func BuildStoreCreatedEvent(input StoreEventInput) Event {
	return buildStoreEvent("store.created", "store", input)
}

// BuildActionDispatchedEvent constructs an activity event for an action
// entering the store.
func BuildActionDispatchedEvent(input StoreEventInput) Event {
	return buildStoreEvent("store.action.dispatched", "store.action", input)
}

// BuildActionSettledEvent constructs an activity event for an async action
// settling, fulfilled or rejected.
func BuildActionSettledEvent(input StoreEventInput) Event {
	return buildStoreEvent("store.action.settled", "store.action", input)
}

// BuildStateMergedEvent constructs an activity event for a payload merged
// into state.
func BuildStateMergedEvent(input StoreEventInput) Event {
	return buildStoreEvent("store.state.merged", "store.state", input)
}

// BuildStateResetEvent constructs an activity event for a wholesale state
// replacement.
func BuildStateResetEvent(input StoreEventInput) Event {
	return buildStoreEvent("store.state.reset", "store.state", input)
}

// BuildStateClearedEvent constructs an activity event for state cleared to
// an empty mapping.
func BuildStateClearedEvent(input StoreEventInput) Event {
	return buildStoreEvent("store.state.cleared", "store.state", input)
}

// BuildStatePatchedEvent constructs an activity event for a direct path
// write that bypassed reducers.
func BuildStatePatchedEvent(input StoreEventInput) Event {
	return buildStoreEvent("store.state.patched", "store.state", input)
}

// BuildLoadingChangedEvent constructs an activity event for a loading
// counter change.
func BuildLoadingChangedEvent(input StoreEventInput) Event {
	return buildStoreEvent("store.loading.changed", "store.loading", input)
}

func buildStoreEvent(verb, objectType string, input StoreEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.ActionType != "" {
		metadata = ensureMetadata(metadata)
		metadata["action_type"] = input.ActionType
	}
	if input.InvocationID != "" {
		metadata = ensureMetadata(metadata)
		metadata["invocation_id"] = input.InvocationID
	}
	if input.SnapshotID != "" {
		metadata = ensureMetadata(metadata)
		metadata["snapshot_id"] = input.SnapshotID
	}
	if input.Path != "" {
		metadata = ensureMetadata(metadata)
		metadata["path"] = input.Path
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.ActionType)
	}
	if objectID == "" {
		objectID = strings.TrimSpace(input.Path)
	}
	if objectID == "" {
		objectID = strings.TrimSpace(input.SnapshotID)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
