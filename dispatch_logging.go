package store

import "time"

// Dispatch modes and kinds recorded on log events.
const (
	modeSync  = "sync"
	modeAsync = "async"

	kindQuery    = "query"
	kindMutation = "mutation"
)

// DispatchLogEvent describes one handled action: its classification, how it
// ran, how long until it settled, and the error it surfaced, if any. Async
// events are logged at settlement, so Duration spans the in-flight window.
type DispatchLogEvent struct {
	InvocationID string
	ActionType   string
	Kind         string
	Mode         string
	Duration     time.Duration
	Err          error
}

// DispatchLogger receives dispatch telemetry. Implementations must be safe
// for concurrent use; async settlements log from their own goroutines.
type DispatchLogger interface {
	LogDispatch(event DispatchLogEvent)
}

// DispatchLoggerFunc adapts a function to the DispatchLogger interface.
type DispatchLoggerFunc func(event DispatchLogEvent)

// LogDispatch implements DispatchLogger.
func (f DispatchLoggerFunc) LogDispatch(event DispatchLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopDispatchLogger struct{}

func (noopDispatchLogger) LogDispatch(DispatchLogEvent) {}

// WithDispatchLogger wires a logger for handled actions.
func WithDispatchLogger(logger DispatchLogger) Option {
	return func(cfg *storeConfig) {
		if logger != nil {
			cfg.dispatchLogger = logger
		}
	}
}

func (s *Store) logDispatch(invocationID, actionType string, query bool, mode string, duration time.Duration, err error) {
	kind := kindMutation
	if query {
		kind = kindQuery
	}
	s.dispatchLogger().LogDispatch(DispatchLogEvent{
		InvocationID: invocationID,
		ActionType:   actionType,
		Kind:         kind,
		Mode:         mode,
		Duration:     duration,
		Err:          err,
	})
}
