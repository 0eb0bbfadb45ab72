package store

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// handleAction runs the reducer registered for action.Type and routes the
// result. Actions with no registered reducer are silent no-ops.
//
// Query actions (a "get" prefix followed by an uppercase letter) never merge
// their results. Everything else merges the reducer's return value, either
// immediately or, for Awaitable results, once the work settles. Results of
// actions whose type ends in "Async" are always returned as a Promise.
func (s *Store) handleAction(action Action) (any, error) {
	reducer, ok := s.reducers[action.Type]
	if !ok {
		return nil, nil
	}

	invocationID := uuid.NewString()
	query := isQueryAction(action.Type)
	started := time.Now()
	s.emitActionDispatched(action, invocationID)

	tk := Toolkit{Operations: s.operations(), Loading: s.LoadingSnapshot()}
	result, err := reducer(s.Snapshot(), action, tk)
	if err != nil {
		s.logDispatch(invocationID, action.Type, query, modeSync, time.Since(started), err)
		return nil, err
	}

	if aw, ok := result.(Awaitable); ok {
		return s.settleAsync(invocationID, action, aw, query, started), nil
	}

	if !query {
		s.mergePayload(result, sourceAction)
	}
	s.logDispatch(invocationID, action.Type, query, modeSync, time.Since(started), nil)
	if isAsyncNamed(action.Type) {
		return Resolve(result), nil
	}
	return result, nil
}

// settleAsync brackets an awaitable reducer result with loading bookkeeping.
// The returned promise settles only after the bookkeeping has committed, so
// a caller awaiting it always observes the decremented counter and, for
// fulfilled mutations, the merged state.
//
// The generation captured here fences the merge: if the store is reset or
// cleared while the work is in flight, the settlement still decrements
// loading but its payload is discarded.
func (s *Store) settleAsync(invocationID string, action Action, aw Awaitable, query bool, started time.Time) *Promise {
	generation := s.currentGeneration()
	s.adjustLoading(action.Type, 1)
	out := newPromise()
	go func() {
		value, err := aw.Await(context.Background())
		s.adjustLoading(action.Type, -1)
		if err == nil && !query {
			s.mergeFenced(value, generation, sourceAction)
		}
		s.logDispatch(invocationID, action.Type, query, modeAsync, time.Since(started), err)
		s.emitActionSettled(action, invocationID, err)
		out.settle(value, err)
	}()
	return out
}

// isQueryAction reports whether name follows the read-only query convention:
// "get" followed by an uppercase letter.
func isQueryAction(name string) bool {
	rest := strings.TrimPrefix(name, "get")
	if rest == name || rest == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(first)
}

// isAsyncNamed reports whether name opts into the always-awaitable result
// convention.
func isAsyncNamed(name string) bool {
	return strings.HasSuffix(name, "Async")
}
