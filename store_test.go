package store

import (
	"context"
	"errors"
	"testing"
)

var errBoom = errors.New("boom")

func incrementReducer(state State, _ Action, _ Toolkit) (any, error) {
	count, _ := state["count"].(int)
	return State{"count": count + 1}, nil
}

func TestNewDegradesNilInputs(t *testing.T) {
	s := New(nil, nil)

	snapshot := s.Snapshot()
	if snapshot == nil {
		t.Fatalf("expected non-nil snapshot for nil initial state")
	}
	if len(snapshot) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snapshot)
	}
	if s.LoadingSnapshot() == nil {
		t.Fatalf("expected non-nil loading snapshot")
	}

	value, err := s.Dispatch("anything")
	if err != nil {
		t.Fatalf("unexpected error dispatching into empty store: %v", err)
	}
	if value != nil {
		t.Fatalf("expected nil result for unregistered action, got %v", value)
	}

	handle := s.Handle()
	if handle == nil || handle.SnapshotID == "" {
		t.Fatalf("expected handle with snapshot id, got %+v", handle)
	}
	if handle.Dispatch != s.Dispatcher() {
		t.Fatalf("expected handle to carry the store dispatcher")
	}
}

func TestNewSkipsUnusableReducers(t *testing.T) {
	s := New(map[string]Reducer{
		"":          incrementReducer,
		"noop":      nil,
		"increment": incrementReducer,
	}, State{"count": 0})

	names := s.Dispatcher().BoundNames()
	if len(names) != 1 || names[0] != "increment" {
		t.Fatalf("expected only increment to register, got %v", names)
	}
	if s.Dispatcher().Bound("noop") != nil {
		t.Fatalf("expected nil reducer to be skipped")
	}
}

func TestWithDefaultsLayersUnderInitial(t *testing.T) {
	s := New(nil,
		State{"configured": true, "nested": State{"keep": "initial"}},
		WithDefaults(
			State{"region": "us", "configured": false, "nested": State{"keep": "default", "extra": 1}},
			State{"tier": "free", "region": "eu"},
		),
	)

	snapshot := s.Snapshot()
	if snapshot["configured"] != true {
		t.Fatalf("expected initial state to win over defaults, got %v", snapshot["configured"])
	}
	if snapshot["region"] != "us" {
		t.Fatalf("expected earlier default layer to win, got %v", snapshot["region"])
	}
	if snapshot["tier"] != "free" {
		t.Fatalf("expected weakest layer to fill gaps, got %v", snapshot["tier"])
	}
	nested, ok := snapshot["nested"].(State)
	if !ok {
		t.Fatalf("expected nested mapping, got %T", snapshot["nested"])
	}
	if nested["keep"] != "initial" || nested["extra"] != 1 {
		t.Fatalf("expected deep merge of nested defaults, got %v", nested)
	}
}

func TestHandleIdentityTracksCommits(t *testing.T) {
	s := New(map[string]Reducer{
		"increment": incrementReducer,
		"getCount": func(state State, _ Action, _ Toolkit) (any, error) {
			count, _ := state["count"].(int)
			return count, nil
		},
	}, State{"count": 0})

	h1 := s.Handle()
	if h1.SnapshotID == "" {
		t.Fatalf("expected snapshot id on initial handle")
	}

	if _, err := s.Dispatch("increment"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	h2 := s.Handle()
	if h2 == h1 {
		t.Fatalf("expected a fresh handle after a commit")
	}
	if h2.SnapshotID == h1.SnapshotID {
		t.Fatalf("expected a fresh snapshot id after a commit")
	}
	if h2.Dispatch != h1.Dispatch {
		t.Fatalf("expected dispatcher identity to stay stable across commits")
	}
	if h1.State["count"] != 0 {
		t.Fatalf("expected held snapshot to stay frozen, got %v", h1.State["count"])
	}
	if h2.State["count"] != 1 {
		t.Fatalf("expected new snapshot to carry the merge, got %v", h2.State["count"])
	}

	if _, err := s.Dispatch("getCount"); err != nil {
		t.Fatalf("query dispatch: %v", err)
	}
	if s.Handle() != h2 {
		t.Fatalf("expected query dispatch to leave the handle untouched")
	}
}

func TestDispatchMergesReducerResult(t *testing.T) {
	s := New(map[string]Reducer{"increment": incrementReducer}, State{"count": 0})

	for i := 0; i < 3; i++ {
		value, err := s.Dispatch("increment")
		if err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
		merged, ok := value.(State)
		if !ok {
			t.Fatalf("expected reducer result back from dispatch, got %T", value)
		}
		if merged["count"] != i+1 {
			t.Fatalf("expected count %d, got %v", i+1, merged["count"])
		}
	}

	if got := s.Snapshot()["count"]; got != 3 {
		t.Fatalf("expected count 3, got %v", got)
	}
}

func TestDispatchUnknownActionIsNoOp(t *testing.T) {
	s := New(map[string]Reducer{"increment": incrementReducer}, State{"count": 0})
	before := s.Handle()

	for _, action := range []any{"vanish", 42, map[string]any{"payload": 1}, nil} {
		value, err := s.Dispatch(action)
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", action, err)
		}
		if value != nil {
			t.Fatalf("expected nil result for %v, got %v", action, value)
		}
	}

	if s.Handle() != before {
		t.Fatalf("expected unknown actions to leave the handle untouched")
	}
}

func TestDispatchReducerErrorPropagates(t *testing.T) {
	s := New(map[string]Reducer{
		"explode": func(State, Action, Toolkit) (any, error) {
			return nil, errBoom
		},
	}, State{"seed": true})
	before := s.Handle()

	value, err := s.Dispatch("explode")
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if value != nil {
		t.Fatalf("expected nil result alongside error, got %v", value)
	}
	if s.Handle() != before {
		t.Fatalf("expected failed dispatch to leave state untouched")
	}
	if s.LoadingCount("explode") != 0 {
		t.Fatalf("expected no loading bookkeeping for sync failure, got %d", s.LoadingCount("explode"))
	}
}

func TestQueryActionsNeverMerge(t *testing.T) {
	s := New(map[string]Reducer{
		"getCount": func(state State, _ Action, _ Toolkit) (any, error) {
			count, _ := state["count"].(int)
			return count * 10, nil
		},
		"getter": func(State, Action, Toolkit) (any, error) {
			return State{"fetched": true}, nil
		},
		"get": func(State, Action, Toolkit) (any, error) {
			return State{"plain": true}, nil
		},
	}, State{"count": 4})

	before := s.Handle()
	value, err := s.Dispatch("getCount")
	if err != nil {
		t.Fatalf("query dispatch: %v", err)
	}
	if value != 40 {
		t.Fatalf("expected derived value 40, got %v", value)
	}
	if s.Handle() != before {
		t.Fatalf("expected query to skip the commit")
	}

	// A lowercase continuation after "get" does not make a query.
	if _, err := s.Dispatch("getter"); err != nil {
		t.Fatalf("dispatch getter: %v", err)
	}
	if s.Snapshot()["fetched"] != true {
		t.Fatalf("expected getter to merge like any mutation")
	}

	// Neither does the bare word.
	if _, err := s.Dispatch("get"); err != nil {
		t.Fatalf("dispatch get: %v", err)
	}
	if s.Snapshot()["plain"] != true {
		t.Fatalf("expected bare get to merge like any mutation")
	}
}

func TestNonMappingResultIsSilentNoOp(t *testing.T) {
	s := New(map[string]Reducer{
		"describe": func(State, Action, Toolkit) (any, error) {
			return "just a string", nil
		},
		"nothing": func(State, Action, Toolkit) (any, error) {
			return nil, nil
		},
	}, State{"seed": true})
	before := s.Handle()

	value, err := s.Dispatch("describe")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if value != "just a string" {
		t.Fatalf("expected reducer result back, got %v", value)
	}
	if _, err := s.Dispatch("nothing"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if s.Handle() != before {
		t.Fatalf("expected non-mapping results to leave state untouched")
	}
}

func TestAsyncSuffixAlwaysReturnsPromise(t *testing.T) {
	s := New(map[string]Reducer{
		"refreshAsync": func(State, Action, Toolkit) (any, error) {
			return State{"refreshed": true}, nil
		},
		"getUserAsync": func(State, Action, Toolkit) (any, error) {
			return State{"name": "Ada"}, nil
		},
	}, State{})

	result, err := s.Dispatch("refreshAsync")
	if err != nil {
		t.Fatalf("dispatch refreshAsync: %v", err)
	}
	aw, ok := result.(Awaitable)
	if !ok {
		t.Fatalf("expected awaitable result for Async-suffixed action, got %T", result)
	}
	value, err := aw.Await(context.Background())
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if merged, ok := value.(State); !ok || merged["refreshed"] != true {
		t.Fatalf("expected settled value to carry the payload, got %v", value)
	}
	if s.Snapshot()["refreshed"] != true {
		t.Fatalf("expected synchronous Async-suffixed result to merge immediately")
	}

	result, err = s.Dispatch("getUserAsync")
	if err != nil {
		t.Fatalf("dispatch getUserAsync: %v", err)
	}
	aw, ok = result.(Awaitable)
	if !ok {
		t.Fatalf("expected awaitable result for query Async action, got %T", result)
	}
	value, err = aw.Await(context.Background())
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if user, ok := value.(State); !ok || user["name"] != "Ada" {
		t.Fatalf("expected query payload through the promise, got %v", value)
	}
	if _, ok := s.Snapshot()["name"]; ok {
		t.Fatalf("expected query Async action to skip the merge")
	}
}

func TestAsyncDispatchTracksLoading(t *testing.T) {
	gate := make(chan struct{})
	s := New(map[string]Reducer{
		"loadUser": gatedLoader(gate, State{"user": State{"name": "Ada"}}, nil),
	}, State{})

	if s.LoadingSnapshot()["loadUser"] {
		t.Fatalf("expected loadUser to start idle")
	}

	result, err := s.Dispatch("loadUser")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	aw, ok := result.(Awaitable)
	if !ok {
		t.Fatalf("expected awaitable result, got %T", result)
	}
	if !s.LoadingSnapshot()["loadUser"] {
		t.Fatalf("expected loadUser pending while in flight")
	}
	if s.LoadingCount("loadUser") != 1 {
		t.Fatalf("expected in-flight count 1, got %d", s.LoadingCount("loadUser"))
	}

	close(gate)
	value, err := aw.Await(context.Background())
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if payload, ok := value.(State); !ok || payload["user"] == nil {
		t.Fatalf("expected settled payload, got %v", value)
	}

	if s.LoadingSnapshot()["loadUser"] {
		t.Fatalf("expected loadUser idle after settlement")
	}
	if s.LoadingCount("loadUser") != 0 {
		t.Fatalf("expected count back to 0, got %d", s.LoadingCount("loadUser"))
	}
	if got := s.Operations().Get("user.name"); got != "Ada" {
		t.Fatalf("expected merged payload after settlement, got %v", got)
	}
}

func TestOverlappingSettlementsShareCounter(t *testing.T) {
	s := New(map[string]Reducer{
		"loadStats": func(_ State, action Action, _ Toolkit) (any, error) {
			gate, _ := action.Payload.(chan struct{})
			return NewPromise(func() (any, error) {
				<-gate
				return State{"stats": true}, nil
			}), nil
		},
	}, State{})

	g1 := make(chan struct{})
	g2 := make(chan struct{})
	p1, err := s.Dispatch("loadStats", g1)
	if err != nil {
		t.Fatalf("dispatch first: %v", err)
	}
	p2, err := s.Dispatch("loadStats", g2)
	if err != nil {
		t.Fatalf("dispatch second: %v", err)
	}

	if s.LoadingCount("loadStats") != 2 {
		t.Fatalf("expected two in-flight invocations, got %d", s.LoadingCount("loadStats"))
	}

	close(g1)
	if _, err := p1.(Awaitable).Await(context.Background()); err != nil {
		t.Fatalf("await first: %v", err)
	}
	if s.LoadingCount("loadStats") != 1 {
		t.Fatalf("expected one invocation still pending, got %d", s.LoadingCount("loadStats"))
	}
	if !s.LoadingSnapshot()["loadStats"] {
		t.Fatalf("expected flag to stay true while work remains")
	}

	close(g2)
	if _, err := p2.(Awaitable).Await(context.Background()); err != nil {
		t.Fatalf("await second: %v", err)
	}
	if s.LoadingCount("loadStats") != 0 {
		t.Fatalf("expected counter drained, got %d", s.LoadingCount("loadStats"))
	}
	if s.LoadingSnapshot()["loadStats"] {
		t.Fatalf("expected flag false once all work settled")
	}
}

func TestAsyncRejectionSkipsMerge(t *testing.T) {
	errFetch := errors.New("fetch failed")
	gate := make(chan struct{})
	s := New(map[string]Reducer{
		"loadUser": gatedLoader(gate, nil, errFetch),
	}, State{"seed": 1})

	result, err := s.Dispatch("loadUser")
	if err != nil {
		t.Fatalf("expected rejection to surface only through the promise, got %v", err)
	}

	close(gate)
	value, err := result.(Awaitable).Await(context.Background())
	if !errors.Is(err, errFetch) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
	if value != nil {
		t.Fatalf("expected nil value on rejection, got %v", value)
	}

	if s.LoadingCount("loadUser") != 0 {
		t.Fatalf("expected rejection to decrement loading, got %d", s.LoadingCount("loadUser"))
	}
	if len(s.Snapshot()) != 1 {
		t.Fatalf("expected state untouched by rejection, got %v", s.Snapshot())
	}
}

func TestResetAndClearFenceInFlightMerges(t *testing.T) {
	cases := []struct {
		name      string
		interrupt func(ops Operations)
	}{
		{name: "reset", interrupt: func(ops Operations) { ops.Reset() }},
		{name: "clear", interrupt: func(ops Operations) { ops.Clear() }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			gate := make(chan struct{})
			s := New(map[string]Reducer{
				"loadStats": gatedLoader(gate, State{"stats": 99}, nil),
			}, State{"seed": true})

			result, err := s.Dispatch("loadStats")
			if err != nil {
				t.Fatalf("dispatch: %v", err)
			}

			tc.interrupt(s.Operations())

			close(gate)
			value, err := result.(Awaitable).Await(context.Background())
			if err != nil {
				t.Fatalf("await: %v", err)
			}
			if payload, ok := value.(State); !ok || payload["stats"] != 99 {
				t.Fatalf("expected promise to fulfill with the payload, got %v", value)
			}

			if _, ok := s.Snapshot()["stats"]; ok {
				t.Fatalf("expected stale merge to be dropped after %s", tc.name)
			}
			if s.LoadingCount("loadStats") != 0 {
				t.Fatalf("expected loading decremented despite the fence, got %d", s.LoadingCount("loadStats"))
			}

			// Work dispatched after the interruption merges normally.
			again, err := s.Dispatch("loadStats")
			if err != nil {
				t.Fatalf("dispatch after %s: %v", tc.name, err)
			}
			if _, err := again.(Awaitable).Await(context.Background()); err != nil {
				t.Fatalf("await after %s: %v", tc.name, err)
			}
			if s.Snapshot()["stats"] != 99 {
				t.Fatalf("expected post-%s dispatch to merge, got %v", tc.name, s.Snapshot())
			}
		})
	}
}

func TestClearPreservesLoadingFlags(t *testing.T) {
	gate := make(chan struct{})
	s := New(map[string]Reducer{
		"loadUser": gatedLoader(gate, State{"user": "ada"}, nil),
	}, State{"seed": true})

	result, err := s.Dispatch("loadUser")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	s.Operations().Clear()

	if len(s.Snapshot()) != 0 {
		t.Fatalf("expected cleared state, got %v", s.Snapshot())
	}
	if !s.LoadingSnapshot()["loadUser"] {
		t.Fatalf("expected loadUser to stay pending across clear")
	}

	close(gate)
	if _, err := result.(Awaitable).Await(context.Background()); err != nil {
		t.Fatalf("await: %v", err)
	}
	if s.LoadingCount("loadUser") != 0 {
		t.Fatalf("expected counter drained after settlement, got %d", s.LoadingCount("loadUser"))
	}
}

// gatedLoader builds a reducer whose async work blocks until gate closes,
// then settles with the given payload or error.
func gatedLoader(gate <-chan struct{}, payload State, err error) Reducer {
	return func(State, Action, Toolkit) (any, error) {
		return NewPromise(func() (any, error) {
			<-gate
			if err != nil {
				return nil, err
			}
			return payload, nil
		}), nil
	}
}
