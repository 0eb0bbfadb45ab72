package store

import (
	"context"
	"sort"

	"github.com/goliatone/go-store/paths"
)

// Dispatcher is the dispatch surface attached to a store. It resolves the
// supported calling conventions onto the store's action handler and carries
// the direct state accessors published on every handle.
type Dispatcher struct {
	store *Store
	bound map[string]BoundDispatch
}

// BoundDispatch dispatches one specific action type. The bound name always
// wins over whatever Type the given action carries.
type BoundDispatch func(action Action) (any, error)

func newDispatcher(s *Store) *Dispatcher {
	d := &Dispatcher{store: s, bound: make(map[string]BoundDispatch, len(s.reducers))}
	for name := range s.reducers {
		name := name
		d.bound[name] = func(action Action) (any, error) {
			action.Type = name
			return s.handleAction(action)
		}
	}
	return d
}

// Dispatch resolves action by its dynamic type and routes it:
//
//   - Action values go straight to the handler.
//   - A plain mapping with a "type" key is lifted into an Action; extra keys
//     land in Meta.
//   - A string names the action type, with args[0] as payload.
//   - A Thunk (or any func with the Thunk signature) runs with the current
//     snapshot, this dispatcher, args[0] as payload and the rest as extras;
//     its return value is dispatched again, after settlement when the thunk
//     returned an Awaitable.
//
// Anything else is a silent no-op returning (nil, nil).
func (d *Dispatcher) Dispatch(action any, args ...any) (any, error) {
	switch a := action.(type) {
	case Action:
		return d.store.handleAction(a)
	case map[string]any:
		act, ok := actionFromMap(a)
		if !ok {
			return nil, nil
		}
		return d.store.handleAction(act)
	case string:
		return d.store.handleAction(Action{Type: a, Payload: firstArg(args)})
	case Thunk:
		return d.runThunk(a, args)
	case func(State, *Dispatcher, any, ...any) (any, error):
		return d.runThunk(a, args)
	default:
		return nil, nil
	}
}

// Bound returns the dispatch shortcut for name, or nil when no reducer is
// registered under it.
func (d *Dispatcher) Bound(name string) BoundDispatch {
	return d.bound[name]
}

// BoundNames lists the action types with bound shortcuts, sorted.
func (d *Dispatcher) BoundNames() []string {
	names := make([]string, 0, len(d.bound))
	for name := range d.bound {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// State returns the whole current snapshot.
func (d *Dispatcher) State() State {
	return d.store.Snapshot()
}

// GetState reads path from the current snapshot, returning def when the path
// does not resolve. An empty path returns the whole snapshot.
func (d *Dispatcher) GetState(path string, def ...any) any {
	return paths.Get(d.store.Snapshot(), path, def...)
}

// GetStates reads several paths against one snapshot, preserving order.
func (d *Dispatcher) GetStates(pathList ...string) []any {
	snapshot := d.store.Snapshot()
	values := make([]any, len(pathList))
	for i, path := range pathList {
		values[i] = paths.Get(snapshot, path)
	}
	return values
}

// SetState writes value at path directly, bypassing reducers. It is an
// escape hatch for wiring and tests; dispatched actions are the sanctioned
// way to change state.
func (d *Dispatcher) SetState(path any, value any) {
	d.store.patchState(path, value)
}

// runThunk invokes thunk and feeds its eventual result back through
// Dispatch. Errors short-circuit without touching state or loading.
func (d *Dispatcher) runThunk(thunk Thunk, args []any) (any, error) {
	if thunk == nil {
		return nil, nil
	}
	result, err := thunk(d.store.Snapshot(), d, firstArg(args), restArgs(args)...)
	if err != nil {
		return nil, err
	}
	aw, ok := result.(Awaitable)
	if !ok {
		return d.Dispatch(result)
	}
	out := newPromise()
	go func() {
		value, err := aw.Await(context.Background())
		if err != nil {
			out.settle(nil, err)
			return
		}
		next, err := d.Dispatch(value)
		if err != nil {
			out.settle(nil, err)
			return
		}
		if inner, ok := next.(Awaitable); ok {
			out.settle(inner.Await(context.Background()))
			return
		}
		out.settle(next, nil)
	}()
	return out, nil
}

// actionFromMap lifts a plain mapping into an Action. The mapping must carry
// a non-empty "type" string; "payload" becomes the payload and every other
// key is kept in Meta.
func actionFromMap(m map[string]any) (Action, bool) {
	name, ok := m["type"].(string)
	if !ok || name == "" {
		return Action{}, false
	}
	action := Action{Type: name, Payload: m["payload"]}
	for key, value := range m {
		if key == "type" || key == "payload" {
			continue
		}
		if action.Meta == nil {
			action.Meta = map[string]any{}
		}
		action.Meta[key] = value
	}
	return action, true
}

func firstArg(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func restArgs(args []any) []any {
	if len(args) <= 1 {
		return nil
	}
	return args[1:]
}
