package store

// Action types handled by the store reducer. Every commit, whether it comes
// from the operations facade or from an action settlement, goes through one
// of these.
const (
	actionMerge = "merge"
	actionReset = "reset"
	actionClear = "clear"
)

// storeReducer is the pure transition underneath every state commit. It
// returns the next root map and whether anything changed; unknown action
// types and malformed payloads leave state untouched.
func storeReducer(state State, action Action) (State, bool) {
	switch action.Type {
	case actionMerge:
		payload, ok := asState(action.Payload)
		if !ok {
			return state, false
		}
		next := make(State, len(state)+len(payload))
		for key, value := range state {
			next[key] = value
		}
		for key, value := range payload {
			next[key] = value
		}
		return next, true
	case actionReset:
		payload, ok := asState(action.Payload)
		if !ok {
			return state, false
		}
		return payload, true
	case actionClear:
		return State{}, true
	default:
		return state, false
	}
}

// asState reports whether payload is a plain mapping.
func asState(payload any) (State, bool) {
	if payload == nil {
		return nil, false
	}
	if m, ok := payload.(State); ok {
		return m, true
	}
	return nil, false
}
