package store

// Loading maps action types to their pending flags. Every registered reducer
// name is present; a flag is true while at least one async action of that
// type is in flight. Snapshots are never mutated after publication.
type Loading = map[string]bool

// newLoading builds the initial all-false loading map for a reducer set.
func newLoading(reducers map[string]Reducer) Loading {
	loading := make(Loading, len(reducers))
	for name := range reducers {
		loading[name] = false
	}
	return loading
}

// loadingReducer derives the flag for name from its in-flight count and
// returns a fresh map, leaving previously published snapshots stable. Names
// missing from the map are added.
func loadingReducer(loading Loading, name string, count int) Loading {
	next := make(Loading, len(loading)+1)
	for key, pending := range loading {
		next[key] = pending
	}
	next[name] = count > 0
	return next
}
