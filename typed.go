package store

import (
	"fmt"

	"github.com/goliatone/go-store/internal/hydrate"
	"github.com/goliatone/go-store/paths"
)

// Decode converts a state mapping into a typed struct via a JSON round trip.
// The mapping is cloned before decoding, so live state is never touched.
func Decode[T any](state State) (T, error) {
	return hydrate.NewDecoder[T]().Decode(hydrate.Context{}, state)
}

// DecodeStrict behaves like Decode but rejects keys that do not map onto T.
func DecodeStrict[T any](state State) (T, error) {
	return hydrate.NewDecoder[T](hydrate.WithDisallowUnknownFields[T]()).
		Decode(hydrate.Context{}, state)
}

// DecodePath decodes the mapping found at path in the store's current
// snapshot. Go's generics keep this a package function rather than a method.
func DecodePath[T any](s *Store, path string) (T, error) {
	var zero T
	value := paths.Get(s.Snapshot(), path)
	payload, ok := value.(map[string]any)
	if !ok {
		return zero, fmt.Errorf("store: path %q does not hold a mapping", path)
	}
	return hydrate.NewDecoder[T]().Decode(hydrate.Context{Path: path}, payload)
}
