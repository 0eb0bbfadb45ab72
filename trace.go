package store

import (
	"encoding/json"
	"strconv"

	"github.com/goliatone/go-store/paths"
)

// Trace captures provenance for a path read: every segment visited, the
// value it resolved to, and where resolution stopped.
type Trace struct {
	Path    string       `json:"path"`
	Found   bool         `json:"found"`
	Default bool         `json:"default"`
	Steps   []Provenance `json:"steps"`
}

// Provenance details how a single path segment resolved.
type Provenance struct {
	Segment string `json:"segment"`
	Path    string `json:"path"`
	Value   any    `json:"value,omitempty"`
	Found   bool   `json:"found"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated
// via ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// missing marks unresolved steps during a traced walk. The pointer can never
// collide with a stored value.
var missing = &struct{}{}

// GetWithTrace resolves path against the current snapshot like Get, while
// recording per-segment provenance. When the path does not resolve, the
// returned value is def (if given) and the trace marks where the walk
// stopped.
func (s *Store) GetWithTrace(path string, def ...any) (any, Trace) {
	trace := Trace{Path: path}
	current := any(s.Snapshot())
	prefix := ""
	for _, segment := range paths.Parse(path) {
		label := segmentLabel(segment)
		prefix = joinPath(prefix, label)
		value := paths.Get(current, []any{segment}, missing)
		step := Provenance{Segment: label, Path: prefix, Found: value != missing}
		if !step.Found {
			trace.Steps = append(trace.Steps, step)
			trace.Default = len(def) > 0
			return firstArg(def), trace
		}
		step.Value = value
		trace.Steps = append(trace.Steps, step)
		current = value
	}
	trace.Found = true
	return current, trace
}

// segmentLabel renders a parsed segment for trace output. Parse only emits
// string keys and int indexes.
func segmentLabel(segment any) string {
	if index, ok := segment.(int); ok {
		return strconv.Itoa(index)
	}
	label, _ := segment.(string)
	return label
}
