// Package paths implements dotted/bracketed path addressing over plain
// JSON-ish containers (nested map[string]any and []any values).
package paths

import (
	"strconv"
	"strings"
)

// Parse splits a path such as "profile.roles[0].name" into segments. Map keys
// become strings, bracketed numeric indices become ints, and quoted bracket
// keys keep their literal value. An empty path yields no segments.
func Parse(path string) []any {
	if path == "" {
		return nil
	}
	var segments []any
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		segments = append(segments, current.String())
		current.Reset()
	}
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '.':
			flush()
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				// Unterminated bracket, keep the rest as a literal key.
				flush()
				current.WriteString(path[i:])
				i = len(path)
				continue
			}
			flush()
			segments = append(segments, bracketSegment(path[i+1:i+end]))
			i += end
		default:
			current.WriteByte(path[i])
		}
	}
	flush()
	return segments
}

func bracketSegment(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) >= 2 {
		first, last := trimmed[0], trimmed[len(trimmed)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return trimmed[1 : len(trimmed)-1]
		}
	}
	if index, err := strconv.Atoi(trimmed); err == nil {
		return index
	}
	return trimmed
}

// Get resolves path against container and returns the value found there. The
// path may be a dotted/bracketed string or a segment sequence ([]any of
// string/int, or []string). An empty path denotes the whole container. A
// missing key, an out-of-range index, or a non-container at any step returns
// the default (nil when none is supplied). Get never mutates the container.
func Get(container any, path any, def ...any) any {
	fallback := defaultValue(def)
	segments, ok := normalize(path)
	if !ok {
		return fallback
	}
	current := container
	for _, segment := range segments {
		next, found := step(current, segment)
		if !found {
			return fallback
		}
		current = next
	}
	return current
}

// Set returns a new container holding value at path; the input container is
// never mutated. Only the spine of the path is copied, so untouched siblings
// keep their reference identity. Missing or non-container intermediate levels
// become fresh maps; an in-range index on a slice writes into a copy of that
// slice. An empty path returns the value itself.
func Set(container any, path any, value any) any {
	segments, ok := normalize(path)
	if !ok {
		return container
	}
	if len(segments) == 0 {
		return value
	}
	return assign(container, segments, value)
}

func assign(container any, segments []any, value any) any {
	segment := segments[0]
	rest := segments[1:]

	if index, ok := segmentIndex(segment); ok {
		if slice, isSlice := container.([]any); isSlice && index >= 0 && index < len(slice) {
			out := make([]any, len(slice))
			copy(out, slice)
			if len(rest) == 0 {
				out[index] = value
			} else {
				out[index] = assign(slice[index], rest, value)
			}
			return out
		}
	}

	key, ok := segmentKey(segment)
	if !ok {
		return container
	}
	existing, isMap := container.(map[string]any)
	out := make(map[string]any, len(existing)+1)
	if isMap {
		for k, v := range existing {
			out[k] = v
		}
	}
	if len(rest) == 0 {
		out[key] = value
	} else {
		out[key] = assign(out[key], rest, value)
	}
	return out
}

func normalize(path any) ([]any, bool) {
	switch p := path.(type) {
	case nil:
		return nil, true
	case string:
		return Parse(p), true
	case []any:
		return p, true
	case []string:
		out := make([]any, len(p))
		for i, segment := range p {
			out[i] = segment
		}
		return out, true
	default:
		return nil, false
	}
}

func step(container any, segment any) (any, bool) {
	switch c := container.(type) {
	case map[string]any:
		key, ok := segmentKey(segment)
		if !ok {
			return nil, false
		}
		value, found := c[key]
		return value, found
	case []any:
		index, ok := segmentIndex(segment)
		if !ok || index < 0 || index >= len(c) {
			return nil, false
		}
		return c[index], true
	default:
		return nil, false
	}
}

func segmentKey(segment any) (string, bool) {
	switch s := segment.(type) {
	case string:
		return s, true
	case int:
		return strconv.Itoa(s), true
	default:
		return "", false
	}
}

func segmentIndex(segment any) (int, bool) {
	switch s := segment.(type) {
	case int:
		return s, true
	case string:
		index, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return index, true
	default:
		return 0, false
	}
}

func defaultValue(def []any) any {
	if len(def) == 0 {
		return nil
	}
	return def[0]
}
