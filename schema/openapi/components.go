package openapi

import (
	"fmt"
	"regexp"
	"strings"
)

// componentRegistry collapses snapshot branches that share a digest into a
// single components/schemas entry. A branch is promoted once it is seen a
// second time, or immediately when forced (root component).
type componentRegistry struct {
	entries   map[string]*componentEntry
	usedNames map[string]struct{}
}

type componentEntry struct {
	name   string
	schema map[string]any
	count  int
	force  bool
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		entries:   map[string]*componentEntry{},
		usedNames: map[string]struct{}{},
	}
}

// register records an occurrence of node and returns a $ref once the shape
// qualifies for promotion. The first occurrence stays inline and gets "".
func (r *componentRegistry) register(nameHint string, node *schemaNode) string {
	return r.registerInternal(nameHint, node, false)
}

// forceReference promotes node immediately under the provided name.
func (r *componentRegistry) forceReference(name string, node *schemaNode) string {
	return r.registerInternal(name, node, true)
}

func (r *componentRegistry) registerInternal(nameHint string, node *schemaNode, force bool) string {
	if node == nil {
		return ""
	}
	digest := node.Digest()
	if digest == "" {
		return ""
	}

	entry, ok := r.entries[digest]
	if !ok {
		entry = &componentEntry{
			name:  r.uniqueName(nameHint),
			count: 1,
			force: force,
		}
		if force {
			entry.schema = node.inlineOpenAPI()
		}
		r.entries[digest] = entry
		if force {
			return componentRef(entry.name)
		}
		return ""
	}

	entry.count++
	if force {
		entry.force = true
	}
	if entry.force || entry.count >= 2 {
		if entry.schema == nil {
			entry.schema = node.inlineOpenAPI()
		}
		return componentRef(entry.name)
	}
	return ""
}

func (r *componentRegistry) uniqueName(name string) string {
	safe := sanitizeComponentName(name)
	if safe == "" {
		safe = "Schema"
	}
	if _, exists := r.usedNames[safe]; !exists {
		r.usedNames[safe] = struct{}{}
		return safe
	}
	suffix := 1
	for {
		candidate := fmt.Sprintf("%s%d", safe, suffix)
		if _, exists := r.usedNames[candidate]; !exists {
			r.usedNames[candidate] = struct{}{}
			return candidate
		}
		suffix++
	}
}

func (r *componentRegistry) componentsMap() map[string]any {
	out := make(map[string]any, len(r.entries))
	for _, entry := range r.entries {
		if entry.force || entry.count >= 2 {
			if entry.schema == nil {
				entry.schema = map[string]any{}
			}
			out[entry.name] = entry.schema
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func componentRef(name string) string {
	return fmt.Sprintf("#/components/schemas/%s", name)
}

var componentNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeComponentName(name string) string {
	name = componentNameRegexp.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
