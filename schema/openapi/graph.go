package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// schemaNode is the intermediate form between a snapshot walk and the
// rendered document. It carries only what snapshot values can express;
// validation constraints would need a richer source than a map tree.
type schemaNode struct {
	Type       string
	Format     string
	Properties map[string]*schemaNode
	Required   []string
	Items      *schemaNode
}

func newObjectNode() *schemaNode {
	return &schemaNode{
		Type:       "object",
		Properties: map[string]*schemaNode{},
	}
}

func (n *schemaNode) baseMap() map[string]any {
	result := map[string]any{}
	if n.Type != "" {
		result["type"] = n.Type
	}
	if n.Format != "" {
		result["format"] = n.Format
	}
	return result
}

func (n *schemaNode) inlineOpenAPI() map[string]any {
	result := n.baseMap()

	if len(n.Properties) > 0 || n.Type == "object" {
		props := make(map[string]any, len(n.Properties))
		names := make([]string, 0, len(n.Properties))
		for name := range n.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			props[name] = n.Properties[name].inlineOpenAPI()
		}
		result["properties"] = props
	}

	if len(n.Required) > 0 {
		names := append([]string{}, n.Required...)
		sort.Strings(names)
		result["required"] = names
	}

	if n.Items != nil {
		result["items"] = n.Items.inlineOpenAPI()
	}

	return result
}

// Digest fingerprints the rendered subtree so the component registry can
// collapse snapshot branches that share a shape.
func (n *schemaNode) Digest() string {
	payload := n.inlineOpenAPI()
	data, err := json.Marshal(payload)
	if err != nil {
		// json.Marshal should never fail for the constructed payload; fall
		// back to an empty digest to avoid panics.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type graphBuilder struct {
	visited map[reflect.Type]bool
}

// buildSchemaGraph walks a state snapshot into a schemaNode tree. Snapshots
// are map trees first; reflection only enters for typed values a reducer may
// have stored.
func buildSchemaGraph(value any) (*schemaNode, error) {
	builder := &graphBuilder{visited: map[reflect.Type]bool{}}
	node, err := builder.fromValue(value)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return newObjectNode(), nil
	}
	if node.Type == "" {
		node.Type = "object"
	}
	if node.Type == "object" && node.Properties == nil {
		node.Properties = map[string]*schemaNode{}
	}
	return node, nil
}

func (b *graphBuilder) fromValue(value any) (*schemaNode, error) {
	switch typed := value.(type) {
	case nil:
		return newObjectNode(), nil
	case map[string]any:
		node := newObjectNode()
		names := make([]string, 0, len(typed))
		for name := range typed {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			child, err := b.fromValue(typed[name])
			if err != nil {
				return nil, err
			}
			node.Properties[name] = child
		}
		return node, nil
	case []any:
		node := &schemaNode{Type: "array"}
		if len(typed) > 0 {
			child, err := b.fromValue(typed[0])
			if err != nil {
				return nil, err
			}
			node.Items = child
		} else {
			node.Items = newObjectNode()
		}
		return node, nil
	case []byte:
		return &schemaNode{Type: "string", Format: "byte"}, nil
	case bool:
		return &schemaNode{Type: "boolean"}, nil
	case string:
		return &schemaNode{Type: "string"}, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return &schemaNode{Type: "integer"}, nil
	case float32, float64:
		return &schemaNode{Type: "number"}, nil
	case json.Number:
		if strings.ContainsAny(typed.String(), ".eE") {
			return &schemaNode{Type: "number"}, nil
		}
		return &schemaNode{Type: "integer"}, nil
	case time.Time:
		return &schemaNode{Type: "string", Format: "date-time"}, nil
	default:
		return b.fromReflect(reflect.ValueOf(value), nil)
	}
}

func (b *graphBuilder) fromReflect(rv reflect.Value, rt reflect.Type) (*schemaNode, error) {
	if rt == nil {
		if !rv.IsValid() {
			return newObjectNode(), nil
		}
		rt = rv.Type()
	}

	for rt.Kind() == reflect.Pointer {
		if rv.IsValid() {
			if rv.IsNil() {
				rv = reflect.Value{}
			} else {
				rv = rv.Elem()
			}
		}
		rt = rt.Elem()
	}

	if rt.Kind() == reflect.Interface {
		if rv.IsValid() && !rv.IsNil() {
			return b.fromValue(rv.Elem().Interface())
		}
		return newObjectNode(), nil
	}

	if rt == reflect.TypeOf(time.Time{}) {
		return &schemaNode{Type: "string", Format: "date-time"}, nil
	}

	switch rt.Kind() {
	case reflect.Bool:
		return &schemaNode{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &schemaNode{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &schemaNode{Type: "number"}, nil
	case reflect.String:
		return &schemaNode{Type: "string"}, nil
	case reflect.Struct:
		return b.fromStruct(rv, rt)
	case reflect.Map:
		return b.fromMap(rv, rt)
	case reflect.Slice, reflect.Array:
		if rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8 {
			return &schemaNode{Type: "string", Format: "byte"}, nil
		}
		return b.fromSlice(rv, rt)
	default:
		return &schemaNode{
			Type:   "string",
			Format: fmt.Sprintf("go:%s", rt.String()),
		}, nil
	}
}

func (b *graphBuilder) fromStruct(rv reflect.Value, rt reflect.Type) (*schemaNode, error) {
	if b.visited[rt] {
		return newObjectNode(), nil
	}
	b.visited[rt] = true
	defer delete(b.visited, rt)

	if !rv.IsValid() {
		rv = reflect.Zero(rt)
	}

	node := newObjectNode()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name, omitEmpty, skip := parseJSONName(field)
		if skip {
			continue
		}

		child, err := b.fromReflect(rv.Field(i), field.Type)
		if err != nil {
			return nil, err
		}
		node.Properties[name] = child

		if !omitEmpty && field.Type.Kind() != reflect.Pointer {
			node.Required = append(node.Required, name)
		}
	}

	return node, nil
}

func (b *graphBuilder) fromMap(rv reflect.Value, rt reflect.Type) (*schemaNode, error) {
	if rt.Key().Kind() != reflect.String {
		return nil, fmt.Errorf("openapi: map key type %s unsupported", rt.Key())
	}

	node := newObjectNode()
	if !rv.IsValid() || rv.Len() == 0 {
		return node, nil
	}

	names := make([]string, 0, rv.Len())
	for _, key := range rv.MapKeys() {
		names = append(names, key.String())
	}
	sort.Strings(names)

	for _, name := range names {
		value := rv.MapIndex(reflect.ValueOf(name).Convert(rt.Key()))
		child, err := b.fromReflect(value, rt.Elem())
		if err != nil {
			return nil, err
		}
		node.Properties[name] = child
	}

	return node, nil
}

func (b *graphBuilder) fromSlice(rv reflect.Value, rt reflect.Type) (*schemaNode, error) {
	node := &schemaNode{Type: "array"}
	var elem reflect.Value
	if rv.IsValid() && rv.Len() > 0 {
		elem = rv.Index(0)
	}
	child, err := b.fromReflect(elem, rt.Elem())
	if err != nil {
		return nil, err
	}
	node.Items = child
	return node, nil
}

func parseJSONName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, false, false
	}

	segments := strings.Split(tag, ",")
	if segments[0] == "-" {
		return "", false, true
	}

	name = segments[0]
	if name == "" {
		name = field.Name
	}
	for _, segment := range segments[1:] {
		if segment == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}
