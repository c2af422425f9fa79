// Package document holds the decoded JSON value model for schema documents.
// A document is decoded once at load time; every node handed out afterwards is
// read-only for the lifetime of a resolution pass.
package document

import (
	"fmt"
	"sort"

	"github.com/go-openapi/jsonpointer"
	"github.com/goccy/go-json"
)

// Kind enumerates the JSON value kinds a schema node can carry.
type Kind int

const (
	// KindInvalid marks a value outside the JSON value model.
	KindInvalid Kind = iota
	// KindObject is a JSON object.
	KindObject
	// KindArray is a JSON array.
	KindArray
	// KindString is a JSON string.
	KindString
	// KindNumber is a JSON number.
	KindNumber
	// KindBool is a JSON boolean.
	KindBool
	// KindNull is JSON null.
	KindNull
)

// String returns the JSON name of the kind.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindNull:
		return "null"
	}
	return "invalid"
}

// KindOf classifies a decoded JSON value.
func KindOf(v interface{}) Kind {
	switch v.(type) {
	case map[string]interface{}:
		return KindObject
	case []interface{}:
		return KindArray
	case string:
		return KindString
	case float64, json.Number:
		return KindNumber
	case bool:
		return KindBool
	case nil:
		return KindNull
	}
	return KindInvalid
}

// Document is one decoded schema document plus the URI it was loaded under.
// The URI is empty for the primary in-memory document of a pass.
type Document struct {
	URI  string
	root interface{}
}

// New wraps an already decoded JSON value as a document.
func New(uri string, root interface{}) *Document {
	return &Document{URI: uri, root: root}
}

// Decode parses raw JSON bytes into a document.
func Decode(uri string, data []byte) (*Document, error) {
	var root interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode document %q: %w", uri, err)
	}
	return New(uri, root), nil
}

// Root returns the node at the document root.
func (d *Document) Root() *SchemaNode {
	return &SchemaNode{Doc: d, Value: d.root, Location: ""}
}

// Resolve walks a JSON pointer from the document root.
// The pointer is the fragment form without the leading "#", "" meaning root.
func (d *Document) Resolve(pointer string) (*SchemaNode, error) {
	ptr, err := jsonpointer.New(pointer)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON pointer %q: %w", pointer, err)
	}
	value, _, err := ptr.Get(d.root)
	if err != nil {
		return nil, fmt.Errorf("cannot address %q: %w", pointer, err)
	}
	return &SchemaNode{Doc: d, Value: value, Location: pointer}, nil
}

// SchemaNode is the raw decoded value at one document location.
type SchemaNode struct {
	Doc      *Document
	Value    interface{}
	Location string // JSON pointer from the document root, "" for root
}

// Kind classifies the node's value.
func (n *SchemaNode) Kind() Kind {
	return KindOf(n.Value)
}

// Keywords returns the keyword map of an object-kinded node, nil otherwise.
func (n *SchemaNode) Keywords() map[string]interface{} {
	m, _ := n.Value.(map[string]interface{})
	return m
}

// Keyword looks up a single schema keyword on an object-kinded node.
func (n *SchemaNode) Keyword(name string) (interface{}, bool) {
	m, ok := n.Value.(map[string]interface{})
	if !ok {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}

// StringKeyword returns a keyword value when present and string-typed.
func (n *SchemaNode) StringKeyword(name string) (string, bool) {
	v, ok := n.Keyword(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Child addresses a direct member of an object-kinded node, extending the
// node's location with an escaped pointer segment.
func (n *SchemaNode) Child(key string) (*SchemaNode, bool) {
	v, ok := n.Keyword(key)
	if !ok {
		return nil, false
	}
	return n.Synthetic(v, key), true
}

// Item addresses one element of an array-kinded node.
func (n *SchemaNode) Item(index int) (*SchemaNode, bool) {
	arr, ok := n.Value.([]interface{})
	if !ok || index < 0 || index >= len(arr) {
		return nil, false
	}
	return &SchemaNode{
		Doc:      n.Doc,
		Value:    arr[index],
		Location: fmt.Sprintf("%s/%d", n.Location, index),
	}, true
}

// Synthetic builds a child node for a value that does not literally exist at
// the extended location in the raw document, e.g. a property schema produced
// by an allOf merge. The location stays path-derived so synthesized names
// remain deterministic.
func (n *SchemaNode) Synthetic(value interface{}, segment string) *SchemaNode {
	return &SchemaNode{
		Doc:      n.Doc,
		Value:    value,
		Location: n.Location + "/" + jsonpointer.Escape(segment),
	}
}

// SortedKeys returns the member names of an object-kinded node in sorted
// order, for deterministic iteration.
func (n *SchemaNode) SortedKeys() []string {
	m := n.Keywords()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Pointer renders a location in the "#/a/b" display form used in diagnostics.
func Pointer(location string) string {
	return "#" + location
}
