package schema

import (
	"sort"

	"github.com/griffnb/schemagen/internal/document"
)

// PropertyInfo summarizes one top-level property for reporting.
type PropertyInfo struct {
	Name     string
	Types    []string
	Required bool
}

// Info is a lightweight structural summary of a schema document, computed
// without running resolution.
type Info struct {
	Title       string
	Description string
	Types       []string
	Properties  []PropertyInfo
	Definitions []string
	AllOf       int
	AnyOf       int
	OneOf       int
	Refs        int
}

// Describe inspects the raw document and reports its shape: title, top-level
// properties and their declared types, definition names, and combinator
// usage counts.
func Describe(doc *document.Document) *Info {
	root := doc.Root()
	info := &Info{
		Types: declaredTypes(root),
	}
	info.Title, _ = root.StringKeyword("title")
	info.Description, _ = root.StringKeyword("description")

	required := make(map[string]bool)
	if raw, ok := root.Keyword("required"); ok {
		if list, ok := raw.([]interface{}); ok {
			for _, item := range list {
				if name, ok := item.(string); ok {
					required[name] = true
				}
			}
		}
	}

	if props, ok := root.Child("properties"); ok && props.Kind() == document.KindObject {
		for _, name := range props.SortedKeys() {
			prop, _ := props.Child(name)
			info.Properties = append(info.Properties, PropertyInfo{
				Name:     name,
				Types:    declaredTypes(prop),
				Required: required[name],
			})
		}
	}

	for _, container := range []string{"definitions", "$defs"} {
		if defs, ok := root.Child(container); ok && defs.Kind() == document.KindObject {
			info.Definitions = append(info.Definitions, defs.SortedKeys()...)
		}
	}
	sort.Strings(info.Definitions)

	countCombinators(root.Value, info)
	return info
}

func declaredTypes(node *document.SchemaNode) []string {
	raw, ok := node.Keyword("type")
	if !ok {
		return nil
	}
	switch t := raw.(type) {
	case string:
		return []string{t}
	case []interface{}:
		var types []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				types = append(types, s)
			}
		}
		return types
	}
	return nil
}

func countCombinators(value interface{}, info *Info) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, member := range v {
			switch key {
			case "allOf":
				info.AllOf++
			case "anyOf":
				info.AnyOf++
			case "oneOf":
				info.OneOf++
			case "$ref":
				info.Refs++
			}
			countCombinators(member, info)
		}
	case []interface{}:
		for _, member := range v {
			countCombinators(member, info)
		}
	}
}
