package schema

import (
	"reflect"
	"sort"

	"github.com/griffnb/schemagen/internal/document"
)

// EffectiveSchema is the result of collapsing a node and its allOf members
// into a single constraint set. Provenance records which member contributed
// each keyword, so a conflict can name both offending locations instead of
// silently picking one.
type EffectiveSchema struct {
	Location   string
	Keywords   map[string]interface{}
	Provenance map[string]string
}

func newEffectiveSchema(location string) *EffectiveSchema {
	return &EffectiveSchema{
		Location:   location,
		Keywords:   make(map[string]interface{}),
		Provenance: make(map[string]string),
	}
}

// Keyword returns a merged keyword value.
func (es *EffectiveSchema) Keyword(name string) (interface{}, bool) {
	v, ok := es.Keywords[name]
	return v, ok
}

// Keywords the merger never carries into the effective set: combinators are
// expanded by the caller, reference and annotation keywords are handled
// before merging.
var droppedKeywords = map[string]struct{}{
	"$ref":        {},
	"$schema":     {},
	"$id":         {},
	"$comment":    {},
	"allOf":       {},
	"definitions": {},
	"$defs":       {},
}

// mergeMember folds one allOf member's keyword set into the effective schema.
// The merge is structural: set-typed constraints union, range constraints
// take the tightest bound, object members contribute their properties into
// one combined map, and a single-valued constraint present with different
// values is a conflict.
func (es *EffectiveSchema) mergeMember(location string, keywords map[string]interface{}) error {
	names := make([]string, 0, len(keywords))
	for name := range keywords {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := keywords[name]
		if _, dropped := droppedKeywords[name]; dropped {
			continue
		}

		existing, present := es.Keywords[name]
		if !present {
			es.Keywords[name] = value
			es.Provenance[name] = location
			continue
		}

		switch name {
		case "required":
			es.Keywords[name] = unionStringSets(existing, value)

		case "properties", "patternProperties":
			merged, err := es.mergePropertyMaps(name, existing, value, location)
			if err != nil {
				return err
			}
			es.Keywords[name] = merged

		case "minimum", "exclusiveMinimum", "minLength", "minItems", "minProperties":
			es.Keywords[name] = tightestBound(existing, value, true)

		case "maximum", "exclusiveMaximum", "maxLength", "maxItems", "maxProperties":
			es.Keywords[name] = tightestBound(existing, value, false)

		case "uniqueItems":
			a, _ := existing.(bool)
			b, _ := value.(bool)
			es.Keywords[name] = a || b

		case "enum":
			intersection := intersectLiterals(existing, value)
			if len(intersection) == 0 {
				return &SchemaConflictError{
					Keyword:   name,
					Locations: [2]string{es.Provenance[name], location},
					Values:    [2]interface{}{existing, value},
				}
			}
			es.Keywords[name] = intersection

		case "items", "additionalProperties", "additionalItems":
			if reflect.DeepEqual(existing, value) {
				continue
			}
			// Schema-valued keywords merge recursively through the same
			// allOf rule when the combined schema is processed.
			es.Keywords[name] = map[string]interface{}{
				"allOf": []interface{}{existing, value},
			}

		case "type", "format", "pattern", "multipleOf", "const":
			if reflect.DeepEqual(existing, value) {
				continue
			}
			return &SchemaConflictError{
				Keyword:   name,
				Locations: [2]string{es.Provenance[name], location},
				Values:    [2]interface{}{existing, value},
			}

		default:
			// Annotations and unrecognized keywords: first contributor wins.
		}
	}
	return nil
}

// mergePropertyMaps combines two properties maps. A property present in both
// members is wrapped in a synthetic allOf so the two schemas merge through
// the same rule when that property is mapped.
func (es *EffectiveSchema) mergePropertyMaps(name string, existing, value interface{}, location string) (interface{}, error) {
	a, okA := existing.(map[string]interface{})
	b, okB := value.(map[string]interface{})
	if !okA || !okB {
		if reflect.DeepEqual(existing, value) {
			return existing, nil
		}
		return nil, &SchemaConflictError{
			Keyword:   name,
			Locations: [2]string{es.Provenance[name], location},
			Values:    [2]interface{}{existing, value},
		}
	}

	merged := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range b {
		if prior, dup := merged[k]; dup && !reflect.DeepEqual(prior, v) {
			merged[k] = map[string]interface{}{
				"allOf": []interface{}{prior, v},
			}
			continue
		}
		merged[k] = v
	}
	return merged, nil
}

func unionStringSets(a, b interface{}) []interface{} {
	set := make(map[string]struct{})
	for _, raw := range []interface{}{a, b} {
		items, ok := raw.([]interface{})
		if !ok {
			continue
		}
		for _, item := range items {
			if s, ok := item.(string); ok {
				set[s] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(set))
	for s := range set {
		names = append(names, s)
	}
	sort.Strings(names)
	out := make([]interface{}, len(names))
	for i, s := range names {
		out[i] = s
	}
	return out
}

// tightestBound keeps the max of minimums or the min of maximums.
func tightestBound(a, b interface{}, lower bool) interface{} {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if !okA {
		return b
	}
	if !okB {
		return a
	}
	if lower == (fa >= fb) {
		return a
	}
	return b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func intersectLiterals(a, b interface{}) []interface{} {
	la, okA := a.([]interface{})
	lb, okB := b.([]interface{})
	if !okA || !okB {
		return nil
	}
	var out []interface{}
	for _, va := range la {
		for _, vb := range lb {
			if reflect.DeepEqual(va, vb) {
				out = append(out, va)
				break
			}
		}
	}
	return out
}

// combinator inspects a node for anyOf/oneOf members. Branch order is
// preserved: later stages use positional order as the stable discriminant
// fallback when no discriminator keyword is present.
func combinatorBranches(node *document.SchemaNode) (keyword string, members []*document.SchemaNode) {
	for _, name := range []string{"anyOf", "oneOf"} {
		raw, ok := node.Keyword(name)
		if !ok {
			continue
		}
		list, ok := raw.([]interface{})
		if !ok || len(list) == 0 {
			continue
		}
		branch, _ := node.Child(name)
		for i := range list {
			member, _ := branch.Item(i)
			members = append(members, member)
		}
		return name, members
	}
	return "", nil
}

// allOfMembers returns a node's allOf member nodes in declaration order.
func allOfMembers(node *document.SchemaNode) []*document.SchemaNode {
	raw, ok := node.Keyword("allOf")
	if !ok {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	container, _ := node.Child("allOf")
	members := make([]*document.SchemaNode, 0, len(list))
	for i := range list {
		member, _ := container.Item(i)
		members = append(members, member)
	}
	return members
}
