package schema

import (
	"math"
	"sort"

	"github.com/griffnb/schemagen/internal/document"
	"github.com/griffnb/schemagen/internal/typegraph"
)

// mapEffective produces exactly one descriptor for an effective schema.
func (ps *pass) mapEffective(node *document.SchemaNode, es *EffectiveSchema) (*typegraph.Descriptor, error) {
	// Alternative branches take precedence: a node carrying anyOf/oneOf is a
	// union regardless of what else merged in.
	if _, members := combinatorBranches(ps.effectiveNode(node, es)); members != nil {
		return ps.mapUnion(node, es, members)
	}

	if _, ok := es.Keyword("enum"); ok {
		return ps.mapEnum(node, es)
	}

	rawType, hasType := es.Keyword("type")
	if !hasType {
		// Inference when type is absent: object-shaped keywords imply an
		// object, items implies an array, anything else is the open "any".
		if _, ok := es.Keyword("properties"); ok {
			return ps.mapObject(node, es)
		}
		if _, ok := es.Keyword("items"); ok {
			return ps.mapArray(node, es)
		}
		return ps.annotate(es, &typegraph.Descriptor{
			Kind:      typegraph.KindPrimitive,
			Primitive: typegraph.PrimitiveAny,
		}), nil
	}

	switch t := rawType.(type) {
	case string:
		return ps.mapSingleType(node, es, t, false)
	case []interface{}:
		return ps.mapTypeList(node, es, t)
	}
	return ps.annotate(es, &typegraph.Descriptor{
		Kind:      typegraph.KindPrimitive,
		Primitive: typegraph.PrimitiveAny,
	}), nil
}

// effectiveNode wraps the merged keyword set as a node at the original
// location, so branch members get path-derived locations.
func (ps *pass) effectiveNode(node *document.SchemaNode, es *EffectiveSchema) *document.SchemaNode {
	return &document.SchemaNode{Doc: node.Doc, Value: es.Keywords, Location: node.Location}
}

func (ps *pass) mapSingleType(node *document.SchemaNode, es *EffectiveSchema, typeName string, nullable bool) (*typegraph.Descriptor, error) {
	var desc *typegraph.Descriptor
	var err error
	switch typeName {
	case "object":
		desc, err = ps.mapObject(node, es)
	case "array":
		desc, err = ps.mapArray(node, es)
	case "string":
		desc = &typegraph.Descriptor{
			Kind:        typegraph.KindPrimitive,
			Primitive:   typegraph.PrimitiveString,
			Constraints: constraintsFrom(es),
		}
	case "integer":
		desc = &typegraph.Descriptor{
			Kind:        typegraph.KindPrimitive,
			Primitive:   typegraph.PrimitiveInteger,
			Constraints: constraintsFrom(es),
		}
	case "number":
		desc = &typegraph.Descriptor{
			Kind:        typegraph.KindPrimitive,
			Primitive:   typegraph.PrimitiveNumber,
			Constraints: constraintsFrom(es),
		}
	case "boolean":
		desc = &typegraph.Descriptor{Kind: typegraph.KindPrimitive, Primitive: typegraph.PrimitiveBool}
	case "null":
		desc = &typegraph.Descriptor{Kind: typegraph.KindPrimitive, Primitive: typegraph.PrimitiveNull}
	default:
		desc = &typegraph.Descriptor{Kind: typegraph.KindPrimitive, Primitive: typegraph.PrimitiveAny}
	}
	if err != nil {
		return nil, err
	}
	desc.Nullable = desc.Nullable || nullable
	return ps.annotate(es, desc), nil
}

// mapTypeList handles the draft-07 type array form. [T, "null"] collapses to
// a nullable T; anything wider becomes a union of primitives.
func (ps *pass) mapTypeList(node *document.SchemaNode, es *EffectiveSchema, types []interface{}) (*typegraph.Descriptor, error) {
	var names []string
	sawNull := false
	for _, raw := range types {
		name, ok := raw.(string)
		if !ok {
			continue
		}
		if name == "null" {
			sawNull = true
			continue
		}
		names = append(names, name)
	}

	switch len(names) {
	case 0:
		return ps.annotate(es, &typegraph.Descriptor{
			Kind:      typegraph.KindPrimitive,
			Primitive: typegraph.PrimitiveNull,
		}), nil
	case 1:
		return ps.mapSingleType(node, es, names[0], sawNull)
	}

	branches := make([]*typegraph.Descriptor, 0, len(names))
	for _, name := range names {
		branch, err := ps.mapSingleType(node, es, name, false)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	return ps.annotate(es, &typegraph.Descriptor{
		Kind:     typegraph.KindUnion,
		Branches: branches,
		Nullable: sawNull,
	}), nil
}

func (ps *pass) mapObject(node *document.SchemaNode, es *EffectiveSchema) (*typegraph.Descriptor, error) {
	desc := &typegraph.Descriptor{
		Kind: typegraph.KindObject,
		Open: true,
	}
	if ap, ok := es.Keyword("additionalProperties"); ok {
		if allowed, isBool := ap.(bool); isBool {
			desc.Open = allowed
		}
	}

	required := requiredSet(es)
	props, _ := es.Keyword("properties")
	propMap, _ := props.(map[string]interface{})

	names := make([]string, 0, len(propMap))
	for name := range propMap {
		names = append(names, name)
	}
	sort.Strings(names)

	container := ps.effectiveNode(node, es).Synthetic(propMap, "properties")
	for _, name := range names {
		child := container.Synthetic(propMap[name], name)
		fieldType, err := ps.buildChild(child)
		if err != nil {
			return nil, err
		}
		desc.Fields = append(desc.Fields, typegraph.Field{
			Name:     name,
			Type:     fieldType,
			Required: required[name],
		})
	}
	return desc, nil
}

func (ps *pass) mapArray(node *document.SchemaNode, es *EffectiveSchema) (*typegraph.Descriptor, error) {
	desc := &typegraph.Descriptor{
		Kind:        typegraph.KindArray,
		Constraints: constraintsFrom(es),
	}

	items, ok := es.Keyword("items")
	if !ok {
		desc.Elem = &typegraph.Descriptor{Kind: typegraph.KindPrimitive, Primitive: typegraph.PrimitiveAny}
		return desc, nil
	}

	itemsNode := ps.effectiveNode(node, es).Synthetic(items, "items")
	switch items.(type) {
	case []interface{}:
		// Tuple-form items: represent the positions as an ordered union.
		list := items.([]interface{})
		branches := make([]*typegraph.Descriptor, 0, len(list))
		for i := range list {
			member, _ := itemsNode.Item(i)
			branch, err := ps.buildChild(member)
			if err != nil {
				return nil, err
			}
			branches = append(branches, branch)
		}
		desc.Elem = &typegraph.Descriptor{Kind: typegraph.KindUnion, Branches: branches}
	default:
		elem, err := ps.buildChild(itemsNode)
		if err != nil {
			return nil, err
		}
		desc.Elem = elem
	}
	return desc, nil
}

// mapEnum infers the literal set's shared scalar kind. Null literals are
// compatible with any kind; mixing e.g. strings and objects is ambiguous.
func (ps *pass) mapEnum(node *document.SchemaNode, es *EffectiveSchema) (*typegraph.Descriptor, error) {
	raw, _ := es.Keyword("enum")
	literals, _ := raw.([]interface{})

	kind := typegraph.Primitive("")
	var kinds []string
	sawNull := false
	for _, lit := range literals {
		var litKind typegraph.Primitive
		switch document.KindOf(lit) {
		case document.KindString:
			litKind = typegraph.PrimitiveString
		case document.KindNumber:
			litKind = typegraph.PrimitiveNumber
			if f, ok := toFloat(lit); ok && f == math.Trunc(f) {
				litKind = typegraph.PrimitiveInteger
			}
		case document.KindBool:
			litKind = typegraph.PrimitiveBool
		case document.KindNull:
			sawNull = true
			continue
		default:
			litKind = typegraph.PrimitiveAny
		}

		switch {
		case kind == "":
			kind = litKind
		case kind == litKind:
		case numericWidening(kind, litKind):
			kind = typegraph.PrimitiveNumber
		default:
			kinds = []string{string(kind), string(litKind)}
		}
		if kinds != nil {
			return nil, &AmbiguousEnumTypeError{
				Location: document.Pointer(node.Location),
				Kinds:    kinds,
			}
		}
	}
	if kind == "" {
		kind = typegraph.PrimitiveNull
	}

	return ps.annotate(es, &typegraph.Descriptor{
		Kind:        typegraph.KindEnum,
		Enum:        literals,
		EnumKind:    kind,
		Nullable:    sawNull,
		Constraints: constraintsFrom(es),
	}), nil
}

// mapUnion maps anyOf/oneOf branches. A two-way split where exactly one
// branch is the null primitive collapses to a nullable marker on the other
// branch, keeping generated field types idiomatic.
func (ps *pass) mapUnion(node *document.SchemaNode, es *EffectiveSchema, members []*document.SchemaNode) (*typegraph.Descriptor, error) {
	branches := make([]*typegraph.Descriptor, 0, len(members))
	for _, member := range members {
		branch, err := ps.buildChild(member)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}

	nullCount := 0
	var nonNull []*typegraph.Descriptor
	for _, b := range branches {
		if b.Kind == typegraph.KindPrimitive && b.Primitive == typegraph.PrimitiveNull {
			nullCount++
			continue
		}
		nonNull = append(nonNull, b)
	}

	if nullCount == 1 && len(nonNull) == 1 {
		collapsed := *nonNull[0]
		collapsed.Nullable = true
		return ps.annotate(es, &collapsed), nil
	}

	desc := &typegraph.Descriptor{
		Kind:     typegraph.KindUnion,
		Branches: branches,
		Nullable: nullCount > 0 && len(nonNull) > 0,
	}
	if nullCount > 0 && len(nonNull) > 0 {
		desc.Branches = nonNull
	}
	if disc, ok := es.Keyword("discriminator"); ok {
		switch d := disc.(type) {
		case string:
			desc.Discriminator = d
		case map[string]interface{}:
			if name, ok := d["propertyName"].(string); ok {
				desc.Discriminator = name
			}
		}
	}
	return ps.annotate(es, desc), nil
}

// annotate carries title, description and default from the effective schema
// onto the mapped descriptor.
func (ps *pass) annotate(es *EffectiveSchema, desc *typegraph.Descriptor) *typegraph.Descriptor {
	if title, ok := es.Keyword("title"); ok {
		desc.Title, _ = title.(string)
	}
	if description, ok := es.Keyword("description"); ok {
		desc.Description, _ = description.(string)
	}
	if def, ok := es.Keyword("default"); ok {
		desc.Default = def
	}
	return desc
}

func requiredSet(es *EffectiveSchema) map[string]bool {
	set := make(map[string]bool)
	raw, ok := es.Keyword("required")
	if !ok {
		return set
	}
	list, ok := raw.([]interface{})
	if !ok {
		return set
	}
	for _, item := range list {
		if name, ok := item.(string); ok {
			set[name] = true
		}
	}
	return set
}

func constraintsFrom(es *EffectiveSchema) typegraph.Constraints {
	var c typegraph.Constraints

	if v, ok := es.Keyword("minimum"); ok {
		if f, ok := toFloat(v); ok {
			c.Minimum = &f
		}
	}
	if v, ok := es.Keyword("maximum"); ok {
		if f, ok := toFloat(v); ok {
			c.Maximum = &f
		}
	}
	if v, ok := es.Keyword("exclusiveMinimum"); ok {
		switch ev := v.(type) {
		case bool:
			c.ExclusiveMinimum = ev
		case float64:
			if c.Minimum == nil || ev > *c.Minimum {
				f := ev
				c.Minimum = &f
				c.ExclusiveMinimum = true
			}
		}
	}
	if v, ok := es.Keyword("exclusiveMaximum"); ok {
		switch ev := v.(type) {
		case bool:
			c.ExclusiveMaximum = ev
		case float64:
			if c.Maximum == nil || ev < *c.Maximum {
				f := ev
				c.Maximum = &f
				c.ExclusiveMaximum = true
			}
		}
	}
	if v, ok := es.Keyword("multipleOf"); ok {
		if f, ok := toFloat(v); ok {
			c.MultipleOf = &f
		}
	}
	if v, ok := es.Keyword("minLength"); ok {
		if n, ok := toInt(v); ok {
			c.MinLength = &n
		}
	}
	if v, ok := es.Keyword("maxLength"); ok {
		if n, ok := toInt(v); ok {
			c.MaxLength = &n
		}
	}
	if v, ok := es.Keyword("pattern"); ok {
		c.Pattern, _ = v.(string)
	}
	if v, ok := es.Keyword("format"); ok {
		c.Format, _ = v.(string)
	}
	if v, ok := es.Keyword("minItems"); ok {
		if n, ok := toInt(v); ok {
			c.MinItems = &n
		}
	}
	if v, ok := es.Keyword("maxItems"); ok {
		if n, ok := toInt(v); ok {
			c.MaxItems = &n
		}
	}
	if v, ok := es.Keyword("uniqueItems"); ok {
		c.UniqueItems, _ = v.(bool)
	}
	return c
}

func toInt(v interface{}) (int64, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

func numericWidening(a, b typegraph.Primitive) bool {
	isNum := func(p typegraph.Primitive) bool {
		return p == typegraph.PrimitiveInteger || p == typegraph.PrimitiveNumber
	}
	return isNum(a) && isNum(b)
}
