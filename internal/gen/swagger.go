package gen

import (
	"sort"

	"github.com/go-openapi/spec"

	"github.com/griffnb/schemagen/internal/typegraph"
)

// RefSchema builds a reference schema into the definitions table.
func RefSchema(refType string) *spec.Schema {
	return spec.RefSchema("#/definitions/" + refType)
}

// BuildSwagger renders a type graph as a Swagger 2.0 document whose
// definitions block mirrors the graph's definition table. NamedRef edges
// become local $refs, so the cyclic structure survives the round trip.
func BuildSwagger(graph *typegraph.Graph, title string) *spec.Swagger {
	definitions := make(spec.Definitions, len(graph.Definitions))
	for _, name := range graph.Names() {
		definitions[name] = *SpecSchema(graph.Definitions[name])
	}

	return &spec.Swagger{
		SwaggerProps: spec.SwaggerProps{
			Swagger: "2.0",
			Info: &spec.Info{
				InfoProps: spec.InfoProps{
					Title:   title,
					Version: "1.0.0",
				},
			},
			Paths:       &spec.Paths{Paths: map[string]spec.PathItem{}},
			Definitions: definitions,
		},
	}
}

// SpecSchema converts one descriptor to an OpenAPI schema.
func SpecSchema(desc *typegraph.Descriptor) *spec.Schema {
	if desc == nil {
		return &spec.Schema{}
	}

	schema := &spec.Schema{}
	schema.Title = desc.Title
	schema.Description = desc.Description
	schema.Default = desc.Default
	schema.Nullable = desc.Nullable

	switch desc.Kind {
	case typegraph.KindRef:
		ref := RefSchema(desc.Ref)
		ref.Description = desc.Description
		return ref
	case typegraph.KindPrimitive:
		if desc.Primitive != typegraph.PrimitiveAny {
			schema.Type = []string{string(desc.Primitive)}
		}
		applyConstraints(schema, desc.Constraints)
	case typegraph.KindEnum:
		schema.Type = []string{string(desc.EnumKind)}
		schema.Enum = append(schema.Enum, desc.Enum...)
		applyConstraints(schema, desc.Constraints)
	case typegraph.KindObject:
		schema.Type = []string{"object"}
		schema.Properties = make(map[string]spec.Schema, len(desc.Fields))
		for _, field := range desc.Fields {
			schema.Properties[field.Name] = *SpecSchema(field.Type)
			if field.Required {
				schema.Required = append(schema.Required, field.Name)
			}
		}
		sort.Strings(schema.Required)
		if !desc.Open {
			schema.AdditionalProperties = &spec.SchemaOrBool{Allows: false}
		}
	case typegraph.KindArray:
		schema.Type = []string{"array"}
		schema.Items = &spec.SchemaOrArray{Schema: SpecSchema(desc.Elem)}
		applyConstraints(schema, desc.Constraints)
	case typegraph.KindUnion:
		for _, branch := range desc.Branches {
			schema.AnyOf = append(schema.AnyOf, *SpecSchema(branch))
		}
	}
	return schema
}

func applyConstraints(schema *spec.Schema, c typegraph.Constraints) {
	schema.Minimum = c.Minimum
	schema.Maximum = c.Maximum
	schema.ExclusiveMinimum = c.ExclusiveMinimum
	schema.ExclusiveMaximum = c.ExclusiveMaximum
	schema.MultipleOf = c.MultipleOf
	schema.MinLength = c.MinLength
	schema.MaxLength = c.MaxLength
	schema.Pattern = c.Pattern
	schema.Format = c.Format
	schema.MinItems = c.MinItems
	schema.MaxItems = c.MaxItems
	schema.UniqueItems = c.UniqueItems
}
