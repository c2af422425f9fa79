package gen

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"
	"github.com/iancoleman/strcase"
	"golang.org/x/tools/imports"

	"github.com/griffnb/schemagen/internal/typegraph"
)

// DefaultPackageName is used when the caller does not name the generated package.
const DefaultPackageName = "models"

// GenerateGo renders the graph as Go source: one named declaration per
// definition table entry, gofmt'ed with import fixing applied.
func (g *Gen) GenerateGo(graph *typegraph.Graph, packageName string) ([]byte, error) {
	if packageName == "" {
		packageName = DefaultPackageName
	}

	file := jen.NewFile(packageName)
	file.HeaderComment("Code generated by schemagen. DO NOT EDIT.")

	for _, name := range graph.Names() {
		emitDefinition(file, graph, name, graph.Definitions[name])
	}

	var buf bytes.Buffer
	if err := file.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render generated source: %w", err)
	}
	formatted, err := imports.Process("models_gen.go", buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to format generated source: %w", err)
	}
	return formatted, nil
}

func emitDefinition(file *jen.File, graph *typegraph.Graph, name string, desc *typegraph.Descriptor) {
	if desc.Description != "" {
		file.Comment(fmt.Sprintf("%s: %s", name, desc.Description))
	}

	switch desc.Kind {
	case typegraph.KindObject:
		emitStruct(file, name, desc)
	case typegraph.KindEnum:
		emitEnum(file, name, desc)
	case typegraph.KindArray:
		file.Type().Id(name).Index().Add(typeExpr(desc.Elem))
	case typegraph.KindRef:
		file.Type().Id(name).Op("=").Id(desc.Ref)
	case typegraph.KindUnion:
		file.Commentf("%s accepts any of %d alternative shapes.", name, len(desc.Branches))
		file.Type().Id(name).Op("=").Interface()
	default:
		file.Type().Id(name).Op("=").Add(typeExpr(desc))
	}
}

func emitStruct(file *jen.File, name string, desc *typegraph.Descriptor) {
	if len(desc.Fields) == 0 {
		if desc.Open {
			file.Type().Id(name).Op("=").Map(jen.String()).Interface()
			return
		}
		file.Type().Id(name).Struct()
		return
	}

	file.Type().Id(name).StructFunc(func(group *jen.Group) {
		for _, field := range desc.Fields {
			tag := field.Name
			optional := !field.Required || field.Type == nil || field.Type.Nullable
			if optional {
				tag += ",omitempty"
			}
			stmt := group.Id(fieldName(field.Name))
			if optional && pointerEligible(field.Type) {
				stmt.Op("*")
			}
			stmt.Add(typeExpr(field.Type)).Tag(map[string]string{"json": tag})
		}
	})
}

func emitEnum(file *jen.File, name string, desc *typegraph.Descriptor) {
	switch desc.EnumKind {
	case typegraph.PrimitiveString:
		file.Type().Id(name).String()
		file.Const().DefsFunc(func(group *jen.Group) {
			for _, literal := range desc.Enum {
				value, ok := literal.(string)
				if !ok {
					continue
				}
				group.Id(name + strcase.ToCamel(value)).Id(name).Op("=").Lit(value)
			}
		})
	case typegraph.PrimitiveInteger:
		file.Type().Id(name).Int64()
	case typegraph.PrimitiveNumber:
		file.Type().Id(name).Float64()
	case typegraph.PrimitiveBool:
		file.Type().Id(name).Bool()
	default:
		file.Type().Id(name).Op("=").Interface()
	}
}

// typeExpr renders the Go type for a descriptor appearing in a field,
// element or alias position.
func typeExpr(desc *typegraph.Descriptor) jen.Code {
	if desc == nil {
		return jen.Interface()
	}
	switch desc.Kind {
	case typegraph.KindRef:
		return jen.Id(desc.Ref)
	case typegraph.KindArray:
		return jen.Index().Add(typeExpr(desc.Elem))
	case typegraph.KindEnum:
		return typeExpr(&typegraph.Descriptor{Kind: typegraph.KindPrimitive, Primitive: desc.EnumKind})
	case typegraph.KindUnion:
		return jen.Interface()
	case typegraph.KindObject:
		if len(desc.Fields) == 0 {
			return jen.Map(jen.String()).Interface()
		}
		// Object children are hoisted into the definition table during
		// resolution; an inline object here is an open map fallback.
		return jen.Map(jen.String()).Interface()
	case typegraph.KindPrimitive:
		switch desc.Primitive {
		case typegraph.PrimitiveString:
			return jen.String()
		case typegraph.PrimitiveInteger:
			return jen.Int64()
		case typegraph.PrimitiveNumber:
			return jen.Float64()
		case typegraph.PrimitiveBool:
			return jen.Bool()
		default:
			return jen.Interface()
		}
	}
	return jen.Interface()
}

// pointerEligible reports whether an optional field should be emitted as a
// pointer. Slices, maps and interface-typed fields already distinguish
// absence through their zero value.
func pointerEligible(desc *typegraph.Descriptor) bool {
	if desc == nil {
		return false
	}
	switch desc.Kind {
	case typegraph.KindArray, typegraph.KindUnion:
		return false
	case typegraph.KindObject:
		return false
	case typegraph.KindPrimitive:
		return desc.Primitive != typegraph.PrimitiveAny && desc.Primitive != typegraph.PrimitiveNull
	}
	return true
}

func fieldName(name string) string {
	camel := strcase.ToCamel(name)
	if camel == "" {
		return "Field"
	}
	return camel
}
