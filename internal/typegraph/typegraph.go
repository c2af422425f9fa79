// Package typegraph defines the canonical type model produced by schema
// resolution. Descriptors form a graph, not a tree: cycles are only legal
// through NamedRef indirection into the definition table, never as inline
// recursion.
package typegraph

import (
	"fmt"
	"sort"
)

// Kind tags the variant carried by a Descriptor.
type Kind int

const (
	// KindPrimitive is a scalar type with optional constraints.
	KindPrimitive Kind = iota
	// KindObject is a set of named fields.
	KindObject
	// KindArray is a homogeneous list.
	KindArray
	// KindEnum is a closed literal set.
	KindEnum
	// KindUnion is an ordered list of alternative branches.
	KindUnion
	// KindRef is an indirection into the graph's definition table.
	KindRef
)

// String returns a readable tag name.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindEnum:
		return "enum"
	case KindUnion:
		return "union"
	case KindRef:
		return "ref"
	}
	return "unknown"
}

// Primitive identifies a scalar kind.
type Primitive string

const (
	PrimitiveString  Primitive = "string"
	PrimitiveInteger Primitive = "integer"
	PrimitiveNumber  Primitive = "number"
	PrimitiveBool    Primitive = "boolean"
	PrimitiveNull    Primitive = "null"
	// PrimitiveAny is the open primitive a fully empty schema maps to.
	PrimitiveAny Primitive = "any"
)

// Constraints carries the validation keywords the mapper attached to a
// descriptor. Pointer fields distinguish "absent" from zero values.
type Constraints struct {
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64

	MinLength *int64
	MaxLength *int64
	Pattern   string
	Format    string

	MinItems    *int64
	MaxItems    *int64
	UniqueItems bool
}

// Empty reports whether no constraint is set.
func (c Constraints) Empty() bool {
	return c.Minimum == nil && c.Maximum == nil && !c.ExclusiveMinimum &&
		!c.ExclusiveMaximum && c.MultipleOf == nil && c.MinLength == nil &&
		c.MaxLength == nil && c.Pattern == "" && c.Format == "" &&
		c.MinItems == nil && c.MaxItems == nil && !c.UniqueItems
}

// Field is one named member of an object type.
type Field struct {
	Name     string
	Type     *Descriptor
	Required bool
}

// Descriptor is the canonical output unit of resolution, a tagged variant
// over primitive, object, array, enum, union and named-reference shapes.
type Descriptor struct {
	Kind        Kind
	Title       string
	Description string
	Default     interface{}

	// Nullable marks an optional value collapsed from a [T, null] union.
	Nullable bool

	// Primitive payload.
	Primitive   Primitive
	Constraints Constraints

	// Object payload. Fields are sorted by name; Open reports whether
	// additionalProperties are allowed.
	Fields []Field
	Open   bool

	// Array payload.
	Elem *Descriptor

	// Enum payload. EnumKind is the shared scalar kind of the literals.
	Enum     []interface{}
	EnumKind Primitive

	// Union payload. Branch order is the schema's declaration order and is
	// the stable discriminant fallback when Discriminator is empty.
	Branches      []*Descriptor
	Discriminator string

	// Ref payload: a key into the graph's definition table.
	Ref string
}

// Field returns the named object field, if present.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// IsAny reports whether the descriptor is the open "any" primitive.
func (d *Descriptor) IsAny() bool {
	return d.Kind == KindPrimitive && d.Primitive == PrimitiveAny
}

// Graph is the resolved output of one processing pass: the definition table
// keyed by synthesized name, plus the root descriptor. Immutable once built.
type Graph struct {
	RootName    string
	Root        *Descriptor
	Definitions map[string]*Descriptor
}

// Names returns the definition names in sorted order.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.Definitions))
	for name := range g.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve follows one level of NamedRef indirection.
func (g *Graph) Resolve(name string) (*Descriptor, bool) {
	d, ok := g.Definitions[name]
	return d, ok
}

// Deref follows NamedRef chains until a concrete descriptor is reached.
// Pure NamedRef cycles (a ref that ultimately names itself) yield the last
// ref descriptor rather than looping.
func (g *Graph) Deref(d *Descriptor) *Descriptor {
	seen := make(map[string]bool)
	for d != nil && d.Kind == KindRef {
		if seen[d.Ref] {
			return d
		}
		seen[d.Ref] = true
		next, ok := g.Definitions[d.Ref]
		if !ok {
			return d
		}
		d = next
	}
	return d
}

// Verify checks the graph invariant: every NamedRef reachable from the root
// or any definition resolves to a key present in the definition table.
func (g *Graph) Verify() error {
	seen := make(map[*Descriptor]bool)
	var walk func(d *Descriptor) error
	walk = func(d *Descriptor) error {
		if d == nil || seen[d] {
			return nil
		}
		seen[d] = true
		switch d.Kind {
		case KindRef:
			if _, ok := g.Definitions[d.Ref]; !ok {
				return fmt.Errorf("dangling type reference %q", d.Ref)
			}
		case KindObject:
			for _, f := range d.Fields {
				if err := walk(f.Type); err != nil {
					return err
				}
			}
		case KindArray:
			if err := walk(d.Elem); err != nil {
				return err
			}
		case KindUnion:
			for _, b := range d.Branches {
				if err := walk(b); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, name := range g.Names() {
		if err := walk(g.Definitions[name]); err != nil {
			return err
		}
	}
	return walk(g.Root)
}
