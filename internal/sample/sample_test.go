package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffnb/schemagen/internal/typegraph"
	"github.com/griffnb/schemagen/internal/validator"
)

func intPtr(n int64) *int64       { return &n }
func floatPtr(f float64) *float64 { return &f }

func orderGraph() *typegraph.Graph {
	order := &typegraph.Descriptor{
		Kind: typegraph.KindObject,
		Open: false,
		Fields: []typegraph.Field{
			{Name: "id", Required: true, Type: &typegraph.Descriptor{
				Kind:        typegraph.KindPrimitive,
				Primitive:   typegraph.PrimitiveString,
				Constraints: typegraph.Constraints{Format: "uuid"},
			}},
			{Name: "quantity", Required: true, Type: &typegraph.Descriptor{
				Kind:        typegraph.KindPrimitive,
				Primitive:   typegraph.PrimitiveInteger,
				Constraints: typegraph.Constraints{Minimum: floatPtr(1), Maximum: floatPtr(10)},
			}},
			{Name: "status", Type: &typegraph.Descriptor{
				Kind:     typegraph.KindEnum,
				Enum:     []interface{}{"open", "shipped", "closed"},
				EnumKind: typegraph.PrimitiveString,
			}},
			{Name: "tags", Type: &typegraph.Descriptor{
				Kind:        typegraph.KindArray,
				Elem:        &typegraph.Descriptor{Kind: typegraph.KindPrimitive, Primitive: typegraph.PrimitiveString},
				Constraints: typegraph.Constraints{MinItems: intPtr(1), MaxItems: intPtr(3)},
			}},
		},
	}
	return &typegraph.Graph{
		RootName:    "Order",
		Root:        &typegraph.Descriptor{Kind: typegraph.KindRef, Ref: "Order"},
		Definitions: map[string]*typegraph.Descriptor{"Order": order},
	}
}

// ============================================================================
// Test Generate - Samples conform to their own graph
// ============================================================================

func TestGenerate_ConformsToGraph(t *testing.T) {
	// Every generated sample passes the validator for the same graph
	g := orderGraph()
	gen := New(g, WithSeed(1))
	check := validator.New(g)

	for i := 0; i < 50; i++ {
		instance := gen.Generate()
		result := check.Validate(instance)
		require.True(t, result.Valid(), "sample %d: %+v issues %+v", i, instance, result.Issues)
	}
}

func TestGenerate_RequiredFieldsAlwaysPresent(t *testing.T) {
	gen := New(orderGraph(), WithSeed(7))

	for i := 0; i < 20; i++ {
		obj, ok := gen.Generate().(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, obj, "id")
		assert.Contains(t, obj, "quantity")
	}
}

func TestGenerate_Reproducible(t *testing.T) {
	// The same seed yields the same sequence
	first := New(orderGraph(), WithSeed(42)).GenerateN(5)
	second := New(orderGraph(), WithSeed(42)).GenerateN(5)
	assert.Equal(t, first, second)
}

func TestGenerate_EnumPicksFromLiterals(t *testing.T) {
	desc := &typegraph.Descriptor{
		Kind:     typegraph.KindEnum,
		Enum:     []interface{}{"a", "b"},
		EnumKind: typegraph.PrimitiveString,
	}
	g := &typegraph.Graph{Root: desc, Definitions: map[string]*typegraph.Descriptor{}}
	gen := New(g, WithSeed(3))

	for i := 0; i < 10; i++ {
		assert.Contains(t, []interface{}{"a", "b"}, gen.Generate())
	}
}

func TestGenerate_RecursiveGraphTerminates(t *testing.T) {
	// A self-referential type bottoms out at the depth budget
	node := &typegraph.Descriptor{
		Kind: typegraph.KindObject,
		Open: true,
		Fields: []typegraph.Field{
			{Name: "next", Required: true, Type: &typegraph.Descriptor{
				Kind: typegraph.KindRef, Ref: "Node", Nullable: true,
			}},
		},
	}
	g := &typegraph.Graph{
		Root:        &typegraph.Descriptor{Kind: typegraph.KindRef, Ref: "Node"},
		Definitions: map[string]*typegraph.Descriptor{"Node": node},
	}

	gen := New(g, WithSeed(1), WithMaxDepth(4))
	instance := gen.Generate()

	depth := 0
	for obj, ok := instance.(map[string]interface{}); ok; obj, ok = obj["next"].(map[string]interface{}) {
		depth++
		require.LessOrEqual(t, depth, 5)
		instance = obj["next"]
	}
}

func TestGenerate_StringFormats(t *testing.T) {
	g := &typegraph.Graph{
		Root: &typegraph.Descriptor{
			Kind:        typegraph.KindPrimitive,
			Primitive:   typegraph.PrimitiveString,
			Constraints: typegraph.Constraints{Format: "email"},
		},
		Definitions: map[string]*typegraph.Descriptor{},
	}
	gen := New(g, WithSeed(2))

	s, ok := gen.Generate().(string)
	require.True(t, ok)
	assert.Contains(t, s, "@")
}

func TestGenerate_StringLengthBounds(t *testing.T) {
	g := &typegraph.Graph{
		Root: &typegraph.Descriptor{
			Kind:      typegraph.KindPrimitive,
			Primitive: typegraph.PrimitiveString,
			Constraints: typegraph.Constraints{
				MinLength: intPtr(10),
				MaxLength: intPtr(12),
			},
		},
		Definitions: map[string]*typegraph.Descriptor{},
	}
	gen := New(g, WithSeed(2))

	for i := 0; i < 10; i++ {
		s, ok := gen.Generate().(string)
		require.True(t, ok)
		assert.GreaterOrEqual(t, len(s), 10)
		assert.LessOrEqual(t, len(s), 12)
	}
}
