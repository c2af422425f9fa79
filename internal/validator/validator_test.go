package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffnb/schemagen/internal/typegraph"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(n int64) *int64       { return &n }

func personGraph() *typegraph.Graph {
	person := &typegraph.Descriptor{
		Kind: typegraph.KindObject,
		Fields: []typegraph.Field{
			{Name: "age", Type: &typegraph.Descriptor{
				Kind:        typegraph.KindPrimitive,
				Primitive:   typegraph.PrimitiveInteger,
				Constraints: typegraph.Constraints{Minimum: floatPtr(0), Maximum: floatPtr(150)},
			}},
			{Name: "name", Required: true, Type: &typegraph.Descriptor{
				Kind:        typegraph.KindPrimitive,
				Primitive:   typegraph.PrimitiveString,
				Constraints: typegraph.Constraints{MinLength: intPtr(1)},
			}},
		},
		Open: false,
	}
	return &typegraph.Graph{
		RootName:    "Person",
		Root:        &typegraph.Descriptor{Kind: typegraph.KindRef, Ref: "Person"},
		Definitions: map[string]*typegraph.Descriptor{"Person": person},
	}
}

// ============================================================================
// Test Validate - Instance checking against a resolved graph
// ============================================================================

func TestValidate_ValidInstance(t *testing.T) {
	result := New(personGraph()).Validate(map[string]interface{}{
		"name": "Ada",
		"age":  float64(36),
	})
	assert.True(t, result.Valid())
}

func TestValidate_MissingRequired(t *testing.T) {
	// A missing required property is located by pointer
	result := New(personGraph()).Validate(map[string]interface{}{
		"age": float64(36),
	})
	require.False(t, result.Valid())
	assert.Equal(t, CodeRequired, result.Issues[0].Code)
	assert.Equal(t, "/name", result.Issues[0].Path)
}

func TestValidate_UnknownKeyOnClosedObject(t *testing.T) {
	result := New(personGraph()).Validate(map[string]interface{}{
		"name":  "Ada",
		"extra": true,
	})
	require.False(t, result.Valid())

	var codes []string
	for _, issue := range result.Issues {
		codes = append(codes, issue.Code)
	}
	assert.Contains(t, codes, CodeUnknownKey)
}

func TestValidate_TypeMismatch(t *testing.T) {
	result := New(personGraph()).Validate(map[string]interface{}{
		"name": float64(1),
	})
	require.False(t, result.Valid())
	assert.Equal(t, CodeInvalidType, result.Issues[0].Code)
}

func TestValidate_NumericBounds(t *testing.T) {
	result := New(personGraph()).Validate(map[string]interface{}{
		"name": "Ada",
		"age":  float64(200),
	})
	require.False(t, result.Valid())
	assert.Equal(t, CodeTooBig, result.Issues[0].Code)
}

func TestValidate_IntegerRejectsFraction(t *testing.T) {
	result := New(personGraph()).Validate(map[string]interface{}{
		"name": "Ada",
		"age":  float64(36.5),
	})
	require.False(t, result.Valid())
	assert.Equal(t, CodeInvalidType, result.Issues[0].Code)
}

func TestValidate_NullableAcceptsNull(t *testing.T) {
	desc := &typegraph.Descriptor{
		Kind:      typegraph.KindPrimitive,
		Primitive: typegraph.PrimitiveString,
		Nullable:  true,
	}
	g := &typegraph.Graph{Root: desc, Definitions: map[string]*typegraph.Descriptor{}}

	assert.True(t, New(g).Validate(nil).Valid())
	assert.True(t, New(g).Validate("x").Valid())
	assert.False(t, New(g).Validate(float64(1)).Valid())
}

func TestValidate_Enum(t *testing.T) {
	desc := &typegraph.Descriptor{
		Kind:     typegraph.KindEnum,
		Enum:     []interface{}{"red", "green"},
		EnumKind: typegraph.PrimitiveString,
	}
	g := &typegraph.Graph{Root: desc, Definitions: map[string]*typegraph.Descriptor{}}

	assert.True(t, New(g).Validate("red").Valid())
	result := New(g).Validate("blue")
	require.False(t, result.Valid())
	assert.Equal(t, CodeInvalidEnum, result.Issues[0].Code)
}

func TestValidate_ArrayConstraints(t *testing.T) {
	desc := &typegraph.Descriptor{
		Kind: typegraph.KindArray,
		Elem: &typegraph.Descriptor{Kind: typegraph.KindPrimitive, Primitive: typegraph.PrimitiveInteger},
		Constraints: typegraph.Constraints{
			MinItems:    intPtr(1),
			UniqueItems: true,
		},
	}
	g := &typegraph.Graph{Root: desc, Definitions: map[string]*typegraph.Descriptor{}}

	assert.True(t, New(g).Validate([]interface{}{float64(1), float64(2)}).Valid())

	result := New(g).Validate([]interface{}{})
	require.False(t, result.Valid())
	assert.Equal(t, CodeTooShort, result.Issues[0].Code)

	result = New(g).Validate([]interface{}{float64(1), float64(1)})
	require.False(t, result.Valid())
	assert.Equal(t, CodeNotUnique, result.Issues[0].Code)
}

func TestValidate_UnionAnyBranch(t *testing.T) {
	desc := &typegraph.Descriptor{
		Kind: typegraph.KindUnion,
		Branches: []*typegraph.Descriptor{
			{Kind: typegraph.KindPrimitive, Primitive: typegraph.PrimitiveString},
			{Kind: typegraph.KindPrimitive, Primitive: typegraph.PrimitiveInteger},
		},
	}
	g := &typegraph.Graph{Root: desc, Definitions: map[string]*typegraph.Descriptor{}}

	assert.True(t, New(g).Validate("x").Valid())
	assert.True(t, New(g).Validate(float64(3)).Valid())

	result := New(g).Validate(true)
	require.False(t, result.Valid())
	assert.Equal(t, CodeUnionMismatch, result.Issues[0].Code)
}

func TestValidate_PatternAndFormat(t *testing.T) {
	desc := &typegraph.Descriptor{
		Kind:        typegraph.KindPrimitive,
		Primitive:   typegraph.PrimitiveString,
		Constraints: typegraph.Constraints{Pattern: "^[a-z]+$", Format: "email"},
	}
	g := &typegraph.Graph{Root: desc, Definitions: map[string]*typegraph.Descriptor{}}

	result := New(g).Validate("NOPE")
	require.False(t, result.Valid())

	var codes []string
	for _, issue := range result.Issues {
		codes = append(codes, issue.Code)
	}
	assert.Contains(t, codes, CodePattern)
	assert.Contains(t, codes, CodeInvalidFormat)
}

func TestValidate_RecursiveGraph(t *testing.T) {
	// Named refs follow through the definition table
	node := &typegraph.Descriptor{
		Kind: typegraph.KindObject,
		Open: true,
		Fields: []typegraph.Field{
			{Name: "next", Type: &typegraph.Descriptor{Kind: typegraph.KindRef, Ref: "Node", Nullable: true}},
			{Name: "value", Required: true, Type: &typegraph.Descriptor{
				Kind: typegraph.KindPrimitive, Primitive: typegraph.PrimitiveString,
			}},
		},
	}
	g := &typegraph.Graph{
		Root:        &typegraph.Descriptor{Kind: typegraph.KindRef, Ref: "Node"},
		Definitions: map[string]*typegraph.Descriptor{"Node": node},
	}

	valid := map[string]interface{}{
		"value": "a",
		"next":  map[string]interface{}{"value": "b"},
	}
	assert.True(t, New(g).Validate(valid).Valid())

	invalid := map[string]interface{}{
		"value": "a",
		"next":  map[string]interface{}{},
	}
	assert.False(t, New(g).Validate(invalid).Valid())
}

// ============================================================================
// Test matchesFormat
// ============================================================================

func TestMatchesFormat(t *testing.T) {
	assert.True(t, matchesFormat("email", "a@b.co"))
	assert.False(t, matchesFormat("email", "nope"))
	assert.True(t, matchesFormat("uuid", "123e4567-e89b-12d3-a456-426614174000"))
	assert.False(t, matchesFormat("uuid", "123"))
	assert.True(t, matchesFormat("date-time", "2026-08-26T10:00:00Z"))
	assert.False(t, matchesFormat("date-time", "2026-08-26"))
	assert.True(t, matchesFormat("date", "2026-08-26"))
	assert.True(t, matchesFormat("uri", "https://example.com/x"))
	assert.False(t, matchesFormat("uri", "not a uri"))
	assert.True(t, matchesFormat("custom-format", "anything"))
}

// ============================================================================
// Test ValidateSchema - Draft-07 self check
// ============================================================================

func TestValidateSchema_Valid(t *testing.T) {
	err := ValidateSchema([]byte(`{
		"type": "object",
		"properties": {"a": {"type": "string"}}
	}`), "schema.json")
	assert.NoError(t, err)
}

func TestValidateSchema_InvalidKeywordValue(t *testing.T) {
	// type must be a known type name
	err := ValidateSchema([]byte(`{"type": "not-a-type"}`), "schema.json")
	assert.Error(t, err)
}
