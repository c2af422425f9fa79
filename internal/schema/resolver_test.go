package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffnb/schemagen/internal/document"
	"github.com/griffnb/schemagen/internal/typegraph"
)

// stubLoader serves documents from memory, keyed by normalized URI, and
// records every load so tests can assert caching behavior.
type stubLoader struct {
	docs  map[string]string
	loads []string
}

func (s *stubLoader) Load(uri string) (*document.Document, error) {
	s.loads = append(s.loads, uri)
	source, ok := s.docs[uri]
	if !ok {
		return nil, fmt.Errorf("no such document %s", uri)
	}
	return document.Decode(uri, []byte(source))
}

// ============================================================================
// Test resolve - External document resolution
// ============================================================================

func TestProcess_ExternalRef(t *testing.T) {
	// An external ref materializes the target under the foreign document's name
	loader := &stubLoader{docs: map[string]string{
		"https://example.com/schemas/address.json": `{
			"definitions": {
				"Address": {"type": "object", "properties": {"city": {"type": "string"}}}
			}
		}`,
	}}

	graph := mustProcess(t, `{
		"type": "object",
		"properties": {
			"addr": {"$ref": "https://example.com/schemas/address.json#/definitions/Address"}
		}
	}`, WithLoader(loader))

	assert.Equal(t, []string{"Address", "Root"}, graph.Names())

	addr, ok := graph.Root.Field("addr")
	require.True(t, ok)
	assert.Equal(t, "Address", addr.Type.Ref)

	city, ok := graph.Definitions["Address"].Field("city")
	require.True(t, ok)
	assert.Equal(t, typegraph.PrimitiveString, city.Type.Primitive)
}

func TestProcess_EquivalentURIsLoadOnce(t *testing.T) {
	// Differently spelled but equivalent URIs hit the loader a single time
	loader := &stubLoader{docs: map[string]string{
		"https://example.com/schemas/address.json": `{
			"definitions": {"Address": {"type": "object", "properties": {"city": {"type": "string"}}}}
		}`,
	}}

	graph := mustProcess(t, `{
		"type": "object",
		"properties": {
			"home": {"$ref": "https://example.com/schemas/address.json#/definitions/Address"},
			"work": {"$ref": "https://EXAMPLE.com/schemas/./address.json#/definitions/Address"}
		}
	}`, WithLoader(loader))

	assert.Equal(t, []string{"https://example.com/schemas/address.json"}, loader.loads)

	home, _ := graph.Root.Field("home")
	work, _ := graph.Root.Field("work")
	assert.Equal(t, home.Type.Ref, work.Type.Ref)
}

func TestProcess_RelativeRefAgainstBase(t *testing.T) {
	// Relative refs resolve against the configured base URI
	loader := &stubLoader{docs: map[string]string{
		"https://example.com/schemas/common.json": `{
			"definitions": {"ID": {"type": "string", "format": "uuid"}}
		}`,
	}}

	graph := mustProcess(t, `{
		"type": "object",
		"properties": {"id": {"$ref": "common.json#/definitions/ID"}}
	}`,
		WithLoader(loader),
		WithBaseURI("https://example.com/schemas/root.json"),
	)

	assert.Equal(t, []string{"https://example.com/schemas/common.json"}, loader.loads)
	_, ok := graph.Definitions["ID"]
	assert.True(t, ok)
}

func TestProcess_ChainedExternalRefs(t *testing.T) {
	// A foreign document's own relative refs resolve against its URI
	loader := &stubLoader{docs: map[string]string{
		"https://example.com/a.json": `{
			"definitions": {
				"Outer": {"type": "object", "properties": {"inner": {"$ref": "b.json#/definitions/Inner"}}}
			}
		}`,
		"https://example.com/b.json": `{
			"definitions": {"Inner": {"type": "string"}}
		}`,
	}}

	graph := mustProcess(t, `{
		"$ref": "https://example.com/a.json#/definitions/Outer"
	}`, WithLoader(loader))

	require.Contains(t, graph.Definitions, "Outer")
	require.Contains(t, graph.Definitions, "Inner")
	inner, ok := graph.Definitions["Outer"].Field("inner")
	require.True(t, ok)
	assert.Equal(t, "Inner", inner.Type.Ref)
}

func TestProcess_LoaderFailureWrapped(t *testing.T) {
	// A failing loader surfaces through the unresolvable-reference error
	loader := &stubLoader{docs: map[string]string{}}

	_, err := processSource(t, `{
		"$ref": "https://example.com/missing.json#/definitions/X"
	}`, WithLoader(loader))
	require.Error(t, err)

	var unresolvable *UnresolvableExternalReferenceError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, "https://example.com/missing.json", unresolvable.URI)
	assert.Error(t, unresolvable.Err)
}

// ============================================================================
// Test normalizeURIString - URI equivalence
// ============================================================================

func TestNormalizeURIString_Equivalence(t *testing.T) {
	// Scheme and host case, dot segments and fragments all normalize away
	cases := []struct {
		raw  string
		want string
	}{
		{"https://Example.COM/a/./b.json", "https://example.com/a/b.json"},
		{"HTTPS://example.com/a/../b.json", "https://example.com/b.json"},
		{"https://example.com/a.json#/definitions/X", "https://example.com/a.json"},
		{"file:///tmp/schemas/a.json", "file:///tmp/schemas/a.json"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeURIString(tc.raw), "raw=%s", tc.raw)
	}
}
