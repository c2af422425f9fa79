package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffnb/schemagen/internal/document"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ============================================================================
// Test Load - Fetching and caching
// ============================================================================

func TestLoad_JSONFile(t *testing.T) {
	// A plain path loads and decodes
	path := writeTemp(t, "schema.json", `{"type": "object"}`)

	svc := NewService()
	doc, err := svc.Load(path)
	require.NoError(t, err)
	assert.Equal(t, document.KindObject, doc.Root().Kind())
}

func TestLoad_YAMLConverted(t *testing.T) {
	// YAML documents decode through the JSON value model
	path := writeTemp(t, "schema.yaml", "type: object\nproperties:\n  name:\n    type: string\n")

	svc := NewService()
	doc, err := svc.Load(path)
	require.NoError(t, err)

	props, ok := doc.Root().Child("properties")
	require.True(t, ok)
	_, ok = props.Child("name")
	assert.True(t, ok)
}

func TestLoad_Cached(t *testing.T) {
	// A second load of the same URI returns the identical tree
	path := writeTemp(t, "schema.json", `{"type": "string"}`)

	svc := NewService()
	first, err := svc.Load(path)
	require.NoError(t, err)
	second, err := svc.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoad_RelativeAgainstBase(t *testing.T) {
	// Relative URIs resolve against the configured base
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.json"), []byte(`{"type": "integer"}`), 0o644))

	svc := NewService(WithBase("file://" + filepath.ToSlash(dir) + "/"))
	doc, err := svc.Load("common.json")
	require.NoError(t, err)
	assert.Equal(t, document.KindObject, doc.Root().Kind())
}

func TestLoad_HTTPDisabledByDefault(t *testing.T) {
	// Network fetches require explicit opt-in
	svc := NewService()
	_, err := svc.Load("https://example.com/schema.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	svc := NewService()
	_, err := svc.Load("ftp://example.com/schema.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported URI scheme")
}

func TestLoad_MissingFile(t *testing.T) {
	svc := NewService()
	_, err := svc.Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

// ============================================================================
// Test LoadFile and Prefetch
// ============================================================================

func TestLoadFile_AssignsFileURI(t *testing.T) {
	// LoadFile stamps the document with an absolute file URI
	path := writeTemp(t, "schema.json", `{"type": "object"}`)

	svc := NewService()
	doc, err := svc.LoadFile(path)
	require.NoError(t, err)
	assert.Contains(t, doc.URI, "file://")
	assert.Contains(t, doc.URI, "schema.json")
}

func TestPrefetch_PopulatesCache(t *testing.T) {
	// Prefetched documents come back from the cache afterwards
	a := writeTemp(t, "a.json", `{"type": "string"}`)
	b := writeTemp(t, "b.json", `{"type": "integer"}`)

	svc := NewService()
	require.NoError(t, svc.Prefetch([]string{a, b}))

	docA, err := svc.Load(a)
	require.NoError(t, err)
	docB, err := svc.Load(b)
	require.NoError(t, err)
	assert.NotSame(t, docA, docB)
}

func TestPrefetch_PropagatesFailure(t *testing.T) {
	a := writeTemp(t, "a.json", `{"type": "string"}`)
	missing := filepath.Join(t.TempDir(), "absent.json")

	svc := NewService()
	assert.Error(t, svc.Prefetch([]string{a, missing}))
}
