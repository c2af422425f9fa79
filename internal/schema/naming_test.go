package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Test nameForLocation - Deterministic path-derived names
// ============================================================================

func TestNameForLocation_Root(t *testing.T) {
	// The document root takes the configured root name
	assert.Equal(t, "Config", nameForLocation("Config", ""))
}

func TestNameForLocation_DefinitionsEntry(t *testing.T) {
	// A definitions entry keeps its own key, without the root prefix
	assert.Equal(t, "Address", nameForLocation("Root", "/definitions/Address"))
	assert.Equal(t, "Address", nameForLocation("Root", "/$defs/Address"))
}

func TestNameForLocation_AnonymousProperty(t *testing.T) {
	// Anonymous sub-schemas join their path under the root name
	assert.Equal(t, "RootCustomer", nameForLocation("Root", "/properties/customer"))
	assert.Equal(t, "RootCustomerAddress", nameForLocation("Root", "/properties/customer/properties/address"))
}

func TestNameForLocation_SnakeCaseSegment(t *testing.T) {
	// Property names camel-case into identifiers
	assert.Equal(t, "RootShippingAddress", nameForLocation("Root", "/properties/shipping_address"))
}

func TestNameForLocation_CombinatorBranch(t *testing.T) {
	// Numeric branch indexes keep sibling branches distinct
	assert.Equal(t, "Payment0", nameForLocation("Payment", "/anyOf/0"))
	assert.Equal(t, "Payment1", nameForLocation("Payment", "/anyOf/1"))
	assert.Equal(t, "Card0Details", nameForLocation("Card", "/oneOf/0/properties/details"))
}

func TestNameForLocation_ArrayItems(t *testing.T) {
	// The items segment is structural and contributes nothing
	assert.Equal(t, "RootTags", nameForLocation("Root", "/properties/tags/items"))
}

func TestNameForLocation_DefinitionNested(t *testing.T) {
	// Nesting under a definitions entry extends the entry's own name
	assert.Equal(t, "NodeChildren", nameForLocation("Root", "/definitions/Node/properties/children"))
}

func TestNameForLocation_EscapedSegments(t *testing.T) {
	// Pointer escapes decode before camel-casing
	assert.Equal(t, "RootAB", nameForLocation("Root", "/properties/a~1b"))
}

func TestNameForLocation_OnlyStructuralSegments(t *testing.T) {
	// A path of pure structure falls back to the root name
	assert.Equal(t, "Root", nameForLocation("Root", "/items"))
}
