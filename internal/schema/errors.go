package schema

import "fmt"

// BrokenReferenceError reports a $ref whose target is missing or cannot be
// traversed, e.g. a pointer segment addressing into a scalar.
type BrokenReferenceError struct {
	Ref      string // the $ref string as written
	Location string // JSON pointer of the referencing site
	Reason   string
}

func (e *BrokenReferenceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("broken reference %q at %s: %s", e.Ref, e.Location, e.Reason)
	}
	return fmt.Sprintf("broken reference %q at %s", e.Ref, e.Location)
}

// UnresolvableExternalReferenceError reports an external $ref that could not
// be loaded, either because no loader was supplied or because the loader
// itself failed.
type UnresolvableExternalReferenceError struct {
	Ref      string
	URI      string // normalized document URI
	Location string
	Err      error // nil when no loader was configured
}

func (e *UnresolvableExternalReferenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("external reference %q at %s: no document loader configured", e.Ref, e.Location)
	}
	return fmt.Sprintf("external reference %q at %s: loading %q: %v", e.Ref, e.Location, e.URI, e.Err)
}

func (e *UnresolvableExternalReferenceError) Unwrap() error { return e.Err }

// SchemaConflictError reports two allOf members asserting incompatible values
// for a single-valued constraint. Both contributing locations are named so
// the conflict can be traced in the source document.
type SchemaConflictError struct {
	Keyword   string
	Locations [2]string
	Values    [2]interface{}
}

func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("conflicting %q in allOf: %v at %s vs %v at %s",
		e.Keyword, e.Values[0], e.Locations[0], e.Values[1], e.Locations[1])
}

// AmbiguousEnumTypeError reports an enum whose literals span incompatible
// JSON value kinds, e.g. mixing strings and objects.
type AmbiguousEnumTypeError struct {
	Location string
	Kinds    []string
}

func (e *AmbiguousEnumTypeError) Error() string {
	return fmt.Sprintf("enum at %s mixes incompatible literal kinds %v", e.Location, e.Kinds)
}
