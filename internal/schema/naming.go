package schema

import (
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
)

// structuralSegments are pointer segments that carry no naming information;
// they are dropped when deriving a name from a location.
var structuralSegments = map[string]struct{}{
	"definitions":          {},
	"$defs":                {},
	"properties":           {},
	"patternProperties":    {},
	"items":                {},
	"additionalItems":      {},
	"additionalProperties": {},
	"allOf":                {},
	"anyOf":                {},
	"oneOf":                {},
	"not":                  {},
}

// nameForLocation derives a deterministic identifier from a JSON-pointer
// location. A definitions entry keeps its own key ("/definitions/Node" →
// "Node"); an anonymous sub-schema joins its meaningful ancestor segments
// under the root name ("/properties/customer" → <root>Customer). The same
// document always yields the same name for a location.
func nameForLocation(rootName, location string) string {
	if location == "" {
		return rootName
	}

	segments := strings.Split(strings.TrimPrefix(location, "/"), "/")
	named := false // saw a definitions/$defs container
	var parts []string
	for i, seg := range segments {
		seg = unescapeSegment(seg)
		if _, structural := structuralSegments[seg]; structural {
			if (seg == "definitions" || seg == "$defs") && i == 0 {
				named = true
			}
			continue
		}
		if _, err := strconv.Atoi(seg); err == nil {
			// Array index, e.g. a combinator branch. Keep the digits so
			// sibling branches stay distinct.
			parts = append(parts, seg)
			continue
		}
		parts = append(parts, strcase.ToCamel(seg))
	}

	if len(parts) == 0 {
		return rootName
	}
	joined := strings.Join(parts, "")
	if named {
		return joined
	}
	return rootName + joined
}

func unescapeSegment(seg string) string {
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}
