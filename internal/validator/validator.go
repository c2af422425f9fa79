// Package validator re-checks instance documents against a resolved type
// descriptor, using the same constraint set the mapper attached. It also
// validates schema documents themselves against Draft-07.
package validator

import (
	"bytes"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/griffnb/schemagen/internal/document"
	"github.com/griffnb/schemagen/internal/typegraph"
)

// Issue codes.
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeUnknownKey    = "unknown_key"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	CodeNotMultiple   = "not_multiple"
	CodeNotUnique     = "not_unique"
	CodeUnionMismatch = "union_mismatch"
)

// Issue is one validation finding, located by JSON pointer.
type Issue struct {
	Path    string
	Code    string
	Message string
}

// Result collects the findings of one validation run.
type Result struct {
	Issues []Issue
}

// Valid reports whether no issue was found.
func (r *Result) Valid() bool { return len(r.Issues) == 0 }

func (r *Result) add(path, code, format string, v ...interface{}) {
	r.Issues = append(r.Issues, Issue{Path: path, Code: code, Message: fmt.Sprintf(format, v...)})
}

// Service validates decoded instance values against a type graph.
type Service struct {
	graph *typegraph.Graph

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// New creates a validator over a resolved graph.
func New(graph *typegraph.Graph) *Service {
	return &Service{graph: graph, patterns: make(map[string]*regexp.Regexp)}
}

// Validate checks an instance value against the graph's root descriptor.
func (s *Service) Validate(value interface{}) *Result {
	return s.ValidateDescriptor(s.graph.Root, value)
}

// ValidateDescriptor checks an instance value against one descriptor.
func (s *Service) ValidateDescriptor(desc *typegraph.Descriptor, value interface{}) *Result {
	result := &Result{}
	s.walk(desc, value, "", result)
	return result
}

func (s *Service) walk(desc *typegraph.Descriptor, value interface{}, path string, result *Result) {
	if desc == nil {
		return
	}
	// The nullable marker may sit on the ref itself, so check it before
	// following the indirection.
	if value == nil && desc.Nullable {
		return
	}
	desc = s.graph.Deref(desc)
	if desc == nil {
		return
	}
	if value == nil && desc.Nullable {
		return
	}

	switch desc.Kind {
	case typegraph.KindPrimitive:
		s.walkPrimitive(desc, value, path, result)
	case typegraph.KindEnum:
		for _, literal := range desc.Enum {
			if reflect.DeepEqual(literal, value) {
				return
			}
		}
		result.add(path, CodeInvalidEnum, "value %v is not one of the allowed literals", value)
	case typegraph.KindObject:
		s.walkObject(desc, value, path, result)
	case typegraph.KindArray:
		s.walkArray(desc, value, path, result)
	case typegraph.KindUnion:
		for _, branch := range desc.Branches {
			probe := &Result{}
			s.walk(branch, value, path, probe)
			if probe.Valid() {
				return
			}
		}
		result.add(path, CodeUnionMismatch, "value matches none of %d alternatives", len(desc.Branches))
	case typegraph.KindRef:
		// Deref left the ref in place: a pure self-referential name. Any
		// finite value satisfies it.
	}
}

func (s *Service) walkPrimitive(desc *typegraph.Descriptor, value interface{}, path string, result *Result) {
	c := desc.Constraints
	switch desc.Primitive {
	case typegraph.PrimitiveAny:
		return
	case typegraph.PrimitiveNull:
		if value != nil {
			result.add(path, CodeInvalidType, "expected null, got %s", document.KindOf(value))
		}
	case typegraph.PrimitiveBool:
		if _, ok := value.(bool); !ok {
			result.add(path, CodeInvalidType, "expected boolean, got %s", document.KindOf(value))
		}
	case typegraph.PrimitiveString:
		str, ok := value.(string)
		if !ok {
			result.add(path, CodeInvalidType, "expected string, got %s", document.KindOf(value))
			return
		}
		length := int64(len([]rune(str)))
		if c.MinLength != nil && length < *c.MinLength {
			result.add(path, CodeTooShort, "length %d is below minLength %d", length, *c.MinLength)
		}
		if c.MaxLength != nil && length > *c.MaxLength {
			result.add(path, CodeTooLong, "length %d exceeds maxLength %d", length, *c.MaxLength)
		}
		if c.Pattern != "" {
			if re := s.pattern(c.Pattern); re != nil && !re.MatchString(str) {
				result.add(path, CodePattern, "value does not match pattern %q", c.Pattern)
			}
		}
		if c.Format != "" && !matchesFormat(c.Format, str) {
			result.add(path, CodeInvalidFormat, "value is not a valid %s", c.Format)
		}
	case typegraph.PrimitiveInteger, typegraph.PrimitiveNumber:
		num, ok := value.(float64)
		if !ok {
			result.add(path, CodeInvalidType, "expected %s, got %s", desc.Primitive, document.KindOf(value))
			return
		}
		if desc.Primitive == typegraph.PrimitiveInteger && num != math.Trunc(num) {
			result.add(path, CodeInvalidType, "expected integer, got %v", num)
			return
		}
		if c.Minimum != nil {
			if num < *c.Minimum || (c.ExclusiveMinimum && num == *c.Minimum) {
				result.add(path, CodeTooSmall, "value %v is below minimum %v", num, *c.Minimum)
			}
		}
		if c.Maximum != nil {
			if num > *c.Maximum || (c.ExclusiveMaximum && num == *c.Maximum) {
				result.add(path, CodeTooBig, "value %v exceeds maximum %v", num, *c.Maximum)
			}
		}
		if c.MultipleOf != nil && *c.MultipleOf != 0 {
			if ratio := num / *c.MultipleOf; ratio != math.Trunc(ratio) {
				result.add(path, CodeNotMultiple, "value %v is not a multiple of %v", num, *c.MultipleOf)
			}
		}
	}
}

func (s *Service) walkObject(desc *typegraph.Descriptor, value interface{}, path string, result *Result) {
	obj, ok := value.(map[string]interface{})
	if !ok {
		result.add(path, CodeInvalidType, "expected object, got %s", document.KindOf(value))
		return
	}

	known := make(map[string]bool, len(desc.Fields))
	for _, field := range desc.Fields {
		known[field.Name] = true
		fieldValue, present := obj[field.Name]
		if !present {
			if field.Required {
				result.add(path+"/"+field.Name, CodeRequired, "required property is missing")
			}
			continue
		}
		s.walk(field.Type, fieldValue, path+"/"+field.Name, result)
	}

	if !desc.Open {
		for key := range obj {
			if !known[key] {
				result.add(path+"/"+key, CodeUnknownKey, "property is not allowed")
			}
		}
	}
}

func (s *Service) walkArray(desc *typegraph.Descriptor, value interface{}, path string, result *Result) {
	arr, ok := value.([]interface{})
	if !ok {
		result.add(path, CodeInvalidType, "expected array, got %s", document.KindOf(value))
		return
	}

	c := desc.Constraints
	length := int64(len(arr))
	if c.MinItems != nil && length < *c.MinItems {
		result.add(path, CodeTooShort, "array has %d items, below minItems %d", length, *c.MinItems)
	}
	if c.MaxItems != nil && length > *c.MaxItems {
		result.add(path, CodeTooLong, "array has %d items, above maxItems %d", length, *c.MaxItems)
	}
	if c.UniqueItems {
		for i := 0; i < len(arr); i++ {
			for j := i + 1; j < len(arr); j++ {
				if reflect.DeepEqual(arr[i], arr[j]) {
					result.add(fmt.Sprintf("%s/%d", path, j), CodeNotUnique, "duplicate item")
				}
			}
		}
	}
	if desc.Elem != nil {
		for i, item := range arr {
			s.walk(desc.Elem, item, fmt.Sprintf("%s/%d", path, i), result)
		}
	}
}

func (s *Service) pattern(expr string) *regexp.Regexp {
	s.mu.Lock()
	defer s.mu.Unlock()
	if re, ok := s.patterns[expr]; ok {
		return re
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	s.patterns[expr] = re
	return re
}

var (
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	uuidRe     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	hostnameRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
)

// matchesFormat checks the formats the sample generator also knows about.
// Unrecognized formats pass, matching draft semantics.
func matchesFormat(format, value string) bool {
	switch format {
	case "email":
		return emailRe.MatchString(value)
	case "uuid":
		return uuidRe.MatchString(value)
	case "date-time":
		_, err := time.Parse(time.RFC3339, value)
		return err == nil
	case "date":
		_, err := time.Parse("2006-01-02", value)
		return err == nil
	case "uri":
		u, err := url.Parse(value)
		return err == nil && u.Scheme != ""
	case "hostname":
		return hostnameRe.MatchString(value)
	default:
		return true
	}
}

// ValidateSchema checks that raw bytes are a well-formed Draft-07 schema by
// compiling them. The URI names the resource in diagnostics and lets the
// compiler resolve relative refs.
func ValidateSchema(data []byte, uri string) error {
	if uri == "" {
		uri = "schema.json"
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(uri, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("invalid schema document: %w", err)
	}
	if _, err := compiler.Compile(uri); err != nil {
		return fmt.Errorf("invalid schema document: %w", err)
	}
	return nil
}
