// Package sample synthesizes instance data conforming to a resolved type
// graph: every generated value respects the constraints the mapper attached
// to its descriptor.
package sample

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/griffnb/schemagen/internal/typegraph"
)

const defaultMaxDepth = 8

// Generator produces synthetic instances for a type graph. Generation is
// reproducible for a fixed seed.
type Generator struct {
	graph    *typegraph.Graph
	rnd      *rand.Rand
	maxDepth int
	now      time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed fixes the random seed for reproducible output.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rnd = rand.New(rand.NewSource(seed))
	}
}

// WithMaxDepth bounds recursion through cyclic NamedRef chains.
func WithMaxDepth(depth int) Option {
	return func(g *Generator) {
		if depth > 0 {
			g.maxDepth = depth
		}
	}
}

// New creates a generator over a resolved graph.
func New(graph *typegraph.Graph, options ...Option) *Generator {
	g := &Generator{
		graph:    graph,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		maxDepth: defaultMaxDepth,
		now:      time.Now().UTC(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Generate synthesizes one instance of the root type.
func (g *Generator) Generate() interface{} {
	return g.value(g.graph.Root, 0)
}

// GenerateN synthesizes several independent instances of the root type.
func (g *Generator) GenerateN(count int) []interface{} {
	samples := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		samples = append(samples, g.Generate())
	}
	return samples
}

// ForDescriptor synthesizes one instance of an arbitrary descriptor.
func (g *Generator) ForDescriptor(desc *typegraph.Descriptor) interface{} {
	return g.value(desc, 0)
}

func (g *Generator) value(desc *typegraph.Descriptor, depth int) interface{} {
	if desc == nil {
		return nil
	}
	if desc.Kind == typegraph.KindRef {
		if depth >= g.maxDepth {
			// Cycle budget exhausted; a null leaf keeps the sample finite.
			return nil
		}
		target, ok := g.graph.Resolve(desc.Ref)
		if !ok {
			return nil
		}
		return g.value(target, depth+1)
	}

	if desc.Default != nil && g.rnd.Intn(2) == 0 {
		return desc.Default
	}

	switch desc.Kind {
	case typegraph.KindPrimitive:
		return g.primitive(desc)
	case typegraph.KindEnum:
		if len(desc.Enum) == 0 {
			return nil
		}
		return desc.Enum[g.rnd.Intn(len(desc.Enum))]
	case typegraph.KindObject:
		obj := make(map[string]interface{}, len(desc.Fields))
		for _, field := range desc.Fields {
			if !field.Required && g.rnd.Intn(3) == 0 {
				continue
			}
			obj[field.Name] = g.value(field.Type, depth+1)
		}
		return obj
	case typegraph.KindArray:
		return g.array(desc, depth)
	case typegraph.KindUnion:
		if len(desc.Branches) == 0 {
			return nil
		}
		return g.value(desc.Branches[g.rnd.Intn(len(desc.Branches))], depth+1)
	}
	return nil
}

func (g *Generator) array(desc *typegraph.Descriptor, depth int) []interface{} {
	c := desc.Constraints
	min := int64(0)
	if c.MinItems != nil {
		min = *c.MinItems
	}
	max := min + 3
	if c.MaxItems != nil && *c.MaxItems >= min {
		max = *c.MaxItems
	}
	count := min
	if max > min {
		count = min + g.rnd.Int63n(max-min+1)
	}
	if count == 0 && c.MinItems == nil {
		count = 1
	}

	items := make([]interface{}, 0, count)
	for i := int64(0); i < count; i++ {
		items = append(items, g.value(desc.Elem, depth+1))
	}
	return items
}

func (g *Generator) primitive(desc *typegraph.Descriptor) interface{} {
	c := desc.Constraints
	switch desc.Primitive {
	case typegraph.PrimitiveString:
		return g.sampleString(c)
	case typegraph.PrimitiveInteger:
		lo, hi := numericRange(c, 0, 100)
		return float64(int64(lo) + g.rnd.Int63n(int64(hi-lo)+1))
	case typegraph.PrimitiveNumber:
		lo, hi := numericRange(c, 0, 100)
		return lo + g.rnd.Float64()*(hi-lo)
	case typegraph.PrimitiveBool:
		return g.rnd.Intn(2) == 0
	case typegraph.PrimitiveNull:
		return nil
	default:
		return "sample"
	}
}

func (g *Generator) sampleString(c typegraph.Constraints) string {
	switch c.Format {
	case "uuid":
		return fmt.Sprintf("%08x-%04x-4%03x-%04x-%012x",
			g.rnd.Uint32(), g.rnd.Intn(0x10000), g.rnd.Intn(0x1000),
			0x8000|g.rnd.Intn(0x4000), g.rnd.Int63n(1<<48))
	case "email":
		return fmt.Sprintf("user%d@example.com", g.rnd.Intn(10000))
	case "date-time":
		return g.now.Add(-time.Duration(g.rnd.Intn(86400)) * time.Second).Format(time.RFC3339)
	case "date":
		return g.now.AddDate(0, 0, -g.rnd.Intn(365)).Format("2006-01-02")
	case "uri":
		return fmt.Sprintf("https://example.com/resource/%d", g.rnd.Intn(10000))
	case "hostname":
		return fmt.Sprintf("host%d.example.com", g.rnd.Intn(100))
	case "ipv4":
		return fmt.Sprintf("10.%d.%d.%d", g.rnd.Intn(256), g.rnd.Intn(256), g.rnd.Intn(256))
	}

	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	s := words[g.rnd.Intn(len(words))]
	if c.MinLength != nil {
		for int64(len(s)) < *c.MinLength {
			s += words[g.rnd.Intn(len(words))]
		}
	}
	if c.MaxLength != nil && int64(len(s)) > *c.MaxLength {
		s = s[:*c.MaxLength]
	}
	return strings.TrimSpace(s)
}

func numericRange(c typegraph.Constraints, lo, hi float64) (float64, float64) {
	if c.Minimum != nil {
		lo = *c.Minimum
		if c.ExclusiveMinimum {
			lo++
		}
	}
	if c.Maximum != nil {
		hi = *c.Maximum
		if c.ExclusiveMaximum {
			hi--
		}
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
