// Package schema implements the schema resolution engine: reference
// resolution, combinator merging and type mapping over a JSON Schema
// document, producing the canonical type graph consumed by the renderers,
// the sample generator and the validator.
package schema

import (
	"fmt"
	"path"
	"strings"

	"github.com/griffnb/schemagen/internal/document"
	"github.com/griffnb/schemagen/internal/typegraph"
	"github.com/iancoleman/strcase"
)

// DefaultRootName names the document root when the caller supplies none.
const DefaultRootName = "Root"

// Debugger is the interface for debug logging.
type Debugger interface {
	Printf(format string, v ...interface{})
}

// Processor drives resolution over a whole document and assembles the type
// graph. A Processor holds configuration only; all per-pass state (document
// cache, visited set, memoization) is scoped to one Process call, so
// concurrent Process calls on separate documents share nothing.
type Processor struct {
	rootName string
	baseURI  string
	loader   DocumentLoader
	debug    Debugger
}

// Option configures a Processor.
type Option func(*Processor)

// WithRootName sets the synthesized name for the document root.
func WithRootName(name string) Option {
	return func(p *Processor) {
		if name != "" {
			p.rootName = strcase.ToCamel(name)
		}
	}
}

// WithBaseURI sets the base URI relative external $refs resolve against.
func WithBaseURI(uri string) Option {
	return func(p *Processor) {
		p.baseURI = uri
	}
}

// WithLoader supplies the external-document loader capability. Without it,
// any external $ref fails with UnresolvableExternalReferenceError.
func WithLoader(loader DocumentLoader) Option {
	return func(p *Processor) {
		p.loader = loader
	}
}

// WithDebugger sets the debugger for logging.
func WithDebugger(debug Debugger) Option {
	return func(p *Processor) {
		p.debug = debug
	}
}

// NewProcessor creates a processor with the given options.
func NewProcessor(options ...Option) *Processor {
	p := &Processor{rootName: DefaultRootName}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *Processor) debugf(format string, v ...interface{}) {
	if p.debug != nil {
		p.debug.Printf(format, v...)
	}
}

// Process resolves the document into a type graph. The walk visits every
// definitions entry, the root, and every location reachable through $ref,
// memoizing by location so fan-in stays linear. The first
// BrokenReferenceError, UnresolvableExternalReferenceError,
// SchemaConflictError or AmbiguousEnumTypeError aborts the whole call;
// there is no partial graph.
func (p *Processor) Process(doc *document.Document) (*typegraph.Graph, error) {
	ps := &pass{
		cfg: p,
		res: newResolver(doc, p.baseURI, p.loader),
		doc: doc,
		graph: &typegraph.Graph{
			RootName:    p.rootName,
			Definitions: make(map[string]*typegraph.Descriptor),
		},
		names:      make(map[string]string),
		keyNames:   make(map[string]string),
		inProgress: make(map[string]bool),
		referenced: make(map[string]bool),
		done:       make(map[string]bool),
	}
	return ps.run()
}

// pass is the state of a single Process call.
type pass struct {
	cfg   *Processor
	res   *resolver
	doc   *document.Document
	graph *typegraph.Graph

	names      map[string]string // assigned name -> location key
	keyNames   map[string]string // location key -> assigned name
	inProgress map[string]bool   // locations on the DFS stack
	referenced map[string]bool   // locations targeted by a cyclic ref
	done       map[string]bool   // fully materialized locations
}

func (ps *pass) run() (*typegraph.Graph, error) {
	root := ps.doc.Root()

	// Definitions first, in sorted order, so synthesized names and collision
	// suffixes never depend on reference order.
	for _, container := range []string{"definitions", "$defs"} {
		defs, ok := root.Child(container)
		if !ok || defs.Kind() != document.KindObject {
			continue
		}
		for _, key := range defs.SortedKeys() {
			entry, _ := defs.Child(key)
			if _, err := ps.materialize(entry); err != nil {
				return nil, err
			}
		}
	}

	rootDesc, err := ps.materialize(root)
	if err != nil {
		return nil, err
	}
	ps.graph.Root = rootDesc
	ps.cfg.debugf("processed %d definitions", len(ps.graph.Definitions))
	return ps.graph, nil
}

// nameFor assigns the deterministic synthesized name for a location,
// suffixing a counter only on collision with a different location.
func (ps *pass) nameFor(node *document.SchemaNode) string {
	key := locationKey(node)
	if name, ok := ps.keyNames[key]; ok {
		return name
	}
	base := nameForLocation(ps.rootBase(node), node.Location)
	name := base
	for i := 2; ; i++ {
		taken, exists := ps.names[name]
		if !exists || taken == key {
			break
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
	ps.names[name] = key
	ps.keyNames[key] = name
	return name
}

// rootBase is the naming root for a node: the configured root name inside the
// primary document, the file stem for an external document.
func (ps *pass) rootBase(node *document.SchemaNode) string {
	if node.Doc == ps.doc {
		return ps.cfg.rootName
	}
	stem := path.Base(node.Doc.URI)
	if i := strings.LastIndex(stem, "."); i > 0 {
		stem = stem[:i]
	}
	if stem == "" || stem == "/" || stem == "." {
		return ps.cfg.rootName
	}
	return strcase.ToCamel(stem)
}

// materialize builds the descriptor for a location and records it in the
// definition table under its synthesized name. Already-built locations are
// returned from the table, which bounds the walk to one visit per distinct
// location regardless of $ref fan-in.
func (ps *pass) materialize(node *document.SchemaNode) (*typegraph.Descriptor, error) {
	key := locationKey(node)
	name := ps.nameFor(node)
	if ps.done[key] {
		return ps.graph.Definitions[name], nil
	}

	ps.inProgress[key] = true
	desc, err := ps.buildNode(node)
	delete(ps.inProgress, key)
	if err != nil {
		return nil, err
	}

	ps.graph.Definitions[name] = desc
	ps.done[key] = true
	return desc, nil
}

// buildNode maps one schema location to a descriptor: refs resolve first,
// then combinators merge, then the effective schema maps to a type.
func (ps *pass) buildNode(node *document.SchemaNode) (*typegraph.Descriptor, error) {
	switch node.Kind() {
	case document.KindBool:
		// Draft-07 boolean schema. Both forms carry no type information;
		// acceptance is a validation-time concern.
		return &typegraph.Descriptor{Kind: typegraph.KindPrimitive, Primitive: typegraph.PrimitiveAny}, nil
	case document.KindObject:
	default:
		return &typegraph.Descriptor{Kind: typegraph.KindPrimitive, Primitive: typegraph.PrimitiveAny}, nil
	}

	if ref, ok := node.StringKeyword("$ref"); ok {
		return ps.buildRef(node, ref)
	}

	es, err := ps.effective(node)
	if err != nil {
		return nil, err
	}
	return ps.mapEffective(node, es)
}

// buildRef resolves a $ref site into a NamedRef descriptor, materializing the
// target first unless it is already on the DFS stack. A target on the stack
// is the cycle case: the NamedRef placeholder is returned immediately and the
// in-progress materialization completes the table entry it points to.
func (ps *pass) buildRef(node *document.SchemaNode, ref string) (*typegraph.Descriptor, error) {
	target, err := ps.res.resolve(node, ref)
	if err != nil {
		return nil, err
	}

	key := locationKey(target)
	name := ps.nameFor(target)
	if ps.inProgress[key] {
		ps.referenced[key] = true
		return &typegraph.Descriptor{Kind: typegraph.KindRef, Ref: name}, nil
	}
	if !ps.done[key] {
		if _, err := ps.materialize(target); err != nil {
			return nil, err
		}
	}
	return &typegraph.Descriptor{Kind: typegraph.KindRef, Ref: name}, nil
}

// effective collapses a node and its allOf members (transitively, resolving
// ref members as if inlined) into one EffectiveSchema.
func (ps *pass) effective(node *document.SchemaNode) (*EffectiveSchema, error) {
	es := newEffectiveSchema(document.Pointer(node.Location))
	if err := ps.mergeInto(es, node, make(map[string]bool)); err != nil {
		return nil, err
	}
	return es, nil
}

func (ps *pass) mergeInto(es *EffectiveSchema, node *document.SchemaNode, visiting map[string]bool) error {
	key := locationKey(node)
	if visiting[key] {
		return &BrokenReferenceError{
			Location: document.Pointer(node.Location),
			Reason:   "allOf member cycles back into a schema being merged",
		}
	}
	visiting[key] = true
	defer delete(visiting, key)

	if keywords := node.Keywords(); keywords != nil {
		if err := es.mergeMember(document.Pointer(node.Location), keywords); err != nil {
			return err
		}
	}

	for _, member := range allOfMembers(node) {
		expanded := member
		if ref, ok := member.StringKeyword("$ref"); ok {
			target, err := ps.res.resolve(member, ref)
			if err != nil {
				return err
			}
			if ps.inProgress[locationKey(target)] || visiting[locationKey(target)] {
				return &BrokenReferenceError{
					Ref:      ref,
					Location: document.Pointer(member.Location),
					Reason:   "circular reference cannot be merged through allOf",
				}
			}
			expanded = target
		}
		if err := ps.mergeInto(es, expanded, visiting); err != nil {
			return err
		}
	}
	return nil
}

// buildChild maps a nested sub-schema (a property, an array item, a union
// branch). Anonymous object types are hoisted into the definition table under
// their synthesized name and replaced by a NamedRef, so generated code gets
// one named type per object shape instead of unbounded inline nesting.
func (ps *pass) buildChild(node *document.SchemaNode) (*typegraph.Descriptor, error) {
	key := locationKey(node)
	if ps.inProgress[key] {
		ps.referenced[key] = true
		return &typegraph.Descriptor{Kind: typegraph.KindRef, Ref: ps.nameFor(node)}, nil
	}
	if ps.done[key] {
		return &typegraph.Descriptor{Kind: typegraph.KindRef, Ref: ps.nameFor(node)}, nil
	}

	ps.inProgress[key] = true
	desc, err := ps.buildNode(node)
	delete(ps.inProgress, key)
	if err != nil {
		return nil, err
	}

	if desc.Kind == typegraph.KindObject || ps.referenced[key] {
		name := ps.nameFor(node)
		ps.graph.Definitions[name] = desc
		ps.done[key] = true
		return &typegraph.Descriptor{Kind: typegraph.KindRef, Ref: name}, nil
	}
	return desc, nil
}
