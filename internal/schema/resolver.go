package schema

import (
	"net/url"
	"path"
	"strings"

	"github.com/go-openapi/jsonreference"
	"github.com/griffnb/schemagen/internal/document"
)

// DocumentLoader supplies external documents to the resolver. The resolver
// never performs I/O itself; a caller wanting network or file access provides
// this capability, and a caller wanting concurrent fetches parallelizes
// behind it and hands back already-decoded documents.
type DocumentLoader interface {
	Load(uri string) (*document.Document, error)
}

// resolver resolves $ref strings into concrete schema nodes for a single
// processing pass. Loaded external documents are cached by normalized URI so
// differently-spelled but equivalent refs decode a document once. The cache
// lives and dies with the pass; independent passes share no state.
type resolver struct {
	root    *document.Document
	rootURI string // normalized URI of the primary document, may be ""
	baseURI string
	loader  DocumentLoader
	docs    map[string]*document.Document
}

func newResolver(root *document.Document, baseURI string, loader DocumentLoader) *resolver {
	return &resolver{
		root:    root,
		rootURI: normalizeURIString(root.URI),
		baseURI: baseURI,
		loader:  loader,
		docs:    make(map[string]*document.Document),
	}
}

// resolve returns the schema node a $ref at the given site points to.
func (r *resolver) resolve(site *document.SchemaNode, ref string) (*document.SchemaNode, error) {
	parsed, err := jsonreference.New(ref)
	if err != nil {
		return nil, &BrokenReferenceError{Ref: ref, Location: document.Pointer(site.Location), Reason: err.Error()}
	}

	doc := site.Doc
	if !r.sameDocument(parsed) {
		uri, uriErr := r.targetURI(site, parsed)
		if uriErr != nil {
			return nil, &BrokenReferenceError{Ref: ref, Location: document.Pointer(site.Location), Reason: uriErr.Error()}
		}
		doc, err = r.document(site, ref, uri)
		if err != nil {
			return nil, err
		}
	}

	pointer := ""
	if p := parsed.GetPointer(); p != nil {
		pointer = p.String()
	}

	target, err := doc.Resolve(pointer)
	if err != nil {
		return nil, &BrokenReferenceError{Ref: ref, Location: document.Pointer(site.Location), Reason: err.Error()}
	}
	return target, nil
}

// sameDocument reports whether the reference stays inside the site's document.
func (r *resolver) sameDocument(ref jsonreference.Ref) bool {
	if ref.HasFragmentOnly {
		return true
	}
	u := ref.GetURL()
	return u == nil || (u.Scheme == "" && u.Host == "" && u.Path == "")
}

// targetURI resolves the reference URI against the site document's URI or the
// configured base URI, and normalizes the result.
func (r *resolver) targetURI(site *document.SchemaNode, ref jsonreference.Ref) (string, error) {
	base := site.Doc.URI
	if base == "" {
		base = r.baseURI
	}
	resolved := ref
	if base != "" {
		baseRef, err := jsonreference.New(base)
		if err != nil {
			return "", err
		}
		full, err := baseRef.Inherits(ref)
		if err != nil {
			return "", err
		}
		if full != nil {
			resolved = *full
		}
	}
	return normalizeURI(resolved.GetURL()), nil
}

// document returns the decoded document for a normalized URI, loading and
// caching it on first use.
func (r *resolver) document(site *document.SchemaNode, ref, uri string) (*document.Document, error) {
	if uri == "" || uri == r.rootURI {
		return r.root, nil
	}
	if doc, ok := r.docs[uri]; ok {
		return doc, nil
	}
	if r.loader == nil {
		return nil, &UnresolvableExternalReferenceError{
			Ref:      ref,
			URI:      uri,
			Location: document.Pointer(site.Location),
		}
	}
	doc, err := r.loader.Load(uri)
	if err != nil {
		return nil, &UnresolvableExternalReferenceError{
			Ref:      ref,
			URI:      uri,
			Location: document.Pointer(site.Location),
			Err:      err,
		}
	}
	r.docs[uri] = doc
	return doc, nil
}

// locationKey identifies a (document, pointer) pair for cycle detection and
// memoization.
func locationKey(node *document.SchemaNode) string {
	return normalizeURIString(node.Doc.URI) + "#" + node.Location
}

func normalizeURIString(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return normalizeURI(u)
}

// normalizeURI renders a URL without its fragment, with a cleaned path and a
// case-normalized scheme and host, so equivalent spellings collapse to one
// cache key.
func normalizeURI(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.Fragment = ""
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	if c.Path != "" {
		cleaned := path.Clean(c.Path)
		if cleaned == "." {
			cleaned = ""
		}
		c.Path = cleaned
	}
	return c.String()
}
