package loader

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/yaml"

	"github.com/griffnb/schemagen/internal/document"
)

// yamlExtensions are document extensions decoded through YAML before the
// JSON value model.
var yamlExtensions = map[string]struct{}{
	".yaml": {},
	".yml":  {},
}

// Load fetches and decodes the document at the given URI. Relative URIs
// resolve against the configured base. The decoded document is cached; a
// second Load of an equivalent URI returns the same tree.
func (s *Service) Load(uri string) (*document.Document, error) {
	resolved, err := s.resolveURI(uri)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	cached, ok := s.cache[resolved]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	data, err := s.fetch(resolved)
	if err != nil {
		return nil, err
	}
	data, err = toJSON(resolved, data)
	if err != nil {
		return nil, err
	}
	doc, err := document.Decode(resolved, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[resolved] = doc
	s.mu.Unlock()
	s.debug.Printf("loaded document %s", resolved)
	return doc, nil
}

// LoadFile decodes a schema document from a filesystem path.
func (s *Service) LoadFile(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	data, err = toJSON(path, data)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return document.Decode("file://"+filepath.ToSlash(abs), data)
}

// Prefetch loads several documents concurrently into the cache. The engine
// itself never hides loader latency; callers wanting parallel fetches of
// known external documents do it here, up front.
func (s *Service) Prefetch(uris []string) error {
	var group errgroup.Group
	for _, uri := range uris {
		uri := uri
		group.Go(func() error {
			_, err := s.Load(uri)
			return err
		})
	}
	return group.Wait()
}

// resolveURI resolves a possibly relative URI against the service base.
func (s *Service) resolveURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid document URI %q: %w", uri, err)
	}
	if u.IsAbs() || s.base == "" {
		return uri, nil
	}
	base, err := url.Parse(s.base)
	if err != nil {
		return "", fmt.Errorf("invalid base URI %q: %w", s.base, err)
	}
	return base.ResolveReference(u).String(), nil
}

func (s *Service) fetch(uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid document URI %q: %w", uri, err)
	}

	switch u.Scheme {
	case "", "file":
		path := u.Path
		if u.Scheme == "" {
			path = uri
		}
		data, err := os.ReadFile(filepath.FromSlash(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", uri, err)
		}
		return data, nil
	case "http", "https":
		if !s.allowHTTP {
			return nil, fmt.Errorf("http fetch of %s is disabled; enable it or prefetch the document", uri)
		}
		resp, err := s.client.Get(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch document %s: %w", uri, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != 200 {
			return nil, fmt.Errorf("failed to fetch document %s: status %d", uri, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", uri, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported URI scheme %q in %s", u.Scheme, uri)
	}
}

// toJSON converts YAML documents to JSON bytes based on the URI extension.
func toJSON(uri string, data []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(uri, "/")))
	if _, isYAML := yamlExtensions[ext]; !isYAML {
		return data, nil
	}
	converted, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML document %s: %w", uri, err)
	}
	return converted, nil
}
