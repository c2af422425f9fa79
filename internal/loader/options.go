package loader

import (
	"net/http"

	"github.com/griffnb/schemagen/internal/document"
)

// NewService creates a new loader service with optional configuration
func NewService(options ...Option) *Service {
	s := &Service{
		allowHTTP: false,
		client:    http.DefaultClient,
		debug:     &noOpDebugger{},
		cache:     make(map[string]*document.Document),
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// WithBase sets the directory or URI relative references resolve against
func WithBase(base string) Option {
	return func(s *Service) {
		s.base = base
	}
}

// WithHTTP sets whether http(s) URIs may be fetched
func WithHTTP(allow bool) Option {
	return func(s *Service) {
		s.allowHTTP = allow
	}
}

// WithHTTPClient sets the client used for http(s) fetches
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
		}
	}
}

// WithDebugger sets the debugger for logging
func WithDebugger(debugger Debugger) Option {
	return func(s *Service) {
		s.debug = debugger
	}
}
