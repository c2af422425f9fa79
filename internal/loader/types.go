// Package loader supplies schema documents to the resolution engine. It is
// the only component that performs I/O: the engine itself consumes
// already-decoded documents through the DocumentLoader capability.
package loader

import (
	"net/http"
	"sync"

	"github.com/griffnb/schemagen/internal/document"
)

// Service loads and decodes schema documents from the filesystem and,
// when enabled, over HTTP. Loaded documents are cached by normalized URI so
// repeated refs into the same document decode it once. The cache belongs to
// the service instance; give each resolution pass its own service to keep
// passes independent.
type Service struct {
	base      string // directory or URI that relative references resolve against
	allowHTTP bool
	client    *http.Client
	debug     Debugger

	mu    sync.Mutex
	cache map[string]*document.Document
}

// Debugger interface for logging
type Debugger interface {
	Printf(format string, v ...interface{})
}

// Option is a functional option for configuring Service
type Option func(*Service)

// noOpDebugger is a no-op debugger
type noOpDebugger struct{}

func (n *noOpDebugger) Printf(format string, v ...interface{}) {}
