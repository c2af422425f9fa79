// Package gen renders a resolved type graph into target artifacts: Go source
// with one named type per definition table entry, and a Swagger 2.0
// definitions document for interoperability with OpenAPI tooling.
package gen

import (
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"github.com/go-openapi/spec"
	"github.com/goccy/go-json"
	"sigs.k8s.io/yaml"

	"github.com/griffnb/schemagen/internal/typegraph"
)

// Version of the schemagen tooling.
const Version = "v1.0.0"

type exportTypeWriter func(*Config, *spec.Swagger) error

// Gen presents the rendering front end over a type graph.
type Gen struct {
	json          func(data interface{}) ([]byte, error)
	jsonIndent    func(data interface{}) ([]byte, error)
	jsonToYAML    func(data []byte) ([]byte, error)
	exportTypeMap map[string]exportTypeWriter
	debug         Debugger
}

// Debugger is the interface that wraps the basic Printf method.
type Debugger interface {
	Printf(format string, v ...interface{})
}

// New creates a new Gen.
func New() *Gen {
	gen := Gen{
		json: json.Marshal,
		jsonIndent: func(data interface{}) ([]byte, error) {
			return json.MarshalIndent(data, "", "    ")
		},
		jsonToYAML: yaml.JSONToYAML,
		debug:      log.New(os.Stdout, "", log.LstdFlags),
	}

	gen.exportTypeMap = map[string]exportTypeWriter{
		"json": gen.writeJSONSwagger,
		"yaml": gen.writeYAMLSwagger,
		"yml":  gen.writeYAMLSwagger,
	}

	return &gen
}

// Config presents Gen configurations.
type Config struct {
	Debugger Debugger

	// OutputDir represents the output directory for exported files
	OutputDir string

	// OutputTypes define types of export files which should be generated (json, yaml)
	OutputTypes []string

	// PackageName defines the package name of generated Go source
	PackageName string

	// Title names the exported Swagger document; defaults to the graph root name
	Title string
}

// Export writes the graph as a Swagger definitions document in the requested
// output types.
func (g *Gen) Export(config *Config, graph *typegraph.Graph) error {
	if config.Debugger != nil {
		g.debug = config.Debugger
	}

	title := config.Title
	if title == "" {
		title = graph.RootName
	}
	swagger := BuildSwagger(graph, title)

	if err := os.MkdirAll(config.OutputDir, os.ModePerm); err != nil {
		return err
	}

	for _, outputType := range config.OutputTypes {
		outputType = strings.ToLower(strings.TrimSpace(outputType))
		writer, ok := g.exportTypeMap[outputType]
		if !ok {
			return fmt.Errorf("output type %q is not supported", outputType)
		}
		if err := writer(config, swagger); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gen) writeJSONSwagger(config *Config, swagger *spec.Swagger) error {
	data, err := g.jsonIndent(swagger)
	if err != nil {
		return err
	}
	target := path.Join(config.OutputDir, "swagger.json")
	g.debug.Printf("create swagger.json at %s", target)
	return os.WriteFile(target, data, 0o644)
}

func (g *Gen) writeYAMLSwagger(config *Config, swagger *spec.Swagger) error {
	data, err := g.json(swagger)
	if err != nil {
		return err
	}
	converted, err := g.jsonToYAML(data)
	if err != nil {
		return fmt.Errorf("failed to convert swagger to yaml: %w", err)
	}
	target := path.Join(config.OutputDir, "swagger.yaml")
	g.debug.Printf("create swagger.yaml at %s", target)
	return os.WriteFile(target, converted, 0o644)
}
