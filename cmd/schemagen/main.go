package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
	"sigs.k8s.io/yaml"

	"github.com/griffnb/schemagen/internal/console"
	"github.com/griffnb/schemagen/internal/gen"
	"github.com/griffnb/schemagen/internal/loader"
	"github.com/griffnb/schemagen/internal/sample"
	"github.com/griffnb/schemagen/internal/schema"
	"github.com/griffnb/schemagen/internal/typegraph"
	"github.com/griffnb/schemagen/internal/validator"
)

const (
	schemaFlag      = "schema"
	rootNameFlag    = "name"
	baseFlag        = "base"
	allowHTTPFlag   = "allowHttp"
	outputFlag      = "output"
	outputTypesFlag = "outputTypes"
	packageFlag     = "package"
	titleFlag       = "title"
	countFlag       = "count"
	seedFlag        = "seed"
	dataFlag        = "data"
	quietFlag       = "quiet"
	debugFlag       = "debug"
)

var commonFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     schemaFlag,
		Aliases:  []string{"s"},
		Usage:    "Path to the JSON Schema document (json or yaml)",
		Required: true,
	},
	&cli.StringFlag{
		Name:    rootNameFlag,
		Aliases: []string{"n"},
		Usage:   "Name for the root type; defaults to the schema file name",
	},
	&cli.StringFlag{
		Name:  baseFlag,
		Usage: "Base URI external references resolve against; defaults to the schema's directory",
	},
	&cli.BoolFlag{
		Name:  allowHTTPFlag,
		Usage: "Allow fetching external references over http(s), disabled by default",
	},
	&cli.BoolFlag{
		Name:    quietFlag,
		Aliases: []string{"q"},
		Usage:   "Make the logger quiet.",
	},
	&cli.BoolFlag{
		Name:  debugFlag,
		Usage: "Enable debug mode, disabled by default",
	},
}

func withFlags(extra ...cli.Flag) []cli.Flag {
	return append(append([]cli.Flag{}, commonFlags...), extra...)
}

func configureLogger(ctx *cli.Context) {
	if ctx.Bool(debugFlag) {
		console.Logger.DebugLevel = 1
	}
	if ctx.Bool(quietFlag) {
		console.Logger.Quiet = true
	}
}

// resolveGraph runs the resolution pipeline: load the schema document, then
// process it into a type graph.
func resolveGraph(ctx *cli.Context) (*typegraph.Graph, error) {
	configureLogger(ctx)

	schemaPath := ctx.String(schemaFlag)
	base := ctx.String(baseFlag)
	if base == "" {
		abs, err := filepath.Abs(filepath.Dir(schemaPath))
		if err != nil {
			return nil, fmt.Errorf("failed to locate schema directory: %w", err)
		}
		base = "file://" + filepath.ToSlash(abs) + "/"
	}

	svc := loader.NewService(
		loader.WithBase(base),
		loader.WithHTTP(ctx.Bool(allowHTTPFlag)),
		loader.WithDebugger(console.Logger),
	)
	doc, err := svc.LoadFile(schemaPath)
	if err != nil {
		return nil, err
	}

	rootName := ctx.String(rootNameFlag)
	if rootName == "" {
		rootName = strings.TrimSuffix(filepath.Base(schemaPath), filepath.Ext(schemaPath))
	}

	processor := schema.NewProcessor(
		schema.WithRootName(rootName),
		schema.WithBaseURI(base),
		schema.WithLoader(svc),
		schema.WithDebugger(console.Logger),
	)
	return processor.Process(doc)
}

func generateAction(ctx *cli.Context) error {
	graph, err := resolveGraph(ctx)
	if err != nil {
		return err
	}

	source, err := gen.New().GenerateGo(graph, ctx.String(packageFlag))
	if err != nil {
		return err
	}

	output := ctx.String(outputFlag)
	if output == "-" {
		_, err = os.Stdout.Write(source)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), os.ModePerm); err != nil {
		return err
	}
	console.Logger.Info("writing generated source to %s", output)
	return os.WriteFile(output, source, 0o644)
}

func exportAction(ctx *cli.Context) error {
	graph, err := resolveGraph(ctx)
	if err != nil {
		return err
	}

	outputTypes := strings.Split(ctx.String(outputTypesFlag), ",")
	if len(outputTypes) == 0 {
		return fmt.Errorf("no output types specified")
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)
	if ctx.Bool(quietFlag) {
		logger = log.New(io.Discard, "", log.LstdFlags)
	}

	return gen.New().Export(&gen.Config{
		Debugger:    logger,
		OutputDir:   ctx.String(outputFlag),
		OutputTypes: outputTypes,
		Title:       ctx.String(titleFlag),
	}, graph)
}

func samplesAction(ctx *cli.Context) error {
	graph, err := resolveGraph(ctx)
	if err != nil {
		return err
	}

	options := []sample.Option{}
	if ctx.IsSet(seedFlag) {
		options = append(options, sample.WithSeed(ctx.Int64(seedFlag)))
	}
	generator := sample.New(graph, options...)

	for _, instance := range generator.GenerateN(ctx.Int(countFlag)) {
		data, err := json.MarshalIndent(instance, "", "    ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}
	return nil
}

func validateAction(ctx *cli.Context) error {
	if !ctx.IsSet(dataFlag) {
		return validateSchemaAction(ctx)
	}

	graph, err := resolveGraph(ctx)
	if err != nil {
		return err
	}

	value, err := readInstance(ctx.String(dataFlag))
	if err != nil {
		return err
	}

	result := validator.New(graph).Validate(value)
	if result.Valid() {
		console.Logger.Info("instance is valid")
		return nil
	}
	for _, issue := range result.Issues {
		console.Logger.Error("%s: %s (%s)", issue.Path, issue.Message, issue.Code)
	}
	return fmt.Errorf("instance has %d validation issues", len(result.Issues))
}

// validateSchemaAction checks the schema document itself against Draft-07.
func validateSchemaAction(ctx *cli.Context) error {
	configureLogger(ctx)

	schemaPath := ctx.String(schemaFlag)
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", schemaPath, err)
	}
	if ext := strings.ToLower(filepath.Ext(schemaPath)); ext == ".yaml" || ext == ".yml" {
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return fmt.Errorf("failed to convert YAML schema %s: %w", schemaPath, err)
		}
	}
	if err := validator.ValidateSchema(data, filepath.Base(schemaPath)); err != nil {
		return err
	}
	console.Logger.Info("schema is a valid draft-07 document")
	return nil
}

func infoAction(ctx *cli.Context) error {
	configureLogger(ctx)

	svc := loader.NewService(loader.WithDebugger(console.Logger))
	doc, err := svc.LoadFile(ctx.String(schemaFlag))
	if err != nil {
		return err
	}

	info := schema.Describe(doc)
	if info.Title != "" {
		console.Logger.Info("title:       %s", info.Title)
	}
	if info.Description != "" {
		console.Logger.Info("description: %s", info.Description)
	}
	if len(info.Types) > 0 {
		console.Logger.Info("type:        %s", strings.Join(info.Types, ", "))
	}
	if len(info.Definitions) > 0 {
		console.Logger.Info("definitions: %s", strings.Join(info.Definitions, ", "))
	}
	for _, prop := range info.Properties {
		marker := " "
		if prop.Required {
			marker = "*"
		}
		console.Logger.Info("  %s%s: %s", marker, prop.Name, strings.Join(prop.Types, ", "))
	}
	console.Logger.Info("combinators: allOf=%d anyOf=%d oneOf=%d $ref=%d",
		info.AllOf, info.AnyOf, info.OneOf, info.Refs)
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "schemagen"
	app.Version = gen.Version
	app.Usage = "Resolve JSON Schema documents into Go types, Swagger definitions and sample data."
	app.Commands = []*cli.Command{
		{
			Name:    "generate",
			Aliases: []string{"g"},
			Usage:   "Generate Go types from a schema document",
			Action:  generateAction,
			Flags: withFlags(
				&cli.StringFlag{
					Name:    outputFlag,
					Aliases: []string{"o"},
					Value:   "models_gen.go",
					Usage:   "Output file for the generated Go source, or - for stdout",
				},
				&cli.StringFlag{
					Name:    packageFlag,
					Aliases: []string{"p"},
					Value:   gen.DefaultPackageName,
					Usage:   "Package name of the generated Go source",
				},
			),
		},
		{
			Name:    "export",
			Aliases: []string{"e"},
			Usage:   "Export the resolved types as a Swagger 2.0 definitions document",
			Action:  exportAction,
			Flags: withFlags(
				&cli.StringFlag{
					Name:    outputFlag,
					Aliases: []string{"o"},
					Value:   "./docs",
					Usage:   "Output directory for all the generated files (swagger.json, swagger.yaml)",
				},
				&cli.StringFlag{
					Name:    outputTypesFlag,
					Aliases: []string{"ot"},
					Value:   "json,yaml",
					Usage:   "Output types of generated files (swagger.json, swagger.yaml) like json,yaml",
				},
				&cli.StringFlag{
					Name:    titleFlag,
					Aliases: []string{"t"},
					Usage:   "Title of the exported document; defaults to the root type name",
				},
			),
		},
		{
			Name:   "samples",
			Usage:  "Generate sample instances conforming to a schema document",
			Action: samplesAction,
			Flags: withFlags(
				&cli.IntFlag{
					Name:    countFlag,
					Aliases: []string{"c"},
					Value:   1,
					Usage:   "Number of samples to generate",
				},
				&cli.Int64Flag{
					Name:  seedFlag,
					Usage: "Random seed for reproducible samples",
				},
			),
		},
		{
			Name:   "validate",
			Usage:  "Validate an instance against a schema, or the schema itself against draft-07",
			Action: validateAction,
			Flags: withFlags(
				&cli.StringFlag{
					Name:    dataFlag,
					Aliases: []string{"d"},
					Usage:   "Instance document to validate; omit to validate the schema itself",
				},
			),
		},
		{
			Name:    "info",
			Aliases: []string{"i"},
			Usage:   "Summarize the structure of a schema document",
			Action:  infoAction,
			Flags:   commonFlags,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// readInstance decodes an instance document from a json or yaml file.
func readInstance(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read instance %s: %w", path, err)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return nil, fmt.Errorf("failed to convert YAML instance %s: %w", path, err)
		}
	}
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to decode instance %s: %w", path, err)
	}
	return value, nil
}
