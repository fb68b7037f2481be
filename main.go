package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/osroflo/openapi-generator/internal/config"
	"github.com/osroflo/openapi-generator/internal/converter"
	"github.com/osroflo/openapi-generator/internal/document"
	"github.com/osroflo/openapi-generator/internal/errors"
	"github.com/osroflo/openapi-generator/internal/formatter"
	"github.com/osroflo/openapi-generator/internal/inference"
	"github.com/osroflo/openapi-generator/internal/logging"
	"github.com/osroflo/openapi-generator/internal/models"
	"github.com/osroflo/openapi-generator/internal/parser"
	"github.com/osroflo/openapi-generator/internal/scaffold"
	"github.com/osroflo/openapi-generator/internal/schema"
)

// CLI defines the command-line interface
var CLI struct {
	Config  string `help:"Path to config file. Defaults to the nearest .openapi-gen.yml." short:"c" type:"path"`
	Debug   bool   `help:"Enable debug logging." short:"d"`
	LogFile string `help:"Write logs to this file instead of stderr. The file is rotated." name:"log-file" type:"path"`

	Infer    InferCmd    `cmd:"" default:"withargs" help:"Infer a definition from a single JSON sample."`
	Convert  ConvertCmd  `cmd:"" help:"Generate definitions for every sample listed in the mapping file."`
	Scaffold ScaffoldCmd `cmd:"" help:"Create path definitions, empty definitions, samples and mappings for new paths."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// Context holds the runtime context shared by all commands
type Context struct {
	context.Context

	ConfigPath string
	Debug      bool
	LogFile    string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	cleanup func() error
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	// Parse CLI arguments with Kong
	parser := kong.Must(&CLI,
		kong.Name("openapi-gen"),
		kong.Description("A tool to generate OpenAPI schema definitions from JSON samples"),
		kong.UsageOnError(),
	)

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		// If there's an error parsing arguments, the usage will already be shown by kong.UsageOnError()
		os.Exit(1)
	}

	// Without arguments a terminal user gets the interactive prompt
	if len(os.Args) == 1 {
		CLI.Infer.Interactive = true
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx := &Context{
		Context:    sigCtx,
		ConfigPath: CLI.Config,
		Debug:      CLI.Debug,
		LogFile:    CLI.LogFile,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
	err = kctx.Run(ctx)
	_ = ctx.Close()
	if err != nil {
		// Use our custom error handling to provide user-friendly error messages
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))

		// Show help on error
		fmt.Fprintf(os.Stderr, "\nFor help, run: openapi-gen --help\n")

		stop()
		os.Exit(1)
	}
}

// Load resolves the configuration for a command and installs the logger it
// describes. Global flags take precedence over the config file.
func (c *Context) Load(o config.Overrides) (*config.Config, error) {
	o.Debug = o.Debug || c.Debug
	if o.LogFile == "" {
		o.LogFile = c.LogFile
	}

	cfg, err := config.LoadConfigWithCLI(c.ConfigPath, o)
	if err != nil {
		return nil, errors.NewConfigError("failed to load configuration", err)
	}

	cleanup, err := logging.Setup(cfg.LoggingOptions())
	if err != nil {
		return nil, errors.NewConfigError("failed to set up logging", err)
	}
	c.cleanup = cleanup
	return cfg, nil
}

// Close releases the log file, if one was opened.
func (c *Context) Close() error {
	if c.cleanup == nil {
		return nil
	}
	err := c.cleanup()
	c.cleanup = nil
	return err
}

// InferCmd infers one definition from one sample
type InferCmd struct {
	Input       string   `help:"Path to input JSON sample. If not specified, reads from stdin." short:"i" type:"path"`
	Output      string   `help:"Path to output definition file. If not specified, writes to stdout." short:"o" type:"path"`
	Format      string   `help:"Output format: yaml, json or jsonschema. Defaults to the configured format." short:"f"`
	Kind        string   `help:"Definition envelope: request or response." short:"k" default:"response" enum:"request,response"`
	Ref         string   `help:"Sample reference written as the example. Defaults to the input path."`
	Required    []string `help:"Required property names of a request body." sep:","`
	Title       string   `help:"Title of a jsonschema export." default:"root"`
	Validate    bool     `help:"Validate the definition before writing it."`
	Interactive bool     `help:"Run in interactive mode, allowing direct JSON input with Ctrl+D to process." short:"I"`
}

// Run executes the single sample pipeline
func (cmd *InferCmd) Run(ctx *Context) error {
	o := config.Overrides{Format: cmd.Format}
	if cmd.Validate {
		validate := true
		o.Validate = &validate
	}
	cfg, err := ctx.Load(o)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cfg.Output.Format)
	if err != nil {
		return errors.NewConfigError(err.Error(), nil)
	}
	kind, err := document.ParseKind(cmd.Kind)
	if err != nil {
		return errors.NewInputError(err.Error(), nil)
	}

	// 1. Parse JSON input
	ir, err := cmd.parseInput(ctx)
	if err != nil {
		return err
	}

	if ir.RootIsArray {
		slog.Debug("sample root is an array, properties are keyed by index")
	}

	// 2. Infer and normalize the schema tree
	node, err := inference.NewWalker(cfg.WalkerOptions()).Build(ir.Root)
	if err != nil {
		return err
	}

	// 3. Assemble the definition
	var doc models.JSONValue
	if format == formatter.FormatJSONSchema {
		doc, err = schema.Render(node, cmd.Title)
		if err != nil {
			return errors.NewAssembleError("failed to export JSON Schema", err)
		}
	} else {
		env := document.Envelope{Kind: kind, SampleRef: cmd.sampleRef()}
		if kind == document.KindRequest {
			env.Required = cmd.Required
		}
		assembled, err := document.NewAssembler().Assemble(node, env)
		if err != nil {
			return errors.NewAssembleError("failed to assemble definition", err)
		}

		// 4. Validate the definition if requested
		if cfg.Output.Validate {
			validator, err := schema.NewValidator()
			if err != nil {
				return errors.NewValidationError("failed to prepare definition validator", err)
			}
			if err := validator.Validate(assembled); err != nil {
				return err
			}
		}
		doc = assembled
	}

	// 5. Serialize and output the result
	out, err := formatter.NewFormatter().Format(doc, format)
	if err != nil {
		return errors.NewOutputError("failed to serialize definition", err)
	}
	return cmd.writeOutput(ctx, out, format)
}

func (cmd *InferCmd) sampleRef() string {
	if cmd.Ref != "" {
		return cmd.Ref
	}
	return cmd.Input
}

// parseInput reads JSON from file or stdin
func (cmd *InferCmd) parseInput(ctx *Context) (models.IntermediateRepresentation, error) {
	if cmd.Input != "" {
		return parser.ParseFile(cmd.Input)
	}

	// Interactive mode only makes sense on a terminal
	if f, ok := ctx.Stdin.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return models.IntermediateRepresentation{}, errors.NewInputError("failed to access stdin", err)
		}
		if info.Mode()&os.ModeCharDevice != 0 {
			if cmd.Interactive {
				return readInteractiveInput(ctx)
			}
			return models.IntermediateRepresentation{}, errors.NewInputError("no input provided", errors.ErrNoInput)
		}
	}

	jsonData, err := io.ReadAll(ctx.Stdin)
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError("failed to read from stdin", err)
	}
	if len(jsonData) == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return parser.ParseString(string(jsonData))
}

// writeOutput writes the definition to file or stdout. An output path
// without an extension gets the one of the format.
func (cmd *InferCmd) writeOutput(ctx *Context, content string, format formatter.Format) error {
	if cmd.Output != "" {
		path := cmd.Output
		if filepath.Ext(path) == "" {
			path += format.Extension()
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		fmt.Fprintf(ctx.Stderr, "Definition written to %s\n", path)
		return nil
	}

	if _, err := fmt.Fprintln(ctx.Stdout, strings.TrimRight(content, "\n")); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput lets users paste JSON and signal completion with
// Ctrl+D (EOF)
func readInteractiveInput(ctx *Context) (models.IntermediateRepresentation, error) {
	fmt.Fprintln(ctx.Stderr, "openapi-gen interactive mode")
	fmt.Fprintln(ctx.Stderr, "Paste your JSON sample below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(ctx.Stdin)
	var jsonBuilder strings.Builder
	for {
		line, err := reader.ReadString('\n')
		jsonBuilder.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.IntermediateRepresentation{}, errors.NewInputError("error reading input", err)
		}
	}

	jsonData := jsonBuilder.String()
	if len(jsonData) == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(ctx.Stderr, "\nProcessing JSON...")
	return parser.ParseString(jsonData)
}

// ConvertCmd converts every mapped sample of a project
type ConvertCmd struct {
	Root     string `help:"Project root that mapping paths are resolved against." default:"." type:"path"`
	Mapping  string `help:"Mapping file relative to the root. Defaults to the configured mapping."`
	Workers  int    `help:"Number of definitions generated concurrently." short:"w"`
	Format   string `help:"Output format: yaml, json or jsonschema." short:"f"`
	Validate bool   `help:"Validate every definition before writing it."`
}

// Run executes the mapping driven conversion
func (cmd *ConvertCmd) Run(ctx *Context) error {
	o := config.Overrides{Format: cmd.Format, Workers: cmd.Workers}
	if cmd.Validate {
		validate := true
		o.Validate = &validate
	}
	cfg, err := ctx.Load(o)
	if err != nil {
		return err
	}

	conv, err := converter.New(cfg, converter.WithRoot(cmd.Root))
	if err != nil {
		return err
	}

	manifest := cmd.Mapping
	if manifest == "" {
		manifest = cfg.Convert.Mapping
	}
	summary, err := conv.Run(ctx, manifest)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Stderr, "%d definitions written, %d samples skipped\n", len(summary.Written), len(summary.Skipped))
	return nil
}

// ScaffoldCmd scaffolds the new paths of the path index
type ScaffoldCmd struct {
	Root    string `help:"Project root containing the paths directory." default:"." type:"path"`
	Index   string `help:"Path index relative to the root. Defaults to the configured index."`
	Mapping string `help:"Mapping file relative to the root that new entries are appended to."`
}

// Run executes the scaffolding
func (cmd *ScaffoldCmd) Run(ctx *Context) error {
	cfg, err := ctx.Load(config.Overrides{})
	if err != nil {
		return err
	}

	manifest := cmd.Mapping
	if manifest == "" {
		manifest = cfg.Convert.Mapping
	}
	s, err := scaffold.New(cmd.Root, scaffold.WithManifest(manifest))
	if err != nil {
		return err
	}

	index := cmd.Index
	if index == "" {
		index = cfg.Scaffold.Index
	}
	created, err := s.Run(ctx, index)
	if err != nil {
		return err
	}

	if len(created) == 0 {
		fmt.Fprintln(ctx.Stderr, "No new paths found")
		return nil
	}
	for _, c := range created {
		fmt.Fprintf(ctx.Stderr, "%-10s %s\n", c.Kind, c.Path)
	}
	return nil
}

// VersionCmd prints the version
type VersionCmd struct{}

// Run prints the version
func (cmd *VersionCmd) Run(ctx *Context) error {
	_, err := fmt.Fprintf(ctx.Stdout, "openapi-gen version %s\n", Version)
	return err
}
