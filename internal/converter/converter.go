// Package converter generates definition files for every sample listed in a
// mapping manifest.
package converter

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/osroflo/openapi-generator/internal/config"
	"github.com/osroflo/openapi-generator/internal/document"
	"github.com/osroflo/openapi-generator/internal/errors"
	"github.com/osroflo/openapi-generator/internal/formatter"
	"github.com/osroflo/openapi-generator/internal/inference"
	"github.com/osroflo/openapi-generator/internal/mapping"
	"github.com/osroflo/openapi-generator/internal/models"
	"github.com/osroflo/openapi-generator/internal/parser"
	"github.com/osroflo/openapi-generator/internal/schema"
)

// Converter turns mapped samples into definition files.
type Converter struct {
	root        string
	format      formatter.Format
	workers     int
	skipMissing bool

	walker    *inference.Walker
	assembler *document.Assembler
	formatter *formatter.Formatter
	validator *schema.Validator
	cache     *SampleCache
	logger    *slog.Logger
}

// Option customizes a Converter.
type Option func(*Converter)

// WithRoot sets the project root that manifest paths are resolved against.
func WithRoot(dir string) Option {
	return func(c *Converter) {
		c.root = dir
	}
}

// WithLogger sets the logger used for progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// Summary reports what a run did.
type Summary struct {
	Written []string
	Skipped []string
}

// New creates a Converter from cfg. The root defaults to the working
// directory.
func New(cfg *config.Config, opts ...Option) (*Converter, error) {
	format, err := formatter.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, errors.NewConfigError(err.Error(), nil)
	}

	cache, err := NewSampleCache(cfg.Convert.CacheSize)
	if err != nil {
		return nil, errors.NewConfigError("failed to create sample cache", err)
	}

	c := &Converter{
		format:      format,
		workers:     max(cfg.Convert.Workers, 1),
		skipMissing: cfg.Convert.SkipMissingSamples,
		walker:      inference.NewWalker(cfg.WalkerOptions()),
		assembler:   document.NewAssembler(),
		formatter:   formatter.NewFormatter(),
		cache:       cache,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.NewInputError("failed to determine working directory", err)
		}
		c.root = wd
	}

	if cfg.Output.Validate && format != formatter.FormatJSONSchema {
		v, err := schema.NewValidator()
		if err != nil {
			return nil, errors.NewValidationError("failed to prepare definition validator", err)
		}
		c.validator = v
	}
	return c, nil
}

// Run converts every entry of the manifest at manifestPath. Request bodies are
// converted before responses. The first fatal error stops the run.
func (c *Converter) Run(ctx context.Context, manifestPath string) (Summary, error) {
	var summary Summary
	var mu sync.Mutex

	path := mapping.ResolvePath(c.root, manifestPath)
	c.logger.Info("step 1: loading mapping file", slog.String("path", path))
	manifest, err := mapping.Load(path)
	if err != nil {
		return summary, err
	}

	record := func(written bool, file string) {
		mu.Lock()
		defer mu.Unlock()
		if written {
			summary.Written = append(summary.Written, file)
		} else {
			summary.Skipped = append(summary.Skipped, file)
		}
	}

	steps := []struct {
		name    string
		kind    document.Kind
		entries []mapping.Entry
	}{
		{"step 2: generating definitions from sample requests", document.KindRequest, manifest.Requests()},
		{"step 3: generating definitions from sample responses", document.KindResponse, manifest.Responses()},
	}
	for _, step := range steps {
		c.logger.Info(step.name, slog.Int("entries", len(step.entries)))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.workers)
		for _, group := range c.byDefinition(step.entries) {
			g.Go(func() error {
				for _, entry := range group {
					written, err := c.convertEntry(gctx, step.kind, entry)
					if err != nil {
						return err
					}
					record(written, entry.DefinitionFile)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return summary, err
		}
	}

	c.logger.Info("conversion finished",
		slog.Int("written", len(summary.Written)),
		slog.Int("skipped", len(summary.Skipped)),
	)
	return summary, nil
}

// byDefinition groups entries by the definition file they write, keeping
// manifest order within and across groups. Entries of one group run in order
// so the last one wins.
func (c *Converter) byDefinition(entries []mapping.Entry) [][]mapping.Entry {
	var groups [][]mapping.Entry
	index := make(map[string]int, len(entries))
	for _, entry := range entries {
		key := mapping.ResolvePath(c.root, entry.DefinitionFile)
		if i, ok := index[key]; ok {
			groups[i] = append(groups[i], entry)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, []mapping.Entry{entry})
	}
	return groups
}

// convertEntry generates one definition file. It reports false when the
// sample was skipped.
func (c *Converter) convertEntry(ctx context.Context, kind document.Kind, entry mapping.Entry) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	samplePath := mapping.ResolvePath(c.root, entry.SampleFile)
	if strings.TrimSpace(entry.SampleFile) == "" {
		samplePath = ""
	}
	node, err := c.cache.Load(samplePath, func() (*models.Node, error) {
		return c.infer(samplePath)
	})
	if err != nil {
		if c.skipMissing && (stderrors.Is(err, errors.ErrFileNotFound) || stderrors.Is(err, errors.ErrFileEmpty) || stderrors.Is(err, errors.ErrInvalidFilePath)) {
			c.logger.Error("sample skipped", slog.String("sample", samplePath), slog.String("error", errors.UserFriendlyError(err)))
			return false, nil
		}
		return false, err
	}

	out, err := c.Render(node, kind, entry)
	if err != nil {
		return false, err
	}

	definitionPath := mapping.ResolvePath(c.root, entry.DefinitionFile)
	if err := writeDefinition(definitionPath, out); err != nil {
		return false, err
	}
	c.logger.Info("definition saved",
		slog.String("kind", string(kind)),
		slog.String("sample", samplePath),
		slog.String("definition", definitionPath),
	)
	return true, nil
}

// infer loads a sample and returns its normalized schema tree.
func (c *Converter) infer(samplePath string) (*models.Node, error) {
	ir, err := parser.ParseFile(samplePath)
	if err != nil {
		return nil, withSample(samplePath, err)
	}
	c.logger.Debug("sample loaded", slog.String("sample", samplePath), slog.Bool("arrayRoot", ir.RootIsArray))
	node, err := c.walker.Build(ir.Root)
	if err != nil {
		return nil, withSample(samplePath, err)
	}
	return node, nil
}

// Render builds and serializes the definition for node.
func (c *Converter) Render(node *models.Node, kind document.Kind, entry mapping.Entry) (string, error) {
	var doc models.JSONValue
	if c.format == formatter.FormatJSONSchema {
		title := strings.TrimSuffix(filepath.Base(entry.DefinitionFile), filepath.Ext(entry.DefinitionFile))
		rendered, err := schema.Render(node, title)
		if err != nil {
			return "", errors.NewAssembleError(fmt.Sprintf("failed to export '%s'", entry.DefinitionFile), err)
		}
		doc = rendered
	} else {
		env := document.Envelope{Kind: kind, SampleRef: entry.SampleFile}
		if kind == document.KindRequest {
			env.Required = entry.Required
		}
		assembled, err := c.assembler.Assemble(node, env)
		if err != nil {
			return "", errors.NewAssembleError(fmt.Sprintf("failed to assemble '%s'", entry.DefinitionFile), err)
		}
		if c.validator != nil {
			if err := c.validator.Validate(assembled); err != nil {
				return "", withDefinition(entry.DefinitionFile, err)
			}
		}
		doc = assembled
	}

	out, err := c.formatter.Format(doc, c.format)
	if err != nil {
		return "", errors.NewOutputError(fmt.Sprintf("failed to serialize '%s'", entry.DefinitionFile), err)
	}
	return out, nil
}

func writeDefinition(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewOutputError(fmt.Sprintf("failed to create directory for '%s'", path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.NewOutputError(fmt.Sprintf("failed to write '%s'", path), err)
	}
	return nil
}

// withSample prefixes an application error message with the sample path
// unless the message names it already.
func withSample(path string, err error) error {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || strings.Contains(appErr.Message, path) {
		return err
	}
	return &errors.AppError{
		Type:    appErr.Type,
		Message: fmt.Sprintf("sample '%s': %s", path, appErr.Message),
		Err:     appErr.Err,
	}
}

func withDefinition(path string, err error) error {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return err
	}
	return &errors.AppError{
		Type:    appErr.Type,
		Message: fmt.Sprintf("definition '%s': %s", path, appErr.Message),
		Err:     appErr.Err,
	}
}
