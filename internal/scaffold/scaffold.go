// Package scaffold creates path definitions, placeholder definition files,
// empty samples and mapping entries for paths listed in the path index.
package scaffold

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"

	"github.com/osroflo/openapi-generator/internal/errors"
	"github.com/osroflo/openapi-generator/internal/mapping"
	"github.com/osroflo/openapi-generator/internal/models"
	"github.com/osroflo/openapi-generator/internal/parser"
)

// DefaultIndex is the path index location relative to the project root.
const DefaultIndex = "paths/_index.yaml"

// Template placeholders.
const (
	placeholderFileName = "{FILENAME}"
	placeholderPathTag  = "{PATH_TAG}"
)

// Kinds of created files.
const (
	KindPath       = "path"
	KindDefinition = "definition"
	KindSample     = "sample"
	KindMapping    = "mapping"
)

// Created describes a file written by a run.
type Created struct {
	Kind string
	Path string
}

// Scaffolder creates the files for new paths of a project.
type Scaffolder struct {
	root     string
	manifest string
	refs     *gojq.Code
	logger   *slog.Logger
}

// Option customizes a Scaffolder.
type Option func(*Scaffolder)

// WithLogger sets the logger used for progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scaffolder) {
		s.logger = logger
	}
}

// WithManifest sets the mapping file, relative to the root, that new entries
// are appended to.
func WithManifest(path string) Option {
	return func(s *Scaffolder) {
		s.manifest = path
	}
}

// New creates a Scaffolder working below root.
func New(root string, opts ...Option) (*Scaffolder, error) {
	code, err := compileRefs()
	if err != nil {
		return nil, errors.NewScaffoldError("failed to prepare reference lookup", err)
	}
	s := &Scaffolder{
		root:     root,
		manifest: mapping.DefaultPath,
		refs:     code,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// operation is one method of one path of the index.
type operation struct {
	path   string
	method string
	ref    string
}

// Run scaffolds every operation of the index whose path definition does not
// exist yet.
func (s *Scaffolder) Run(ctx context.Context, indexPath string) ([]Created, error) {
	ops, err := s.loadIndex(mapping.ResolvePath(s.root, indexPath))
	if err != nil {
		return nil, err
	}

	var created []Created
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if exists(filepath.Join(s.root, "paths", op.ref)) {
			s.logger.Debug("path definition exists", slog.String("path", op.path), slog.String("method", op.method))
			continue
		}

		s.logger.Info("new path found", slog.String("path", op.path), slog.String("method", op.method))
		files, err := s.scaffold(op)
		created = append(created, files...)
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

// loadIndex reads the path index keeping the order of paths and methods.
func (s *Scaffolder) loadIndex(indexPath string) ([]operation, error) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.NewScaffoldError(fmt.Sprintf("path index '%s' was not found", indexPath), errors.ErrFileNotFound)
		}
		return nil, errors.NewScaffoldError(fmt.Sprintf("failed to read path index '%s'", indexPath), err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewScaffoldError(fmt.Sprintf("failed to parse path index '%s'", indexPath), err)
	}
	if len(doc.Content) == 0 || len(doc.Content[0].Content) == 0 {
		return nil, errors.NewScaffoldError(fmt.Sprintf("the file %s does not have any paths", indexPath), errors.ErrEmptyIndex)
	}
	paths := doc.Content[0]
	if paths.Kind != yaml.MappingNode {
		return nil, errors.NewScaffoldError(fmt.Sprintf("path index '%s' must be a mapping of paths", indexPath), nil)
	}

	var ops []operation
	for i := 0; i+1 < len(paths.Content); i += 2 {
		path, methods := paths.Content[i].Value, paths.Content[i+1]
		if methods.Kind != yaml.MappingNode {
			return nil, errors.NewScaffoldError(fmt.Sprintf("path '%s' (line %d) must map methods to references", path, methods.Line), nil)
		}
		for j := 0; j+1 < len(methods.Content); j += 2 {
			method, target := methods.Content[j].Value, methods.Content[j+1]
			ref := refOf(target)
			if ref == "" {
				return nil, errors.NewScaffoldError(fmt.Sprintf("%s %s (line %d) has no $ref", strings.ToUpper(method), path, target.Line), nil)
			}
			ops = append(ops, operation{path: path, method: method, ref: ref})
		}
	}
	return ops, nil
}

func refOf(node *yaml.Node) string {
	if node.Kind != yaml.MappingNode {
		return ""
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "$ref" {
			return node.Content[i+1].Value
		}
	}
	return ""
}

// scaffold writes the path definition for op and everything it references.
func (s *Scaffolder) scaffold(op operation) ([]Created, error) {
	var created []Created

	name := stem(op.ref)
	content, err := s.renderTemplate(name, op)
	if err != nil {
		return nil, err
	}
	pathFile := filepath.Join(s.root, "paths", name+".yaml")
	if err := os.WriteFile(pathFile, []byte(content), 0o644); err != nil {
		return nil, errors.NewScaffoldError(fmt.Sprintf("failed to write '%s'", pathFile), err)
	}
	created = append(created, Created{Kind: KindPath, Path: pathFile})
	s.logger.Info("path definition created from template", slog.String("file", pathFile))

	refs, err := s.references(content, pathFile)
	if err != nil {
		return created, err
	}

	var def mapping.Definition
	if refs.RequestBody != "" {
		entry, files, err := s.placeholders(refs.RequestBody, "RequestBody", "schemas")
		created = append(created, files...)
		if err != nil {
			return created, err
		}
		def.RequestBody = &entry
	}
	for _, r := range refs.Responses {
		entry, files, err := s.placeholders(r.Ref, "Response"+r.Code, "responses")
		created = append(created, files...)
		if err != nil {
			return created, err
		}
		def.Responses = append(def.Responses, entry)
	}

	if def.RequestBody == nil && len(def.Responses) == 0 {
		s.logger.Warn("path definition references no definitions", slog.String("file", pathFile))
		return created, nil
	}

	manifest := mapping.ResolvePath(s.root, s.manifest)
	if err := mapping.Append(manifest, def); err != nil {
		return created, err
	}
	created = append(created, Created{Kind: KindMapping, Path: manifest})
	s.logger.Info("mapping added", slog.String("file", manifest))
	return created, nil
}

// renderTemplate fills the path template for op. A method specific template
// (template.<method>.yaml) wins over the generic one.
func (s *Scaffolder) renderTemplate(name string, op operation) (string, error) {
	templateFile := filepath.Join(s.root, "paths", "template."+op.method+".yaml")
	if !isFile(templateFile) {
		templateFile = filepath.Join(s.root, "paths", "template.yaml")
	}
	data, err := os.ReadFile(templateFile)
	if err != nil {
		return "", errors.NewScaffoldError(fmt.Sprintf("failed to read path template '%s'", templateFile), err)
	}

	replacer := strings.NewReplacer(
		placeholderFileName, name+strcase.ToCamel(op.method),
		placeholderPathTag, strings.TrimPrefix(op.path, "/"),
	)
	return replacer.Replace(string(data)), nil
}

// references decodes a rendered path definition and looks up its $refs.
func (s *Scaffolder) references(content, pathFile string) (References, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return References{}, errors.NewScaffoldError(fmt.Sprintf("failed to parse '%s'", pathFile), err)
	}
	if len(doc.Content) == 0 {
		return References{}, nil
	}
	value, err := parser.FromYAMLNode(&doc)
	if err != nil {
		return References{}, errors.NewScaffoldError(fmt.Sprintf("failed to decode '%s'", pathFile), err)
	}
	refs, err := findReferences(s.refs, models.ToAny(value), responseCodes(value))
	if err != nil {
		return References{}, errors.NewScaffoldError(fmt.Sprintf("failed to find references in '%s'", pathFile), err)
	}
	return refs, nil
}

// placeholders touches the referenced definition file and an empty sample
// for it, and returns the mapping entry pairing them. References are
// relative to the paths directory.
func (s *Scaffolder) placeholders(ref, suffix, dir string) (mapping.Entry, []Created, error) {
	var created []Created

	definition := filepath.Join(s.root, strings.TrimPrefix(ref, "."))
	made, err := touch(definition)
	if err != nil {
		return mapping.Entry{}, created, errors.NewScaffoldError(fmt.Sprintf("failed to create definition '%s'", definition), err)
	}
	if made {
		created = append(created, Created{Kind: KindDefinition, Path: definition})
		s.logger.Info("empty definition file created", slog.String("file", definition))
	}

	sampleName := stem(ref) + suffix + ".json"
	sample := filepath.Join(s.root, "samples", sampleName)
	made, err = touch(sample)
	if err != nil {
		return mapping.Entry{}, created, errors.NewScaffoldError(fmt.Sprintf("failed to create sample '%s'", sample), err)
	}
	if made {
		created = append(created, Created{Kind: KindSample, Path: sample})
		s.logger.Info("empty sample json file created", slog.String("file", sample))
	}

	return mapping.Entry{
		DefinitionFile: "../" + dir + "/" + filepath.Base(definition),
		SampleFile:     "../samples/" + sampleName,
	}, created, nil
}

// touch creates an empty file unless it exists. It reports whether the file
// was created.
func touch(path string) (bool, error) {
	if exists(path) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	return true, f.Close()
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
