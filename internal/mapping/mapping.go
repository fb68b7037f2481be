// Package mapping reads and writes the manifest that pairs sample files with
// the definition files generated from them.
package mapping

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/osroflo/openapi-generator/internal/errors"
)

// DefaultPath is the manifest location relative to the project root.
const DefaultPath = "config/mapping.json"

// Manifest is the content of a mapping file.
type Manifest struct {
	Definitions []Definition `json:"definitions"`
}

// Definition groups the request body and responses of one endpoint.
type Definition struct {
	RequestBody *Entry  `json:"requestBody,omitempty"`
	Responses   []Entry `json:"responses,omitempty"`
}

// Entry pairs a sample with the definition file generated from it.
type Entry struct {
	DefinitionFile string   `json:"definitionFile"`
	SampleFile     string   `json:"sampleFile"`
	Required       []string `json:"required,omitempty"`
}

// Load reads the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.NewMappingError(fmt.Sprintf("mapping file '%s' was not found", path), errors.ErrFileNotFound)
		}
		return nil, errors.NewMappingError(fmt.Sprintf("failed to read mapping file '%s'", path), err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, errors.NewMappingError(fmt.Sprintf("mapping file '%s' is empty", path), errors.ErrFileEmpty)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewMappingError(fmt.Sprintf("failed to parse mapping file '%s'", path), err)
	}
	return &m, nil
}

// Save writes the manifest to path, creating parent directories as needed.
func (m *Manifest) Save(path string) error {
	data, err := json.Marshal(m, jsontext.WithIndent("  "), jsontext.SpaceAfterColon(true))
	if err != nil {
		return errors.NewMappingError("failed to encode mapping", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewMappingError(fmt.Sprintf("failed to create directory for '%s'", path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.NewMappingError(fmt.Sprintf("failed to write mapping file '%s'", path), err)
	}
	return nil
}

// Append adds def to the manifest at path. A missing or empty manifest is
// started from scratch.
func Append(path string, def Definition) error {
	m, err := Load(path)
	if err != nil {
		if !stderrors.Is(err, errors.ErrFileNotFound) && !stderrors.Is(err, errors.ErrFileEmpty) {
			return err
		}
		m = &Manifest{}
	}
	m.Definitions = append(m.Definitions, def)
	return m.Save(path)
}

// Requests returns the request body entries in manifest order.
func (m *Manifest) Requests() []Entry {
	var out []Entry
	for _, def := range m.Definitions {
		if def.RequestBody != nil {
			out = append(out, *def.RequestBody)
		}
	}
	return out
}

// Responses returns the response entries in manifest order.
func (m *Manifest) Responses() []Entry {
	var out []Entry
	for _, def := range m.Definitions {
		out = append(out, def.Responses...)
	}
	return out
}

// ResolvePath maps a manifest path onto the filesystem. A leading ".." stands
// for the project root; other relative paths are taken relative to it.
func ResolvePath(root, p string) string {
	switch {
	case strings.HasPrefix(p, ".."):
		return filepath.Join(root, p[2:])
	case filepath.IsAbs(p):
		return p
	default:
		return filepath.Join(root, p)
	}
}
