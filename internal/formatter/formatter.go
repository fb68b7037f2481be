package formatter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json/jsontext"
	"gopkg.in/yaml.v3"

	"github.com/osroflo/openapi-generator/internal/models"
)

// Format names an output serialization.
type Format string

const (
	FormatYAML       Format = "yaml"
	FormatJSON       Format = "json"
	FormatJSONSchema Format = "jsonschema"
)

// ParseFormat resolves a user supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "jsonschema", "json-schema":
		return FormatJSONSchema, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected yaml, json or jsonschema)", name)
}

// Extension returns the file extension conventionally used for the format.
func (f Format) Extension() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Formatter serializes definition documents. Member order of every object is
// kept as is.
type Formatter struct {
	indent int
}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{indent: 2}
}

// Format serializes v. FormatJSONSchema documents are plain JSON at this
// point and are written like FormatJSON.
func (f *Formatter) Format(v models.JSONValue, format Format) (string, error) {
	switch format {
	case FormatYAML:
		return f.YAML(v)
	case FormatJSON, FormatJSONSchema:
		return f.JSON(v)
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

// YAML renders v as a YAML document.
func (f *Formatter) YAML(v models.JSONValue) (string, error) {
	node, err := yamlNode(v)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(f.indent)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.String(), nil
}

// JSON renders v as indented JSON followed by a newline.
func (f *Formatter) JSON(v models.JSONValue) (string, error) {
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf, jsontext.WithIndent(strings.Repeat(" ", f.indent)), jsontext.SpaceAfterColon(true))
	if err := writeJSON(enc, v); err != nil {
		return "", fmt.Errorf("failed to encode json: %w", err)
	}
	return buf.String(), nil
}

func yamlNode(v models.JSONValue) (*yaml.Node, error) {
	switch val := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case bool:
		text := "false"
		if val {
			text = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: text}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: val}, nil
	case models.Number:
		if val.IsFloat() {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: floatLiteral(val)}, nil
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: val.String()}, nil
	case models.JSONArray:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, elem := range val {
			child, err := yamlNode(elem)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, child)
		}
		return seq, nil
	case models.JSONObject:
		mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range val {
			child, err := yamlNode(m.Value)
			if err != nil {
				return nil, err
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key}
			mapping.Content = append(mapping.Content, key, child)
		}
		return mapping, nil
	}
	return nil, fmt.Errorf("cannot serialize value of type %T", v)
}

// floatLiteral returns the YAML text of a float. Integer literals too large
// for int64 would read back as integers, so they are written in exponent
// form.
func floatLiteral(n models.Number) string {
	text := n.String()
	if strings.ContainsAny(text, ".eE") {
		return text
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return text
	}
	return strconv.FormatFloat(f, 'e', -1, 64)
}

func writeJSON(enc *jsontext.Encoder, v models.JSONValue) error {
	switch val := v.(type) {
	case nil:
		return enc.WriteToken(jsontext.Null)
	case bool:
		return enc.WriteToken(jsontext.Bool(val))
	case string:
		return enc.WriteToken(jsontext.String(val))
	case models.Number:
		return enc.WriteValue(jsontext.Value(val))
	case models.JSONArray:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for _, elem := range val {
			if err := writeJSON(enc, elem); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndArray)
	case models.JSONObject:
		if err := enc.WriteToken(jsontext.BeginObject); err != nil {
			return err
		}
		for _, m := range val {
			if err := enc.WriteToken(jsontext.String(m.Key)); err != nil {
				return err
			}
			if err := writeJSON(enc, m.Value); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndObject)
	}
	return fmt.Errorf("cannot serialize value of type %T", v)
}
