// Package schema exports inferred schema trees as JSON Schema documents and
// validates assembled definition documents.
package schema

import (
	"bytes"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/invopop/jsonschema"

	"github.com/osroflo/openapi-generator/internal/models"
	"github.com/osroflo/openapi-generator/internal/parser"
)

// ToJSONSchema converts a normalized node into its JSON Schema (draft
// 2020-12) form. Nullable leaves become an anyOf of their type and null,
// examples become a one element examples list.
func ToJSONSchema(n *models.Node) *jsonschema.Schema {
	if n == nil {
		return &jsonschema.Schema{}
	}

	switch n.Type {
	case models.TypeObject:
		s := &jsonschema.Schema{Type: models.TypeObject, Properties: jsonschema.NewProperties()}
		if n.Properties != nil {
			for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
				s.Properties.Set(pair.Key, ToJSONSchema(pair.Value))
			}
		}
		return s
	case models.TypeArray:
		s := &jsonschema.Schema{Type: models.TypeArray}
		if item := n.Item(); item != nil {
			s.Items = ToJSONSchema(item)
		}
		return s
	}

	s := &jsonschema.Schema{Type: n.Type, Format: n.Format}
	if n.Description != nil {
		s.Description = *n.Description
	}
	if n.HasExample {
		s.Examples = []any{models.ToAny(n.Example)}
	}
	if n.Nullable {
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{s, {Type: "null"}}}
	}
	return s
}

// Export builds a standalone JSON Schema document for root.
func Export(root *models.Node, title string) *jsonschema.Schema {
	s := ToJSONSchema(root)
	s.Version = jsonschema.Version
	s.Title = title
	return s
}

// Render exports root and decodes the result back into an ordered value so
// it can be handed to the formatter like any other document.
func Render(root *models.Node, title string) (models.JSONValue, error) {
	data, err := json.Marshal(Export(root, title))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json schema: %w", err)
	}
	ir, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode json schema: %w", err)
	}
	return ir.Root, nil
}
