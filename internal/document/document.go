// Package document wraps normalized schema trees into definition documents.
package document

import (
	"fmt"
	"strings"

	"github.com/osroflo/openapi-generator/internal/models"
)

// Kind selects the envelope layout of a definition document.
type Kind string

const (
	KindRequest  Kind = "request"
	KindResponse Kind = "response"
)

// ParseKind resolves a user supplied envelope kind.
func ParseKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case KindRequest, "requestbody":
		return KindRequest, nil
	case KindResponse, "":
		return KindResponse, nil
	}
	return "", fmt.Errorf("unknown document kind %q (expected request or response)", name)
}

// Envelope carries the per-definition values that surround the properties.
type Envelope struct {
	Kind Kind
	// SampleRef is written verbatim as the example reference.
	SampleRef string
	// Required lists required property names. Only request bodies carry it.
	Required []string
}

// Assembler builds definition documents from normalized schema trees.
type Assembler struct{}

// NewAssembler creates a new Assembler instance
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble wraps the properties of root in the envelope described by env.
//
// Request bodies are laid out as required (when present), type, properties,
// example. Responses are laid out as type, example, properties. An empty
// property set is written as an empty object.
func (a *Assembler) Assemble(root *models.Node, env Envelope) (models.JSONObject, error) {
	if root == nil {
		return nil, fmt.Errorf("cannot assemble a definition without a schema")
	}

	properties := models.PropertiesValue(root.Properties)
	example := models.JSONObject{{Key: "$ref", Value: env.SampleRef}}

	switch env.Kind {
	case KindRequest:
		doc := models.JSONObject{}
		if len(env.Required) > 0 {
			required := make(models.JSONArray, len(env.Required))
			for i, name := range env.Required {
				required[i] = name
			}
			doc = append(doc, models.Member{Key: "required", Value: required})
		}
		return append(doc,
			models.Member{Key: "type", Value: models.TypeObject},
			models.Member{Key: "properties", Value: properties},
			models.Member{Key: "example", Value: example},
		), nil
	case KindResponse:
		return models.JSONObject{
			{Key: "type", Value: models.TypeObject},
			{Key: "example", Value: example},
			{Key: "properties", Value: properties},
		}, nil
	}
	return nil, fmt.Errorf("unknown document kind %q", env.Kind)
}
