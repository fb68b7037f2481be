package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/osroflo/openapi-generator/internal/models"
)

// FromYAMLNode converts a decoded YAML node into the JSON value model,
// keeping mapping order. Mapping keys are taken verbatim, so `200:` becomes
// the key "200".
func FromYAMLNode(node *yaml.Node) (models.JSONValue, error) {
	if node == nil {
		return nil, nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return FromYAMLNode(node.Content[0])
	case yaml.AliasNode:
		return FromYAMLNode(node.Alias)
	case yaml.MappingNode:
		obj := make(models.JSONObject, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			value, err := FromYAMLNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj = append(obj, models.Member{Key: node.Content[i].Value, Value: value})
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make(models.JSONArray, 0, len(node.Content))
		for _, child := range node.Content {
			value, err := FromYAMLNode(child)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		return arr, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(node)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", node.Line, node.Kind)
	}
}

func fromYAMLScalar(node *yaml.Node) (models.JSONValue, error) {
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return b, nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return models.Number(strconv.FormatInt(i, 10)), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("line %d: %q has no JSON representation", node.Line, node.Value)
		}
		text := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		return models.Number(text), nil
	default:
		return node.Value, nil
	}
}
