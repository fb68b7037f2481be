// Package inference turns decoded JSON samples into schema trees.
//
// A Walker infers a raw tree from a sample; Normalize then prunes empty
// branches and collapses array items to a single representative element.
package inference

import (
	"fmt"

	"github.com/osroflo/openapi-generator/internal/errors"
	"github.com/osroflo/openapi-generator/internal/models"
)

// DummyPlaceholder is the element of the list substituted for an empty
// container that has no configured dummy value.
const DummyPlaceholder = "dummy"

// Options configures a Walker. Options are copied by NewWalker and cannot
// change during a walk.
type Options struct {
	// IncludeExample attaches the observed literal to every leaf.
	IncludeExample bool
	// IncludeDescription attaches an empty description to every leaf.
	IncludeDescription bool
	// CappedKeys lists keys whose containers are truncated to their first
	// element before inference.
	CappedKeys []string
	// DummyValues maps a key to the value used when its container is empty.
	DummyValues map[string]models.JSONValue
	// LegacyKeys classifies objects with integer-like or empty keys as arrays.
	LegacyKeys bool
	// KeepFalsy keeps falsy examples and empty descriptions through
	// normalization.
	KeepFalsy bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		IncludeExample:     true,
		IncludeDescription: false,
		CappedKeys:         []string{"segments"},
		DummyValues: map[string]models.JSONValue{
			"stopAirports": models.JSONObject{
				{Key: "locationCode", Value: "DEN"},
				{Key: "arrivalDateTime", Value: "2019-01-16T11:13:00"},
				{Key: "departureDateTime", Value: "2019-01-16T14:00:00"},
				{Key: "elapsedTime", Value: "268"},
				{Key: "duration", Value: "268"},
				{Key: "equipment", Value: "738"},
			},
		},
	}
}

// Walker infers schema trees from JSON values.
type Walker struct {
	includeExample     bool
	includeDescription bool
	legacyKeys         bool
	keepFalsy          bool
	capped             map[string]struct{}
	dummies            map[string]models.JSONValue
}

// NewWalker creates a Walker from opts.
func NewWalker(opts Options) *Walker {
	w := &Walker{
		includeExample:     opts.IncludeExample,
		includeDescription: opts.IncludeDescription,
		legacyKeys:         opts.LegacyKeys,
		keepFalsy:          opts.KeepFalsy,
		capped:             make(map[string]struct{}, len(opts.CappedKeys)),
		dummies:            make(map[string]models.JSONValue, len(opts.DummyValues)),
	}
	for _, key := range opts.CappedKeys {
		w.capped[key] = struct{}{}
	}
	for key, value := range opts.DummyValues {
		w.dummies[key] = value
	}
	return w
}

// Infer walks root and returns the raw schema tree. The returned node is
// always an object node with a non-nil property map holding one entry per
// entry of root; a scalar root yields an empty map.
func (w *Walker) Infer(root models.JSONValue) *models.Node {
	node := &models.Node{
		Type:       models.TypeObject,
		Properties: models.NewProperties(),
	}
	for _, e := range entries(root) {
		node.Properties.Set(e.key, w.walk(e.key, e.value))
	}
	return node
}

// Schema infers and normalizes the tree for root.
func (w *Walker) Schema(root models.JSONValue) *models.Node {
	node := w.Infer(root)
	NormalizeWith(node, w.keepFalsy)
	return node
}

// Build is Schema for values that did not come from the parser. A value
// outside the JSON value model is reported as an inference error instead of
// a panic.
func (w *Walker) Build(root models.JSONValue) (node *models.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg, ok := r.(invariantError)
			if !ok {
				panic(r)
			}
			node, err = nil, errors.NewInferenceError(string(msg), nil)
		}
	}()
	return w.Schema(root), nil
}

// walk infers the node for the value found under key.
func (w *Walker) walk(key string, value models.JSONValue) *models.Node {
	if !isContainer(value) {
		return w.leaf(value)
	}

	if models.IsEmptyContainer(value) {
		value = w.dummy(key)
		if !isContainer(value) {
			return w.leaf(value)
		}
	}
	if _, ok := w.capped[key]; ok {
		value = firstEntry(value)
	}

	// The container type is fixed before its children are inferred.
	if Classify(value, w.legacyKeys) == KindObject {
		node := &models.Node{Type: models.TypeObject, Properties: models.NewProperties()}
		for _, e := range entries(value) {
			node.Properties.Set(e.key, w.walk(e.key, e.value))
		}
		return node
	}

	node := &models.Node{Type: models.TypeArray, Items: []*models.Node{}}
	for _, e := range entries(value) {
		node.Items = append(node.Items, w.walk(e.key, e.value))
	}
	return node
}

// leaf builds the node for a scalar value.
func (w *Walker) leaf(value models.JSONValue) *models.Node {
	runtimeType := scalarType(value)
	node := &models.Node{Type: openAPIType(runtimeType)}

	if value == nil {
		node.Nullable = true
	} else if w.includeExample {
		node.Example = value
		node.HasExample = true
	}
	if node.Type == models.TypeNumber && runtimeType == "double" {
		node.Format = models.FormatDouble
	}
	if w.includeDescription {
		description := ""
		node.Description = &description
	}
	return node
}

// dummy returns the placeholder for an empty container found under key.
func (w *Walker) dummy(key string) models.JSONValue {
	if value, ok := w.dummies[key]; ok {
		return value
	}
	return models.JSONArray{DummyPlaceholder}
}

// invariantError is the panic value raised for values the decoder never
// produces.
type invariantError string

func invariantViolation(v models.JSONValue) invariantError {
	return invariantError(fmt.Sprintf("value of type %T is not part of the JSON value model", v))
}
