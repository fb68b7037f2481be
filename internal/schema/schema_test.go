package schema

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osroflo/openapi-generator/internal/document"
	"github.com/osroflo/openapi-generator/internal/errors"
	"github.com/osroflo/openapi-generator/internal/inference"
	"github.com/osroflo/openapi-generator/internal/models"
	"github.com/osroflo/openapi-generator/internal/parser"
)

func schemaFor(t *testing.T, src string, opts inference.Options) *models.Node {
	t.Helper()
	ir, err := parser.ParseString(src)
	require.NoError(t, err)
	return inference.NewWalker(opts).Schema(ir.Root)
}

func TestToJSONSchema(t *testing.T) {
	root := schemaFor(t, `{"id": 7, "price": 1.5, "name": null, "tags": ["a"], "owner": {"login": "x"}}`, inference.DefaultOptions())

	s := ToJSONSchema(root)
	require.NotNil(t, s.Properties)
	assert.Equal(t, "object", s.Type)

	var keys []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"id", "price", "name", "tags", "owner"}, keys)

	id, _ := s.Properties.Get("id")
	assert.Equal(t, "integer", id.Type)
	assert.Equal(t, []any{7}, id.Examples)

	price, _ := s.Properties.Get("price")
	assert.Equal(t, "number", price.Type)
	assert.Equal(t, "double", price.Format)

	name, _ := s.Properties.Get("name")
	require.Len(t, name.AnyOf, 2)
	assert.Equal(t, "string", name.AnyOf[0].Type)
	assert.Equal(t, "null", name.AnyOf[1].Type)

	tags, _ := s.Properties.Get("tags")
	assert.Equal(t, "array", tags.Type)
	require.NotNil(t, tags.Items)
	assert.Equal(t, "string", tags.Items.Type)

	owner, _ := s.Properties.Get("owner")
	login, ok := owner.Properties.Get("login")
	require.True(t, ok)
	assert.Equal(t, []any{"x"}, login.Examples)
}

func TestToJSONSchema_ArrayWithoutItems(t *testing.T) {
	s := ToJSONSchema(&models.Node{Type: models.TypeArray})
	assert.Equal(t, "array", s.Type)
	assert.Nil(t, s.Items)
}

func TestRender(t *testing.T) {
	root := schemaFor(t, `{"b": true, "a": "x"}`, inference.DefaultOptions())

	v, err := Render(root, "Sample")
	require.NoError(t, err)

	obj, ok := v.(models.JSONObject)
	require.True(t, ok)

	version, _ := obj.Get("$schema")
	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", version)
	title, _ := obj.Get("title")
	assert.Equal(t, "Sample", title)

	props, ok := obj.Get("properties")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, props.(models.JSONObject).Keys())
}

func TestValidator_AcceptsAssembledDocuments(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	opts := inference.DefaultOptions()
	opts.IncludeDescription = true
	samples := []string{
		`{"id": 1, "price": 2.5, "ok": false, "missing": null}`,
		`{"segments": [{"x": 1}, {"x": 2}], "stopAirports": [], "tags": []}`,
		`{"matrix": [[1, 2], [3]], "deep": {"deeper": {"deepest": "x"}}}`,
		`{}`,
		`[{"a": 1}]`,
	}
	for _, src := range samples {
		for _, kind := range []document.Kind{document.KindRequest, document.KindResponse} {
			t.Run(string(kind)+" "+src, func(t *testing.T) {
				doc, err := document.NewAssembler().Assemble(schemaFor(t, src, opts), document.Envelope{
					Kind:      kind,
					SampleRef: "../samples/sample.json",
					Required:  []string{"id"},
				})
				require.NoError(t, err)

				assert.Empty(t, v.Problems(doc))
				assert.NoError(t, v.Validate(doc))
			})
		}
	}
}

func TestValidator_RejectsMalformedDocuments(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  models.JSONObject
	}{
		{
			name: "missing properties",
			doc: models.JSONObject{
				{Key: "type", Value: "object"},
				{Key: "example", Value: models.JSONObject{{Key: "$ref", Value: "x.json"}}},
			},
		},
		{
			name: "wrong root type",
			doc: models.JSONObject{
				{Key: "type", Value: "array"},
				{Key: "example", Value: models.JSONObject{{Key: "$ref", Value: "x.json"}}},
				{Key: "properties", Value: models.JSONObject{}},
			},
		},
		{
			name: "unknown property type",
			doc: models.JSONObject{
				{Key: "type", Value: "object"},
				{Key: "example", Value: models.JSONObject{{Key: "$ref", Value: "x.json"}}},
				{Key: "properties", Value: models.JSONObject{
					{Key: "id", Value: models.JSONObject{{Key: "type", Value: "double"}}},
				}},
			},
		},
		{
			name: "unexpected keyword",
			doc: models.JSONObject{
				{Key: "type", Value: "object"},
				{Key: "example", Value: models.JSONObject{{Key: "$ref", Value: "x.json"}}},
				{Key: "properties", Value: models.JSONObject{}},
				{Key: "extra", Value: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, v.Problems(tt.doc))

			err := v.Validate(tt.doc)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidDocument))

			var appErr *errors.AppError
			require.True(t, stderrors.As(err, &appErr))
			assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
		})
	}
}

func TestMetaSchema(t *testing.T) {
	s := MetaSchema()
	require.NotNil(t, s)
	assert.Empty(t, s.ID)
	assert.Contains(t, s.Definitions, "definition")
	assert.Contains(t, s.Definitions, "property")
}
