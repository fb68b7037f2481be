package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osroflo/openapi-generator/internal/errors"
	"github.com/osroflo/openapi-generator/internal/models"
	"github.com/osroflo/openapi-generator/internal/parser"
)

func mustParse(t *testing.T, src string) models.JSONValue {
	t.Helper()
	ir, err := parser.ParseString(src)
	require.NoError(t, err)
	return ir.Root
}

func propertyKeys(n *models.Node) []string {
	var keys []string
	if n.Properties == nil {
		return keys
	}
	for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func TestWalker_LeafTypes(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantType   string
		wantFormat string
		example    models.JSONValue
	}{
		{"integer", `{"v": 3}`, models.TypeInteger, "", models.Number("3")},
		{"negative integer", `{"v": -17}`, models.TypeInteger, "", models.Number("-17")},
		{"double", `{"v": 3.14}`, models.TypeNumber, models.FormatDouble, models.Number("3.14")},
		{"exponent", `{"v": 2e3}`, models.TypeNumber, models.FormatDouble, models.Number("2e3")},
		{"whole double", `{"v": 3.0}`, models.TypeNumber, models.FormatDouble, models.Number("3.0")},
		{"string", `{"v": "DEN"}`, models.TypeString, "", "DEN"},
		{"empty string", `{"v": ""}`, models.TypeString, "", ""},
		{"true", `{"v": true}`, models.TypeBoolean, "", true},
		{"false", `{"v": false}`, models.TypeBoolean, "", false},
	}

	w := NewWalker(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := w.Infer(mustParse(t, tt.json))
			leaf := root.Property("v")
			require.NotNil(t, leaf)

			assert.Equal(t, tt.wantType, leaf.Type)
			assert.Equal(t, tt.wantFormat, leaf.Format)
			assert.True(t, leaf.HasExample)
			assert.Equal(t, tt.example, leaf.Example)
			assert.Nil(t, leaf.Description)
			assert.Nil(t, leaf.Properties)
			assert.Nil(t, leaf.Items)
		})
	}
}

func TestWalker_NullLeaf(t *testing.T) {
	root := NewWalker(DefaultOptions()).Infer(mustParse(t, `{"updatedAt": null}`))
	leaf := root.Property("updatedAt")
	require.NotNil(t, leaf)

	assert.Equal(t, models.TypeString, leaf.Type)
	assert.True(t, leaf.Nullable)
	assert.False(t, leaf.HasExample)
}

func TestWalker_TypeTotality(t *testing.T) {
	src := `{
		"s": "x", "i": 1, "f": 1.5, "b": true, "n": null,
		"o": {"k": 1}, "a": [1, 2], "e": [], "eo": {},
		"nested": [[{"deep": [true]}]]
	}`
	leafTypes := map[string]bool{
		models.TypeString: true, models.TypeInteger: true,
		models.TypeNumber: true, models.TypeBoolean: true,
	}

	var visit func(n *models.Node)
	visit = func(n *models.Node) {
		if n.IsLeaf() {
			assert.True(t, leafTypes[n.Type], "unexpected leaf type %q", n.Type)
			return
		}
		assert.Contains(t, []string{models.TypeObject, models.TypeArray}, n.Type)
		assert.False(t, n.HasExample, "container carries an example")
		if n.Type == models.TypeObject {
			assert.Nil(t, n.Items)
			for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
				visit(pair.Value)
			}
		} else {
			assert.Nil(t, n.Properties)
			for _, item := range n.Items {
				visit(item)
			}
		}
	}

	visit(NewWalker(DefaultOptions()).Infer(mustParse(t, src)))
}

func TestWalker_OrderPreservation(t *testing.T) {
	root := NewWalker(DefaultOptions()).Infer(mustParse(t, `{"a":1,"b":2,"c":3}`))
	assert.Equal(t, []string{"a", "b", "c"}, propertyKeys(root))

	root = NewWalker(DefaultOptions()).Infer(mustParse(t, `{"user":{"zip":"1","city":"x","street":"y"}}`))
	assert.Equal(t, []string{"zip", "city", "street"}, propertyKeys(root.Property("user")))
}

func TestWalker_DummySubstitution(t *testing.T) {
	t.Run("configured record", func(t *testing.T) {
		root := NewWalker(DefaultOptions()).Schema(mustParse(t, `{"stopAirports": []}`))
		stops := root.Property("stopAirports")
		require.NotNil(t, stops)

		assert.Equal(t, models.TypeObject, stops.Type)
		assert.Equal(t,
			[]string{"locationCode", "arrivalDateTime", "departureDateTime", "elapsedTime", "duration", "equipment"},
			propertyKeys(stops))
		assert.Equal(t, "DEN", stops.Property("locationCode").Example)
		assert.Equal(t, models.TypeString, stops.Property("elapsedTime").Type)
	})

	t.Run("default placeholder list", func(t *testing.T) {
		root := NewWalker(DefaultOptions()).Schema(mustParse(t, `{"tags": []}`))
		tags := root.Property("tags")
		require.NotNil(t, tags)

		assert.Equal(t, models.TypeArray, tags.Type)
		require.NotNil(t, tags.Item())
		assert.Equal(t, models.TypeString, tags.Item().Type)
		assert.Equal(t, DummyPlaceholder, tags.Item().Example)
	})

	t.Run("empty object uses the placeholder list", func(t *testing.T) {
		root := NewWalker(DefaultOptions()).Schema(mustParse(t, `{"meta": {}}`))
		meta := root.Property("meta")
		require.NotNil(t, meta)
		assert.Equal(t, models.TypeArray, meta.Type)
		assert.Equal(t, models.TypeString, meta.Item().Type)
	})

	t.Run("nested empty array element", func(t *testing.T) {
		root := NewWalker(DefaultOptions()).Schema(mustParse(t, `{"matrix": [[]]}`))
		inner := root.Property("matrix").Item()
		require.NotNil(t, inner)
		assert.Equal(t, models.TypeArray, inner.Type)
		assert.Equal(t, DummyPlaceholder, inner.Item().Example)
	})

	t.Run("scalar dummy becomes a leaf", func(t *testing.T) {
		opts := DefaultOptions()
		opts.DummyValues["note"] = "n/a"
		root := NewWalker(opts).Schema(mustParse(t, `{"note": []}`))
		note := root.Property("note")
		assert.Equal(t, models.TypeString, note.Type)
		assert.Equal(t, "n/a", note.Example)
	})
}

func TestWalker_Capping(t *testing.T) {
	src := `{"segments": [
		{"x": 1},
		{"x": 2, "y": "leak"},
		{"x": 3, "z": true},
		{"w": 4.5},
		{"v": null}
	]}`

	t.Run("raw tree holds only the first element", func(t *testing.T) {
		root := NewWalker(DefaultOptions()).Infer(mustParse(t, src))
		segments := root.Property("segments")
		require.Len(t, segments.Items, 1)
	})

	t.Run("normalized items reflect the first element", func(t *testing.T) {
		root := NewWalker(DefaultOptions()).Schema(mustParse(t, src))
		item := root.Property("segments").Item()
		require.NotNil(t, item)

		assert.Equal(t, models.TypeObject, item.Type)
		assert.Equal(t, []string{"x"}, propertyKeys(item))
		assert.Equal(t, models.Number("1"), item.Property("x").Example)
	})

	t.Run("capped object keeps its first key", func(t *testing.T) {
		root := NewWalker(DefaultOptions()).Infer(mustParse(t, `{"segments": {"b": 1, "a": 2}}`))
		assert.Equal(t, []string{"b"}, propertyKeys(root.Property("segments")))
	})

	t.Run("uncapped keys keep every element", func(t *testing.T) {
		root := NewWalker(DefaultOptions()).Infer(mustParse(t, `{"legs": [{"x": 1}, {"y": 2}]}`))
		assert.Len(t, root.Property("legs").Items, 2)
	})

	t.Run("custom cap list", func(t *testing.T) {
		opts := DefaultOptions()
		opts.CappedKeys = []string{"legs"}
		root := NewWalker(opts).Infer(mustParse(t, `{"legs": [{"x": 1}, {"y": 2}], "segments": [1, 2]}`))
		assert.Len(t, root.Property("legs").Items, 1)
		assert.Len(t, root.Property("segments").Items, 2)
	})
}

func TestWalker_Flags(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeExample = false
	opts.IncludeDescription = true

	root := NewWalker(opts).Infer(mustParse(t, `{"price": 9.99, "tags": ["a"]}`))
	price := root.Property("price")

	assert.False(t, price.HasExample)
	require.NotNil(t, price.Description)
	assert.Equal(t, "", *price.Description)
	assert.Equal(t, models.FormatDouble, price.Format)

	tags := root.Property("tags")
	assert.Nil(t, tags.Description, "containers never carry a description")
	assert.NotNil(t, tags.Items[0].Description)
}

func TestWalker_Root(t *testing.T) {
	w := NewWalker(DefaultOptions())

	t.Run("scalar root has an empty property map", func(t *testing.T) {
		root := w.Infer(mustParse(t, `42`))
		assert.Equal(t, models.TypeObject, root.Type)
		require.NotNil(t, root.Properties)
		assert.Equal(t, 0, root.Properties.Len())
	})

	t.Run("empty object root", func(t *testing.T) {
		root := w.Infer(mustParse(t, `{}`))
		require.NotNil(t, root.Properties)
		assert.Equal(t, 0, root.Properties.Len())
	})

	t.Run("array root is keyed by index", func(t *testing.T) {
		root := w.Infer(mustParse(t, `[{"id": 1}, {"id": 2}]`))
		assert.Equal(t, []string{"0", "1"}, propertyKeys(root))
		assert.Equal(t, models.TypeObject, root.Property("0").Type)
	})
}

func TestWalker_PreOrder(t *testing.T) {
	root := NewWalker(DefaultOptions()).Infer(mustParse(t, `{"a": {"b": [{"c": 1}]}}`))
	a := root.Property("a")
	assert.Equal(t, models.TypeObject, a.Type)
	b := a.Property("b")
	assert.Equal(t, models.TypeArray, b.Type)
	assert.Equal(t, models.TypeObject, b.Items[0].Type)
	assert.Equal(t, models.TypeInteger, b.Items[0].Property("c").Type)
}

func TestWalker_OptionsAreCopied(t *testing.T) {
	opts := DefaultOptions()
	w := NewWalker(opts)

	opts.CappedKeys[0] = "legs"
	opts.DummyValues["tags"] = models.JSONArray{models.Number("1")}

	root := w.Schema(mustParse(t, `{"segments": [1, 2], "tags": []}`))
	assert.Len(t, root.Property("segments").Items, 1)
	assert.Equal(t, models.TypeString, root.Property("tags").Item().Type)
}

func TestWalker_PanicsOnForeignValue(t *testing.T) {
	w := NewWalker(DefaultOptions())
	assert.Panics(t, func() {
		w.Infer(models.JSONObject{{Key: "bad", Value: 3.5}})
	})
}

func TestWalker_BuildReportsForeignValue(t *testing.T) {
	w := NewWalker(DefaultOptions())

	node, err := w.Build(models.JSONObject{{Key: "list", Value: models.JSONArray{int64(7)}}})
	require.Error(t, err)
	assert.Nil(t, node)
	assert.ErrorIs(t, err, &errors.AppError{Type: errors.ErrorTypeInference})
	assert.Contains(t, errors.UserFriendlyError(err), "Schema inference error: value of type int64")
}

func TestWalker_BuildMatchesSchema(t *testing.T) {
	w := NewWalker(DefaultOptions())
	src := `{"id": 1, "tags": [], "segments": [{"x": 1}, {"x": 2}]}`

	node, err := w.Build(mustParse(t, src))
	require.NoError(t, err)
	assert.Equal(t, w.Schema(mustParse(t, src)).ToValue(), node.ToValue())
}

func TestWalker_EndToEndScenario(t *testing.T) {
	root := NewWalker(DefaultOptions()).Schema(mustParse(t, `{"id": 1, "tags": [], "segments": [{"x":1},{"x":2}]}`))

	assert.Equal(t, []string{"id", "tags", "segments"}, propertyKeys(root))

	id := root.Property("id")
	assert.Equal(t, models.TypeInteger, id.Type)
	assert.Equal(t, models.Number("1"), id.Example)

	tags := root.Property("tags")
	assert.Equal(t, models.TypeArray, tags.Type)
	assert.Equal(t, models.TypeString, tags.Item().Type)
	assert.Equal(t, "dummy", tags.Item().Example)

	item := root.Property("segments").Item()
	require.NotNil(t, item)
	assert.Equal(t, []string{"x"}, propertyKeys(item))
	x := item.Property("x")
	assert.Equal(t, models.TypeInteger, x.Type)
	assert.Equal(t, models.Number("1"), x.Example)
}
