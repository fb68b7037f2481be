package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osroflo/openapi-generator/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		value  models.JSONValue
		legacy bool
		want   Kind
	}{
		{"record", models.JSONObject{{Key: "a", Value: models.Number("1")}}, false, KindObject},
		{"empty object", models.JSONObject{}, false, KindArray},
		{"list", models.JSONArray{"a"}, false, KindArray},
		{"empty list", models.JSONArray{}, false, KindArray},
		{"string", "x", false, KindScalar},
		{"null", nil, false, KindScalar},
		{"numeric keys", models.JSONObject{{Key: "0", Value: "a"}, {Key: "1", Value: "b"}}, false, KindObject},
		{"numeric keys legacy", models.JSONObject{{Key: "0", Value: "a"}, {Key: "1", Value: "b"}}, true, KindArray},
		{"mixed keys legacy", models.JSONObject{{Key: "name", Value: "a"}, {Key: "7", Value: "b"}}, true, KindArray},
		{"empty key legacy", models.JSONObject{{Key: "", Value: "a"}}, true, KindArray},
		{"padded number key legacy", models.JSONObject{{Key: "007", Value: "a"}}, true, KindObject},
		{"string keys legacy", models.JSONObject{{Key: "id", Value: "a"}}, true, KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.value, tt.legacy))
		})
	}
}

func TestIsIntegerKey(t *testing.T) {
	for key, want := range map[string]bool{
		"0":                    true,
		"42":                   true,
		"-3":                   true,
		"":                     false,
		"-0":                   false,
		"01":                   false,
		"+1":                   false,
		"1.0":                  false,
		"1e3":                  false,
		"abc":                  false,
		"99999999999999999999": false,
	} {
		assert.Equal(t, want, isIntegerKey(key), key)
	}
}

func TestLegacyKeys_WalksRecordAsList(t *testing.T) {
	opts := DefaultOptions()
	opts.LegacyKeys = true

	root := NewWalker(opts).Schema(models.JSONObject{
		{Key: "byIndex", Value: models.JSONObject{
			{Key: "0", Value: models.JSONObject{{Key: "code", Value: "DEN"}}},
			{Key: "1", Value: models.JSONObject{{Key: "code", Value: "SFO"}}},
		}},
	})

	byIndex := root.Property("byIndex")
	assert.Equal(t, models.TypeArray, byIndex.Type)
	assert.Equal(t, "DEN", byIndex.Item().Property("code").Example)
}

func TestOpenAPIType(t *testing.T) {
	assert.Equal(t, models.TypeNumber, openAPIType("double"))
	assert.Equal(t, models.TypeNumber, openAPIType("float"))
	assert.Equal(t, models.TypeString, openAPIType("null"))
	assert.Equal(t, models.TypeInteger, openAPIType(models.TypeInteger))
}
