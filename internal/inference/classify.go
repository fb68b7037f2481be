package inference

import (
	"strconv"

	"github.com/osroflo/openapi-generator/internal/models"
)

// Kind is the structural classification of a JSON value.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return models.TypeObject
	case KindArray:
		return models.TypeArray
	default:
		return "scalar"
	}
}

// Classify decides whether v is described as an object, an array or a
// scalar. A container is an object only when it is a non-empty keyed
// record. With legacyKeys set, objects whose keys include an empty key or a
// canonical integer are treated as arrays, as they were when keyed records
// and lists shared one container type.
func Classify(v models.JSONValue, legacyKeys bool) Kind {
	switch val := v.(type) {
	case models.JSONArray:
		return KindArray
	case models.JSONObject:
		if IsObject(val, legacyKeys) {
			return KindObject
		}
		return KindArray
	default:
		return KindScalar
	}
}

// IsObject reports whether obj behaves as a keyed record.
func IsObject(obj models.JSONObject, legacyKeys bool) bool {
	if len(obj) == 0 {
		return false
	}
	if !legacyKeys {
		return true
	}
	for _, m := range obj {
		if m.Key == "" || isIntegerKey(m.Key) {
			return false
		}
	}
	return true
}

// isIntegerKey reports whether key is the canonical decimal form of an
// integer: no sign other than a leading '-', no leading zeros, fits int64.
func isIntegerKey(key string) bool {
	if key == "" || key == "-0" {
		return false
	}
	digits := key
	if digits[0] == '-' {
		digits = digits[1:]
	}
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, err := strconv.ParseInt(key, 10, 64)
	return err == nil
}

// isContainer reports whether v is an object or an array.
func isContainer(v models.JSONValue) bool {
	switch v.(type) {
	case models.JSONObject, models.JSONArray:
		return true
	}
	return false
}

// entry is a key/value pair of a container in source order. Array elements
// are keyed by their decimal index.
type entry struct {
	key   string
	value models.JSONValue
}

func entries(v models.JSONValue) []entry {
	switch val := v.(type) {
	case models.JSONObject:
		out := make([]entry, len(val))
		for i, m := range val {
			out[i] = entry{key: m.Key, value: m.Value}
		}
		return out
	case models.JSONArray:
		out := make([]entry, len(val))
		for i, elem := range val {
			out[i] = entry{key: strconv.Itoa(i), value: elem}
		}
		return out
	}
	return nil
}

// firstEntry truncates a container to its first entry, keeping its key.
func firstEntry(v models.JSONValue) models.JSONValue {
	switch val := v.(type) {
	case models.JSONObject:
		if len(val) > 1 {
			return val[:1]
		}
	case models.JSONArray:
		if len(val) > 1 {
			return val[:1]
		}
	}
	return v
}

// scalarType returns the runtime type name of a scalar value.
func scalarType(v models.JSONValue) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return models.TypeBoolean
	case string:
		return models.TypeString
	case models.Number:
		if val.IsFloat() {
			return "double"
		}
		return models.TypeInteger
	default:
		// The decoder only produces the closed set above.
		panic(invariantViolation(v))
	}
}

// openAPIType maps a runtime type name to a type OpenAPI accepts.
func openAPIType(t string) string {
	switch t {
	case "double", "float":
		return models.TypeNumber
	case "null":
		return models.TypeString
	default:
		return t
	}
}
