package models

import (
	"fmt"
	"strconv"
	"strings"
)

// JSONValue is a generic type to represent any JSON value.
// It is one of: nil, bool, string, Number, JSONArray or JSONObject.
type JSONValue interface{}

// Member is a single key/value pair of a JSON object.
type Member struct {
	Key   string
	Value JSONValue
}

// JSONObject represents a JSON object as an ordered list of members.
// The order is the order in which the keys appeared in the source document.
type JSONObject []Member

// JSONArray represents a JSON array, which is a slice of JSONValues.
type JSONArray []JSONValue

// Number holds the literal text of a JSON number.
type Number string

// IsFloat reports whether the literal is a floating point number: it has a
// fraction or an exponent, or it is an integer too large for int64.
func (n Number) IsFloat() bool {
	if strings.ContainsAny(string(n), ".eE") {
		return true
	}
	_, err := strconv.ParseInt(string(n), 10, 64)
	return err != nil
}

// Int64 returns the number as an int64.
func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Float64 returns the number as a float64.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// String returns the literal text.
func (n Number) String() string {
	return string(n)
}

// Len returns the number of members.
func (o JSONObject) Len() int {
	return len(o)
}

// Get returns the value of the first member named key.
func (o JSONObject) Get(key string) (JSONValue, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns the member keys in order.
func (o JSONObject) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// IntermediateRepresentation holds a decoded sample document.
type IntermediateRepresentation struct {
	Root        JSONValue
	RootIsArray bool // True if the root of the JSON is an array vs an object
}

// ToAny converts a JSONValue into plain Go values: map[string]any, []any,
// int or float64 for numbers. Member order is lost in the conversion.
func ToAny(v JSONValue) any {
	switch val := v.(type) {
	case nil, bool, string:
		return val
	case Number:
		if !val.IsFloat() {
			if i, err := val.Int64(); err == nil {
				return int(i)
			}
		}
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return f
	case JSONObject:
		out := make(map[string]any, len(val))
		for _, m := range val {
			out[m.Key] = ToAny(m.Value)
		}
		return out
	case JSONArray:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	default:
		panic(fmt.Sprintf("models: unexpected json value type %T", v))
	}
}

// IsEmptyContainer reports whether v is an object or array without entries.
func IsEmptyContainer(v JSONValue) bool {
	switch val := v.(type) {
	case JSONObject:
		return len(val) == 0
	case JSONArray:
		return len(val) == 0
	}
	return false
}
