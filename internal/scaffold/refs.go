package scaffold

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/itchyny/gojq"

	"github.com/osroflo/openapi-generator/internal/models"
)

// refsProgram picks the last $ref found below the request body and below
// every response of a path definition.
const refsProgram = `
def ref: [.. | objects | select(has("$ref")) | .["$ref"] | strings] | last;
{
  requestBody: ((.requestBody // {}) | ref),
  responses: [
    (.responses // {})
    | if type == "object" then to_entries[] else empty end
    | {code: (.key | tostring), ref: (.value | ref)}
    | select(.ref != null)
  ]
}`

// References lists the definition references of a path definition.
type References struct {
	RequestBody string
	Responses   []ResponseRef
}

// ResponseRef is the definition reference of one response code.
type ResponseRef struct {
	Code string
	Ref  string
}

func compileRefs() (*gojq.Code, error) {
	query, err := gojq.Parse(refsProgram)
	if err != nil {
		return nil, fmt.Errorf("invalid reference query: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reference query: %w", err)
	}
	return code, nil
}

// findReferences runs code against a decoded path definition. gojq visits
// object keys in sorted order; responses are put back in the order given by
// codes, the response codes as they appear in the source document.
func findReferences(code *gojq.Code, doc any, codes []string) (References, error) {
	var refs References
	if _, ok := doc.(map[string]any); !ok {
		return refs, fmt.Errorf("path definition must be a mapping, got %T", doc)
	}

	iter := code.Run(doc)
	v, ok := iter.Next()
	if !ok {
		return refs, fmt.Errorf("reference query produced no result")
	}
	if err, isErr := v.(error); isErr {
		return refs, fmt.Errorf("reference query failed: %w", err)
	}

	result, ok := v.(map[string]any)
	if !ok {
		return refs, fmt.Errorf("unexpected reference query result %T", v)
	}
	refs.RequestBody, _ = result["requestBody"].(string)
	responses, _ := result["responses"].([]any)
	for _, r := range responses {
		entry, ok := r.(map[string]any)
		if !ok {
			continue
		}
		code, _ := entry["code"].(string)
		ref, _ := entry["ref"].(string)
		refs.Responses = append(refs.Responses, ResponseRef{Code: code, Ref: ref})
	}

	rank := make(map[string]int, len(codes))
	for i, c := range codes {
		rank[c] = i
	}
	position := func(c string) int {
		if i, ok := rank[c]; ok {
			return i
		}
		return len(codes)
	}
	slices.SortStableFunc(refs.Responses, func(a, b ResponseRef) int {
		return cmp.Compare(position(a.Code), position(b.Code))
	})
	return refs, nil
}

// responseCodes lists the keys of the responses mapping of a path
// definition in document order.
func responseCodes(doc models.JSONValue) []string {
	obj, ok := doc.(models.JSONObject)
	if !ok {
		return nil
	}
	responses, ok := obj.Get("responses")
	if !ok {
		return nil
	}
	codes, ok := responses.(models.JSONObject)
	if !ok {
		return nil
	}
	return codes.Keys()
}
