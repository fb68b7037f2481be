package schema

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/invopop/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/osroflo/openapi-generator/internal/errors"
	"github.com/osroflo/openapi-generator/internal/models"
)

// definition describes the documents produced by the assembler.
type definition struct {
	Required   []string             `json:"required,omitempty" jsonschema:"minItems=1"`
	Type       string               `json:"type" jsonschema:"enum=object"`
	Properties map[string]*property `json:"properties"`
	Example    reference            `json:"example"`
}

type reference struct {
	Ref string `json:"$ref"`
}

// property is the OpenAPI Schema Object subset emitted for inferred nodes.
type property struct {
	Type        string               `json:"type" jsonschema:"enum=object,enum=array,enum=string,enum=integer,enum=number,enum=boolean"`
	Nullable    bool                 `json:"nullable,omitempty"`
	Example     any                  `json:"example,omitempty"`
	Format      string               `json:"format,omitempty" jsonschema:"enum=double"`
	Description *string              `json:"description,omitempty"`
	Properties  map[string]*property `json:"properties,omitempty"`
	Items       *property            `json:"items,omitempty"`
}

const metaSchemaURL = "definition.json"

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// MetaSchema returns the JSON Schema that definition documents must satisfy.
func MetaSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous: true,
	}
	return r.Reflect(&definition{})
}

// Validator checks assembled definition documents against MetaSchema.
type Validator struct {
	schema *jsv.Schema
}

// NewValidator compiles the definition meta-schema.
func NewValidator() (*Validator, error) {
	data, err := json.Marshal(MetaSchema())
	if err != nil {
		return nil, fmt.Errorf("marshaling meta-schema: %w", err)
	}
	doc, err := jsv.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding meta-schema: %w", err)
	}

	compiler := jsv.NewCompiler()
	if err := compiler.AddResource(metaSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("adding meta-schema resource: %w", err)
	}
	compiled, err := compiler.Compile(metaSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling meta-schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Problems lists every violation found in doc, or nil when doc is valid.
func (v *Validator) Problems(doc models.JSONValue) []string {
	err := v.schema.Validate(models.ToAny(doc))
	if err == nil {
		return nil
	}

	var validationErr *jsv.ValidationError
	if !stderrors.As(err, &validationErr) {
		return []string{err.Error()}
	}
	var problems []string
	seen := make(map[string]bool)
	collectProblems(validationErr, seen, &problems)
	if len(problems) == 0 {
		problems = append(problems, validationErr.Error())
	}
	return problems
}

// Validate returns a validation error wrapping ErrInvalidDocument when doc
// does not satisfy the meta-schema.
func (v *Validator) Validate(doc models.JSONValue) error {
	problems := v.Problems(doc)
	if len(problems) == 0 {
		return nil
	}
	return errors.NewValidationError(strings.Join(problems, "; "), errors.ErrInvalidDocument)
}

// collectProblems gathers leaf errors in the order the validator reports them.
func collectProblems(err *jsv.ValidationError, seen map[string]bool, out *[]string) {
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
			path := "/" + strings.Join(err.InstanceLocation, "/")
			line := fmt.Sprintf("%s: %s", path, msg)
			if !seen[line] {
				seen[line] = true
				*out = append(*out, line)
			}
		}
	}
	for _, cause := range err.Causes {
		collectProblems(cause, seen, out)
	}
}
