package execcontext

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/stoewer/go-strcase"
)

// NewReflector creates a schema reflector that names keys and definitions
// in snake case, matching the document's JSON form
func NewReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		KeyNamer: strcase.SnakeCase,
		Namer: func(t reflect.Type) string {
			return strcase.SnakeCase(t.Name())
		},
		ExpandedStruct: true,
	}
}

// NewSchema returns the JSON schema of the context document
func NewSchema() ([]byte, error) {
	schema := NewReflector().Reflect(&Document{})
	schema.Title = "Evaluation context"
	schema.Description = "Variables and settings that template expressions are evaluated against"
	return json.MarshalIndent(schema, "", "  ")
}
