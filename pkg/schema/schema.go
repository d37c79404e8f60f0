// Package schema provides access to the definitions an expression engine
// client needs to introspect Excellent: the JSON schema of the evaluation
// context document, the expression node types and the function library.
//
// The schema information is useful for:
//   - Building template editors with autocompletion of function names
//   - Validating context documents before evaluating against them
//   - Generating documentation for the function library
//
// Example usage:
//
//	schema, err := GetSchema()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, fn := range schema.Functions {
//		fmt.Printf("%s: %s\n", fn.Signature, fn.Description)
//	}
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/lacquerai/excellent/internal/expression"
)

// SchemaOutput represents the complete schema information for Excellent
type SchemaOutput struct {
	// Schema contains the JSON Schema of the evaluation context document
	// accepted by the CLI --context flag and the HTTP API.
	Schema json.RawMessage `json:"schema"`
	// Expressions lists the kinds of expression nodes and their syntax.
	Expressions []expression.ExpressionDef `json:"expressions"`
	// Functions contains all built-in functions with their parameters,
	// grouped by category.
	Functions []*expression.FunctionDefinition `json:"functions"`
}

// GetSchema retrieves the complete schema information
func GetSchema() (*SchemaOutput, error) {
	schemaBytes, err := execcontext.NewSchema()
	if err != nil {
		return nil, fmt.Errorf("error creating context schema: %w", err)
	}

	return &SchemaOutput{
		Schema:      json.RawMessage(schemaBytes),
		Expressions: expression.ExpressionDefs,
		Functions:   expression.FunctionDefs,
	}, nil
}
