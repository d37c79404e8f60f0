package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCommand(t *testing.T) {
	res, err := executeCommand("schema")
	require.NoError(t, err)

	var output map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &output))
	assert.Contains(t, output, "schema")
	assert.Contains(t, output, "expressions")
	assert.Contains(t, output, "functions")

	res, err = executeCommand("schema", "--context-only")
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &schema))
	assert.Equal(t, "Evaluation context", schema["title"])
}
