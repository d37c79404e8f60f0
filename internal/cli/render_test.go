package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCommand(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		expected string
	}{
		{"var", []string{"Hi @contact.name", "--var", "contact.name=Bob"}, "Hi Bob\n"},
		{"file", []string{"--file", "testdata/message.txt", "--context", "testdata/context.yaml"}, "Hi Bob, you are 33 next year\n"},
		{"url encode", []string{"q=@contact.name", "--var", "contact.name=a b", "--url-encode"}, "q=a%20b\n"},
		{"escaped prefix", []string{"bob@@example.com"}, "bob@example.com\n"},
		{"custom prefix", []string{"Hi $contact.name @contact.name", "--var", "contact.name=Bob", "--prefix", "$"}, "Hi Bob @contact.name\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := executeCommand(append([]string{"render"}, tc.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res.stdout)
			assert.Empty(t, res.stderr)
		})
	}
}

func TestRenderCommand_Stdin(t *testing.T) {
	res, err := executeCommandWithInput("@(UPPER(\"hi\")) there\n", "render")
	require.NoError(t, err)
	assert.Equal(t, "HI there\n", res.stdout)
}

func TestRenderCommand_Errors(t *testing.T) {
	res, err := executeCommand("render", "Total: @(contact.age / 0)", "--var", "contact.age=3")
	require.NoError(t, err)
	assert.Equal(t, "Total: @(contact.age / 0)\n", res.stdout)
	assert.Contains(t, res.stderr, "Division by zero")

	res, err = executeCommand("render", "Total: @(contact.age / 0)", "--var", "contact.age=3", "--quiet")
	require.NoError(t, err)
	assert.Empty(t, res.stderr)

	_, err = executeCommand("render", "Total: @(contact.age / 0)", "--var", "contact.age=3", "--strict")
	assert.EqualError(t, err, "1 expression(s) failed to evaluate")

	_, err = executeCommand("render", "--file", "testdata/nope.txt")
	assert.ErrorContains(t, err, "failed to read template")
}

func TestRenderCommand_JSON(t *testing.T) {
	res, err := executeCommand("render", "Hi @contact.name", "--var", "contact.name=Bob", "--output", "json")
	require.NoError(t, err)

	var output RenderOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &output))
	assert.Equal(t, RenderOutput{Output: "Hi Bob", Errors: []string{}}, output)

	res, err = executeCommand("render", "@(1 / 0) and @contact.missing", "--var", "contact.name=Bob", "--output", "json")
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &output))
	assert.Equal(t, "@(1 / 0) and @contact.missing", output.Output)
	assert.Len(t, output.Errors, 2)
	assert.Equal(t, "Division by zero", output.Errors[0])
}
