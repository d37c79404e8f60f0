package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommand_Passing(t *testing.T) {
	res, err := executeCommand("test", "testdata/passing.yaml")
	require.NoError(t, err)

	assert.Contains(t, res.stdout, "testdata/passing.yaml")
	assert.Contains(t, res.stdout, "2 passed")
	assert.Contains(t, res.stdout, "All 2 cases passed")
	assert.Contains(t, res.stderr, "[SPINNER START]")
	assert.Contains(t, res.stderr, "[SET SUFFIX] Running testdata/passing.yaml")
}

func TestTestCommand_Failing(t *testing.T) {
	res, err := executeCommand("test", "testdata/passing.yaml", "testdata/failing.json")
	require.EqualError(t, err, "1 of 4 cases failed")

	assert.Contains(t, res.stdout, "1 of 2 failed")
	assert.Contains(t, res.stdout, "wrong upper")
	assert.Contains(t, res.stdout, `"BOB"`)
	assert.Contains(t, res.stdout, "1 of 4 cases failed")
}

func TestTestCommand_JSON(t *testing.T) {
	res, err := executeCommand("test", "testdata/failing.json", "--output", "json")
	require.Error(t, err)

	var summaries []SuiteSummary
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &summaries))
	require.Len(t, summaries, 1)

	summary := summaries[0]
	assert.Equal(t, "testdata/failing.json", summary.File)
	assert.Equal(t, 2, summary.Cases)
	assert.Equal(t, 1, summary.Passed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, CaseFailure{
		Name:           "wrong upper",
		Template:       `@(UPPER("bob"))`,
		ExpectedOutput: "bob",
		ActualOutput:   "BOB",
		ExpectedErrors: []string{},
		ActualErrors:   []string{},
	}, summary.Failures[0])
}

func TestTestCommand_Errors(t *testing.T) {
	_, err := executeCommand("test")
	assert.Error(t, err)

	_, err = executeCommand("test", "testdata/nope.json")
	assert.ErrorContains(t, err, "testdata/nope.json")
}
