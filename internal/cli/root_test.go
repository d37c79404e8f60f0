package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"

	_ "github.com/lacquerai/excellent/internal/testhelper"
)

func TestMain(m *testing.M) {
	// keep spinners plain and the update check offline
	os.Setenv("EXCELLENT_TEST", "true")

	home, err := os.MkdirTemp("", "excellent_cli_*")
	if err != nil {
		panic(err)
	}
	os.Setenv("HOME", home)

	code := m.Run()
	os.RemoveAll(home)
	os.Exit(code)
}

type commandResult struct {
	stdout string
	stderr string
}

// executeCommand runs the root command with args and resets every flag
// afterwards so tests don't leak state into each other
func executeCommand(args ...string) (commandResult, error) {
	return executeCommandWithInput("", args...)
}

func executeCommandWithInput(stdin string, args ...string) (commandResult, error) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	defer resetCommand(rootCmd)

	err := rootCmd.Execute()
	return commandResult{stdout: stdout.String(), stderr: stderr.String()}, err
}

func resetCommand(cmd *cobra.Command) {
	resetFlags(cmd.PersistentFlags())
	resetFlags(cmd.Flags())
	for _, sub := range cmd.Commands() {
		resetCommand(sub)
	}
}

func resetFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func TestRootCommand(t *testing.T) {
	res, err := executeCommand("--help")
	assert.NoError(t, err)
	assert.Contains(t, res.stdout, "Excellent evaluates Excel-style formulas")
	assert.Contains(t, res.stdout, "Available Commands:")
}

func TestGetVersion(t *testing.T) {
	version := getVersion()
	assert.Contains(t, version, "dev")
	assert.Contains(t, version, "unknown")
}

func TestGlobalFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	testCases := []struct {
		name     string
		typ      string
		defValue string
	}{
		{"config", "string", ""},
		{"log-level", "string", "disabled"},
		{"output", "string", "text"},
		{"quiet", "bool", "false"},
		{"verbose", "bool", "false"},
		{"context", "string", ""},
		{"var", "stringArray", "[]"},
		{"tz", "string", ""},
		{"month-first", "bool", "false"},
		{"strategy", "string", "complete"},
		{"allowed", "stringSlice", "[]"},
		{"prefix", "string", "@"},
	}

	for _, tc := range testCases {
		flag := flags.Lookup(tc.name)
		if assert.NotNil(t, flag, tc.name) {
			assert.Equal(t, tc.typ, flag.Value.Type(), tc.name)
			assert.Equal(t, tc.defValue, flag.DefValue, tc.name)
		}
	}
}

func TestCommandAvailability(t *testing.T) {
	commands := []string{"eval", "render", "test", "functions", "serve", "schema", "version", "update"}

	for _, cmdName := range commands {
		cmd, _, err := rootCmd.Find([]string{cmdName})
		assert.NoError(t, err, "Command %s should be available", cmdName)
		assert.Equal(t, cmdName, cmd.Name(), "Command name should match")
	}
}

func TestInitLogging(t *testing.T) {
	assert.NotPanics(t, initLogging)
}
