package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lacquerai/excellent/internal/expression"
	"github.com/lacquerai/excellent/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EvalOutput is the structured output of the eval command
type EvalOutput struct {
	Expression string `json:"expression" yaml:"expression"`
	Value      string `json:"value" yaml:"value"`
	Type       string `json:"type" yaml:"type"`
}

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate a single expression",
	Long: `Evaluate a single expression against a context and print its value.

The expression is written without the leading @, e.g. contact.age + 1.`,
	Example: `
  excellent eval '1 + 2'                                  # Prints 3
  excellent eval 'UPPER(contact.name)' --var contact.name=Bob
  excellent eval 'NOW()' --tz Africa/Kigali --output json
  excellent eval 'contact.age * 2' --context context.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEval(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, expr string) error {
	ctx, err := buildContext()
	if err != nil {
		return err
	}
	evaluator, err := newEvaluator()
	if err != nil {
		return err
	}
	strategy, err := evaluationStrategy()
	if err != nil {
		return err
	}

	value, err := evaluator.EvaluateExpressionWithStrategy(expr, ctx, strategy)
	if err != nil {
		printParseError(cmd.ErrOrStderr(), expr, err)
		return err
	}

	text, err := expression.ToText(value, ctx)
	if err != nil {
		return err
	}

	output := EvalOutput{Expression: expr, Value: text, Type: string(value.Type())}
	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(cmd.OutOrStdout(), output)
	case "yaml":
		style.PrintYAML(cmd.OutOrStdout(), output)
	default:
		fmt.Fprintln(cmd.OutOrStdout(), text)
	}
	return nil
}

// printParseError points at where a syntax error was found when printing
// text output
func printParseError(w io.Writer, expr string, err error) {
	var parseErr *expression.ParseError
	if !errors.As(err, &parseErr) || viper.GetString("output") != "text" || viper.GetBool("quiet") {
		return
	}

	fmt.Fprintln(w, "  "+expr)
	length := 1
	if parseErr.Position < len(expr) {
		rest := expr[parseErr.Position:]
		if end := strings.IndexAny(rest, " ,()"); end > 0 {
			length = end
		}
	}
	fmt.Fprintln(w, "  "+style.RenderHighlightIndicator(parseErr.Position, length))
	fmt.Fprintln(w, "  "+style.MutedStyle.Render(parseErr.Detail))
}
