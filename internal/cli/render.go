package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lacquerai/excellent/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	renderFile   string
	renderStrict bool
)

// RenderOutput is the structured output of the render command
type RenderOutput struct {
	Output string   `json:"output" yaml:"output"`
	Errors []string `json:"errors" yaml:"errors"`
}

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render [template]",
	Short: "Render a template",
	Long: `Render a template, replacing each expression with its value.

The template is read from the argument, from --file or from stdin. Expressions
that fail to evaluate are left in the output as written and their errors are
reported on stderr.`,
	Example: `
  excellent render 'Hi @contact.name' --var contact.name=Bob
  excellent render --file message.txt --context context.json
  echo 'Today is @(TODAY())' | excellent render --tz Africa/Kigali
  excellent render 'q=@step.value' --url-encode --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		template, err := readTemplate(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		return runRender(cmd, template)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderFile, "file", "f", "", "read the template from a file")
	renderCmd.Flags().BoolVar(&renderStrict, "strict", false, "exit with an error if any expression fails")
}

func readTemplate(stdin io.Reader, args []string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case renderFile != "":
		data, err := os.ReadFile(renderFile)
		if err != nil {
			return "", fmt.Errorf("failed to read template: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read template from stdin: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	}
}

func runRender(cmd *cobra.Command, template string) error {
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

	output, errs := evaluator.EvaluateTemplateWithStrategy(template, ctx, viper.GetBool("url-encode"), strategy)
	if errs == nil {
		errs = []string{}
	}

	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(cmd.OutOrStdout(), RenderOutput{Output: output, Errors: errs})
	case "yaml":
		style.PrintYAML(cmd.OutOrStdout(), RenderOutput{Output: output, Errors: errs})
	default:
		fmt.Fprintln(cmd.OutOrStdout(), output)
		if !viper.GetBool("quiet") {
			for _, e := range errs {
				style.Warning(cmd.ErrOrStderr(), e)
			}
		}
	}

	if renderStrict && len(errs) > 0 {
		return fmt.Errorf("%d expression(s) failed to evaluate", len(errs))
	}
	return nil
}
