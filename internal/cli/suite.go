package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lacquerai/excellent/internal/expression"
	"github.com/lacquerai/excellent/internal/style"
	"github.com/lacquerai/excellent/internal/suite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// SuiteSummary is the structured output of the test command for one file
type SuiteSummary struct {
	File     string        `json:"file" yaml:"file"`
	Cases    int           `json:"cases" yaml:"cases"`
	Passed   int           `json:"passed" yaml:"passed"`
	Failures []CaseFailure `json:"failures" yaml:"failures"`

	Duration time.Duration `json:"-" yaml:"-"`
}

// CaseFailure describes a case that didn't produce what was expected
type CaseFailure struct {
	Name           string   `json:"name" yaml:"name"`
	Template       string   `json:"template" yaml:"template"`
	ExpectedOutput string   `json:"expected_output,omitempty" yaml:"expected_output,omitempty"`
	OutputRegex    string   `json:"output_regex,omitempty" yaml:"output_regex,omitempty"`
	ActualOutput   string   `json:"actual_output" yaml:"actual_output"`
	ExpectedErrors []string `json:"expected_errors" yaml:"expected_errors"`
	ActualErrors   []string `json:"actual_errors" yaml:"actual_errors"`
	Error          string   `json:"error,omitempty" yaml:"error,omitempty"`
	Diff           string   `json:"-" yaml:"-"`
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test <suite files...>",
	Short: "Run template test suites",
	Long: `Run one or more template test suites.

A suite is a JSON or YAML list of cases, each with a template, the context to
evaluate it in and the expected output (or output_regex) and errors:

  - template: "Hi @contact.name"
    context:
      vars:
        contact:
          name: Bob
    output: Hi Bob
    errors: []`,
	Example: `
  excellent test templates.json
  excellent test suites/*.yaml --output json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSuites(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runSuites(cmd *cobra.Command, files []string) error {
	evaluator, err := newEvaluator()
	if err != nil {
		return err
	}

	textOutput := viper.GetString("output") == "text"
	summaries := make([]SuiteSummary, 0, len(files))
	total, failed := 0, 0

	for _, file := range files {
		var spinner style.Spinner
		if textOutput && !viper.GetBool("quiet") {
			spinner = style.NewSpinner(cmd.ErrOrStderr())
			spinner.SetSuffix("Running " + file)
			spinner.Start()
		}

		summary, err := runSuite(evaluator, file)
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			return err
		}

		total += summary.Cases
		failed += len(summary.Failures)
		summaries = append(summaries, summary)

		if textOutput {
			printSuiteSummary(cmd.OutOrStdout(), summary)
		}
	}

	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(cmd.OutOrStdout(), summaries)
	case "yaml":
		style.PrintYAML(cmd.OutOrStdout(), summaries)
	default:
		fmt.Fprintln(cmd.OutOrStdout())
		if failed == 0 {
			style.Success(cmd.OutOrStdout(), fmt.Sprintf("All %d cases passed", total))
		} else {
			style.Error(cmd.OutOrStdout(), fmt.Sprintf("%d of %d cases failed", failed, total))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d cases failed", failed, total)
	}
	return nil
}

func runSuite(evaluator *expression.Evaluator, file string) (SuiteSummary, error) {
	cases, err := suite.Load(file)
	if err != nil {
		return SuiteSummary{}, fmt.Errorf("%s: %w", file, err)
	}

	report := suite.Run(evaluator, cases)
	summary := SuiteSummary{File: file, Cases: len(cases), Failures: []CaseFailure{}, Duration: report.Duration}

	for _, res := range report.Results {
		if res.Passed {
			summary.Passed++
			continue
		}

		failure := CaseFailure{
			Name:           res.Case.Label(),
			Template:       res.Case.Template,
			OutputRegex:    res.Case.OutputRegex,
			ActualOutput:   res.ActualOutput,
			ExpectedErrors: nonNil(res.Case.Errors),
			ActualErrors:   nonNil(res.ActualErrors),
		}
		if res.Case.Output != nil {
			failure.ExpectedOutput = *res.Case.Output
		}
		if res.Err != nil {
			failure.Error = res.Err.Error()
		}
		failure.Diff = res.Diff
		summary.Failures = append(summary.Failures, failure)
	}

	return summary, nil
}

func printSuiteSummary(w io.Writer, summary SuiteSummary) {
	took := style.DurationStyle.Render(fmt.Sprintf("(%s)", summary.Duration.Round(time.Microsecond)))

	if len(summary.Failures) == 0 {
		fmt.Fprintf(w, "%s %s %s %s\n", style.SuccessIcon(), style.FormatFilePath(summary.File),
			style.CasePassedStyle.Render(fmt.Sprintf("%d passed", summary.Passed)), took)
		return
	}

	fmt.Fprintf(w, "%s %s %s %s\n", style.ErrorIcon(), style.FormatFilePath(summary.File),
		style.CaseFailedStyle.Render(fmt.Sprintf("%d of %d failed", len(summary.Failures), summary.Cases)), took)

	for _, failure := range summary.Failures {
		fmt.Fprintf(w, "\n  %s %s\n", style.CaseFailedStyle.Render("FAIL"), failure.Name)
		if failure.Error != "" {
			fmt.Fprintf(w, "    %s %s\n", style.MutedStyle.Render("error:   "), failure.Error)
			continue
		}
		if failure.OutputRegex != "" {
			fmt.Fprintf(w, "    %s %s\n", style.MutedStyle.Render("expected:"), "/"+failure.OutputRegex+"/")
		} else {
			fmt.Fprintf(w, "    %s %q\n", style.MutedStyle.Render("expected:"), failure.ExpectedOutput)
		}
		fmt.Fprintf(w, "    %s %q\n", style.MutedStyle.Render("actual:  "), failure.ActualOutput)
		if failure.Diff != "" && viper.GetBool("verbose") {
			fmt.Fprintf(w, "    %s %s\n", style.MutedStyle.Render("diff:    "), failure.Diff)
		}
		if strings.Join(failure.ExpectedErrors, "\n") != strings.Join(failure.ActualErrors, "\n") {
			fmt.Fprintf(w, "    %s %q\n", style.MutedStyle.Render("expected errors:"), failure.ExpectedErrors)
			fmt.Fprintf(w, "    %s %q\n", style.MutedStyle.Render("actual errors:  "), failure.ActualErrors)
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
