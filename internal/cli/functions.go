package cli

import (
	"fmt"
	"strings"

	"github.com/lacquerai/excellent/internal/expression"
	"github.com/lacquerai/excellent/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var functionsCategory string

// functionsCmd represents the functions command
var functionsCmd = &cobra.Command{
	Use:   "functions [name]",
	Short: "List the function library",
	Long: `List the functions available to expressions, or describe a single function.

Function names are case insensitive.`,
	Example: `
  excellent functions                     # List every function
  excellent functions --category date     # List the date functions
  excellent functions word_slice          # Describe WORD_SLICE
  excellent functions --output json       # Definitions as JSON`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		functions := expression.DefaultFunctions()

		if len(args) == 1 {
			def, ok := functions.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown function %s", strings.ToUpper(args[0]))
			}
			return printFunction(cmd, def)
		}

		var defs []*expression.FunctionDefinition
		for _, def := range functions.ListFunctions() {
			if functionsCategory == "" || strings.EqualFold(def.Category, functionsCategory) {
				defs = append(defs, def)
			}
		}
		if len(defs) == 0 {
			return fmt.Errorf("no functions in category %q", functionsCategory)
		}

		switch viper.GetString("output") {
		case "json":
			style.PrintJSON(cmd.OutOrStdout(), defs)
		case "yaml":
			style.PrintYAML(cmd.OutOrStdout(), defs)
		default:
			rows := make([][]string, len(defs))
			for i, def := range defs {
				rows[i] = []string{def.Signature, def.Category, def.Description}
			}
			printTable(cmd.OutOrStdout(), []string{"FUNCTION", "CATEGORY", "DESCRIPTION"}, rows)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(functionsCmd)

	functionsCmd.Flags().StringVar(&functionsCategory, "category", "", "only list functions in this category (text, date, math, logic, words)")
}

func printFunction(cmd *cobra.Command, def *expression.FunctionDefinition) error {
	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(cmd.OutOrStdout(), def)
	case "yaml":
		style.PrintYAML(cmd.OutOrStdout(), def)
	default:
		fmt.Fprintln(cmd.OutOrStdout(), style.RenderSuggestion(def.Signature, def.Description, def.Examples))
	}
	return nil
}
