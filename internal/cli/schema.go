package cli

import (
	"encoding/json"
	"fmt"

	"github.com/lacquerai/excellent/pkg/schema"
	"github.com/spf13/cobra"
)

var schemaContextOnly bool

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Output JSON schema and definitions",
	Long:   `Output the context document JSON schema, expression definitions, and function definitions for Excellent.`,
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := schema.GetSchema()
		if err != nil {
			return fmt.Errorf("error generating schema: %w", err)
		}

		if schemaContextOnly {
			fmt.Fprintln(cmd.OutOrStdout(), string(output.Schema))
			return nil
		}

		outputBytes, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling output: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(outputBytes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().BoolVar(&schemaContextOnly, "context-only", false, "only output the context document schema")
}
