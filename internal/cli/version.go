package cli

import (
	"fmt"
	"io"
	"runtime"
	"sort"

	"github.com/lacquerai/excellent/internal/expression"
	"github.com/lacquerai/excellent/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build-time variables, set with -ldflags "-X github.com/lacquerai/excellent/internal/cli.Version=..."
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	BuiltBy   = "unknown"
	GoVersion = runtime.Version()
)

// VersionInfo describes the build and the function library it ships
type VersionInfo struct {
	Version    string         `json:"version" yaml:"version"`
	Commit     string         `json:"commit" yaml:"commit"`
	Date       string         `json:"date" yaml:"date"`
	BuiltBy    string         `json:"built_by" yaml:"built_by"`
	GoVersion  string         `json:"go_version" yaml:"go_version"`
	Platform   string         `json:"platform" yaml:"platform"`
	Functions  int            `json:"functions" yaml:"functions"`
	Categories map[string]int `json:"categories" yaml:"categories"`
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the excellent version, build details and a summary of the function library.`,
	Example: `
  excellent version                 # Show the version
  excellent version --verbose       # Include build details
  excellent version --output json   # Show version info as JSON`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := currentVersionInfo()

		switch viper.GetString("output") {
		case "json":
			style.PrintJSON(cmd.OutOrStdout(), info)
		case "yaml":
			style.PrintYAML(cmd.OutOrStdout(), info)
		default:
			printVersionText(cmd.OutOrStdout(), info, viper.GetBool("verbose"))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func currentVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:    Version,
		Commit:     Commit,
		Date:       Date,
		BuiltBy:    BuiltBy,
		GoVersion:  GoVersion,
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		Categories: make(map[string]int),
	}

	for _, def := range expression.DefaultFunctions().ListFunctions() {
		info.Functions++
		info.Categories[def.Category]++
	}
	return info
}

func printVersionText(w io.Writer, info VersionInfo, verbose bool) {
	fmt.Fprintf(w, "excellent %s\n", info.Version)
	if !verbose {
		return
	}

	fmt.Fprintf(w, "  commit:    %s\n", info.Commit)
	fmt.Fprintf(w, "  built:     %s by %s\n", info.Date, info.BuiltBy)
	fmt.Fprintf(w, "  go:        %s\n", info.GoVersion)
	fmt.Fprintf(w, "  platform:  %s\n", info.Platform)

	categories := make([]string, 0, len(info.Categories))
	for category := range info.Categories {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	fmt.Fprintf(w, "  functions: %d\n", info.Functions)
	for _, category := range categories {
		fmt.Fprintf(w, "    %-6s %d\n", category, info.Categories[category])
	}
}
