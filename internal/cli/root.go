package cli

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/lacquerai/excellent/internal/style"
)

var (
	// Global flags
	cfgFile      string
	logLevel     string
	outputFormat string
	quiet        bool
	verbose      bool

	// Evaluation flags
	contextFile string
	contextVars []string
	timezone    string
	monthFirst  bool
	nowFlag     string
	urlEncode   bool
	strategy    string
	allowed     []string
	prefix      string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "excellent",
	Short: "Excellent - Excel-style expressions for text templates",
	Long: `Excellent evaluates Excel-style formulas embedded in text templates.

Templates contain expressions introduced by @, either context references such as
@contact.name or parenthesized formulas such as @(UPPER(contact.name) & "!").

The excellent CLI evaluates expressions and templates, runs template test suites,
lists the function library and serves an HTTP evaluation API.`,
	Version:      getVersion(),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
		go triggerBackgroundUpdateCheck()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		showUpdateNotificationIfAvailable()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return fang.Execute(context.Background(), rootCmd, fang.WithColorSchemeFunc(func(lightDark lipgloss.LightDarkFunc) fang.ColorScheme {
		return fang.ColorScheme{
			Base:           style.PrimaryTextColor,
			Title:          style.AccentColor,
			Description:    style.PrimaryTextColor,
			Codeblock:      style.CodeColor,
			Program:        style.AccentColor,
			DimmedArgument: style.MutedColor,
			Comment:        style.MutedColor,
			Flag:           style.InfoColor,
			FlagDefault:    style.MutedColor,
			Command:        style.SuccessColor,
			QuotedString:   style.WarningColor,
			Argument:       style.PrimaryTextColor,
			Help:           style.InfoColor,
			Dash:           style.MutedColor,
			ErrorHeader:    [2]color.Color{style.ErrorColor, style.ErrorBgColor},
			ErrorDetails:   style.ErrorColor,
		}
	}))
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.excellent/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "disabled", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&outputFormat, "output", "text", "output format (text, json, yaml)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Evaluation flags
	flags.StringVarP(&contextFile, "context", "c", "", "JSON or YAML context document to evaluate against")
	flags.StringArrayVar(&contextVars, "var", nil, "set a context variable, e.g. --var contact.name=Bob (repeatable)")
	flags.StringVar(&timezone, "tz", "", "timezone used to parse and display datetimes (default UTC)")
	flags.BoolVar(&monthFirst, "month-first", false, "read ambiguous dates as month first")
	flags.StringVar(&nowFlag, "now", "", "RFC 3339 instant to use as the current time")
	flags.BoolVar(&urlEncode, "url-encode", false, "URL encode expression results in templates")
	flags.StringVar(&strategy, "strategy", "complete", "evaluation strategy (complete, resolve_available)")
	flags.StringSliceVar(&allowed, "allowed", nil, "context items that may be referenced without parentheses")
	flags.StringVar(&prefix, "prefix", "@", "character that starts an expression in a template")

	// Bind flags to viper
	for _, name := range []string{
		"log-level", "output", "quiet", "verbose",
		"context", "tz", "month-first", "now", "url-encode", "strategy", "allowed", "prefix",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".excellent" (without extension).
		viper.AddConfigPath(home + "/.excellent")
		viper.AddConfigPath(".")
		viper.AddConfigPath(".excellent")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Environment variables, e.g. EXCELLENT_LOG_LEVEL or EXCELLENT_SERVER_PORT
	viper.SetEnvPrefix("EXCELLENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if !viper.GetBool("quiet") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}
}

// initLogging configures the global logger
func initLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("log-level")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.Disabled
	}
	if viper.GetBool("verbose") && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure console output for better readability
	if !viper.GetBool("quiet") && viper.GetString("output") == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// getVersion returns the version information
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, go: %s)", Version, Commit, Date, GoVersion)
}

// triggerBackgroundUpdateCheck refreshes the cached update info if it has
// expired. It runs silently and never prints anything.
func triggerBackgroundUpdateCheck() {
	if os.Getenv("EXCELLENT_TEST") == "true" {
		return
	}

	checkForUpdate()
}

// showUpdateNotificationIfAvailable checks for available updates and shows a notification
func showUpdateNotificationIfAvailable() {
	if viper.GetBool("quiet") || viper.GetString("output") != "text" {
		return
	}

	// Check if an update is available (from cache only, no network calls)
	updateInfo := ShouldShowUpdateNotification()
	if updateInfo != nil {
		fmt.Fprintf(os.Stderr, "\n%s A newer version (%s) is available! Run 'excellent update' to upgrade.\n",
			style.InfoIcon(), updateInfo.LatestVersion)
	}
}
