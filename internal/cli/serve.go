package cli

import (
	"fmt"
	"time"

	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/lacquerai/excellent/internal/server"
	"github.com/lacquerai/excellent/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Serve command flags
	servePort        int
	serveHost        string
	serveConcurrency int
	serveTimeout     time.Duration
	serveMetrics     bool
	serveCORS        bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for expression evaluation",
	Long: `Start an HTTP server that evaluates expressions and renders templates via REST API.

The server provides:
- REST API for evaluating expressions and rendering templates
- WebSocket streaming for rendering many templates over one connection
- Prometheus metrics endpoint
- A bound on the number of concurrent evaluations

The --prefix and --allowed flags configure the server's evaluator.

Examples:
  excellent serve                           # Serve on localhost:8080
  excellent serve --port 9000 --host 0.0.0.0 # Custom host and port
  excellent serve --concurrency 200         # Allow 200 concurrent evaluations`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		evaluator, err := newEvaluator()
		if err != nil {
			return err
		}

		config := server.DefaultConfig()
		config.Host = viper.GetString("server.host")
		config.Port = viper.GetInt("server.port")
		config.Concurrency = viper.GetInt("server.concurrency")
		config.EnableMetrics = viper.GetBool("server.metrics")
		config.EnableCORS = viper.GetBool("server.cors")
		config.ReadTimeout = viper.GetDuration("server.timeout")
		config.WriteTimeout = viper.GetDuration("server.timeout")

		srv, err := server.New(config, server.WithEvaluator(evaluator))
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		runCtx := execcontext.RunContext{
			Context: cmd.Context(),
			StdOut:  cmd.OutOrStdout(),
			StdErr:  cmd.ErrOrStderr(),
		}

		if !viper.GetBool("quiet") {
			style.Success(runCtx, fmt.Sprintf("Excellent server starting at http://%s", srv.GetAddr()))
			runCtx.Printf("  API: http://%s/api/v1/evaluate\n", srv.GetAddr())
			runCtx.Printf("  Stream: ws://%s/api/v1/stream\n", srv.GetAddr())
			if config.EnableMetrics {
				runCtx.Printf("  Metrics: http://%s/metrics\n", srv.GetAddr())
			}
		}

		// Start server with graceful shutdown
		if err := srv.StartWithGracefulShutdown(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	defaults := server.DefaultConfig()

	// Server configuration
	serveCmd.Flags().IntVarP(&servePort, "port", "p", defaults.Port, "server port")
	serveCmd.Flags().StringVar(&serveHost, "host", defaults.Host, "server host")
	serveCmd.Flags().IntVar(&serveConcurrency, "concurrency", defaults.Concurrency, "maximum concurrent evaluations")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", defaults.ReadTimeout, "request read and write timeout")

	// Features
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", true, "enable Prometheus metrics endpoint")
	serveCmd.Flags().BoolVar(&serveCORS, "cors", true, "enable CORS headers")

	// Config file keys, e.g. server.port or EXCELLENT_SERVER_PORT
	for key, flag := range map[string]string{
		"server.port":        "port",
		"server.host":        "host",
		"server.concurrency": "concurrency",
		"server.timeout":     "timeout",
		"server.metrics":     "metrics",
		"server.cors":        "cors",
	} {
		_ = viper.BindPFlag(key, serveCmd.Flags().Lookup(flag))
	}
}
