package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/lacquerai/excellent/internal/expression"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	Concurrency     int
	EnableMetrics   bool
	EnableCORS      bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            8080,
		Concurrency:     50,
		EnableMetrics:   true,
		EnableCORS:      true,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Evaluation kinds used as metric labels
const (
	KindExpression = "expression"
	KindTemplate   = "template"
)

// EvaluationManager bounds the number of concurrent evaluations and
// records metrics about them
type EvaluationManager struct {
	maxConcurrency int
	currentCount   int
	mu             sync.Mutex

	// Metrics
	totalEvaluations   *prometheus.CounterVec
	activeEvaluations  prometheus.Gauge
	evaluationDuration *prometheus.HistogramVec
	evaluationErrors   *prometheus.CounterVec
}

// NewEvaluationManager creates a new evaluation manager registered with the
// default prometheus registry
func NewEvaluationManager(maxConcurrency int) *EvaluationManager {
	return NewEvaluationManagerWithRegistry(maxConcurrency, prometheus.DefaultRegisterer)
}

// NewEvaluationManagerWithRegistry creates a new evaluation manager with a
// custom registry. A nil registerer leaves the metrics unregistered.
func NewEvaluationManagerWithRegistry(maxConcurrency int, registerer prometheus.Registerer) *EvaluationManager {
	em := &EvaluationManager{
		maxConcurrency: maxConcurrency,

		totalEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "excellent_evaluations_total",
			Help: "Total number of evaluations started",
		}, []string{"kind"}),
		activeEvaluations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "excellent_evaluations_active",
			Help: "Number of evaluations currently running",
		}),
		evaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "excellent_evaluation_duration_seconds",
			Help:    "Evaluation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"kind", "status"}),
		evaluationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "excellent_evaluation_errors_total",
			Help: "Total number of expressions that failed to evaluate",
		}, []string{"kind"}),
	}

	if registerer != nil {
		registerer.MustRegister(em.totalEvaluations)
		registerer.MustRegister(em.activeEvaluations)
		registerer.MustRegister(em.evaluationDuration)
		registerer.MustRegister(em.evaluationErrors)
	}

	return em
}

// Acquire reserves a slot for an evaluation. It returns false when the
// server is at capacity.
func (em *EvaluationManager) Acquire(kind string) bool {
	em.mu.Lock()
	defer em.mu.Unlock()

	if em.currentCount >= em.maxConcurrency {
		return false
	}
	em.currentCount++

	em.totalEvaluations.WithLabelValues(kind).Inc()
	em.activeEvaluations.Inc()
	return true
}

// Release frees a slot reserved by Acquire and records the outcome. errors
// is the number of expressions that failed.
func (em *EvaluationManager) Release(kind string, duration time.Duration, errors int) {
	em.mu.Lock()
	defer em.mu.Unlock()

	em.currentCount--

	status := "ok"
	if errors > 0 {
		status = "error"
		em.evaluationErrors.WithLabelValues(kind).Add(float64(errors))
	}
	em.activeEvaluations.Dec()
	em.evaluationDuration.WithLabelValues(kind, status).Observe(duration.Seconds())
}

// GetActiveEvaluations returns the number of running evaluations
func (em *EvaluationManager) GetActiveEvaluations() int {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.currentCount
}

// Option configures a Server
type Option func(*Server)

// WithEvaluator replaces the default evaluator
func WithEvaluator(evaluator *expression.Evaluator) Option {
	return func(s *Server) {
		s.evaluator = evaluator
	}
}

// WithRegistry sets the prometheus registry metrics are registered with and
// served from
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = registry
	}
}

// Server represents the Excellent HTTP server
type Server struct {
	config    *Config
	evaluator *expression.Evaluator
	manager   *EvaluationManager
	metrics   *prometheus.Registry
	server    *http.Server
	listener  net.Listener
	upgrader  websocket.Upgrader
}

// New creates a new Excellent server
func New(config *Config, options ...Option) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", config.Concurrency)
	}

	server := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return config.EnableCORS // Allow all origins if CORS enabled
			},
		},
	}

	for _, option := range options {
		option(server)
	}

	if server.evaluator == nil {
		server.evaluator = expression.NewEvaluator()
	}
	if server.metrics == nil {
		server.metrics = prometheus.NewRegistry()
	}
	server.manager = NewEvaluationManagerWithRegistry(config.Concurrency, server.metrics)

	return server, nil
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	// Apply CORS middleware to all routes if enabled
	if s.config.EnableCORS {
		router.Use(s.corsMiddleware)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.loggingMiddleware)

	api.HandleFunc("/evaluate", s.evaluateExpression).Methods("POST")
	api.HandleFunc("/render", s.renderTemplate).Methods("POST")
	api.HandleFunc("/functions", s.listFunctions).Methods("GET")
	api.HandleFunc("/stream", s.streamTemplates).Methods("GET")

	// Handle OPTIONS for CORS preflight
	if s.config.EnableCORS {
		api.Methods("OPTIONS").HandlerFunc(s.handleOptions)
	}

	if s.config.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}

	router.HandleFunc("/health", s.healthCheck)

	return router
}

// Start starts the HTTP server in the background
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	log.Info().
		Str("addr", s.GetAddr()).
		Int("concurrency", s.config.Concurrency).
		Bool("metrics", s.config.EnableMetrics).
		Msg("Starting Excellent server")

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Server stopped unexpectedly")
		}
	}()

	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Info().Msg("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// StartWithGracefulShutdown starts the server and blocks until SIGINT or
// SIGTERM, then shuts it down
func (s *Server) StartWithGracefulShutdown() error {
	if err := s.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	<-sigChan
	log.Info().Msg("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("Server shutdown complete")
	return nil
}

// GetAddr returns the server address. Once started this is the address
// actually bound, which differs from the config when the port is 0.
func (s *Server) GetAddr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// handleOptions handles CORS preflight requests
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	// CORS headers are already set by middleware
	w.WriteHeader(http.StatusOK)
}
