package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/smc-benchmark/smcbench/internal/api"
	"github.com/smc-benchmark/smcbench/internal/config"
	"github.com/smc-benchmark/smcbench/internal/extract"
	"github.com/smc-benchmark/smcbench/internal/metrics"
	"github.com/smc-benchmark/smcbench/internal/reader"
	"github.com/smc-benchmark/smcbench/internal/store"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	store   *store.Store
	metrics *metrics.Metrics
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	st := store.New()
	m := metrics.New()

	handlerOpts := []api.HandlerOption{
		api.WithMetrics(m),
		api.WithExtractDefaults(extract.Options{
			Gaps:         cfg.Extract.Gaps,
			SecantWidth:  cfg.Extract.SecantWidth,
			FilterWindow: cfg.Extract.FilterWindow,
		}),
	}

	if cfg.DataRoot != "" {
		root, err := resolveDataRoot(cfg.DataRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to locate data root: %w", err)
		}
		loader := &reader.Loader{
			Root:         root,
			Institutions: cfg.Institutions,
			Options: reader.Options{
				Material:      cfg.Material,
				Specification: cfg.Specification,
				KeepErroneous: cfg.KeepErroneous,
			},
			Logger: logger,
		}

		corpus, err := loader.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load benchmark data: %w", err)
		}
		st.Replace(corpus)
		m.SetLoaded(len(st.Institutions()), st.Samples())

		handlerOpts = append(handlerOpts, api.WithReload(loader.Load))
	}

	handler := api.NewHandler(st, handlerOpts...)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithRequestMetrics(m),
	)

	rootHandler := BuildRootHandler(apiRouter, m)
	server := NewServer(cfg, rootHandler)

	return &App{
		store:   st,
		metrics: m,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  server,
	}, nil
}

// BuildRootHandler constructs the root HTTP handler that routes API requests
// and exposes the metrics endpoint.
func BuildRootHandler(apiHandler http.Handler, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// resolveDataRoot locates the benchmark data directory. Absolute paths must
// exist as given; relative paths are searched upward from the working
// directory so the server can run from any subdirectory of a checkout.
func resolveDataRoot(root string) (string, error) {
	if filepath.IsAbs(root) {
		if _, err := os.Stat(root); err != nil {
			return "", err
		}
		return root, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, root)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", root)
}
