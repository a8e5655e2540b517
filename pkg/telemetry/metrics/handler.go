package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fspreiss/metrics-proxy/pkg/config"
)

// Server serves the proxy's own metrics on a dedicated listener.
type Server struct {
	cfg        *config.MetricsConfig
	httpServer *http.Server
}

// NewServer builds the self-metrics HTTP server for a collector.
func NewServer(cfg *config.MetricsConfig, collector *Collector) *Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(
		collector.Registry(),
		promhttp.HandlerOpts{},
	))

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:              cfg.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting self-metrics server",
			"address", s.cfg.ListenAddress,
			"path", s.cfg.Path,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
