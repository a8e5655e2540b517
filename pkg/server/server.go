package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fspreiss/metrics-proxy/pkg/config"
	"github.com/fspreiss/metrics-proxy/pkg/proxy"
	"github.com/fspreiss/metrics-proxy/pkg/proxy/middleware"
	"github.com/fspreiss/metrics-proxy/pkg/scrape"
	securitytls "github.com/fspreiss/metrics-proxy/pkg/security/tls"
	"github.com/fspreiss/metrics-proxy/pkg/telemetry/metrics"
)

// shutdownTimeout bounds how long graceful shutdown waits for in-flight
// requests across all listeners.
const shutdownTimeout = 10 * time.Second

// Server runs one HTTP server per configured listen address and blocks
// until shutdown. All listeners share one scrape client so backend
// connections are pooled across routes.
type Server struct {
	topology  *config.Topology
	collector *metrics.Collector
	logger    *slog.Logger
	client    *scrape.Client

	httpServers  []*http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a proxy server for the resolved topology.
func NewServer(topology *config.Topology, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		topology:  topology,
		collector: collector,
		logger:    logger,
		client:    scrape.NewClient(),
	}
}

// Start brings up every listener and blocks until the context is cancelled,
// a shutdown signal arrives, or a listener fails. A bind or TLS setup
// failure on any listener aborts startup with an error naming the address.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	errChan := make(chan error, len(s.topology.Listeners))

	for _, listener := range s.topology.Listeners {
		httpServer, err := s.buildServer(watchCtx, listener)
		if err != nil {
			return fmt.Errorf("cannot set up listener %s: %w", listener.Addr, err)
		}
		s.httpServers = append(s.httpServers, httpServer)

		go func(l *config.Listener, srv *http.Server) {
			s.logger.Info("starting listener",
				"address", l.Addr,
				"protocol", l.Transport.String(),
				"routes", len(l.Routes),
			)

			var serveErr error
			if l.Transport == config.TransportTLS {
				serveErr = srv.ListenAndServeTLS("", "")
			} else {
				serveErr = srv.ListenAndServe()
			}
			if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				errChan <- fmt.Errorf("listener %s: %w", l.Addr, serveErr)
			}
		}(listener, httpServer)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	}
}

// Shutdown gracefully shuts down every listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", shutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		var wg sync.WaitGroup
		errs := make(chan error, len(s.httpServers))
		for _, srv := range s.httpServers {
			wg.Add(1)
			go func(srv *http.Server) {
				defer wg.Done()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					errs <- err
				}
			}(srv)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			s.logger.Error("error during listener shutdown", "error", err)
			shutdownErr = fmt.Errorf("listener shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("proxy server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// buildServer assembles the http.Server for one listener, TLS material
// included.
func (s *Server) buildServer(ctx context.Context, listener *config.Listener) (*http.Server, error) {
	httpServer := &http.Server{
		Addr:              listener.Addr,
		Handler:           s.buildHandler(listener),
		ReadHeaderTimeout: listener.HeaderReadTimeout,
	}

	if listener.Transport == config.TransportTLS {
		tlsConfig, err := s.buildTLSConfig(ctx, listener)
		if err != nil {
			return nil, err
		}
		httpServer.TLSConfig = tlsConfig
	}

	return httpServer, nil
}

// buildHandler assembles the route mux and per-route middleware chains for
// one listener.
func (s *Server) buildHandler(listener *config.Listener) http.Handler {
	mux := http.NewServeMux()

	for path, route := range listener.Routes {
		var handler http.Handler = proxy.NewDispatcher(route, s.client, s.collector, s.logger)

		if route.CacheFor > 0 {
			handler = middleware.Cache(route.CacheFor, route.Path, s.collector)(handler)
		}
		handler = middleware.Timeout(listener.RequestResponseTimeout)(handler)
		handler = getOnly(handler)
		handler = middleware.Logging(route.Path, s.collector)(handler)
		handler = middleware.RequestID(handler)
		handler = middleware.Recovery(handler)

		mux.Handle(path, handler)
	}

	return mux
}

// buildTLSConfig returns the TLS configuration for an https listener. With
// certificate watching enabled the material is served through a reloader
// that follows file changes; otherwise the certificate resolved at load
// time is pinned for the life of the process.
func (s *Server) buildTLSConfig(ctx context.Context, listener *config.Listener) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if listener.WatchCertificates {
		reloader, err := securitytls.NewCertificateReloader(
			listener.CertificateFile,
			listener.KeyFile,
			s.logger,
		)
		if err != nil {
			return nil, err
		}
		tlsConfig.GetCertificate = reloader.GetCertificate

		go func() {
			if err := reloader.Watch(ctx); err != nil {
				s.logger.Error("certificate watcher stopped",
					"address", listener.Addr,
					"error", err,
				)
			}
		}()
	} else {
		tlsConfig.Certificates = []tls.Certificate{*listener.Certificate}
	}

	return tlsConfig, nil
}

// getOnly rejects every method except GET with 405 and a matching Allow
// header.
func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}
