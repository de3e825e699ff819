// Package metrics owns the Prometheus registry and the small HTTP
// listener exposing it.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	// InteractionsTotal counts handled commands and component
	// interactions by module and action.
	InteractionsTotal *prometheus.CounterVec
	// HandlerErrorsTotal counts unexpected (non-domain) handler
	// failures.
	HandlerErrorsTotal *prometheus.CounterVec
	// TableFetchesTotal counts history-scan outcomes by table type.
	TableFetchesTotal *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		InteractionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatherbot_interactions_total",
			Help: "Commands and component interactions handled.",
		}, []string{"module", "action"}),
		HandlerErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatherbot_handler_errors_total",
			Help: "Unexpected handler failures.",
		}, []string{"module", "action"}),
		TableFetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatherbot_table_fetches_total",
			Help: "Channel history scans by table type and outcome.",
		}, []string{"table", "result"}),
	}
}

// Registry exposes the registry so the Watermill router metrics can
// register alongside ours.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Serve runs the metrics listener until the context is canceled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		return nil
	}
}
