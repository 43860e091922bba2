// Package api exposes generated schedules and the dispatch history over
// HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	historyapi "github.com/kilianp07/railsched/api/history"
	scheduleapi "github.com/kilianp07/railsched/api/schedule"
	"github.com/kilianp07/railsched/core/dispatch/history"
	"github.com/kilianp07/railsched/infra/metrics"
)

// NewRouter mounts every endpoint on a dedicated mux. Metrics are served
// from gatherer, or the default gatherer when nil.
func NewRouter(schedules scheduleapi.Provider, store history.Store, token string, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/schedules/", scheduleapi.NewHandler(schedules))
	mux.Handle("/api/dispatch/history", historyapi.NewHandler(store, token))
	mux.Handle("/metrics", metrics.PromHandler(gatherer))
	return mux
}

// Serve runs h on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
