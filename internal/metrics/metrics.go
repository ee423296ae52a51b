// Package metrics exposes process-level counters for the orchestrator's
// workers: events emitted, updates dropped, and feed reconnects, scraped
// over an optional /metrics HTTP endpoint.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EventsEmitted counts ARR/DEP rows written to a shard, labeled by mode and
// event_type.
var EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gobble",
	Name:      "events_emitted_total",
	Help:      "Number of ARR/DEP events written to output shards.",
}, []string{"mode", "event_type"})

// UpdatesDropped counts vehicle updates that never produced an event,
// labeled by the reason they were dropped.
var UpdatesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gobble",
	Name:      "updates_dropped_total",
	Help:      "Number of vehicle updates dropped before reaching a shard.",
}, []string{"reason"})

// Reconnects counts feed source reconnect attempts, labeled by source kind.
var Reconnects = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gobble",
	Name:      "feed_reconnects_total",
	Help:      "Number of feed source reconnect attempts.",
}, []string{"source"})

// WriteErrors counts shard write failures (disk full, permission denied).
var WriteErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gobble",
	Name:      "write_errors_total",
	Help:      "Number of shard write failures.",
}, []string{"mode"})

// Drop reasons, used as UpdatesDropped's "reason" label.
const (
	ReasonMissingStop  = "missing_stop_id"
	ReasonNotInScope   = "not_in_scope"
	ReasonNoEvent      = "no_event"
	ReasonWriteFailed  = "write_failed"
	ReasonParseError   = "parse_error"
	ReasonClassifyFail = "unclassified_route"
)

// Serve starts the Prometheus scrape endpoint on addr and blocks until ctx
// is canceled, then shuts the server down. Intended to run in its own
// goroutine from the orchestrator, optional per config.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Printf("metrics: shutting down /metrics server")
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
