// Package orchestrator wires every other package into the running daemon:
// it resolves the agency catalog, starts the schedule archive watcher,
// spawns one worker per mode/route-chunk, and drives
// graceful shutdown once its context is canceled.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/transit-ingest/gobble/internal/catalog"
	"github.com/transit-ingest/gobble/internal/config"
	"github.com/transit-ingest/gobble/internal/detector"
	"github.com/transit-ingest/gobble/internal/enrich"
	"github.com/transit-ingest/gobble/internal/feed"
	"github.com/transit-ingest/gobble/internal/feed/gtfsrt"
	"github.com/transit-ingest/gobble/internal/feed/sse"
	"github.com/transit-ingest/gobble/internal/metrics"
	"github.com/transit-ingest/gobble/internal/schedule"
	"github.com/transit-ingest/gobble/internal/scheduledate"
	"github.com/transit-ingest/gobble/internal/tripstate"
	"github.com/transit-ingest/gobble/internal/writer"
)

// busChunkSize is the maximum number of routes one bus worker's feed
// connection filters on, respecting the upstream SSE API's filter-length
// limit.
const busChunkSize = 10

// Run builds every component from cfg and drives the ingest pipeline until
// ctx is canceled. It returns only once every worker has drained its
// in-flight update and persisted trip state.
func Run(ctx context.Context, cfg *config.Config) error {
	cat, ok := catalog.ForAgency(cfg.Agency)
	if !ok {
		return fmt.Errorf("orchestrator: unknown agency %q", cfg.Agency)
	}

	log.Printf("orchestrator: starting for agency=%s modes=%v data_root=%s", cfg.Agency, cfg.Modes, cfg.DataRoot)

	store := schedule.NewStore(&http.Client{Timeout: 30 * time.Second}, cfg.DataRoot, cfg.GTFS.RefreshIntervalDays, cfg.GTFSArchivesPrefix, cfg.GTFSArchivesFilename)
	w := writer.New(cfg.DataRoot, cat)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Watch(ctx)
	}()

	if cfg.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Printf("orchestrator: metrics server stopped: %v", err)
			}
		}()
	}

	for _, workerCfg := range workersForModes(cfg, cat) {
		wg.Add(1)
		go func(wc workerConfig) {
			defer wg.Done()
			runWorker(ctx, wc, cfg, cat, store, w)
		}(workerCfg)
	}

	wg.Wait()
	log.Printf("orchestrator: all workers exited, shutdown complete")
	return nil
}

// workerConfig describes one worker's route partition.
type workerConfig struct {
	mode   catalog.Mode
	label  string
	routes []string
}

// workersForModes applies the chunking rule: one worker for all
// rapid routes, one for all CR routes, and bus routes partitioned into
// chunks of busChunkSize, one worker per chunk.
func workersForModes(cfg *config.Config, cat *catalog.Catalog) []workerConfig {
	var workers []workerConfig
	for _, mode := range cfg.Modes {
		switch mode {
		case "rapid":
			routes := cat.RoutesForMode(catalog.ModeRapid)
			if len(routes) > 0 {
				workers = append(workers, workerConfig{mode: catalog.ModeRapid, label: "rapid", routes: routes})
			}
		case "cr":
			routes := cat.RoutesForMode(catalog.ModeCR)
			if len(routes) > 0 {
				workers = append(workers, workerConfig{mode: catalog.ModeCR, label: "cr", routes: routes})
			}
		case "bus":
			routes := cat.RoutesForMode(catalog.ModeBus)
			for i := 0; i < len(routes); i += busChunkSize {
				end := i + busChunkSize
				if end > len(routes) {
					end = len(routes)
				}
				workers = append(workers, workerConfig{
					mode:   catalog.ModeBus,
					label:  fmt.Sprintf("bus[%d:%d]", i, end),
					routes: routes[i:end],
				})
			}
		default:
			log.Printf("orchestrator: ignoring unknown mode %q", mode)
		}
	}
	return workers
}

// runWorker owns one feed connection, one trip-state manager, and runs
// until ctx is canceled, draining any in-flight update before returning.
func runWorker(ctx context.Context, wc workerConfig, cfg *config.Config, cat *catalog.Catalog, store *schedule.Store, w *writer.Writer) {
	log.Printf("orchestrator: worker %s starting (%d routes)", wc.label, len(wc.routes))

	source, err := newSource(cfg, wc.routes)
	if err != nil {
		log.Printf("orchestrator: worker %s failed to start: %v", wc.label, err)
		return
	}
	defer source.Close()

	manager := tripstate.NewManager(cfg.DataRoot)
	updates := source.Updates(ctx)

	for upd := range updates {
		processUpdate(upd, wc.mode, cat, manager, store, w)
	}

	log.Printf("orchestrator: worker %s exiting", wc.label)
}

func newSource(cfg *config.Config, routes []string) (feed.Source, error) {
	if cfg.UseGTFSRT {
		client, err := gtfsrt.New(gtfsrt.Config{
			FeedURL:         cfg.GTFSRT.FeedURL,
			APIKey:          cfg.GTFSRT.APIKey,
			APIKeyMethod:    gtfsrt.APIKeyMethod(cfg.GTFSRT.APIKeyMethod),
			APIKeyParamName: cfg.GTFSRT.APIKeyParamName,
			PollingInterval: cfg.GTFSRT.PollingIntervalDuration(),
			Routes:          routes,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	client, err := sse.New(sse.Config{
		APIKey: cfg.MBTA.V3APIKey,
		Routes: routes,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// processUpdate runs one update through detection, the stop filter,
// enrichment, and the writer, recording metrics at each drop point. Any
// error is logged and the update dropped without corrupting trip state.
func processUpdate(upd feed.VehicleUpdate, mode catalog.Mode, cat *catalog.Catalog, manager *tripstate.Manager, store *schedule.Store, w *writer.Writer) {
	if upd.StopID == "" {
		metrics.UpdatesDropped.WithLabelValues(metrics.ReasonMissingStop).Inc()
		return
	}

	serviceDate := scheduledate.ServiceDate(upd.UpdatedAt, scheduledate.DefaultLocation)
	prev, hadPrev := manager.GetTripState(upd.RouteID, upd.TripID)

	ev, next := detector.Detect(prev, hadPrev, upd, serviceDate)

	if err := manager.SetTripState(upd.RouteID, upd.TripID, next); err != nil {
		log.Printf("orchestrator: persisting trip state for %s/%s: %v", upd.RouteID, upd.TripID, err)
	}

	if ev == nil {
		metrics.UpdatesDropped.WithLabelValues(metrics.ReasonNoEvent).Inc()
		return
	}

	if !cat.InScope(ev.RouteID, ev.StopID) {
		metrics.UpdatesDropped.WithLabelValues(metrics.ReasonNotInScope).Inc()
		return
	}

	if archive := store.Current(); archive != nil {
		enrich.Enrich(ev, archive, next)
	}

	if err := w.WriteEvent(ev); err != nil {
		log.Printf("orchestrator: writing event for %s/%s: %v", upd.RouteID, upd.TripID, err)
		metrics.WriteErrors.WithLabelValues(string(mode)).Inc()
		if errors.Is(err, writer.ErrRouteNotClassified) {
			metrics.UpdatesDropped.WithLabelValues(metrics.ReasonClassifyFail).Inc()
		} else {
			metrics.UpdatesDropped.WithLabelValues(metrics.ReasonWriteFailed).Inc()
		}
		return
	}

	metrics.EventsEmitted.WithLabelValues(string(mode), ev.EventType).Inc()
}
