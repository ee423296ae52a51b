package schedule

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/transit-ingest/gobble/internal/scheduledate"
)

// WatchInterval is how often Watch checks whether the service date has
// rolled over and a new archive needs to be loaded.
const WatchInterval = 60 * time.Second

// Store holds the process-wide current Archive behind an atomic pointer,
// so readers never block on the writer swapping in a new day's schedule.
type Store struct {
	client              *http.Client
	cacheRoot           string
	refreshIntervalDays int
	archivesPrefix      string
	archivesFilename    string
	current             atomic.Pointer[Archive]
}

// NewStore creates an empty Store. Call Refresh once before serving traffic
// to populate it, or rely on the first Watch tick. refreshIntervalDays is
// the registry staleness threshold from config.gtfs.refresh_interval_days;
// pass <= 0 to use DefaultRefreshIntervalDays. archivesPrefix and
// archivesFilename come from config.Config's GTFSArchivesPrefix/
// GTFSArchivesFilename; pass "" for each to use the package defaults.
func NewStore(client *http.Client, cacheRoot string, refreshIntervalDays int, archivesPrefix, archivesFilename string) *Store {
	return &Store{
		client:              client,
		cacheRoot:           cacheRoot,
		refreshIntervalDays: refreshIntervalDays,
		archivesPrefix:      archivesPrefix,
		archivesFilename:    archivesFilename,
	}
}

// Current returns the active Archive, or nil if none has loaded yet.
func (s *Store) Current() *Archive {
	return s.current.Load()
}

// Refresh loads the archive for the current service date if the store is
// empty or the service date has rolled over since the last load.
func (s *Store) Refresh() error {
	serviceDate := scheduledate.CurrentServiceDate()
	current := s.current.Load()
	if current != nil && current.ServiceDate.Equal(serviceDate) {
		return nil
	}

	dateint := scheduledate.ToDateint(serviceDate)
	archive, err := Load(s.client, s.cacheRoot, dateint, serviceDate, s.refreshIntervalDays, s.archivesPrefix, s.archivesFilename)
	if err != nil {
		return err
	}

	if current == nil {
		log.Printf("schedule: loaded archive for %s", archive)
	} else {
		log.Printf("schedule: rolled archive from %s to %s", current.ServiceDate.Format("2006-01-02"), archive)
	}
	s.current.Store(archive)
	return nil
}

// Watch runs Refresh on a ticker until ctx is canceled, logging (but not
// failing on) refresh errors so a transient network issue doesn't take
// down the process — the previous archive just keeps serving.
func (s *Store) Watch(ctx context.Context) {
	if err := s.Refresh(); err != nil {
		log.Printf("schedule: initial archive load failed: %v", err)
	}

	ticker := time.NewTicker(WatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Refresh(); err != nil {
				log.Printf("schedule: archive refresh failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
