// Package writer appends detected events to day/route/stop-partitioned CSV
// shards, creating the header row only the first time a shard is written.
package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/transit-ingest/gobble/internal/catalog"
	"github.com/transit-ingest/gobble/internal/detector"
	"github.com/transit-ingest/gobble/internal/scheduledate"
)

const eventsFilename = "events.csv"

// ErrRouteNotClassified is returned by WriteEvent when the event's route_id
// isn't in the writer's catalog, distinguishing a classification failure
// from a disk/IO write failure for callers that track them separately.
var ErrRouteNotClassified = errors.New("writer: route not in catalog")

// Fields is the fixed column order every shard's CSV rows are written in.
var Fields = []string{
	"service_date", "route_id", "trip_id", "direction_id", "stop_id",
	"stop_sequence", "vehicle_id", "vehicle_label", "event_type", "event_time",
	"scheduled_headway", "scheduled_tt", "vehicle_consist",
	"occupancy_status", "occupancy_percentage",
}

// Writer appends events to CSV shards rooted at DataRoot. Each shard path
// gets its own mutex, so concurrent writers to different shards never
// block each other, while writes to the same shard are serialized.
type Writer struct {
	DataRoot string
	Catalog  *catalog.Catalog

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	shardN map[string]int64
}

// New creates a Writer rooted at dataRoot, classifying routes with cat.
func New(dataRoot string, cat *catalog.Catalog) *Writer {
	return &Writer{
		DataRoot: dataRoot,
		Catalog:  cat,
		locks:    make(map[string]*sync.Mutex),
		shardN:   make(map[string]int64),
	}
}

func (w *Writer) shardLock(path string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	if l, ok := w.locks[path]; ok {
		return l
	}
	l := &sync.Mutex{}
	w.locks[path] = l
	return l
}

// WriteEvent resolves the shard path for ev, creates it if needed, and
// appends one row, writing the header first if the file is new.
func (w *Writer) WriteEvent(ev *detector.Event) error {
	mode, ok := w.Catalog.Classify(ev.RouteID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrRouteNotClassified, ev.RouteID)
	}

	dir := filepath.Join(w.DataRoot, scheduledate.OutputDirPath(ev.RouteID, ev.DirectionID, ev.StopID, ev.ServiceDate, mode))
	path := filepath.Join(dir, eventsFilename)

	lock := w.shardLock(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("writer: creating shard dir: %w", err)
	}

	writeHeader := false
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		writeHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("writer: opening shard: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if writeHeader {
		if err := cw.Write(Fields); err != nil {
			return fmt.Errorf("writer: writing header: %w", err)
		}
	}
	if err := cw.Write(rowFor(ev)); err != nil {
		return fmt.Errorf("writer: writing row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writer: flushing shard: %w", err)
	}

	if info, err := f.Stat(); err == nil {
		w.mu.Lock()
		w.shardN[path]++
		n := w.shardN[path]
		w.mu.Unlock()
		if n%500 == 0 {
			log.Printf("writer: %s now %s", path, humanize.Bytes(uint64(info.Size())))
		}
	}

	return nil
}

func rowFor(ev *detector.Event) []string {
	consist := make([]string, 0, len(ev.Carriages))
	occStatus := make([]string, 0, len(ev.Carriages))
	occPct := make([]string, 0, len(ev.Carriages))
	for _, c := range ev.Carriages {
		consist = append(consist, c.Label)
		occStatus = append(occStatus, c.OccupancyStatus)
		if c.OccupancyPercentage != nil {
			occPct = append(occPct, strconv.Itoa(*c.OccupancyPercentage))
		} else {
			occPct = append(occPct, "")
		}
	}

	vehicleID := ev.VehicleID
	if vehicleID == "" {
		vehicleID = "0"
	}

	vehicleConsist := strings.Join(consist, "|")
	if vehicleConsist == "" {
		vehicleConsist = ev.VehicleLabel
	}
	occupancyStatus := strings.Join(occStatus, "|")
	if occupancyStatus == "" {
		occupancyStatus = ev.OccupancyStatus
	}
	occupancyPercentage := strings.Join(occPct, "|")
	if occupancyPercentage == "" && ev.OccupancyPercentage != nil {
		occupancyPercentage = strconv.Itoa(*ev.OccupancyPercentage)
	}

	return []string{
		ev.ServiceDate.Format("2006-01-02"),
		ev.RouteID,
		ev.TripID,
		ev.DirectionID,
		ev.StopID,
		strconv.Itoa(ev.StopSequence),
		vehicleID,
		ev.VehicleLabel,
		ev.EventType,
		ev.EventTime.Format("2006-01-02T15:04:05Z07:00"),
		intOrEmpty(ev.ScheduledHeadway),
		intOrEmpty(ev.ScheduledTT),
		vehicleConsist,
		occupancyStatus,
		occupancyPercentage,
	}
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
