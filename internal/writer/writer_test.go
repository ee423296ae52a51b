package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/transit-ingest/gobble/internal/catalog"
	"github.com/transit-ingest/gobble/internal/detector"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		[]string{"CR-Providence"},
		[]string{"Red"},
		map[string]map[string]struct{}{"1": {"100": {}, "200": {}}},
	)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func TestWriteEventCreatesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, testCatalog(t))

	serviceDate := time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)
	ev := &detector.Event{
		ServiceDate:  serviceDate,
		RouteID:      "Red",
		DirectionID:  "0",
		StopID:       "70001",
		TripID:       "trip_1",
		VehicleID:    "v1",
		EventType:    detector.EventTypeArrival,
		EventTime:    serviceDate.Add(10 * time.Hour),
		StopSequence: 1,
	}

	if err := w.WriteEvent(ev); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if err := w.WriteEvent(ev); err != nil {
		t.Fatalf("second WriteEvent: %v", err)
	}

	shardDir := filepath.Join(dir, "daily-rapid-data", "70001", "Year=2022", "Month=6", "Day=15")
	data, err := os.ReadFile(filepath.Join(shardDir, "events.csv"))
	if err != nil {
		t.Fatalf("reading shard: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "service_date,route_id") {
		t.Errorf("header row = %q", lines[0])
	}
}

func TestWriteEventUnknownRouteErrors(t *testing.T) {
	w := New(t.TempDir(), testCatalog(t))
	ev := &detector.Event{RouteID: "not-a-route", EventTime: time.Now(), ServiceDate: time.Now()}
	if err := w.WriteEvent(ev); err == nil {
		t.Error("expected an error for a route outside the catalog")
	}
}

func TestWriteEventBusPathUsesDashes(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, testCatalog(t))

	serviceDate := time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)
	ev := &detector.Event{
		ServiceDate: serviceDate,
		RouteID:     "1",
		DirectionID: "0",
		StopID:      "100",
		TripID:      "trip_1",
		EventType:   detector.EventTypeDeparture,
		EventTime:   serviceDate.Add(10 * time.Hour),
	}
	if err := w.WriteEvent(ev); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	shardDir := filepath.Join(dir, "daily-bus-data", "1-0-100", "Year=2022", "Month=6", "Day=15", "events.csv")
	if _, err := os.Stat(shardDir); err != nil {
		t.Errorf("expected bus shard at %s: %v", shardDir, err)
	}
}
