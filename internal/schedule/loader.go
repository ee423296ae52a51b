package schedule

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoArchiveAvailable is returned when no GTFS archive can be resolved
// for a date, neither from the registry nor from anything cached locally.
var ErrNoArchiveAvailable = errors.New("schedule: no GTFS archive available")

// DefaultRefreshIntervalDays controls how stale a matched registry row is
// allowed to get before Load re-downloads the registry on the chance a
// newer feed now covers the same date.
const DefaultRefreshIntervalDays = 1

// Load resolves, downloads if necessary, and parses the GTFS archive
// covering dateint, returning an Archive scoped to that service date.
// refreshIntervalDays governs the registry re-download staleness check
// (see resolveArchiveDir); pass <= 0 to use DefaultRefreshIntervalDays.
// archivesPrefix/archivesFilename come from config.Config's
// GTFSArchivesPrefix/GTFSArchivesFilename; pass "" for each to use the
// package defaults.
func Load(client *http.Client, cacheRoot string, dateint int, serviceDate time.Time, refreshIntervalDays int, archivesPrefix, archivesFilename string) (*Archive, error) {
	archivesDir := filepath.Join(cacheRoot, "gtfs_archives")

	archiveDir, err := resolveArchiveDir(client, archivesDir, dateint, refreshIntervalDays, archivesPrefix, archivesFilename)
	if err != nil {
		if fallback, ferr := fallbackArchiveDir(archivesDir); ferr == nil {
			archiveDir = fallback
		} else {
			return nil, err
		}
	}

	return parseArchiveDir(archiveDir, dateint, serviceDate)
}

// resolveArchiveDir picks the local registry row covering dateint. If the
// matched row's feed_start_date is older than refreshIntervalDays, the
// registry is re-downloaded in case a newer feed has since started
// covering the same date, and the fresher match (if any) wins.
func resolveArchiveDir(client *http.Client, archivesDir string, dateint int, refreshIntervalDays int, archivesPrefix, archivesFilename string) (string, error) {
	if refreshIntervalDays <= 0 {
		refreshIntervalDays = DefaultRefreshIntervalDays
	}

	rows, err := loadLocalRegistry(archivesDir, archivesFilename)
	row, found := registryRow{}, false
	if err == nil {
		row, found = selectArchive(rows, dateint)
	}

	stale := found && feedStartIsStale(row.FeedStartDate, refreshIntervalDays)

	if !found || stale {
		freshRows, ferr := downloadRegistry(client, archivesDir, archivesPrefix, archivesFilename)
		switch {
		case ferr != nil && found:
			// Registry unreachable but the stale local match still works.
		case ferr != nil:
			return "", ferr
		default:
			if freshRow, freshFound := selectArchive(freshRows, dateint); freshFound {
				row, found = freshRow, true
			}
		}
		if !found {
			return "", fmt.Errorf("%w: no registry row covers %d", ErrNoArchiveAvailable, dateint)
		}
	}

	archiveURL := row.ArchiveURL
	archiveName := strings.TrimSuffix(filepath.Base(archiveURL), filepath.Ext(archiveURL))
	archiveDir := filepath.Join(archivesDir, archiveName)

	if info, err := os.Stat(archiveDir); err == nil && info.IsDir() {
		return archiveDir, nil
	}

	if err := downloadAndUnpack(client, archiveURL, archiveDir); err != nil {
		return "", err
	}
	return archiveDir, nil
}

// feedStartIsStale reports whether a registry row's feed_start_date
// (YYYYMMDD) is older than refreshIntervalDays before today.
func feedStartIsStale(feedStartDate int, refreshIntervalDays int) bool {
	start, err := time.Parse("20060102", fmt.Sprintf("%08d", feedStartDate))
	if err != nil {
		return true
	}
	cutoff := time.Now().AddDate(0, 0, -refreshIntervalDays)
	return start.Before(cutoff)
}

func downloadAndUnpack(client *http.Client, archiveURL, destDir string) error {
	resp, err := client.Get(archiveURL)
	if err != nil {
		return fmt.Errorf("schedule: downloading archive: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("schedule: archive download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "gtfs-archive-*.zip")
	if err != nil {
		return fmt.Errorf("schedule: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return fmt.Errorf("schedule: writing archive to disk: %w", err)
	}

	r, err := zip.OpenReader(tmp.Name())
	if err != nil {
		return fmt.Errorf("schedule: opening archive zip: %w", err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("schedule: creating archive dir: %w", err)
	}

	for _, f := range r.File {
		if err := extractZipFile(f, destDir); err != nil {
			return fmt.Errorf("schedule: extracting %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractZipFile(f *zip.File, destDir string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(filepath.Join(destDir, filepath.Base(f.Name)))
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// fallbackArchiveDir picks the lexically-newest dateint-like archive
// directory already present locally, used when the registry can't be
// reached and nothing covers the requested date.
func fallbackArchiveDir(archivesDir string) (string, error) {
	entries, err := os.ReadDir(archivesDir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", ErrNoArchiveAvailable
	}
	sort.Strings(names)
	return filepath.Join(archivesDir, names[len(names)-1]), nil
}

func parseArchiveDir(dir string, dateint int, serviceDate time.Time) (*Archive, error) {
	var calendar io.Reader
	if f, err := os.Open(filepath.Join(dir, "calendar.txt")); err == nil {
		defer f.Close()
		calendar = f
	}

	var calendarDates io.Reader
	if f, err := os.Open(filepath.Join(dir, "calendar_dates.txt")); err == nil {
		defer f.Close()
		calendarDates = f
	}

	services, err := ActiveServices(calendar, calendarDates, dateint, serviceDate.Weekday())
	if err != nil {
		return nil, fmt.Errorf("schedule: resolving active services: %w", err)
	}

	trips, err := parseTrips(filepath.Join(dir, "trips.txt"), services)
	if err != nil {
		return nil, fmt.Errorf("schedule: parsing trips.txt: %w", err)
	}

	tripIDs := make(map[string]struct{}, len(trips))
	for _, t := range trips {
		tripIDs[t.TripID] = struct{}{}
	}

	stopTimes, err := parseStopTimes(filepath.Join(dir, "stop_times.txt"), tripIDs)
	if err != nil {
		return nil, fmt.Errorf("schedule: parsing stop_times.txt: %w", err)
	}

	stops, err := parseStops(filepath.Join(dir, "stops.txt"))
	if err != nil {
		return nil, fmt.Errorf("schedule: parsing stops.txt: %w", err)
	}

	return NewArchive(trips, stopTimes, stops, serviceDate), nil
}

func parseTrips(path string, activeServices map[string]struct{}) ([]Trip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var trips []Trip
	err = readCSV(f, func(record []string, idx map[string]int) {
		serviceID := getField(record, idx, "service_id")
		if _, active := activeServices[serviceID]; !active {
			return
		}
		trips = append(trips, Trip{
			RouteID:     getField(record, idx, "route_id"),
			ServiceID:   serviceID,
			TripID:      getField(record, idx, "trip_id"),
			DirectionID: getField(record, idx, "direction_id"),
		})
	})
	return trips, err
}

func parseStopTimes(path string, activeTrips map[string]struct{}) ([]StopTime, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var stopTimes []StopTime
	err = readCSV(f, func(record []string, idx map[string]int) {
		tripID := getField(record, idx, "trip_id")
		if _, active := activeTrips[tripID]; !active {
			return
		}
		arrival, _ := parseGTFSTime(getField(record, idx, "arrival_time"))
		departure, _ := parseGTFSTime(getField(record, idx, "departure_time"))
		stopTimes = append(stopTimes, StopTime{
			TripID:        tripID,
			StopID:        getField(record, idx, "stop_id"),
			StopSequence:  parseIntField(record, idx, "stop_sequence"),
			ArrivalTime:   time.Duration(arrival) * time.Second,
			DepartureTime: time.Duration(departure) * time.Second,
		})
	})
	return stopTimes, err
}

func parseStops(path string) ([]Stop, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var stops []Stop
	err = readCSV(f, func(record []string, idx map[string]int) {
		stops = append(stops, Stop{
			StopID:   getField(record, idx, "stop_id"),
			StopName: getField(record, idx, "stop_name"),
		})
	})
	return stops, err
}
