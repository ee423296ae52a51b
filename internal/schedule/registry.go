package schedule

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// defaultGTFSArchivesPrefix and defaultGTFSArchivesFilename locate MBTA's
// registry of historical GTFS archive URLs by feed date range. Callers
// normally override these from config.Config's GTFSArchivesPrefix/
// GTFSArchivesFilename keys; these are the fallback when left unset.
const (
	defaultGTFSArchivesPrefix   = "https://cdn.mbta.com/archive/"
	defaultGTFSArchivesFilename = "archived_feeds.txt"
)

type registryRow struct {
	FeedStartDate int
	FeedEndDate   int
	ArchiveURL    string
}

// registryPath is where the downloaded registry CSV is cached locally.
func registryPath(cacheRoot, archivesFilename string) string {
	return filepath.Join(cacheRoot, archivesFilename)
}

func downloadRegistry(client *http.Client, cacheRoot, archivesPrefix, archivesFilename string) ([]registryRow, error) {
	if archivesPrefix == "" {
		archivesPrefix = defaultGTFSArchivesPrefix
	}
	if archivesFilename == "" {
		archivesFilename = defaultGTFSArchivesFilename
	}

	resp, err := client.Get(archivesPrefix + archivesFilename)
	if err != nil {
		return nil, fmt.Errorf("schedule: fetching archive registry: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schedule: archive registry returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("schedule: reading archive registry: %w", err)
	}

	if err := os.MkdirAll(cacheRoot, 0o755); err != nil {
		return nil, fmt.Errorf("schedule: creating cache dir: %w", err)
	}
	if err := os.WriteFile(registryPath(cacheRoot, archivesFilename), body, 0o644); err != nil {
		return nil, fmt.Errorf("schedule: caching archive registry: %w", err)
	}

	return parseRegistry(body)
}

func loadLocalRegistry(cacheRoot, archivesFilename string) ([]registryRow, error) {
	if archivesFilename == "" {
		archivesFilename = defaultGTFSArchivesFilename
	}
	body, err := os.ReadFile(registryPath(cacheRoot, archivesFilename))
	if err != nil {
		return nil, err
	}
	return parseRegistry(body)
}

func parseRegistry(body []byte) ([]registryRow, error) {
	var rows []registryRow
	err := readCSV(bytes.NewReader(body), func(record []string, idx map[string]int) {
		rows = append(rows, registryRow{
			FeedStartDate: parseIntField(record, idx, "feed_start_date"),
			FeedEndDate:   parseIntField(record, idx, "feed_end_date"),
			ArchiveURL:    getField(record, idx, "archive_url"),
		})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// selectArchive picks the first registry row whose feed date range covers
// dateint, matching the original registry's row order (most recent feeds
// are listed first).
func selectArchive(rows []registryRow, dateint int) (registryRow, bool) {
	for _, row := range rows {
		if row.FeedStartDate <= dateint && row.FeedEndDate >= dateint {
			return row, true
		}
	}
	return registryRow{}, false
}
