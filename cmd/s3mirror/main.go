// Command s3mirror is the one-shot companion to gobble: it walks the
// locally-written event shards for
// one or more service dates and mirrors each changed shard to the object
// store, gzipped, under "Events-live/{relative_path}.gz".
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/transit-ingest/gobble/internal/scheduledate"
	"github.com/transit-ingest/gobble/internal/statedb"
	"github.com/transit-ingest/gobble/internal/uploader"
)

const shardFilename = "events.csv"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("s3_upload", pflag.ContinueOnError)
	startDate := flags.String("start-date", "", "MM-DD-YYYY; backfills from this date through today, inclusive. Omit to mirror only today's service date.")
	dataRoot := flags.String("data-root", getEnv("DATA_ROOT", "/data"), "root directory event shards are written under")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	dates, err := datesToMirror(*startDate)
	if err != nil {
		log.Printf("s3mirror: %v", err)
		return 1
	}

	db, err := statedb.Connect(filepath.Join(*dataRoot, ".mirror-index.db"))
	if err != nil {
		log.Printf("s3mirror: %v", err)
		return 1
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		log.Printf("s3mirror: %v", err)
		return 1
	}

	up := uploader.Stub{}
	total, mirrored := 0, 0
	for _, d := range dates {
		n, m, err := mirrorServiceDate(ctx, db, up, *dataRoot, d)
		if err != nil {
			log.Printf("s3mirror: mirroring %s: %v", d.Format("2006-01-02"), err)
			return 2
		}
		total += n
		mirrored += m
	}

	log.Printf("s3mirror: done, %d/%d shards mirrored across %d service date(s)", mirrored, total, len(dates))
	return 0
}

// datesToMirror resolves the CLI's date range: today's service date alone,
// or every service date from startDate through today, inclusive.
func datesToMirror(startDate string) ([]time.Time, error) {
	today := scheduledate.CurrentServiceDate()
	if startDate == "" {
		return []time.Time{today}, nil
	}

	start, err := time.ParseInLocation("01-02-2006", startDate, scheduledate.DefaultLocation)
	if err != nil {
		return nil, fmt.Errorf("parsing --start-date %q (want MM-DD-YYYY): %w", startDate, err)
	}

	var dates []time.Time
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("--start-date %q is after today's service date", startDate)
	}
	return dates, nil
}

// mirrorServiceDate walks dataRoot for every shard belonging to serviceDate
// and mirrors those whose size has changed since the last successful
// upload. It returns the number of shards considered and the number
// actually mirrored.
func mirrorServiceDate(ctx context.Context, db *statedb.DB, up uploader.Uploader, dataRoot string, serviceDate time.Time) (total, mirroredCount int, err error) {
	suffix := fmt.Sprintf("Year=%d/Month=%d/Day=%d", serviceDate.Year(), int(serviceDate.Month()), serviceDate.Day())

	err = filepath.WalkDir(dataRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() || d.Name() != shardFilename {
			return nil
		}
		if !strings.HasSuffix(filepath.ToSlash(filepath.Dir(path)), "/"+suffix) {
			return nil
		}

		total++
		relPath, err := filepath.Rel(dataRoot, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		info, err := d.Info()
		if err != nil {
			return err
		}

		lastSize, known, err := db.LastMirrored(ctx, relPath)
		if err != nil {
			return err
		}
		if known && lastSize == info.Size() {
			return nil
		}

		if _, err := uploader.MirrorShard(ctx, up, path, relPath); err != nil {
			return err
		}
		if err := db.MarkMirrored(ctx, relPath, info.Size()); err != nil {
			return err
		}
		mirroredCount++
		return nil
	})
	if err != nil {
		return total, mirroredCount, err
	}
	return total, mirroredCount, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
