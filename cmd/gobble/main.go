// Command gobble runs the ingest-statefulness-event-detection daemon:
// it pulls a transit agency's vehicle position feed, tracks per-trip
// progress, detects ARR/DEP events, enriches them against the static
// schedule, and appends them to partitioned CSV shards.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/transit-ingest/gobble/internal/config"
	"github.com/transit-ingest/gobble/internal/orchestrator"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("gobble", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to a JSON config file (defaults to env-var configuration)")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	log.Println("Starting gobble...")

	// ═══════════════════════════════════════════════════════
	// PHASE 1: Load configuration
	// ═══════════════════════════════════════════════════════
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Printf("config error: %v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("config error: %v", err)
		return 1
	}
	log.Printf("Config loaded: agency=%s modes=%v use_gtfs_rt=%v", cfg.Agency, cfg.Modes, cfg.UseGTFSRT)

	// ═══════════════════════════════════════════════════════
	// PHASE 2: Run the orchestrator until signaled
	// ═══════════════════════════════════════════════════════
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("Shutting down...")
		cancel()
	}()

	if err := orchestrator.Run(ctx, cfg); err != nil {
		log.Printf("fatal: %v", err)
		return 2
	}

	log.Println("Goodbye!")
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if envPath := os.Getenv("GOBBLE_CONFIG_FILE"); envPath != "" {
		return config.LoadFile(envPath)
	}
	return config.Load(), nil
}
