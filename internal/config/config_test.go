package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"agency":"mbta","mbta":{"v3_api_key":"secret"}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(cfg.Modes) != 3 {
		t.Errorf("expected default modes, got %v", cfg.Modes)
	}
	if cfg.FileRetentionDays != 180 {
		t.Errorf("FileRetentionDays = %d, want 180 default", cfg.FileRetentionDays)
	}
	if cfg.GTFS.RefreshIntervalDays != 1 {
		t.Errorf("RefreshIntervalDays = %d, want 1 default", cfg.GTFS.RefreshIntervalDays)
	}
}

func TestLoadFileMissingErrors(t *testing.T) {
	if _, err := LoadFile("/nonexistent/config.json"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := &Config{Agency: "mbta", Modes: []string{"ferry"}}
	cfg.MBTA.V3APIKey = "secret"
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestValidateRejectsMissingAgency(t *testing.T) {
	cfg := &Config{Modes: []string{"cr"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a missing agency")
	}
}

func TestValidateRequiresFeedURLWhenGTFSRT(t *testing.T) {
	cfg := &Config{Agency: "mbta", Modes: []string{"rapid"}, UseGTFSRT: true}
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a missing gtfs_rt.feed_url")
	}
}

func TestValidateRequiresAPIKeyForNonHeaderMethods(t *testing.T) {
	cfg := &Config{Agency: "mbta", Modes: []string{"rapid"}, UseGTFSRT: true}
	cfg.GTFSRT.FeedURL = "https://example.com/vp.pb"
	cfg.GTFSRT.APIKeyMethod = APIKeyMethodBearer
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a missing api key with bearer auth")
	}
}

func TestValidateAcceptsSSEModeWithMBTAKey(t *testing.T) {
	cfg := &Config{Agency: "mbta", Modes: []string{"rapid", "cr", "bus"}}
	cfg.MBTA.V3APIKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRetentionDurationDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.RetentionDuration(); got.Hours() != 180*24 {
		t.Errorf("RetentionDuration = %v", got)
	}
}
