package gtfsrt

import (
	"testing"

	"github.com/transit-ingest/gobble/internal/feed"
)

func TestBuildAuthenticatedURLQueryMethod(t *testing.T) {
	got, err := buildAuthenticatedURL("https://feed.example.com/vp.pb?format=pb", APIKeyMethodQuery, "X-API-KEY", "secret")
	if err != nil {
		t.Fatalf("buildAuthenticatedURL: %v", err)
	}
	if got != "https://feed.example.com/vp.pb?X-API-KEY=secret&format=pb" {
		t.Errorf("got %q", got)
	}
}

func TestBuildAuthenticatedURLHeaderMethodUnchanged(t *testing.T) {
	got, err := buildAuthenticatedURL("https://feed.example.com/vp.pb", APIKeyMethodHeader, "X-API-KEY", "secret")
	if err != nil {
		t.Fatalf("buildAuthenticatedURL: %v", err)
	}
	if got != "https://feed.example.com/vp.pb" {
		t.Errorf("expected the URL unchanged for header auth, got %q", got)
	}
}

func TestPositionChangedDetectsStopChange(t *testing.T) {
	prev := cachedUpdate{stopID: "70001", currentStatus: "STOPPED_AT"}
	next := cachedUpdate{stopID: "70002", currentStatus: "STOPPED_AT"}
	if !positionChanged(prev, next) {
		t.Error("expected a stop_id change to be detected")
	}
}

func TestPositionChangedNoOp(t *testing.T) {
	u := cachedUpdate{
		stopID: "70001", currentStatus: "STOPPED_AT", currentStopSequence: 3,
		occupancyStatus: "MANY_SEATS_AVAILABLE",
		carriages:       []feed.Carriage{{ID: "1", Label: "1234"}},
	}
	other := u
	other.carriages = []feed.Carriage{{ID: "1", Label: "1234"}}
	if positionChanged(u, other) {
		t.Error("expected identical updates to compare unchanged")
	}
}

func TestPositionChangedDetectsCarriageChange(t *testing.T) {
	prev := cachedUpdate{carriages: []feed.Carriage{{ID: "1", OccupancyStatus: "FULL"}}}
	next := cachedUpdate{carriages: []feed.Carriage{{ID: "1", OccupancyStatus: "EMPTY"}}}
	if !positionChanged(prev, next) {
		t.Error("expected a carriage occupancy change to be detected")
	}
}

func TestNewRequiresFeedURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected an error when FeedURL is empty")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	c, err := New(Config{FeedURL: "https://feed.example.com/vp.pb"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.pollingInterval != defaultPollingInterval {
		t.Errorf("pollingInterval = %v, want default", c.pollingInterval)
	}
}

func TestNewHeaderAuthSetsHeader(t *testing.T) {
	c, err := New(Config{FeedURL: "https://feed.example.com/vp.pb", APIKey: "secret", APIKeyMethod: APIKeyMethodHeader})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.headers.Get("X-API-KEY") != "secret" {
		t.Errorf("expected X-API-KEY header to be set, got %q", c.headers.Get("X-API-KEY"))
	}
}

func TestNewBearerAuthSetsAuthorizationHeader(t *testing.T) {
	c, err := New(Config{FeedURL: "https://feed.example.com/vp.pb", APIKey: "secret", APIKeyMethod: APIKeyMethodBearer})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.headers.Get("Authorization") != "Bearer secret" {
		t.Errorf("got %q", c.headers.Get("Authorization"))
	}
}
