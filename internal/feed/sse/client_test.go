package sse

import (
	"testing"
)

func TestDecodeResourceUpdate(t *testing.T) {
	raw := []byte(`{
		"attributes": {
			"current_status": "STOPPED_AT",
			"updated_at": "2022-06-15T10:30:00-04:00",
			"current_stop_sequence": 5,
			"direction_id": 0,
			"label": "1234",
			"occupancy_status": "MANY_SEATS_AVAILABLE"
		},
		"relationships": {
			"route": {"data": {"id": "Red"}},
			"stop": {"data": {"id": "70001"}},
			"trip": {"data": {"id": "trip_123"}}
		}
	}`)

	upd, ok := decodeResource(raw)
	if !ok {
		t.Fatal("expected decodeResource to succeed")
	}
	if upd.TripID != "trip_123" || upd.RouteID != "Red" || upd.StopID != "70001" {
		t.Errorf("got %+v", upd)
	}
	if upd.CurrentStatus != "STOPPED_AT" {
		t.Errorf("CurrentStatus = %q", upd.CurrentStatus)
	}
}

func TestDecodeResourceMissingStopKeepsEmpty(t *testing.T) {
	raw := []byte(`{
		"attributes": {"current_status": "IN_TRANSIT_TO", "updated_at": "2022-06-15T10:30:00-04:00"},
		"relationships": {
			"route": {"data": {"id": "Red"}},
			"stop": {"data": null},
			"trip": {"data": {"id": "trip_123"}}
		}
	}`)

	upd, ok := decodeResource(raw)
	if !ok {
		t.Fatal("expected decodeResource to succeed")
	}
	if upd.StopID != "" {
		t.Errorf("StopID = %q, want empty", upd.StopID)
	}
}

func TestDecodeResourceMissingTripIsRejected(t *testing.T) {
	raw := []byte(`{
		"attributes": {"current_status": "IN_TRANSIT_TO"},
		"relationships": {
			"route": {"data": {"id": "Red"}},
			"trip": {"data": {"id": ""}}
		}
	}`)

	if _, ok := decodeResource(raw); ok {
		t.Error("expected decodeResource to reject a missing trip id")
	}
}

func TestNewRequiresRoutes(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected an error with no routes configured")
	}
}

func TestNewBuildsFilteredURL(t *testing.T) {
	c, err := New(Config{Routes: []string{"Red", "Orange"}, APIKey: "secret"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.headers.Get("X-API-KEY") != "secret" {
		t.Errorf("expected API key header to be set")
	}
	if c.url == "" {
		t.Error("expected a non-empty feed URL")
	}
}
