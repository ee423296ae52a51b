package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/transit-ingest/gobble/internal/feed"
	"github.com/transit-ingest/gobble/internal/metrics"
)

// reconnectDelay is the minimum pause between a dropped connection and the
// next reconnect attempt.
const reconnectDelay = 500 * time.Millisecond

// Config configures a streaming Client against MBTA's v3 vehicles endpoint.
type Config struct {
	BaseURL string // default "https://api-v3.mbta.com/vehicles"
	APIKey  string
	Routes  []string
}

// Client streams vehicle updates over SSE, reconnecting on any read error.
// It implements feed.Source.
type Client struct {
	url        string
	headers    http.Header
	httpClient *http.Client
}

// New builds a streaming Client for cfg.Routes.
func New(cfg Config) (*Client, error) {
	if len(cfg.Routes) == 0 {
		return nil, fmt.Errorf("sse: at least one route is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://api-v3.mbta.com/vehicles"
	}

	q := url.Values{}
	q.Set("filter[route]", strings.Join(cfg.Routes, ","))
	feedURL := base + "?" + q.Encode()

	headers := http.Header{}
	if cfg.APIKey != "" {
		headers.Set("X-API-KEY", cfg.APIKey)
	}

	return &Client{
		url:        feedURL,
		headers:    headers,
		httpClient: &http.Client{}, // no timeout: this is a long-lived streaming GET
	}, nil
}

// Updates connects and streams de-serialized VehicleUpdates until ctx is
// canceled, reconnecting after any read error.
func (c *Client) Updates(ctx context.Context) <-chan feed.VehicleUpdate {
	out := make(chan feed.VehicleUpdate)

	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}
			if err := c.runOnce(ctx, out); err != nil && ctx.Err() == nil {
				log.Printf("sse: stream error, reconnecting: %v", err)
				metrics.Reconnects.WithLabelValues("sse").Inc()
			}
			select {
			case <-time.After(reconnectDelay):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Close is a no-op: each connection attempt owns and closes its own
// response body.
func (c *Client) Close() error { return nil }

func (c *Client) runOnce(ctx context.Context, out chan<- feed.VehicleUpdate) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	stream, err := Connect(req, c.httpClient)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		ev, err := stream.Next()
		if err != nil {
			return err
		}

		switch ev.Name {
		case "update", "add":
			upd, ok := decodeResource(ev.Data)
			if !ok {
				continue
			}
			if !emit(ctx, out, upd) {
				return nil
			}
		case "reset":
			var resources []json.RawMessage
			if err := json.Unmarshal(ev.Data, &resources); err != nil {
				log.Printf("sse: malformed reset frame: %v", err)
				metrics.UpdatesDropped.WithLabelValues(metrics.ReasonParseError).Inc()
				continue
			}
			for _, raw := range resources {
				upd, ok := decodeResource(raw)
				if !ok {
					continue
				}
				if !emit(ctx, out, upd) {
					return nil
				}
			}
		default:
			// Other event names (e.g. "remove") carry nothing the
			// detector needs.
		}
	}
}

func emit(ctx context.Context, out chan<- feed.VehicleUpdate, upd feed.VehicleUpdate) bool {
	select {
	case out <- upd:
		return true
	case <-ctx.Done():
		return false
	}
}

// jsonAPIResource is MBTA v3's vehicle resource shape (a JSON:API
// attributes/relationships envelope), which decodeResource turns into a
// feed.VehicleUpdate.
type jsonAPIResource struct {
	ID         string `json:"id"`
	Attributes struct {
		CurrentStatus       string `json:"current_status"`
		UpdatedAt           string `json:"updated_at"`
		CurrentStopSequence int    `json:"current_stop_sequence"`
		DirectionID         int    `json:"direction_id"`
		Label               string `json:"label"`
		OccupancyStatus     string `json:"occupancy_status"`
		OccupancyPercentage *int   `json:"occupancy_percentage"`
		Carriages           []struct {
			ID                  string `json:"id"`
			Label               string `json:"label"`
			OccupancyStatus     string `json:"occupancy_status"`
			OccupancyPercentage *int   `json:"occupancy_percentage"`
		} `json:"carriages"`
	} `json:"attributes"`
	Relationships struct {
		Route struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"route"`
		Stop struct {
			Data *struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"stop"`
		Trip struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"trip"`
	} `json:"relationships"`
}

// decodeResource parses one vehicle resource into a VehicleUpdate. It
// reports false for malformed or incomplete frames, which are skipped.
func decodeResource(raw []byte) (feed.VehicleUpdate, bool) {
	var res jsonAPIResource
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Printf("sse: malformed vehicle resource: %v", err)
		metrics.UpdatesDropped.WithLabelValues(metrics.ReasonParseError).Inc()
		return feed.VehicleUpdate{}, false
	}

	tripID := res.Relationships.Trip.Data.ID
	routeID := res.Relationships.Route.Data.ID
	if tripID == "" || routeID == "" {
		return feed.VehicleUpdate{}, false
	}

	updatedAt, err := time.Parse(time.RFC3339, res.Attributes.UpdatedAt)
	if err != nil {
		updatedAt = time.Now().UTC()
	}

	var stopID string
	if res.Relationships.Stop.Data != nil {
		stopID = res.Relationships.Stop.Data.ID
	}

	upd := feed.VehicleUpdate{
		TripID:              tripID,
		RouteID:             routeID,
		DirectionID:         strconv.Itoa(res.Attributes.DirectionID),
		StopID:              stopID,
		VehicleID:           res.ID,
		CurrentStatus:       res.Attributes.CurrentStatus,
		CurrentStopSequence: res.Attributes.CurrentStopSequence,
		VehicleLabel:        res.Attributes.Label,
		UpdatedAt:           updatedAt,
		OccupancyStatus:     res.Attributes.OccupancyStatus,
		OccupancyPercentage: res.Attributes.OccupancyPercentage,
	}
	if upd.VehicleLabel == "" {
		upd.VehicleLabel = upd.VehicleID
	}

	for _, c := range res.Attributes.Carriages {
		upd.Carriages = append(upd.Carriages, feed.Carriage{
			ID:                  c.ID,
			Label:               c.Label,
			OccupancyStatus:     c.OccupancyStatus,
			OccupancyPercentage: c.OccupancyPercentage,
		})
	}

	return upd, true
}
