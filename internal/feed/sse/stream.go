// Package sse implements a minimal Server-Sent Events client for MBTA's
// streaming vehicles API, since no third-party SSE client exists anywhere
// in the reference corpus this module was built against.
package sse

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"
)

// Event is one parsed SSE frame: an event name and its raw data payload.
// Frames with no "event:" line are skipped by Stream.Next.
type Event struct {
	Name string
	Data []byte
}

// Stream reads SSE frames off an open HTTP response body.
type Stream struct {
	resp    *http.Response
	scanner *bufio.Scanner
}

// Connect sets "Accept: text/event-stream" on req, sends it with client,
// and returns a Stream ready to read frames from. The caller must call
// Close when done.
func Connect(req *http.Request, client *http.Client) (*Stream, error) {
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("sse: stream returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	return &Stream{resp: resp, scanner: scanner}, nil
}

// Next reads the next SSE frame, blocking until one arrives or the stream
// ends. It returns io-style (nil, err) at EOF or on a read error; the
// caller should reconnect in that case.
func (s *Stream) Next() (*Event, error) {
	var eventName string
	var data []string

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if eventName == "" && len(data) == 0 {
				continue // blank keep-alive line between frames
			}
			if eventName == "" {
				// Data with no event name is not one of the frame types
				// gobble cares about; reset and keep reading.
				data = nil
				continue
			}
			return &Event{Name: eventName, Data: []byte(strings.Join(data, "\n"))}, nil
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive, ignored
		}
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("sse: stream closed")
}

// Close releases the underlying HTTP response body.
func (s *Stream) Close() error {
	return s.resp.Body.Close()
}
