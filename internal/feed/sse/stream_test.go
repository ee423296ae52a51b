package sse

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStreamNextParsesEventAndData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		w.Write([]byte("event: update\ndata: {\"id\":\"1\"}\n\n"))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	stream, err := Connect(req, srv.Client())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer stream.Close()

	ev, err := stream.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Name != "update" {
		t.Errorf("Name = %q, want update", ev.Name)
	}
	if string(ev.Data) != `{"id":"1"}` {
		t.Errorf("Data = %q", ev.Data)
	}
}

func TestStreamNextMultilineData(t *testing.T) {
	body := "event: reset\ndata: [\ndata: {\"id\":\"1\"}\ndata: ]\n\n"
	sc := bufio.NewScanner(strings.NewReader(body))
	s := &Stream{scanner: sc}

	ev, err := s.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Name != "reset" {
		t.Errorf("Name = %q", ev.Name)
	}
	want := "[\n{\"id\":\"1\"}\n]"
	if string(ev.Data) != want {
		t.Errorf("Data = %q, want %q", ev.Data, want)
	}
}

func TestStreamNextReturnsErrorAtEOF(t *testing.T) {
	sc := bufio.NewScanner(strings.NewReader(""))
	s := &Stream{scanner: sc}
	if _, err := s.Next(); err == nil {
		t.Error("expected an error at EOF")
	}
}
