package uploader

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type recordingUploader struct {
	key             string
	body            []byte
	contentType     string
	contentEncoding string
}

func (r *recordingUploader) Put(ctx context.Context, key string, body io.Reader, contentType, contentEncoding string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	r.key = key
	r.body = data
	r.contentType = contentType
	r.contentEncoding = contentEncoding
	return nil
}

func TestMirrorShardGzipsAndKeysUnderEventsLive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.csv")
	want := "service_date,route_id\n2022-06-15,Red\n"
	if err := os.WriteFile(path, []byte(want), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rec := &recordingUploader{}
	size, err := MirrorShard(context.Background(), rec, path, "daily-rapid-data/70001/Year=2022/Month=6/Day=15/events.csv")
	if err != nil {
		t.Fatalf("MirrorShard: %v", err)
	}
	if size == 0 {
		t.Error("expected a non-zero gzipped size")
	}

	wantKey := "Events-live/daily-rapid-data/70001/Year=2022/Month=6/Day=15/events.csv.gz"
	if rec.key != wantKey {
		t.Errorf("key = %q, want %q", rec.key, wantKey)
	}
	if rec.contentType != "text/csv" || rec.contentEncoding != "gzip" {
		t.Errorf("contentType/contentEncoding = %q/%q, want text/csv/gzip", rec.contentType, rec.contentEncoding)
	}

	gr, err := gzip.NewReader(bytes.NewReader(rec.body))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer gr.Close()
	got, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("reading gzip body: %v", err)
	}
	if string(got) != want {
		t.Errorf("round-tripped body = %q, want %q", got, want)
	}
}

func TestStubDrainsBodyWithoutError(t *testing.T) {
	s := Stub{}
	if err := s.Put(context.Background(), "Events-live/x.csv.gz", bytes.NewReader([]byte("abc")), "text/csv", "gzip"); err != nil {
		t.Errorf("Stub.Put: %v", err)
	}
}
