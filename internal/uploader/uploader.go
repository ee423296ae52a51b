// Package uploader defines the object-store mirror contract the s3_upload
// tool drives. Actual cloud-SDK wiring is explicitly out of scope for this
// module; this
// package only gzips shards and hands them to an injected Uploader, with a
// local stub as the default so the CLI is runnable standalone.
package uploader

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"os"
)

// Uploader puts one gzipped object at key, with the given content type and
// encoding headers ("Events-live/{relative_path}.gz",
// content-type text/csv, content-encoding gzip).
type Uploader interface {
	Put(ctx context.Context, key string, body io.Reader, contentType, contentEncoding string) error
}

// keyPrefix is the object-store key namespace every mirrored shard lives
// under.
const keyPrefix = "Events-live/"

// Stub is a no-op Uploader that only logs what it would have sent,
// standing in for a real object-store SDK client.
type Stub struct{}

// Put logs the upload that would have happened and returns nil.
func (Stub) Put(ctx context.Context, key string, body io.Reader, contentType, contentEncoding string) error {
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return fmt.Errorf("uploader: stub draining body for %s: %w", key, err)
	}
	log.Printf("uploader: [stub] would PUT %s (%d gzipped bytes, %s, %s)", key, n, contentType, contentEncoding)
	return nil
}

// MirrorShard gzips the file at localPath and uploads it under
// Events-live/{relativePath}.gz via up.
func MirrorShard(ctx context.Context, up Uploader, localPath, relativePath string) (gzippedSize int64, err error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return 0, fmt.Errorf("uploader: reading %s: %w", localPath, err)
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		return 0, fmt.Errorf("uploader: gzipping %s: %w", localPath, err)
	}
	if err := gw.Close(); err != nil {
		return 0, fmt.Errorf("uploader: closing gzip stream for %s: %w", localPath, err)
	}

	key := keyPrefix + relativePath + ".gz"
	if err := up.Put(ctx, key, bytes.NewReader(buf.Bytes()), "text/csv", "gzip"); err != nil {
		return 0, fmt.Errorf("uploader: uploading %s: %w", key, err)
	}
	return int64(buf.Len()), nil
}
