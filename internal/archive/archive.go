// Package archive keeps a copy of every generated report in Google Cloud
// Storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/MrJamesThe3rd/ledgerly/internal/config"
)

const uploadTimeout = 2 * time.Minute

// GCS uploads reports under gs://bucket/prefix/. It relies on Application
// Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS builds the storage client. opts are passed to storage.NewClient.
func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCS, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, config.Missing("ARCHIVE_GCS_BUCKET")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCS{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// ObjectName returns the object path a report named name is stored under.
func ObjectName(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return path.Join(prefix, name)
}

// Upload stores pdf and returns its gs:// URI.
func (g *GCS) Upload(ctx context.Context, name string, pdf []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	object := ObjectName(g.prefix, name)

	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/pdf"

	if _, err := io.Copy(w, bytes.NewReader(pdf)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy report to GCS writer: %w", err)
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return "gs://" + g.bucket + "/" + object, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
