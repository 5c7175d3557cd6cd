package snapshot

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCSProvider stores snapshots in a Google Cloud Storage bucket.
// Authentication goes through Application Default Credentials.
type GCSProvider struct {
	client *storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewGCSProvider initializes the GCS client and verifies bucket access so a
// misconfigured deployment fails at startup rather than mid-run.
func NewGCSProvider(ctx context.Context, bucket, prefix string, logger *zap.Logger) (*GCSProvider, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("close gcs client after attrs failure", zap.Error(cerr))
		}
		return nil, fmt.Errorf("get gcs bucket %q attributes: %w", bucket, err)
	}
	return &GCSProvider{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Save uploads the snapshot to the bucket.
func (g *GCSProvider) Save(ctx context.Context, objectName string, data []byte) error {
	object := objectName
	if g.prefix != "" {
		object = path.Join(g.prefix, objectName)
	}
	wc := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	wc.ContentType = "text/html; charset=utf-8"
	if _, err := wc.Write(data); err != nil {
		if cerr := wc.Close(); cerr != nil {
			g.logger.Warn("close gcs writer after write failure", zap.Error(cerr))
		}
		return fmt.Errorf("write gcs object %s: %w", object, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("finalize gcs object %s: %w", object, err)
	}
	return nil
}

// Close releases the GCS client.
func (g *GCSProvider) Close() error {
	if err := g.client.Close(); err != nil {
		return fmt.Errorf("close gcs client: %w", err)
	}
	return nil
}
