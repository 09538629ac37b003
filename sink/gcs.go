package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSPrefix is the object prefix files are uploaded under.
const GCSPrefix = "woocommerce"

// GCSSink uploads files to a Cloud Storage bucket as
// <GCSPrefix>/<file name>.
type GCSSink struct {
	bucket string
	client *storage.Client

	newWriter func(ctx context.Context, object string) io.WriteCloser
}

// NewGCSSink creates a storage client. credentialsFile may be empty to use
// application default credentials.
func NewGCSSink(ctx context.Context, bucket, credentialsFile string) (*GCSSink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket name is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}

	s := &GCSSink{bucket: bucket, client: client}
	s.newWriter = func(ctx context.Context, object string) io.WriteCloser {
		return client.Bucket(bucket).Object(object).NewWriter(ctx)
	}
	return s, nil
}

func (s *GCSSink) Name() string { return "gcs" }

// Accepts reports true for every format.
func (s *GCSSink) Accepts(string) bool { return true }

// Publish uploads the file and returns its gs:// URL.
func (s *GCSSink) Publish(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("gcs: open %s: %w", filePath, err)
	}
	defer f.Close()

	object := path.Join(GCSPrefix, filepath.Base(filePath))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.newWriter(ctx, object)
	if _, err := io.Copy(w, f); err != nil {
		// canceling the context aborts the upload
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("gcs: upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: finalize %s: %w", object, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

// Close releases the storage client.
func (s *GCSSink) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
