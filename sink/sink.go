// Package sink publishes finished output files to external destinations.
package sink

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/GottJagger/Extractor-API-wordpress/config"
)

// Sink receives output files. Publish returns where the file ended up.
type Sink interface {
	Name() string
	// Accepts reports whether files of the given output format can be
	// published.
	Accepts(format string) bool
	Publish(ctx context.Context, path string) (string, error)
	Close() error
}

// New builds the sink selected by cfg.Sink. It returns nil for "none".
func New(ctx context.Context, cfg *config.Config) (Sink, error) {
	switch cfg.Sink {
	case config.SinkNone, "":
		return nil, nil
	case config.SinkGCS:
		return NewGCSSink(ctx, cfg.GCSBucket, cfg.CredentialsFile)
	case config.SinkDrive:
		return NewDriveSink(ctx, cfg.CredentialsFile, cfg.DriveFolderID)
	case config.SinkSQLite:
		return NewSQLiteSink(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}

// formatOf returns the output format implied by a file extension.
func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// baseName is the file name without directory or extension.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
