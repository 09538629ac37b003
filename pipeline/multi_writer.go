// Package pipeline writes extracted tables to files and hands them to a sink.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GottJagger/Extractor-API-wordpress/config"
	"github.com/GottJagger/Extractor-API-wordpress/models"
)

// OutputWriter persists a table to one file.
type OutputWriter interface {
	Write(table *models.Table) error
	Close() error
	Validate() error
	Path() string
}

// MultiWriter fans a table out to one writer per configured format.
type MultiWriter struct {
	formats []string
	writers map[string]OutputWriter
}

// NewMultiWriter creates the output files for endpoint in every format of
// cfg.Formats. Files already created are removed if a later one fails.
func NewMultiWriter(cfg *config.Config, endpoint string) (*MultiWriter, error) {
	mw := &MultiWriter{writers: make(map[string]OutputWriter, len(cfg.Formats))}
	for _, format := range cfg.Formats {
		path := filepath.Join(cfg.OutputDir(format), FileName(endpoint, format))
		writer, err := newOutputWriter(format, path)
		if err != nil {
			mw.Abort()
			return nil, fmt.Errorf("create %s writer: %w", format, err)
		}
		mw.formats = append(mw.formats, format)
		mw.writers[format] = writer
	}
	return mw, nil
}

func newOutputWriter(format, path string) (OutputWriter, error) {
	switch format {
	case config.FormatCSV:
		return NewCSVWriter(path)
	case config.FormatParquet:
		return NewParquetWriter(path)
	case config.FormatJSONL:
		return NewJSONWriter(path)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Write writes table with every writer.
func (mw *MultiWriter) Write(table *models.Table) error {
	for _, format := range mw.formats {
		if err := mw.writers[format].Write(table); err != nil {
			return fmt.Errorf("%s write failed: %w", format, err)
		}
	}
	return nil
}

// Close closes all writers.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, format := range mw.formats {
		if err := mw.writers[format].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s close failed: %w", format, err))
		}
	}
	return errors.Join(errs...)
}

// Validate validates all output files.
func (mw *MultiWriter) Validate() error {
	var errs []error
	for _, format := range mw.formats {
		if err := mw.writers[format].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s validation failed: %w", format, err))
		}
	}
	return errors.Join(errs...)
}

// Abort closes and deletes every file created so far.
func (mw *MultiWriter) Abort() {
	for _, format := range mw.formats {
		writer := mw.writers[format]
		_ = writer.Close()
		_ = os.Remove(writer.Path())
	}
}

// Files maps each format to its output path.
func (mw *MultiWriter) Files() map[string]string {
	files := make(map[string]string, len(mw.writers))
	for format, writer := range mw.writers {
		files[format] = writer.Path()
	}
	return files
}
