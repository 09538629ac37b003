package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Output formats understood by the pipeline writers.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatJSONL   = "jsonl"
)

// Sink kinds selectable through EXTRACTOR_SINK.
const (
	SinkNone   = "none"
	SinkGCS    = "gcs"
	SinkDrive  = "drive"
	SinkSQLite = "sqlite"
)

// Config holds extractor configuration. It is built once at startup and passed
// by pointer to the client, pipeline and sinks.
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string

	Timeout            time.Duration
	Delay              time.Duration
	MaxPages           int // 0 means no cap
	DedupeMaxSize      int // 0 disables id de-duplication
	InsecureSkipVerify bool
	UserAgent          string
	AnalyticsLookback  time.Duration

	Formats        []string
	PublishFormats []string
	CSVDir         string
	ParquetDir     string
	JSONLDir       string

	Sink            string
	CredentialsFile string
	GCSBucket       string
	DriveFolderID   string
	SQLitePath      string

	LogLevel    string
	LogFormat   string // auto, json, or console
	MetricsAddr string
}

// DefaultConfig returns the defaults used when no environment is set.
func DefaultConfig() *Config {
	return &Config{
		Timeout:           30 * time.Second,
		Delay:             0,
		MaxPages:          0,
		DedupeMaxSize:     0,
		UserAgent:         "woocommerce-extractor/1.0",
		AnalyticsLookback: 365 * 24 * time.Hour,
		Formats:           []string{FormatCSV, FormatParquet},
		PublishFormats:    []string{FormatCSV},
		CSVDir:            "./CSVs",
		ParquetDir:        "./Parquets",
		JSONLDir:          "./JSONL",
		Sink:              SinkNone,
		SQLitePath:        "./woocommerce.db",
		LogLevel:          "info",
		LogFormat:         "auto",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base URL scheme must be http or https")
	}

	if c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return fmt.Errorf("consumer key and secret are required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.DedupeMaxSize < 0 {
		return fmt.Errorf("dedupe max size cannot be negative")
	}
	if c.AnalyticsLookback <= 0 {
		return fmt.Errorf("analytics lookback must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	if len(c.Formats) == 0 {
		return fmt.Errorf("at least one output format is required")
	}
	for _, format := range c.Formats {
		if !validFormat(format) {
			return fmt.Errorf("output format must be csv, parquet, or jsonl (got %q)", format)
		}
	}
	for _, format := range c.PublishFormats {
		if !c.HasFormat(format) {
			return fmt.Errorf("publish format %q is not among the output formats", format)
		}
	}

	switch c.LogFormat {
	case "auto", "json", "console":
	default:
		return fmt.Errorf("log format must be auto, json, or console")
	}

	switch c.Sink {
	case SinkNone:
	case SinkGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("gcs sink requires a bucket name")
		}
	case SinkDrive:
		if c.CredentialsFile == "" {
			return fmt.Errorf("drive sink requires a credentials file")
		}
	case SinkSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite sink requires a database path")
		}
	default:
		return fmt.Errorf("sink must be none, gcs, drive, or sqlite (got %q)", c.Sink)
	}

	return nil
}

// HasFormat reports whether the given output format is enabled.
func (c *Config) HasFormat(format string) bool {
	for _, f := range c.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// OutputDir returns the directory files of the given format are written to.
func (c *Config) OutputDir(format string) string {
	switch format {
	case FormatCSV:
		return c.CSVDir
	case FormatParquet:
		return c.ParquetDir
	case FormatJSONL:
		return c.JSONLDir
	default:
		return "."
	}
}

func validFormat(format string) bool {
	switch format {
	case FormatCSV, FormatParquet, FormatJSONL:
		return true
	default:
		return false
	}
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
