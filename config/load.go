package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envKeys maps viper keys to the environment variables they are read from.
// BASE_URL and the WOOCOMMERCE_* names match existing deployments.
var envKeys = map[string]string{
	"base_url":             "BASE_URL",
	"consumer_key":         "WOOCOMMERCE_CONSUMER_KEY",
	"consumer_secret":      "WOOCOMMERCE_CONSUMER_SECRET",
	"credentials_file":     "GOOGLE_APPLICATION_CREDENTIALS",
	"gcs_bucket":           "GCS_BUCKET_NAME",
	"sink":                 "EXTRACTOR_SINK",
	"formats":              "EXTRACTOR_FORMATS",
	"publish_formats":      "EXTRACTOR_PUBLISH_FORMATS",
	"csv_dir":              "EXTRACTOR_CSV_DIR",
	"parquet_dir":          "EXTRACTOR_PARQUET_DIR",
	"jsonl_dir":            "EXTRACTOR_JSONL_DIR",
	"sqlite_path":          "EXTRACTOR_SQLITE_PATH",
	"drive_folder_id":      "EXTRACTOR_DRIVE_FOLDER_ID",
	"timeout":              "EXTRACTOR_TIMEOUT",
	"delay":                "EXTRACTOR_DELAY",
	"max_pages":            "EXTRACTOR_MAX_PAGES",
	"dedupe_max_size":      "EXTRACTOR_DEDUPE_MAX_SIZE",
	"insecure_skip_verify": "EXTRACTOR_INSECURE_SKIP_VERIFY",
	"user_agent":           "EXTRACTOR_USER_AGENT",
	"analytics_lookback":   "EXTRACTOR_ANALYTICS_LOOKBACK",
	"log_level":            "EXTRACTOR_LOG_LEVEL",
	"log_format":           "EXTRACTOR_LOG_FORMAT",
	"metrics_addr":         "EXTRACTOR_METRICS_ADDR",
}

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing files
// are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load builds a Config from the environment on top of DefaultConfig.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	defaults := DefaultConfig()
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("delay", defaults.Delay)
	v.SetDefault("max_pages", defaults.MaxPages)
	v.SetDefault("dedupe_max_size", defaults.DedupeMaxSize)
	v.SetDefault("insecure_skip_verify", defaults.InsecureSkipVerify)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("analytics_lookback", defaults.AnalyticsLookback)
	v.SetDefault("formats", strings.Join(defaults.Formats, ","))
	v.SetDefault("publish_formats", strings.Join(defaults.PublishFormats, ","))
	v.SetDefault("csv_dir", defaults.CSVDir)
	v.SetDefault("parquet_dir", defaults.ParquetDir)
	v.SetDefault("jsonl_dir", defaults.JSONLDir)
	v.SetDefault("sink", defaults.Sink)
	v.SetDefault("sqlite_path", defaults.SQLitePath)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		BaseURL:            strings.TrimRight(v.GetString("base_url"), "/"),
		ConsumerKey:        v.GetString("consumer_key"),
		ConsumerSecret:     v.GetString("consumer_secret"),
		Timeout:            v.GetDuration("timeout"),
		Delay:              v.GetDuration("delay"),
		MaxPages:           v.GetInt("max_pages"),
		DedupeMaxSize:      v.GetInt("dedupe_max_size"),
		InsecureSkipVerify: v.GetBool("insecure_skip_verify"),
		UserAgent:          v.GetString("user_agent"),
		AnalyticsLookback:  v.GetDuration("analytics_lookback"),
		Formats:            splitList(v.GetString("formats")),
		PublishFormats:     splitList(v.GetString("publish_formats")),
		CSVDir:             v.GetString("csv_dir"),
		ParquetDir:         v.GetString("parquet_dir"),
		JSONLDir:           v.GetString("jsonl_dir"),
		Sink:               strings.ToLower(v.GetString("sink")),
		CredentialsFile:    v.GetString("credentials_file"),
		GCSBucket:          v.GetString("gcs_bucket"),
		DriveFolderID:      v.GetString("drive_folder_id"),
		SQLitePath:         v.GetString("sqlite_path"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          strings.ToLower(v.GetString("log_format")),
		MetricsAddr:        v.GetString("metrics_addr"),
	}
	return cfg, nil
}
