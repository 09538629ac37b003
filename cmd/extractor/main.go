package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/GottJagger/Extractor-API-wordpress/config"
	"github.com/GottJagger/Extractor-API-wordpress/logging"
	"github.com/GottJagger/Extractor-API-wordpress/models"
	"github.com/GottJagger/Extractor-API-wordpress/pipeline"
	"github.com/GottJagger/Extractor-API-wordpress/sink"
	"github.com/GottJagger/Extractor-API-wordpress/woocommerce"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code.
func run() int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	logCfg := logging.DefaultConfig()
	if cfg.LogLevel != "" {
		logCfg.Level = cfg.LogLevel
	}
	if cfg.LogFormat != "" {
		logCfg.Format = cfg.LogFormat
	}
	logging.Setup(logCfg)
	logger := logging.NewLogger("extractor").With().Str("run_id", uuid.NewString()).Logger()

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := woocommerce.NewMetrics()
	client, err := woocommerce.NewClient(cfg, woocommerce.WithMetrics(metrics), woocommerce.WithLogger(logging.NewLogger("woocommerce")))
	if err != nil {
		logger.Error().Err(err).Msg("initialising client")
		return 1
	}

	publisher, err := sink.New(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("sink", cfg.Sink).Msg("initialising sink")
		return 1
	}
	if publisher != nil {
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error().Err(err).Msg("close sink")
			}
		}()
	}
	p := pipeline.NewPipeline(cfg, client, publisher, metrics)

	metricsServer := startMetricsServer(cfg.MetricsAddr, metrics, logger)

	logger.Info().
		Str("base_url", cfg.BaseURL).
		Strs("formats", cfg.Formats).
		Str("sink", cfg.Sink).
		Msg("starting extraction")

	start := time.Now()
	outcomes := runAll(ctx, p, woocommerce.DefaultResources(start, cfg.AnalyticsLookback), logger)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown failed")
		}
		cancel()
	}

	if failed := printSummary(os.Stdout, outcomes, time.Since(start)); failed > 0 {
		return 1
	}
	return 0
}

// extractor runs one query end to end.
type extractor interface {
	Extract(ctx context.Context, q woocommerce.Query) (*models.ExtractResult, error)
}

type outcome struct {
	Endpoint string
	Result   *models.ExtractResult
	Err      error
}

// runAll extracts every query in order. A failed query is logged and the next
// one still runs; cancellation stops the sequence.
func runAll(ctx context.Context, ex extractor, queries []woocommerce.Query, logger zerolog.Logger) []outcome {
	outcomes := make([]outcome, 0, len(queries))
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, outcome{Endpoint: q.Endpoint, Err: err})
			continue
		}

		logger.Info().Str("endpoint", q.Endpoint).Msg("extraction started")
		result, err := ex.Extract(ctx, q)
		outcomes = append(outcomes, outcome{Endpoint: q.Endpoint, Result: result, Err: err})

		switch {
		case errors.Is(err, pipeline.ErrNoData):
			logger.Warn().Str("endpoint", q.Endpoint).Msg("no data found for endpoint")
		case err != nil:
			logger.Error().
				Err(err).
				Str("endpoint", q.Endpoint).
				Str("error_type", woocommerce.ErrorType(err)).
				Msg("extraction failed")
		default:
			logger.Info().
				Str("endpoint", q.Endpoint).
				Int("records", result.Records).
				Int("pages", result.Pages).
				Dur("duration", result.Duration()).
				Msg("extraction finished")
		}
	}
	return outcomes
}

func startMetricsServer(addr string, metrics *woocommerce.Metrics, logger zerolog.Logger) *http.Server {
	if addr == "" || metrics == nil {
		return nil
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", addr).Msg("metrics server enabled")
	return server
}

// printSummary writes the per-endpoint report and returns how many endpoints
// failed. Endpoints without data are not failures.
func printSummary(w io.Writer, outcomes []outcome, duration time.Duration) int {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "Extraction complete")

	var records, failed, empty int
	for _, o := range outcomes {
		switch {
		case errors.Is(o.Err, pipeline.ErrNoData):
			empty++
			fmt.Fprintf(w, "  %-26s no data\n", o.Endpoint)
		case o.Err != nil && o.Result == nil:
			failed++
			fmt.Fprintf(w, "  %-26s FAILED (%s): %v\n", o.Endpoint, woocommerce.ErrorType(o.Err), o.Err)
		default:
			records += o.Result.Records
			fmt.Fprintf(w, "  %-26s %d records, %d pages\n", o.Endpoint, o.Result.Records, o.Result.Pages)
			formats := make([]string, 0, len(o.Result.Files))
			for format := range o.Result.Files {
				formats = append(formats, format)
			}
			sort.Strings(formats)
			for _, format := range formats {
				path := o.Result.Files[format]
				if location, ok := o.Result.Locations[path]; ok {
					fmt.Fprintf(w, "    %-8s %s -> %s\n", format, path, location)
				} else {
					fmt.Fprintf(w, "    %-8s %s\n", format, path)
				}
			}
			if o.Err != nil {
				failed++
				fmt.Fprintf(w, "    FAILED (%s): %v\n", woocommerce.ErrorType(o.Err), o.Err)
			}
		}
	}

	fmt.Fprintf(w, "  Endpoints:     %d\n", len(outcomes))
	fmt.Fprintf(w, "  Records:       %d\n", records)
	fmt.Fprintf(w, "  Empty:         %d\n", empty)
	fmt.Fprintf(w, "  Failed:        %d\n", failed)
	fmt.Fprintf(w, "  Duration:      %v\n", duration)
	fmt.Fprintln(w, separator)
	return failed
}
