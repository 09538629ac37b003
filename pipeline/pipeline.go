package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/GottJagger/Extractor-API-wordpress/config"
	"github.com/GottJagger/Extractor-API-wordpress/logging"
	"github.com/GottJagger/Extractor-API-wordpress/models"
	"github.com/GottJagger/Extractor-API-wordpress/parser"
	"github.com/GottJagger/Extractor-API-wordpress/woocommerce"
)

// ErrNoData is returned when an endpoint yields no records. No file is
// written in that case.
var ErrNoData = errors.New("pipeline: no data found for endpoint")

// Fetcher retrieves every record of a query.
type Fetcher interface {
	FetchAll(ctx context.Context, q woocommerce.Query) (*models.Batch, error)
}

// Publisher delivers a finished output file and returns where it landed.
type Publisher interface {
	Name() string
	Accepts(format string) bool
	Publish(ctx context.Context, path string) (string, error)
}

// Pipeline runs the fetch, flatten, write and publish steps for one query at
// a time.
type Pipeline struct {
	cfg       *config.Config
	fetcher   Fetcher
	publisher Publisher
	metrics   *woocommerce.Metrics
	logger    zerolog.Logger
}

// NewPipeline wires a pipeline. publisher may be nil to skip publishing and
// metrics may be nil.
func NewPipeline(cfg *config.Config, fetcher Fetcher, publisher Publisher, metrics *woocommerce.Metrics) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		fetcher:   fetcher,
		publisher: publisher,
		metrics:   metrics,
		logger:    logging.NewLogger("pipeline"),
	}
}

// Extract fetches q, writes the result in every configured format and
// publishes the configured formats. When publishing fails the written files
// are kept and the result is returned along with the error.
func (p *Pipeline) Extract(ctx context.Context, q woocommerce.Query) (*models.ExtractResult, error) {
	result := &models.ExtractResult{
		Endpoint:  q.Endpoint,
		StartTime: time.Now(),
	}
	logger := p.logger.With().Str("endpoint", q.Endpoint).Logger()

	batch, err := p.fetcher.FetchAll(ctx, q)
	if err != nil {
		return nil, p.fail(err)
	}
	if batch.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", q.Endpoint, ErrNoData)
	}
	result.Records = batch.Len()
	result.Pages = batch.Pages
	result.Duplicates = batch.Duplicates

	table, err := parser.BuildTable(batch)
	if err != nil {
		return nil, p.fail(&woocommerce.UnexpectedError{Endpoint: q.Endpoint, Op: "table", Err: err})
	}
	if table.Empty() {
		return nil, fmt.Errorf("%s: %w", q.Endpoint, ErrNoData)
	}

	files, err := p.write(q.Endpoint, table)
	if err != nil {
		return nil, p.fail(&woocommerce.UnexpectedError{Endpoint: q.Endpoint, Op: "write", Err: err})
	}
	result.Files = files
	for format, path := range files {
		p.metrics.IncFile(format)
		logger.Info().Str("format", format).Str("path", path).Int("records", result.Records).Msg("file written")
	}

	result.Locations = make(map[string]string)
	if err := p.publish(ctx, result); err != nil {
		result.EndTime = time.Now()
		return result, p.fail(&woocommerce.UnexpectedError{Endpoint: q.Endpoint, Op: "publish", Err: err})
	}

	result.EndTime = time.Now()
	return result, nil
}

func (p *Pipeline) write(endpoint string, table *models.Table) (map[string]string, error) {
	writer, err := NewMultiWriter(p.cfg, endpoint)
	if err != nil {
		return nil, err
	}
	if err := writer.Write(table); err != nil {
		writer.Abort()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		writer.Abort()
		return nil, err
	}
	if err := writer.Validate(); err != nil {
		writer.Abort()
		return nil, err
	}
	return writer.Files(), nil
}

func (p *Pipeline) publish(ctx context.Context, result *models.ExtractResult) error {
	if p.publisher == nil {
		return nil
	}
	for _, format := range p.cfg.PublishFormats {
		path, ok := result.Files[format]
		if !ok {
			continue
		}
		if !p.publisher.Accepts(format) {
			p.logger.Warn().
				Str("sink", p.publisher.Name()).
				Str("format", format).
				Msg("sink does not accept format, skipping")
			continue
		}
		location, err := p.publisher.Publish(ctx, path)
		p.metrics.IncPublish(p.publisher.Name(), err == nil)
		if err != nil {
			return fmt.Errorf("%s publish %s: %w", p.publisher.Name(), path, err)
		}
		result.Locations[path] = location
		p.logger.Info().
			Str("sink", p.publisher.Name()).
			Str("path", path).
			Str("location", location).
			Msg("file published")
	}
	return nil
}

func (p *Pipeline) fail(err error) error {
	p.metrics.IncError(woocommerce.ErrorType(err))
	return err
}
