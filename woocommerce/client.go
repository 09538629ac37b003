// Package woocommerce fetches paginated collections from the WooCommerce REST
// API.
package woocommerce

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/GottJagger/Extractor-API-wordpress/config"
	"github.com/GottJagger/Extractor-API-wordpress/logging"
	"github.com/GottJagger/Extractor-API-wordpress/models"
	"github.com/GottJagger/Extractor-API-wordpress/parser"
)

const responseKey = "response"

var errNoResponse = errors.New("no response received")

// Client wraps a synchronous colly collector configured for the API.
type Client struct {
	cfg        *config.Config
	collector  *colly.Collector
	authHeader string
	logger     zerolog.Logger
	Metrics    *Metrics
}

// Option customises a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport, e.g. with a mock in tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.collector.WithTransport(rt)
	}
}

// WithMetrics shares a metrics set instead of creating a new one.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.Metrics = m
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient builds a client for cfg.BaseURL.
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(0),
		colly.ParseHTTPErrorResponse(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // opt-in
	})

	if cfg.Delay > 0 {
		if err := collector.Limit(&colly.LimitRule{
			DomainGlob: "*",
			Delay:      cfg.Delay,
		}); err != nil {
			return nil, fmt.Errorf("configure request delay: %w", err)
		}
	}

	credentials := cfg.ConsumerKey + ":" + cfg.ConsumerSecret
	c := &Client{
		cfg:        cfg,
		collector:  collector,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
		logger:     logging.NewLogger("woocommerce"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Metrics == nil {
		c.Metrics = NewMetrics()
	}

	if cfg.InsecureSkipVerify {
		c.logger.Warn().Str("host", parsed.Host).Msg("TLS certificate verification is disabled")
	}

	collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(responseKey, r)
	})
	collector.OnError(func(r *colly.Response, err error) {
		event := c.logger.Debug().Err(err)
		if r != nil && r.Request != nil && r.Request.URL != nil {
			event = event.Str("path", r.Request.URL.Path)
		}
		event.Msg("request failed")
	})

	return c, nil
}

// FetchAll requests q page by page until a page is shorter than per_page and
// returns every record in response order. Queries without a page parameter
// issue a single request. ctx is checked between requests.
func (c *Client) FetchAll(ctx context.Context, q Query) (*models.Batch, error) {
	params := q.Values()
	paginated, page, perPage, err := pagination(params)
	if err != nil {
		return nil, &UnexpectedError{Endpoint: q.Endpoint, Op: "query", Err: err}
	}

	var seen *lru.Cache[string, struct{}]
	if c.cfg.DedupeMaxSize > 0 {
		seen, err = lru.New[string, struct{}](c.cfg.DedupeMaxSize)
		if err != nil {
			return nil, &UnexpectedError{Endpoint: q.Endpoint, Op: "dedupe", Err: err}
		}
	}

	batch := &models.Batch{Endpoint: q.Endpoint}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if paginated {
			params.Set("page", strconv.Itoa(page))
		}

		body, err := c.get(q.Endpoint, params)
		if err != nil {
			return nil, err
		}

		decoded, err := parser.DecodePage(body)
		if err != nil {
			return nil, &UnexpectedError{Endpoint: q.Endpoint, Op: "decode", Err: err}
		}
		if decoded.Error != nil {
			return nil, &APIError{
				Endpoint: q.Endpoint,
				Code:     decoded.Error.Code,
				Message:  decoded.Error.Message,
				Status:   decoded.Error.Status,
			}
		}

		records, keys := decoded.Records, decoded.Keys
		if seen != nil {
			var dropped int
			records, keys, dropped = dedupe(seen, records, keys)
			batch.Duplicates += dropped
		}
		batch.Append(records, keys)
		batch.Pages++
		c.Metrics.AddPage(q.Endpoint, len(records))

		c.logger.Debug().
			Str("endpoint", q.Endpoint).
			Int("page", page).
			Int("records", len(decoded.Records)).
			Msg("page fetched")

		if !paginated || len(decoded.Records) < perPage {
			break
		}
		if c.cfg.MaxPages > 0 && batch.Pages >= c.cfg.MaxPages {
			c.logger.Warn().
				Str("endpoint", q.Endpoint).
				Int("max_pages", c.cfg.MaxPages).
				Msg("page cap reached, stopping pagination")
			break
		}
		page++
	}

	return batch, nil
}

func (c *Client) get(endpoint string, params url.Values) ([]byte, error) {
	target := c.cfg.BaseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	hdr := http.Header{}
	hdr.Set("Authorization", c.authHeader)
	hdr.Set("User-Agent", c.cfg.UserAgent)
	hdr.Set("Accept", "application/json")

	reqCtx := colly.NewContext()
	start := time.Now()
	err := c.collector.Request(http.MethodGet, target, nil, reqCtx, hdr)
	elapsed := time.Since(start)

	resp, _ := reqCtx.GetAny(responseKey).(*colly.Response)
	if err != nil || resp == nil {
		if err == nil {
			err = errNoResponse
		}
		c.Metrics.ObserveRequest(endpoint, 0, elapsed)
		return nil, &RequestError{Endpoint: endpoint, URL: target, Err: err}
	}

	c.Metrics.ObserveRequest(endpoint, resp.StatusCode, elapsed)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		reqErr := &RequestError{
			Endpoint:   endpoint,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("http status %d", resp.StatusCode),
		}
		if payload := parser.ParseErrorPayload(resp.Body); payload != nil {
			reqErr.Message = payload.Message
		}
		return nil, reqErr
	}
	return resp.Body, nil
}

// dedupe drops records whose id was already seen. Records without an id are
// always kept.
func dedupe(seen *lru.Cache[string, struct{}], records []models.Record, keys [][]string) ([]models.Record, [][]string, int) {
	keptRecords := make([]models.Record, 0, len(records))
	keptKeys := make([][]string, 0, len(keys))
	dropped := 0
	for i, record := range records {
		id, ok := record["id"]
		if ok && id != nil {
			key := fmt.Sprint(id)
			if seen.Contains(key) {
				dropped++
				continue
			}
			seen.Add(key, struct{}{})
		}
		keptRecords = append(keptRecords, record)
		if i < len(keys) {
			keptKeys = append(keptKeys, keys[i])
		}
	}
	return keptRecords, keptKeys, dropped
}
