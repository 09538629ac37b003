package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/GottJagger/Extractor-API-wordpress/models"
	"github.com/GottJagger/Extractor-API-wordpress/pipeline"
	"github.com/GottJagger/Extractor-API-wordpress/woocommerce"
)

type scriptedExtractor struct {
	errs  map[string]error
	calls []string
}

func (se *scriptedExtractor) Extract(ctx context.Context, q woocommerce.Query) (*models.ExtractResult, error) {
	se.calls = append(se.calls, q.Endpoint)
	if err, ok := se.errs[q.Endpoint]; ok {
		return nil, err
	}
	return &models.ExtractResult{
		Endpoint: q.Endpoint,
		Records:  3,
		Pages:    1,
		Files:    map[string]string{"csv": "CSVs/" + pipeline.FileName(q.Endpoint, "csv")},
	}, nil
}

func TestRunAllContinuesAfterFailure(t *testing.T) {
	ex := &scriptedExtractor{errs: map[string]error{
		"/wc/v2/orders":    &woocommerce.RequestError{Endpoint: "/wc/v2/orders", StatusCode: 500},
		"/wc/v2/customers": fmt.Errorf("/wc/v2/customers: %w", pipeline.ErrNoData),
	}}
	queries := []woocommerce.Query{woocommerce.Customers(), woocommerce.Orders(), woocommerce.Products()}

	outcomes := runAll(context.Background(), ex, queries, zerolog.Nop())
	if len(ex.calls) != 3 {
		t.Fatalf("calls = %v, want all three endpoints", ex.calls)
	}

	var out bytes.Buffer
	failed := printSummary(&out, outcomes, 0)
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
	summary := out.String()
	for _, want := range []string{
		"no data",
		"FAILED (http_status)",
		"woocommerce_wc_v2_products.csv",
		"Records:       3",
		"Empty:         1",
	} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestRunAllStopsOnCancel(t *testing.T) {
	ex := &scriptedExtractor{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := runAll(ctx, ex, []woocommerce.Query{woocommerce.Orders()}, zerolog.Nop())
	if len(ex.calls) != 0 {
		t.Fatalf("no extraction should start after cancel")
	}
	if len(outcomes) != 1 || outcomes[0].Err == nil {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	var out bytes.Buffer
	if failed := printSummary(&out, outcomes, 0); failed != 1 {
		t.Fatalf("canceled endpoint should count as failed, got %d", failed)
	}
}
