package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/segmentio/parquet-go"

	"github.com/GottJagger/Extractor-API-wordpress/config"
	"github.com/GottJagger/Extractor-API-wordpress/models"
)

func sampleTable() *models.Table {
	return &models.Table{
		Columns: []string{"id", "name", "paid", "total", "line_items"},
		Kinds:   []models.ColumnKind{models.KindInt, models.KindString, models.KindBool, models.KindFloat, models.KindString},
		Rows: [][]any{
			{json.Number("1"), "Ana", true, json.Number("10.5"), `[{"qty":2,"sku":"A<1>"}]`},
			{json.Number("2"), nil, false, nil, "[]"},
		},
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		endpoint string
		ext      string
		want     string
	}{
		{endpoint: "/wc/v2/customers", ext: "csv", want: "woocommerce_wc_v2_customers.csv"},
		{endpoint: "/wc/v2/reports/sales", ext: "parquet", want: "woocommerce_wc_v2_reports_sales.parquet"},
		{endpoint: "/wc-analytics", ext: "csv", want: "woocommerce_wc-analytics.csv"},
		{endpoint: "//wc-analytics/products/", ext: "jsonl", want: "woocommerce_wc-analytics_products.jsonl"},
		{endpoint: "orders", ext: "csv", want: "woocommerce_orders.csv"},
	}

	for _, tt := range tests {
		if got := FileName(tt.endpoint, tt.ext); got != tt.want {
			t.Fatalf("FileName(%q, %q) = %q, want %q", tt.endpoint, tt.ext, got, tt.want)
		}
	}
}

func TestCSVWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orders.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := writer.Write(sampleTable()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records=%d, want 3", len(records))
	}
	if !reflect.DeepEqual(records[0], []string{"id", "name", "paid", "total", "line_items"}) {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if !reflect.DeepEqual(records[2], []string{"2", "", "false", "", "[]"}) {
		t.Fatalf("unexpected second row: %v", records[2])
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(records[1][4]), &items); err != nil {
		t.Fatalf("nested cell is not valid json: %v", err)
	}
	want := []map[string]any{{"qty": float64(2), "sku": "A<1>"}}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("nested cell = %v, want %v", items, want)
	}
}

func TestJSONWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Write(sampleTable()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var decoded map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("json lines=%d, want 2", len(lines))
	}
	if lines[1] != `{"id":2,"paid":false,"line_items":"[]"}` {
		t.Fatalf("second line = %s", lines[1])
	}
}

func TestParquetWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.parquet")

	writer, err := NewParquetWriter(path)
	if err != nil {
		t.Fatalf("create parquet writer: %v", err)
	}
	if err := writer.Write(sampleTable()); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close parquet: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		t.Fatalf("stat parquet: %v", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		t.Fatalf("open parquet file: %v", err)
	}
	if pf.NumRows() != 2 {
		t.Fatalf("rows=%d, want 2", pf.NumRows())
	}

	reader := pf.RowGroups()[0].Rows()
	defer reader.Close()
	rows := make([]parquet.Row, 2)
	n, err := reader.ReadRows(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("read rows: %v", err)
	}
	if n != 2 {
		t.Fatalf("read %d rows, want 2", n)
	}

	column := func(name string) int {
		leaf, ok := pf.Schema().Lookup(name)
		if !ok {
			t.Fatalf("column %q missing", name)
		}
		return leaf.ColumnIndex
	}

	if got := rows[0][column("id")].Int64(); got != 1 {
		t.Fatalf("id = %d, want 1", got)
	}
	if got := string(rows[0][column("name")].ByteArray()); got != "Ana" {
		t.Fatalf("name = %q", got)
	}
	if !rows[0][column("paid")].Boolean() {
		t.Fatalf("paid should be true")
	}
	if got := rows[0][column("total")].Double(); got != 10.5 {
		t.Fatalf("total = %v", got)
	}
	if !rows[1][column("name")].IsNull() || !rows[1][column("total")].IsNull() {
		t.Fatalf("missing cells should be null")
	}
	if got := string(rows[0][column("line_items")].ByteArray()); got != `[{"qty":2,"sku":"A<1>"}]` {
		t.Fatalf("line_items = %q", got)
	}
}

func TestMultiWriterWritesEveryFormat(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Formats = []string{config.FormatCSV, config.FormatParquet, config.FormatJSONL}
	cfg.CSVDir = filepath.Join(dir, "csv")
	cfg.ParquetDir = filepath.Join(dir, "parquet")
	cfg.JSONLDir = filepath.Join(dir, "jsonl")

	writer, err := NewMultiWriter(cfg, "/wc/v2/orders")
	if err != nil {
		t.Fatalf("create multi writer: %v", err)
	}
	if err := writer.Write(sampleTable()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	want := map[string]string{
		config.FormatCSV:     filepath.Join(dir, "csv", "woocommerce_wc_v2_orders.csv"),
		config.FormatParquet: filepath.Join(dir, "parquet", "woocommerce_wc_v2_orders.parquet"),
		config.FormatJSONL:   filepath.Join(dir, "jsonl", "woocommerce_wc_v2_orders.jsonl"),
	}
	if got := writer.Files(); !reflect.DeepEqual(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for _, path := range want {
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Fatalf("%s missing or empty", path)
		}
	}
}

func TestMultiWriterAbortRemovesFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.CSVDir = dir
	cfg.ParquetDir = dir

	writer, err := NewMultiWriter(cfg, "/wc/v2/orders")
	if err != nil {
		t.Fatalf("create multi writer: %v", err)
	}
	writer.Abort()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files after abort, found %d", len(entries))
	}
}
