package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/parquet-go"

	"github.com/GottJagger/Extractor-API-wordpress/models"
	"github.com/GottJagger/Extractor-API-wordpress/parser"
)

// FileName derives the output file name for an endpoint, e.g.
// "/wc/v2/orders" and "csv" give "woocommerce_wc_v2_orders.csv".
func FileName(endpoint, ext string) string {
	name := strings.ReplaceAll(strings.Trim(endpoint, "/"), "/", "_")
	return "woocommerce_" + name + "." + ext
}

// CSVWriter writes a table as CSV with a header row.
type CSVWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates the file and any missing parent directories.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	return &CSVWriter{
		path:   filename,
		file:   f,
		writer: csv.NewWriter(f),
	}, nil
}

// Write writes the header and every row of table.
func (cw *CSVWriter) Write(table *models.Table) error {
	if err := cw.writer.Write(table.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, cell := range row {
			record[i] = parser.FormatCell(cell)
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.Close()
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file is not empty.
func (cw *CSVWriter) Validate() error {
	return validateSize(cw.path, "csv")
}

// Path returns the output file path.
func (cw *CSVWriter) Path() string {
	return cw.path
}

// JSONWriter writes one JSON object per row, keys in column order. Nil cells
// are omitted.
type JSONWriter struct {
	path   string
	file   *os.File
	writer *bufio.Writer
}

// NewJSONWriter initialises the JSON Lines writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	return &JSONWriter{
		path:   filename,
		file:   f,
		writer: bufio.NewWriter(f),
	}, nil
}

// Write appends every row of table in JSONL format.
func (jw *JSONWriter) Write(table *models.Table) error {
	keys := make([][]byte, len(table.Columns))
	for i, col := range table.Columns {
		encoded, err := json.Marshal(col)
		if err != nil {
			return fmt.Errorf("encode json key %q: %w", col, err)
		}
		keys[i] = encoded
	}

	var line bytes.Buffer
	for _, row := range table.Rows {
		line.Reset()
		line.WriteByte('{')
		first := true
		for i, cell := range row {
			if cell == nil {
				continue
			}
			value, err := json.Marshal(cell)
			if err != nil {
				return fmt.Errorf("encode json value for %q: %w", table.Columns[i], err)
			}
			if !first {
				line.WriteByte(',')
			}
			first = false
			line.Write(keys[i])
			line.WriteByte(':')
			line.Write(value)
		}
		line.WriteString("}\n")
		if _, err := jw.writer.Write(line.Bytes()); err != nil {
			return fmt.Errorf("write json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	if err := jw.writer.Flush(); err != nil {
		jw.file.Close()
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	return validateSize(jw.path, "json")
}

// Path returns the output file path.
func (jw *JSONWriter) Path() string {
	return jw.path
}

// ParquetWriter writes a table as a single row group. Every column is
// optional and typed from the inferred column kind.
type ParquetWriter struct {
	path string
	file *os.File
}

// NewParquetWriter creates the parquet output file.
func NewParquetWriter(filename string) (*ParquetWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}
	return &ParquetWriter{path: filename, file: f}, nil
}

// Write encodes the whole table. It must be called once.
func (pw *ParquetWriter) Write(table *models.Table) error {
	schema := ParquetSchema(table)
	indexes := make([]int, len(table.Columns))
	for i, col := range table.Columns {
		leaf, ok := schema.Lookup(col)
		if !ok {
			return fmt.Errorf("parquet column %q missing from schema", col)
		}
		indexes[i] = leaf.ColumnIndex
	}

	rows := make([]parquet.Row, 0, len(table.Rows))
	for _, cells := range table.Rows {
		row := make(parquet.Row, len(table.Columns))
		for i, cell := range cells {
			value, err := parquetValue(table.Kinds[i], cell)
			if err != nil {
				return fmt.Errorf("parquet column %q: %w", table.Columns[i], err)
			}
			if value.IsNull() {
				row[indexes[i]] = value.Level(0, 0, indexes[i])
			} else {
				row[indexes[i]] = value.Level(0, 1, indexes[i])
			}
		}
		rows = append(rows, row)
	}

	writer := parquet.NewWriter(pw.file, schema)
	if _, err := writer.WriteRows(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// Close closes the file handle.
func (pw *ParquetWriter) Close() error {
	return pw.file.Close()
}

// Validate ensures the parquet file has data.
func (pw *ParquetWriter) Validate() error {
	return validateSize(pw.path, "parquet")
}

// Path returns the output file path.
func (pw *ParquetWriter) Path() string {
	return pw.path
}

// ParquetSchema builds the schema for table. Parquet orders group fields by
// name, so callers locate columns through Lookup.
func ParquetSchema(table *models.Table) *parquet.Schema {
	group := make(parquet.Group, len(table.Columns))
	for i, col := range table.Columns {
		var node parquet.Node
		switch table.Kinds[i] {
		case models.KindBool:
			node = parquet.Leaf(parquet.BooleanType)
		case models.KindInt:
			node = parquet.Int(64)
		case models.KindFloat:
			node = parquet.Leaf(parquet.DoubleType)
		default:
			node = parquet.String()
		}
		group[col] = parquet.Optional(node)
	}
	return parquet.NewSchema("woocommerce", group)
}

func parquetValue(kind models.ColumnKind, cell any) (parquet.Value, error) {
	if cell == nil {
		return parquet.NullValue(), nil
	}
	switch kind {
	case models.KindBool:
		b, ok := cell.(bool)
		if !ok {
			return parquet.Value{}, fmt.Errorf("expected bool, got %T", cell)
		}
		return parquet.BooleanValue(b), nil
	case models.KindInt:
		n, ok := cell.(json.Number)
		if !ok {
			return parquet.Value{}, fmt.Errorf("expected number, got %T", cell)
		}
		v, err := n.Int64()
		if err != nil {
			return parquet.Value{}, err
		}
		return parquet.Int64Value(v), nil
	case models.KindFloat:
		n, ok := cell.(json.Number)
		if !ok {
			return parquet.Value{}, fmt.Errorf("expected number, got %T", cell)
		}
		v, err := n.Float64()
		if err != nil {
			return parquet.Value{}, err
		}
		return parquet.DoubleValue(v), nil
	default:
		return parquet.ByteArrayValue([]byte(parser.FormatCell(cell))), nil
	}
}

func validateSize(path, kind string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s file: %w", kind, err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("%s file is empty", kind)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
