// Package models defines data structures shared by the extractor packages.
package models

import "time"

// Record is one loosely typed JSON object returned by the API. Numbers are
// kept as json.Number so ids and prices survive without float rounding.
type Record map[string]any

// Batch accumulates the records of every page fetched for one endpoint.
type Batch struct {
	Endpoint string
	Records  []Record
	// Columns is the union of record keys in first-seen order.
	Columns []string
	Pages   int
	// Duplicates counts records dropped by id de-duplication.
	Duplicates int

	seen map[string]struct{}
}

// Append adds records and extends Columns with keys not seen before. keys
// holds the key order of each record as it appeared in the response.
func (b *Batch) Append(records []Record, keys [][]string) {
	if b.seen == nil {
		b.seen = make(map[string]struct{}, len(b.Columns))
		for _, col := range b.Columns {
			b.seen[col] = struct{}{}
		}
	}
	for i, record := range records {
		b.Records = append(b.Records, record)
		if i < len(keys) {
			for _, key := range keys[i] {
				b.addColumn(key)
			}
			continue
		}
		for key := range record {
			b.addColumn(key)
		}
	}
}

func (b *Batch) addColumn(key string) {
	if _, ok := b.seen[key]; ok {
		return
	}
	b.seen[key] = struct{}{}
	b.Columns = append(b.Columns, key)
}

// Len returns the number of accumulated records.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}

// ColumnKind is the inferred storage type of a table column.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindBool
	KindInt
	KindFloat
)

func (k ColumnKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// Table is the flattened form of a Batch. Cells are nil, string, bool or
// json.Number; nested values have already been serialized to JSON text.
type Table struct {
	Columns []string
	Kinds   []ColumnKind
	Rows    [][]any
}

// Empty reports whether the table has no rows or no columns. Records without
// any field, such as [{}], give rows but no columns.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0 || len(t.Columns) == 0
}

// ExtractResult summarises one endpoint extraction.
type ExtractResult struct {
	Endpoint   string
	Records    int
	Pages      int
	Duplicates int
	// Files maps output format to the written path.
	Files map[string]string
	// Locations maps a written path to where the sink published it.
	Locations map[string]string
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns the wall time of the extraction.
func (r *ExtractResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
