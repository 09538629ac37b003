package parser

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/GottJagger/Extractor-API-wordpress/models"
)

func batchFrom(t *testing.T, body string) *models.Batch {
	t.Helper()
	page, err := DecodePage([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	batch := &models.Batch{Endpoint: "/wc/v2/orders"}
	batch.Append(page.Records, page.Keys)
	return batch
}

func TestBuildTableUnionOfColumns(t *testing.T) {
	batch := batchFrom(t, `[
		{"id": 1, "status": "completed"},
		{"id": 2, "total": "10.50", "status": "pending"}
	]`)

	table, err := BuildTable(batch)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}

	if want := []string{"id", "status", "total"}; !reflect.DeepEqual(table.Columns, want) {
		t.Fatalf("columns = %v, want %v", table.Columns, want)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if table.Rows[0][2] != nil {
		t.Fatalf("missing field should be a nil cell, got %#v", table.Rows[0][2])
	}
	if table.Rows[1][2] != "10.50" {
		t.Fatalf("total = %#v", table.Rows[1][2])
	}
	want := []models.ColumnKind{models.KindInt, models.KindString, models.KindString}
	if !reflect.DeepEqual(table.Kinds, want) {
		t.Fatalf("kinds = %v, want %v", table.Kinds, want)
	}
}

func TestBuildTableSerializesNestedValues(t *testing.T) {
	batch := batchFrom(t, `[
		{"id": 7, "line_items": [{"sku": "A<1>", "qty": 2}], "billing": {"last_name": "Diaz", "city": "Bogota"}}
	]`)

	table, err := BuildTable(batch)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}

	lineItems, ok := table.Rows[0][1].(string)
	if !ok {
		t.Fatalf("line_items should be serialized text, got %T", table.Rows[0][1])
	}
	if lineItems != `[{"qty":2,"sku":"A<1>"}]` {
		t.Fatalf("line_items = %s", lineItems)
	}

	billing, ok := table.Rows[0][2].(string)
	if !ok || billing != `{"city":"Bogota","last_name":"Diaz"}` {
		t.Fatalf("billing = %#v", table.Rows[0][2])
	}

	var roundTrip map[string]any
	if err := json.Unmarshal([]byte(billing), &roundTrip); err != nil {
		t.Fatalf("billing is not valid json: %v", err)
	}
	if want := map[string]any{"city": "Bogota", "last_name": "Diaz"}; !reflect.DeepEqual(roundTrip, want) {
		t.Fatalf("round trip = %v, want %v", roundTrip, want)
	}
	if table.Kinds[1] != models.KindString {
		t.Fatalf("line_items kind = %v", table.Kinds[1])
	}
}

func TestBuildTableEmptyBatch(t *testing.T) {
	table, err := BuildTable(&models.Batch{})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	if !table.Empty() {
		t.Fatalf("table from empty batch should be empty")
	}

	table, err = BuildTable(batchFrom(t, `[{}, {}]`))
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	if len(table.Rows) != 2 || !table.Empty() {
		t.Fatalf("fieldless records should give an empty table, got %+v", table)
	}
}

func TestInferKind(t *testing.T) {
	tests := []struct {
		name  string
		cells []any
		want  models.ColumnKind
	}{
		{name: "ints", cells: []any{json.Number("1"), nil, json.Number("3")}, want: models.KindInt},
		{name: "int and float widen", cells: []any{json.Number("1"), json.Number("2.5")}, want: models.KindFloat},
		{name: "bools", cells: []any{true, false}, want: models.KindBool},
		{name: "mixed", cells: []any{true, json.Number("1")}, want: models.KindString},
		{name: "all nil", cells: []any{nil, nil}, want: models.KindString},
		{name: "strings", cells: []any{"a", nil}, want: models.KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]any, len(tt.cells))
			for i, cell := range tt.cells {
				rows[i] = []any{cell}
			}
			if got := inferKind(rows, 0); got != tt.want {
				t.Fatalf("inferKind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		cell any
		want string
	}{
		{cell: nil, want: ""},
		{cell: true, want: "true"},
		{cell: json.Number("19.99"), want: "19.99"},
		{cell: "plain", want: "plain"},
	}
	for _, tt := range tests {
		if got := FormatCell(tt.cell); got != tt.want {
			t.Fatalf("FormatCell(%#v) = %q, want %q", tt.cell, got, tt.want)
		}
	}
}
