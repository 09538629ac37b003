package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/GottJagger/Extractor-API-wordpress/models"
)

// BuildTable flattens a batch into rows over the union of its columns.
// Missing fields become nil cells and nested objects or arrays are replaced by
// their canonical JSON text.
func BuildTable(batch *models.Batch) (*models.Table, error) {
	if batch.Len() == 0 {
		return &models.Table{}, nil
	}

	columns := make([]string, len(batch.Columns))
	copy(columns, batch.Columns)

	rows := make([][]any, 0, len(batch.Records))
	for _, record := range batch.Records {
		row := make([]any, len(columns))
		for i, col := range columns {
			value, ok := record[col]
			if !ok {
				continue
			}
			normalized, err := NormalizeValue(value)
			if err != nil {
				return nil, fmt.Errorf("normalize column %q: %w", col, err)
			}
			row[i] = normalized
		}
		rows = append(rows, row)
	}

	kinds := make([]models.ColumnKind, len(columns))
	for i := range columns {
		kinds[i] = inferKind(rows, i)
	}

	return &models.Table{Columns: columns, Kinds: kinds, Rows: rows}, nil
}

// NormalizeValue returns scalars unchanged and serializes maps and slices to
// canonical JSON text.
func NormalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, json.Number:
		return v, nil
	case float64:
		return json.Number(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case int:
		return json.Number(strconv.Itoa(v)), nil
	case int64:
		return json.Number(strconv.FormatInt(v, 10)), nil
	default:
		return Canonical(v)
	}
}

// Canonical encodes value as compact JSON with sorted object keys and without
// HTML escaping. json.Unmarshal of the result yields the input structure.
func Canonical(value any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// FormatCell renders a table cell for text outputs such as CSV.
func FormatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// inferKind picks the narrowest type every non-nil cell of a column fits.
// Columns holding a mix of types, or only nils, are strings.
func inferKind(rows [][]any, col int) models.ColumnKind {
	kind := models.ColumnKind(-1)
	for _, row := range rows {
		var cellKind models.ColumnKind
		switch v := row[col].(type) {
		case nil:
			continue
		case bool:
			cellKind = models.KindBool
		case json.Number:
			if _, err := v.Int64(); err == nil {
				cellKind = models.KindInt
			} else if _, err := v.Float64(); err == nil {
				cellKind = models.KindFloat
			} else {
				return models.KindString
			}
		default:
			return models.KindString
		}

		switch {
		case kind < 0:
			kind = cellKind
		case kind == cellKind:
		case isNumeric(kind) && isNumeric(cellKind):
			kind = models.KindFloat
		default:
			return models.KindString
		}
	}
	if kind < 0 {
		return models.KindString
	}
	return kind
}

func isNumeric(kind models.ColumnKind) bool {
	return kind == models.KindInt || kind == models.KindFloat
}
