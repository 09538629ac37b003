// Package parser turns WooCommerce response bodies into records and records
// into a flat table.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GottJagger/Extractor-API-wordpress/models"
)

// ErrUnsupportedBody is returned for bodies that are neither a JSON array nor
// a JSON object.
var ErrUnsupportedBody = errors.New("parser: response body is not a JSON array or object")

// ErrorPayload is the error envelope WooCommerce returns, e.g.
// {"code":"woocommerce_rest_cannot_view","message":"...","data":{"status":401}}.
type ErrorPayload struct {
	Code    string
	Message string
	Status  int
}

// Page is one decoded response body.
type Page struct {
	Records []models.Record
	// Keys holds each record's keys in response order.
	Keys [][]string
	// Error is set when the body was an error envelope; Records is then empty.
	Error *ErrorPayload
}

// DecodePage decodes a response body. Arrays yield one record per element,
// non-object elements are wrapped as {"value": element}. An object carrying a
// non-empty "code" is reported through Page.Error, any other object becomes a
// single record. Empty bodies and null yield an empty page.
func DecodePage(body []byte) (*Page, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &Page{}, nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		page := &Page{
			Records: make([]models.Record, 0, len(items)),
			Keys:    make([][]string, 0, len(items)),
		}
		for i, item := range items {
			record, keys, err := decodeElement(item)
			if err != nil {
				return nil, fmt.Errorf("decode element %d: %w", i, err)
			}
			page.Records = append(page.Records, record)
			page.Keys = append(page.Keys, keys)
		}
		return page, nil
	case '{':
		record, keys, err := decodeObject(trimmed)
		if err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		if payload := errorPayload(record); payload != nil {
			return &Page{Error: payload}, nil
		}
		return &Page{Records: []models.Record{record}, Keys: [][]string{keys}}, nil
	default:
		return nil, ErrUnsupportedBody
	}
}

// ParseErrorPayload extracts the error envelope from a body, if it has one.
func ParseErrorPayload(body []byte) *ErrorPayload {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	record, _, err := decodeObject(trimmed)
	if err != nil {
		return nil
	}
	return errorPayload(record)
}

func errorPayload(record models.Record) *ErrorPayload {
	code, ok := errorCode(record["code"])
	if !ok {
		return nil
	}
	payload := &ErrorPayload{Code: code}
	payload.Message, _ = record["message"].(string)
	if data, ok := record["data"].(map[string]any); ok {
		if status, ok := data["status"].(json.Number); ok {
			if n, err := status.Int64(); err == nil {
				payload.Status = int(n)
			}
		}
	}
	return payload
}

// errorCode reports whether a "code" value marks an error envelope. Any value
// other than null, false, zero or an empty string, array or object does; it is
// rendered as text.
func errorCode(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case bool:
		return "true", v
	case json.Number:
		f, err := v.Float64()
		if err == nil && f == 0 {
			return "", false
		}
		return v.String(), true
	case map[string]any:
		if len(v) == 0 {
			return "", false
		}
	case []any:
		if len(v) == 0 {
			return "", false
		}
	}
	text, err := Canonical(value)
	if err != nil {
		return fmt.Sprint(value), true
	}
	return text, true
}

func decodeElement(raw json.RawMessage) (models.Record, []string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return decodeObject(trimmed)
	}
	value, err := decodeValue(trimmed)
	if err != nil {
		return nil, nil, err
	}
	return models.Record{"value": value}, []string{"value"}, nil
}

// decodeObject decodes a JSON object while recording the order of its keys,
// which encoding/json maps do not preserve.
func decodeObject(raw []byte) (models.Record, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	record := make(models.Record)
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("decode %q: %w", key, err)
		}
		if _, dup := record[key]; !dup {
			keys = append(keys, key)
		}
		record[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return record, keys, nil
}

func decodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}
