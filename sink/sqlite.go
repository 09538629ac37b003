package sink

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/GottJagger/Extractor-API-wordpress/config"
)

// SQLiteSink loads published CSV files into tables of a local database. Each
// file replaces the table named after it; every column is TEXT and empty
// cells are stored as NULL.
type SQLiteSink struct {
	path string
	db   *sql.DB
}

// NewSQLiteSink opens or creates the database at path.
func NewSQLiteSink(ctx context.Context, path string) (*SQLiteSink, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %q: %w", dir, err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	return &SQLiteSink{path: path, db: db}, nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

// Accepts reports true only for CSV.
func (s *SQLiteSink) Accepts(format string) bool {
	return format == config.FormatCSV
}

// Publish loads the CSV at path and returns sqlite://<db>#<table>.
func (s *SQLiteSink) Publish(ctx context.Context, path string) (string, error) {
	if !s.Accepts(formatOf(path)) {
		return "", fmt.Errorf("sqlite: only csv files can be published, got %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return "", fmt.Errorf("sqlite: read header of %s: %w", path, err)
	}
	table := TableName(path)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return "", fmt.Errorf("sqlite: drop %s: %w", table, err)
	}

	columns := make([]string, len(header))
	placeholders := make([]string, len(header))
	for i, name := range header {
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		columns[i] = quoteIdent(name) + " TEXT"
		placeholders[i] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(columns, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return "", fmt.Errorf("sqlite: create %s: %w", table, err)
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)",
		quoteIdent(table), strings.Join(placeholders, ", ")))
	if err != nil {
		return "", fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer insert.Close()

	args := make([]any, len(header))
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("sqlite: read %s line %d: %w", path, line, err)
		}
		for i, cell := range record {
			if cell == "" {
				args[i] = nil
			} else {
				args[i] = cell
			}
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return "", fmt.Errorf("sqlite: insert %s line %d: %w", table, line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("sqlite: commit: %w", err)
	}
	return fmt.Sprintf("sqlite://%s#%s", s.path, table), nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// TableName derives a table name from a file name, keeping letters, digits
// and underscores.
func TableName(path string) string {
	name := baseName(path)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
