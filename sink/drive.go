package sink

import (
	"context"
	"fmt"
	"io"
	"os"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/GottJagger/Extractor-API-wordpress/config"
)

// SpreadsheetMimeType makes Drive convert an uploaded CSV into a Google Sheet.
const SpreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// DriveSink creates a spreadsheet from each published CSV file.
type DriveSink struct {
	folderID string

	create func(ctx context.Context, meta *drive.File, media io.Reader) (*drive.File, error)
}

// NewDriveSink authenticates with a service account or authorized user
// credentials file.
func NewDriveSink(ctx context.Context, credentialsFile, folderID string) (*DriveSink, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("drive: credentials file is required")
	}
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveFileScope),
	)
	if err != nil {
		return nil, fmt.Errorf("drive: create service: %w", err)
	}

	return &DriveSink{
		folderID: folderID,
		create: func(ctx context.Context, meta *drive.File, media io.Reader) (*drive.File, error) {
			return svc.Files.Create(meta).
				Media(media, googleapi.ContentType("text/csv")).
				Fields("id").
				Context(ctx).
				Do()
		},
	}, nil
}

func (s *DriveSink) Name() string { return "drive" }

// Accepts reports true only for CSV.
func (s *DriveSink) Accepts(format string) bool {
	return format == config.FormatCSV
}

// Publish uploads a CSV as a spreadsheet named after the file and returns the
// new file id.
func (s *DriveSink) Publish(ctx context.Context, path string) (string, error) {
	if !s.Accepts(formatOf(path)) {
		return "", fmt.Errorf("drive: only csv files can be published, got %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("drive: open %s: %w", path, err)
	}
	defer f.Close()

	meta := &drive.File{
		Name:     baseName(path),
		MimeType: SpreadsheetMimeType,
	}
	if s.folderID != "" {
		meta.Parents = []string{s.folderID}
	}

	created, err := s.create(ctx, meta, f)
	if err != nil {
		return "", fmt.Errorf("drive: create %s: %w", meta.Name, err)
	}
	return created.Id, nil
}

func (s *DriveSink) Close() error { return nil }
