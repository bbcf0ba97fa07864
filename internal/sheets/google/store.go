// Package googlesheets implements the sheet store on top of the Google Sheets v4 API.
package googlesheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/JakeFAU/citesync/internal/citation"
	"github.com/JakeFAU/citesync/internal/sheets"
)

// ValueInputOption makes the service parse writes as if typed by a user.
const ValueInputOption = "USER_ENTERED"

// Config captures the parameters required to reach a spreadsheet.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string
}

// Store reads and writes ranges of a single spreadsheet.
type Store struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
}

// NewService builds a Sheets client authenticated with a service-account credentials file.
// Extra options are appended, which lets tests point the client at a fake endpoint.
func NewService(ctx context.Context, cfg Config, opts ...option.ClientOption) (*gsheets.Service, error) {
	base := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		base = append(base, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := gsheets.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// New wraps an existing service for the configured spreadsheet.
func New(svc *gsheets.Service, cfg Config) (*Store, error) {
	if svc == nil {
		return nil, fmt.Errorf("sheets service is required")
	}
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	return &Store{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
	}, nil
}

// ReadColumn fetches one column from firstRow to the last populated row.
// Blank cells inside the range come back as empty strings.
func (s *Store) ReadColumn(ctx context.Context, page, column string, firstRow int) ([]string, error) {
	rng := sheets.ColumnRange(page, column, firstRow)
	resp, err := s.values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", rng, err)
	}
	out := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 || row[0] == nil {
			out = append(out, "")
			continue
		}
		out = append(out, fmt.Sprint(row[0]))
	}
	return out, nil
}

// WriteRow overwrites the target range with a single row of values.
func (s *Store) WriteRow(ctx context.Context, target citation.WriteTarget, values []any) error {
	rng := target.A1()
	body := &gsheets.ValueRange{
		Range:  rng,
		Values: [][]interface{}{values},
	}
	_, err := s.values.Update(s.spreadsheetID, rng, body).
		ValueInputOption(ValueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%w: update %s: %v", citation.ErrWrite, rng, err)
	}
	return nil
}
