// Package xlsxsheets implements the sheet store on a local .xlsx workbook.
//
// Written strings that hold a plain integer, such as a year, are stored as numeric cells so the
// workbook matches what the Google backend produces with USER_ENTERED input.
package xlsxsheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/JakeFAU/citesync/internal/citation"
	"github.com/JakeFAU/citesync/internal/sheets"
)

// Store reads columns from and writes rows to a workbook on disk. Every write is saved immediately.
type Store struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// Open loads the workbook at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("workbook path is required")
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Store{path: path, file: f}, nil
}

// ReadColumn returns column values from firstRow to the last non-empty cell of that column.
func (s *Store) ReadColumn(_ context.Context, page, column string, firstRow int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := sheets.ColumnNumber(column)
	if err != nil {
		return nil, err
	}
	rows, err := s.file.GetRows(page)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", page, err)
	}
	var out []string
	for idx := firstRow - 1; idx < len(rows); idx++ {
		if idx < 0 {
			continue
		}
		value := ""
		if col-1 < len(rows[idx]) {
			value = rows[idx][col-1]
		}
		out = append(out, value)
	}
	// The Sheets API omits trailing blank rows; do the same.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// WriteRow overwrites the cells of target with values and saves the workbook.
func (s *Store) WriteRow(_ context.Context, target citation.WriteTarget, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.file.GetSheetIndex(target.Page)
	if err != nil || idx < 0 {
		return fmt.Errorf("%w: %s: sheet not found", citation.ErrWrite, target.A1())
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = cellValue(v)
	}
	if err := s.file.SetSheetRow(target.Page, target.StartCell, &row); err != nil {
		return fmt.Errorf("%w: %s: %v", citation.ErrWrite, target.A1(), err)
	}
	if err := s.file.Save(); err != nil {
		return fmt.Errorf("%w: save %s: %v", citation.ErrWrite, s.path, err)
	}
	return nil
}

func cellValue(v any) any {
	str, ok := v.(string)
	if !ok {
		return v
	}
	n, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64)
	if err != nil {
		return v
	}
	return n
}

// Close releases the workbook.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close workbook: %w", err)
	}
	return nil
}
