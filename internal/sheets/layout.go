// Package sheets maps spreadsheet rows onto A1 ranges for reads and targeted writes.
package sheets

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JakeFAU/citesync/internal/citation"
)

// Layout describes where source data lives and where results are written on every sheet page.
type Layout struct {
	URLColumn         string
	StatusColumn      string
	OutputStartColumn string
	OutputEndColumn   string
	FirstOutputRow    int
}

// Validate checks column names and that the output range fits one record exactly.
func (l Layout) Validate() error {
	for name, col := range map[string]string{
		"url column":          l.URLColumn,
		"status column":       l.StatusColumn,
		"output start column": l.OutputStartColumn,
		"output end column":   l.OutputEndColumn,
	} {
		if _, err := ColumnNumber(col); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	width, err := Span(l.OutputStartColumn, l.OutputEndColumn)
	if err != nil {
		return err
	}
	if width != citation.RecordWidth {
		return fmt.Errorf("output range %s:%s spans %d columns, want %d",
			l.OutputStartColumn, l.OutputEndColumn, width, citation.RecordWidth)
	}
	if l.FirstOutputRow < citation.FirstDataRow {
		return fmt.Errorf("first output row must be >= %d, got %d", citation.FirstDataRow, l.FirstOutputRow)
	}
	return nil
}

// TargetFor derives the write range for a row. It is a pure function of the page, row, and layout.
func (l Layout) TargetFor(page string, row int) citation.WriteTarget {
	start := strings.ToUpper(l.OutputStartColumn)
	end := strings.ToUpper(l.OutputEndColumn)
	return citation.WriteTarget{
		Page:      page,
		StartCell: fmt.Sprintf("%s%d", start, row),
		EndCell:   fmt.Sprintf("%s%d", end, row),
	}
}

// ColumnRange renders an open-ended single column range such as 'Sheet1'!B2:B.
func ColumnRange(page, column string, firstRow int) string {
	col := strings.ToUpper(column)
	return fmt.Sprintf("%s!%s%d:%s", citation.QuoteSheet(page), col, firstRow, col)
}

// ColumnNumber converts column letters into a 1-based column number.
func ColumnNumber(column string) (int, error) {
	if strings.TrimSpace(column) == "" {
		return 0, fmt.Errorf("column is required")
	}
	n, err := excelize.ColumnNameToNumber(column)
	if err != nil {
		return 0, fmt.Errorf("invalid column %q: %w", column, err)
	}
	return n, nil
}

// Span returns the inclusive number of columns between start and end.
func Span(start, end string) (int, error) {
	s, err := ColumnNumber(start)
	if err != nil {
		return 0, err
	}
	e, err := ColumnNumber(end)
	if err != nil {
		return 0, err
	}
	if e < s {
		return 0, fmt.Errorf("output range %s:%s is reversed", start, end)
	}
	return e - s + 1, nil
}
