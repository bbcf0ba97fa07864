package citation

import (
	"fmt"
	"strconv"
)

// NotAvailable marks a field whose value could not be determined.
const NotAvailable = "N/A"

// HeaderRows is the number of header rows above the first data row of a sheet page.
const HeaderRows = 1

// FirstDataRow is the 1-based sheet row holding the first list element.
const FirstDataRow = HeaderRows + 1

// RecordWidth is the number of cells written per row.
const RecordWidth = 5

// SourceItem is one spreadsheet row eligible for processing.
type SourceItem struct {
	Row    int    `json:"row"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

// Metadata holds the four fields derived from the parsing service's markup.
type Metadata struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Year     string `json:"year"`
	Keywords string `json:"keywords"`
}

// UnknownMetadata returns Metadata with every field set to NotAvailable.
func UnknownMetadata() Metadata {
	return Metadata{
		Title:    NotAvailable,
		Authors:  NotAvailable,
		Year:     NotAvailable,
		Keywords: NotAvailable,
	}
}

// Normalize replaces empty fields with NotAvailable.
func (m Metadata) Normalize() Metadata {
	return Metadata{
		Title:    OrNotAvailable(m.Title),
		Authors:  OrNotAvailable(m.Authors),
		Year:     OrNotAvailable(m.Year),
		Keywords: OrNotAvailable(m.Keywords),
	}
}

// PageCount is a page total that may be unknown.
type PageCount struct {
	Pages int
	Known bool
}

// UnknownPageCount is the PageCount reported when counting failed.
var UnknownPageCount = PageCount{}

// Pages returns a known PageCount.
func Pages(n int) PageCount {
	return PageCount{Pages: n, Known: true}
}

// Value returns the cell value: the integer when known, NotAvailable otherwise.
func (p PageCount) Value() any {
	if !p.Known {
		return NotAvailable
	}
	return p.Pages
}

// String implements fmt.Stringer.
func (p PageCount) String() string {
	if !p.Known {
		return NotAvailable
	}
	return strconv.Itoa(p.Pages)
}

// Record is the complete bibliographic result for one SourceItem.
type Record struct {
	Metadata
	PageCount PageCount `json:"page_count"`
}

// Values returns the ordered cell values written to the sheet.
func (r Record) Values() []any {
	m := r.Metadata.Normalize()
	return []any{m.Title, m.Authors, m.Year, m.Keywords, r.PageCount.Value()}
}

// WriteTarget identifies the sheet range that receives one record.
type WriteTarget struct {
	Page      string `json:"page"`
	StartCell string `json:"start_cell"`
	EndCell   string `json:"end_cell"`
}

// A1 renders the target as an A1 range with a quoted sheet name.
func (t WriteTarget) A1() string {
	return fmt.Sprintf("%s!%s:%s", QuoteSheet(t.Page), t.StartCell, t.EndCell)
}

// OrNotAvailable returns s, or NotAvailable when s is empty.
func OrNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
