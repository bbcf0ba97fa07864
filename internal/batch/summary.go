package batch

import (
	"fmt"

	"go.uber.org/zap"
)

// Summary tallies the outcome of one or more sheet pages.
type Summary struct {
	Pages       int `json:"pages"`
	PagesFailed int `json:"pages_failed"`
	Selected    int `json:"selected"`
	Written     int `json:"written"`
	Skipped     int `json:"skipped"`
	WriteFailed int `json:"write_failed"`
	// The counters below describe rows that were still written, with "N/A" fields.
	FetchFailed     int `json:"fetch_failed"`
	ExtractFailed   int `json:"extract_failed"`
	PageCountFailed int `json:"page_count_failed"`
}

// Add accumulates o into s.
func (s *Summary) Add(o Summary) {
	s.Pages += o.Pages
	s.PagesFailed += o.PagesFailed
	s.Selected += o.Selected
	s.Written += o.Written
	s.Skipped += o.Skipped
	s.WriteFailed += o.WriteFailed
	s.FetchFailed += o.FetchFailed
	s.ExtractFailed += o.ExtractFailed
	s.PageCountFailed += o.PageCountFailed
}

// Fields renders the summary as structured log fields.
func (s Summary) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("pages", s.Pages),
		zap.Int("pages_failed", s.PagesFailed),
		zap.Int("selected", s.Selected),
		zap.Int("written", s.Written),
		zap.Int("skipped", s.Skipped),
		zap.Int("write_failed", s.WriteFailed),
		zap.Int("fetch_failed", s.FetchFailed),
		zap.Int("extract_failed", s.ExtractFailed),
		zap.Int("page_count_failed", s.PageCountFailed),
	}
}

// String implements fmt.Stringer.
func (s Summary) String() string {
	return fmt.Sprintf("selected=%d written=%d skipped=%d write_failed=%d", s.Selected, s.Written, s.Skipped, s.WriteFailed)
}
