package citation

import "errors"

// Error classes raised while processing a row. Wrap them with fmt.Errorf and
// match with errors.Is.
var (
	// ErrFetch reports a failed, timed out, or non-2xx document download.
	ErrFetch = errors.New("fetch document")
	// ErrParseService reports a non-2xx response or timeout from the parsing service.
	ErrParseService = errors.New("parsing service")
	// ErrMarkupParse reports a malformed markup document.
	ErrMarkupParse = errors.New("parse markup")
	// ErrPDFRead reports a PDF that could not be loaded or decoded.
	ErrPDFRead = errors.New("read pdf")
	// ErrAlignment reports a selected row with no matching source URL.
	ErrAlignment = errors.New("row alignment")
	// ErrWrite reports a rejected spreadsheet update.
	ErrWrite = errors.New("sheet write")
)
