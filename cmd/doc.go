// Package cmd defines and implements the CLI commands for the citesync executable.
//
// Architecture overview:
//   - Sheet access: a citation.SheetStore backend (Google Sheets v4, a local .xlsx workbook, or memory)
//     reads the URL and status columns of each page and overwrites one output range per processed row
//     with user-entered semantics.
//   - Selection: rows whose status cell is "true" (any case) are processed in ascending order; row i of the
//     column data is sheet row i+2 because of the single header row.
//   - Per row: the PDF is downloaded with the Colly fetcher and posted to GROBID's header endpoint; the TEI
//     response is queried with namespace-qualified XPath for title, authors, year, and keywords. The PDF is
//     downloaded a second time for page counting (pdfcpu, falling back to ledongthuc/pdf on a staged temp file).
//   - Failure policy: download, parse, and page-count failures become "N/A" cells and the row is still written.
//     Rows with a status but no URL are skipped. Rejected writes are logged at error level. None of these
//     affect the exit status; only configuration and credential failures do.
//   - Observability: zap logs carry run_id, page, row, and url; progress events go to the log and, when
//     configured, to a Pub/Sub topic; Prometheus metrics are served on metrics.listen_addr during the run and
//     optionally pushed to a Pushgateway at the end.
//
// Quick checklist:
//   - Configure env vars: CITESYNC_SHEET_SPREADSHEET_ID, CITESYNC_SHEET_CREDENTIALS_FILE, CITESYNC_SHEET_URL_COLUMN,
//     CITESYNC_SHEET_STATUS_COLUMN, CITESYNC_SHEET_OUTPUT_START_COLUMN, CITESYNC_SHEET_OUTPUT_END_COLUMN,
//     CITESYNC_SHEET_FIRST_OUTPUT_ROW, CITESYNC_GROBID_HOST (a .env file works too).
//   - Quote page names in YAML (pages: ["1.1", "2.10"]) so they are not read as numbers.
//   - Run locally: go run . sync --config config.yaml, or go run . check to print the resolved plan.
package cmd
