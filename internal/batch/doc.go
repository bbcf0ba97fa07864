// Package batch runs the sheet sync: for every selected row of a sheet page it
// downloads the referenced PDF, derives the bibliographic record, and writes it
// back to the row's output range.
//
// Rows are processed one at a time in ascending order. A row's download,
// extraction, and page-count failures are absorbed into "N/A" values and the
// row is still written; a rejected write is logged and counted. Nothing short
// of context cancellation stops a page early.
package batch
