// Package selector picks the sheet rows flagged for processing.
package selector

import (
	"strings"

	"github.com/JakeFAU/citesync/internal/citation"
)

// flag is the status value that marks a row for processing.
const flag = "true"

// Select returns the 1-based sheet rows whose status is "true" (case-insensitive).
// Padded values such as " true" are not selected. statuses[0] is the first data
// row, so index i maps to row i+2.
// The result is ascending and has no duplicates.
func Select(statuses []string) []int {
	rows := make([]int, 0, len(statuses))
	for i, status := range statuses {
		if strings.EqualFold(status, flag) {
			rows = append(rows, i+citation.FirstDataRow)
		}
	}
	return rows
}
