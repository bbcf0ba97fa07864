package citation

import "strings"

// QuoteSheet wraps a sheet name in single quotes for use in an A1 range.
// Embedded quotes are doubled.
func QuoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
