package exporter

import (
	"strconv"

	"mmmcli/internal/numeric"
)

// formatFloat formats a value for tabular output. Undefined values are empty
// cells.
func formatFloat(f numeric.Float) string {
	if !f.Defined() {
		return ""
	}
	return strconv.FormatFloat(f.Value(), 'g', 10, 64)
}

// formatInt formats an int value for tabular output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean value for tabular output
func formatBool(b bool) string {
	return strconv.FormatBool(b)
}
