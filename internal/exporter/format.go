package exporter

import (
	"fmt"
)

// formatFloat renders a float with exactly 2 decimal places, so 13.4
// comes out as 13.40 in every row.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
