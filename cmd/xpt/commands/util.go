package commands

import (
	"strconv"
	"time"
)

func itoa(n int) string { return strconv.Itoa(n) }

// formatTime renders t for tables, or "-" when unset.
func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
