package analysis

import (
	"strconv"
	"strings"
	"time"
)

// itemSeparator divides per-test-case sections of a report.
const itemSeparator = "\n**********\n"

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func ratio(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

func render(header string, items []string, summary string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(strings.Join(items, itemSeparator))
	if summary != "" {
		b.WriteString("\n\n")
		b.WriteString(summary)
	}
	return b.String()
}
