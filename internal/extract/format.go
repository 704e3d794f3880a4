package extract

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"hackathon-assistant/internal/domain"
)

const notSpecified = "Not specified"

// lines accumulates the rendered lines of one block.
type lines []string

func (l *lines) add(s string) { *l = append(*l, s) }

func (l *lines) addf(format string, args ...any) { *l = append(*l, fmt.Sprintf(format, args...)) }

func (l *lines) blank() { *l = append(*l, "") }

func (l lines) String() string { return strings.Join(l, "\n") }

func header(name string) string { return "=== " + name + " ===" }

func period(start, end domain.Text) string {
	return start.Or(notSpecified) + " to " + end.Or(notSpecified)
}

func blank(t domain.Text) bool { return strings.TrimSpace(string(t)) == "" }

// formatPoints prints whole numbers without a fractional part.
func formatPoints(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// percentage is points as a share of total, 0 when total is not positive.
func percentage(points, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return points / total * 100
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func requiredLabel(f domain.Flag) string {
	if f {
		return "Required"
	}
	return "Optional"
}

func yesNo(f domain.Flag) string {
	if f {
		return "Yes"
	}
	return "No"
}
