package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnumRun  = regexp.MustCompile(`[^a-z0-9]+`)
	digitRun     = regexp.MustCompile(`[0-9]+`)
	longDateRe   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	shortDateRe  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2})\b`)
	amountStrip  = regexp.MustCompile(`[^0-9.\-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Account numbers are between 14 and 22 digits (CBU, CVU and local accounts).
const (
	minAccountDigits = 14
	maxAccountDigits = 22
	fiscalIDDigits   = 11
)

// FoldDiacritics removes combining marks after canonical decomposition.
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeLabel lowercases, strips diacritics and collapses every run of
// non-alphanumeric characters into a single space. It is idempotent.
func NormalizeLabel(s string) string {
	s = strings.ToLower(FoldDiacritics(s))
	s = nonAlnumRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParseAmount parses a localized money amount.
//
// When both '.' and ',' appear the dot is a thousands separator and the comma
// the decimal mark; a lone ',' is a decimal mark; anything else is taken as-is.
// Unparseable input reports ok == false, never zero.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimRight(strings.TrimSpace(raw), ".,")
	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	s = amountStrip.ReplaceAllString(s, "")
	if !strings.ContainsAny(s, "0123456789") {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseDate reads the first dd/mm/yyyy date in raw, falling back to dd/mm/yy
// where years above 50 belong to the 1900s.
func ParseDate(raw string) (time.Time, bool) {
	if m := longDateRe.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[3])
		if t, ok := buildDate(m[1], m[2], year); ok {
			return t, true
		}
	}

	if m := shortDateRe.FindStringSubmatch(raw); m != nil {
		yy, _ := strconv.Atoi(m[3])
		year := 2000 + yy
		if yy > 50 {
			year = 1900 + yy
		}
		return buildDate(m[1], m[2], year)
	}

	return time.Time{}, false
}

func buildDate(dayStr, monthStr string, year int) (time.Time, bool) {
	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeFiscalID returns the first 11-digit run once hyphens and spaces are
// removed, so "27-26544309-0" becomes "27265443090".
func NormalizeFiscalID(raw string) (string, bool) {
	s := strings.NewReplacer("-", "", " ", "", ".", "").Replace(raw)
	for _, run := range digitRun.FindAllString(s, -1) {
		if len(run) == fiscalIDDigits {
			return run, true
		}
	}
	return "", false
}

// AccountDigits returns the longest 14 to 22 digit run in raw after removing
// spaces and hyphens.
func AccountDigits(raw string) (string, bool) {
	s := strings.NewReplacer("-", "", " ", "", "\u00a0", "").Replace(raw)

	best := ""
	for _, run := range digitRun.FindAllString(s, -1) {
		if len(run) < minAccountDigits || len(run) > maxAccountDigits {
			continue
		}
		if len(run) > len(best) {
			best = run
		}
	}
	return best, best != ""
}

func collapseSpaces(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
