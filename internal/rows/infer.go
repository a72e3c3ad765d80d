package rows

import (
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial dates count days from 1899-12-30; 25569 is 1970-01-01
// in that system.
const serialEpochOffset = 25569

var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"1-2-2006",
	"2006/01/02",
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseCellDate parses a single cell value into a date. Textual layouts are
// tried in order; a purely numeric value is treated as a spreadsheet date
// serial. The second return is false on any unparseable input.
func ParseCellDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		// Bound serials to a plausible window (~1927..2119 in the
		// 1899-12-30 system) so ordinary amounts are not misread as dates.
		if serial >= 10000 && serial < 80000 {
			days := int(serial) - serialEpochOffset
			frac := serial - float64(int(serial))
			t := time.Date(1970, 1, 1, 0, 0, 0, 0, time.Local).AddDate(0, 0, days)
			return t.Add(time.Duration(frac * 24 * float64(time.Hour))), true
		}
	}
	return time.Time{}, false
}

// ParseRowDate reads the row's candidate date column. Returns false rather
// than an error; callers exclude such rows from date-filtered aggregates.
func ParseRowDate(row Row, column int) (time.Time, bool) {
	if column < 0 {
		return time.Time{}, false
	}
	return ParseCellDate(row.Cell(column))
}

const (
	dateColumnSampleRows = 5
	dateColumnCandidates = 3
)

// FindDateColumn samples up to the first five data rows against candidate
// column positions 0..2 and returns the first index that yields at least one
// parsed date. Returns -1 when no candidate qualifies; the orchestrator then
// either runs unfiltered or falls back to demo data.
func FindDateColumn(g Grid) int {
	limit := dateColumnSampleRows
	if len(g.Rows) < limit {
		limit = len(g.Rows)
	}
	for col := 0; col < dateColumnCandidates; col++ {
		for i := 0; i < limit; i++ {
			if _, ok := ParseRowDate(g.Rows[i], col); ok {
				return col
			}
		}
	}
	return -1
}

// ColumnType classifies a sampled column.
type ColumnType string

const (
	ColumnDate   ColumnType = "date"
	ColumnNumber ColumnType = "number"
	ColumnText   ColumnType = "text"
	ColumnMixed  ColumnType = "mixed"
	ColumnEmpty  ColumnType = "empty"
)

const classifyThreshold = 0.8

// ClassifyColumn drops blank entries and classifies the remainder; a single
// category at or above 80% of the non-blank values wins, otherwise mixed.
func ClassifyColumn(values []string) ColumnType {
	var dates, numbers, texts, total int
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		total++
		if looksLikeDate(value) {
			dates++
		} else if _, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64); err == nil {
			numbers++
		} else {
			texts++
		}
	}
	if total == 0 {
		return ColumnEmpty
	}
	share := func(n int) bool { return float64(n)/float64(total) >= classifyThreshold }
	switch {
	case share(dates):
		return ColumnDate
	case share(numbers):
		return ColumnNumber
	case share(texts):
		return ColumnText
	default:
		return ColumnMixed
	}
}

// looksLikeDate matches textual date patterns only; bare numbers classify as
// numbers even though ParseCellDate would accept them as serials.
func looksLikeDate(value string) bool {
	if !strings.ContainsAny(value, "/-") && !strings.ContainsAny(value, "JFMASONDjfmasond") {
		return false
	}
	_, ok := ParseCellDate(value)
	return ok
}

// ParseMoney strips currency symbols, thousands separators and whitespace.
// Unparseable values coerce to 0, never an error.
func ParseMoney(value string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(value))
	if cleaned == "" {
		return 0
	}
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + strings.Trim(cleaned, "()")
	}
	out, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return out
}

// ParseNumber is ParseMoney with an ok flag, for columns where "missing"
// and "zero" must stay distinguishable (hours, tech pay).
func ParseNumber(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	out, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return out, true
}
