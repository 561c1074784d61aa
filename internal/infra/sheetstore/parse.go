package sheetstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xavierca1/leadflow/internal/entity"
)

var timestampLayouts = []string{
	entity.TimestampLayout,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006",
}

// parseAmount reads balances written by people as well as by us:
// "20", "20.5", "20,50", "1.234,50 €", "1,234.50". When both separators
// appear the last one is the decimal separator.
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimPrefix(s, "€")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return decimal.Zero, nil
	}

	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		sep, thousands := ".", ","
		if comma > dot {
			sep, thousands = ",", "."
		}
		intPart, frac, _ := strings.Cut(s, sep)
		if strings.Contains(frac, sep) || len(frac) < 1 || len(frac) > 2 || !groupedThousands(intPart, thousands) {
			return decimal.Zero, fmt.Errorf("ambiguous amount %q", raw)
		}
		s = strings.ReplaceAll(intPart, thousands, "") + "." + frac
	case comma >= 0:
		s = normalizeSingleSeparator(s, ",")
	case dot >= 0:
		s = normalizeSingleSeparator(s, ".")
	}
	return decimal.NewFromString(s)
}

// normalizeSingleSeparator handles amounts that use only one separator. One
// occurrence is a decimal point; several must be 3-digit thousands groups.
func normalizeSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) == 1 {
		return strings.Replace(s, sep, ".", 1)
	}
	if groupedThousands(s, sep) {
		return strings.ReplaceAll(s, sep, "")
	}
	return s
}

func groupedThousands(s, sep string) bool {
	groups := strings.Split(strings.TrimPrefix(s, "-"), sep)
	if len(groups[0]) < 1 || len(groups[0]) > 3 {
		return len(groups) == 1 && groups[0] != ""
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

func parseCount(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	// Sheets sometimes renders integers as "3.0" or "3,0".
	d, err := parseAmount(s)
	if err != nil {
		return 0, err
	}
	return int(d.IntPart()), nil
}

// parseTimestamp returns nil for an empty cell. ok is false when the cell is
// not empty but unreadable.
func parseTimestamp(raw string) (t *time.Time, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, true
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			p := parsed.UTC()
			return &p, true
		}
	}
	return nil, false
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(entity.TimestampLayout)
}
