package tabular

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ParseDecimal reads an amount cell. Thousands separators, currency signs and
// percent signs are ignored, and "(1,234.50)" is negative.
func ParseDecimal(v string) (decimal.Decimal, bool) {
	v = trimSpaces(v)
	if v == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		negative = true
		v = v[1 : len(v)-1]
	}

	var b strings.Builder
	for _, r := range v {
		switch r {
		case ',', '₪', '$', '%', ' ', '\u00a0':
			continue
		}
		b.WriteRune(r)
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		// scientific notation from raw Excel values
		f, ferr := strconv.ParseFloat(b.String(), 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		d = decimal.NewFromFloat(f)
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParsePercent reads a yield cell such as "4.5%" into a float
func ParsePercent(v string) *float64 {
	d, ok := ParseDecimal(v)
	if !ok {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// CellText returns a text cell with the ".0" suffix Excel leaves on integer
// identifiers removed. "123456782.0" becomes "123456782".
func CellText(v string) string {
	v = trimSpaces(v)
	if strings.HasSuffix(v, ".0") {
		head := v[:len(v)-2]
		if head != "" && isDigits(head) {
			return head
		}
	}
	if strings.ContainsAny(v, "eE") {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return v
}

// DateLayouts are the day-first formats accepted in client spreadsheets
var DateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate reads a date cell in any of DateLayouts, or an Excel date serial
func ParseDate(v string) (time.Time, bool) {
	v = trimSpaces(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 && serial < 2958466 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func isDigits(v string) bool {
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return v != ""
}

// trimSpaces trims whitespace, including the non-breaking spaces and
// direction marks Hebrew spreadsheets carry
func trimSpaces(s string) string {
	return strings.TrimFunc(s, isWhitespace)
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '\u00a0', '\u200e', '\u200f':
		return true
	}
	return false
}
