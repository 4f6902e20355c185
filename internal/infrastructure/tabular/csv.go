// Package tabular reads provider spreadsheets (CSV and XLSX) and the gemelnet
// XML export into plain string grids, and locates the columns an import needs
// through a header-alias table.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvOptions tune ReadCSV
type csvOptions struct {
	delimiter  rune
	strictUTF8 bool
}

// CSVOption configures ReadCSV
type CSVOption func(*csvOptions)

// WithDelimiter fixes the field separator instead of sniffing it
func WithDelimiter(d rune) CSVOption {
	return func(o *csvOptions) { o.delimiter = d }
}

// WithStrictUTF8 rejects files that are not UTF-8 instead of decoding
// them as Windows-1255
func WithStrictUTF8() CSVOption {
	return func(o *csvOptions) { o.strictUTF8 = true }
}

// ReadCSV parses a CSV upload into a grid of trimmed cells. Excel's
// "CSV UTF-8" BOM is dropped. Files saved by Hebrew Excel as plain "CSV"
// are Windows-1255 and are decoded unless WithStrictUTF8 is given. The
// separator is sniffed from the first line among comma, semicolon and tab.
func ReadCSV(data []byte, opts ...CSVOption) ([][]string, error) {
	var o csvOptions
	for _, opt := range opts {
		opt(&o)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	text, err := decodeText(data, o.strictUTF8)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = o.delimiter
	if r.Comma == 0 {
		r.Comma = sniffDelimiter(text)
	}
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var records [][]string
	for line := 1; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", line, err)
		}
		for i := range record {
			record[i] = trimSpaces(record[i])
		}
		records = append(records, record)
	}
}

func decodeText(data []byte, strict bool) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	if strict {
		return "", ErrInvalidEncoding
	}
	decoded, err := charmap.Windows1255.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return string(decoded), nil
}

// sniffDelimiter picks the candidate that occurs most often on the first
// line, preferring comma on ties
func sniffDelimiter(text string) rune {
	first, _, _ := strings.Cut(text, "\n")
	best, bestCount := ',', strings.Count(first, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(first, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
