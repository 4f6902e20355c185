package tabular

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// GemelnetRow is one fund track from the gemelnet XML export
type GemelnetRow struct {
	FundCode         string `xml:"ID"`
	FundName         string `xml:"SHM_KUPA"`
	CompanyName      string `xml:"SHM_HEVRA_MENAHELET"`
	YieldPeriod      string `xml:"TSUA_MITZTABERET_LETKUFA"`
	Yield36Months    string `xml:"TSUA_MITZTABERET_36_HODASHIM"`
	YieldAnnualAvg3Y string `xml:"TSUA_SHNATIT_MEMUZAAT_3_SHANIM"`
	YieldAvg36Months string `xml:"TSUA_MEMUZAAT_36_HODASHIM"`
}

// Trim strips whitespace from every field
func (r *GemelnetRow) Trim() {
	r.FundCode = trimSpaces(r.FundCode)
	r.FundName = trimSpaces(r.FundName)
	r.CompanyName = trimSpaces(r.CompanyName)
}

// ReadGemelnetXML returns every Row element, wherever it is nested
func ReadGemelnetXML(data []byte) ([]GemelnetRow, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var rows []GemelnetRow
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse gemelnet XML: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Row" {
			continue
		}
		var row GemelnetRow
		if err := dec.DecodeElement(&row, &start); err != nil {
			return nil, fmt.Errorf("failed to decode Row element: %w", err)
		}
		row.Trim()
		rows = append(rows, row)
	}
	return rows, nil
}

// charsetReader lets exports declared as windows-1255 or iso-8859-8 decode
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(strings.ToLower(strings.TrimSpace(label)))
	if err != nil {
		return nil, fmt.Errorf("unsupported XML charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
