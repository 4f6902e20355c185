package tabular

import (
	"strings"
)

// Field is the canonical name of a column an import understands
type Field string

// Schema maps canonical fields to the header spellings seen in provider files
type Schema struct {
	Aliases  map[Field][]string
	Required []Field
	// HeaderScan is how many leading rows may precede the header (title rows,
	// report dates). Zero means the header is the first non-empty row.
	HeaderScan int
}

// Row is one data row keyed by canonical field
type Row struct {
	LineNumber int
	values     map[Field]string
}

// Get returns the value of a field, or "" when the column is absent
func (r *Row) Get(field Field) string {
	return r.values[field]
}

// Has reports whether the field's column exists in the file
func (r *Row) Has(field Field) bool {
	_, ok := r.values[field]
	return ok
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.values {
		if v != "" {
			return false
		}
	}
	return true
}

// Table is a grid with its header located and columns resolved
type Table struct {
	HeaderLine int
	Columns    map[Field]int
	Rows       []*Row
}

// Locate finds the header row, resolves every aliased column and returns the
// non-empty data rows below it. Line numbers are 1-based like a spreadsheet.
func (s Schema) Locate(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	lookup := s.aliasLookup()
	scan := s.HeaderScan
	if scan <= 0 {
		scan = 1
	}

	var best *MissingColumnsError
	seen := 0
	for i, record := range records {
		if isBlank(record) {
			continue
		}
		if seen >= scan {
			break
		}
		seen++

		columns := resolveColumns(record, lookup)
		missing := s.missing(columns)
		if len(missing) > 0 {
			if best == nil || len(missing) < len(best.Missing) {
				best = &MissingColumnsError{Missing: missing}
			}
			continue
		}

		table := &Table{HeaderLine: i + 1, Columns: columns}
		for j := i + 1; j < len(records); j++ {
			row := &Row{LineNumber: j + 1, values: make(map[Field]string, len(columns))}
			for field, idx := range columns {
				if idx < len(records[j]) {
					row.values[field] = strings.TrimSpace(records[j][idx])
				} else {
					row.values[field] = ""
				}
			}
			if row.IsEmpty() {
				continue
			}
			table.Rows = append(table.Rows, row)
		}
		if len(table.Rows) == 0 {
			return nil, ErrNoDataRows
		}
		return table, nil
	}

	if best != nil {
		return nil, best
	}
	return nil, ErrMissingHeader
}

func (s Schema) aliasLookup() map[string]Field {
	lookup := make(map[string]Field)
	for field, aliases := range s.Aliases {
		lookup[NormalizeHeader(string(field))] = field
		for _, alias := range aliases {
			lookup[NormalizeHeader(alias)] = field
		}
	}
	return lookup
}

func (s Schema) missing(columns map[Field]int) []Field {
	var missing []Field
	for _, f := range s.Required {
		if _, ok := columns[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// resolveColumns keeps the first column matching each field
func resolveColumns(header []string, lookup map[string]Field) map[Field]int {
	columns := make(map[Field]int)
	for idx, h := range header {
		field, ok := lookup[NormalizeHeader(h)]
		if !ok {
			continue
		}
		if _, taken := columns[field]; !taken {
			columns[field] = idx
		}
	}
	return columns
}

// NormalizeHeader folds a header cell for alias comparison: lowercase, with
// whitespace, quotes, dots, dashes and underscores removed. "מס' זהות" and
// "מס זהות" both become "מסזהות".
func NormalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(trimSpaces(h)) {
		if isWhitespace(r) {
			continue
		}
		switch r {
		case '\'', '"', '.', '-', '_', '׳', '״', '`':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
