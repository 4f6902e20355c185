package tabular

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testSchema = Schema{
	Aliases: map[Field][]string{
		"id":     {"מספר זהות", "ת.ז"},
		"amount": {"יתרה", "סכום צבור"},
		"name":   {"שם לקוח"},
	},
	Required:   []Field{"id", "amount"},
	HeaderScan: 5,
}

func TestReadCSV(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		records, err := ReadCSV([]byte("\xEF\xBB\xBFid,amount\n1,2"))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"id", "amount"}, {"1", "2"}}, records)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := ReadCSV([]byte("\xEF\xBB\xBF \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Windows-1255 is decoded", func(t *testing.T) {
		// "שם,יתרה" as saved by Hebrew Excel
		data := []byte{0xF9, 0xED, ',', 0xE9, 0xFA, 0xF8, 0xE4, '\n', 'a', ',', '1'}
		records, err := ReadCSV(data)
		require.NoError(t, err)
		assert.Equal(t, []string{"שם", "יתרה"}, records[0])
	})

	t.Run("strict mode rejects non UTF-8", func(t *testing.T) {
		_, err := ReadCSV([]byte{0xff, 0xfe, 'a', ',', 'b'}, WithStrictUTF8())
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("delimiter is sniffed", func(t *testing.T) {
		records, err := ReadCSV([]byte("  a ; b ;c\n1;2,5;3"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, records[0])
		assert.Equal(t, []string{"1", "2,5", "3"}, records[1])

		records, err = ReadCSV([]byte("id\tamount\n7\t100"))
		require.NoError(t, err)
		assert.Equal(t, []string{"7", "100"}, records[1])
	})

	t.Run("explicit delimiter wins", func(t *testing.T) {
		records, err := ReadCSV([]byte("a;b,c\n"), WithDelimiter(','))
		require.NoError(t, err)
		assert.Equal(t, []string{"a;b", "c"}, records[0])
	})

	t.Run("ragged rows and direction marks", func(t *testing.T) {
		records, err := ReadCSV([]byte("id,name,amount\n\u200f123\u00a0,דנה\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"123", "דנה"}, records[1])
	})
}

func TestSchema_Locate(t *testing.T) {
	t.Run("header after title rows", func(t *testing.T) {
		records := [][]string{
			{"דוח יתרות", ""},
			{},
			{"ת\"ז", "שם לקוח", "סכום צבור"},
			{"123456782", "דנה", "1,000"},
			{"", "", ""},
			{"987654321", "אבי", "50"},
		}
		table, err := testSchema.Locate(records)
		require.NoError(t, err)

		assert.Equal(t, 3, table.HeaderLine)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "123456782", table.Rows[0].Get("id"))
		assert.Equal(t, "1,000", table.Rows[0].Get("amount"))
		assert.Equal(t, 6, table.Rows[1].LineNumber)
		assert.True(t, table.Rows[0].Has("name"))
	})

	t.Run("canonical field names match too", func(t *testing.T) {
		table, err := testSchema.Locate([][]string{{"ID", "Amount"}, {"1", "2"}})
		require.NoError(t, err)
		assert.False(t, table.Rows[0].Has("name"))
		assert.Equal(t, "", table.Rows[0].Get("name"))
	})

	t.Run("reports missing columns", func(t *testing.T) {
		_, err := testSchema.Locate([][]string{{"ת.ז", "שם"}, {"1", "x"}})
		var missing *MissingColumnsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []Field{"amount"}, missing.Missing)
		assert.ErrorIs(t, err, ErrMissingHeader)
	})

	t.Run("no data rows", func(t *testing.T) {
		_, err := testSchema.Locate([][]string{{"ת.ז", "יתרה"}})
		assert.ErrorIs(t, err, ErrNoDataRows)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := testSchema.Locate(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "מסזהות", NormalizeHeader(" מס' זהות "))
	assert.Equal(t, "תז", NormalizeHeader("ת.ז."))
	assert.Equal(t, "fundnumber", NormalizeHeader("Fund_Number"))
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1,234.50", "1234.5", true},
		{"₪ 99", "99", true},
		{"(10)", "-10", true},
		{"4.5%", "4.5", true},
		{"1.5E+03", "1500", true},
		{"", "0", false},
		{"abc", "0", false},
	}
	for _, tt := range tests {
		got, ok := ParseDecimal(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s -> %s", tt.in, got)
	}

	require.NotNil(t, ParsePercent("3.2%"))
	assert.InDelta(t, 3.2, *ParsePercent("3.2%"), 1e-9)
	assert.Nil(t, ParsePercent(" "))
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "123456782", CellText("123456782.0"))
	assert.Equal(t, "123456782", CellText("1.23456782E+08"))
	assert.Equal(t, "12.5", CellText("12.5"))
	assert.Equal(t, "דנה", CellText(" דנה "))
}

func TestParseDate(t *testing.T) {
	want := time.Date(1980, time.March, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"05/03/1980", "5/3/1980", "05-03-1980", "1980-03-05", "05.03.1980", "29285"} {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseDate("not a date")
	assert.False(t, ok)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"מספר זהות", "יתרה"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{123456782, 1500.25}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	records, err := ReadXLSX(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "123456782", CellText(records[1][0]))

	table, err := testSchema.Locate(records)
	require.NoError(t, err)
	amount, ok := ParseDecimal(table.Rows[0].Get("amount"))
	require.True(t, ok)
	assert.Equal(t, "1500.25", amount.String())

	_, err = ReadXLSX(nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
	_, err = ReadXLSX([]byte("not a workbook"))
	assert.Error(t, err)
}

func TestReadGemelnetXML(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<ROWSET>
  <Data>
    <Row>
      <ID> 1234 </ID>
      <SHM_KUPA>מסלול כללי</SHM_KUPA>
      <SHM_HEVRA_MENAHELET>אלטשולר שחם גמל ופנסיה</SHM_HEVRA_MENAHELET>
      <TSUA_MITZTABERET_LETKUFA>5.1%</TSUA_MITZTABERET_LETKUFA>
      <TSUA_MITZTABERET_36_HODASHIM>12.3</TSUA_MITZTABERET_36_HODASHIM>
    </Row>
    <Row><ID>99</ID></Row>
  </Data>
</ROWSET>`

	rows, err := ReadGemelnetXML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1234", rows[0].FundCode)
	assert.Equal(t, "מסלול כללי", rows[0].FundName)
	assert.Equal(t, "5.1%", rows[0].YieldPeriod)
	assert.Equal(t, "", rows[1].FundName)

	_, err = ReadGemelnetXML([]byte("  "))
	assert.ErrorIs(t, err, ErrEmptyFile)
	_, err = ReadGemelnetXML([]byte("<Row><ID>1</Row>"))
	assert.Error(t, err)
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection(1)
	ec.AddRequired(2, "id")
	ec.AddInvalid(3, "amount", ErrCodeInvalidNumber, "x")

	assert.True(t, ec.HasErrors())
	assert.Equal(t, 2, ec.TotalCount())
	assert.True(t, ec.Truncated())
	require.Len(t, ec.Errors(), 1)
	assert.Equal(t, "row 2, column 'id': field 'id' is required", ec.Errors()[0].Error())
}
