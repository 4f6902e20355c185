package importapp

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/tabular"
)

// Canonical columns of the provider balance reports
const (
	fieldIDNumber   tabular.Field = "id_canon"
	fieldClientName tabular.Field = "client_name"
	fieldFundNumber tabular.Field = "fund_number"
	fieldAmount     tabular.Field = "accumulated_amount"
	fieldFundName   tabular.Field = "fund_name"
	fieldFundType   tabular.Field = "fund_type"
	fieldFundCode   tabular.Field = "fund_code"
)

// crmSchema is the single header-alias table used for every provider export
var crmSchema = tabular.Schema{
	Aliases: map[tabular.Field][]string{
		fieldIDNumber: {
			"תז", "ת.ז", "ת.ז.", "תעודת זהות", "מספר זהות", "מס' זהות", "מספר תעודת זהות",
			"ת.ז עמית", "מספר זהות עמית", "זהות", "id", "id_number",
		},
		fieldClientName: {"שם לקוח", "שם עמית", "שם מלא", "שם העמית", "שם", "name"},
		fieldFundNumber: {
			"מספר חשבון", "מספר פוליסה", "מס' פוליסה", "מספר קופה", "מספר חשבון/פוליסה",
			"מספר עמית", "חשבון", "פוליסה", "account", "policy",
		},
		fieldAmount: {
			"צבירה", "סך צבירה", "סה\"כ צבירה", "סכום צבירה", "יתרה", "יתרה צבורה",
			"צבירה כוללת", "ערך פדיון", "amount", "balance",
		},
		fieldFundName: {"שם מסלול", "שם קופה", "שם תוכנית", "שם מוצר", "מסלול השקעה", "מסלול"},
		fieldFundType: {"סוג מוצר", "סוג קופה", "סוג תוכנית", "סוג חשבון", "מוצר"},
		fieldFundCode: {"קוד מסלול", "מספר מסלול", "קוד קופה", "מס' מסלול", "קוד"},
	},
	Required:   []tabular.Field{fieldIDNumber, fieldFundNumber, fieldAmount},
	HeaderScan: 10,
}

// Columns of the legacy Clients.xlsx
const (
	fieldFirstName       tabular.Field = "פרטי"
	fieldLastName        tabular.Field = "משפחה"
	fieldLegacyID        tabular.Field = "תז"
	fieldPhone           tabular.Field = "טלפון"
	fieldEmail           tabular.Field = "דואל"
	fieldCity            tabular.Field = "עיר"
	fieldStreet          tabular.Field = "רחוב"
	fieldHouseNumber     tabular.Field = "מספר"
	fieldGender          tabular.Field = "מין"
	fieldMaritalStatus   tabular.Field = "סטטוס"
	fieldBirthDate       tabular.Field = "ת לידה"
	fieldBirthCountry    tabular.Field = "ארץ לידה"
	fieldEmployerName    tabular.Field = "מעסיק"
	fieldEmployerHP      tabular.Field = "חפ מעסיק"
	fieldEmployerAddress tabular.Field = "כתובת מעסיק"
	fieldEmployerPhone   tabular.Field = "טלפון מעסיק"
)

var legacyClientsSchema = tabular.Schema{
	Aliases: map[tabular.Field][]string{
		fieldFirstName:       nil,
		fieldLastName:        nil,
		fieldLegacyID:        {"ת.ז", "תעודת זהות"},
		fieldPhone:           nil,
		fieldEmail:           {"דוא\"ל", "אימייל"},
		fieldCity:            nil,
		fieldStreet:          nil,
		fieldHouseNumber:     nil,
		fieldGender:          nil,
		fieldMaritalStatus:   {"מצב משפחתי"},
		fieldBirthDate:       {"תאריך לידה", "ת. לידה", "ת.לידה"},
		fieldBirthCountry:    nil,
		fieldEmployerName:    nil,
		fieldEmployerHP:      {"ח.פ מעסיק", "ח\"פ מעסיק"},
		fieldEmployerAddress: nil,
		fieldEmployerPhone:   nil,
	},
	Required: []tabular.Field{fieldLegacyID},
}

// readSpreadsheet returns the cell grid of an .xlsx or .csv upload
func readSpreadsheet(filename string, data []byte) ([][]string, error) {
	if len(data) == 0 {
		return nil, shared.ErrEmptyUpload
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return tabular.ReadXLSX(data)
	case ".csv":
		return tabular.ReadCSV(data)
	default:
		return nil, shared.ErrUnsupportedSpreadsheetInput
	}
}

// locate resolves the schema's columns, turning format problems into input errors
func locate(schema tabular.Schema, records [][]string) (*tabular.Table, error) {
	table, err := schema.Locate(records)
	if err == nil {
		return table, nil
	}
	if errors.Is(err, tabular.ErrEmptyFile) {
		return nil, shared.ErrEmptyUpload
	}
	return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
}

// companyFromFilename finds a known provider code among the filename's tokens,
// so "FNX_2024_03.xlsx" resolves to FNX
func companyFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	tokens := strings.FieldsFunc(base, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	for _, token := range tokens {
		code := crm.NormalizeCompanyCode(token)
		if crm.SourceDisplayName(code) != code {
			return code
		}
	}
	return ""
}
