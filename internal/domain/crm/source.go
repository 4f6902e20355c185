package crm

import "strings"

var sourceDisplayNames = map[string]string{
	"AS":    "אלטשולר-שחם",
	"ANLST": "אנליסט",
	"YL":    "ילין לפידות",
	"DASH":  "מיטב-דש",
	"FNX":   "הפניקס",
	"MOR":   "מור",
	"NFTY":  "אינפיניטי",
}

var companyCodeAliases = map[string]string{
	"fnx":   "FNX",
	"as":    "AS",
	"ds":    "DASH",
	"dash":  "DASH",
	"anlst": "ANLST",
	"yl":    "YL",
	"mor":   "MOR",
	"nfty":  "NFTY",
}

// Labels used when a snapshot lacks a source or a fund type
const (
	UnknownSource   = "לא ידוע"
	UnknownFundType = "לא זמין"
	NoData          = "אין נתונים"
)

// SourceDisplayName maps a provider code to its Hebrew company name.
// Unknown codes are returned unchanged.
func SourceDisplayName(code string) string {
	if name, ok := sourceDisplayNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// NormalizeCompanyCode maps the short codes used in upload forms to canonical
// provider codes.
func NormalizeCompanyCode(code string) string {
	trimmed := strings.TrimSpace(code)
	if canonical, ok := companyCodeAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return strings.ToUpper(trimmed)
}
