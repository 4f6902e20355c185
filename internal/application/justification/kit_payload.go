package justification

import (
	"strconv"
	"strings"

	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/justification"
)

// Checkbox states understood by FillForm
const (
	checkOn  = "/Yes"
	checkOff = "/Off"
)

// Employment statuses and their kit checkboxes
var employmentCheckboxes = []struct {
	status string
	field  string
}{
	{"שכיר", "employ"},
	{"עצמאי", "indipendent"},
	{"שכיר בעל שליטה", "baalshlita"},
	{"עצמאי באמצעות מעסיק", "indiploy"},
}

// kitPayload collects the form values of an enrollment kit. Company kits
// disagree on field names, so each value is written under every alias seen
// in the templates.
type kitPayload map[string]string

func (p kitPayload) set(value string, names ...string) {
	for _, n := range names {
		p[n] = value
	}
}

func (p kitPayload) check(on bool, names ...string) {
	v := checkOff
	if on {
		v = checkOn
	}
	p.set(v, names...)
}

// buildKitPayload fills the client, new fund and optional old fund fields
func buildKitPayload(c *client.Client, np *justification.NewProduct, old *justification.ExistingProduct, today string) kitPayload {
	p := kitPayload{}
	p.addClient(c, today)
	p.addNewFund(np)
	if old != nil {
		p.addOldFund(old)
	}
	return p
}

func (p kitPayload) addClient(c *client.Client, today string) {
	first := client.Deref(c.FirstName)
	last := client.Deref(c.LastName)
	full := strings.TrimSpace(c.FullName)
	if full == "" {
		full = client.JoinName(c.FirstName, c.LastName)
	}
	id := client.Deref(c.IDNumber)

	p.set(today, "today", "Date", "Today")
	p.set(first, "first_name", "ClientFirstName")
	p.set(last, "last_name", "ClientLastName", "client_last_name")
	p.set(full, "full_name", "client_full_name")
	p.set(id, "id", "national_id", "text_3ueyg", "client_id", "ClientId", "ClientID", "ID", "id_number")

	if !c.HasPlaceholderBirthDate() {
		p.set(c.BirthDate.Format(formDateLayout), "ClientBdate", "birth_date")
	}

	p.set(client.Deref(c.Phone), "phone", "mobile", "Clientphone")
	p.set(client.Deref(c.Email), "email", "clientemail", "Clientemail")

	gender := strings.TrimSpace(client.Deref(c.Gender))
	p.check(gender == "זכר", "male", "Male", "client_gender_male")
	p.check(gender == "נקבה", "female", "Female", "client_gender_female")

	marital := strings.TrimSpace(client.Deref(c.MaritalStatus))
	p.check(marital == "רווק" || marital == "רווקה", "single", "Single")
	p.check(marital == "נשוי", "married", "Married", "client_married")
	p.check(marital == "גרוש", "divorced", "Divorced")
	p.check(marital == "אלמן", "widowed")
	p.check(marital == "רווק", "client_single")

	p.set(client.Deref(c.AddressCity), "city", "client_city", "clientcity", "Clientcity")
	p.set(client.Deref(c.AddressStreet), "street", "clientstreet")
	p.set(client.Deref(c.AddressHouseNumber), "house_number", "clienthousenbr", "Clienthousenbr")
	p.set(client.Deref(c.AddressApartment), "apartment", "clientflatnbr", "Clientflatnbr")
	p.set(client.Deref(c.AddressPostalCode), "zip_code", "clientzipcode")

	p.set(client.Deref(c.EmployerName), "Clientemployer", "employer_name")
	p.set(client.Deref(c.EmployerAddress), "Clientemployeraddress", "employer_address")
	p.set(client.Deref(c.EmployerHP), "Clientemployerhp", "TaxId", "employer_tax_id")
	p.set(client.Deref(c.EmployerPhone), "Clientemployerphone", "employerphone")
}

func (p kitPayload) addNewFund(np *justification.NewProduct) {
	status := strings.TrimSpace(client.Deref(np.EmploymentStatus))
	for _, e := range employmentCheckboxes {
		p.check(status == e.status, e.field)
	}
	p.set("Yes", "known")
	p.set(status, "EmploymentType")

	p.set(floatText(np.ManagementFeeContributions), "management_fee")
	p.set(floatText(np.ManagementFeeBalance), "management_fee_balance", "dmnsum")

	p.set(np.FundType, "new_fund_type", "ProductType")
	p.set(np.CompanyName, "new_fund_company")
	p.set(np.FundName, "new_fund_name", "ProductName")
	p.set(np.FundCode, "new_fund_code", "ProductCode")
	p.set(np.PersonalNumberOrEmpty(), "new_personal_number")
	p.set(floatText(np.Yield1Yr), "yield_1yr")
	p.set(floatText(np.Yield3Yr), "yield_3yr")

	if np.HasRegularContributions != nil {
		p.check(*np.HasRegularContributions, "depyes")
		p.check(!*np.HasRegularContributions, "depno")
	} else {
		p.set(checkOff, "depyes", "depno")
	}
}

func (p kitPayload) addOldFund(old *justification.ExistingProduct) {
	p.set(old.FundType, "fund_type", "existing_fund_type")
	p.set(old.CompanyName, "fund_company", "company_name", "existing_fund_company")
	p.set(old.FundName, "fund_name", "existing_fund_name")
	p.set(old.FundCode, "fund_code", "existing_fund_code")
	p.set(old.PersonalNumber, "personal_number")
	p.set(floatText(old.ManagementFeeBalance), "existing_management_fee")
}

// asMap converts the payload for form instance storage
func (p kitPayload) asMap() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func floatText(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
