// Package importer implements the spreadsheet import pipeline: row reading,
// hierarchical aggregation, fuzzy reference resolution, and upsert writing.
package importer

import (
	"github.com/ynm-safety/crm-import-cli/internal/normalize"
)

// Row is one source row after alias resolution and whitespace normalization.
// Every field is a trimmed string; absent columns resolve to "".
type Row struct {
	AccountName    string
	SubAccountName string
	ContactName    string
	Phone          string
	Email          string
	Designation    string
	Address        string
	State          string
	City           string
	Pincode        string
	OfficeType     string
	Industry       string
	SubIndustry    string
	CompanyStage   string
	CompanyTag     string
}

// FieldAliases maps a logical field name to the accepted column-header
// variants, in priority order. Comparison is whitespace- and case-insensitive,
// so "state ", "State" and "STATE" all hit the "state" alias.
type FieldAliases map[string][]string

// Logical field names recognized by the reader.
const (
	FieldAccountName    = "account_name"
	FieldSubAccountName = "sub_account_name"
	FieldContactName    = "contact_name"
	FieldPhone          = "phone"
	FieldEmail          = "email"
	FieldDesignation    = "designation"
	FieldAddress        = "address"
	FieldState          = "state"
	FieldCity           = "city"
	FieldPincode        = "pincode"
	FieldOfficeType     = "office_type"
	FieldIndustry       = "industry"
	FieldSubIndustry    = "sub_industry"
	FieldCompanyStage   = "company_stage"
	FieldCompanyTag     = "company_tag"
)

// DefaultAliases returns the built-in header alias table covering the variants
// seen in the account workbooks (typos, spacing, synonyms).
func DefaultAliases() FieldAliases {
	return FieldAliases{
		FieldAccountName:    {"account_name", "account name", "account", "company name", "company"},
		FieldSubAccountName: {"subaccount", "sub account", "sub-account", "subaccount name", "sub account name", "branch"},
		FieldContactName:    {"contact_name", "contact name", "contact", "contact person", "person name"},
		FieldPhone:          {"phone", "phone number", "mobile", "mobile number", "contact number", "phone no"},
		FieldEmail:          {"email", "email id", "e-mail", "mail id"},
		FieldDesignation:    {"designation", "title", "role"},
		FieldAddress:        {"address", "office address", "site address"},
		FieldState:          {"state", "state name"},
		FieldCity:           {"city", "city name", "district"},
		FieldPincode:        {"pincode", "pin code", "pin", "postal code", "zip"},
		FieldOfficeType:     {"office_type", "office type", "type of office"},
		FieldIndustry:       {"industry", "industry name", "sector"},
		FieldSubIndustry:    {"sub_industry", "sub industry", "sub-industry", "subindustry", "sub sector"},
		FieldCompanyStage:   {"company_stage", "company stage", "stage"},
		FieldCompanyTag:     {"company_tag", "company tag", "tag"},
	}
}

// RowReader maps raw records to Rows using a column plan built once from the
// source header. This stage never fails: unknown columns are ignored and
// missing fields read as empty.
type RowReader struct {
	// plan holds, per logical field, the column indexes of every matching
	// alias in priority order. At read time the first non-empty wins.
	plan map[string][]int
}

// NewRowReader builds the column plan from the source header row.
func NewRowReader(header []string, aliases FieldAliases) *RowReader {
	if aliases == nil {
		aliases = DefaultAliases()
	}

	byKey := make(map[string][]int, len(header))
	for i, col := range header {
		k := headerKey(col)
		if k == "" {
			continue
		}
		byKey[k] = append(byKey[k], i)
	}

	plan := make(map[string][]int, len(aliases))
	for field, names := range aliases {
		for _, name := range names {
			plan[field] = append(plan[field], byKey[headerKey(name)]...)
		}
	}
	return &RowReader{plan: plan}
}

// Read converts one record into a Row. Numeric-looking text (phone, pincode)
// stays a string to preserve leading zeros and multi-value formatting.
func (r *RowReader) Read(record []string) Row {
	return Row{
		AccountName:    r.field(record, FieldAccountName),
		SubAccountName: r.field(record, FieldSubAccountName),
		ContactName:    r.field(record, FieldContactName),
		Phone:          r.field(record, FieldPhone),
		Email:          r.field(record, FieldEmail),
		Designation:    r.field(record, FieldDesignation),
		Address:        r.field(record, FieldAddress),
		State:          r.field(record, FieldState),
		City:           r.field(record, FieldCity),
		Pincode:        r.field(record, FieldPincode),
		OfficeType:     r.field(record, FieldOfficeType),
		Industry:       r.field(record, FieldIndustry),
		SubIndustry:    r.field(record, FieldSubIndustry),
		CompanyStage:   r.field(record, FieldCompanyStage),
		CompanyTag:     r.field(record, FieldCompanyTag),
	}
}

// field returns the first non-empty aliased value for a logical field.
func (r *RowReader) field(record []string, name string) string {
	for _, idx := range r.plan[name] {
		if idx >= len(record) {
			continue
		}
		if v := CollapseSpace(record[idx]); v != "" {
			return v
		}
	}
	return ""
}

// CollapseSpace trims a value and collapses embedded whitespace runs
// (including newlines) to single spaces.
func CollapseSpace(s string) string {
	return normalize.CollapseSpace(s)
}

// headerKey normalizes a column header for alias comparison.
func headerKey(s string) string {
	return normalize.Key(s)
}

// NameKey normalizes an entity or reference name into its natural-key form:
// whitespace collapsed, Unicode case folded.
func NameKey(s string) string {
	return normalize.Key(s)
}
