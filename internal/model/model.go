// Package model defines the reconciled CRM entities and import run results.
package model

import "time"

// RefCategory identifies a reference table partition.
type RefCategory string

const (
	RefIndustry    RefCategory = "industry"
	RefSubIndustry RefCategory = "sub_industry"
	RefState       RefCategory = "state"
	RefCity        RefCategory = "city"
)

// Reference is a known reference value (industry, sub-industry, state, or city).
// ParentID is the owning industry id for sub-industries and the owning state id
// for cities; empty for top-level categories.
type Reference struct {
	ID       string      `json:"id"`
	Category RefCategory `json:"category"`
	Name     string      `json:"name"`
	ParentID string      `json:"parent_id,omitempty"`
}

// IndustryAssociation links an account to a resolved (industry, sub-industry)
// pair. SubIndustryID may be empty when only the industry resolved.
type IndustryAssociation struct {
	IndustryID    string `json:"industry_id"`
	SubIndustryID string `json:"sub_industry_id,omitempty"`
}

// Account is the top of the reconciled hierarchy. Natural key: case-folded
// trimmed name.
type Account struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	CompanyStage string                `json:"company_stage,omitempty"`
	CompanyTag   string                `json:"company_tag,omitempty"`
	Industries   []IndustryAssociation `json:"industries,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// HasAssociation reports whether the exact (industry, sub-industry) pair is
// already attached to the account.
func (a *Account) HasAssociation(assoc IndustryAssociation) bool {
	for _, existing := range a.Industries {
		if existing.IndustryID == assoc.IndustryID && existing.SubIndustryID == assoc.SubIndustryID {
			return true
		}
	}
	return false
}

// SubAccount is a site/branch owned by exactly one Account. Natural key:
// (account id, case-folded trimmed name).
type SubAccount struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address,omitempty"`
	StateID    string    `json:"state_id,omitempty"`
	CityID     string    `json:"city_id,omitempty"`
	Pincode    string    `json:"pincode,omitempty"`
	OfficeType string    `json:"office_type,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Contact belongs to one SubAccount. Natural key: (sub-account id, case-folded
// trimmed name). Phone holds one or more numbers joined by " / ".
type Contact struct {
	ID           string    `json:"id"`
	SubAccountID string    `json:"sub_account_id"`
	AccountID    string    `json:"account_id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	Designation  string    `json:"designation,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ImportResult is the run outcome returned to the caller: per-entity counts
// plus an ordered list of human-readable per-entity errors. A run always
// produces a result; failures are visible only in the data.
type ImportResult struct {
	Source             string   `json:"source,omitempty"`
	RowsRead           int      `json:"rows_read"`
	AccountsCreated    int      `json:"accounts_created"`
	AccountsUpdated    int      `json:"accounts_updated"`
	SubAccountsCreated int      `json:"sub_accounts_created"`
	SubAccountsUpdated int      `json:"sub_accounts_updated"`
	ContactsCreated    int      `json:"contacts_created"`
	ContactsUpdated    int      `json:"contacts_updated"`
	ReferencesCreated  int      `json:"references_created"`
	Errors             []string `json:"errors,omitempty"`
}

// Merge folds another result into this one (used when importing several files
// in a single invocation).
func (r *ImportResult) Merge(other *ImportResult) {
	if other == nil {
		return
	}
	r.RowsRead += other.RowsRead
	r.AccountsCreated += other.AccountsCreated
	r.AccountsUpdated += other.AccountsUpdated
	r.SubAccountsCreated += other.SubAccountsCreated
	r.SubAccountsUpdated += other.SubAccountsUpdated
	r.ContactsCreated += other.ContactsCreated
	r.ContactsUpdated += other.ContactsUpdated
	r.ReferencesCreated += other.ReferencesCreated
	r.Errors = append(r.Errors, other.Errors...)
}
