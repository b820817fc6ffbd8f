package importer

import "strings"

// AccountDraft is an account under aggregation, before reference resolution.
type AccountDraft struct {
	Name         string
	CompanyStage string
	CompanyTag   string
	// IndustryPairs holds the distinct raw (industry, sub-industry) text pairs
	// seen for this account, in first-seen order.
	IndustryPairs []IndustryPair
	Subs          []*SubAccountDraft

	subByKey map[string]*SubAccountDraft
	pairSeen map[string]struct{}
}

// IndustryPair is an unresolved (industry, sub-industry) text pair.
type IndustryPair struct {
	Industry    string
	SubIndustry string
}

// SubAccountDraft is a sub-account under aggregation.
type SubAccountDraft struct {
	Account    *AccountDraft
	Name       string
	Address    string
	State      string
	City       string
	Pincode    string
	OfficeType string
	Contacts   []*ContactDraft

	contactByKey map[string]*ContactDraft
}

// ContactDraft is a contact under aggregation. Phones accumulates every
// distinct number seen across rows.
type ContactDraft struct {
	Name        string
	Phones      []string
	Email       string
	Designation string

	phoneSeen map[string]struct{}
}

// PhoneList returns the accumulated numbers as a single delimited string.
func (c *ContactDraft) PhoneList() string {
	return strings.Join(c.Phones, " / ")
}

// Aggregator folds a flat row stream into an Account → SubAccount → Contact
// tree. It carries one piece of state between rows: the (account,
// sub-account) pair established by the most recent full row, which
// contact-continuation rows attach to. Rows must be fed in source order.
type Aggregator struct {
	accounts []*AccountDraft
	byKey    map[string]*AccountDraft

	// current is the active context for contact-continuation rows. Set only
	// by full rows, read only by continuation rows; nil until the first full
	// row arrives.
	current *SubAccountDraft
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{byKey: make(map[string]*AccountDraft)}
}

// Accounts returns the aggregated tree in first-seen account order.
func (g *Aggregator) Accounts() []*AccountDraft {
	return g.accounts
}

// Add consumes one row. Three shapes: a full row (account + sub-account names
// present) establishes or re-enters a context; a contact-continuation row
// (contact name only) attaches to the current context; anything else is noise
// and is skipped.
func (g *Aggregator) Add(row Row) {
	switch {
	case row.AccountName != "" && row.SubAccountName != "":
		sub := g.enter(row)
		g.current = sub
		if row.ContactName != "" {
			g.addContact(sub, row)
		}
	case row.AccountName == "" && row.SubAccountName == "" && row.ContactName != "":
		if g.current == nil {
			return // continuation row before any full row: nowhere to attach
		}
		g.addContact(g.current, row)
	}
}

// enter establishes or merges the (account, sub-account) pair for a full row.
func (g *Aggregator) enter(row Row) *SubAccountDraft {
	acctKey := NameKey(row.AccountName)
	acct := g.byKey[acctKey]
	if acct == nil {
		acct = &AccountDraft{
			Name:     row.AccountName,
			subByKey: make(map[string]*SubAccountDraft),
			pairSeen: make(map[string]struct{}),
		}
		g.byKey[acctKey] = acct
		g.accounts = append(g.accounts, acct)
	}

	fillIfBlank(&acct.CompanyStage, row.CompanyStage)
	fillIfBlank(&acct.CompanyTag, row.CompanyTag)
	if row.Industry != "" {
		pairKey := NameKey(row.Industry) + "\x00" + NameKey(row.SubIndustry)
		if _, ok := acct.pairSeen[pairKey]; !ok {
			acct.pairSeen[pairKey] = struct{}{}
			acct.IndustryPairs = append(acct.IndustryPairs, IndustryPair{
				Industry:    row.Industry,
				SubIndustry: row.SubIndustry,
			})
		}
	}

	subKey := NameKey(row.SubAccountName)
	sub := acct.subByKey[subKey]
	if sub == nil {
		sub = &SubAccountDraft{
			Account:      acct,
			Name:         row.SubAccountName,
			contactByKey: make(map[string]*ContactDraft),
		}
		acct.subByKey[subKey] = sub
		acct.Subs = append(acct.Subs, sub)
	}

	fillIfBlank(&sub.Address, row.Address)
	fillIfBlank(&sub.State, row.State)
	fillIfBlank(&sub.City, row.City)
	fillIfBlank(&sub.Pincode, row.Pincode)
	fillIfBlank(&sub.OfficeType, row.OfficeType)

	return sub
}

// addContact appends or merges a contact under the given sub-account.
// Conflicting non-blank phone/designation/email values are first-write-wins;
// additional phone numbers are accumulated, never overwritten.
func (g *Aggregator) addContact(sub *SubAccountDraft, row Row) {
	key := NameKey(row.ContactName)
	c := sub.contactByKey[key]
	if c == nil {
		c = &ContactDraft{Name: row.ContactName, phoneSeen: make(map[string]struct{})}
		sub.contactByKey[key] = c
		sub.Contacts = append(sub.Contacts, c)
	}

	for _, num := range SplitPhones(row.Phone) {
		if _, ok := c.phoneSeen[num]; ok {
			continue
		}
		c.phoneSeen[num] = struct{}{}
		c.Phones = append(c.Phones, num)
	}
	fillIfBlank(&c.Email, row.Email)
	fillIfBlank(&c.Designation, row.Designation)
}

// fillIfBlank applies the blank-never-overwrites-filled merge: the incoming
// value is adopted only when the destination is still empty.
func fillIfBlank(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// phoneDelims are the separators accepted between phone numbers in one cell.
const phoneDelims = "/,;\n"

// SplitPhones splits a raw phone cell into trimmed individual numbers.
func SplitPhones(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(phoneDelims, r)
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
