package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowReader_AliasVariants(t *testing.T) {
	header := []string{"Company Name", "SUB ACCOUNT", "contact person", "Mobile Number"}
	r := NewRowReader(header, nil)

	row := r.Read([]string{"Acme Corp", "HQ", "Ravi", "9876543210"})
	assert.Equal(t, "Acme Corp", row.AccountName)
	assert.Equal(t, "HQ", row.SubAccountName)
	assert.Equal(t, "Ravi", row.ContactName)
	assert.Equal(t, "9876543210", row.Phone)
}

func TestRowReader_FirstNonEmptyAliasWins(t *testing.T) {
	// Two columns alias the same field; the higher-priority one is empty.
	header := []string{"Phone", "Mobile"}
	r := NewRowReader(header, nil)

	row := r.Read([]string{"", "9876543210"})
	assert.Equal(t, "9876543210", row.Phone)

	row = r.Read([]string{"1111111111", "9876543210"})
	assert.Equal(t, "1111111111", row.Phone)
}

func TestRowReader_CollapsesWhitespace(t *testing.T) {
	header := []string{"Company"}
	r := NewRowReader(header, nil)

	row := r.Read([]string{"  Acme \n  Corp  "})
	assert.Equal(t, "Acme Corp", row.AccountName)
}

func TestRowReader_ShortRecord(t *testing.T) {
	header := []string{"Company", "Branch", "Contact"}
	r := NewRowReader(header, nil)

	// Records shorter than the header must not panic.
	row := r.Read([]string{"Acme Corp"})
	assert.Equal(t, "Acme Corp", row.AccountName)
	assert.Empty(t, row.SubAccountName)
	assert.Empty(t, row.ContactName)
}

func TestRowReader_UnknownColumnsIgnored(t *testing.T) {
	header := []string{"Internal Notes", "Company"}
	r := NewRowReader(header, nil)

	row := r.Read([]string{"ignore me", "Acme Corp"})
	assert.Equal(t, "Acme Corp", row.AccountName)
}

func TestRowReader_CustomAliases(t *testing.T) {
	aliases := FieldAliases{FieldAccountName: {"dealer"}}
	r := NewRowReader([]string{"Dealer"}, aliases)

	row := r.Read([]string{"Acme Corp"})
	assert.Equal(t, "Acme Corp", row.AccountName)
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "", CollapseSpace("   "))
	assert.Equal(t, "a b", CollapseSpace(" a\t\nb "))
	assert.Equal(t, "Plot 12", CollapseSpace("Plot   12"))
}

func TestNameKey_CaseFold(t *testing.T) {
	assert.Equal(t, NameKey("ACME Corp"), NameKey("acme corp"))
	assert.Equal(t, NameKey("  Acme   Corp "), NameKey("acme corp"))
}

func TestSplitPhones(t *testing.T) {
	assert.Nil(t, SplitPhones(""))
	assert.Equal(t, []string{"9876543210"}, SplitPhones("9876543210"))
	assert.Equal(t, []string{"111", "222", "333", "444"}, SplitPhones("111/222, 333;444"))
	assert.Equal(t, []string{"111", "222"}, SplitPhones("111\n222"))
	assert.Equal(t, []string{"111"}, SplitPhones(" 111 / "))
}
