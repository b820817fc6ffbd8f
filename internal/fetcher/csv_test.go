package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := "Company,State\nAcme Corp,Telangana\nBeta Ltd,Kerala\n"
	header, rows, err := ReadCSV(strings.NewReader(in), ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Company", "State"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Acme Corp", "Telangana"}, rows[0])
}

func TestReadCSV_SkipRows(t *testing.T) {
	in := "Dealer Import Q2\n\nCompany,State\nAcme Corp,Telangana\n"
	header, rows, err := ReadCSV(strings.NewReader(in), ParseOptions{SkipRows: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Company", "State"}, header)
	assert.Len(t, rows, 1)
}

func TestReadCSV_RaggedRows(t *testing.T) {
	in := "a,b,c\n1,2\n1,2,3,4\n"
	_, rows, err := ReadCSV(strings.NewReader(in), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[1], 4)
}

func TestReadCSV_CustomDelimiter(t *testing.T) {
	in := "a;b\n1;2\n"
	header, rows, err := ReadCSV(strings.NewReader(in), ParseOptions{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, header)
	assert.Equal(t, []string{"1", "2"}, rows[0])
}

func TestReadCSV_Empty(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader(""), ParseOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	header, rows, err := ReadCSV(strings.NewReader("a,b\n"), ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, header)
	assert.Empty(t, rows)
}
