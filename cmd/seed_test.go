package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ynm-safety/crm-import-cli/internal/model"
)

func TestSeedData_Unmarshal(t *testing.T) {
	content := `industries:
  - name: Manufacturing
    sub_industries: [Steel, Cement]
  - name: Infrastructure
states:
  - name: Telangana
    cities: [Hyderabad, Warangal]
`
	var seed seedData
	require.NoError(t, yaml.Unmarshal([]byte(content), &seed))

	require.Len(t, seed.Industries, 2)
	assert.Equal(t, "Manufacturing", seed.Industries[0].Name)
	assert.Equal(t, []string{"Steel", "Cement"}, seed.Industries[0].SubIndustries)
	assert.Empty(t, seed.Industries[1].SubIndustries)

	require.Len(t, seed.States, 1)
	assert.Equal(t, []string{"Hyderabad", "Warangal"}, seed.States[0].Cities)
}

func TestRefRow(t *testing.T) {
	row := refRow(model.RefCity, "  Hyderabad ", "state-1")
	require.Len(t, row, 5)
	assert.NotEmpty(t, row[0])
	assert.Equal(t, "city", row[1])
	assert.Equal(t, "  Hyderabad ", row[2])
	assert.Equal(t, "hyderabad", row[3])
	assert.Equal(t, "state-1", row[4])
}
