package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "", CollapseSpace(""))
	assert.Equal(t, "", CollapseSpace(" \t\n "))
	assert.Equal(t, "a b c", CollapseSpace("  a \t b\n\nc "))
	assert.Equal(t, "unchanged", CollapseSpace("unchanged"))
}

func TestKey_FoldsCase(t *testing.T) {
	assert.Equal(t, Key("ACME Corp"), Key("acme corp"))
	assert.Equal(t, Key("İstanbul"), Key("i̇stanbul"))
}

func TestKey_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, Key("Acme Corp"), Key("  Acme\t\tCorp "))
}

func TestKey_Empty(t *testing.T) {
	assert.Equal(t, "", Key("   "))
}
