package insurer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name    string
		insurer string
		found   bool
		want    string
	}{
		{"exact short name", "QBE", true, "QBE"},
		{"full legal name contains template", "QBE Insurance (Australia) Limited", true, "QBE"},
		{"case insensitive", "allianz australia insurance", true, "Allianz"},
		{"workers comp insurer", "icare NSW Workers Insurance", true, "icare"},
		{"unknown insurer", "Acme Underwriters Pty Ltd", false, ""},
		{"empty name", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, ok := catalog.Lookup(tt.insurer)
			if !tt.found {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, tmpl.Name)
		})
	}
}

func TestCatalog_LookupBidirectional(t *testing.T) {
	catalog := MustNewCatalog([]Template{
		{Name: "Suncorp Insurance Australia"},
	})

	// Declared name is a substring of the catalog name.
	tmpl, ok := catalog.Lookup("Suncorp")
	require.True(t, ok)
	assert.Equal(t, "Suncorp Insurance Australia", tmpl.Name)
}

func TestTemplate_MatchesPolicyNumber(t *testing.T) {
	catalog := DefaultCatalog()

	qbe, ok := catalog.Lookup("QBE")
	require.True(t, ok)
	assert.True(t, qbe.MatchesPolicyNumber("AB1234567"))
	assert.True(t, qbe.MatchesPolicyNumber(" ab1234567 "))
	assert.False(t, qbe.MatchesPolicyNumber("1234567"))
	assert.False(t, qbe.MatchesPolicyNumber("ABCD-99"))

	zurich, ok := catalog.Lookup("Zurich Australian Insurance")
	require.True(t, ok)
	assert.True(t, zurich.MatchesPolicyNumber("ZU12345678"))
	assert.False(t, zurich.MatchesPolicyNumber("XX12345678"))
}

func TestTemplate_EmptyPatternMatchesAnything(t *testing.T) {
	catalog := MustNewCatalog([]Template{{Name: "NoPattern"}})
	tmpl, ok := catalog.Lookup("NoPattern")
	require.True(t, ok)
	assert.True(t, tmpl.MatchesPolicyNumber("anything-goes-123"))
}

func TestNewCatalog_RejectsInvalidInput(t *testing.T) {
	_, err := NewCatalog([]Template{{Name: ""}})
	assert.Error(t, err)

	_, err = NewCatalog([]Template{{Name: "Broken", PolicyPattern: "("}})
	assert.Error(t, err)
}
