package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Co", "Acme Co"},
		{"  <b>Acme</b>   Co\t", "Acme Co"},
		{"Acme\x00\x07Co", "Acme Co"},
		{"<script>alert(1)</script>", "alert(1)"},
		{"&lt;i&gt;Ravi&lt;/i&gt; Traders", "Ravi Traders"},
		{"\n\r ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeString(tt.in), "input %q", tt.in)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("billing@acme.in"))
	assert.Error(t, ValidateEmail("billing@acme"))
	assert.Error(t, ValidateEmail(""))
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("098765 43210", "IN")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", got)

	got, err = NormalizePhone("", "IN")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NormalizePhone("12", "IN")
	assert.Error(t, err)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "WNF_8", SanitizeFileName("WNF-8"))
	assert.Equal(t, "A_B_C_2024_07", SanitizeFileName("A/B C#2024.07"))
}
