package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		accept   string
		expected language.Tag
	}{
		{"en-US,en;q=0.9", language.English},
		{"de-DE,de;q=0.9", language.German},
		{"fr-FR", language.English}, // Fallback
		{"", language.English},      // Empty
	}

	for _, tt := range tests {
		got := MatchLanguage(tt.accept)
		// Exact tag matching is tricky with regions, so compare the base language
		base, _ := got.Base()
		exp, _ := tt.expected.Base()
		assert.Equal(t, exp, base, "Accept: %s", tt.accept)
	}
}

func TestNewCLIPrinter(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"german locale", map[string]string{"LC_ALL": "de_DE.UTF-8", "LANG": ""}},
		{"lang fallback", map[string]string{"LC_ALL": "", "LANG": "en_US.UTF-8"}},
		{"no locale", map[string]string{"LC_ALL": "", "LANG": ""}},
		{"c locale", map[string]string{"LC_ALL": "C", "LANG": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			p := NewCLIPrinter()
			assert.NotNil(t, p)
		})
	}
}
