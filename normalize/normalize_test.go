package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := Default()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lower case", "mis 설치해줘", "MIS 설치해줘"},
		{"title case", "Erp 복구", "ERP 복구"},
		{"already canonical", "SSO login", "SSO login"},
		{"acronym with symbol", "q&a board", "Q&A board"},
		{"multiple acronyms", "nac and gw and wm", "NAC and GW and WM"},
		{"no acronyms", "wifi password", "wifi password"},
		{"empty", "", ""},
		{"mixed case is left alone", "mIs", "mIs"},
		{"title case of long acronym", "Eiis install", "EIIS install"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := Default()
	inputs := []string{
		"mis erp eiis q&a ktr nac sso gw wm",
		"gwm", "Gwm", "wmis", "ssow", "Misc errands", "gWm",
		"how do I reset my sso password for the gw?",
		"", "   ", "ㅁㅑ mis",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalize_CustomVocabulary(t *testing.T) {
	n := New("vpn", " ", "VPN", "wifi")
	assert.Equal(t, []string{"VPN", "WIFI"}, n.Acronyms())
	assert.Equal(t, "VPN setup on WIFI", n.Normalize("vpn setup on Wifi"))
}

func TestNormalize_EmptyVocabulary(t *testing.T) {
	n := New()
	assert.Equal(t, "mis", n.Normalize("mis"))

	var nilNormalizer *Normalizer
	assert.Equal(t, "mis", nilNormalizer.Normalize("mis"))
}

func TestNormalizeAll(t *testing.T) {
	n := Default()
	in := []string{"mis", "erp"}
	out := n.NormalizeAll(in)
	assert.Equal(t, []string{"MIS", "ERP"}, out)
	assert.Equal(t, []string{"mis", "erp"}, in, "input must not be modified")
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Eiis", titleCase("EIIS"))
	assert.Equal(t, "Q&A", titleCase("Q&A"))
	assert.Equal(t, "Gw", titleCase("GW"))
}
