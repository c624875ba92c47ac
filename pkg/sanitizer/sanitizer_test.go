package sanitizer

import (
	"strings"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim spaces", "  Asha Rao  ", "Asha Rao"},
		{"multiple spaces between words", "Asha    Rao", "Asha Rao"},
		{"tabs and newlines", "Asha\t\nRao", "Asha Rao"},
		{"empty string", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"preserve special characters", " Zoë O'Neil ", "Zoë O'Neil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeGuestName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Ravi Kumar", "Ravi Kumar"},
		{"control characters", "Ravi\x00 \x07Kumar", "Ravi Kumar"},
		{"devanagari", " रवि  कुमार ", "रवि कुमार"},
		{"truncated", strings.Repeat("a", 150), strings.Repeat("a", MaxNameLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeGuestName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeGuestName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeGuestName(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeGender(t *testing.T) {
	tests := map[string]string{
		"male":    "MALE",
		" f ":     "FEMALE",
		"Other":   "OTHER",
		"woman":   "FEMALE",
		"unknown": "UNKNOWN",
		"":        "",
	}
	for input, want := range tests {
		if got := NormalizeGender(input); got != want {
			t.Errorf("NormalizeGender(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeCity(t *testing.T) {
	if got := NormalizeCity("  New   Delhi "); got != "new delhi" {
		t.Errorf("NormalizeCity = %q", got)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trailing slash", "https://app.example.com/", "https://app.example.com"},
		{"keeps http for local runs", "http://localhost:3000", "http://localhost:3000"},
		{"upper-case host", " HTTPS://App.Example.COM/Portal// ", "https://app.example.com/Portal"},
		{"missing scheme", "app.example.com/", "https://app.example.com"},
		{"empty", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeBaseURL(tt.input); got != tt.want {
				t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" 2026-12-25, 2026-01-01,,2026-12-25 ,")
	want := []string{"2026-12-25", "2026-01-01"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("SplitList = %q, want %q", got, want)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Errorf("SplitList(\"\") = %q, want empty", got)
	}
}

func TestNormalizeStringSlice(t *testing.T) {
	got := NormalizeStringSlice([]string{" Goa", "goa ", "", "Ooty"}, NormalizeCity)
	if strings.Join(got, "|") != "goa|ooty" {
		t.Errorf("NormalizeStringSlice = %q, want [goa ooty]", got)
	}
}
