package textnorm

import (
	"sort"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase", "Festival De Jazz", "festival de jazz"},
		{"diacritics", "Teatro Colón", "teatro colon"},
		{"punctuation", "Rock! en el Parque...", "rock en el parque"},
		{"whitespace collapse", "  Noche   de\tTango  ", "noche de tango"},
		{"separator punctuation", "jazz-fusion/rock", "jazz fusion rock"},
		{"digits kept", "Festival 2025", "festival 2025"},
		{"mixed accents", "Año Nuevo — São Paulo", "ano nuevo sao paulo"},
		{"only punctuation", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	input := "Gran Concierto: Música en Vivo (2025)"
	first := Normalize(input)
	for i := 0; i < 5; i++ {
		if got := Normalize(input); got != first {
			t.Fatalf("Normalize not deterministic: %q vs %q", got, first)
		}
	}
}

func TestKeywords(t *testing.T) {
	got := Keywords("Festival de Jazz 2025")

	// "de" is too short, "2025" is numeric
	want := []string{"festival", "jazz"}
	if !sameKeywordSet(got, want) {
		t.Errorf("Keywords mismatch: got %v, want %v", sortedKeys(got), want)
	}
}

func TestKeywords_ShortTokensDropped(t *testing.T) {
	// "de" and "el" are too short, regardless of the stopword list
	got := Keywords("Rock en el Parque")
	want := []string{"parque", "rock"}
	if !sameKeywordSet(got, want) {
		t.Errorf("Keywords mismatch: got %v, want %v", sortedKeys(got), want)
	}
}

func TestKeywords_StopwordsDropped(t *testing.T) {
	got := Keywords("World Tour Live Show Madrid")
	want := []string{"madrid", "world"}
	if !sameKeywordSet(got, want) {
		t.Errorf("Keywords mismatch: got %v, want %v", sortedKeys(got), want)
	}
}

func TestKeywords_Empty(t *testing.T) {
	if got := Keywords(""); len(got) != 0 {
		t.Errorf("Expected empty set for empty input, got %v", sortedKeys(got))
	}
	if got := Keywords("de la el"); len(got) != 0 {
		t.Errorf("Expected empty set for short-token input, got %v", sortedKeys(got))
	}
}

func sameKeywordSet(got map[string]struct{}, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for _, w := range want {
		if _, ok := got[w]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
