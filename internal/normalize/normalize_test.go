package normalize

import "testing"

func TestDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "10.1590/abc", "10.1590/abc"},
		{"uppercase", "10.1590/ABC-Def", "10.1590/abc-def"},
		{"https prefix", "https://doi.org/10.1590/abc", "10.1590/abc"},
		{"http prefix", "http://doi.org/10.1590/abc", "10.1590/abc"},
		{"doi prefix", "doi:10.1590/abc", "10.1590/abc"},
		{"surrounding whitespace", "  10.1590/abc \n", "10.1590/abc"},
		{"prefix and whitespace", " DOI:10.1590/ABC ", "10.1590/abc"},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DOI(tt.input); got != tt.want {
				t.Errorf("DOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase and strip spaces", "A Study of Things", "astudyofthings"},
		{"accents removed", "Avaliação da Educação", "avaliacaodaeducacao"},
		{"mixed whitespace", "a\tb\nc d", "abcd"},
		{"already normalized", "editorial", "editorial"},
		{"tilde and cedilla", "São Paulo", "saopaulo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.input); got != tt.want {
				t.Errorf("Title(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTitle_AccentInsensitiveEquality(t *testing.T) {
	a := Title("Introducción")
	b := Title("introduccion")
	if a != b {
		t.Errorf("accented and plain forms differ: %q vs %q", a, b)
	}
}

func TestYear(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
	}{
		{"int", 2020, 2020},
		{"int64", int64(2019), 2019},
		{"float64", float64(2021), 2021},
		{"string", "2018", 2018},
		{"padded string", " 2018 ", 2018},
		{"garbage string", "20x8", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Year(tt.input); got != tt.want {
				t.Errorf("Year(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
