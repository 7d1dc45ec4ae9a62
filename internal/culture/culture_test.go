package culture

import (
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		explicit []string
		want     string
	}{
		{"explicit wins over suffix", "locales/fr/messages.en.json", []string{"fr"}, "fr"},
		{"explicit is case-insensitive and preserved", "i18n/ES-mx.json", []string{"es-MX"}, "es-MX"},
		{"filename suffix", "resources/strings.es-MX.json", nil, "es-mx"},
		{"bare culture filename", "locales/de.json", nil, "de"},
		{"long region subtag", "x/app.zh-hans.json", nil, "zh-hans"},
		{"directory fallback", "locales/pt-br/common.json", nil, "pt-br"},
		{"underscore filename fallback", "locales/strings_ja.json", nil, "ja"},
		{"nothing matches", "resources/strings.json", nil, Default},
		{"numeric suffix is not a culture", "data/v1.json", nil, Default},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.path, tt.explicit); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestEffective(t *testing.T) {
	tests := []struct {
		name       string
		explicit   []string
		discovered []string
		want       []string
	}{
		{"explicit overrides", []string{"es", "en"}, []string{"fr"}, []string{"en", "es"}},
		{"default dropped", nil, []string{"en", Default, "es"}, []string{"en", "es"}},
		{"only default", nil, []string{Default}, []string{Default}},
		{"nothing", nil, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Effective(tt.explicit, tt.discovered); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Effective() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	if got, ok := Canonical("es-mx"); !ok || got != "es-MX" {
		t.Errorf("Canonical(es-mx) = %q, %v", got, ok)
	}
	if _, ok := Canonical(Default); ok {
		t.Error("default sentinel is not a tag")
	}
}
