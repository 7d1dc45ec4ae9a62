package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestColoredPlain(t *testing.T) {
	saved, savedNoColor := Version, color.NoColor
	t.Cleanup(func() { Version, color.NoColor = saved, savedNoColor })
	color.NoColor = true

	tests := []struct {
		in   string
		want string
	}{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3", "1.2.3"},
		{"1.0.0-beta.1+build.5", "1.0.0-beta.1+build.5"},
		{"dev", "dev"},
		{" 2.0.0 ", "2.0.0"},
	}
	for _, tt := range tests {
		Version = tt.in
		if got := Colored(); got != tt.want {
			t.Errorf("Colored() with %q = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColoredPaintsParts(t *testing.T) {
	saved, savedNoColor := Version, color.NoColor
	t.Cleanup(func() { Version, color.NoColor = saved, savedNoColor })
	color.NoColor = false
	Version = "1.2.3"

	got := Colored()
	if got == "1.2.3" {
		t.Fatalf("expected escape codes, got plain %q", got)
	}
	if want := "\x1b[33;1m1\x1b[0m"; got[:len(want)] != want {
		t.Errorf("major part = %q, want prefix %q", got, want)
	}
}
