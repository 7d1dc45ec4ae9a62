package diag

import (
	"testing"

	"locheck/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	code := fs.Add("/workspace/app/main.go", []byte("a\nb\n"), source.KindCode, 0)
	res := fs.Add("/workspace/locales/en.json", []byte("{\n  \"x\": 1\n}\n"), source.KindResource, 0)

	diags := []*Diagnostic{
		{
			Severity: SevError,
			Code:     KeyMissing,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: code, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: res, Start: 4, End: 7}, Msg: "did you mean 'x'?"},
			},
		},
		{
			Severity: SevWarning,
			Code:     KeyUnused,
			Message:  "unused",
			Primary:  source.Span{File: res, Start: 4, End: 7},
		},
	}

	expected := "error MISSING_KEY app/main.go:1:1 first line second\n" +
		"note MISSING_KEY locales/en.json:2:3 did you mean 'x'?\n" +
		"warning UNUSED_KEY locales/en.json:2:3 unused"

	if got := FormatShortDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}
