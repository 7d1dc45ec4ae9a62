package diagfmt

import (
	"locheck/internal/diag"
	"locheck/internal/source"
)

const (
	codeSrc = "x := T(\"home.titel\")\n"
	enSrc   = "{\n  \"home\": {\n    \"title\": \"Home\"\n  }\n}\n"
)

// fixture returns a bag with one missing-key error (suggestion note and
// add-key fix) and one unused-key warning.
func fixture() (*diag.Bag, *source.FileSet, source.FileID, source.FileID) {
	fs := source.NewFileSet()
	code := fs.AddVirtual("src/app.go", []byte(codeSrc), source.KindCode)
	en := fs.AddVirtual("locales/en.json", []byte(enSrc), source.KindResource)

	bag := diag.NewBag(10)
	missing := diag.NewError(diag.KeyMissing, source.Span{File: code, Start: 7, End: 19},
		"key 'home.titel' is not defined in any culture").
		WithNote(source.Span{File: en, Start: 18, End: 25}, "did you mean 'home.title'?").
		WithFix(&diag.Fix{
			ID:            "add-key:home.titel",
			Title:         "add 'home.titel' to all cultures",
			Applicability: diag.FixApplicabilityAlwaysSafe,
			IsPreferred:   true,
			Additions: []diag.KeyAddition{
				{File: en, Culture: "en", Key: "home.titel", Value: "TODO: translate"},
			},
		}).
		WithFix(&diag.Fix{
			ID:            "rename:src/app.go:7",
			Title:         "rename to 'home.title'",
			Applicability: diag.FixApplicabilityManualReview,
			Edits: []diag.TextEdit{
				{Span: source.Span{File: code, Start: 7, End: 19}, NewText: "\"home.title\"", OldText: "\"home.titel\""},
			},
		})
	missing.Key = "home.titel"
	bag.Add(missing)

	unused := diag.NewWarning(diag.KeyUnused, source.Span{File: en, Start: 18, End: 25},
		"key 'home.title' is defined but never used")
	unused.Key = "home.title"
	unused.Cultures = []string{"en"}
	bag.Add(unused)
	return bag, fs, code, en
}
