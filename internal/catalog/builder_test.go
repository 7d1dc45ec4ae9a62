package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"locheck/internal/source"
)

type resource struct {
	path    string
	content string
}

func buildCatalog(t *testing.T, opts Options, files ...resource) (*Catalog, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	list := make([]*source.File, 0, len(files))
	for _, r := range files {
		id := fs.AddVirtual(r.path, []byte(r.content), source.KindResource)
		list = append(list, fs.Get(id))
	}
	cat, err := NewBuilder(opts).Build(context.Background(), list)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return cat, fs
}

func TestBuildCultures(t *testing.T) {
	cat, _ := buildCatalog(t, Options{Policy: Sensitive},
		resource{"locales/en.json", `{"user":{"name":"Name","email":"Email"}}`},
		resource{"locales/es.json", `{"user":{"name":"Nombre"}}`},
	)

	if got, want := cat.Cultures(), []string{"en", "es"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Cultures() = %v, want %v", got, want)
	}
	if got, want := cat.Keys(), []string{"user.name", "user.email"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if !cat.HasIn("en", "user.email") || cat.HasIn("es", "user.email") {
		t.Fatalf("unexpected membership of user.email")
	}
	if v, ok := cat.Value("es", "user.name"); !ok || v != "Nombre" {
		t.Fatalf("Value(es, user.name) = %q, %v", v, ok)
	}
	e, ok := cat.Lookup("user.email")
	if !ok || e.Culture != "en" {
		t.Fatalf("Lookup(user.email) = %+v, %v", e, ok)
	}
	if len(cat.FilesFor("en")) != 1 || len(cat.Files()) != 2 {
		t.Fatalf("unexpected file bookkeeping: %v", cat.Files())
	}
}

func TestBuildDuplicateKeepsFirstValue(t *testing.T) {
	cat, fs := buildCatalog(t, Options{Policy: Sensitive},
		resource{"en.json", `{"title":"A","title":"B"}`},
	)

	dups := cat.Duplicates()
	if len(dups) != 1 {
		t.Fatalf("expected one duplicate, got %v", dups)
	}
	if dups[0].Key != "title" || dups[0].Culture != "en" {
		t.Fatalf("unexpected duplicate %+v", dups[0])
	}
	start, _ := fs.Resolve(dups[0].Span)
	if start.Line != 1 || start.Col != 14 {
		t.Fatalf("duplicate anchored at %d:%d", start.Line, start.Col)
	}
	if v, _ := cat.Value("en", "title"); v != "A" {
		t.Fatalf("catalog kept %q, want first value", v)
	}
	if len(cat.Entries("en")) != 1 {
		t.Fatalf("duplicate created two memberships")
	}
}

func TestBuildCaseSensitivity(t *testing.T) {
	content := `{"Title":"x","title":"y"}`

	sensitive, _ := buildCatalog(t, Options{Policy: Sensitive}, resource{"en.json", content})
	if sensitive.Len() != 2 {
		t.Fatalf("sensitive catalog has %d keys, want 2", sensitive.Len())
	}
	if sensitive.Has("TITLE") {
		t.Fatalf("sensitive catalog matched TITLE")
	}

	insensitive, _ := buildCatalog(t, Options{Policy: KeyPolicy{CaseSensitive: false}}, resource{"en.json", content})
	if insensitive.Len() != 1 {
		t.Fatalf("insensitive catalog has %d keys, want 1", insensitive.Len())
	}
	if !insensitive.Has("TITLE") || !insensitive.HasIn("en", "tItLe") {
		t.Fatalf("insensitive catalog did not fold case")
	}
	if len(insensitive.Duplicates()) != 0 {
		t.Fatalf("case variants are not raw duplicates")
	}
}

func TestBuildSkipsMalformed(t *testing.T) {
	cat, _ := buildCatalog(t, Options{Policy: Sensitive},
		resource{"locales/en.json", `{"ok":"yes"}`},
		resource{"locales/es.json", `{"ok":`},
	)
	if got := cat.Skipped(); !reflect.DeepEqual(got, []string{"locales/es.json"}) {
		t.Fatalf("Skipped() = %v", got)
	}
	// es остаётся культурой без ключей и без файлов
	if got := cat.Cultures(); !reflect.DeepEqual(got, []string{"en", "es"}) {
		t.Fatalf("Cultures() = %v", got)
	}
	if got := cat.EffectiveCultures(); !reflect.DeepEqual(got, []string{"en", "es"}) {
		t.Fatalf("EffectiveCultures() = %v", got)
	}
	if len(cat.FilesFor("es")) != 0 || len(cat.Entries("es")) != 0 {
		t.Fatalf("malformed file contributed to es")
	}
	if !cat.Has("ok") {
		t.Fatalf("valid file lost")
	}
}

func TestBuildMalformedUntaggedFileAddsNoCulture(t *testing.T) {
	cat, _ := buildCatalog(t, Options{Policy: Sensitive},
		resource{"locales/en.json", `{"ok":"yes"}`},
		resource{"broken.json", `{`},
	)
	if got := cat.Cultures(); !reflect.DeepEqual(got, []string{"en"}) {
		t.Fatalf("Cultures() = %v", got)
	}
}

func TestBuildResolvesCulturesBelowRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "frontend")
	files := []resource{
		{filepath.Join(root, "locales", "en.json"), `{"a":"1","b":"2"}`},
		{filepath.Join(root, "locales", "es.json"), `{"a":"1","b":"2"}`},
	}

	cat, _ := buildCatalog(t, Options{Policy: Sensitive, Cultures: []string{"en", "es"}, Root: root}, files...)
	if got := cat.Cultures(); !reflect.DeepEqual(got, []string{"en", "es"}) {
		t.Fatalf("Cultures() = %v", got)
	}
	for _, c := range []string{"en", "es"} {
		if !cat.HasIn(c, "a") || !cat.HasIn(c, "b") {
			t.Fatalf("culture %s lost its keys", c)
		}
	}
}

func TestBuildExplicitCultures(t *testing.T) {
	cat, _ := buildCatalog(t, Options{Policy: Sensitive, Cultures: []string{"en", "fr"}},
		resource{"i18n/en/app.json", `{"a":"1"}`},
	)
	if got := cat.Cultures(); !reflect.DeepEqual(got, []string{"en"}) {
		t.Fatalf("Cultures() = %v", got)
	}
	if got := cat.EffectiveCultures(); !reflect.DeepEqual(got, []string{"en", "fr"}) {
		t.Fatalf("EffectiveCultures() = %v", got)
	}
}

func TestBuildCanceled(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("en.json", []byte(`{"a":"b"}`), source.KindResource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(Options{}).Build(ctx, []*source.File{fs.Get(id)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Build on canceled context returned %v", err)
	}
}

func TestBuildWithDiskCache(t *testing.T) {
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	files := []resource{
		{"en.json", `{"title":"A","title":"B","menu":{"open":"Open"}}`},
		{"es.json", `{"menu":{"open":"Abrir"}}`},
		{"de.json", `not json`},
	}

	first, _ := buildCatalog(t, Options{Policy: Sensitive, Cache: cache}, files...)

	entries, err := os.ReadDir(filepath.Join(cache.Dir(), "res"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 cache entries, got %d", len(entries))
	}

	second, _ := buildCatalog(t, Options{Policy: Sensitive, Cache: cache}, files...)
	if !reflect.DeepEqual(first.Keys(), second.Keys()) {
		t.Fatalf("keys differ: %v vs %v", first.Keys(), second.Keys())
	}
	if !reflect.DeepEqual(first.Entries("en"), second.Entries("en")) {
		t.Fatalf("entries differ after cache hit")
	}
	if !reflect.DeepEqual(first.Duplicates(), second.Duplicates()) {
		t.Fatalf("duplicates differ after cache hit")
	}
	if !reflect.DeepEqual(first.Skipped(), second.Skipped()) {
		t.Fatalf("skipped differ after cache hit")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cache.Dir(), "res")); !os.IsNotExist(err) {
		t.Fatalf("cache not dropped: %v", err)
	}
}
