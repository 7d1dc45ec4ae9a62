package usage

import (
	"reflect"
	"testing"

	"locheck/internal/source"
)

func extract(t *testing.T, ex Extractor, path, content string, accessors []Accessor) ([]string, *source.File) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual(path, []byte(content), source.KindCode))
	var keys []string
	for _, s := range ex.Extract(f, accessors) {
		keys = append(keys, s.Key)
	}
	return keys, f
}

const goSource = `package app

type Localizer map[string]string

type Server struct {
	loc *Localizer
}

func (s *Server) Handle(l Localizer, dyn string) {
	_ = l["menu.open"]
	_ = (*s.loc)["menu.close"]
	_ = l[dyn]
	T("greeting")
	i18n.T("farewell")
	T(dyn)
	T("a" + dyn)
	Other("ignored")
	other := map[string]string{}
	_ = other["not.a.key"]
	loc2 := Localizer{}
	_ = loc2["inline"]
	_ = T(` + "`raw.key`" + `)
}
`

func TestGoExtractor(t *testing.T) {
	accessors := []Accessor{{Method: "T"}, {Indexer: "Localizer"}}
	keys, _ := extract(t, GoExtractor{}, "app/server.go", goSource, accessors)
	want := []string{"menu.open", "menu.close", "greeting", "farewell", "inline", "raw.key"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
}

func TestGoExtractorSpans(t *testing.T) {
	src := "package p\n\nvar _ = T(\"hello.world\")\n"
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("p.go", []byte(src), source.KindCode))
	sites := GoExtractor{}.Extract(f, DefaultAccessors)
	if len(sites) != 1 {
		t.Fatalf("expected one site, got %v", sites)
	}
	if got := string(f.Content[sites[0].Span.Start:sites[0].Span.End]); got != `"hello.world"` {
		t.Fatalf("span covers %q", got)
	}
	start, _ := fs.Resolve(sites[0].Span)
	if start.Line != 3 || start.Col != 11 {
		t.Fatalf("site at %d:%d", start.Line, start.Col)
	}
}

func TestGoExtractorWithoutAccessors(t *testing.T) {
	keys, _ := extract(t, GoExtractor{}, "a.go", goSource, nil)
	if len(keys) != 0 {
		t.Fatalf("no accessors should find nothing, got %v", keys)
	}
}

func TestPatternExtractor(t *testing.T) {
	src := `<template>
  <h1>{{ $t('page.title') }}</h1>
  <p>{{ T "page.body" }}</p>
</template>
<script>
const a = t("script.key");
const b = i18n.t("escaped \"q\"");
const c = format("not.a.key");
const d = t(dynamic);
const e = alt('it\'s');
</script>
`
	accessors := []Accessor{{Method: "t"}, {Method: "T"}, {Method: "alt"}}
	keys, _ := extract(t, NewPatternExtractor(), "App.vue", src, accessors)
	want := []string{"page.title", "page.body", "script.key", `escaped "q"`, "it's"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
}

func TestAutoDispatchesByExtension(t *testing.T) {
	ex := &Auto{}
	keys, _ := extract(t, ex, "main.go", "package main\nfunc f() { T(\"go.key\") }\n", DefaultAccessors)
	if !reflect.DeepEqual(keys, []string{"go.key"}) {
		t.Fatalf("go keys = %v", keys)
	}
	keys, _ = extract(t, ex, "page.html", `{{ T "tpl.key" }}`, DefaultAccessors)
	if !reflect.DeepEqual(keys, []string{"tpl.key"}) {
		t.Fatalf("template keys = %v", keys)
	}
}
