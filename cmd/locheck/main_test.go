package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"locheck/internal/config"
	"locheck/internal/diagfmt"
)

// execute runs the root command and resets every flag afterwards, since
// cobra keeps flag values between executions.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--color", "off"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	resetFlags(rootCmd)
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func project(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"locales/en.json": "{\n  \"home\": { \"title\": \"Home\" },\n  \"user\": { \"name\": \"Name\", \"email\": \"Email\" }\n}\n",
		"locales/es.json": "{\n  \"home\": { \"title\": \"Inicio\" },\n  \"user\": { \"name\": \"Nombre\" }\n}\n",
		"app/main.go":     "package main\n\nfunc T(key string) string { return key }\n\nfunc main() {\n\tT(\"home.titel\")\n\tT(\"user.email\")\n\tT(\"user.name\")\n}\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCheckJSON(t *testing.T) {
	root := project(t)

	out, err := execute(t, "check", "--format", "json", root)
	if !errors.Is(err, errFindings) {
		t.Fatalf("expected errFindings, got %v", err)
	}
	var doc diagfmt.Report
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	codes := make([]string, 0, doc.Count)
	for _, d := range doc.Diagnostics {
		codes = append(codes, d.Code)
	}
	// resource files are loaded first, so their diagnostics sort first;
	// home.title is unused because the code has a typo
	want := "UNUSED_KEY,MISSING_KEY,PARTIAL_MISSING_KEY"
	if got := strings.Join(codes, ","); got != want {
		t.Errorf("codes = %s, want %s", got, want)
	}
}

func TestCheckShortWithoutWarnings(t *testing.T) {
	root := project(t)

	out, err := execute(t, "check", "--format", "short", "--no-warnings", "--with-notes=false", root)
	if !errors.Is(err, errFindings) {
		t.Fatalf("expected errFindings, got %v", err)
	}
	want := "error MISSING_KEY app/main.go:6:4 Localization key 'home.titel' is not found in any configured culture\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestCheckRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "check", "--format", "xml", project(t))
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestFixDryRunWritesNothing(t *testing.T) {
	root := project(t)
	before := readFile(t, root, "locales/es.json")

	out, err := execute(t, "fix", "--all", "--dry-run", root)
	if err != nil {
		t.Fatalf("fix: %v\n%s", err, out)
	}
	for _, want := range []string{"merge patch:", `"email":"Email"`, `"titel":"TODO: translate"`} {
		if !strings.Contains(out, want) {
			t.Errorf("dry run output lacks %q:\n%s", want, out)
		}
	}
	if got := readFile(t, root, "locales/es.json"); got != before {
		t.Errorf("dry run modified es.json:\n%s", got)
	}
}

func TestFixAllAddsKeys(t *testing.T) {
	root := project(t)

	out, err := execute(t, "fix", "--all", root)
	if err != nil {
		t.Fatalf("fix: %v\n%s", err, out)
	}
	en := readFile(t, root, "locales/en.json")
	es := readFile(t, root, "locales/es.json")
	if !strings.Contains(en, `"titel": "TODO: translate"`) || !strings.Contains(es, `"titel": "TODO: translate"`) {
		t.Errorf("missing key not added:\nen=%s\nes=%s", en, es)
	}
	if !strings.Contains(es, `"email": "Email"`) {
		t.Errorf("partial key not added to es:\n%s", es)
	}
	if !strings.Contains(out, "replace with 'home.title'") || !strings.Contains(out, "manual-review") {
		t.Errorf("rename fix must be reported as skipped:\n%s", out)
	}

	// второй прогон: чинить больше нечего
	out, err = execute(t, "fix", "--all", root)
	if err != nil {
		t.Fatalf("second fix: %v", err)
	}
	if !strings.Contains(out, "No applicable fixes found.") {
		t.Errorf("second run output:\n%s", out)
	}
}

func TestFixByIDRenames(t *testing.T) {
	root := project(t)

	out, err := execute(t, "check", "--format", "json", "--suggest", root)
	if !errors.Is(err, errFindings) {
		t.Fatalf("check: %v", err)
	}
	var doc diagfmt.Report
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	var id string
	for _, d := range doc.Diagnostics {
		for _, f := range d.Fixes {
			if strings.HasPrefix(f.ID, "rename:") {
				id = f.ID
			}
		}
	}
	if id == "" {
		t.Fatalf("no rename fix in %s", out)
	}

	if out, err := execute(t, "fix", "--id", id, root); err != nil {
		t.Fatalf("fix --id: %v\n%s", err, out)
	}
	if got := readFile(t, root, "app/main.go"); !strings.Contains(got, `T("home.title")`) {
		t.Errorf("rename not applied:\n%s", got)
	}
}

func TestSuggest(t *testing.T) {
	root := project(t)

	out, err := execute(t, "suggest", "home.titel", root)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	first := strings.SplitN(out, "\n", 2)[0]
	if !strings.HasSuffix(first, "home.title") {
		t.Errorf("first candidate line = %q", first)
	}

	out, err = execute(t, "suggest", "user.name", root)
	if err != nil || out != "'user.name' is defined\n" {
		t.Errorf("suggest on a defined key = %q, %v", out, err)
	}
}

func TestKeysSummary(t *testing.T) {
	root := project(t)

	out, err := execute(t, "keys", "--summary", root)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	for _, want := range []string{"CULTURE", "en", "100.0%", "es", "66.7%", "total"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary lacks %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "keys", "--culture", "es", root)
	if err != nil {
		t.Fatalf("keys --culture: %v", err)
	}
	if out != "home.title\nuser.name\n" {
		t.Errorf("es keys = %q", out)
	}
}

func TestInitWritesStarter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")

	if _, err := execute(t, "init", dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := readFile(t, dir, config.FileName); got != config.Starter {
		t.Errorf("starter mismatch")
	}
	if _, err := execute(t, "init", dir); err == nil {
		t.Errorf("second init must refuse to overwrite")
	}
	if _, err := execute(t, "check", "--format", "short", dir); err != nil {
		t.Errorf("check on an empty project: %v", err)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Tool != "locheck" || payload.Version == "" || payload.GitCommit != "" {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestMemProfileWrittenOnStop(t *testing.T) {
	root := project(t)
	heap := filepath.Join(t.TempDir(), "heap.pprof")
	if _, err := execute(t, "--mem-profile", heap, "keys", root); err != nil {
		t.Fatalf("keys: %v", err)
	}
	if err := stopProfiling(); err != nil {
		t.Fatalf("stopProfiling: %v", err)
	}
	if st, err := os.Stat(heap); err != nil || st.Size() == 0 {
		t.Fatalf("heap profile not written: %v", err)
	}
}
