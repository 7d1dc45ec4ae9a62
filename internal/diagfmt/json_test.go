package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestJSONFields(t *testing.T) {
	bag, fs, _, _ := fixture()

	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{
		IncludePositions: true,
		PathMode:         PathModeBasename,
		IncludeNotes:     true,
		IncludeFixes:     true,
	})
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var out Report
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics, got count=%d len=%d", out.Count, len(out.Diagnostics))
	}

	d := out.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "MISSING_KEY" || d.Key != "home.titel" {
		t.Errorf("unexpected header: %+v", d)
	}
	loc := d.Location
	if loc.File != "app.go" || loc.StartLine != 1 || loc.StartCol != 8 || loc.EndCol != 20 {
		t.Errorf("unexpected location: %+v", loc)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location.StartLine != 3 || d.Notes[0].Location.StartCol != 5 {
		t.Errorf("unexpected notes: %+v", d.Notes)
	}
	if len(d.Fixes) != 2 {
		t.Fatalf("expected 2 fixes, got %d", len(d.Fixes))
	}
	// preferred first
	add := d.Fixes[0]
	if add.ID != "add-key:home.titel" || !add.IsPreferred || add.Applicability != "always-safe" {
		t.Errorf("unexpected first fix: %+v", add)
	}
	if len(add.Additions) != 1 || add.Additions[0].File != "en.json" || add.Additions[0].Culture != "en" {
		t.Errorf("unexpected additions: %+v", add.Additions)
	}
	if rename := d.Fixes[1]; len(rename.Edits) != 1 || rename.Edits[0].NewText != `"home.title"` {
		t.Errorf("unexpected rename fix: %+v", rename)
	}

	if u := out.Diagnostics[1]; u.Code != "UNUSED_KEY" || len(u.Cultures) != 1 || u.Cultures[0] != "en" {
		t.Errorf("unexpected second diagnostic: %+v", u)
	}
}

func TestJSONOmitsOptionalParts(t *testing.T) {
	bag, fs, _, _ := fixture()

	out := BuildReport(bag, fs, JSONOpts{PathMode: PathModeBasename, Max: 1})
	if out.Count != 1 {
		t.Fatalf("expected Max to cut output to 1, got %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Notes != nil || d.Fixes != nil {
		t.Errorf("notes and fixes must be omitted: %+v", d)
	}
	if d.Location.StartLine != 0 {
		t.Errorf("positions must be omitted, got line %d", d.Location.StartLine)
	}
	if d.Location.StartByte != 7 || d.Location.EndByte != 19 {
		t.Errorf("unexpected byte range: %+v", d.Location)
	}
}

func TestJSONPreviews(t *testing.T) {
	bag, fs, _, _ := fixture()

	out := BuildReport(bag, fs, JSONOpts{IncludeFixes: true, IncludePreviews: true})
	edits := out.Diagnostics[0].Fixes[1].Edits
	if len(edits) != 1 {
		t.Fatalf("expected one edit, got %d", len(edits))
	}
	if got := strings.Join(edits[0].BeforeLines, "|"); got != `x := T("home.titel")` {
		t.Errorf("before = %q", got)
	}
	if got := strings.Join(edits[0].AfterLines, "|"); got != `x := T("home.title")` {
		t.Errorf("after = %q", got)
	}
}

func TestYAML(t *testing.T) {
	bag, fs, _, _ := fixture()

	var buf bytes.Buffer
	if err := YAML(&buf, bag, fs, JSONOpts{PathMode: PathModeBasename}); err != nil {
		t.Fatalf("YAML() error: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"count: 2", "code: MISSING_KEY", "key: home.titel", "file: en.json"} {
		if !strings.Contains(got, want) {
			t.Errorf("YAML output lacks %q:\n%s", want, got)
		}
	}
}

func TestSarif(t *testing.T) {
	bag, fs, _, _ := fixture()

	var buf bytes.Buffer
	meta := SarifRunMeta{ToolName: "locheck", ToolVersion: "dev", InvocationArgs: []string{"check"}}
	if err := Sarif(&buf, bag, fs, meta); err != nil {
		t.Fatalf("Sarif() error: %v", err)
	}

	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v\n%s", err, buf.String())
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected log header: version=%s runs=%d", log.Version, len(log.Runs))
	}
	run := log.Runs[0]
	if _, err := uuid.Parse(run.AutomationDetails.GUID); err != nil {
		t.Errorf("automation guid %q: %v", run.AutomationDetails.GUID, err)
	}
	if len(run.Tool.Driver.Rules) != 4 {
		t.Errorf("expected 4 rules, got %d", len(run.Tool.Driver.Rules))
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}

	r := run.Results[0]
	if r.RuleID != "MISSING_KEY" || r.Level != "error" {
		t.Errorf("unexpected result: %+v", r)
	}
	if run.Tool.Driver.Rules[r.RuleIndex].ID != r.RuleID {
		t.Errorf("ruleIndex %d does not point at %s", r.RuleIndex, r.RuleID)
	}
	reg := r.Locations[0].PhysicalLocation.Region
	if reg.StartLine != 1 || reg.StartColumn != 8 || reg.ByteOffset != 7 || reg.ByteLength != 12 {
		t.Errorf("unexpected region: %+v", reg)
	}
	if len(r.RelatedLocations) != 1 || r.RelatedLocations[0].Message.Text != "did you mean 'home.title'?" {
		t.Errorf("unexpected related locations: %+v", r.RelatedLocations)
	}
	if run.Results[1].Level != "warning" {
		t.Errorf("unused key level = %s", run.Results[1].Level)
	}
}
