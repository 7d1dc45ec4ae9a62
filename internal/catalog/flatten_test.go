package catalog

import (
	"math"
	"reflect"
	"testing"
)

func leafPairs(leaves []Leaf) [][2]string {
	out := make([][2]string, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, [2]string{l.Key, l.Value})
	}
	return out
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want [][2]string
	}{
		{"nested object", `{"a":{"b":"x"}}`, [][2]string{{"a.b", "x"}}},
		{"array", `{"a":["x","y"]}`, [][2]string{{"a[0]", "x"}, {"a[1]", "y"}}},
		{"empty object", `{"a":{}}`, [][2]string{}},
		{"empty array", `{"a":[]}`, [][2]string{}},
		{"scalars", `{"n":1.5,"t":true,"z":null}`, [][2]string{{"n", "1.5"}, {"t", "true"}, {"z", "null"}}},
		{"objects in array", `{"items":[{"label":"L"},{"label":"M"}]}`, [][2]string{{"items[0].label", "L"}, {"items[1].label", "M"}}},
		{"document order", `{"b":"1","a":"2"}`, [][2]string{{"b", "1"}, {"a", "2"}}},
		{"repeated key keeps first", `{"title":"A","title":"B"}`, [][2]string{{"title", "A"}}},
		{"top-level scalar", `"just text"`, [][2]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaves, err := Flatten([]byte(tt.in))
			if err != nil {
				t.Fatalf("Flatten(%s): %v", tt.in, err)
			}
			if got := leafPairs(leaves); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Flatten(%s) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFlattenRejectsMalformed(t *testing.T) {
	for _, in := range []string{`{"a":`, `{"a" 1}`, `{"a":1}}`, `{"a":1} x`, ``} {
		if _, err := Flatten([]byte(in)); err == nil {
			t.Errorf("Flatten(%q) succeeded, want error", in)
		}
	}
}

func TestFlattenKeySpan(t *testing.T) {
	content := []byte("{\n  \"a\": {\n    \"b\\\"q\": \"x\"\n  }\n}")
	leaves, err := Flatten(content)
	if err != nil {
		t.Fatal(err)
	}
	if len(leaves) != 1 {
		t.Fatalf("expected one leaf, got %v", leaves)
	}
	l := leaves[0]
	if l.Key != `a.b"q` {
		t.Fatalf("unexpected key %q", l.Key)
	}
	if got := string(content[l.Start:l.End]); got != `"b\"q"` {
		t.Fatalf("span covers %q", got)
	}
}

func TestScanDuplicates(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"flat repeat", `{"title":"A","title":"B"}`, []string{"title"}},
		{"same name in sibling objects", `{"a":{"name":"x"},"b":{"name":"y"}}`, nil},
		{"objects in array", `{"items":[{"id":1},{"id":2}]}`, nil},
		{"nested repeat", "{\n  \"a\": {\n    \"x\": 1,\n    \"x\": 2\n  }\n}", []string{"a.x"}},
		{"repeat inside array element", `{"items":[{"id":1},{"id":2,"id":3}]}`, []string{"items[1].id"}},
		{"value looks like key", `{"a":"b","c":"b"}`, nil},
		{"three times", `{"k":1,"k":2,"k":3}`, []string{"k", "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, d := range scanDuplicates([]byte(tt.in)) {
				got = append(got, d.Key)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("scanDuplicates(%s) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestScanDuplicatesSpan(t *testing.T) {
	content := []byte(`{"title":"A","title":"B"}`)
	dups := scanDuplicates(content)
	if len(dups) != 1 {
		t.Fatalf("expected one duplicate, got %v", dups)
	}
	if dups[0].Start != 13 || dups[0].End != 20 {
		t.Fatalf("unexpected span %d-%d", dups[0].Start, dups[0].End)
	}
	if got := string(content[dups[0].Start:dups[0].End]); got != `"title"` {
		t.Fatalf("span covers %q", got)
	}
}

func TestByteRange(t *testing.T) {
	if s, e, ok := byteRange(13, 20); !ok || s != 13 || e != 20 {
		t.Fatalf("byteRange(13, 20) = %d, %d, %v", s, e, ok)
	}
	if _, _, ok := byteRange(-1, 3); ok {
		t.Fatalf("negative offset accepted")
	}
	if _, _, ok := byteRange(0, math.MaxUint32+1); ok {
		t.Fatalf("offset past 4GiB accepted")
	}
}
