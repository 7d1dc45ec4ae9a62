package respatch

import "testing"

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		path  string
		value string
		want  string
	}{
		{
			name:  "creates intermediate objects",
			text:  `{"a":"x"}`,
			path:  "b.c",
			value: "v",
			want:  "{\n  \"a\": \"x\",\n  \"b\": {\n    \"c\": \"v\"\n  }\n}",
		},
		{
			name:  "keeps order when overwriting",
			text:  `{"a":"1","b":"2"}`,
			path:  "a",
			value: "new",
			want:  "{\n  \"a\": \"new\",\n  \"b\": \"2\"\n}",
		},
		{
			name:  "replaces scalar in the way",
			text:  `{"a":"x"}`,
			path:  "a.b",
			value: "v",
			want:  "{\n  \"a\": {\n    \"b\": \"v\"\n  }\n}",
		},
		{
			name:  "reuses indent and trailing newline",
			text:  "{\n    \"list\": [1, 2],\n    \"n\": 1.50\n}\n",
			path:  "k",
			value: "v",
			want:  "{\n    \"list\": [\n        1,\n        2\n    ],\n    \"n\": 1.50,\n    \"k\": \"v\"\n}\n",
		},
		{
			name:  "empty object",
			text:  "{}",
			path:  "k",
			value: "v",
			want:  "{\n  \"k\": \"v\"\n}",
		},
		{
			name:  "no html escaping",
			text:  `{}`,
			path:  "k",
			value: "<b>&</b>",
			want:  "{\n  \"k\": \"<b>&</b>\"\n}",
		},
		{
			name:  "fallback before closing brace",
			text:  "{\n  \"a\": \"x\",\n}",
			path:  "k.sub",
			value: "v",
			want:  "{\n  \"a\": \"x\",\n  \"k.sub\": \"v\"\n}",
		},
		{
			name:  "fallback adds comma",
			text:  "{\n  \"a\": \"x\" // note\n}",
			path:  "k",
			value: "v",
			want:  "{\n  \"a\": \"x\" // note,\n  \"k\": \"v\"\n}",
		},
		{
			name:  "text without brace is kept",
			text:  "not json",
			path:  "k",
			value: "v",
			want:  "not json",
		},
		{
			name:  "top-level array is kept",
			text:  `["keep", "me"]`,
			path:  "k",
			value: "v",
			want:  `["keep", "me"]`,
		},
		{
			name:  "array of objects is kept",
			text:  `[{"a": 1}]`,
			path:  "k",
			value: "v",
			want:  `[{"a": 1}]`,
		},
		{
			name:  "empty text becomes an object",
			text:  " \n",
			path:  "k",
			value: "v",
			want:  `{ "k": "v" }`,
		},
		{
			name:  "repeated property keeps first value",
			text:  `{"title":"A","title":"B"}`,
			path:  "x",
			value: "v",
			want:  "{\n  \"title\": \"A\",\n  \"x\": \"v\"\n}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(tt.text, tt.path, tt.value); got != tt.want {
				t.Fatalf("Apply() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestApplyIdempotent(t *testing.T) {
	texts := []string{
		`{"a":{"b":"x"},"list":[{"id":1}]}`,
		"{\n\t\"a\": \"x\"\n}\n",
		"{}",
	}
	for _, text := range texts {
		once := Apply(text, "a.c", "v")
		twice := Apply(once, "a.c", "v")
		if once != twice {
			t.Fatalf("Apply not idempotent for %q:\n%s\nvs\n%s", text, once, twice)
		}
		if !Equal(text, text) {
			t.Fatalf("Equal is not reflexive for %q", text)
		}
	}
}

func TestEqualAndDelta(t *testing.T) {
	if !Equal(`{"a":1,"b":2}`, `{"b":2,"a":1}`) {
		t.Fatalf("key order should not matter")
	}
	if Equal(`{"a":1}`, `{"a":2}`) {
		t.Fatalf("different values reported equal")
	}

	before := `{"a":"1"}`
	after := Apply(before, "b", "2")
	delta, err := Delta(before, after)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(delta, `{"b":"2"}`) {
		t.Fatalf("unexpected delta %s", delta)
	}
}
