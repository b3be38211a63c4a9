package main

import "testing"

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"commentary around", "Here you go:\n{\"a\": 1}\nthanks", `{"a": 1}`, true},
		{"markdown fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`, true},
		{"nested braces", `prefix {"a": {"b": 2}} suffix`, `{"a": {"b": 2}}`, true},
		{"brace inside string", `{"a": "close } brace"}`, `{"a": "close } brace"}`, true},
		{"escaped quote in string", `{"a": "quote \" and } brace"}`, `{"a": "quote \" and } brace"}`, true},
		{"no object", "no json here", "", false},
		{"unterminated", `{"a": 1`, "", false},
	}
	for _, tc := range cases {
		got, found := extractJSONObject(tc.in)
		if found != tc.found || got != tc.want {
			t.Fatalf("%s: got (%q, %t), want (%q, %t)", tc.name, got, found, tc.want, tc.found)
		}
	}
}

func TestExtractResponseTextShapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain text", "Key findings:\n- lots of P0s", "Key findings:\n- lots of P0s", true},
		{"direct json string", `"quoted reply"`, "quoted reply", true},
		{"response wrapper", `{"response": "wrapped reply"}`, "wrapped reply", true},
		{"text wrapper", `{"text": "bare text"}`, "bare text", true},
		{"content wrapper", `{"content": "content text"}`, "content text", true},
		{"chat message wrapper", `{"message": {"content": "nested reply"}}`, "nested reply", true},
		{"result wrapper", `{"result": {"text": "deep reply"}}`, "deep reply", true},
		{"empty", "   ", "", false},
		{"unknown shape", `{"weird": {"deep": 1}}`, "", false},
		{"empty wrapped value", `{"response": "  "}`, "", false},
	}
	for _, tc := range cases {
		got, ok := extractResponseText(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: got (%q, %t), want (%q, %t)", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractResponseTextPrefersEarlierShape(t *testing.T) {
	got, ok := extractResponseText(`{"response": "first", "text": "second"}`)
	if !ok || got != "first" {
		t.Fatalf("shape list order must decide, got (%q, %t)", got, ok)
	}
}
