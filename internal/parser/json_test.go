package parser

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSON_ArrayDocument(t *testing.T) {
	f := File{Name: "lines.json", Content: []byte(`["Hello", {"text":"World","translation":""}]`)}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Metadata["structure"] != "array" {
		t.Errorf("structure = %v, want array", result.Metadata["structure"])
	}

	wantMeta := []map[string]any{
		{"index": 0},
		{"index": 1, "text": "World", "translation": ""},
	}
	for i, e := range result.Entries {
		if diff := cmp.Diff(wantMeta[i], e.Locator.Metadata()); diff != "" {
			t.Errorf("entry %d metadata (-want +got):\n%s", i, diff)
		}
	}
	if result.Entries[0].Source != "Hello" || result.Entries[1].Source != "World" {
		t.Errorf("sources = %v", result.Sources())
	}
	if result.Entries[1].Target != "" {
		t.Errorf("empty translation should not become a target, got %q", result.Entries[1].Target)
	}

	out, err := Reconstruct(f, result, []Translation{
		{Source: "Hello", Translation: "Bonjour"},
		{Source: "World", Translation: "Monde"},
	})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}

	var data []any
	if err := json.Unmarshal(out, &data); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if data[0] != "Bonjour" {
		t.Errorf("data[0] = %v, want Bonjour", data[0])
	}
	obj := data[1].(map[string]any)
	if obj["text"] != "Monde" {
		t.Errorf("data[1].text = %v, want Monde", obj["text"])
	}
	if obj["translation"] != "Monde" {
		t.Errorf("data[1].translation = %v, want Monde", obj["translation"])
	}
}

func TestJSON_ObjectDocument(t *testing.T) {
	f := File{Name: "ui.json", Content: []byte(`{
		"menu.start": "Start",
		"menu.quit": {"source": "Quit", "target": "Quitter", "maxLength": 12},
		"count": 5,
		"empty": "",
		"nested": {"label": "not a text object"}
	}`)}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	want := []ParsedEntry{
		{Source: "Start", Locator: JSONLocator{Index: -1, ID: "menu.start"}},
		{Source: "Quit", Target: "Quitter", Locator: JSONLocator{Index: -1, ID: "menu.quit", Fields: map[string]any{
			"source": "Quit", "target": "Quitter", "maxLength": float64(12),
		}}},
	}
	if diff := cmp.Diff(want, result.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	out, err := Reconstruct(f, result, []Translation{{Source: "Quit", Translation: "Sortir"}})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}

	want2 := `{
  "menu.start": "Start",
  "menu.quit": {
    "source": "Sortir",
    "target": "Sortir",
    "maxLength": 12
  },
  "count": 5,
  "empty": "",
  "nested": {
    "label": "not a text object"
  }
}`
	if string(out) != want2 {
		t.Errorf("output mismatch:\n%s\nwant:\n%s", out, want2)
	}
}

func TestJSON_DottedKeyIsolation(t *testing.T) {
	f := File{Name: "keys.json", Content: []byte(`{"a.b": "One", "a": {"b": "Two"}}`)}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}

	out, err := Reconstruct(f, result, []Translation{{Source: "One", Translation: "Un"}})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}

	var data map[string]any
	if err := json.Unmarshal(out, &data); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if data["a.b"] != "Un" {
		t.Errorf(`data["a.b"] = %v, want Un`, data["a.b"])
	}
	if inner := data["a"].(map[string]any); inner["b"] != "Two" {
		t.Errorf(`data["a"]["b"] = %v, want Two`, inner["b"])
	}
}

func TestJSON_SourcePrecedence(t *testing.T) {
	f := File{Name: "p.json", Content: []byte(`[{"value": "V", "source": "S"}, {"text": "", "value": "Fallback"}, {"text": 5}]`)}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if diff := cmp.Diff([]string{"S", "Fallback"}, result.Sources()); diff != "" {
		t.Errorf("sources (-want +got):\n%s", diff)
	}
}

func TestJSON_ScalarRoot(t *testing.T) {
	f := File{Name: "s.json", Content: []byte(`"just a string"`)}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(result.Entries))
	}
	if result.Metadata["structure"] != "scalar" {
		t.Errorf("structure = %v, want scalar", result.Metadata["structure"])
	}
}

func TestJSON_LocatorMismatch(t *testing.T) {
	f := File{Name: "a.json", Content: []byte(`["Hello"]`)}
	result := &ParseResult{
		Format:  FormatJSON,
		Entries: []ParsedEntry{{Source: "Hello", Locator: JSONLocator{Index: -1, ID: "greeting"}}},
	}

	_, err := Reconstruct(f, result, []Translation{{Source: "Hello", Translation: "Hola"}})

	var recErr *ReconstructionError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected ReconstructionError, got %v", err)
	}
}

func TestJSON_EmptyKey(t *testing.T) {
	f := File{Name: "e.json", Content: []byte(`{"": "Hello", "title": "Start"}`)}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if diff := cmp.Diff([]string{"Hello", "Start"}, result.Sources()); diff != "" {
		t.Errorf("sources (-want +got):\n%s", diff)
	}

	out, err := Reconstruct(f, result, []Translation{
		{Source: "Hello", Translation: "Bonjour"},
		{Source: "Start", Translation: "Début"},
	})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}
	want := "{\n  \"\": \"Bonjour\",\n  \"title\": \"Début\"\n}"
	if string(out) != want {
		t.Errorf("output mismatch:\n%s\nwant:\n%s", out, want)
	}
}

func TestJSON_MarkupIsNotEscaped(t *testing.T) {
	f := File{Name: "m.json", Content: []byte(`["Hello", {"text": "Bye", "note": "a < b"}]`)}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	out, err := Reconstruct(f, result, []Translation{
		{Source: "Hello", Translation: "<b>Tom & Jerry</b> é"},
		{Source: "Bye", Translation: `"Salut" & <i>adieu</i>`},
	})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}

	want := `[
  "<b>Tom & Jerry</b> é",
  {
    "text": "\"Salut\" & <i>adieu</i>",
    "note": "a < b"
  }
]`
	if string(out) != want {
		t.Errorf("output mismatch:\n%s\nwant:\n%s", out, want)
	}
}

func TestJSON_DuplicateKeys(t *testing.T) {
	f := File{Name: "d.json", Content: []byte(`{"a": "First", "b": "Other", "a": "Second"}`)}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := []ParsedEntry{
		{Source: "Second", Locator: JSONLocator{Index: -1, ID: "a"}},
		{Source: "Other", Locator: JSONLocator{Index: -1, ID: "b"}},
	}
	if diff := cmp.Diff(want, result.Entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	out, err := Reconstruct(f, result, []Translation{{Source: "Second", Translation: "Deuxième"}})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}

	// The last occurrence is the one decoders keep.
	var data map[string]any
	if err := json.Unmarshal(out, &data); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if data["a"] != "Deuxième" {
		t.Errorf(`data["a"] = %v, want Deuxième`, data["a"])
	}
	wantOut := "{\n  \"a\": \"First\",\n  \"b\": \"Other\",\n  \"a\": \"Deuxième\"\n}"
	if string(out) != wantOut {
		t.Errorf("output mismatch:\n%s\nwant:\n%s", out, wantOut)
	}
}
