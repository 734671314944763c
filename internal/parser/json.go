package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JSONParser handles documents whose root is an array of strings or text
// objects, or an object mapping ids to strings or text objects. Elements of
// any other shape are skipped.
type JSONParser struct{}

func NewJSONParser() *JSONParser { return &JSONParser{} }

func (p *JSONParser) CanParse(ext string) bool {
	return ext == ".json"
}

var (
	// jsonSourceKeys are checked in order for an object's source text.
	jsonSourceKeys = []string{"text", "source", "value"}
	// jsonTargetKeys are checked in order for an existing translation.
	jsonTargetKeys = []string{"translation", "target"}
	// jsonWritableKeys are overwritten on write-back when present.
	jsonWritableKeys = []string{"text", "source", "value", "translation", "target"}
)

var errInvalidJSON = errors.New("invalid JSON syntax")

func decodeJSON(content []byte) (gjson.Result, []byte, error) {
	content = stripBOM(content)
	if !gjson.ValidBytes(content) {
		return gjson.Result{}, nil, &MalformedInputError{Format: FormatJSON, Cause: errInvalidJSON}
	}
	return gjson.ParseBytes(content), content, nil
}

func (p *JSONParser) Parse(f File) (*ParseResult, error) {
	root, _, err := decodeJSON(f.Content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Format:   FormatJSON,
		Metadata: map[string]any{},
	}

	switch {
	case root.IsArray():
		result.Metadata["structure"] = "array"
		for i, value := range arrayElements(root) {
			if entry, ok := jsonEntry(value, JSONLocator{Index: i}); ok {
				result.Entries = append(result.Entries, entry)
			}
		}
	case root.IsObject():
		result.Metadata["structure"] = "object"
		for _, m := range objectMembers(root) {
			if entry, ok := jsonEntry(m.value, JSONLocator{Index: -1, ID: m.key}); ok {
				result.Entries = append(result.Entries, entry)
			}
		}
	default:
		result.Metadata["structure"] = "scalar"
	}

	return result, nil
}

func arrayElements(arr gjson.Result) []gjson.Result {
	var elems []gjson.Result
	arr.ForEach(func(_, value gjson.Result) bool {
		elems = append(elems, value)
		return true
	})
	return elems
}

type jsonMember struct {
	key   string
	value gjson.Result
}

// objectMembers lists obj's members in order of first appearance. A repeated
// key keeps its first position and takes its last value, as JSON decoders do.
func objectMembers(obj gjson.Result) []jsonMember {
	var members []jsonMember
	pos := make(map[string]int)
	obj.ForEach(func(key, value gjson.Result) bool {
		if i, ok := pos[key.Str]; ok {
			members[i].value = value
			return true
		}
		pos[key.Str] = len(members)
		members = append(members, jsonMember{key: key.Str, value: value})
		return true
	})
	return members
}

func jsonEntry(value gjson.Result, loc JSONLocator) (ParsedEntry, bool) {
	switch {
	case value.Type == gjson.String:
		if value.Str == "" {
			return ParsedEntry{}, false
		}
		return ParsedEntry{Source: value.Str, Locator: loc}, true
	case value.IsObject():
		source := firstString(value, jsonSourceKeys)
		if source == "" {
			return ParsedEntry{}, false
		}
		if fields, ok := value.Value().(map[string]any); ok {
			loc.Fields = fields
		}
		return ParsedEntry{
			Source:  source,
			Target:  firstString(value, jsonTargetKeys),
			Locator: loc,
		}, true
	}
	return ParsedEntry{}, false
}

// firstString returns the first non-empty string member among keys.
func firstString(obj gjson.Result, keys []string) string {
	for _, k := range keys {
		if v := obj.Get(k); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// jsonEdit replaces content[start:end] with raw.
type jsonEdit struct {
	start, end int
	raw        []byte
}

func (p *JSONParser) Reconstruct(original File, result *ParseResult, translations map[string]string) ([]byte, error) {
	root, content, err := decodeJSON(original.Content)
	if err != nil {
		return nil, err
	}

	var (
		elems   []gjson.Result
		members map[string]gjson.Result
	)
	switch {
	case root.IsArray():
		elems = arrayElements(root)
	case root.IsObject():
		members = make(map[string]gjson.Result)
		for _, m := range objectMembers(root) {
			members[m.key] = m.value
		}
	}

	var edits []jsonEdit
	edited := make(map[int]bool)
	for _, e := range result.Entries {
		translated, ok := translations[e.Source]
		if !ok {
			continue
		}
		loc, ok := e.Locator.(JSONLocator)
		if !ok {
			return nil, &ReconstructionError{Format: FormatJSON, Source: e.Source, Reason: "entry has no index or id locator"}
		}

		var value gjson.Result
		switch {
		case root.IsArray():
			if !loc.InArray() {
				return nil, &ReconstructionError{Format: FormatJSON, Source: e.Source, Reason: "array document needs an index locator"}
			}
			if loc.Index >= len(elems) {
				continue
			}
			value = elems[loc.Index]
		case root.IsObject():
			if loc.InArray() {
				return nil, &ReconstructionError{Format: FormatJSON, Source: e.Source, Reason: "object document needs an id locator"}
			}
			if value, ok = members[loc.ID]; !ok {
				continue
			}
		default:
			continue
		}

		raw, err := overwriteJSON(value, translated)
		if err != nil {
			return nil, fmt.Errorf("write json %q: %w", e.Source, err)
		}
		if raw != nil && !edited[value.Index] {
			edited[value.Index] = true
			edits = append(edits, jsonEdit{start: value.Index, end: value.Index + len(value.Raw), raw: raw})
		}
	}

	out := applyEdits(content, edits)
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(out), "", "  "); err != nil {
		return nil, fmt.Errorf("indent json: %w", err)
	}
	return buf.Bytes(), nil
}

// overwriteJSON returns the new raw text for value: the translation itself
// for a bare string, or the object with every writable text key already
// present set to it. A nil result leaves value unchanged.
func overwriteJSON(value gjson.Result, translated string) ([]byte, error) {
	encoded, err := encodeJSONString(translated)
	if err != nil {
		return nil, err
	}
	switch {
	case value.Type == gjson.String:
		return encoded, nil
	case value.IsObject():
		obj := []byte(value.Raw)
		for _, key := range jsonWritableKeys {
			if !value.Get(key).Exists() {
				continue
			}
			if obj, err = sjson.SetRawBytes(obj, key, encoded); err != nil {
				return nil, err
			}
		}
		return obj, nil
	}
	return nil, nil
}

// encodeJSONString quotes s without the HTML escaping json.Marshal applies,
// so markup in translations stays readable.
func encodeJSONString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func applyEdits(content []byte, edits []jsonEdit) []byte {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	out := append([]byte(nil), content...)
	for _, e := range edits {
		tail := append(append([]byte(nil), e.raw...), out[e.end:]...)
		out = append(out[:e.start], tail...)
	}
	return out
}
