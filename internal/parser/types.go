package parser

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// Format identifies a family of localization files.
type Format int

const (
	FormatUnknown Format = iota
	FormatExcel
	FormatCSV
	FormatJSON
	FormatXML
	FormatGettext
)

func (f Format) String() string {
	switch f {
	case FormatExcel:
		return "excel"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	case FormatGettext:
		return "gettext"
	}
	return "unknown"
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// File is an in-memory localization file.
type File struct {
	// Name is the file name; its extension is used when Extension is empty.
	Name string
	// Extension such as ".po". Case and the leading dot are optional.
	Extension string
	// Content holds the raw file bytes.
	Content []byte
}

// Ext returns the normalized, lower-cased extension with a leading dot.
func (f File) Ext() string {
	ext := f.Extension
	if ext == "" {
		ext = filepath.Ext(f.Name)
	}
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Translation pairs a source string with its translated text.
type Translation struct {
	Source      string `json:"source"`
	Translation string `json:"translation"`
}

// ParsedEntry is one translatable unit extracted from a file.
type ParsedEntry struct {
	// Source is the original text. Never empty.
	Source string
	// Target is the translation already present in the file, if any.
	Target string
	// Locator addresses the entry inside the original file.
	Locator Locator
}

func (e ParsedEntry) MarshalJSON() ([]byte, error) {
	out := struct {
		Source   string         `json:"source"`
		Target   string         `json:"target,omitempty"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}{Source: e.Source, Target: e.Target}
	if e.Locator != nil {
		out.Metadata = e.Locator.Metadata()
	}
	return json.Marshal(out)
}

// ParseResult holds the output of a single parse.
type ParseResult struct {
	// Entries in order of first appearance. Sources may repeat.
	Entries []ParsedEntry `json:"entries"`
	Format  Format        `json:"format"`
	// SourceColumn and TargetColumn are only set for spreadsheets.
	SourceColumn string `json:"sourceColumn,omitempty"`
	TargetColumn string `json:"targetColumn,omitempty"`
	// Metadata carries format-level facts (sheet name, JSON structure, XML root, PO language).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Sources returns the entry sources in order, duplicates included.
func (r *ParseResult) Sources() []string {
	sources := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		sources = append(sources, e.Source)
	}
	return sources
}

// Locator is the format-specific address of an entry. The set of
// implementations is closed: SpreadsheetLocator, JSONLocator, XMLLocator,
// XMLPathLocator and GettextLocator.
type Locator interface {
	// Metadata renders the locator as a loosely-typed map for display.
	Metadata() map[string]any
	locator()
}

// SpreadsheetLocator addresses a row of the first sheet.
type SpreadsheetLocator struct {
	// Row is the 1-based index into the sheet's cell grid.
	Row          int
	SourceColumn string
	TargetColumn string
}

func (SpreadsheetLocator) locator() {}

func (l SpreadsheetLocator) Metadata() map[string]any {
	return map[string]any{
		"row":          l.Row,
		"sourceColumn": l.SourceColumn,
		"targetColumn": l.TargetColumn,
	}
}

// JSONLocator addresses an element of a top-level array (Index >= 0) or a
// member of a top-level object (Index < 0, keyed by ID).
type JSONLocator struct {
	Index int
	ID    string
	// Fields is a shallow copy of the original object; nil for bare strings.
	Fields map[string]any
}

func (JSONLocator) locator() {}

// InArray reports whether the locator addresses a top-level array element.
func (l JSONLocator) InArray() bool { return l.Index >= 0 }

func (l JSONLocator) Metadata() map[string]any {
	md := make(map[string]any, len(l.Fields)+1)
	for k, v := range l.Fields {
		md[k] = v
	}
	if l.InArray() {
		md["index"] = l.Index
	} else {
		md["id"] = l.ID
	}
	return md
}

// XMLLocator addresses a <string> element of an Android resources file.
type XMLLocator struct {
	ID           string
	Translatable bool
}

func (XMLLocator) locator() {}

func (l XMLLocator) Metadata() map[string]any {
	return map[string]any{"id": l.ID, "translatable": l.Translatable}
}

// XMLPathLocator addresses a text node of a generic XML document, e.g.
// "catalog.book[1].title[0]".
type XMLPathLocator struct {
	Path string
}

func (XMLPathLocator) locator() {}

func (l XMLPathLocator) Metadata() map[string]any {
	return map[string]any{"path": l.Path}
}

// GettextComments mirrors the comment block preceding a PO message.
type GettextComments struct {
	Translator string `json:"translator,omitempty"`
	Extracted  string `json:"extracted,omitempty"`
	Reference  string `json:"reference,omitempty"`
	Previous   string `json:"previous,omitempty"`
}

// GettextLocator carries PO message details. Write-back matches on msgid.
type GettextLocator struct {
	Context  string
	Comments GettextComments
	Flags    []string
}

func (GettextLocator) locator() {}

func (l GettextLocator) Metadata() map[string]any {
	return map[string]any{
		"context":  l.Context,
		"comments": l.Comments,
		"flags":    l.Flags,
	}
}
