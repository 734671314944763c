// Package parser extracts translatable entries from localization files and
// writes translations back into the original file structure.
//
// Parse and Reconstruct are pure functions over their inputs and are safe to
// call concurrently.
package parser

import (
	"bytes"
	"fmt"
	"strings"
)

// Parser is the interface implemented by each format family.
type Parser interface {
	// CanParse returns true if this parser handles the given extension.
	CanParse(ext string) bool
	// Parse extracts translatable entries from a file.
	Parse(f File) (*ParseResult, error)
	// Reconstruct rewrites the original file with translated strings.
	Reconstruct(original File, result *ParseResult, translations map[string]string) ([]byte, error)
}

var extensionFormats = map[string]Format{
	".xlsx": FormatExcel,
	".xls":  FormatExcel,
	".csv":  FormatCSV,
	".json": FormatJSON,
	".xml":  FormatXML,
	".po":   FormatGettext,
	".pot":  FormatGettext,
}

var (
	spreadsheetParser = NewSpreadsheetParser()
	jsonParser        = NewJSONParser()
	xmlParser         = NewXMLParser()
	gettextParser     = NewGettextParser()
)

// Extensions lists every supported extension.
func Extensions() []string {
	return []string{".xlsx", ".xls", ".csv", ".json", ".xml", ".po", ".pot"}
}

// Supported reports whether ext (with leading dot, any case) is supported.
func Supported(ext string) bool {
	_, err := FormatFor(ext)
	return err == nil
}

// FormatFor maps an extension to its format.
func FormatFor(ext string) (Format, error) {
	norm := File{Extension: ext}.Ext()
	format, ok := extensionFormats[norm]
	if !ok {
		return FormatUnknown, &UnsupportedFormatError{Extension: norm}
	}
	return format, nil
}

// For returns the parser responsible for a format.
func For(format Format) (Parser, error) {
	switch format {
	case FormatExcel, FormatCSV:
		return spreadsheetParser, nil
	case FormatJSON:
		return jsonParser, nil
	case FormatXML:
		return xmlParser, nil
	case FormatGettext:
		return gettextParser, nil
	}
	return nil, fmt.Errorf("no parser registered for format %s", format)
}

// Parse dispatches on the file extension and extracts its entries.
func Parse(f File) (*ParseResult, error) {
	format, err := FormatFor(f.Ext())
	if err != nil {
		return nil, err
	}
	p, err := For(format)
	if err != nil {
		return nil, err
	}
	return p.Parse(f)
}

// Reconstruct writes translations into the original file. Translations whose
// source matches nothing are ignored; when a source is listed more than once
// the last translation wins.
func Reconstruct(original File, result *ParseResult, translations []Translation) ([]byte, error) {
	format, err := FormatFor(original.Ext())
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, &ReconstructionError{Format: format, Reason: "missing parse result"}
	}
	if result.Format != format {
		return nil, &ReconstructionError{
			Format: format,
			Reason: fmt.Sprintf("parse result is %s, file is %s", result.Format, format),
		}
	}
	p, err := For(format)
	if err != nil {
		return nil, err
	}
	return p.Reconstruct(original, result, Lookup(translations))
}

// Writable reports whether a parse result can be written back, returning
// the error Reconstruct would fail with otherwise.
func Writable(f File, result *ParseResult) error {
	if result != nil && result.Format == FormatXML && result.Metadata["dialect"] == dialectGeneric {
		return &UnsupportedFormatError{Extension: f.Ext(), Reason: readOnlyXML}
	}
	return nil
}

// OutputExtension is the extension a reconstructed file should carry.
// Legacy .xls workbooks are written back as OOXML.
func OutputExtension(ext string) string {
	if strings.EqualFold(ext, ".xls") {
		return ".xlsx"
	}
	return ext
}

// Lookup builds a source to translation map. Last write wins.
func Lookup(translations []Translation) map[string]string {
	m := make(map[string]string, len(translations))
	for _, t := range translations {
		m[t.Source] = t.Translation
	}
	return m
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, utf8BOM)
}
