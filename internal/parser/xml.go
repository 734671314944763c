package parser

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// XMLParser handles Android strings resources and, for extraction only,
// arbitrary XML documents.
type XMLParser struct{}

func NewXMLParser() *XMLParser { return &XMLParser{} }

func (p *XMLParser) CanParse(ext string) bool {
	return ext == ".xml"
}

const (
	dialectAndroid = "android"
	dialectGeneric = "generic"

	readOnlyXML = "only Android string resources can be written back"

	// textKey and attrKey name the text and attribute members of an element
	// in the path notation used for generic documents.
	textKey = "_"
	attrKey = "$"
)

var errEmptyDocument = errors.New("document has no root element")

func (p *XMLParser) Parse(f File) (*ParseResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(stripBOM(f.Content)); err != nil {
		return nil, &MalformedInputError{Format: FormatXML, Cause: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &MalformedInputError{Format: FormatXML, Cause: errEmptyDocument}
	}

	result := &ParseResult{
		Format: FormatXML,
		Metadata: map[string]any{
			"rootElement": root.Tag,
		},
	}

	if isAndroidStrings(root) {
		result.Metadata["dialect"] = dialectAndroid
		for _, el := range root.SelectElements("string") {
			source := directText(el)
			if strings.TrimSpace(source) == "" {
				continue
			}
			result.Entries = append(result.Entries, ParsedEntry{
				Source: source,
				Locator: XMLLocator{
					ID:           el.SelectAttrValue("name", ""),
					Translatable: el.SelectAttrValue("translatable", "") != "false",
				},
			})
		}
		return result, nil
	}

	result.Metadata["dialect"] = dialectGeneric
	walkXML(root, root.Tag, func(path, text string) {
		result.Entries = append(result.Entries, ParsedEntry{
			Source:  text,
			Locator: XMLPathLocator{Path: path},
		})
	})
	return result, nil
}

func isAndroidStrings(root *etree.Element) bool {
	return root.Tag == "resources" && len(root.SelectElements("string")) > 0
}

// directText concatenates the character data directly under el.
func directText(el *etree.Element) string {
	var b strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			b.WriteString(cd.Data)
		}
	}
	return b.String()
}

// walkXML visits every non-empty text leaf below el. Child elements are
// addressed as "tag[i]" and mixed-content text as "_"; the attribute bag "$"
// is never visited.
func walkXML(el *etree.Element, path string, emit func(path, text string)) {
	children := el.ChildElements()

	var order []string
	groups := make(map[string][]*etree.Element)
	for _, c := range children {
		if c.Tag == attrKey {
			continue
		}
		if _, seen := groups[c.Tag]; !seen {
			order = append(order, c.Tag)
		}
		groups[c.Tag] = append(groups[c.Tag], c)
	}
	for _, tag := range order {
		for i, c := range groups[tag] {
			walkXML(c, fmt.Sprintf("%s.%s[%d]", path, tag, i), emit)
		}
	}

	text := strings.TrimSpace(directText(el))
	if text == "" {
		return
	}
	if len(el.Attr) > 0 || len(children) > 0 {
		emit(path+"."+textKey, text)
		return
	}
	emit(path, text)
}

func (p *XMLParser) Reconstruct(original File, result *ParseResult, translations map[string]string) ([]byte, error) {
	if result.Metadata["dialect"] == dialectGeneric {
		return nil, &UnsupportedFormatError{Extension: original.Ext(), Reason: readOnlyXML}
	}

	out := string(original.Content)
	for _, e := range result.Entries {
		translated, ok := translations[e.Source]
		if !ok {
			continue
		}
		switch loc := e.Locator.(type) {
		case XMLLocator:
			if loc.ID == "" {
				continue
			}
			out = replaceStringResource(out, loc.ID, escapeXMLText(translated))
		case XMLPathLocator:
			return nil, &UnsupportedFormatError{Extension: original.Ext(), Reason: readOnlyXML}
		default:
			return nil, &ReconstructionError{Format: FormatXML, Source: e.Source, Reason: "entry has no string resource id"}
		}
	}
	return []byte(out), nil
}

var stringResourceRe = regexp.MustCompile(`(?s)(<string\s(?:[^>]*?\s)?name\s*=\s*(?:"([^"]*)"|'([^']*)')[^>]*>)(.*?)(</string>)`)

// replaceStringResource swaps the content of every <string> element whose
// decoded name attribute is id, whichever quote style the attribute uses.
// Self-closing elements are left alone.
func replaceStringResource(doc, id, content string) string {
	var b strings.Builder
	last := 0
	for _, m := range stringResourceRe.FindAllStringSubmatchIndex(doc, -1) {
		open := doc[m[2]:m[3]]
		if strings.HasSuffix(open, "/>") {
			continue
		}
		name := ""
		if m[4] >= 0 {
			name = doc[m[4]:m[5]]
		} else {
			name = doc[m[6]:m[7]]
		}
		if html.UnescapeString(name) != id {
			continue
		}
		b.WriteString(doc[last:m[3]])
		b.WriteString(content)
		b.WriteString(doc[m[10]:m[11]])
		last = m[1]
	}
	b.WriteString(doc[last:])
	return b.String()
}

var xmlTextEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXMLText(s string) string {
	return xmlTextEscaper.Replace(s)
}
