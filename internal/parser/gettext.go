package parser

import (
	"fmt"
	"mime"
	"sort"
	"strconv"
	"strings"

	"github.com/chai2010/gettext-go/po"
)

// GettextParser handles .po and .pot catalogs. Write-back matches msgids by
// text, so a translation lands on every message sharing that msgid across
// all contexts.
type GettextParser struct{}

func NewGettextParser() *GettextParser { return &GettextParser{} }

func (p *GettextParser) CanParse(ext string) bool {
	return ext == ".po" || ext == ".pot"
}

func (p *GettextParser) Parse(f File) (*ParseResult, error) {
	cat, err := loadCatalog(f.Content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Format: FormatGettext,
		Metadata: map[string]any{
			"language": cat.MimeHeader.Language,
			"charset":  charset(cat.MimeHeader.ContentType),
		},
	}

	// Messages are grouped by context in order of first appearance.
	var contexts []string
	byContext := make(map[string][]*po.Message)
	for i := range cat.Messages {
		m := &cat.Messages[i]
		if _, ok := byContext[m.MsgContext]; !ok {
			contexts = append(contexts, m.MsgContext)
		}
		byContext[m.MsgContext] = append(byContext[m.MsgContext], m)
	}
	result.Metadata["contexts"] = contexts

	for _, ctx := range contexts {
		for _, m := range byContext[ctx] {
			if m.MsgId == "" {
				continue
			}
			result.Entries = append(result.Entries, ParsedEntry{
				Source:  m.MsgId,
				Target:  firstMsgstr(m),
				Locator: gettextLocator(m),
			})
		}
	}

	return result, nil
}

func (p *GettextParser) Reconstruct(original File, result *ParseResult, translations map[string]string) ([]byte, error) {
	cat, err := loadCatalog(original.Content)
	if err != nil {
		return nil, err
	}

	for i := range cat.Messages {
		m := &cat.Messages[i]
		translated, ok := translations[m.MsgId]
		if !ok || m.MsgId == "" {
			continue
		}
		if m.MsgIdPlural != "" {
			m.MsgStrPlural = []string{translated}
			continue
		}
		m.MsgStr = translated
	}

	return cat.bytes(), nil
}

// catalog is a loaded PO file plus the obsolete (#~) blocks, which po.Load
// does not keep. They are written back verbatim after the live messages.
type catalog struct {
	*po.File
	obsolete []string
}

func loadCatalog(content []byte) (*catalog, error) {
	text, obsolete, err := preparePO(content)
	if err != nil {
		return nil, &MalformedInputError{Format: FormatGettext, Cause: err}
	}
	f, err := po.Load([]byte(text))
	if err != nil {
		return nil, &MalformedInputError{Format: FormatGettext, Cause: err}
	}
	return &catalog{File: f, obsolete: obsolete}, nil
}

// preparePO normalizes line endings, splits off obsolete blocks and starts a
// new message wherever msgctxt or msgid follows a msgstr without a blank
// line. po.Load merges such messages and never returns on a quoted line
// that continues no keyword, so those are rejected here.
func preparePO(content []byte) (string, []string, error) {
	text := strings.ReplaceAll(string(stripBOM(content)), "\r\n", "\n")

	var (
		out      []string
		obsolete []string
		block    []string
		inField  bool
		afterStr bool
	)
	for i, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if strings.HasPrefix(s, "#~") {
			block = append(block, line)
			continue
		}
		if len(block) > 0 {
			obsolete = append(obsolete, strings.Join(block, "\n"))
			block = nil
		}

		switch {
		case s == "":
			inField, afterStr = false, false
		case strings.HasPrefix(s, `"`):
			if !inField {
				return "", nil, fmt.Errorf("line %d: string does not continue a msgctxt, msgid or msgstr", i+1)
			}
		case strings.HasPrefix(s, "msgstr"):
			inField, afterStr = true, true
		case strings.HasPrefix(s, "msgid_plural"):
			inField = true
		case strings.HasPrefix(s, "msgctxt"), strings.HasPrefix(s, "msgid"):
			if afterStr {
				out = append(out, "")
				afterStr = false
			}
			inField = true
		default:
			inField, afterStr = false, false
		}
		out = append(out, line)
	}
	if len(block) > 0 {
		obsolete = append(obsolete, strings.Join(block, "\n"))
	}
	return strings.Join(out, "\n"), obsolete, nil
}

func (c *catalog) bytes() []byte {
	var blocks []string
	// po.Load only fills the header from a non-empty msgstr "" entry.
	if c.MimeHeader.StartLine != 0 {
		blocks = append(blocks, headerBlock(&c.MimeHeader))
	}
	for _, m := range c.Messages {
		blocks = append(blocks, messageBlock(m))
	}
	for _, o := range c.obsolete {
		blocks = append(blocks, o+"\n")
	}
	return []byte(strings.Join(blocks, "\n"))
}

var headerOrder = []string{
	"Project-Id-Version",
	"Report-Msgid-Bugs-To",
	"POT-Creation-Date",
	"PO-Revision-Date",
	"Last-Translator",
	"Language-Team",
	"Language",
	"MIME-Version",
	"Content-Type",
	"Content-Transfer-Encoding",
	"Plural-Forms",
	"X-Generator",
}

// headerBlock writes the fields the catalog carries in xgettext order,
// followed by any others sorted by name. po.Header.String pads every
// standard field and drops Plural-Forms.
func headerBlock(h *po.Header) string {
	known := map[string]string{
		"Project-Id-Version":        h.ProjectIdVersion,
		"Report-Msgid-Bugs-To":      h.ReportMsgidBugsTo,
		"POT-Creation-Date":         h.POTCreationDate,
		"PO-Revision-Date":          h.PORevisionDate,
		"Last-Translator":           h.LastTranslator,
		"Language-Team":             h.LanguageTeam,
		"Language":                  h.Language,
		"MIME-Version":              h.MimeVersion,
		"Content-Type":              h.ContentType,
		"Content-Transfer-Encoding": h.ContentTransferEncoding,
		"Plural-Forms":              h.PluralForms,
		"X-Generator":               h.XGenerator,
	}

	var b strings.Builder
	b.WriteString(commentBlock(h.Comment))
	b.WriteString("msgid \"\"\nmsgstr \"\"\n")
	for _, k := range headerOrder {
		if v := known[k]; v != "" {
			fmt.Fprintf(&b, "\"%s: %s\\n\"\n", k, v)
		}
	}
	extra := make([]string, 0, len(h.UnknowFields))
	for k := range h.UnknowFields {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		fmt.Fprintf(&b, "\"%s: %s\\n\"\n", k, h.UnknowFields[k])
	}
	return b.String()
}

func messageBlock(m po.Message) string {
	comment := m.Comment
	m.Comment = po.Comment{}
	return commentBlock(comment) + m.String()
}

// commentBlock renders c with the previous-message lines written here:
// po.Comment.String garbles a single-line "#| msgid".
func commentBlock(c po.Comment) string {
	prevCtx, prevID := c.PrevMsgContext, c.PrevMsgId
	c.PrevMsgContext, c.PrevMsgId = "", ""

	var b strings.Builder
	b.WriteString(c.String())
	writePrevious(&b, "msgctxt", prevCtx)
	writePrevious(&b, "msgid", prevID)
	return b.String()
}

func writePrevious(b *strings.Builder, keyword, value string) {
	if value == "" {
		return
	}
	if !strings.Contains(strings.TrimSuffix(value, "\n"), "\n") {
		fmt.Fprintf(b, "#| %s %s\n", keyword, strconv.Quote(value))
		return
	}
	fmt.Fprintf(b, "#| %s \"\"\n", keyword)
	for _, line := range strings.SplitAfter(value, "\n") {
		if line != "" {
			fmt.Fprintf(b, "#| %s\n", strconv.Quote(line))
		}
	}
}

func firstMsgstr(m *po.Message) string {
	if len(m.MsgStrPlural) > 0 {
		return m.MsgStrPlural[0]
	}
	return m.MsgStr
}

func gettextLocator(m *po.Message) GettextLocator {
	refs := make([]string, len(m.ReferenceFile))
	for i, file := range m.ReferenceFile {
		refs[i] = fmt.Sprintf("%s:%d", file, m.ReferenceLine[i])
	}
	var flags []string
	for _, f := range m.Flags {
		if f != "" {
			flags = append(flags, f)
		}
	}
	return GettextLocator{
		Context: m.MsgContext,
		Comments: GettextComments{
			Translator: m.TranslatorComment,
			Extracted:  m.ExtractedComment,
			Reference:  strings.Join(refs, " "),
			Previous:   m.PrevMsgId,
		},
		Flags: flags,
	}
}

func charset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
