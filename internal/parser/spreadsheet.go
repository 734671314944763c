package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// SpreadsheetParser handles .xlsx, .xls and .csv files. Only the first sheet
// is read. Column 0 holds the source text and column 1 the target; every row,
// row 0 included, is treated as data.
type SpreadsheetParser struct{}

func NewSpreadsheetParser() *SpreadsheetParser { return &SpreadsheetParser{} }

func (p *SpreadsheetParser) CanParse(ext string) bool {
	return ext == ".xlsx" || ext == ".xls" || ext == ".csv"
}

// defaultSheetName is what spreadsheet tools call the single sheet of a CSV.
const defaultSheetName = "Sheet1"

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// sheet is the first sheet of a workbook as a row-major grid of cell text.
type sheet struct {
	name string
	rows [][]string

	// CSV layout, restored on write.
	bom  bool
	crlf bool
}

func (s *sheet) header() []string {
	if len(s.rows) == 0 {
		return nil
	}
	return append([]string(nil), s.rows[0]...)
}

func (s *sheet) set(row, col int, value string) {
	for len(s.rows[row]) <= col {
		s.rows[row] = append(s.rows[row], "")
	}
	s.rows[row][col] = value
}

func spreadsheetFormat(ext string) Format {
	if ext == ".csv" {
		return FormatCSV
	}
	return FormatExcel
}

func (p *SpreadsheetParser) Parse(f File) (*ParseResult, error) {
	ext := f.Ext()
	format := spreadsheetFormat(ext)

	s, err := readSheet(ext, f.Content)
	if err != nil {
		return nil, &MalformedInputError{Format: format, Cause: err}
	}

	headers := s.header()
	sourceColumn := columnLabel(headers, 0)
	targetColumn := columnLabel(headers, 1)

	result := &ParseResult{
		Format:       format,
		SourceColumn: sourceColumn,
		TargetColumn: targetColumn,
		Metadata: map[string]any{
			"sheetName": s.name,
			"headers":   headers,
			"rowCount":  len(s.rows),
		},
	}

	for i, row := range s.rows {
		source := cellText(row, 0)
		if source == "" {
			continue
		}
		result.Entries = append(result.Entries, ParsedEntry{
			Source: source,
			Target: cellText(row, 1),
			Locator: SpreadsheetLocator{
				Row:          i + 1,
				SourceColumn: sourceColumn,
				TargetColumn: targetColumn,
			},
		})
	}

	return result, nil
}

func (p *SpreadsheetParser) Reconstruct(original File, result *ParseResult, translations map[string]string) ([]byte, error) {
	ext := original.Ext()
	format := spreadsheetFormat(ext)

	s, err := readSheet(ext, original.Content)
	if err != nil {
		return nil, &MalformedInputError{Format: format, Cause: err}
	}

	col := targetColumnIndex(s.header(), result.TargetColumn)

	var cells []cellUpdate
	for _, e := range result.Entries {
		translated, ok := translations[e.Source]
		if !ok {
			continue
		}
		loc, ok := e.Locator.(SpreadsheetLocator)
		if !ok {
			return nil, &ReconstructionError{Format: format, Source: e.Source, Reason: "entry has no row locator"}
		}
		idx := loc.Row - 1
		if idx < 0 || idx >= len(s.rows) {
			continue
		}
		s.set(idx, col, translated)
		cells = append(cells, cellUpdate{row: idx, col: col, value: translated})
	}

	switch {
	case format == FormatCSV:
		return writeCSV(s)
	case bytes.HasPrefix(original.Content, zipMagic):
		return updateWorkbook(original.Content, s.name, cells)
	}
	return writeWorkbook(s)
}

type cellUpdate struct {
	row, col int
	value    string
}

// targetColumnIndex finds the target header label, falling back to column 1.
func targetColumnIndex(headers []string, label string) int {
	for i, h := range headers {
		if strings.TrimSpace(h) == label {
			return i
		}
	}
	return 1
}

func cellText(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func columnLabel(headers []string, i int) string {
	if label := cellText(headers, i); label != "" {
		return label
	}
	return "Column " + string(rune('A'+i))
}

func readSheet(ext string, content []byte) (*sheet, error) {
	if ext == ".csv" {
		return readCSV(content)
	}
	// The container is sniffed rather than trusted: a workbook written back
	// for an .xls file is OOXML.
	switch {
	case bytes.HasPrefix(content, oleMagic):
		return readXLS(content)
	case bytes.HasPrefix(content, zipMagic):
		return readXLSX(content)
	}
	return nil, errors.New("unrecognized workbook container")
}

func readCSV(content []byte) (*sheet, error) {
	body := stripBOM(content)
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return &sheet{
		name: defaultSheetName,
		rows: rows,
		bom:  len(body) < len(content),
		crlf: bytes.Contains(body, []byte("\r\n")),
	}, nil
}

func readXLSX(content []byte) (*sheet, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	names := wb.GetSheetList()
	if len(names) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := wb.GetRows(names[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", names[0], err)
	}
	return &sheet{name: names[0], rows: rows}, nil
}

func readXLS(content []byte) (s *sheet, err error) {
	// The BIFF decoder panics on some truncated files.
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("decode xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, errors.New("workbook has no readable first sheet")
	}

	rows := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := xlsRow(ws, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, trimTrailingEmpty(cells))
	}
	return &sheet{name: ws.Name, rows: rows}, nil
}

// xlsRow returns nil for a row the sheet has no record of. WorkSheet.Row
// dereferences the missing row instead.
func xlsRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

func trimTrailingEmpty(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}

func writeCSV(s *sheet) ([]byte, error) {
	var buf bytes.Buffer
	if s.bom {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(&buf)
	w.UseCRLF = s.crlf
	if err := w.WriteAll(s.rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// updateWorkbook sets the translated cells of an xlsx workbook as strings and
// leaves every other cell, style and sheet as it was.
func updateWorkbook(content []byte, name string, cells []cellUpdate) ([]byte, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	for _, c := range cells {
		cell, err := excelize.CoordinatesToCellName(c.col+1, c.row+1)
		if err != nil {
			return nil, fmt.Errorf("address row %d: %w", c.row+1, err)
		}
		if err := wb.SetCellStr(name, cell, c.value); err != nil {
			return nil, fmt.Errorf("write %s: %w", cell, err)
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeWorkbook serializes the grid as a single-sheet xlsx workbook that
// keeps the original sheet name. Legacy .xls files are converted this way.
func writeWorkbook(s *sheet) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	name := s.name
	if name == "" {
		name = defaultSheetName
	}
	if name != defaultSheetName {
		if err := wb.SetSheetName(defaultSheetName, name); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	for i, row := range s.rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("address row %d: %w", i+1, err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := wb.SetSheetRow(name, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
