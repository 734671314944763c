package parser

import (
	"bytes"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

// Row 0 is data, not a header: a two-row CSV yields two entries. Changing
// this must be a deliberate decision because locators index the raw grid.
func TestSpreadsheet_FirstRowIsData(t *testing.T) {
	f := File{Name: "pets.csv", Content: []byte("Name,Nom\nDog,Chien")}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	want := []ParsedEntry{
		{Source: "Name", Target: "Nom", Locator: SpreadsheetLocator{Row: 1, SourceColumn: "Name", TargetColumn: "Nom"}},
		{Source: "Dog", Target: "Chien", Locator: SpreadsheetLocator{Row: 2, SourceColumn: "Name", TargetColumn: "Nom"}},
	}
	if diff := cmp.Diff(want, result.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if result.Format != FormatCSV {
		t.Errorf("format = %s, want csv", result.Format)
	}
	if result.SourceColumn != "Name" || result.TargetColumn != "Nom" {
		t.Errorf("columns = %q/%q", result.SourceColumn, result.TargetColumn)
	}
	if result.Metadata["sheetName"] != "Sheet1" || result.Metadata["rowCount"] != 2 {
		t.Errorf("unexpected metadata: %v", result.Metadata)
	}
}

func TestSpreadsheet_SkipsEmptySourceAndTrims(t *testing.T) {
	f := File{Name: "ui.csv", Content: []byte("\xEF\xBB\xBF  Play  , Jouer \n,orphan\n   ,blank\nQuit\n")}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	want := []ParsedEntry{
		{Source: "Play", Target: "Jouer", Locator: SpreadsheetLocator{Row: 1, SourceColumn: "Play", TargetColumn: "Jouer"}},
		{Source: "Quit", Locator: SpreadsheetLocator{Row: 4, SourceColumn: "Play", TargetColumn: "Jouer"}},
	}
	if diff := cmp.Diff(want, result.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestSpreadsheet_FallbackColumnLabels(t *testing.T) {
	result, err := Parse(File{Name: "one.csv", Content: []byte("Solo\n")})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if result.SourceColumn != "Solo" || result.TargetColumn != "Column B" {
		t.Errorf("columns = %q/%q, want Solo/Column B", result.SourceColumn, result.TargetColumn)
	}

	result, err = Parse(File{Name: "empty.csv", Content: []byte("")})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if result.SourceColumn != "Column A" || result.TargetColumn != "Column B" {
		t.Errorf("columns = %q/%q, want Column A/Column B", result.SourceColumn, result.TargetColumn)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(result.Entries))
	}
}

func TestSpreadsheet_ReconstructCSV(t *testing.T) {
	f := File{Name: "pets.csv", Content: []byte("Name,Nom\nDog,Chien\nCat\nBird,Oiseau\n")}
	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	out, err := Reconstruct(f, result, []Translation{
		{Source: "Cat", Translation: "Chat"},
		{Source: "Dog", Translation: "Chien, le"},
	})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}

	want := "Name,Nom\nDog,\"Chien, le\"\nCat,Chat\nBird,Oiseau\n"
	if string(out) != want {
		t.Errorf("output mismatch:\ngot:  %q\nwant: %q", out, want)
	}
}

// Translating one row leaves every other row's source and target intact.
func TestSpreadsheet_RowIsolation(t *testing.T) {
	f := File{Name: "pets.csv", Content: []byte("Dog,Chien\nCat,Chat\nBird,Oiseau\n")}
	before, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	out, err := Reconstruct(f, before, []Translation{{Source: "Cat", Translation: "Minou"}})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}
	after, err := Parse(File{Name: "pets.csv", Content: out})
	if err != nil {
		t.Fatalf("re-Parse() error: %v", err)
	}

	for i, e := range after.Entries {
		if e.Source != before.Entries[i].Source {
			t.Errorf("row %d source changed: %q -> %q", i, before.Entries[i].Source, e.Source)
		}
		if e.Source == "Cat" {
			if e.Target != "Minou" {
				t.Errorf("Cat target = %q, want Minou", e.Target)
			}
			continue
		}
		if e.Target != before.Entries[i].Target {
			t.Errorf("row %d target changed: %q -> %q", i, before.Entries[i].Target, e.Target)
		}
	}
}

func TestSpreadsheet_TargetColumnFromHeader(t *testing.T) {
	s := &sheet{rows: [][]string{{"Key", "English", "French"}}}
	if got := targetColumnIndex(s.header(), "French"); got != 2 {
		t.Errorf("targetColumnIndex(French) = %d, want 2", got)
	}
	if got := targetColumnIndex(s.header(), "Column B"); got != 1 {
		t.Errorf("targetColumnIndex(Column B) = %d, want 1", got)
	}
}

func TestSpreadsheet_WorkbookRoundTrip(t *testing.T) {
	content, err := writeWorkbook(&sheet{name: "Dialogue", rows: [][]string{
		{"Hello", "Bonjour"},
		{},
		{"Goodbye"},
	}})
	if err != nil {
		t.Fatalf("writeWorkbook() error: %v", err)
	}
	f := File{Name: "dialogue.xlsx", Content: content}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if result.Format != FormatExcel {
		t.Errorf("format = %s, want excel", result.Format)
	}
	if result.Metadata["sheetName"] != "Dialogue" {
		t.Errorf("sheetName = %v, want Dialogue", result.Metadata["sheetName"])
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if loc := result.Entries[1].Locator.(SpreadsheetLocator); loc.Row != 3 {
		t.Errorf("Goodbye row = %d, want 3", loc.Row)
	}

	out, err := Reconstruct(f, result, []Translation{{Source: "Goodbye", Translation: "Au revoir"}})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}
	after, err := Parse(File{Name: "dialogue.xlsx", Content: out})
	if err != nil {
		t.Fatalf("re-Parse() error: %v", err)
	}
	if after.Metadata["sheetName"] != "Dialogue" {
		t.Errorf("sheet name not preserved: %v", after.Metadata["sheetName"])
	}
	if got := after.Entries[1].Target; got != "Au revoir" {
		t.Errorf("Goodbye target = %q, want %q", got, "Au revoir")
	}
	if got := after.Entries[0].Target; got != "Bonjour" {
		t.Errorf("Hello target = %q, want %q", got, "Bonjour")
	}
}

// An .xls file written back by this package carries an OOXML container;
// sniffing keeps it readable under its original extension.
func TestSpreadsheet_XLSExtensionWithZipContainer(t *testing.T) {
	content, err := writeWorkbook(&sheet{name: "Sheet1", rows: [][]string{{"Start"}}})
	if err != nil {
		t.Fatalf("writeWorkbook() error: %v", err)
	}
	f := File{Name: "legacy.xls", Content: content}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	out, err := Reconstruct(f, result, []Translation{{Source: "Start", Translation: "Démarrer"}})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}
	after, err := Parse(File{Name: "legacy.xls", Content: out})
	if err != nil {
		t.Fatalf("re-Parse() error: %v", err)
	}
	if after.Entries[0].Target != "Démarrer" {
		t.Errorf("target = %q, want Démarrer", after.Entries[0].Target)
	}
}

func TestSpreadsheet_CSVKeepsBOMAndCRLF(t *testing.T) {
	f := File{Name: "win.csv", Content: []byte("\xEF\xBB\xBFDog,Chien\r\nCat\r\n")}
	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	out, err := Reconstruct(f, result, []Translation{{Source: "Cat", Translation: "Chat"}})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}
	want := "\xEF\xBB\xBFDog,Chien\r\nCat,Chat\r\n"
	if string(out) != want {
		t.Errorf("output mismatch:\ngot:  %q\nwant: %q", out, want)
	}
}

// Only the translated cells change: numbers stay numbers, formulas and
// other sheets survive.
func TestSpreadsheet_XLSXKeepsUntouchedCells(t *testing.T) {
	src := excelize.NewFile()
	defer src.Close()
	for cell, v := range map[string]string{"A1": "Price", "A2": "Total"} {
		if err := src.SetCellStr("Sheet1", cell, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := src.SetCellInt("Sheet1", "C1", 42); err != nil {
		t.Fatal(err)
	}
	if err := src.SetCellFormula("Sheet1", "D1", "C1*2"); err != nil {
		t.Fatal(err)
	}
	if _, err := src.NewSheet("Notes"); err != nil {
		t.Fatal(err)
	}
	numberType, err := src.GetCellType("Sheet1", "C1")
	if err != nil {
		t.Fatal(err)
	}
	buf, err := src.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	f := File{Name: "prices.xlsx", Content: buf.Bytes()}
	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	out, err := Reconstruct(f, result, []Translation{{Source: "Price", Translation: "Prix"}})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer wb.Close()

	if got, _ := wb.GetCellValue("Sheet1", "B1"); got != "Prix" {
		t.Errorf("B1 = %q, want Prix", got)
	}
	if got, _ := wb.GetCellValue("Sheet1", "C1"); got != "42" {
		t.Errorf("C1 = %q, want 42", got)
	}
	if got, _ := wb.GetCellType("Sheet1", "C1"); got != numberType {
		t.Errorf("C1 type = %v, want %v", got, numberType)
	}
	if got, _ := wb.GetCellFormula("Sheet1", "D1"); got != "C1*2" {
		t.Errorf("D1 formula = %q, want C1*2", got)
	}
	if diff := cmp.Diff([]string{"Sheet1", "Notes"}, wb.GetSheetList()); diff != "" {
		t.Errorf("sheets (-want +got):\n%s", diff)
	}
}

// testdata/dialogue.xls is a BIFF8 workbook with one sheet, "Dialogue":
//
//	row 1: Hello   | Bonjour
//	row 2: Goodbye |
//	row 3: (no record)
//	row 4: Dessert | Crème brûlée
func TestSpreadsheet_LegacyXLS(t *testing.T) {
	content, err := os.ReadFile("testdata/dialogue.xls")
	if err != nil {
		t.Fatal(err)
	}
	f := File{Name: "dialogue.xls", Content: content}

	result, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	loc := func(row int) SpreadsheetLocator {
		return SpreadsheetLocator{Row: row, SourceColumn: "Hello", TargetColumn: "Bonjour"}
	}
	want := []ParsedEntry{
		{Source: "Hello", Target: "Bonjour", Locator: loc(1)},
		{Source: "Goodbye", Locator: loc(2)},
		{Source: "Dessert", Target: "Crème brûlée", Locator: loc(4)},
	}
	if diff := cmp.Diff(want, result.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if result.Format != FormatExcel {
		t.Errorf("format = %s, want excel", result.Format)
	}
	if result.Metadata["sheetName"] != "Dialogue" || result.Metadata["rowCount"] != 4 {
		t.Errorf("unexpected metadata: %v", result.Metadata)
	}

	out, err := Reconstruct(f, result, []Translation{
		{Source: "Hello", Translation: "Salut"},
		{Source: "Goodbye", Translation: "Au revoir"},
	})
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}
	if !bytes.HasPrefix(out, zipMagic) {
		t.Fatalf("legacy workbook should be written as xlsx")
	}

	after, err := Parse(File{Name: "dialogue.xlsx", Content: out})
	if err != nil {
		t.Fatalf("re-Parse() error: %v", err)
	}
	if after.Metadata["sheetName"] != "Dialogue" {
		t.Errorf("sheet name not preserved: %v", after.Metadata["sheetName"])
	}
	got := make(map[string]string)
	rows := make(map[string]int)
	for _, e := range after.Entries {
		got[e.Source] = e.Target
		rows[e.Source] = e.Locator.(SpreadsheetLocator).Row
	}
	wantTargets := map[string]string{"Hello": "Salut", "Goodbye": "Au revoir", "Dessert": "Crème brûlée"}
	if diff := cmp.Diff(wantTargets, got); diff != "" {
		t.Errorf("targets (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"Hello": 1, "Goodbye": 2, "Dessert": 4}, rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
}
