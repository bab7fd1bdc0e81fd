package tabular

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const tabularWorkbookXML = `<?xml version="1.0"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"
          xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets>
    <sheet name="Data" sheetId="1" r:id="rId1"/>
  </sheets>
</workbook>`

const tabularWorkbookRels = `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`

const tabularSheetXML = `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1">
      <c r="A1"><v>Name</v></c>
      <c r="B1"><v>Age</v></c>
    </row>
    <row r="2">
      <c r="A1"><v>Alice</v></c>
      <c r="B1"><v>30</v></c>
    </row>
    <row r="3">
      <c r="A1"><v>Bob</v></c>
      <c r="B1"><v>25</v></c>
    </row>
  </sheetData>
</worksheet>`

func buildTabularFixture(t *testing.T) string {
	t.Helper()
	files := map[string]string{
		"xl/workbook.xml":           tabularWorkbookXML,
		"xl/_rels/workbook.xml.rels": tabularWorkbookRels,
		"xl/worksheets/sheet1.xml":  tabularSheetXML,
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "workbook.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadSheet_OOXML(t *testing.T) {
	path := buildTabularFixture(t)
	rows, err := ReadSheet(path, "Data", 0, 0)
	if err != nil {
		t.Fatalf("ReadSheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Cells[0] != "Name" || rows[0].Cells[1] != "Age" {
		t.Errorf("unexpected header row: %+v", rows[0].Cells)
	}
	if rows[1].Cells[0] != "Alice" || rows[1].Cells[1] != "30" {
		t.Errorf("unexpected data row: %+v", rows[1].Cells)
	}
}

func TestReadSheet_OffsetAndLimit(t *testing.T) {
	path := buildTabularFixture(t)
	rows, err := ReadSheet(path, "Data", 1, 1)
	if err != nil {
		t.Fatalf("ReadSheet: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Cells[0] != "Alice" {
		t.Errorf("expected offset to skip the header row, got %+v", rows[0].Cells)
	}
}

func TestReadSheet_UnknownSheet(t *testing.T) {
	path := buildTabularFixture(t)
	if _, err := ReadSheet(path, "NoSuchSheet", 0, 0); err == nil {
		t.Error("expected an error for an unknown sheet")
	}
}

func TestColumnFromRef(t *testing.T) {
	cases := map[string]int{"A1": 0, "B1": 1, "Z9": 25, "AA1": 26}
	for ref, want := range cases {
		if got := columnFromRef(ref); got != want {
			t.Errorf("columnFromRef(%q) = %d, want %d", ref, got, want)
		}
	}
}
