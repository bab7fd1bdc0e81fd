// Package tabular reads a workbook's cell values a sheet (and row range)
// at a time, for callers that need raw text content rather than embedded
// images — the MCP server's read_excel tool in particular, which returns a
// large sheet in bounded chunks.
package tabular

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
)

// Row is one sheet row's non-empty cell values, 0-based column indices.
type Row struct {
	Index int
	Cells map[int]string
}

// ReadSheet returns every row of sheetName in filePath, for both the OOXML
// and legacy container formats. offset/limit bound which rows are
// returned (limit <= 0 means unbounded) so a caller can page through a
// large sheet instead of receiving it whole; the file itself is read into
// memory in full on every call.
func ReadSheet(filePath, sheetName string, offset, limit int) ([]Row, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}

	if len(data) >= 2 && data[0] == 0x50 && data[1] == 0x4B {
		return readSheetOOXML(data, sheetName, offset, limit)
	}
	if len(data) >= 4 && data[0] == 0xD0 && data[1] == 0xCF && data[2] == 0x11 && data[3] == 0xE0 {
		return readSheetLegacy(data, sheetName, offset, limit)
	}
	return nil, fmt.Errorf("unrecognized file format: %s", filePath)
}

func readSheetLegacy(data []byte, sheetName string, offset, limit int) (rows []Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = fmt.Errorf("panic reading legacy workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse legacy workbook: %w", err)
	}

	numSheets := wb.GetNumberSheets()
	for i := 0; i < numSheets; i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet.GetName() != sheetName {
			continue
		}
		numRows := sheet.GetNumberRows()
		var out []Row
		for rowIdx := offset; rowIdx < numRows; rowIdx++ {
			if limit > 0 && len(out) >= limit {
				break
			}
			row, err := sheet.GetRow(rowIdx)
			if err != nil || row == nil {
				continue
			}
			cells := make(map[int]string)
			for colIdx, cell := range row.GetCols() {
				val := strings.TrimSpace(cell.GetString())
				if val != "" {
					cells[colIdx] = val
				}
			}
			if len(cells) > 0 {
				out = append(out, Row{Index: rowIdx, Cells: cells})
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("sheet not found: %s", sheetName)
}

// --- OOXML sheet data (xl/worksheets/sheetN.xml <row>/<c>/<v>) ---

// xmlAttrElem catches every attribute regardless of its namespace prefix;
// workbook.xml and .rels parts mix unprefixed and r:-prefixed attributes,
// which a plain "name,attr" struct tag only matches by accident.
type xmlAttrElem struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

func attrLocal(attrs []xml.Attr, local string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

type workbookXML struct {
	XMLName xml.Name `xml:"workbook"`
	Sheets  struct {
		Sheet []xmlAttrElem `xml:"sheet"`
	} `xml:"sheets"`
}

type relationshipsXML struct {
	Relationship []xmlAttrElem `xml:"Relationship"`
}

func readSheetOOXML(data []byte, sheetName string, offset, limit int) ([]Row, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open OOXML package: %w", err)
	}
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	readXML := func(name string, v interface{}) error {
		f, ok := entries[name]
		if !ok {
			return fmt.Errorf("missing %s", name)
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		return xml.NewDecoder(rc).Decode(v)
	}

	var wb workbookXML
	if err := readXML("xl/workbook.xml", &wb); err != nil {
		return nil, err
	}
	var rels relationshipsXML
	if err := readXML("xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, err
	}
	targetByID := make(map[string]string, len(rels.Relationship))
	for _, r := range rels.Relationship {
		id, okID := attrLocal(r.Attrs, "Id")
		target, okTarget := attrLocal(r.Attrs, "Target")
		if okID && okTarget {
			targetByID[id] = target
		}
	}

	var sheetPath string
	for _, s := range wb.Sheets.Sheet {
		name, _ := attrLocal(s.Attrs, "name")
		if name != sheetName {
			continue
		}
		rid, _ := attrLocal(s.Attrs, "id")
		target, ok := targetByID[rid]
		if !ok {
			return nil, fmt.Errorf("sheet %s has no relationship target", sheetName)
		}
		sheetPath = "xl/" + strings.TrimPrefix(target, "/xl/")
		break
	}
	if sheetPath == "" {
		return nil, fmt.Errorf("sheet not found: %s", sheetName)
	}

	f, ok := entries[sheetPath]
	if !ok {
		return nil, fmt.Errorf("missing worksheet part %s", sheetPath)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return decodeSheetData(rc, offset, limit)
}

// decodeSheetData token-walks <row r="N"><c r="A1"><v>text</v></c>...</row>
// rather than binding a full struct model, since shared-string indirection
// and inline strings vary by cell type and this reader only needs the
// literal cell text that is already present inline.
func decodeSheetData(r io.Reader, offset, limit int) ([]Row, error) {
	dec := xml.NewDecoder(r)
	var out []Row
	var cur *Row
	var curCol int
	inValue := false

	flush := func() {
		if cur != nil && len(cur.Cells) > 0 {
			out = append(out, *cur)
		}
		cur = nil
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				flush()
				rowIdx := 0
				for _, a := range t.Attr {
					if a.Name.Local == "r" {
						if v, err := strconv.Atoi(a.Value); err == nil {
							rowIdx = v - 1
						}
					}
				}
				if rowIdx < offset || (limit > 0 && len(out) >= limit) {
					cur = nil
					continue
				}
				cur = &Row{Index: rowIdx, Cells: map[int]string{}}
			case "c":
				curCol = columnFromRef(attrValue(t.Attr, "r"))
			case "v", "t":
				inValue = true
			}
		case xml.CharData:
			if inValue && cur != nil {
				cur.Cells[curCol] = strings.TrimSpace(string(t))
			}
		case xml.EndElement:
			if t.Name.Local == "v" || t.Name.Local == "t" {
				inValue = false
			}
			if t.Name.Local == "row" {
				flush()
			}
		}
		if limit > 0 && len(out) >= limit && cur == nil {
			break
		}
	}
	flush()
	return out, nil
}

// columnFromRef converts a cell reference like "C5" to a 0-based column
// index, decoding the leading base-26 letters.
func columnFromRef(ref string) int {
	col := 0
	for _, c := range ref {
		if c < 'A' || c > 'Z' {
			break
		}
		col = col*26 + int(c-'A'+1)
	}
	return col - 1
}

func attrValue(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
