// Package sheetlist answers "what sheets does this workbook have" without
// running the full image-extraction pipeline, for callers (the CLI, the
// MCP server) that only need the sheet names up front.
package sheetlist

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"

	"github.com/richardlehane/mscfb"
	"github.com/shakinm/xlsReader/xls"
)

// List returns every sheet name in filePath, in workbook order, for both
// the OOXML (.xlsx) and legacy (.xls) container formats.
func List(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}

	if len(data) >= 2 && data[0] == 0x50 && data[1] == 0x4B {
		return listOOXML(data)
	}
	if len(data) >= 4 && data[0] == 0xD0 && data[1] == 0xCF && data[2] == 0x11 && data[3] == 0xE0 {
		return listLegacy(data)
	}
	return nil, fmt.Errorf("unrecognized file format: %s", filePath)
}

type workbookXML struct {
	XMLName xml.Name `xml:"workbook"`
	Sheets  struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

func listOOXML(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open OOXML package: %w", err)
	}
	var wbFile *zip.File
	for _, f := range zr.File {
		if f.Name == "xl/workbook.xml" {
			wbFile = f
			break
		}
	}
	if wbFile == nil {
		return nil, fmt.Errorf("missing xl/workbook.xml")
	}
	rc, err := wbFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open xl/workbook.xml: %w", err)
	}
	defer rc.Close()

	var wb workbookXML
	if err := xml.NewDecoder(rc).Decode(&wb); err != nil {
		return nil, fmt.Errorf("parse xl/workbook.xml: %w", err)
	}
	names := make([]string, 0, len(wb.Sheets.Sheet))
	for _, s := range wb.Sheets.Sheet {
		names = append(names, s.Name)
	}
	return names, nil
}

// listLegacy validates the OLE2 container with mscfb and hands the sheet
// listing itself to shakinm/xlsReader, rather than duplicating BOUNDSHEET
// parsing here (the image engine keeps its own minimal copy so it never
// depends on a third-party BIFF reader for correctness-critical parsing).
func listLegacy(data []byte) (names []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			names = nil
			err = fmt.Errorf("panic reading legacy workbook: %v", r)
		}
	}()

	if _, err := mscfb.New(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("not a readable OLE2 compound file: %w", err)
	}

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse legacy workbook: %w", err)
	}

	numSheets := wb.GetNumberSheets()
	names = make([]string, 0, numSheets)
	for i := 0; i < numSheets; i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil {
			continue
		}
		names = append(names, sheet.GetName())
	}
	return names, nil
}
