package engine

import (
	"errors"
	"fmt"
	"os"
)

// Extract reads filePath, detects whether it is an OOXML (.xlsx) package
// or a legacy OLE2 (.xls) workbook, and returns every embedded raster
// image correlated with the cell anchor(s) that place it on a sheet. If
// sheetName is non-empty, only images anchored on that sheet are
// returned (OOXML: positions outside the filtered sheet are dropped;
// legacy: anchors on other sheets are never even read).
func Extract(req ExtractionRequest) (result ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = ExtractionResult{}
			err = newErr(ErrInternal, fmt.Sprintf("panic during extraction: %v", r), nil)
		}
	}()

	data, err := os.ReadFile(req.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ExtractionResult{}, newErr(ErrInvalidRequest, "File not found: "+req.FilePath, nil)
		}
		return ExtractionResult{}, newErr(ErrInternal, "failed reading file", err)
	}

	switch detectFormat(data) {
	case formatOOXML:
		return extractOOXMLFile(data, req.SheetName)
	case formatLegacy:
		return extractLegacyFile(data, req.SheetName)
	default:
		return ExtractionResult{}, newErr(ErrInvalidRequest, "unrecognized file format", nil)
	}
}

func extractOOXMLFile(data []byte, sheetFilter string) (ExtractionResult, error) {
	pkg, err := openOOXML(data)
	if err != nil {
		return ExtractionResult{}, err
	}
	images, err := extractOOXML(pkg, sheetFilter)
	if err != nil {
		return ExtractionResult{}, err
	}

	items := make([]correlatedItem, len(images))
	for i, img := range images {
		items[i] = correlatedItem{mime: img.mime, data: img.data, positions: img.positions}
	}
	return buildResult(items), nil
}

func extractLegacyFile(data []byte, sheetFilter string) (ExtractionResult, error) {
	stream, err := openWorkbookStream(data)
	if err != nil {
		return ExtractionResult{}, err
	}
	images, err := extractLegacy(stream, sheetFilter)
	if err != nil {
		return ExtractionResult{}, err
	}

	items := make([]correlatedItem, len(images))
	for i, img := range images {
		items[i] = correlatedItem{mime: img.mime, data: img.data, positions: img.positions}
	}
	return buildResult(items), nil
}
