package engine

// legacyImage is one image discovered via the global BLIP store, with the
// anchors (already filtered by sheet, if requested) that reference it.
type legacyImage struct {
	index     int // 1-based BSE index
	mime      string
	data      []byte
	positions []ImagePosition
}

// extractLegacy reads the BIFF stream, collects the global BLIP store and
// per-sheet anchors, and joins them on BSE index. Unlike the OOXML path,
// a BLIP with no anchors at all — with or without a sheet filter — is
// dropped.
func extractLegacy(workbookStream []byte, sheetFilter string) ([]legacyImage, error) {
	records := readBiffRecords(workbookStream)
	ws := splitSubStreams(records)

	if sheetFilter != "" {
		found := false
		for _, name := range ws.sheetNames {
			if name == sheetFilter {
				found = true
				break
			}
		}
		if !found {
			return nil, newErr(ErrInvalidRequest, "sheet not found: "+sheetFilter, nil)
		}
	}

	bses := extractBSEs(ws.msoDrawingGroup)
	bseByIndex := make(map[int]bseEntry, len(bses))
	for _, b := range bses {
		bseByIndex[b.index] = b
	}

	positionsByIndex := make(map[int][]ImagePosition)
	for i, sheetName := range ws.sheetNames {
		if sheetFilter != "" && sheetName != sheetFilter {
			continue
		}
		var drawingData []byte
		if i < len(ws.sheetDrawingData) {
			drawingData = ws.sheetDrawingData[i]
		}
		for _, a := range parseLegacyAnchors(sheetName, drawingData) {
			if _, ok := bseByIndex[a.bseIdx]; !ok {
				continue // BSE index not present in the decoded store: dropped
			}
			positionsByIndex[a.bseIdx] = append(positionsByIndex[a.bseIdx], ImagePosition{
				Sheet:   a.sheet,
				FromCol: a.fromCol,
				FromRow: a.fromRow,
				ToCol:   a.toCol,
				ToRow:   a.toRow,
			})
		}
	}

	out := make([]legacyImage, 0, len(bses))
	for _, b := range bses {
		positions := positionsByIndex[b.index]
		if len(positions) == 0 {
			continue
		}
		out = append(out, legacyImage{
			index:     b.index,
			mime:      b.mime,
			data:      b.bytes,
			positions: positions,
		})
	}
	return out, nil
}
