package engine

// legacyAnchor binds a BSE index to a cell rectangle on a sheet, produced
// while walking one sheet's concatenated MsoDrawing payloads.
type legacyAnchor struct {
	sheet   string
	bseIdx  int
	fromCol int
	fromRow int
	toCol   int
	toRow   int
}

// parseLegacyAnchors walks a sheet's drawing data looking for
// SpContainers that carry both a ClientAnchor and a positive BLIP index.
// An SpContainer missing either contributes nothing.
func parseLegacyAnchors(sheetName string, drawingData []byte) []legacyAnchor {
	var out []legacyAnchor
	walkForSpContainers(drawingData, sheetName, &out)
	return out
}

func walkForSpContainers(region []byte, sheetName string, out *[]legacyAnchor) {
	for _, rec := range walkEscher(region) {
		if rec.typ == escherSpContainer {
			if a, ok := spContainerAnchor(sheetName, rec.data); ok {
				*out = append(*out, a)
			}
			// An SpContainer's children (SP, OPT, ClientAnchor, ...) are
			// atoms at its own top level, not nested SpContainers, but
			// grouped shapes nest SpContainers inside a SpgrContainer
			// which is itself a child here — recurse regardless.
			walkForSpContainers(rec.data, sheetName, out)
			continue
		}
		if rec.isContainer {
			walkForSpContainers(rec.data, sheetName, out)
		}
	}
}

// spContainerAnchor inspects one SpContainer's immediate children for a
// ClientAnchor and an OPT/FOPT pib property.
func spContainerAnchor(sheetName string, spData []byte) (legacyAnchor, bool) {
	var (
		haveRect             bool
		fromCol, fromRow     int
		toCol, toRow         int
		bseIdx               int
	)

	for _, rec := range walkEscher(spData) {
		switch rec.typ {
		case escherClientAnchor:
			if rect, ok := parseClientAnchor(rec.data); ok {
				fromCol, fromRow, toCol, toRow = rect[0], rect[1], rect[2], rect[3]
				haveRect = true
			}
		case escherOPT, escherFOPT:
			if idx, ok := findPibProperty(rec); ok {
				bseIdx = idx
			}
		}
	}

	if !haveRect || bseIdx <= 0 {
		return legacyAnchor{}, false
	}
	return legacyAnchor{
		sheet:   sheetName,
		bseIdx:  bseIdx,
		fromCol: fromCol,
		fromRow: fromRow,
		toCol:   toCol,
		toRow:   toRow,
	}, true
}

// parseClientAnchor reads the 2-byte flag field followed by
// col1,dx1,row1,dy1,col2,dx2,row2,dy2 (18 bytes total) and returns
// (col1,row1,col2,row2).
func parseClientAnchor(data []byte) ([4]int, bool) {
	r := newByteReader(data)
	if !r.skip(2) {
		return [4]int{}, false
	}
	col1, ok1 := r.u16()
	if !r.skip(2) || !ok1 {
		return [4]int{}, false
	}
	row1, ok2 := r.u16()
	if !r.skip(2) || !ok2 {
		return [4]int{}, false
	}
	col2, ok3 := r.u16()
	if !r.skip(2) || !ok3 {
		return [4]int{}, false
	}
	row2, ok4 := r.u16()
	if !ok4 {
		return [4]int{}, false
	}
	return [4]int{int(col1), int(row1), int(col2), int(row2)}, true
}

// pibPropertyID is the property ID (MSOFBT pib) carrying the BSE index
// into the global image store, masked to its low 14 bits.
const pibPropertyID = 0x0104

// findPibProperty scans an OPT/FOPT property table of
// rec.instance (== propertyCount) entries of (propId:u16, value:i32) each
// and returns the value of the pib property, if present.
func findPibProperty(rec escherRecord) (int, bool) {
	count := int(rec.instance)
	r := newByteReader(rec.data)
	for i := 0; i < count; i++ {
		propID, ok1 := r.u16()
		value, ok2 := r.i32()
		if !ok1 || !ok2 {
			break
		}
		if propID&0x3FFF == pibPropertyID {
			return int(value), true
		}
	}
	return 0, false
}
