package engine

import (
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

const (
	recBOF             = 0x0809
	recEOF             = 0x000A
	recCONTINUE        = 0x003C
	recBOUNDSHEET      = 0x0085
	recMsoDrawingGroup = 0x00EB
	recMsoDrawing      = 0x00EC
)

type biffRecord struct {
	typ  uint16
	data []byte
}

// readBiffRecords consumes the workbook stream as a sequence of
// (type:u16 LE, length:u16 LE, data) records, merging CONTINUE (0x003C)
// records into the data of the immediately preceding non-CONTINUE record
// so that CONTINUE splicing is invisible to every downstream consumer.
// A CONTINUE with no predecessor is ignored. A record whose declared
// length exceeds the remaining bytes terminates parsing; the
// already-parsed records are returned.
func readBiffRecords(stream []byte) []biffRecord {
	var records []biffRecord
	r := newByteReader(stream)

	for r.remaining() > 0 {
		typ, ok := r.u16()
		if !ok {
			break
		}
		length, ok := r.u16()
		if !ok {
			break
		}
		data, ok := r.bytes(int(length))
		if !ok {
			break
		}

		if typ == recCONTINUE {
			if len(records) > 0 {
				prev := &records[len(records)-1]
				prev.data = append(append([]byte(nil), prev.data...), data...)
			}
			continue
		}

		records = append(records, biffRecord{typ: typ, data: data})
	}

	return records
}

// workbookStreams holds the globals and per-sheet material the legacy
// image pipeline needs out of a BIFF stream.
type workbookStreams struct {
	sheetNames       []string // BOUNDSHEET order; substream index i+1 attributes to sheetNames[i]
	msoDrawingGroup  []byte   // concatenated MsoDrawingGroup payloads from globals
	sheetDrawingData [][]byte // sheetDrawingData[i] is sheet i's concatenated MsoDrawing payloads
}

// splitSubStreams walks the (already CONTINUE-merged) record list,
// tracking the BOF/EOF sub-stream boundaries. The sub-stream counter
// starts at -1 and increments on every BOF: index 0 is globals, indices
// 1..K attribute to the K BOUNDSHEET entries in order.
func splitSubStreams(records []biffRecord) workbookStreams {
	var ws workbookStreams
	substream := -1

	for _, rec := range records {
		switch rec.typ {
		case recBOF:
			substream++
		case recEOF:
			// no-op; substream advances on the next BOF
		case recBOUNDSHEET:
			if substream == 0 {
				if name, ok := unpackBoundsheetName(rec.data); ok {
					ws.sheetNames = append(ws.sheetNames, name)
				}
			}
		case recMsoDrawingGroup:
			if substream == 0 {
				ws.msoDrawingGroup = append(ws.msoDrawingGroup, rec.data...)
			}
		case recMsoDrawing:
			if substream >= 1 {
				idx := substream - 1
				for len(ws.sheetDrawingData) <= idx {
					ws.sheetDrawingData = append(ws.sheetDrawingData, nil)
				}
				ws.sheetDrawingData[idx] = append(ws.sheetDrawingData[idx], rec.data...)
			}
		}
	}

	return ws
}

// unpackBoundsheetName reads the sheet name out of a BOUNDSHEET record:
// offset(4) + visibility(1) + sheetType(1) + ShortXLUnicodeString name.
func unpackBoundsheetName(data []byte) (string, bool) {
	if len(data) < 7 {
		return "", false
	}
	cch := int(data[6])
	pos := 7
	if pos >= len(data) {
		return "", false
	}
	grbit := data[pos]
	pos++
	uncompressed := grbit&0x01 != 0

	if uncompressed {
		n := cch * 2
		if pos+n > len(data) {
			return "", false
		}
		words := make([]uint16, cch)
		for i := 0; i < cch; i++ {
			words[i] = le16(data, pos+i*2)
		}
		return string(utf16.Decode(words)), true
	}

	if pos+cch > len(data) {
		return "", false
	}
	latin1 := data[pos : pos+cch]
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(latin1)
	if err != nil {
		return string(latin1), true
	}
	return string(out), true
}
