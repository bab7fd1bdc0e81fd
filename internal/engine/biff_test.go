package engine

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// rec builds one raw BIFF record: type(2) + length(2) + data.
func rec(typ uint16, data []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, typ)
	binary.Write(&buf, binary.LittleEndian, uint16(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func TestReadBiffRecords_ContinueSplicing(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(rec(0x1234, []byte("abc")))
	stream.Write(rec(recCONTINUE, []byte("def")))
	stream.Write(rec(recCONTINUE, []byte("ghi")))
	stream.Write(rec(0x5678, []byte("xyz")))

	records := readBiffRecords(stream.Bytes())
	if len(records) != 2 {
		t.Fatalf("expected 2 records after CONTINUE merge, got %d", len(records))
	}
	if got := string(records[0].data); got != "abcdefghi" {
		t.Errorf("expected merged data %q, got %q", "abcdefghi", got)
	}
	if records[1].typ != 0x5678 || string(records[1].data) != "xyz" {
		t.Errorf("second record corrupted: %+v", records[1])
	}
}

func TestReadBiffRecords_OrphanContinueIgnored(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(rec(recCONTINUE, []byte("orphan")))
	stream.Write(rec(0x1111, []byte("ok")))

	records := readBiffRecords(stream.Bytes())
	if len(records) != 1 {
		t.Fatalf("expected orphan CONTINUE to be ignored, got %d records", len(records))
	}
	if string(records[0].data) != "ok" {
		t.Errorf("unexpected data: %q", records[0].data)
	}
}

func TestReadBiffRecords_TruncatedLengthStopsParsing(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(rec(0x1111, []byte("good")))
	// Declare a length longer than the remaining bytes.
	binary.Write(&stream, binary.LittleEndian, uint16(0x2222))
	binary.Write(&stream, binary.LittleEndian, uint16(100))
	stream.Write([]byte("short"))

	records := readBiffRecords(stream.Bytes())
	if len(records) != 1 {
		t.Fatalf("expected parsing to stop after truncated record, got %d records", len(records))
	}
}

// boundsheetRecord builds a BOUNDSHEET record for a compressed (Latin-1)
// name at the given BOF stream offset.
func boundsheetRecord(offset uint32, name string) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, offset)
	buf.WriteByte(0) // visibility
	buf.WriteByte(0) // sheet type: worksheet
	buf.WriteByte(byte(len(name)))
	buf.WriteByte(0) // grbit: compressed
	buf.WriteString(name)
	return buf.Bytes()
}

func TestSplitSubStreams_SheetAttribution(t *testing.T) {
	var stream bytes.Buffer
	// Globals sub-stream.
	stream.Write(rec(recBOF, []byte{0, 0, 0, 0, 0, 0}))
	stream.Write(rec(recBOUNDSHEET, boundsheetRecord(0, "Sheet1")))
	stream.Write(rec(recBOUNDSHEET, boundsheetRecord(0, "Sheet2")))
	stream.Write(rec(recMsoDrawingGroup, []byte("DGG")))
	stream.Write(rec(recEOF, nil))
	// Sheet1 sub-stream.
	stream.Write(rec(recBOF, []byte{0, 0, 0, 0, 0, 0}))
	stream.Write(rec(recMsoDrawing, []byte("SHEET1-DRAW")))
	stream.Write(rec(recEOF, nil))
	// Sheet2 sub-stream.
	stream.Write(rec(recBOF, []byte{0, 0, 0, 0, 0, 0}))
	stream.Write(rec(recMsoDrawing, []byte("SHEET2-DRAW")))
	stream.Write(rec(recEOF, nil))

	ws := splitSubStreams(readBiffRecords(stream.Bytes()))

	if len(ws.sheetNames) != 2 || ws.sheetNames[0] != "Sheet1" || ws.sheetNames[1] != "Sheet2" {
		t.Fatalf("unexpected sheet names: %+v", ws.sheetNames)
	}
	if string(ws.msoDrawingGroup) != "DGG" {
		t.Errorf("expected globals MsoDrawingGroup %q, got %q", "DGG", ws.msoDrawingGroup)
	}
	if len(ws.sheetDrawingData) != 2 {
		t.Fatalf("expected 2 sheet drawing buffers, got %d", len(ws.sheetDrawingData))
	}
	if string(ws.sheetDrawingData[0]) != "SHEET1-DRAW" {
		t.Errorf("sheet1 drawing data: %q", ws.sheetDrawingData[0])
	}
	if string(ws.sheetDrawingData[1]) != "SHEET2-DRAW" {
		t.Errorf("sheet2 drawing data: %q", ws.sheetDrawingData[1])
	}
}
