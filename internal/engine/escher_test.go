package engine

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// escherHeader builds an Office-Art record header: ver_inst(2) + type(2) +
// length(4), where ver=0x0F marks a container.
func escherHeader(container bool, instance uint16, typ uint16, length int32) []byte {
	var verInst uint16
	if container {
		verInst = 0x0F | (instance << 4)
	} else {
		verInst = 0x00 | (instance << 4)
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, verInst)
	binary.Write(&buf, binary.LittleEndian, typ)
	binary.Write(&buf, binary.LittleEndian, length)
	return buf.Bytes()
}

func escherAtom(instance uint16, typ uint16, data []byte) []byte {
	var buf bytes.Buffer
	buf.Write(escherHeader(false, instance, typ, int32(len(data))))
	buf.Write(data)
	return buf.Bytes()
}

func escherContainer(instance uint16, typ uint16, children []byte) []byte {
	var buf bytes.Buffer
	buf.Write(escherHeader(true, instance, typ, int32(len(children))))
	buf.Write(children)
	return buf.Bytes()
}

func TestWalkEscher_AtomAndContainer(t *testing.T) {
	inner := escherAtom(0, escherClientAnchor, []byte{1, 2, 3, 4})
	region := append(append([]byte{}, escherContainer(1, escherSpContainer, inner)...),
		escherAtom(0, escherSp, []byte{9, 9})...)

	recs := walkEscher(region)
	if len(recs) != 2 {
		t.Fatalf("expected 2 top-level records, got %d", len(recs))
	}
	if !recs[0].isContainer || recs[0].typ != escherSpContainer {
		t.Errorf("expected first record to be an SpContainer, got %+v", recs[0])
	}
	if recs[1].isContainer || recs[1].typ != escherSp {
		t.Errorf("expected second record to be an Sp atom, got %+v", recs[1])
	}

	children := walkEscher(recs[0].data)
	if len(children) != 1 || children[0].typ != escherClientAnchor {
		t.Fatalf("expected one ClientAnchor child, got %+v", children)
	}
	if !bytes.Equal(children[0].data, []byte{1, 2, 3, 4}) {
		t.Errorf("ClientAnchor payload mismatch: %v", children[0].data)
	}
}

func TestWalkEscher_TruncatedLengthStops(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(escherAtom(0, escherSp, []byte{1, 2}))
	buf.Write(escherHeader(false, 0, escherClientAnchor, 1000)) // declares far more than present
	buf.Write([]byte{1, 2, 3})

	recs := walkEscher(buf.Bytes())
	if len(recs) != 1 {
		t.Fatalf("expected truncated record to stop iteration, got %d records", len(recs))
	}
}

func TestFindEscher_DescendsIntoContainers(t *testing.T) {
	target := escherAtom(0, escherClientAnchor, []byte{7})
	nested := escherContainer(0, escherSpContainer, target)
	region := escherContainer(0, escherDggContainer, nested)

	found, ok := findEscher(region, escherClientAnchor)
	if !ok {
		t.Fatal("expected to find nested ClientAnchor record")
	}
	if !bytes.Equal(found.data, []byte{7}) {
		t.Errorf("unexpected payload: %v", found.data)
	}
}
