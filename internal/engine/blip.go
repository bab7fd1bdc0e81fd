package engine

import (
	"bytes"
	"compress/zlib"
	"io"
)

// BLIP (embedded picture) record types inside a BSE.
const (
	blipEMF    = 0xF01A
	blipWMF    = 0xF01B
	blipPICT   = 0xF01C
	blipJPEG   = 0xF01D
	blipPNG    = 0xF01E
	blipDIB    = 0xF01F
	blipTIFF   = 0xF029
	blipJPEG2  = 0xF02A
)

var blipMime = map[uint16]string{
	blipEMF:   "image/x-emf",
	blipWMF:   "image/x-wmf",
	blipPICT:  "image/pict",
	blipJPEG:  "image/jpeg",
	blipJPEG2: "image/jpeg",
	blipPNG:   "image/png",
	blipDIB:   "image/bmp",
	blipTIFF:  "image/tiff",
}

// bseEntry is one decoded image from the legacy global BLIP store.
type bseEntry struct {
	index int // 1-based
	mime  string
	bytes []byte
}

// extractBSEs walks the DggContainer → BStoreContainer → BSE chain inside
// a globals MsoDrawingGroup payload and returns the decoded images in
// store order, first BSE is index 1.
func extractBSEs(msoDrawingGroup []byte) []bseEntry {
	if len(msoDrawingGroup) == 0 {
		return nil
	}

	dgg, ok := findContainerAtTop(msoDrawingGroup, escherDggContainer)
	if !ok {
		return nil
	}
	bstore, ok := findContainerAtTop(dgg.data, escherBStoreContainer)
	if !ok {
		return nil
	}

	var out []bseEntry
	index := 0
	for _, rec := range walkEscher(bstore.data) {
		if rec.typ != escherBSE {
			continue
		}
		index++
		mime, data, ok := decodeBSE(rec.data)
		if !ok {
			continue
		}
		out = append(out, bseEntry{index: index, mime: mime, bytes: data})
	}
	return out
}

// findContainerAtTop scans the top level of region for a container record
// of the given type.
func findContainerAtTop(region []byte, typ uint16) (escherRecord, bool) {
	for _, rec := range walkEscher(region) {
		if rec.typ == typ && rec.isContainer {
			return rec, true
		}
	}
	return escherRecord{}, false
}

// bseHeaderSize is the fixed-layout BSE header preceding the embedded BLIP
// record.
const bseHeaderSize = 36

// decodeBSE parses one BSE payload: the 36-byte header, then the embedded
// BLIP record whose per-type prelude precedes the raw image bytes.
func decodeBSE(payload []byte) (mime string, data []byte, ok bool) {
	if len(payload) < bseHeaderSize {
		return "", nil, false
	}
	cbName := int(payload[33])
	blipStart := bseHeaderSize + cbName
	if blipStart > len(payload) {
		return "", nil, false
	}

	blipRegion := payload[blipStart:]
	r := newByteReader(blipRegion)
	verInst, okv := r.u16()
	typ, okt := r.u16()
	length, okl := r.i32()
	if !okv || !okt || !okl || length < 0 {
		return "", nil, false
	}
	body, okb := r.bytes(int(length))
	if !okb {
		return "", nil, false
	}
	instance := verInst >> 4

	mime, ok = blipMime[typ]
	if !ok {
		mime = "application/octet-stream"
	}

	raw, ok := stripBlipPrelude(typ, instance, body)
	if !ok {
		return "", nil, false
	}
	return mime, raw, true
}

// stripBlipPrelude removes the per-type BLIP header prelude that precedes
// the raw image bytes. EMF/WMF/PICT metafile payloads may be
// zlib-compressed beyond the prelude; an inflate is attempted and the raw
// bytes are kept on failure.
func stripBlipPrelude(typ uint16, instance uint16, body []byte) ([]byte, bool) {
	switch typ {
	case blipEMF, blipWMF, blipPICT:
		uidSize := 16
		if instance == 0x3D5 || instance == 0x217 || instance == 0x543 {
			uidSize = 32
		}
		prelude := uidSize + 34
		if len(body) < prelude {
			return nil, false
		}
		rest := body[prelude:]
		if inflated, ok := tryInflate(rest); ok {
			return inflated, true
		}
		return append([]byte(nil), rest...), true

	case blipJPEG, blipJPEG2:
		uidSize := 16
		if instance == 0x46B || instance == 0x6E3 {
			uidSize = 32
		}
		prelude := uidSize + 1
		if len(body) < prelude {
			return nil, false
		}
		return append([]byte(nil), body[prelude:]...), true

	case blipPNG:
		uidSize := 16
		if instance == 0x6E1 {
			uidSize = 32
		}
		prelude := uidSize + 1
		if len(body) < prelude {
			return nil, false
		}
		return append([]byte(nil), body[prelude:]...), true

	case blipDIB:
		uidSize := 16
		if instance == 0x7A9 {
			uidSize = 32
		}
		prelude := uidSize + 1
		if len(body) < prelude {
			return nil, false
		}
		return append([]byte(nil), body[prelude:]...), true

	case blipTIFF:
		uidSize := 16
		if instance == 0x6E5 {
			uidSize = 32
		}
		prelude := uidSize + 1
		if len(body) < prelude {
			return nil, false
		}
		return append([]byte(nil), body[prelude:]...), true

	default:
		// Unknown BLIP type: skip 17 bytes as a best effort.
		if len(body) < 17 {
			return nil, false
		}
		return append([]byte(nil), body[17:]...), true
	}
}

// tryInflate attempts a zlib inflate, returning ok=false on any failure so
// the caller falls back to the raw bytes.
func tryInflate(data []byte) ([]byte, bool) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil || len(out) == 0 {
		return nil, false
	}
	return out, true
}
