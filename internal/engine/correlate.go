package engine

import (
	"encoding/base64"
	"strconv"
)

var mimeExtension = map[string]string{
	"image/png":               ".png",
	"image/jpeg":               ".jpeg",
	"image/gif":                ".gif",
	"image/bmp":                ".bmp",
	"image/tiff":               ".tiff",
	"image/x-emf":              ".emf",
	"image/x-wmf":              ".wmf",
	"image/pict":               ".pict",
	"image/svg+xml":            ".svg",
	"application/octet-stream": ".bin",
}

func extensionForMime(mime string) string {
	if ext, ok := mimeExtension[mime]; ok {
		return ext
	}
	return ".bin"
}

// budgeter accumulates base64-encoded length against the 10 MiB ceiling;
// the budget is checked against the base64 length, not the raw byte
// length, since that's what actually goes over the wire.
type budgeter struct {
	used      int
	truncated bool
}

// add reports whether emitting n base64-encoded bytes would stay within
// budget; if it would not, it marks the result truncated and refuses.
func (b *budgeter) add(n int) bool {
	if b.used+n > maxBase64Budget {
		b.truncated = true
		return false
	}
	b.used += n
	return true
}

// correlatedItem is one image ready for emission: mime type, raw bytes,
// and the positions gathered for it, in final emission order.
type correlatedItem struct {
	mime      string
	data      []byte
	positions []ImagePosition
}

// buildResult converts correlated items, already in their final emission
// order, into the public ExtractionResult, applying the cumulative
// size budget.
func buildResult(items []correlatedItem) ExtractionResult {
	var b budgeter
	result := ExtractionResult{Images: make([]ExtractedImage, 0, len(items))}

	for i, it := range items {
		encoded := base64.StdEncoding.EncodeToString(it.data)
		if !b.add(len(encoded)) {
			break
		}
		name := "image" + strconv.Itoa(i+1) + extensionForMime(it.mime)
		positions := it.positions
		if positions == nil {
			positions = []ImagePosition{}
		}
		result.Images = append(result.Images, ExtractedImage{
			Name:       name,
			MimeType:   it.mime,
			DataBase64: encoded,
			Positions:  positions,
		})
	}

	result.Truncated = b.truncated
	return result
}
