package engine

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// ooxmlPackage is an opened .xlsx ZIP archive, keyed by archive path for
// repeated lookups.
type ooxmlPackage struct {
	entries map[string]*zip.File
}

func openOOXML(data []byte) (*ooxmlPackage, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, newErr(ErrInvalidFormat, "not a readable OOXML (ZIP) package", err)
	}
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}
	return &ooxmlPackage{entries: entries}, nil
}

func (p *ooxmlPackage) bytes(name string) ([]byte, bool) {
	f, ok := p.entries[name]
	if !ok {
		return nil, false
	}
	rc, err := f.Open()
	if err != nil {
		return nil, false
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (p *ooxmlPackage) text(name string) (string, bool) {
	data, ok := p.bytes(name)
	if !ok {
		return "", false
	}
	return string(data), true
}

func (p *ooxmlPackage) names() []string {
	names := make([]string, 0, len(p.entries))
	for n := range p.entries {
		names = append(names, n)
	}
	return names
}

// --- Open Packaging Convention path resolution ---

func archiveDir(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[:idx]
	}
	return ""
}

func archiveBase(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func relsPathFor(partPath string) string {
	dir := archiveDir(partPath)
	base := archiveBase(partPath)
	if dir == "" {
		return "_rels/" + base + ".rels"
	}
	return dir + "/_rels/" + base + ".rels"
}

// resolveRelPath resolves target relative to baseDir, the directory
// (archive-relative, no trailing slash) of the part that references it.
func resolveRelPath(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}

	var segs []string
	if baseDir != "" {
		segs = strings.Split(baseDir, "/")
	}
	for _, part := range strings.Split(target, "/") {
		switch part {
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		case ".", "":
			// no-op
		default:
			segs = append(segs, part)
		}
	}
	return strings.Join(segs, "/")
}

// --- relationship / workbook XML (simple attribute-driven structs) ---

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

type relationshipsXML struct {
	XMLName      xml.Name      `xml:"Relationships"`
	Relationship []xmlAttrElem `xml:"Relationship"`
}

// loadRelationships parses a .rels part into id -> target.
func (p *ooxmlPackage) loadRelationships(relsPath string) map[string]string {
	data, ok := p.bytes(relsPath)
	if !ok {
		return nil
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil
	}
	out := make(map[string]string, len(rels.Relationship))
	for _, r := range rels.Relationship {
		id, okID := attrLocal(r.Attrs, "Id")
		target, okTarget := attrLocal(r.Attrs, "Target")
		if okID && okTarget {
			out[id] = target
		}
	}
	return out
}

type workbookXML struct {
	XMLName xml.Name `xml:"workbook"`
	Sheets  struct {
		Sheet []xmlAttrElem `xml:"sheet"`
	} `xml:"sheets"`
}

// ooxmlSheet is one entry from xl/workbook.xml's sheet list, resolved to
// its worksheet part path.
type ooxmlSheet struct {
	name string
	path string // resolved archive path, e.g. xl/worksheets/sheet1.xml
}

// loadSheetList resolves the sheetName -> sheetPath mapping:
// workbook.xml's <sheet name r:id> entries resolved through
// workbook.xml.rels.
func (p *ooxmlPackage) loadSheetList() ([]ooxmlSheet, error) {
	data, ok := p.bytes("xl/workbook.xml")
	if !ok {
		return nil, newErr(ErrInvalidFormat, "missing xl/workbook.xml", nil)
	}
	var wb workbookXML
	if err := xml.Unmarshal(data, &wb); err != nil {
		return nil, newErr(ErrInvalidFormat, "malformed xl/workbook.xml", err)
	}

	rels := p.loadRelationships(relsPathFor("xl/workbook.xml"))

	var out []ooxmlSheet
	for _, s := range wb.Sheets.Sheet {
		name, _ := attrLocal(s.Attrs, "name")
		rid, _ := attrLocal(s.Attrs, "id")
		if name == "" || rid == "" {
			continue
		}
		target, ok := rels[rid]
		if !ok {
			continue
		}
		path := resolveRelPath("xl", target)
		out = append(out, ooxmlSheet{name: name, path: path})
	}
	return out, nil
}

// --- drawing XML: twoCellAnchor / oneCellAnchor ---

// drawingAnchor is one <xdr:twoCellAnchor>/<xdr:oneCellAnchor> element's
// extracted content: the cell rectangle plus every r:embed relationship
// id referenced within it (a grouped picture can carry more than one).
type drawingAnchor struct {
	fromCol, fromRow, toCol, toRow int
	embeds                        []string
}

// parseDrawingAnchors token-walks the drawing XML rather than binding a
// full struct model of every possible shape type (pic, graphicFrame,
// group, cxnSp, ...), since an embed can be nested arbitrarily deep
// inside a grouped shape.
func parseDrawingAnchors(data []byte) []drawingAnchor {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []drawingAnchor

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "twoCellAnchor":
			out = append(out, parseOneAnchor(dec, false))
		case "oneCellAnchor":
			out = append(out, parseOneAnchor(dec, true))
		}
	}
	return out
}

// parseOneAnchor consumes tokens up to and including the matching end
// element of an already-opened twoCellAnchor/oneCellAnchor start tag.
func parseOneAnchor(dec *xml.Decoder, oneCell bool) drawingAnchor {
	var a drawingAnchor
	depth := 0
	marker := "" // "from" or "to" while inside that element

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "from":
				marker = "from"
			case "to":
				marker = "to"
			case "col":
				var v int
				if readIntChars(dec, &v) {
					if marker == "from" {
						a.fromCol = v
					} else if marker == "to" {
						a.toCol = v
					}
				}
			case "row":
				var v int
				if readIntChars(dec, &v) {
					if marker == "from" {
						a.fromRow = v
					} else if marker == "to" {
						a.toRow = v
					}
				}
			}
			if embed, ok := attrLocal(t.Attr, "embed"); ok {
				a.embeds = append(a.embeds, embed)
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "from" || t.Name.Local == "to" {
				marker = ""
			}
			if depth < 0 {
				if oneCell {
					a.toCol, a.toRow = a.fromCol, a.fromRow
				}
				return a
			}
		}
	}

	if oneCell {
		a.toCol, a.toRow = a.fromCol, a.fromRow
	}
	return a
}

// readIntChars reads the character data immediately following the current
// start element (e.g. <xdr:col>3</xdr:col>) and parses it as an int.
func readIntChars(dec *xml.Decoder, out *int) bool {
	tok, err := dec.Token()
	if err != nil {
		return false
	}
	chars, ok := tok.(xml.CharData)
	if !ok {
		return false
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(chars)))
	if err != nil {
		return false
	}
	*out = v
	return true
}

var mediaMime = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".emf":  "image/x-emf",
	".wmf":  "image/x-wmf",
	".svg":  "image/svg+xml",
}

func mimeForMediaPath(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "application/octet-stream"
	}
	ext := strings.ToLower(path[idx:])
	if m, ok := mediaMime[ext]; ok {
		return m
	}
	return "application/octet-stream"
}
