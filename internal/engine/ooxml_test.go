package engine

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

// buildZip packages a name->content map into an in-memory ZIP archive,
// standing in for a minimal .xlsx package in tests.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip.Create(%s): %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write(%s): %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip.Close: %v", err)
	}
	return buf.Bytes()
}

const workbookXMLFixture = `<?xml version="1.0"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"
          xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets>
    <sheet name="Sheet1" sheetId="1" r:id="rId1"/>
    <sheet name="Sheet2" sheetId="2" r:id="rId2"/>
  </sheets>
</workbook>`

const workbookRelsFixture = `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
  <Relationship Id="rId2" Type="worksheet" Target="worksheets/sheet2.xml"/>
</Relationships>`

const sheet1RelsFixture = `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="drawing" Target="../drawings/drawing1.xml"/>
</Relationships>`

const drawing1Fixture = `<?xml version="1.0"?>
<xdr:wsDr xmlns:xdr="http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing"
          xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <xdr:twoCellAnchor>
    <xdr:from><xdr:col>1</xdr:col><xdr:row>2</xdr:row></xdr:from>
    <xdr:to><xdr:col>3</xdr:col><xdr:row>4</xdr:row></xdr:to>
    <xdr:pic>
      <xdr:blipFill><a:blip r:embed="rId1"/></xdr:blipFill>
    </xdr:pic>
  </xdr:twoCellAnchor>
</xdr:wsDr>`

const drawing1RelsFixture = `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="image" Target="../media/image1.png"/>
</Relationships>`

func baseFixture() map[string]string {
	return map[string]string{
		"xl/workbook.xml":                         workbookXMLFixture,
		"xl/_rels/workbook.xml.rels":               workbookRelsFixture,
		"xl/worksheets/sheet1.xml":                 "<worksheet/>",
		"xl/worksheets/sheet2.xml":                 "<worksheet/>",
		"xl/worksheets/_rels/sheet1.xml.rels":      sheet1RelsFixture,
		"xl/drawings/drawing1.xml":                 drawing1Fixture,
		"xl/drawings/_rels/drawing1.xml.rels":      drawing1RelsFixture,
		"xl/media/image1.png":                      "png-bytes-1",
		"xl/media/image2.png":                      "png-bytes-unreferenced",
	}
}

func TestExtractOOXML_AnchoredImageWithoutFilter(t *testing.T) {
	data := buildZip(t, baseFixture())
	pkg, err := openOOXML(data)
	if err != nil {
		t.Fatalf("openOOXML: %v", err)
	}

	images, err := extractOOXML(pkg, "")
	if err != nil {
		t.Fatalf("extractOOXML: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images (1 anchored + 1 unreferenced), got %d", len(images))
	}
	if images[0].mediaPath != "xl/media/image1.png" {
		t.Errorf("expected image1.png first, got %s", images[0].mediaPath)
	}
	if len(images[0].positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(images[0].positions))
	}
	pos := images[0].positions[0]
	if pos.Sheet != "Sheet1" || pos.FromCol != 1 || pos.FromRow != 2 || pos.ToCol != 3 || pos.ToRow != 4 {
		t.Errorf("unexpected position: %+v", pos)
	}
	if images[1].mediaPath != "xl/media/image2.png" || len(images[1].positions) != 0 {
		t.Errorf("expected unreferenced image2.png with no positions, got %+v", images[1])
	}
}

func TestExtractOOXML_SheetFilterDropsUnreferencedMedia(t *testing.T) {
	data := buildZip(t, baseFixture())
	pkg, err := openOOXML(data)
	if err != nil {
		t.Fatalf("openOOXML: %v", err)
	}

	images, err := extractOOXML(pkg, "Sheet1")
	if err != nil {
		t.Fatalf("extractOOXML: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected only the anchored image under a sheet filter, got %d", len(images))
	}
	if images[0].mediaPath != "xl/media/image1.png" {
		t.Errorf("unexpected image: %s", images[0].mediaPath)
	}
}

func TestExtractOOXML_FilterOnOtherSheetFindsNothing(t *testing.T) {
	data := buildZip(t, baseFixture())
	pkg, err := openOOXML(data)
	if err != nil {
		t.Fatalf("openOOXML: %v", err)
	}

	images, err := extractOOXML(pkg, "Sheet2")
	if err != nil {
		t.Fatalf("extractOOXML: %v", err)
	}
	if len(images) != 0 {
		t.Errorf("expected no images for Sheet2, got %d", len(images))
	}
}

func TestExtractOOXML_UnknownSheetFilterErrors(t *testing.T) {
	data := buildZip(t, baseFixture())
	pkg, err := openOOXML(data)
	if err != nil {
		t.Fatalf("openOOXML: %v", err)
	}

	_, err = extractOOXML(pkg, "NoSuchSheet")
	if err == nil {
		t.Fatal("expected an error for an unknown sheet filter")
	}
	var engErr *Error
	if !errors.As(err, &engErr) || engErr.Kind != ErrInvalidRequest {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestResolveRelPath(t *testing.T) {
	cases := []struct {
		baseDir, target, want string
	}{
		{"xl/worksheets", "../drawings/drawing1.xml", "xl/drawings/drawing1.xml"},
		{"xl/drawings", "../media/image1.png", "xl/media/image1.png"},
		{"xl", "worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"", "/xl/workbook.xml", "xl/workbook.xml"},
	}
	for _, c := range cases {
		if got := resolveRelPath(c.baseDir, c.target); got != c.want {
			t.Errorf("resolveRelPath(%q, %q) = %q, want %q", c.baseDir, c.target, got, c.want)
		}
	}
}
