package engine

import (
	"sort"
	"strings"
)

// ooxmlImage is one image discovered while walking the OOXML drawing
// graph, keyed by its resolved xl/media/* archive path.
type ooxmlImage struct {
	mediaPath string
	mime      string
	data      []byte
	positions []ImagePosition
}

// extractOOXML resolves sheet → drawing → image relationships and
// twoCellAnchor/oneCellAnchor elements, restricted to the optional sheet
// filter.
func extractOOXML(pkg *ooxmlPackage, sheetFilter string) ([]ooxmlImage, error) {
	sheets, err := pkg.loadSheetList()
	if err != nil {
		return nil, err
	}

	if sheetFilter != "" {
		found := false
		for _, s := range sheets {
			if s.name == sheetFilter {
				found = true
				break
			}
		}
		if !found {
			return nil, newErr(ErrInvalidRequest, "sheet not found: "+sheetFilter, nil)
		}
	}

	var order []string // first-seen media path order
	byPath := make(map[string]*ooxmlImage)

	for _, sheet := range sheets {
		if sheetFilter != "" && sheet.name != sheetFilter {
			continue
		}

		sheetRels := pkg.loadRelationships(relsPathFor(sheet.path))
		sheetDir := archiveDir(sheet.path)

		for _, target := range sheetRels {
			if !strings.Contains(target, "drawing") {
				continue
			}
			drawingPath := resolveRelPath(sheetDir, target)
			drawingXML, ok := pkg.bytes(drawingPath)
			if !ok {
				continue
			}
			drawingRels := pkg.loadRelationships(relsPathFor(drawingPath))
			drawingDir := archiveDir(drawingPath)

			for _, anchor := range parseDrawingAnchors(drawingXML) {
				for _, rid := range anchor.embeds {
					mediaTarget, ok := drawingRels[rid]
					if !ok {
						continue
					}
					mediaPath := resolveRelPath(drawingDir, mediaTarget)

					img, exists := byPath[mediaPath]
					if !exists {
						data, ok := pkg.bytes(mediaPath)
						if !ok {
							continue
						}
						img = &ooxmlImage{
							mediaPath: mediaPath,
							mime:      mimeForMediaPath(mediaPath),
							data:      data,
						}
						byPath[mediaPath] = img
						order = append(order, mediaPath)
					}
					img.positions = append(img.positions, ImagePosition{
						Sheet:   sheet.name,
						FromCol: anchor.fromCol,
						FromRow: anchor.fromRow,
						ToCol:   anchor.toCol,
						ToRow:   anchor.toRow,
					})
				}
			}
		}
	}

	out := make([]ooxmlImage, 0, len(order))
	for _, p := range order {
		out = append(out, *byPath[p])
	}

	// Only when no sheet filter is active, append unreferenced xl/media/*
	// entries in a deterministic (sorted) order.
	if sheetFilter == "" {
		var unreferenced []string
		for _, name := range pkg.names() {
			if !strings.HasPrefix(name, "xl/media/") {
				continue
			}
			if _, seen := byPath[name]; seen {
				continue
			}
			unreferenced = append(unreferenced, name)
		}
		sort.Strings(unreferenced)
		for _, name := range unreferenced {
			data, ok := pkg.bytes(name)
			if !ok {
				continue
			}
			out = append(out, ooxmlImage{
				mediaPath: name,
				mime:      mimeForMediaPath(name),
				data:      data,
			})
		}
	}

	return out, nil
}
