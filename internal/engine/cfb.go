package engine

import (
	"bytes"
	"fmt"
	"io"

	"github.com/richardlehane/mscfb"
)

// openWorkbookStream opens an OLE2 compound file and returns the bytes of
// its root-level /Workbook stream (or /Book, the older BIFF5/7 name);
// whichever of the two the directory walk reaches first is returned. CFB
// parsing itself is delegated to mscfb.
func openWorkbookStream(data []byte) (stream []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			stream = nil
			err = newErr(ErrInvalidFormat, fmt.Sprintf("panic opening compound file: %v", r), nil)
		}
	}()

	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, newErr(ErrInvalidFormat, "not a readable OLE2 compound file", err)
	}

	for {
		entry, nextErr := doc.Next()
		if nextErr != nil {
			break
		}
		if len(entry.Path) != 0 {
			// Workbook/Book streams sit at the root of the compound file.
			continue
		}
		if entry.Name == "Workbook" || entry.Name == "Book" {
			buf, readErr := io.ReadAll(entry)
			if readErr != nil {
				return nil, newErr(ErrInvalidFormat, "failed reading /"+entry.Name+" stream", readErr)
			}
			return buf, nil
		}
	}

	return nil, newErr(ErrInvalidFormat, "missing /Workbook or /Book stream", nil)
}
