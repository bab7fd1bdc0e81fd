// Command excelimg-mcp runs a JSON-RPC-over-stdio MCP server exposing the
// image engine and its collaborators as three tools: read_excel,
// list_sheets, and get_excel_images.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"excelimg/internal/engine"
	"excelimg/internal/errlog"
	"excelimg/internal/sheetlist"
	"excelimg/internal/tabular"
)

func main() {
	if err := errlog.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: error log unavailable: %v\n", err)
	}
	defer errlog.Close()

	s := server.NewMCPServer("excelimg-mcp", "1.0.0")
	registerTools(s)

	if err := server.ServeStdio(s); err != nil {
		errlog.Logf("stdio server exited: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func registerTools(s *server.MCPServer) {
	registerReadExcel(s)
	registerListSheets(s)
	registerGetExcelImages(s)
}

// --- list_sheets ---

type listSheetsInput struct {
	Path string `json:"path" jsonschema_description:"Path to the .xlsx or .xls workbook"`
}

func registerListSheets(s *server.MCPServer) {
	tool := mcp.NewTool("list_sheets",
		mcp.WithDescription("List the worksheet names in an Excel workbook"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .xlsx or .xls workbook")),
	)
	s.AddTool(tool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in listSheetsInput) (*mcp.CallToolResult, error) {
		path := strings.TrimSpace(in.Path)
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		names, err := sheetlist.List(path)
		if err != nil {
			errlog.Logf("list_sheets %s: %v", path, err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, _ := json.Marshal(names)
		return mcp.NewToolResultText(string(data)), nil
	}))
}

// --- read_excel ---

type readExcelInput struct {
	Path     string `json:"path" jsonschema_description:"Path to the .xlsx or .xls workbook"`
	Sheet    string `json:"sheet" jsonschema_description:"Sheet name to read"`
	StartRow int    `json:"startRow,omitempty" jsonschema_description:"0-based row offset"`
	MaxRows  int    `json:"maxRows,omitempty" jsonschema_description:"Maximum rows to return in this chunk"`
}

func registerReadExcel(s *server.MCPServer) {
	tool := mcp.NewTool("read_excel",
		mcp.WithDescription("Read a chunk of rows from a worksheet as objects keyed by the header row"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .xlsx or .xls workbook")),
		mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet name to read")),
		mcp.WithNumber("startRow", mcp.DefaultNumber(0), mcp.Description("0-based row offset")),
		mcp.WithNumber("maxRows", mcp.DefaultNumber(200), mcp.Description("Maximum rows to return in this chunk")),
	)
	s.AddTool(tool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in readExcelInput) (*mcp.CallToolResult, error) {
		path := strings.TrimSpace(in.Path)
		sheet := strings.TrimSpace(in.Sheet)
		if path == "" || sheet == "" {
			return mcp.NewToolResultError("path and sheet are required"), nil
		}
		maxRows := in.MaxRows
		if maxRows <= 0 {
			maxRows = 200
		}

		rows, err := tabular.ReadSheet(path, sheet, in.StartRow, maxRows)
		if err != nil {
			errlog.Logf("read_excel %s!%s: %v", path, sheet, err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		// A chunk that starts past the first row still takes its keys from
		// the sheet's header row.
		var header []tabular.Row
		if in.StartRow > 0 {
			header, err = tabular.ReadSheet(path, sheet, 0, 1)
			if err != nil {
				errlog.Logf("read_excel header %s!%s: %v", path, sheet, err)
				return mcp.NewToolResultError(err.Error()), nil
			}
		}

		objects := rowsToObjects(append(header, rows...))
		// Keep the serialized chunk near 100 KiB: halve maxRows and
		// re-read if the first attempt came back oversized.
		data, err := json.Marshal(objects)
		for err == nil && len(data) > 100*1024 && len(rows) > 1 {
			maxRows = len(rows) / 2
			rows, err = tabular.ReadSheet(path, sheet, in.StartRow, maxRows)
			if err != nil {
				break
			}
			objects = rowsToObjects(append(header, rows...))
			data, err = json.Marshal(objects)
		}
		if err != nil {
			errlog.Logf("read_excel encode %s!%s: %v", path, sheet, err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}))
}

// rowsToObjects keys every row's values by the first row's cell text,
// falling back to a 1-based column label when the header row has fewer
// columns than a later row.
func rowsToObjects(rows []tabular.Row) []map[string]string {
	if len(rows) == 0 {
		return nil
	}
	header := rows[0]
	colName := func(col int) string {
		if name, ok := header.Cells[col]; ok {
			return name
		}
		return fmt.Sprintf("col%d", col+1)
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		obj := make(map[string]string, len(row.Cells))
		for col, val := range row.Cells {
			obj[colName(col)] = val
		}
		out = append(out, obj)
	}
	return out
}

// --- get_excel_images ---

type getExcelImagesInput struct {
	Path  string `json:"path" jsonschema_description:"Path to the .xlsx or .xls workbook"`
	Sheet string `json:"sheet,omitempty" jsonschema_description:"Optional sheet name filter"`
}

type imageMetaEntry struct {
	Name      string                 `json:"name"`
	MimeType  string                 `json:"mimeType"`
	Positions []engine.ImagePosition `json:"positions"`
}

type imagesMetadata struct {
	FileName   string           `json:"fileName"`
	ImageCount int              `json:"imageCount"`
	Images     []imageMetaEntry `json:"images"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// metafileMimes are the image MIME types that are informational-only in
// the metadata block; no image content block is emitted for them since
// most MCP clients can't render EMF/WMF/PICT inline.
var metafileMimes = map[string]bool{
	"image/x-emf": true,
	"image/x-wmf": true,
	"image/pict":  true,
}

func registerGetExcelImages(s *server.MCPServer) {
	tool := mcp.NewTool("get_excel_images",
		mcp.WithDescription("Extract embedded images from an Excel workbook, correlated with their cell anchors"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .xlsx or .xls workbook")),
		mcp.WithString("sheet", mcp.Description("Optional sheet name filter")),
	)
	s.AddTool(tool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in getExcelImagesInput) (*mcp.CallToolResult, error) {
		path := strings.TrimSpace(in.Path)
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}

		result, err := engine.Extract(engine.ExtractionRequest{FilePath: path, SheetName: in.Sheet})
		if err != nil {
			errlog.Logf("get_excel_images %s: %v", path, err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		meta := imagesMetadata{
			FileName:   filepath.Base(path),
			ImageCount: len(result.Images),
		}
		var hasMetafile bool
		for _, img := range result.Images {
			meta.Images = append(meta.Images, imageMetaEntry{
				Name:      img.Name,
				MimeType:  img.MimeType,
				Positions: img.Positions,
			})
			if metafileMimes[img.MimeType] {
				hasMetafile = true
			}
		}
		if hasMetafile {
			meta.Warnings = append(meta.Warnings, "one or more EMF/WMF/PICT images were omitted from image content blocks")
		}
		if result.Truncated {
			meta.Warnings = append(meta.Warnings, "image payload truncated at the 10 MiB cumulative budget")
		}

		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		content := []mcp.Content{mcp.NewTextContent(string(metaJSON))}
		for _, img := range result.Images {
			if metafileMimes[img.MimeType] {
				continue
			}
			if _, err := base64.StdEncoding.DecodeString(img.DataBase64); err != nil {
				continue
			}
			content = append(content, mcp.NewImageContent(img.DataBase64, img.MimeType))
		}

		return &mcp.CallToolResult{Content: content}, nil
	}))
}
