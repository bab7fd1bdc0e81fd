// Command excelimg extracts embedded raster images from an Excel workbook
// (.xlsx or .xls) and prints them, base64-encoded and correlated with
// their cell anchors, as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"excelimg/internal/engine"
	"excelimg/internal/errlog"
	"excelimg/internal/sheetlist"
)

func main() {
	if err := errlog.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: error log unavailable: %v\n", err)
	}
	defer errlog.Close()

	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "help", "-h", "--help":
			printUsage()
			return
		case "sheets":
			runSheets(os.Args[2:])
			return
		}
	}

	runExtract(os.Args[1:])
}

func printUsage() {
	fmt.Println(`excelimg - extract embedded images from an Excel workbook

Usage:
  excelimg <file> [--sheet NAME]    extract images, print JSON to stdout
  excelimg sheets <file>            list sheet names
  excelimg help                     show this message`)
}

// parseSheetFlag extracts the --sheet/-sheet flag from args, returning the
// remaining positional arguments.
func parseSheetFlag(args []string) (sheet string, rest []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case strings.HasPrefix(arg, "--sheet="):
			sheet = strings.TrimPrefix(arg, "--sheet=")
		case strings.HasPrefix(arg, "-sheet="):
			sheet = strings.TrimPrefix(arg, "-sheet=")
		case arg == "--sheet" || arg == "-sheet":
			if i+1 < len(args) {
				sheet = args[i+1]
				i++
			}
		default:
			rest = append(rest, arg)
		}
	}
	return sheet, rest
}

func runExtract(args []string) {
	sheet, rest := parseSheetFlag(args)
	if len(rest) < 1 {
		printUsage()
		os.Exit(2)
	}
	filePath := rest[0]

	result, err := engine.Extract(engine.ExtractionRequest{FilePath: filePath, SheetName: sheet})
	if err != nil {
		errlog.Logf("extract %s: %v", filePath, err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		errlog.Logf("encode result for %s: %v", filePath, err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSheets(args []string) {
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}
	names, err := sheetlist.List(args[0])
	if err != nil {
		errlog.Logf("list sheets %s: %v", args[0], err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, name := range names {
		fmt.Println(name)
	}
}
