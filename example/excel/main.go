package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/pflag"

	"github.com/ideamans/go-sheetrows"
	"github.com/ideamans/go-sheetrows/adapters/excel"
)

func main() {
	var (
		configFile string
		sheetID    int64
		importTo   int64
		filePath   string
	)
	pflag.StringVar(&configFile, "config", "", "Client configuration file, SHEETROWS_* variables override it.")
	pflag.Int64Var(&sheetID, "sheet", 0, "Sheet to export.")
	pflag.Int64Var(&importTo, "import-to", 0, "Sheet to load the exported rows into, skipped when zero.")
	pflag.StringVarP(&filePath, "file", "f", "./example_data.xlsx", "Workbook to write.")
	pflag.Parse()

	if sheetID == 0 {
		log.Fatal("--sheet is required")
	}

	config, err := sheetrows.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client := sheetrows.New(config)
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("Error closing client: %v", err)
		}
	}()

	ctx := context.Background()

	// 1. Export the sheet into a worksheet named after it
	exporter, err := excel.New(&excel.Config{FilePath: filePath})
	if err != nil {
		log.Fatalf("Failed to create Excel adapter: %v", err)
	}

	sheet, err := client.ExportSheet(ctx, sheetID, exporter)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	fmt.Printf("Exported %d rows of %q to %s\n", len(sheet.Rows), sheet.Name, filePath)

	if importTo == 0 {
		return
	}

	// 2. Read it back into another sheet with the same column titles
	reader, err := excel.New(&excel.Config{FilePath: filePath, SheetName: sheet.Name})
	if err != nil {
		log.Fatalf("Failed to create Excel adapter: %v", err)
	}

	result, _, err := client.ImportRows(ctx, importTo, reader)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Import finished with %s: %d added, %d failed\n",
		result.Message, len(result.Successes()), len(result.Failures()))
	for _, item := range result.Failures() {
		fmt.Printf("- row %d: %s\n", item.Index+1, item.Err.Message)
	}
}
