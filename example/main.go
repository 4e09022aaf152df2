package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/pflag"

	"github.com/ideamans/go-sheetrows"
	"github.com/ideamans/go-sheetrows/adapters/googlesheets"
)

type options struct {
	configFile    string
	sheetID       int64
	status        string
	spreadsheetID string
	tab           string
	keyFile       string
}

func (o *options) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.configFile, "config", "", "Client configuration file, SHEETROWS_* variables override it.")
	f.Int64Var(&o.sheetID, "sheet", 0, "Sheet to work on.")
	f.StringVar(&o.status, "status", "", "Only list rows whose Status column has this value.")
	f.StringVar(&o.spreadsheetID, "spreadsheet-id", "", "Google spreadsheet to mirror the sheet into.")
	f.StringVar(&o.tab, "tab", "rows", "Tab of the Google spreadsheet.")
	f.StringVar(&o.keyFile, "key-file", "", "Service account key, defaults to GOOGLE_APPLICATION_CREDENTIALS.")
}

func main() {
	o := &options{}
	o.AddFlags(pflag.CommandLine)
	pflag.Parse()

	if err := run(o); err != nil {
		log.Fatal(err)
	}
}

func run(o *options) error {
	ctx := context.Background()

	if o.sheetID == 0 {
		return fmt.Errorf("--sheet is required")
	}

	config, err := sheetrows.LoadConfig(o.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client := sheetrows.New(config)
	defer client.Close()

	// Add a row at the top
	sheet, _, err := client.GetSheet(ctx, o.sheetID)
	if err != nil {
		return err
	}
	primary := sheet.PrimaryColumn()
	added, _, err := client.AddRows(ctx, sheet.ID,
		sheetrows.NewRow(sheetrows.NewCell(primary.ID, "Added from the example")).PlaceAtTop(),
	)
	if err != nil {
		return fmt.Errorf("failed to add row: %w", err)
	}
	fmt.Printf("Added row %d\n", added.Rows[0].ID)

	// Clear the cell again and move the row to the bottom
	_, _, err = client.UpdateRows(ctx, sheet.ID, &sheetrows.Row{
		ID:       added.Rows[0].ID,
		ToBottom: true,
		Cells:    []*sheetrows.Cell{sheetrows.ClearCell(primary.ID)},
	})
	if err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}

	sheet, _, err = client.GetSheet(ctx, o.sheetID)
	if err != nil {
		return err
	}

	rows := sheet.Rows
	if status := sheet.ColumnByTitle("Status"); status != nil && o.status != "" {
		rows, err = sheet.FindRows(sheetrows.Query{
			Conditions: []sheetrows.Condition{
				{ColumnID: status.ID, Operator: "==", Value: o.status},
			},
		})
		if err != nil {
			return err
		}
	}

	fmt.Printf("%s has %d matching rows:\n", sheet.Name, len(rows))
	for _, row := range rows {
		fmt.Printf("  Row %d: %s\n", row.RowNumber, row.Value(primary.ID).AsString("(empty)"))
	}

	if o.spreadsheetID == "" {
		return nil
	}

	adapter, err := googlesheets.NewWithJSONKeyFile(ctx, googlesheets.Config{
		SpreadsheetID: o.spreadsheetID,
		SheetName:     o.tab,
	}, o.keyFile)
	if err != nil {
		return fmt.Errorf("failed to create adapter: %w", err)
	}

	if _, err := client.ExportSheet(ctx, sheet.ID, adapter); err != nil {
		return err
	}
	fmt.Printf("Mirrored %d rows into %s/%s\n", sheet.TotalRowCount, o.spreadsheetID, o.tab)

	return nil
}
