package sheetrows_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ideamans/go-sheetrows"
	"github.com/ideamans/go-sheetrows/sheetrowstest"
)

// fixture is a sheet with a primary text column, a text column and a
// checkbox column.
type fixture struct {
	sheet   *sheetrows.Sheet
	primary int64
	status  int64
	done    int64
}

func newBackend(t *testing.T, opts ...sheetrowstest.Option) (*sheetrowstest.Server, *sheetrows.Client) {
	t.Helper()

	srv := sheetrowstest.NewServer(opts...)
	t.Cleanup(srv.Close)

	client := sheetrows.New(srv.ClientConfig())
	t.Cleanup(func() { _ = client.Close() })

	return srv, client
}

func newFixture(t *testing.T, client *sheetrows.Client, name string) fixture {
	t.Helper()

	sheet, _, err := client.CreateSheet(context.Background(), &sheetrows.Sheet{
		Name: name,
		Columns: []*sheetrows.Column{
			{Title: "Name", Primary: true},
			{Title: "Status"},
			{Title: "Done", Type: sheetrows.ColumnTypeCheckbox},
		},
	})
	require.NoError(t, err)
	require.Len(t, sheet.Columns, 3)

	return fixture{
		sheet:   sheet,
		primary: sheet.PrimaryColumn().ID,
		status:  sheet.ColumnByTitle("Status").ID,
		done:    sheet.ColumnByTitle("Done").ID,
	}
}

func (f fixture) row(name, status string) *sheetrows.Row {
	return sheetrows.NewRow(
		sheetrows.NewCell(f.primary, name),
		sheetrows.NewCell(f.status, status),
	)
}

func (f fixture) addRows(t *testing.T, client *sheetrows.Client, rows ...*sheetrows.Row) []*sheetrows.Row {
	t.Helper()

	result, _, err := client.AddRows(context.Background(), f.sheet.ID, rows...)
	require.NoError(t, err)
	require.Len(t, result.Rows, len(rows))
	return result.Rows
}

func rowCount(t *testing.T, client *sheetrows.Client, sheetID int64) int {
	t.Helper()

	sheet, _, err := client.GetSheet(context.Background(), sheetID)
	require.NoError(t, err)
	return sheet.TotalRowCount
}
