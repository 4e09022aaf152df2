//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ideamans/go-sheetrows"
	"github.com/ideamans/go-sheetrows/sheetrowstest"
)

// Environment is the client the suites run against. Server is set when the
// suites run against the in-process fake.
type Environment struct {
	Config *TestConfig
	Client *sheetrows.Client
	Server *sheetrowstest.Server
}

// NewEnvironment builds a client for the live API when a base URL is
// configured and starts a fake backend otherwise.
func NewEnvironment(config *TestConfig) *Environment {
	env := &Environment{Config: config}

	var clientConfig *sheetrows.Config
	if config.Live() {
		clientConfig = sheetrows.DefaultConfig()
		clientConfig.BaseURL = config.BaseURL
		clientConfig.AccessToken = config.AccessToken
	} else {
		env.Server = sheetrowstest.NewServer()
		clientConfig = env.Server.ClientConfig()
	}
	clientConfig.RequestTimeout = config.RequestTimeout
	clientConfig.MaxRetries = config.MaxRetries
	if config.DebugLogging {
		clientConfig.Logger = slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	env.Client = sheetrows.New(clientConfig)
	GinkgoWriter.Printf("Running against %s\n", env.Client.BaseURL())
	return env
}

// Close releases the client and stops the fake backend if one is running.
func (e *Environment) Close() {
	if err := e.Client.Close(); err != nil && !errors.Is(err, sheetrows.ErrClientClosed) {
		GinkgoWriter.Printf("Warning: failed to close client: %v\n", err)
	}
	if e.Server != nil {
		e.Server.Close()
	}
}

// SheetPayloadBuilder builds sheet definitions for testing.
type SheetPayloadBuilder struct {
	sheet *sheetrows.Sheet
}

// NewSheetPayload creates a sheet definition with a unique name and a
// primary text column, a status column and a checkbox column.
func NewSheetPayload(prefix string) *SheetPayloadBuilder {
	return &SheetPayloadBuilder{
		sheet: &sheetrows.Sheet{
			Name: fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8]),
			Columns: []*sheetrows.Column{
				{Title: "Primary Column", Primary: true, Type: sheetrows.ColumnTypeTextNumber},
				{Title: "Status", Type: sheetrows.ColumnTypeTextNumber},
				{Title: "Done", Type: sheetrows.ColumnTypeCheckbox},
			},
		},
	}
}

// Build indexes the columns in declaration order and returns the sheet.
func (b *SheetPayloadBuilder) Build() *sheetrows.Sheet {
	for i, col := range b.sheet.Columns {
		col.Index = i
	}
	return b.sheet
}

// SheetFixture is a created sheet with its column ids resolved.
type SheetFixture struct {
	Sheet           *sheetrows.Sheet
	PrimaryColumnID int64
	StatusColumnID  int64
	DoneColumnID    int64
}

// CreateSheetWithCleanup creates a sheet and registers its deletion with
// the enclosing node.
func CreateSheetWithCleanup(client *sheetrows.Client, ctx context.Context, payload *sheetrows.Sheet) *SheetFixture {
	sheet, resp, err := client.CreateSheet(ctx, payload)
	Expect(err).NotTo(HaveOccurred())
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	Expect(sheet.ID).NotTo(BeZero())
	GinkgoWriter.Printf("Created sheet %q with ID: %d\n", sheet.Name, sheet.ID)

	DeferCleanup(func() {
		GinkgoWriter.Printf("Cleaning up sheet: %d\n", sheet.ID)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, _, err := client.DeleteSheet(ctx, sheet.ID); err != nil {
			GinkgoWriter.Printf("Warning: Failed to delete sheet %d: %v\n", sheet.ID, err)
		}
	})

	fixture := &SheetFixture{Sheet: sheet}
	fixture.PrimaryColumnID = columnID(sheet, "Primary Column")
	fixture.StatusColumnID = columnID(sheet, "Status")
	fixture.DoneColumnID = columnID(sheet, "Done")
	Expect(sheet.PrimaryColumn()).NotTo(BeNil())
	Expect(sheet.PrimaryColumn().ID).To(Equal(fixture.PrimaryColumnID))

	return fixture
}

func columnID(sheet *sheetrows.Sheet, title string) int64 {
	col := sheet.ColumnByTitle(title)
	Expect(col).NotTo(BeNil(), "Expected column %q on sheet %d", title, sheet.ID)
	return col.ID
}

// NewRow returns a new row for the fixture with the primary cell set.
func (f *SheetFixture) NewRow(primary string) *sheetrows.Row {
	return sheetrows.NewRow(sheetrows.NewCell(f.PrimaryColumnID, primary))
}

// Reload fetches the current state of the sheet.
func (f *SheetFixture) Reload(client *sheetrows.Client, ctx context.Context) *sheetrows.Sheet {
	sheet, _, err := client.GetSheet(ctx, f.Sheet.ID)
	Expect(err).NotTo(HaveOccurred())
	return sheet
}

// RowCount returns the number of rows currently on the sheet.
func (f *SheetFixture) RowCount(client *sheetrows.Client, ctx context.Context) int {
	return len(f.Reload(client, ctx).Rows)
}

// VerifySuccess checks the envelope of a fully applied mutation.
func VerifySuccess(result sheetrows.Result, resp *sheetrows.Response) {
	Expect(resp).NotTo(BeNil())
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	Expect(result.Message).To(Equal(sheetrows.MessageSuccess))
	Expect(result.ResultCode).To(BeZero())
}

// VerifyPartialSuccess checks that exactly the items at failedIndexes failed
// and every other item succeeded.
func VerifyPartialSuccess(result *sheetrows.BulkItemResult, submitted int, failedIndexes ...int) {
	Expect(result.IsPartialSuccess()).To(BeTrue(), "Expected PARTIAL_SUCCESS, got %s", result.Message)
	Expect(result.ResultCode).To(Equal(sheetrows.ResultCodePartialSuccess))
	Expect(result.Items).To(HaveLen(submitted))

	failed := make([]int, 0, len(failedIndexes))
	for _, item := range result.Failures() {
		Expect(item.Err).NotTo(BeNil())
		failed = append(failed, item.Index)
	}
	Expect(failed).To(ConsistOf(failedIndexes))
	Expect(result.Successes()).To(HaveLen(submitted - len(failedIndexes)))
	for _, item := range result.Successes() {
		Expect(item.Row).NotTo(BeNil())
		Expect(item.Row.ID).NotTo(BeZero())
	}
}
