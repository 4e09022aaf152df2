//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ideamans/go-sheetrows"
	"github.com/ideamans/go-sheetrows/integration"
)

var _ = Describe("Row Operations", Ordered, func() {
	var (
		sheetA, sheetB *integration.SheetFixture
		addedRow       *sheetrows.Row
		literalRow     *sheetrows.Row
		copiedRowID    int64
	)

	BeforeAll(func() {
		sheetA = integration.CreateSheetWithCleanup(client, ctx, integration.NewSheetPayload("rows-a").Build())
		sheetB = integration.CreateSheetWithCleanup(client, ctx, integration.NewSheetPayload("rows-b").Build())

		// sheet B starts with one row of its own to move back later
		result, resp, err := client.AddRows(ctx, sheetB.Sheet.ID, sheetB.NewRow("Seed row on B"))
		Expect(err).NotTo(HaveOccurred())
		integration.VerifySuccess(result.Result, resp)
	})

	Context("When adding rows", func() {
		It("should add a row to the top with a server-assigned id", func() {
			result, resp, err := client.AddRows(ctx, sheetA.Sheet.ID, sheetA.NewRow("Here is a new row").PlaceAtTop())
			Expect(err).NotTo(HaveOccurred())
			integration.VerifySuccess(result.Result, resp)

			Expect(result.Rows).To(HaveLen(1))
			addedRow = result.Rows[0]
			Expect(addedRow.ID).NotTo(BeZero())
			Expect(addedRow.Value(sheetA.PrimaryColumnID).AsString("")).To(Equal("Here is a new row"))
		})

		It("should add a row built from a literal", func() {
			result, resp, err := client.AddRows(ctx, sheetA.Sheet.ID, &sheetrows.Row{
				ToTop: true,
				Cells: []*sheetrows.Cell{{
					ColumnID: sheetA.PrimaryColumnID,
					Value:    sheetrows.Value("Row added with dict"),
				}},
			})
			Expect(err).NotTo(HaveOccurred())
			integration.VerifySuccess(result.Result, resp)

			literalRow = result.Rows[0]
			sheet := sheetA.Reload(client, ctx)
			Expect(sheet.RowIDs()[0]).To(Equal(literalRow.ID))
		})

		It("should return one row per submitted row in order", func() {
			result, resp, err := client.AddRows(ctx, sheetB.Sheet.ID,
				sheetB.NewRow("first"), sheetB.NewRow("second"), sheetB.NewRow("third"))
			Expect(err).NotTo(HaveOccurred())
			integration.VerifySuccess(result.Result, resp)

			Expect(result.Rows).To(HaveLen(3))
			for i, want := range []string{"first", "second", "third"} {
				Expect(result.Rows[i].ID).NotTo(BeZero())
				Expect(result.Rows[i].Value(sheetB.PrimaryColumnID).AsString("")).To(Equal(want))
			}

			ids := make([]int64, 0, len(result.Rows))
			for _, row := range result.Rows {
				ids = append(ids, row.ID)
			}
			deleted, _, err := client.DeleteRows(ctx, sheetB.Sheet.ID, ids...)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted.RowIDs).To(ConsistOf(ids))
		})
	})

	Context("When copying and moving rows", func() {
		It("should copy a row to another sheet and keep the source", func() {
			beforeA := sheetA.RowCount(client, ctx)
			beforeB := sheetB.RowCount(client, ctx)

			result, resp, err := client.CopyRows(ctx, sheetA.Sheet.ID, sheetrows.CopyOrMoveRowDirective{
				RowIDs: []int64{addedRow.ID},
				To:     sheetrows.CopyOrMoveRowDestination{SheetID: sheetB.Sheet.ID},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			Expect(result.RowMappings).To(HaveLen(1))
			Expect(result.RowMappings[0].From).To(Equal(addedRow.ID))
			Expect(result.RowMappings[0].To).NotTo(BeZero())
			copiedRowID = result.RowMappings[0].To

			Expect(sheetA.RowCount(client, ctx)).To(Equal(beforeA))
			Expect(sheetB.RowCount(client, ctx)).To(Equal(beforeB + 1))
		})

		It("should move a row back from the destination sheet", func() {
			sheet := sheetB.Reload(client, ctx)
			Expect(sheet.Rows).NotTo(BeEmpty())
			seed := sheet.Rows[0]
			Expect(seed.ID).NotTo(Equal(copiedRowID))
			beforeA, beforeB := sheetA.RowCount(client, ctx), len(sheet.Rows)

			result, resp, err := client.MoveRows(ctx, sheetB.Sheet.ID, sheetrows.CopyOrMoveRowDirective{
				RowIDs: []int64{seed.ID},
				To:     sheetrows.CopyOrMoveRowDestination{SheetID: sheetA.Sheet.ID},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(result.RowMappings).To(HaveLen(1))

			Expect(sheetA.RowCount(client, ctx)).To(Equal(beforeA + 1))
			Expect(sheetB.RowCount(client, ctx)).To(Equal(beforeB - 1))
			Expect(sheetB.Reload(client, ctx).Row(seed.ID)).To(BeNil())
		})

		It("should get the copied row with its values", func() {
			row, resp, err := client.GetRow(ctx, sheetB.Sheet.ID, copiedRowID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(row.ID).To(Equal(copiedRowID))
			Expect(row.Value(sheetB.PrimaryColumnID).AsString("")).To(Equal("Here is a new row"))
		})
	})

	Context("When reading cell history", func() {
		It("should list the update first", func() {
			row, _, err := client.GetRow(ctx, sheetB.Sheet.ID, copiedRowID)
			Expect(err).NotTo(HaveOccurred())
			changed := row.Cells[0].ColumnID

			update := &sheetrows.Row{ID: row.ID}
			update.SetCell(changed, sheetrows.Value("Now for something completely different."))
			result, resp, err := client.UpdateRows(ctx, sheetB.Sheet.ID, update)
			Expect(err).NotTo(HaveOccurred())
			integration.VerifySuccess(result.Result, resp)

			history, _, err := client.GetCellHistory(ctx, sheetB.Sheet.ID, copiedRowID, changed)
			Expect(err).NotTo(HaveOccurred())
			Expect(len(history.Data)).To(BeNumerically(">=", 2))
			Expect(history.Data[0].ColumnID).To(Equal(changed))
			Expect(history.Data[0].Value.AsString("")).To(Equal("Now for something completely different."))
		})

		It("should keep the initial value and one entry per update, newest first", func() {
			seeded, _, err := client.AddRows(ctx, sheetB.Sheet.ID, sheetrows.NewRow(
				sheetrows.NewCell(sheetB.PrimaryColumnID, "history"),
				sheetrows.NewCell(sheetB.StatusColumnID, "initial"),
			))
			Expect(err).NotTo(HaveOccurred())
			rowID := seeded.Rows[0].ID

			values := []string{"one", "two", "three"}
			for _, v := range values {
				update := &sheetrows.Row{ID: rowID}
				update.SetCell(sheetB.StatusColumnID, sheetrows.Value(v))
				_, _, err := client.UpdateRows(ctx, sheetB.Sheet.ID, update)
				Expect(err).NotTo(HaveOccurred())
			}

			history, _, err := client.GetCellHistory(ctx, sheetB.Sheet.ID, rowID, sheetB.StatusColumnID)
			Expect(err).NotTo(HaveOccurred())
			if env.Server != nil {
				Expect(history.Data).To(HaveLen(len(values) + 1))
			} else {
				Expect(len(history.Data)).To(BeNumerically(">=", len(values)+1))
			}
			Expect(history.Data[0].Value.AsString("")).To(Equal("three"))
			Expect(history.Data[len(values)].Value.AsString("")).To(Equal("initial"))
			for i := 1; i < len(history.Data); i++ {
				if env.Server != nil {
					Expect(history.Data[i].ModifiedAt).To(BeTemporally("<", history.Data[i-1].ModifiedAt))
				} else {
					// the live API reports timestamps at second precision
					Expect(history.Data[i].ModifiedAt).NotTo(BeTemporally(">", history.Data[i-1].ModifiedAt))
				}
			}

			_, _, err = client.DeleteRows(ctx, sheetB.Sheet.ID, rowID)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("When sending rows", func() {
		It("should send every row and column of the sheet", func() {
			sheet := sheetB.Reload(client, ctx)
			email := sheetrows.MultiRowEmail{
				SendTo:             []sheetrows.Recipient{{Email: config.Recipient}},
				RowIDs:             sheet.RowIDs(),
				ColumnIDs:          sheet.ColumnIDs(),
				IncludeAttachments: false,
				IncludeDiscussions: false,
			}

			result, resp, err := client.SendRows(ctx, sheetB.Sheet.ID, email)
			Expect(err).NotTo(HaveOccurred())
			integration.VerifySuccess(*result, resp)

			if env.Server != nil {
				outbox := env.Server.Outbox()
				Expect(outbox).NotTo(BeEmpty())
				Expect(outbox[len(outbox)-1].RowIDs).To(Equal(email.RowIDs))
			}
		})
	})

	Context("When deleting rows", func() {
		It("should delete the added row so it can no longer be fetched", func() {
			result, resp, err := client.DeleteRows(ctx, sheetA.Sheet.ID, addedRow.ID)
			Expect(err).NotTo(HaveOccurred())
			integration.VerifySuccess(result.Result, resp)
			Expect(result.RowIDs).To(ConsistOf(addedRow.ID))

			_, resp, err = client.GetRow(ctx, sheetA.Sheet.ID, addedRow.ID)
			Expect(err).To(MatchError(sheetrows.ErrNotFound))
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("When updating rows", func() {
		It("should clear a cell with an explicit null and move the row to the bottom", func() {
			row, _, err := client.GetRow(ctx, sheetA.Sheet.ID, literalRow.ID)
			Expect(err).NotTo(HaveOccurred())

			update := &sheetrows.Row{
				ID:       row.ID,
				ToBottom: true,
				Cells:    []*sheetrows.Cell{sheetrows.ClearCell(row.Cells[0].ColumnID)},
			}
			result, resp, err := client.UpdateRows(ctx, sheetA.Sheet.ID, update)
			Expect(err).NotTo(HaveOccurred())
			integration.VerifySuccess(result.Result, resp)

			sheet := sheetA.Reload(client, ctx)
			ids := sheet.RowIDs()
			Expect(ids[len(ids)-1]).To(Equal(literalRow.ID))
			Expect(sheet.Row(literalRow.ID).Value(sheetA.PrimaryColumnID).HasValue()).To(BeFalse())
		})

		It("should set a value through the cell of a fetched row", func() {
			row, _, err := client.GetRow(ctx, sheetA.Sheet.ID, literalRow.ID)
			Expect(err).NotTo(HaveOccurred())

			cell := row.Cell(sheetA.PrimaryColumnID)
			if cell == nil {
				cell = &sheetrows.Cell{ColumnID: sheetA.PrimaryColumnID}
			}
			cell.Value = sheetrows.Value("sneaky, sis!")

			update := &sheetrows.Row{ID: row.ID}
			update.SetCell(sheetA.PrimaryColumnID, cell.Value)
			result, resp, err := client.UpdateRows(ctx, sheetA.Sheet.ID, update)
			Expect(err).NotTo(HaveOccurred())
			integration.VerifySuccess(result.Result, resp)

			updated, _, err := client.GetRow(ctx, sheetA.Sheet.ID, literalRow.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Value(sheetA.PrimaryColumnID).AsString("")).To(Equal("sneaky, sis!"))
		})

		It("should leave unlisted cells untouched", func() {
			seed := &sheetrows.Row{ID: literalRow.ID}
			seed.SetCell(sheetA.StatusColumnID, sheetrows.Value("open"))
			_, _, err := client.UpdateRows(ctx, sheetA.Sheet.ID, seed)
			Expect(err).NotTo(HaveOccurred())

			update := &sheetrows.Row{ID: literalRow.ID}
			update.SetCell(sheetA.DoneColumnID, sheetrows.Value(true))
			_, _, err = client.UpdateRows(ctx, sheetA.Sheet.ID, update)
			Expect(err).NotTo(HaveOccurred())

			row, _, err := client.GetRow(ctx, sheetA.Sheet.ID, literalRow.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Value(sheetA.StatusColumnID).AsString("")).To(Equal("open"))
			Expect(row.Value(sheetA.PrimaryColumnID).AsString("")).To(Equal("sneaky, sis!"))
			Expect(row.Value(sheetA.DoneColumnID).AsBool(false)).To(BeTrue())
		})
	})

	Context("When partial success is allowed", func() {
		It("should add the valid row and report the unknown column", func() {
			before := sheetA.RowCount(client, ctx)

			good := sheetA.NewRow("this is a good row")
			bad := sheetrows.NewRow(sheetrows.NewCell(123, "this is a bad row"))
			result, resp, err := client.AddRowsWithPartialSuccess(ctx, sheetA.Sheet.ID, good, bad)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			integration.VerifyPartialSuccess(result, 2, 1)

			Expect(sheetA.RowCount(client, ctx)).To(Equal(before + 1))
		})

		It("should update the existing row and report the unknown row", func() {
			good := &sheetrows.Row{ID: literalRow.ID}
			good.SetCell(sheetA.PrimaryColumnID, sheetrows.Value("this is a good row"))
			bad := &sheetrows.Row{ID: 123}
			bad.SetCell(sheetA.PrimaryColumnID, sheetrows.Value("this is a bad row"))

			result, resp, err := client.UpdateRowsWithPartialSuccess(ctx, sheetA.Sheet.ID, good, bad)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			integration.VerifyPartialSuccess(result, 2, 1)

			row, _, err := client.GetRow(ctx, sheetA.Sheet.ID, literalRow.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Value(sheetA.PrimaryColumnID).AsString("")).To(Equal("this is a good row"))
		})
	})

	Context("When strict mode meets an invalid row", func() {
		It("should reject the whole add", func() {
			before := sheetA.RowCount(client, ctx)

			_, resp, err := client.AddRows(ctx, sheetA.Sheet.ID,
				sheetA.NewRow("would be fine"),
				sheetrows.NewRow(sheetrows.NewCell(123, "unknown column")))
			Expect(err).To(MatchError(sheetrows.ErrInvalidRequest))
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			Expect(sheetA.RowCount(client, ctx)).To(Equal(before))
		})
	})
})
