package erpexport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/odyssey-po/internal/recordstore"
)

const csvBufferSize = 32 * 1024

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "ERP"

var headers = []string{"Line", "Item Code", "Detail", "Project ID", "Quantity", "Unit Price"}

// WriteCSV writes rows with a header line and CRLF endings.
func WriteCSV(w io.Writer, rows []Row) error {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true

	if err := writer.Write(headers); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.LineNo),
			r.ItemCode,
			r.Detail,
			r.ProjectID,
			r.Quantity.String(),
			r.UnitPrice.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}

// WriteXLSX writes rows to a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("erpexport: rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("erpexport: header style: %w", err)
	}

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for idx, r := range rows {
		n := idx + 2
		cells := []struct {
			col   string
			value any
		}{
			{"A", r.LineNo},
			{"B", r.ItemCode},
			{"C", r.Detail},
			{"D", r.ProjectID},
			{"E", r.Quantity.InexactFloat64()},
			{"F", r.UnitPrice.InexactFloat64()},
		}
		for _, c := range cells {
			if err := f.SetCellValue(SheetName, fmt.Sprintf("%s%d", c.col, n), c.value); err != nil {
				return err
			}
		}
	}

	widths := []float64{6, 16, 28, 14, 10, 12}
	for i, wd := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, wd); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// Records converts rows into the erp_items subtable. Quantity and unit price
// are stored as text.
func Records(rows []Row, fields recordstore.FieldMap) []recordstore.Row {
	out := make([]recordstore.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, recordstore.Row{Value: recordstore.Record{
			fields.Code("erpItemCode"):   recordstore.Scalar(r.ItemCode),
			fields.Code("erpItemDetail"): recordstore.Scalar(r.Detail),
			fields.Code("erpProjectId"):  recordstore.Scalar(r.ProjectID),
			fields.Code("erpQuantity"):   recordstore.Scalar(r.Quantity.String()),
			fields.Code("erpUnitPrice"):  recordstore.Scalar(r.UnitPrice.String()),
		}})
	}
	return out
}
