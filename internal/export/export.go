// Package export writes the proposal log as an xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"proposalbot/internal/store"
)

const sheetName = "Proposals Log"

var headers = []string{"Submitted By", "Client Name", "Date Generated", "Package Type", "Locations", "Total Amount"}

// Workbook builds an xlsx workbook from log entries, newest first as given.
func Workbook(entries []store.Entry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheetName, "A", "F", 24); err != nil {
		return nil, err
	}

	for row, e := range entries {
		values := []interface{}{
			e.SubmittedBy,
			e.ClientName,
			e.DateGenerated.Format("2006-01-02 15:04:05"),
			e.PackageType,
			e.Locations,
			e.TotalAmount,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

// Write streams the workbook for the given entries to w.
func Write(entries []store.Entry, w io.Writer) error {
	f, err := Workbook(entries)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook for the given entries at path.
func WriteFile(entries []store.Entry, path string) error {
	f, err := Workbook(entries)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
