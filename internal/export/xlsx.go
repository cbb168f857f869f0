package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
)

// SheetName is the worksheet holding exported results
const SheetName = "Results"

// WriteXLSX writes a workbook with a header row and one row per record
func WriteXLSX(w io.Writer, records []models.ExtractionRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for i, r := range rows(records) {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}

		write(1, r.SourceFilename)
		write(2, r.Title)
		write(3, r.Author)
		write(4, r.Year)
		write(5, r.OutputFilename)
		write(6, r.Copied)
		write(7, r.Error)
		write(8, r.ErrorKind)
		write(9, r.Provider)
		write(10, r.Model)
		write(11, r.Pages)
		write(12, r.RunID)
		write(13, r.Timestamp)
	}

	_ = f.SetColWidth(SheetName, "A", "A", 40) // source
	_ = f.SetColWidth(SheetName, "B", "B", 48) // title
	_ = f.SetColWidth(SheetName, "C", "C", 28) // author
	_ = f.SetColWidth(SheetName, "E", "E", 60) // output
	_ = f.SetColWidth(SheetName, "G", "G", 48) // error

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
