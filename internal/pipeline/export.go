package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"classload/internal"
)

// ExportOfferingsToXLSX writes a review sheet of parsed offerings.
func ExportOfferingsToXLSX(rows []internal.OfferingExportRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{
		"load_id", "source_file", "school_year", "semester",
		"instructor", "course_code", "subject", "units",
		"department", "year_level", "block", "employment_type", "session_type",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.LoadID)
		set(2, row.SourceFile)
		set(3, row.SchoolYear)
		set(4, row.Semester)
		set(5, row.InstructorName)
		set(6, row.CourseCode)
		set(7, row.SubjectTitle)
		set(8, row.Units)
		set(9, row.Department)
		set(10, row.YearLevel)
		set(11, row.Block)
		set(12, string(row.EmploymentType))
		set(13, string(row.SessionType))
	}

	if err := f.AutoFilter(sheet, "A1:M1", nil); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// ExportRowsFromResult flattens a one-off parse for export.
func ExportRowsFromResult(sourceFile string, result internal.IngestResult) []internal.OfferingExportRow {
	out := make([]internal.OfferingExportRow, 0, len(result.Offerings))
	for _, o := range result.Offerings {
		out = append(out, internal.OfferingExportRow{
			SourceFile:     sourceFile,
			SchoolYear:     result.SchoolYear,
			Semester:       result.Semester,
			CourseOffering: o,
		})
	}
	return out
}
