// Package export writes a loaded dataset to an XLSX workbook: one sheet with
// every school, one summary sheet per grouping and the narrated statistics.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/schooldash/internal/aggregate"
	"github.com/ppiankov/schooldash/internal/locale"
	"github.com/ppiankov/schooldash/internal/model"
	"github.com/ppiankov/schooldash/internal/narrate"
	"github.com/ppiankov/schooldash/internal/view"
)

// Sheet names. They stay in English so scripts can address them.
const (
	SheetSchools    = "Schools"
	SheetCategory   = "By category"
	SheetMedium     = "By medium"
	SheetDistrict   = "By district"
	SheetStatistics = "Statistics"
)

// Columns is the record column order of the schools sheet
var Columns = []model.Field{
	model.FieldSchoolName,
	model.FieldDistrict,
	model.FieldCategory,
	model.FieldEstablished,
	model.FieldMedium,
	model.FieldSubjects,
	model.FieldPincode,
	model.FieldDifferentlyAbled,
	model.FieldStudents,
	model.FieldStaff,
	model.FieldClassrooms,
	model.FieldPlayground,
	model.FieldEateries,
	model.FieldHospital,
	model.FieldRestrooms,
	model.FieldStatus,
}

var groupings = []struct {
	sheet string
	key   model.Field
}{
	{SheetCategory, model.FieldCategory},
	{SheetMedium, model.FieldMedium},
	{SheetDistrict, model.FieldDistrict},
}

// Write renders ds as a workbook to w. Headers and text values are
// translated through dict; numbers are written as numbers.
func Write(w io.Writer, ds *model.Dataset, dict *locale.Dictionary) error {
	if ds == nil {
		return fmt.Errorf("no dataset")
	}
	if dict == nil {
		return fmt.Errorf("no dictionary")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSchools); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSchools(f, ds, dict, header); err != nil {
		return err
	}

	for _, g := range groupings {
		if _, err := f.NewSheet(g.sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", g.sheet, err)
		}
		sums := aggregate.SummarizeAll(aggregate.GroupBy(ds.Records, g.key))
		if err := writeSummaries(f, g.sheet, g.key, sums, dict, header); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetStatistics); err != nil {
		return fmt.Errorf("create sheet %q: %w", SheetStatistics, err)
	}
	if err := writeStatistics(f, ds, dict, header); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSchools(f *excelize.File, ds *model.Dataset, dict *locale.Dictionary, header int) error {
	labels := make([]any, len(Columns))
	for i, col := range Columns {
		labels[i] = dict.Label(col)
	}
	if err := setRow(f, SheetSchools, 1, labels); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetSchools, 1, 1, header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range ds.Records {
		row := make([]any, len(Columns))
		for j, col := range Columns {
			if n, ok := r.Count(col); ok {
				row[j] = n
				continue
			}
			row[j] = dict.Value(r.Value(col))
		}
		if err := setRow(f, SheetSchools, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetSchools, "A", "A", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func writeSummaries(f *excelize.File, sheet string, key model.Field, sums []model.GroupSummary, dict *locale.Dictionary, header int) error {
	head := []any{
		dict.Label(key),
		dict.Label(model.FieldSchoolCount),
		dict.Label(model.FieldStudents),
		dict.Label(model.FieldStaff),
	}
	if err := setRow(f, sheet, 1, head); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, s := range sums {
		if err := setRow(f, sheet, i+2, []any{dict.Value(s.Key), s.Count, s.StudentSum, s.StaffSum}); err != nil {
			return err
		}
	}
	return nil
}

func writeStatistics(f *excelize.File, ds *model.Dataset, dict *locale.Dictionary, header int) error {
	if err := setRow(f, SheetStatistics, 1, []any{"#", dict.Title("statistic")}); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetStatistics, 1, 1, header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, sel := range view.Selections() {
		text, err := narrate.Narrate(int(sel), ds, dict)
		if err != nil {
			return fmt.Errorf("narrate view %d: %w", sel, err)
		}
		if err := setRow(f, SheetStatistics, i+2, []any{int(sel), text}); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetStatistics, "B", "B", 100); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
