// Package export renders a learner's quest as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Tarunjit45/ExamGenius/internal/gamification"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
)

// ContentType is the MIME type of the workbook written by WritePlan.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names.
const (
	PlanSheet     = "Plan"
	ProgressSheet = "Progress"
)

var planHeader = []any{"Day", "Subject", "Topic", "Status", "Mission ID"}

// WritePlan writes p and the learner's progress as an xlsx workbook.
// The Plan sheet has one row per mission; a day without missions gets a
// single row with only the day number.
func WritePlan(w io.Writer, p plan.StudyPlan, profile gamification.Profile) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PlanSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writePlanSheet(f, p, bold); err != nil {
		return err
	}
	if err := writeProgressSheet(f, p, profile, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writePlanSheet(f *excelize.File, p plan.StudyPlan, headerStyle int) error {
	if err := setRow(f, PlanSheet, 1, planHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(PlanSheet, "A1", "E1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	row := 2
	for _, d := range p.Days {
		if len(d.Missions) == 0 {
			if err := setRow(f, PlanSheet, row, []any{d.Day}); err != nil {
				return err
			}
			row++
			continue
		}
		for _, m := range d.Missions {
			if err := setRow(f, PlanSheet, row, []any{d.Day, m.Subject, m.Topic, string(m.Status), m.ID}); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SetColWidth(PlanSheet, "B", "C", 32); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(PlanSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return nil
}

func writeProgressSheet(f *excelize.File, p plan.StudyPlan, profile gamification.Profile, headerStyle int) error {
	if _, err := f.NewSheet(ProgressSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	progress := gamification.Progress(profile)
	rows := [][]any{
		{"Level", profile.Level},
		{"XP", profile.XP},
		{"Missions completed", profile.MissionsCompleted},
		{"Next level at", progress.NextLevelXP},
		{},
		{"Subject", "Completed", "Total"},
	}
	for _, s := range p.Stats() {
		rows = append(rows, []any{s.Subject, s.Completed, s.Total})
	}
	for i, r := range rows {
		if err := setRow(f, ProgressSheet, i+1, r); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(ProgressSheet, "A6", "C6", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	if len(profile.Badges) > 0 {
		col := 5
		if err := setCell(f, ProgressSheet, col, 1, "Badges"); err != nil {
			return err
		}
		for i, b := range profile.Badges {
			if err := setCell(f, ProgressSheet, col, i+2, b.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
