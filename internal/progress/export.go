package progress

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExportReviewNotes writes a user's review notes as an XLSX workbook, one
// row per note, for offline study.
func ExportReviewNotes(w io.Writer, notes []ReviewNote) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "오답노트"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	headers := []string{"Part", "Chapter", "기준서", "제목", "문제", "모범 답안", "해설", "점수", "저장일"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for row, n := range notes {
		values := []any{
			n.Part,
			n.Chapter,
			n.Standard,
			n.Title,
			n.Question,
			n.ModelAnswer,
			n.Explanation,
			n.Score,
			n.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("note cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("writing note row %d: %w", row+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// ExportLeaderboard writes the ranking as an XLSX workbook for the admin
// page.
func ExportLeaderboard(w io.Writer, entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "랭킹"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	headers := []string{"순위", "사용자", "등급", "레벨", "경험치"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for row, e := range entries {
		values := []any{row + 1, e.Username, e.Role.DisplayName(), e.Level, e.Experience}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("entry cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("writing entry row %d: %w", row+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
