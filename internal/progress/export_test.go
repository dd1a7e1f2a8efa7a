package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestExportReviewNotes(t *testing.T) {
	notes := []ReviewNote{
		{
			Part:        "PART1 감사의 기초",
			Chapter:     "ch1~2",
			Standard:    "200",
			Title:       "감사의 목적",
			Question:    "감사의 전반적인 목적을 설명하시오.",
			ModelAnswer: "합리적 확신을 얻어 의견을 표명한다.",
			Score:       4.5,
			CreatedAt:   time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			Part:     "PART2 위험평가",
			Chapter:  "ch4",
			Standard: "320",
			Title:    "중요성",
			Score:    2.0,
		},
	}

	var buf bytes.Buffer
	if err := ExportReviewNotes(&buf, notes); err != nil {
		t.Fatalf("ExportReviewNotes() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("오답노트")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want header plus 2 notes", len(rows))
	}
	if rows[0][0] != "Part" {
		t.Errorf("header[0] = %q, want Part", rows[0][0])
	}
	if rows[1][3] != "감사의 목적" {
		t.Errorf("first note title = %q, want 감사의 목적", rows[1][3])
	}
	if rows[2][2] != "320" {
		t.Errorf("second note standard = %q, want 320", rows[2][2])
	}
}

func TestExportLeaderboard(t *testing.T) {
	entries := []Entry{
		{Username: "park", Role: RoleAdmin, Level: 5, Experience: 410},
		{Username: "kim", Role: RoleMember, Level: 3, Experience: 250},
	}

	var buf bytes.Buffer
	if err := ExportLeaderboard(&buf, entries); err != nil {
		t.Fatalf("ExportLeaderboard() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("랭킹")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want header plus 2 entries", len(rows))
	}
	if rows[1][0] != "1" || rows[1][1] != "park" {
		t.Errorf("first entry = %v, want rank 1 park", rows[1])
	}
	if rows[2][2] != RoleMember.DisplayName() {
		t.Errorf("second entry role = %q, want display name", rows[2][2])
	}
}

func TestExportReviewNotesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportReviewNotes(&buf, nil); err != nil {
		t.Fatalf("ExportReviewNotes() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("workbook is empty, want header-only sheet")
	}
}
