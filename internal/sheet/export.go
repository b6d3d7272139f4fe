// Package sheet reads examinee lists from and writes seating plans to xlsx
// workbooks.
package sheet

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/exam-seating/internal/model"
)

const summarySheet = "Summary"

// RoomHeader is the header row of every per-room sheet.
var RoomHeader = []string{
	"Seat No.",
	"Row",
	"Col",
	"Examinee No.",
	"Name",
	"ID Card",
	"Special Needs",
}

var roomColWidths = []float64{10, 8, 8, 16, 32, 18, 24}

// ExportPlan writes a workbook with a summary sheet and one sheet per room.
// Seats must be ordered by seat number; rooms appear in first-seen order.
func ExportPlan(plan model.SeatingPlan, seats []model.SeatListing) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	header, err := headerStyle(f)
	if err != nil {
		return nil, err
	}
	if err := writeSummary(f, plan, header); err != nil {
		return nil, err
	}

	used := map[string]bool{strings.ToLower(summarySheet): true}
	var (
		order  []string
		byRoom = map[string][]model.SeatListing{}
		names  = map[string]string{}
	)
	for _, s := range seats {
		if _, ok := byRoom[s.RoomID]; !ok {
			order = append(order, s.RoomID)
			names[s.RoomID] = s.RoomName
		}
		byRoom[s.RoomID] = append(byRoom[s.RoomID], s)
	}
	for _, roomID := range order {
		name := sheetName(names[roomID], used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeRoom(f, name, byRoom[roomID], header); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func headerStyle(f *excelize.File) (int, error) {
	id, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return 0, fmt.Errorf("create header style: %w", err)
	}
	return id, nil
}

func writeSummary(f *excelize.File, plan model.SeatingPlan, style int) error {
	rows := [][]any{
		{"Plan", plan.PlanName},
		{"Session", plan.SessionID},
		{"Seating pattern", plan.SeatingPattern},
		{"Direction", plan.Direction},
		{"Rooms", plan.ExamRoomName},
		{"Seated examinees", plan.ExamCount},
		{"Requested", plan.TotalExaminees},
		{"Created", plan.CreatedAt.Format("2006-01-02 15:04:05")},
	}
	for i, r := range rows {
		if err := setRow(f, summarySheet, i+1, r); err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetCellStyle(summarySheet, cell, cell, style); err != nil {
			return fmt.Errorf("style summary: %w", err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 24)
}

func writeRoom(f *excelize.File, sheet string, seats []model.SeatListing, style int) error {
	header := make([]any, len(RoomHeader))
	for i, h := range RoomHeader {
		header[i] = h
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(RoomHeader), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, w := range roomColWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	for i, s := range seats {
		needs := ""
		if s.Examinee.SpecialNeeds != nil {
			needs = *s.Examinee.SpecialNeeds
		}
		row := []any{s.SeatNumber, s.SeatRow, s.SeatCol, s.Examinee.ExamineeNumber,
			s.Examinee.FullName(), s.Examinee.IDCardNumber, needs}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d of %q: %w", row, sheet, err)
	}
	return nil
}

// sheetName makes a unique, valid worksheet name from a room name.
func sheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = "Room"
	}
	clean = truncate(clean, 31)

	candidate := clean
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncate(clean, 31-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
