package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/exam-seating/internal/model"
)

var (
	ErrNoSheet       = errors.New("workbook has no sheets")
	ErrMissingColumn = errors.New("required column missing")
)

// RowError reports a data row that cannot be imported.  Row is 1-based as
// shown by spreadsheet applications.
type RowError struct {
	Row    int
	Reason string
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %s", e.Row, e.Reason) }

// ExamineeHeader is the header row of the import template.
var ExamineeHeader = []string{
	"Examinee Number",
	"ID Card Number",
	"Title",
	"First Name",
	"Last Name",
	"Gender",
	"Phone",
	"Email",
	"Nationality",
	"Special Needs",
}

// fields maps a normalised header to a setter on the examinee.
var fields = map[string]func(*model.Examinee, string){
	"examinee number": func(e *model.Examinee, v string) { e.ExamineeNumber = v },
	"id card number":  func(e *model.Examinee, v string) { e.IDCardNumber = v },
	"title":           func(e *model.Examinee, v string) { e.Title = v },
	"first name":      func(e *model.Examinee, v string) { e.FirstName = v },
	"last name":       func(e *model.Examinee, v string) { e.LastName = v },
	"gender":          func(e *model.Examinee, v string) { e.Gender = v },
	"phone":           func(e *model.Examinee, v string) { e.Phone = v },
	"email":           func(e *model.Examinee, v string) { e.Email = strings.ToLower(v) },
	"nationality":     func(e *model.Examinee, v string) { e.Nationality = v },
	"special needs": func(e *model.Examinee, v string) {
		if v != "" {
			e.SpecialNeeds = &v
		}
	},
}

var required = []string{"examinee number", "first name"}

func normaliseHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// ParseExaminees reads the first sheet of an xlsx workbook.  The first row
// is the header; blank rows are skipped.  Duplicate examinee numbers within
// the file are reported as a RowError.
func ParseExaminees(r io.Reader) ([]model.Examinee, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := map[int]string{}
	present := map[string]bool{}
	for i, h := range rows[0] {
		key := normaliseHeader(h)
		if _, ok := fields[key]; ok {
			columns[i] = key
			present[key] = true
		}
	}
	for _, key := range required {
		if !present[key] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, key)
		}
	}

	var (
		out  []model.Examinee
		seen = map[string]int{}
	)
	for i, row := range rows[1:] {
		rowNum := i + 2
		var e model.Examinee
		blank := true
		for col, v := range row {
			key, ok := columns[col]
			v = strings.TrimSpace(v)
			if !ok || v == "" {
				continue
			}
			blank = false
			fields[key](&e, v)
		}
		if blank {
			continue
		}
		if e.ExamineeNumber == "" {
			return nil, &RowError{Row: rowNum, Reason: "examinee number is empty"}
		}
		if e.FirstName == "" {
			return nil, &RowError{Row: rowNum, Reason: "first name is empty"}
		}
		if prev, dup := seen[e.ExamineeNumber]; dup {
			return nil, &RowError{Row: rowNum, Reason: fmt.Sprintf("examinee number %s already on row %d", e.ExamineeNumber, prev)}
		}
		seen[e.ExamineeNumber] = rowNum
		out = append(out, e)
	}
	return out, nil
}
