// Package layouts provides the predefined room templates offered when a new
// exam room is created.
package layouts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/seating"
)

//go:embed templates.yaml
var builtin []byte

// Run is a straight line of seats: either one row across a set of columns
// or one column down a set of rows.  Spans use "a-b,c" notation.
type Run struct {
	Row  int    `yaml:"row,omitempty"`
	Col  int    `yaml:"col,omitempty"`
	Rows string `yaml:"rows,omitempty"`
	Cols string `yaml:"cols,omitempty"`
}

// Template is one predefined layout.
type Template struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	RoomNumber  string `yaml:"room_number" json:"room_number"`
	Description string `yaml:"description" json:"description,omitempty"`
	Type        string `yaml:"type" json:"type"`
	Rows        int    `yaml:"rows" json:"rows"`
	Cols        int    `yaml:"cols" json:"cols"`
	Runs        []Run  `yaml:"runs" json:"-"`

	pattern model.SeatPattern
	total   int
}

type file struct {
	Templates []Template `yaml:"templates"`
}

// Room returns the template as an unsaved exam room.
func (t Template) Room() model.ExamRoom {
	r := model.ExamRoom{
		Name:        t.Name,
		RoomNumber:  t.RoomNumber,
		TotalSeats:  t.total,
		SeatPattern: t.pattern,
	}
	if t.Description != "" {
		d := t.Description
		r.Description = &d
	}
	return r
}

// TotalSeats is the number of seats the template defines.
func (t Template) TotalSeats() int { return t.total }

// Geometry returns the engine geometry of the template.
func (t Template) Geometry() (seating.Geometry, error) {
	room := t.Room()
	room.ID = t.ID
	return room.Geometry()
}

// Load parses the built-in templates.
func Load() ([]Template, error) { return Parse(builtin) }

// LoadFile parses templates from path, or the built-in set when path is
// empty.
func LoadFile(path string) ([]Template, error) {
	if strings.TrimSpace(path) == "" {
		return Load()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("layouts: read %s: %w", path, err)
	}
	ts, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("layouts: %s: %w", path, err)
	}
	return ts, nil
}

// Parse decodes a template document and validates every layout.
func Parse(data []byte) ([]Template, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("layouts: document is empty")
	}
	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("layouts: decode: %w", err)
	}
	seen := map[string]bool{}
	out := make([]Template, 0, len(doc.Templates))
	for _, t := range doc.Templates {
		if t.ID == "" {
			return nil, fmt.Errorf("layouts: template %q has no id", t.Name)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("layouts: duplicate template id %q", t.ID)
		}
		seen[t.ID] = true
		if err := t.build(); err != nil {
			return nil, fmt.Errorf("layouts: template %s: %w", t.ID, err)
		}
		if _, err := t.Geometry(); err != nil {
			return nil, fmt.Errorf("layouts: template %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (t *Template) build() error {
	switch t.Type {
	case model.PatternGrid:
		if len(t.Runs) > 0 {
			return fmt.Errorf("grid layouts take no runs")
		}
		t.pattern = model.SeatPattern{Type: model.PatternGrid, Rows: t.Rows, Cols: t.Cols}
		t.total = t.Rows * t.Cols
		return nil
	case model.PatternCustom:
	default:
		return fmt.Errorf("unknown type %q", t.Type)
	}

	var seats []model.LayoutSeat
	for i, r := range t.Runs {
		cells, err := r.cells()
		if err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}
		for _, c := range cells {
			seats = append(seats, model.LayoutSeat{GridRow: c[0], GridCol: c[1], SeatNumber: len(seats) + 1})
		}
	}
	t.pattern = model.SeatPattern{Type: model.PatternCustom, Rows: t.Rows, Cols: t.Cols, CustomLayout: seats}
	t.total = len(seats)
	return nil
}

func (r Run) cells() ([][2]int, error) {
	switch {
	case r.Row > 0 && r.Cols != "" && r.Col == 0 && r.Rows == "":
		cols, err := span(r.Cols)
		if err != nil {
			return nil, err
		}
		out := make([][2]int, len(cols))
		for i, c := range cols {
			out[i] = [2]int{r.Row, c}
		}
		return out, nil
	case r.Col > 0 && r.Rows != "" && r.Row == 0 && r.Cols == "":
		rows, err := span(r.Rows)
		if err != nil {
			return nil, err
		}
		out := make([][2]int, len(rows))
		for i, row := range rows {
			out[i] = [2]int{row, r.Col}
		}
		return out, nil
	}
	return nil, fmt.Errorf("a run needs either row+cols or col+rows")
}

// span expands "1-4,6" to [1 2 3 4 6].
func span(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || a < 1 {
			return nil, fmt.Errorf("bad span %q", part)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || b < a {
				return nil, fmt.Errorf("bad span %q", part)
			}
		}
		for v := a; v <= b; v++ {
			out = append(out, v)
		}
	}
	return out, nil
}
