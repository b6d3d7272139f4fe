package layouts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/exam-seating/internal/seating"
)

func TestLoadBuiltin(t *testing.T) {
	ts, err := Load()
	require.NoError(t, err)
	require.Len(t, ts, 7)

	want := map[string]int{"001": 50, "002": 78, "003": 40, "004": 52, "005": 48, "grid-5x8": 40, "grid-8x10": 80}
	for _, tpl := range ts {
		assert.Equal(t, want[tpl.ID], tpl.TotalSeats(), tpl.ID)
		g, err := tpl.Geometry()
		require.NoError(t, err, tpl.ID)
		assert.Equal(t, tpl.TotalSeats(), g.Capacity())
	}
}

func TestCustomRunsNumberInListedOrder(t *testing.T) {
	ts, err := Load()
	require.NoError(t, err)

	room := ts[0].Room()
	layout := room.SeatPattern.CustomLayout
	assert.Equal(t, 1, layout[0].GridRow)
	assert.Equal(t, 1, layout[0].GridCol)
	// second column starts at seat 11
	assert.Equal(t, 11, layout[10].SeatNumber)
	assert.Equal(t, 1, layout[10].GridRow)
	assert.Equal(t, 2, layout[10].GridCol)
	require.NotNil(t, room.Description)

	g, err := ts[0].Geometry()
	require.NoError(t, err)
	rows, cols := g.MaxGridDimensions()
	assert.Equal(t, 11, rows)
	assert.Equal(t, 8, cols)
	_, ok := g.Shape.(seating.Sparse)
	assert.True(t, ok)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"no id":        "templates:\n  - name: x\n    type: grid\n    rows: 1\n    cols: 1\n",
		"duplicate id": "templates:\n  - {id: a, type: grid, rows: 1, cols: 1}\n  - {id: a, type: grid, rows: 1, cols: 1}\n",
		"unknown type": "templates:\n  - {id: a, type: round}\n",
		"bad span":     "templates:\n  - id: a\n    type: custom\n    runs:\n      - {row: 1, cols: \"4-2\"}\n",
		"mixed run":    "templates:\n  - id: a\n    type: custom\n    runs:\n      - {row: 1, col: 2, cols: \"1-2\"}\n",
		"shared cell":  "templates:\n  - id: a\n    type: custom\n    runs:\n      - {row: 1, cols: \"1-2\"}\n      - {col: 2, rows: \"1-2\"}\n",
		"grid runs":    "templates:\n  - id: a\n    type: grid\n    rows: 1\n    cols: 1\n    runs:\n      - {row: 1, cols: \"1\"}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	ts, err := LoadFile("")
	require.NoError(t, err)
	assert.NotEmpty(t, ts)

	path := filepath.Join(t.TempDir(), "rooms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - {id: lab, name: Lab, type: grid, rows: 2, cols: 3}\n"), 0o600))
	ts, err = LoadFile(path)
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, 6, ts[0].TotalSeats())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSpan(t *testing.T) {
	got, err := span("1-3, 5 ,7-7")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 5, 7}, got)

	_, err = span("0-2")
	assert.Error(t, err)
	_, err = span("a")
	assert.Error(t, err)
}
