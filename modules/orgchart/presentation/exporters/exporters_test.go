package exporters

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/position"
)

func ptr(v int64) *int64 { return &v }

func sampleForest(t *testing.T) []*hierarchy.Node {
	t.Helper()
	roots, err := hierarchy.NewTreeBuilder().BuildForest([]employee.Employee{
		{ID: 1, Name: "Alice", Email: "alice@example.com", PositionName: "CEO", PositionLevel: position.LevelDirector, DepartmentName: "Executive"},
		{ID: 2, Name: "Bob", Email: "bob@example.com", PositionName: "Eng Manager", PositionLevel: position.LevelManager, DepartmentName: "Engineering", ManagerID: ptr(1)},
		{ID: 3, Name: "Carol", Email: "carol@example.com", ManagerID: ptr(2)},
	})
	require.NoError(t, err)
	return roots
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleForest(t)))
	require.Equal(t,
		"Alice [1] CEO, Executive\n"+
			"  Bob [2] Eng Manager, Engineering\n"+
			"    Carol [3]\n",
		buf.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleForest(t)))

	var decoded []hierarchy.Node
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	require.Equal(t, "Director", decoded[0].PositionLevel)
	require.Equal(t, int64(3), decoded[0].Subordinates[0].Subordinates[0].ID)

	buf.Reset()
	require.NoError(t, JSON(&buf, nil))
	require.Equal(t, "[]\n", buf.String())
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, sampleForest(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, xlsxHeader, rows[0])
	require.Equal(t, "Alice", rows[1][1])
	require.Equal(t, "Carol", rows[3][1])
	require.Equal(t, "2", rows[3][6])
	require.Equal(t, "2", rows[3][7])
}

func TestExport_Formats(t *testing.T) {
	roots := sampleForest(t)
	for _, format := range []string{"", FormatText, FormatJSON, FormatXLSX, "JSON"} {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, format, roots), format)
		require.NotZero(t, buf.Len(), format)
	}
	require.ErrorContains(t, Export(&bytes.Buffer{}, "pdf", roots), `unknown format "pdf"`)
}
