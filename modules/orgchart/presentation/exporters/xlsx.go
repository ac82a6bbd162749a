package exporters

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/modules/orgchart/presentation/mappers"
)

const SheetName = "Org Chart"

var xlsxHeader = []string{"ID", "Name", "Email", "Position", "Level", "Department", "Manager ID", "Depth", "Direct Reports"}

// XLSX writes a single-sheet workbook listing the tree in pre-order. The
// name column is indented by depth.
func XLSX(w io.Writer, roots []*hierarchy.Node) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, title := range xlsxHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, title); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "I1", headerStyle); err != nil {
		return err
	}

	indentStyles := map[int]int{}
	tree := mappers.ForestToTree(roots, nil)
	for i, n := range tree.Nodes {
		row := i + 2
		var managerID any
		if n.ManagerID != nil {
			managerID = *n.ManagerID
		}
		values := []any{n.ID, n.Name, n.Email, n.PositionName, n.PositionLevel, n.DepartmentName, managerID, n.Depth, n.Reports}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return err
			}
		}
		if n.Depth == 0 {
			continue
		}
		style, ok := indentStyles[n.Depth]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Indent: n.Depth}})
			if err != nil {
				return err
			}
			indentStyles[n.Depth] = style
		}
		nameCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellStyle(SheetName, nameCell, nameCell, style); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetName, "B", "C", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "D", "F", 22); err != nil {
		return err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	return f.Write(w)
}
