package mappers

import (
	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/modules/orgchart/presentation/viewmodels"
)

// ForestToTree lists a built forest in pre-order, one row per employee, with
// the depth below its root and the number of direct reports.
func ForestToTree(roots []*hierarchy.Node, selectedID *int64) *viewmodels.OrgTree {
	rows := hierarchy.Flatten(roots)
	out := make([]viewmodels.OrgTreeNode, 0, len(rows))
	for _, row := range rows {
		n := row.Node
		out = append(out, viewmodels.OrgTreeNode{
			ID:             n.ID,
			Name:           n.Name,
			Email:          n.Email,
			PositionName:   n.PositionName,
			PositionLevel:  n.PositionLevel,
			DepartmentName: n.DepartmentName,
			ManagerID:      n.ManagerID,
			Depth:          row.Depth,
			Reports:        len(n.Subordinates),
			Selected:       selectedID != nil && *selectedID == n.ID,
		})
	}
	return &viewmodels.OrgTree{Nodes: out}
}
