package viewmodels

type OrgTreeNode struct {
	ID             int64
	Name           string
	Email          string
	PositionName   string
	PositionLevel  string
	DepartmentName string
	ManagerID      *int64
	Depth          int
	Reports        int
	Selected       bool
}

type OrgTree struct {
	Nodes []OrgTreeNode
}
