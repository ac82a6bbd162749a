package hierarchy

import (
	"cmp"
	"slices"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

// Node is one employee in a materialized management tree. Nodes are built
// fresh on every call and belong to the caller.
type Node struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	PositionName   string  `json:"position_name"`
	PositionLevel  string  `json:"position_level"`
	DepartmentName string  `json:"department_name"`
	ManagerID      *int64  `json:"manager_id"`
	Subordinates   []*Node `json:"subordinates"`
}

func newNode(e employee.Employee) *Node {
	var managerID *int64
	if e.ManagerID != nil {
		id := *e.ManagerID
		managerID = &id
	}
	level := ""
	if e.PositionName != "" {
		level = e.PositionLevel.String()
	}
	return &Node{
		ID:             e.ID,
		Name:           e.Name,
		Email:          e.Email,
		PositionName:   e.PositionName,
		PositionLevel:  level,
		DepartmentName: e.DepartmentName,
		ManagerID:      managerID,
		Subordinates:   []*Node{},
	}
}

// TreeBuilder assembles nested nodes from a static employee snapshot.
type TreeBuilder struct{}

func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{}
}

// snapshotIndex is the flat, id-keyed view of a snapshot used by the builder.
type snapshotIndex struct {
	byID     map[int64]employee.Employee
	children map[int64][]employee.Employee
	roots    []employee.Employee
}

func compareEmployees(a, b employee.Employee) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func indexSnapshot(op string, snapshot []employee.Employee) (snapshotIndex, error) {
	idx := snapshotIndex{
		byID:     make(map[int64]employee.Employee, len(snapshot)),
		children: make(map[int64][]employee.Employee, len(snapshot)),
	}
	var dups []int64
	for _, e := range snapshot {
		if _, ok := idx.byID[e.ID]; ok {
			dups = append(dups, e.ID)
			continue
		}
		idx.byID[e.ID] = e
	}
	if len(dups) > 0 {
		return snapshotIndex{}, inconsistency(op, KindDuplicateID, dups...)
	}

	for _, e := range snapshot {
		if e.ManagerID == nil {
			idx.roots = append(idx.roots, e)
			continue
		}
		if _, ok := idx.byID[*e.ManagerID]; !ok {
			// Manager is outside the snapshot; surface the employee at the top level.
			idx.roots = append(idx.roots, e)
			continue
		}
		idx.children[*e.ManagerID] = append(idx.children[*e.ManagerID], e)
	}

	slices.SortFunc(idx.roots, compareEmployees)
	for id := range idx.children {
		slices.SortFunc(idx.children[id], compareEmployees)
	}
	return idx, nil
}

type pending struct {
	node  *Node
	depth int
}

// grow attaches subordinates below each root breadth-first. visited is shared
// across roots so a node can never be attached twice.
func (idx snapshotIndex) grow(op string, roots []*Node, visited map[int64]struct{}) error {
	limit := len(idx.byID)
	queue := make([]pending, 0, len(roots))
	for _, r := range roots {
		queue = append(queue, pending{node: r, depth: 1})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, child := range idx.children[cur.node.ID] {
			if _, ok := visited[child.ID]; ok {
				return inconsistency(op, KindCycle, cur.node.ID, child.ID)
			}
			if cur.depth+1 > limit {
				return inconsistency(op, KindDepthExceeded, child.ID)
			}
			visited[child.ID] = struct{}{}
			n := newNode(child)
			cur.node.Subordinates = append(cur.node.Subordinates, n)
			queue = append(queue, pending{node: n, depth: cur.depth + 1})
		}
	}
	return nil
}

// BuildForest returns one tree per root employee. Every employee of the
// snapshot appears exactly once; employees that no root can reach (members of
// a manager cycle) make the snapshot inconsistent.
func (b *TreeBuilder) BuildForest(snapshot []employee.Employee) ([]*Node, error) {
	const op = "build_forest"

	idx, err := indexSnapshot(op, snapshot)
	if err != nil {
		return nil, err
	}

	visited := make(map[int64]struct{}, len(idx.byID))
	roots := make([]*Node, 0, len(idx.roots))
	for _, r := range idx.roots {
		visited[r.ID] = struct{}{}
		roots = append(roots, newNode(r))
	}
	if err := idx.grow(op, roots, visited); err != nil {
		return nil, err
	}

	if len(visited) != len(idx.byID) {
		missing := make([]int64, 0, len(idx.byID)-len(visited))
		for _, e := range snapshot {
			if _, ok := visited[e.ID]; !ok {
				missing = append(missing, e.ID)
			}
		}
		slices.Sort(missing)
		return nil, inconsistency(op, KindUnreachable, missing...)
	}
	return roots, nil
}

// BuildSubtree returns the tree rooted at rootID.
func (b *TreeBuilder) BuildSubtree(rootID int64, snapshot []employee.Employee) (*Node, error) {
	const op = "build_subtree"

	idx, err := indexSnapshot(op, snapshot)
	if err != nil {
		return nil, err
	}
	rootEmployee, ok := idx.byID[rootID]
	if !ok {
		return nil, ErrNotFound
	}

	root := newNode(rootEmployee)
	visited := map[int64]struct{}{rootID: {}}
	if err := idx.grow(op, []*Node{root}, visited); err != nil {
		return nil, err
	}
	return root, nil
}
