package hierarchy

// Row is a node positioned in a pre-order listing of a tree.
type Row struct {
	Node  *Node
	Depth int
}

// Flatten lists the nodes of a forest in pre-order (parent before its
// subordinates, siblings in order). Depth starts at 0 for the given nodes.
func Flatten(nodes []*Node) []Row {
	out := make([]Row, 0, len(nodes))
	stack := make([]Row, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, Row{Node: nodes[i]})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, top)
		subs := top.Node.Subordinates
		for i := len(subs) - 1; i >= 0; i-- {
			stack = append(stack, Row{Node: subs[i], Depth: top.Depth + 1})
		}
	}
	return out
}

// Count returns the number of nodes in a forest.
func Count(nodes []*Node) int {
	return len(Flatten(nodes))
}
