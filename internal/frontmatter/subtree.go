package frontmatter

// subtreeEnd applies the boundary rule directly: the descendants of the node
// at 1-based position pos stop at the first later node whose parent is
// before pos.
func subtreeEnd(nodes []Node, pos int) int {
	for i := pos; i < len(nodes); i++ {
		if nodes[i].Parent < pos {
			return i
		}
	}
	return len(nodes)
}

// indexSubtrees computes subtreeEnd for every node in one pass. The stack
// holds the positions whose subtrees are still open; they increase from
// bottom to top, so a node closes everything above its parent.
func indexSubtrees(nodes []Node) []int {
	ends := make([]int, len(nodes))
	stack := make([]int, 0, 8)
	for i, n := range nodes {
		for len(stack) > 0 && n.Parent < stack[len(stack)-1] {
			ends[stack[len(stack)-1]-1] = i
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, i+1)
	}
	for _, pos := range stack {
		ends[pos-1] = len(nodes)
	}
	return ends
}
