package plan

import "github.com/xlab/treeprint"

// Explain renders the plan as an indented tree, one node per line.
func Explain(n Node) string {
	tree := treeprint.NewWithRoot(n.String())
	addChildren(tree, n)
	return tree.String()
}

func addChildren(tree treeprint.Tree, n Node) {
	for _, c := range n.Children() {
		addChildren(tree.AddBranch(c.String()), c)
	}
}
