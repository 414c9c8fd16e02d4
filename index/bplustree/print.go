package bplustree

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
)

func (t *Tree) String() string {
	tree := treeprint.NewWithRoot(fmt.Sprintf("BPlusTree(order=%d, height=%d)", t.order, t.Height()))
	addNode(tree, t.root)
	return tree.String()
}

func addNode(branch treeprint.Tree, n Node) {
	switch n := n.(type) {
	case *LeafNode:
		branch.AddNode(leafLabel(n))
	case *InnerNode:
		b := branch.AddBranch(innerLabel(n))
		for _, child := range n.children {
			if child == nil {
				continue
			}
			addNode(b, child)
		}
	}
}

func innerLabel(n *InnerNode) string {
	keys := make([]string, len(n.keys))
	for i, k := range n.keys {
		keys[i] = k.String()
	}
	return "Node[" + strings.Join(keys, ",") + "]"
}

func leafLabel(l *LeafNode) string {
	slots := make([]string, len(l.keys))
	for i, k := range l.keys {
		if !k.Valid {
			slots[i] = "-"
			continue
		}
		slots[i] = fmt.Sprintf("%d->%s", k.Key, l.refs[i])
	}
	return "Leaf{" + strings.Join(slots, ", ") + "}"
}
