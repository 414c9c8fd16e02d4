package bplustree

import (
	"fmt"
	"io"
	"strings"
)

// ExportDOT writes the tree as a Graphviz digraph. Inner nodes point to their
// children; leaves are ranked together and joined by dashed sibling edges.
func (t *Tree) ExportDOT(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintln(&b, "digraph BPlusTree {")
	// Layout and Global Styling
	fmt.Fprintln(&b, "  graph [ranksep=0.8, nodesep=0.5, bgcolor=\"#ffffff\", rankdir=TB];")
	fmt.Fprintln(&b, "  node [shape=none, fontname=\"Helvetica\", fontsize=10];")
	fmt.Fprintln(&b, "  edge [arrowsize=0.8, color=\"#444444\"];")

	names := make(map[Node]string)
	var leaves []*LeafNode

	var exportRec func(n Node) string
	exportRec = func(n Node) string {
		if name, ok := names[n]; ok {
			return name
		}
		name := fmt.Sprintf("node%d", len(names))
		names[n] = name
		fill := 100 * float64(n.Size()) / float64(capacity(n))

		switch n := n.(type) {
		case *LeafNode:
			// LEAF NODE: Green Header
			label := fmt.Sprintf(`<<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0" CELLPADDING="4">
				<TR><TD COLSPAN="2" BGCOLOR="#D5E8D4"><B>LEAF</B><BR/><FONT POINT-SIZE="8">Fill: %.1f%%</FONT></TD></TR>
				<TR><TD PORT="keys" BGCOLOR="#F5F5F5" ALIGN="LEFT">`, fill)
			for e := range n.Entries() {
				label += fmt.Sprintf("<B>%d</B> <FONT COLOR='#666666'>[%d]</FONT><BR/>", e.Key, e.Value.ID())
			}
			nextLabel := "NULL"
			if n.next != nil {
				nextLabel = "&rarr;"
			}
			label += fmt.Sprintf(`</TD><TD PORT="next" BGCOLOR="#E1F5FE" VALIGN="MIDDLE">Next: %s</TD></TR></TABLE>>`, nextLabel)
			fmt.Fprintf(&b, "  %s [label=%s];\n", name, label)
			leaves = append(leaves, n)

		case *InnerNode:
			// INTERNAL NODE: Blue Header
			size := n.Size()
			label := fmt.Sprintf(`<<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0" CELLPADDING="4">
				<TR><TD COLSPAN="%d" BGCOLOR="#DAE8FC"><B>INTERNAL</B><BR/><FONT POINT-SIZE="8">Fill: %.1f%%</FONT></TD></TR><TR>`, 2*size-1, fill)
			for i := 0; i < size; i++ {
				label += fmt.Sprintf(`<TD PORT="f%d" BGCOLOR="#E1F5FE">&bull;</TD>`, i)
				if i < size-1 {
					label += fmt.Sprintf(`<TD BGCOLOR="#FFFFFF"><B>%s</B></TD>`, n.keys[i])
				}
			}
			label += `</TR></TABLE>>`
			fmt.Fprintf(&b, "  %s [label=%s];\n", name, label)

			// Draw edges to children
			for i := 0; i < size; i++ {
				childName := exportRec(n.children[i])
				fmt.Fprintf(&b, "  %s:f%d -> %s;\n", name, i, childName)
			}
		}
		return name
	}

	exportRec(t.root)

	// Link leaves horizontally
	if len(leaves) > 1 {
		fmt.Fprintln(&b, "  { rank=same;")
		for _, leaf := range leaves {
			fmt.Fprintf(&b, "    %s;\n", names[leaf])
		}
		fmt.Fprintln(&b, "  }")

		for _, leaf := range leaves {
			if leaf.next == nil {
				continue
			}
			if target, ok := names[leaf.next]; ok {
				fmt.Fprintf(&b, "  %s:next -> %s [style=dashed, color=\"#03A9F4\", constraint=false, tailclip=false];\n", names[leaf], target)
			}
		}
	}

	fmt.Fprintln(&b, "}")
	_, err := io.WriteString(w, b.String())
	return err
}

func capacity(n Node) int {
	if _, ok := n.(*LeafNode); ok {
		return n.Order() - 1
	}
	return n.Order()
}
