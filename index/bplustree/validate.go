package bplustree

import "github.com/cockroachdb/errors"

// validate checks the subtree rooted at n and, for a root, the leaf sibling
// chain. The first violation found is returned.
func validate(n Node, isRoot bool) error {
	if err := checkNode(n, isRoot, nil); err != nil {
		return err
	}
	if isRoot {
		return checkLeafChain(n)
	}
	return nil
}

func checkNode(n Node, isRoot bool, path []int) error {
	switch n := n.(type) {
	case *LeafNode:
		return n.check(isRoot, path)
	case *InnerNode:
		return n.check(isRoot, path)
	default:
		return errors.AssertionFailedf("unknown node type %T", n)
	}
}

// childPath returns path extended by i without aliasing path's backing array.
func childPath(path []int, i int) []int {
	p := make([]int, len(path)+1)
	copy(p, path)
	p[len(path)] = i
	return p
}

// ─── Leaf ─────────────────────────────────────────────────────────────────────

func (l *LeafNode) check(isRoot bool, path []int) error {
	slots := l.order - 1
	if len(l.keys) != slots {
		return violation(RuleCapacity, path, true, "leaf node has %d key slots, want %d", len(l.keys), slots)
	}
	if len(l.refs) != slots {
		return violation(RuleCapacity, path, true, "leaf node has %d value slots, want %d", len(l.refs), slots)
	}

	size := l.Size()
	if !isRoot {
		if size == 0 {
			return violation(RuleEmpty, path, true, "leaf node is empty")
		}
		if min := l.order / 2; size < min {
			return violation(RuleUnderfilled, path, true, "leaf node is underfilled (size=%d, min=%d)", size, min)
		}
	}

	for i := 0; i < slots; i++ {
		if i >= size {
			if l.keys[i].Valid || !l.refs[i].IsZero() {
				return violation(RuleSuperfluous, path, true, "leaf node slot %d is populated beyond size %d", i, size)
			}
			continue
		}
		if !l.keys[i].Valid {
			return violation(RuleUnpaired, path, true, "leaf node refs[%d] has no key", i)
		}
		if i > 0 && l.keys[i].Key <= l.keys[i-1].Key {
			return violation(RuleKeyOrder, path, true,
				"leaf node keys[%d]=%d does not follow %d", i, l.keys[i].Key, l.keys[i-1].Key)
		}
	}
	return nil
}

// ─── Inner ────────────────────────────────────────────────────────────────────

func (n *InnerNode) check(isRoot bool, path []int) error {
	if len(n.keys) != n.order-1 {
		return violation(RuleCapacity, path, false, "inner node has %d key slots, want %d", len(n.keys), n.order-1)
	}
	if len(n.children) != n.order {
		return violation(RuleCapacity, path, false, "inner node has %d child slots, want %d", len(n.children), n.order)
	}

	size := n.Size()
	if size == 0 {
		return violation(RuleEmpty, path, false, "inner node is empty")
	}
	if isRoot {
		if size < 2 {
			return violation(RuleUnderfilled, path, false, "root node is underfilled (size=%d, min=2)", size)
		}
	} else if min := (n.order + 1) / 2; size < min {
		return violation(RuleUnderfilled, path, false, "inner node is underfilled (size=%d, min=%d)", size, min)
	}

	populated := 0
	for i, k := range n.keys {
		if !k.Valid {
			continue
		}
		populated++
		if n.children[i] == nil {
			return violation(RuleMissingChild, path, false, "keys[%d] is missing its left subtree", i)
		}
		if n.children[i+1] == nil {
			return violation(RuleMissingChild, path, false, "keys[%d] is missing its right subtree", i)
		}
	}
	if populated != size-1 {
		return violation(RuleUnpaired, path, false,
			"inner node has %d separator keys for %d children", populated, size)
	}
	for i := size; i < n.order; i++ {
		if n.children[i] != nil {
			return violation(RuleSuperfluous, path, false, "children[%d] is populated beyond size %d", i, size)
		}
	}

	for i := 0; i < size-1; i++ {
		k := n.keys[i]
		if !k.Valid {
			return violation(RuleSuperfluous, path, false, "keys[%d] is empty between populated separators", i)
		}
		if i > 0 && k.Key <= n.keys[i-1].Key {
			return violation(RuleKeyOrder, path, false,
				"inner node keys[%d]=%d does not follow %d", i, k.Key, n.keys[i-1].Key)
		}
		right := n.children[i+1]
		smallest, err := right.SmallestKey()
		if err != nil {
			_, leaf := right.(*LeafNode)
			return violation(RuleEmpty, childPath(path, i+1), leaf, "right subtree of keys[%d] is empty", i)
		}
		if smallest != k.Key {
			return violation(RuleSeparator, path, false,
				"keys[%d]=%d does not match smallest key %d of children[%d]", i, k.Key, smallest, i+1)
		}
	}

	height := n.Height()
	for i := 0; i < size; i++ {
		child := n.children[i]
		cp := childPath(path, i)
		_, leaf := child.(*LeafNode)
		if child.Order() != n.order {
			return violation(RuleOrder, cp, leaf, "child has order %d, parent has %d", child.Order(), n.order)
		}
		if h := child.Height(); h != height-1 {
			return violation(RuleHeight, cp, leaf, "child has height %d, want %d", h, height-1)
		}
		if err := checkNode(child, false, cp); err != nil {
			return err
		}
	}
	return nil
}

// ─── Sibling chain ────────────────────────────────────────────────────────────

type pathedLeaf struct {
	leaf *LeafNode
	path []int
}

func collectLeaves(n Node, path []int, out []pathedLeaf) []pathedLeaf {
	switch n := n.(type) {
	case *LeafNode:
		return append(out, pathedLeaf{leaf: n, path: path})
	case *InnerNode:
		for i, child := range n.children {
			if child == nil {
				break
			}
			out = collectLeaves(child, childPath(path, i), out)
		}
	}
	return out
}

// checkLeafChain compares the leaves reached through sibling links, starting
// at the leaf of the smallest key, with the leaves of a depth-first
// traversal, and checks that keys ascend strictly along the chain.
func checkLeafChain(root Node) error {
	leaves := collectLeaves(root, nil, nil)
	if len(leaves) == 0 {
		return nil
	}

	curr := leaves[0].leaf
	if k, err := root.SmallestKey(); err == nil {
		curr = root.FindLeaf(k)
	}
	for i, want := range leaves {
		if curr == nil {
			return violation(RuleSiblingChain, want.path, true,
				"sibling chain ends after %d leaves, traversal has %d", i, len(leaves))
		}
		if curr != want.leaf {
			return violation(RuleSiblingChain, want.path, true,
				"leaf %d of the sibling chain differs from the traversal", i)
		}
		curr = curr.next
	}
	if last := leaves[len(leaves)-1]; last.leaf.next != nil {
		return violation(RuleSiblingChain, last.path, true, "rightmost leaf has a sibling")
	}

	var prev int64
	seen := false
	for _, pl := range leaves {
		for e := range pl.leaf.Entries() {
			if seen && e.Key <= prev {
				return violation(RuleKeyOrder, pl.path, true, "key %d follows %d in the leaf chain", e.Key, prev)
			}
			prev, seen = e.Key, true
		}
	}
	return nil
}
