package avl

import (
	"fmt"
	"io"
)

type branch int

const (
	branchRoot branch = iota
	branchLeft
	branchRight
)

// Print writes an ASCII picture of the tree to w, right subtrees above their
// parent, and returns the depth of the tree in nodes. withValues adds the
// value and balance of every node.
func (tree *Tree[K, V]) Print(w io.Writer, withValues bool) int {
	return tree.printNode(w, tree.root, "", branchRoot, withValues)
}

func (tree *Tree[K, V]) printNode(w io.Writer, nodeIdx uint32, prefix string, br branch, withValues bool) int {
	if nodeIdx == 0 {
		return 0
	}

	nd := &tree.storage()[nodeIdx]
	rightDepth, leftDepth := 0, 0

	if nd.right != 0 {
		indent := "       "
		if br == branchLeft {
			indent = "|      "
		}

		rightDepth = tree.printNode(w, nd.right, prefix+indent, branchRight, withValues)
	}

	switch br {
	case branchRoot:
		fmt.Fprintf(w, "%s|------+ ", prefix)
	case branchLeft:
		fmt.Fprintf(w, "%s\\------+ ", prefix)
	case branchRight:
		fmt.Fprintf(w, "%s/------+ ", prefix)
	}

	if withValues {
		fmt.Fprintf(w, "%v → %v %+d\n", nd.key, nd.value, nd.balance)
	} else {
		fmt.Fprintf(w, "%v\n", nd.key)
	}

	if nd.left != 0 {
		indent := "       "
		if br == branchRight {
			indent = "|      "
		}

		leftDepth = tree.printNode(w, nd.left, prefix+indent, branchLeft, withValues)
	}

	return 1 + max(rightDepth, leftDepth)
}
