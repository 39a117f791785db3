package avl

import (
	"fmt"
	"math"
)

// Height returns the number of edges on the longest root-to-leaf path.
// An empty tree has height -1 and a single node has height 0.
func (tree *Tree[K, V]) Height() int {
	return subtreeHeight(tree.root, tree.storage()) - 1
}

// subtreeHeight counts nodes, not edges: 0 for nil.
func subtreeHeight[K, V any](nodeIdx uint32, storage []node[K, V]) int {
	if nodeIdx == 0 {
		return 0
	}

	return 1 + max(subtreeHeight(storage[nodeIdx].left, storage), subtreeHeight(storage[nodeIdx].right, storage))
}

// MaxHeight returns the largest height an AVL tree of n nodes can have,
// 1.44*log2(n+2) - 0.328 rounded down, in edges.
func MaxHeight(n int) int {
	if n <= 0 {
		return -1
	}

	const (
		factor = 1.4405
		offset = 0.3277
	)

	return int(math.Floor(factor*math.Log2(float64(n)+2)-offset)) - 1
}

// EqualPaths reports whether every leaf is at the same depth. An empty tree
// qualifies.
func (tree *Tree[K, V]) EqualPaths() bool {
	alloc := tree.storage()
	leafDepth := -1

	var walk func(nodeIdx uint32, depth int) bool

	walk = func(nodeIdx uint32, depth int) bool {
		nd := &alloc[nodeIdx]
		if nd.left == 0 && nd.right == 0 {
			if leafDepth < 0 {
				leafDepth = depth
			}

			return depth == leafDepth
		}

		if nd.left != 0 && !walk(nd.left, depth+1) {
			return false
		}

		return nd.right == 0 || walk(nd.right, depth+1)
	}

	return tree.root == 0 || walk(tree.root, 0)
}

// Verify checks parent links, key order, balance factors against the real
// subtree heights and the element count. The first violation found is
// returned wrapped in ErrInvariant.
func (tree *Tree[K, V]) Verify() error {
	alloc := tree.storage()

	if tree.root != 0 && alloc[tree.root].parent != 0 {
		return fmt.Errorf("%w: root %v has a parent", ErrInvariant, alloc[tree.root].key)
	}

	count := 0

	var walk func(nodeIdx, parent uint32) (int, error)

	walk = func(nodeIdx, parent uint32) (int, error) {
		if nodeIdx == 0 {
			return 0, nil
		}

		count++
		nd := &alloc[nodeIdx]

		if nd.parent != parent {
			return 0, fmt.Errorf("%w: node %v has parent #%d, expected #%d", ErrInvariant, nd.key, nd.parent, parent)
		}

		if nd.left != 0 && tree.compare(alloc[nd.left].key, nd.key) >= 0 {
			return 0, fmt.Errorf("%w: left child %v of %v is not smaller", ErrInvariant, alloc[nd.left].key, nd.key)
		}

		if nd.right != 0 && tree.compare(alloc[nd.right].key, nd.key) <= 0 {
			return 0, fmt.Errorf("%w: right child %v of %v is not larger", ErrInvariant, alloc[nd.right].key, nd.key)
		}

		leftHeight, err := walk(nd.left, nodeIdx)
		if err != nil {
			return 0, err
		}

		rightHeight, err := walk(nd.right, nodeIdx)
		if err != nil {
			return 0, err
		}

		if expected := rightHeight - leftHeight; int(nd.balance) != expected {
			return 0, fmt.Errorf("%w: node %v has balance %d, subtree heights give %d",
				ErrInvariant, nd.key, nd.balance, expected)
		}

		if !stable(nd.balance) {
			return 0, fmt.Errorf("%w: node %v is out of balance (%d)", ErrInvariant, nd.key, nd.balance)
		}

		return 1 + max(leftHeight, rightHeight), nil
	}

	_, err := walk(tree.root, 0)
	if err != nil {
		return err
	}

	// Children are checked against their parent only, so check the whole order.
	prev := tree.Min()
	if !prev.Limit() {
		for it := prev.Next(); !it.Limit(); prev, it = it, it.Next() {
			if tree.compare(prev.Key(), it.Key()) >= 0 {
				return fmt.Errorf("%w: keys %v and %v are out of order", ErrInvariant, prev.Key(), it.Key())
			}
		}
	}

	if count != tree.count {
		return fmt.Errorf("%w: %d nodes reachable, count is %d", ErrInvariant, count, tree.count)
	}

	return nil
}
