package avl

// Plain binary search tree mechanics over the node arena. Nothing in this
// file looks at or changes balance factors, except swapNodes which carries
// them along with the node positions.

// descend walks from the root towards key. It returns the node holding key and
// 0, or the last node visited and the comparison of key against it (<0 means
// key belongs on its left). An empty tree yields (0, 0).
func (tree *Tree[K, V]) descend(key K) (uint32, int) {
	alloc := tree.storage()
	nodeIdx := tree.root

	for nodeIdx != 0 {
		comp := tree.compare(key, alloc[nodeIdx].key)

		var next uint32

		switch {
		case comp == 0:
			return nodeIdx, 0
		case comp < 0:
			next = alloc[nodeIdx].left
		default:
			next = alloc[nodeIdx].right
		}

		if next == 0 {
			return nodeIdx, comp
		}

		nodeIdx = next
	}

	return 0, 0
}

// find returns the node holding key, or 0.
func (tree *Tree[K, V]) find(key K) uint32 {
	nodeIdx, comp := tree.descend(key)
	if nodeIdx == 0 || comp != 0 {
		return 0
	}

	return nodeIdx
}

// Find a node whose key >= key. The 2nd return value is true iff the node's
// key == key. Returns (0, false) if all nodes in the tree are < key.
func (tree *Tree[K, V]) findGE(key K) (uint32, bool) {
	nodeIdx, comp := tree.descend(key)

	switch {
	case nodeIdx == 0:
		return 0, false
	case comp == 0:
		return nodeIdx, true
	case comp < 0:
		return nodeIdx, false
	default:
		return doNext(nodeIdx, tree.storage()), false
	}
}

// attach links a fresh node holding key and value under parent.
func (tree *Tree[K, V]) attach(parent uint32, left bool, key K, value V) uint32 {
	nodeIdx := tree.allocator.malloc()
	alloc := tree.storage()

	alloc[nodeIdx] = node[K, V]{key: key, value: value, parent: parent}

	switch {
	case parent == 0:
		tree.root = nodeIdx
	case left:
		alloc[parent].left = nodeIdx
	default:
		alloc[parent].right = nodeIdx
	}

	tree.count++

	return nodeIdx
}

func minNode[K, V any](nodeIdx uint32, storage []node[K, V]) uint32 {
	if nodeIdx == 0 {
		return 0
	}

	for storage[nodeIdx].left != 0 {
		nodeIdx = storage[nodeIdx].left
	}

	return nodeIdx
}

func maxNode[K, V any](nodeIdx uint32, storage []node[K, V]) uint32 {
	if nodeIdx == 0 {
		return 0
	}

	for storage[nodeIdx].right != 0 {
		nodeIdx = storage[nodeIdx].right
	}

	return nodeIdx
}

// Return the minimum node that's larger than N. Return 0 if no such
// node is found.
func doNext[K, V any](nodeIdx uint32, storage []node[K, V]) uint32 {
	if storage[nodeIdx].right != 0 {
		return minNode(storage[nodeIdx].right, storage)
	}

	for {
		parentIdx := storage[nodeIdx].parent
		if parentIdx == 0 {
			return 0
		}

		if storage[parentIdx].left == nodeIdx {
			return parentIdx
		}

		nodeIdx = parentIdx
	}
}

// Return the maximum node that's smaller than N. Return negativeLimitNode
// if no such node is found.
func doPrev[K, V any](nodeIdx uint32, storage []node[K, V]) uint32 {
	if storage[nodeIdx].left != 0 {
		return maxPredecessor(nodeIdx, storage)
	}

	for {
		parentIdx := storage[nodeIdx].parent
		if parentIdx == 0 {
			return negativeLimitNode
		}

		if storage[parentIdx].right == nodeIdx {
			return parentIdx
		}

		nodeIdx = parentIdx
	}
}

// Return the in-order predecessor of a node that has a left subtree.
func maxPredecessor[K, V any](nodeIdx uint32, storage []node[K, V]) uint32 {
	doAssert(storage[nodeIdx].left != 0)

	return maxNode(storage[nodeIdx].left, storage)
}

// replaceNode puts newn (possibly 0) into oldn's slot under oldn's parent.
func (tree *Tree[K, V]) replaceNode(oldn, newn uint32) {
	alloc := tree.storage()
	parent := alloc[oldn].parent

	switch {
	case parent == 0:
		tree.root = newn
	case alloc[parent].left == oldn:
		alloc[parent].left = newn
	default:
		alloc[parent].right = newn
	}

	if newn != 0 {
		alloc[newn].parent = parent
	}
}

// swapNodes exchanges the tree positions of first and second, then their
// balance factors. Keys and values stay with their nodes so handles held by
// callers remain valid. The nodes may be adjacent.
func (tree *Tree[K, V]) swapNodes(first, second uint32) {
	doAssert(first != second)

	alloc := tree.storage()
	firstLinks, secondLinks := alloc[first], alloc[second]

	other := func(nodeIdx uint32) uint32 {
		switch nodeIdx {
		case first:
			return second
		case second:
			return first
		default:
			return nodeIdx
		}
	}

	// Re-point the parents' child slots while the old links are still intact.
	firstIsLeft := isLeftChild(first, alloc)
	secondIsLeft := isLeftChild(second, alloc)

	tree.relinkParent(firstLinks.parent, first, second, firstIsLeft)
	tree.relinkParent(secondLinks.parent, second, first, secondIsLeft)

	alloc[first].parent = other(secondLinks.parent)
	alloc[first].left = other(secondLinks.left)
	alloc[first].right = other(secondLinks.right)
	alloc[second].parent = other(firstLinks.parent)
	alloc[second].left = other(firstLinks.left)
	alloc[second].right = other(firstLinks.right)

	for _, nodeIdx := range [...]uint32{first, second} {
		if child := alloc[nodeIdx].left; child != 0 {
			alloc[child].parent = nodeIdx
		}

		if child := alloc[nodeIdx].right; child != 0 {
			alloc[child].parent = nodeIdx
		}
	}

	alloc[first].balance, alloc[second].balance = secondLinks.balance, firstLinks.balance
}

// relinkParent makes parent point at replacement where it pointed at current.
// A parent that is one of the swapped nodes is fixed up by swapNodes itself.
func (tree *Tree[K, V]) relinkParent(parent, current, replacement uint32, left bool) {
	alloc := tree.storage()

	switch {
	case parent == 0:
		tree.root = replacement
	case parent == replacement:
		// Adjacent nodes: handled when the links are exchanged.
	case left:
		alloc[parent].left = replacement
	default:
		doAssert(alloc[parent].right == current)
		alloc[parent].right = replacement
	}
}
