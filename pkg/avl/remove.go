package avl

// Remove deletes key from the tree. Removing an absent key is a no-op.
// Returns true iff a node was removed.
func (tree *Tree[K, V]) Remove(key K) bool {
	nodeIdx := tree.find(key)
	if nodeIdx == 0 {
		return false
	}

	tree.removeNode(nodeIdx)

	return true
}

// RemoveWithIterator deletes the current item.
//
// REQUIRES: !iter.Limit() && !iter.NegativeLimit().
func (tree *Tree[K, V]) RemoveWithIterator(iter Iterator[K, V]) {
	doAssert(!iter.Limit() && !iter.NegativeLimit())
	tree.removeNode(iter.node)
}

func (tree *Tree[K, V]) removeNode(nodeIdx uint32) {
	alloc := tree.storage()

	// Two children: trade places with the in-order predecessor, which has no
	// right child, so the node to unlink has at most one child.
	if alloc[nodeIdx].left != 0 && alloc[nodeIdx].right != 0 {
		tree.nodeSwap(nodeIdx, maxPredecessor(nodeIdx, alloc))
	}

	doAssert(alloc[nodeIdx].left == 0 || alloc[nodeIdx].right == 0)

	parent := alloc[nodeIdx].parent
	diff := sideDiff(nodeIdx, alloc)

	child := alloc[nodeIdx].left
	if child == 0 {
		child = alloc[nodeIdx].right
	}

	tree.replaceNode(nodeIdx, child)
	tree.allocator.free(nodeIdx)
	tree.count--
	tree.stats.Removes++

	tree.removeFix(parent, diff)
}

// nodeSwap exchanges the positions and balance factors of two nodes.
func (tree *Tree[K, V]) nodeSwap(first, second uint32) {
	tree.swapNodes(first, second)
}

// removeFix walks up from nodeIdx after one of its subtrees lost a level
// (diff +1: the left one, -1: the right one). Unlike insertFix it may keep
// going after a rotation, since the rotated subtree can still be shorter.
func (tree *Tree[K, V]) removeFix(nodeIdx uint32, diff int8) {
	alloc := tree.storage()

	for nodeIdx != 0 {
		tree.stats.FixupSteps++

		// Needed for the next round whatever happens to nodeIdx here.
		parent := alloc[nodeIdx].parent
		nextDiff := sideDiff(nodeIdx, alloc)

		heavy := alloc[nodeIdx].right
		if diff < 0 {
			heavy = alloc[nodeIdx].left
		}

		decision := removeStep(alloc[nodeIdx].balance, diff, getBalance(heavy, alloc))
		doAssert(decision.rotation == rotateNone || heavy != 0)

		switch decision.rotation {
		case rotateNone:
			alloc[nodeIdx].balance = decision.balance
		case rotateSingle:
			tree.stats.SingleRotations++

			if diff < 0 {
				tree.rotateRight(nodeIdx)
			} else {
				tree.rotateLeft(nodeIdx)
			}

			alloc[nodeIdx].balance, alloc[heavy].balance = decision.balance, decision.child
		case rotateDouble:
			tree.stats.DoubleRotations++

			var grand uint32

			var nodeBalance, childBalance, grandBalance int8

			if diff < 0 {
				grand = alloc[heavy].right
				nodeBalance, childBalance, grandBalance = removeDoubleBalances(alloc[grand].balance)

				tree.rotateLeft(heavy)
				tree.rotateRight(nodeIdx)
			} else {
				grand = alloc[heavy].left
				nodeBalance, childBalance, grandBalance = mirrored(removeDoubleBalances, alloc[grand].balance)

				tree.rotateRight(heavy)
				tree.rotateLeft(nodeIdx)
			}

			alloc[nodeIdx].balance = nodeBalance
			alloc[heavy].balance = childBalance
			alloc[grand].balance = grandBalance
		}

		if !decision.propagate {
			return
		}

		nodeIdx, diff = parent, nextDiff
	}
}
