package avl

// Insert stores value under key. An existing key has its value overwritten
// and the tree is not rebalanced. Returns true when a new node was added.
func (tree *Tree[K, V]) Insert(key K, value V) bool {
	leaf, comp := tree.descend(key)
	if leaf != 0 && comp == 0 {
		tree.storage()[leaf].value = value
		tree.stats.Overwrites++

		return false
	}

	tree.stats.Inserts++

	left := comp < 0
	nodeIdx := tree.attach(leaf, left, key, value)

	if leaf == 0 {
		return true
	}

	alloc := tree.storage()

	switch alloc[leaf].balance {
	case -1, 1:
		// The leaf had one child on the other side; its height is unchanged.
		alloc[leaf].balance = 0
	case 0:
		if left {
			alloc[leaf].updateBalance(-1)
		} else {
			alloc[leaf].updateBalance(1)
		}

		tree.insertFix(leaf, nodeIdx)
	default:
		panic("insert below an unbalanced node")
	}

	return true
}

// insertFix walks up from parent after the subtree rooted at parent grew by
// one level, with nodeIdx the child of parent on the path of the insertion.
// It stops at the first rotation: a rotated subtree regains its old height.
func (tree *Tree[K, V]) insertFix(parent, nodeIdx uint32) {
	alloc := tree.storage()

	for {
		doAssert(stable(alloc[parent].balance) && stable(alloc[nodeIdx].balance))

		grand := alloc[parent].parent
		if grand == 0 {
			return
		}

		tree.stats.FixupSteps++

		fromLeft := alloc[grand].left == parent
		if fromLeft {
			alloc[grand].updateBalance(-1)
		} else {
			alloc[grand].updateBalance(1)
		}

		sameSide := (alloc[parent].left == nodeIdx) == fromLeft
		decision := insertStep(alloc[grand].balance, sameSide)

		switch decision.rotation {
		case rotateNone:
			if !decision.propagate {
				return
			}

			parent, nodeIdx = grand, parent

			continue
		case rotateSingle:
			tree.stats.SingleRotations++

			if fromLeft {
				tree.rotateRight(grand)
			} else {
				tree.rotateLeft(grand)
			}

			alloc[grand].balance, alloc[parent].balance = decision.balance, decision.child
		case rotateDouble:
			tree.stats.DoubleRotations++

			var parentBalance, grandBalance, nodeBalance int8

			if fromLeft {
				parentBalance, grandBalance, nodeBalance = insertDoubleBalances(alloc[nodeIdx].balance)

				tree.rotateLeft(parent)
				tree.rotateRight(grand)
			} else {
				parentBalance, grandBalance, nodeBalance = mirrored(insertDoubleBalances, alloc[nodeIdx].balance)

				tree.rotateRight(parent)
				tree.rotateLeft(grand)
			}

			alloc[parent].balance = parentBalance
			alloc[grand].balance = grandBalance
			alloc[nodeIdx].balance = nodeBalance
		}

		return
	}
}
