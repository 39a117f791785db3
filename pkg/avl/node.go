package avl

// node is a balance-augmented BST node living in an Allocator slot.
type node[K, V any] struct {
	key                 K
	value               V
	parent, left, right uint32
	// height(right) - height(left): -1, 0 or +1 at rest, ±2 only inside a fix-up.
	balance int8
}

func (nd *node[K, V]) updateBalance(diff int8) {
	nd.balance += diff
}

func stable(balance int8) bool {
	return balance >= -1 && balance <= 1
}

func doAssert(condition bool) {
	if !condition {
		panic("avl internal assertion failed")
	}
}

// Internal node attribute accessors.
func getBalance[K, V any](nodeIdx uint32, storage []node[K, V]) int8 {
	if nodeIdx == 0 {
		return 0
	}

	return storage[nodeIdx].balance
}

func isLeftChild[K, V any](nodeIdx uint32, storage []node[K, V]) bool {
	parent := storage[nodeIdx].parent

	return parent != 0 && storage[parent].left == nodeIdx
}

func isRightChild[K, V any](nodeIdx uint32, storage []node[K, V]) bool {
	parent := storage[nodeIdx].parent

	return parent != 0 && storage[parent].right == nodeIdx
}

// sideDiff is the balance change a parent sees when the subtree rooted at
// nodeIdx shrinks: +1 for a left child, -1 for a right child, 0 for the root.
func sideDiff[K, V any](nodeIdx uint32, storage []node[K, V]) int8 {
	switch {
	case isLeftChild(nodeIdx, storage):
		return 1
	case isRightChild(nodeIdx, storage):
		return -1
	default:
		return 0
	}
}
