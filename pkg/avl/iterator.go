package avl

// Iterator allows scanning tree elements in sort order and walking the tree
// structure.
//
// Iterator invalidation rule is the same as C++ std::map<>'s. That
// is, if you delete the element that an iterator points to, the
// iterator becomes invalid. For other operation types, the iterator
// remains valid.
type Iterator[K, V any] struct {
	tree *Tree[K, V]
	node uint32
}

// Equal checks for the underlying nodes equality.
func (iter Iterator[K, V]) Equal(other Iterator[K, V]) bool {
	return iter.node == other.node
}

// Limit checks if the iterator points beyond the max element in the tree.
func (iter Iterator[K, V]) Limit() bool {
	return iter.node == 0
}

// NegativeLimit checks if the iterator points before the minimum element in the tree.
func (iter Iterator[K, V]) NegativeLimit() bool {
	return iter.node == negativeLimitNode
}

// Valid reports whether the iterator points at an element.
func (iter Iterator[K, V]) Valid() bool {
	return !iter.Limit() && !iter.NegativeLimit()
}

// Min checks if the iterator points to the minimum element in the tree.
func (iter Iterator[K, V]) Min() bool {
	return iter.Valid() && iter.node == minNode(iter.tree.root, iter.tree.storage())
}

// Max checks if the iterator points to the maximum element in the tree.
func (iter Iterator[K, V]) Max() bool {
	return iter.Valid() && iter.node == maxNode(iter.tree.root, iter.tree.storage())
}

// Key returns the key of the current element.
//
// REQUIRES: iter.Valid().
func (iter Iterator[K, V]) Key() K {
	doAssert(iter.Valid())

	return iter.tree.storage()[iter.node].key
}

// Value returns the value of the current element.
//
// REQUIRES: iter.Valid().
func (iter Iterator[K, V]) Value() V {
	doAssert(iter.Valid())

	return iter.tree.storage()[iter.node].value
}

// SetValue replaces the value of the current element in place.
//
// REQUIRES: iter.Valid().
func (iter Iterator[K, V]) SetValue(value V) {
	doAssert(iter.Valid())

	iter.tree.storage()[iter.node].value = value
}

// Balance returns height(right) - height(left) of the current element.
//
// REQUIRES: iter.Valid().
func (iter Iterator[K, V]) Balance() int {
	doAssert(iter.Valid())

	return int(iter.tree.storage()[iter.node].balance)
}

// Parent returns an iterator to the parent node, or Limit() at the root.
func (iter Iterator[K, V]) Parent() Iterator[K, V] {
	doAssert(iter.Valid())

	return Iterator[K, V]{iter.tree, iter.tree.storage()[iter.node].parent}
}

// Left returns an iterator to the left child, or Limit() when there is none.
func (iter Iterator[K, V]) Left() Iterator[K, V] {
	doAssert(iter.Valid())

	return Iterator[K, V]{iter.tree, iter.tree.storage()[iter.node].left}
}

// Right returns an iterator to the right child, or Limit() when there is none.
func (iter Iterator[K, V]) Right() Iterator[K, V] {
	doAssert(iter.Valid())

	return Iterator[K, V]{iter.tree, iter.tree.storage()[iter.node].right}
}

// Depth returns the number of edges between the current element and the root.
func (iter Iterator[K, V]) Depth() int {
	doAssert(iter.Valid())

	alloc := iter.tree.storage()
	depth := 0

	for parent := alloc[iter.node].parent; parent != 0; parent = alloc[parent].parent {
		depth++
	}

	return depth
}

// Next creates a new iterator that points to the successor of the current element.
//
// REQUIRES: !iter.Limit().
func (iter Iterator[K, V]) Next() Iterator[K, V] {
	doAssert(!iter.Limit())

	if iter.NegativeLimit() {
		return iter.tree.Min()
	}

	return Iterator[K, V]{iter.tree, doNext(iter.node, iter.tree.storage())}
}

// Prev creates a new iterator that points to the predecessor of the current
// node.
//
// REQUIRES: !iter.NegativeLimit().
func (iter Iterator[K, V]) Prev() Iterator[K, V] {
	doAssert(!iter.NegativeLimit())

	if iter.Limit() {
		return iter.tree.Max()
	}

	return Iterator[K, V]{iter.tree, doPrev(iter.node, iter.tree.storage())}
}
