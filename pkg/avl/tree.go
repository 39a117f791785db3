package avl

import (
	"cmp"
	"iter"
)

// Tree is an AVL tree with an API similar to the one of C++ STL's std::map.
//
// Nodes live in an Allocator and are addressed by handles, so parent links
// never own anything. Handles are stable: rebalancing and removing other keys
// do not move a key to a different node.
//
// A Tree is not safe for concurrent use.
type Tree[K, V any] struct {
	// Nodes allocator.
	allocator *Allocator[K, V]

	// Root of the tree.
	root uint32

	// Number of nodes under root, including the root.
	count int

	compare func(a, b K) int
	stats   Stats
}

// New creates an empty tree ordered by the natural order of K.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return NewFunc[K, V](cmp.Compare[K])
}

// NewFunc creates an empty tree ordered by compare, which must return a
// negative number, zero or a positive number like [cmp.Compare].
func NewFunc[K, V any](compare func(a, b K) int) *Tree[K, V] {
	return NewWithAllocator(NewAllocator[K, V](), compare)
}

// NewWithAllocator creates an empty tree that takes its nodes from allocator.
// Several trees may share one allocator.
func NewWithAllocator[K, V any](allocator *Allocator[K, V], compare func(a, b K) int) *Tree[K, V] {
	return &Tree[K, V]{allocator: allocator, compare: compare}
}

func (tree *Tree[K, V]) storage() []node[K, V] {
	return tree.allocator.storage
}

// Allocator returns the bound nodes allocator.
func (tree *Tree[K, V]) Allocator() *Allocator[K, V] {
	return tree.allocator
}

// Len returns the number of elements in the tree.
func (tree *Tree[K, V]) Len() int {
	return tree.count
}

// Stats returns the operation counters collected since the tree was created.
func (tree *Tree[K, V]) Stats() Stats {
	return tree.stats
}

// Get is a convenience function for finding the value stored under key.
func (tree *Tree[K, V]) Get(key K) (V, bool) {
	nodeIdx := tree.find(key)
	if nodeIdx == 0 {
		var zero V

		return zero, false
	}

	return tree.storage()[nodeIdx].value, true
}

// Lookup is Get for callers that require key to be present: a missing key
// is reported as a *KeyError.
func (tree *Tree[K, V]) Lookup(key K) (V, error) {
	value, ok := tree.Get(key)
	if !ok {
		return value, &KeyError{Key: key}
	}

	return value, nil
}

// Contains reports whether key is stored in the tree.
func (tree *Tree[K, V]) Contains(key K) bool {
	return tree.find(key) != 0
}

// Find returns an iterator pointing at key, or Limit() when key is absent.
func (tree *Tree[K, V]) Find(key K) Iterator[K, V] {
	return Iterator[K, V]{tree, tree.find(key)}
}

// Root returns an iterator pointing at the root node, or Limit() for an empty tree.
func (tree *Tree[K, V]) Root() Iterator[K, V] {
	return Iterator[K, V]{tree, tree.root}
}

// Min creates an iterator that points to the minimum item in the tree.
// If the tree is empty, returns Limit().
func (tree *Tree[K, V]) Min() Iterator[K, V] {
	return Iterator[K, V]{tree, minNode(tree.root, tree.storage())}
}

// Max creates an iterator that points at the maximum item in the tree.
//
// If the tree is empty, returns NegativeLimit().
func (tree *Tree[K, V]) Max() Iterator[K, V] {
	if tree.root == 0 {
		return Iterator[K, V]{tree, negativeLimitNode}
	}

	return Iterator[K, V]{tree, maxNode(tree.root, tree.storage())}
}

// Limit creates an iterator that points beyond the maximum item in the tree.
func (tree *Tree[K, V]) Limit() Iterator[K, V] {
	return Iterator[K, V]{tree, 0}
}

// NegativeLimit creates an iterator that points before the minimum item in the tree.
func (tree *Tree[K, V]) NegativeLimit() Iterator[K, V] {
	return Iterator[K, V]{tree, negativeLimitNode}
}

// FindGE finds the smallest element N such that N >= key, and returns the
// iterator pointing to the element. If no such element is found,
// returns tree.Limit().
func (tree *Tree[K, V]) FindGE(key K) Iterator[K, V] {
	nodeIdx, _ := tree.findGE(key)

	return Iterator[K, V]{tree, nodeIdx}
}

// FindLE finds the largest element N such that N <= key, and returns the
// iterator pointing to the element. If no such element is found,
// returns tree.NegativeLimit().
func (tree *Tree[K, V]) FindLE(key K) Iterator[K, V] {
	nodeIdx, exact := tree.findGE(key)
	if exact {
		return Iterator[K, V]{tree, nodeIdx}
	}

	if nodeIdx != 0 {
		return Iterator[K, V]{tree, doPrev(nodeIdx, tree.storage())}
	}

	return tree.Max()
}

// All yields the key-value pairs in ascending key order. The tree must not
// be modified during the iteration.
func (tree *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for it := tree.Min(); !it.Limit(); it = it.Next() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}

// Backward yields the key-value pairs in descending key order.
func (tree *Tree[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for it := tree.Max(); !it.NegativeLimit(); it = it.Prev() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}

// Keys returns the keys in ascending order.
func (tree *Tree[K, V]) Keys() []K {
	keys := make([]K, 0, tree.count)

	for key := range tree.All() {
		keys = append(keys, key)
	}

	return keys
}

// CloneShallow performs a shallow copy of the tree - the nodes are assumed to
// already exist in the allocator, e.g. one produced by Allocator.Clone.
func (tree *Tree[K, V]) CloneShallow(allocator *Allocator[K, V]) *Tree[K, V] {
	clone := *tree
	clone.allocator = allocator

	return &clone
}

// CloneDeep performs a deep copy of the tree - the nodes are created from
// scratch in allocator, which yields a compact arena.
func (tree *Tree[K, V]) CloneDeep(allocator *Allocator[K, V]) *Tree[K, V] {
	clone := &Tree[K, V]{
		count:     tree.count,
		allocator: allocator,
		compare:   tree.compare,
	}

	nodeMap := map[uint32]uint32{0: 0}
	origin := tree.storage()

	for it := tree.Min(); !it.Limit(); it = it.Next() {
		newNode := allocator.malloc()
		allocator.storage[newNode] = origin[it.node]
		nodeMap[it.node] = newNode
	}

	cloneStorage := allocator.storage

	for oldIdx, newIdx := range nodeMap {
		if oldIdx == 0 {
			continue
		}

		cloneNode := &cloneStorage[newIdx]
		cloneNode.left = nodeMap[origin[oldIdx].left]
		cloneNode.right = nodeMap[origin[oldIdx].right]
		cloneNode.parent = nodeMap[origin[oldIdx].parent]
	}

	clone.root = nodeMap[tree.root]

	return clone
}

// Clear removes all the nodes from the tree and returns them to the allocator.
func (tree *Tree[K, V]) Clear() {
	nodes := make([]uint32, 0, tree.count)

	for it := tree.Min(); !it.Limit(); it = it.Next() {
		nodes = append(nodes, it.node)
	}

	for _, nd := range nodes {
		tree.allocator.free(nd)
	}

	tree.root = 0
	tree.count = 0
}
