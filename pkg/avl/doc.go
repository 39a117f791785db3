// Package avl implements an AVL tree: an ordered key-value map whose
// operations stay O(log n) because every node keeps the heights of its two
// subtrees within one of each other.
//
// Nodes are stored in an Allocator and linked by uint32 handles. Insert and
// Remove walk back up those links after the plain BST change and rotate where
// a balance factor reaches ±2. Removing a node with two children moves its
// in-order predecessor into its position instead of copying keys, so
// iterators to other elements stay valid.
//
// A tree is not thread safe. Callers must serialize access.
package avl
