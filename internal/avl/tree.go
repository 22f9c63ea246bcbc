// Package avl provides a height-balanced binary search tree. The catalogue
// uses it as the primary book store keyed by ISBN.
//
// Heights follow the convention that an empty subtree has height -1 and a
// leaf has height 0. After every insertion each node's balance factor,
// height(left) - height(right), is in {-1, 0, 1}.
package avl

import "cmp"

type node[K cmp.Ordered, V any] struct {
	key         K
	value       V
	left, right *node[K, V]
	height      int
}

// Entry is a key/value pair produced by InOrder.
type Entry[K cmp.Ordered, V any] struct {
	Key   K
	Value V
}

// Tree is an AVL tree. The zero value is an empty tree ready to use.
// A Tree is not safe for concurrent use.
type Tree[K cmp.Ordered, V any] struct {
	root *node[K, V]
	size int
}

// New returns an empty tree.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return &Tree[K, V]{}
}

func height[K cmp.Ordered, V any](n *node[K, V]) int {
	if n == nil {
		return -1
	}
	return n.height
}

func balanceFactor[K cmp.Ordered, V any](n *node[K, V]) int {
	return height(n.left) - height(n.right)
}

func updateHeight[K cmp.Ordered, V any](n *node[K, V]) {
	n.height = 1 + max(height(n.left), height(n.right))
}

func rotateRight[K cmp.Ordered, V any](y *node[K, V]) *node[K, V] {
	x := y.left
	y.left = x.right
	x.right = y
	updateHeight(y)
	updateHeight(x)
	return x
}

func rotateLeft[K cmp.Ordered, V any](x *node[K, V]) *node[K, V] {
	y := x.right
	x.right = y.left
	y.left = x
	updateHeight(x)
	updateHeight(y)
	return y
}

// Insert adds key with value. If key is already present the tree is left
// untouched, including the stored value, and Insert returns false.
func (t *Tree[K, V]) Insert(key K, value V) bool {
	var inserted bool
	t.root = t.insert(t.root, key, value, &inserted)
	if inserted {
		t.size++
	}
	return inserted
}

func (t *Tree[K, V]) insert(n *node[K, V], key K, value V, inserted *bool) *node[K, V] {
	if n == nil {
		*inserted = true
		return &node[K, V]{key: key, value: value}
	}

	switch {
	case key < n.key:
		n.left = t.insert(n.left, key, value, inserted)
	case key > n.key:
		n.right = t.insert(n.right, key, value, inserted)
	default:
		return n
	}
	if !*inserted {
		return n
	}

	updateHeight(n)
	bf := balanceFactor(n)

	// The rotation case is chosen by where the new key went relative to
	// the heavy child.
	switch {
	case bf > 1 && key < n.left.key:
		return rotateRight(n)
	case bf < -1 && key > n.right.key:
		return rotateLeft(n)
	case bf > 1 && key > n.left.key:
		n.left = rotateLeft(n.left)
		return rotateRight(n)
	case bf < -1 && key < n.right.key:
		n.right = rotateRight(n.right)
		return rotateLeft(n)
	}
	return n
}

// Search returns the value stored under key.
func (t *Tree[K, V]) Search(key K) (V, bool) {
	n := t.root
	for n != nil {
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			n = n.right
		default:
			return n.value, true
		}
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present.
func (t *Tree[K, V]) Contains(key K) bool {
	_, ok := t.Search(key)
	return ok
}

// InOrder returns every entry in ascending key order.
func (t *Tree[K, V]) InOrder() []Entry[K, V] {
	out := make([]Entry[K, V], 0, t.size)
	var walk func(n *node[K, V])
	walk = func(n *node[K, V]) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, Entry[K, V]{Key: n.key, Value: n.value})
		walk(n.right)
	}
	walk(t.root)
	return out
}

// Len returns the number of keys in the tree.
func (t *Tree[K, V]) Len() int {
	return t.size
}

// Height returns the height of the root, -1 for an empty tree.
func (t *Tree[K, V]) Height() int {
	return height(t.root)
}
