// Package ostree provides an order-statistic treap: O(log n) insert, delete,
// rank and select over a strictly ordered key set.
package ostree

import "math/rand/v2"

type node[K any] struct {
	key         K
	priority    uint64
	size        int
	left, right *node[K]
}

// Tree is not safe for concurrent use.
type Tree[K any] struct {
	root *node[K]
	less func(a, b K) bool
}

// New builds an empty tree. less must be a strict weak ordering; keys that
// compare equal are treated as the same key.
func New[K any](less func(a, b K) bool) *Tree[K] {
	return &Tree[K]{less: less}
}

func (t *Tree[K]) Len() int {
	return size(t.root)
}

// Insert adds k. Inserting a key equal to an existing one replaces it.
func (t *Tree[K]) Insert(k K) {
	left, rest := t.split(t.root, k)
	_, right := t.splitAfter(rest, k)
	n := &node[K]{key: k, priority: rand.Uint64(), size: 1}
	t.root = merge(merge(left, n), right)
}

// Delete removes k and reports whether it was present.
func (t *Tree[K]) Delete(k K) bool {
	left, rest := t.split(t.root, k)
	mid, right := t.splitAfter(rest, k)
	t.root = merge(left, right)
	return mid != nil
}

// Rank returns the number of keys strictly ordered before k.
func (t *Tree[K]) Rank(k K) int {
	count := 0
	n := t.root
	for n != nil {
		if t.less(n.key, k) {
			count += size(n.left) + 1
			n = n.right
			continue
		}
		n = n.left
	}
	return count
}

// At returns the key at 0-based position i.
func (t *Tree[K]) At(i int) (K, bool) {
	n := t.root
	for n != nil {
		ls := size(n.left)
		switch {
		case i < ls:
			n = n.left
		case i == ls:
			return n.key, true
		default:
			i -= ls + 1
			n = n.right
		}
	}
	var zero K
	return zero, false
}

// Range calls fn for keys at positions [offset, offset+limit) in order until
// fn returns false.
func (t *Tree[K]) Range(offset, limit int, fn func(pos int, k K) bool) {
	if offset < 0 {
		offset = 0
	}
	end := offset + limit
	if limit <= 0 || end > t.Len() {
		end = t.Len()
	}
	for i := offset; i < end; i++ {
		k, ok := t.At(i)
		if !ok || !fn(i, k) {
			return
		}
	}
}

// split returns (keys < k, keys >= k).
func (t *Tree[K]) split(n *node[K], k K) (*node[K], *node[K]) {
	if n == nil {
		return nil, nil
	}
	if t.less(n.key, k) {
		l, r := t.split(n.right, k)
		n.right = l
		update(n)
		return n, r
	}
	l, r := t.split(n.left, k)
	n.left = r
	update(n)
	return l, n
}

// splitAfter returns (keys <= k, keys > k).
func (t *Tree[K]) splitAfter(n *node[K], k K) (*node[K], *node[K]) {
	if n == nil {
		return nil, nil
	}
	if !t.less(k, n.key) {
		l, r := t.splitAfter(n.right, k)
		n.right = l
		update(n)
		return n, r
	}
	l, r := t.splitAfter(n.left, k)
	n.left = r
	update(n)
	return l, n
}

func merge[K any](a, b *node[K]) *node[K] {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.priority > b.priority {
		a.right = merge(a.right, b)
		update(a)
		return a
	}
	b.left = merge(a, b.left)
	update(b)
	return b
}

func size[K any](n *node[K]) int {
	if n == nil {
		return 0
	}
	return n.size
}

func update[K any](n *node[K]) {
	n.size = 1 + size(n.left) + size(n.right)
}
