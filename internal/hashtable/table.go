// Package hashtable provides a string-keyed hash table with separate
// chaining. It backs the secondary indices and the member registry.
//
// Keys are hashed with a base-31 polynomial rolling hash reduced modulo the
// bucket count. A table holds at most one entry per key: inserting an
// existing key replaces its value.
//
// The bucket count is fixed at construction unless a maximum load factor is
// set, in which case the table doubles its buckets whenever an insertion
// pushes entries/buckets above that factor. A Table is not safe for
// concurrent use.
package hashtable

import "iter"

// DefaultBuckets is the bucket count used when none is given.
const DefaultBuckets = 100

const hashBase = 31

type entry[V any] struct {
	key   string
	value V
}

// Table is a chained hash table from string keys to values of type V.
type Table[V any] struct {
	buckets       [][]entry[V]
	size          int
	maxLoadFactor float64
}

// Option configures a Table.
type Option func(*options)

type options struct {
	buckets       int
	maxLoadFactor float64
}

// WithBuckets sets the initial bucket count. Non-positive values are
// ignored.
func WithBuckets(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.buckets = n
		}
	}
}

// WithMaxLoadFactor enables rehashing once entries/buckets exceeds f.
// Zero (the default) keeps the bucket count fixed.
func WithMaxLoadFactor(f float64) Option {
	return func(o *options) {
		if f > 0 {
			o.maxLoadFactor = f
		}
	}
}

// New creates an empty Table.
func New[V any](opts ...Option) *Table[V] {
	o := options{buckets: DefaultBuckets}
	for _, opt := range opts {
		opt(&o)
	}
	return &Table[V]{
		buckets:       make([][]entry[V], o.buckets),
		maxLoadFactor: o.maxLoadFactor,
	}
}

// hash computes the polynomial rolling hash of key modulo n.
func hash(key string, n int) int {
	m := uint64(n)
	var h uint64
	for _, r := range key {
		h = (h*hashBase + uint64(r)) % m
	}
	return int(h)
}

// Insert stores value under key, replacing the value of an existing key in
// place. A new key is prepended to its chain.
func (t *Table[V]) Insert(key string, value V) {
	i := hash(key, len(t.buckets))
	chain := t.buckets[i]
	for j := range chain {
		if chain[j].key == key {
			chain[j].value = value
			return
		}
	}
	// New entries go to the head of the chain.
	t.buckets[i] = append([]entry[V]{{key: key, value: value}}, chain...)
	t.size++

	if t.maxLoadFactor > 0 && t.LoadFactor() > t.maxLoadFactor {
		t.rehash(len(t.buckets) * 2)
	}
}

// Search returns the value stored under key.
func (t *Table[V]) Search(key string) (V, bool) {
	for _, e := range t.buckets[hash(key, len(t.buckets))] {
		if e.key == key {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present.
func (t *Table[V]) Contains(key string) bool {
	_, ok := t.Search(key)
	return ok
}

// Delete removes key from the table. Returns false if the key was absent.
func (t *Table[V]) Delete(key string) bool {
	i := hash(key, len(t.buckets))
	chain := t.buckets[i]
	for j := range chain {
		if chain[j].key != key {
			continue
		}
		copy(chain[j:], chain[j+1:])
		var zero entry[V]
		chain[len(chain)-1] = zero
		t.buckets[i] = chain[:len(chain)-1]
		t.size--
		return true
	}
	return false
}

// Len returns the number of entries.
func (t *Table[V]) Len() int {
	return t.size
}

// Buckets returns the current bucket count.
func (t *Table[V]) Buckets() int {
	return len(t.buckets)
}

// LoadFactor returns entries per bucket.
func (t *Table[V]) LoadFactor() float64 {
	return float64(t.size) / float64(len(t.buckets))
}

// All yields every entry bucket by bucket, each chain newest first.
func (t *Table[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, chain := range t.buckets {
			for _, e := range chain {
				if !yield(e.key, e.value) {
					return
				}
			}
		}
	}
}

// rehash redistributes every entry over n buckets, keeping the relative
// order of entries that land in the same chain.
func (t *Table[V]) rehash(n int) {
	old := t.buckets
	t.buckets = make([][]entry[V], n)
	for _, chain := range old {
		for _, e := range chain {
			i := hash(e.key, n)
			t.buckets[i] = append(t.buckets[i], e)
		}
	}
}
